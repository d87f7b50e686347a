package models

import (
	"time"
)

// TransactionType represents the type of balance change
type TransactionType string

const (
	TransactionTypeInitial          TransactionType = "initial"
	TransactionTypeEntryFee         TransactionType = "entry_fee"
	TransactionTypeEntryFeeRefund   TransactionType = "entry_fee_refund"
	TransactionTypeMatchPayout      TransactionType = "match_payout"
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawalHold   TransactionType = "withdrawal_hold"
	TransactionTypeWithdrawalRefund TransactionType = "withdrawal_refund"
)

// RelatedType represents what type of entity the related_id refers to
type RelatedType string

const (
	RelatedTypeMatch      RelatedType = "match"
	RelatedTypeDeposit    RelatedType = "deposit"
	RelatedTypeWithdrawal RelatedType = "withdrawal"
)

// BalanceHistory represents a historical balance change
type BalanceHistory struct {
	ID                  int64           `db:"id"`
	UID                 string          `db:"uid"`
	BalanceBefore       int64           `db:"balance_before"`
	BalanceAfter        int64           `db:"balance_after"`
	ChangeAmount        int64           `db:"change_amount"`
	TransactionType     TransactionType `db:"transaction_type"`
	TransactionMetadata map[string]any  `db:"transaction_metadata"`
	RelatedID           *string         `db:"related_id"`
	RelatedType         *RelatedType    `db:"related_type"`
	CreatedAt           time.Time       `db:"created_at"`
}
