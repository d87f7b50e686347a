package models

import (
	"time"
)

// PaymentStatus represents the handling state of an external money
// movement request. Pending rows are the admin's work queue.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusDeclined PaymentStatus = "declined"
)

// Deposit is a user's claim of an external transfer into the platform.
// The balance is only credited when an admin approves it.
type Deposit struct {
	ID          string        `db:"id"`
	UserID      string        `db:"user_id"`
	Amount      int64         `db:"amount"`
	ExternalRef string        `db:"external_ref"`
	ProofRef    string        `db:"proof_ref"`
	Status      PaymentStatus `db:"status"`
	HandledBy   *string       `db:"handled_by"`
	CreatedAt   time.Time     `db:"created_at"`
	HandledAt   *time.Time    `db:"handled_at"`
}

// Withdrawal is a request to move funds out of the platform. The
// amount is debited at request time, so a pending withdrawal already
// holds its funds; declining refunds them.
type Withdrawal struct {
	ID            string        `db:"id"`
	UserID        string        `db:"user_id"`
	Amount        int64         `db:"amount"`
	PaymentNumber string        `db:"payment_number"`
	Status        PaymentStatus `db:"status"`
	HandledBy     *string       `db:"handled_by"`
	CreatedAt     time.Time     `db:"created_at"`
	HandledAt     *time.Time    `db:"handled_at"`
}

// IsPending checks if the request is still awaiting an admin decision
func (s PaymentStatus) IsPending() bool {
	return s == PaymentStatusPending
}
