package testutil

import (
	"time"

	"matcharena/models"

	"github.com/google/uuid"
)

// CreateTestMatch creates an open 1v1 test match with the creator joined
func CreateTestMatch(creatorUID, creatorName string, entryFee int64) *models.Match {
	return &models.Match{
		ID:        uuid.NewString(),
		Title:     "test match",
		GameType:  models.GameType1v1,
		EntryFee:  entryFee,
		Capacity:  models.GameType1v1.Capacity(),
		Status:    models.MatchStatusOpen,
		CreatedBy: creatorUID,
		Players: []models.PlayerRef{
			{UID: creatorUID, DisplayName: creatorName},
		},
	}
}

// CreateTestTournament creates an open tournament test match with the creator joined
func CreateTestTournament(creatorUID, creatorName string, entryFee int64) *models.Match {
	match := CreateTestMatch(creatorUID, creatorName, entryFee)
	match.GameType = models.GameTypeTournament
	match.Capacity = models.GameTypeTournament.Capacity()
	return match
}

// CreateTestDeposit creates a pending test deposit
func CreateTestDeposit(uid string, amount int64) *models.Deposit {
	return &models.Deposit{
		ID:          uuid.NewString(),
		UserID:      uid,
		Amount:      amount,
		ExternalRef: "txn-" + uuid.NewString()[:8],
		Status:      models.PaymentStatusPending,
	}
}

// CreateTestWithdrawal creates a pending test withdrawal
func CreateTestWithdrawal(uid string, amount int64) *models.Withdrawal {
	return &models.Withdrawal{
		ID:            uuid.NewString(),
		UserID:        uid,
		Amount:        amount,
		PaymentNumber: "555-0100",
		Status:        models.PaymentStatusPending,
	}
}

// CreateTestBalanceHistory creates a test balance history entry
func CreateTestBalanceHistory(uid string, transactionType models.TransactionType) *models.BalanceHistory {
	return &models.BalanceHistory{
		UID:             uid,
		BalanceBefore:   100000,
		BalanceAfter:    90000,
		ChangeAmount:    -10000,
		TransactionType: transactionType,
		TransactionMetadata: map[string]any{
			"test": true,
		},
		CreatedAt: time.Now(),
	}
}
