package service

import (
	"context"
	"testing"

	"matcharena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPaymentService_RequestDeposit(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, mockDepositRepo, _, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	user := &models.User{UID: "user-1", Username: "alice", Balance: 100}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByUID", ctx, "user-1").Return(user, nil)
	mockDepositRepo.On("Create", ctx, mock.MatchedBy(func(d *models.Deposit) bool {
		return d.UserID == "user-1" &&
			d.Amount == 500 &&
			d.ExternalRef == "txn-abc" &&
			d.Status == models.PaymentStatusPending
	})).Return(nil)

	deposit, err := service.RequestDeposit(ctx, "user-1", 500, "txn-abc", "receipt.png")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, deposit.Status)

	// Requesting a deposit never touches the balance
	mockUserRepo.AssertNotCalled(t, "AddBalance")
	mockHistoryRepo.AssertNotCalled(t, "Record")
}

func TestPaymentService_RequestDeposit_Validation(t *testing.T) {
	_, mockFactory, _, _, _, _, _ := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())
	ctx := context.Background()

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := service.RequestDeposit(ctx, "user-1", 0, "txn-abc", "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("missing external ref", func(t *testing.T) {
		_, err := service.RequestDeposit(ctx, "user-1", 500, "", "")
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	mockFactory.AssertNotCalled(t, "Create")
}

func TestPaymentService_ApproveDeposit(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, mockDepositRepo, _, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	pending := &models.Deposit{
		ID:          "dep-1",
		UserID:      "user-1",
		Amount:      500,
		ExternalRef: "txn-abc",
		Status:      models.PaymentStatusPending,
	}
	user := &models.User{UID: "user-1", Username: "alice", Balance: 100}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockDepositRepo.On("GetByID", ctx, "dep-1").Return(pending, nil)
	mockUserRepo.On("GetByUID", ctx, "user-1").Return(user, nil)
	mockUserRepo.On("AddBalance", ctx, "user-1", int64(500)).Return(nil)
	mockDepositRepo.On("MarkHandled", ctx, "dep-1", models.PaymentStatusApproved, "admin-1").Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UID == "user-1" &&
			h.ChangeAmount == 500 &&
			h.BalanceBefore == 100 &&
			h.BalanceAfter == 600 &&
			h.TransactionType == models.TransactionTypeDeposit
	})).Return(nil)

	deposit, err := service.ApproveDeposit(ctx, "admin-1", "dep-1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, deposit.Status)
	require.NotNil(t, deposit.HandledBy)
	assert.Equal(t, "admin-1", *deposit.HandledBy)

	mockUserRepo.AssertExpectations(t)
	mockDepositRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestPaymentService_ApproveDeposit_AlreadyHandled(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, mockDepositRepo, _, _ := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	handled := &models.Deposit{
		ID:     "dep-1",
		UserID: "user-1",
		Amount: 500,
		Status: models.PaymentStatusDeclined,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockDepositRepo.On("GetByID", ctx, "dep-1").Return(handled, nil)

	_, err := service.ApproveDeposit(ctx, "admin-1", "dep-1")

	assert.ErrorIs(t, err, ErrAlreadyHandled)
	mockUserRepo.AssertNotCalled(t, "AddBalance")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPaymentService_DeclineDeposit(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, mockDepositRepo, _, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	pending := &models.Deposit{
		ID:     "dep-1",
		UserID: "user-1",
		Amount: 500,
		Status: models.PaymentStatusPending,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockDepositRepo.On("GetByID", ctx, "dep-1").Return(pending, nil)
	mockDepositRepo.On("MarkHandled", ctx, "dep-1", models.PaymentStatusDeclined, "admin-1").Return(nil)

	deposit, err := service.DeclineDeposit(ctx, "admin-1", "dep-1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDeclined, deposit.Status)

	// Declining has no balance effect
	mockUserRepo.AssertNotCalled(t, "AddBalance")
	mockHistoryRepo.AssertNotCalled(t, "Record")
}

func TestPaymentService_RequestWithdrawal_ReservesFunds(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, mockWithdrawalRepo, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	user := &models.User{UID: "user-1", Username: "alice", Balance: 1000}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByUID", ctx, "user-1").Return(user, nil)
	mockUserRepo.On("DeductBalance", ctx, "user-1", int64(400)).Return(nil)
	mockWithdrawalRepo.On("Create", ctx, mock.MatchedBy(func(w *models.Withdrawal) bool {
		return w.UserID == "user-1" &&
			w.Amount == 400 &&
			w.PaymentNumber == "555-0100" &&
			w.Status == models.PaymentStatusPending
	})).Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UID == "user-1" &&
			h.ChangeAmount == -400 &&
			h.BalanceAfter == 600 &&
			h.TransactionType == models.TransactionTypeWithdrawalHold
	})).Return(nil)

	withdrawal, err := service.RequestWithdrawal(ctx, "user-1", 400, "555-0100")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPending, withdrawal.Status)

	mockUserRepo.AssertExpectations(t)
	mockWithdrawalRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestPaymentService_RequestWithdrawal_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, mockWithdrawalRepo, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	user := &models.User{UID: "user-1", Username: "alice", Balance: 100}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByUID", ctx, "user-1").Return(user, nil)
	mockUserRepo.On("DeductBalance", ctx, "user-1", int64(400)).Return(ErrInsufficientFunds)

	_, err := service.RequestWithdrawal(ctx, "user-1", 400, "555-0100")

	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// A failed debit leaves no request row behind
	mockWithdrawalRepo.AssertNotCalled(t, "Create")
	mockHistoryRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestPaymentService_ApproveWithdrawal(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, mockWithdrawalRepo, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	pending := &models.Withdrawal{
		ID:            "wd-1",
		UserID:        "user-1",
		Amount:        400,
		PaymentNumber: "555-0100",
		Status:        models.PaymentStatusPending,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWithdrawalRepo.On("GetByID", ctx, "wd-1").Return(pending, nil)
	mockWithdrawalRepo.On("MarkHandled", ctx, "wd-1", models.PaymentStatusApproved, "admin-1").Return(nil)

	withdrawal, err := service.ApproveWithdrawal(ctx, "admin-1", "wd-1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusApproved, withdrawal.Status)

	// Funds were reserved at request time, so approval moves no money
	mockUserRepo.AssertNotCalled(t, "AddBalance")
	mockUserRepo.AssertNotCalled(t, "DeductBalance")
	mockHistoryRepo.AssertNotCalled(t, "Record")
}

func TestPaymentService_DeclineWithdrawal_Refunds(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, mockWithdrawalRepo, mockHistoryRepo := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	pending := &models.Withdrawal{
		ID:            "wd-1",
		UserID:        "user-1",
		Amount:        400,
		PaymentNumber: "555-0100",
		Status:        models.PaymentStatusPending,
	}
	user := &models.User{UID: "user-1", Username: "alice", Balance: 600}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockWithdrawalRepo.On("GetByID", ctx, "wd-1").Return(pending, nil)
	mockUserRepo.On("GetByUID", ctx, "user-1").Return(user, nil)
	mockUserRepo.On("AddBalance", ctx, "user-1", int64(400)).Return(nil)
	mockWithdrawalRepo.On("MarkHandled", ctx, "wd-1", models.PaymentStatusDeclined, "admin-1").Return(nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UID == "user-1" &&
			h.ChangeAmount == 400 &&
			h.BalanceAfter == 1000 &&
			h.TransactionType == models.TransactionTypeWithdrawalRefund
	})).Return(nil)

	withdrawal, err := service.DeclineWithdrawal(ctx, "admin-1", "wd-1")

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusDeclined, withdrawal.Status)

	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestPaymentService_AdminGates(t *testing.T) {
	_, mockFactory, _, _, _, _, _ := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())
	ctx := context.Background()

	t.Run("approve deposit", func(t *testing.T) {
		_, err := service.ApproveDeposit(ctx, "user-1", "dep-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("decline deposit", func(t *testing.T) {
		_, err := service.DeclineDeposit(ctx, "user-1", "dep-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("approve withdrawal", func(t *testing.T) {
		_, err := service.ApproveWithdrawal(ctx, "user-1", "wd-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("decline withdrawal", func(t *testing.T) {
		_, err := service.DeclineWithdrawal(ctx, "user-1", "wd-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("list pending deposits", func(t *testing.T) {
		_, err := service.ListPendingDeposits(ctx, "user-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	t.Run("list pending withdrawals", func(t *testing.T) {
		_, err := service.ListPendingWithdrawals(ctx, "user-1")
		assert.ErrorIs(t, err, ErrUnauthorized)
	})

	mockFactory.AssertNotCalled(t, "Create")
}

func TestPaymentService_RequestNotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, mockDepositRepo, mockWithdrawalRepo, _ := newMockUoW()
	service := NewPaymentService(mockFactory, testConfig())

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockDepositRepo.On("GetByID", ctx, "missing").Return(nil, nil)
	mockWithdrawalRepo.On("GetByID", ctx, "missing").Return(nil, nil)

	_, err := service.ApproveDeposit(ctx, "admin-1", "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)

	_, err = service.DeclineWithdrawal(ctx, "admin-1", "missing")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}
