package service

import (
	"context"
	"errors"
	"testing"

	"matcharena/config"
	"matcharena/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func testConfig() *config.Config {
	return &config.Config{
		StartingBalance: 500,
		CommissionRate:  0.10,
		AdminUIDs:       []string{"admin-1"},
		Environment:     "test",
	}
}

func newMockUoW() (*MockUnitOfWork, *MockUnitOfWorkFactory, *MockUserRepository, *MockMatchRepository, *MockDepositRepository, *MockWithdrawalRepository, *MockBalanceHistoryRepository) {
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockMatchRepo := new(MockMatchRepository)
	mockDepositRepo := new(MockDepositRepository)
	mockWithdrawalRepo := new(MockWithdrawalRepository)
	mockHistoryRepo := new(MockBalanceHistoryRepository)

	mockUoW.SetRepositories(mockUserRepo, mockMatchRepo, mockDepositRepo, mockWithdrawalRepo, mockHistoryRepo)
	mockFactory.On("Create").Return(mockUoW)

	return mockUoW, mockFactory, mockUserRepo, mockMatchRepo, mockDepositRepo, mockWithdrawalRepo, mockHistoryRepo
}

func TestWalletService_GetOrCreateUser_ExistingUser(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, _, mockHistoryRepo := newMockUoW()
	service := NewWalletService(mockFactory, testConfig())

	existingUser := &models.User{
		UID:      "user-1",
		Username: "testuser",
		Balance:  50000,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByUID", ctx, "user-1").Return(existingUser, nil)

	user, err := service.GetOrCreateUser(ctx, "user-1", "testuser")

	assert.NoError(t, err)
	assert.Equal(t, existingUser, user)

	mockFactory.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockUserRepo.AssertNotCalled(t, "Create")
	mockHistoryRepo.AssertNotCalled(t, "Record")
}

func TestWalletService_GetOrCreateUser_NewUser(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, _, mockHistoryRepo := newMockUoW()
	service := NewWalletService(mockFactory, testConfig())

	newUser := &models.User{
		UID:      "user-1",
		Username: "newuser",
		Balance:  500,
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByUID", ctx, "user-1").Return(nil, nil)
	mockUserRepo.On("Create", ctx, "user-1", "newuser", int64(500)).Return(newUser, nil)

	mockHistoryRepo.On("Record", ctx, mock.MatchedBy(func(h *models.BalanceHistory) bool {
		return h.UID == "user-1" &&
			h.BalanceBefore == 0 &&
			h.BalanceAfter == 500 &&
			h.ChangeAmount == 500 &&
			h.TransactionType == models.TransactionTypeInitial
	})).Return(nil)

	user, err := service.GetOrCreateUser(ctx, "user-1", "newuser")

	assert.NoError(t, err)
	assert.Equal(t, newUser, user)
	assert.Len(t, mockUoW.Events.published, 2) // balance change + user created

	mockUserRepo.AssertExpectations(t)
	mockHistoryRepo.AssertExpectations(t)
}

func TestWalletService_GetOrCreateUser_EmptyUID(t *testing.T) {
	_, mockFactory, _, _, _, _, _ := newMockUoW()
	service := NewWalletService(mockFactory, testConfig())

	_, err := service.GetOrCreateUser(context.Background(), "", "someone")

	assert.ErrorIs(t, err, ErrInvalidArgument)
	mockFactory.AssertNotCalled(t, "Create")
}

func TestWalletService_GetUser_NotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, _, _ := newMockUoW()
	service := NewWalletService(mockFactory, testConfig())

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockUserRepo.On("GetByUID", ctx, "ghost").Return(nil, nil)

	_, err := service.GetUser(ctx, "ghost")

	assert.ErrorIs(t, err, ErrPlayerNotFound)
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestWalletService_GetTransactionHistory(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, _, _, mockHistoryRepo := newMockUoW()
	service := NewWalletService(mockFactory, testConfig())

	history := []*models.BalanceHistory{
		{UID: "user-1", ChangeAmount: -100, TransactionType: models.TransactionTypeEntryFee},
		{UID: "user-1", ChangeAmount: 500, TransactionType: models.TransactionTypeInitial},
	}

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)
	mockHistoryRepo.On("GetByUser", ctx, "user-1", 20).Return(history, nil)

	got, err := service.GetTransactionHistory(ctx, "user-1", 20)

	assert.NoError(t, err)
	assert.Equal(t, history, got)
}

func TestWalletService_GetOrCreateUser_CreateError(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, mockUserRepo, _, _, _, mockHistoryRepo := newMockUoW()
	service := NewWalletService(mockFactory, testConfig())

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByUID", ctx, "user-1").Return(nil, nil)
	mockUserRepo.On("Create", ctx, "user-1", "newuser", int64(500)).Return(nil, errors.New("insert failed"))

	_, err := service.GetOrCreateUser(ctx, "user-1", "newuser")

	assert.Error(t, err)
	mockUoW.AssertNotCalled(t, "Commit")
	mockHistoryRepo.AssertNotCalled(t, "Record")
}
