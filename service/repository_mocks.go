package service

import (
	"context"
	"time"

	"matcharena/events"
	"matcharena/models"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, uid, username string, initialBalance int64) (*models.User, error) {
	args := m.Called(ctx, uid, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, uid string, amount int64) error {
	args := m.Called(ctx, uid, amount)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, uid string, amount int64) error {
	args := m.Called(ctx, uid, amount)
	return args.Error(0)
}

func (m *MockUserRepository) ApplyMatchResult(ctx context.Context, uid string, won bool, earnings int64) error {
	args := m.Called(ctx, uid, won, earnings)
	return args.Error(0)
}

func (m *MockUserRepository) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

// MockMatchRepository is a mock implementation of MatchRepository
type MockMatchRepository struct {
	mock.Mock
}

func (m *MockMatchRepository) Create(ctx context.Context, match *models.Match) error {
	args := m.Called(ctx, match)
	return args.Error(0)
}

func (m *MockMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Match), args.Error(1)
}

func (m *MockMatchRepository) AddPlayer(ctx context.Context, matchID string, player models.PlayerRef, position int) error {
	args := m.Called(ctx, matchID, player, position)
	return args.Error(0)
}

func (m *MockMatchRepository) UpdateStatus(ctx context.Context, matchID string, from, to models.MatchStatus) error {
	args := m.Called(ctx, matchID, from, to)
	return args.Error(0)
}

func (m *MockMatchRepository) SetWinner(ctx context.Context, matchID string, winner models.PlayerRef, commission int64) error {
	args := m.Called(ctx, matchID, winner, commission)
	return args.Error(0)
}

func (m *MockMatchRepository) Delete(ctx context.Context, matchID string) error {
	args := m.Called(ctx, matchID)
	return args.Error(0)
}

func (m *MockMatchRepository) UpsertSubmission(ctx context.Context, matchID string, sub models.ResultSubmission) error {
	args := m.Called(ctx, matchID, sub)
	return args.Error(0)
}

func (m *MockMatchRepository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

func (m *MockMatchRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Match), args.Error(1)
}

// MockDepositRepository is a mock implementation of DepositRepository
type MockDepositRepository struct {
	mock.Mock
}

func (m *MockDepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	args := m.Called(ctx, deposit)
	return args.Error(0)
}

func (m *MockDepositRepository) GetByID(ctx context.Context, id string) (*models.Deposit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deposit), args.Error(1)
}

func (m *MockDepositRepository) MarkHandled(ctx context.Context, id string, status models.PaymentStatus, handledBy string) error {
	args := m.Called(ctx, id, status, handledBy)
	return args.Error(0)
}

func (m *MockDepositRepository) ListPending(ctx context.Context) ([]*models.Deposit, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Deposit), args.Error(1)
}

func (m *MockDepositRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*models.Deposit, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Deposit), args.Error(1)
}

// MockWithdrawalRepository is a mock implementation of WithdrawalRepository
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	args := m.Called(ctx, withdrawal)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) MarkHandled(ctx context.Context, id string, status models.PaymentStatus, handledBy string) error {
	args := m.Called(ctx, id, status, handledBy)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

func (m *MockWithdrawalRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*models.Withdrawal, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Withdrawal), args.Error(1)
}

// MockBalanceHistoryRepository is a mock implementation of BalanceHistoryRepository
type MockBalanceHistoryRepository struct {
	mock.Mock
}

func (m *MockBalanceHistoryRepository) Record(ctx context.Context, history *models.BalanceHistory) error {
	args := m.Called(ctx, history)
	return args.Error(0)
}

func (m *MockBalanceHistoryRepository) GetByUser(ctx context.Context, uid string, limit int) ([]*models.BalanceHistory, error) {
	args := m.Called(ctx, uid, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.BalanceHistory), args.Error(1)
}

// capturingPublisher records published events for assertions.
type capturingPublisher struct {
	published []events.Event
}

func (p *capturingPublisher) Publish(event events.Event) {
	p.published = append(p.published, event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Repositories
// are injected with SetRepositories; published events are captured on
// the Events field rather than asserted through expectations.
type MockUnitOfWork struct {
	mock.Mock
	userRepo           UserRepository
	matchRepo          MatchRepository
	depositRepo        DepositRepository
	withdrawalRepo     WithdrawalRepository
	balanceHistoryRepo BalanceHistoryRepository
	Events             *capturingPublisher
}

// SetRepositories wires mock repositories into the unit of work
func (m *MockUnitOfWork) SetRepositories(
	userRepo UserRepository,
	matchRepo MatchRepository,
	depositRepo DepositRepository,
	withdrawalRepo WithdrawalRepository,
	balanceHistoryRepo BalanceHistoryRepository,
) {
	m.userRepo = userRepo
	m.matchRepo = matchRepo
	m.depositRepo = depositRepo
	m.withdrawalRepo = withdrawalRepo
	m.balanceHistoryRepo = balanceHistoryRepo
	m.Events = &capturingPublisher{}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) MatchRepository() MatchRepository {
	return m.matchRepo
}

func (m *MockUnitOfWork) DepositRepository() DepositRepository {
	return m.depositRepo
}

func (m *MockUnitOfWork) WithdrawalRepository() WithdrawalRepository {
	return m.withdrawalRepo
}

func (m *MockUnitOfWork) BalanceHistoryRepository() BalanceHistoryRepository {
	return m.balanceHistoryRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.Events
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
