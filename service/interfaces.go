package service

import (
	"context"
	"time"

	"matcharena/events"
	"matcharena/models"
)

// UserRepository defines the interface for user and wallet data access.
// AddBalance and DeductBalance are the ledger primitives every other
// component composes with; both run on the unit of work's transaction.
type UserRepository interface {
	// GetByUID retrieves a user, or nil if none exists
	GetByUID(ctx context.Context, uid string) (*models.User, error)

	// Create creates a new user with the initial balance
	Create(ctx context.Context, uid, username string, initialBalance int64) (*models.User, error)

	// AddBalance credits a user's balance atomically
	AddBalance(ctx context.Context, uid string, amount int64) error

	// DeductBalance debits a user's balance atomically, failing with
	// ErrInsufficientFunds rather than ever going negative
	DeductBalance(ctx context.Context, uid string, amount int64) error

	// ApplyMatchResult bumps win/loss counters and total earnings
	ApplyMatchResult(ctx context.Context, uid string, won bool, earnings int64) error

	// GetLeaderboard returns the top users ranked by total earnings
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// MatchRepository defines the interface for match data access
type MatchRepository interface {
	// Create inserts a match together with its creator as first player
	Create(ctx context.Context, match *models.Match) error

	// GetByID retrieves a match hydrated with players and submissions,
	// or nil if none exists
	GetByID(ctx context.Context, id string) (*models.Match, error)

	// AddPlayer appends a player, guarded so the stored player count
	// can never exceed capacity (ErrMatchFull on guard failure)
	AddPlayer(ctx context.Context, matchID string, player models.PlayerRef, position int) error

	// UpdateStatus advances the match status, guarded on the expected
	// current status
	UpdateStatus(ctx context.Context, matchID string, from, to models.MatchStatus) error

	// SetWinner records the winner, commission taken, and completion
	SetWinner(ctx context.Context, matchID string, winner models.PlayerRef, commission int64) error

	// Delete removes a match and its players and submissions
	Delete(ctx context.Context, matchID string) error

	// UpsertSubmission records a player's proof, overwriting any
	// previous submission by the same player
	UpsertSubmission(ctx context.Context, matchID string, sub models.ResultSubmission) error

	// ListByStatus returns matches in a given status, newest first
	ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error)

	// ListOpenBefore returns open matches created before the cutoff
	ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Match, error)
}

// DepositRepository defines the interface for deposit queue data access
type DepositRepository interface {
	// Create inserts a pending deposit request
	Create(ctx context.Context, deposit *models.Deposit) error

	// GetByID retrieves a deposit, or nil if none exists
	GetByID(ctx context.Context, id string) (*models.Deposit, error)

	// MarkHandled finalizes a pending deposit, failing with
	// ErrAlreadyHandled if it was already decided
	MarkHandled(ctx context.Context, id string, status models.PaymentStatus, handledBy string) error

	// ListPending returns all deposits awaiting an admin decision
	ListPending(ctx context.Context) ([]*models.Deposit, error)

	// ListByUser returns a user's deposits, newest first
	ListByUser(ctx context.Context, uid string, limit int) ([]*models.Deposit, error)
}

// WithdrawalRepository defines the interface for withdrawal queue data access
type WithdrawalRepository interface {
	// Create inserts a pending withdrawal request
	Create(ctx context.Context, withdrawal *models.Withdrawal) error

	// GetByID retrieves a withdrawal, or nil if none exists
	GetByID(ctx context.Context, id string) (*models.Withdrawal, error)

	// MarkHandled finalizes a pending withdrawal, failing with
	// ErrAlreadyHandled if it was already decided
	MarkHandled(ctx context.Context, id string, status models.PaymentStatus, handledBy string) error

	// ListPending returns all withdrawals awaiting an admin decision
	ListPending(ctx context.Context) ([]*models.Withdrawal, error)

	// ListByUser returns a user's withdrawals, newest first
	ListByUser(ctx context.Context, uid string, limit int) ([]*models.Withdrawal, error)
}

// BalanceHistoryRepository defines the interface for the balance audit trail
type BalanceHistoryRepository interface {
	// Record creates a new balance history entry
	Record(ctx context.Context, history *models.BalanceHistory) error

	// GetByUser returns balance history for a specific user
	GetByUser(ctx context.Context, uid string, limit int) ([]*models.BalanceHistory, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations.
// Everything an operation reads or writes goes through one unit of work,
// so the store validates the whole document set atomically at commit.
type UnitOfWork interface {
	// Begin starts a new snapshot transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes staged events
	Commit() error

	// Rollback rolls back the transaction and discards staged events
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	MatchRepository() MatchRepository
	DepositRepository() DepositRepository
	WithdrawalRepository() WithdrawalRepository
	BalanceHistoryRepository() BalanceHistoryRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// WalletService defines the interface for user wallet operations
type WalletService interface {
	// GetOrCreateUser retrieves an existing user or provisions one with
	// the starting balance
	GetOrCreateUser(ctx context.Context, uid, username string) (*models.User, error)

	// GetUser retrieves a user by uid
	GetUser(ctx context.Context, uid string) (*models.User, error)

	// GetTransactionHistory returns a user's balance changes, newest first
	GetTransactionHistory(ctx context.Context, uid string, limit int) ([]*models.BalanceHistory, error)
}

// MatchService defines the interface for match escrow and result operations
type MatchService interface {
	// CreateMatch escrows the creator's entry fee and opens a match
	CreateMatch(ctx context.Context, creatorUID, title string, gameType models.GameType, entryFee int64) (*models.Match, error)

	// JoinMatch escrows the joiner's entry fee and appends them; a full
	// match moves to inprogress
	JoinMatch(ctx context.Context, uid, matchID string) (*models.Match, error)

	// DeleteMatch removes a match; entry fees are refunded only while
	// the match is still open. Admin only.
	DeleteMatch(ctx context.Context, adminUID, matchID string) error

	// SubmitResult records a player's proof; a second distinct submitter
	// moves the match to disputed
	SubmitResult(ctx context.Context, matchID, uid, proofRef string) (*models.Match, error)

	// GetMatch retrieves a match by id
	GetMatch(ctx context.Context, matchID string) (*models.Match, error)

	// ListOpenMatches returns joinable matches, newest first
	ListOpenMatches(ctx context.Context) ([]*models.Match, error)

	// SweepStaleOpenMatches refunds and removes open matches older than
	// the configured TTL, returning how many were swept
	SweepStaleOpenMatches(ctx context.Context) (int, error)

	// SummarizeDispute asks the advisory collaborator for a dispute
	// digest. Admin only; purely informational.
	SummarizeDispute(ctx context.Context, adminUID, matchID string) (string, error)
}

// SettlementService defines the interface for declaring winners
type SettlementService interface {
	// DeclareWinner pays out the prize pool minus commission to the
	// winner and completes the match. Admin only, at most once per match.
	DeclareWinner(ctx context.Context, adminUID, matchID, winnerUID string) (*models.SettlementResult, error)
}

// PaymentService defines the interface for the deposit/withdrawal queue
type PaymentService interface {
	// RequestDeposit records a claimed external transfer for admin review
	RequestDeposit(ctx context.Context, uid string, amount int64, externalRef, proofRef string) (*models.Deposit, error)

	// ApproveDeposit credits the user and finalizes the deposit. Admin only.
	ApproveDeposit(ctx context.Context, adminUID, depositID string) (*models.Deposit, error)

	// DeclineDeposit finalizes the deposit with no balance effect. Admin only.
	DeclineDeposit(ctx context.Context, adminUID, depositID string) (*models.Deposit, error)

	// RequestWithdrawal reserves the amount immediately and queues the
	// request for admin review
	RequestWithdrawal(ctx context.Context, uid string, amount int64, paymentNumber string) (*models.Withdrawal, error)

	// ApproveWithdrawal finalizes the withdrawal; funds were already
	// reserved at request time. Admin only.
	ApproveWithdrawal(ctx context.Context, adminUID, withdrawalID string) (*models.Withdrawal, error)

	// DeclineWithdrawal refunds the reserved amount and finalizes the
	// withdrawal. Admin only.
	DeclineWithdrawal(ctx context.Context, adminUID, withdrawalID string) (*models.Withdrawal, error)

	// ListPendingDeposits returns the admin's deposit work queue. Admin only.
	ListPendingDeposits(ctx context.Context, adminUID string) ([]*models.Deposit, error)

	// ListPendingWithdrawals returns the admin's withdrawal work queue. Admin only.
	ListPendingWithdrawals(ctx context.Context, adminUID string) ([]*models.Withdrawal, error)
}

// StatsService defines the interface for statistics operations
type StatsService interface {
	// GetLeaderboard returns the top users ranked by total earnings
	GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error)
}

// Advisor is the optional AI advisory collaborator. Its output is never
// a required input to a money-moving operation and failures only log.
type Advisor interface {
	// DraftMatchDescription produces a short blurb for a new match
	DraftMatchDescription(ctx context.Context, title string, gameType models.GameType, entryFee int64) (string, error)

	// SummarizeDispute digests the submissions of a disputed match
	SummarizeDispute(ctx context.Context, match *models.Match) (string, error)
}
