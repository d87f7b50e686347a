package repository

import (
	"context"
	"fmt"

	"matcharena/database"
	"matcharena/models"
	"matcharena/service"

	"github.com/jackc/pgx/v5"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByUID retrieves a user by uid
func (r *UserRepository) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	query := `
		SELECT uid, username, balance, wins, losses, earnings_total, created_at, updated_at
		FROM users
		WHERE uid = $1
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, uid).Scan(
		&user.UID,
		&user.Username,
		&user.Balance,
		&user.Stats.Wins,
		&user.Stats.Losses,
		&user.Stats.EarningsTotal,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", uid, err)
	}

	return &user, nil
}

// Create creates a new user with the initial balance
func (r *UserRepository) Create(ctx context.Context, uid, username string, initialBalance int64) (*models.User, error) {
	query := `
		INSERT INTO users (uid, username, balance)
		VALUES ($1, $2, $3)
		RETURNING uid, username, balance, wins, losses, earnings_total, created_at, updated_at
	`

	var user models.User
	err := r.q.QueryRow(ctx, query, uid, username, initialBalance).Scan(
		&user.UID,
		&user.Username,
		&user.Balance,
		&user.Stats.Wins,
		&user.Stats.Losses,
		&user.Stats.EarningsTotal,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", uid, err)
	}

	return &user, nil
}

// AddBalance adds to a user's balance atomically
func (r *UserRepository) AddBalance(ctx context.Context, uid string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE uid = $2
	`

	result, err := r.q.Exec(ctx, query, amount, uid)
	if err != nil {
		return fmt.Errorf("failed to add balance for user %s: %w", uid, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrPlayerNotFound, uid)
	}

	return nil
}

// DeductBalance deducts from a user's balance atomically, failing with
// ErrInsufficientFunds rather than ever going negative
func (r *UserRepository) DeductBalance(ctx context.Context, uid string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}

	// Update only if the user holds enough to cover the debit
	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE uid = $2 AND balance >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, uid)
	if err != nil {
		return fmt.Errorf("failed to deduct balance for user %s: %w", uid, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing user from insufficient funds
		user, err := r.GetByUID(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", service.ErrPlayerNotFound, uid)
		}
		return fmt.Errorf("%w: have %d, need %d", service.ErrInsufficientFunds, user.Balance, amount)
	}

	return nil
}

// ApplyMatchResult bumps win/loss counters and total earnings
func (r *UserRepository) ApplyMatchResult(ctx context.Context, uid string, won bool, earnings int64) error {
	query := `
		UPDATE users
		SET wins = wins + $1,
		    losses = losses + $2,
		    earnings_total = earnings_total + $3,
		    updated_at = NOW()
		WHERE uid = $4
	`

	winInc, lossInc := 0, 1
	if won {
		winInc, lossInc = 1, 0
	}

	result, err := r.q.Exec(ctx, query, winInc, lossInc, earnings, uid)
	if err != nil {
		return fmt.Errorf("failed to apply match result for user %s: %w", uid, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrPlayerNotFound, uid)
	}

	return nil
}

// GetLeaderboard returns the top users ranked by total earnings
func (r *UserRepository) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT uid, username, earnings_total, wins, losses
		FROM users
		ORDER BY earnings_total DESC, wins DESC, uid
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		err := rows.Scan(
			&entry.UID,
			&entry.Username,
			&entry.Earnings,
			&entry.Wins,
			&entry.Losses,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}

	return entries, nil
}
