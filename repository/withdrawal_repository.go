package repository

import (
	"context"
	"fmt"

	"matcharena/database"
	"matcharena/models"
	"matcharena/service"

	"github.com/jackc/pgx/v5"
)

// WithdrawalRepository implements the WithdrawalRepository interface
type WithdrawalRepository struct {
	q queryable
}

// NewWithdrawalRepository creates a new withdrawal repository
func NewWithdrawalRepository(db *database.DB) *WithdrawalRepository {
	return &WithdrawalRepository{q: db.Pool}
}

// newWithdrawalRepositoryWithTx creates a new withdrawal repository with a transaction
func newWithdrawalRepositoryWithTx(tx queryable) *WithdrawalRepository {
	return &WithdrawalRepository{q: tx}
}

// Create inserts a pending withdrawal request
func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (id, user_id, amount, payment_number, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		withdrawal.ID,
		withdrawal.UserID,
		withdrawal.Amount,
		withdrawal.PaymentNumber,
		withdrawal.Status,
	).Scan(&withdrawal.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal for user %s: %w", withdrawal.UserID, err)
	}

	return nil
}

// GetByID retrieves a withdrawal by id
func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*models.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, payment_number, status, handled_by, created_at, handled_at
		FROM withdrawals
		WHERE id = $1
	`

	var withdrawal models.Withdrawal
	err := r.q.QueryRow(ctx, query, id).Scan(
		&withdrawal.ID,
		&withdrawal.UserID,
		&withdrawal.Amount,
		&withdrawal.PaymentNumber,
		&withdrawal.Status,
		&withdrawal.HandledBy,
		&withdrawal.CreatedAt,
		&withdrawal.HandledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get withdrawal %s: %w", id, err)
	}

	return &withdrawal, nil
}

// MarkHandled finalizes a pending withdrawal. The status guard makes
// the decision first-wins under concurrent admins.
func (r *WithdrawalRepository) MarkHandled(ctx context.Context, id string, status models.PaymentStatus, handledBy string) error {
	query := `
		UPDATE withdrawals
		SET status = $1, handled_by = $2, handled_at = NOW()
		WHERE id = $3 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, handledBy, id)
	if err != nil {
		return fmt.Errorf("failed to mark withdrawal %s handled: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: withdrawal %s", service.ErrAlreadyHandled, id)
	}

	return nil
}

// ListPending returns all withdrawals awaiting an admin decision
func (r *WithdrawalRepository) ListPending(ctx context.Context) ([]*models.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, payment_number, status, handled_by, created_at, handled_at
		FROM withdrawals
		WHERE status = 'pending'
		ORDER BY created_at
	`
	return r.list(ctx, query)
}

// ListByUser returns a user's withdrawals, newest first
func (r *WithdrawalRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*models.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, payment_number, status, handled_by, created_at, handled_at
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, uid, limit)
}

func (r *WithdrawalRepository) list(ctx context.Context, query string, args ...any) ([]*models.Withdrawal, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []*models.Withdrawal
	for rows.Next() {
		var withdrawal models.Withdrawal
		err := rows.Scan(
			&withdrawal.ID,
			&withdrawal.UserID,
			&withdrawal.Amount,
			&withdrawal.PaymentNumber,
			&withdrawal.Status,
			&withdrawal.HandledBy,
			&withdrawal.CreatedAt,
			&withdrawal.HandledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, &withdrawal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate withdrawals: %w", err)
	}

	return withdrawals, nil
}
