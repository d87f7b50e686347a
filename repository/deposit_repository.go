package repository

import (
	"context"
	"fmt"

	"matcharena/database"
	"matcharena/models"
	"matcharena/service"

	"github.com/jackc/pgx/v5"
)

// DepositRepository implements the DepositRepository interface
type DepositRepository struct {
	q queryable
}

// NewDepositRepository creates a new deposit repository
func NewDepositRepository(db *database.DB) *DepositRepository {
	return &DepositRepository{q: db.Pool}
}

// newDepositRepositoryWithTx creates a new deposit repository with a transaction
func newDepositRepositoryWithTx(tx queryable) *DepositRepository {
	return &DepositRepository{q: tx}
}

// Create inserts a pending deposit request
func (r *DepositRepository) Create(ctx context.Context, deposit *models.Deposit) error {
	query := `
		INSERT INTO deposits (id, user_id, amount, external_ref, proof_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		deposit.ID,
		deposit.UserID,
		deposit.Amount,
		deposit.ExternalRef,
		deposit.ProofRef,
		deposit.Status,
	).Scan(&deposit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit for user %s: %w", deposit.UserID, err)
	}

	return nil
}

// GetByID retrieves a deposit by id
func (r *DepositRepository) GetByID(ctx context.Context, id string) (*models.Deposit, error) {
	query := `
		SELECT id, user_id, amount, external_ref, proof_ref, status, handled_by, created_at, handled_at
		FROM deposits
		WHERE id = $1
	`

	var deposit models.Deposit
	err := r.q.QueryRow(ctx, query, id).Scan(
		&deposit.ID,
		&deposit.UserID,
		&deposit.Amount,
		&deposit.ExternalRef,
		&deposit.ProofRef,
		&deposit.Status,
		&deposit.HandledBy,
		&deposit.CreatedAt,
		&deposit.HandledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deposit %s: %w", id, err)
	}

	return &deposit, nil
}

// MarkHandled finalizes a pending deposit. The status guard makes the
// decision first-wins under concurrent admins.
func (r *DepositRepository) MarkHandled(ctx context.Context, id string, status models.PaymentStatus, handledBy string) error {
	query := `
		UPDATE deposits
		SET status = $1, handled_by = $2, handled_at = NOW()
		WHERE id = $3 AND status = 'pending'
	`

	result, err := r.q.Exec(ctx, query, status, handledBy, id)
	if err != nil {
		return fmt.Errorf("failed to mark deposit %s handled: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: deposit %s", service.ErrAlreadyHandled, id)
	}

	return nil
}

// ListPending returns all deposits awaiting an admin decision
func (r *DepositRepository) ListPending(ctx context.Context) ([]*models.Deposit, error) {
	query := `
		SELECT id, user_id, amount, external_ref, proof_ref, status, handled_by, created_at, handled_at
		FROM deposits
		WHERE status = 'pending'
		ORDER BY created_at
	`
	return r.list(ctx, query)
}

// ListByUser returns a user's deposits, newest first
func (r *DepositRepository) ListByUser(ctx context.Context, uid string, limit int) ([]*models.Deposit, error) {
	query := `
		SELECT id, user_id, amount, external_ref, proof_ref, status, handled_by, created_at, handled_at
		FROM deposits
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return r.list(ctx, query, uid, limit)
}

func (r *DepositRepository) list(ctx context.Context, query string, args ...any) ([]*models.Deposit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()

	var deposits []*models.Deposit
	for rows.Next() {
		var deposit models.Deposit
		err := rows.Scan(
			&deposit.ID,
			&deposit.UserID,
			&deposit.Amount,
			&deposit.ExternalRef,
			&deposit.ProofRef,
			&deposit.Status,
			&deposit.HandledBy,
			&deposit.CreatedAt,
			&deposit.HandledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, &deposit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deposits: %w", err)
	}

	return deposits, nil
}
