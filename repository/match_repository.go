package repository

import (
	"context"
	"fmt"
	"time"

	"matcharena/database"
	"matcharena/models"
	"matcharena/service"

	"github.com/jackc/pgx/v5"
)

// MatchRepository implements the MatchRepository interface
type MatchRepository struct {
	q queryable
}

// NewMatchRepository creates a new match repository
func NewMatchRepository(db *database.DB) *MatchRepository {
	return &MatchRepository{q: db.Pool}
}

// newMatchRepositoryWithTx creates a new match repository with a transaction
func newMatchRepositoryWithTx(tx queryable) *MatchRepository {
	return &MatchRepository{q: tx}
}

// Create inserts a match together with its creator as first player
func (r *MatchRepository) Create(ctx context.Context, match *models.Match) error {
	query := `
		INSERT INTO matches (id, title, description, game_type, entry_fee, capacity, player_count, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		match.ID,
		match.Title,
		match.Description,
		match.GameType,
		match.EntryFee,
		match.Capacity,
		len(match.Players),
		match.Status,
		match.CreatedBy,
	).Scan(&match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match %s: %w", match.ID, err)
	}

	playerQuery := `
		INSERT INTO match_players (match_id, uid, display_name, position)
		VALUES ($1, $2, $3, $4)
	`
	for i, p := range match.Players {
		if _, err := r.q.Exec(ctx, playerQuery, match.ID, p.UID, p.DisplayName, i); err != nil {
			return fmt.Errorf("failed to add player %s to match %s: %w", p.UID, match.ID, err)
		}
	}

	return nil
}

// GetByID retrieves a match hydrated with players and submissions
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `
		SELECT id, title, description, game_type, entry_fee, capacity, status,
		       created_by, winner_uid, winner_name, commission, created_at, settled_at
		FROM matches
		WHERE id = $1
	`

	var match models.Match
	var winnerUID, winnerName *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&match.ID,
		&match.Title,
		&match.Description,
		&match.GameType,
		&match.EntryFee,
		&match.Capacity,
		&match.Status,
		&match.CreatedBy,
		&winnerUID,
		&winnerName,
		&match.Commission,
		&match.CreatedAt,
		&match.SettledAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match %s: %w", id, err)
	}

	if winnerUID != nil {
		winner := models.PlayerRef{UID: *winnerUID}
		if winnerName != nil {
			winner.DisplayName = *winnerName
		}
		match.Winner = &winner
	}

	if err := r.loadPlayers(ctx, &match); err != nil {
		return nil, err
	}
	if err := r.loadSubmissions(ctx, &match); err != nil {
		return nil, err
	}

	return &match, nil
}

func (r *MatchRepository) loadPlayers(ctx context.Context, match *models.Match) error {
	query := `
		SELECT uid, display_name
		FROM match_players
		WHERE match_id = $1
		ORDER BY position
	`

	rows, err := r.q.Query(ctx, query, match.ID)
	if err != nil {
		return fmt.Errorf("failed to get players for match %s: %w", match.ID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var p models.PlayerRef
		if err := rows.Scan(&p.UID, &p.DisplayName); err != nil {
			return fmt.Errorf("failed to scan player: %w", err)
		}
		match.Players = append(match.Players, p)
	}

	return rows.Err()
}

func (r *MatchRepository) loadSubmissions(ctx context.Context, match *models.Match) error {
	query := `
		SELECT submitted_by, proof_ref, submitted_at
		FROM result_submissions
		WHERE match_id = $1
		ORDER BY submitted_at
	`

	rows, err := r.q.Query(ctx, query, match.ID)
	if err != nil {
		return fmt.Errorf("failed to get submissions for match %s: %w", match.ID, err)
	}
	defer rows.Close()

	match.Submissions = make(map[string]models.ResultSubmission)
	for rows.Next() {
		var sub models.ResultSubmission
		if err := rows.Scan(&sub.SubmittedBy, &sub.ProofRef, &sub.SubmittedAt); err != nil {
			return fmt.Errorf("failed to scan submission: %w", err)
		}
		match.Submissions[sub.SubmittedBy] = sub
	}

	return rows.Err()
}

// AddPlayer appends a player, guarded so the stored player count can
// never exceed capacity. Two concurrent joins racing for the final slot
// both touch the same match row; the snapshot isolation level turns the
// loser's commit into a serialization failure that the service retries.
func (r *MatchRepository) AddPlayer(ctx context.Context, matchID string, player models.PlayerRef, position int) error {
	guard := `
		UPDATE matches
		SET player_count = player_count + 1, updated_at = NOW()
		WHERE id = $1 AND player_count < capacity
	`

	result, err := r.q.Exec(ctx, guard, matchID)
	if err != nil {
		return fmt.Errorf("failed to reserve slot in match %s: %w", matchID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: match %s", service.ErrMatchFull, matchID)
	}

	query := `
		INSERT INTO match_players (match_id, uid, display_name, position)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.q.Exec(ctx, query, matchID, player.UID, player.DisplayName, position); err != nil {
		return fmt.Errorf("failed to add player %s to match %s: %w", player.UID, matchID, err)
	}

	return nil
}

// UpdateStatus advances the match status, guarded on the expected
// current status
func (r *MatchRepository) UpdateStatus(ctx context.Context, matchID string, from, to models.MatchStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("invalid status transition %s -> %s", from, to)
	}

	query := `
		UPDATE matches
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
	`

	result, err := r.q.Exec(ctx, query, to, matchID, from)
	if err != nil {
		return fmt.Errorf("failed to update status of match %s: %w", matchID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("match %s is no longer %s", matchID, from)
	}

	return nil
}

// SetWinner records the winner, commission taken, and completion
func (r *MatchRepository) SetWinner(ctx context.Context, matchID string, winner models.PlayerRef, commission int64) error {
	query := `
		UPDATE matches
		SET status = $1, winner_uid = $2, winner_name = $3, commission = $4,
		    settled_at = NOW(), updated_at = NOW()
		WHERE id = $5 AND status IN ($6, $7)
	`

	result, err := r.q.Exec(ctx, query,
		models.MatchStatusCompleted,
		winner.UID,
		winner.DisplayName,
		commission,
		matchID,
		models.MatchStatusInProgress,
		models.MatchStatusDisputed,
	)
	if err != nil {
		return fmt.Errorf("failed to set winner of match %s: %w", matchID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: match %s", service.ErrMatchAlreadySettled, matchID)
	}

	return nil
}

// Delete removes a match; players and submissions cascade
func (r *MatchRepository) Delete(ctx context.Context, matchID string) error {
	result, err := r.q.Exec(ctx, `DELETE FROM matches WHERE id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("failed to delete match %s: %w", matchID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", service.ErrMatchNotFound, matchID)
	}

	return nil
}

// UpsertSubmission records a player's proof, overwriting any previous
// submission by the same player
func (r *MatchRepository) UpsertSubmission(ctx context.Context, matchID string, sub models.ResultSubmission) error {
	query := `
		INSERT INTO result_submissions (match_id, submitted_by, proof_ref, submitted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (match_id, submitted_by)
		DO UPDATE SET proof_ref = EXCLUDED.proof_ref, submitted_at = EXCLUDED.submitted_at
	`

	if _, err := r.q.Exec(ctx, query, matchID, sub.SubmittedBy, sub.ProofRef); err != nil {
		return fmt.Errorf("failed to record submission for match %s: %w", matchID, err)
	}

	return nil
}

// ListByStatus returns matches in a given status, newest first
func (r *MatchRepository) ListByStatus(ctx context.Context, status models.MatchStatus) ([]*models.Match, error) {
	query := `
		SELECT id FROM matches
		WHERE status = $1
		ORDER BY created_at DESC
	`
	return r.listByIDQuery(ctx, query, status)
}

// ListOpenBefore returns open matches created before the cutoff
func (r *MatchRepository) ListOpenBefore(ctx context.Context, cutoff time.Time) ([]*models.Match, error) {
	query := `
		SELECT id FROM matches
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at
	`
	return r.listByIDQuery(ctx, query, models.MatchStatusOpen, cutoff)
}

func (r *MatchRepository) listByIDQuery(ctx context.Context, query string, args ...any) ([]*models.Match, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}

	var matches []*models.Match
	for _, id := range ids {
		match, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if match != nil {
			matches = append(matches, match)
		}
	}

	return matches, nil
}
