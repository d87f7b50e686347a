package models

import (
	"time"
)

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusOpen       MatchStatus = "open"
	MatchStatusInProgress MatchStatus = "inprogress"
	MatchStatusDisputed   MatchStatus = "disputed"
	MatchStatusCompleted  MatchStatus = "completed"
)

// GameType represents the match format
type GameType string

const (
	GameType1v1        GameType = "1v1"
	GameTypeTournament GameType = "tournament"
)

// Capacity returns the player capacity for a game type.
func (g GameType) Capacity() int {
	if g == GameTypeTournament {
		return 8
	}
	return 2
}

// CanTransitionTo reports whether a status change is one of the
// explicitly allowed forward transitions. Completed is terminal.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	switch s {
	case MatchStatusOpen:
		return next == MatchStatusInProgress
	case MatchStatusInProgress:
		return next == MatchStatusDisputed || next == MatchStatusCompleted
	case MatchStatusDisputed:
		return next == MatchStatusCompleted
	default:
		return false
	}
}

// PlayerRef is an immutable snapshot of a player taken at join time.
type PlayerRef struct {
	UID         string `db:"uid"`
	DisplayName string `db:"display_name"`
}

// ResultSubmission is a player's proof-of-result record for a match.
// One per player; resubmission overwrites.
type ResultSubmission struct {
	SubmittedBy string    `db:"submitted_by"`
	ProofRef    string    `db:"proof_ref"`
	SubmittedAt time.Time `db:"submitted_at"`
}

// Match represents a staked match. EntryFee is escrowed from each
// player's balance at join time and held until settlement or refund.
type Match struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	GameType    GameType    `db:"game_type"`
	EntryFee    int64       `db:"entry_fee"`
	Capacity    int         `db:"capacity"`
	Status      MatchStatus `db:"status"`
	CreatedBy   string      `db:"created_by"`
	Winner      *PlayerRef  `db:"-"`
	Commission  int64       `db:"commission"`
	CreatedAt   time.Time   `db:"created_at"`
	SettledAt   *time.Time  `db:"settled_at"`

	// Loaded alongside the match row, in join order.
	Players     []PlayerRef
	Submissions map[string]ResultSubmission
}

// HasPlayer checks if a user has joined the match
func (m *Match) HasPlayer(uid string) bool {
	for _, p := range m.Players {
		if p.UID == uid {
			return true
		}
	}
	return false
}

// Player returns the joined player snapshot for a uid, if present.
func (m *Match) Player(uid string) (PlayerRef, bool) {
	for _, p := range m.Players {
		if p.UID == uid {
			return p, true
		}
	}
	return PlayerRef{}, false
}

// IsFull checks whether the match has reached capacity
func (m *Match) IsFull() bool {
	return len(m.Players) >= m.Capacity
}

// PrizePool is the total stake collected across joined players.
func (m *Match) PrizePool() int64 {
	return m.EntryFee * int64(len(m.Players))
}

// DistinctSubmitters counts players with a recorded submission.
func (m *Match) DistinctSubmitters() int {
	return len(m.Submissions)
}

// AcceptsResults reports whether players may still submit proof.
func (m *Match) AcceptsResults() bool {
	return m.Status == MatchStatusInProgress || m.Status == MatchStatusDisputed
}

// Settleable reports whether an admin may declare a winner.
func (m *Match) Settleable() bool {
	return m.Status == MatchStatusInProgress || m.Status == MatchStatusDisputed
}

// SettlementResult represents the outcome of a winner declaration.
type SettlementResult struct {
	Match      *Match
	Winner     PlayerRef
	PrizePool  int64
	Commission int64
	Payout     int64
}

