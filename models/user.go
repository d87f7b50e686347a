package models

import (
	"time"
)

// Stats tracks a user's lifetime match record.
type Stats struct {
	Wins          int   `db:"wins"`
	Losses        int   `db:"losses"`
	EarningsTotal int64 `db:"earnings_total"`
}

// User represents a platform user with a wallet balance.
// Balance and stats are only ever mutated through the engine's
// atomic operations; profile fields belong to the identity layer.
type User struct {
	UID       string    `db:"uid"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	Stats     Stats     `db:"-"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LeaderboardEntry is a denormalized ranking row for display.
type LeaderboardEntry struct {
	UID      string
	Username string
	Earnings int64
	Wins     int
	Losses   int
}
