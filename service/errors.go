package service

import (
	"errors"
)

// Business-rule failures surfaced by the engine. Every one of them is
// detected inside the transaction body before any write, so a failed
// operation leaves the store untouched. Callers match with errors.Is;
// messages carry context via fmt.Errorf("%w: ...") wrapping.
var (
	// ErrInsufficientFunds means a debit would take a balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrMatchNotOpen means the match is no longer accepting players.
	ErrMatchNotOpen = errors.New("match is not open")

	// ErrMatchFull means the match already reached its capacity.
	ErrMatchFull = errors.New("match is full")

	// ErrAlreadyJoined means the user is already a player in the match.
	ErrAlreadyJoined = errors.New("already joined this match")

	// ErrPlayerNotInMatch means the user never joined the match.
	ErrPlayerNotInMatch = errors.New("player is not in this match")

	// ErrMatchNotInProgress means results cannot be submitted in the
	// match's current state.
	ErrMatchNotInProgress = errors.New("match is not in progress")

	// ErrMatchNotSettleable means no winner can be declared yet.
	ErrMatchNotSettleable = errors.New("match cannot be settled")

	// ErrMatchAlreadySettled means the match is completed and immutable.
	ErrMatchAlreadySettled = errors.New("match is already settled")

	// ErrMatchNotFound means no match exists with the given id.
	ErrMatchNotFound = errors.New("match not found")

	// ErrPlayerNotFound means a referenced user record is missing.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrAlreadyHandled means the deposit or withdrawal is no longer pending.
	ErrAlreadyHandled = errors.New("request already handled")

	// ErrRequestNotFound means no deposit or withdrawal exists with the
	// given id.
	ErrRequestNotFound = errors.New("request not found")

	// ErrConcurrencyExhausted means an operation kept losing commit races
	// and gave up after bounded retries. It is the only retryable error
	// in the taxonomy; the operation itself had no effect.
	ErrConcurrencyExhausted = errors.New("too much contention, try again")

	// ErrUnauthorized means the caller lacks the admin capability.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument means a caller-supplied value failed validation.
	ErrInvalidArgument = errors.New("invalid argument")
)
