package service

import (
	"context"
	"fmt"
	"time"

	"matcharena/database"
	log "github.com/sirupsen/logrus"
)

const (
	// maxTxAttempts bounds how often a conflicted transaction is retried
	// before the operation fails with ErrConcurrencyExhausted.
	maxTxAttempts = 5

	initialBackoff = 10 * time.Millisecond
)

// runAtomic executes fn inside a fresh unit of work and retries the
// whole function when the commit loses a snapshot-isolation race.
// fn must be a pure state transform over the unit of work: it may be
// called several times and must not carry side effects of a previous
// attempt into the next one. Business-rule errors pass through
// unchanged and are never retried.
func runAtomic(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	backoff := initialBackoff

	for attempt := 1; ; attempt++ {
		err := runOnce(ctx, factory, fn)
		if err == nil {
			return nil
		}
		if !database.IsSerializationFailure(err) {
			return err
		}
		if attempt >= maxTxAttempts {
			return fmt.Errorf("%w: gave up after %d attempts: %v", ErrConcurrencyExhausted, attempt, err)
		}

		log.WithFields(log.Fields{
			"attempt": attempt,
			"backoff": backoff,
		}).Debug("Transaction conflicted, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// runOnce runs fn in a single begin/commit cycle.
func runOnce(ctx context.Context, factory UnitOfWorkFactory, fn func(uow UnitOfWork) error) error {
	uow := factory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op once committed

	if err := fn(uow); err != nil {
		return err
	}

	return uow.Commit()
}
