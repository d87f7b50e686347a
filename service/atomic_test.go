package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func serializationFailure() error {
	return &pgconn.PgError{Code: "40001", Message: "could not serialize access due to concurrent update"}
}

func TestRunAtomic_RetriesSerializationFailures(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, _, _, _ := newMockUoW()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	attempts := 0
	err := runAtomic(ctx, mockFactory, func(uow UnitOfWork) error {
		attempts++
		if attempts < 3 {
			return serializationFailure()
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
	mockFactory.AssertNumberOfCalls(t, "Create", 3)
}

func TestRunAtomic_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, _, _, _ := newMockUoW()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	attempts := 0
	err := runAtomic(ctx, mockFactory, func(uow UnitOfWork) error {
		attempts++
		return serializationFailure()
	})

	assert.ErrorIs(t, err, ErrConcurrencyExhausted)
	assert.Equal(t, maxTxAttempts, attempts)
}

func TestRunAtomic_BusinessErrorsPassThrough(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, _, _, _ := newMockUoW()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	attempts := 0
	err := runAtomic(ctx, mockFactory, func(uow UnitOfWork) error {
		attempts++
		return ErrInsufficientFunds
	})

	// Business failures are never retried
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, 1, attempts)
}

func TestRunAtomic_CommitConflictRetries(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, _, _, _ := newMockUoW()

	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(serializationFailure()).Once()
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	err := runAtomic(ctx, mockFactory, func(uow UnitOfWork) error {
		return nil
	})

	assert.NoError(t, err)
	mockFactory.AssertNumberOfCalls(t, "Create", 2)
}

func TestRunAtomic_BeginError(t *testing.T) {
	ctx := context.Background()

	mockUoW, mockFactory, _, _, _, _, _ := newMockUoW()

	beginErr := errors.New("connection refused")
	mockUoW.On("Begin", ctx).Return(beginErr)
	mockUoW.On("Rollback").Return(nil)

	err := runAtomic(ctx, mockFactory, func(uow UnitOfWork) error {
		t.Fatal("fn should not run when Begin fails")
		return nil
	})

	assert.ErrorIs(t, err, beginErr)
}
