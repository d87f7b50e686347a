package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// BeginSnapshot starts a transaction at repeatable-read isolation.
// Every read inside it sees one consistent snapshot; a commit that
// conflicts with a concurrent writer fails with a serialization
// error instead of blocking, which callers handle by retrying.
func (db *DB) BeginSnapshot(ctx context.Context) (pgx.Tx, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// Postgres error codes signalling that a snapshot transaction lost a
// race and should be retried from the top.
const (
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

// IsSerializationFailure reports whether the error is a transient
// commit conflict rather than a business failure.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == serializationFailureCode || pgErr.Code == deadlockDetectedCode
	}
	return false
}
