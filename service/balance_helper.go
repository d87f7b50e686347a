package service

import (
	"context"
	"fmt"

	"matcharena/events"
	"matcharena/models"
)

// RecordBalanceChange records a balance history entry and stages the
// matching event. This is the single entry point for every balance
// mutation in the engine, so the audit trail and the wallet can never
// disagree inside a committed transaction.
func RecordBalanceChange(ctx context.Context, uow UnitOfWork, history *models.BalanceHistory) error {
	if err := uow.BalanceHistoryRepository().Record(ctx, history); err != nil {
		return fmt.Errorf("failed to record balance history: %w", err)
	}

	uow.EventBus().Publish(events.BalanceChangeEvent{
		UID:             history.UID,
		OldBalance:      history.BalanceBefore,
		NewBalance:      history.BalanceAfter,
		TransactionType: history.TransactionType,
		ChangeAmount:    history.ChangeAmount,
	})

	return nil
}

func relatedTypePtr(rt models.RelatedType) *models.RelatedType {
	return &rt
}

func strPtr(s string) *string {
	return &s
}
