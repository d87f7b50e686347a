package service

import (
	"context"
	"fmt"

	"matcharena/config"
	"matcharena/events"
	"matcharena/models"
)

type walletService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewWalletService creates a new wallet service
func NewWalletService(uowFactory UnitOfWorkFactory, cfg *config.Config) WalletService {
	return &walletService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// GetOrCreateUser retrieves an existing user or provisions one with the
// configured starting balance.
func (s *walletService) GetOrCreateUser(ctx context.Context, uid, username string) (*models.User, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: uid cannot be empty", ErrInvalidArgument)
	}

	var user *models.User
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		existing, err := uow.UserRepository().GetByUID(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil {
			user = existing
			return nil
		}

		created, err := uow.UserRepository().Create(ctx, uid, username, s.cfg.StartingBalance)
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		history := &models.BalanceHistory{
			UID:             uid,
			BalanceBefore:   0,
			BalanceAfter:    s.cfg.StartingBalance,
			ChangeAmount:    s.cfg.StartingBalance,
			TransactionType: models.TransactionTypeInitial,
			TransactionMetadata: map[string]any{
				"username": username,
			},
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		uow.EventBus().Publish(events.UserCreatedEvent{
			UID:            uid,
			Username:       username,
			InitialBalance: s.cfg.StartingBalance,
		})

		user = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetUser retrieves a user by uid
func (s *walletService) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user *models.User
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		u, err := uow.UserRepository().GetByUID(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if u == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, uid)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetTransactionHistory returns a user's balance changes, newest first
func (s *walletService) GetTransactionHistory(ctx context.Context, uid string, limit int) ([]*models.BalanceHistory, error) {
	var history []*models.BalanceHistory
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		h, err := uow.BalanceHistoryRepository().GetByUser(ctx, uid, limit)
		if err != nil {
			return fmt.Errorf("failed to get balance history: %w", err)
		}
		history = h
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
