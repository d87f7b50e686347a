package service

import (
	"context"
	"fmt"

	"matcharena/config"
	"matcharena/events"
	"matcharena/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type paymentService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewPaymentService creates a new payment service
func NewPaymentService(uowFactory UnitOfWorkFactory, cfg *config.Config) PaymentService {
	return &paymentService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// RequestDeposit records a claimed external transfer. The balance is
// untouched until an admin approves the claim.
func (s *paymentService) RequestDeposit(ctx context.Context, uid string, amount int64, externalRef, proofRef string) (*models.Deposit, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: deposit amount must be positive", ErrInvalidArgument)
	}
	if externalRef == "" {
		return nil, fmt.Errorf("%w: external reference cannot be empty", ErrInvalidArgument)
	}

	var deposit *models.Deposit
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetByUID(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, uid)
		}

		d := &models.Deposit{
			ID:          uuid.NewString(),
			UserID:      uid,
			Amount:      amount,
			ExternalRef: externalRef,
			ProofRef:    proofRef,
			Status:      models.PaymentStatusPending,
		}
		if err := uow.DepositRepository().Create(ctx, d); err != nil {
			return fmt.Errorf("failed to create deposit: %w", err)
		}

		deposit = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deposit, nil
}

// ApproveDeposit credits the user and finalizes the deposit.
func (s *paymentService) ApproveDeposit(ctx context.Context, adminUID, depositID string) (*models.Deposit, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var deposit *models.Deposit
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		d, err := uow.DepositRepository().GetByID(ctx, depositID)
		if err != nil {
			return fmt.Errorf("failed to get deposit: %w", err)
		}
		if d == nil {
			return fmt.Errorf("%w: deposit %s", ErrRequestNotFound, depositID)
		}
		if !d.Status.IsPending() {
			return fmt.Errorf("%w: deposit is %s", ErrAlreadyHandled, d.Status)
		}

		user, err := uow.UserRepository().GetByUID(ctx, d.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, d.UserID)
		}

		if err := uow.UserRepository().AddBalance(ctx, d.UserID, d.Amount); err != nil {
			return fmt.Errorf("failed to credit deposit: %w", err)
		}
		if err := uow.DepositRepository().MarkHandled(ctx, depositID, models.PaymentStatusApproved, adminUID); err != nil {
			return err
		}

		history := &models.BalanceHistory{
			UID:             d.UserID,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance + d.Amount,
			ChangeAmount:    d.Amount,
			TransactionType: models.TransactionTypeDeposit,
			TransactionMetadata: map[string]any{
				"external_ref": d.ExternalRef,
				"handled_by":   adminUID,
			},
			RelatedID:   strPtr(d.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeDeposit),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		uow.EventBus().Publish(events.DepositHandledEvent{
			DepositID: d.ID,
			UserID:    d.UserID,
			Amount:    d.Amount,
			Approved:  true,
			HandledBy: adminUID,
		})

		d.Status = models.PaymentStatusApproved
		d.HandledBy = &adminUID
		deposit = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"depositId": depositID,
		"admin":     adminUID,
		"amount":    deposit.Amount,
	}).Info("Deposit approved")

	return deposit, nil
}

// DeclineDeposit finalizes the deposit with no balance effect.
func (s *paymentService) DeclineDeposit(ctx context.Context, adminUID, depositID string) (*models.Deposit, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var deposit *models.Deposit
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		d, err := uow.DepositRepository().GetByID(ctx, depositID)
		if err != nil {
			return fmt.Errorf("failed to get deposit: %w", err)
		}
		if d == nil {
			return fmt.Errorf("%w: deposit %s", ErrRequestNotFound, depositID)
		}
		if !d.Status.IsPending() {
			return fmt.Errorf("%w: deposit is %s", ErrAlreadyHandled, d.Status)
		}

		if err := uow.DepositRepository().MarkHandled(ctx, depositID, models.PaymentStatusDeclined, adminUID); err != nil {
			return err
		}

		uow.EventBus().Publish(events.DepositHandledEvent{
			DepositID: d.ID,
			UserID:    d.UserID,
			Amount:    d.Amount,
			Approved:  false,
			HandledBy: adminUID,
		})

		d.Status = models.PaymentStatusDeclined
		d.HandledBy = &adminUID
		deposit = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return deposit, nil
}

// RequestWithdrawal reserves the amount immediately so a user can never
// queue up withdrawals beyond what they hold. A failed debit creates no
// request row.
func (s *paymentService) RequestWithdrawal(ctx context.Context, uid string, amount int64, paymentNumber string) (*models.Withdrawal, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", ErrInvalidArgument)
	}
	if paymentNumber == "" {
		return nil, fmt.Errorf("%w: payment number cannot be empty", ErrInvalidArgument)
	}

	var withdrawal *models.Withdrawal
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		user, err := uow.UserRepository().GetByUID(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, uid)
		}

		if err := uow.UserRepository().DeductBalance(ctx, uid, amount); err != nil {
			return err
		}

		w := &models.Withdrawal{
			ID:            uuid.NewString(),
			UserID:        uid,
			Amount:        amount,
			PaymentNumber: paymentNumber,
			Status:        models.PaymentStatusPending,
		}
		if err := uow.WithdrawalRepository().Create(ctx, w); err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}

		history := &models.BalanceHistory{
			UID:             uid,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance - amount,
			ChangeAmount:    -amount,
			TransactionType: models.TransactionTypeWithdrawalHold,
			TransactionMetadata: map[string]any{
				"payment_number": paymentNumber,
			},
			RelatedID:   strPtr(w.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeWithdrawal),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		withdrawal = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

// ApproveWithdrawal finalizes the withdrawal. The funds were reserved
// at request time; the real transfer happens outside this system.
func (s *paymentService) ApproveWithdrawal(ctx context.Context, adminUID, withdrawalID string) (*models.Withdrawal, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var withdrawal *models.Withdrawal
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		w, err := uow.WithdrawalRepository().GetByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if w == nil {
			return fmt.Errorf("%w: withdrawal %s", ErrRequestNotFound, withdrawalID)
		}
		if !w.Status.IsPending() {
			return fmt.Errorf("%w: withdrawal is %s", ErrAlreadyHandled, w.Status)
		}

		if err := uow.WithdrawalRepository().MarkHandled(ctx, withdrawalID, models.PaymentStatusApproved, adminUID); err != nil {
			return err
		}

		uow.EventBus().Publish(events.WithdrawalHandledEvent{
			WithdrawalID: w.ID,
			UserID:       w.UserID,
			Amount:       w.Amount,
			Approved:     true,
			HandledBy:    adminUID,
		})

		w.Status = models.PaymentStatusApproved
		w.HandledBy = &adminUID
		withdrawal = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"withdrawalId": withdrawalID,
		"admin":        adminUID,
		"amount":       withdrawal.Amount,
	}).Info("Withdrawal approved")

	return withdrawal, nil
}

// DeclineWithdrawal refunds the reserved amount and finalizes the
// withdrawal, restoring the exact pre-request balance.
func (s *paymentService) DeclineWithdrawal(ctx context.Context, adminUID, withdrawalID string) (*models.Withdrawal, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var withdrawal *models.Withdrawal
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		w, err := uow.WithdrawalRepository().GetByID(ctx, withdrawalID)
		if err != nil {
			return fmt.Errorf("failed to get withdrawal: %w", err)
		}
		if w == nil {
			return fmt.Errorf("%w: withdrawal %s", ErrRequestNotFound, withdrawalID)
		}
		if !w.Status.IsPending() {
			return fmt.Errorf("%w: withdrawal is %s", ErrAlreadyHandled, w.Status)
		}

		user, err := uow.UserRepository().GetByUID(ctx, w.UserID)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, w.UserID)
		}

		if err := uow.UserRepository().AddBalance(ctx, w.UserID, w.Amount); err != nil {
			return fmt.Errorf("failed to refund withdrawal: %w", err)
		}
		if err := uow.WithdrawalRepository().MarkHandled(ctx, withdrawalID, models.PaymentStatusDeclined, adminUID); err != nil {
			return err
		}

		history := &models.BalanceHistory{
			UID:             w.UserID,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance + w.Amount,
			ChangeAmount:    w.Amount,
			TransactionType: models.TransactionTypeWithdrawalRefund,
			TransactionMetadata: map[string]any{
				"handled_by": adminUID,
			},
			RelatedID:   strPtr(w.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeWithdrawal),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		uow.EventBus().Publish(events.WithdrawalHandledEvent{
			WithdrawalID: w.ID,
			UserID:       w.UserID,
			Amount:       w.Amount,
			Approved:     false,
			HandledBy:    adminUID,
		})

		w.Status = models.PaymentStatusDeclined
		w.HandledBy = &adminUID
		withdrawal = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return withdrawal, nil
}

// ListPendingDeposits returns the admin's deposit work queue
func (s *paymentService) ListPendingDeposits(ctx context.Context, adminUID string) ([]*models.Deposit, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var deposits []*models.Deposit
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		ds, err := uow.DepositRepository().ListPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to list pending deposits: %w", err)
		}
		deposits = ds
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deposits, nil
}

// ListPendingWithdrawals returns the admin's withdrawal work queue
func (s *paymentService) ListPendingWithdrawals(ctx context.Context, adminUID string) ([]*models.Withdrawal, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var withdrawals []*models.Withdrawal
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		ws, err := uow.WithdrawalRepository().ListPending(ctx)
		if err != nil {
			return fmt.Errorf("failed to list pending withdrawals: %w", err)
		}
		withdrawals = ws
		return nil
	})
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}
