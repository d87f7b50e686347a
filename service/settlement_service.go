package service

import (
	"context"
	"fmt"
	"math"

	"matcharena/config"
	"matcharena/events"
	"matcharena/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewSettlementService creates a new settlement service
func NewSettlementService(uowFactory UnitOfWorkFactory, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// DeclareWinner pays the prize pool minus commission to the winner,
// updates every player's record, and completes the match. The status
// re-check inside the transaction makes a second call fail with
// ErrMatchAlreadySettled instead of paying twice.
func (s *settlementService) DeclareWinner(ctx context.Context, adminUID, matchID, winnerUID string) (*models.SettlementResult, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return nil, err
	}

	var result *models.SettlementResult
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		m, err := uow.MatchRepository().GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to get match: %w", err)
		}
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		if m.Status == models.MatchStatusCompleted {
			return ErrMatchAlreadySettled
		}
		if !m.Settleable() {
			return fmt.Errorf("%w: status is %s", ErrMatchNotSettleable, m.Status)
		}

		winnerRef, ok := m.Player(winnerUID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPlayerNotInMatch, winnerUID)
		}

		// Load every participant before writing anything, so a single
		// missing record aborts with no partial effect.
		players := make(map[string]*models.User, len(m.Players))
		for _, p := range m.Players {
			user, err := uow.UserRepository().GetByUID(ctx, p.UID)
			if err != nil {
				return fmt.Errorf("failed to get player %s: %w", p.UID, err)
			}
			if user == nil {
				return fmt.Errorf("%w: %s", ErrPlayerNotFound, p.UID)
			}
			players[p.UID] = user
		}

		prizePool := m.PrizePool()
		commission := int64(math.Round(float64(prizePool) * s.cfg.CommissionRate))
		payout := prizePool - commission

		winner := players[winnerUID]
		if err := uow.UserRepository().AddBalance(ctx, winnerUID, payout); err != nil {
			return fmt.Errorf("failed to credit winner: %w", err)
		}
		if err := uow.UserRepository().ApplyMatchResult(ctx, winnerUID, true, payout); err != nil {
			return fmt.Errorf("failed to update winner stats: %w", err)
		}

		history := &models.BalanceHistory{
			UID:             winnerUID,
			BalanceBefore:   winner.Balance,
			BalanceAfter:    winner.Balance + payout,
			ChangeAmount:    payout,
			TransactionType: models.TransactionTypeMatchPayout,
			TransactionMetadata: map[string]any{
				"match_title": m.Title,
				"prize_pool":  prizePool,
				"commission":  commission,
			},
			RelatedID:   strPtr(m.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeMatch),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		for _, p := range m.Players {
			if p.UID == winnerUID {
				continue
			}
			if err := uow.UserRepository().ApplyMatchResult(ctx, p.UID, false, 0); err != nil {
				return fmt.Errorf("failed to update loser stats for %s: %w", p.UID, err)
			}
		}

		if err := uow.MatchRepository().SetWinner(ctx, matchID, winnerRef, commission); err != nil {
			return fmt.Errorf("failed to set winner: %w", err)
		}

		uow.EventBus().Publish(events.MatchSettledEvent{
			MatchID:    m.ID,
			WinnerUID:  winnerUID,
			PrizePool:  prizePool,
			Commission: commission,
			Payout:     payout,
		})

		m.Status = models.MatchStatusCompleted
		m.Winner = &winnerRef
		m.Commission = commission
		result = &models.SettlementResult{
			Match:      m,
			Winner:     winnerRef,
			PrizePool:  prizePool,
			Commission: commission,
			Payout:     payout,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"matchId":    matchID,
		"winner":     winnerUID,
		"prizePool":  result.PrizePool,
		"commission": result.Commission,
		"payout":     result.Payout,
	}).Info("Match settled")

	return result, nil
}
