package service

import (
	"context"
	"fmt"
	"time"

	"matcharena/config"
	"matcharena/events"
	"matcharena/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// advisoryTimeout caps how long a money-moving operation will wait on
// the advisory collaborator before proceeding without it.
const advisoryTimeout = 2 * time.Second

type matchService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
	advisor    Advisor // may be nil
}

// NewMatchService creates a new match service
func NewMatchService(uowFactory UnitOfWorkFactory, cfg *config.Config, advisor Advisor) MatchService {
	return &matchService{
		uowFactory: uowFactory,
		cfg:        cfg,
		advisor:    advisor,
	}
}

// CreateMatch escrows the creator's entry fee and opens a match.
func (s *matchService) CreateMatch(ctx context.Context, creatorUID, title string, gameType models.GameType, entryFee int64) (*models.Match, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidArgument)
	}
	if entryFee <= 0 {
		return nil, fmt.Errorf("%w: entry fee must be positive", ErrInvalidArgument)
	}
	if gameType != models.GameType1v1 && gameType != models.GameTypeTournament {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrInvalidArgument, gameType)
	}

	// Advisory blurb is drafted up front, outside the transaction. It
	// is never required: on failure the match simply has no description.
	description := s.draftDescription(ctx, title, gameType, entryFee)

	var match *models.Match
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		creator, err := uow.UserRepository().GetByUID(ctx, creatorUID)
		if err != nil {
			return fmt.Errorf("failed to get creator: %w", err)
		}
		if creator == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, creatorUID)
		}

		if err := uow.UserRepository().DeductBalance(ctx, creatorUID, entryFee); err != nil {
			return err
		}

		m := &models.Match{
			ID:          uuid.NewString(),
			Title:       title,
			Description: description,
			GameType:    gameType,
			EntryFee:    entryFee,
			Capacity:    gameType.Capacity(),
			Status:      models.MatchStatusOpen,
			CreatedBy:   creatorUID,
			Players: []models.PlayerRef{
				{UID: creatorUID, DisplayName: creator.Username},
			},
			Submissions: map[string]models.ResultSubmission{},
		}
		if err := uow.MatchRepository().Create(ctx, m); err != nil {
			return fmt.Errorf("failed to create match: %w", err)
		}

		history := &models.BalanceHistory{
			UID:             creatorUID,
			BalanceBefore:   creator.Balance,
			BalanceAfter:    creator.Balance - entryFee,
			ChangeAmount:    -entryFee,
			TransactionType: models.TransactionTypeEntryFee,
			TransactionMetadata: map[string]any{
				"match_title": title,
				"entry_fee":   entryFee,
			},
			RelatedID:   strPtr(m.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeMatch),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		uow.EventBus().Publish(events.NewMatchEvent{
			MatchID:  m.ID,
			Title:    title,
			GameType: gameType,
			EntryFee: entryFee,
			Creator:  creatorUID,
		})

		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"matchId":  match.ID,
		"creator":  creatorUID,
		"entryFee": entryFee,
	}).Info("Match created")

	return match, nil
}

// JoinMatch escrows the joiner's entry fee and appends them to the
// match. Filling the last slot moves the match to inprogress. Two
// racing joins for the last slot conflict on the match row; the loser
// retries against the new snapshot and sees a full match.
func (s *matchService) JoinMatch(ctx context.Context, uid, matchID string) (*models.Match, error) {
	var match *models.Match
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		m, err := uow.MatchRepository().GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to get match: %w", err)
		}
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}

		if m.Status != models.MatchStatusOpen {
			return fmt.Errorf("%w: status is %s", ErrMatchNotOpen, m.Status)
		}
		if m.HasPlayer(uid) {
			return ErrAlreadyJoined
		}
		if m.IsFull() {
			return ErrMatchFull
		}

		user, err := uow.UserRepository().GetByUID(ctx, uid)
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, uid)
		}

		if err := uow.UserRepository().DeductBalance(ctx, uid, m.EntryFee); err != nil {
			return err
		}

		player := models.PlayerRef{UID: uid, DisplayName: user.Username}
		if err := uow.MatchRepository().AddPlayer(ctx, matchID, player, len(m.Players)); err != nil {
			return err
		}
		m.Players = append(m.Players, player)

		if m.IsFull() {
			if err := uow.MatchRepository().UpdateStatus(ctx, matchID, models.MatchStatusOpen, models.MatchStatusInProgress); err != nil {
				return err
			}
			m.Status = models.MatchStatusInProgress
		}

		history := &models.BalanceHistory{
			UID:             uid,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance - m.EntryFee,
			ChangeAmount:    -m.EntryFee,
			TransactionType: models.TransactionTypeEntryFee,
			TransactionMetadata: map[string]any{
				"match_title": m.Title,
				"entry_fee":   m.EntryFee,
			},
			RelatedID:   strPtr(m.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeMatch),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}

		uow.EventBus().Publish(events.MatchJoinedEvent{
			MatchID:     m.ID,
			UID:         uid,
			PlayerCount: len(m.Players),
			Full:        m.IsFull(),
		})

		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return match, nil
}

// DeleteMatch removes a match. Entry fees are refunded only while the
// match is still open; once full the pot is committed and deletion
// forfeits it. Completed matches are immutable.
func (s *matchService) DeleteMatch(ctx context.Context, adminUID, matchID string) error {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return err
	}

	var refunded bool
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

		refunded = m.Status == models.MatchStatusOpen
		if refunded {
			if err := refundPlayers(ctx, uow, m); err != nil {
				return err
			}
		}

		if err := uow.MatchRepository().Delete(ctx, matchID); err != nil {
			return fmt.Errorf("failed to delete match: %w", err)
		}

		uow.EventBus().Publish(events.MatchDeletedEvent{
			MatchID:  matchID,
			Refunded: refunded,
		})
		return nil
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"matchId":  matchID,
		"admin":    adminUID,
		"refunded": refunded,
	}).Info("Match deleted")

	return nil
}

// refundPlayers credits every joined player their entry fee back.
// Must run inside the same transaction that deletes the match.
func refundPlayers(ctx context.Context, uow UnitOfWork, m *models.Match) error {
	for _, p := range m.Players {
		user, err := uow.UserRepository().GetByUID(ctx, p.UID)
		if err != nil {
			return fmt.Errorf("failed to get player %s: %w", p.UID, err)
		}
		if user == nil {
			return fmt.Errorf("%w: %s", ErrPlayerNotFound, p.UID)
		}

		if err := uow.UserRepository().AddBalance(ctx, p.UID, m.EntryFee); err != nil {
			return fmt.Errorf("failed to refund player %s: %w", p.UID, err)
		}

		history := &models.BalanceHistory{
			UID:             p.UID,
			BalanceBefore:   user.Balance,
			BalanceAfter:    user.Balance + m.EntryFee,
			ChangeAmount:    m.EntryFee,
			TransactionType: models.TransactionTypeEntryFeeRefund,
			TransactionMetadata: map[string]any{
				"match_title": m.Title,
				"entry_fee":   m.EntryFee,
			},
			RelatedID:   strPtr(m.ID),
			RelatedType: relatedTypePtr(models.RelatedTypeMatch),
		}
		if err := RecordBalanceChange(ctx, uow, history); err != nil {
			return err
		}
	}
	return nil
}

// SubmitResult records a player's proof of the outcome. The status
// derivation is purely a function of how many distinct players have
// submitted; the engine never reads the proof itself.
func (s *matchService) SubmitResult(ctx context.Context, matchID, uid, proofRef string) (*models.Match, error) {
	if proofRef == "" {
		return nil, fmt.Errorf("%w: proof reference cannot be empty", ErrInvalidArgument)
	}

	var match *models.Match
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		m, err := uow.MatchRepository().GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to get match: %w", err)
		}
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		if !m.HasPlayer(uid) {
			return fmt.Errorf("%w: %s", ErrPlayerNotInMatch, uid)
		}
		if m.Status == models.MatchStatusCompleted {
			return fmt.Errorf("%w: match is already completed", ErrMatchNotSettleable)
		}
		if !m.AcceptsResults() {
			return fmt.Errorf("%w: status is %s", ErrMatchNotInProgress, m.Status)
		}

		sub := models.ResultSubmission{
			SubmittedBy: uid,
			ProofRef:    proofRef,
			SubmittedAt: time.Now(),
		}
		if err := uow.MatchRepository().UpsertSubmission(ctx, matchID, sub); err != nil {
			return fmt.Errorf("failed to record submission: %w", err)
		}
		m.Submissions[uid] = sub

		// Two or more distinct submitters means the claims need an
		// admin; one submitter leaves the match running.
		if m.DistinctSubmitters() >= 2 && m.Status == models.MatchStatusInProgress {
			if err := uow.MatchRepository().UpdateStatus(ctx, matchID, models.MatchStatusInProgress, models.MatchStatusDisputed); err != nil {
				return err
			}
			m.Status = models.MatchStatusDisputed
		}

		uow.EventBus().Publish(events.ResultSubmittedEvent{
			MatchID:     m.ID,
			UID:         uid,
			NewStatus:   m.Status,
			Submissions: m.DistinctSubmitters(),
		})

		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	return match, nil
}

// GetMatch retrieves a match by id
func (s *matchService) GetMatch(ctx context.Context, matchID string) (*models.Match, error) {
	var match *models.Match
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		m, err := uow.MatchRepository().GetByID(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to get match: %w", err)
		}
		if m == nil {
			return fmt.Errorf("%w: %s", ErrMatchNotFound, matchID)
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return match, nil
}

// ListOpenMatches returns joinable matches, newest first
func (s *matchService) ListOpenMatches(ctx context.Context) ([]*models.Match, error) {
	var matches []*models.Match
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		ms, err := uow.MatchRepository().ListByStatus(ctx, models.MatchStatusOpen)
		if err != nil {
			return fmt.Errorf("failed to list open matches: %w", err)
		}
		matches = ms
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}

// SweepStaleOpenMatches refunds and removes open matches that have
// waited longer than the configured TTL without filling up. Each match
// is swept in its own transaction so one conflict cannot poison the
// whole sweep.
func (s *matchService) SweepStaleOpenMatches(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.OpenMatchTTL)

	var stale []*models.Match
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		ms, err := uow.MatchRepository().ListOpenBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("failed to list stale matches: %w", err)
		}
		stale = ms
		return nil
	})
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, candidate := range stale {
		err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
			m, err := uow.MatchRepository().GetByID(ctx, candidate.ID)
			if err != nil {
				return fmt.Errorf("failed to get match: %w", err)
			}
			// A join may have filled the match since the listing.
			if m == nil || m.Status != models.MatchStatusOpen {
				return nil
			}
			if err := refundPlayers(ctx, uow, m); err != nil {
				return err
			}
			if err := uow.MatchRepository().Delete(ctx, m.ID); err != nil {
				return fmt.Errorf("failed to delete match: %w", err)
			}
			uow.EventBus().Publish(events.MatchDeletedEvent{MatchID: m.ID, Refunded: true})
			swept++
			return nil
		})
		if err != nil {
			log.WithFields(log.Fields{
				"matchId": candidate.ID,
				"error":   err,
			}).Warn("Failed to sweep stale match")
		}
	}

	if swept > 0 {
		log.WithField("count", swept).Info("Swept stale open matches")
	}
	return swept, nil
}

// SummarizeDispute asks the advisory collaborator for a digest of a
// disputed match's submissions. Informational only.
func (s *matchService) SummarizeDispute(ctx context.Context, adminUID, matchID string) (string, error) {
	if err := requireAdmin(s.cfg, adminUID); err != nil {
		return "", err
	}
	if s.advisor == nil {
		return "", fmt.Errorf("advisory is not configured")
	}

	match, err := s.GetMatch(ctx, matchID)
	if err != nil {
		return "", err
	}

	summary, err := s.advisor.SummarizeDispute(ctx, match)
	if err != nil {
		return "", fmt.Errorf("failed to summarize dispute: %w", err)
	}
	return summary, nil
}

// draftDescription asks the advisor for a match blurb, tolerating any
// failure. Returns an empty string when the advisor is absent or slow.
func (s *matchService) draftDescription(ctx context.Context, title string, gameType models.GameType, entryFee int64) string {
	if s.advisor == nil {
		return ""
	}

	advisoryCtx, cancel := context.WithTimeout(ctx, advisoryTimeout)
	defer cancel()

	description, err := s.advisor.DraftMatchDescription(advisoryCtx, title, gameType, entryFee)
	if err != nil {
		log.WithFields(log.Fields{
			"title": title,
			"error": err,
		}).Debug("Advisory description unavailable")
		return ""
	}
	return description
}
