package service

import (
	"context"
	"fmt"

	"matcharena/models"
)

type statsService struct {
	uowFactory UnitOfWorkFactory
}

// NewStatsService creates a new stats service
func NewStatsService(uowFactory UnitOfWorkFactory) StatsService {
	return &statsService{
		uowFactory: uowFactory,
	}
}

// GetLeaderboard returns the top users ranked by total earnings
func (s *statsService) GetLeaderboard(ctx context.Context, limit int) ([]*models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	var entries []*models.LeaderboardEntry
	err := runAtomic(ctx, s.uowFactory, func(uow UnitOfWork) error {
		es, err := uow.UserRepository().GetLeaderboard(ctx, limit)
		if err != nil {
			return fmt.Errorf("failed to get leaderboard: %w", err)
		}
		entries = es
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
