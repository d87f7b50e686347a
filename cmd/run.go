package cmd

import (
	"context"
	"fmt"
	"time"

	"matcharena/advisory"
	"matcharena/config"
	"matcharena/database"
	"matcharena/events"
	"matcharena/notifier"
	"matcharena/repository"
	"matcharena/service"

	log "github.com/sirupsen/logrus"
)

const sweepInterval = 15 * time.Minute

// Services bundles the engine's service layer for embedding callers.
type Services struct {
	Wallet     service.WalletService
	Match      service.MatchService
	Settlement service.SettlementService
	Payment    service.PaymentService
	Stats      service.StatsService
}

// BuildServices wires the service layer on top of a database connection
// and event bus.
func BuildServices(db *database.DB, eventBus *events.Bus, cfg *config.Config) *Services {
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	advisor := advisory.New(cfg.AdvisoryURL)

	return &Services{
		Wallet:     service.NewWalletService(uowFactory, cfg),
		Match:      service.NewMatchService(uowFactory, cfg, advisor),
		Settlement: service.NewSettlementService(uowFactory, cfg),
		Payment:    service.NewPaymentService(uowFactory, cfg),
		Stats:      service.NewStatsService(uowFactory),
	}
}

// Run initializes the engine and blocks until the context is cancelled.
func Run(ctx context.Context) error {
	log.Info("Starting arena engine...")

	// Load configuration
	cfg := config.Get()

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize event bus
	eventBus := events.NewBus()

	// Fan events out to NATS when configured
	if cfg.NATSURL != "" {
		natsNotifier, err := notifier.Connect(cfg.NATSURL, "arena.events")
		if err != nil {
			return fmt.Errorf("failed to connect notifier: %w", err)
		}
		natsNotifier.SubscribeAll(eventBus)
		defer natsNotifier.Close()
	}

	services := BuildServices(db, eventBus, cfg)

	log.WithField("environment", cfg.Environment).Info("Engine is running")

	// Periodically sweep open matches past their TTL
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Shutting down engine...")
			return nil
		case <-ticker.C:
			swept, err := services.Match.SweepStaleOpenMatches(ctx)
			if err != nil {
				log.WithError(err).Error("Stale match sweep failed")
				continue
			}
			if swept > 0 {
				log.WithField("count", swept).Info("Swept stale open matches")
			}
		}
	}
}
