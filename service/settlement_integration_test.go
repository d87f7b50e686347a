package service_test

import (
	"context"
	"testing"
	"time"

	"matcharena/config"
	"matcharena/events"
	"matcharena/models"
	"matcharena/repository"
	"matcharena/repository/testutil"
	"matcharena/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchSettlement_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	cfg := &config.Config{
		StartingBalance: 10000,
		CommissionRate:  0.10,
		AdminUIDs:       []string{"admin-1"},
		OpenMatchTTL:    time.Hour,
		Environment:     "test",
	}

	factory := repository.NewUnitOfWorkFactory(testDB.DB, events.NewBus())
	walletService := service.NewWalletService(factory, cfg)
	matchService := service.NewMatchService(factory, cfg, nil)
	settlementService := service.NewSettlementService(factory, cfg)
	paymentService := service.NewPaymentService(factory, cfg)
	statsService := service.NewStatsService(factory)

	t.Run("full lifecycle from escrow to payout", func(t *testing.T) {
		alice, err := walletService.GetOrCreateUser(ctx, "alice", "alice")
		require.NoError(t, err)
		require.Equal(t, int64(10000), alice.Balance)

		_, err = walletService.GetOrCreateUser(ctx, "bob", "bob")
		require.NoError(t, err)

		// Creating escrows the creator's entry fee
		match, err := matchService.CreateMatch(ctx, "alice", "Friday showdown", models.GameType1v1, 1000)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusOpen, match.Status)

		alice, err = walletService.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(9000), alice.Balance)

		// Second player fills the 1v1 and the match starts
		match, err = matchService.JoinMatch(ctx, "bob", match.ID)
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, match.Status)

		bob, err := walletService.GetUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(9000), bob.Balance)

		// Both players claim the win, which escalates to a dispute
		match, err = matchService.SubmitResult(ctx, match.ID, "alice", "https://proof/alice.png")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusInProgress, match.Status)

		match, err = matchService.SubmitResult(ctx, match.ID, "bob", "https://proof/bob.png")
		require.NoError(t, err)
		assert.Equal(t, models.MatchStatusDisputed, match.Status)

		// Admin settles: pool 2000, 10% commission, 1800 to the winner
		result, err := settlementService.DeclareWinner(ctx, "admin-1", match.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(2000), result.PrizePool)
		assert.Equal(t, int64(200), result.Commission)
		assert.Equal(t, int64(1800), result.Payout)
		assert.Equal(t, models.MatchStatusCompleted, result.Match.Status)

		alice, err = walletService.GetUser(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(10800), alice.Balance)
		assert.Equal(t, 1, alice.Stats.Wins)
		assert.Equal(t, int64(800), alice.Stats.EarningsTotal)

		bob, err = walletService.GetUser(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, int64(9000), bob.Balance)
		assert.Equal(t, 1, bob.Stats.Losses)
		assert.Equal(t, int64(-1000), bob.Stats.EarningsTotal)

		// Settling twice is rejected
		_, err = settlementService.DeclareWinner(ctx, "admin-1", match.ID, "bob")
		assert.ErrorIs(t, err, service.ErrMatchAlreadySettled)

		// The winner tops the leaderboard
		entries, err := statsService.GetLeaderboard(ctx, 10)
		require.NoError(t, err)
		require.NotEmpty(t, entries)
		assert.Equal(t, "alice", entries[0].UID)
	})

	t.Run("deleting an open match refunds the escrowed fees", func(t *testing.T) {
		_, err := walletService.GetOrCreateUser(ctx, "carol", "carol")
		require.NoError(t, err)

		match, err := matchService.CreateMatch(ctx, "carol", "Cancelled game", models.GameType1v1, 500)
		require.NoError(t, err)

		carol, err := walletService.GetUser(ctx, "carol")
		require.NoError(t, err)
		require.Equal(t, int64(9500), carol.Balance)

		err = matchService.DeleteMatch(ctx, "admin-1", match.ID)
		require.NoError(t, err)

		carol, err = walletService.GetUser(ctx, "carol")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), carol.Balance)

		deleted, err := matchService.GetMatch(ctx, match.ID)
		assert.ErrorIs(t, err, service.ErrMatchNotFound)
		assert.Nil(t, deleted)
	})

	t.Run("withdrawal reserves on request and refunds on decline", func(t *testing.T) {
		_, err := walletService.GetOrCreateUser(ctx, "dave", "dave")
		require.NoError(t, err)

		withdrawal, err := paymentService.RequestWithdrawal(ctx, "dave", 4000, "555-0199")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPending, withdrawal.Status)

		dave, err := walletService.GetUser(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, int64(6000), dave.Balance)

		// Not enough left for a second large withdrawal
		_, err = paymentService.RequestWithdrawal(ctx, "dave", 8000, "555-0199")
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		_, err = paymentService.DeclineWithdrawal(ctx, "admin-1", withdrawal.ID)
		require.NoError(t, err)

		dave, err = walletService.GetUser(ctx, "dave")
		require.NoError(t, err)
		assert.Equal(t, int64(10000), dave.Balance)

		// The decision already landed
		_, err = paymentService.ApproveWithdrawal(ctx, "admin-1", withdrawal.ID)
		assert.ErrorIs(t, err, service.ErrAlreadyHandled)
	})

	t.Run("deposit has no effect until approved", func(t *testing.T) {
		_, err := walletService.GetOrCreateUser(ctx, "erin", "erin")
		require.NoError(t, err)

		deposit, err := paymentService.RequestDeposit(ctx, "erin", 2500, "txn-erin-1", "https://proof/receipt.png")
		require.NoError(t, err)

		erin, err := walletService.GetUser(ctx, "erin")
		require.NoError(t, err)
		require.Equal(t, int64(10000), erin.Balance)

		pending, err := paymentService.ListPendingDeposits(ctx, "admin-1")
		require.NoError(t, err)
		require.NotEmpty(t, pending)

		_, err = paymentService.ApproveDeposit(ctx, "admin-1", deposit.ID)
		require.NoError(t, err)

		erin, err = walletService.GetUser(ctx, "erin")
		require.NoError(t, err)
		assert.Equal(t, int64(12500), erin.Balance)

		history, err := walletService.GetTransactionHistory(ctx, "erin", 10)
		require.NoError(t, err)
		require.NotEmpty(t, history)
		assert.Equal(t, models.TransactionTypeDeposit, history[0].TransactionType)
	})
}
