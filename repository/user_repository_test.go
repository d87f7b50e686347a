package repository

import (
	"context"
	"testing"

	"matcharena/repository/testutil"
	"matcharena/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing user returns nil", func(t *testing.T) {
		user, err := repo.GetByUID(ctx, "ghost")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("create and retrieve", func(t *testing.T) {
		created, err := repo.Create(ctx, "user-1", "alice", 500)
		require.NoError(t, err)
		assert.Equal(t, int64(500), created.Balance)
		assert.False(t, created.CreatedAt.IsZero())

		user, err := repo.GetByUID(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, int64(500), user.Balance)
		assert.Equal(t, 0, user.Stats.Wins)
	})
}

func TestUserRepository_BalanceOperations(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "user-1", "alice", 1000)
	require.NoError(t, err)

	t.Run("add balance", func(t *testing.T) {
		err := repo.AddBalance(ctx, "user-1", 250)
		require.NoError(t, err)

		user, err := repo.GetByUID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(1250), user.Balance)
	})

	t.Run("deduct balance", func(t *testing.T) {
		err := repo.DeductBalance(ctx, "user-1", 1250)
		require.NoError(t, err)

		user, err := repo.GetByUID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), user.Balance)
	})

	t.Run("deduct below zero fails", func(t *testing.T) {
		err := repo.DeductBalance(ctx, "user-1", 1)
		assert.ErrorIs(t, err, service.ErrInsufficientFunds)

		// Balance is untouched by the failed debit
		user, err := repo.GetByUID(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), user.Balance)
	})

	t.Run("deduct from missing user", func(t *testing.T) {
		err := repo.DeductBalance(ctx, "ghost", 100)
		assert.ErrorIs(t, err, service.ErrPlayerNotFound)
	})

	t.Run("add to missing user", func(t *testing.T) {
		err := repo.AddBalance(ctx, "ghost", 100)
		assert.ErrorIs(t, err, service.ErrPlayerNotFound)
	})
}

func TestUserRepository_ApplyMatchResult(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, err := repo.Create(ctx, "user-1", "alice", 0)
	require.NoError(t, err)

	require.NoError(t, repo.ApplyMatchResult(ctx, "user-1", true, 180))
	require.NoError(t, repo.ApplyMatchResult(ctx, "user-1", false, 0))
	require.NoError(t, repo.ApplyMatchResult(ctx, "user-1", true, 90))

	user, err := repo.GetByUID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Stats.Wins)
	assert.Equal(t, 1, user.Stats.Losses)
	assert.Equal(t, int64(270), user.Stats.EarningsTotal)
}

func TestUserRepository_GetLeaderboard(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	for _, u := range []struct {
		uid      string
		earnings int64
	}{
		{"user-1", 100},
		{"user-2", 300},
		{"user-3", 200},
	} {
		_, err := repo.Create(ctx, u.uid, u.uid, 0)
		require.NoError(t, err)
		require.NoError(t, repo.ApplyMatchResult(ctx, u.uid, true, u.earnings))
	}

	entries, err := repo.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "user-2", entries[0].UID)
	assert.Equal(t, int64(300), entries[0].Earnings)
	assert.Equal(t, "user-3", entries[1].UID)
}
