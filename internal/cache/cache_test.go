package cache

import (
	"context"
	"testing"
	"time"

	"challenge-server/internal/models"

	"github.com/stretchr/testify/require"
)

func TestResetTokensAreSingleUse(t *testing.T) {
	ctx := context.Background()
	tokens := NewResetTokens(testClient)

	token, err := tokens.Issue(ctx, 42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	ttl, err := testClient.TTL(ctx, ResetTokenPrefix+token).Result()
	require.NoError(t, err)
	require.InDelta(t, ResetTokenTTL.Seconds(), ttl.Seconds(), 5)

	userID, ok, err := tokens.Consume(ctx, token)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), userID)

	_, ok, err = tokens.Consume(ctx, token)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	tokens := &ResetTokens{client: testClient, ttl: time.Second}

	token, err := tokens.Issue(ctx, 7)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok, err := tokens.Consume(ctx, token)
		return err == nil && !ok
	}, 5*time.Second, 200*time.Millisecond)
}

func TestLeaderboardCache(t *testing.T) {
	ctx := context.Background()
	c := NewLeaderboardCache(testClient, time.Minute)

	_, hit, err := c.Get(ctx, 10)
	require.NoError(t, err)
	require.False(t, hit)

	rows := []models.LeaderboardRow{
		{Username: "ada", Points: 90, Rank: 1},
		{Username: "bob", Points: 80, Rank: 2},
	}
	require.NoError(t, c.Set(ctx, 10, rows))
	require.NoError(t, c.Set(ctx, 5, rows[:1]))

	got, hit, err := c.Get(ctx, 10)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, rows, got)

	require.NoError(t, c.Invalidate(ctx))

	_, hit, err = c.Get(ctx, 10)
	require.NoError(t, err)
	require.False(t, hit)
	_, hit, err = c.Get(ctx, 5)
	require.NoError(t, err)
	require.False(t, hit)
}
