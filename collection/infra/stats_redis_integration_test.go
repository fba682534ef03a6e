//go:build integration

package infra

import (
	"context"
	"testing"
	"time"

	"card-collection/collection/domain"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisStatsStore_Record(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })

	s := NewRedisStatsStore(rdb, WithStatsPrefix("test:stats:"), WithStatsTTL(time.Minute), WithStatsTrackMisses(true))
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, domain.LookupEvent{Mode: domain.MatchExact, Name: "Lightning Bolt", Outcome: domain.OutcomeFound, At: at}))
	require.NoError(t, s.Record(ctx, domain.LookupEvent{Mode: domain.MatchFuzzy, Name: "Not A Real Card", Outcome: domain.OutcomeNotFound, At: at}))

	total, err := rdb.HGetAll(ctx, "test:stats:total").Result()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"found": "1", "not_found": "1"}, total)

	minute, err := rdb.HGet(ctx, "test:stats:minute:202506011230", "found").Result()
	require.NoError(t, err)
	require.Equal(t, "1", minute)

	mode, err := rdb.HGet(ctx, "test:stats:mode", "fuzzy:not_found").Result()
	require.NoError(t, err)
	require.Equal(t, "1", mode)

	score, err := rdb.ZScore(ctx, "test:stats:misses", "not a real card").Result()
	require.NoError(t, err)
	require.Equal(t, float64(1), score)

	ttl, err := rdb.TTL(ctx, "test:stats:minute:202506011230").Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))
}
