package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

func getRedisClient(t *testing.T) *goredis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestIdempotencyStore_SaveReplayConflict(t *testing.T) {
	client := getRedisClient(t)
	ctx := context.Background()
	store := NewIdempotencyStore(client).WithTTL(time.Minute)

	key := "test-" + uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, idempotencyKeyPrefix+key) })

	missing, err := store.Get(ctx, key)
	require.NoError(t, err)
	require.Nil(t, missing)

	record := ports.IdempotencyRecord{Key: key, RequestHash: "h1", Kind: ports.RecordKindProduct, RecordID: 1001}
	_, err = store.Save(ctx, record)
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, idempotencyKeyPrefix+key).Result()
	require.NoError(t, err)
	require.Greater(t, ttl, time.Duration(0))

	replayed, err := store.Save(ctx, record)
	require.NoError(t, err)
	require.Equal(t, int64(1001), replayed.RecordID)

	record.RequestHash = "h2"
	existing, err := store.Save(ctx, record)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.Equal(t, "h1", existing.RequestHash)
}

func TestIdempotencyStore_NotConfigured(t *testing.T) {
	store := NewIdempotencyStore(nil)
	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
}
