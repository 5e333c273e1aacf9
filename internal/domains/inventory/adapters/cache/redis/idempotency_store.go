package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

const idempotencyKeyPrefix = "inventory:idempotency:"

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps idempotency keys in Redis with a TTL, claiming each
// key with SETNX so concurrent retries agree on the first writer.
type IdempotencyStore struct {
	client goredis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

func NewIdempotencyStore(client goredis.UniversalClient) *IdempotencyStore {
	return &IdempotencyStore{client: client, ttl: ports.DefaultIdempotencyTTL, now: time.Now}
}

// WithTTL overrides how long keys are remembered.
func (s *IdempotencyStore) WithTTL(ttl time.Duration) *IdempotencyStore {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("redis idempotency store not configured")
	}
	payload, err := s.client.Get(ctx, idempotencyKeyPrefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var record ports.IdempotencyRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("decode idempotency record: %w", err)
	}
	return &record, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("redis idempotency store not configured")
	}
	now := s.now()
	record.CreatedAt = now
	record.UpdatedAt = now
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, idempotencyKeyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return &record, nil
	}

	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, errors.New("idempotency key expired during save")
	}
	if !existing.Matches(record) {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}
