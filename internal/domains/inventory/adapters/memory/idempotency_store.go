package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// sweepEvery is the number of saves between purges of expired keys.
const sweepEvery = 256

// IdempotencyStore keeps idempotency keys in process memory for the same
// window the Redis store uses. Expired keys read as unknown and are purged
// in batches as new keys arrive.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]ports.IdempotencyRecord
	ttl     time.Duration
	now     func() time.Time
	saves   int
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[string]ports.IdempotencyRecord{},
		ttl:     ports.DefaultIdempotencyTTL,
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) *IdempotencyStore {
	if now != nil {
		s.now = now
	}
	return s
}

// WithTTL overrides how long keys are remembered.
func (s *IdempotencyStore) WithTTL(ttl time.Duration) *IdempotencyStore {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.live(key, s.now())
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (s *IdempotencyStore) Save(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if existing, ok := s.live(record.Key, now); ok {
		if !existing.Matches(record) {
			return &existing, ports.ErrIdempotencyConflict
		}
		return &existing, nil
	}

	s.saves++
	if s.saves%sweepEvery == 0 {
		s.sweep(now)
	}
	record.CreatedAt = now
	record.UpdatedAt = now
	s.records[record.Key] = record
	return &record, nil
}

// Len reports how many keys are held, expired or not.
func (s *IdempotencyStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *IdempotencyStore) live(key string, now time.Time) (ports.IdempotencyRecord, bool) {
	record, ok := s.records[key]
	if !ok {
		return ports.IdempotencyRecord{}, false
	}
	if s.expired(record, now) {
		delete(s.records, key)
		return ports.IdempotencyRecord{}, false
	}
	return record, true
}

func (s *IdempotencyStore) sweep(now time.Time) {
	for key, record := range s.records {
		if s.expired(record, now) {
			delete(s.records, key)
		}
	}
}

func (s *IdempotencyStore) expired(record ports.IdempotencyRecord, now time.Time) bool {
	return !now.Before(record.CreatedAt.Add(s.ttl))
}
