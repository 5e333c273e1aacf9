package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload or target.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// RecordKind names the collection an idempotency record points into.
type RecordKind string

const (
	RecordKindPart    RecordKind = "part"
	RecordKindProduct RecordKind = "product"
)

// IdempotencyRecord ties a client-supplied key to the record its request created.
type IdempotencyRecord struct {
	Key         string     `json:"key"`
	RequestHash string     `json:"requestHash"`
	Kind        RecordKind `json:"kind"`
	RecordID    int64      `json:"recordId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Matches reports whether other carries the same request for the same target.
func (r IdempotencyRecord) Matches(other IdempotencyRecord) bool {
	return r.RequestHash == other.RequestHash && r.Kind == other.Kind && r.RecordID == other.RecordID
}

// DefaultIdempotencyTTL is how long stores remember a key.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore persists idempotency keys so retried creates can be replayed.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record. An existing record with the same hash and target is returned as is;
	// one with a different hash or target is returned together with ErrIdempotencyConflict.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
}
