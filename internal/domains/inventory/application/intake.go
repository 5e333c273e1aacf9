package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

// Intake replays creates that carry an idempotency key already seen with the
// same payload, so a client retrying after a backend failure gets one record.
// Concurrent creates under one key are collapsed into a single flight.
type Intake struct {
	service ports.Service
	keys    ports.IdempotencyStore
	flights singleflight.Group
}

func NewIntake(service ports.Service, keys ports.IdempotencyStore) *Intake {
	return &Intake{service: service, keys: keys}
}

// AddPart creates a part or replays the one created under key. The boolean
// reports a replay.
func (i *Intake) AddPart(ctx context.Context, key string, part domain.Part) (domain.Part, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" || i.keys == nil {
		created, err := i.service.AddPart(ctx, part)
		return created, false, err
	}
	hash, err := FingerprintPart(part)
	if err != nil {
		return domain.Part{}, false, err
	}
	return once(ctx, &i.flights, key, hash, func(ctx context.Context) (domain.Part, bool, error) {
		return i.addPart(ctx, key, hash, part)
	})
}

func (i *Intake) addPart(ctx context.Context, key, hash string, part domain.Part) (domain.Part, bool, error) {
	id, replay, err := i.replay(ctx, key, hash, ports.RecordKindPart)
	if err != nil {
		return domain.Part{}, false, err
	}
	if replay {
		existing, ok := i.service.LookupPart(ctx, id)
		if !ok {
			return domain.Part{}, false, fmt.Errorf("%w: part %d created under key %q", ports.ErrNotFound, id, key)
		}
		return existing, true, nil
	}

	created, err := i.service.AddPart(ctx, part)
	if err != nil {
		return domain.Part{}, false, err
	}
	if err := i.remember(ctx, key, hash, ports.RecordKindPart, created.ID); err != nil {
		return domain.Part{}, false, err
	}
	return created, false, nil
}

// AddProduct creates a product or replays the one created under key.
func (i *Intake) AddProduct(ctx context.Context, key string, product domain.Product) (domain.Product, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" || i.keys == nil {
		created, err := i.service.AddProduct(ctx, product)
		return created, false, err
	}
	hash, err := FingerprintProduct(product)
	if err != nil {
		return domain.Product{}, false, err
	}
	return once(ctx, &i.flights, key, hash, func(ctx context.Context) (domain.Product, bool, error) {
		return i.addProduct(ctx, key, hash, product)
	})
}

func (i *Intake) addProduct(ctx context.Context, key, hash string, product domain.Product) (domain.Product, bool, error) {
	id, replay, err := i.replay(ctx, key, hash, ports.RecordKindProduct)
	if err != nil {
		return domain.Product{}, false, err
	}
	if replay {
		existing, ok := i.service.LookupProduct(ctx, id)
		if !ok {
			return domain.Product{}, false, fmt.Errorf("%w: product %d created under key %q", ports.ErrNotFound, id, key)
		}
		return existing, true, nil
	}

	created, err := i.service.AddProduct(ctx, product)
	if err != nil {
		return domain.Product{}, false, err
	}
	if err := i.remember(ctx, key, hash, ports.RecordKindProduct, created.ID); err != nil {
		return domain.Product{}, false, err
	}
	return created, false, nil
}

type flightResult[T any] struct {
	hash     string
	record   T
	replayed bool
}

// once runs create for key unless another caller is already creating under
// it. A caller that joined a flight with the same fingerprint shares its
// record as a replay. A caller with a different fingerprint waits the flight
// out and tries again, which then resolves to a replay or a conflict.
func once[T any](ctx context.Context, flights *singleflight.Group, key, hash string, create func(context.Context) (T, bool, error)) (T, bool, error) {
	for {
		leader := false
		v, err, _ := flights.Do(key, func() (any, error) {
			leader = true
			record, replayed, err := create(context.WithoutCancel(ctx))
			return flightResult[T]{hash: hash, record: record, replayed: replayed}, err
		})
		result, _ := v.(flightResult[T])
		if leader {
			return result.record, result.replayed, err
		}
		if result.hash == hash {
			return result.record, err == nil, err
		}
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, false, err
		}
	}
}

func (i *Intake) replay(ctx context.Context, key, hash string, kind ports.RecordKind) (int64, bool, error) {
	existing, err := i.keys.Get(ctx, key)
	if err != nil {
		return 0, false, fmt.Errorf("load idempotency key: %w", err)
	}
	if existing == nil {
		return 0, false, nil
	}
	if existing.RequestHash != hash || existing.Kind != kind {
		return 0, false, ports.ErrIdempotencyConflict
	}
	return existing.RecordID, true, nil
}

func (i *Intake) remember(ctx context.Context, key, hash string, kind ports.RecordKind, id int64) error {
	_, err := i.keys.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, Kind: kind, RecordID: id})
	return err
}

type fingerprintLevels struct {
	Name  string `json:"name"`
	Price string `json:"price"`
	Stock int    `json:"stock"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
}

type partFingerprint struct {
	ID          int64             `json:"id"`
	Levels      fingerprintLevels `json:"levels"`
	Kind        string            `json:"kind"`
	MachineID   int64             `json:"machineId,omitempty"`
	CompanyName string            `json:"companyName,omitempty"`
}

type productFingerprint struct {
	ID      int64             `json:"id"`
	Levels  fingerprintLevels `json:"levels"`
	PartIDs []int64           `json:"partIds"`
}

// FingerprintPart hashes the create-part payload deterministically.
func FingerprintPart(part domain.Part) (string, error) {
	part.Normalize()
	return fingerprint(partFingerprint{
		ID:          part.ID,
		Levels:      normalizeLevels(part.Levels),
		Kind:        string(part.Kind),
		MachineID:   part.MachineID,
		CompanyName: part.CompanyName,
	})
}

// FingerprintProduct hashes the create-product payload deterministically.
func FingerprintProduct(product domain.Product) (string, error) {
	ids := product.AssociatedPartIDs
	if ids == nil {
		ids = []int64{}
	}
	return fingerprint(productFingerprint{
		ID:      product.ID,
		Levels:  normalizeLevels(product.Levels),
		PartIDs: ids,
	})
}

func normalizeLevels(l domain.Levels) fingerprintLevels {
	return fingerprintLevels{
		Name:  strings.TrimSpace(l.Name),
		Price: l.Price.StringFixed(2),
		Stock: l.Stock,
		Min:   l.Min,
		Max:   l.Max,
	}
}

func fingerprint(v any) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
