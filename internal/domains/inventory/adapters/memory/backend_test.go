package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

func levels(name string) domain.Levels {
	return domain.Levels{Name: name, Price: decimal.RequireFromString("3.10"), Stock: 2, Min: 1, Max: 4}
}

func TestBackend_AtomicDiscardsFailedUnit(t *testing.T) {
	ctx := context.Background()
	backend := NewBackend()
	require.NoError(t, backend.InsertProduct(ctx, domain.Product{ID: 1, Levels: levels("Kit")}))
	require.NoError(t, backend.InsertAssociation(ctx, 1, 10))

	boom := errors.New("boom")
	err := backend.Atomic(ctx, func(tx ports.Backend) error {
		require.NoError(t, tx.DeleteAssociationsFor(ctx, 1))
		require.NoError(t, tx.InsertAssociation(ctx, 1, 11))
		return boom
	})
	require.ErrorIs(t, err, boom)

	products, err := backend.LoadAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	require.Equal(t, []int64{10}, products[0].AssociatedPartIDs)
}

func TestBackend_AssociationsKeepOrderAndDuplicates(t *testing.T) {
	ctx := context.Background()
	backend := NewBackend()
	require.NoError(t, backend.InsertProduct(ctx, domain.Product{ID: 1, Levels: levels("Kit")}))
	for _, partID := range []int64{3, 1, 3} {
		require.NoError(t, backend.InsertAssociation(ctx, 1, partID))
	}
	products, err := backend.LoadAllProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{3, 1, 3}, products[0].AssociatedPartIDs)

	require.ErrorIs(t, backend.InsertAssociation(ctx, 2, 1), ports.ErrNotFound)
	require.ErrorIs(t, backend.UpdatePart(ctx, domain.Part{ID: 9}), ports.ErrNotFound)
}

func TestBackend_ServesStoreAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	backend := NewBackend()

	first := application.NewStore(backend)
	require.NoError(t, first.Load(ctx))
	bolt, err := first.AddPart(ctx, domain.Part{Levels: levels("Bolt"), Kind: domain.KindOutsourced, CompanyName: "Acme"})
	require.NoError(t, err)
	kit, err := first.AddProduct(ctx, domain.Product{Levels: levels("Kit"), AssociatedPartIDs: []int64{bolt.ID, bolt.ID}})
	require.NoError(t, err)

	second := application.NewStore(backend)
	require.NoError(t, second.Load(ctx))
	part, ok := second.LookupPart(ctx, bolt.ID)
	require.True(t, ok)
	require.Equal(t, "Acme", part.CompanyName)
	product, ok := second.LookupProduct(ctx, kit.ID)
	require.True(t, ok)
	require.Equal(t, []int64{bolt.ID, bolt.ID}, product.AssociatedPartIDs)
	next, err := second.AllocateID(ctx)
	require.NoError(t, err)
	require.Equal(t, kit.ID+1, next)

	_, err = second.DissociatePart(ctx, kit.ID, bolt.ID)
	require.NoError(t, err)
	products, err := backend.LoadAllProducts(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{bolt.ID}, products[0].AssociatedPartIDs)
}

func TestIdempotencyStore_SaveAndConflict(t *testing.T) {
	ctx := context.Background()
	store := NewIdempotencyStore()
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.WithClock(func() time.Time { return fixed })

	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, missing)

	record := ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", Kind: ports.RecordKindPart, RecordID: 1001}
	saved, err := store.Save(ctx, record)
	require.NoError(t, err)
	require.Equal(t, fixed, saved.CreatedAt)

	again, err := store.Save(ctx, record)
	require.NoError(t, err)
	require.Equal(t, int64(1001), again.RecordID)

	record.RequestHash = "h2"
	existing, err := store.Save(ctx, record)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	require.Equal(t, "h1", existing.RequestHash)
}

func TestIdempotencyStore_KeysExpire(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore().
		WithTTL(time.Hour).
		WithClock(func() time.Time { return clock })

	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h1", Kind: ports.RecordKindPart, RecordID: 1001})
	require.NoError(t, err)

	clock = clock.Add(59 * time.Minute)
	_, err = store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h2", Kind: ports.RecordKindPart, RecordID: 1002})
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)

	clock = clock.Add(time.Minute)
	missing, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	require.Nil(t, missing, "an expired key reads as unknown")

	saved, err := store.Save(ctx, ports.IdempotencyRecord{Key: "k1", RequestHash: "h2", Kind: ports.RecordKindPart, RecordID: 1002})
	require.NoError(t, err)
	require.Equal(t, int64(1002), saved.RecordID)
}

func TestIdempotencyStore_SweepsExpiredKeys(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewIdempotencyStore().
		WithTTL(time.Minute).
		WithClock(func() time.Time { return clock })

	for n := 0; n < sweepEvery-1; n++ {
		_, err := store.Save(ctx, ports.IdempotencyRecord{Key: fmt.Sprintf("old-%d", n), RequestHash: "h", Kind: ports.RecordKindPart, RecordID: int64(n)})
		require.NoError(t, err)
	}
	require.Equal(t, sweepEvery-1, store.Len())

	clock = clock.Add(2 * time.Minute)
	_, err := store.Save(ctx, ports.IdempotencyRecord{Key: "fresh", RequestHash: "h", Kind: ports.RecordKindPart, RecordID: 1})
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
}
