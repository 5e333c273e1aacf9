package mysql

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
	platformmysql "github.com/Apurer/inventory-service/internal/platform/mysql"
)

func getMySQLBackend(t *testing.T) (*Backend, *sql.DB) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/inventory_test"
	}

	db, err := platformmysql.Connect(context.Background(), dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	backend := NewBackend(db)
	require.NoError(t, backend.EnsureSchema(context.Background()))
	for _, table := range []string{"product_parts", "products", "parts"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}
	return backend, db
}

func levels(name string) domain.Levels {
	return domain.Levels{Name: name, Price: decimal.RequireFromString("4.75"), Stock: 2, Min: 0, Max: 9}
}

func TestBackend_NotConfigured(t *testing.T) {
	var backend *Backend
	_, err := backend.LoadAllParts(context.Background())
	require.Error(t, err)
	require.Error(t, NewBackend(nil).InsertPart(context.Background(), domain.Part{}))
}

func TestVariantColumns(t *testing.T) {
	machine, company := variantColumns(domain.Part{Kind: domain.KindInHouse, MachineID: 3, CompanyName: "ignored"})
	assert.True(t, machine.Valid)
	assert.False(t, company.Valid)

	machine, company = variantColumns(domain.Part{Kind: domain.KindOutsourced, CompanyName: "Acme"})
	assert.False(t, machine.Valid)
	assert.Equal(t, "Acme", company.String)
}

func TestBackend_PartsKeepInsertionOrder(t *testing.T) {
	backend, _ := getMySQLBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.InsertPart(ctx, domain.Part{ID: 1005, Levels: levels("Nut"), Kind: domain.KindInHouse, MachineID: 1}))
	require.NoError(t, backend.InsertPart(ctx, domain.Part{ID: 1001, Levels: levels("Bolt"), Kind: domain.KindOutsourced, CompanyName: "Acme"}))

	parts, err := backend.LoadAllParts(ctx)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, int64(1005), parts[0].ID)
	assert.Equal(t, "Acme", parts[1].CompanyName)
	assert.True(t, decimal.RequireFromString("4.75").Equal(parts[1].Price))

	require.NoError(t, backend.UpdatePart(ctx, parts[0]), "unchanged rows still count as matched")
	assert.ErrorIs(t, backend.UpdatePart(ctx, domain.Part{ID: 77, Levels: levels("x"), Kind: domain.KindInHouse}), ports.ErrNotFound)
	require.NoError(t, backend.DeletePart(ctx, 1005))
	assert.ErrorIs(t, backend.DeletePart(ctx, 1005), ports.ErrNotFound)
}

func TestBackend_AtomicRollsBack(t *testing.T) {
	backend, _ := getMySQLBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.InsertProduct(ctx, domain.Product{ID: 2001, Levels: levels("Kit")}))
	require.NoError(t, backend.InsertAssociation(ctx, 2001, 5))
	require.NoError(t, backend.InsertAssociation(ctx, 2001, 5))

	boom := errors.New("boom")
	err := backend.Atomic(ctx, func(tx ports.Backend) error {
		if err := tx.DeleteAssociationsFor(ctx, 2001); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	products, err := backend.LoadAllProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, []int64{5, 5}, products[0].AssociatedPartIDs)
}

func TestBackend_ServesStore(t *testing.T) {
	backend, _ := getMySQLBackend(t)
	ctx := context.Background()

	store := application.NewStore(backend)
	require.NoError(t, store.Load(ctx))
	part, err := store.AddPart(ctx, domain.Part{Levels: levels("Wheel"), Kind: domain.KindInHouse, MachineID: 8})
	require.NoError(t, err)
	product, err := store.AddProduct(ctx, domain.Product{Levels: levels("Bike"), AssociatedPartIDs: []int64{part.ID}})
	require.NoError(t, err)

	reloaded := application.NewStore(backend)
	require.NoError(t, reloaded.Load(ctx))
	found, ok := reloaded.LookupProduct(ctx, product.ID)
	require.True(t, ok)
	assert.Equal(t, []int64{part.ID}, found.AssociatedPartIDs)
}
