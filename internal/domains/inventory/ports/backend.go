package ports

import (
	"context"
	"errors"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

var ErrNotFound = errors.New("inventory record not found")

// Backend persists parts, products and their associations. Writes issued
// inside Atomic either all take effect or none do.
type Backend interface {
	LoadAllParts(ctx context.Context) ([]domain.Part, error)
	// LoadAllProducts returns products with AssociatedPartIDs in association order.
	LoadAllProducts(ctx context.Context) ([]domain.Product, error)

	InsertPart(ctx context.Context, part domain.Part) error
	InsertProduct(ctx context.Context, product domain.Product) error
	UpdatePart(ctx context.Context, part domain.Part) error
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeletePart(ctx context.Context, id int64) error
	DeleteProduct(ctx context.Context, id int64) error

	// InsertAssociation appends partID after the product's existing associations.
	InsertAssociation(ctx context.Context, productID, partID int64) error
	DeleteAssociationsFor(ctx context.Context, productID int64) error

	Atomic(ctx context.Context, fn func(tx Backend) error) error
}
