package ports

import (
	"context"
	"iter"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

// View is a live, name-filtered projection over a collection. Every read
// re-evaluates against the current contents in insertion order.
type View[T any] interface {
	Query() string
	Items() []T
	All() iter.Seq[T]
	Len() int
}

// Service exposes inventory use cases to adapters.
type Service interface {
	AllocateID(ctx context.Context) (int64, error)

	AddPart(ctx context.Context, part domain.Part) (domain.Part, error)
	AddProduct(ctx context.Context, product domain.Product) (domain.Product, error)

	LookupPart(ctx context.Context, id int64) (domain.Part, bool)
	LookupProduct(ctx context.Context, id int64) (domain.Product, bool)
	LookupParts(ctx context.Context, name string) View[domain.Part]
	LookupProducts(ctx context.Context, name string) View[domain.Product]
	AllParts(ctx context.Context) View[domain.Part]
	AllProducts(ctx context.Context) View[domain.Product]

	UpdatePart(ctx context.Context, id int64, part domain.Part) (domain.Part, error)
	UpdateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error)
	// UpdatePartAt and UpdateProductAt replace the record at a position of the
	// collection's insertion order, resolved under the same lock as the write.
	UpdatePartAt(ctx context.Context, index int, part domain.Part) (domain.Part, error)
	UpdateProductAt(ctx context.Context, index int, product domain.Product) (domain.Product, error)

	DeletePart(ctx context.Context, id int64) (bool, error)
	DeleteProduct(ctx context.Context, id int64) (bool, error)

	AssociatePart(ctx context.Context, productID, partID int64) (domain.Product, error)
	DissociatePart(ctx context.Context, productID, partID int64) (domain.Product, error)
	ProductParts(ctx context.Context, productID int64) ([]domain.Part, error)
}
