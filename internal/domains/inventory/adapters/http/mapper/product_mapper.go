package mapper

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

// ProductMutation captures inbound product payloads.
type ProductMutation struct {
	ID                int64            `json:"id,omitempty"`
	Name              string           `json:"name"`
	Price             *decimal.Decimal `json:"price"`
	Stock             int              `json:"stock"`
	Min               int              `json:"min"`
	Max               int              `json:"max"`
	AssociatedPartIDs []int64          `json:"associatedPartIds,omitempty" binding:"omitempty,dive,gte=0"`
}

// Product is the HTTP representation of a product.
type Product struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	Stock             int             `json:"stock"`
	Min               int             `json:"min"`
	Max               int             `json:"max"`
	AssociatedPartIDs []int64         `json:"associatedPartIds"`
}

// AssembleProduct is the payload for the product assembly workflow.
type AssembleProduct struct {
	Product ProductMutation `json:"product"`
	PartIDs []int64         `json:"partIds" binding:"dive,gte=0"`
}

// AllocatedID reports a freshly reserved identifier.
type AllocatedID struct {
	ID int64 `json:"id"`
}

func ToDomainProduct(input ProductMutation) (domain.Product, error) {
	if input.Price == nil {
		return domain.Product{}, errMissingPrice
	}
	return domain.Product{
		ID: input.ID,
		Levels: domain.Levels{
			Name:  input.Name,
			Price: *input.Price,
			Stock: input.Stock,
			Min:   input.Min,
			Max:   input.Max,
		},
		AssociatedPartIDs: slices.Clone(input.AssociatedPartIDs),
	}, nil
}

func FromDomainProduct(product domain.Product) Product {
	ids := slices.Clone(product.AssociatedPartIDs)
	if ids == nil {
		ids = []int64{}
	}
	return Product{
		ID:                product.ID,
		Name:              product.Name,
		Price:             product.Price,
		Stock:             product.Stock,
		Min:               product.Min,
		Max:               product.Max,
		AssociatedPartIDs: ids,
	}
}

func FromDomainProducts(products []domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, product := range products {
		out = append(out, FromDomainProduct(product))
	}
	return out
}
