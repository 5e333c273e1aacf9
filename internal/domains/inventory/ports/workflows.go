package ports

import (
	"context"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

// AssembleProductInput describes a product together with the parts it is built from.
type AssembleProductInput struct {
	Product        domain.Product
	PartIDs        []int64
	IdempotencyKey string
}

// WorkflowOrchestrator runs multi-step inventory operations.
type WorkflowOrchestrator interface {
	AssembleProduct(ctx context.Context, input AssembleProductInput) (domain.Product, error)
}
