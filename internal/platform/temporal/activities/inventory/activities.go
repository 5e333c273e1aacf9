package inventory

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

const (
	// CreateProductActivityName stores the product with the associations it already carries.
	CreateProductActivityName = "inventory.activities.CreateProduct"
	// AttachPartActivityName appends one part reference to a product.
	AttachPartActivityName = "inventory.activities.AttachPart"
	// DiscardProductActivityName clears a product's associations and deletes it.
	DiscardProductActivityName = "inventory.activities.DiscardProduct"
)

// CreateProductInput is the payload of CreateProduct.
type CreateProductInput struct {
	Product        domain.Product
	IdempotencyKey string
}

// AttachPartInput is the payload of AttachPart. Position is the index the
// part takes among the product's associations.
type AttachPartInput struct {
	ProductID int64
	PartID    int64
	Position  int
}

// Activities groups the activities acting on the inventory store. They must
// run in the process that owns the store.
type Activities struct {
	service ports.Service
	intake  *application.Intake
}

func NewActivities(service ports.Service, intake *application.Intake) *Activities {
	if intake == nil {
		intake = application.NewIntake(service, nil)
	}
	return &Activities{service: service, intake: intake}
}

// CreateProduct adds the product. With an idempotency key a retried attempt
// replays the product created by an earlier one.
func (a *Activities) CreateProduct(ctx context.Context, input CreateProductInput) (domain.Product, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return domain.Product{}, errors.New("inventory activities not initialized")
	}
	logger.Info("CreateProduct activity started", "name", input.Product.Name)
	product, replayed, err := a.intake.AddProduct(ctx, input.IdempotencyKey, input.Product)
	if err != nil {
		logger.Error("CreateProduct activity failed", "name", input.Product.Name, "error", err)
		return domain.Product{}, ToApplicationError(err)
	}
	logger.Info("CreateProduct activity completed", "productId", product.ID, "replayed", replayed)
	return product, nil
}

// AttachPart associates one part with the product. An attempt that finds the
// part already at input.Position returns the product unchanged, so a retry
// after a committed write does not append twice.
func (a *Activities) AttachPart(ctx context.Context, input AttachPartInput) (domain.Product, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return domain.Product{}, errors.New("inventory activities not initialized")
	}
	if current, ok := a.service.LookupProduct(ctx, input.ProductID); ok &&
		input.Position >= 0 && input.Position < len(current.AssociatedPartIDs) &&
		current.AssociatedPartIDs[input.Position] == input.PartID {
		logger.Info("AttachPart already applied", "productId", input.ProductID, "partId", input.PartID, "position", input.Position)
		return current, nil
	}
	product, err := a.service.AssociatePart(ctx, input.ProductID, input.PartID)
	if err != nil {
		logger.Error("AttachPart activity failed", "productId", input.ProductID, "partId", input.PartID, "error", err)
		return domain.Product{}, ToApplicationError(err)
	}
	logger.Info("AttachPart activity completed", "productId", input.ProductID, "partId", input.PartID)
	return product, nil
}

// DiscardProduct undoes CreateProduct. A product that is already gone is
// not an error.
func (a *Activities) DiscardProduct(ctx context.Context, productID int64) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		return errors.New("inventory activities not initialized")
	}
	product, ok := a.service.LookupProduct(ctx, productID)
	if !ok {
		logger.Info("DiscardProduct found nothing to remove", "productId", productID)
		return nil
	}
	if product.HasAssociatedParts() {
		product.AssociatedPartIDs = nil
		if _, err := a.service.UpdateProduct(ctx, productID, product); err != nil {
			return ToApplicationError(err)
		}
	}
	if _, err := a.service.DeleteProduct(ctx, productID); err != nil {
		return ToApplicationError(err)
	}
	logger.Info("DiscardProduct activity completed", "productId", productID)
	return nil
}
