package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
	inventoryactivities "github.com/Apurer/inventory-service/internal/platform/temporal/activities/inventory"
)

// RunProductAssemblySequence creates the product, then attaches each part in
// order. If an attachment fails the product is discarded so no half-built
// assembly is left behind.
func RunProductAssemblySequence(ctx workflow.Context, input ports.AssembleProductInput) (domain.Product, error) {
	logger := workflow.GetLogger(ctx)
	writeOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    10 * time.Second,
			MaximumAttempts:    5,
		},
	}
	compensateOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    10,
		},
	}
	writeCtx := workflow.WithActivityOptions(ctx, writeOptions)

	var product domain.Product
	create := inventoryactivities.CreateProductInput{Product: input.Product, IdempotencyKey: input.IdempotencyKey}
	if err := workflow.ExecuteActivity(writeCtx, inventoryactivities.CreateProductActivityName, create).Get(ctx, &product); err != nil {
		logger.Error("product assembly sequence failed to create product", "error", err)
		return domain.Product{}, err
	}
	logger.Info("product assembly sequence created product", "productId", product.ID)

	for _, partID := range input.PartIDs {
		attach := inventoryactivities.AttachPartInput{
			ProductID: product.ID,
			PartID:    partID,
			Position:  len(product.AssociatedPartIDs),
		}
		if err := workflow.ExecuteActivity(writeCtx, inventoryactivities.AttachPartActivityName, attach).Get(ctx, &product); err != nil {
			logger.Error("product assembly sequence failed to attach part", "productId", product.ID, "partId", partID, "error", err)
			compensateCtx, _ := workflow.NewDisconnectedContext(ctx)
			compensateCtx = workflow.WithActivityOptions(compensateCtx, compensateOptions)
			if cerr := workflow.ExecuteActivity(compensateCtx, inventoryactivities.DiscardProductActivityName, product.ID).Get(compensateCtx, nil); cerr != nil {
				logger.Error("product assembly compensation failed", "productId", product.ID, "error", cerr)
			}
			return domain.Product{}, err
		}
	}
	logger.Info("product assembly sequence completed", "productId", product.ID, "parts", len(product.AssociatedPartIDs))
	return product, nil
}
