package inventory

import (
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
	inventoryactivities "github.com/Apurer/inventory-service/internal/platform/temporal/activities/inventory"
	"github.com/Apurer/inventory-service/internal/platform/temporal/sequences"
)

const (
	// ProductAssemblyWorkflowName is the public identifier for registering the workflow.
	ProductAssemblyWorkflowName = "inventory.workflows.ProductAssembly"
	// ProductAssemblyTaskQueue is consumed by the worker embedded in the API process.
	ProductAssemblyTaskQueue = "PRODUCT_ASSEMBLY"
)

// ProductAssemblyWorkflowInput carries the assembly command and the trace it started under.
type ProductAssemblyWorkflowInput struct {
	Command ports.AssembleProductInput
	TraceID string
}

// ProductAssemblyWorkflow builds a product from its parts.
func ProductAssemblyWorkflow(ctx workflow.Context, input ProductAssemblyWorkflowInput) (domain.Product, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("ProductAssemblyWorkflow started", withTraceID(input.TraceID, "parts", len(input.Command.PartIDs))...)
	product, err := sequences.RunProductAssemblySequence(ctx, input.Command)
	if err != nil {
		logger.Error("ProductAssemblyWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return domain.Product{}, err
	}
	logger.Info("ProductAssemblyWorkflow completed", withTraceID(input.TraceID, "productId", product.ID)...)
	return product, nil
}

// Registry is satisfied by worker.Worker and the SDK test environment.
type Registry interface {
	RegisterWorkflowWithOptions(w interface{}, options workflow.RegisterOptions)
	RegisterActivityWithOptions(a interface{}, options activity.RegisterOptions)
}

// Register adds the assembly workflow and its activities to r.
func Register(r Registry, activities *inventoryactivities.Activities) {
	r.RegisterWorkflowWithOptions(ProductAssemblyWorkflow, workflow.RegisterOptions{Name: ProductAssemblyWorkflowName})
	r.RegisterActivityWithOptions(activities.CreateProduct, activity.RegisterOptions{Name: inventoryactivities.CreateProductActivityName})
	r.RegisterActivityWithOptions(activities.AttachPart, activity.RegisterOptions{Name: inventoryactivities.AttachPartActivityName})
	r.RegisterActivityWithOptions(activities.DiscardProduct, activity.RegisterOptions{Name: inventoryactivities.DiscardProductActivityName})
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
