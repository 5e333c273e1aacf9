package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
	inventoryactivities "github.com/Apurer/inventory-service/internal/platform/temporal/activities/inventory"
	inventoryworkflows "github.com/Apurer/inventory-service/internal/platform/temporal/workflows/inventory"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalProductWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineProductWorkflows)(nil)
)

// TemporalProductWorkflows starts product assembly on a Temporal cluster.
type TemporalProductWorkflows struct {
	client    client.Client
	taskQueue string
}

func NewTemporalProductWorkflows(c client.Client) *TemporalProductWorkflows {
	return &TemporalProductWorkflows{client: c, taskQueue: inventoryworkflows.ProductAssemblyTaskQueue}
}

// AssembleProduct runs the assembly workflow and waits for its result.
// Requests sharing an idempotency key attach to the same workflow run.
func (o *TemporalProductWorkflows) AssembleProduct(ctx context.Context, input ports.AssembleProductInput) (domain.Product, error) {
	if o == nil || o.client == nil {
		return domain.Product{}, errors.New("temporal product workflows not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildAssemblyWorkflowID(input, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		inventoryworkflows.ProductAssemblyWorkflowName,
		inventoryworkflows.ProductAssemblyWorkflowInput{Command: input, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) || strings.TrimSpace(input.IdempotencyKey) == "" {
			return domain.Product{}, fmt.Errorf("%w: start assembly workflow: %w", application.ErrBackendUnavailable, err)
		}
		run = o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
	}
	var product domain.Product
	if err := run.Get(ctx, &product); err != nil {
		return domain.Product{}, inventoryactivities.FromApplicationError(err)
	}
	return product, nil
}

// InlineProductWorkflows assembles in a single AddProduct call, so the
// product and its associations are written as one atomic unit.
type InlineProductWorkflows struct {
	intake *application.Intake
}

func NewInlineProductWorkflows(intake *application.Intake) *InlineProductWorkflows {
	return &InlineProductWorkflows{intake: intake}
}

func (o *InlineProductWorkflows) AssembleProduct(ctx context.Context, input ports.AssembleProductInput) (domain.Product, error) {
	if o == nil || o.intake == nil {
		return domain.Product{}, errors.New("inline product workflows not configured")
	}
	product := input.Product.Clone()
	product.AssociatedPartIDs = append(product.AssociatedPartIDs, input.PartIDs...)
	created, _, err := o.intake.AddProduct(ctx, input.IdempotencyKey, product)
	return created, err
}

func buildAssemblyWorkflowID(input ports.AssembleProductInput, traceComponent string) string {
	if key := strings.TrimSpace(input.IdempotencyKey); key != "" {
		return fmt.Sprintf("product-assembly-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("product-assembly-%s-%s", traceComponent, uuid.NewString())
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return "untraced"
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
