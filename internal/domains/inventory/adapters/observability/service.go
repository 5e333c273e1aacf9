package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

const tracerName = "github.com/Apurer/inventory-service/internal/domains/inventory/adapters/observability/service"

// Service decorates the inventory service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core inventory service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.DiscardHandler),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) AllocateID(ctx context.Context) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AllocateID")
	defer span.End()

	id, err := s.inner.AllocateID(ctx)
	if err != nil {
		return 0, s.handleError(ctx, span, err, "allocate id failed")
	}
	span.SetAttributes(attribute.Int64("inventory.id", id))
	s.logInfo(ctx, "id allocated", slog.Int64("inventory.id", id))
	return id, nil
}

func (s *Service) AddPart(ctx context.Context, part domain.Part) (domain.Part, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AddPart",
		trace.WithAttributes(attribute.String("part.name", part.Name), attribute.String("part.kind", string(part.Kind))))
	defer span.End()

	s.logInfo(ctx, "adding part", slog.String("part.name", part.Name), slog.String("part.kind", string(part.Kind)))
	result, err := s.inner.AddPart(ctx, part)
	if err != nil {
		return domain.Part{}, s.handleError(ctx, span, err, "failed to add part", slog.String("part.name", part.Name))
	}
	s.metrics.recordAdded(ctx, ports.RecordKindPart)
	span.SetAttributes(attribute.Int64("part.id", result.ID))
	s.logInfo(ctx, "part added", slog.Int64("part.id", result.ID))
	return result, nil
}

func (s *Service) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AddProduct",
		trace.WithAttributes(attribute.String("product.name", product.Name), attribute.Int("product.parts", len(product.AssociatedPartIDs))))
	defer span.End()

	s.logInfo(ctx, "adding product", slog.String("product.name", product.Name), slog.Int("product.parts", len(product.AssociatedPartIDs)))
	result, err := s.inner.AddProduct(ctx, product)
	if err != nil {
		return domain.Product{}, s.handleError(ctx, span, err, "failed to add product", slog.String("product.name", product.Name))
	}
	s.metrics.recordAdded(ctx, ports.RecordKindProduct)
	span.SetAttributes(attribute.Int64("product.id", result.ID))
	s.logInfo(ctx, "product added", slog.Int64("product.id", result.ID))
	return result, nil
}

func (s *Service) LookupPart(ctx context.Context, id int64) (domain.Part, bool) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.LookupPart", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	part, ok := s.inner.LookupPart(ctx, id)
	span.SetAttributes(attribute.Bool("inventory.found", ok))
	return part, ok
}

func (s *Service) LookupProduct(ctx context.Context, id int64) (domain.Product, bool) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.LookupProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	product, ok := s.inner.LookupProduct(ctx, id)
	span.SetAttributes(attribute.Bool("inventory.found", ok))
	return product, ok
}

func (s *Service) LookupParts(ctx context.Context, name string) ports.View[domain.Part] {
	ctx, span := s.tracer.Start(ctx, "InventoryService.LookupParts", trace.WithAttributes(attribute.String("inventory.query", name)))
	defer span.End()
	return s.inner.LookupParts(ctx, name)
}

func (s *Service) LookupProducts(ctx context.Context, name string) ports.View[domain.Product] {
	ctx, span := s.tracer.Start(ctx, "InventoryService.LookupProducts", trace.WithAttributes(attribute.String("inventory.query", name)))
	defer span.End()
	return s.inner.LookupProducts(ctx, name)
}

func (s *Service) AllParts(ctx context.Context) ports.View[domain.Part] {
	return s.inner.AllParts(ctx)
}

func (s *Service) AllProducts(ctx context.Context) ports.View[domain.Product] {
	return s.inner.AllProducts(ctx)
}

func (s *Service) UpdatePart(ctx context.Context, id int64, part domain.Part) (domain.Part, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdatePart", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	s.logInfo(ctx, "updating part", slog.Int64("part.id", id))
	result, err := s.inner.UpdatePart(ctx, id, part)
	if err != nil {
		return domain.Part{}, s.handleError(ctx, span, err, "failed to update part", slog.Int64("part.id", id))
	}
	s.logInfo(ctx, "part updated", slog.Int64("part.id", id), slog.String("part.kind", string(result.Kind)))
	return result, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdateProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	s.logInfo(ctx, "updating product", slog.Int64("product.id", id))
	result, err := s.inner.UpdateProduct(ctx, id, product)
	if err != nil {
		return domain.Product{}, s.handleError(ctx, span, err, "failed to update product", slog.Int64("product.id", id))
	}
	s.logInfo(ctx, "product updated", slog.Int64("product.id", id))
	return result, nil
}

func (s *Service) UpdatePartAt(ctx context.Context, index int, part domain.Part) (domain.Part, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdatePartAt", trace.WithAttributes(attribute.Int("inventory.index", index)))
	defer span.End()

	result, err := s.inner.UpdatePartAt(ctx, index, part)
	if err != nil {
		return domain.Part{}, s.handleError(ctx, span, err, "failed to update part at position", slog.Int("inventory.index", index))
	}
	s.logInfo(ctx, "part updated", slog.Int64("part.id", result.ID), slog.Int("inventory.index", index))
	return result, nil
}

func (s *Service) UpdateProductAt(ctx context.Context, index int, product domain.Product) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.UpdateProductAt", trace.WithAttributes(attribute.Int("inventory.index", index)))
	defer span.End()

	result, err := s.inner.UpdateProductAt(ctx, index, product)
	if err != nil {
		return domain.Product{}, s.handleError(ctx, span, err, "failed to update product at position", slog.Int("inventory.index", index))
	}
	s.logInfo(ctx, "product updated", slog.Int64("product.id", result.ID), slog.Int("inventory.index", index))
	return result, nil
}

func (s *Service) DeletePart(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DeletePart", trace.WithAttributes(attribute.Int64("part.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting part", slog.Int64("part.id", id))
	deleted, err := s.inner.DeletePart(ctx, id)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to delete part", slog.Int64("part.id", id))
	}
	if deleted {
		s.metrics.recordDeleted(ctx, ports.RecordKindPart)
	}
	s.logInfo(ctx, "part delete finished", slog.Int64("part.id", id), slog.Bool("deleted", deleted))
	return deleted, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DeleteProduct", trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	s.logInfo(ctx, "deleting product", slog.Int64("product.id", id))
	deleted, err := s.inner.DeleteProduct(ctx, id)
	if err != nil {
		return false, s.handleError(ctx, span, err, "failed to delete product", slog.Int64("product.id", id))
	}
	if deleted {
		s.metrics.recordDeleted(ctx, ports.RecordKindProduct)
	}
	s.logInfo(ctx, "product delete finished", slog.Int64("product.id", id), slog.Bool("deleted", deleted))
	return deleted, nil
}

func (s *Service) AssociatePart(ctx context.Context, productID, partID int64) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.AssociatePart",
		trace.WithAttributes(attribute.Int64("product.id", productID), attribute.Int64("part.id", partID)))
	defer span.End()

	result, err := s.inner.AssociatePart(ctx, productID, partID)
	if err != nil {
		return domain.Product{}, s.handleError(ctx, span, err, "failed to associate part",
			slog.Int64("product.id", productID), slog.Int64("part.id", partID))
	}
	s.logInfo(ctx, "part associated", slog.Int64("product.id", productID), slog.Int64("part.id", partID))
	return result, nil
}

func (s *Service) DissociatePart(ctx context.Context, productID, partID int64) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.DissociatePart",
		trace.WithAttributes(attribute.Int64("product.id", productID), attribute.Int64("part.id", partID)))
	defer span.End()

	result, err := s.inner.DissociatePart(ctx, productID, partID)
	if err != nil {
		return domain.Product{}, s.handleError(ctx, span, err, "failed to dissociate part",
			slog.Int64("product.id", productID), slog.Int64("part.id", partID))
	}
	s.logInfo(ctx, "part dissociated", slog.Int64("product.id", productID), slog.Int64("part.id", partID))
	return result, nil
}

func (s *Service) ProductParts(ctx context.Context, productID int64) ([]domain.Part, error) {
	ctx, span := s.tracer.Start(ctx, "InventoryService.ProductParts", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	parts, err := s.inner.ProductParts(ctx, productID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to resolve product parts", slog.Int64("product.id", productID))
	}
	span.SetAttributes(attribute.Int("product.parts", len(parts)))
	return parts, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()), slog.Bool("retryable", application.IsRetryable(err)))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if application.IsRetryable(err) {
		s.metrics.recordBackendFailure(ctx)
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	recordsAdded    metric.Int64Counter
	recordsDeleted  metric.Int64Counter
	backendFailures metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	added, _ := m.Int64Counter("inventory.service.records_added", metric.WithDescription("Number of parts and products added"))
	deleted, _ := m.Int64Counter("inventory.service.records_deleted", metric.WithDescription("Number of parts and products deleted"))
	failures, _ := m.Int64Counter("inventory.service.backend_failures", metric.WithDescription("Number of operations aborted by a backend failure"))
	return serviceMetrics{recordsAdded: added, recordsDeleted: deleted, backendFailures: failures}
}

func (m serviceMetrics) recordAdded(ctx context.Context, kind ports.RecordKind) {
	if m.recordsAdded != nil {
		m.recordsAdded.Add(ctx, 1, metric.WithAttributes(attribute.String("inventory.kind", string(kind))))
	}
}

func (m serviceMetrics) recordDeleted(ctx context.Context, kind ports.RecordKind) {
	if m.recordsDeleted != nil {
		m.recordsDeleted.Add(ctx, 1, metric.WithAttributes(attribute.String("inventory.kind", string(kind))))
	}
}

func (m serviceMetrics) recordBackendFailure(ctx context.Context) {
	if m.backendFailures != nil {
		m.backendFailures.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
