package application

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

// DefaultBackendTimeout bounds every backend call issued by the store.
const DefaultBackendTimeout = 5 * time.Second

var _ ports.Service = (*Store)(nil)

// Store owns the authoritative part and product collections. Mutations hold
// the write lock across the backend call and only touch memory once the
// backend has acknowledged the write.
type Store struct {
	mu       sync.RWMutex
	backend  ports.Backend
	parts    collection[domain.Part]
	products collection[domain.Product]
	ids      *allocator
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithBackendTimeout overrides DefaultBackendTimeout.
func WithBackendTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithFirstID sets the first id a fresh store allocates.
func WithFirstID(id int64) Option {
	return func(s *Store) {
		s.ids = newAllocator(id)
	}
}

// WithLogger sets the logger used for programming errors such as duplicate ids.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore wires an empty store to its backend. Call Load to prime it.
func NewStore(backend ports.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		ids:     newAllocator(FirstID),
		timeout: DefaultBackendTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory collections with the backend contents and moves
// the allocator past every loaded id.
func (s *Store) Load(ctx context.Context) error {
	var (
		parts    []domain.Part
		products []domain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.persist(gctx, "load parts", func(ctx context.Context) (err error) {
			parts, err = s.backend.LoadAllParts(ctx)
			return err
		})
	})
	g.Go(func() error {
		return s.persist(gctx, "load products", func(ctx context.Context) (err error) {
			products, err = s.backend.LoadAllProducts(ctx)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return err
	}

	seen := make(map[int64]struct{}, len(parts)+len(products))
	for _, id := range recordIDs(parts, products) {
		if _, dup := seen[id]; dup {
			s.logger.Error("backend returned duplicate inventory id", slog.Int64("id", id))
			return fmt.Errorf("%w: %d", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range products {
		products[i] = products[i].Clone()
	}
	s.parts.reset(parts)
	s.products.reset(products)
	for id := range seen {
		s.ids.observe(id)
	}
	return nil
}

// AllocateID reserves the next unused id. A create may carry it explicitly
// exactly once.
func (s *Store) AllocateID(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids.reserve()
}

// AddPart stores a new part, allocating an id when part.ID is zero. A non-zero
// id must come from AllocateID.
func (s *Store) AddPart(ctx context.Context, part domain.Part) (domain.Part, error) {
	part.Normalize()
	if err := part.Validate(); err != nil {
		return domain.Part{}, mapError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.claimID(part.ID)
	if err != nil {
		return domain.Part{}, err
	}
	explicit := part.ID
	part.ID = id
	if err := s.persist(ctx, "insert part", func(ctx context.Context) error {
		return s.backend.InsertPart(ctx, part)
	}); err != nil {
		s.unclaimID(explicit)
		return domain.Part{}, err
	}
	s.parts.insert(part)
	return part, nil
}

// AddProduct stores a new product together with its part associations.
func (s *Store) AddProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	product = product.Clone()
	if err := product.Validate(); err != nil {
		return domain.Product{}, mapError(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPartRefs(product.AssociatedPartIDs, nil); err != nil {
		return domain.Product{}, err
	}
	id, err := s.claimID(product.ID)
	if err != nil {
		return domain.Product{}, err
	}
	explicit := product.ID
	product.ID = id
	if err := s.persist(ctx, "insert product", func(ctx context.Context) error {
		return s.backend.Atomic(ctx, func(tx ports.Backend) error {
			if err := tx.InsertProduct(ctx, product); err != nil {
				return err
			}
			return insertAssociations(ctx, tx, product)
		})
	}); err != nil {
		s.unclaimID(explicit)
		return domain.Product{}, err
	}
	s.products.insert(product)
	return product.Clone(), nil
}

// LookupPart finds a part by id.
func (s *Store) LookupPart(_ context.Context, id int64) (domain.Part, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parts.get(id)
}

// LookupProduct finds a product by id.
func (s *Store) LookupProduct(_ context.Context, id int64) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products.get(id)
	if !ok {
		return domain.Product{}, false
	}
	return product.Clone(), true
}

// LookupParts returns a live view of parts whose name contains name, ignoring case.
func (s *Store) LookupParts(_ context.Context, name string) ports.View[domain.Part] {
	return nameView[domain.Part]{query: name, read: s.readParts}
}

// LookupProducts returns a live view of products whose name contains name, ignoring case.
func (s *Store) LookupProducts(_ context.Context, name string) ports.View[domain.Product] {
	return nameView[domain.Product]{query: name, read: s.readProducts}
}

// AllParts returns a live view of every part in insertion order.
func (s *Store) AllParts(ctx context.Context) ports.View[domain.Part] {
	return s.LookupParts(ctx, "")
}

// AllProducts returns a live view of every product in insertion order.
func (s *Store) AllProducts(ctx context.Context) ports.View[domain.Product] {
	return s.LookupProducts(ctx, "")
}

// UpdatePart replaces the part stored under id. The part kind may change.
func (s *Store) UpdatePart(ctx context.Context, id int64, part domain.Part) (domain.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatePart(ctx, id, part)
}

// UpdatePartAt replaces the part at position index of insertion order.
func (s *Store) UpdatePartAt(ctx context.Context, index int, part domain.Part) (domain.Part, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.parts.at(index)
	if !ok {
		return domain.Part{}, fmt.Errorf("%w: part position %d", ports.ErrNotFound, index)
	}
	return s.updatePart(ctx, current.ID, part)
}

// UpdateProduct replaces the product stored under id, rewriting its associations.
func (s *Store) UpdateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateProduct(ctx, id, product)
}

// UpdateProductAt replaces the product at position index of insertion order.
func (s *Store) UpdateProductAt(ctx context.Context, index int, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.products.at(index)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product position %d", ports.ErrNotFound, index)
	}
	return s.updateProduct(ctx, current.ID, product)
}

// DeletePart removes a part. Products keep any reference to it.
func (s *Store) DeletePart(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.parts.contains(id) {
		return false, nil
	}
	if err := s.persist(ctx, "delete part", func(ctx context.Context) error {
		return s.backend.DeletePart(ctx, id)
	}); err != nil {
		return false, err
	}
	return s.parts.remove(id), nil
}

// DeleteProduct removes a product that has no associated parts.
func (s *Store) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products.get(id)
	if !ok {
		return false, nil
	}
	if err := product.CheckDeletable(); err != nil {
		return false, mapError(err)
	}
	if err := s.persist(ctx, "delete product", func(ctx context.Context) error {
		return s.backend.Atomic(ctx, func(tx ports.Backend) error {
			if err := tx.DeleteAssociationsFor(ctx, id); err != nil {
				return err
			}
			return tx.DeleteProduct(ctx, id)
		})
	}); err != nil {
		return false, err
	}
	return s.products.remove(id), nil
}

// AssociatePart appends partID to the product's associated parts.
func (s *Store) AssociatePart(ctx context.Context, productID, partID int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products.get(productID)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %d", ports.ErrNotFound, productID)
	}
	if !s.parts.contains(partID) {
		return domain.Product{}, fmt.Errorf("%w: part %d", ports.ErrNotFound, partID)
	}
	updated := product.Clone()
	updated.AssociatePart(partID)
	if err := s.persist(ctx, "insert association", func(ctx context.Context) error {
		return s.backend.InsertAssociation(ctx, productID, partID)
	}); err != nil {
		return domain.Product{}, err
	}
	s.products.replace(updated)
	return updated.Clone(), nil
}

// DissociatePart removes the first association of partID from the product.
func (s *Store) DissociatePart(ctx context.Context, productID, partID int64) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products.get(productID)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %d", ports.ErrNotFound, productID)
	}
	updated := product.Clone()
	if !updated.DissociatePart(partID) {
		return domain.Product{}, fmt.Errorf("%w: part %d is not associated with product %d", ports.ErrNotFound, partID, productID)
	}
	if err := s.persist(ctx, "rewrite associations", func(ctx context.Context) error {
		return s.backend.Atomic(ctx, func(tx ports.Backend) error {
			return rewriteAssociations(ctx, tx, updated)
		})
	}); err != nil {
		return domain.Product{}, err
	}
	s.products.replace(updated)
	return updated.Clone(), nil
}

// ProductParts resolves the product's associations in order, skipping
// references to parts that have since been deleted.
func (s *Store) ProductParts(_ context.Context, productID int64) ([]domain.Part, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	product, ok := s.products.get(productID)
	if !ok {
		return nil, fmt.Errorf("%w: product %d", ports.ErrNotFound, productID)
	}
	parts := make([]domain.Part, 0, len(product.AssociatedPartIDs))
	for _, id := range product.AssociatedPartIDs {
		if part, ok := s.parts.get(id); ok {
			parts = append(parts, part)
		}
	}
	return parts, nil
}

func (s *Store) updatePart(ctx context.Context, id int64, part domain.Part) (domain.Part, error) {
	if part.ID != 0 && part.ID != id {
		return domain.Part{}, ErrIDMismatch
	}
	part.ID = id
	part.Normalize()
	if err := part.Validate(); err != nil {
		return domain.Part{}, mapError(err)
	}
	if !s.parts.contains(id) {
		return domain.Part{}, fmt.Errorf("%w: part %d", ports.ErrNotFound, id)
	}
	if err := s.persist(ctx, "update part", func(ctx context.Context) error {
		return s.backend.UpdatePart(ctx, part)
	}); err != nil {
		return domain.Part{}, err
	}
	s.parts.replace(part)
	return part, nil
}

func (s *Store) updateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error) {
	if product.ID != 0 && product.ID != id {
		return domain.Product{}, ErrIDMismatch
	}
	product = product.Clone()
	product.ID = id
	if err := product.Validate(); err != nil {
		return domain.Product{}, mapError(err)
	}
	current, ok := s.products.get(id)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %d", ports.ErrNotFound, id)
	}
	if err := s.checkPartRefs(product.AssociatedPartIDs, current.AssociatedPartIDs); err != nil {
		return domain.Product{}, err
	}
	if err := s.persist(ctx, "update product", func(ctx context.Context) error {
		return s.backend.Atomic(ctx, func(tx ports.Backend) error {
			if err := tx.UpdateProduct(ctx, product); err != nil {
				return err
			}
			return rewriteAssociations(ctx, tx, product)
		})
	}); err != nil {
		return domain.Product{}, err
	}
	s.products.replace(product)
	return product.Clone(), nil
}

// claimID allocates an id for zero or redeems an explicit id reserved through
// AllocateID. Must be called with the write lock held.
func (s *Store) claimID(id int64) (int64, error) {
	switch {
	case id < 0:
		return 0, ErrInvalidID
	case id == 0:
		return s.ids.allocate()
	}
	if !s.ids.redeem(id) {
		return 0, fmt.Errorf("%w: %d", ErrUnallocatedID, id)
	}
	if s.parts.contains(id) || s.products.contains(id) {
		s.logger.Error("inventory id already in use", slog.Int64("id", id))
		return 0, fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	return id, nil
}

// unclaimID returns an explicit id to its reservation after a failed insert.
// Allocated ids stay burnt.
func (s *Store) unclaimID(explicit int64) {
	if explicit > 0 {
		s.ids.release(explicit)
	}
}

// checkPartRefs rejects references to unknown parts, tolerating ones the
// product already carried.
func (s *Store) checkPartRefs(ids, existing []int64) error {
	for _, id := range ids {
		if s.parts.contains(id) || slices.Contains(existing, id) {
			continue
		}
		return fmt.Errorf("%w: part %d", ErrUnknownPart, id)
	}
	return nil
}

func (s *Store) persist(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return backendError(op, err)
	}
	return nil
}

func (s *Store) readParts(query string) []domain.Part {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.parts.filter(func(name string) bool { return domain.MatchesName(name, query) })
}

func (s *Store) readProducts(query string) []domain.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	products := s.products.filter(func(name string) bool { return domain.MatchesName(name, query) })
	for i := range products {
		products[i] = products[i].Clone()
	}
	return products
}

func insertAssociations(ctx context.Context, tx ports.Backend, product domain.Product) error {
	for _, partID := range product.AssociatedPartIDs {
		if err := tx.InsertAssociation(ctx, product.ID, partID); err != nil {
			return err
		}
	}
	return nil
}

func rewriteAssociations(ctx context.Context, tx ports.Backend, product domain.Product) error {
	if err := tx.DeleteAssociationsFor(ctx, product.ID); err != nil {
		return err
	}
	return insertAssociations(ctx, tx, product)
}

func recordIDs(parts []domain.Part, products []domain.Product) []int64 {
	ids := make([]int64, 0, len(parts)+len(products))
	for _, part := range parts {
		ids = append(ids, part.ID)
	}
	for _, product := range products {
		ids = append(ids, product.ID)
	}
	return ids
}
