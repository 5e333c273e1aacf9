package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

var _ ports.Backend = (*Backend)(nil)

// Backend is an in-memory persistence adapter for development and tests.
type Backend struct {
	mu    sync.Mutex
	state *state
}

type state struct {
	parts        map[int64]domain.Part
	products     map[int64]domain.Product
	associations map[int64][]int64
	partOrder    []int64
	productOrder []int64
}

func NewBackend() *Backend {
	return &Backend{state: newState()}
}

func newState() *state {
	return &state{
		parts:        map[int64]domain.Part{},
		products:     map[int64]domain.Product{},
		associations: map[int64][]int64{},
	}
}

func (b *Backend) LoadAllParts(_ context.Context) ([]domain.Part, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.loadParts(), nil
}

func (b *Backend) LoadAllProducts(_ context.Context) ([]domain.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.loadProducts(), nil
}

func (b *Backend) InsertPart(_ context.Context, part domain.Part) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.insertPart(part)
}

func (b *Backend) InsertProduct(_ context.Context, product domain.Product) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.insertProduct(product)
}

func (b *Backend) UpdatePart(_ context.Context, part domain.Part) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.updatePart(part)
}

func (b *Backend) UpdateProduct(_ context.Context, product domain.Product) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.updateProduct(product)
}

func (b *Backend) DeletePart(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.deletePart(id)
}

func (b *Backend) DeleteProduct(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.deleteProduct(id)
}

func (b *Backend) InsertAssociation(_ context.Context, productID, partID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.insertAssociation(productID, partID)
}

func (b *Backend) DeleteAssociationsFor(_ context.Context, productID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.deleteAssociations(productID)
	return nil
}

// Atomic runs fn against a copy of the state and swaps it in only when fn succeeds.
func (b *Backend) Atomic(ctx context.Context, fn func(tx ports.Backend) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	draft := b.state.clone()
	if err := fn(&tx{state: draft}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.state = draft
	return nil
}

// tx operates on a draft state owned by an Atomic call and takes no locks.
type tx struct {
	state *state
}

func (t *tx) LoadAllParts(context.Context) ([]domain.Part, error) { return t.state.loadParts(), nil }

func (t *tx) LoadAllProducts(context.Context) ([]domain.Product, error) {
	return t.state.loadProducts(), nil
}

func (t *tx) InsertPart(_ context.Context, part domain.Part) error { return t.state.insertPart(part) }

func (t *tx) InsertProduct(_ context.Context, product domain.Product) error {
	return t.state.insertProduct(product)
}

func (t *tx) UpdatePart(_ context.Context, part domain.Part) error { return t.state.updatePart(part) }

func (t *tx) UpdateProduct(_ context.Context, product domain.Product) error {
	return t.state.updateProduct(product)
}

func (t *tx) DeletePart(_ context.Context, id int64) error { return t.state.deletePart(id) }

func (t *tx) DeleteProduct(_ context.Context, id int64) error { return t.state.deleteProduct(id) }

func (t *tx) InsertAssociation(_ context.Context, productID, partID int64) error {
	return t.state.insertAssociation(productID, partID)
}

func (t *tx) DeleteAssociationsFor(_ context.Context, productID int64) error {
	t.state.deleteAssociations(productID)
	return nil
}

// Atomic nests by running fn inside the enclosing unit.
func (t *tx) Atomic(_ context.Context, fn func(tx ports.Backend) error) error {
	return fn(t)
}

func (s *state) loadParts() []domain.Part {
	parts := make([]domain.Part, 0, len(s.partOrder))
	for _, id := range s.partOrder {
		parts = append(parts, s.parts[id])
	}
	return parts
}

func (s *state) loadProducts() []domain.Product {
	products := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		product := s.products[id].Clone()
		product.AssociatedPartIDs = slices.Clone(s.associations[id])
		products = append(products, product)
	}
	return products
}

func (s *state) insertPart(part domain.Part) error {
	if _, exists := s.parts[part.ID]; exists {
		return fmt.Errorf("part %d already stored", part.ID)
	}
	s.parts[part.ID] = part
	s.partOrder = append(s.partOrder, part.ID)
	return nil
}

func (s *state) insertProduct(product domain.Product) error {
	if _, exists := s.products[product.ID]; exists {
		return fmt.Errorf("product %d already stored", product.ID)
	}
	product.AssociatedPartIDs = nil
	s.products[product.ID] = product
	s.productOrder = append(s.productOrder, product.ID)
	return nil
}

func (s *state) updatePart(part domain.Part) error {
	if _, exists := s.parts[part.ID]; !exists {
		return fmt.Errorf("%w: part %d", ports.ErrNotFound, part.ID)
	}
	s.parts[part.ID] = part
	return nil
}

func (s *state) updateProduct(product domain.Product) error {
	if _, exists := s.products[product.ID]; !exists {
		return fmt.Errorf("%w: product %d", ports.ErrNotFound, product.ID)
	}
	product.AssociatedPartIDs = nil
	s.products[product.ID] = product
	return nil
}

func (s *state) deletePart(id int64) error {
	if _, exists := s.parts[id]; !exists {
		return fmt.Errorf("%w: part %d", ports.ErrNotFound, id)
	}
	delete(s.parts, id)
	s.partOrder = slices.DeleteFunc(s.partOrder, func(v int64) bool { return v == id })
	return nil
}

func (s *state) deleteProduct(id int64) error {
	if _, exists := s.products[id]; !exists {
		return fmt.Errorf("%w: product %d", ports.ErrNotFound, id)
	}
	delete(s.products, id)
	delete(s.associations, id)
	s.productOrder = slices.DeleteFunc(s.productOrder, func(v int64) bool { return v == id })
	return nil
}

func (s *state) insertAssociation(productID, partID int64) error {
	if _, exists := s.products[productID]; !exists {
		return fmt.Errorf("%w: product %d", ports.ErrNotFound, productID)
	}
	s.associations[productID] = append(s.associations[productID], partID)
	return nil
}

func (s *state) deleteAssociations(productID int64) {
	delete(s.associations, productID)
}

func (s *state) clone() *state {
	out := &state{
		parts:        maps.Clone(s.parts),
		products:     maps.Clone(s.products),
		associations: make(map[int64][]int64, len(s.associations)),
		partOrder:    slices.Clone(s.partOrder),
		productOrder: slices.Clone(s.productOrder),
	}
	for id, partIDs := range s.associations {
		out.associations[id] = slices.Clone(partIDs)
	}
	return out
}
