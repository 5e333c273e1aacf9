package application

import (
	"iter"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

var (
	_ ports.View[domain.Part]    = nameView[domain.Part]{}
	_ ports.View[domain.Product] = nameView[domain.Product]{}
)

// nameView re-runs its query against the store on every read, so a view kept
// by a caller reflects later adds, updates and deletes.
type nameView[T any] struct {
	query string
	read  func(query string) []T
}

func (v nameView[T]) Query() string { return v.query }

func (v nameView[T]) Items() []T { return v.read(v.query) }

func (v nameView[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range v.read(v.query) {
			if !yield(item) {
				return
			}
		}
	}
}

func (v nameView[T]) Len() int { return len(v.read(v.query)) }
