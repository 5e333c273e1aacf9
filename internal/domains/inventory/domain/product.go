package domain

import "slices"

// Product is a sellable assembly. AssociatedPartIDs are non-owning references
// kept in association order; the same part may appear more than once.
type Product struct {
	ID int64
	Levels
	AssociatedPartIDs []int64
}

// NewProduct validates and constructs a Product.
func NewProduct(id int64, levels Levels, partIDs ...int64) (*Product, error) {
	product := &Product{ID: id, Levels: levels, AssociatedPartIDs: slices.Clone(partIDs)}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	return product, nil
}

// Validate enforces the stock-level invariants.
func (p *Product) Validate() error {
	return p.Levels.Validate()
}

// AssociatePart appends a reference to partID.
func (p *Product) AssociatePart(partID int64) {
	p.AssociatedPartIDs = append(p.AssociatedPartIDs, partID)
}

// DissociatePart removes the first reference to partID and reports whether one existed.
func (p *Product) DissociatePart(partID int64) bool {
	idx := slices.Index(p.AssociatedPartIDs, partID)
	if idx < 0 {
		return false
	}
	p.AssociatedPartIDs = slices.Delete(p.AssociatedPartIDs, idx, idx+1)
	return true
}

func (p *Product) HasAssociatedParts() bool {
	return len(p.AssociatedPartIDs) > 0
}

// CheckDeletable fails when parts still reference the product.
func (p *Product) CheckDeletable() error {
	if p.HasAssociatedParts() {
		return ErrHasAssociatedParts
	}
	return nil
}

// Clone returns a copy that shares no slices with p.
func (p Product) Clone() Product {
	p.AssociatedPartIDs = slices.Clone(p.AssociatedPartIDs)
	return p
}

// RecordID returns the product identifier.
func (p Product) RecordID() int64 { return p.ID }

// RecordName returns the product name.
func (p Product) RecordName() string { return p.Name }
