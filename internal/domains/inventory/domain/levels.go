package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName          = errors.New("name must not be empty")
	ErrNegativePrice      = errors.New("price must not be negative")
	ErrNegativeMin        = errors.New("min must not be negative")
	ErrMinAboveMax        = errors.New("min must not exceed max")
	ErrStockOutOfRange    = errors.New("stock must be between min and max")
	ErrEmptyCompanyName   = errors.New("outsourced part requires a company name")
	ErrUnknownPartKind    = errors.New("part kind is invalid")
	ErrHasAssociatedParts = errors.New("product has associated parts")
)

// Levels holds the shared catalogue attributes of parts and products.
type Levels struct {
	Name  string
	Price decimal.Decimal
	Stock int
	Min   int
	Max   int
}

// Validate enforces 0 <= Min <= Stock <= Max, a non-blank name and a non-negative price.
func (l Levels) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return ErrEmptyName
	}
	if l.Price.IsNegative() {
		return ErrNegativePrice
	}
	if l.Min < 0 {
		return ErrNegativeMin
	}
	if l.Min > l.Max {
		return ErrMinAboveMax
	}
	if l.Stock < l.Min || l.Stock > l.Max {
		return ErrStockOutOfRange
	}
	return nil
}

// MatchesName reports whether query is a case-insensitive substring of name.
// An empty query matches every name.
func MatchesName(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}
