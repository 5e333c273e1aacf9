package mapper

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

var errMissingPrice = errors.New("price is required")

// PartMutation captures inbound part payloads for create and update flows.
type PartMutation struct {
	ID          int64            `json:"id,omitempty"`
	Name        string           `json:"name"`
	Price       *decimal.Decimal `json:"price"`
	Stock       int              `json:"stock"`
	Min         int              `json:"min"`
	Max         int              `json:"max"`
	Kind        string           `json:"kind"`
	MachineID   int64            `json:"machineId,omitempty"`
	CompanyName string           `json:"companyName,omitempty"`
}

// Part is the HTTP representation of a stocked part.
type Part struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Min         int             `json:"min"`
	Max         int             `json:"max"`
	Kind        string          `json:"kind"`
	MachineID   *int64          `json:"machineId,omitempty"`
	CompanyName *string         `json:"companyName,omitempty"`
}

// ToDomainPart maps a transport payload into a part. Record invariants are
// left to the service so every entry point reports them the same way.
func ToDomainPart(input PartMutation) (domain.Part, error) {
	if input.Price == nil {
		return domain.Part{}, errMissingPrice
	}
	return domain.Part{
		ID: input.ID,
		Levels: domain.Levels{
			Name:  input.Name,
			Price: *input.Price,
			Stock: input.Stock,
			Min:   input.Min,
			Max:   input.Max,
		},
		Kind:        domain.PartKind(input.Kind),
		MachineID:   input.MachineID,
		CompanyName: input.CompanyName,
	}, nil
}

// FromDomainPart renders a part, emitting only the payload of its variant.
func FromDomainPart(part domain.Part) Part {
	out := Part{
		ID:    part.ID,
		Name:  part.Name,
		Price: part.Price,
		Stock: part.Stock,
		Min:   part.Min,
		Max:   part.Max,
		Kind:  string(part.Kind),
	}
	switch part.Kind {
	case domain.KindInHouse:
		machineID := part.MachineID
		out.MachineID = &machineID
	case domain.KindOutsourced:
		company := part.CompanyName
		out.CompanyName = &company
	}
	return out
}

// FromDomainParts renders parts in order.
func FromDomainParts(parts []domain.Part) []Part {
	out := make([]Part, 0, len(parts))
	for _, part := range parts {
		out = append(out, FromDomainPart(part))
	}
	return out
}
