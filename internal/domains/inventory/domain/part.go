package domain

import "strings"

// PartKind tags which variant of Part a record carries.
type PartKind string

const (
	KindInHouse    PartKind = "in-house"
	KindOutsourced PartKind = "outsourced"
)

// Part is a stocked component. Exactly one of MachineID or CompanyName is
// meaningful, selected by Kind.
type Part struct {
	ID int64
	Levels
	Kind        PartKind
	MachineID   int64
	CompanyName string
}

// NewInHousePart builds a part manufactured on the given machine.
func NewInHousePart(id int64, levels Levels, machineID int64) (*Part, error) {
	part := &Part{ID: id, Levels: levels, Kind: KindInHouse, MachineID: machineID}
	if err := part.Validate(); err != nil {
		return nil, err
	}
	return part, nil
}

// NewOutsourcedPart builds a part supplied by companyName.
func NewOutsourcedPart(id int64, levels Levels, companyName string) (*Part, error) {
	part := &Part{ID: id, Levels: levels, Kind: KindOutsourced, CompanyName: companyName}
	if err := part.Validate(); err != nil {
		return nil, err
	}
	return part, nil
}

// Validate checks stock levels and the variant payload.
func (p *Part) Validate() error {
	if err := p.Levels.Validate(); err != nil {
		return err
	}
	switch p.Kind {
	case KindInHouse:
		return nil
	case KindOutsourced:
		if strings.TrimSpace(p.CompanyName) == "" {
			return ErrEmptyCompanyName
		}
		return nil
	default:
		return ErrUnknownPartKind
	}
}

// Normalize clears the payload of the variant the part does not carry.
func (p *Part) Normalize() {
	switch p.Kind {
	case KindInHouse:
		p.CompanyName = ""
	case KindOutsourced:
		p.MachineID = 0
	}
}

// RecordID returns the part identifier.
func (p Part) RecordID() int64 { return p.ID }

// RecordName returns the part name.
func (p Part) RecordName() string { return p.Name }
