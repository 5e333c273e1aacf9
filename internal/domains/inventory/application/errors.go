package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/inventory-service/internal/domains/inventory/domain"
)

var (
	// ErrConstraintViolation signals the request violated a record invariant.
	ErrConstraintViolation = errors.New("inventory constraint violation")
	// ErrHasDependents signals a product cannot be deleted while parts are associated with it.
	ErrHasDependents = fmt.Errorf("%w: product has associated parts", ErrConstraintViolation)
	// ErrBackendUnavailable wraps persistence failures; memory is left unchanged and the call may be retried.
	ErrBackendUnavailable = errors.New("inventory backend unavailable")
	// ErrDuplicateID signals an attempt to add a record under an id that is already taken.
	ErrDuplicateID = errors.New("inventory id already in use")
	// ErrIDMismatch signals an update body carrying a different id than the target.
	ErrIDMismatch = fmt.Errorf("%w: record id does not match target id", ErrConstraintViolation)
	// ErrUnallocatedID signals an explicit id that AllocateID did not hand out or that a create already used.
	ErrUnallocatedID = fmt.Errorf("%w: id was not reserved or is already used", ErrConstraintViolation)
	// ErrIDsExhausted signals the allocator has handed out the largest representable id.
	ErrIDsExhausted = errors.New("inventory id space exhausted")
	// ErrInvalidID signals a negative record id.
	ErrInvalidID = fmt.Errorf("%w: id must not be negative", ErrConstraintViolation)
	// ErrUnknownPart signals a product referencing a part the store does not hold.
	ErrUnknownPart = fmt.Errorf("%w: associated part does not exist", ErrConstraintViolation)
)

// IsRetryable reports whether err is a transient backend failure.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBackendUnavailable)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrHasAssociatedParts) {
		return fmt.Errorf("%w: %w", ErrHasDependents, err)
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrNegativePrice) ||
		errors.Is(err, domain.ErrNegativeMin) ||
		errors.Is(err, domain.ErrMinAboveMax) ||
		errors.Is(err, domain.ErrStockOutOfRange) ||
		errors.Is(err, domain.ErrEmptyCompanyName) ||
		errors.Is(err, domain.ErrUnknownPartKind) {
		return fmt.Errorf("%w: %w", ErrConstraintViolation, err)
	}
	return err
}

func backendError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, op, err)
}
