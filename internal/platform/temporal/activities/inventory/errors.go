package inventory

import (
	"errors"

	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
)

// Application error types carried across the Temporal boundary. Only
// backend failures are retried.
const (
	ErrorTypeBackendUnavailable  = "BackendUnavailable"
	ErrorTypeNotFound            = "NotFound"
	ErrorTypeHasDependents       = "HasDependents"
	ErrorTypeConstraint          = "ConstraintViolation"
	ErrorTypeIdempotencyConflict = "IdempotencyConflict"
	ErrorTypeDuplicateID         = "DuplicateID"
	ErrorTypeIDsExhausted        = "IDsExhausted"
)

var errorTypes = []struct {
	name     string
	sentinel error
}{
	{ErrorTypeBackendUnavailable, application.ErrBackendUnavailable},
	{ErrorTypeNotFound, ports.ErrNotFound},
	{ErrorTypeHasDependents, application.ErrHasDependents},
	{ErrorTypeConstraint, application.ErrConstraintViolation},
	{ErrorTypeIdempotencyConflict, ports.ErrIdempotencyConflict},
	{ErrorTypeDuplicateID, application.ErrDuplicateID},
	{ErrorTypeIDsExhausted, application.ErrIDsExhausted},
}

// ToApplicationError tags err with its inventory error type so workflows can
// decide whether to retry.
func ToApplicationError(err error) error {
	if err == nil {
		return nil
	}
	for _, t := range errorTypes {
		if !errors.Is(err, t.sentinel) {
			continue
		}
		if t.name == ErrorTypeBackendUnavailable {
			return temporal.NewApplicationErrorWithCause(err.Error(), t.name, err)
		}
		return temporal.NewNonRetryableApplicationError(err.Error(), t.name, err)
	}
	return err
}

// FromApplicationError restores the inventory sentinel behind a workflow or
// activity failure so callers can match it with errors.Is.
func FromApplicationError(err error) error {
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return err
	}
	for _, t := range errorTypes {
		if appErr.Type() == t.name {
			return &restoredError{sentinel: t.sentinel, message: appErr.Error()}
		}
	}
	return err
}

type restoredError struct {
	sentinel error
	message  string
}

func (e *restoredError) Error() string { return e.message }

func (e *restoredError) Unwrap() error { return e.sentinel }
