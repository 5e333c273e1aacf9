package inventoryserver

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/inventory-service/internal/domains/inventory/application"
	"github.com/Apurer/inventory-service/internal/domains/inventory/ports"
	apierrors "github.com/Apurer/inventory-service/internal/shared/errors"
)

var responder = apierrors.NewResponder("", mapInventoryError)

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

func respondBadRequest(c *gin.Context, err error) {
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

func respondServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}

// mapInventoryError classifies application errors. Order matters:
// ErrHasDependents wraps ErrConstraintViolation.
func mapInventoryError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, application.ErrBackendUnavailable):
		return apierrors.ErrUnavailable.WithDetail(err.Error()).Retryable(true), true
	case errors.Is(err, ports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrHasDependents):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, ports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()).WithExtension("reason", "idempotency-key-reused"), true
	case errors.Is(err, application.ErrConstraintViolation):
		return apierrors.ErrUnprocessable.WithDetail(err.Error()), true
	case errors.Is(err, application.ErrDuplicateID), errors.Is(err, application.ErrIDsExhausted):
		return apierrors.ErrInternal.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func respondNotFound(c *gin.Context, resource string, id int64) {
	respondProblem(c, apierrors.NewNotFoundProblem(resource, id))
}
