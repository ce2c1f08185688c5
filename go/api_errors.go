package herdbookserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	logsapp "github.com/Apurer/herdbook-api/internal/domains/logs/application"
	logsports "github.com/Apurer/herdbook-api/internal/domains/logs/ports"
	regapp "github.com/Apurer/herdbook-api/internal/domains/registrations/application"
	regports "github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	apierrors "github.com/Apurer/herdbook-api/internal/shared/errors"
)

// responder maps every context's sentinel errors to Problem Details.
var responder = apierrors.DefaultResponder.With(mapRegistrationError, mapLogError)

// respondProblem maps a ProblemDetail through the shared responder.
func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	responder.Respond(c, problem)
}

// respondError answers transport level failures such as unreadable bodies.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	var problem apierrors.ProblemDetail
	switch status {
	case http.StatusBadRequest:
		problem = apierrors.ErrBadRequest.WithDetail(err.Error())
	case http.StatusNotFound:
		problem = apierrors.ErrNotFound.WithDetail(err.Error())
	case http.StatusUnauthorized:
		problem = apierrors.ErrUnauthorized.WithDetail(err.Error())
	default:
		problem = apierrors.ErrInternal.WithDetail(err.Error())
	}
	respondProblem(c, problem)
}

// respondServiceError maps application errors through the registered mappers.
func respondServiceError(c *gin.Context, err error) {
	responder.RespondError(c, err)
}

func mapRegistrationError(err error) (apierrors.ProblemDetail, bool) {
	var draftErr *regapp.DraftValidationError
	switch {
	case errors.As(err, &draftErr):
		return apierrors.NewValidationProblem(map[string]string(draftErr.Fields)).WithDetail(err.Error()), true
	case errors.Is(err, regports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, regapp.ErrLocationUnavailable):
		return apierrors.ErrLocationUnavailable.WithDetail(err.Error()), true
	case errors.Is(err, regapp.ErrBusy):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, regapp.ErrMissingMuzzleVideo):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, regapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	case errors.Is(err, regports.ErrMuzzleNoMatch):
		return apierrors.ErrNoMatch.WithDetail(err.Error()), true
	case errors.Is(err, regports.ErrMuzzleUnauthorized):
		return apierrors.ErrUpstream.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}

func mapLogError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, logsports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()), true
	case errors.Is(err, logsports.ErrIdempotencyConflict):
		return apierrors.ErrConflict.WithDetail(err.Error()), true
	case errors.Is(err, logsapp.ErrInvalidInput):
		return apierrors.ErrValidation.WithDetail(err.Error()), true
	}
	return apierrors.ProblemDetail{}, false
}
