package rpc

import (
	"context"
	"errors"

	"github.com/spec-kit/user-registry/internal/service"
	apperrors "github.com/spec-kit/user-registry/pkg/util"
)

// MapError translates service failures into the wire error. It is the only
// place user-facing error text for procedures is chosen.
func MapError(err error) *apperrors.DomainError {
	if err == nil {
		return nil
	}

	var (
		validation  *service.ValidationError
		conflict    *service.ConflictError
		unauth      *service.UnauthorizedError
		notFound    *service.NotFoundError
		unavailable *service.StoreUnavailableError
	)
	switch {
	case errors.As(err, &validation):
		return apperrors.NewBadRequest("invalid input", validation.Fields)
	case errors.As(err, &conflict):
		return apperrors.NewConflict(conflict.Message)
	case errors.As(err, &unauth):
		return apperrors.NewUnauthorized(unauth.Message)
	case errors.As(err, &notFound):
		return apperrors.NewNotFound(notFound.Resource)
	case errors.As(err, &unavailable):
		return apperrors.NewUnavailable(err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewUnavailable(err)
	}
	return apperrors.ToDomainError(err)
}
