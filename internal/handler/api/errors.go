package api

import (
	"context"
	"errors"
	"strings"

	"NatalChart/internal/domain/models"
	domrepo "NatalChart/internal/domain/repository"
	xhttp "NatalChart/pkg/http"
)

// toAppError maps service errors onto the HTTP error envelope.
func toAppError(err error) *xhttp.AppError {
	var ce *models.ChartError
	switch {
	case errors.Is(err, domrepo.ErrChartNotFound):
		return xhttp.NotFoundError("chart not found").WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.ServiceUnavailableError("chart computation timed out").WithError(err)
	case errors.As(err, &ce) && errors.Is(err, models.ErrInvalidHouseGeometry):
		return xhttp.InternalError("invalid house geometry").
			WithParam("stage", string(ce.Stage)).
			WithError(err)
	case errors.As(err, &ce):
		appErr := xhttp.UnprocessableError("ERR_"+strings.ToUpper(models.ErrorKind(err)), ce.Error()).
			WithParam("stage", string(ce.Stage))
		if ce.Body != "" {
			appErr = appErr.WithParam("body", string(ce.Body))
		}
		return appErr
	default:
		return xhttp.InternalError("chart computation failed").WithError(err)
	}
}
