package api

import (
	"context"
	"errors"
	"net/http"

	"drive_router/pkg/input"
	"drive_router/pkg/mapdata"
	"drive_router/pkg/routing"
	"drive_router/pkg/travel"
)

// statusFor maps a pipeline error to an HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, input.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, routing.ErrNoRoute):
		return http.StatusNotFound, "no_route_found"
	case errors.Is(err, routing.ErrDegenerateRoute):
		return http.StatusUnprocessableEntity, "degenerate_route"
	case errors.Is(err, travel.ErrEmptyRoute):
		return http.StatusInternalServerError, "empty_route"
	case errors.Is(err, mapdata.ErrFetch):
		return http.StatusBadGateway, "map_data_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request_timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
