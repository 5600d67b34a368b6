package http

import (
	"errors"
	"net/http"

	fleet "fleetwatch/internal/fleet/domain"
)

// StatusOf maps fleet domain errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, fleet.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, fleet.ErrInvalid):
		return http.StatusBadRequest
	}
	return 0
}
