package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"overyonder.app/internal/geocode"
	"overyonder.app/internal/logging"
	"overyonder.app/internal/models"
	"overyonder.app/internal/session"
)

// invalidAPIKeyResponse sends a 401 Unauthorized response
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.errorResponse(w, r, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request failed", err)
	api.errorResponse(w, r, http.StatusInternalServerError, "internal server error")
}

// errorResponse writes the standard envelope with no data.
func (api *RestAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, text string) {
	setJSONResponseType(&w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(models.NewResponse(status, nil, text)); err != nil {
		api.Logger.Error("failed to encode error response", "error", err)
	}
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)
	err := json.NewEncoder(w).Encode(response)
	if err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// sessionErrorResponse maps session errors to HTTP statuses.
func (api *RestAPI) sessionErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		api.sendNotFound(w, r)
	case errors.Is(err, session.ErrNoPosition):
		api.errorResponse(w, r, http.StatusConflict, "Location not available")
	case errors.Is(err, session.ErrHeadingNotLocked):
		api.errorResponse(w, r, http.StatusConflict, "Please lock a heading first")
	case errors.Is(err, session.ErrInvalidIncrement):
		api.validationErrorResponse(w, r, map[string][]string{"incrementKm": {err.Error()}})
	default:
		api.serverErrorResponse(w, r, err)
	}
}

// oracleErrorResponse reports a failed lookup against the location service.
func (api *RestAPI) oracleErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		return
	}
	logging.LogError(logging.FromContext(r.Context()), "location lookup failed", err,
		slog.String("kind", geocode.KindOf(err).String()))
	status := http.StatusBadGateway
	if geocode.KindOf(err) == geocode.KindRateLimited {
		status = http.StatusServiceUnavailable
	}
	api.errorResponse(w, r, status, "location service unavailable")
}
