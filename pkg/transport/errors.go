package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
)

// apiErrorFrom maps any error onto the client-visible envelope. Backend
// kinds carry their status through this single table; api.APIError values
// pass through unchanged; everything else degrades to a generic 500.
func apiErrorFrom(err error) *api.APIError {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var berr *backend.Error
	if errors.As(err, &berr) {
		switch berr.Kind {
		case backend.KindBadRequest:
			return api.NewValidationError("", berr.Message)
		case backend.KindAuth:
			return api.NewAuthenticationError(berr.Message)
		case backend.KindForbidden:
			return api.NewPermissionDeniedError(berr.Message)
		case backend.KindNotFound:
			return api.NewNotFoundError(berr.Message)
		case backend.KindTooLarge:
			return api.NewPayloadTooLargeError("", berr.Message)
		case backend.KindUnsupportedMedia:
			return api.NewUnsupportedMediaError("", berr.Message)
		case backend.KindUnprocessable:
			return api.NewUnprocessableError("", berr.Message)
		case backend.KindRateLimited:
			return api.NewRateLimitError(berr.Message)
		default:
			return api.NewServerError(berr.Message)
		}
	}

	return api.NewServerError(err.Error())
}

// WriteError writes the JSON error envelope with the status the error maps
// to.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := apiErrorFrom(err)
	writeJSON(w, apiErr.HTTPStatus(), api.ErrorResponse{Error: apiErr})
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
