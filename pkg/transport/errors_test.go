package transport

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chatbridge-dev/chatbridge/pkg/api"
	"github.com/chatbridge-dev/chatbridge/pkg/backend"
)

func TestAPIErrorFromBackendKinds(t *testing.T) {
	tests := []struct {
		kind       backend.Kind
		wantStatus int
		wantType   api.ErrorType
	}{
		{backend.KindBadRequest, http.StatusBadRequest, api.ErrorTypeInvalidRequest},
		{backend.KindAuth, http.StatusUnauthorized, api.ErrorTypeAuthentication},
		{backend.KindForbidden, http.StatusForbidden, api.ErrorTypePermissionDenied},
		{backend.KindNotFound, http.StatusNotFound, api.ErrorTypeNotFound},
		{backend.KindTooLarge, http.StatusRequestEntityTooLarge, api.ErrorTypeInvalidRequest},
		{backend.KindUnsupportedMedia, http.StatusUnsupportedMediaType, api.ErrorTypeInvalidRequest},
		{backend.KindUnprocessable, http.StatusUnprocessableEntity, api.ErrorTypeInvalidRequest},
		{backend.KindRateLimited, http.StatusTooManyRequests, api.ErrorTypeRateLimit},
		{backend.KindInternal, http.StatusInternalServerError, api.ErrorTypeServer},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			apiErr := apiErrorFrom(backend.NewError(tt.kind, "boom"))
			if apiErr.HTTPStatus() != tt.wantStatus {
				t.Errorf("status = %d, want %d", apiErr.HTTPStatus(), tt.wantStatus)
			}
			if apiErr.Type != tt.wantType {
				t.Errorf("type = %q, want %q", apiErr.Type, tt.wantType)
			}
			if apiErr.Message != "boom" {
				t.Errorf("message = %q", apiErr.Message)
			}
		})
	}
}

func TestAPIErrorPassthrough(t *testing.T) {
	original := api.NewNotFoundError("no such model")
	if got := apiErrorFrom(original); got != original {
		t.Errorf("APIError must pass through unchanged, got %+v", got)
	}
}

func TestAPIErrorFromGeneric(t *testing.T) {
	apiErr := apiErrorFrom(errors.New("wires crossed"))
	if apiErr.HTTPStatus() != http.StatusInternalServerError || apiErr.Type != api.ErrorTypeServer {
		t.Errorf("generic error = %+v", apiErr)
	}
}

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, backend.NewError(backend.KindRateLimited, "slow down"))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	var envelope api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Error == nil || envelope.Error.Message != "slow down" {
		t.Errorf("envelope = %+v", envelope)
	}
}
