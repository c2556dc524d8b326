package backend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Kind classifies a backend failure. The transport layer owns the single
// table mapping kinds to client-visible HTTP statuses; everything below the
// edge works in terms of kinds.
type Kind int

const (
	KindBadRequest Kind = iota
	KindAuth
	KindForbidden
	KindNotFound
	KindTooLarge
	KindUnsupportedMedia
	KindUnprocessable
	KindRateLimited
	KindInternal
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindAuth:
		return "auth"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindTooLarge:
		return "too_large"
	case KindUnsupportedMedia:
		return "unsupported_media"
	case KindUnprocessable:
		return "unprocessable"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// Error is a typed backend failure.
type Error struct {
	Kind    Kind
	Message string

	// UpstreamStatus is the raw HTTP status received from the backend,
	// zero for network-level failures.
	UpstreamStatus int
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend %s: %s", e.Kind, e.Message)
}

// NewError constructs a typed backend error.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// mapHTTPError converts a non-2xx backend response into a typed Error,
// pulling a message out of the error envelope when one is present.
func mapHTTPError(resp *http.Response) *Error {
	message := extractErrorMessage(resp.Body)

	var kind Kind
	switch resp.StatusCode {
	case http.StatusBadRequest:
		kind = KindBadRequest
	case http.StatusUnauthorized:
		kind = KindAuth
	case http.StatusForbidden:
		kind = KindForbidden
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusRequestEntityTooLarge:
		kind = KindTooLarge
	case http.StatusUnsupportedMediaType:
		kind = KindUnsupportedMedia
	case http.StatusUnprocessableEntity:
		kind = KindUnprocessable
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	default:
		kind = KindInternal
	}

	if message == "" {
		message = fmt.Sprintf("upstream returned HTTP %d", resp.StatusCode)
	}

	return &Error{Kind: kind, Message: message, UpstreamStatus: resp.StatusCode}
}

// mapNetworkError converts a transport-level failure (connection refused,
// DNS, timeout) into a typed Error.
func mapNetworkError(err error) *Error {
	return &Error{Kind: KindInternal, Message: "backend connection error: " + err.Error()}
}

// extractErrorMessage reads a bounded amount of the response body and tries
// to decode the backend error envelope.
func extractErrorMessage(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var envelope errorResponse
	if err := json.Unmarshal(data, &envelope); err == nil {
		if envelope.Error.Message != "" {
			return envelope.Error.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}

	return ""
}
