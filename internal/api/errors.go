package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork wraps transport failures: DNS, refused connections,
	// interrupted bodies. The caller sees one attempt; there are no
	// retries at this layer.
	ErrNetwork = errors.New("network error")

	// ErrUnauthorized marks a 401 from any endpoint. By the time the
	// caller sees it the unauthorized hook has already fired and the
	// session is gone.
	ErrUnauthorized = errors.New("authorization expired")
)

// APIError is any non-2xx response, carrying the server-supplied message
// when one was present in the body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// errorBody is the shape remote error responses come in; details takes
// precedence over message when both are set.
type errorBody struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Error   string `json:"error"`
}

func (b errorBody) text() string {
	switch {
	case b.Details != "":
		return b.Details
	case b.Message != "":
		return b.Message
	default:
		return b.Error
	}
}
