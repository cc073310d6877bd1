package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuth reports credentials rejected by the login endpoint.
	ErrAuth = errors.New("authentication failed")

	// ErrUnauthorized reports a session that could not be refreshed and was cleared.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated reports an operation that needs an access token while none is stored.
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrStorageKeyNotFound = errors.New("storage key not found")

	errMissingEventName = errors.New("push frame has no event name")
)

// RequestError is a non-2xx response from the API.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func NewRequestError(status int, detail string) *RequestError {
	if detail == "" {
		detail = fmt.Sprintf("API Error: %d", status)
	}
	return &RequestError{Status: status, Message: detail}
}

// StatusOf returns the HTTP status carried by a RequestError in err, or 0.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}
