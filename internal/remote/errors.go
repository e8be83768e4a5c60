package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteCall covers transport failures and non-2xx responses.
	ErrRemoteCall = errors.New("remote call failed")
	// ErrResponseShape means the service answered 2xx with a body that is not an item list.
	ErrResponseShape = errors.New("unexpected response shape")
)

// StatusError is returned for a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote call failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote call failed: status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error { return ErrRemoteCall }
