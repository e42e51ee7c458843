package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the request/response boundary. Handlers map these to
// HTTP statuses; everything else is treated as a 400-class failure.
var (
	ErrNotFound        = errors.New("record not found")
	ErrShowUnavailable = errors.New("show is not available")
	ErrForbidden       = errors.New("forbidden")
)

// UpstreamProviderError carries the payment provider's own error detail so
// operators can debug declined requests without exposing it to browsers.
type UpstreamProviderError struct {
	Detail string
}

func (e *UpstreamProviderError) Error() string {
	return fmt.Sprintf("payment provider error: %s", e.Detail)
}

// PersistenceError marks a database write failure on the critical path. When
// the failed write is the checkout-id back-fill, the payment record is
// permanently orphaned and the error is alert-worthy, not retryable.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %s", e.Op, e.Err.Error())
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
