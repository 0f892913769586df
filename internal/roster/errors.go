package roster

import (
	"errors"
	"fmt"
)

var (
	// ErrParseMiss marks a page whose expected structural element is absent. It is an
	// empty-result condition, not a failure.
	ErrParseMiss = errors.New("expected page structure not found")
	// ErrConstraintViolation is returned when the store rejects a duplicate row.
	ErrConstraintViolation = errors.New("unique constraint violation")
	// ErrStoreUnavailable signals the store connection is gone; it ends the run.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FetchFailure reports a non-2xx HTTP response.
type FetchFailure struct {
	URL    string
	Status int
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// NetworkFailure reports a transport-level fault such as a timeout, reset, or DNS failure.
type NetworkFailure struct {
	URL   string
	Cause error
}

func (e *NetworkFailure) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *NetworkFailure) Unwrap() error {
	return e.Cause
}

// IsFatal reports whether err should end a crawl run rather than skip the current item.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
