package datagov

import (
	"fmt"
	"strings"
)

// ErrorKind classifies fetch failures.
type ErrorKind string

const (
	// ErrTimeout means the upstream did not answer within the request
	// timeout, across all allowed retry attempts.
	ErrTimeout ErrorKind = "Timeout"

	// ErrHTTP means the upstream answered with an unexpected status.
	ErrHTTP ErrorKind = "HttpError"

	// ErrMalformed means the response body did not match the documented
	// result/records shape.
	ErrMalformed ErrorKind = "Malformed"

	// ErrPageSizeExceeded means the upstream rejected even the minimum
	// allowed page size as too large.
	ErrPageSizeExceeded ErrorKind = "PageSizeExceeded"
)

// FetchError is a classified failure from the paginated fetcher.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int
	Offset     int
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "datagov fetch error"
	}
	parts := []string{fmt.Sprintf("datagov fetch error: kind=%s offset=%d", e.Kind, e.Offset)}
	if e.StatusCode != 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, " ")
}

func (e *FetchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
