package model

import (
	"fmt"
	"time"
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// RejectReason names why a record was excluded from the canonical set.
type RejectReason string

const (
	ReasonMissingTitle   RejectReason = "missing_title"
	ReasonMissingCompany RejectReason = "missing_company"
)

// RejectError is a MissingMandatoryField failure for a single record.
type RejectError struct {
	Reason RejectReason
	Field  string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("missing mandatory field %q (%s)", e.Field, e.Reason)
}
