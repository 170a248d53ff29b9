package scans

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind enumerates how a backend failure is surfaced.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindUnauthorized
	KindRateLimited
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRateLimited:
		return "rate_limited"
	case KindNotFound:
		return "not_found"
	default:
		return "other"
	}
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrNotFound     = errors.New("scan not found")
)

// APIError is returned by the backend client for every non-2xx response.
type APIError struct {
	Kind   ErrorKind
	Status int
	Detail string
}

// NewAPIError classifies a backend status code.
func NewAPIError(status int, detail string) *APIError {
	kind := KindOther
	switch status {
	case http.StatusUnauthorized:
		kind = KindUnauthorized
	case http.StatusTooManyRequests:
		kind = KindRateLimited
	case http.StatusNotFound:
		kind = KindNotFound
	}
	return &APIError{Kind: kind, Status: status, Detail: detail}
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend %s (status %d): %s", e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("backend %s (status %d)", e.Kind, e.Status)
}

// Is lets callers match with the sentinel errors above.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrRateLimited:
		return e.Kind == KindRateLimited
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

// KindOf extracts the ErrorKind of err, KindOther when err is not classified.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	}
	return KindOther
}

// DetailOf returns the server-provided detail text, if any.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}
