package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go"
)

// ErrorClass groups completion failures by what the caller can do about them.
type ErrorClass string

const (
	ClassRateLimited  ErrorClass = "rate_limited"
	ClassUnauthorized ErrorClass = "unauthorized"
	ClassUpstream     ErrorClass = "upstream"
	ClassUnknown      ErrorClass = "unknown"
)

var (
	// ErrNotConfigured means no credential was supplied for the LLM endpoint.
	ErrNotConfigured = errors.New("llm service not configured")
	errEmptyReply    = errors.New("empty response from model")
)

// Error is a classified completion failure.
type Error struct {
	Class      ErrorClass
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm %s (status %d): %v", e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("llm %s: %v", e.Class, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify maps any error returned by a Completer to an ErrorClass.
func Classify(err error) ErrorClass {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	if errors.Is(err, ErrNotConfigured) {
		return ClassUnauthorized
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyStatus(apiErr.StatusCode)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || errors.Is(err, errEmptyReply) {
		return ClassUpstream
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ClassUpstream
	}
	return ClassUnknown
}

func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ClassRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ClassUnauthorized
	case code == http.StatusRequestTimeout || code >= 500:
		return ClassUpstream
	}
	return ClassUnknown
}
