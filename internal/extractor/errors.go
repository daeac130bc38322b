package extractor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/twiindan/facturai/internal/domain"
)

// Kind classifies extraction failures so callers can branch on them
// without matching message text.
type Kind int

const (
	// KindProvider covers transport, authentication and non-2xx HTTP errors.
	KindProvider Kind = iota + 1
	// KindTimeout is a provider error caused by the per-call deadline.
	KindTimeout
	// KindEmptyResponse means the provider returned no usable candidate.
	KindEmptyResponse
	// KindMalformedEnvelope means the response envelope could not be read.
	KindMalformedEnvelope
	// KindUnconfigured means the client was built without a credential.
	KindUnconfigured
)

func (k Kind) String() string {
	switch k {
	case KindProvider:
		return "provider_error"
	case KindTimeout:
		return "timeout"
	case KindEmptyResponse:
		return "empty_response"
	case KindMalformedEnvelope:
		return "malformed_envelope"
	case KindUnconfigured:
		return "unconfigured"
	default:
		return "unknown"
	}
}

// FailureKind maps the extraction kind onto the batch summary vocabulary.
func (k Kind) FailureKind() domain.FailureKind {
	switch k {
	case KindProvider:
		return domain.FailureProvider
	case KindTimeout:
		return domain.FailureTimeout
	case KindEmptyResponse:
		return domain.FailureEmptyResponse
	case KindMalformedEnvelope:
		return domain.FailureMalformedEnvelope
	case KindUnconfigured:
		return domain.FailureUnconfigured
	default:
		return domain.FailureUnknown
	}
}

// Error is returned by every extractor for a failed call.
type Error struct {
	Kind       Kind
	Provider   string
	Err        error
	RetryAfter time.Duration // set when the provider answered 429
}

func (e *Error) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s %s (retry after %s): %v", e.Provider, e.Kind, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an Error of the given kind.
func NewError(kind Kind, provider string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// NewRateLimitError creates a provider Error for an HTTP 429. If
// retryAfterSecs is 0, defaults to 60s.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *Error {
	if retryAfterSecs <= 0 {
		retryAfterSecs = 60
	}
	return &Error{
		Kind:       KindProvider,
		Provider:   provider,
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
	}
}

// ClassifyCallError wraps an error returned by the transport. Deadline
// errors become KindTimeout, everything else KindProvider.
func ClassifyCallError(provider string, err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, provider, err)
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return NewError(KindTimeout, provider, err)
	}
	return NewError(KindProvider, provider, err)
}

// KindOf returns the kind of an extraction error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// IsTransport reports whether err is a provider or timeout failure.
func IsTransport(err error) bool {
	k, ok := KindOf(err)
	return ok && (k == KindProvider || k == KindTimeout)
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}
	return secs
}
