// Package service holds the capability clients (LLM completion, web search,
// image synthesis) and the registry that owns them. External responses are
// validated at the client boundary; nothing untyped crosses into the
// pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Capability names recognized by the registry.
const (
	CapabilityLLM    = "llm"
	CapabilitySearch = "search"
	CapabilityImage  = "image"
)

// State is the health of one capability.
type State int

const (
	Available State = iota
	Degraded
	Unavailable
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case Degraded:
		return "degraded"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Status is the cached health-check outcome for one capability.
type Status struct {
	Name      string
	State     State
	CheckedAt time.Time
	Err       error
}

// ErrUnavailable marks a capability the registry reports as down; callers
// should not attempt live calls against it.
var ErrUnavailable = errors.New("capability unavailable")

// ErrorKind classifies a capability failure.
type ErrorKind int

const (
	KindHTTP ErrorKind = iota
	KindTimeout
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTP:
		return "http"
	case KindTimeout:
		return "timeout"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// CapabilityError is a typed external-call failure.
type CapabilityError struct {
	Capability string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *CapabilityError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (%d): %v", e.Capability, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Capability, e.Kind, e.Err)
}

func (e *CapabilityError) Unwrap() error { return e.Err }

func capErr(capability string, kind ErrorKind, err error) *CapabilityError {
	return &CapabilityError{Capability: capability, Kind: kind, Err: err}
}

// wrapCallErr classifies a transport-level error, detecting timeouts.
func wrapCallErr(capability string, err error) *CapabilityError {
	kind := KindHTTP
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return capErr(capability, kind, err)
}

// IsTimeout reports whether err is (or wraps) a capability timeout.
func IsTimeout(err error) bool {
	var ce *CapabilityError
	if errors.As(err, &ce) && ce.Kind == KindTimeout {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// retryable reports whether a failed call is worth an immediate client-side
// retry: timeouts, rate limits, and server-side errors.
func retryable(err error) bool {
	if IsTimeout(err) {
		return true
	}
	var ce *CapabilityError
	if errors.As(err, &ce) {
		return ce.StatusCode == 429 || ce.StatusCode >= 500
	}
	return false
}

// withRetry runs fn up to attempts times with doubling backoff, retrying
// only errors retryable() accepts. Context cancellation aborts the wait.
func withRetry(ctx context.Context, attempts int, base time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !retryable(err) || i == attempts-1 {
			return err
		}
		select {
		case <-time.After(base << uint(i)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
