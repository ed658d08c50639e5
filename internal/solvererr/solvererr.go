// Package solvererr classifies errors raised by solver components into the
// kinds the orchestrator uses to decide state transitions: configuration
// errors are fatal at startup, transient errors are retried, protocol errors
// are not retried for the current attempt, parse errors drop the order, and
// expired is always terminal.
package solvererr

import "errors"

// Kind identifies the handling a wrapped error should receive.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindTransient
	KindProtocol
	KindParse
	KindExpired
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindTransient:
		return "transient"
	case KindProtocol:
		return "protocol"
	case KindParse:
		return "parse"
	case KindExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind so call sites can decide a
// state transition without string-matching.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(k Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: k, Err: err}
}

func Configuration(err error) error { return wrap(KindConfiguration, err) }
func Transient(err error) error     { return wrap(KindTransient, err) }
func Protocol(err error) error      { return wrap(KindProtocol, err) }
func Parse(err error) error         { return wrap(KindParse, err) }

// ErrExpired is a sentinel for orders that are past their expiry deadline.
var ErrExpired = &Error{Kind: KindExpired, Err: errors.New("order expired")}

// KindOf extracts the Kind from err, walking the unwrap chain. Returns
// KindUnknown if no *Error is found.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool { return KindOf(err) == KindTransient }

// IsExpired reports whether err represents an expired order.
func IsExpired(err error) bool { return errors.Is(err, ErrExpired) || KindOf(err) == KindExpired }

// QueueFull is returned by the priority queue when it is at capacity.
var QueueFull = errors.New("queue full")

// NotFound is returned by storage backends when a key does not exist.
var NotFound = errors.New("not found")
