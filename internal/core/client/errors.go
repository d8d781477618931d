package client

import (
	"errors"
	"fmt"
)

// Kind identifies the layer an error originated from.
type Kind string

const (
	// KindTransport covers connect, timeout and TLS failures.
	KindTransport Kind = "transport"
	// KindDecode covers bodies that are not JSON or do not fit the target type.
	KindDecode Kind = "decode"
	// KindConfig covers operations attempted without the configuration they need.
	KindConfig Kind = "config"
	// KindRequest covers parameters that cannot be encoded for the method.
	KindRequest Kind = "request"
)

// Error is returned by every client operation that fails before a decoded
// value is available.
type Error struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "screeps client error"
	}
	target := e.Path
	if e.Method != "" {
		target = e.Method + " " + e.Path
	}

	var msg string
	switch e.Kind {
	case KindTransport:
		msg = "http request failed"
	case KindDecode:
		msg = "json decode failed"
	case KindConfig:
		msg = "invalid config"
	case KindRequest:
		msg = "build request failed"
	default:
		msg = "request failed"
	}
	if target != "" {
		msg += " (" + target + ")"
	}
	if e.StatusCode > 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind reports whether err is (or wraps) a client *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var clientErr *Error
	if !errors.As(err, &clientErr) {
		return false
	}
	return clientErr.Kind == kind
}

// ErrMissingCredentials is wrapped by Auth when email or password is unset.
var ErrMissingCredentials = errors.New("email or password is not configured")
