// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"errors"
	"fmt"
	"time"
)

// ErrTransport is the sentinel every failed remote call matches.
var ErrTransport = errors.New("bus: remote call failed")

// TransportError wraps a failed remote call with its identity.
type TransportError struct {
	Method  string
	Object  string
	Elapsed time.Duration
	Err     error
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("bus: %s on %s failed", e.Method, e.Object)
	if e.Elapsed > 0 {
		msg = fmt.Sprintf("%s after %s", msg, e.Elapsed.Round(time.Millisecond))
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the remote cause.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
