// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bus defines the asynchronous message-bus contract the catalog
// consumes and the gateway that turns one-shot callback calls into futures.
package bus

import "fmt"

// Call identifies one remote method invocation.
type Call struct {
	Object    string // object path on the bus
	Interface string
	Method    string
	Args      []any
}

// Name returns "Interface.Method" for logs and metrics.
func (c Call) Name() string {
	if c.Interface == "" {
		return c.Method
	}
	return c.Interface + "." + c.Method
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v on %s", c.Method, c.Args, c.Object)
}

// Signal identifies a broadcast signal.
type Signal struct {
	Interface string
	Member    string
}

// Transport is the raw bus connection. Implementations own message framing
// and dispatch; reply and fail are invoked exactly once, on a goroutine owned
// by the transport. Reply values are plain Go values: strings, numbers, bools,
// []any and map[string]any.
type Transport interface {
	CallAsync(call Call, reply func(values ...any), fail func(error))
	Subscribe(signal Signal, handler func(path string)) (unsubscribe func(), err error)
}
