// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bustest provides an in-memory bus.Transport for tests.
package bustest

import (
	"fmt"
	"sync"

	"github.com/ManuGH/dlcat/internal/bus"
)

// Handler answers one call with reply values or an error.
type Handler func(call bus.Call) ([]any, error)

// Transport is a scripted bus.Transport. Handlers are matched by object path
// and method first, then by method alone. By default replies are delivered
// synchronously on the calling goroutine; Async moves them to a new goroutine.
type Transport struct {
	mu       sync.Mutex
	byMethod map[string]Handler
	byObject map[string]Handler
	subs     map[string]map[int]func(string)
	nextSub  int
	calls    []bus.Call
	async    bool
	wg       sync.WaitGroup
}

// New returns an empty scripted transport.
func New() *Transport {
	return &Transport{
		byMethod: make(map[string]Handler),
		byObject: make(map[string]Handler),
		subs:     make(map[string]map[int]func(string)),
	}
}

// Async switches reply delivery to separate goroutines.
func (t *Transport) Async(enabled bool) *Transport {
	t.mu.Lock()
	t.async = enabled
	t.mu.Unlock()
	return t
}

// Handle answers method on every object.
func (t *Transport) Handle(method string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byMethod[method] = h
}

// HandleObject answers method on one object path.
func (t *Transport) HandleObject(object, method string, h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byObject[object+"|"+method] = h
}

// Reply is a Handler returning fixed values.
func Reply(values ...any) Handler {
	return func(bus.Call) ([]any, error) { return values, nil }
}

// Fail is a Handler returning err.
func Fail(err error) Handler {
	return func(bus.Call) ([]any, error) { return nil, err }
}

// CallAsync implements bus.Transport.
func (t *Transport) CallAsync(call bus.Call, reply func(values ...any), fail func(error)) {
	t.mu.Lock()
	t.calls = append(t.calls, call)
	h, ok := t.byObject[call.Object+"|"+call.Method]
	if !ok {
		h, ok = t.byMethod[call.Method]
	}
	async := t.async
	t.mu.Unlock()

	deliver := func() {
		if !ok {
			fail(fmt.Errorf("bustest: no handler for %s on %s", call.Method, call.Object))
			return
		}
		values, err := h(call)
		if err != nil {
			fail(err)
			return
		}
		reply(values...)
	}

	if async {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			deliver()
		}()
		return
	}
	deliver()
}

// Wait blocks until all asynchronous deliveries have finished.
func (t *Transport) Wait() {
	t.wg.Wait()
}

// Subscribe implements bus.Transport.
func (t *Transport) Subscribe(signal bus.Signal, handler func(path string)) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	if t.subs[signal.Member] == nil {
		t.subs[signal.Member] = make(map[int]func(string))
	}
	t.subs[signal.Member][id] = handler
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.subs[signal.Member], id)
	}, nil
}

// Emit delivers a signal to every subscriber synchronously.
func (t *Transport) Emit(member, path string) {
	t.mu.Lock()
	handlers := make([]func(string), 0, len(t.subs[member]))
	for _, h := range t.subs[member] {
		handlers = append(handlers, h)
	}
	t.mu.Unlock()
	for _, h := range handlers {
		h(path)
	}
}

// Subscribers returns the number of live subscriptions for member.
func (t *Transport) Subscribers(member string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs[member])
}

// Calls returns the recorded calls, optionally filtered by method.
func (t *Transport) Calls(method string) []bus.Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []bus.Call
	for _, c := range t.calls {
		if method == "" || c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
