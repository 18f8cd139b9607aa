// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/metrics"
	"github.com/ManuGH/dlcat/internal/resilience"
)

// Gateway issues calls on a Transport and delivers their outcome as futures.
type Gateway struct {
	transport Transport
	breaker   *resilience.CircuitBreaker
	logger    zerolog.Logger
	now       func() time.Time
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithBreaker makes calls fail fast while the breaker is open.
func WithBreaker(cb *resilience.CircuitBreaker) GatewayOption {
	return func(g *Gateway) { g.breaker = cb }
}

// NewGateway wraps t.
func NewGateway(t Transport, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		transport: t,
		logger:    xglog.WithComponent("bus"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Transport returns the wrapped transport.
func (g *Gateway) Transport() Transport {
	return g.transport
}

// Invoke dispatches call once. The future resolves with the single reply value,
// with the []any tuple when the reply carries several values, or with nil when
// it carries none. Remote errors resolve the future as *TransportError.
func (g *Gateway) Invoke(call Call) *future.Future[any] {
	f := future.New[any]()
	name := call.Name()

	if g.breaker != nil {
		if err := g.breaker.Allow(); err != nil {
			metrics.ObserveBusCall(name, "rejected", 0)
			f.SetError(&TransportError{Method: call.Method, Object: call.Object, Err: err})
			return f
		}
	}

	g.logger.Debug().
		Str(xglog.FieldMethod, call.Method).
		Str(xglog.FieldObject, call.Object).
		Interface("args", call.Args).
		Msg("calling bus method")

	start := g.now()
	reply := func(values ...any) {
		elapsed := g.now().Sub(start)
		g.logger.Debug().
			Str(xglog.FieldMethod, call.Method).
			Dur(xglog.FieldElapsed, elapsed).
			Msg("bus reply")
		metrics.ObserveBusCall(name, "ok", elapsed)
		if g.breaker != nil {
			g.breaker.Record(nil)
		}
		f.Set(collapse(values))
	}
	fail := func(err error) {
		elapsed := g.now().Sub(start)
		g.logger.Debug().
			Err(err).
			Str(xglog.FieldMethod, call.Method).
			Dur(xglog.FieldElapsed, elapsed).
			Msg("bus error")
		metrics.ObserveBusCall(name, "error", elapsed)
		if g.breaker != nil {
			g.breaker.Record(err)
		}
		f.SetError(&TransportError{Method: call.Method, Object: call.Object, Elapsed: elapsed, Err: err})
	}

	g.transport.CallAsync(call, reply, fail)
	return f
}

func collapse(values []any) any {
	switch len(values) {
	case 0:
		return nil
	case 1:
		return values[0]
	default:
		return values
	}
}
