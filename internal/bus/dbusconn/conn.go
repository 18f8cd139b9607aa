// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package dbusconn implements bus.Transport on a godbus connection.
package dbusconn

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/bus"
	xglog "github.com/ManuGH/dlcat/internal/log"
)

// Config selects the bus and the remote service.
type Config struct {
	// Address is a D-Bus address; empty means the session bus.
	Address string
	// Destination is the well-known name calls are sent to.
	Destination string
	// CallTimeout bounds each method call; zero disables the bound.
	CallTimeout time.Duration
}

// Conn is a bus.Transport backed by a D-Bus connection.
type Conn struct {
	conn   *dbus.Conn
	cfg    Config
	logger zerolog.Logger

	mu       sync.Mutex
	handlers map[string]map[int]func(string) // key: interface.member
	nextID   int

	signals chan *dbus.Signal
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Dial connects to the bus named by cfg.
func Dial(cfg Config) (*Conn, error) {
	var (
		conn *dbus.Conn
		err  error
	)
	if cfg.Address == "" {
		conn, err = dbus.ConnectSessionBus()
	} else {
		conn, err = dbus.Connect(cfg.Address)
	}
	if err != nil {
		return nil, fmt.Errorf("connect bus: %w", err)
	}
	return newConn(conn, cfg), nil
}

func newConn(conn *dbus.Conn, cfg Config) *Conn {
	c := &Conn{
		conn:     conn,
		cfg:      cfg,
		logger:   xglog.WithComponent("dbus"),
		handlers: make(map[string]map[int]func(string)),
		signals:  make(chan *dbus.Signal, 64),
		done:     make(chan struct{}),
	}
	conn.Signal(c.signals)
	c.wg.Add(1)
	go c.dispatch()
	return c
}

// CallAsync implements bus.Transport. Exactly one of reply or fail is
// called, from a goroutine owned by the connection.
func (c *Conn) CallAsync(call bus.Call, reply func(values ...any), fail func(error)) {
	obj := c.conn.Object(c.cfg.Destination, dbus.ObjectPath(call.Object))
	ctx, cancel := context.Background(), context.CancelFunc(func() {})
	if c.cfg.CallTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CallTimeout)
	}
	ch := make(chan *dbus.Call, 1)
	obj.GoWithContext(ctx, call.Interface+"."+call.Method, 0, ch, call.Args...)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		var res *dbus.Call
		select {
		case res = <-ch:
		case <-c.done:
			fail(fmt.Errorf("dbus: connection closed"))
			return
		}
		if res.Err != nil {
			fail(res.Err)
			return
		}
		values := make([]any, len(res.Body))
		for i, v := range res.Body {
			values[i] = Plain(v)
		}
		reply(values...)
	}()
}

// Subscribe implements bus.Transport. The handler receives the object path
// carried as the signal's first argument.
func (c *Conn) Subscribe(signal bus.Signal, handler func(path string)) (func(), error) {
	key := signal.Interface + "." + signal.Member

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.handlers[key]) == 0 {
		if err := c.conn.AddMatchSignal(matchOptions(signal)...); err != nil {
			return nil, fmt.Errorf("add match %s: %w", key, err)
		}
		c.handlers[key] = make(map[int]func(string))
	}
	id := c.nextID
	c.nextID++
	c.handlers[key][id] = handler

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		hs, ok := c.handlers[key]
		if !ok {
			return
		}
		delete(hs, id)
		if len(hs) == 0 {
			delete(c.handlers, key)
			if err := c.conn.RemoveMatchSignal(matchOptions(signal)...); err != nil {
				c.logger.Debug().Err(err).Str("signal", key).Msg("remove match failed")
			}
		}
	}, nil
}

func matchOptions(signal bus.Signal) []dbus.MatchOption {
	return []dbus.MatchOption{
		dbus.WithMatchInterface(signal.Interface),
		dbus.WithMatchMember(signal.Member),
	}
}

func (c *Conn) dispatch() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case sig, ok := <-c.signals:
			if !ok {
				return
			}
			c.deliver(sig)
		}
	}
}

func (c *Conn) deliver(sig *dbus.Signal) {
	if len(sig.Body) == 0 {
		return
	}
	path, ok := Plain(sig.Body[0]).(string)
	if !ok {
		c.logger.Debug().Str("signal", sig.Name).Msg("signal without path argument")
		return
	}
	c.mu.Lock()
	hs := make([]func(string), 0, len(c.handlers[sig.Name]))
	for _, h := range c.handlers[sig.Name] {
		hs = append(hs, h)
	}
	c.mu.Unlock()
	for _, h := range hs {
		h(path)
	}
}

// Close stops signal dispatch, fails pending calls and closes the bus
// connection.
func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		c.conn.RemoveSignal(c.signals)
		close(c.done)
		c.wg.Wait()
		err = c.conn.Close()
	})
	return err
}
