// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package registry tracks the media servers announced by the dLeyna manager.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/metrics"
)

// ErrUnknownService is returned when a UDN is not currently registered.
var ErrUnknownService = errors.New("unknown media server")

// Discoverer is the subset of the dLeyna client the registry depends on.
type Discoverer interface {
	ListServers() *future.Future[[]string]
	Server(path string) *future.Future[dleyna.Server]
	Subscribe(member string, handler func(path string)) (func(), error)
}

// Registry maps server UDNs and object paths to server descriptors. It is
// mutated by discovery signals and read concurrently by request handlers;
// every read returns a copy.
type Registry struct {
	client Discoverer
	logger zerolog.Logger
	group  singleflight.Group

	mu     sync.Mutex
	byUDN  map[string]dleyna.Server // key: lower-cased UDN
	byPath map[string]string        // path -> UDN key
	// gen is bumped by a loss signal for a path with fetches in flight so
	// that those fetches do not resurrect the entry.
	gen      map[string]uint64
	inflight map[string]int
	unsubs   []func()
	started  bool
	closed   bool

	ctx       context.Context
	cancel    context.CancelFunc
	pending   sync.WaitGroup
	ready     chan struct{}
	readyOnce sync.Once
}

// New creates an empty registry. Call Start to subscribe and enumerate.
func New(client Discoverer) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		client:   client,
		logger:   xglog.WithComponent("registry"),
		byUDN:    make(map[string]dleyna.Server),
		byPath:   make(map[string]string),
		gen:      make(map[string]uint64),
		inflight: make(map[string]int),
		ctx:      ctx,
		cancel:   cancel,
		ready:    make(chan struct{}),
	}
}

// Start subscribes to the discovery signals and enumerates the servers the
// manager already knows about. Enumeration runs in the background; Ready is
// closed once it and the property fetches it started have settled.
func (r *Registry) Start() error {
	r.mu.Lock()
	if r.started || r.closed {
		r.mu.Unlock()
		return errors.New("registry: already started")
	}
	r.started = true
	r.mu.Unlock()

	unfound, err := r.client.Subscribe(dleyna.SignalFoundServer, r.onFound)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", dleyna.SignalFoundServer, err)
	}
	unlost, err := r.client.Subscribe(dleyna.SignalLostServer, r.onLost)
	if err != nil {
		unfound()
		return fmt.Errorf("subscribe %s: %w", dleyna.SignalLostServer, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		unfound()
		unlost()
		return errors.New("registry: closed")
	}
	r.unsubs = append(r.unsubs, unfound, unlost)
	r.pending.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.pending.Done()
		defer r.markReady()
		r.enumerate()
	}()
	return nil
}

func (r *Registry) enumerate() {
	paths, err := r.client.ListServers().Wait(r.ctx)
	if err != nil {
		metrics.IncRegistryEvent("enumerate_failed")
		r.logger.Error().Err(err).Str(xglog.FieldEvent, "registry.enumerate_failed").Msg("server enumeration failed, starting empty")
		return
	}
	r.logger.Debug().Int(xglog.FieldCount, len(paths)).Msg("enumerated servers")

	var wg sync.WaitGroup
	for _, path := range paths {
		g := r.beginFetch(path)
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.found(path, g)
		}()
	}
	wg.Wait()
}

func (r *Registry) markReady() {
	r.readyOnce.Do(func() { close(r.ready) })
}

// onFound runs on the transport's signal goroutine; it only records the
// fetch generation and hands the property fetch off. Signals delivered after
// Close are dropped; the pending count only grows while r.mu shows the
// registry open, so Close's Wait cannot race an Add.
func (r *Registry) onFound(path string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.inflight[path]++
	g := r.gen[path]
	r.pending.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.pending.Done()
		r.found(path, g)
	}()
}

func (r *Registry) onLost(path string) {
	r.lost(path)
}

func (r *Registry) beginFetch(path string) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[path]++
	return r.gen[path]
}

func (r *Registry) endFetch(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inflight[path]--
	if r.inflight[path] <= 0 {
		delete(r.inflight, path)
		delete(r.gen, path)
	}
}

// found fetches the properties of the server at path and upserts it. A
// failed fetch is logged and dropped.
func (r *Registry) found(path string, g uint64) {
	defer r.endFetch(path)

	key := fmt.Sprintf("%s#%d", path, g)
	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.client.Server(path).Wait(r.ctx)
	})
	if err != nil {
		metrics.IncRegistryEvent("fetch_failed")
		r.logger.Error().Err(err).Str(xglog.FieldPath, path).Msg("failed to fetch server properties")
		return
	}
	srv := v.(dleyna.Server).Clone()
	if srv.Path != path {
		r.logger.Debug().Str(xglog.FieldPath, path).Str("reported_path", srv.Path).Msg("server reports different path, using signal path")
		srv.Path = path
	}

	inserted, ok := r.upsert(srv, g)
	if !ok {
		r.logger.Debug().Str(xglog.FieldPath, path).Msg("server lost while fetching properties")
		return
	}
	if inserted {
		metrics.IncRegistryEvent("found")
		r.logger.Info().
			Str(xglog.FieldEvent, "registry.found").
			Str(xglog.FieldUDN, srv.UDN).
			Str(xglog.FieldServerName, srv.FriendlyName).
			Str(xglog.FieldPath, path).
			Msg("found media server")
		return
	}
	metrics.IncRegistryEvent("refreshed")
	r.logger.Debug().Str(xglog.FieldUDN, srv.UDN).Msg("refreshed media server")
}

// upsert stores srv unless the path was lost after generation g was taken.
// It reports whether the UDN was new.
func (r *Registry) upsert(srv dleyna.Server, g uint64) (inserted, ok bool) {
	key := strings.ToLower(srv.UDN)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.gen[srv.Path] != g {
		return false, false
	}
	old, exists := r.byUDN[key]
	if exists && old.Path != srv.Path {
		delete(r.byPath, old.Path)
	}
	if prev, taken := r.byPath[srv.Path]; taken && prev != key {
		delete(r.byUDN, prev)
	}
	r.byUDN[key] = srv
	r.byPath[srv.Path] = key
	metrics.SetRegistryServers(len(r.byUDN))
	return !exists, true
}

// lost removes the server registered under path. Unknown paths are ignored.
func (r *Registry) lost(path string) {
	r.mu.Lock()
	if r.inflight[path] > 0 {
		r.gen[path]++
	}
	key, ok := r.byPath[path]
	var srv dleyna.Server
	if ok {
		srv = r.byUDN[key]
		delete(r.byPath, path)
		delete(r.byUDN, key)
		metrics.SetRegistryServers(len(r.byUDN))
	}
	r.mu.Unlock()

	if !ok {
		metrics.IncRegistryEvent("lost_unknown")
		r.logger.Debug().Str(xglog.FieldPath, path).Msg("loss signal for unknown server")
		return
	}
	metrics.IncRegistryEvent("lost")
	r.logger.Info().
		Str(xglog.FieldEvent, "registry.lost").
		Str(xglog.FieldUDN, srv.UDN).
		Str(xglog.FieldServerName, srv.FriendlyName).
		Str(xglog.FieldPath, path).
		Msg("lost media server")
}

// Ready is closed once the initial enumeration has settled.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

// WaitReady blocks until Ready is closed or ctx is done.
func (r *Registry) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Get returns the server with the given UDN.
func (r *Registry) Get(udn string) (dleyna.Server, error) {
	srv, ok := r.Lookup(udn)
	if !ok {
		return dleyna.Server{}, fmt.Errorf("%w: %s", ErrUnknownService, udn)
	}
	return srv, nil
}

// Lookup returns the server with the given UDN and whether it is known.
func (r *Registry) Lookup(udn string) (dleyna.Server, bool) {
	r.mu.Lock()
	srv, ok := r.byUDN[strings.ToLower(udn)]
	r.mu.Unlock()
	if !ok {
		return dleyna.Server{}, false
	}
	return srv.Clone(), true
}

// ByPath returns the server registered under the manager object path.
func (r *Registry) ByPath(path string) (dleyna.Server, bool) {
	r.mu.Lock()
	key, ok := r.byPath[path]
	srv := r.byUDN[key]
	r.mu.Unlock()
	if !ok {
		return dleyna.Server{}, false
	}
	return srv.Clone(), true
}

// List returns all known servers ordered by UDN.
func (r *Registry) List() []dleyna.Server {
	r.mu.Lock()
	out := make([]dleyna.Server, 0, len(r.byUDN))
	for _, srv := range r.byUDN {
		out = append(out, srv)
	}
	r.mu.Unlock()

	for i := range out {
		out[i] = out[i].Clone()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UDN < out[j].UDN })
	return out
}

// Paths returns the object paths of all known servers in sorted order.
func (r *Registry) Paths() []string {
	r.mu.Lock()
	out := make([]string, 0, len(r.byPath))
	for p := range r.byPath {
		out = append(out, p)
	}
	r.mu.Unlock()
	sort.Strings(out)
	return out
}

// Len returns the number of known servers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byUDN)
}

// Close unsubscribes from the discovery signals and waits for pending
// property fetches to return. Fetches still blocked on the bus are abandoned.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	r.cancel()
	r.pending.Wait()
	r.markReady()
	return nil
}
