// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/dlcat/internal/bus"
	"github.com/ManuGH/dlcat/internal/bus/bustest"
	"github.com/ManuGH/dlcat/internal/dleyna"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	path0 = "/com/intel/dLeynaServer/server/0"
	path1 = "/com/intel/dLeynaServer/server/1"
)

func serverProps(udn, name, path string) bustest.Handler {
	return bustest.Reply(map[string]any{
		"UDN":          udn,
		"FriendlyName": name,
		"Path":         path,
		"SearchCaps":   []any{"*"},
		"SortCaps":     []any{"DisplayName"},
	})
}

func newRegistry(t *testing.T, paths ...string) (*Registry, *bustest.Transport) {
	t.Helper()
	tr := bustest.New()
	values := make([]any, 0, len(paths))
	for _, p := range paths {
		values = append(values, p)
	}
	tr.Handle("GetServers", bustest.Reply(values))
	r := New(dleyna.NewClient(bus.NewGateway(tr)))
	t.Cleanup(func() { _ = r.Close() })
	return r, tr
}

func startAndWait(t *testing.T, r *Registry) {
	t.Helper()
	require.NoError(t, r.Start())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, r.WaitReady(ctx))
}

func TestRegistry_EnumeratesOnStart(t *testing.T) {
	r, tr := newRegistry(t, path0, path1)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:B", "Media Server #2", path0))
	tr.HandleObject(path1, "GetAll", serverProps("uuid:A", "Media Server #1", path1))

	startAndWait(t, r)

	require.Equal(t, 2, r.Len())
	list := r.List()
	assert.Equal(t, "uuid:A", list[0].UDN)
	assert.Equal(t, "uuid:B", list[1].UDN)
	assert.Equal(t, []string{path0, path1}, r.Paths())

	srv, err := r.Get("UUID:a")
	require.NoError(t, err, "UDN lookup is case-insensitive")
	assert.Equal(t, "Media Server #1", srv.FriendlyName)

	byPath, ok := r.ByPath(path0)
	require.True(t, ok)
	assert.Equal(t, "uuid:B", byPath.UDN)
}

func TestRegistry_EnumerationFailureStartsEmpty(t *testing.T) {
	tr := bustest.New()
	tr.Handle("GetServers", bustest.Fail(errors.New("ServiceUnknown")))
	r := New(dleyna.NewClient(bus.NewGateway(tr)))
	defer r.Close()

	startAndWait(t, r)
	assert.Zero(t, r.Len())
}

func TestRegistry_FetchFailureIsDropped(t *testing.T) {
	r, tr := newRegistry(t, path0, path1)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "A", path0))
	tr.HandleObject(path1, "GetAll", bustest.Fail(errors.New("UnknownObject")))

	startAndWait(t, r)
	assert.Equal(t, 1, r.Len())
	_, ok := r.ByPath(path1)
	assert.False(t, ok)
}

func TestRegistry_FoundThenLostLeavesNoEntry(t *testing.T) {
	r, tr := newRegistry(t)
	startAndWait(t, r)

	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "A", path0))
	tr.Emit(dleyna.SignalFoundServer, path0)
	tr.Emit(dleyna.SignalLostServer, path0)
	r.pending.Wait()

	assert.Zero(t, r.Len())
	assert.Empty(t, r.Paths())
	_, err := r.Get("uuid:A")
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestRegistry_LostAfterFoundRemovesBothIndices(t *testing.T) {
	r, tr := newRegistry(t)
	startAndWait(t, r)

	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "A", path0))
	tr.Emit(dleyna.SignalFoundServer, path0)
	r.pending.Wait()
	require.Equal(t, 1, r.Len())

	tr.Emit(dleyna.SignalLostServer, path0)
	assert.Zero(t, r.Len())
	_, ok := r.ByPath(path0)
	assert.False(t, ok)
}

func TestRegistry_LostUnknownIsNoop(t *testing.T) {
	r, tr := newRegistry(t, path0)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "A", path0))
	startAndWait(t, r)

	assert.NotPanics(t, func() {
		tr.Emit(dleyna.SignalLostServer, "/com/intel/dLeynaServer/server/99")
	})
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RediscoveryRefreshesInPlace(t *testing.T) {
	r, tr := newRegistry(t, path0)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "Old Name", path0))
	startAndWait(t, r)

	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "New Name", path0))
	tr.Emit(dleyna.SignalFoundServer, path0)
	r.pending.Wait()

	require.Equal(t, 1, r.Len())
	srv, err := r.Get("uuid:A")
	require.NoError(t, err)
	assert.Equal(t, "New Name", srv.FriendlyName)
}

func TestRegistry_MovedServerDropsOldPath(t *testing.T) {
	r, tr := newRegistry(t, path0)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "A", path0))
	startAndWait(t, r)

	tr.HandleObject(path1, "GetAll", serverProps("uuid:A", "A", path1))
	tr.Emit(dleyna.SignalFoundServer, path1)
	r.pending.Wait()

	assert.Equal(t, []string{path1}, r.Paths())
	tr.Emit(dleyna.SignalLostServer, path0)
	assert.Equal(t, 1, r.Len(), "stale path must not remove the moved server")
}

func TestRegistry_ReadsReturnCopies(t *testing.T) {
	r, tr := newRegistry(t, path0)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:A", "A", path0))
	startAndWait(t, r)

	srv, err := r.Get("uuid:A")
	require.NoError(t, err)
	srv.SearchCaps[0] = "Album"
	srv.FriendlyName = "mutated"

	again, err := r.Get("uuid:A")
	require.NoError(t, err)
	assert.Equal(t, "A", again.FriendlyName)
	assert.Equal(t, []string{"*"}, again.SearchCaps)
}

func TestRegistry_CloseUnsubscribes(t *testing.T) {
	r, tr := newRegistry(t)
	startAndWait(t, r)
	assert.Equal(t, 1, tr.Subscribers(dleyna.SignalFoundServer))
	assert.Equal(t, 1, tr.Subscribers(dleyna.SignalLostServer))

	require.NoError(t, r.Close())
	assert.Zero(t, tr.Subscribers(dleyna.SignalFoundServer))
	assert.Zero(t, tr.Subscribers(dleyna.SignalLostServer))
	require.NoError(t, r.Close())
	assert.Error(t, r.Start())
}

func TestRegistry_FoundAfterCloseIsDropped(t *testing.T) {
	r, tr := newRegistry(t)
	startAndWait(t, r)
	tr.HandleObject(path0, "GetAll", serverProps("uuid:0", "A", path0))
	require.NoError(t, r.Close())

	// A signal already being dispatched when Close ran.
	r.onFound(path0)

	for _, c := range tr.Calls("GetAll") {
		assert.NotEqual(t, path0, c.Object)
	}
	r.mu.Lock()
	assert.Empty(t, r.inflight)
	r.mu.Unlock()
	assert.Zero(t, r.Len())
}

func TestRegistry_CloseAbandonsBlockedFetch(t *testing.T) {
	tr := bustest.New()
	tr.Handle("GetServers", bustest.Reply([]any{}))
	block := make(chan struct{})
	defer func() {
		close(block)
		tr.Wait()
	}()
	tr.Async(true)
	tr.HandleObject(path0, "GetAll", func(bus.Call) ([]any, error) {
		<-block
		return nil, errors.New("gone")
	})
	r := New(dleyna.NewClient(bus.NewGateway(tr)))
	startAndWait(t, r)

	tr.Emit(dleyna.SignalFoundServer, path0)

	done := make(chan struct{})
	go func() {
		_ = r.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on an unanswered fetch")
	}
	assert.Zero(t, r.Len())
}
