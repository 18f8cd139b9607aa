// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHolder(t *testing.T, body string) (*ConfigHolder, string) {
	t.Helper()
	path := writeConfig(t, body)
	loader := NewLoader(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	return NewConfigHolder(cfg, loader), path
}

func TestConfigHolder_ReloadSwapsAndNotifies(t *testing.T) {
	h, path := newHolder(t, "limits:\n  browse: 10\n")
	assert.Equal(t, 10, h.Get().Limits.Browse)

	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("limits:\n  browse: 20\n"), 0o600))
	require.NoError(t, h.Reload(context.Background()))

	assert.Equal(t, 20, h.Get().Limits.Browse)
	select {
	case got := <-ch:
		assert.Equal(t, 20, got.Limits.Browse)
	default:
		t.Fatal("listener not notified")
	}
}

func TestConfigHolder_InvalidReloadKeepsOld(t *testing.T) {
	h, path := newHolder(t, "limits:\n  browse: 10\n")
	ch := make(chan AppConfig, 1)
	h.RegisterListener(ch)

	require.NoError(t, os.WriteFile(path, []byte("limits:\n  browse: -1\n"), 0o600))
	err := h.Reload(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	assert.Equal(t, 10, h.Get().Limits.Browse)
	assert.Empty(t, ch)
}

func TestConfigHolder_FullListenerSkipped(t *testing.T) {
	h, _ := newHolder(t, "logLevel: info\n")
	ch := make(chan AppConfig) // unbuffered, nobody reading
	h.RegisterListener(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = h.Reload(context.Background())
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reload blocked on listener")
	}
}

func TestConfigHolder_WatcherDisabledWithoutFile(t *testing.T) {
	h := NewConfigHolder(Defaults(), NewLoader(""))
	require.NoError(t, h.StartWatcher(context.Background()))
	h.Wait()
}

func TestConfigHolder_WatcherReloadsOnWrite(t *testing.T) {
	h, path := newHolder(t, "limits:\n  search: 5\n")
	h.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.Wait()
	}()
	require.NoError(t, h.StartWatcher(ctx))

	require.NoError(t, os.WriteFile(path, []byte("limits:\n  search: 6\n"), 0o600))

	assert.Eventually(t, func() bool {
		return h.Get().Limits.Search == 6
	}, 5*time.Second, 20*time.Millisecond)
}
