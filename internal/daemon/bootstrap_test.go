// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/dlcat/internal/api"
	"github.com/ManuGH/dlcat/internal/bus/bustest"
	"github.com/ManuGH/dlcat/internal/config"
	"github.com/ManuGH/dlcat/internal/models"
)

const serverPath = "/com/intel/dLeynaServer/server/0"

func scriptedBus() *bustest.Transport {
	tr := bustest.New()
	tr.Handle("GetVersion", bustest.Reply("0.8.3"))
	tr.Handle("GetServers", bustest.Reply([]any{serverPath}))
	tr.HandleObject(serverPath, "GetAll", bustest.Reply(map[string]any{
		"UDN":          "uuid:kitchen",
		"FriendlyName": "Kitchen NAS",
		"Path":         serverPath,
		"SearchCaps":   []any{"*"},
		"SortCaps":     []any{"*"},
		"Type":         "container",
		"DisplayName":  "Kitchen NAS",
	}))
	tr.HandleObject(serverPath, "ListChildrenEx", bustest.Reply([]any{
		map[string]any{"Path": serverPath + "/1", "Type": "container", "DisplayName": "Music"},
	}))
	return tr
}

func TestBootstrap_ServesCatalog(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	cfg := config.Defaults()
	cfg.API.ListenAddr = "127.0.0.1:0"
	cfg.Telemetry.Enabled = false

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := Bootstrap(ctx, cfg, nil, Options{Version: "test", Transport: scriptedBus()})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	addrCtx, addrCancel := context.WithTimeout(ctx, 5*time.Second)
	defer addrCancel()
	addr, err := app.Manager().(*manager).Addr(addrCtx)
	require.NoError(t, err)
	base := "http://" + addr

	assert.Eventually(t, func() bool {
		code, _ := get(t, base+"/readyz")
		return code == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	code, body := get(t, base+"/api/servers")
	require.Equal(t, http.StatusOK, code)
	var servers []api.ServerInfo
	require.NoError(t, json.Unmarshal([]byte(body), &servers))
	require.Len(t, servers, 1)
	assert.Equal(t, "uuid:kitchen", servers[0].UDN)
	assert.Equal(t, "Kitchen NAS", servers[0].Name)

	code, body = get(t, base+"/api/browse?uri=dleyna://uuid:kitchen")
	require.Equal(t, http.StatusOK, code, body)
	var browse api.BrowseResponse
	require.NoError(t, json.Unmarshal([]byte(body), &browse))
	assert.Equal(t, []models.Ref{
		{Type: models.RefDirectory, URI: "dleyna://uuid:kitchen/1", Name: "Music"},
	}, browse.Refs)

	code, _ = get(t, base+"/api/browse?uri=dleyna://uuid:missing")
	assert.Equal(t, http.StatusNotFound, code)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("app did not stop")
	}
}
