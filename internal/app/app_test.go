package app_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gstdirectory/config"
	"gstdirectory/internal/app"
	"gstdirectory/pkg/client"
	"gstdirectory/pkg/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Environment: "dev",
		Server: config.ServerConfig{
			Addr:            "127.0.0.1:0",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    5 * time.Second,
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Store: config.StoreConfig{
			Backend: backend,
			File:    config.FileConfig{Path: filepath.Join(dir, "data.json"), Watch: true},
			SQLite:  config.SQLiteConfig{Path: filepath.Join(dir, "gstdir.db")},
		},
	}
}

func TestOpenStoreBackends(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			s, err := app.OpenStore(testConfig(t, backend), zap.NewNop())
			require.NoError(t, err)
			defer s.Close()

			_, err = s.List(context.Background())
			require.NoError(t, err)
		})
	}

	_, err := app.OpenStore(testConfig(t, "mongo"), zap.NewNop())
	require.Error(t, err)
}

func TestServeEndToEnd(t *testing.T) {
	cfg := testConfig(t, config.BackendFile)
	store, err := app.OpenStore(cfg, zap.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln, store, cfg, zap.NewNop()) }()

	ws, err := client.NewWSClient(base, zap.NewNop())
	require.NoError(t, err)
	ws.SetRetryWait(20 * time.Millisecond)
	feed := make(chan directory.Event, 8)
	ws.SetMessageHandler(func(e directory.Event) { feed <- e })
	wsDone := make(chan error, 1)
	wsCtx, wsCancel := context.WithCancel(context.Background())
	go func() { wsDone <- ws.Listen(wsCtx) }()

	rest := client.NewRESTClient(base, 5*time.Second)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	// wait until the feed is attached, then mutate
	var created directory.Event
	attempt := 0
	require.Eventually(t, func() bool {
		attempt++
		if _, err := rest.Insert(context.Background(), "Pune", fmt.Sprintf("Acme %d", attempt), "27AAAA"); err != nil {
			return false
		}
		select {
		case created = <-feed:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, directory.EventCreated, created.Type)

	data, err := os.ReadFile(cfg.Store.File.Path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"CITIES": "PUNE"`))

	// a hand edit of the file is announced as a reload
	require.NoError(t, os.WriteFile(cfg.Store.File.Path, []byte(`[{"CITIES":"DELHI","Traders":"GAMMA","GST":""}]`), 0644))
	require.Eventually(t, func() bool {
		select {
		case e := <-feed:
			return e.Type == directory.EventReload
		default:
			return false
		}
	}, 3*time.Second, 20*time.Millisecond)

	records, err := rest.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []directory.Record{{City: "DELHI", Trader: "GAMMA", GST: directory.NoGST}}, records)

	wsCancel()
	require.NoError(t, <-wsDone)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("serve did not stop")
	}
}
