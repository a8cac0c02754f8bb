// Package app wires configuration, storage, the change feed and the HTTP
// server into a running service.
package app

import (
	"context"
	"fmt"
	"net"

	"gstdirectory/config"
	"gstdirectory/internal/events"
	"gstdirectory/internal/httpapi"
	"gstdirectory/pkg/directory"
	"gstdirectory/pkg/storage/file"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Run serves the directory until ctx is cancelled.
// Failing to open the store is returned before anything listens.
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	store, err := OpenStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer store.Close()

	ln, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}

	return Serve(ctx, ln, store, cfg, logger)
}

// Serve runs the service on an existing listener and store.
func Serve(ctx context.Context, ln net.Listener, store directory.Store, cfg *config.Config, logger *zap.Logger) error {
	hub := events.NewHub(logger, httpapi.OriginChecker(cfg.Server.AllowedOrigins))
	dir := directory.New(store, logger, directory.WithPublisher(hub))
	router := httpapi.NewRouter(dir, hub, cfg.Server.AllowedOrigins, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer hub.Close()
		return httpapi.Serve(gctx, ln, router, cfg.Server, logger)
	})

	// Push a reload to subscribers when the data file is edited by hand
	if fs, ok := store.(*file.Store); ok && cfg.Store.File.Watch {
		g.Go(func() error {
			return fs.Watch(gctx, logger, func() {
				hub.Publish(directory.Event{Type: directory.EventReload})
			})
		})
	}

	return g.Wait()
}
