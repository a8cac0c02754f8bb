package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gstdirectory/config"
	"gstdirectory/internal/app"
	"gstdirectory/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewServeCommand runs the HTTP server until SIGINT or SIGTERM.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and change feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			// zap logger
			log, err := logger.New(cfg.Log)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting gstdir",
				zap.String("addr", cfg.Server.Addr),
				zap.String("backend", cfg.Store.Backend),
				zap.String("environment", cfg.Environment))
			return app.Run(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func withTimeout(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, opts.Timeout)
}
