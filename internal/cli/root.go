package cli

import (
	"context"
	"errors"
	"os"
	"time"

	"gstdirectory/config"
	"gstdirectory/internal/app"
	"gstdirectory/logger"
	"gstdirectory/pkg/client"
	"gstdirectory/pkg/directory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Server     string // base URL of a running server; empty means local store
	Timeout    time.Duration
}

// directoryAPI is satisfied by the local Directory and the REST client.
type directoryAPI interface {
	List(ctx context.Context) ([]directory.Record, error)
	Insert(ctx context.Context, city, trader, gst string) (directory.Record, error)
	Update(ctx context.Context, oldCity, oldTrader, newCity, newTrader, newGST string) (directory.Record, error)
	Delete(ctx context.Context, city, trader string) error
}

// NewRootCommand creates the root command for the gstdir CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "gstdir",
		Short:         "gstdir - city / trader / GST directory",
		Long:          "Store (city, trader, GST) records and serve them over a REST API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to config.yaml")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "base URL of a running gstdir server (default: open the configured store directly)")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 10*time.Second, "timeout for remote requests")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewUpdateCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// loadConfig reads configuration and builds a logger writing to stderr so
// command output on stdout stays clean.
func loadConfig(opts *RootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewWithWriter(cfg.Log, zapcore.Lock(os.Stderr))
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// openAPI returns a remote client when --server is set, otherwise a
// Directory over the configured store. The returned func releases it.
func openAPI(opts *RootOptions) (directoryAPI, func(), error) {
	if opts.Server != "" {
		return client.NewRESTClient(opts.Server, opts.Timeout), func() {}, nil
	}

	cfg, log, err := loadConfig(opts)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.Backend == config.BackendMemory {
		return nil, nil, errors.New("the memory backend only lives inside `gstdir serve`; use --server or another backend")
	}
	store, err := app.OpenStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		store.Close()
		_ = log.Sync()
	}
	return directory.New(store, log), release, nil
}
