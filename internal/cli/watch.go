package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gstdirectory/pkg/client"
	"gstdirectory/pkg/directory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWatchCommand prints the change feed of a running server.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream changes from a running server (requires --server)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Server == "" {
				return errors.New("watch needs --server")
			}

			ws, err := client.NewWSClient(opts.Server, zap.NewNop())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ws.SetMessageHandler(func(e directory.Event) {
				data, err := json.Marshal(e)
				if err != nil {
					return
				}
				fmt.Fprintln(out, string(data))
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ws.Listen(ctx)
		},
	}
}
