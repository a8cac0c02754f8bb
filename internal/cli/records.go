package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewAddCommand inserts one record.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add CITY TRADER [GST]",
		Short: "Add a trader to a city",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, release, err := openAPI(opts)
			if err != nil {
				return err
			}
			defer release()

			gst := ""
			if len(args) == 3 {
				gst = args[2]
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			rec, err := api.Insert(ctx, args[0], args[1], gst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s / %s (%s)\n", rec.City, rec.Trader, rec.GST)
			return nil
		},
	}
}

// NewUpdateCommand rewrites one record, optionally moving it to a new key.
func NewUpdateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "update OLD_CITY OLD_TRADER NEW_CITY NEW_TRADER [GST]",
		Short: "Edit a record",
		Args:  cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, release, err := openAPI(opts)
			if err != nil {
				return err
			}
			defer release()

			gst := ""
			if len(args) == 5 {
				gst = args[4]
			}

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			rec, err := api.Update(ctx, args[0], args[1], args[2], args[3], gst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s / %s (%s)\n", rec.City, rec.Trader, rec.GST)
			return nil
		},
	}
}

// NewRemoveCommand deletes one record.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove CITY TRADER",
		Aliases: []string{"rm", "delete"},
		Short:   "Delete a record",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, release, err := openAPI(opts)
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			if err := api.Delete(ctx, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}
