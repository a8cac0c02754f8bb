package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gstdirectory/pkg/directory"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewImportCommand loads records from a JSON file in the persisted layout.
// Existing keys are skipped, so importing the same file twice is harmless.
func NewImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import records from a JSON array of {CITIES, Traders, GST}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var records []directory.Record
			if err := json.Unmarshal(data, &records); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			api, release, err := openAPI(opts)
			if err != nil {
				return err
			}
			defer release()

			var added, duplicates, invalid int
			for _, r := range records {
				ctx, cancel := withTimeout(cmd, opts)
				_, err := api.Insert(ctx, r.City, r.Trader, r.GST)
				cancel()

				switch {
				case err == nil:
					added++
				case errors.Is(err, directory.ErrDuplicateKey):
					duplicates++
				case errors.Is(err, directory.ErrValidation):
					invalid++
				default:
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d, skipped %d duplicate(s), %d invalid\n", added, duplicates, invalid)
			return nil
		},
	}
}

// NewExportCommand writes every record to stdout.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all records as JSON or YAML",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("invalid format %q: must be json or yaml", format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			api, release, err := openAPI(opts)
			if err != nil {
				return err
			}
			defer release()

			ctx, cancel := withTimeout(cmd, opts)
			defer cancel()

			records, err := api.List(ctx)
			if err != nil {
				return err
			}
			directory.SortRecords(records)

			out := cmd.OutOrStdout()
			if format == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(records); err != nil {
					return err
				}
				return enc.Close()
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	}

	cmd.Flags().StringVar(&format, "format", "json", "output format (json|yaml)")
	return cmd
}
