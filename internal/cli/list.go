package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gstdirectory/pkg/directory"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	cityStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	traderStyle = lipgloss.NewStyle().PaddingLeft(2)
	gstStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noGSTStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// NewListCommand prints the directory grouped by city.
func NewListCommand(opts *RootOptions) *cobra.Command {
	var (
		city   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records grouped by city",
		Args:  cobra.NoArgs,
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
			if city != "" {
				records = filterCity(records, city)
			}
			directory.SortRecords(records)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(records)
			}
			renderGrouped(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().StringVar(&city, "city", "", "only show one city")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of the grouped view")
	return cmd
}

func filterCity(records []directory.Record, city string) []directory.Record {
	city = directory.Normalize(city)
	out := make([]directory.Record, 0, len(records))
	for _, r := range records {
		if r.City == city {
			out = append(out, r)
		}
	}
	return out
}

// renderGrouped writes records, sorted by city, as a city heading followed
// by its traders.
func renderGrouped(w io.Writer, records []directory.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no records")
		return
	}

	width := 0
	for _, r := range records {
		width = max(width, len(r.Trader))
	}

	current := ""
	for _, r := range records {
		if r.City != current {
			current = r.City
			fmt.Fprintln(w, cityStyle.Render(current))
		}
		gst := gstStyle.Render(r.GST)
		if r.GST == directory.NoGST {
			gst = noGSTStyle.Render(r.GST)
		}
		name := r.Trader + strings.Repeat(" ", width-len(r.Trader))
		fmt.Fprintln(w, traderStyle.Render(name)+"  "+gst)
	}
}
