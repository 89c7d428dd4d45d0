package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/counsel/pkg/page"
)

func pagesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "pages",
		Short: "List the page catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			catalogue, err := page.LoadCatalogue(cfg.PagesPath())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tENDPOINT\tTIMEOUT\tFIELDS")
			for _, name := range catalogue.Names() {
				d, _ := catalogue.Get(name)
				endpoint, timeout := d.Endpoint, d.SafetyTimeout.String()
				if endpoint == "" {
					endpoint = "-"
				}
				if d.SafetyTimeout <= 0 {
					timeout = cfg.SafetyTimeout().String() + " (default)"
				}
				var fields []string
				for _, f := range d.Fields {
					fields = append(fields, f.Name)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, endpoint, timeout, strings.Join(fields, ","))
			}
			return tw.Flush()
		},
	}
}
