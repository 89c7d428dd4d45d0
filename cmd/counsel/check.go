package main

import (
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/counsel/internal/errors"
	"github.com/vango-dev/counsel/pkg/page"
)

func checkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check <page> [field=value...]",
		Short: "Validate values against a page's form",
		Long: `Run a page's validator on the given values and report the first
failing field, as the page would before submitting.

Repeat a field to select several options of a group.

Examples:
  counsel check user_login email=jane@example.com password=secret1
  counsel check add_lawyer full_name="Ada Counsel" day_types=weekday weekday_days=mon weekday_time=morning`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			catalogue, err := page.LoadCatalogue(cfg.PagesPath())
			if err != nil {
				return err
			}
			def, err := catalogue.Get(args[0])
			if err != nil {
				return err
			}

			values, err := parseValues(args[1:])
			if err != nil {
				return err
			}
			if res := def.Schema().Validate(values); !res.Valid {
				return res.Err()
			}
			success(cmd.OutOrStdout(), "%s: valid", def.Name)
			return nil
		},
	}
}

func parseValues(args []string) (url.Values, error) {
	values := url.Values{}
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		if !ok || field == "" {
			return nil, errors.New("C501").
				WithDetail("expected field=value, got " + arg).
				WithSuggestion("Quote values with spaces: full_name=\"Ada Counsel\"")
		}
		values.Add(field, value)
	}
	return values, nil
}
