package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/osint-industries/oi-cli/internal/jsonval"
	"github.com/osint-industries/oi-cli/internal/osint"
	"github.com/osint-industries/oi-cli/internal/outfmt"
)

func newNormalizeCmd() *cobra.Command {
	var modules bool
	cmd := &cobra.Command{
		Use:     "normalize [FILE|-]",
		Aliases: []string{"norm"},
		Short:   "Normalize a saved JSON document offline",
		Long: `Run the value normalizer over a JSON document without calling the API.

With --modules the input is a saved search response (an array of
{"name","data"} objects) and each module is projected onto the well-known
fields, exactly as 'oi search' does.`,
		Example: `  oi normalize response.json --modules
  cat value.json | oi normalize -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			data, err := readSource(cmd, path)
			if err != nil {
				return err
			}

			var result any
			if modules {
				parsed, err := osint.ParseModules(data)
				if err != nil {
					return err
				}
				projected := make([]osint.ProjectedModule, 0, len(parsed))
				for _, m := range parsed {
					projected = append(projected, osint.ProjectModule(m))
				}
				result = projected
			} else {
				v, err := jsonval.Parse(data)
				if err != nil {
					return fmt.Errorf("invalid JSON input: %w", err)
				}
				normalized, ok := jsonval.Normalize(v)
				if !ok {
					return fmt.Errorf("input normalizes to an absent value")
				}
				result = normalized
			}

			return printRecord(cmd, result, func(w io.Writer) error {
				return outfmt.WritePretty(w, result, outfmt.ColorEnabled(cmd.Context()))
			})
		}),
	}
	cmd.Flags().BoolVarP(&modules, "modules", "m", false, "Treat input as a search response and project each module")
	return cmd
}
