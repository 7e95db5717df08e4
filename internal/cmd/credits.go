package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

type creditsRecord struct {
	Credits int `json:"credits"`
}

func newCreditsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "credits",
		Aliases: []string{"cr", "balance"},
		Short:   "Show remaining API credits",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, _, err := newClient(cmd)
			if err != nil {
				return err
			}
			credits, err := client.Credits(cmd.Context())
			if err != nil {
				return err
			}
			return printRecord(cmd, creditsRecord{Credits: credits}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%d credits remaining\n", credits)
				return err
			})
		}),
	}
}
