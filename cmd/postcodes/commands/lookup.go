package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"postcode_lookup/internal/postcodes"
)

func (c *CLI) newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <postcode> <home_number>",
		Short: "Resolve one address and print it as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.provide()
			if err != nil {
				return err
			}

			addr, err := p.LookupPostcode(cmd.Context(), postcodes.LookupOptions{
				Postcode:   args[0],
				HomeNumber: args[1],
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(addr)
		},
	}
}
