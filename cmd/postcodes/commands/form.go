package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"postcode_lookup/internal/postcodes"
	"postcode_lookup/internal/postcodes/form"
)

func (c *CLI) newFormCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "form <definition.yaml>",
		Short: "Bind a form defined in YAML and drive it with field=value lines from stdin",
		Long: `Builds the inputs declared in the definition, binds them, then reads
field=value lines from stdin. Each line is typed into its field and the
binding is given time to settle. The final value and classes of every field
are printed at the end.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := os.Open(args[0])
			if err != nil {
				return err
			}
			def, err := form.Parse(file)
			_ = file.Close()
			if err != nil {
				return err
			}

			f, err := form.Build(def)
			if err != nil {
				return err
			}

			p, err := c.provide()
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			b, err := p.Bind(cmd.Context(), postcodes.LookupOptions{
				Bind:    f.Spec(),
				Classes: f.Classes(),
				Error: func(err error) {
					_, _ = fmt.Fprintf(stderr, "lookup failed: %v\n", err)
				},
			})
			if err != nil {
				return err
			}

			if err := f.Run(cmd.InOrStdin(), b.Wait); err != nil {
				return err
			}
			return f.Print(cmd.OutOrStdout())
		},
	}
}
