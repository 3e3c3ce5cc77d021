// Package commands implements the postcodes command line interface.
package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"postcode_lookup/internal/postcodes"
	"postcode_lookup/internal/postcodes/binding"
	"postcode_lookup/internal/postcodes/transport"
)

// Lookuper is the part of *postcodes.Postcodes the commands use.
type Lookuper interface {
	LookupPostcode(ctx context.Context, opts postcodes.LookupOptions) (transport.Address, error)
	Bind(ctx context.Context, opts postcodes.LookupOptions) (*binding.Binding, error)
}

// Provider initializes the lookup module on first use, so --help works
// without configuration.
type Provider func() (Lookuper, error)

// CLI represents the postcodes command line interface.
type CLI struct {
	provide Provider
	rootCmd *cobra.Command
}

// New creates a new CLI instance.
func New(provide Provider) *CLI {
	rootCmd := &cobra.Command{
		Use:           "postcodes",
		Short:         "Look up Dutch addresses by postcode and house number",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	c := &CLI{
		provide: provide,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newLookupCmd())
	rootCmd.AddCommand(c.newFormCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetIO sets the input, output and error streams of the root command.
func (c *CLI) SetIO(in io.Reader, out, err io.Writer) {
	c.rootCmd.SetIn(in)
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
