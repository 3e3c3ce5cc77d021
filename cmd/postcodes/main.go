// Package main is the entry point for the postcodes command line tool.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"postcode_lookup/cmd/postcodes/commands"
	"postcode_lookup/internal/postcodes"
	"postcode_lookup/platform/config"
	"postcode_lookup/platform/logger"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr, provide(os.Stderr)))
}

// provide loads configuration from the environment. Logs go to stderr so
// stdout stays machine readable.
func provide(stderr io.Writer) commands.Provider {
	return func() (commands.Lookuper, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		p, err := postcodes.New(cfg, logger.NewWithWriter(cfg.Env, stderr))
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, provider commands.Provider) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cli := commands.New(provider)
	cli.SetArgs(args)
	cli.SetIO(stdin, stdout, stderr)

	if err := cli.Execute(ctx); err != nil {
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	return 0
}
