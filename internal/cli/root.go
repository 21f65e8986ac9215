// Package cli implements sheetctl, a command-line client for the row store
// that runs the engine in-process against the configured backend.
package cli

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rowstore/internal/config"
	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/grid"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Driver string // overrides STORE_DRIVER
	DSN    string // overrides STORE_URL (postgres) or SQLITE_PATH (sqlite)
	Pretty bool

	// open builds the engine. Tests replace it.
	open func(ctx context.Context, opts *RootOptions) (*core.Service, error)
}

// ValidDrivers are the accepted --driver values.
var ValidDrivers = []string{"memory", "sqlite", "postgres"}

// NewRootCommand creates the root command for sheetctl.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{open: openService})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheetctl",
		Short: "sheetctl - row store client",
		Long: `Read and write spreadsheet-backed tables from the command line.

Settings come from the environment (and .env) the same way the server reads
them; --driver and --dsn override the store selection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Driver != "" && !slices.Contains(ValidDrivers, opts.Driver) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid driver %q: must be one of %v", opts.Driver, ValidDrivers))
			}
			cmd.SetContext(core.WithCaller(cmd.Context(), core.Caller{Source: "cli"}))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Driver, "driver", "", "grid driver (memory|sqlite|postgres), default from STORE_DRIVER")
	cmd.PersistentFlags().StringVar(&opts.DSN, "dsn", "", "postgres URL or sqlite path, default from the environment")
	cmd.PersistentFlags().BoolVar(&opts.Pretty, "pretty", false, "indent JSON output")

	cmd.AddCommand(NewTablesCommand(opts))
	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewReadCommand(opts))
	cmd.AddCommand(NewWriteCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// service opens the engine for one command.
func (o *RootOptions) service(ctx context.Context) (*core.Service, error) {
	svc, err := o.open(ctx, o)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return svc, nil
}

// getenv layers the global flags over the process environment.
func (o *RootOptions) getenv(key string) string {
	switch key {
	case "STORE_DRIVER":
		if o.Driver != "" {
			return o.Driver
		}
	case "STORE_URL", "SQLITE_PATH":
		if o.DSN != "" {
			return o.DSN
		}
	}
	return os.Getenv(key)
}

// openService loads configuration and opens the configured grid.
func openService(ctx context.Context, opts *RootOptions) (*core.Service, error) {
	cfg, err := config.LoadFrom(opts.getenv)
	if err != nil {
		return nil, err
	}

	wb, err := grid.Open(ctx, cfg.Store.Driver, cfg.Store.GridOptions())
	if err != nil {
		return nil, err
	}

	ids, err := core.NewIDGenerator(cfg.IDs.Generator)
	if err != nil {
		_ = wb.Close()
		return nil, err
	}

	return core.NewService(wb, core.Config{
		IDs:     ids,
		Limiter: core.NewWriteLimiter(cfg.Write.MaxConcurrent, cfg.Write.MaxWaitTime),
	}), nil
}
