package cli

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/rowstore/internal/core"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			names, err := svc.ListTables(cmd.Context())
			if err != nil {
				return WrapExitError(ExitFailure, "list tables", err)
			}
			return printJSON(cmd.OutOrStdout(), map[string][]string{"data": names}, opts.Pretty)
		},
	}
}

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Describe a table's columns and record schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			desc, err := svc.DescribeTable(cmd.Context(), args[0])
			if err != nil {
				return failure(cmd, opts, err)
			}
			return printJSON(cmd.OutOrStdout(), desc, opts.Pretty)
		},
	}
}

// ReadOptions holds flags for the read command.
type ReadOptions struct {
	*RootOptions
	Sheet  string
	Fields string
}

// NewReadCommand creates the read command.
func NewReadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print the enabled records of a table",
		Long: `Print the enabled records of a table as {"data":[...]}.

Example:
  sheetctl read --sheet Users --fields name,email`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			records, err := svc.Read(cmd.Context(), opts.Sheet, opts.Fields)
			if err != nil {
				return failure(cmd, opts.RootOptions, err)
			}
			return printJSON(cmd.OutOrStdout(), core.ReadEnvelope{Data: records}, opts.Pretty)
		},
	}

	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "table name (default: first sheet)")
	cmd.Flags().StringVar(&opts.Fields, "fields", "", "projection list, separated by commas, plus signs or spaces")

	return cmd
}

// WriteOptions holds flags for the write command.
type WriteOptions struct {
	*RootOptions
	Sheet  string
	Method string
	Action string
	Data   string
}

// NewWriteCommand creates the write command.
func NewWriteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WriteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Create, update or soft-delete records",
		Long: `Apply a write to a table. The JSON body is read from --data or stdin.

Examples:
  sheetctl write --sheet Users --data '{"name":"Ann"}'
  echo '{"id":"u1","name":"Annie"}' | sheetctl write --sheet Users --method PUT
  sheetctl write --sheet Users --method DELETE --data '{"id":"u1"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := []byte(opts.Data)
			if !cmd.Flags().Changed("data") {
				var err error
				body, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return WrapExitError(ExitCommandError, "read stdin", err)
				}
			}

			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			method := opts.Method
			if !cmd.Flags().Changed("method") && opts.Action != "" {
				method = opts.Action
			}
			op := core.ParseMethod(strings.ToUpper(method))
			res, err := svc.Write(cmd.Context(), opts.Sheet, op, body)
			if err != nil {
				return failure(cmd, opts.RootOptions, err)
			}
			return printJSON(cmd.OutOrStdout(), res.Envelope(), opts.Pretty)
		},
	}

	cmd.Flags().StringVar(&opts.Sheet, "sheet", "", "table name (default: first sheet)")
	cmd.Flags().StringVar(&opts.Method, "method", "POST", "POST (create), PUT/UPDATE or DELETE")
	cmd.Flags().StringVar(&opts.Action, "action", "", "alias for --method")
	cmd.Flags().StringVar(&opts.Data, "data", "", "JSON body (default: read stdin)")

	return cmd
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(opts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the tables listed in a YAML seed file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := core.LoadSeedFile(file)
			if err != nil {
				return WrapExitError(ExitCommandError, "load seed file", err)
			}

			svc, err := opts.service(cmd.Context())
			if err != nil {
				return err
			}
			defer svc.Close()

			created, err := svc.Seed(cmd.Context(), f)
			if err != nil {
				return WrapExitError(ExitFailure, "seed", err)
			}
			if created == nil {
				created = []string{}
			}
			return printJSON(cmd.OutOrStdout(), map[string][]string{"created": created}, opts.Pretty)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "seed file path")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// failure prints the failure envelope for err and returns an exit error.
// An empty create batch is not a failure.
func failure(cmd *cobra.Command, opts *RootOptions, err error) error {
	env := core.FailureEnvelope(err, core.MapError(err).Message)
	if perr := printJSON(cmd.OutOrStdout(), env, opts.Pretty); perr != nil {
		return perr
	}
	if _, ok := env.(core.MessageEnvelope); ok {
		return nil
	}
	return WrapExitError(ExitFailure, "request failed", err)
}
