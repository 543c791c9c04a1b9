package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/qbridge/internal/datastore"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/store"
	"github.com/roach88/qbridge/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database     string
	Schema       string
	OTLPEndpoint string
	Count        bool
}

// RunResult is the outcome of one query definition.
type RunResult struct {
	Name  string           `json:"name"`
	Rows  []map[string]any `json:"rows,omitempty"`
	Count *int64           `json:"count,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query.yaml|dir>...",
		Short: "Run query definitions against a SQLite database",
		Long: `Run query definitions against a SQLite database and print the rows.

The database is created if it does not exist. --schema applies a SQL script
first; it must be idempotent.

Example:
  qbridge run --catalog ./catalog --db ./data.db ./queries/recent.yaml
  qbridge run --catalog ./catalog --db ./data.db --count ./queries`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "SQL script applied after opening the database")
	cmd.Flags().StringVar(&opts.OTLPEndpoint, "otlp-endpoint", "", "OTLP/gRPC collector address for traces")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "print row counts instead of rows")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runQueries(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, opts.OTLPEndpoint, "qbridge")
	if err != nil {
		return outputCommandError(formatter, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("failed to set up tracing: %v", err)})
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("error flushing traces", "error", err)
		}
	}()

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	files, err := FindDefinitionFiles(paths)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	st, err := openDatabase(opts)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ds := datastore.New(st, cat)
	results := make([]RunResult, 0, len(files))
	var tables []func(io.Writer) error

	for _, file := range files {
		q, err := LoadQuery(file, cat)
		if err != nil {
			return outputQueryError(formatter, err)
		}
		slog.Debug("running query", "name", q.Name, "file", file)

		query := ds.QueryConfig(q.Config)
		if opts.Count {
			n, err := query.Count(ctx)
			if err != nil {
				return outputQueryError(formatter, executionError(file, err))
			}
			results = append(results, RunResult{Name: q.Name, Count: &n})
			tables = append(tables, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "-- %s\n%d\n", q.Name, n)
				return err
			})
			continue
		}

		sel, err := resolveQuery(q, cat)
		if err != nil {
			return outputQueryError(formatter, err)
		}
		labels := sel.Projection.Labels
		rows, err := query.List(ctx, q.Projection)
		if err != nil {
			return outputQueryError(formatter, executionError(file, err))
		}
		results = append(results, RunResult{Name: q.Name, Rows: rowMaps(rows)})
		tables = append(tables, func(w io.Writer) error {
			fmt.Fprintf(w, "-- %s\n", q.Name)
			return writeRows(w, labels, rows)
		})
	}

	return formatter.Success(results, func(w io.Writer) error {
		for _, t := range tables {
			if err := t(w); err != nil {
				return err
			}
		}
		return nil
	})
}

// executionError tags database failures; resolution errors keep their own code.
func executionError(file string, err error) error {
	var re *resolve.Error
	if errors.As(err, &re) {
		return err
	}
	return &LoadError{Code: ErrCodeExecute, Path: file, Message: err.Error()}
}

func openDatabase(opts *RunOptions) (*store.Store, error) {
	var storeOpts []store.Option
	if opts.Schema != "" {
		script, err := os.ReadFile(opts.Schema)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: opts.Schema, Message: "schema script not found"}
		}
		storeOpts = append(storeOpts, store.WithSchema(string(script)))
	}

	slog.Info("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database, storeOpts...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Path: opts.Database, Message: err.Error()}
	}
	return st, nil
}
