package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/querydef"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/resolvers"
)

// RenderResult is the SQL of one query definition.
type RenderResult struct {
	Name   string   `json:"name"`
	SQL    string   `json:"sql"`
	Args   []any    `json:"args"`
	Labels []string `json:"labels"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <query.yaml|dir>...",
		Short: "Print the SQL of query definitions",
		Long: `Resolve query definitions and print the SQL and bound arguments
that run would execute.

Example:
  qbridge render --catalog ./catalog ./queries/recent.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runRender(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	files, err := FindDefinitionFiles(paths)
	if err != nil {
		return outputCommandError(formatter, err)
	}

	results := make([]RenderResult, 0, len(files))
	for _, file := range files {
		q, err := LoadQuery(file, cat)
		if err != nil {
			return outputQueryError(formatter, err)
		}
		sel, err := resolveQuery(q, cat)
		if err != nil {
			return outputQueryError(formatter, err)
		}
		sql, args, err := sel.ToSql()
		if err != nil {
			return outputQueryError(formatter, err)
		}
		if args == nil {
			args = []any{}
		}
		results = append(results, RenderResult{Name: q.Name, SQL: sql, Args: args, Labels: sel.Projection.Labels})
	}

	return formatter.Success(results, func(w io.Writer) error {
		for _, r := range results {
			fmt.Fprintf(w, "-- %s\n%s;\n", r.Name, r.SQL)
			if len(r.Args) > 0 {
				fmt.Fprintf(w, "-- args: %s\n", formatArgs(r.Args))
			}
		}
		return nil
	})
}

// resolveQuery builds the SELECT of q with the built-in resolvers.
func resolveQuery(q *querydef.Query, cat *catalog.Catalog) (*resolvers.Select, error) {
	return resolvers.BuildSelect(q.Config, q.Projection, resolve.NewContext(resolvers.NewRegistry(), cat))
}

// outputQueryError reports a definition that failed to load, resolve or run.
func outputQueryError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(errorCode(err), commandMessage(err), errorDetails(err))
	return WrapExitError(ExitFailure, "query failed", err)
}
