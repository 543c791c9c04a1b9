package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/qbridge/internal/catalog"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Queries []string          `json:"queries,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

// ValidationError is one invalid definition file.
type ValidationError struct {
	File    string `json:"file"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <query.yaml|dir>...",
		Short: "Check query definitions against the catalog",
		Long: `Parse, compile and resolve query definitions without touching a database.

Every file is checked; all failures are reported together.

Example:
  qbridge validate --catalog ./catalog ./queries`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := LoadCatalog(opts.Catalog)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	files, err := FindDefinitionFiles(paths)
	if err != nil {
		return outputCommandError(formatter, err)
	}
	formatter.VerboseLog("Validating %d query definition(s)", len(files))

	result := validateFiles(files, cat, formatter)
	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}

	return formatter.Success(result, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ %d query definition(s) valid\n", len(result.Queries))
		return err
	})
}

func validateFiles(files []string, cat *catalog.Catalog, formatter *OutputFormatter) ValidationResult {
	result := ValidationResult{Valid: true}
	for _, file := range files {
		formatter.VerboseLog("Validating %s", file)

		q, err := LoadQuery(file, cat)
		if err == nil {
			_, err = resolveQuery(q, cat)
		}
		if err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, ValidationError{
				File:    file,
				Code:    errorCode(err),
				Message: errorMessage(err),
			})
			continue
		}
		result.Queries = append(result.Queries, q.Name)
	}
	return result
}

// errorMessage strips the LoadError prefix, which repeats the file and code.
func errorMessage(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Message
	}
	return err.Error()
}

// commandMessage is err without the code prefix, which output prints
// separately.
func commandMessage(err error) string {
	var le *LoadError
	if errors.As(err, &le) && le.Path != "" {
		return le.Path + ": " + le.Message
	}
	return errorMessage(err)
}

// outputCommandError reports a failure to set the command up.
func outputCommandError(formatter *OutputFormatter, err error) error {
	_ = formatter.Error(errorCode(err), commandMessage(err), errorDetails(err))
	return WrapExitError(ExitCommandError, "command failed", err)
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    result.Errors[0].Code,
				Message: result.Errors[0].Message,
			},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range result.Errors {
		fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", e.File, e.Code, e.Message)
	}
	return failure
}
