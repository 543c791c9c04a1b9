package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/querydef"
	"github.com/roach88/qbridge/internal/resolve"
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeScanError  = "E002" // Directory scan error
	ErrCodeNoFiles    = "E003" // No query definition files found
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeCatalog    = "E010" // Catalog failed to load
	ErrCodeDefinition = "E020" // Definition failed to parse
	ErrCodeCompile    = "E021" // Definition does not match the catalog
	ErrCodeResolve    = "E030" // Query failed to resolve
	ErrCodeDatabase   = "E040" // Database could not be opened or prepared
	ErrCodeExecute    = "E041" // Query execution failed
)

// LoadError is a failure to load the catalog or a query definition.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// errorCode picks the output code for err.
func errorCode(err error) string {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Code
	}
	var re *resolve.Error
	if errors.As(err, &re) {
		return ErrCodeResolve
	}
	return ErrCodeGeneric
}

// errorDetails returns structured details of resolution errors.
func errorDetails(err error) any {
	var re *resolve.Error
	if !errors.As(err, &re) {
		return nil
	}
	details := map[string]string{"code": string(re.Code)}
	if re.Expression != "" {
		details["expression"] = re.Expression
	}
	return details
}

// LoadCatalog loads the entity catalog from a directory of CUE files.
func LoadCatalog(dir string) (*catalog.Catalog, error) {
	if dir == "" {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "--catalog is required"}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "catalog directory not found"}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Path: dir, Message: "catalog is not a directory"}
	}

	cat, err := catalog.Load(dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCatalog, Path: dir, Message: err.Error()}
	}
	return cat, nil
}

// FindDefinitionFiles expands paths into query definition files. A
// directory contributes its *.yaml and *.yml files in name order.
func FindDefinitionFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeNotFound, Path: p, Message: "query definition not found"}
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Path: p, Message: err.Error()}
		}
		var found []string
		for _, e := range entries {
			ext := strings.ToLower(filepath.Ext(e.Name()))
			if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no query definition files found"}
	}
	return files, nil
}

// LoadQuery parses and compiles one definition file against cat.
func LoadQuery(path string, cat *catalog.Catalog) (*querydef.Query, error) {
	def, err := querydef.Load(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDefinition, Path: path, Message: err.Error()}
	}
	q, err := querydef.Compile(def, cat)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeCompile, Path: path, Message: err.Error()}
	}
	return q, nil
}
