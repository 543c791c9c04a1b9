package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qbridge/internal/queryir"
)

// LoadError reports a problem in a catalog source, with the CUE position
// when one is known.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load builds a catalog from the CUE package in dir.
func Load(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path is not a directory: %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan catalog directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, formatCUEError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	return compile(value)
}

// Parse builds a catalog from CUE source text.
func Parse(src []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src, cue.Filename(filename))
	return compile(value)
}

func compile(value cue.Value) (*Catalog, error) {
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	entitiesVal := value.LookupPath(cue.ParsePath("entity"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Field: "entity", Message: "no entities declared", Pos: value.Pos()}
	}

	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var entities []*Entity
	for iter.Next() {
		e, err := compileEntity(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		entities = append(entities, e)
	}
	return New(entities...)
}

func compileEntity(name string, v cue.Value) (*Entity, error) {
	e := NewEntity(name)

	if tv := v.LookupPath(cue.ParsePath("table")); tv.Exists() {
		table, err := tv.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		e.Table = table
	}
	if av := v.LookupPath(cue.ParsePath("alias")); av.Exists() {
		alias, err := av.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		e.Alias = alias
	}

	propsVal := v.LookupPath(cue.ParsePath("properties"))
	if !propsVal.Exists() {
		return e, nil
	}
	iter, err := propsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		prop, err := compileProperty(name, iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		e.Properties = append(e.Properties, prop)
	}
	return e, nil
}

func compileProperty(entity, path string, v cue.Value) (Property, error) {
	prop := Property{Path: path}

	if tv := v.LookupPath(cue.ParsePath("type")); tv.Exists() {
		name, err := tv.String()
		if err != nil {
			return prop, formatCUEError(err)
		}
		t, err := queryir.ParseType(name)
		if err != nil {
			return prop, &LoadError{
				Field:   fmt.Sprintf("entity.%s.properties.%s.type", entity, path),
				Message: err.Error(),
				Pos:     tv.Pos(),
			}
		}
		prop.Type = t
	}
	if cv := v.LookupPath(cue.ParsePath("column")); cv.Exists() {
		col, err := cv.String()
		if err != nil {
			return prop, formatCUEError(err)
		}
		prop.Column = col
	}
	return prop, nil
}

// formatCUEError converts the first CUE error to a LoadError carrying its
// position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
