package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbridge/internal/queryir"
)

func TestLoad_Testdata(t *testing.T) {
	cat, err := Load("testdata")
	require.NoError(t, err)

	test, ok := cat.Entity("Test")
	require.True(t, ok)
	assert.Equal(t, "test_data", test.Table)
	assert.Equal(t, "t", test.Alias)
	assert.Equal(t, []string{
		"key",
		"stringValue",
		"decimalValue",
		"dateValue",
		"enumValue",
		"nested.nestedStringValue",
		"nested.subNested.subnestedStringValue",
	}, test.Paths())
	assert.Equal(t, "code", test.Column("key"))

	date, ok := test.Property("dateValue")
	require.True(t, ok)
	assert.Equal(t, queryir.TypeTime, date.Type)

	other, ok := cat.Entity("TestOtherDomain")
	require.True(t, ok)
	assert.Equal(t, "seq", other.Column("sequence"))
}

func TestParse_Defaults(t *testing.T) {
	src := []byte(`
entity: OrderLine: {
	properties: {
		unitPrice: {type: "float"}
	}
}
`)
	cat, err := Parse(src, "inline.cue")
	require.NoError(t, err)

	e, ok := cat.Entity("OrderLine")
	require.True(t, ok)
	assert.Equal(t, "order_line", e.Table)
	assert.Equal(t, "order_line", e.Alias)
	assert.Equal(t, "unit_price", e.Column("unitPrice"))
}

func TestParse_UnknownType(t *testing.T) {
	src := []byte(`
entity: Bad: {
	properties: {
		blob: {type: "blob"}
	}
}
`)
	_, err := Parse(src, "bad.cue")
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "entity.Bad.properties.blob.type", loadErr.Field)
	assert.True(t, loadErr.Pos.IsValid())
}

func TestParse_NoEntities(t *testing.T) {
	_, err := Parse([]byte(`other: 1`), "empty.cue")
	assert.ErrorContains(t, err, "no entities declared")
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse([]byte(`entity: {`), "broken.cue")
	require.Error(t, err)

	var loadErr *LoadError
	assert.True(t, errors.As(err, &loadErr))
}

func TestLoad_MissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorContains(t, err, "failed to access catalog directory")
}

func TestLoad_NoFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644))

	_, err := Load(dir)
	assert.ErrorContains(t, err, "no CUE files found")
}
