package resolvers

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/resolve"
	"github.com/roach88/qbridge/internal/sqlexpr"
)

var (
	testTarget  = queryir.NewTarget("Test")
	otherTarget = queryir.NewTarget("TestOtherDomain")

	keyPath     = queryir.NewPath("key", queryir.TypeInt)
	stringPath  = queryir.NewPath("stringValue", queryir.TypeString)
	datePath    = queryir.NewPath("dateValue", queryir.TypeTime)
	nestedPath  = queryir.NewPath("nested", queryir.TypeAny).Child("nestedStringValue", queryir.TypeString)
	codePath    = queryir.NewPath("code", queryir.TypeInt)
	seqPath     = queryir.NewPath("sequence", queryir.TypeInt)
	textPath    = queryir.NewPath("text", queryir.TypeString)
	otherCode   = codePath.Of(otherTarget)
	testKeyPath = keyPath.Of(testTarget)
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.New(
		&catalog.Entity{
			Name:  "Test",
			Table: "test_data",
			Alias: "t",
			Properties: []catalog.Property{
				{Path: "key", Column: "code", Type: queryir.TypeInt},
				{Path: "stringValue", Type: queryir.TypeString},
				{Path: "dateValue", Type: queryir.TypeTime},
				{Path: "nested.nestedStringValue", Type: queryir.TypeString},
			},
		},
		&catalog.Entity{
			Name:  "TestOtherDomain",
			Table: "test_other",
			Alias: "o",
			Properties: []catalog.Property{
				{Path: "code", Type: queryir.TypeInt},
				{Path: "sequence", Column: "seq", Type: queryir.TypeInt},
				{Path: "text", Type: queryir.TypeString},
			},
		},
		&catalog.Entity{Name: "Unjoined", Table: "unjoined", Alias: "u"},
	)
	require.NoError(t, err)
	return cat
}

// baseContext is a datastore-level context: resolvers and catalog, no joins.
func baseContext(t *testing.T, extra ...resolve.Resolver) *resolve.Context {
	t.Helper()
	return resolve.NewContext(NewRegistry(extra...), testCatalog(t))
}

// queryContext is a context whose FROM entry is the given target.
func queryContext(t *testing.T, parent *resolve.Context, target *queryir.Target) *resolve.Context {
	t.Helper()
	entity, err := resolve.Must[sqlexpr.Entity](parent, target)
	require.NoError(t, err)
	return parent.Child(resolve.Join{Source: target.Name, Target: entity, Kind: resolve.JoinFrom})
}

func renderSQL(t *testing.T, s sq.Sqlizer) (string, []any) {
	t.Helper()
	sql, args, err := s.ToSql()
	require.NoError(t, err)
	return sql, args
}
