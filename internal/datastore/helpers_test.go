package datastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/qbridge/internal/catalog"
	"github.com/roach88/qbridge/internal/ir"
	"github.com/roach88/qbridge/internal/queryir"
	"github.com/roach88/qbridge/internal/store"
)

var (
	testTarget  = queryir.NewTarget("Test")
	otherTarget = queryir.NewTarget("TestOtherDomain")

	keyPath     = queryir.NewPath("key", queryir.TypeInt)
	stringPath  = queryir.NewPath("stringValue", queryir.TypeString)
	decimalPath = queryir.NewPath("decimalValue", queryir.TypeFloat)
	datePath    = queryir.NewPath("dateValue", queryir.TypeTime)
	enumPath    = queryir.NewPath("enumValue", queryir.TypeInt)
	nestedPath  = queryir.NewPath("nested", queryir.TypeAny).Child("nestedStringValue", queryir.TypeString)

	codePath = queryir.NewPath("code", queryir.TypeInt)
	seqPath  = queryir.NewPath("sequence", queryir.TypeInt)
	textPath = queryir.NewPath("text", queryir.TypeString)
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// openTestDatastore opens a seeded SQLite datastore:
//
//	test_data:  1 One   7.4  2024-03-05 enum 0 neststr1
//	            2 Two   12.65 2024-06-15 enum 1 neststr2
//	            3 Three NULL NULL       enum 1 NULL
//	test_other: (1, 10, a) (1, 20, b) (2, 30, c)
func openTestDatastore(t *testing.T, opts ...Option) *Datastore {
	t.Helper()

	schema, err := os.ReadFile(filepath.Join("testdata", "schema.sql"))
	require.NoError(t, err)
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.WithSchema(string(schema)))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	cat, err := catalog.Load(filepath.Join("testdata", "catalog"))
	require.NoError(t, err)

	ds := New(st, cat, opts...)
	ctx := context.Background()

	seed := []struct {
		key     int64
		str     string
		decimal any
		date    any
		enum    int64
		nested  any
	}{
		{1, "One", 7.4, date(2024, time.March, 5), 0, "neststr1"},
		{2, "Two", 12.65, date(2024, time.June, 15), 1, "neststr2"},
		{3, "Three", nil, nil, 1, nil},
	}
	for _, s := range seed {
		_, err := ds.Insert(testTarget).
			Set(keyPath, s.key).
			Set(stringPath, s.str).
			Set(decimalPath, s.decimal).
			Set(datePath, s.date).
			Set(enumPath, s.enum).
			Set(nestedPath, s.nested).
			Execute(ctx)
		require.NoError(t, err)
	}

	others := []struct {
		code, seq int64
		text      string
	}{{1, 10, "a"}, {1, 20, "b"}, {2, 30, "c"}}
	for _, o := range others {
		_, err := ds.Insert(otherTarget).
			Set(codePath, o.code).
			Set(seqPath, o.seq).
			Set(textPath, o.text).
			Execute(ctx)
		require.NoError(t, err)
	}
	return ds
}

func keys(t *testing.T, rows []Row) []int64 {
	t.Helper()
	out := make([]int64, len(rows))
	for i, r := range rows {
		v, ok := r.Get("key")
		require.True(t, ok, "row has no key column")
		n, ok := v.(ir.Int)
		require.True(t, ok, "key is %T", v)
		out[i] = int64(n)
	}
	return out
}
