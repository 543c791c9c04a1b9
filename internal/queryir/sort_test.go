package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenSort_Associative(t *testing.T) {
	a := Asc(NewPath("a", TypeInt))
	b := Desc(NewPath("b", TypeInt))
	c := Asc(NewPath("c", TypeInt))

	left := FlattenSort(Compose(Compose(a, b), c))
	right := FlattenSort(Compose(a, Compose(b, c)))

	want := []*PathSort{a, b, c}
	assert.Equal(t, want, left)
	assert.Equal(t, want, right)
}

func TestFlattenSort_KeepsDuplicates(t *testing.T) {
	a := Asc(NewPath("a", TypeInt))
	got := FlattenSort(Compose(a, Compose(a)))
	assert.Equal(t, []*PathSort{a, a}, got)
}

func TestFlattenSort_Leaf(t *testing.T) {
	a := Asc(NewPath("a", TypeInt))
	assert.Equal(t, []*PathSort{a}, FlattenSort(a))
	assert.Empty(t, FlattenSort(nil))
}

func TestSort_Validate(t *testing.T) {
	assert.Error(t, Compose().Validate())
	assert.Error(t, (&PathSort{}).Validate())
	assert.NoError(t, Compose(Asc(NewPath("a", TypeInt))).Validate())
	assert.NoError(t, Compose(Compose(Asc(NewPath("a", TypeInt))), Desc(NewPath("b", TypeInt))).Validate())
}

func TestSort_ValidateNestedEmpty(t *testing.T) {
	a := Asc(NewPath("a", TypeInt))

	err := Compose(Compose(), a).Validate()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "empty sort composition", verr.Message)

	assert.Error(t, Compose(a, Compose(Compose())).Validate())
}

func TestSort_String(t *testing.T) {
	s := Compose(Asc(NewPath("a", TypeInt)), Desc(NewPath("b", TypeInt)))
	assert.Equal(t, "a ASC, b DESC", s.String())
}

func TestConfiguration_Sort(t *testing.T) {
	a := Asc(NewPath("a", TypeInt))
	b := Desc(NewPath("b", TypeInt))
	cfg := &Configuration{Target: NewTarget("T")}
	assert.Nil(t, cfg.Sort())

	cfg.Sorts = []Sort{a}
	assert.Same(t, a, cfg.Sort())

	cfg.Sorts = []Sort{a, b}
	assert.Equal(t, []*PathSort{a, b}, FlattenSort(cfg.Sort()))
}
