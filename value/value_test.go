package value

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareValues_SameKind(t *testing.T) {
	c, err := CompareValues(NewI64(1), NewI64(2))
	require.NoError(t, err)
	assert.Negative(t, c)

	c, err = CompareValues(NewString("b"), NewString("a"))
	require.NoError(t, err)
	assert.Positive(t, c)

	eq, err := Equal(NewF64(1.5), NewF64(1.5))
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestCompareValues_CrossKindIsError(t *testing.T) {
	_, err := CompareValues(NewI64(1), NewString("1"))
	require.Error(t, err)
	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestEntityValue(t *testing.T) {
	id := uuid.New()
	v := NewEntity(id)
	assert.Equal(t, KindEntity, v.Kind())
	assert.Equal(t, id, v.Entity())
}

func TestCompareTuples_Lexicographic(t *testing.T) {
	a := Seq(Leaf(NewI64(1)), Leaf(NewI64(2)))
	b := Seq(Leaf(NewI64(1)), Leaf(NewI64(3)))
	c, err := CompareTuples(a, b)
	require.NoError(t, err)
	assert.Negative(t, c)

	eq, err := TuplesEqual(a, a)
	require.NoError(t, err)
	assert.True(t, eq)
}

func TestUnitTuple(t *testing.T) {
	u := Seq()
	assert.False(t, u.IsLeaf())
	assert.Equal(t, 0, u.Arity())
}

func TestTupleTypeMatches(t *testing.T) {
	tt := SeqType(LeafType(KindI64), LeafType(KindString))
	good := Seq(Leaf(NewI64(1)), Leaf(NewString("x")))
	bad := Seq(Leaf(NewString("y")), Leaf(NewString("x")))

	assert.NoError(t, tt.Validate(good))
	err := tt.Validate(bad)
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestProjectAccessor(t *testing.T) {
	t1 := Seq(
		Leaf(NewI64(10)),
		Seq(Leaf(NewString("a")), Leaf(NewString("b"))),
	)
	out, err := Project(t1, []TupleAccessor{{1, 0}, {0}})
	require.NoError(t, err)
	require.Equal(t, 2, out.Arity())
	assert.Equal(t, "a", out.Children()[0].Value().String())
	assert.Equal(t, int64(10), out.Children()[1].Value().I64())
}

func TestAccessorOutOfRange(t *testing.T) {
	t1 := Seq(Leaf(NewI64(1)))
	_, err := TupleAccessor{5}.Get(t1)
	require.ErrorIs(t, err, ErrAccessorOutOfRange)
}

func TestAccessorOnLeaf(t *testing.T) {
	_, err := TupleAccessor{0}.Get(Leaf(NewI64(1)))
	require.ErrorIs(t, err, ErrAccessorOnLeaf)
}
