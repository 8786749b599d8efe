package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/value"
)

func i64(v int64) value.Tuple { return value.Leaf(value.NewI64(v)) }

func TestBatch_SearchAhead(t *testing.T) {
	b, err := SortedBatch([]provenance.Element{
		{Tuple: i64(1)}, {Tuple: i64(3)}, {Tuple: i64(5)}, {Tuple: i64(7)}, {Tuple: i64(9)},
	})
	require.NoError(t, err)

	lessThan := func(target int64) func(value.Tuple) bool {
		return func(tup value.Tuple) bool { return tup.Value().I64() < target }
	}
	assert.Equal(t, 2, b.SearchAhead(lessThan(5)))
	assert.Equal(t, 0, b.SearchAhead(lessThan(0)))
	assert.Equal(t, 5, b.SearchAhead(lessThan(100)))
}

func TestRelation_InsertUntaggedAndChanged_PromotesToRecent(t *testing.T) {
	ctx := provenance.NewUnitContext()
	r := New("p", value.LeafType(value.KindI64))

	require.NoError(t, r.InsertUntagged(ctx, []value.Tuple{i64(1), i64(2)}))
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, r.Recent().Len())
	assert.Equal(t, 2, r.Stable().Len())

	// A second changed() with nothing new staged reports no change.
	changed, err = r.Changed(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, r.Recent().Empty())
	assert.Equal(t, 2, r.Stable().Len())
}

func TestRelation_Changed_DedupesAndDiscardsWithinToAdd(t *testing.T) {
	ctx := provenance.NewUnitContext()
	r := New("p", value.LeafType(value.KindI64))

	// Two facts for the same tuple are folded together by canonicalize's
	// ctx.Add before ever reaching stable.
	require.NoError(t, r.InsertUntagged(ctx, []value.Tuple{i64(1), i64(1)}))
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, r.Stable().Len())
}

func TestRelation_Changed_RederivingAStableFactDoesNotReproceed(t *testing.T) {
	ctx := provenance.NewUnitContext()
	r := New("p", value.LeafType(value.KindI64))

	require.NoError(t, r.InsertUntagged(ctx, []value.Tuple{i64(1)}))
	_, err := r.Changed(ctx)
	require.NoError(t, err)
	_, err = r.Changed(ctx) // promote recent -> stable
	require.NoError(t, err)

	// Re-derive the same fact: under unit provenance AddWithProceeding
	// always reports Stable, so it must not resurrect as recent.
	require.NoError(t, r.InsertUntagged(ctx, []value.Tuple{i64(1)}))
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, r.Stable().Len())
}

func TestRelation_Changed_ProbabilisticImprovementUpdatesStableInPlace(t *testing.T) {
	// add_with_proceeding reports Stable whenever the combined tag equals
	// either operand (spec §4.1's table); under min-max-prob's idempotent
	// max, a strictly-better derivation still equals the incoming operand
	// exactly, so it is folded into stable in place without flagging a
	// fresh "recent" event for this tuple.
	ctx := provenance.NewMinMaxProbContext()
	r := New("p", value.LeafType(value.KindI64))

	require.NoError(t, r.InsertTagged(ctx, []TaggedFact{{Tuple: i64(1), Input: provenance.ProbInputTag(0.3)}}))
	_, err := r.Changed(ctx)
	require.NoError(t, err)
	_, err = r.Changed(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, r.Stable().Len())
	assert.InDelta(t, 0.3, r.Stable().At(0).Tag.(float64), 1e-9)

	require.NoError(t, r.InsertTagged(ctx, []TaggedFact{{Tuple: i64(1), Input: provenance.ProbInputTag(0.9)}}))
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.InDelta(t, 0.9, r.Stable().At(0).Tag.(float64), 1e-9)
}

func TestRelation_Changed_NonIdempotentAddAlwaysProceeds(t *testing.T) {
	// add-mult-prob's Add (clipped +) is not idempotent, so a genuinely new
	// contribution to an existing stable tuple combines to a value equal
	// to neither operand, and must proceed.
	ctx := provenance.NewAddMultProbContext()
	r := New("p", value.LeafType(value.KindI64))

	require.NoError(t, r.InsertTagged(ctx, []TaggedFact{{Tuple: i64(1), Input: provenance.ProbInputTag(0.3)}}))
	_, err := r.Changed(ctx)
	require.NoError(t, err)
	_, err = r.Changed(ctx)
	require.NoError(t, err)

	require.NoError(t, r.InsertTagged(ctx, []TaggedFact{{Tuple: i64(1), Input: provenance.ProbInputTag(0.2)}}))
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.InDelta(t, 0.5, r.Stable().At(0).Tag.(float64), 1e-9)
}

func TestRelation_InsertTaggedDisjunction_RegistersGroup(t *testing.T) {
	ctx := provenance.NewTopKProofsContext(3)
	r := New("p", value.LeafType(value.KindI64))

	require.NoError(t, r.InsertTaggedDisjunction(ctx, []TaggedFact{
		{Tuple: i64(1), Input: provenance.ProbInputTag(0.6)},
		{Tuple: i64(2), Input: provenance.ProbInputTag(0.4)},
	}))
	changed, err := r.Changed(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 2, r.Recent().Len())
}

func TestRelation_TypeValidation_RejectsMismatchedTuple(t *testing.T) {
	ctx := provenance.NewUnitContext()
	r := New("p", value.LeafType(value.KindI64))
	err := r.InsertUntagged(ctx, []value.Tuple{value.Leaf(value.NewString("oops"))})
	require.Error(t, err)
	var typeErr *value.TypeError
	assert.ErrorAs(t, err, &typeErr)
}
