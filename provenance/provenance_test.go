package provenance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func semiringIdentities(t *testing.T, ctx Context, sampleTag Tag) {
	t.Helper()
	combined, err := ctx.Add(ctx.Zero(), sampleTag)
	require.NoError(t, err)
	out1, err := ctx.Recover(combined)
	require.NoError(t, err)
	out2, err := ctx.Recover(sampleTag)
	require.NoError(t, err)
	assert.Equal(t, out2, out1, "add(zero, x) should equal x")

	combined, err = ctx.Mult(ctx.One(), sampleTag)
	require.NoError(t, err)
	out1, err = ctx.Recover(combined)
	require.NoError(t, err)
	assert.Equal(t, out2, out1, "mult(one, x) should equal x")

	assert.True(t, ctx.Discard(ctx.Zero()), "discard(zero) must be true")
}

func TestUnitContext_Identities(t *testing.T) {
	ctx := NewUnitContext()
	tag, err := ctx.Tagging(nil)
	require.NoError(t, err)
	semiringIdentities(t, ctx, tag)
}

func TestMinMaxProbContext_Identities(t *testing.T) {
	ctx := NewMinMaxProbContext()
	tag, err := ctx.Tagging(ProbInputTag(0.7))
	require.NoError(t, err)
	semiringIdentities(t, ctx, tag)
}

func TestMinMaxProbContext_PathProbability(t *testing.T) {
	// P(path(a,b)) on an acyclic graph equals the max-min over all paths
	// (spec §8 round-trip law): a single path a->b->c with edge
	// probabilities 0.9 and 0.8 should recover min(0.9,0.8)=0.8; a second,
	// independent path of probability 0.5 should raise the recovered
	// probability to max(0.8, 0.5)=0.8 (no change) and a path of 0.95
	// should raise it to 0.95.
	ctx := NewMinMaxProbContext()
	ab, _ := ctx.Tagging(ProbInputTag(0.9))
	bc, _ := ctx.Tagging(ProbInputTag(0.8))
	pathViaB, err := ctx.Mult(ab, bc)
	require.NoError(t, err)

	altPath, _ := ctx.Tagging(ProbInputTag(0.5))
	combined, err := ctx.Add(pathViaB, altPath)
	require.NoError(t, err)
	out, _ := ctx.Recover(combined)
	assert.InDelta(t, 0.8, out.(float64), 1e-9)

	betterPath, _ := ctx.Tagging(ProbInputTag(0.95))
	combined, err = ctx.Add(combined, betterPath)
	require.NoError(t, err)
	out, _ = ctx.Recover(combined)
	assert.InDelta(t, 0.95, out.(float64), 1e-9)
}

func TestTopKProofsContext_TruncatesToHighestProbability(t *testing.T) {
	// spec §8 scenario 5: k=2, three facts p1=0.9, p2=0.8, p3=0.1 all
	// asserting the same tuple: the stored tag keeps only the singletons
	// for p1 and p2.
	ctx := NewTopKProofsContext(2)
	p1, err := ctx.Tagging(ProbInputTag(0.9))
	require.NoError(t, err)
	p2, err := ctx.Tagging(ProbInputTag(0.8))
	require.NoError(t, err)
	p3, err := ctx.Tagging(ProbInputTag(0.1))
	require.NoError(t, err)

	combined, err := ctx.Add(p1, p2)
	require.NoError(t, err)
	combined, err = ctx.Add(combined, p3)
	require.NoError(t, err)

	f := combined.(Formula)
	assert.Len(t, f.Clauses(), 2)
	for _, c := range f.Clauses() {
		assert.Equal(t, 1, c.Len())
	}
}

func TestDisjunction_MutualExclusionSuppressesConjunction(t *testing.T) {
	// spec §8 scenario 6: facts {f1, f2} declared mutually exclusive; a
	// rule requiring both f1 and f2 (mult) yields zero under any scheme
	// honoring disjunctions.
	ctx := NewTopKProofsContext(3)
	tags, err := ctx.TaggingDisjunction([]InputTag{ProbInputTag(0.6), ProbInputTag(0.4)})
	require.NoError(t, err)
	require.Len(t, tags, 2)

	conjunction, err := ctx.Mult(tags[0], tags[1])
	require.NoError(t, err)
	assert.True(t, ctx.Discard(conjunction), "conjunction of mutually exclusive facts must be discarded")
}

func TestSemiringIdentities_AllClauseSchemes(t *testing.T) {
	schemes := []Context{
		NewTopKProofsContext(3),
		NewTopBottomKClausesContext(3),
		NewDiffTopBottomKClausesContext(3),
	}
	for _, ctx := range schemes {
		tag, err := ctx.Tagging(ProbInputTag(0.6))
		require.NoError(t, err)
		semiringIdentities(t, ctx, tag)
	}
}

func TestAddMultProbContext_ClippedArithmetic(t *testing.T) {
	ctx := NewAddMultProbContext()
	a, _ := ctx.Tagging(ProbInputTag(0.8))
	b, _ := ctx.Tagging(ProbInputTag(0.7))
	sum, err := ctx.Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, 1.0, sum.(float64), "add-mult-prob clips sums above 1")
}

func TestSampleKProofsContext_NegateUndefined(t *testing.T) {
	ctx := NewSampleKProofsContext(2, NewRNGCell(1, 2))
	tag, _ := ctx.Tagging(ProbInputTag(0.5))
	_, ok, err := ctx.Negate(tag)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, ctx.SupportsNegation())
}

func TestGenericDynamicCount_MatchesCardinality(t *testing.T) {
	ctx := NewUnitContext()
	var elems []Element
	for i := 0; i < 3; i++ {
		tag, _ := ctx.Tagging(nil)
		elems = append(elems, Element{Tag: tag})
	}
	out, err := GenericDynamicCount(ctx, elems)
	require.NoError(t, err)
	// Under unit provenance every element is unconditionally present, so
	// only count=3 should survive discard (count(R) = |R| round-trip law).
	require.Len(t, out, 1)
	assert.Equal(t, int64(3), out[0].Tuple.Value().I64())
}

func TestDiffTopBottomKClauses_GradientSign(t *testing.T) {
	ctx := NewDiffTopBottomKClausesContext(4)
	tag, err := ctx.Tagging(ProbInputTag(0.3))
	require.NoError(t, err)
	out, err := ctx.Recover(tag)
	require.NoError(t, err)
	diff := out.(DiffOutputTag)
	assert.InDelta(t, 0.3, diff.Probability, 1e-9)
	require.Len(t, diff.Gradient, 1)
	for _, g := range diff.Gradient {
		assert.InDelta(t, 1.0, g, 1e-9, "d(p)/d(p) should be 1")
	}
}
