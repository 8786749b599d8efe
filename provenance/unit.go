package provenance

// unitTag is the trivial tag carried by the "unit" scheme: mere presence,
// no weight. Negate(one) = zero (and vice versa is unreachable: a
// discarded element is never stored), which is what makes antijoin and
// difference behave as ordinary set operations under this scheme.
type unitTag struct{ present bool }

// UnitContext implements the "unit" scheme of spec §4.1: tag is (), all
// operations trivial, discard is always false for a present tag.
type UnitContext struct{}

// NewUnitContext returns a fresh unit-scheme Context. There is no
// scheme-wide state to carry.
func NewUnitContext() *UnitContext { return &UnitContext{} }

func (c *UnitContext) Name() string { return "unit" }

func (c *UnitContext) Zero() Tag { return unitTag{present: false} }
func (c *UnitContext) One() Tag  { return unitTag{present: true} }

func (c *UnitContext) Tagging(InputTag) (Tag, error) { return c.One(), nil }

func (c *UnitContext) TaggingDisjunction(inputs []InputTag) ([]Tag, error) {
	out := make([]Tag, len(inputs))
	for i := range inputs {
		out[i] = c.One()
	}
	return out, nil
}

func (c *UnitContext) Add(a, b Tag) (Tag, error) {
	return unitTag{present: a.(unitTag).present || b.(unitTag).present}, nil
}

func (c *UnitContext) Mult(a, b Tag) (Tag, error) {
	return unitTag{present: a.(unitTag).present && b.(unitTag).present}, nil
}

func (c *UnitContext) Negate(a Tag) (Tag, bool, error) {
	return unitTag{present: !a.(unitTag).present}, true, nil
}

func (c *UnitContext) Minus(a, b Tag) (Tag, bool, error) {
	neg, _, _ := c.Negate(b)
	t, err := c.Mult(a, neg)
	return t, true, err
}

func (c *UnitContext) Discard(a Tag) bool { return !a.(unitTag).present }

func (c *UnitContext) AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error) {
	// Presence is idempotent: a tuple already stable never needs to proceed
	// again once re-derived.
	return stable, Stable, nil
}

func (c *UnitContext) Recover(a Tag) (OutputTag, error) {
	return a.(unitTag).present, nil
}

func (c *UnitContext) SupportsNegation() bool { return true }

func (c *UnitContext) DynamicCount(elems []Element) ([]Element, error) {
	return GenericDynamicCount(c, elems)
}
func (c *UnitContext) DynamicMin(elems []Element) ([]Element, error) {
	return GenericDynamicMin(c, elems)
}
func (c *UnitContext) DynamicMax(elems []Element) ([]Element, error) {
	return GenericDynamicMax(c, elems)
}
func (c *UnitContext) DynamicExists(elems []Element) ([]Element, error) {
	return GenericDynamicExists(c, elems)
}
