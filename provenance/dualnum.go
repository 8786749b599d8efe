package provenance

import "github.com/google/uuid"

// DualNum is a dual number carrying a value and its partial derivatives
// with respect to a set of named external ids — the "dual-number
// semiring" spec §4.1 calls for in the differentiable schemes' recover
// step. It generalizes the usual single-variable dual number (a + bε) to
// one gradient component per input fact's external id, since WMC here is
// differentiated against every probabilistic input simultaneously.
type DualNum struct {
	Value float64
	Grad  map[uuid.UUID]float64
}

// ConstDual wraps a plain float with a zero gradient.
func ConstDual(v float64) DualNum { return DualNum{Value: v, Grad: map[uuid.UUID]float64{}} }

// VarDual is the dual number for a single probabilistic input fact: value
// p, derivative 1 with respect to its own external id.
func VarDual(p float64, id uuid.UUID) DualNum {
	return DualNum{Value: p, Grad: map[uuid.UUID]float64{id: 1}}
}

// dualAdd sums two dual numbers: value and gradient both add linearly.
func dualAdd(a, b DualNum) DualNum {
	out := DualNum{Value: a.Value + b.Value, Grad: mergeGrad(a.Grad, b.Grad, 1, 1)}
	return out
}

// dualSub subtracts b from a.
func dualSub(a, b DualNum) DualNum {
	return DualNum{Value: a.Value - b.Value, Grad: mergeGrad(a.Grad, b.Grad, 1, -1)}
}

// dualMul multiplies two dual numbers via the product rule:
// d(ab) = a'b + ab'.
func dualMul(a, b DualNum) DualNum {
	grad := make(map[uuid.UUID]float64, len(a.Grad)+len(b.Grad))
	for id, da := range a.Grad {
		grad[id] += da * b.Value
	}
	for id, db := range b.Grad {
		grad[id] += a.Value * db
	}
	return DualNum{Value: a.Value * b.Value, Grad: grad}
}

// dualOneMinus returns 1 - a.
func dualOneMinus(a DualNum) DualNum {
	grad := make(map[uuid.UUID]float64, len(a.Grad))
	for id, d := range a.Grad {
		grad[id] = -d
	}
	return DualNum{Value: 1 - a.Value, Grad: grad}
}

func mergeGrad(a, b map[uuid.UUID]float64, sa, sb float64) map[uuid.UUID]float64 {
	grad := make(map[uuid.UUID]float64, len(a)+len(b))
	for id, d := range a {
		grad[id] += sa * d
	}
	for id, d := range b {
		grad[id] += sb * d
	}
	return grad
}
