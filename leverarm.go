// leverarm.go
package qlab

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrSingularLeverArm is returned when a lever-arm matrix cannot be
// inverted; voltage/detuning conversion is aborted, never approximated.
var ErrSingularLeverArm = errors.New("lever-arm matrix is singular")

/*
LeverArm is the cross-capacitance matrix relating applied gate voltages
to effective dot detunings: ε = A·v. Row i holds the lever arms of every
gate onto dot i, so the diagonal carries the dominant plunger couplings
and off-diagonal entries the cross-talk.
*/
type LeverArm struct {
	m *mat.Dense
}

// NewLeverArm builds an n×n lever-arm matrix from row-major elements.
func NewLeverArm(n int, elements []float64) (*LeverArm, error) {
	if len(elements) != n*n {
		return nil, fmt.Errorf("lever arm needs %d elements, got %d", n*n, len(elements))
	}
	return &LeverArm{m: mat.NewDense(n, n, elements)}, nil
}

// IdentityLeverArm couples each gate only to its own dot with unit gain.
func IdentityLeverArm(n int) *LeverArm {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return &LeverArm{m: m}
}

// Dots returns the dimension of the matrix.
func (la *LeverArm) Dots() int {
	r, _ := la.m.Dims()
	return r
}

// At returns element (i, j).
func (la *LeverArm) At(i, j int) float64 {
	return la.m.At(i, j)
}

// DetuningsFromVoltages applies the forward map ε = A·v.
func (la *LeverArm) DetuningsFromVoltages(voltages []float64) ([]float64, error) {
	n := la.Dots()
	if len(voltages) != n {
		return nil, fmt.Errorf("got %d gate voltages for %d dots", len(voltages), n)
	}

	var eps mat.VecDense
	eps.MulVec(la.m, mat.NewVecDense(n, voltages))

	out := make([]float64, n)
	copy(out, eps.RawVector().Data)
	return out, nil
}

// VoltagesFromDetunings inverts the map, solving A·v = ε. A singular or
// near-singular matrix surfaces ErrSingularLeverArm.
func (la *LeverArm) VoltagesFromDetunings(detunings []float64) ([]float64, error) {
	n := la.Dots()
	if len(detunings) != n {
		return nil, fmt.Errorf("got %d detunings for %d dots", len(detunings), n)
	}

	var v mat.VecDense
	if err := v.SolveVec(la.m, mat.NewVecDense(n, detunings)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularLeverArm, err)
	}

	out := make([]float64, n)
	copy(out, v.RawVector().Data)
	return out, nil
}
