// dotsystem.go
package qlab

import (
	"fmt"
	"strconv"
	"strings"
)

// Occupation is the number of electrons on each dot.
type Occupation []int

// Equal reports whether two occupation vectors are identical.
func (o Occupation) Equal(other Occupation) bool {
	if len(o) != len(other) {
		return false
	}
	for i := range o {
		if o[i] != other[i] {
			return false
		}
	}
	return true
}

// Key returns a compact string form, e.g. "(1,0,2)", usable as a map key
// and as a region label in rendered diagrams.
func (o Occupation) Key() string {
	parts := make([]string, len(o))
	for i, n := range o {
		parts[i] = strconv.Itoa(n)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func (o Occupation) clone() Occupation {
	c := make(Occupation, len(o))
	copy(c, o)
	return c
}

/*
DotSystem describes an array of capacitively coupled quantum dots.

Each dot i carries an on-site charging energy Charging[i]; each pair
(i, j) carries an inter-site capacitive energy InterSite[i][j] and a
tunnel coupling Tunnel[i][j]. Both pair matrices are kept symmetric
with zero diagonals. Energies are in arbitrary units (typically meV,
matching the lever-arm output).

Candidate charge states are every integer vector in
[0, MaxOccupation]^NumDots, enumerated once at construction time in
lexicographic order. Enumeration order is the tie-break for degenerate
ground states.
*/
type DotSystem struct {
	NumDots       int
	MaxOccupation int
	Charging      []float64
	InterSite     [][]float64
	Tunnel        [][]float64

	states []Occupation
}

// NewDotSystem creates a system of numDots dots with up to maxOccupation
// electrons per dot. All energies start at zero.
func NewDotSystem(numDots, maxOccupation int) (*DotSystem, error) {
	if numDots < 1 {
		return nil, fmt.Errorf("dot system needs at least one dot, got %d", numDots)
	}
	if maxOccupation < 1 {
		return nil, fmt.Errorf("maximum occupation must be positive, got %d", maxOccupation)
	}

	ds := &DotSystem{
		NumDots:       numDots,
		MaxOccupation: maxOccupation,
		Charging:      make([]float64, numDots),
		InterSite:     squareMatrix(numDots),
		Tunnel:        squareMatrix(numDots),
	}
	ds.states = enumerateOccupations(numDots, maxOccupation)
	return ds, nil
}

func squareMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// enumerateOccupations lists every vector in [0, maxOcc]^numDots in
// lexicographic order, first dot most significant.
func enumerateOccupations(numDots, maxOcc int) []Occupation {
	total := 1
	for i := 0; i < numDots; i++ {
		total *= maxOcc + 1
	}

	states := make([]Occupation, 0, total)
	current := make(Occupation, numDots)
	for {
		states = append(states, current.clone())

		// Increment like an odometer, last dot fastest.
		i := numDots - 1
		for i >= 0 {
			current[i]++
			if current[i] <= maxOcc {
				break
			}
			current[i] = 0
			i--
		}
		if i < 0 {
			return states
		}
	}
}

// SetCharging sets the on-site charging energy of dot i.
func (ds *DotSystem) SetCharging(i int, u float64) {
	ds.Charging[i] = u
}

// SetInterSite sets the capacitive coupling between dots i and j,
// keeping the matrix symmetric.
func (ds *DotSystem) SetInterSite(i, j int, w float64) {
	ds.InterSite[i][j] = w
	ds.InterSite[j][i] = w
}

// SetTunnel sets the tunnel coupling between dots i and j, keeping the
// matrix symmetric.
func (ds *DotSystem) SetTunnel(i, j int, t float64) {
	ds.Tunnel[i][j] = t
	ds.Tunnel[j][i] = t
}

// States returns the candidate occupation vectors in enumeration order.
// Callers must not modify the returned slices.
func (ds *DotSystem) States() []Occupation {
	return ds.states
}

/*
Energy computes the total electrostatic energy of an occupation vector
at the given detunings:

	E(n) = Σ_i (−ε_i·n_i + ½·U_i·n_i²)
	     + Σ_{i<j} W_ij·n_i·n_j
	     − Σ_{i<j} T_ij·min(n_i, n_j)

A positive detuning pulls charge onto the dot; charging energy resists
occupation quadratically, so with no pair couplings dot i holds the
nearest integer to ε_i/U_i and charge transitions sit at half-integer
multiples of U. Inter-site coupling resists joint occupation of
neighboring dots; tunnel coupling rewards it, rounding the honeycomb
vertices.
*/
func (ds *DotSystem) Energy(occ Occupation, detunings []float64) float64 {
	e := 0.0
	for i, n := range occ {
		ni := float64(n)
		e += -detunings[i]*ni + 0.5*ds.Charging[i]*ni*ni
	}
	for i := 0; i < ds.NumDots; i++ {
		for j := i + 1; j < ds.NumDots; j++ {
			e += ds.InterSite[i][j] * float64(occ[i]) * float64(occ[j])
			e -= ds.Tunnel[i][j] * float64(min(occ[i], occ[j]))
		}
	}
	return e
}

// GroundState returns the minimum-energy occupation at the given
// detunings, together with its energy. Ties resolve to the first
// minimum in enumeration order.
func (ds *DotSystem) GroundState(detunings []float64) (Occupation, float64, error) {
	if len(detunings) != ds.NumDots {
		return nil, 0, fmt.Errorf("got %d detunings for %d dots", len(detunings), ds.NumDots)
	}

	best := ds.states[0]
	bestE := ds.Energy(best, detunings)
	for _, state := range ds.states[1:] {
		if e := ds.Energy(state, detunings); e < bestE {
			best, bestE = state, e
		}
	}
	return best, bestE, nil
}

// DoubleDot is a two-dot system with typical GaAs-scale energies:
// charging energies of a few meV and a weaker inter-site coupling.
func DoubleDot() *DotSystem {
	ds, _ := NewDotSystem(2, 2)
	ds.SetCharging(0, 3.0)
	ds.SetCharging(1, 3.0)
	ds.SetInterSite(0, 1, 0.8)
	ds.SetTunnel(0, 1, 0.1)
	return ds
}

// TripleDot is a linear three-dot array: nearest-neighbor coupling only.
func TripleDot() *DotSystem {
	ds, _ := NewDotSystem(3, 2)
	for i := 0; i < 3; i++ {
		ds.SetCharging(i, 3.0)
	}
	ds.SetInterSite(0, 1, 0.8)
	ds.SetInterSite(1, 2, 0.8)
	ds.SetTunnel(0, 1, 0.1)
	ds.SetTunnel(1, 2, 0.1)
	return ds
}
