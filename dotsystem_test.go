package qlab

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDotSystem(t *testing.T) {
	Convey("Given a dot system", t, func() {
		Convey("Construction rejects nonsense sizes", func() {
			_, err := NewDotSystem(0, 2)
			So(err, ShouldNotBeNil)
			_, err = NewDotSystem(2, 0)
			So(err, ShouldNotBeNil)
		})

		Convey("It enumerates every bounded occupation exactly once", func() {
			ds, err := NewDotSystem(2, 2)
			So(err, ShouldBeNil)

			states := ds.States()
			So(len(states), ShouldEqual, 9)

			seen := map[string]bool{}
			for _, s := range states {
				seen[s.Key()] = true
			}
			So(len(seen), ShouldEqual, 9)

			// Lexicographic order, first dot most significant.
			So(states[0].Key(), ShouldEqual, "(0,0)")
			So(states[1].Key(), ShouldEqual, "(0,1)")
			So(states[3].Key(), ShouldEqual, "(1,0)")
			So(states[8].Key(), ShouldEqual, "(2,2)")
		})

		Convey("With no couplings the dots fill independently", func() {
			const charging = 3.0
			ds, err := NewDotSystem(2, 3)
			So(err, ShouldBeNil)
			ds.SetCharging(0, charging)
			ds.SetCharging(1, charging)

			// Ground state per dot: the nearest integer to eps/U,
			// clamped to the occupation bound. Detunings avoid
			// half-integer multiples of U, where adjacent occupations
			// are degenerate.
			for _, eps := range []float64{-4.2, -1.0, 0.7, 1.6, 3.1, 4.4, 7.9, 8.9, 100.0} {
				expected := int(math.Round(eps / charging))
				if expected < 0 {
					expected = 0
				}
				if expected > 3 {
					expected = 3
				}

				occ, _, err := ds.GroundState([]float64{eps, eps})
				So(err, ShouldBeNil)
				So(occ[0], ShouldEqual, expected)
				So(occ[1], ShouldEqual, expected)
			}
		})

		Convey("Charge transitions sit at half-integer detuning ratios", func() {
			ds, err := NewDotSystem(1, 3)
			So(err, ShouldBeNil)
			ds.SetCharging(0, 3.0)

			// Adding electron n+1 pays (n+1/2)*U, so a ratio eps/U of
			// 0.3 holds zero electrons and 1.2 holds one.
			cases := []struct {
				ratio    float64
				expected int
			}{
				{0.3, 0},
				{0.7, 1},
				{1.2, 1},
				{2.3, 2},
				{2.6, 3},
			}
			for _, c := range cases {
				occ, _, err := ds.GroundState([]float64{c.ratio * 3.0})
				So(err, ShouldBeNil)
				So(occ[0], ShouldEqual, c.expected)
			}
		})

		Convey("Occupations stay within bounds for extreme detunings", func() {
			ds := DoubleDot()
			for _, eps := range []float64{-1e6, 0, 1e6} {
				occ, _, err := ds.GroundState([]float64{eps, -eps})
				So(err, ShouldBeNil)
				for _, n := range occ {
					So(n, ShouldBeGreaterThanOrEqualTo, 0)
					So(n, ShouldBeLessThanOrEqualTo, ds.MaxOccupation)
				}
			}
		})

		Convey("Degenerate minima resolve to the first enumerated state", func() {
			ds, err := NewDotSystem(2, 2)
			So(err, ShouldBeNil)
			ds.SetCharging(0, 3.0)
			ds.SetCharging(1, 3.0)

			// At eps = U/2 each dot is indifferent between zero and one
			// electron, so four states tie at zero energy; enumeration
			// order picks (0,0).
			occ, energy, err := ds.GroundState([]float64{1.5, 1.5})
			So(err, ShouldBeNil)
			So(occ.Key(), ShouldEqual, "(0,0)")
			So(energy, ShouldEqual, 0.0)
		})

		Convey("Inter-site coupling delays joint occupation", func() {
			ds, err := NewDotSystem(2, 1)
			So(err, ShouldBeNil)
			ds.SetCharging(0, 3.0)
			ds.SetCharging(1, 3.0)
			ds.SetInterSite(0, 1, 1.0)

			// Each dot alone charges past eps=1.5, but paying the
			// mutual coupling is not worth it yet for both.
			occ, _, err := ds.GroundState([]float64{2.0, 1.9})
			So(err, ShouldBeNil)
			So(occ.Key(), ShouldEqual, "(1,0)")

			// Far past the coupling both dots fill.
			occ, _, err = ds.GroundState([]float64{3.5, 3.5})
			So(err, ShouldBeNil)
			So(occ.Key(), ShouldEqual, "(1,1)")
		})

		Convey("Detuning count must match the dot count", func() {
			ds := DoubleDot()
			_, _, err := ds.GroundState([]float64{1.0})
			So(err, ShouldNotBeNil)
		})
	})
}
