package qlab

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLeverArm(t *testing.T) {
	Convey("Given a lever-arm matrix", t, func() {
		Convey("It requires n*n elements", func() {
			_, err := NewLeverArm(2, []float64{1, 2, 3})
			So(err, ShouldNotBeNil)
		})

		Convey("Voltage to detuning and back is the identity", func() {
			la, err := NewLeverArm(2, []float64{
				1.0, 0.2,
				0.1, 0.9,
			})
			So(err, ShouldBeNil)

			voltages := []float64{1.5, -0.3}
			detunings, err := la.DetuningsFromVoltages(voltages)
			So(err, ShouldBeNil)
			So(detunings[0], ShouldAlmostEqual, 1.5*1.0+(-0.3)*0.2)
			So(detunings[1], ShouldAlmostEqual, 1.5*0.1+(-0.3)*0.9)

			back, err := la.VoltagesFromDetunings(detunings)
			So(err, ShouldBeNil)
			So(back[0], ShouldAlmostEqual, voltages[0])
			So(back[1], ShouldAlmostEqual, voltages[1])
		})

		Convey("The identity lever arm passes voltages through", func() {
			la := IdentityLeverArm(3)
			detunings, err := la.DetuningsFromVoltages([]float64{1, 2, 3})
			So(err, ShouldBeNil)
			So(detunings, ShouldResemble, []float64{1, 2, 3})
		})

		Convey("A singular matrix fails the inverse direction", func() {
			la, err := NewLeverArm(2, []float64{
				1, 1,
				1, 1,
			})
			So(err, ShouldBeNil)

			// Forward still works.
			_, err = la.DetuningsFromVoltages([]float64{1, 2})
			So(err, ShouldBeNil)

			_, err = la.VoltagesFromDetunings([]float64{1, 2})
			So(err, ShouldNotBeNil)
			So(errors.Is(err, ErrSingularLeverArm), ShouldBeTrue)
		})

		Convey("Dimension mismatches are rejected", func() {
			la := IdentityLeverArm(2)
			_, err := la.DetuningsFromVoltages([]float64{1})
			So(err, ShouldNotBeNil)
			_, err = la.VoltagesFromDetunings([]float64{1, 2, 3})
			So(err, ShouldNotBeNil)
		})
	})
}
