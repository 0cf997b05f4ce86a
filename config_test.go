package qlab

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDotSystemYAML(t *testing.T) {
	Convey("Given a YAML dot-system definition", t, func() {
		Convey("A full definition parses with its lever arm", func() {
			ds, la, err := parseDotSystemYAML([]byte(`
dots: 2
max_occupation: 3
charging: [3.0, 2.8]
inter_site:
  - dots: [0, 1]
    value: 0.8
tunnel:
  - dots: [0, 1]
    value: 0.1
lever_arm:
  - [1.0, 0.2]
  - [0.2, 1.0]
`))
			So(err, ShouldBeNil)
			So(ds.NumDots, ShouldEqual, 2)
			So(ds.MaxOccupation, ShouldEqual, 3)
			So(ds.Charging, ShouldResemble, []float64{3.0, 2.8})
			So(ds.InterSite[0][1], ShouldEqual, 0.8)
			So(ds.InterSite[1][0], ShouldEqual, 0.8)
			So(ds.Tunnel[0][1], ShouldEqual, 0.1)
			So(la, ShouldNotBeNil)
			So(la.At(0, 1), ShouldEqual, 0.2)
		})

		Convey("The lever arm is optional", func() {
			ds, la, err := parseDotSystemYAML([]byte("dots: 3\ncharging: [3, 3, 3]\n"))
			So(err, ShouldBeNil)
			So(ds.NumDots, ShouldEqual, 3)
			So(ds.MaxOccupation, ShouldEqual, 2)
			So(la, ShouldBeNil)
		})

		Convey("Mismatched charging lengths are rejected", func() {
			_, _, err := parseDotSystemYAML([]byte("dots: 2\ncharging: [3]\n"))
			So(err, ShouldNotBeNil)
		})

		Convey("Couplings must reference valid dot pairs", func() {
			_, _, err := parseDotSystemYAML([]byte(`
dots: 2
inter_site:
  - dots: [0, 5]
    value: 1.0
`))
			So(err, ShouldNotBeNil)

			_, _, err = parseDotSystemYAML([]byte(`
dots: 2
tunnel:
  - dots: [1, 1]
    value: 1.0
`))
			So(err, ShouldNotBeNil)
		})

		Convey("Ragged lever-arm rows are rejected", func() {
			_, _, err := parseDotSystemYAML([]byte(`
dots: 2
lever_arm:
  - [1.0, 0.2]
  - [0.2]
`))
			So(err, ShouldNotBeNil)
		})

		Convey("Malformed YAML surfaces a parse error", func() {
			_, _, err := parseDotSystemYAML([]byte("dots: [not a number"))
			So(err, ShouldNotBeNil)
		})
	})
}
