package qlab

import (
	"errors"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSweepVector(t *testing.T) {
	Convey("Given sweep data", t, func() {
		p := NewManualParameter("p", 0)

		Convey("Default vectors exclude the end value", func() {
			values, err := SweepData{Start: -2, End: 2, Step: 0.4}.Vector(p, 0)
			So(err, ShouldBeNil)
			So(len(values), ShouldEqual, 10)
			expected := []float64{-2.0, -1.6, -1.2, -0.8, -0.4, 0.0, 0.4, 0.8, 1.2, 1.6}
			for i, v := range values {
				So(v, ShouldAlmostEqual, expected[i], 1e-12)
			}
		})

		Convey("A span below one step yields a single point", func() {
			values, err := SweepData{Start: 20, End: 20.0050, Step: 0.0075}.Vector(p, 0)
			So(err, ShouldBeNil)
			So(values, ShouldResemble, []float64{20.0})
		})

		Convey("An explicit length includes the end value", func() {
			values, err := SweepData{Start: -2, End: 2, Step: 0.4}.Vector(p, 11)
			So(err, ShouldBeNil)
			So(len(values), ShouldEqual, 11)
			So(values[0], ShouldEqual, -2.0)
			So(values[10], ShouldEqual, 2.0)
		})

		Convey("An explicit length adjusts the step", func() {
			values, err := SweepData{Start: -2, End: 2, Step: 0.4}.Vector(p, 5)
			So(err, ShouldBeNil)
			So(len(values), ShouldEqual, 5)
			for i, expected := range []float64{-2.0, -1.0, 0.0, 1.0, 2.0} {
				So(values[i], ShouldAlmostEqual, expected, 1e-12)
			}
		})

		Convey("Non-integral spans keep the step and land short of the end", func() {
			values, err := SweepData{Start: -20, End: 20, Step: 0.0075}.Vector(p, 0)
			So(err, ShouldBeNil)
			So(len(values), ShouldEqual, 5334)
			So(values[0], ShouldEqual, -20.0)
			So(values[len(values)-1], ShouldAlmostEqual, 20.0-0.0025, 1e-10)

			values, err = SweepData{Start: -500, End: 1, Step: 0.8}.Vector(p, 0)
			So(err, ShouldBeNil)
			So(len(values), ShouldEqual, 627)
			So(values[0], ShouldEqual, -500.0)
			So(values[len(values)-1], ShouldAlmostEqual, 1-0.2, 1e-10)
		})

		Convey("Range sweeps center on the current setpoint", func() {
			values, err := SweepData{Range: 8, Step: 2}.Vector(p, 0)
			So(err, ShouldBeNil)
			for i, expected := range []float64{-4.0, -2.0, 0.0, 2.0} {
				So(values[i], ShouldAlmostEqual, expected, 1e-12)
			}

			So(p.Set(10), ShouldBeNil)
			values, err = SweepData{Range: 8, Step: 2}.Vector(p, 0)
			So(err, ShouldBeNil)
			for i, expected := range []float64{6.0, 8.0, 10.0, 12.0} {
				So(values[i], ShouldAlmostEqual, expected, 1e-12)
			}
			So(p.Set(0), ShouldBeNil)

			inclusive, err := SweepData{Range: 8, Step: 2}.Vector(p, 5)
			So(err, ShouldBeNil)
			for i, expected := range []float64{-4.0, -2.0, 0.0, 2.0, 4.0} {
				So(inclusive[i], ShouldAlmostEqual, expected, 1e-12)
			}
		})

		Convey("Descending sweeps need a negative step", func() {
			values, err := SweepData{Start: 714.84130859375, End: 709.84130859375, Step: -0.01098901098901099}.Vector(p, 0)
			So(err, ShouldBeNil)
			So(values[0], ShouldAlmostEqual, 714.84130859375, 1e-12)
			So(values[len(values)-1], ShouldBeGreaterThan, 709.84130859375)

			_, err = SweepData{Start: 0, End: 10, Step: -1}.Vector(p, 0)
			So(err, ShouldNotBeNil)
		})

		Convey("Zero spans are rejected", func() {
			_, err := SweepData{Start: 20, End: 20, Step: 0.0075}.Vector(p, 0)
			So(err, ShouldNotBeNil)
			_, err = SweepData{Start: 20, End: 20, Step: 0.0075}.Vector(p, 1)
			So(err, ShouldNotBeNil)
		})

		Convey("Two-dimensional scan axes convert independently", func() {
			stepValues, err := SweepData{Start: 24, End: 32, Step: 1}.Vector(p, 3)
			So(err, ShouldBeNil)
			So(stepValues, ShouldResemble, []float64{24.0, 28.0, 32.0})

			sweepValues, err := SweepData{Start: 0, End: 10, Step: 4}.Vector(p, 5)
			So(err, ShouldBeNil)
			So(sweepValues, ShouldResemble, []float64{0, 2.5, 5.0, 7.5, 10.0})
		})
	})
}

func TestScan1D(t *testing.T) {
	Convey("Given a station", t, func() {
		p := NewManualParameter("p", 0)
		station := NewStation(p)

		Convey("It sweeps and measures", func() {
			r := NewScaledParameter(p, 4)
			job := &ScanJob{
				Sweep:    SweepData{Param: p, Start: 0, End: 10, Step: 2},
				Measure:  []Parameter{r},
				Metadata: map[string]any{"hi": "world"},
			}

			ds, err := Scan1D(station, job)
			So(err, ShouldBeNil)
			So(ds.Metadata["hi"], ShouldEqual, "world")
			So(ds.Metadata["scantype"], ShouldEqual, "scan1D")
			So(strings.Contains(ds.Location, "scan1D"), ShouldBeTrue)
			So(ds.SetArrays, ShouldResemble, []string{"p_set"})

			setpoints, err := ds.Arrays["p_set"].Float64s()
			So(err, ShouldBeNil)
			So(setpoints, ShouldResemble, []float64{0, 2, 4, 6, 8})

			measured, err := ds.Arrays["p_scaled"].Float64s()
			So(err, ShouldBeNil)
			for i, v := range setpoints {
				So(measured[i], ShouldAlmostEqual, v/4)
			}
		})

		Convey("A wait time paces the setpoints", func() {
			job := &ScanJob{
				Sweep:   SweepData{Param: p, Start: 0, End: 5, Step: 1, WaitTime: 10 * time.Millisecond},
				Measure: []Parameter{p},
			}

			start := time.Now()
			ds, err := Scan1D(station, job)
			So(err, ShouldBeNil)
			So(ds.Arrays["p"].Len(), ShouldEqual, 5)

			// Five points, first settles for free: at least four full
			// intervals must elapse.
			So(time.Since(start), ShouldBeGreaterThanOrEqualTo, 40*time.Millisecond)
		})

		Convey("Parameters resolve by station name", func() {
			job := &ScanJob{
				Sweep:   SweepData{Name: "p", Start: 0, End: 4, Step: 1},
				Measure: []Parameter{p},
				Label:   "123unittest123",
			}
			ds, err := Scan1D(station, job)
			So(err, ShouldBeNil)
			So(ds.Location, ShouldEndWith, "123unittest123")

			job.Sweep.Name = "missing"
			job.Sweep.Param = nil
			_, err = Scan1D(station, job)
			So(err, ShouldNotBeNil)
		})

		Convey("Flaky measurements succeed under a retry policy", func() {
			attempts := 0
			flaky := NewFuncParameter("sensor", func() (float64, error) {
				attempts++
				if attempts < 3 {
					return 0, errors.New("digitizer glitch")
				}
				return 1.25, nil
			}, nil)

			job := &ScanJob{
				Sweep:   SweepData{Param: p, Start: 0, End: 2, Step: 2},
				Measure: []Parameter{flaky},
				Retry:   &RetryPolicy{MaxAttempts: 3, Strategy: &FixedDelay{Delay: time.Millisecond}},
			}
			ds, err := Scan1D(station, job)
			So(err, ShouldBeNil)

			values, err := ds.Arrays["sensor"].Float64s()
			So(err, ShouldBeNil)
			So(values[0], ShouldEqual, 1.25)
		})

		Convey("A failing measurement aborts the scan", func() {
			broken := NewFuncParameter("sensor", func() (float64, error) {
				return 0, errors.New("no signal")
			}, nil)
			job := &ScanJob{
				Sweep:   SweepData{Param: p, Start: 0, End: 2, Step: 2},
				Measure: []Parameter{broken},
			}
			_, err := Scan1D(station, job)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "no signal")
		})

		Convey("Progress events reach subscribers", func() {
			notifier := NewNotifier()
			events := notifier.Subscribe("plotter", 16)

			job := &ScanJob{
				Sweep:    SweepData{Param: p, Start: 0, End: 6, Step: 2},
				Measure:  []Parameter{p},
				Notifier: notifier,
			}
			_, err := Scan1D(station, job)
			So(err, ShouldBeNil)
			notifier.Close()

			count := 0
			for ev := range events {
				So(ev.Total, ShouldEqual, 3)
				count++
			}
			So(count, ShouldEqual, 3)
		})
	})
}

func TestScan2D(t *testing.T) {
	Convey("Given a 2D scan job", t, func() {
		p := NewManualParameter("p", 0)
		q := NewManualParameter("q", 0)
		station := NewStation(p, q)

		Convey("It produces 2D measurement arrays", func() {
			sum := NewFuncParameter("sum", func() (float64, error) {
				pv, _ := p.Get()
				qv, _ := q.Get()
				return pv + qv, nil
			}, nil)

			job := &ScanJob{
				Sweep:   SweepData{Param: p, Start: 0, End: 10, Step: 2},
				Step:    &SweepData{Param: q, Start: 24, End: 30, Step: 1},
				Measure: []Parameter{sum},
			}
			ds, err := Scan2D(station, job)
			So(err, ShouldBeNil)
			So(ds.Metadata["scantype"], ShouldEqual, "scan2D")
			So(ds.SetArrays, ShouldResemble, []string{"q_set", "p_set"})

			measured := ds.Arrays["sum"]
			So(measured.Shape, ShouldResemble, []int{6, 5})

			v, err := measured.Float64At(2, 3)
			So(err, ShouldBeNil)
			So(v, ShouldAlmostEqual, 26+6)
		})

		Convey("Missing step data is an error", func() {
			job := &ScanJob{
				Sweep:   SweepData{Param: p, Start: 0, End: 10, Step: 2},
				Measure: []Parameter{p},
			}
			_, err := Scan2D(station, job)
			So(err, ShouldNotBeNil)
		})
	})
}
