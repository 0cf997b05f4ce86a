// scan.go
package qlab

import (
	"fmt"
	"math"
	"time"

	"github.com/theapemachine/errnie"
)

/*
SweepData describes one swept axis of a scan.

Either Param or Name identifies the parameter (Name is resolved against
the station). The axis is normally Start/End/Step; alternatively Range
sweeps symmetrically around the parameter's current setpoint. WaitTime
is the settling time after each setpoint change.
*/
type SweepData struct {
	Param    Parameter
	Name     string
	Start    float64
	End      float64
	Step     float64
	Range    float64
	WaitTime time.Duration
}

func (sd SweepData) resolve(station *Station) (Parameter, error) {
	if sd.Param != nil {
		return sd.Param, nil
	}
	if station == nil {
		return nil, fmt.Errorf("sweep names parameter %q but no station given", sd.Name)
	}
	return station.Parameter(sd.Name)
}

/*
Vector expands the sweep into concrete setpoints.

With length <= 0 the end value is exclusive: points run start,
start+step, … strictly below end, and a span smaller than one step
still yields the single point start. With an explicit length the end
value is inclusive and the step is recomputed as span/(length−1).

A Range sweep is centered on the parameter's current value:
[v−range/2, v+range/2). Zero span is an error.
*/
func (sd SweepData) Vector(p Parameter, length int) ([]float64, error) {
	start, end := sd.Start, sd.End
	if sd.Range != 0 {
		center := 0.0
		if p != nil {
			var err error
			if center, err = p.Get(); err != nil {
				return nil, fmt.Errorf("reading sweep center: %w", err)
			}
		}
		start = center - sd.Range/2
		end = center + sd.Range/2
	}
	if start == end {
		return nil, fmt.Errorf("sweep has zero span at %g", start)
	}

	if length > 0 {
		if length < 2 {
			return nil, fmt.Errorf("sweep length must be at least 2, got %d", length)
		}
		step := (end - start) / float64(length-1)
		values := make([]float64, length)
		for i := range values {
			values[i] = start + float64(i)*step
		}
		values[length-1] = end
		return values, nil
	}

	step := sd.Step
	if step == 0 {
		return nil, fmt.Errorf("sweep step must be nonzero")
	}
	ratio := (end - start) / step
	if ratio < 0 {
		return nil, fmt.Errorf("sweep step %g runs away from end %g", step, end)
	}

	// Guard against float noise pushing an exact span over the next
	// integer (e.g. 4/0.4 = 10.000000000000002).
	num := int(math.Ceil(ratio - 1e-9))
	if num < 1 {
		num = 1
	}
	values := make([]float64, num)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values, nil
}

// ScanJob describes a 1D or 2D measurement sweep.
type ScanJob struct {
	Sweep    SweepData
	Step     *SweepData // outer axis; required for Scan2D
	Measure  []Parameter
	Label    string
	Metadata map[string]any
	Retry    *RetryPolicy
	Notifier *Notifier
}

func (job *ScanJob) label(fallback string) string {
	if job.Label != "" {
		return job.Label
	}
	return fallback
}

// Scan1D sweeps one axis, measuring every parameter in job.Measure at
// each setpoint, and returns the resulting dataset.
func Scan1D(station *Station, job *ScanJob) (*DataSet, error) {
	p, err := job.Sweep.resolve(station)
	if err != nil {
		return nil, err
	}
	values, err := job.Sweep.Vector(p, 0)
	if err != nil {
		return nil, err
	}

	label := job.label("scan1D")
	errnie.Info("scan1D %s: %d points on %s", label, len(values), p.Name())

	measured := make([][]float64, len(job.Measure))
	for i := range measured {
		measured[i] = make([]float64, len(values))
	}

	pacer := NewPacer(job.Sweep.WaitTime)
	for i, v := range values {
		if err := p.Set(v); err != nil {
			return nil, fmt.Errorf("setting %s to %g: %w", p.Name(), v, err)
		}
		pacer.Wait()

		point := make([]float64, len(job.Measure))
		for mi, m := range job.Measure {
			val, err := measureWithRetry(m, job.Retry)
			if err != nil {
				return nil, err
			}
			measured[mi][i] = val
			point[mi] = val
		}
		if job.Notifier != nil {
			job.Notifier.Publish(ScanEvent{
				Scan:      label,
				Index:     i,
				Total:     len(values),
				Setpoints: []float64{v},
				Values:    point,
			})
		}
	}

	ds := NewDataSet(label)
	ds.Metadata["scantype"] = "scan1D"
	for key, v := range job.Metadata {
		ds.Metadata[key] = v
	}

	setpoints, err := Float64Array(values)
	if err != nil {
		return nil, err
	}
	ds.AddSetArray(p.Name()+"_set", setpoints)
	for mi, m := range job.Measure {
		a, err := Float64Array(measured[mi])
		if err != nil {
			return nil, err
		}
		ds.AddArray(m.Name(), a)
	}
	return ds, nil
}

// Scan2D sweeps the Step axis as the outer loop and the Sweep axis as
// the inner loop, producing 2D measurement arrays.
func Scan2D(station *Station, job *ScanJob) (*DataSet, error) {
	if job.Step == nil {
		return nil, fmt.Errorf("scan2D needs step data")
	}

	stepParam, err := job.Step.resolve(station)
	if err != nil {
		return nil, err
	}
	sweepParam, err := job.Sweep.resolve(station)
	if err != nil {
		return nil, err
	}
	stepValues, err := job.Step.Vector(stepParam, 0)
	if err != nil {
		return nil, err
	}
	sweepValues, err := job.Sweep.Vector(sweepParam, 0)
	if err != nil {
		return nil, err
	}

	label := job.label("scan2D")
	errnie.Info(
		"scan2D %s: %d x %d points on %s x %s",
		label,
		len(stepValues),
		len(sweepValues),
		stepParam.Name(),
		sweepParam.Name(),
	)

	rows, cols := len(stepValues), len(sweepValues)
	measured := make([][]float64, len(job.Measure))
	for i := range measured {
		measured[i] = make([]float64, rows*cols)
	}

	stepPacer := NewPacer(job.Step.WaitTime)
	sweepPacer := NewPacer(job.Sweep.WaitTime)
	for row, sv := range stepValues {
		if err := stepParam.Set(sv); err != nil {
			return nil, fmt.Errorf("setting %s to %g: %w", stepParam.Name(), sv, err)
		}
		stepPacer.Wait()

		for col, wv := range sweepValues {
			if err := sweepParam.Set(wv); err != nil {
				return nil, fmt.Errorf("setting %s to %g: %w", sweepParam.Name(), wv, err)
			}
			sweepPacer.Wait()

			point := make([]float64, len(job.Measure))
			for mi, m := range job.Measure {
				val, err := measureWithRetry(m, job.Retry)
				if err != nil {
					return nil, err
				}
				measured[mi][row*cols+col] = val
				point[mi] = val
			}
			if job.Notifier != nil {
				job.Notifier.Publish(ScanEvent{
					Scan:      label,
					Index:     row*cols + col,
					Total:     rows * cols,
					Setpoints: []float64{sv, wv},
					Values:    point,
				})
			}
		}
	}

	ds := NewDataSet(label)
	ds.Metadata["scantype"] = "scan2D"
	for key, v := range job.Metadata {
		ds.Metadata[key] = v
	}

	stepArr, err := Float64Array(stepValues)
	if err != nil {
		return nil, err
	}
	sweepArr, err := Float64Array(sweepValues)
	if err != nil {
		return nil, err
	}
	ds.AddSetArray(stepParam.Name()+"_set", stepArr)
	ds.AddSetArray(sweepParam.Name()+"_set", sweepArr)
	for mi, m := range job.Measure {
		a, err := Float64Array(measured[mi], rows, cols)
		if err != nil {
			return nil, err
		}
		ds.AddArray(m.Name(), a)
	}
	return ds, nil
}

func measureWithRetry(p Parameter, policy *RetryPolicy) (float64, error) {
	if policy == nil {
		v, err := p.Get()
		if err != nil {
			return 0, fmt.Errorf("measuring %s: %w", p.Name(), err)
		}
		return v, nil
	}

	var lastErr error
	for attempt := 0; attempt < policy.MaxAttempts; attempt++ {
		if attempt > 0 && policy.Strategy != nil {
			time.Sleep(policy.Strategy.NextDelay(attempt))
		}
		v, err := p.Get()
		if err == nil {
			return v, nil
		}
		lastErr = err
		if policy.Filter != nil && !policy.Filter(err) {
			break
		}
	}
	return 0, fmt.Errorf("measuring %s: %w", p.Name(), lastErr)
}
