// honeycomb.go
package qlab

import (
	"context"
	"fmt"

	"github.com/theapemachine/errnie"
)

// Axis is one swept gate of a charge-stability diagram.
type Axis struct {
	Gate   int
	Start  float64
	End    float64
	Points int
}

/*
HoneycombJob computes a charge-stability diagram: for every point of a
2D gate-voltage grid, find the ground-state charge occupation of the
dot system. Gate voltages go through the lever arm to become detunings;
the winning occupations partition the plane into the polygonal regions
of the honeycomb pattern.

Rows are independent, so with Workers > 1 they are partitioned across
the evaluation pool. Sequential and parallel solves produce identical
grids.
*/
type HoneycombJob struct {
	System       *DotSystem
	Lever        *LeverArm
	XAxis        Axis
	YAxis        Axis
	BaseVoltages []float64
	Workers      int
}

// Honeycomb is the solved diagram. Grids are indexed [y][x].
type Honeycomb struct {
	XVolts      []float64
	YVolts      []float64
	Occupations [][]Occupation
	Energies    *Array
	Boundaries  [][]bool
}

type honeycombRow struct {
	occupations []Occupation
	energies    []float64
}

func (job *HoneycombJob) validate() error {
	if job.System == nil {
		return fmt.Errorf("honeycomb job has no dot system")
	}
	n := job.System.NumDots
	if job.XAxis.Points < 2 || job.YAxis.Points < 2 {
		return fmt.Errorf("honeycomb axes need at least 2 points each")
	}
	for _, axis := range []Axis{job.XAxis, job.YAxis} {
		if axis.Gate < 0 || axis.Gate >= n {
			return fmt.Errorf("axis sweeps gate %d, system has %d dots", axis.Gate, n)
		}
	}
	if job.Lever != nil && job.Lever.Dots() != n {
		return fmt.Errorf("lever arm is %dx%d for a %d-dot system", job.Lever.Dots(), job.Lever.Dots(), n)
	}
	if job.BaseVoltages != nil && len(job.BaseVoltages) != n {
		return fmt.Errorf("got %d base voltages for %d gates", len(job.BaseVoltages), n)
	}
	return nil
}

// Solve computes the diagram.
func (job *HoneycombJob) Solve(ctx context.Context) (*Honeycomb, error) {
	if err := job.validate(); err != nil {
		return nil, err
	}

	lever := job.Lever
	if lever == nil {
		lever = IdentityLeverArm(job.System.NumDots)
	}
	base := job.BaseVoltages
	if base == nil {
		base = make([]float64, job.System.NumDots)
	}

	xs := Linspace(job.XAxis.Start, job.XAxis.End, job.XAxis.Points)
	ys := Linspace(job.YAxis.Start, job.YAxis.End, job.YAxis.Points)

	errnie.Info(
		"honeycomb solve: %d dots, %dx%d grid, %d candidate states",
		job.System.NumDots,
		len(ys),
		len(xs),
		len(job.System.States()),
	)

	rows := make([]honeycombRow, len(ys))
	if job.Workers > 1 {
		if err := job.solveParallel(ctx, lever, base, xs, ys, rows); err != nil {
			return nil, err
		}
	} else {
		for y := range ys {
			row, err := job.solveRow(lever, base, xs, ys[y])
			if err != nil {
				return nil, err
			}
			rows[y] = row
		}
	}

	return assembleHoneycomb(xs, ys, rows)
}

func (job *HoneycombJob) solveParallel(
	ctx context.Context,
	lever *LeverArm,
	base []float64,
	xs, ys []float64,
	rows []honeycombRow,
) error {
	pool := NewPool(ctx, job.Workers, NewConfig())
	defer pool.Close()

	results := make([]chan Result, len(ys))
	for y := range ys {
		yv := ys[y]
		results[y] = pool.Schedule(fmt.Sprintf("row-%04d", y), func() (any, error) {
			return job.solveRow(lever, base, xs, yv)
		})
	}

	for y, ch := range results {
		result, ok := <-ch
		if !ok {
			return fmt.Errorf("row %d: pool closed before result", y)
		}
		if result.Error != nil {
			return fmt.Errorf("row %d: %w", y, result.Error)
		}
		rows[y] = result.Value.(honeycombRow)
	}
	return nil
}

func (job *HoneycombJob) solveRow(lever *LeverArm, base, xs []float64, yVolt float64) (honeycombRow, error) {
	row := honeycombRow{
		occupations: make([]Occupation, len(xs)),
		energies:    make([]float64, len(xs)),
	}

	voltages := make([]float64, len(base))
	for x, xVolt := range xs {
		copy(voltages, base)
		voltages[job.XAxis.Gate] = xVolt
		voltages[job.YAxis.Gate] = yVolt

		detunings, err := lever.DetuningsFromVoltages(voltages)
		if err != nil {
			return honeycombRow{}, err
		}
		occ, energy, err := job.System.GroundState(detunings)
		if err != nil {
			return honeycombRow{}, err
		}
		row.occupations[x] = occ
		row.energies[x] = energy
	}
	return row, nil
}

func assembleHoneycomb(xs, ys []float64, rows []honeycombRow) (*Honeycomb, error) {
	h := &Honeycomb{
		XVolts:      xs,
		YVolts:      ys,
		Occupations: make([][]Occupation, len(ys)),
	}

	flat := make([]float64, 0, len(ys)*len(xs))
	for y, row := range rows {
		h.Occupations[y] = row.occupations
		flat = append(flat, row.energies...)
	}
	energies, err := Float64Array(flat, len(ys), len(xs))
	if err != nil {
		return nil, err
	}
	h.Energies = energies
	h.Boundaries = chargeBoundaries(h.Occupations)
	return h, nil
}

// chargeBoundaries marks cells whose winning occupation differs from
// the right or upper neighbor; those edges trace the honeycomb.
func chargeBoundaries(occupations [][]Occupation) [][]bool {
	boundaries := make([][]bool, len(occupations))
	for y := range occupations {
		boundaries[y] = make([]bool, len(occupations[y]))
		for x := range occupations[y] {
			if x+1 < len(occupations[y]) && !occupations[y][x].Equal(occupations[y][x+1]) {
				boundaries[y][x] = true
			}
			if y+1 < len(occupations) && !occupations[y][x].Equal(occupations[y+1][x]) {
				boundaries[y][x] = true
			}
		}
	}
	return boundaries
}

// Regions counts grid cells per distinct occupation.
func (h *Honeycomb) Regions() map[string]int {
	regions := make(map[string]int)
	for _, row := range h.Occupations {
		for _, occ := range row {
			regions[occ.Key()]++
		}
	}
	return regions
}

// ToDataSet packs the diagram into a dataset for saving.
func (h *Honeycomb) ToDataSet(label string) (*DataSet, error) {
	if label == "" {
		label = "honeycomb"
	}
	ds := NewDataSet(label)
	ds.Metadata["scantype"] = "honeycomb"

	xArr, err := Float64Array(h.XVolts)
	if err != nil {
		return nil, err
	}
	yArr, err := Float64Array(h.YVolts)
	if err != nil {
		return nil, err
	}
	ds.AddSetArray("gate_x_set", xArr)
	ds.AddSetArray("gate_y_set", yArr)
	ds.AddArray("energy", h.Energies)

	// Occupations flatten to an int64 array of shape [ny, nx, dots].
	if len(h.Occupations) > 0 && len(h.Occupations[0]) > 0 {
		dots := len(h.Occupations[0][0])
		flat := make([]int64, 0, len(h.YVolts)*len(h.XVolts)*dots)
		for _, row := range h.Occupations {
			for _, occ := range row {
				for _, n := range occ {
					flat = append(flat, int64(n))
				}
			}
		}
		occArr, err := Int64Array(flat, len(h.YVolts), len(h.XVolts), dots)
		if err != nil {
			return nil, err
		}
		ds.AddArray("occupation", occArr)
	}
	return ds, nil
}
