package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/theapemachine/qlab"
)

var rootCmd = &cobra.Command{
	Use:   "qlab",
	Short: "Quantum-dot measurement toolkit",
	Long:  "Simulate charge-stability diagrams, render them in the terminal, and inspect saved datasets.",
}

var (
	systemPath string
	gridPoints int
	voltMin    float64
	voltMax    float64
	workers    int
	savePath   string
)

var honeycombCmd = &cobra.Command{
	Use:   "honeycomb",
	Short: "Simulate and render a charge-stability diagram",
	RunE: func(cmd *cobra.Command, args []string) error {
		system := qlab.DoubleDot()
		var lever *qlab.LeverArm
		if systemPath != "" {
			var err error
			if system, lever, err = qlab.LoadDotSystemYAML(systemPath); err != nil {
				return err
			}
		}

		job := &qlab.HoneycombJob{
			System:  system,
			Lever:   lever,
			XAxis:   qlab.Axis{Gate: 0, Start: voltMin, End: voltMax, Points: gridPoints},
			YAxis:   qlab.Axis{Gate: 1, Start: voltMin, End: voltMax, Points: gridPoints},
			Workers: workers,
		}
		diagram, err := job.Solve(context.Background())
		if err != nil {
			return err
		}

		fmt.Print(qlab.RenderHoneycomb(diagram))

		if savePath != "" {
			ds, err := diagram.ToDataSet("honeycomb")
			if err != nil {
				return err
			}
			if err := ds.Save(savePath, qlab.NewCodec()); err != nil {
				return err
			}
			fmt.Printf("saved dataset %s to %s\n", ds.Location, savePath)
		}
		return nil
	},
}

var datasetCmd = &cobra.Command{
	Use:   "dataset <file>",
	Short: "Summarize a saved dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := qlab.LoadDataSet(args[0], qlab.NewCodec())
		if err != nil {
			return err
		}

		fmt.Printf("dataset  %s\n", ds.Location)
		fmt.Printf("id       %s\n", ds.ID)
		fmt.Printf("label    %s\n", ds.Label)
		for key, value := range ds.Metadata {
			fmt.Printf("meta     %s = %v\n", key, value)
		}
		for _, name := range ds.ArrayNames() {
			a := ds.Arrays[name]
			fmt.Printf("array    %-20s %-10s %v\n", name, a.Dtype, a.Shape)
		}
		return nil
	},
}

func init() {
	honeycombCmd.Flags().StringVar(&systemPath, "system", "", "YAML dot-system definition (default: double-dot preset)")
	honeycombCmd.Flags().IntVar(&gridPoints, "points", 40, "grid points per axis")
	honeycombCmd.Flags().Float64Var(&voltMin, "min", -2, "sweep start voltage")
	honeycombCmd.Flags().Float64Var(&voltMax, "max", 8, "sweep end voltage")
	honeycombCmd.Flags().IntVar(&workers, "workers", 1, "solver workers (1 = sequential)")
	honeycombCmd.Flags().StringVar(&savePath, "save", "", "save the diagram as a dataset to this path")

	rootCmd.AddCommand(honeycombCmd)
	rootCmd.AddCommand(datasetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
