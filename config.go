package qlab

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	SchedulingTimeout time.Duration
	Workers           int
}

func NewConfig() *Config {
	return &Config{
		SchedulingTimeout: 30 * time.Second,
		Workers:           4,
	}
}

// couplingYAML is one pairwise energy entry in a dot-system file.
type couplingYAML struct {
	Dots  [2]int  `yaml:"dots"`
	Value float64 `yaml:"value"`
}

// dotSystemYAML is the on-disk form of a DotSystem, optionally carrying
// the lever-arm matrix alongside.
type dotSystemYAML struct {
	Dots          int            `yaml:"dots"`
	MaxOccupation int            `yaml:"max_occupation"`
	Charging      []float64      `yaml:"charging"`
	InterSite     []couplingYAML `yaml:"inter_site"`
	Tunnel        []couplingYAML `yaml:"tunnel"`
	LeverArm      [][]float64    `yaml:"lever_arm"`
}

// LoadDotSystemYAML reads a dot-system definition from a YAML file.
// The returned lever arm is nil when the file does not define one.
func LoadDotSystemYAML(path string) (*DotSystem, *LeverArm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading dot system: %w", err)
	}
	return parseDotSystemYAML(data)
}

func parseDotSystemYAML(data []byte) (*DotSystem, *LeverArm, error) {
	var def dotSystemYAML
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, nil, fmt.Errorf("parsing dot system: %w", err)
	}

	maxOcc := def.MaxOccupation
	if maxOcc == 0 {
		maxOcc = 2
	}
	ds, err := NewDotSystem(def.Dots, maxOcc)
	if err != nil {
		return nil, nil, err
	}

	if len(def.Charging) > 0 {
		if len(def.Charging) != def.Dots {
			return nil, nil, fmt.Errorf("got %d charging energies for %d dots", len(def.Charging), def.Dots)
		}
		copy(ds.Charging, def.Charging)
	}

	for _, c := range def.InterSite {
		if err := checkPair(c.Dots, def.Dots); err != nil {
			return nil, nil, err
		}
		ds.SetInterSite(c.Dots[0], c.Dots[1], c.Value)
	}
	for _, c := range def.Tunnel {
		if err := checkPair(c.Dots, def.Dots); err != nil {
			return nil, nil, err
		}
		ds.SetTunnel(c.Dots[0], c.Dots[1], c.Value)
	}

	if len(def.LeverArm) == 0 {
		return ds, nil, nil
	}

	elements := make([]float64, 0, def.Dots*def.Dots)
	for _, row := range def.LeverArm {
		if len(row) != def.Dots {
			return nil, nil, fmt.Errorf("lever-arm rows must have %d entries", def.Dots)
		}
		elements = append(elements, row...)
	}
	if len(def.LeverArm) != def.Dots {
		return nil, nil, fmt.Errorf("lever arm must have %d rows, got %d", def.Dots, len(def.LeverArm))
	}
	la, err := NewLeverArm(def.Dots, elements)
	if err != nil {
		return nil, nil, err
	}
	return ds, la, nil
}

func checkPair(pair [2]int, numDots int) error {
	for _, d := range pair {
		if d < 0 || d >= numDots {
			return fmt.Errorf("coupling refers to dot %d, system has %d dots", d, numDots)
		}
	}
	if pair[0] == pair[1] {
		return fmt.Errorf("coupling cannot pair dot %d with itself", pair[0])
	}
	return nil
}
