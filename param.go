// param.go
package qlab

import (
	"fmt"
	"sync"
)

// Parameter is a named software parameter. Gate voltages, virtual
// detuning axes and measurement channels all present this interface;
// the toolkit has no awareness of physical instrument transport.
type Parameter interface {
	Name() string
	Get() (float64, error)
	Set(value float64) error
}

// ManualParameter holds a value in memory, the software stand-in for an
// instrument setting.
type ManualParameter struct {
	name  string
	mu    sync.Mutex
	value float64
}

func NewManualParameter(name string, initial float64) *ManualParameter {
	return &ManualParameter{name: name, value: initial}
}

func (p *ManualParameter) Name() string {
	return p.name
}

func (p *ManualParameter) Get() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, nil
}

func (p *ManualParameter) Set(value float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = value
	return nil
}

// FuncParameter adapts arbitrary getter/setter closures, typically a
// simulated measurement reading a model.
type FuncParameter struct {
	name string
	get  func() (float64, error)
	set  func(float64) error
}

func NewFuncParameter(name string, get func() (float64, error), set func(float64) error) *FuncParameter {
	return &FuncParameter{name: name, get: get, set: set}
}

func (p *FuncParameter) Name() string {
	return p.name
}

func (p *FuncParameter) Get() (float64, error) {
	if p.get == nil {
		return 0, fmt.Errorf("parameter %s is write-only", p.name)
	}
	return p.get()
}

func (p *FuncParameter) Set(value float64) error {
	if p.set == nil {
		return fmt.Errorf("parameter %s is read-only", p.name)
	}
	return p.set(value)
}

// ScaledParameter wraps another parameter behind a fixed division
// factor: reading divides, writing multiplies. The usual model for a
// voltage divider between DAC and sample.
type ScaledParameter struct {
	name     string
	raw      Parameter
	division float64
}

func NewScaledParameter(raw Parameter, division float64) *ScaledParameter {
	return &ScaledParameter{
		name:     raw.Name() + "_scaled",
		raw:      raw,
		division: division,
	}
}

func (p *ScaledParameter) Name() string {
	return p.name
}

func (p *ScaledParameter) Get() (float64, error) {
	v, err := p.raw.Get()
	if err != nil {
		return 0, err
	}
	return v / p.division, nil
}

func (p *ScaledParameter) Set(value float64) error {
	return p.raw.Set(value * p.division)
}

// Station is the collection of parameters a scan can address by name.
type Station struct {
	mu     sync.RWMutex
	params map[string]Parameter
}

func NewStation(params ...Parameter) *Station {
	s := &Station{params: make(map[string]Parameter)}
	for _, p := range params {
		s.params[p.Name()] = p
	}
	return s
}

// Add registers a parameter, replacing any previous one of the same name.
func (s *Station) Add(p Parameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params[p.Name()] = p
}

// Parameter looks a parameter up by name.
func (s *Station) Parameter(name string) (Parameter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.params[name]
	if !ok {
		return nil, fmt.Errorf("station has no parameter %q", name)
	}
	return p, nil
}
