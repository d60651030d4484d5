package param

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Spec describes one parameter.
type Spec struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Unit    string
}

// Validate reports an inconsistent range or default.
func (s Spec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("param: empty name")
	}
	if math.IsNaN(s.Min) || math.IsNaN(s.Max) || math.IsInf(s.Min, 0) || math.IsInf(s.Max, 0) {
		return fmt.Errorf("param %q: range must be finite", s.Name)
	}
	if s.Min > s.Max {
		return fmt.Errorf("param %q: min %g > max %g", s.Name, s.Min, s.Max)
	}
	if s.Default < s.Min || s.Default > s.Max {
		return fmt.Errorf("param %q: default %g outside [%g, %g]", s.Name, s.Default, s.Min, s.Max)
	}
	return nil
}

// Clamp returns v limited to the parameter range.
func (s Spec) Clamp(v float64) float64 {
	if v < s.Min {
		return s.Min
	}
	if v > s.Max {
		return s.Max
	}
	return v
}

// Info is a read-only view of a parameter for hosts.
type Info struct {
	Spec
	Value     float64
	Automated bool
}

// Parameter is a single named value clamped to its range.
type Parameter struct {
	spec      Spec
	bits      atomic.Uint64
	automated atomic.Bool
	version   *atomic.Uint64
}

func newParameter(spec Spec, version *atomic.Uint64) *Parameter {
	p := &Parameter{spec: spec, version: version}
	p.bits.Store(math.Float64bits(spec.Default))
	return p
}

// Spec returns the parameter description.
func (p *Parameter) Spec() Spec { return p.spec }

// Name returns the parameter name.
func (p *Parameter) Name() string { return p.spec.Name }

// Value returns the current value.
func (p *Parameter) Value() float64 {
	return math.Float64frombits(p.bits.Load())
}

// Set stores v clamped to the range. NaN is ignored.
func (p *Parameter) Set(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = p.spec.Clamp(v)
	if p.bits.Swap(math.Float64bits(v)) != math.Float64bits(v) && p.version != nil {
		p.version.Add(1)
	}
}

// SetAutomated marks the parameter as host-automated.
func (p *Parameter) SetAutomated(on bool) { p.automated.Store(on) }

// Automated reports whether the parameter is host-automated.
func (p *Parameter) Automated() bool { return p.automated.Load() }

// Info returns a snapshot view of the parameter.
func (p *Parameter) Info() Info {
	return Info{Spec: p.spec, Value: p.Value(), Automated: p.Automated()}
}
