package effect

import (
	"github.com/cwbudde/algo-fx/dsp/buffer"
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/param"
)

// Family groups effect types by processing principle.
type Family int

const (
	FamilyDelay Family = iota
	FamilyModulation
	FamilyDynamics
	FamilySpectral
	FamilyFilter
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyDelay:
		return "delay"
	case FamilyModulation:
		return "modulation"
	case FamilyDynamics:
		return "dynamics"
	case FamilySpectral:
		return "spectral"
	case FamilyFilter:
		return "filter"
	default:
		return "unknown"
	}
}

// MixParam is the parameter name the Effect treats as wet/dry balance.
const MixParam = "mix"

// Preset is a named set of parameter values.
type Preset struct {
	Name   string
	Values map[string]float64
}

// Definition describes an effect type.
type Definition struct {
	Type    string
	Family  Family
	Params  []param.Spec
	Presets []Preset
}

// Kernel is the DSP core of an effect.
//
// Prepare allocates all state for cfg and may be called repeatedly. Update
// receives parameter values in Definition order, already clamped, at a block
// boundary. Process transforms buf in place, writing the wet signal for the
// first frames frames of every channel; it must not allocate.
type Kernel interface {
	Prepare(cfg core.ProcessorConfig) error
	Update(values []float64)
	Process(buf *buffer.SampleBuffer, frames int)
	Reset()
	Release()
}
