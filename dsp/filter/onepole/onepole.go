// Package onepole provides first-order smoothing filters for tone controls,
// detector smoothing and parameter de-zippering.
package onepole

import "math"

// Kind selects the response of a Filter.
type Kind int

const (
	// Lowpass passes content below the cutoff.
	Lowpass Kind = iota
	// Highpass passes content above the cutoff.
	Highpass
)

// Filter is a one-pole lowpass or highpass:
//
//	lp[n] = lp[n-1] + alpha*(x[n] - lp[n-1]),  alpha = 1 - exp(-2*pi*fc/fs)
//	hp[n] = x[n] - lp[n]
//
// A cutoff <= 0 disables the filter and makes it a passthrough.
type Filter struct {
	kind    Kind
	enabled bool
	alpha   float64
	state   float64
}

// New returns a configured filter.
func New(kind Kind, cutoffHz, sampleRate float64) *Filter {
	f := &Filter{kind: kind}
	f.Configure(cutoffHz, sampleRate)
	return f
}

// Configure updates the cutoff. The filter history is kept.
func (f *Filter) Configure(cutoffHz, sampleRate float64) {
	if cutoffHz <= 0 || sampleRate <= 0 || math.IsNaN(cutoffHz) {
		f.enabled = false
		f.alpha = 0
		return
	}

	// Keep the pole inside the unit circle for any cutoff.
	cutoffHz = math.Min(cutoffHz, 0.49*sampleRate)
	f.enabled = true
	f.alpha = 1.0 - math.Exp(-2.0*math.Pi*cutoffHz/sampleRate)
}

// Alpha returns the smoothing coefficient in (0, 1), or 0 when disabled.
func (f *Filter) Alpha() float64 { return f.alpha }

// Process filters one sample.
func (f *Filter) Process(x float64) float64 {
	if !f.enabled {
		return x
	}

	f.state += f.alpha * (x - f.state)
	if f.kind == Highpass {
		return x - f.state
	}

	return f.state
}

// Reset clears the filter history.
func (f *Filter) Reset() {
	f.state = 0
}
