package modulation

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/lfo"
)

const (
	defaultTremoloRateHz      = 4.0
	defaultTremoloDepth       = 0.6
	defaultTremoloSmoothingMs = 5.0
	maxTremoloSmoothingMs     = 50.0
)

// Tremolo applies LFO amplitude modulation. The gain is
// 1 - depth*(1-lfo)/2, smoothed by a one-pole so square shapes do not click.
// Shape morphs the LFO from sine (0) through triangle (0.5) to square (1).
type Tremolo struct {
	modulator

	sampleRate  float64
	depth       float64
	smoothingMs float64

	smoothingCoef float64
	currentGain   float64
}

// NewTremolo creates a tremolo with practical defaults.
func NewTremolo(sampleRate float64) (*Tremolo, error) {
	if err := validateSampleRate("tremolo", sampleRate); err != nil {
		return nil, err
	}
	mod, err := newModulator(sampleRate, defaultTremoloRateHz, lfo.WithWaveform(lfo.Morph))
	if err != nil {
		return nil, err
	}
	t := &Tremolo{
		modulator:   mod,
		sampleRate:  sampleRate,
		depth:       defaultTremoloDepth,
		smoothingMs: defaultTremoloSmoothingMs,
		currentGain: 1,
	}
	t.updateSmoothingCoefficient()
	return t, nil
}

// SetSampleRate updates sample rate.
func (t *Tremolo) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("tremolo", sampleRate); err != nil {
		return err
	}
	if err := t.osc.SetSampleRate(sampleRate); err != nil {
		return err
	}
	t.sampleRate = sampleRate
	t.updateSmoothingCoefficient()
	return nil
}

// SetDepth sets modulation depth in [0, 1].
func (t *Tremolo) SetDepth(depth float64) error {
	if err := validateRange("tremolo depth", depth, 0, 1); err != nil {
		return err
	}
	t.depth = depth
	return nil
}

// SetShape sets the LFO morph in [0, 1].
func (t *Tremolo) SetShape(shape float64) error {
	if err := validateRange("tremolo shape", shape, 0, 1); err != nil {
		return err
	}
	t.osc.SetShape(shape)
	return nil
}

// SetSmoothingMs sets gain smoothing time in [0, 50] milliseconds.
func (t *Tremolo) SetSmoothingMs(ms float64) error {
	if err := validateRange("tremolo smoothing", ms, 0, maxTremoloSmoothingMs); err != nil {
		return err
	}
	t.smoothingMs = ms
	t.updateSmoothingCoefficient()
	return nil
}

// Depth returns modulation depth.
func (t *Tremolo) Depth() float64 { return t.depth }

// Shape returns the LFO morph.
func (t *Tremolo) Shape() float64 { return t.osc.Shape() }

// SmoothingMs returns smoothing time in milliseconds.
func (t *Tremolo) SmoothingMs() float64 { return t.smoothingMs }

// Reset clears modulation state.
func (t *Tremolo) Reset() {
	t.osc.Reset()
	t.currentGain = 1
}

// ProcessSample processes one sample.
func (t *Tremolo) ProcessSample(input float64) float64 {
	target := 1 - t.depth*(1-t.osc.Next())*0.5
	t.currentGain = target + (t.currentGain-target)*t.smoothingCoef
	return input * t.currentGain
}

// ProcessInPlace applies tremolo to buf in place.
func (t *Tremolo) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = t.ProcessSample(buf[i])
	}
}

func (t *Tremolo) updateSmoothingCoefficient() {
	if t.smoothingMs <= 0 {
		t.smoothingCoef = 0
		return
	}
	t.smoothingCoef = math.Exp(-1 / (t.smoothingMs * 0.001 * t.sampleRate))
}
