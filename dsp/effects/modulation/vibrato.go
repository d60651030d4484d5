package modulation

import (
	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/interp"
)

const (
	defaultVibratoRateHz  = 5.0
	defaultVibratoDepthMs = 2.0
	maxVibratoDepthMs     = 10.0
)

// Vibrato modulates pitch only: the output is a single delay tap swept
// around a centre equal to the depth, with no dry path.
type Vibrato struct {
	modulator

	sampleRate float64
	depthMs    float64

	line *delay.Line
}

// NewVibrato creates a 5 Hz vibrato of 2 ms depth.
func NewVibrato(sampleRate float64) (*Vibrato, error) {
	if err := validateSampleRate("vibrato", sampleRate); err != nil {
		return nil, err
	}
	mod, err := newModulator(sampleRate, defaultVibratoRateHz)
	if err != nil {
		return nil, err
	}
	v := &Vibrato{modulator: mod, depthMs: defaultVibratoDepthMs}
	if err := v.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return v, nil
}

// SetSampleRate resizes the line for the deepest sweep.
func (v *Vibrato) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("vibrato", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(2*maxVibratoDepthMs*0.001, sampleRate)
	if v.line == nil {
		line, err := delay.New(capacity, delay.WithMode(interp.Hermite))
		if err != nil {
			return err
		}
		v.line = line
	} else if err := v.line.Resize(capacity); err != nil {
		return err
	}
	if err := v.osc.SetSampleRate(sampleRate); err != nil {
		return err
	}
	v.sampleRate = sampleRate
	return nil
}

// SetDepthMs sets the sweep half-width in [0, 10] ms.
func (v *Vibrato) SetDepthMs(ms float64) error {
	if err := validateRange("vibrato depth", ms, 0, maxVibratoDepthMs); err != nil {
		return err
	}
	v.depthMs = ms
	return nil
}

// DepthMs returns the sweep half-width.
func (v *Vibrato) DepthMs() float64 { return v.depthMs }

// Latency returns the centre delay in samples.
func (v *Vibrato) Latency() float64 { return 2 + v.depthMs*0.001*v.sampleRate }

// Reset clears delay state and modulation phase.
func (v *Vibrato) Reset() {
	v.line.Reset()
	v.osc.Reset()
}

// ProcessSample processes one sample.
func (v *Vibrato) ProcessSample(input float64) float64 {
	depth := v.depthMs * 0.001 * v.sampleRate
	d := 2 + depth + depth*v.osc.Next()

	y := v.line.ReadFractional(d)
	v.line.Write(input)
	return y
}

// ProcessInPlace applies vibrato to buf in place.
func (v *Vibrato) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = v.ProcessSample(buf[i])
	}
}
