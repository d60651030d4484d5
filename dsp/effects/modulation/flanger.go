package modulation

import (
	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

const (
	defaultFlangerRateHz   = 0.25
	defaultFlangerDepthMs  = 1.5
	defaultFlangerDelayMs  = 1.0
	defaultFlangerFeedback = 0.25

	minFlangerDelayMs = 0.1
	maxFlangerDelayMs = 10.0
	maxFlangerDepthMs = 5.0
	// MaxFlangerFeedback bounds the magnitude of flanger feedback.
	MaxFlangerFeedback = 0.95
)

// Flanger is a short delay swept by a triangle LFO with signed feedback.
// The delay runs from the base delay up to base+depth.
type Flanger struct {
	modulator

	sampleRate float64
	depthMs    float64
	delayMs    float64
	feedback   float64

	line *delay.Line
}

// NewFlanger creates a flanger with practical defaults.
func NewFlanger(sampleRate float64) (*Flanger, error) {
	if err := validateSampleRate("flanger", sampleRate); err != nil {
		return nil, err
	}
	mod, err := newModulator(sampleRate, defaultFlangerRateHz, lfo.WithWaveform(lfo.Triangle))
	if err != nil {
		return nil, err
	}
	f := &Flanger{
		modulator: mod,
		depthMs:   defaultFlangerDepthMs,
		delayMs:   defaultFlangerDelayMs,
		feedback:  defaultFlangerFeedback,
	}
	if err := f.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return f, nil
}

// SetSampleRate resizes the line for the longest sweep.
func (f *Flanger) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("flanger", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor((maxFlangerDelayMs+maxFlangerDepthMs)*0.001, sampleRate)
	if f.line == nil {
		line, err := delay.New(capacity)
		if err != nil {
			return err
		}
		f.line = line
	} else if err := f.line.Resize(capacity); err != nil {
		return err
	}
	if err := f.osc.SetSampleRate(sampleRate); err != nil {
		return err
	}
	f.sampleRate = sampleRate
	return nil
}

// SetDepthMs sets the sweep width in [0, 5] ms.
func (f *Flanger) SetDepthMs(ms float64) error {
	if err := validateRange("flanger depth", ms, 0, maxFlangerDepthMs); err != nil {
		return err
	}
	f.depthMs = ms
	return nil
}

// SetDelayMs sets the minimum delay in [0.1, 10] ms.
func (f *Flanger) SetDelayMs(ms float64) error {
	if err := validateRange("flanger delay", ms, minFlangerDelayMs, maxFlangerDelayMs); err != nil {
		return err
	}
	f.delayMs = ms
	return nil
}

// SetFeedback sets signed feedback in [-0.95, 0.95].
func (f *Flanger) SetFeedback(feedback float64) error {
	if err := validateRange("flanger feedback", feedback, -MaxFlangerFeedback, MaxFlangerFeedback); err != nil {
		return err
	}
	f.feedback = feedback
	return nil
}

// DepthMs returns the sweep width.
func (f *Flanger) DepthMs() float64 { return f.depthMs }

// DelayMs returns the minimum delay.
func (f *Flanger) DelayMs() float64 { return f.delayMs }

// Feedback returns the feedback amount.
func (f *Flanger) Feedback() float64 { return f.feedback }

// Reset clears delay state and modulation phase.
func (f *Flanger) Reset() {
	f.line.Reset()
	f.osc.Reset()
}

// ProcessSample processes one sample and returns the swept tap.
func (f *Flanger) ProcessSample(input float64) float64 {
	mod := lfo.Unipolar(f.osc.Next())
	d := (f.delayMs + f.depthMs*mod) * 0.001 * f.sampleRate
	if d < 1 {
		d = 1
	}

	delayed := f.line.ReadFractional(d)
	f.line.Write(input + delayed*f.feedback)
	return delayed
}

// ProcessInPlace applies flanging to buf in place.
func (f *Flanger) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = f.ProcessSample(buf[i])
	}
}
