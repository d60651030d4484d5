package pitch

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/interp"
	"github.com/cwbudde/algo-fx/dsp/window"
)

const (
	defaultGrainMs = 50.0
	minGrainMs     = 10.0
	maxGrainMs     = 200.0
)

// PitchShifter reads a delay line at the pitch ratio. One sawtooth phase
// sweeps the read delay through a grain of history; a second tap runs half
// a grain behind, and the two are weighted by a Hann window of their phase
// and normalized by the weight sum so the wrap of either tap is silent.
//
// At 0 semitones the output is the input delayed by Latency samples.
type PitchShifter struct {
	sampleRate float64
	semitones  float64
	grainMs    float64

	grain float64
	step  float64
	phase float64

	line *delay.Line
}

// NewPitchShifter creates a shifter at 0 semitones with a 50 ms grain.
func NewPitchShifter(sampleRate float64) (*PitchShifter, error) {
	if err := validateSampleRate("pitch shifter", sampleRate); err != nil {
		return nil, err
	}
	p := &PitchShifter{grainMs: defaultGrainMs}
	if err := p.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return p, nil
}

// SetSampleRate resizes the line for the longest grain.
func (p *PitchShifter) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("pitch shifter", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(maxGrainMs*0.001, sampleRate)
	if p.line == nil {
		line, err := delay.New(capacity, delay.WithMode(interp.Hermite))
		if err != nil {
			return err
		}
		p.line = line
	} else if err := p.line.Resize(capacity); err != nil {
		return err
	}
	p.sampleRate = sampleRate
	p.update()
	return nil
}

// SetSemitones sets the interval in [-24, 24] semitones.
func (p *PitchShifter) SetSemitones(st float64) error {
	if err := validateRange("pitch shift", st, MinSemitones, MaxSemitones); err != nil {
		return err
	}
	p.semitones = st
	p.update()
	return nil
}

// SetGrainMs sets the sweep length in [10, 200] ms. Longer grains smear
// transients, shorter ones add roughness.
func (p *PitchShifter) SetGrainMs(ms float64) error {
	if err := validateRange("pitch grain", ms, minGrainMs, maxGrainMs); err != nil {
		return err
	}
	p.grainMs = ms
	p.update()
	return nil
}

// SampleRate returns the sample rate.
func (p *PitchShifter) SampleRate() float64 { return p.sampleRate }

// Semitones returns the interval.
func (p *PitchShifter) Semitones() float64 { return p.semitones }

// Ratio returns the frequency ratio.
func (p *PitchShifter) Ratio() float64 { return Ratio(p.semitones) }

// GrainMs returns the sweep length.
func (p *PitchShifter) GrainMs() float64 { return p.grainMs }

// Latency returns the delay of the fully weighted tap at the start of a
// sweep, in samples.
func (p *PitchShifter) Latency() float64 { return 1 + 0.5*p.grain }

// Reset clears history and rewinds the sweep.
func (p *PitchShifter) Reset() {
	p.line.Reset()
	p.phase = 0
}

// ProcessSample processes one sample.
func (p *PitchShifter) ProcessSample(input float64) float64 {
	a := p.phase
	b := a + 0.5
	if b >= 1 {
		b--
	}

	wa := window.Hann(a)
	wb := window.Hann(b)
	ya := p.line.ReadFractional(1 + a*p.grain)
	yb := p.line.ReadFractional(1 + b*p.grain)
	p.line.Write(input)

	p.phase += p.step
	p.phase -= math.Floor(p.phase)

	sum := wa + wb
	if sum < 1e-9 {
		return 0
	}
	return (wa*ya + wb*yb) / sum
}

// ProcessInPlace shifts buf in place.
func (p *PitchShifter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = p.ProcessSample(buf[i])
	}
}

// update recomputes the grain length and the per-sample phase step. A tap
// reading at ratio r shortens its delay by r-1 samples per sample.
func (p *PitchShifter) update() {
	p.grain = math.Round(p.grainMs * 0.001 * p.sampleRate)
	p.step = (1 - Ratio(p.semitones)) / p.grain
}
