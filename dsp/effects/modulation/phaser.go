package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

const (
	defaultPhaserRateHz   = 0.4
	defaultPhaserMinHz    = 300.0
	defaultPhaserMaxHz    = 1600.0
	defaultPhaserStages   = 6
	defaultPhaserFeedback = 0.2

	minPhaserHz = 20.0
	maxPhaserHz = 20000.0
	// MaxPhaserStages is the deepest allpass cascade.
	MaxPhaserStages = 12
	// MaxPhaserFeedback bounds phaser feedback.
	MaxPhaserFeedback = 0.9
)

type phaserAllpassStage struct {
	x1 float64
	y1 float64
}

func (s *phaserAllpassStage) reset() {
	s.x1 = 0
	s.y1 = 0
}

// process runs y = a*x + x1 - a*y1.
func (s *phaserAllpassStage) process(x, a float64) float64 {
	y := a*x + s.x1 - a*s.y1
	s.x1 = x
	s.y1 = core.FlushDenormals(y)
	return y
}

// Phaser cascades first-order allpass stages whose break frequency sweeps
// exponentially between a minimum and maximum, with feedback from the last
// stage. Mixed with the dry signal the phase shift produces moving notches.
type Phaser struct {
	modulator

	sampleRate float64
	minHz      float64
	maxHz      float64
	feedback   float64

	stages [MaxPhaserStages]phaserAllpassStage
	count  int
	last   float64
}

// NewPhaser creates a six-stage phaser with practical defaults.
func NewPhaser(sampleRate float64) (*Phaser, error) {
	if err := validateSampleRate("phaser", sampleRate); err != nil {
		return nil, err
	}
	mod, err := newModulator(sampleRate, defaultPhaserRateHz)
	if err != nil {
		return nil, err
	}
	return &Phaser{
		modulator:  mod,
		sampleRate: sampleRate,
		minHz:      defaultPhaserMinHz,
		maxHz:      defaultPhaserMaxHz,
		feedback:   defaultPhaserFeedback,
		count:      defaultPhaserStages,
	}, nil
}

// SetSampleRate updates the sample rate.
func (p *Phaser) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("phaser", sampleRate); err != nil {
		return err
	}
	if err := p.osc.SetSampleRate(sampleRate); err != nil {
		return err
	}
	p.sampleRate = sampleRate
	return nil
}

// SetFrequencyRangeHz sets the sweep bounds. Swapped bounds are reordered.
func (p *Phaser) SetFrequencyRangeHz(minHz, maxHz float64) error {
	if minHz > maxHz {
		minHz, maxHz = maxHz, minHz
	}
	if err := validateRange("phaser min frequency", minHz, minPhaserHz, maxPhaserHz); err != nil {
		return err
	}
	if err := validateRange("phaser max frequency", maxHz, minPhaserHz, maxPhaserHz); err != nil {
		return err
	}
	p.minHz = minHz
	p.maxHz = maxHz
	return nil
}

// SetStages sets an even allpass count in [2, MaxPhaserStages].
func (p *Phaser) SetStages(n int) error {
	if n < 2 || n > MaxPhaserStages || n%2 != 0 {
		return fmt.Errorf("phaser stages must be even in [2, %d]: %d", MaxPhaserStages, n)
	}
	p.count = n
	return nil
}

// SetFeedback sets feedback in [0, MaxPhaserFeedback].
func (p *Phaser) SetFeedback(feedback float64) error {
	if err := validateRange("phaser feedback", feedback, 0, MaxPhaserFeedback); err != nil {
		return err
	}
	p.feedback = feedback
	return nil
}

// MinFrequencyHz returns the lower sweep bound.
func (p *Phaser) MinFrequencyHz() float64 { return p.minHz }

// MaxFrequencyHz returns the upper sweep bound.
func (p *Phaser) MaxFrequencyHz() float64 { return p.maxHz }

// Stages returns the allpass count.
func (p *Phaser) Stages() int { return p.count }

// Feedback returns the feedback amount.
func (p *Phaser) Feedback() float64 { return p.feedback }

// Reset clears filter state and modulation phase.
func (p *Phaser) Reset() {
	for i := range p.stages {
		p.stages[i].reset()
	}
	p.last = 0
	p.osc.Reset()
}

// Coefficient returns the first-order allpass coefficient (1-g)/(1+g),
// g = tan(pi*f/fs), for break frequency f.
func Coefficient(freqHz, sampleRate float64) float64 {
	f := math.Min(freqHz, 0.49*sampleRate)
	g := math.Tan(math.Pi * f / sampleRate)
	return (1 - g) / (1 + g)
}

// ProcessSample processes one sample and returns the allpass chain output.
func (p *Phaser) ProcessSample(input float64) float64 {
	mod := lfo.Unipolar(p.osc.Next())
	freq := p.minHz * math.Pow(p.maxHz/p.minHz, mod)
	a := Coefficient(freq, p.sampleRate)

	y := input + p.last*p.feedback
	for i := 0; i < p.count; i++ {
		y = p.stages[i].process(y, a)
	}
	p.last = y
	return y
}

// ProcessInPlace applies the phaser to buf in place.
func (p *Phaser) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = p.ProcessSample(buf[i])
	}
}
