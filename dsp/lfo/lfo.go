// Package lfo provides low-frequency oscillators for modulation effects.
//
// An LFO advances a phase accumulator in [0, 1) once per sample. Its rate is
// either free-running in Hz or synced to a number of beats of an injected
// Tempo.
package lfo

import (
	"fmt"
	"math"
)

// Waveform selects the oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Triangle
	Square
	SawUp
	SawDown
	// SampleHold holds a new random value for each cycle.
	SampleHold
	// Morph blends sine, triangle and square by the Shape setting.
	Morph
)

const (
	minRateHz = 0.001
	maxRateHz = 100.0
)

// Option configures an LFO at construction time.
type Option func(*LFO) error

// WithRate sets the free-running rate in Hz.
func WithRate(hz float64) Option {
	return func(l *LFO) error { return l.SetRate(hz) }
}

// WithWaveform selects the waveform.
func WithWaveform(w Waveform) Option {
	return func(l *LFO) error {
		l.SetWaveform(w)
		return nil
	}
}

// WithPhaseOffset starts the oscillator at the given phase in cycles.
func WithPhaseOffset(offset float64) Option {
	return func(l *LFO) error {
		l.phase = wrap(offset)
		return nil
	}
}

// WithTempo attaches a tempo source used when a sync length is set.
func WithTempo(t Tempo) Option {
	return func(l *LFO) error {
		l.tempo = t
		return nil
	}
}

// WithSeed seeds the sample-and-hold generator.
func WithSeed(seed uint32) Option {
	return func(l *LFO) error {
		if seed == 0 {
			seed = 1
		}
		l.rng = seed
		return nil
	}
}

// LFO is a per-instance low-frequency oscillator. Output is bipolar in
// [-1, 1].
type LFO struct {
	sampleRate float64
	rateHz     float64
	syncBeats  float64
	tempo      Tempo

	waveform Waveform
	shape    float64

	phase float64
	inc   float64

	held float64
	rng  uint32
}

// New creates a sine LFO at 1 Hz with zero phase.
func New(sampleRate float64, opts ...Option) (*LFO, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}
	l := &LFO{sampleRate: sampleRate, rateHz: 1, rng: 0x9e3779b9}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	l.held = l.nextRandom()
	l.Refresh()
	return l, nil
}

// SetSampleRate updates the sample rate.
func (l *LFO) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}
	l.sampleRate = sampleRate
	l.Refresh()
	return nil
}

// SetRate sets the free-running rate in Hz.
func (l *LFO) SetRate(hz float64) error {
	if hz < minRateHz || hz > maxRateHz || math.IsNaN(hz) {
		return fmt.Errorf("lfo rate must be in [%g, %g] Hz: %f", minRateHz, maxRateHz, hz)
	}
	l.rateHz = hz
	l.Refresh()
	return nil
}

// SetSync sets the cycle length in beats. Zero returns to the free-running
// rate.
func (l *LFO) SetSync(beats float64) error {
	if beats < 0 || math.IsNaN(beats) || math.IsInf(beats, 0) {
		return fmt.Errorf("lfo sync length must be >= 0 beats: %f", beats)
	}
	l.syncBeats = beats
	l.Refresh()
	return nil
}

// SetTempo attaches a tempo source.
func (l *LFO) SetTempo(t Tempo) {
	l.tempo = t
	l.Refresh()
}

// SetWaveform selects the waveform.
func (l *LFO) SetWaveform(w Waveform) {
	l.waveform = w
}

// SetShape sets the Morph blend in [0, 1]: 0 is sine, 0.5 triangle, 1
// square. Values outside the range are clamped.
func (l *LFO) SetShape(shape float64) {
	if math.IsNaN(shape) {
		return
	}
	l.shape = math.Max(0, math.Min(1, shape))
}

// SetPhase moves the phase accumulator, wrapping into [0, 1).
func (l *LFO) SetPhase(phase float64) {
	l.phase = wrap(phase)
}

// Refresh recomputes the phase increment. Tempo-synced oscillators call it
// once per block so tempo changes land on block boundaries.
func (l *LFO) Refresh() {
	l.inc = l.Rate() / l.sampleRate
}

// Rate returns the effective rate in Hz.
func (l *LFO) Rate() float64 {
	if l.syncBeats > 0 {
		return 1 / BeatsToSeconds(l.syncBeats, l.tempo)
	}
	return l.rateHz
}

// Phase returns the current phase in [0, 1).
func (l *LFO) Phase() float64 { return l.phase }

// Waveform returns the selected waveform.
func (l *LFO) Waveform() Waveform { return l.waveform }

// Shape returns the Morph blend.
func (l *LFO) Shape() float64 { return l.shape }

// Value returns the output at the current phase without advancing.
func (l *LFO) Value() float64 {
	p := l.phase
	switch l.waveform {
	case Sine:
		return sine(p)
	case Triangle:
		return triangle(p)
	case Square:
		return square(p)
	case SawUp:
		return 2*p - 1
	case SawDown:
		return 1 - 2*p
	case SampleHold:
		return l.held
	case Morph:
		if l.shape <= 0.5 {
			t := l.shape * 2
			return sine(p)*(1-t) + triangle(p)*t
		}
		t := (l.shape - 0.5) * 2
		return triangle(p)*(1-t) + square(p)*t
	default:
		return 0
	}
}

// Next returns the output at the current phase and advances by one sample.
func (l *LFO) Next() float64 {
	v := l.Value()
	l.phase += l.inc
	if l.phase >= 1 {
		l.phase -= math.Floor(l.phase)
		l.held = l.nextRandom()
	}
	return v
}

// Unipolar maps a bipolar LFO value to [0, 1].
func Unipolar(v float64) float64 {
	return 0.5 * (v + 1)
}

// Clone returns an independent copy whose phase is shifted by offset
// cycles. Stereo effects derive the right channel this way so both sides
// stay correlated.
func (l *LFO) Clone(offset float64) *LFO {
	c := *l
	c.phase = wrap(l.phase + offset)
	return &c
}

// Reset returns the phase to zero.
func (l *LFO) Reset() {
	l.phase = 0
}

// nextRandom is a per-instance xorshift32 in [-1, 1].
func (l *LFO) nextRandom() float64 {
	x := l.rng
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	l.rng = x
	return float64(x)/float64(math.MaxUint32)*2 - 1
}

func sine(p float64) float64 {
	return math.Sin(2 * math.Pi * p)
}

func triangle(p float64) float64 {
	if p < 0.25 {
		return 4 * p
	}
	if p < 0.75 {
		return 2 - 4*p
	}
	return 4*p - 4
}

func square(p float64) float64 {
	if p < 0.5 {
		return 1
	}
	return -1
}

func wrap(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0
	}
	return p - math.Floor(p)
}
