package modulation

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/envelope"
	"github.com/cwbudde/algo-fx/dsp/filter/biquad"
	"github.com/cwbudde/algo-fx/dsp/filter/design"
)

const (
	defaultAutoWahMinHz       = 300.0
	defaultAutoWahMaxHz       = 2500.0
	defaultAutoWahQ           = 3.0
	defaultAutoWahSensitivity = 4.0
	defaultAutoWahAttackMs    = 5.0
	defaultAutoWahReleaseMs   = 80.0

	autoWahUpdateInterval = 16

	minAutoWahHz          = 20.0
	maxAutoWahHz          = 20000.0
	minAutoWahQ           = 0.1
	maxAutoWahQ           = 20.0
	maxAutoWahSensitivity = 20.0
)

// AutoWah is an envelope-controlled bandpass sweep. The input envelope,
// scaled by Sensitivity and clamped to [0, 1], places the centre
// exponentially between MinHz and MaxHz. Coefficients are redesigned every
// 16 samples.
type AutoWah struct {
	sampleRate  float64
	minHz       float64
	maxHz       float64
	q           float64
	sensitivity float64

	follower *envelope.Follower
	section  *biquad.Section
	counter  int
}

// NewAutoWah creates an auto-wah with practical defaults.
func NewAutoWah(sampleRate float64) (*AutoWah, error) {
	if err := validateSampleRate("auto-wah", sampleRate); err != nil {
		return nil, err
	}
	f, err := envelope.New(sampleRate, defaultAutoWahAttackMs, defaultAutoWahReleaseMs)
	if err != nil {
		return nil, err
	}
	w := &AutoWah{
		sampleRate:  sampleRate,
		minHz:       defaultAutoWahMinHz,
		maxHz:       defaultAutoWahMaxHz,
		q:           defaultAutoWahQ,
		sensitivity: defaultAutoWahSensitivity,
		follower:    f,
	}
	w.section = biquad.NewSection(design.Bandpass(w.minHz, w.q, sampleRate))
	return w, nil
}

// SetSampleRate updates the sample rate.
func (w *AutoWah) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("auto-wah", sampleRate); err != nil {
		return err
	}
	if err := w.follower.SetSampleRate(sampleRate); err != nil {
		return err
	}
	w.sampleRate = sampleRate
	w.counter = 0
	return nil
}

// SetFrequencyRangeHz sets the sweep bounds. Swapped bounds are reordered.
func (w *AutoWah) SetFrequencyRangeHz(minHz, maxHz float64) error {
	if minHz > maxHz {
		minHz, maxHz = maxHz, minHz
	}
	if err := validateRange("auto-wah min frequency", minHz, minAutoWahHz, maxAutoWahHz); err != nil {
		return err
	}
	if err := validateRange("auto-wah max frequency", maxHz, minAutoWahHz, maxAutoWahHz); err != nil {
		return err
	}
	w.minHz = minHz
	w.maxHz = maxHz
	return nil
}

// SetQ sets the bandpass resonance.
func (w *AutoWah) SetQ(q float64) error {
	if err := validateRange("auto-wah q", q, minAutoWahQ, maxAutoWahQ); err != nil {
		return err
	}
	w.q = q
	return nil
}

// SetSensitivity sets the envelope gain in [0, 20].
func (w *AutoWah) SetSensitivity(s float64) error {
	if err := validateRange("auto-wah sensitivity", s, 0, maxAutoWahSensitivity); err != nil {
		return err
	}
	w.sensitivity = s
	return nil
}

// SetAttackMs sets the envelope attack.
func (w *AutoWah) SetAttackMs(ms float64) error { return w.follower.SetAttack(ms) }

// SetReleaseMs sets the envelope release.
func (w *AutoWah) SetReleaseMs(ms float64) error { return w.follower.SetRelease(ms) }

func (w *AutoWah) MinFrequencyHz() float64 { return w.minHz }
func (w *AutoWah) MaxFrequencyHz() float64 { return w.maxHz }
func (w *AutoWah) Q() float64              { return w.q }
func (w *AutoWah) Sensitivity() float64    { return w.sensitivity }

// CenterHz returns the centre frequency for the current envelope.
func (w *AutoWah) CenterHz() float64 {
	ctl := w.follower.Value() * w.sensitivity
	if ctl > 1 {
		ctl = 1
	}
	return w.minHz * math.Pow(w.maxHz/w.minHz, ctl)
}

// Reset clears filter and envelope state.
func (w *AutoWah) Reset() {
	w.follower.Reset()
	w.section.Reset()
	w.counter = 0
}

// ProcessSample processes one sample.
func (w *AutoWah) ProcessSample(input float64) float64 {
	w.follower.Process(input)
	if w.counter == 0 {
		w.section.SetCoefficients(design.Bandpass(w.CenterHz(), w.q, w.sampleRate))
	}
	w.counter++
	if w.counter >= autoWahUpdateInterval {
		w.counter = 0
	}
	return w.section.ProcessSample(input)
}

// ProcessInPlace applies the auto-wah to buf in place.
func (w *AutoWah) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = w.ProcessSample(buf[i])
	}
}
