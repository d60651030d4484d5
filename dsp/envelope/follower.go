// Package envelope provides an asymmetric attack/release envelope follower.
package envelope

import (
	"fmt"
	"math"
)

const (
	minTimeMs = 0.001
	maxTimeMs = 60000.0
)

// Follower tracks the amplitude of a signal with independent attack and
// release time constants.
//
// Each coefficient is exp(-1/(t*fs)) and lies in (0, 1). When the input is
// above the current envelope the attack coefficient is used, otherwise the
// release coefficient:
//
//	env = coeff*env + (1-coeff)*input
type Follower struct {
	sampleRate float64
	attackMs   float64
	releaseMs  float64

	attackCoeff  float64
	releaseCoeff float64

	initial  float64
	envelope float64
}

// New creates a follower. Times are in milliseconds.
func New(sampleRate, attackMs, releaseMs float64) (*Follower, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("envelope sample rate must be > 0 and finite: %f", sampleRate)
	}
	f := &Follower{sampleRate: sampleRate}
	if err := f.SetAttack(attackMs); err != nil {
		return nil, err
	}
	if err := f.SetRelease(releaseMs); err != nil {
		return nil, err
	}
	return f, nil
}

// Coefficient converts a time constant in milliseconds to a one-pole
// smoothing coefficient in (0, 1).
func Coefficient(timeMs, sampleRate float64) float64 {
	if timeMs < minTimeMs {
		timeMs = minTimeMs
	} else if timeMs > maxTimeMs {
		timeMs = maxTimeMs
	}
	return math.Exp(-1 / (timeMs * 0.001 * sampleRate))
}

// SetSampleRate updates the sample rate and recomputes both coefficients.
func (f *Follower) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("envelope sample rate must be > 0 and finite: %f", sampleRate)
	}
	f.sampleRate = sampleRate
	f.attackCoeff = Coefficient(f.attackMs, sampleRate)
	f.releaseCoeff = Coefficient(f.releaseMs, sampleRate)
	return nil
}

// SetAttack sets the attack time in milliseconds.
func (f *Follower) SetAttack(ms float64) error {
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("envelope attack must be > 0 and finite: %f", ms)
	}
	f.attackMs = ms
	f.attackCoeff = Coefficient(ms, f.sampleRate)
	return nil
}

// SetRelease sets the release time in milliseconds.
func (f *Follower) SetRelease(ms float64) error {
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fmt.Errorf("envelope release must be > 0 and finite: %f", ms)
	}
	f.releaseMs = ms
	f.releaseCoeff = Coefficient(ms, f.sampleRate)
	return nil
}

// SetInitial sets the value Reset returns the envelope to. Followers that
// track dB levels start from a silence floor instead of 0.
func (f *Follower) SetInitial(v float64) {
	f.initial = v
	f.envelope = v
}

// Process rectifies x and advances the envelope.
func (f *Follower) Process(x float64) float64 {
	return f.Track(math.Abs(x))
}

// Track advances the envelope toward v without rectifying it, for inputs
// that are already levels (for example dB values).
func (f *Follower) Track(v float64) float64 {
	coeff := f.releaseCoeff
	if v > f.envelope {
		coeff = f.attackCoeff
	}
	f.envelope = coeff*f.envelope + (1-coeff)*v
	return f.envelope
}

// Value returns the current envelope.
func (f *Follower) Value() float64 { return f.envelope }

// Reset returns the envelope to its initial value.
func (f *Follower) Reset() { f.envelope = f.initial }

// Attack returns the attack time in milliseconds.
func (f *Follower) Attack() float64 { return f.attackMs }

// Release returns the release time in milliseconds.
func (f *Follower) Release() float64 { return f.releaseMs }

// AttackCoeff returns the attack smoothing coefficient.
func (f *Follower) AttackCoeff() float64 { return f.attackCoeff }

// ReleaseCoeff returns the release smoothing coefficient.
func (f *Follower) ReleaseCoeff() float64 { return f.releaseCoeff }
