package dynamics

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effects"
)

const (
	defaultDuckThresholdDB = -30.0
	defaultDuckAmountDB    = 12.0
	defaultDuckAttackMs    = 5.0
	defaultDuckReleaseMs   = 250.0

	minDuckThresholdDB = -60.0
	maxDuckThresholdDB = 0.0
	maxDuckAmountDB    = 60.0
	minDuckReleaseMs   = 10.0
	maxDuckReleaseMs   = 5000.0

	// duckKneeDB is the width over which ducking fades in above the
	// threshold.
	duckKneeDB = 6.0
)

// DuckingDelay is a feedback delay whose echoes are pulled down by Amount
// while the dry input is above the threshold, and swell back in the gaps.
// The time, feedback, tone and tempo controls come from the embedded Delay.
type DuckingDelay struct {
	*effects.Delay

	det         detector
	thresholdDB float64
	amountDB    float64
	gainDB      float64
}

// NewDuckingDelay creates a ducking delay. opts configure the delay line.
func NewDuckingDelay(sampleRate float64, opts ...effects.DelayOption) (*DuckingDelay, error) {
	if err := validateSampleRate("ducking delay", sampleRate); err != nil {
		return nil, err
	}
	d, err := effects.NewDelay(sampleRate, opts...)
	if err != nil {
		return nil, err
	}
	det, err := newDetector(sampleRate, defaultDuckAttackMs, defaultDuckReleaseMs)
	if err != nil {
		return nil, err
	}
	return &DuckingDelay{
		Delay:       d,
		det:         det,
		thresholdDB: defaultDuckThresholdDB,
		amountDB:    defaultDuckAmountDB,
	}, nil
}

// SetSampleRate resizes the delay and retunes the detector.
func (d *DuckingDelay) SetSampleRate(sampleRate float64) error {
	if err := d.Delay.SetSampleRate(sampleRate); err != nil {
		return err
	}
	return d.det.follower.SetSampleRate(sampleRate)
}

// SetThreshold sets the dry level in [-60, 0] dB above which echoes duck.
func (d *DuckingDelay) SetThreshold(dB float64) error {
	if err := validateRange("ducking threshold", dB, minDuckThresholdDB, maxDuckThresholdDB); err != nil {
		return err
	}
	d.thresholdDB = dB
	return nil
}

// SetAmount sets the echo attenuation in [0, 60] dB.
func (d *DuckingDelay) SetAmount(dB float64) error {
	if err := validateRange("ducking amount", dB, 0, maxDuckAmountDB); err != nil {
		return err
	}
	d.amountDB = dB
	return nil
}

// SetDuckRelease sets how quickly echoes recover, in milliseconds.
func (d *DuckingDelay) SetDuckRelease(ms float64) error {
	if err := validateRange("ducking release", ms, minDuckReleaseMs, maxDuckReleaseMs); err != nil {
		return err
	}
	return d.det.follower.SetRelease(ms)
}

// Threshold returns the ducking threshold in dB.
func (d *DuckingDelay) Threshold() float64 { return d.thresholdDB }

// Amount returns the ducking depth in dB.
func (d *DuckingDelay) Amount() float64 { return d.amountDB }

// DuckRelease returns the recovery time in milliseconds.
func (d *DuckingDelay) DuckRelease() float64 { return d.det.follower.Release() }

// GainDB returns the echo gain applied to the last sample.
func (d *DuckingDelay) GainDB() float64 { return d.gainDB }

// Reset clears the delay line and detector.
func (d *DuckingDelay) Reset() {
	d.Delay.Reset()
	d.det.reset()
	d.gainDB = 0
}

// ProcessSample returns the ducked echo of input.
func (d *DuckingDelay) ProcessSample(input float64) float64 {
	return d.ProcessLinked(input, math.Abs(input))
}

// ProcessLinked returns the ducked echo of input, ducking on level.
func (d *DuckingDelay) ProcessLinked(input, level float64) float64 {
	env := d.det.track(level)
	over := core.Clamp((env-d.thresholdDB)/duckKneeDB, 0, 1)
	d.gainDB = -d.amountDB * over
	return d.Delay.ProcessSample(input) * dbToGain(d.gainDB)
}

// ProcessInPlace applies the ducking delay to buf in place.
func (d *DuckingDelay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}
