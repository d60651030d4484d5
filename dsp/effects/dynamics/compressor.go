package dynamics

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
)

const (
	defaultCompressorThresholdDB = -20.0
	defaultCompressorRatio       = 4.0
	defaultCompressorKneeDB      = 6.0
	defaultCompressorAttackMs    = 10.0
	defaultCompressorReleaseMs   = 100.0

	minCompressorThresholdDB = -60.0
	maxCompressorThresholdDB = 0.0
	maxCompressorRatio       = 20.0
	minCompressorAttackMs    = 0.1
	maxCompressorAttackMs    = 1000.0
	minCompressorReleaseMs   = 1.0
	maxCompressorReleaseMs   = 5000.0
	maxMakeupDB              = 24.0
)

// Compressor is a downward compressor with a linear knee and makeup gain.
type Compressor struct {
	det  detector
	comp *GainComputer

	makeupDB  float64
	makeupLin float64
	gainDB    float64

	metrics Metrics
}

// NewCompressor creates a 4:1 compressor at -20 dB with a 6 dB knee.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if err := validateSampleRate("compressor", sampleRate); err != nil {
		return nil, err
	}
	det, err := newDetector(sampleRate, defaultCompressorAttackMs, defaultCompressorReleaseMs)
	if err != nil {
		return nil, err
	}
	comp := NewGainComputer(ModeCompress)
	_ = comp.SetThreshold(defaultCompressorThresholdDB)
	_ = comp.SetRatio(defaultCompressorRatio)
	_ = comp.SetKnee(defaultCompressorKneeDB)

	c := &Compressor{det: det, comp: comp, makeupLin: 1}
	c.metrics.reset()
	return c, nil
}

// SetSampleRate updates the sample rate.
func (c *Compressor) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("compressor", sampleRate); err != nil {
		return err
	}
	return c.det.follower.SetSampleRate(sampleRate)
}

// SetThreshold sets the threshold in [-60, 0] dB.
func (c *Compressor) SetThreshold(dB float64) error {
	if err := validateRange("compressor threshold", dB, minCompressorThresholdDB, maxCompressorThresholdDB); err != nil {
		return err
	}
	return c.comp.SetThreshold(dB)
}

// SetRatio sets the ratio in [1, 20].
func (c *Compressor) SetRatio(ratio float64) error {
	if err := validateRange("compressor ratio", ratio, minRatio, maxCompressorRatio); err != nil {
		return err
	}
	return c.comp.SetRatio(ratio)
}

// SetKnee sets the knee width in [0, 24] dB.
func (c *Compressor) SetKnee(dB float64) error { return c.comp.SetKnee(dB) }

// SetAttack sets the attack time in milliseconds.
func (c *Compressor) SetAttack(ms float64) error {
	if err := validateRange("compressor attack", ms, minCompressorAttackMs, maxCompressorAttackMs); err != nil {
		return err
	}
	return c.det.follower.SetAttack(ms)
}

// SetRelease sets the release time in milliseconds.
func (c *Compressor) SetRelease(ms float64) error {
	if err := validateRange("compressor release", ms, minCompressorReleaseMs, maxCompressorReleaseMs); err != nil {
		return err
	}
	return c.det.follower.SetRelease(ms)
}

// SetMakeup sets the output gain in [0, 24] dB.
func (c *Compressor) SetMakeup(dB float64) error {
	if err := validateRange("compressor makeup", dB, 0, maxMakeupDB); err != nil {
		return err
	}
	c.makeupDB = dB
	c.makeupLin = core.DBToLinear(dB)
	return nil
}

func (c *Compressor) Threshold() float64 { return c.comp.Threshold() }
func (c *Compressor) Ratio() float64     { return c.comp.Ratio() }
func (c *Compressor) Knee() float64      { return c.comp.Knee() }
func (c *Compressor) Attack() float64    { return c.det.follower.Attack() }
func (c *Compressor) Release() float64   { return c.det.follower.Release() }
func (c *Compressor) Makeup() float64    { return c.makeupDB }

// GainDB returns the gain reduction applied to the last sample, without
// makeup.
func (c *Compressor) GainDB() float64 { return c.gainDB }

// Metrics returns metering since the last ResetMetrics.
func (c *Compressor) Metrics() Metrics { return c.metrics }

// ResetMetrics clears metering.
func (c *Compressor) ResetMetrics() { c.metrics.reset() }

// Reset clears the detector.
func (c *Compressor) Reset() {
	c.det.reset()
	c.gainDB = 0
	c.metrics.reset()
}

// ProcessSample compresses one sample, detecting from the sample itself.
func (c *Compressor) ProcessSample(input float64) float64 {
	return c.ProcessLinked(input, math.Abs(input))
}

// ProcessLinked compresses input using an external detector level.
func (c *Compressor) ProcessLinked(input, level float64) float64 {
	c.gainDB = c.comp.GainDB(c.det.track(level))
	gain := dbToGain(c.gainDB)
	out := input * gain * c.makeupLin
	c.metrics.update(level, out, gain)
	return out
}

// ProcessInPlace compresses buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}
