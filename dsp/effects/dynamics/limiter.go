package dynamics

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/envelope"
)

const (
	defaultLimiterThresholdDB = -1.0
	defaultLimiterReleaseMs   = 50.0
	defaultLimiterLookaheadMs = 5.0

	minLimiterThresholdDB = -24.0
	maxLimiterThresholdDB = 0.0
	minLimiterReleaseMs   = 1.0
	maxLimiterReleaseMs   = 1000.0
	// MaxLookaheadMs bounds the lookahead line.
	MaxLookaheadMs = 20.0

	minLimiterAttackMs = 0.01
)

// Limiter is an infinite-ratio compressor whose program path is delayed by
// the lookahead so the gain is already down when a peak reaches the output.
// The detector catches peaks at once; the gain reduction itself ramps in
// over a third of the lookahead and recovers with the detector release.
type Limiter struct {
	sampleRate  float64
	lookaheadMs float64
	lookahead   int

	det    detector
	comp   *GainComputer
	line   *delay.Line
	smooth *envelope.Follower

	makeupDB  float64
	makeupLin float64
	gainDB    float64

	metrics Metrics
}

// NewLimiter creates a limiter at -1 dB with 5 ms lookahead and 50 ms
// release.
func NewLimiter(sampleRate float64) (*Limiter, error) {
	if err := validateSampleRate("limiter", sampleRate); err != nil {
		return nil, err
	}
	det, err := newDetector(sampleRate, minLimiterAttackMs, defaultLimiterReleaseMs)
	if err != nil {
		return nil, err
	}
	smooth, err := envelope.New(sampleRate, defaultLimiterLookaheadMs/3, minLimiterAttackMs)
	if err != nil {
		return nil, err
	}
	comp := NewGainComputer(ModeCompress)
	_ = comp.SetThreshold(defaultLimiterThresholdDB)
	_ = comp.SetRatio(math.Inf(1))

	l := &Limiter{
		lookaheadMs: defaultLimiterLookaheadMs,
		det:         det,
		comp:        comp,
		smooth:      smooth,
		makeupLin:   1,
	}
	if err := l.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	l.metrics.reset()
	return l, nil
}

// SetSampleRate resizes the lookahead line.
func (l *Limiter) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("limiter", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(MaxLookaheadMs*0.001, sampleRate)
	if l.line == nil {
		line, err := delay.New(capacity)
		if err != nil {
			return err
		}
		l.line = line
	} else if err := l.line.Resize(capacity); err != nil {
		return err
	}
	if err := l.det.follower.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := l.smooth.SetSampleRate(sampleRate); err != nil {
		return err
	}
	l.sampleRate = sampleRate
	l.updateLookahead()
	return nil
}

// SetThreshold sets the ceiling in [-24, 0] dB.
func (l *Limiter) SetThreshold(dB float64) error {
	if err := validateRange("limiter threshold", dB, minLimiterThresholdDB, maxLimiterThresholdDB); err != nil {
		return err
	}
	return l.comp.SetThreshold(dB)
}

// SetKnee sets the knee width in [0, 24] dB.
func (l *Limiter) SetKnee(dB float64) error { return l.comp.SetKnee(dB) }

// SetRelease sets the release time in milliseconds.
func (l *Limiter) SetRelease(ms float64) error {
	if err := validateRange("limiter release", ms, minLimiterReleaseMs, maxLimiterReleaseMs); err != nil {
		return err
	}
	return l.det.follower.SetRelease(ms)
}

// SetLookahead sets the lookahead in [0, MaxLookaheadMs] ms.
func (l *Limiter) SetLookahead(ms float64) error {
	if err := validateRange("limiter lookahead", ms, 0, MaxLookaheadMs); err != nil {
		return err
	}
	l.lookaheadMs = ms
	l.updateLookahead()
	return nil
}

// SetMakeup sets the output gain in [0, 24] dB.
func (l *Limiter) SetMakeup(dB float64) error {
	if err := validateRange("limiter makeup", dB, 0, maxMakeupDB); err != nil {
		return err
	}
	l.makeupDB = dB
	l.makeupLin = core.DBToLinear(dB)
	return nil
}

// Threshold returns the ceiling in dB.
func (l *Limiter) Threshold() float64 { return l.comp.Threshold() }

// Release returns the release time in milliseconds.
func (l *Limiter) Release() float64 { return l.det.follower.Release() }

// Lookahead returns the lookahead in milliseconds.
func (l *Limiter) Lookahead() float64 { return l.lookaheadMs }

// Makeup returns the makeup gain in dB.
func (l *Limiter) Makeup() float64 { return l.makeupDB }

// Latency returns the program delay in samples.
func (l *Limiter) Latency() int { return l.lookahead }

// GainDB returns the gain reduction applied to the last sample.
func (l *Limiter) GainDB() float64 { return l.gainDB }

// Metrics returns metering since the last ResetMetrics.
func (l *Limiter) Metrics() Metrics { return l.metrics }

// ResetMetrics clears metering.
func (l *Limiter) ResetMetrics() { l.metrics.reset() }

// Reset clears the lookahead line and detector.
func (l *Limiter) Reset() {
	l.line.Reset()
	l.det.reset()
	l.smooth.Reset()
	l.gainDB = 0
	l.metrics.reset()
}

// ProcessSample limits one sample, detecting from the sample itself.
func (l *Limiter) ProcessSample(input float64) float64 {
	return l.ProcessLinked(input, math.Abs(input))
}

// ProcessLinked limits input using an external detector level. The level
// belongs to the undelayed input.
func (l *Limiter) ProcessLinked(input, level float64) float64 {
	target := -l.comp.GainDB(l.det.track(level))
	l.gainDB = -l.smooth.Track(target)

	delayed := input
	if l.lookahead > 0 {
		delayed = l.line.Read(l.lookahead)
		l.line.Write(input)
	}

	gain := dbToGain(l.gainDB)
	out := delayed * gain * l.makeupLin
	l.metrics.update(level, out, gain)
	return out
}

// ProcessInPlace limits buf in place.
func (l *Limiter) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = l.ProcessSample(buf[i])
	}
}

func (l *Limiter) updateLookahead() {
	l.lookahead = int(math.Round(l.lookaheadMs * 0.001 * l.sampleRate))
	_ = l.smooth.SetAttack(math.Max(l.lookaheadMs/3, minLimiterAttackMs))
}
