package dynamics

import "math"

const (
	defaultGateThresholdDB = -40.0
	defaultGateRatio       = 10.0
	defaultGateKneeDB      = 6.0
	defaultGateAttackMs    = 0.1
	defaultGateHoldMs      = 0.0
	defaultGateReleaseMs   = 100.0
	defaultGateRangeDB     = -80.0

	minGateThresholdDB = -100.0
	maxGateThresholdDB = 0.0
	maxGateRatio       = 100.0
	minGateAttackMs    = 0.01
	maxGateAttackMs    = 1000.0
	maxGateHoldMs      = 5000.0
	minGateReleaseMs   = 1.0
	maxGateReleaseMs   = 5000.0
)

// Gate attenuates signal whose level falls below the threshold.
//
// Parameters:
//   - Threshold: level below which gating starts
//   - Ratio: expansion ratio, 1 disables gating
//   - Knee: width of the linear transition around the threshold
//   - Attack: how quickly the detector rises (gate opening)
//   - Hold: time the gate stays fully open after the level drops
//   - Release: how quickly the detector falls (gate closing)
//   - Range: deepest attenuation
type Gate struct {
	sampleRate float64
	holdMs     float64

	det  detector
	comp *GainComputer

	holdSamples int
	holdCounter int
	gainDB      float64

	metrics Metrics
}

// NewGate creates a gate at -40 dB, ratio 10, knee 6 dB, attack 0.1 ms,
// release 100 ms, range -80 dB and no hold.
func NewGate(sampleRate float64) (*Gate, error) {
	if err := validateSampleRate("gate", sampleRate); err != nil {
		return nil, err
	}
	det, err := newDetector(sampleRate, defaultGateAttackMs, defaultGateReleaseMs)
	if err != nil {
		return nil, err
	}
	comp := NewGainComputer(ModeGate)
	_ = comp.SetThreshold(defaultGateThresholdDB)
	_ = comp.SetRatio(defaultGateRatio)
	_ = comp.SetKnee(defaultGateKneeDB)
	_ = comp.SetRange(defaultGateRangeDB)

	g := &Gate{
		sampleRate: sampleRate,
		holdMs:     defaultGateHoldMs,
		det:        det,
		comp:       comp,
		gainDB:     defaultGateRangeDB,
	}
	g.updateHold()
	g.metrics.reset()
	return g, nil
}

// SetSampleRate updates the sample rate.
func (g *Gate) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("gate", sampleRate); err != nil {
		return err
	}
	if err := g.det.follower.SetSampleRate(sampleRate); err != nil {
		return err
	}
	g.sampleRate = sampleRate
	g.updateHold()
	return nil
}

// SetThreshold sets the threshold in [-100, 0] dB.
func (g *Gate) SetThreshold(dB float64) error {
	if err := validateRange("gate threshold", dB, minGateThresholdDB, maxGateThresholdDB); err != nil {
		return err
	}
	return g.comp.SetThreshold(dB)
}

// SetRatio sets the expansion ratio in [1, 100].
func (g *Gate) SetRatio(ratio float64) error {
	if err := validateRange("gate ratio", ratio, minRatio, maxGateRatio); err != nil {
		return err
	}
	return g.comp.SetRatio(ratio)
}

// SetKnee sets the knee width in [0, 24] dB.
func (g *Gate) SetKnee(dB float64) error { return g.comp.SetKnee(dB) }

// SetRange sets the deepest attenuation in [-120, 0] dB.
func (g *Gate) SetRange(dB float64) error { return g.comp.SetRange(dB) }

// SetAttack sets the attack time in milliseconds.
func (g *Gate) SetAttack(ms float64) error {
	if err := validateRange("gate attack", ms, minGateAttackMs, maxGateAttackMs); err != nil {
		return err
	}
	return g.det.follower.SetAttack(ms)
}

// SetRelease sets the release time in milliseconds.
func (g *Gate) SetRelease(ms float64) error {
	if err := validateRange("gate release", ms, minGateReleaseMs, maxGateReleaseMs); err != nil {
		return err
	}
	return g.det.follower.SetRelease(ms)
}

// SetHold sets the hold time in [0, 5000] ms.
func (g *Gate) SetHold(ms float64) error {
	if err := validateRange("gate hold", ms, 0, maxGateHoldMs); err != nil {
		return err
	}
	g.holdMs = ms
	g.updateHold()
	return nil
}

// Threshold returns the threshold in dB.
func (g *Gate) Threshold() float64 { return g.comp.Threshold() }

// Ratio returns the expansion ratio.
func (g *Gate) Ratio() float64 { return g.comp.Ratio() }

// Knee returns the knee width in dB.
func (g *Gate) Knee() float64 { return g.comp.Knee() }

// Range returns the deepest attenuation in dB.
func (g *Gate) Range() float64 { return g.comp.Range() }

// Attack returns the attack time in milliseconds.
func (g *Gate) Attack() float64 { return g.det.follower.Attack() }

// Release returns the release time in milliseconds.
func (g *Gate) Release() float64 { return g.det.follower.Release() }

// Hold returns the hold time in milliseconds.
func (g *Gate) Hold() float64 { return g.holdMs }

// GainDB returns the gain applied to the last sample.
func (g *Gate) GainDB() float64 { return g.gainDB }

// LevelDB returns the detector level.
func (g *Gate) LevelDB() float64 { return g.det.levelDB() }

// Metrics returns metering since the last ResetMetrics.
func (g *Gate) Metrics() Metrics { return g.metrics }

// ResetMetrics clears metering.
func (g *Gate) ResetMetrics() { g.metrics.reset() }

// Reset closes the gate and clears the detector.
func (g *Gate) Reset() {
	g.det.reset()
	g.holdCounter = 0
	g.gainDB = g.comp.Range()
	g.metrics.reset()
}

// ProcessSample gates one sample, detecting from the sample itself.
func (g *Gate) ProcessSample(input float64) float64 {
	return g.ProcessLinked(input, math.Abs(input))
}

// ProcessLinked gates input using an external detector level.
func (g *Gate) ProcessLinked(input, level float64) float64 {
	gainDB := g.comp.GainDB(g.det.track(level))
	if gainDB >= 0 {
		g.holdCounter = g.holdSamples
	} else if g.holdCounter > 0 {
		g.holdCounter--
		gainDB = 0
	}
	g.gainDB = gainDB

	gain := dbToGain(gainDB)
	out := input * gain
	g.metrics.update(level, out, gain)
	return out
}

// ProcessInPlace gates buf in place.
func (g *Gate) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = g.ProcessSample(buf[i])
	}
}

func (g *Gate) updateHold() {
	g.holdSamples = int(g.holdMs * 0.001 * g.sampleRate)
}
