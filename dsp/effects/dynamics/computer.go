package dynamics

import (
	"fmt"
	"math"
)

// Mode selects which side of the threshold a GainComputer acts on.
type Mode int

const (
	// ModeCompress attenuates levels above the threshold.
	ModeCompress Mode = iota
	// ModeGate attenuates levels below the threshold.
	ModeGate
)

func (m Mode) String() string {
	switch m {
	case ModeCompress:
		return "compress"
	case ModeGate:
		return "gate"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

const (
	minKneeDB  = 0.0
	maxKneeDB  = 24.0
	minRangeDB = -120.0
	maxRangeDB = 0.0
	minRatio   = 1.0
)

// GainComputer maps a detector level in dB to a gain in dB.
//
// Above the knee (compress mode) the gain is -(l-T)(1-1/R). Below the knee
// (gate mode) it is max(range, -(T-l)(R-1)). Inside a knee of width K the
// gain is interpolated linearly between 0 dB at the inner edge and the
// curve value at the outer edge. An infinite ratio is a hard limit.
type GainComputer struct {
	mode        Mode
	thresholdDB float64
	ratio       float64
	kneeDB      float64
	rangeDB     float64
}

// NewGainComputer returns a hard-knee computer at threshold 0 dB and ratio 1
// (unity gain everywhere).
func NewGainComputer(mode Mode) *GainComputer {
	return &GainComputer{mode: mode, ratio: 1, rangeDB: minRangeDB}
}

// SetThreshold sets the threshold in dB.
func (g *GainComputer) SetThreshold(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("threshold must be finite: %f", dB)
	}
	g.thresholdDB = dB
	return nil
}

// SetRatio sets the ratio. +Inf is accepted.
func (g *GainComputer) SetRatio(ratio float64) error {
	if ratio < minRatio || math.IsNaN(ratio) {
		return fmt.Errorf("ratio must be >= %g: %f", minRatio, ratio)
	}
	g.ratio = ratio
	return nil
}

// SetKnee sets the knee width in dB.
func (g *GainComputer) SetKnee(dB float64) error {
	if dB < minKneeDB || dB > maxKneeDB || math.IsNaN(dB) {
		return fmt.Errorf("knee must be in [%g, %g] dB: %f", minKneeDB, maxKneeDB, dB)
	}
	g.kneeDB = dB
	return nil
}

// SetRange sets the deepest gate attenuation in dB.
func (g *GainComputer) SetRange(dB float64) error {
	if dB < minRangeDB || dB > maxRangeDB || math.IsNaN(dB) {
		return fmt.Errorf("range must be in [%g, %g] dB: %f", minRangeDB, maxRangeDB, dB)
	}
	g.rangeDB = dB
	return nil
}

func (g *GainComputer) Mode() Mode         { return g.mode }
func (g *GainComputer) Threshold() float64 { return g.thresholdDB }
func (g *GainComputer) Ratio() float64     { return g.ratio }
func (g *GainComputer) Knee() float64      { return g.kneeDB }
func (g *GainComputer) Range() float64     { return g.rangeDB }

// GainDB returns the static gain in dB for a level in dB. The result is
// never positive.
func (g *GainComputer) GainDB(levelDB float64) float64 {
	if g.mode == ModeGate {
		return g.gateGain(levelDB)
	}
	return g.compressGain(levelDB)
}

func (g *GainComputer) compressGain(l float64) float64 {
	slope := 1 - 1/g.ratio
	half := g.kneeDB * 0.5
	lower := g.thresholdDB - half
	upper := g.thresholdDB + half

	switch {
	case l <= lower:
		return 0
	case l >= upper:
		return -(l - g.thresholdDB) * slope
	default:
		edge := -half * slope
		return edge * (l - lower) / g.kneeDB
	}
}

func (g *GainComputer) gateGain(l float64) float64 {
	half := g.kneeDB * 0.5
	lower := g.thresholdDB - half
	upper := g.thresholdDB + half

	switch {
	case l >= upper:
		return 0
	case l <= lower:
		return g.expand(g.thresholdDB - l)
	default:
		edge := g.expand(half)
		return edge * (upper - l) / g.kneeDB
	}
}

func (g *GainComputer) expand(under float64) float64 {
	gain := -under * (g.ratio - 1)
	if math.IsNaN(gain) || gain < g.rangeDB {
		return g.rangeDB
	}
	return gain
}
