package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/envelope"
)

// Metrics holds metering since the last ResetMetrics.
type Metrics struct {
	InputPeak     float64 // largest detector level, linear
	OutputPeak    float64 // largest output magnitude, linear
	GainReduction float64 // smallest gain applied, linear
}

func (m *Metrics) reset() {
	*m = Metrics{GainReduction: 1}
}

func (m *Metrics) update(level, out, gain float64) {
	if level > m.InputPeak {
		m.InputPeak = level
	}
	if a := math.Abs(out); a > m.OutputPeak {
		m.OutputPeak = a
	}
	if gain < m.GainReduction {
		m.GainReduction = gain
	}
}

// detector follows a level in dB. It starts and resets at core.SilenceDB.
type detector struct {
	follower *envelope.Follower
}

func newDetector(sampleRate, attackMs, releaseMs float64) (detector, error) {
	f, err := envelope.New(sampleRate, attackMs, releaseMs)
	if err != nil {
		return detector{}, err
	}
	f.SetInitial(core.SilenceDB)
	return detector{follower: f}, nil
}

func (d *detector) track(level float64) float64 {
	return d.follower.Track(toLevelDB(level))
}

func (d *detector) levelDB() float64 { return d.follower.Value() }

func (d *detector) reset() { d.follower.Reset() }

func validateSampleRate(effect string, sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%s sample rate must be > 0 and finite: %f", effect, sampleRate)
	}
	return nil
}

func validateRange(what string, v, lo, hi float64) error {
	if v < lo || v > hi || math.IsNaN(v) {
		return fmt.Errorf("%s must be in [%g, %g]: %f", what, lo, hi, v)
	}
	return nil
}
