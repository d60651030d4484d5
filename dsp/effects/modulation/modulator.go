package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/lfo"
)

// modulator is the LFO shared by the LFO-driven processors. Embedding it
// promotes the rate, sync and phase controls.
type modulator struct {
	osc *lfo.LFO
}

func newModulator(sampleRate, rateHz float64, opts ...lfo.Option) (modulator, error) {
	osc, err := lfo.New(sampleRate, append([]lfo.Option{lfo.WithRate(rateHz)}, opts...)...)
	if err != nil {
		return modulator{}, err
	}
	return modulator{osc: osc}, nil
}

// SetRateHz sets the free-running modulation rate.
func (m *modulator) SetRateHz(hz float64) error { return m.osc.SetRate(hz) }

// RateHz returns the effective modulation rate.
func (m *modulator) RateHz() float64 { return m.osc.Rate() }

// SetSync sets the modulation period in beats; zero is free-running.
func (m *modulator) SetSync(beats float64) error { return m.osc.SetSync(beats) }

// SetTempo attaches the tempo source used by SetSync.
func (m *modulator) SetTempo(t lfo.Tempo) { m.osc.SetTempo(t) }

// RefreshTempo re-reads the tempo. Call once per block.
func (m *modulator) RefreshTempo() { m.osc.Refresh() }

// SetLFOPhase moves the LFO to phase in cycles.
func (m *modulator) SetLFOPhase(phase float64) { m.osc.SetPhase(phase) }

// LFOPhase returns the LFO phase in [0, 1).
func (m *modulator) LFOPhase() float64 { return m.osc.Phase() }

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
