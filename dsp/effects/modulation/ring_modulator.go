package modulation

import "math"

const (
	defaultRingModCarrierHz = 440.0
	defaultRingModDepth     = 1.0
	minRingModCarrierHz     = 1.0
	maxRingModCarrierHz     = 5000.0
)

// RingModulator multiplies the input by a sine carrier. Depth blends from
// unity gain (0) to full carrier multiplication (1).
type RingModulator struct {
	sampleRate float64
	carrierHz  float64
	depth      float64

	phase float64
	inc   float64
}

// NewRingModulator creates a 440 Hz ring modulator at full depth.
func NewRingModulator(sampleRate float64) (*RingModulator, error) {
	if err := validateSampleRate("ring modulator", sampleRate); err != nil {
		return nil, err
	}
	r := &RingModulator{
		sampleRate: sampleRate,
		carrierHz:  defaultRingModCarrierHz,
		depth:      defaultRingModDepth,
	}
	r.updateIncrement()
	return r, nil
}

// SetSampleRate updates the sample rate.
func (r *RingModulator) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("ring modulator", sampleRate); err != nil {
		return err
	}
	r.sampleRate = sampleRate
	r.updateIncrement()
	return nil
}

// SetCarrierHz sets the carrier frequency in [1, 5000] Hz.
func (r *RingModulator) SetCarrierHz(hz float64) error {
	if err := validateRange("ring modulator carrier", hz, minRingModCarrierHz, maxRingModCarrierHz); err != nil {
		return err
	}
	r.carrierHz = hz
	r.updateIncrement()
	return nil
}

// SetDepth sets the carrier depth in [0, 1].
func (r *RingModulator) SetDepth(depth float64) error {
	if err := validateRange("ring modulator depth", depth, 0, 1); err != nil {
		return err
	}
	r.depth = depth
	return nil
}

// CarrierHz returns the carrier frequency.
func (r *RingModulator) CarrierHz() float64 { return r.carrierHz }

// Depth returns the carrier depth.
func (r *RingModulator) Depth() float64 { return r.depth }

// Phase returns the carrier phase in cycles.
func (r *RingModulator) Phase() float64 { return r.phase }

// SetPhase moves the carrier phase, wrapped into [0, 1).
func (r *RingModulator) SetPhase(phase float64) {
	r.phase = phase - math.Floor(phase)
}

// Reset rewinds the carrier.
func (r *RingModulator) Reset() { r.phase = 0 }

// ProcessSample processes one sample.
func (r *RingModulator) ProcessSample(input float64) float64 {
	carrier := math.Sin(2 * math.Pi * r.phase)
	r.phase += r.inc
	if r.phase >= 1 {
		r.phase--
	}
	return input * (1 - r.depth + r.depth*carrier)
}

// ProcessInPlace applies ring modulation to buf in place.
func (r *RingModulator) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = r.ProcessSample(buf[i])
	}
}

func (r *RingModulator) updateIncrement() {
	r.inc = r.carrierHz / r.sampleRate
}
