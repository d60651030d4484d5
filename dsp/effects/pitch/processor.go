package pitch

import (
	"fmt"
	"math"
)

// Processor is the API shared by the shifters in this package.
type Processor interface {
	SampleRate() float64
	SetSampleRate(sampleRate float64) error
	Latency() float64
	Reset()
	ProcessSample(input float64) float64
	ProcessInPlace(buf []float64)
}

var (
	_ Processor = (*PitchShifter)(nil)
	_ Processor = (*Harmonizer)(nil)
)

const (
	// MinSemitones and MaxSemitones bound every pitch interval.
	MinSemitones = -24.0
	MaxSemitones = 24.0
)

// Ratio converts an interval in semitones to a frequency ratio.
func Ratio(semitones float64) float64 {
	return math.Pow(2, semitones/12)
}

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
