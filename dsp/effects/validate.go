package effects

import (
	"fmt"
	"math"
)

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
