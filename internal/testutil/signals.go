// Package testutil holds signal fixtures and assertions shared by the
// processor and chain tests.
package testutil

import (
	"math"
	"math/rand"
)

// Sine returns length samples of a sine at freqHz starting at phase zero.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	w := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(w*float64(i))
	}
	return out
}

// Noise returns seeded uniform noise in [-amplitude, amplitude].
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = amplitude * (2*rng.Float64() - 1)
	}
	return out
}

// Impulse returns a unit impulse at pos. An out-of-range pos yields silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}
	return out
}

// DC returns a constant signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Float32 converts a float64 fixture to an effect buffer channel.
func Float32(src []float64) []float32 {
	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = float32(v)
	}
	return out
}

// Run feeds in through process sample by sample and returns the outputs.
func Run(process func(float64) float64, in []float64) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = process(v)
	}
	return out
}
