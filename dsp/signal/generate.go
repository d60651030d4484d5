// Package signal builds deterministic test signals as whole slices.
package signal

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-fx/dsp/core"
)

// Generator creates signals at a shared sample rate.
type Generator struct {
	cfg  core.ProcessorConfig
	seed int64
}

// Option configures a Generator.
type Option func(*Generator)

// WithSeed sets the noise seed.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.seed = seed }
}

// NewGenerator creates a generator. Only the sample rate of the processor
// configuration is used.
func NewGenerator(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := &Generator{cfg: core.ApplyProcessorOptions(coreOpts...), seed: 1}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// SampleRate returns the generator's sample rate.
func (g *Generator) SampleRate() float64 { return g.cfg.SampleRate }

func (g *Generator) check(what string, samples int) error {
	if samples <= 0 {
		return fmt.Errorf("%s samples must be > 0: %d", what, samples)
	}

	if !core.IsFinite(g.cfg.SampleRate) || g.cfg.SampleRate <= 0 {
		return fmt.Errorf("%s sample rate must be > 0: %f", what, g.cfg.SampleRate)
	}

	return nil
}

// Sine generates a sine wave starting at phase zero.
func (g *Generator) Sine(freqHz, amplitude float64, samples int) ([]float64, error) {
	if err := g.check("sine", samples); err != nil {
		return nil, err
	}

	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.cfg.SampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out, nil
}

// Impulse returns a single sample of height amplitude at index at.
func (g *Generator) Impulse(amplitude float64, at, samples int) ([]float64, error) {
	if err := g.check("impulse", samples); err != nil {
		return nil, err
	}

	if at < 0 || at >= samples {
		return nil, fmt.Errorf("impulse position %d outside [0, %d)", at, samples)
	}

	out := make([]float64, samples)
	out[at] = amplitude

	return out, nil
}

// WhiteNoise generates seeded uniform noise in [-amplitude, amplitude].
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if err := g.check("noise", samples); err != nil {
		return nil, err
	}

	if amplitude < 0 {
		return nil, fmt.Errorf("noise amplitude must be >= 0: %f", amplitude)
	}

	out := make([]float64, samples)
	rng := rand.New(rand.NewSource(g.seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out, nil
}

// Burst is a sine at onDB for on samples followed by the same sine at offDB
// for off samples. The phase runs on across the level change.
func (g *Generator) Burst(freqHz, onDB, offDB float64, on, off int) ([]float64, error) {
	if on < 0 || off < 0 {
		return nil, fmt.Errorf("burst lengths must be >= 0: %d, %d", on, off)
	}

	out, err := g.Sine(freqHz, 1, on+off)
	if err != nil {
		return nil, err
	}

	onGain, offGain := core.DBToLinear(onDB), core.DBToLinear(offDB)
	for i := range out {
		if i < on {
			out[i] *= onGain
		} else {
			out[i] *= offGain
		}
	}

	return out, nil
}

// Normalize scales data to targetPeak and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}

	if len(data) == 0 {
		return nil, errors.New("normalize input must not be empty")
	}

	peak := 0.0
	for _, v := range data {
		peak = math.Max(peak, math.Abs(v))
	}

	out := make([]float64, len(data))
	if peak == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / peak
	for i, v := range data {
		out[i] = v * scale
	}

	return out, nil
}
