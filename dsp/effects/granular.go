package effects

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/window"
)

const (
	defaultGranularGrainSeconds = 0.08
	defaultGranularDensity      = 20.0
	defaultGranularSpray        = 0.1
	defaultGranularBaseDelaySec = 0.1
	defaultGranularSeed         = 1

	minGranularGrainSeconds = 0.005
	maxGranularGrainSeconds = 0.5
	maxGranularDensity      = 200.0
	maxGranularPitchSemis   = 24.0
	maxGranularDelaySeconds = 2.0
	maxGranularVoices       = 64
)

type granularGrain struct {
	active bool
	delay  float64
	step   float64
	age    int
	dur    int
}

// Granular scatters short Hann-windowed grains read from the recent input
// history. Grains start stochastically at Density per second, at a random
// offset within Spray of the base delay, with a random pitch within
// PitchSpread semitones of Pitch. Overlapping grains are normalized by the
// window sum.
//
// This processor is real-time safe (no per-sample allocations) and not
// thread-safe.
type Granular struct {
	sampleRate       float64
	grainSeconds     float64
	density          float64
	pitchSemis       float64
	pitchSpread      float64
	spray            float64
	baseDelaySeconds float64
	seed             int64

	grainSamples int
	spawnProb    float64

	history *delay.Line
	grains  [maxGranularVoices]granularGrain
	rng     *rand.Rand
}

// NewGranular creates a granular processor with practical defaults.
func NewGranular(sampleRate float64) (*Granular, error) {
	if err := validateSampleRate("granular", sampleRate); err != nil {
		return nil, err
	}

	g := &Granular{
		grainSeconds:     defaultGranularGrainSeconds,
		density:          defaultGranularDensity,
		spray:            defaultGranularSpray,
		baseDelaySeconds: defaultGranularBaseDelaySec,
		seed:             defaultGranularSeed,
		rng:              rand.New(rand.NewSource(defaultGranularSeed)),
	}
	if err := g.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return g, nil
}

// SampleRate returns sample rate in Hz.
func (g *Granular) SampleRate() float64 { return g.sampleRate }

// GrainSeconds returns grain duration in seconds.
func (g *Granular) GrainSeconds() float64 { return g.grainSeconds }

// Density returns the mean number of grains started per second.
func (g *Granular) Density() float64 { return g.density }

// Pitch returns the grain transposition in semitones.
func (g *Granular) Pitch() float64 { return g.pitchSemis }

// PitchSpread returns the random transposition range in semitones.
func (g *Granular) PitchSpread() float64 { return g.pitchSpread }

// Spray returns random start-position spread in [0, 1].
func (g *Granular) Spray() float64 { return g.spray }

// BaseDelay returns the read delay in seconds from current write position.
func (g *Granular) BaseDelay() float64 { return g.baseDelaySeconds }

// SetSampleRate resizes the history for the longest grain and delay.
func (g *Granular) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("granular", sampleRate); err != nil {
		return err
	}

	// A grain at +24 st reads up to 4x its length ahead of the base delay.
	maxPitch := math.Exp2(maxGranularPitchSemis / 12)
	capacity := delay.CapacityFor(maxGranularDelaySeconds+maxGranularGrainSeconds*(maxPitch+1), sampleRate)
	if g.history == nil {
		line, err := delay.New(capacity)
		if err != nil {
			return err
		}
		g.history = line
	} else if err := g.history.Resize(capacity); err != nil {
		return err
	}

	g.sampleRate = sampleRate
	g.updateDerivedParams()
	g.Reset()
	return nil
}

// SetGrainSeconds sets grain duration in [0.005, 0.5] seconds.
func (g *Granular) SetGrainSeconds(seconds float64) error {
	if err := validateRange("granular grain seconds", seconds, minGranularGrainSeconds, maxGranularGrainSeconds); err != nil {
		return err
	}
	g.grainSeconds = seconds
	g.updateDerivedParams()
	return nil
}

// SetDensity sets the mean grain start rate in [0, 200] per second.
func (g *Granular) SetDensity(perSecond float64) error {
	if err := validateRange("granular density", perSecond, 0, maxGranularDensity); err != nil {
		return err
	}
	g.density = perSecond
	g.updateDerivedParams()
	return nil
}

// SetPitch sets the grain transposition in [-24, 24] semitones.
func (g *Granular) SetPitch(semitones float64) error {
	if err := validateRange("granular pitch", semitones, -maxGranularPitchSemis, maxGranularPitchSemis); err != nil {
		return err
	}
	g.pitchSemis = semitones
	return nil
}

// SetPitchSpread sets the random transposition range in [0, 12] semitones.
func (g *Granular) SetPitchSpread(semitones float64) error {
	if err := validateRange("granular pitch spread", semitones, 0, 12); err != nil {
		return err
	}
	g.pitchSpread = semitones
	return nil
}

// SetSpray sets random start-position spread in [0, 1] of a grain length.
func (g *Granular) SetSpray(spray float64) error {
	if err := validateRange("granular spray", spray, 0, 1); err != nil {
		return err
	}
	g.spray = spray
	return nil
}

// SetBaseDelay sets the read delay in [0, 2] seconds.
func (g *Granular) SetBaseDelay(seconds float64) error {
	if err := validateRange("granular base delay", seconds, 0, maxGranularDelaySeconds); err != nil {
		return err
	}
	g.baseDelaySeconds = seconds
	return nil
}

// SetRandomSeed sets RNG seed for deterministic grain scheduling.
func (g *Granular) SetRandomSeed(seed int64) {
	g.seed = seed
	g.Reset()
}

// ActiveGrains returns the number of sounding grains.
func (g *Granular) ActiveGrains() int {
	n := 0
	for i := range g.grains {
		if g.grains[i].active {
			n++
		}
	}
	return n
}

// Reset clears history and grain state and rewinds random state.
func (g *Granular) Reset() {
	g.history.Reset()
	for i := range g.grains {
		g.grains[i] = granularGrain{}
	}
	g.rng.Seed(g.seed)
}

// ProcessSample processes one sample through the granular engine.
func (g *Granular) ProcessSample(input float64) float64 {
	g.history.Write(input)

	if g.spawnProb > 0 && g.rng.Float64() < g.spawnProb {
		g.spawnGrain()
	}

	wet := 0.0
	norm := 0.0

	for i := range g.grains {
		grain := &g.grains[i]
		if !grain.active {
			continue
		}

		env := window.Hann(float64(grain.age) / float64(grain.dur-1))
		wet += g.history.ReadFractional(grain.delay) * env
		norm += env

		// Reading pitch samples per output sample moves the tap towards the
		// write head by pitch-1.
		grain.delay -= grain.step - 1
		grain.age++
		if grain.age >= grain.dur {
			grain.active = false
		}
	}

	if norm > 1 {
		wet /= norm
	}

	return wet
}

// ProcessInPlace applies granular processing to buf in place.
func (g *Granular) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = g.ProcessSample(buf[i])
	}
}

func (g *Granular) updateDerivedParams() {
	g.grainSamples = max(2, int(math.Round(g.grainSeconds*g.sampleRate)))
	g.spawnProb = math.Min(1, g.density/g.sampleRate)
}

func (g *Granular) spawnGrain() {
	slot := -1
	for i := range g.grains {
		if !g.grains[i].active {
			slot = i
			break
		}
	}
	if slot < 0 {
		return
	}

	semis := g.pitchSemis
	if g.pitchSpread > 0 {
		semis += (g.rng.Float64()*2 - 1) * g.pitchSpread
	}
	step := math.Exp2(semis / 12)

	start := g.baseDelaySeconds * g.sampleRate
	if g.spray > 0 {
		start += (g.rng.Float64()*2 - 1) * g.spray * float64(g.grainSamples)
	}

	// The tap must stay behind the write head for the whole grain.
	minStart := 1 + math.Max(0, (step-1)*float64(g.grainSamples))
	maxStart := float64(g.history.MaxDelay()) - math.Max(0, (1-step)*float64(g.grainSamples)) - 1
	start = math.Max(minStart, math.Min(start, maxStart))

	g.grains[slot] = granularGrain{
		active: true,
		delay:  start,
		step:   step,
		dur:    g.grainSamples,
	}
}
