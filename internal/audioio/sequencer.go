package audioio

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/effectchain"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

const (
	stepCount       = 16
	maxVoices       = 32
	minDecaySeconds = 0.01
)

// Waveform is the oscillator shape of sequencer voices.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

// ParseWaveform maps a name to a Waveform. Unknown names select sine.
func ParseWaveform(name string) Waveform {
	switch name {
	case "triangle":
		return WaveTriangle
	case "saw":
		return WaveSaw
	case "square":
		return WaveSquare
	default:
		return WaveSine
	}
}

// Step is one sequencer step.
type Step struct {
	Enabled bool
	FreqHz  float64
}

type voice struct {
	phase       float64
	phaseStep   float64
	ageSamples  int
	decaySample int
}

// Sequencer is a 16-step pluck pattern on sixteenth notes of a tempo
// source. It gives tempo-synced effects something rhythmic to chew on.
type Sequencer struct {
	sampleRate float64
	tempo      lfo.Tempo
	decaySec   float64
	waveform   Waveform

	steps       [stepCount]Step
	currentStep int

	samplesUntilNextStep float64
	voices               [maxVoices]voice
	active               int
}

// NewSequencer returns a sequencer with a rising arpeggio on every
// quarter note.
func NewSequencer(sampleRate float64, tempo lfo.Tempo) (*Sequencer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("audioio: sequencer sample rate must be > 0: %f", sampleRate)
	}

	s := &Sequencer{
		sampleRate: sampleRate,
		tempo:      tempo,
		decaySec:   0.2,
	}
	for i := range s.steps {
		s.steps[i] = Step{Enabled: i%4 == 0, FreqHz: defaultStepFreq(i)}
	}

	return s, nil
}

// SetWaveform sets the shape of newly triggered voices.
func (s *Sequencer) SetWaveform(w Waveform) { s.waveform = w }

// SetDecay sets the voice decay time in seconds.
func (s *Sequencer) SetDecay(seconds float64) {
	s.decaySec = math.Max(seconds, minDecaySeconds)
}

// SetSteps replaces the pattern. Missing steps keep their value.
func (s *Sequencer) SetSteps(steps []Step) {
	for i := 0; i < stepCount && i < len(steps); i++ {
		st := steps[i]
		if st.FreqHz <= 0 {
			st.FreqHz = 110
		}

		s.steps[i] = st
	}
}

// Fill implements Source.
func (s *Sequencer) Fill(dst []float32, frames, channels int, layout effectchain.Layout) {
	fillMono(dst, frames, channels, layout, s)
}

func (s *Sequencer) next() float64 {
	for s.samplesUntilNextStep <= 0 {
		s.trigger(s.steps[s.currentStep])
		s.currentStep = (s.currentStep + 1) % stepCount
		s.samplesUntilNextStep += s.stepDurationSamples()
	}
	s.samplesUntilNextStep--

	return math.Max(-1, math.Min(1, s.render()))
}

func (s *Sequencer) trigger(step Step) {
	if !step.Enabled || step.FreqHz <= 0 {
		return
	}

	// Steal the oldest voice when full.
	if s.active == maxVoices {
		copy(s.voices[:], s.voices[1:])
		s.active--
	}

	s.voices[s.active] = voice{
		phaseStep:   2 * math.Pi * step.FreqHz / s.sampleRate,
		decaySample: max(int(s.decaySec*s.sampleRate), 1),
	}
	s.active++
}

func (s *Sequencer) render() float64 {
	attack := max(int(0.005*s.sampleRate), 1)

	sum := 0.0
	write := 0

	for i := 0; i < s.active; i++ {
		v := s.voices[i]
		if v.ageSamples >= v.decaySample {
			continue
		}

		sum += envelope(v.ageSamples, attack, v.decaySample) * waveSample(s.waveform, v.phase)

		v.phase += v.phaseStep
		if v.phase > math.Pi {
			v.phase -= 2 * math.Pi
		}

		v.ageSamples++
		s.voices[write] = v
		write++
	}

	s.active = write

	return sum
}

func (s *Sequencer) stepDurationSamples() float64 {
	return lfo.BeatsToSeconds(0.25, s.tempo) * s.sampleRate
}

// envelope is an exponential attack and decay peaking at 0.22.
func envelope(age, attack, decay int) float64 {
	const (
		start = 0.0001
		peak  = 0.22
		end   = 0.0001
	)

	if age < attack {
		t := float64(age) / float64(attack)
		return start * math.Pow(peak/start, t)
	}

	if decay <= attack {
		return end
	}

	t := float64(age-attack) / float64(decay-attack)

	return peak * math.Pow(end/peak, t)
}

func defaultStepFreq(i int) float64 {
	defaults := [...]float64{130.81, 164.81, 196, 220, 261.63, 329.63, 392, 440}
	return defaults[i%len(defaults)]
}

func waveSample(w Waveform, phase float64) float64 {
	switch w {
	case WaveTriangle:
		return (2 / math.Pi) * math.Asin(math.Sin(phase))
	case WaveSaw:
		return phase / math.Pi
	case WaveSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}

		return -1
	default:
		return math.Sin(phase)
	}
}
