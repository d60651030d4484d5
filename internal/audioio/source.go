package audioio

import (
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effectchain"
	"github.com/cwbudde/algo-fx/dsp/lfo"
	"github.com/cwbudde/algo-fx/dsp/signal"
)

// Source produces the input side of a block.
//
// Fill writes frames frames of channels channels into dst in the given
// layout. It runs on the audio path and must not allocate.
type Source interface {
	Fill(dst []float32, frames, channels int, layout effectchain.Layout)
}

// sampler is a mono signal copied to every channel.
type sampler interface {
	next() float64
}

func fillMono(dst []float32, frames, channels int, layout effectchain.Layout, s sampler) {
	for i := 0; i < frames; i++ {
		v := float32(s.next())

		for ch := 0; ch < channels; ch++ {
			if layout == effectchain.Planar {
				dst[ch*frames+i] = v
			} else {
				dst[i*channels+ch] = v
			}
		}
	}
}

// Silence is a Source of zeros.
type Silence struct{}

// Fill implements Source.
func (Silence) Fill(dst []float32, frames, channels int, _ effectchain.Layout) {
	clear(dst[:frames*channels])
}

// Tone is a sine oscillator.
type Tone struct {
	phase     float64
	inc       float64
	amplitude float64
}

// NewTone returns a sine at freqHz with the given peak amplitude.
func NewTone(freqHz, amplitude, sampleRate float64) (*Tone, error) {
	if sampleRate <= 0 || freqHz <= 0 || freqHz >= sampleRate/2 {
		return nil, fmt.Errorf("audioio: tone %g Hz at %g Hz sample rate", freqHz, sampleRate)
	}

	return &Tone{inc: freqHz / sampleRate, amplitude: amplitude}, nil
}

func (t *Tone) next() float64 {
	v := t.amplitude * math.Sin(2*math.Pi*t.phase)

	t.phase += t.inc
	if t.phase >= 1 {
		t.phase--
	}

	return v
}

// Fill implements Source.
func (t *Tone) Fill(dst []float32, frames, channels int, layout effectchain.Layout) {
	fillMono(dst, frames, channels, layout, t)
}

// Noise is white noise from a 32-bit xorshift generator.
type Noise struct {
	state     uint32
	amplitude float64
}

// NewNoise returns a noise source. Equal seeds give equal sequences.
func NewNoise(seed uint32, amplitude float64) *Noise {
	if seed == 0 {
		seed = 1
	}

	return &Noise{state: seed, amplitude: amplitude}
}

func (n *Noise) next() float64 {
	x := n.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	n.state = x

	return n.amplitude * (float64(x)/math.MaxUint32*2 - 1)
}

// Fill implements Source.
func (n *Noise) Fill(dst []float32, frames, channels int, layout effectchain.Layout) {
	fillMono(dst, frames, channels, layout, n)
}

// Clicks is a unit impulse train, handy for hearing delays.
type Clicks struct {
	period int
	pos    int
}

// NewClicks returns an impulse every interval seconds, starting at once.
func NewClicks(interval, sampleRate float64) (*Clicks, error) {
	period := int(math.Round(interval * sampleRate))
	if period < 1 {
		return nil, fmt.Errorf("audioio: click interval %g s too short", interval)
	}

	return &Clicks{period: period}, nil
}

func (c *Clicks) next() float64 {
	v := 0.0
	if c.pos == 0 {
		v = 1
	}

	c.pos++
	if c.pos == c.period {
		c.pos = 0
	}

	return v
}

// Fill implements Source.
func (c *Clicks) Fill(dst []float32, frames, channels int, layout effectchain.Layout) {
	fillMono(dst, frames, channels, layout, c)
}

// Loop plays planar audio over and over. Output channels beyond the
// loop's wrap around its channel list.
type Loop struct {
	data [][]float32
	pos  int
}

// NewLoop returns a Loop over data, one slice per channel, all the same
// length.
func NewLoop(data [][]float32) (*Loop, error) {
	if len(data) == 0 || len(data[0]) == 0 {
		return nil, fmt.Errorf("audioio: empty loop")
	}

	for ch, d := range data {
		if len(d) != len(data[0]) {
			return nil, fmt.Errorf("audioio: loop channel %d has %d frames, want %d", ch, len(d), len(data[0]))
		}
	}

	return &Loop{data: data}, nil
}

// Len returns the loop length in frames.
func (l *Loop) Len() int { return len(l.data[0]) }

// Fill implements Source.
func (l *Loop) Fill(dst []float32, frames, channels int, layout effectchain.Layout) {
	n := l.Len()

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			v := l.data[ch%len(l.data)][l.pos]
			if layout == effectchain.Planar {
				dst[ch*frames+i] = v
			} else {
				dst[i*channels+ch] = v
			}
		}

		l.pos++
		if l.pos == n {
			l.pos = 0
		}
	}
}

// NewBurst loops a 1 kHz tone at -20 dB for 300 ms followed by the same
// tone at -60 dB for 300 ms, a test pattern for gates and compressors.
func NewBurst(sampleRate float64) (*Loop, error) {
	g := signal.NewGenerator([]core.ProcessorOption{core.WithSampleRate(sampleRate)})
	n := int(0.3 * sampleRate)

	x, err := g.Burst(1000, -20, -60, n, n)
	if err != nil {
		return nil, fmt.Errorf("audioio: %w", err)
	}

	data := make([]float32, len(x))
	for i, v := range x {
		data[i] = float32(v)
	}

	return NewLoop([][]float32{data})
}

// Signals lists the names ParseSignal accepts.
var Signals = []string{"silence", "sine", "noise", "clicks", "burst", "sequence"}

// ParseSignal builds a generator Source by name. The sequence follows
// tempo.
func ParseSignal(name string, sampleRate float64, tempo lfo.Tempo) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "silence":
		return Silence{}, nil
	case "sine", "tone":
		return NewTone(440, 0.5, sampleRate)
	case "noise":
		return NewNoise(1, 0.25), nil
	case "clicks", "impulse":
		return NewClicks(1, sampleRate)
	case "burst":
		return NewBurst(sampleRate)
	case "sequence", "seq":
		return NewSequencer(sampleRate, tempo)
	default:
		return nil, fmt.Errorf("audioio: unknown signal %q (want one of %s)", name, strings.Join(Signals, ", "))
	}
}
