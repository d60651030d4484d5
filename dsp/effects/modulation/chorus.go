package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/interp"
)

const (
	defaultChorusRateHz  = 0.8
	defaultChorusDepthMs = 3.0
	defaultChorusDelayMs = 15.0
	defaultChorusVoices  = 2

	minChorusDelayMs = 5.0
	maxChorusDelayMs = 30.0
	maxChorusDepthMs = 10.0
	// MaxChorusVoices is the largest voice count.
	MaxChorusVoices = 4
)

// Chorus averages up to MaxChorusVoices taps of one delay line. Each voice
// is swept by the same sine LFO at an evenly spread phase.
type Chorus struct {
	modulator

	sampleRate float64
	depthMs    float64
	delayMs    float64
	voices     int

	line *delay.Line
}

// NewChorus creates a two-voice chorus with practical defaults.
func NewChorus(sampleRate float64) (*Chorus, error) {
	if err := validateSampleRate("chorus", sampleRate); err != nil {
		return nil, err
	}
	mod, err := newModulator(sampleRate, defaultChorusRateHz)
	if err != nil {
		return nil, err
	}
	c := &Chorus{
		modulator: mod,
		depthMs:   defaultChorusDepthMs,
		delayMs:   defaultChorusDelayMs,
		voices:    defaultChorusVoices,
	}
	if err := c.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSampleRate resizes the line for the longest sweep.
func (c *Chorus) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("chorus", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor((maxChorusDelayMs+maxChorusDepthMs)*0.001, sampleRate)
	if c.line == nil {
		line, err := delay.New(capacity, delay.WithMode(interp.Hermite))
		if err != nil {
			return err
		}
		c.line = line
	} else if err := c.line.Resize(capacity); err != nil {
		return err
	}
	if err := c.osc.SetSampleRate(sampleRate); err != nil {
		return err
	}
	c.sampleRate = sampleRate
	return nil
}

// SetDepthMs sets the sweep depth in [0, 10] ms.
func (c *Chorus) SetDepthMs(ms float64) error {
	if err := validateRange("chorus depth", ms, 0, maxChorusDepthMs); err != nil {
		return err
	}
	c.depthMs = ms
	return nil
}

// SetDelayMs sets the centre delay in [5, 30] ms.
func (c *Chorus) SetDelayMs(ms float64) error {
	if err := validateRange("chorus delay", ms, minChorusDelayMs, maxChorusDelayMs); err != nil {
		return err
	}
	c.delayMs = ms
	return nil
}

// SetVoices sets the number of voices in [1, MaxChorusVoices].
func (c *Chorus) SetVoices(n int) error {
	if n < 1 || n > MaxChorusVoices {
		return fmt.Errorf("chorus voices must be in [1, %d]: %d", MaxChorusVoices, n)
	}
	c.voices = n
	return nil
}

// DepthMs returns the sweep depth.
func (c *Chorus) DepthMs() float64 { return c.depthMs }

// DelayMs returns the centre delay.
func (c *Chorus) DelayMs() float64 { return c.delayMs }

// Voices returns the voice count.
func (c *Chorus) Voices() int { return c.voices }

// Reset clears delay state and modulation phase.
func (c *Chorus) Reset() {
	c.line.Reset()
	c.osc.Reset()
}

// ProcessSample processes one sample and returns the voice average.
func (c *Chorus) ProcessSample(input float64) float64 {
	phase := c.osc.Phase()
	c.osc.Next()

	base := c.delayMs * 0.001 * c.sampleRate
	depth := c.depthMs * 0.001 * c.sampleRate
	n := float64(c.voices)

	wet := 0.0
	for i := 0; i < c.voices; i++ {
		mod := 0.5 * (1 + math.Sin(2*math.Pi*(phase+float64(i)/n)))
		d := base + depth*(mod-0.5)
		if d < 1 {
			d = 1
		}
		wet += c.line.ReadFractional(d)
	}
	c.line.Write(input)
	return wet / n
}

// ProcessInPlace applies chorus to buf in place.
func (c *Chorus) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}
