package effects

import (
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/delay"
)

// MaxTaps is the number of taps a MultiTap supports.
const MaxTaps = 8

// Tap is one read position of a MultiTap.
type Tap struct {
	Seconds float64
	Level   float64
}

// MultiTap reads up to MaxTaps independent taps from one delay line and
// sums them. Feedback is taken from the longest active tap.
type MultiTap struct {
	sampleRate float64
	maxSeconds float64
	feedback   float64

	taps    [MaxTaps]Tap
	samples [MaxTaps]float64
	count   int
	longest int

	line *delay.Line
}

// NewMultiTap creates a multi-tap delay with count taps spread evenly up to
// 0.5 s, each at level 1/count.
func NewMultiTap(sampleRate, maxSeconds float64, count int) (*MultiTap, error) {
	if err := validateSampleRate("multitap", sampleRate); err != nil {
		return nil, err
	}
	if err := validateRange("multitap max time", maxSeconds, minDelayTimeSeconds, 60); err != nil {
		return nil, err
	}

	m := &MultiTap{maxSeconds: maxSeconds}
	if err := m.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := m.SetTapCount(count); err != nil {
		return nil, err
	}
	for i := 0; i < MaxTaps; i++ {
		seconds := min(0.5*float64(i+1)/float64(max(count, 1)), maxSeconds)
		_ = m.SetTap(i, seconds, 1/float64(max(count, 1)))
	}
	return m, nil
}

// SetSampleRate resizes the line for the maximum time.
func (m *MultiTap) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("multitap", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(m.maxSeconds, sampleRate)
	if m.line == nil {
		line, err := delay.New(capacity)
		if err != nil {
			return err
		}
		m.line = line
	} else if err := m.line.Resize(capacity); err != nil {
		return err
	}
	m.sampleRate = sampleRate
	for i := range m.taps {
		m.samples[i] = m.tapSamples(m.taps[i].Seconds)
	}
	m.updateLongest()
	return nil
}

// SetTapCount sets how many taps are active, in [1, MaxTaps].
func (m *MultiTap) SetTapCount(count int) error {
	if count < 1 || count > MaxTaps {
		return fmt.Errorf("multitap tap count must be in [1, %d]: %d", MaxTaps, count)
	}
	m.count = count
	m.updateLongest()
	return nil
}

// SetTap configures tap i.
func (m *MultiTap) SetTap(i int, seconds, level float64) error {
	if i < 0 || i >= MaxTaps {
		return fmt.Errorf("multitap tap index must be in [0, %d]: %d", MaxTaps-1, i)
	}
	if err := validateRange("multitap tap time", seconds, minDelayTimeSeconds, m.maxSeconds); err != nil {
		return err
	}
	if err := validateRange("multitap tap level", level, 0, 1); err != nil {
		return err
	}
	m.taps[i] = Tap{Seconds: seconds, Level: level}
	m.samples[i] = m.tapSamples(seconds)
	m.updateLongest()
	return nil
}

// SetFeedback sets the feedback from the longest tap.
func (m *MultiTap) SetFeedback(feedback float64) error {
	if err := validateRange("multitap feedback", feedback, 0, MaxDelayFeedback); err != nil {
		return err
	}
	m.feedback = feedback
	return nil
}

// Tap returns the configuration of tap i.
func (m *MultiTap) Tap(i int) Tap {
	if i < 0 || i >= MaxTaps {
		return Tap{}
	}
	return m.taps[i]
}

// TapCount returns the number of active taps.
func (m *MultiTap) TapCount() int { return m.count }

// Feedback returns the feedback amount.
func (m *MultiTap) Feedback() float64 { return m.feedback }

// Reset clears delay state.
func (m *MultiTap) Reset() { m.line.Reset() }

// ProcessSample processes one sample and returns the summed taps.
func (m *MultiTap) ProcessSample(input float64) float64 {
	var sum, fb float64
	for i := 0; i < m.count; i++ {
		v := m.line.ReadFractional(m.samples[i])
		sum += v * m.taps[i].Level
		if i == m.longest {
			fb = v
		}
	}
	m.line.Write(input + fb*m.feedback)
	return sum
}

// ProcessInPlace applies the taps to buf in place.
func (m *MultiTap) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = m.ProcessSample(buf[i])
	}
}

func (m *MultiTap) tapSamples(seconds float64) float64 {
	s := seconds * m.sampleRate
	if s < 1 {
		return 1
	}
	return min(s, float64(m.line.MaxDelay()))
}

func (m *MultiTap) updateLongest() {
	m.longest = 0
	for i := 1; i < m.count; i++ {
		if m.samples[i] > m.samples[m.longest] {
			m.longest = i
		}
	}
}
