package effects

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

// PingPong is a stereo feedback delay whose echoes cross between channels.
//
// The feedback matrix is feedback*[[1-c, c], [c, 1-c]] for crossfeed c, a
// convex combination, so loop gain never exceeds feedback. The right input
// is scaled by 1-c; at c=1 a centred source enters on the left only and
// echoes alternate sides.
type PingPong struct {
	sampleRate  float64
	maxSeconds  float64
	timeSeconds float64
	syncBeats   float64
	feedback    float64
	crossfeed   float64
	tempo       lfo.Tempo

	samples float64
	left    *delay.Line
	right   *delay.Line
}

// NewPingPong creates a ping-pong delay at 0.3 s, feedback 0.5 and full
// crossfeed.
func NewPingPong(sampleRate, maxSeconds float64) (*PingPong, error) {
	if err := validateSampleRate("pingpong", sampleRate); err != nil {
		return nil, err
	}
	if err := validateRange("pingpong max time", maxSeconds, minDelayTimeSeconds, 60); err != nil {
		return nil, err
	}
	p := &PingPong{
		maxSeconds:  maxSeconds,
		timeSeconds: math.Min(0.3, maxSeconds),
		feedback:    0.5,
		crossfeed:   1,
	}
	if err := p.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return p, nil
}

// SetSampleRate resizes both lines.
func (p *PingPong) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("pingpong", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(p.maxSeconds, sampleRate)
	for _, l := range []**delay.Line{&p.left, &p.right} {
		if *l == nil {
			line, err := delay.New(capacity)
			if err != nil {
				return err
			}
			*l = line
		} else if err := (*l).Resize(capacity); err != nil {
			return err
		}
	}
	p.sampleRate = sampleRate
	p.update()
	return nil
}

// SetTime sets the echo spacing in seconds.
func (p *PingPong) SetTime(seconds float64) error {
	if err := validateRange("pingpong time", seconds, minDelayTimeSeconds, p.maxSeconds); err != nil {
		return err
	}
	p.timeSeconds = seconds
	p.update()
	return nil
}

// SetSync sets the echo spacing in beats; zero returns to free time.
func (p *PingPong) SetSync(beats float64) error {
	if err := validateRange("pingpong sync", beats, 0, 16); err != nil {
		return err
	}
	p.syncBeats = beats
	p.update()
	return nil
}

// SetTempo attaches a tempo source.
func (p *PingPong) SetTempo(t lfo.Tempo) {
	p.tempo = t
	p.update()
}

// RefreshTempo re-reads the tempo source.
func (p *PingPong) RefreshTempo() {
	if p.syncBeats > 0 {
		p.update()
	}
}

// SetFeedback sets the loop gain in [0, MaxDelayFeedback].
func (p *PingPong) SetFeedback(feedback float64) error {
	if err := validateRange("pingpong feedback", feedback, 0, MaxDelayFeedback); err != nil {
		return err
	}
	p.feedback = feedback
	return nil
}

// SetCrossfeed sets the share of feedback sent to the opposite channel.
func (p *PingPong) SetCrossfeed(c float64) error {
	if err := validateRange("pingpong crossfeed", c, 0, 1); err != nil {
		return err
	}
	p.crossfeed = c
	return nil
}

// Time returns the echo spacing in seconds.
func (p *PingPong) Time() float64 { return p.timeSeconds }

// Feedback returns the loop gain.
func (p *PingPong) Feedback() float64 { return p.feedback }

// Crossfeed returns the crossfeed amount.
func (p *PingPong) Crossfeed() float64 { return p.crossfeed }

// Reset clears both lines.
func (p *PingPong) Reset() {
	p.left.Reset()
	p.right.Reset()
}

// ProcessStereo processes one frame and returns the wet pair.
func (p *PingPong) ProcessStereo(inL, inR float64) (float64, float64) {
	dl := p.left.ReadFractional(p.samples)
	dr := p.right.ReadFractional(p.samples)

	c := p.crossfeed
	p.left.Write(inL + p.feedback*((1-c)*dl+c*dr))
	p.right.Write(inR*(1-c) + p.feedback*((1-c)*dr+c*dl))

	return dl, dr
}

func (p *PingPong) update() {
	seconds := p.timeSeconds
	if p.syncBeats > 0 {
		seconds = lfo.BeatsToSeconds(p.syncBeats, p.tempo)
	}
	s := math.Min(seconds, p.maxSeconds) * p.sampleRate
	p.samples = math.Max(1, math.Min(s, float64(p.left.MaxDelay())))
}
