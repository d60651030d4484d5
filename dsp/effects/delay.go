package effects

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/filter/onepole"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

const (
	defaultDelayTimeSeconds = 0.25
	defaultDelayFeedback    = 0.35
	defaultDelayMaxSeconds  = 2.0
	minDelayTimeSeconds     = 0.001
	// MaxDelayFeedback bounds every feedback path in the delay family.
	MaxDelayFeedback = 0.95
	// ToneOpen is the tone cutoff at and above which the feedback filter is
	// bypassed.
	ToneOpen = 20000.0

	delayGlideMs = 10.0
)

// DelayOption mutates delay construction parameters.
type DelayOption func(*delayConfig) error

type delayConfig struct {
	maxSeconds  float64
	timeSeconds float64
	feedback    float64
	toneHz      float64
	tempo       lfo.Tempo
}

func defaultDelayConfig() delayConfig {
	return delayConfig{
		maxSeconds:  defaultDelayMaxSeconds,
		timeSeconds: defaultDelayTimeSeconds,
		feedback:    defaultDelayFeedback,
		toneHz:      ToneOpen,
	}
}

// WithDelayMaxTime sets the longest reachable delay, which sizes the buffer.
func WithDelayMaxTime(seconds float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateRange("delay max time", seconds, minDelayTimeSeconds, 60); err != nil {
			return err
		}
		cfg.maxSeconds = seconds
		return nil
	}
}

// WithDelayTime sets the initial delay time in seconds.
func WithDelayTime(seconds float64) DelayOption {
	return func(cfg *delayConfig) error {
		cfg.timeSeconds = seconds
		return nil
	}
}

// WithDelayFeedback sets the initial feedback amount.
func WithDelayFeedback(feedback float64) DelayOption {
	return func(cfg *delayConfig) error {
		cfg.feedback = feedback
		return nil
	}
}

// WithDelayTempo attaches the tempo source used by SetSync.
func WithDelayTempo(t lfo.Tempo) DelayOption {
	return func(cfg *delayConfig) error {
		cfg.tempo = t
		return nil
	}
}

// Delay is a feedback delay with a fractional read tap and a lowpass tone
// control in the feedback path. It returns the wet signal only.
//
// Time changes made through SetTargetTime glide with a 10 ms one-pole so the
// read tap never jumps.
type Delay struct {
	sampleRate  float64
	maxSeconds  float64
	timeSeconds float64
	syncBeats   float64
	feedback    float64
	toneHz      float64
	tempo       lfo.Tempo

	target  float64
	current float64
	glide   float64

	line *delay.Line
	tone *onepole.Filter
}

// NewDelay creates a delay with practical defaults.
func NewDelay(sampleRate float64, opts ...DelayOption) (*Delay, error) {
	if err := validateSampleRate("delay", sampleRate); err != nil {
		return nil, err
	}

	cfg := defaultDelayConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	d := &Delay{
		maxSeconds: cfg.maxSeconds,
		tempo:      cfg.tempo,
		tone:       onepole.New(onepole.Lowpass, 0, sampleRate),
	}
	if err := d.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	if err := d.SetTime(cfg.timeSeconds); err != nil {
		return nil, err
	}
	if err := d.SetFeedback(cfg.feedback); err != nil {
		return nil, err
	}
	if err := d.SetTone(cfg.toneHz); err != nil {
		return nil, err
	}
	return d, nil
}

// SetSampleRate updates the sample rate and resizes the buffer for the
// maximum delay. It is the only call that allocates.
func (d *Delay) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("delay", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(d.maxSeconds, sampleRate)
	if d.line == nil {
		line, err := delay.New(capacity)
		if err != nil {
			return err
		}
		d.line = line
	} else if err := d.line.Resize(capacity); err != nil {
		return err
	}

	d.sampleRate = sampleRate
	d.glide = math.Exp(-1 / (delayGlideMs * 0.001 * sampleRate))
	d.tone.Configure(d.toneCutoff(), sampleRate)
	d.target = d.delaySamples()
	d.current = d.target
	return nil
}

// SetTime sets the delay time in seconds and snaps the read tap to it.
func (d *Delay) SetTime(seconds float64) error {
	if err := d.SetTargetTime(seconds); err != nil {
		return err
	}
	d.current = d.target
	return nil
}

// SetTargetTime sets the delay time in seconds; the read tap glides there.
func (d *Delay) SetTargetTime(seconds float64) error {
	if err := validateRange("delay time", seconds, minDelayTimeSeconds, d.maxSeconds); err != nil {
		return err
	}
	d.timeSeconds = seconds
	d.target = d.delaySamples()
	return nil
}

// SetSync sets the delay length in beats of the attached tempo. Zero
// returns to the free time.
func (d *Delay) SetSync(beats float64) error {
	if err := validateRange("delay sync", beats, 0, 16); err != nil {
		return err
	}
	d.syncBeats = beats
	d.target = d.delaySamples()
	return nil
}

// SetTempo attaches a tempo source.
func (d *Delay) SetTempo(t lfo.Tempo) {
	d.tempo = t
	d.target = d.delaySamples()
}

// RefreshTempo re-reads the tempo source. Call it once per block.
func (d *Delay) RefreshTempo() {
	if d.syncBeats > 0 {
		d.target = d.delaySamples()
	}
}

// SetFeedback sets the feedback amount in [0, MaxDelayFeedback].
func (d *Delay) SetFeedback(feedback float64) error {
	if err := validateRange("delay feedback", feedback, 0, MaxDelayFeedback); err != nil {
		return err
	}
	d.feedback = feedback
	return nil
}

// SetTone sets the feedback lowpass cutoff in Hz. ToneOpen or higher
// disables it.
func (d *Delay) SetTone(hz float64) error {
	if err := validateRange("delay tone", hz, 20, ToneOpen); err != nil {
		return err
	}
	d.toneHz = hz
	d.tone.Configure(d.toneCutoff(), d.sampleRate)
	return nil
}

// Reset clears delay state.
func (d *Delay) Reset() {
	d.line.Reset()
	d.tone.Reset()
	d.current = d.target
}

// ProcessSample processes one sample and returns the delayed signal.
func (d *Delay) ProcessSample(input float64) float64 {
	d.current = d.target + (d.current-d.target)*d.glide
	if math.Abs(d.current-d.target) < 1e-6 {
		d.current = d.target
	}

	delayed := d.line.ReadFractional(d.current)
	d.line.Write(input + d.tone.Process(delayed)*d.feedback)

	return delayed
}

// ProcessInPlace applies delay to buf in place.
func (d *Delay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (d *Delay) SampleRate() float64 { return d.sampleRate }

// Time returns the free delay time in seconds.
func (d *Delay) Time() float64 { return d.timeSeconds }

// Sync returns the tempo-synced length in beats, 0 when free.
func (d *Delay) Sync() float64 { return d.syncBeats }

// Feedback returns the feedback amount.
func (d *Delay) Feedback() float64 { return d.feedback }

// Tone returns the feedback lowpass cutoff in Hz.
func (d *Delay) Tone() float64 { return d.toneHz }

// MaxTime returns the longest reachable delay in seconds.
func (d *Delay) MaxTime() float64 { return d.maxSeconds }

// CurrentDelaySamples returns the effective, possibly gliding, delay.
func (d *Delay) CurrentDelaySamples() float64 { return d.current }

func (d *Delay) toneCutoff() float64 {
	if d.toneHz >= ToneOpen {
		return 0
	}
	return d.toneHz
}

func (d *Delay) delaySamples() float64 {
	seconds := d.timeSeconds
	if d.syncBeats > 0 {
		seconds = lfo.BeatsToSeconds(d.syncBeats, d.tempo)
	}
	seconds = math.Max(minDelayTimeSeconds, math.Min(seconds, d.maxSeconds))

	samples := seconds * d.sampleRate
	return math.Max(1, math.Min(samples, float64(d.line.MaxDelay())))
}
