package effects

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/delay"
	"github.com/cwbudde/algo-fx/dsp/filter/onepole"
	"github.com/cwbudde/algo-fx/dsp/interp"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

const (
	tapeWowHz         = 0.5
	tapeFlutterHz     = 6.0
	tapeWowSeconds    = 0.002
	tapeFlutterSecond = 0.0003
)

// TapeDelay emulates a tape echo: the read head drifts with a slow wow LFO
// and a fast flutter LFO, and the feedback path saturates through tanh
// before re-recording. Output is the wet signal.
type TapeDelay struct {
	sampleRate  float64
	maxSeconds  float64
	timeSeconds float64
	feedback    float64
	wowDepth    float64
	flutter     float64
	drive       float64
	toneHz      float64

	base float64

	line       *delay.Line
	tone       *onepole.Filter
	wowLFO     *lfo.LFO
	flutterLFO *lfo.LFO
}

// NewTapeDelay creates a tape delay at 0.35 s with moderate wow and
// flutter.
func NewTapeDelay(sampleRate, maxSeconds float64) (*TapeDelay, error) {
	if err := validateSampleRate("tape delay", sampleRate); err != nil {
		return nil, err
	}
	if err := validateRange("tape delay max time", maxSeconds, minDelayTimeSeconds, 60); err != nil {
		return nil, err
	}

	wow, err := lfo.New(sampleRate, lfo.WithRate(tapeWowHz))
	if err != nil {
		return nil, err
	}
	flutter, err := lfo.New(sampleRate, lfo.WithRate(tapeFlutterHz), lfo.WithWaveform(lfo.Triangle))
	if err != nil {
		return nil, err
	}

	t := &TapeDelay{
		maxSeconds:  maxSeconds,
		timeSeconds: math.Min(0.35, maxSeconds),
		feedback:    0.45,
		wowDepth:    0.3,
		flutter:     0.2,
		drive:       1,
		toneHz:      4500,
		tone:        onepole.New(onepole.Lowpass, 4500, sampleRate),
		wowLFO:      wow,
		flutterLFO:  flutter,
	}
	if err := t.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}
	return t, nil
}

// SetSampleRate resizes the tape loop. Headroom covers the wow excursion.
func (t *TapeDelay) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("tape delay", sampleRate); err != nil {
		return err
	}
	capacity := delay.CapacityFor(t.maxSeconds+tapeWowSeconds+tapeFlutterSecond, sampleRate)
	if t.line == nil {
		line, err := delay.New(capacity, delay.WithMode(interp.Hermite))
		if err != nil {
			return err
		}
		t.line = line
	} else if err := t.line.Resize(capacity); err != nil {
		return err
	}
	if err := t.wowLFO.SetSampleRate(sampleRate); err != nil {
		return err
	}
	if err := t.flutterLFO.SetSampleRate(sampleRate); err != nil {
		return err
	}
	t.sampleRate = sampleRate
	t.tone.Configure(t.toneHz, sampleRate)
	t.base = t.timeSeconds * sampleRate
	return nil
}

// SetTime sets the nominal head spacing in seconds.
func (t *TapeDelay) SetTime(seconds float64) error {
	if err := validateRange("tape delay time", seconds, minDelayTimeSeconds, t.maxSeconds); err != nil {
		return err
	}
	t.timeSeconds = seconds
	t.base = seconds * t.sampleRate
	return nil
}

// SetFeedback sets the re-record amount.
func (t *TapeDelay) SetFeedback(feedback float64) error {
	if err := validateRange("tape delay feedback", feedback, 0, MaxDelayFeedback); err != nil {
		return err
	}
	t.feedback = feedback
	return nil
}

// SetWow sets the slow pitch drift depth in [0, 1].
func (t *TapeDelay) SetWow(depth float64) error {
	if err := validateRange("tape delay wow", depth, 0, 1); err != nil {
		return err
	}
	t.wowDepth = depth
	return nil
}

// SetFlutter sets the fast pitch drift depth in [0, 1].
func (t *TapeDelay) SetFlutter(depth float64) error {
	if err := validateRange("tape delay flutter", depth, 0, 1); err != nil {
		return err
	}
	t.flutter = depth
	return nil
}

// SetDrive sets the saturation drive in [1, 10].
func (t *TapeDelay) SetDrive(drive float64) error {
	if err := validateRange("tape delay drive", drive, 1, 10); err != nil {
		return err
	}
	t.drive = drive
	return nil
}

// SetTone sets the playback head lowpass in Hz.
func (t *TapeDelay) SetTone(hz float64) error {
	if err := validateRange("tape delay tone", hz, 20, ToneOpen); err != nil {
		return err
	}
	t.toneHz = hz
	t.tone.Configure(hz, t.sampleRate)
	return nil
}

// Time returns the nominal delay in seconds.
func (t *TapeDelay) Time() float64 { return t.timeSeconds }

// Feedback returns the re-record amount.
func (t *TapeDelay) Feedback() float64 { return t.feedback }

// Reset clears the loop and restarts both LFOs.
func (t *TapeDelay) Reset() {
	t.line.Reset()
	t.tone.Reset()
	t.wowLFO.Reset()
	t.flutterLFO.Reset()
}

// ProcessSample processes one sample and returns the playback head.
func (t *TapeDelay) ProcessSample(input float64) float64 {
	drift := t.wowDepth*tapeWowSeconds*t.wowLFO.Next() +
		t.flutter*tapeFlutterSecond*t.flutterLFO.Next()
	delayed := t.tone.Process(t.line.ReadFractional(math.Max(1, t.base+drift*t.sampleRate)))

	// tanh(g*x)/g keeps |feedback| <= feedback*|delayed|.
	recorded := math.Tanh(t.drive*delayed*t.feedback) / t.drive
	t.line.Write(core.FlushDenormals(input + recorded))

	return delayed
}

// ProcessInPlace applies the tape delay to buf in place.
func (t *TapeDelay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = t.ProcessSample(buf[i])
	}
}
