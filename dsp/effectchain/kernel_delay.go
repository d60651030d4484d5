package effectchain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/buffer"
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effects"
	"github.com/cwbudde/algo-fx/dsp/lfo"
	"github.com/cwbudde/algo-fx/dsp/param"
)

const (
	delayTime = iota
	delayFeedback
	delayTone
	delaySync
)

const (
	slapTime = iota
	slapFeedback
	slapTone
)

const (
	pingPongTime = iota
	pingPongFeedback
	pingPongCrossfeed
	pingPongSync
)

const (
	tapeTime = iota
	tapeFeedback
	tapeWow
	tapeFlutter
	tapeDrive
	tapeTone
)

// Multitap parameters: taps, then MaxTaps times, MaxTaps levels, feedback.
const (
	multitapTaps     = 0
	multitapTime     = 1
	multitapLevel    = multitapTime + effects.MaxTaps
	multitapFeedback = multitapLevel + effects.MaxTaps
)

func delayBuiltins(maxDelay float64) []builtin {
	return []builtin{
		{
			def: effect.Definition{
				Type:   "delay",
				Family: effect.FamilyDelay,
				Params: []param.Spec{
					spec("time", 0.001, maxDelay, 0.25, "s"),
					spec("feedback", 0, effects.MaxDelayFeedback, 0.35, ""),
					spec("tone", 20, effects.ToneOpen, effects.ToneOpen, "Hz"),
					syncSpec(),
					mixSpec(0.5),
				},
				Presets: []effect.Preset{
					{Name: "quarter", Values: map[string]float64{"sync": 1, "feedback": 0.4, "mix": 0.35}},
					{Name: "dotted eighth", Values: map[string]float64{"sync": 0.75, "feedback": 0.45, "mix": 0.35}},
					{Name: "dub", Values: map[string]float64{"time": 0.375, "feedback": 0.7, "tone": 2500, "mix": 0.5}},
				},
			},
			kernel: func(ctx Context) checkedKernel { return newDelayKernel(ctx.Tempo, maxDelay) },
		},
		{
			def: effect.Definition{
				Type:   "slapback",
				Family: effect.FamilyDelay,
				Params: []param.Spec{
					spec("time", 0.04, 0.2, 0.09, "s"),
					spec("feedback", 0, 0.3, 0.1, ""),
					spec("tone", 20, effects.ToneOpen, 6000, "Hz"),
					mixSpec(0.4),
				},
				Presets: []effect.Preset{
					{Name: "rockabilly", Values: map[string]float64{"time": 0.11, "feedback": 0.15, "mix": 0.45}},
					{Name: "double", Values: map[string]float64{"time": 0.045, "feedback": 0, "mix": 0.5}},
				},
			},
			kernel: func(Context) checkedKernel { return newSlapbackKernel() },
		},
		{
			def: effect.Definition{
				Type:    "multitap",
				Family:  effect.FamilyDelay,
				Params:  multitapSpecs(maxDelay),
				Presets: []effect.Preset{{Name: "rhythm", Values: map[string]float64{"taps": 3, "time1": 0.125, "time2": 0.25, "time3": 0.375}}},
			},
			kernel: func(Context) checkedKernel { return newMultiTapKernel(maxDelay) },
		},
		{
			def: effect.Definition{
				Type:   "pingpong",
				Family: effect.FamilyDelay,
				Params: []param.Spec{
					spec("time", 0.001, maxDelay, 0.3, "s"),
					spec("feedback", 0, effects.MaxDelayFeedback, 0.5, ""),
					spec("crossfeed", 0, 1, 1, ""),
					syncSpec(),
					mixSpec(0.5),
				},
				Presets: []effect.Preset{
					{Name: "wide", Values: map[string]float64{"crossfeed": 1, "feedback": 0.6}},
					{Name: "eighths", Values: map[string]float64{"sync": 0.5, "feedback": 0.5}},
				},
			},
			kernel: func(ctx Context) checkedKernel { return &pingPongKernel{tempo: ctx.Tempo, maxSeconds: maxDelay} },
		},
		{
			def: effect.Definition{
				Type:   "tape-delay",
				Family: effect.FamilyDelay,
				Params: []param.Spec{
					spec("time", 0.001, maxDelay, 0.35, "s"),
					spec("feedback", 0, effects.MaxDelayFeedback, 0.45, ""),
					spec("wow", 0, 1, 0.3, ""),
					spec("flutter", 0, 1, 0.2, ""),
					spec("drive", 1, 10, 1, ""),
					spec("tone", 20, effects.ToneOpen, 4500, "Hz"),
					mixSpec(0.5),
				},
				Presets: []effect.Preset{
					{Name: "worn", Values: map[string]float64{"wow": 0.8, "flutter": 0.6, "drive": 3, "tone": 2500}},
					{Name: "clean", Values: map[string]float64{"wow": 0.05, "flutter": 0.05, "drive": 1, "tone": 12000}},
				},
			},
			kernel: func(Context) checkedKernel { return newTapeKernel(maxDelay) },
		},
	}
}

func multitapSpecs(maxDelay float64) []param.Spec {
	specs := make([]param.Spec, 0, multitapFeedback+2)
	specs = append(specs, spec("taps", 1, effects.MaxTaps, 4, ""))

	for i := 1; i <= effects.MaxTaps; i++ {
		specs = append(specs, spec(fmt.Sprintf("time%d", i), 0.001, maxDelay, min(0.15*float64(i), maxDelay), "s"))
	}

	for i := 1; i <= effects.MaxTaps; i++ {
		specs = append(specs, spec(fmt.Sprintf("level%d", i), 0, 1, 1/float64(i), ""))
	}

	specs = append(specs,
		spec("feedback", 0, effects.MaxDelayFeedback, 0.3, ""),
		mixSpec(0.5),
	)

	return specs
}

func newDelayKernel(tempo lfo.Tempo, maxDelay float64) *channelKernel[*effects.Delay] {
	return &channelKernel[*effects.Delay]{
		build: func(sampleRate float64) (*effects.Delay, error) {
			return effects.NewDelay(sampleRate,
				effects.WithDelayMaxTime(maxDelay),
				effects.WithDelayTempo(tempo))
		},
		set: func(d *effects.Delay, s setting) error {
			return errors.Join(
				d.SetSync(s.v(delaySync)),
				setDelayTime(d, s.v(delayTime), s.initial),
				d.SetFeedback(s.v(delayFeedback)),
				d.SetTone(s.v(delayTone)),
			)
		},
		refresh: func(d *effects.Delay) { d.RefreshTempo() },
	}
}

// setDelayTime glides to a new time, except right after Prepare where the
// tap snaps so the first block already has the requested delay.
func setDelayTime(d *effects.Delay, seconds float64, snap bool) error {
	if snap {
		return d.SetTime(seconds)
	}

	return d.SetTargetTime(seconds)
}

func newSlapbackKernel() *channelKernel[*effects.Delay] {
	return &channelKernel[*effects.Delay]{
		build: func(sampleRate float64) (*effects.Delay, error) {
			return effects.NewDelay(sampleRate, effects.WithDelayMaxTime(0.25), effects.WithDelayTime(0.09))
		},
		set: func(d *effects.Delay, s setting) error {
			return errors.Join(
				setDelayTime(d, s.v(slapTime), s.initial),
				d.SetFeedback(s.v(slapFeedback)),
				d.SetTone(s.v(slapTone)),
			)
		},
	}
}

func newMultiTapKernel(maxDelay float64) *channelKernel[*effects.MultiTap] {
	return &channelKernel[*effects.MultiTap]{
		build: func(sampleRate float64) (*effects.MultiTap, error) {
			return effects.NewMultiTap(sampleRate, maxDelay, 1)
		},
		set: func(m *effects.MultiTap, s setting) error {
			for i := range effects.MaxTaps {
				if err := m.SetTap(i, s.v(multitapTime+i), s.v(multitapLevel+i)); err != nil {
					return err
				}
			}

			return errors.Join(
				m.SetTapCount(s.round(multitapTaps)),
				m.SetFeedback(s.v(multitapFeedback)),
			)
		},
	}
}

func newTapeKernel(maxDelay float64) *channelKernel[*effects.TapeDelay] {
	return &channelKernel[*effects.TapeDelay]{
		build: func(sampleRate float64) (*effects.TapeDelay, error) {
			return effects.NewTapeDelay(sampleRate, maxDelay)
		},
		set: func(t *effects.TapeDelay, s setting) error {
			return errors.Join(
				t.SetTime(s.v(tapeTime)),
				t.SetFeedback(s.v(tapeFeedback)),
				t.SetWow(s.v(tapeWow)),
				t.SetFlutter(s.v(tapeFlutter)),
				t.SetDrive(s.v(tapeDrive)),
				t.SetTone(s.v(tapeTone)),
			)
		},
	}
}

// pingPongKernel runs one PingPong per channel pair. A trailing odd channel
// feeds the left line and hears both.
type pingPongKernel struct {
	tempo      lfo.Tempo
	maxSeconds float64

	pairs []*effects.PingPong
}

func (k *pingPongKernel) Prepare(cfg core.ProcessorConfig) error {
	pairs := make([]*effects.PingPong, (cfg.Channels+1)/2)
	for i := range pairs {
		p, err := effects.NewPingPong(cfg.SampleRate, k.maxSeconds)
		if err != nil {
			return err
		}

		p.SetTempo(k.tempo)
		pairs[i] = p
	}

	k.pairs = pairs

	return nil
}

func (k *pingPongKernel) Update(values []float64) { _ = k.apply(values) }

func (k *pingPongKernel) apply(values []float64) error {
	for _, p := range k.pairs {
		err := errors.Join(
			p.SetSync(values[pingPongSync]),
			p.SetTime(values[pingPongTime]),
			p.SetFeedback(values[pingPongFeedback]),
			p.SetCrossfeed(values[pingPongCrossfeed]),
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (k *pingPongKernel) Process(buf *buffer.SampleBuffer, frames int) {
	for i, p := range k.pairs {
		p.RefreshTempo()

		left := buf.Channel(2 * i)[:frames]
		if 2*i+1 >= buf.Channels() {
			for n, x := range left {
				l, r := p.ProcessStereo(float64(x), 0)
				left[n] = float32(l + r)
			}

			continue
		}

		right := buf.Channel(2*i + 1)[:frames]
		for n := range left {
			l, r := p.ProcessStereo(float64(left[n]), float64(right[n]))
			left[n] = float32(l)
			right[n] = float32(r)
		}
	}
}

func (k *pingPongKernel) Reset() {
	for _, p := range k.pairs {
		p.Reset()
	}
}

func (k *pingPongKernel) Release() { k.pairs = nil }
