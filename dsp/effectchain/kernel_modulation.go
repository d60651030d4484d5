package effectchain

import (
	"errors"

	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effects/modulation"
	"github.com/cwbudde/algo-fx/dsp/lfo"
	"github.com/cwbudde/algo-fx/dsp/param"
)

// LFO-driven effects share a rate, sync and phase parameter at the front of
// their tables.
const (
	lfoRate = iota
	lfoSync
	lfoPhase
	lfoFirst // first effect-specific parameter
)

const (
	chorusDepth = lfoFirst + iota
	chorusDelay
	chorusVoices
)

const (
	flangerDepth = lfoFirst + iota
	flangerDelay
	flangerFeedback
)

const (
	phaserMin = lfoFirst + iota
	phaserMax
	phaserStages
	phaserFeedback
)

const vibratoDepth = lfoFirst

const (
	tremoloDepth = lfoFirst + iota
	tremoloShape
	tremoloSmoothing
)

const (
	ringCarrier = iota
	ringDepth
)

const (
	wahMin = iota
	wahMax
	wahQ
	wahSensitivity
	wahAttack
	wahRelease
)

// modulated is the LFO surface promoted by every modulation processor.
type modulated interface {
	processor
	SetRateHz(hz float64) error
	SetSync(beats float64) error
	SetTempo(t lfo.Tempo)
	RefreshTempo()
	SetLFOPhase(phase float64)
	LFOPhase() float64
}

func lfoSpecs(rate, maxRate, phase float64, rest ...param.Spec) []param.Spec {
	specs := []param.Spec{
		spec("rate", 0.01, maxRate, rate, "Hz"),
		syncSpec(),
		phaseSpec(phase),
	}

	return append(specs, rest...)
}

// newLFOKernel wires the shared LFO parameters. Channel n runs n*phase
// degrees ahead of channel 0, so a stereo pair stays correlated but wide.
func newLFOKernel[P modulated](tempo lfo.Tempo, build func(float64) (P, error), set func(P, setting) error) *channelKernel[P] {
	return &channelKernel[P]{
		build: func(sampleRate float64) (P, error) {
			p, err := build(sampleRate)
			if err != nil {
				return p, err
			}

			p.SetTempo(tempo)

			return p, nil
		},
		set: func(p P, s setting) error {
			return errors.Join(
				p.SetRateHz(s.v(lfoRate)),
				p.SetSync(s.v(lfoSync)),
				set(p, s),
			)
		},
		link: func(lead, p P, s setting) {
			p.SetLFOPhase(lead.LFOPhase() + float64(s.channel)*s.v(lfoPhase)/360)
		},
		refresh: func(p P) { p.RefreshTempo() },
	}
}

func modulationBuiltins() []builtin {
	return []builtin{
		{
			def: effect.Definition{
				Type:   "chorus",
				Family: effect.FamilyModulation,
				Params: lfoSpecs(0.8, 10, 90,
					spec("depth", 0, 10, 3, "ms"),
					spec("delay", 5, 30, 15, "ms"),
					spec("voices", 1, modulation.MaxChorusVoices, 2, ""),
					mixSpec(0.5),
				),
				Presets: []effect.Preset{
					{Name: "subtle", Values: map[string]float64{"rate": 0.4, "depth": 1.5, "mix": 0.3}},
					{Name: "ensemble", Values: map[string]float64{"rate": 0.9, "depth": 5, "voices": 4, "mix": 0.5}},
				},
			},
			kernel: func(ctx Context) checkedKernel {
				return newLFOKernel(ctx.Tempo, modulation.NewChorus, func(c *modulation.Chorus, s setting) error {
					return errors.Join(
						c.SetDepthMs(s.v(chorusDepth)),
						c.SetDelayMs(s.v(chorusDelay)),
						c.SetVoices(s.round(chorusVoices)),
					)
				})
			},
		},
		{
			def: effect.Definition{
				Type:   "flanger",
				Family: effect.FamilyModulation,
				Params: lfoSpecs(0.25, 10, 90,
					spec("depth", 0, 5, 1.5, "ms"),
					spec("delay", 0.1, 10, 1, "ms"),
					spec("feedback", -modulation.MaxFlangerFeedback, modulation.MaxFlangerFeedback, 0.25, ""),
					mixSpec(0.5),
				),
				Presets: []effect.Preset{
					{Name: "jet", Values: map[string]float64{"rate": 0.1, "depth": 4, "feedback": 0.8}},
					{Name: "negative", Values: map[string]float64{"feedback": -0.7, "mix": 0.5}},
				},
			},
			kernel: func(ctx Context) checkedKernel {
				return newLFOKernel(ctx.Tempo, modulation.NewFlanger, func(f *modulation.Flanger, s setting) error {
					return errors.Join(
						f.SetDepthMs(s.v(flangerDepth)),
						f.SetDelayMs(s.v(flangerDelay)),
						f.SetFeedback(s.v(flangerFeedback)),
					)
				})
			},
		},
		{
			def: effect.Definition{
				Type:   "phaser",
				Family: effect.FamilyModulation,
				Params: lfoSpecs(0.4, 10, 90,
					spec("min", 20, 20000, 300, "Hz"),
					spec("max", 20, 20000, 1600, "Hz"),
					spec("stages", 2, modulation.MaxPhaserStages, 6, ""),
					spec("feedback", 0, modulation.MaxPhaserFeedback, 0.2, ""),
					mixSpec(0.5),
				),
				Presets: []effect.Preset{
					{Name: "slow sweep", Values: map[string]float64{"rate": 0.1, "stages": 8, "feedback": 0.5}},
					{Name: "four stage", Values: map[string]float64{"stages": 4, "feedback": 0}},
				},
			},
			kernel: func(ctx Context) checkedKernel {
				return newLFOKernel(ctx.Tempo, modulation.NewPhaser, func(p *modulation.Phaser, s setting) error {
					return errors.Join(
						p.SetFrequencyRangeHz(s.v(phaserMin), s.v(phaserMax)),
						p.SetStages(evenStages(s.round(phaserStages))),
						p.SetFeedback(s.v(phaserFeedback)),
					)
				})
			},
		},
		{
			def: effect.Definition{
				Type:   "vibrato",
				Family: effect.FamilyModulation,
				Params: lfoSpecs(5, 10, 0,
					spec("depth", 0, 10, 2, "ms"),
					mixSpec(1),
				),
			},
			kernel: func(ctx Context) checkedKernel {
				return newLFOKernel(ctx.Tempo, modulation.NewVibrato, func(v *modulation.Vibrato, s setting) error {
					return v.SetDepthMs(s.v(vibratoDepth))
				})
			},
		},
		{
			def: effect.Definition{
				Type:   "tremolo",
				Family: effect.FamilyModulation,
				Params: lfoSpecs(4, 20, 0,
					spec("depth", 0, 1, 0.6, ""),
					spec("shape", 0, 1, 0, ""),
					spec("smoothing", 0, 50, 5, "ms"),
					mixSpec(1),
				),
				Presets: []effect.Preset{
					{Name: "choppy", Values: map[string]float64{"rate": 6, "depth": 1, "shape": 1}},
					{Name: "auto-pan", Values: map[string]float64{"rate": 2, "depth": 0.8, "phase": 180}},
				},
			},
			kernel: func(ctx Context) checkedKernel {
				return newLFOKernel(ctx.Tempo, modulation.NewTremolo, func(t *modulation.Tremolo, s setting) error {
					return errors.Join(
						t.SetDepth(s.v(tremoloDepth)),
						t.SetShape(s.v(tremoloShape)),
						t.SetSmoothingMs(s.v(tremoloSmoothing)),
					)
				})
			},
		},
		{
			def: effect.Definition{
				Type:   "ring-mod",
				Family: effect.FamilyModulation,
				Params: []param.Spec{
					spec("carrier", 1, 5000, 440, "Hz"),
					spec("depth", 0, 1, 1, ""),
					mixSpec(1),
				},
				Presets: []effect.Preset{{Name: "bell", Values: map[string]float64{"carrier": 1200, "depth": 1}}},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*modulation.RingModulator]{
					build: modulation.NewRingModulator,
					set: func(r *modulation.RingModulator, s setting) error {
						return errors.Join(r.SetCarrierHz(s.v(ringCarrier)), r.SetDepth(s.v(ringDepth)))
					},
				}
			},
		},
		{
			def: effect.Definition{
				Type:   "auto-wah",
				Family: effect.FamilyModulation,
				Params: []param.Spec{
					spec("min", 20, 20000, 300, "Hz"),
					spec("max", 20, 20000, 2500, "Hz"),
					spec("q", 0.1, 20, 3, ""),
					spec("sensitivity", 0, 20, 4, ""),
					spec("attack", 0.1, 500, 5, "ms"),
					spec("release", 1, 2000, 80, "ms"),
					mixSpec(1),
				},
				Presets: []effect.Preset{{Name: "funk", Values: map[string]float64{"q": 6, "sensitivity": 8, "release": 60}}},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*modulation.AutoWah]{
					build: modulation.NewAutoWah,
					set: func(w *modulation.AutoWah, s setting) error {
						return errors.Join(
							w.SetFrequencyRangeHz(s.v(wahMin), s.v(wahMax)),
							w.SetQ(s.v(wahQ)),
							w.SetSensitivity(s.v(wahSensitivity)),
							w.SetAttackMs(s.v(wahAttack)),
							w.SetReleaseMs(s.v(wahRelease)),
						)
					},
				}
			},
		},
	}
}

// evenStages rounds a stage count down to an even number of at least two.
func evenStages(n int) int {
	return max(2, n-n%2)
}
