package effectchain

import (
	"errors"

	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effects"
	"github.com/cwbudde/algo-fx/dsp/effects/pitch"
	"github.com/cwbudde/algo-fx/dsp/param"
)

const (
	shiftSemitones = iota
	shiftGrain
)

const (
	harmVoice1 = iota
	harmLevel1
	harmVoice2
	harmLevel2
	harmGrain
)

const (
	granGrain = iota
	granDensity
	granPitch
	granSpread
	granSpray
	granDelay
)

const (
	freezeFrozen = iota
	freezePhase
)

func spectralBuiltins() []builtin {
	return []builtin{
		{
			def: effect.Definition{
				Type:   "pitch-shift",
				Family: effect.FamilySpectral,
				Params: []param.Spec{
					spec("semitones", pitch.MinSemitones, pitch.MaxSemitones, 0, "st"),
					spec("grain", 10, 200, 50, "ms"),
					mixSpec(1),
				},
				Presets: []effect.Preset{
					{Name: "octave up", Values: map[string]float64{"semitones": 12}},
					{Name: "octave down", Values: map[string]float64{"semitones": -12, "grain": 80}},
					{Name: "detune", Values: map[string]float64{"semitones": 0.1, "grain": 30, "mix": 0.5}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*pitch.PitchShifter]{
					build: pitch.NewPitchShifter,
					set: func(p *pitch.PitchShifter, s setting) error {
						return errors.Join(p.SetSemitones(s.v(shiftSemitones)), p.SetGrainMs(s.v(shiftGrain)))
					},
				}
			},
		},
		{
			def: effect.Definition{
				Type:   "harmonizer",
				Family: effect.FamilySpectral,
				Params: []param.Spec{
					spec("voice1", pitch.MinSemitones, pitch.MaxSemitones, 4, "st"),
					spec("level1", 0, 1, 0.7, ""),
					spec("voice2", pitch.MinSemitones, pitch.MaxSemitones, 7, "st"),
					spec("level2", 0, 1, 0.5, ""),
					spec("grain", 10, 200, 50, "ms"),
					mixSpec(0.5),
				},
				Presets: []effect.Preset{
					{Name: "minor", Values: map[string]float64{"voice1": 3, "voice2": 7}},
					{Name: "fifths", Values: map[string]float64{"voice1": 7, "voice2": -5}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*pitch.Harmonizer]{
					build: pitch.NewHarmonizer,
					set: func(h *pitch.Harmonizer, s setting) error {
						return errors.Join(
							h.SetVoice(0, s.v(harmVoice1), s.v(harmLevel1)),
							h.SetVoice(1, s.v(harmVoice2), s.v(harmLevel2)),
							h.SetGrainMs(s.v(harmGrain)),
						)
					},
				}
			},
		},
		{
			def: effect.Definition{
				Type:   "granular",
				Family: effect.FamilySpectral,
				Params: []param.Spec{
					spec("grain", 0.005, 0.5, 0.08, "s"),
					spec("density", 0, 200, 20, "1/s"),
					spec("pitch", -24, 24, 0, "st"),
					spec("spread", 0, 12, 0, "st"),
					spec("spray", 0, 1, 0.1, ""),
					spec("delay", 0, 2, 0.1, "s"),
					mixSpec(0.5),
				},
				Presets: []effect.Preset{
					{Name: "cloud", Values: map[string]float64{"grain": 0.2, "density": 60, "spray": 0.8, "spread": 2}},
					{Name: "shimmer", Values: map[string]float64{"pitch": 12, "density": 40, "spray": 0.3}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*effects.Granular]{
					build: effects.NewGranular,
					set: func(g *effects.Granular, s setting) error {
						if s.initial {
							// Decorrelate channels; the first update runs on
							// the control path from Initialize.
							g.SetRandomSeed(int64(1 + s.channel))
						}

						return errors.Join(
							g.SetGrainSeconds(s.v(granGrain)),
							g.SetDensity(s.v(granDensity)),
							g.SetPitch(s.v(granPitch)),
							g.SetPitchSpread(s.v(granSpread)),
							g.SetSpray(s.v(granSpray)),
							g.SetBaseDelay(s.v(granDelay)),
						)
					},
				}
			},
		},
		{
			def: effect.Definition{
				Type:   "spectral-freeze",
				Family: effect.FamilySpectral,
				Params: []param.Spec{
					spec("frozen", 0, 1, 0, ""),
					spec("phase", 0, 1, float64(effects.SpectralFreezePhaseAdvance), ""),
					mixSpec(1),
				},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*effects.SpectralFreeze]{
					build: effects.NewSpectralFreeze,
					set: func(f *effects.SpectralFreeze, s setting) error {
						f.SetFrozen(s.on(freezeFrozen))

						return f.SetPhaseMode(effects.SpectralFreezePhaseMode(s.round(freezePhase)))
					},
				}
			},
		},
	}
}
