package effectchain

import (
	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/filter/biquad"
	"github.com/cwbudde/algo-fx/dsp/filter/design"
	"github.com/cwbudde/algo-fx/dsp/param"
)

const (
	filterMode = iota
	filterCutoff
	filterQ
	filterGain
)

func filterBuiltins() []builtin {
	return []builtin{
		{
			def: effect.Definition{
				Type:   "filter",
				Family: effect.FamilyFilter,
				Params: []param.Spec{
					spec("mode", FilterLowpass, FilterPeak, FilterLowpass, ""),
					spec("cutoff", 20, 20000, 1000, "Hz"),
					spec("q", 0.1, 20, 0.707, ""),
					spec("gain", -24, 24, 0, "dB"),
					mixSpec(1),
				},
				Presets: []effect.Preset{
					{Name: "telephone", Values: map[string]float64{"mode": FilterBandpass, "cutoff": 1500, "q": 1.2}},
					{Name: "rumble cut", Values: map[string]float64{"mode": FilterHighpass, "cutoff": 80}},
					{Name: "presence", Values: map[string]float64{"mode": FilterPeak, "cutoff": 4000, "q": 1, "gain": 4}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &channelKernel[*biquad.Section]{
					build: func(sampleRate float64) (*biquad.Section, error) {
						return biquad.NewSection(design.Lowpass(1000, 0.707, sampleRate)), nil
					},
					set: func(sec *biquad.Section, s setting) error {
						sec.SetCoefficients(filterCoefficients(s.round(filterMode), s.v(filterCutoff), s.v(filterQ), s.v(filterGain), s.sampleRate))

						return nil
					},
				}
			},
		},
	}
}

// filterCoefficients designs the section for a mode. The design package
// bounds the cutoff below Nyquist.
func filterCoefficients(mode int, cutoff, q, gainDB, sampleRate float64) biquad.Coefficients {
	switch mode {
	case FilterHighpass:
		return design.Highpass(cutoff, q, sampleRate)
	case FilterBandpass:
		return design.Bandpass(cutoff, q, sampleRate)
	case FilterNotch:
		return design.Notch(cutoff, q, sampleRate)
	case FilterPeak:
		return design.Peak(cutoff, gainDB, q, sampleRate)
	default:
		return design.Lowpass(cutoff, q, sampleRate)
	}
}
