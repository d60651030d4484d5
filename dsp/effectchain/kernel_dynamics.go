package effectchain

import (
	"errors"

	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effects"
	"github.com/cwbudde/algo-fx/dsp/effects/dynamics"
	"github.com/cwbudde/algo-fx/dsp/param"
)

const (
	gateThreshold = iota
	gateRatio
	gateKnee
	gateAttack
	gateHold
	gateRelease
	gateRange
)

const (
	compThreshold = iota
	compRatio
	compKnee
	compAttack
	compRelease
	compMakeup
)

const (
	limThreshold = iota
	limRelease
	limLookahead
	limMakeup
	limKnee
)

const (
	duckTime = iota
	duckFeedback
	duckThreshold
	duckAmount
	duckRelease
	duckSync
)

func dynamicsBuiltins(maxDelay float64) []builtin {
	return []builtin{
		{
			def: effect.Definition{
				Type:   "gate",
				Family: effect.FamilyDynamics,
				Params: []param.Spec{
					spec("threshold", -100, 0, -40, "dB"),
					spec("ratio", 1, 100, 10, ""),
					spec("knee", 0, 24, 6, "dB"),
					spec("attack", 0.01, 1000, 0.1, "ms"),
					spec("hold", 0, 5000, 0, "ms"),
					spec("release", 1, 5000, 100, "ms"),
					spec("range", -120, 0, -80, "dB"),
					mixSpec(1),
				},
				Presets: []effect.Preset{
					{Name: "drums", Values: map[string]float64{"threshold": -30, "hold": 20, "release": 60}},
					{Name: "soft", Values: map[string]float64{"ratio": 2, "knee": 12, "range": -20}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &linkedKernel[*dynamics.Gate]{channelKernel: channelKernel[*dynamics.Gate]{
					build: dynamics.NewGate,
					set: func(g *dynamics.Gate, s setting) error {
						return errors.Join(
							g.SetThreshold(s.v(gateThreshold)),
							g.SetRatio(s.v(gateRatio)),
							g.SetKnee(s.v(gateKnee)),
							g.SetAttack(s.v(gateAttack)),
							g.SetHold(s.v(gateHold)),
							g.SetRelease(s.v(gateRelease)),
							g.SetRange(s.v(gateRange)),
						)
					},
				}}
			},
		},
		{
			def: effect.Definition{
				Type:   "compressor",
				Family: effect.FamilyDynamics,
				Params: []param.Spec{
					spec("threshold", -60, 0, -20, "dB"),
					spec("ratio", 1, 20, 4, ""),
					spec("knee", 0, 24, 6, "dB"),
					spec("attack", 0.1, 1000, 10, "ms"),
					spec("release", 1, 5000, 100, "ms"),
					spec("makeup", 0, 24, 0, "dB"),
					mixSpec(1),
				},
				Presets: []effect.Preset{
					{Name: "vocal", Values: map[string]float64{"threshold": -24, "ratio": 3, "attack": 5, "makeup": 6}},
					{Name: "parallel", Values: map[string]float64{"threshold": -40, "ratio": 10, "makeup": 12, "mix": 0.4}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &linkedKernel[*dynamics.Compressor]{channelKernel: channelKernel[*dynamics.Compressor]{
					build: dynamics.NewCompressor,
					set: func(c *dynamics.Compressor, s setting) error {
						return errors.Join(
							c.SetThreshold(s.v(compThreshold)),
							c.SetRatio(s.v(compRatio)),
							c.SetKnee(s.v(compKnee)),
							c.SetAttack(s.v(compAttack)),
							c.SetRelease(s.v(compRelease)),
							c.SetMakeup(s.v(compMakeup)),
						)
					},
				}}
			},
		},
		{
			def: effect.Definition{
				Type:   "limiter",
				Family: effect.FamilyDynamics,
				Params: []param.Spec{
					spec("threshold", -24, 0, -1, "dB"),
					spec("release", 1, 1000, 50, "ms"),
					spec("lookahead", 0, dynamics.MaxLookaheadMs, 5, "ms"),
					spec("makeup", 0, 24, 0, "dB"),
					spec("knee", 0, 24, 0, "dB"),
					mixSpec(1),
				},
				Presets: []effect.Preset{
					{Name: "master", Values: map[string]float64{"threshold": -1, "release": 80, "lookahead": 5}},
					{Name: "loud", Values: map[string]float64{"threshold": -6, "makeup": 5, "release": 30}},
				},
			},
			kernel: func(Context) checkedKernel {
				return &linkedKernel[*dynamics.Limiter]{channelKernel: channelKernel[*dynamics.Limiter]{
					build: dynamics.NewLimiter,
					set: func(l *dynamics.Limiter, s setting) error {
						return errors.Join(
							l.SetThreshold(s.v(limThreshold)),
							l.SetRelease(s.v(limRelease)),
							l.SetLookahead(s.v(limLookahead)),
							l.SetMakeup(s.v(limMakeup)),
							l.SetKnee(s.v(limKnee)),
						)
					},
				}}
			},
		},
		{
			def: effect.Definition{
				Type:   "ducking-delay",
				Family: effect.FamilyDynamics,
				Params: []param.Spec{
					spec("time", 0.001, maxDelay, 0.25, "s"),
					spec("feedback", 0, effects.MaxDelayFeedback, 0.35, ""),
					spec("threshold", -60, 0, -30, "dB"),
					spec("amount", 0, 60, 12, "dB"),
					spec("release", 10, 5000, 250, "ms"),
					syncSpec(),
					mixSpec(0.5),
				},
				Presets: []effect.Preset{{Name: "vocal throw", Values: map[string]float64{"sync": 0.75, "amount": 24, "release": 400}}},
			},
			kernel: func(ctx Context) checkedKernel {
				return &linkedKernel[*dynamics.DuckingDelay]{channelKernel: channelKernel[*dynamics.DuckingDelay]{
					build: func(sampleRate float64) (*dynamics.DuckingDelay, error) {
						return dynamics.NewDuckingDelay(sampleRate,
							effects.WithDelayMaxTime(maxDelay),
							effects.WithDelayTempo(ctx.Tempo))
					},
					set: func(d *dynamics.DuckingDelay, s setting) error {
						return errors.Join(
							d.SetSync(s.v(duckSync)),
							setDelayTime(d.Delay, s.v(duckTime), s.initial),
							d.SetFeedback(s.v(duckFeedback)),
							d.SetThreshold(s.v(duckThreshold)),
							d.SetAmount(s.v(duckAmount)),
							d.SetDuckRelease(s.v(duckRelease)),
						)
					},
					refresh: func(d *dynamics.DuckingDelay) { d.RefreshTempo() },
				}}
			},
		},
	}
}
