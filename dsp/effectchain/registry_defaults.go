package effectchain

import (
	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/param"
)

const defaultMaxDelaySeconds = 2.0

type registryConfig struct {
	maxDelay float64
}

// RegistryOption configures the default registry.
type RegistryOption func(*registryConfig)

// WithMaxDelayTime sets the longest delay time, in seconds, the delay-family
// effects accept. It sizes their buffers. Values outside [0.25, 60] are
// ignored.
func WithMaxDelayTime(seconds float64) RegistryOption {
	return func(c *registryConfig) {
		if seconds >= 0.25 && seconds <= 60 {
			c.maxDelay = seconds
		}
	}
}

// builtin pairs a definition with the kernel constructor behind it.
type builtin struct {
	def    effect.Definition
	kernel func(ctx Context) checkedKernel
}

func (b builtin) factory() Factory {
	return func(ctx Context) (*effect.Effect, error) {
		ctx = ctx.withDefaults()

		return effect.New(b.def, b.kernel(ctx), effect.WithConfig(ctx.Config()))
	}
}

func builtins(cfg registryConfig) []builtin {
	var all []builtin

	all = append(all, delayBuiltins(cfg.maxDelay)...)
	all = append(all, modulationBuiltins()...)
	all = append(all, dynamicsBuiltins(cfg.maxDelay)...)
	all = append(all, spectralBuiltins()...)
	all = append(all, filterBuiltins()...)

	return all
}

// DefaultRegistry returns a Registry pre-populated with all built-in effect
// types.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{maxDelay: defaultMaxDelaySeconds}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	r := NewRegistry()
	for _, b := range builtins(cfg) {
		r.MustRegister(b.def.Type, b.factory())
	}

	return r
}

func spec(name string, lo, hi, def float64, unit string) param.Spec {
	return param.Spec{Name: name, Min: lo, Max: hi, Default: def, Unit: unit}
}

func mixSpec(def float64) param.Spec {
	return spec(effect.MixParam, 0, 1, def, "")
}

// Shared specs for tempo sync and stereo LFO offset.
func syncSpec() param.Spec { return spec("sync", 0, 16, 0, "beats") }

func phaseSpec(def float64) param.Spec { return spec("phase", 0, 360, def, "deg") }
