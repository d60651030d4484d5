package effectchain

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/buffer"
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/param"
)

// gainKernel multiplies every sample by its gain parameter.
type gainKernel struct {
	gain     float32
	failWith error
}

func (k *gainKernel) Prepare(core.ProcessorConfig) error { return k.failWith }
func (k *gainKernel) Update(values []float64)            { k.gain = float32(values[0]) }
func (k *gainKernel) Reset()                             {}
func (k *gainKernel) Release()                           {}

func (k *gainKernel) Process(buf *buffer.SampleBuffer, frames int) {
	for ch := 0; ch < buf.Channels(); ch++ {
		data := buf.Channel(ch)[:frames]
		for i := range data {
			data[i] *= k.gain
		}
	}
}

var errPrepare = errors.New("prepare failed")

func newGainEffect(t *testing.T, id string, gain float64, fail bool) *effect.Effect {
	t.Helper()

	k := &gainKernel{}
	if fail {
		k.failWith = errPrepare
	}

	def := effect.Definition{
		Type:   "gain",
		Family: effect.FamilyFilter,
		Params: []param.Spec{
			{Name: "gain", Min: 0, Max: 4, Default: gain},
			{Name: effect.MixParam, Min: 0, Max: 1, Default: 1},
		},
	}

	fx, err := effect.New(def, k, effect.WithID(id))
	if err != nil {
		t.Fatalf("effect.New: %v", err)
	}

	return fx
}

func gainFactory(_ Context) (*effect.Effect, error) {
	return effect.New(effect.Definition{
		Type:   "gain",
		Params: []param.Spec{{Name: "gain", Min: 0, Max: 4, Default: 1}},
	}, &gainKernel{})
}

// newTestChain returns an initialized, running chain.
func newTestChain(t *testing.T, sampleRate float64, blockSize, channels int, opts ...Option) *SignalChain {
	t.Helper()

	c := New(opts...)
	if err := c.Initialize(sampleRate, blockSize, channels); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	c.Start()

	return c
}

// mustCreate builds an effect of typ from the default registry for the
// chain's context.
func mustCreate(t *testing.T, c *SignalChain, typ string, params map[string]float64) *effect.Effect {
	t.Helper()

	fx, err := DefaultRegistry().Create(typ, c.Context(), effect.WithID(typ))
	if err != nil {
		t.Fatalf("Create(%q): %v", typ, err)
	}

	for name, v := range params {
		if !fx.SetParameter(name, v) {
			t.Fatalf("%s: unknown parameter %q", typ, name)
		}
	}

	return fx
}

// newEffect builds and initializes a registry effect outside a chain.
func newEffect(t *testing.T, typ string, cfg core.ProcessorConfig) *effect.Effect {
	t.Helper()

	fx, err := DefaultRegistry().Create(typ, Context{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Channels:   cfg.Channels,
	})
	if err != nil {
		t.Fatalf("Create(%q): %v", typ, err)
	}

	if err := fx.Initialize(); err != nil {
		t.Fatalf("%s: Initialize: %v", typ, err)
	}

	return fx
}

func noiseBlock(seed uint32, n int) []float32 {
	out := make([]float32, n)
	x := seed | 1

	for i := range out {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		out[i] = float32(x)/float32(^uint32(0))*2 - 1
	}

	return out
}
