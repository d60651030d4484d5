package effectchain

import (
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

// Context provides environmental information that effect factories need.
type Context struct {
	SampleRate float64
	BlockSize  int
	Channels   int

	// Tempo feeds tempo-synced delay times and LFO rates. Nil means the
	// default 120 BPM.
	Tempo lfo.Tempo
}

// withDefaults fills unset fields from core.DefaultProcessorConfig.
func (c Context) withDefaults() Context {
	def := core.DefaultProcessorConfig()
	if c.SampleRate <= 0 {
		c.SampleRate = def.SampleRate
	}

	if c.BlockSize <= 0 {
		c.BlockSize = def.BlockSize
	}

	if c.Channels <= 0 {
		c.Channels = def.Channels
	}

	return c
}

// Config returns the processing configuration described by the context.
func (c Context) Config() core.ProcessorConfig {
	return core.ProcessorConfig{
		SampleRate: c.SampleRate,
		BlockSize:  c.BlockSize,
		Channels:   c.Channels,
	}
}
