package effectchain

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/buffer"
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effect"
)

// processor is the mono, per-sample shape shared by every processor in
// dsp/effects and its subpackages.
type processor interface {
	ProcessSample(input float64) float64
	Reset()
}

// linkedProcessor detects on a shared level so stereo images do not shift.
type linkedProcessor interface {
	processor
	ProcessLinked(input, level float64) float64
}

// checkedKernel exposes the error a parameter update produced. Effect
// definitions mirror the processor setter ranges, so Update can drop it;
// tests use apply to prove that.
type checkedKernel interface {
	effect.Kernel
	apply(values []float64) error
}

// setting is what a kernel hands its set function for one channel.
type setting struct {
	values     []float64
	channel    int
	sampleRate float64
	// initial is true for the first update after Prepare, when gliding
	// parameters should snap.
	initial bool
}

func (s setting) v(i int) float64 { return s.values[i] }

// round returns parameter i rounded to the nearest integer.
func (s setting) round(i int) int { return int(math.Round(s.values[i])) }

func (s setting) on(i int) bool { return s.values[i] >= 0.5 }

// channelKernel runs one independent processor per channel.
type channelKernel[P processor] struct {
	build func(sampleRate float64) (P, error)
	set   func(p P, s setting) error
	// link runs for every channel after the first, once set is done, with
	// the first channel's processor as the lead.
	link func(lead, p P, s setting)
	// refresh runs once per block before processing.
	refresh func(p P)

	procs      []P
	sampleRate float64
	primed     bool
	last       []float64
}

func (k *channelKernel[P]) Prepare(cfg core.ProcessorConfig) error {
	procs := make([]P, cfg.Channels)
	for ch := range procs {
		p, err := k.build(cfg.SampleRate)
		if err != nil {
			return err
		}

		procs[ch] = p
	}

	k.procs = procs
	k.sampleRate = cfg.SampleRate
	k.primed = false

	return nil
}

func (k *channelKernel[P]) Update(values []float64) { _ = k.apply(values) }

func (k *channelKernel[P]) apply(values []float64) error {
	s := setting{values: values, sampleRate: k.sampleRate, initial: !k.primed}
	k.primed = true
	k.last = values

	for ch, p := range k.procs {
		s.channel = ch
		if err := k.set(p, s); err != nil {
			return err
		}
	}

	k.relink(s)

	return nil
}

func (k *channelKernel[P]) relink(s setting) {
	if k.link == nil {
		return
	}

	for ch := 1; ch < len(k.procs); ch++ {
		s.channel = ch
		k.link(k.procs[0], k.procs[ch], s)
	}
}

func (k *channelKernel[P]) Process(buf *buffer.SampleBuffer, frames int) {
	for ch, p := range k.procs {
		if k.refresh != nil {
			k.refresh(p)
		}

		data := buf.Channel(ch)[:frames]
		for i, x := range data {
			data[i] = float32(p.ProcessSample(float64(x)))
		}
	}
}

func (k *channelKernel[P]) Reset() {
	for _, p := range k.procs {
		p.Reset()
	}

	if k.last != nil {
		k.relink(setting{values: k.last, sampleRate: k.sampleRate})
	}
}

func (k *channelKernel[P]) Release() {
	k.procs = nil
	k.primed = false
	k.last = nil
}

// linkedKernel feeds every channel's processor the same detector level,
// max |x| over channels, frame by frame.
type linkedKernel[P linkedProcessor] struct {
	channelKernel[P]

	chans [][]float32
}

func (k *linkedKernel[P]) Prepare(cfg core.ProcessorConfig) error {
	if err := k.channelKernel.Prepare(cfg); err != nil {
		return err
	}

	k.chans = make([][]float32, cfg.Channels)

	return nil
}

func (k *linkedKernel[P]) Process(buf *buffer.SampleBuffer, frames int) {
	for ch := range k.chans {
		k.chans[ch] = buf.Channel(ch)[:frames]
		if k.refresh != nil {
			k.refresh(k.procs[ch])
		}
	}

	for i := 0; i < frames; i++ {
		var level float64
		for _, data := range k.chans {
			level = math.Max(level, math.Abs(float64(data[i])))
		}

		for ch, p := range k.procs {
			x := k.chans[ch][i]
			k.chans[ch][i] = float32(p.ProcessLinked(float64(x), level))
		}
	}
}

func (k *linkedKernel[P]) Release() {
	k.channelKernel.Release()
	k.chans = nil
}
