// Package audioio connects a SignalChain to audio devices and generators.
//
// A Driver pulls fixed-size blocks from a Source through the chain. The
// OtoDriver plays them on the system output; the TickerDriver runs the
// same loop headless on a timer.
package audioio

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/effectchain"
)

// Driver runs a chain until ctx is done.
type Driver interface {
	Run(ctx context.Context) error
}

type options struct {
	log        logrus.FieldLogger
	interval   time.Duration
	limit      int
	sink       func(block []float32)
	bufferSize time.Duration
}

// Option configures a driver.
type Option func(*options)

// WithLogger sets the logger for driver events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithInterval overrides the TickerDriver period. The default is one
// block of real time.
func WithInterval(d time.Duration) Option {
	return func(o *options) { o.interval = d }
}

// WithBlockLimit stops the TickerDriver after n blocks. Zero runs until
// the context is done.
func WithBlockLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithSink receives every processed block, interleaved. The slice is
// reused for the next block.
func WithSink(fn func(block []float32)) Option {
	return func(o *options) { o.sink = fn }
}

// WithBufferSize sets the device buffer duration of the OtoDriver.
func WithBufferSize(d time.Duration) Option {
	return func(o *options) { o.bufferSize = d }
}

func buildOptions(opts []Option) options {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	o := options{log: quiet}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	return o
}

// pump moves one block from the source through the chain and hands it out
// interleaved.
type pump struct {
	chain *effectchain.SignalChain
	src   Source
	log   logrus.FieldLogger

	frames   int
	channels int
	layout   effectchain.Layout
	in, out  []float32
	device   []float32

	blocks   atomic.Uint64
	failures atomic.Uint64
}

func newPump(chain *effectchain.SignalChain, src Source, log logrus.FieldLogger) *pump {
	if src == nil {
		src = Silence{}
	}

	if log == nil {
		log = buildOptions(nil).log
	}

	p := &pump{chain: chain, src: src, log: log}
	p.resize()

	return p
}

// resize follows the chain's current shape. It allocates, so it only runs
// at start and after the chain was reinitialized.
func (p *pump) resize() {
	cfg := p.chain.Config()
	p.frames = cfg.BlockSize
	p.channels = cfg.Channels
	p.layout = p.chain.Layout()

	n := p.frames * p.channels
	p.in = make([]float32, n)
	p.out = make([]float32, n)

	p.device = p.out
	if p.layout == effectchain.Planar {
		p.device = make([]float32, n)
	}
}

// next returns the next processed block, interleaved. A failing block is
// silent.
func (p *pump) next() []float32 {
	p.src.Fill(p.in, p.frames, p.channels, p.layout)

	err := p.chain.Process(p.in, p.out, p.frames)
	if errors.Is(err, effectchain.ErrFrameCount) || errors.Is(err, effectchain.ErrBufferSize) {
		p.log.WithFields(logrus.Fields{"function": "pump"}).Info("chain shape changed, resizing")
		p.resize()
		p.src.Fill(p.in, p.frames, p.channels, p.layout)
		err = p.chain.Process(p.in, p.out, p.frames)
	}

	p.blocks.Add(1)

	if err != nil {
		if p.failures.Add(1) == 1 {
			p.log.WithFields(logrus.Fields{"function": "pump"}).WithError(err).Warn("block failed, output muted")
		}

		clear(p.device)

		return p.device
	}

	if p.layout == effectchain.Planar {
		for ch := 0; ch < p.channels; ch++ {
			plane := p.out[ch*p.frames : (ch+1)*p.frames]
			for i, v := range plane {
				p.device[i*p.channels+ch] = v
			}
		}
	}

	return p.device
}

// TickerDriver runs the chain on a timer without an audio device.
type TickerDriver struct {
	pump     *pump
	interval time.Duration
	limit    int
	sink     func([]float32)
}

// NewTickerDriver returns a headless driver for chain fed by src.
func NewTickerDriver(chain *effectchain.SignalChain, src Source, opts ...Option) *TickerDriver {
	o := buildOptions(opts)
	p := newPump(chain, src, o.log)

	interval := o.interval
	if interval <= 0 {
		cfg := chain.Config()
		interval = time.Duration(float64(cfg.BlockSize) / cfg.SampleRate * float64(time.Second))
	}

	return &TickerDriver{pump: p, interval: interval, limit: o.limit, sink: o.sink}
}

// Run processes one block per tick until ctx is done or the block limit
// is reached. Reaching the limit returns nil.
func (d *TickerDriver) Run(ctx context.Context) error {
	t := time.NewTicker(d.interval)
	defer t.Stop()

	for n := 0; d.limit <= 0 || n < d.limit; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}

		block := d.pump.next()
		if d.sink != nil {
			d.sink(block)
		}
	}

	return nil
}

// Blocks returns how many blocks have been processed.
func (d *TickerDriver) Blocks() uint64 { return d.pump.blocks.Load() }

// Failures returns how many blocks failed and were muted.
func (d *TickerDriver) Failures() uint64 { return d.pump.failures.Load() }
