package audioio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/effectchain"
)

// blockReader serves processed blocks as float32 little-endian bytes. It
// keeps the tail of a block that did not fit the caller's slice.
type blockReader struct {
	pump    *pump
	pending []byte
	off     int
}

func newBlockReader(p *pump) *blockReader {
	return &blockReader{pump: p}
}

// Read fills p completely; the device pull never sees a short read.
func (r *blockReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if r.off == len(r.pending) {
			r.encode(r.pump.next())
		}

		c := copy(p[n:], r.pending[r.off:])
		r.off += c
		n += c
	}

	return n, nil
}

func (r *blockReader) encode(block []float32) {
	if need := 4 * len(block); cap(r.pending) < need {
		r.pending = make([]byte, need)
	} else {
		r.pending = r.pending[:need]
	}

	for i, v := range block {
		binary.LittleEndian.PutUint32(r.pending[4*i:], math.Float32bits(v))
	}

	r.off = 0
}

// OtoDriver plays the chain on the default output device. The device
// pulls blocks through SignalChain.Process from its own goroutine.
type OtoDriver struct {
	ctx    *oto.Context
	reader *blockReader
	log    logrus.FieldLogger

	mu     sync.Mutex
	player *oto.Player
}

// NewOtoDriver opens the output device at the chain's sample rate and
// channel count. Only one device context may exist per process.
func NewOtoDriver(chain *effectchain.SignalChain, src Source, opts ...Option) (*OtoDriver, error) {
	o := buildOptions(opts)
	cfg := chain.Config()

	bufferSize := o.bufferSize
	if bufferSize <= 0 {
		bufferSize = 4 * time.Duration(float64(cfg.BlockSize)/cfg.SampleRate*float64(time.Second))
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   int(cfg.SampleRate),
		ChannelCount: cfg.Channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("audioio: open output device: %w", err)
	}
	<-ready

	o.log.WithFields(logrus.Fields{
		"function":   "NewOtoDriver",
		"sampleRate": cfg.SampleRate,
		"channels":   cfg.Channels,
		"buffer":     bufferSize,
	}).Info("output device ready")

	return &OtoDriver{
		ctx:    ctx,
		reader: newBlockReader(newPump(chain, src, o.log)),
		log:    o.log,
	}, nil
}

// Run plays until ctx is done.
func (d *OtoDriver) Run(ctx context.Context) error {
	d.mu.Lock()
	if d.player != nil {
		d.mu.Unlock()
		return fmt.Errorf("audioio: driver already running")
	}

	d.player = d.ctx.NewPlayer(d.reader)
	d.player.Play()
	d.mu.Unlock()

	<-ctx.Done()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.player.Pause()
	d.player.Close()
	d.player = nil

	d.log.WithFields(logrus.Fields{
		"function": "Run",
		"blocks":   d.reader.pump.blocks.Load(),
		"failures": d.reader.pump.failures.Load(),
	}).Info("playback stopped")

	return ctx.Err()
}
