package effectchain

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/buffer"
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/lfo"
)

var (
	// ErrNilEffect is returned when a nil effect is added.
	ErrNilEffect = errors.New("effectchain: nil effect")
	// ErrDuplicateEffect is returned when an effect is already in the chain.
	ErrDuplicateEffect = errors.New("effectchain: effect already in chain")
	// ErrFrameCount is returned by Process when frames != block size.
	ErrFrameCount = errors.New("effectchain: frame count does not match block size")
	// ErrBufferSize is returned by Process for short input or output slices.
	ErrBufferSize = errors.New("effectchain: buffer too short")
	// ErrNotInitialized is returned by Process before Initialize.
	ErrNotInitialized = errors.New("effectchain: not initialized")
	// ErrUnknownEffect is returned for an unregistered type or unknown ID.
	ErrUnknownEffect = errors.New("effectchain: unknown effect")
	// ErrUnknownParameter is returned by SetParameter for an unknown name.
	ErrUnknownParameter = errors.New("effectchain: unknown parameter")
	// ErrUnknownPreset is returned by LoadPreset for an unknown name.
	ErrUnknownPreset = errors.New("effectchain: unknown preset")
	// ErrIndex is returned for an insert or move position out of range.
	ErrIndex = errors.New("effectchain: index out of range")
)

// Layout selects how Process reads and writes device buffers.
type Layout int

const (
	// Interleaved buffers hold frames one after another, channels adjacent.
	Interleaved Layout = iota
	// Planar buffers hold each channel's block contiguously.
	Planar
)

// String returns the layout name used in chain documents.
func (l Layout) String() string {
	if l == Planar {
		return "planar"
	}

	return "interleaved"
}

// ParseLayout maps a layout name to a Layout. Empty selects Interleaved.
func ParseLayout(raw string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "interleaved":
		return Interleaved, nil
	case "planar":
		return Planar, nil
	default:
		return Interleaved, fmt.Errorf("effectchain: unknown layout %q", raw)
	}
}

// snapshot is what Process sees for one block. It is never mutated after
// publication; control calls build a new one and swap it in.
type snapshot struct {
	effects []*effect.Effect
	work    *buffer.SampleBuffer
	cfg     core.ProcessorConfig
	layout  Layout
}

// Option configures a SignalChain.
type Option func(*SignalChain)

// WithSampleRate sets the initial sample rate.
func WithSampleRate(rate float64) Option {
	return func(c *SignalChain) { c.cfg.SampleRate = rate }
}

// WithBlockSize sets the initial block size.
func WithBlockSize(n int) Option {
	return func(c *SignalChain) { c.cfg.BlockSize = n }
}

// WithChannels sets the initial channel count.
func WithChannels(n int) Option {
	return func(c *SignalChain) { c.cfg.Channels = n }
}

// WithLayout sets the device buffer layout.
func WithLayout(l Layout) Option {
	return func(c *SignalChain) { c.layout = l }
}

// WithLogger sets the logger for control-path events.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *SignalChain) {
		if l != nil {
			c.log = l
		}
	}
}

// WithTransport sets the tempo source handed to effect factories.
func WithTransport(t lfo.Tempo) Option {
	return func(c *SignalChain) {
		if t != nil {
			c.tempo = t
		}
	}
}

// SignalChain folds audio blocks through an ordered list of effects.
//
// Control calls (Initialize, AddEffect, RemoveEffect and friends) serialize
// on a mutex and publish an immutable snapshot. Process loads the snapshot
// once per block and never blocks, so a concurrent edit is seen either
// entirely or not at all.
type SignalChain struct {
	mu     sync.Mutex
	cfg    core.ProcessorConfig
	layout Layout
	log    logrus.FieldLogger
	tempo  lfo.Tempo

	snap    atomic.Pointer[snapshot]
	running atomic.Bool
}

// New creates a stopped, uninitialized chain.
func New(opts ...Option) *SignalChain {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	c := &SignalChain{
		cfg:   core.DefaultProcessorConfig(),
		log:   quiet,
		tempo: lfo.NewTransport(lfo.DefaultBPM),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.snap.Store(&snapshot{cfg: c.cfg, layout: c.layout})

	return c
}

// Config returns the current processing configuration.
func (c *SignalChain) Config() core.ProcessorConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg
}

// Layout returns the device buffer layout.
func (c *SignalChain) Layout() Layout {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.layout
}

// Tempo returns the tempo source handed to effect factories.
func (c *SignalChain) Tempo() lfo.Tempo { return c.tempo }

// Logger returns the chain logger.
func (c *SignalChain) Logger() logrus.FieldLogger { return c.log }

// Context returns the factory context for the current configuration.
func (c *SignalChain) Context() Context {
	cfg := c.Config()

	return Context{
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Channels:   cfg.Channels,
		Tempo:      c.tempo,
	}
}

// Initialized reports whether Process can run.
func (c *SignalChain) Initialized() bool { return c.snap.Load().work != nil }

// Initialize sizes the working buffer and reconfigures every effect. It is
// idempotent and may be called again with a new shape; the new buffer
// starts silent.
func (c *SignalChain) Initialize(sampleRate float64, blockSize, channels int) error {
	cfg := core.ProcessorConfig{SampleRate: sampleRate, BlockSize: blockSize, Channels: channels}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("effectchain: initialize: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load()

	var errs []error

	for _, e := range cur.effects {
		if err := attach(e, cfg); err != nil {
			c.log.WithFields(logrus.Fields{
				"function": "Initialize",
				"effect":   e.ID(),
				"type":     e.Type(),
			}).WithError(err).Error("effect reconfiguration failed")

			errs = append(errs, fmt.Errorf("%s: %w", e.Type(), err))
		}
	}

	c.cfg = cfg
	c.snap.Store(&snapshot{
		effects: cur.effects,
		work:    buffer.New(channels, blockSize),
		cfg:     cfg,
		layout:  c.layout,
	})

	c.log.WithFields(logrus.Fields{
		"function":   "Initialize",
		"sampleRate": sampleRate,
		"blockSize":  blockSize,
		"channels":   channels,
		"effects":    len(cur.effects),
	}).Info("signal chain configured")

	return errors.Join(errs...)
}

// SetLayout changes the device buffer layout at the next block.
func (c *SignalChain) SetLayout(l Layout) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.layout = l
	c.publish(c.snap.Load().effects)
}

// attach configures e for cfg and makes sure it is initialized.
func attach(e *effect.Effect, cfg core.ProcessorConfig) error {
	if err := e.Configure(cfg); err != nil {
		return err
	}

	if !e.Initialized() {
		return e.Initialize()
	}

	return nil
}

// publish swaps in a snapshot with a new effect list. Callers hold mu.
func (c *SignalChain) publish(list []*effect.Effect) {
	cur := c.snap.Load()
	c.snap.Store(&snapshot{
		effects: list,
		work:    cur.work,
		cfg:     cur.cfg,
		layout:  c.layout,
	})
}

// AddEffect configures e with the chain's settings, initializes it and
// appends it. A failing Initialize leaves the chain unchanged.
func (c *SignalChain) AddEffect(e *effect.Effect) error {
	return c.InsertEffect(-1, e)
}

// InsertEffect inserts e before position index. A negative index appends.
func (c *SignalChain) InsertEffect(index int, e *effect.Effect) error {
	fields := logrus.Fields{"function": "InsertEffect"}

	if e == nil {
		c.log.WithFields(fields).Warn("refused nil effect")

		return ErrNilEffect
	}

	fields["effect"] = e.ID()
	fields["type"] = e.Type()

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load().effects
	if slices.Contains(cur, e) {
		return fmt.Errorf("%w: %s", ErrDuplicateEffect, e.Type())
	}

	if index < 0 {
		index = len(cur)
	}

	if index > len(cur) {
		return fmt.Errorf("%w: %d of %d", ErrIndex, index, len(cur))
	}

	if err := attach(e, c.cfg); err != nil {
		c.log.WithFields(fields).WithError(err).Error("refused effect: initialize failed")

		return fmt.Errorf("effectchain: add %s: %w", e.Type(), err)
	}

	c.publish(slices.Insert(slices.Clone(cur), index, e))
	c.log.WithFields(fields).WithField("position", index).Info("effect added")

	return nil
}

// RemoveEffect removes e by identity. It reports whether e was present.
// The effect is not shut down: an in-flight block may still be using it.
func (c *SignalChain) RemoveEffect(e *effect.Effect) bool {
	if e == nil {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load().effects

	i := slices.Index(cur, e)
	if i < 0 {
		return false
	}

	c.publish(slices.Delete(slices.Clone(cur), i, i+1))
	c.log.WithFields(logrus.Fields{
		"function": "RemoveEffect",
		"effect":   e.ID(),
		"type":     e.Type(),
	}).Info("effect removed")

	return true
}

// MoveEffect moves the effect at from to position to.
func (c *SignalChain) MoveEffect(from, to int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cur := c.snap.Load().effects
	if from < 0 || from >= len(cur) || to < 0 || to >= len(cur) {
		return fmt.Errorf("%w: move %d -> %d of %d", ErrIndex, from, to, len(cur))
	}

	if from == to {
		return nil
	}

	next := slices.Clone(cur)
	e := next[from]
	next = slices.Delete(next, from, from+1)
	next = slices.Insert(next, to, e)
	c.publish(next)

	return nil
}

// ReplaceEffects swaps the whole effect list at once. Every effect is
// configured and initialized first; on any failure the chain keeps its
// current list.
func (c *SignalChain) ReplaceEffects(list []*effect.Effect) error {
	next := make([]*effect.Effect, 0, len(list))
	for _, e := range list {
		if e == nil {
			return ErrNilEffect
		}

		if slices.Contains(next, e) {
			return fmt.Errorf("%w: %s", ErrDuplicateEffect, e.Type())
		}

		next = append(next, e)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range next {
		if err := attach(e, c.cfg); err != nil {
			c.log.WithFields(logrus.Fields{
				"function": "ReplaceEffects",
				"effect":   e.ID(),
				"type":     e.Type(),
			}).WithError(err).Error("refused effect list: initialize failed")

			return fmt.Errorf("effectchain: replace: %s: %w", e.Type(), err)
		}
	}

	c.publish(next)
	c.log.WithFields(logrus.Fields{
		"function": "ReplaceEffects",
		"effects":  len(next),
	}).Info("effect list replaced")

	return nil
}

// Effects returns a copy of the effect list in processing order.
func (c *SignalChain) Effects() []*effect.Effect {
	return slices.Clone(c.snap.Load().effects)
}

// Len returns the number of effects.
func (c *SignalChain) Len() int { return len(c.snap.Load().effects) }

// Find returns the first effect with the given ID, or nil.
func (c *SignalChain) Find(id string) *effect.Effect {
	for _, e := range c.snap.Load().effects {
		if e.ID() == id {
			return e
		}
	}

	return nil
}

// SetParameter sets a parameter on the effect with the given ID. Unknown
// IDs and names are logged and reported; the chain is unaffected.
func (c *SignalChain) SetParameter(id, name string, v float64) error {
	e := c.Find(id)
	if e == nil {
		c.log.WithFields(logrus.Fields{"function": "SetParameter", "effect": id}).Warn("unknown effect")

		return fmt.Errorf("%w: %q", ErrUnknownEffect, id)
	}

	if !e.SetParameter(name, v) {
		c.log.WithFields(logrus.Fields{
			"function":  "SetParameter",
			"effect":    id,
			"type":      e.Type(),
			"parameter": name,
		}).Warn("unknown parameter")

		return fmt.Errorf("%w: %s.%s", ErrUnknownParameter, e.Type(), name)
	}

	return nil
}

// LoadPreset loads a named preset on the effect with the given ID.
func (c *SignalChain) LoadPreset(id, name string) error {
	e := c.Find(id)
	if e == nil {
		c.log.WithFields(logrus.Fields{"function": "LoadPreset", "effect": id}).Warn("unknown effect")

		return fmt.Errorf("%w: %q", ErrUnknownEffect, id)
	}

	if !e.LoadPreset(name) {
		c.log.WithFields(logrus.Fields{
			"function": "LoadPreset",
			"effect":   id,
			"type":     e.Type(),
			"preset":   name,
		}).Warn("unknown preset")

		return fmt.Errorf("%w: %s %q", ErrUnknownPreset, e.Type(), name)
	}

	return nil
}

// Start opens the processing gate at the next block.
func (c *SignalChain) Start() { c.running.Store(true) }

// Stop closes the processing gate at the next block. A stopped chain
// copies input to output without touching any effect.
func (c *SignalChain) Stop() { c.running.Store(false) }

// Running reports whether the gate is open.
func (c *SignalChain) Running() bool { return c.running.Load() }

// Reset clears the DSP state of every effect at the start of its next
// processed block. It may be called while Process runs.
func (c *SignalChain) Reset() {
	for _, e := range c.snap.Load().effects {
		e.Reset()
	}
}

// Process runs one block from input to output in the configured layout.
// frames must equal the block size; input and output need
// frames*channels samples and may alias. It does not allocate.
func (c *SignalChain) Process(input, output []float32, frames int) error {
	s := c.snap.Load()
	if s.work == nil {
		return ErrNotInitialized
	}

	if frames != s.cfg.BlockSize {
		return ErrFrameCount
	}

	n := frames * s.cfg.Channels
	if len(input) < n || len(output) < n {
		return ErrBufferSize
	}

	if !c.running.Load() {
		copy(output[:n], input[:n])

		return nil
	}

	if s.layout == Planar {
		s.work.CopyFromPlanar(input, frames, frames)
	} else {
		s.work.Deinterleave(input, frames)
	}

	for _, e := range s.effects {
		e.Process(s.work, frames)
	}

	if s.layout == Planar {
		s.work.CopyToPlanar(output, frames, frames)
	} else {
		s.work.Interleave(output, frames)
	}

	return nil
}

// ProcessBuffer runs one block held in a SampleBuffer in place. It honours
// the stop gate and requires the configured channel count.
func (c *SignalChain) ProcessBuffer(buf *buffer.SampleBuffer, frames int) error {
	s := c.snap.Load()
	if s.work == nil {
		return ErrNotInitialized
	}

	if frames != s.cfg.BlockSize {
		return ErrFrameCount
	}

	if buf == nil || buf.Channels() != s.cfg.Channels || buf.Frames() < frames {
		return ErrBufferSize
	}

	if !c.running.Load() {
		return nil
	}

	for _, e := range s.effects {
		e.Process(buf, frames)
	}

	return nil
}
