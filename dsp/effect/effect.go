package effect

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-fx/dsp/buffer"
	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/param"
)

// DefaultSampleLimit bounds channels*blockSize of the scratch allocation.
const DefaultSampleLimit = 1 << 20

var (
	// ErrAllocation is returned when Initialize cannot size its buffers.
	ErrAllocation = errors.New("effect: allocation failed")
	// ErrInvalidConfig is returned for an unusable rate, block size or
	// channel count.
	ErrInvalidConfig = errors.New("effect: invalid config")
)

// Option configures an Effect.
type Option func(*Effect)

// WithConfig sets the initial processing configuration.
func WithConfig(cfg core.ProcessorConfig) Option {
	return func(e *Effect) {
		e.cfg = cfg
	}
}

// WithID sets the instance identifier.
func WithID(id string) Option {
	return func(e *Effect) {
		e.id = id
	}
}

// WithSampleLimit overrides DefaultSampleLimit.
func WithSampleLimit(n int) Option {
	return func(e *Effect) {
		if n > 0 {
			e.sampleLimit = n
		}
	}
}

// Effect is a configured effect instance.
type Effect struct {
	def    Definition
	kernel Kernel
	params *param.Registry

	mixIndex    int
	sampleLimit int

	mu      sync.Mutex
	id      string
	cfg     core.ProcessorConfig
	presets []Preset

	initialized  atomic.Bool
	enabled      atomic.Bool
	resetPending atomic.Bool

	dry     *buffer.SampleBuffer
	values  []float64
	seen    uint64
	primed  bool
	cleaned atomic.Uint64
}

// New creates an effect from a definition and its kernel. The effect starts
// enabled and uninitialized.
func New(def Definition, kernel Kernel, opts ...Option) (*Effect, error) {
	if def.Type == "" {
		return nil, fmt.Errorf("effect: empty type name")
	}
	if kernel == nil {
		return nil, fmt.Errorf("effect %s: nil kernel", def.Type)
	}

	reg, err := param.NewRegistry(def.Params...)
	if err != nil {
		return nil, fmt.Errorf("effect %s: %w", def.Type, err)
	}

	e := &Effect{
		def:         def,
		kernel:      kernel,
		params:      reg,
		mixIndex:    reg.Index(MixParam),
		sampleLimit: DefaultSampleLimit,
		cfg:         core.DefaultProcessorConfig(),
		values:      make([]float64, reg.Len()),
	}
	e.presets = append(e.presets, def.Presets...)
	e.enabled.Store(true)

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e, nil
}

// Type returns the effect type name.
func (e *Effect) Type() string { return e.def.Type }

// Family returns the effect family.
func (e *Effect) Family() Family { return e.def.Family }

// ID returns the instance identifier.
func (e *Effect) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.id
}

// SetID sets the instance identifier.
func (e *Effect) SetID(id string) {
	e.mu.Lock()
	e.id = id
	e.mu.Unlock()
}

// Config returns the current processing configuration.
func (e *Effect) Config() core.ProcessorConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// Initialized reports whether buffers are allocated.
func (e *Effect) Initialized() bool { return e.initialized.Load() }

// Initialize allocates kernel state and scratch buffers for the current
// configuration. It may be called again after Shutdown or to reallocate.
func (e *Effect) Initialize() error {
	e.mu.Lock()
	cfg := e.cfg
	e.mu.Unlock()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if cfg.Samples() > e.sampleLimit {
		e.initialized.Store(false)
		return fmt.Errorf("%w: %d channels x %d frames exceeds %d samples",
			ErrAllocation, cfg.Channels, cfg.BlockSize, e.sampleLimit)
	}

	if err := e.kernel.Prepare(cfg); err != nil {
		e.initialized.Store(false)
		return fmt.Errorf("%w: %s: %w", ErrAllocation, e.def.Type, err)
	}

	if e.dry == nil {
		e.dry = buffer.New(cfg.Channels, cfg.BlockSize)
	} else {
		e.dry.Resize(cfg.Channels, cfg.BlockSize)
	}

	e.seen = e.params.Version()
	e.params.Snapshot(e.values)
	e.kernel.Update(e.values)
	e.primed = true
	e.resetPending.Store(false)
	e.initialized.Store(true)

	return nil
}

// Shutdown releases buffers. It is idempotent.
func (e *Effect) Shutdown() {
	if !e.initialized.Swap(false) {
		return
	}
	e.kernel.Release()
	e.dry = nil
	e.primed = false
}

func (e *Effect) reconfigure(apply func(*core.ProcessorConfig)) error {
	e.mu.Lock()
	next := e.cfg
	apply(&next)
	if err := next.Validate(); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	changed := next != e.cfg
	e.cfg = next
	e.mu.Unlock()

	if changed && e.initialized.Load() {
		return e.Initialize()
	}
	return nil
}

// SetSampleRate changes the sample rate, reallocating when initialized.
func (e *Effect) SetSampleRate(rate float64) error {
	return e.reconfigure(func(c *core.ProcessorConfig) { c.SampleRate = rate })
}

// SetBlockSize changes the maximum block size.
func (e *Effect) SetBlockSize(n int) error {
	return e.reconfigure(func(c *core.ProcessorConfig) { c.BlockSize = n })
}

// SetChannelCount changes the number of channels.
func (e *Effect) SetChannelCount(ch int) error {
	return e.reconfigure(func(c *core.ProcessorConfig) { c.Channels = ch })
}

// Configure replaces the whole configuration at once.
func (e *Effect) Configure(cfg core.ProcessorConfig) error {
	return e.reconfigure(func(c *core.ProcessorConfig) { *c = cfg })
}

// BufferShape reports the scratch allocation, zero when uninitialized.
func (e *Effect) BufferShape() (channels, frames int) {
	if !e.initialized.Load() || e.dry == nil {
		return 0, 0
	}
	return e.dry.Channels(), e.dry.Frames()
}

// Parameters returns parameter descriptions and values in stable order.
func (e *Effect) Parameters() []param.Info { return e.params.Infos() }

// Params exposes the registry for precompiled index access.
func (e *Effect) Params() *param.Registry { return e.params }

// SetParameter clamps and stores v. It returns false for an unknown name.
// The kernel sees the change at the next block boundary.
func (e *Effect) SetParameter(name string, v float64) bool {
	return e.params.Set(name, v)
}

// Parameter returns the current value, 0 for an unknown name.
func (e *Effect) Parameter(name string) float64 { return e.params.Get(name) }

// SetParameterAutomated flags a parameter as host-automated.
func (e *Effect) SetParameterAutomated(name string, on bool) bool {
	return e.params.SetAutomated(name, on)
}

// IsParameterAutomated reports the automation flag.
func (e *Effect) IsParameterAutomated(name string) bool {
	return e.params.IsAutomated(name)
}

// SetEnabled toggles processing. A disabled effect leaves audio untouched.
func (e *Effect) SetEnabled(on bool) { e.enabled.Store(on) }

// Enabled reports whether the effect processes audio.
func (e *Effect) Enabled() bool { return e.enabled.Load() }

// Presets returns preset names, built-in first, then saved ones, each
// group sorted.
func (e *Effect) Presets() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	builtin := make([]string, 0, len(e.def.Presets))
	for _, p := range e.def.Presets {
		builtin = append(builtin, p.Name)
	}
	saved := make([]string, 0, len(e.presets)-len(e.def.Presets))
	for _, p := range e.presets[len(e.def.Presets):] {
		saved = append(saved, p.Name)
	}
	sort.Strings(builtin)
	sort.Strings(saved)

	return append(builtin, saved...)
}

// LoadPreset applies the named preset through SetParameter. Names the
// preset carries but the effect does not know are ignored.
func (e *Effect) LoadPreset(name string) bool {
	e.mu.Lock()
	var values map[string]float64
	for _, p := range e.presets {
		if p.Name == name {
			values = p.Values
			break
		}
	}
	e.mu.Unlock()

	if values == nil {
		return false
	}
	for k, v := range values {
		e.params.Set(k, v)
	}
	return true
}

// SavePreset stores the current values under name, replacing a saved
// preset of that name. Built-in presets cannot be overwritten.
func (e *Effect) SavePreset(name string) bool {
	if name == "" {
		return false
	}

	values := make(map[string]float64, e.params.Len())
	for _, info := range e.params.Infos() {
		values[info.Name] = info.Value
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i, p := range e.presets {
		if p.Name != name {
			continue
		}
		if i < len(e.def.Presets) {
			return false
		}
		e.presets[i].Values = values
		return true
	}
	e.presets = append(e.presets, Preset{Name: name, Values: values})

	return true
}

// Reset clears DSP state at the start of the next processed block, so it is
// safe to call while another goroutine runs Process. Parameters are kept.
func (e *Effect) Reset() {
	if !e.initialized.Load() {
		return
	}
	e.resetPending.Store(true)
}

// ResetPending reports whether a Reset is waiting for the next block.
func (e *Effect) ResetPending() bool { return e.resetPending.Load() }

// Sanitized returns how many non-finite output samples were replaced.
func (e *Effect) Sanitized() uint64 { return e.cleaned.Load() }

// Process runs one block in place, applying a pending Reset first. It is a
// no-op when disabled, uninitialized, or when buf does not match the
// configured shape.
func (e *Effect) Process(buf *buffer.SampleBuffer, frames int) {
	if buf == nil || !e.enabled.Load() || !e.initialized.Load() {
		return
	}

	dry := e.dry
	if frames <= 0 || frames > dry.Frames() || frames > buf.Frames() || buf.Channels() != dry.Channels() {
		return
	}

	if e.resetPending.CompareAndSwap(true, false) {
		e.kernel.Reset()
		dry.Clear()
	}

	if v := e.params.Version(); !e.primed || v != e.seen {
		e.seen = v
		e.params.Snapshot(e.values)
		e.kernel.Update(e.values)
		e.primed = true
	}

	mix := 1.0
	if e.mixIndex >= 0 {
		mix = e.values[e.mixIndex]
	}
	if mix < 1 {
		for ch := 0; ch < buf.Channels(); ch++ {
			copy(dry.Channel(ch)[:frames], buf.Channel(ch)[:frames])
		}
	}

	e.kernel.Process(buf, frames)

	var replaced int
	for ch := 0; ch < buf.Channels(); ch++ {
		wet := buf.Channel(ch)[:frames]

		switch {
		case mix <= 0:
			copy(wet, dry.Channel(ch)[:frames])
		case mix < 1:
			d := dry.Channel(ch)[:frames]
			w := float32(mix)
			for i := range wet {
				wet[i] = d[i] + w*(wet[i]-d[i])
			}
		}

		replaced += core.Sanitize32(wet)
	}
	if replaced > 0 {
		e.cleaned.Add(uint64(replaced))
	}
}
