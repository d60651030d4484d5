package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-fx/dsp/interp"
)

// Option configures a Line at construction time.
type Option func(*Line)

// WithMode selects the fractional-read interpolation. The default is
// [interp.Linear].
func WithMode(mode interp.Mode) Option {
	return func(l *Line) {
		l.mode = mode
	}
}

// Line is a fixed-capacity circular delay line.
//
// writePos is the slot the next Write stores into, so Read(1) returns the
// most recently written sample and Read(d) the sample written d writes ago.
// Delay offsets are clamped to [0, capacity-1], which keeps every read
// position inside the buffer.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// New returns a delay line of fixed capacity.
func New(capacity int, opts ...Option) (*Line, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("delay capacity must be > 0: %d", capacity)
	}
	l := &Line{buffer: make([]float64, capacity)}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Capacity returns the internal buffer size in samples.
func (l *Line) Capacity() int {
	return len(l.buffer)
}

// MaxDelay returns the largest delay, in samples, a read can reach.
func (l *Line) MaxDelay() int {
	return len(l.buffer) - 1
}

// Mode returns the fractional-read interpolation mode.
func (l *Line) Mode() interp.Mode { return l.mode }

// WritePos returns the slot the next Write will store into.
func (l *Line) WritePos() int { return l.writePos }

// Write stores one sample and advances the write head.
func (l *Line) Write(sample float64) {
	l.buffer[l.writePos] = sample
	l.writePos++
	if l.writePos >= len(l.buffer) {
		l.writePos = 0
	}
}

// AddToNewest accumulates x into the most recently written sample. Delay
// effects use it to inject feedback after writing the dry input.
func (l *Line) AddToNewest(x float64) {
	idx := l.writePos - 1
	if idx < 0 {
		idx += len(l.buffer)
	}
	l.buffer[idx] += x
}

// ReadPos maps a delay in samples to a buffer index.
func (l *Line) ReadPos(delay int) int {
	size := len(l.buffer)
	if delay < 0 {
		delay = 0
	} else if delay > size-1 {
		delay = size - 1
	}
	return (l.writePos - delay + size) % size
}

// Read reads an integer delay in samples.
func (l *Line) Read(delay int) float64 {
	return l.buffer[l.ReadPos(delay)]
}

// ReadFractional reads a fractional delay using the configured
// interpolation.
func (l *Line) ReadFractional(delay float64) float64 {
	maxDelay := float64(len(l.buffer) - 1)
	if delay < 0 || math.IsNaN(delay) {
		delay = 0
	} else if delay > maxDelay {
		delay = maxDelay
	}

	p := int(delay)
	t := delay - float64(p)
	if t == 0 {
		return l.Read(p)
	}

	if l.mode == interp.Hermite {
		return interp.Hermite4(t, l.Read(p-1), l.Read(p), l.Read(p+1), l.Read(p+2))
	}
	return interp.Linear2(t, l.Read(p), l.Read(p+1))
}

// Resize changes capacity, keeping the newest history that fits.
func (l *Line) Resize(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("delay capacity must be > 0: %d", capacity)
	}
	if capacity == len(l.buffer) {
		return nil
	}

	old := l.buffer
	oldWrite := l.writePos
	l.buffer = make([]float64, capacity)
	l.writePos = 0

	copyCount := min(len(old), capacity)
	for i := 0; i < copyCount; i++ {
		src := oldWrite - 1 - i
		if src < 0 {
			src += len(old)
		}
		dst := capacity - 1 - i
		l.buffer[dst] = old[src]
	}
	return nil
}

// Reset clears line state.
func (l *Line) Reset() {
	clear(l.buffer)
	l.writePos = 0
}

// CapacityFor returns the capacity needed to reach maxSeconds at sampleRate,
// plus headroom for interpolation neighbours.
func CapacityFor(maxSeconds, sampleRate float64) int {
	n := int(math.Ceil(maxSeconds*sampleRate)) + 4
	if n < 4 {
		n = 4
	}
	return n
}
