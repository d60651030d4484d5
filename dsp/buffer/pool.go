package buffer

import "sync"

// Pool provides sync.Pool-based SampleBuffer reuse for offline rendering,
// where blocks of varying shape are created per file.
type Pool struct {
	pool sync.Pool
}

// NewPool returns a Pool ready for use.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &SampleBuffer{}
			},
		},
	}
}

// Get returns a silent SampleBuffer with the requested shape.
// Callers must return it via Put when done.
func (p *Pool) Get(channels, frames int) *SampleBuffer {
	b := p.pool.Get().(*SampleBuffer)
	b.Resize(channels, frames)
	return b
}

// Put returns a SampleBuffer to the pool for reuse.
// The caller must not use the buffer after calling Put.
func (p *Pool) Put(b *SampleBuffer) {
	if b == nil {
		return
	}
	p.pool.Put(b)
}
