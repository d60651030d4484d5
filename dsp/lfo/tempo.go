package lfo

import (
	"fmt"
	"math"
	"sync/atomic"
)

// DefaultBPM is the tempo a Transport starts with.
const DefaultBPM = 120.0

// Tempo supplies the current musical tempo to tempo-synced modulators.
// Implementations must be safe to read from the audio thread.
type Tempo interface {
	BPM() float64
}

// Transport is a Tempo whose BPM can be changed from a control thread while
// the audio thread reads it.
type Transport struct {
	bits atomic.Uint64
}

// NewTransport returns a transport at the given tempo. A non-positive bpm
// selects DefaultBPM.
func NewTransport(bpm float64) *Transport {
	t := &Transport{}
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		bpm = DefaultBPM
	}
	t.bits.Store(math.Float64bits(bpm))
	return t
}

// BPM returns the current tempo.
func (t *Transport) BPM() float64 {
	return math.Float64frombits(t.bits.Load())
}

// SetBPM changes the tempo. Valid tempos are in [20, 400].
func (t *Transport) SetBPM(bpm float64) error {
	if bpm < 20 || bpm > 400 || math.IsNaN(bpm) {
		return fmt.Errorf("tempo must be in [20, 400] bpm: %f", bpm)
	}
	t.bits.Store(math.Float64bits(bpm))
	return nil
}

// BeatsToSeconds converts a duration in beats to seconds at the tempo.
func BeatsToSeconds(beats float64, tempo Tempo) float64 {
	bpm := DefaultBPM
	if tempo != nil {
		bpm = tempo.BPM()
	}
	return beats * 60 / bpm
}
