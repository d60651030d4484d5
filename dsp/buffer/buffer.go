package buffer

// SampleBuffer owns one block of float32 audio in channel-major layout:
// all frames of channel 0, then all frames of channel 1, and so on.
//
// len(data) == channels*frames holds at all times. Resize is a control-path
// operation; the audio path only reads and writes samples in place.
type SampleBuffer struct {
	data     []float32
	channels int
	frames   int
}

// New returns a silent SampleBuffer of the given shape. Negative dimensions
// are treated as zero.
func New(channels, frames int) *SampleBuffer {
	b := &SampleBuffer{}
	b.Resize(channels, frames)
	return b
}

// Channels returns the channel count.
func (b *SampleBuffer) Channels() int { return b.channels }

// Frames returns the number of frames per channel.
func (b *SampleBuffer) Frames() int { return b.frames }

// Len returns channels*frames.
func (b *SampleBuffer) Len() int { return len(b.data) }

// Data returns the channel-major backing slice.
func (b *SampleBuffer) Data() []float32 { return b.data }

// Resize changes the shape and clears every sample to silence. Existing
// capacity is reused when it is large enough.
func (b *SampleBuffer) Resize(channels, frames int) {
	if channels < 0 {
		channels = 0
	}
	if frames < 0 {
		frames = 0
	}
	n := channels * frames
	if cap(b.data) >= n {
		b.data = b.data[:n]
		clear(b.data)
	} else {
		b.data = make([]float32, n)
	}
	b.channels = channels
	b.frames = frames
}

// Channel returns the samples of channel ch without copying. An out-of-range
// channel yields nil.
func (b *SampleBuffer) Channel(ch int) []float32 {
	if ch < 0 || ch >= b.channels {
		return nil
	}
	start := ch * b.frames
	return b.data[start : start+b.frames : start+b.frames]
}

// Sample returns one sample, or 0 when the position is out of range.
func (b *SampleBuffer) Sample(ch, frame int) float32 {
	if ch < 0 || ch >= b.channels || frame < 0 || frame >= b.frames {
		return 0
	}
	return b.data[ch*b.frames+frame]
}

// SetSample writes one sample. Out-of-range positions are ignored.
func (b *SampleBuffer) SetSample(ch, frame int, v float32) {
	if ch < 0 || ch >= b.channels || frame < 0 || frame >= b.frames {
		return
	}
	b.data[ch*b.frames+frame] = v
}

// Clear sets every sample to 0.
func (b *SampleBuffer) Clear() {
	clear(b.data)
}

// CopyFrom copies the overlapping region of src into b.
func (b *SampleBuffer) CopyFrom(src *SampleBuffer) {
	if src == nil {
		return
	}
	channels := min(b.channels, src.channels)
	frames := min(b.frames, src.frames)
	for ch := 0; ch < channels; ch++ {
		copy(b.Channel(ch)[:frames], src.Channel(ch)[:frames])
	}
}

// ApplyGain scales the first frames samples of every channel.
func (b *SampleBuffer) ApplyGain(gain float32, frames int) {
	frames = min(frames, b.frames)
	for ch := 0; ch < b.channels; ch++ {
		s := b.Channel(ch)[:frames]
		for i := range s {
			s[i] *= gain
		}
	}
}

// Deinterleave fills the first frames frames from an interleaved source
// (frame-major, channel-minor). It copies as many whole frames as src holds
// and returns that count.
func (b *SampleBuffer) Deinterleave(src []float32, frames int) int {
	if b.channels == 0 {
		return 0
	}
	frames = min(frames, b.frames, len(src)/b.channels)
	for ch := 0; ch < b.channels; ch++ {
		dst := b.Channel(ch)
		idx := ch
		for i := 0; i < frames; i++ {
			dst[i] = src[idx]
			idx += b.channels
		}
	}
	return frames
}

// Interleave writes the first frames frames into dst in interleaved layout
// and returns the number of frames written.
func (b *SampleBuffer) Interleave(dst []float32, frames int) int {
	if b.channels == 0 {
		return 0
	}
	frames = min(frames, b.frames, len(dst)/b.channels)
	for ch := 0; ch < b.channels; ch++ {
		src := b.Channel(ch)
		idx := ch
		for i := 0; i < frames; i++ {
			dst[idx] = src[i]
			idx += b.channels
		}
	}
	return frames
}

// CopyFromPlanar fills the buffer from a planar source whose channels are
// stored back to back with the given stride (frames per channel).
func (b *SampleBuffer) CopyFromPlanar(src []float32, stride, frames int) int {
	if stride <= 0 {
		return 0
	}
	frames = min(frames, b.frames, stride)
	for ch := 0; ch < b.channels; ch++ {
		start := ch * stride
		if start+frames > len(src) {
			return ch
		}
		copy(b.Channel(ch)[:frames], src[start:start+frames])
	}
	return b.channels
}

// CopyToPlanar writes the buffer into a planar destination with the given
// stride.
func (b *SampleBuffer) CopyToPlanar(dst []float32, stride, frames int) int {
	if stride <= 0 {
		return 0
	}
	frames = min(frames, b.frames, stride)
	for ch := 0; ch < b.channels; ch++ {
		start := ch * stride
		if start+frames > len(dst) {
			return ch
		}
		copy(dst[start:start+frames], b.Channel(ch)[:frames])
	}
	return b.channels
}
