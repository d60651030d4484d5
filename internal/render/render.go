// Package render runs a SignalChain offline over WAV files and generated
// signals.
package render

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/effectchain"
	"github.com/cwbudde/algo-fx/internal/audioio"
)

// DefaultBitDepth is the sample size Encode writes unless told otherwise.
const DefaultBitDepth = 16

// Audio is planar PCM held as float32 in [-1, 1].
type Audio struct {
	SampleRate int
	Data       [][]float32
}

// Channels returns the channel count.
func (a *Audio) Channels() int { return len(a.Data) }

// Frames returns the length in frames.
func (a *Audio) Frames() int {
	if len(a.Data) == 0 {
		return 0
	}

	return len(a.Data[0])
}

// Decode reads a PCM WAV stream.
func Decode(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("render: not a valid WAV stream")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("render: decode: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	switch bitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("render: unsupported bit depth %d", bitDepth)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("render: invalid channel count %d", channels)
	}

	frames := len(buf.Data) / channels
	scale := 1 / math.Pow(2, float64(bitDepth-1))

	out := &Audio{SampleRate: buf.Format.SampleRate, Data: make([][]float32, channels)}
	for ch := range out.Data {
		plane := make([]float32, frames)
		for i := range plane {
			plane[i] = float32(float64(buf.Data[i*channels+ch]) * scale)
		}

		out.Data[ch] = plane
	}

	return out, nil
}

// Encode writes a as a PCM WAV stream, clipping to full scale.
func Encode(w io.WriteSeeker, a *Audio, bitDepth int) error {
	switch bitDepth {
	case 16, 24:
	default:
		return fmt.Errorf("render: unsupported bit depth %d", bitDepth)
	}

	channels, frames := a.Channels(), a.Frames()
	if channels == 0 {
		return errors.New("render: no channels to encode")
	}

	full := math.Pow(2, float64(bitDepth-1)) - 1
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: a.SampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: bitDepth,
	}

	for ch, plane := range a.Data {
		for i, v := range plane {
			x := math.Max(-1, math.Min(1, float64(v)))
			buf.Data[i*channels+ch] = int(math.Round(x * full))
		}
	}

	enc := wav.NewEncoder(w, a.SampleRate, bitDepth, channels, 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("render: encode: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("render: encode: %w", err)
	}

	return nil
}

// once plays planar audio a single time, then silence.
type once struct {
	data [][]float32
	pos  int
}

func (o *once) Fill(dst []float32, frames, channels int, layout effectchain.Layout) {
	n := len(o.data[0])

	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			var v float32
			if o.pos < n {
				v = o.data[ch%len(o.data)][o.pos]
			}

			if layout == effectchain.Planar {
				dst[ch*frames+i] = v
			} else {
				dst[i*channels+ch] = v
			}
		}

		o.pos++
	}
}

// Run pulls frames frames from src through chain. The last block is padded
// with whatever src produces and then cut, so the result is exactly frames
// long. The chain is started if it was stopped.
func Run(chain *effectchain.SignalChain, src audioio.Source, frames int) (*Audio, error) {
	if !chain.Initialized() {
		return nil, effectchain.ErrNotInitialized
	}

	cfg := chain.Config()
	layout := chain.Layout()
	block, channels := cfg.BlockSize, cfg.Channels

	in := make([]float32, block*channels)
	res := make([]float32, block*channels)

	out := &Audio{SampleRate: int(cfg.SampleRate), Data: make([][]float32, channels)}
	for ch := range out.Data {
		out.Data[ch] = make([]float32, frames)
	}

	chain.Start()

	for off := 0; off < frames; off += block {
		src.Fill(in, block, channels, layout)

		if err := chain.Process(in, res, block); err != nil {
			return nil, fmt.Errorf("render: block at frame %d: %w", off, err)
		}

		n := min(block, frames-off)
		for ch := 0; ch < channels; ch++ {
			plane := out.Data[ch][off : off+n]
			for i := range plane {
				if layout == effectchain.Planar {
					plane[i] = res[ch*block+i]
				} else {
					plane[i] = res[i*channels+ch]
				}
			}
		}
	}

	return out, nil
}

// Process runs in through chain followed by tail seconds of silence.
// The chain is reinitialized to the input's sample rate and channel count
// when they differ, keeping its block size.
func Process(chain *effectchain.SignalChain, in *Audio, tail float64, log logrus.FieldLogger) (*Audio, error) {
	if in.Channels() == 0 || in.Frames() == 0 {
		return nil, errors.New("render: empty input")
	}

	cfg := chain.Config()
	if !chain.Initialized() || cfg.SampleRate != float64(in.SampleRate) || cfg.Channels != in.Channels() {
		if log != nil {
			log.WithFields(logrus.Fields{
				"function":   "Process",
				"sampleRate": in.SampleRate,
				"channels":   in.Channels(),
			}).Info("reshaping chain to input")
		}

		if err := chain.Initialize(float64(in.SampleRate), cfg.BlockSize, in.Channels()); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
	}

	frames := in.Frames() + int(math.Max(0, tail)*float64(in.SampleRate))

	return Run(chain, &once{data: in.Data}, frames)
}

// ReadFile decodes a WAV file.
func ReadFile(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	defer f.Close()

	return Decode(f)
}

// WriteFile encodes a as a WAV file.
func WriteFile(path string, a *Audio, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := Encode(f, a, bitDepth); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}

// File renders the WAV at inPath through chain into a 16-bit WAV at
// outPath, with tail seconds of ring-out.
func File(inPath, outPath string, chain *effectchain.SignalChain, tail float64) error {
	in, err := ReadFile(inPath)
	if err != nil {
		return err
	}

	out, err := Process(chain, in, tail, chain.Logger())
	if err != nil {
		return err
	}

	return WriteFile(outPath, out, DefaultBitDepth)
}
