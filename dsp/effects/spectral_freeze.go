package effects

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-fx/dsp/window"
)

const (
	defaultSpectralFreezeFrameSize = 1024
	defaultSpectralFreezeOverlap   = 4
	minSpectralFreezeFrameSize     = 64
	maxSpectralFreezeFrameSize     = 16384
)

// SpectralFreezePhaseMode controls how frozen-bin phases evolve over time.
type SpectralFreezePhaseMode int

const (
	// SpectralFreezePhaseAdvance advances each bin by its centre frequency
	// per hop, so a frozen tone keeps sounding as a tone.
	SpectralFreezePhaseAdvance SpectralFreezePhaseMode = iota
	// SpectralFreezePhaseHold repeats the captured phases, which buzzes at
	// the hop rate.
	SpectralFreezePhaseHold
)

// SpectralFreeze is a streaming STFT processor that can capture one
// magnitude frame and sustain it indefinitely.
//
// Analysis and synthesis both use a periodic Hann window. While not frozen
// the frame is resynthesized unchanged, so output is the input delayed by
// Latency samples. The per-sample path does not allocate.
type SpectralFreeze struct {
	sampleRate float64
	frameSize  int
	hopSize    int
	phaseMode  SpectralFreezePhaseMode
	frozen     bool
	captured   bool

	plan *algofft.Plan[complex128]

	win      []float64
	omegaHop []float64
	olaGain  float64

	input  []float64
	inPos  int
	ola    []float64
	out    []float64
	outPos int

	spectrum []complex128
	frame    []complex128
	re       []float64
	im       []float64
	grain    []float64

	heldMagnitude []float64
	phaseAcc      []float64
}

// NewSpectralFreeze creates a spectral freeze with a 1024-point frame and
// 4x overlap.
func NewSpectralFreeze(sampleRate float64) (*SpectralFreeze, error) {
	if err := validateSampleRate("spectral freeze", sampleRate); err != nil {
		return nil, err
	}
	s := &SpectralFreeze{sampleRate: sampleRate}
	if err := s.SetFrameSize(defaultSpectralFreezeFrameSize); err != nil {
		return nil, err
	}
	return s, nil
}

// SampleRate returns sample rate in Hz.
func (s *SpectralFreeze) SampleRate() float64 { return s.sampleRate }

// FrameSize returns the FFT length.
func (s *SpectralFreeze) FrameSize() int { return s.frameSize }

// HopSize returns the hop between frames.
func (s *SpectralFreeze) HopSize() int { return s.hopSize }

// Latency returns the processing delay in samples.
func (s *SpectralFreeze) Latency() int { return s.frameSize }

// PhaseMode returns the frozen phase strategy.
func (s *SpectralFreeze) PhaseMode() SpectralFreezePhaseMode { return s.phaseMode }

// Frozen reports whether freeze is engaged.
func (s *SpectralFreeze) Frozen() bool { return s.frozen }

// SetSampleRate updates the sample rate. Bin frequencies are normalized, so
// no state changes.
func (s *SpectralFreeze) SetSampleRate(sampleRate float64) error {
	if err := validateSampleRate("spectral freeze", sampleRate); err != nil {
		return err
	}
	s.sampleRate = sampleRate
	return nil
}

// SetFrameSize sets a power-of-two FFT length and rebuilds all buffers. The
// hop is a quarter frame.
func (s *SpectralFreeze) SetFrameSize(size int) error {
	if size < minSpectralFreezeFrameSize || size > maxSpectralFreezeFrameSize || size&(size-1) != 0 {
		return fmt.Errorf("spectral freeze frame size must be a power of two in [%d, %d]: %d",
			minSpectralFreezeFrameSize, maxSpectralFreezeFrameSize, size)
	}

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return fmt.Errorf("spectral freeze: failed to create FFT plan: %w", err)
	}

	hop := size / defaultSpectralFreezeOverlap
	bins := size/2 + 1

	s.plan = plan
	s.frameSize = size
	s.hopSize = hop
	s.win = window.Generate(window.TypeHann, size, window.WithPeriodic())

	// Analysis times synthesis window: the overlap-added sum of w^2 is
	// constant for Hann at 4x overlap.
	sumSq := 0.0
	for _, w := range s.win {
		sumSq += w * w
	}
	s.olaGain = float64(hop) / sumSq

	s.omegaHop = make([]float64, bins)
	for k := range s.omegaHop {
		s.omegaHop[k] = 2 * math.Pi * float64(k) * float64(hop) / float64(size)
	}

	s.input = make([]float64, size)
	s.ola = make([]float64, size)
	s.out = make([]float64, hop)
	s.spectrum = make([]complex128, size)
	s.frame = make([]complex128, size)
	s.re = make([]float64, bins)
	s.im = make([]float64, bins)
	s.grain = make([]float64, size)
	s.heldMagnitude = make([]float64, bins)
	s.phaseAcc = make([]float64, bins)
	s.Reset()

	return nil
}

// SetPhaseMode selects how frozen phases evolve.
func (s *SpectralFreeze) SetPhaseMode(mode SpectralFreezePhaseMode) error {
	switch mode {
	case SpectralFreezePhaseAdvance, SpectralFreezePhaseHold:
		s.phaseMode = mode
		return nil
	default:
		return fmt.Errorf("spectral freeze phase mode invalid: %d", mode)
	}
}

// SetFrozen engages or releases the freeze. Engaging captures the next
// analysed frame.
func (s *SpectralFreeze) SetFrozen(frozen bool) {
	if frozen && !s.frozen {
		s.captured = false
	}
	s.frozen = frozen
}

// Reset clears all history and any captured frame.
func (s *SpectralFreeze) Reset() {
	clear(s.input)
	clear(s.ola)
	clear(s.out)
	clear(s.phaseAcc)
	clear(s.heldMagnitude)
	s.inPos = 0
	s.outPos = 0
	s.captured = false
}

// ProcessSample feeds one sample and returns one output sample.
func (s *SpectralFreeze) ProcessSample(x float64) float64 {
	s.input[s.inPos] = x
	s.inPos++
	if s.inPos == s.frameSize {
		s.inPos = 0
	}

	y := s.out[s.outPos]
	s.outPos++
	if s.outPos == s.hopSize {
		s.outPos = 0
		s.processFrame()
	}
	return y
}

// ProcessInPlace applies the freeze to buf in place.
func (s *SpectralFreeze) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = s.ProcessSample(buf[i])
	}
}

func (s *SpectralFreeze) processFrame() {
	n := s.frameSize
	half := n / 2

	// Oldest sample first.
	for i := 0; i < n; i++ {
		j := s.inPos + i
		if j >= n {
			j -= n
		}
		s.grain[i] = s.input[j]
	}
	vecmath.MulBlockInPlace(s.grain, s.win)
	for i, v := range s.grain {
		s.frame[i] = complex(v, 0)
	}

	if err := s.plan.Forward(s.spectrum, s.frame); err != nil {
		return
	}

	if s.frozen {
		if !s.captured {
			for k := 0; k <= half; k++ {
				s.re[k] = real(s.spectrum[k])
				s.im[k] = imag(s.spectrum[k])
				s.phaseAcc[k] = math.Atan2(s.im[k], s.re[k])
			}
			vecmath.Magnitude(s.heldMagnitude, s.re, s.im)
			s.captured = true
		} else if s.phaseMode == SpectralFreezePhaseAdvance {
			for k := 0; k <= half; k++ {
				s.phaseAcc[k] = math.Mod(s.phaseAcc[k]+s.omegaHop[k], 2*math.Pi)
			}
		}

		for k := 0; k <= half; k++ {
			sin, cos := math.Sincos(s.phaseAcc[k])
			s.spectrum[k] = complex(s.heldMagnitude[k]*cos, s.heldMagnitude[k]*sin)
		}
		s.spectrum[0] = complex(real(s.spectrum[0]), 0)
		s.spectrum[half] = complex(real(s.spectrum[half]), 0)
		for k := 1; k < half; k++ {
			v := s.spectrum[k]
			s.spectrum[n-k] = complex(real(v), -imag(v))
		}
	}

	if err := s.plan.Inverse(s.frame, s.spectrum); err != nil {
		return
	}

	for i := range s.grain {
		s.grain[i] = real(s.frame[i])
	}
	vecmath.MulBlockInPlace(s.grain, s.win)
	vecmath.ScaleBlock(s.grain, s.grain, s.olaGain)
	vecmath.AddBlockInPlace(s.ola, s.grain)

	copy(s.out, s.ola[:s.hopSize])
	copy(s.ola, s.ola[s.hopSize:])
	clear(s.ola[n-s.hopSize:])
}
