// Package effects provides the delay-family and spectral DSP kernels used by
// the effect chain.
//
// Subpackages:
//   - github.com/cwbudde/algo-fx/dsp/effects/dynamics
//   - github.com/cwbudde/algo-fx/dsp/effects/modulation
//   - github.com/cwbudde/algo-fx/dsp/effects/pitch
//
// Kernels in this package:
//   - Delay: feedback delay with a tone filter in the loop and tempo sync.
//   - TapeDelay: delay with wow, flutter and feedback saturation.
//   - MultiTap: up to MaxTaps independent taps over one delay line.
//   - PingPong: stereo delay whose feedback crosses between channels.
//   - Granular: overlapping windowed grains with pitch and spread.
//   - SpectralFreeze: STFT magnitude hold with selectable phase strategy.
//
// Kernels work on float64 samples and do not allocate once constructed.
package effects
