// Package pitch provides streaming pitch shifters built on a delay line.
//
// Included processors:
//   - PitchShifter: Two crossfaded read taps sweeping through a delay line
//     at the pitch ratio.
//   - Harmonizer: Two PitchShifter voices with independent interval and
//     level.
//
// Both return the wet signal one sample at a time and never allocate after
// construction or SetSampleRate.
package pitch
