// Package interp provides interpolation primitives used by delay-based DSP blocks.
//
//   - [Linear2]:  2-point linear interpolation, the default for modulated delays
//   - [Hermite4]: 4-point cubic Hermite
//
// The [Mode] enum selects between them in [delay.Line].
package interp
