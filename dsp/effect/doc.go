// Package effect defines the contract every audio effect in a signal chain
// fulfils.
//
// An Effect couples a Definition (type name, family, parameter table,
// presets) with a Kernel that holds the DSP state. The Effect owns the
// thread-safe parameter registry, the wet/dry mix, enable state and output
// sanitizing, so kernels only implement the signal path.
//
// Configuration calls (Initialize, Shutdown, SetSampleRate, SetBlockSize,
// SetChannelCount) must not run concurrently with Process. Parameter,
// enable and Reset calls may; Reset takes effect at the next block.
package effect
