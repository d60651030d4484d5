// Package modulation provides time-varying effects driven by an LFO or an
// envelope.
//
// Included processors:
//   - AutoWah: Envelope follower driving a band-pass filter sweep.
//   - Chorus: Multi-voice modulated delay.
//   - Flanger: Short modulated delay with feedback.
//   - Phaser: Allpass-cascade modulation effect.
//   - RingModulator: Carrier multiplication.
//   - Tremolo: LFO amplitude modulation.
//   - Vibrato: Pure pitch modulation through a swept delay.
//
// Processors return the wet signal; wet/dry balance belongs to the caller.
// Stereo use runs one processor per channel and offsets the second LFO with
// SetLFOPhase.
package modulation
