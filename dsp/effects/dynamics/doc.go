// Package dynamics provides level-dependent gain processors.
//
// Included processors:
//   - GainComputer: Static threshold/ratio/knee curve in the dB domain, in
//     compress or gate mode.
//   - Gate: Noise gate with hold and range.
//   - Compressor: Downward compressor with makeup gain.
//   - Limiter: Lookahead limiter with makeup gain.
//   - DuckingDelay: Feedback delay whose echoes duck under the dry signal.
//
// Every processor follows its input level in dB with an attack/release
// envelope. ProcessSample detects from the sample itself; ProcessLinked
// takes the detector level from the caller so several channels can share
// one level (the largest magnitude across channels) and gain.
package dynamics
