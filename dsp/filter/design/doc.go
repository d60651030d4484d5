// Package design provides RBJ-cookbook biquad coefficient designers.
//
// The functions in this package produce coefficients consumable by
// dsp/filter/biquad. Frequencies are clamped into
// [MinFrequency, MaxFrequencyRatio*sampleRate] and Q to a positive minimum,
// so every returned coefficient set is stable.
package design
