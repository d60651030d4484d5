// Package effectchain composes effects into a real-time signal chain.
//
// A SignalChain owns an ordered list of *effect.Effect values and runs one
// fixed-size block through them per Process call. Edits made from a control
// goroutine publish a new immutable snapshot; Process loads it once per
// block, so it never locks and never allocates.
//
// A Registry maps effect type names to factories. DefaultRegistry knows the
// built-in delay, modulation, dynamics, spectral and filter effects. Chains
// can be described as versioned JSON documents (ParseDocument, Describe).
package effectchain
