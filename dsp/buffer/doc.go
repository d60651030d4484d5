// Package buffer provides SampleBuffer, the block container passed through
// effects and signal chains. A SampleBuffer is allocated on the control path
// and then written in place by the audio path; none of its sample accessors
// allocate or panic.
package buffer
