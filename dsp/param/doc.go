// Package param provides thread-safe effect parameters and the ordered
// registry an effect exposes to hosts.
//
// Values are stored as atomic float64 bits so one control goroutine may set
// them while the audio goroutine reads them. A registry-wide version counter
// lets the audio side copy all values only after a change.
package param
