//go:build !fastmath

package dynamics

import "github.com/cwbudde/algo-fx/dsp/core"

// dbToGain converts a per-sample gain in dB to a linear factor.
func dbToGain(dB float64) float64 { return core.DBToLinear(dB) }

// toLevelDB converts a detector level to dB, floored at core.SilenceDB.
func toLevelDB(level float64) float64 { return core.LevelDB(level) }
