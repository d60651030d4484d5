//go:build fastmath

package dynamics

import (
	"math"

	"github.com/meko-christian/algo-approx"

	"github.com/cwbudde/algo-fx/dsp/core"
)

const (
	dbPerNeper  = 20 / math.Ln10
	nepersPerDB = math.Ln10 / 20
)

// dbToGain converts a per-sample gain in dB using a fast exp.
func dbToGain(dB float64) float64 {
	return approx.FastExp(dB * nepersPerDB)
}

// toLevelDB converts a detector level to dB using a fast log, floored at
// core.SilenceDB.
func toLevelDB(level float64) float64 {
	level = math.Abs(level)
	if level <= 1e-6 {
		return core.SilenceDB
	}

	return math.Max(core.SilenceDB, approx.FastLog(level)*dbPerNeper)
}
