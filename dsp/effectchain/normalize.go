package effectchain

import "strings"

// typeAliases maps alternative spellings found in hand-written chain
// documents to registered type names.
var typeAliases = map[string]string{
	"ringmod":        "ring-mod",
	"ring-modulator": "ring-mod",
	"autowah":        "auto-wah",
	"ping-pong":      "pingpong",
	"tape":           "tape-delay",
	"tapedelay":      "tape-delay",
	"multi-tap":      "multitap",
	"pitchshift":     "pitch-shift",
	"pitch-shifter":  "pitch-shift",
	"freeze":         "spectral-freeze",
	"ducker":         "ducking-delay",
	"noise-gate":     "gate",
}

func normalizeType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := typeAliases[t]; ok {
		return alias
	}

	return t
}

// Filter modes of the "filter" effect, selected by its mode parameter.
const (
	FilterLowpass = iota
	FilterHighpass
	FilterBandpass
	FilterNotch
	FilterPeak
)

var filterModeNames = []string{"lowpass", "highpass", "bandpass", "notch", "peak"}

// ParseFilterMode maps a filter mode name to its mode parameter value.
func ParseFilterMode(raw string) (int, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "lp":
		name = "lowpass"
	case "hp":
		name = "highpass"
	case "bp":
		name = "bandpass"
	case "eq", "bell":
		name = "peak"
	}

	for i, n := range filterModeNames {
		if n == name {
			return i, true
		}
	}

	return 0, false
}
