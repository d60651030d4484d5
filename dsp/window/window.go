package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
)

// String returns the window name.
func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "Rectangular"
	case TypeHann:
		return "Hann"
	case TypeHamming:
		return "Hamming"
	case TypeBlackman:
		return "Blackman"
	default:
		return "Unknown"
	}
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		out[i] = At(t, samplePosition(i, length, cfg.periodic))
	}

	return out
}

// At evaluates the window at a normalized position in [0, 1].
func At(t Type, x float64) float64 {
	if x < 0 || x > 1 {
		return 0
	}

	switch t {
	case TypeRectangular:
		return 1
	case TypeHann:
		return Hann(x)
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(2*math.Pi*x)
	case TypeBlackman:
		return 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
	default:
		return 1
	}
}

// Hann evaluates 0.5*(1-cos(2*pi*pos)) for a grain position in [0, 1].
// Grain engines call it per sample instead of holding a table.
func Hann(pos float64) float64 {
	return 0.5 * (1 - math.Cos(2*math.Pi*pos))
}

// Apply multiplies buf in-place by precomputed coefficients. Mismatched
// lengths leave buf untouched and report false.
func Apply(buf, coeffs []float64) bool {
	if len(buf) != len(coeffs) {
		return false
	}

	vecmath.MulBlockInPlace(buf, coeffs)

	return true
}

// ApplyTo writes samples*coeffs into dst without allocating.
func ApplyTo(dst, samples, coeffs []float64) bool {
	if len(samples) != len(coeffs) || len(dst) != len(samples) {
		return false
	}

	vecmath.MulBlock(dst, samples, coeffs)

	return true
}

// Sum returns the sum of coefficients, the normalizer for overlap-add.
func Sum(coeffs []float64) float64 {
	s := 0.0
	for _, c := range coeffs {
		s += c
	}
	return s
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
