package design

import (
	"math"

	"github.com/cwbudde/algo-fx/dsp/filter/biquad"
)

const (
	defaultQ = 1 / math.Sqrt2
	minQ     = 0.05
	// MinFrequency is the lowest centre/cutoff frequency the designers accept.
	MinFrequency = 1.0
	// MaxFrequencyRatio bounds designed frequencies below Nyquist.
	MaxFrequencyRatio = 0.49
)

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b1 := 1 - cw
	b0 := b1 / 2
	return normalizeBiquad(b0, b1, b0, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 + cw) / 2
	return normalizeBiquad(b0, -(1 + cw), b0, 1+alpha, -2*cw, 1-alpha)
}

// Bandpass designs a constant 0 dB peak gain bandpass biquad.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalizeBiquad(alpha, 0, -alpha, 1+alpha, -2*cw, 1-alpha)
}

// Notch designs a notch biquad centered at freq (Hz).
func Notch(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalizeBiquad(1, -2*cw, 1, 1+alpha, -2*cw, 1-alpha)
}

// Allpass designs an allpass biquad centered at freq (Hz).
func Allpass(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	return normalizeBiquad(1-alpha, -2*cw, 1+alpha, 1+alpha, -2*cw, 1-alpha)
}

// Peak designs a peaking-EQ biquad with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a := math.Pow(10, gainDB/40)

	return normalizeBiquad(1+alpha*a, -2*cw, 1-alpha*a, 1+alpha/a, -2*cw, 1-alpha/a)
}

// LowShelf designs a low-shelf biquad with gain in dB.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cw + beta)
	b1 := 2 * a * ((a - 1) - (a+1)*cw)
	b2 := a * ((a + 1) - (a-1)*cw - beta)
	a0 := (a + 1) + (a-1)*cw + beta
	a1 := -2 * ((a - 1) + (a+1)*cw)
	a2 := (a + 1) + (a-1)*cw - beta

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// HighShelf designs a high-shelf biquad with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	q = normalizedQ(q)
	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cw + beta)
	b1 := -2 * a * ((a - 1) + (a+1)*cw)
	b2 := a * ((a + 1) + (a-1)*cw - beta)
	a0 := (a + 1) - (a-1)*cw + beta
	a1 := 2 * ((a - 1) - (a+1)*cw)
	a2 := (a + 1) - (a-1)*cw - beta

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// ClampFrequency bounds freq to [MinFrequency, MaxFrequencyRatio*sampleRate].
func ClampFrequency(freq, sampleRate float64) float64 {
	maxFreq := MaxFrequencyRatio * sampleRate
	if freq < MinFrequency || math.IsNaN(freq) {
		return MinFrequency
	}
	if freq > maxFreq {
		return maxFreq
	}
	return freq
}

// normalizedW0 clamps freq into the designable range instead of rejecting
// it, so a swept parameter can never produce unstable coefficients. Only an
// invalid sample rate is reported.
func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	return 2 * math.Pi * ClampFrequency(freq, sampleRate) / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q <= 0 {
		return defaultQ
	}
	if q < minQ {
		return minQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return passthrough()
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

func passthrough() biquad.Coefficients {
	return biquad.Coefficients{B0: 1}
}
