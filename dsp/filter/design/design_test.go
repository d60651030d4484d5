package design

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/filter/biquad"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mag(c biquad.Coefficients, freq, sampleRate float64) float64 {
	return cmplx.Abs(c.Response(freq, sampleRate))
}

func TestBiquadDesigners_BasicResponseShape(t *testing.T) {
	sr := 48000.0
	f := 1000.0
	q := 1 / math.Sqrt2

	lp := Lowpass(f, q, sr)
	if !(mag(lp, 100, sr) > mag(lp, 10000, sr)) {
		t.Fatal("lowpass shape check failed")
	}
	if !almostEqual(mag(lp, 0, sr), 1, 1e-9) {
		t.Fatalf("lowpass DC gain = %v, want 1", mag(lp, 0, sr))
	}

	hp := Highpass(f, q, sr)
	if !(mag(hp, 10000, sr) > mag(hp, 100, sr)) {
		t.Fatal("highpass shape check failed")
	}

	bp := Bandpass(f, q, sr)
	if !almostEqual(mag(bp, f, sr), 1, 1e-6) {
		t.Fatalf("bandpass centre gain = %v, want 1", mag(bp, f, sr))
	}
	if !(mag(bp, f, sr) > mag(bp, 100, sr) && mag(bp, f, sr) > mag(bp, 10000, sr)) {
		t.Fatal("bandpass shape check failed")
	}

	n := Notch(f, q, sr)
	if !(mag(n, f, sr) < mag(n, 100, sr) && mag(n, f, sr) < mag(n, 10000, sr)) {
		t.Fatal("notch shape check failed")
	}

	ap := Allpass(f, q, sr)
	for _, hz := range []float64{100, 500, 1000, 5000, 10000} {
		if !almostEqual(mag(ap, hz, sr), 1, 1e-6) {
			t.Fatalf("allpass magnitude at %v Hz = %v, want ~1", hz, mag(ap, hz, sr))
		}
	}
}

func TestEQDesigners_BasicBehavior(t *testing.T) {
	sr := 48000.0
	f := 1000.0
	q := 1.0

	peakUp := Peak(f, 6, q, sr)
	peakDown := Peak(f, -6, q, sr)
	if !(mag(peakUp, f, sr) > 1 && mag(peakDown, f, sr) < 1) {
		t.Fatal("peak filter gain check failed")
	}
	if !almostEqual(20*math.Log10(mag(peakUp, f, sr)), 6, 1e-6) {
		t.Fatalf("peak gain = %v dB, want 6", 20*math.Log10(mag(peakUp, f, sr)))
	}

	ls := LowShelf(500, 6, q, sr)
	if !(mag(ls, 100, sr) > mag(ls, 10000, sr)) {
		t.Fatal("low shelf tilt check failed")
	}

	hs := HighShelf(4000, 6, q, sr)
	if !(mag(hs, 10000, sr) > mag(hs, 100, sr)) {
		t.Fatal("high shelf tilt check failed")
	}
}

func TestDesignersStayStableOutOfRange(t *testing.T) {
	t.Parallel()

	sr := 44100.0
	freqs := []float64{-100, 0, 0.5, 20, 21000, 22050, 30000, math.NaN(), math.Inf(1)}
	qs := []float64{-1, 0, 0.001, 0.7, 40, math.NaN()}

	for _, f := range freqs {
		for _, q := range qs {
			for name, c := range map[string]biquad.Coefficients{
				"lowpass":  Lowpass(f, q, sr),
				"highpass": Highpass(f, q, sr),
				"bandpass": Bandpass(f, q, sr),
				"notch":    Notch(f, q, sr),
				"peak":     Peak(f, 12, q, sr),
			} {
				if !c.Stable() {
					t.Fatalf("%s(f=%v, q=%v) unstable: %+v", name, f, q, c)
				}
			}
		}
	}
}

func TestInvalidSampleRateIsPassthrough(t *testing.T) {
	c := Lowpass(1000, 0.7, 0)
	if c != (biquad.Coefficients{B0: 1}) {
		t.Fatalf("got %+v, want passthrough", c)
	}
}

func TestClampFrequency(t *testing.T) {
	if got := ClampFrequency(30000, 44100); got != 0.49*44100 {
		t.Fatalf("ClampFrequency high = %v", got)
	}
	if got := ClampFrequency(-5, 44100); got != MinFrequency {
		t.Fatalf("ClampFrequency low = %v", got)
	}
}
