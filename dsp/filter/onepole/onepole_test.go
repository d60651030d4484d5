package onepole

import (
	"math"
	"testing"
)

func TestLowpassConvergesToDC(t *testing.T) {
	f := New(Lowpass, 100, 48000)

	var y float64
	for i := 0; i < 48000; i++ {
		y = f.Process(1)
	}
	if math.Abs(y-1) > 1e-9 {
		t.Fatalf("lowpass DC output = %v, want 1", y)
	}
}

func TestHighpassRejectsDC(t *testing.T) {
	f := New(Highpass, 100, 48000)

	var y float64
	for i := 0; i < 48000; i++ {
		y = f.Process(1)
	}
	if math.Abs(y) > 1e-9 {
		t.Fatalf("highpass DC output = %v, want 0", y)
	}
}

func TestDisabledIsPassthrough(t *testing.T) {
	f := New(Lowpass, 0, 48000)
	for _, x := range []float64{1, -0.5, 0.25} {
		if got := f.Process(x); got != x {
			t.Fatalf("Process(%v) = %v, want passthrough", x, got)
		}
	}
}

func TestAlphaBounded(t *testing.T) {
	for _, fc := range []float64{1, 1000, 20000, 1e9} {
		f := New(Lowpass, fc, 44100)
		if a := f.Alpha(); a <= 0 || a >= 1 {
			t.Fatalf("cutoff %v: alpha %v outside (0,1)", fc, a)
		}
	}
}

func TestReset(t *testing.T) {
	f := New(Lowpass, 500, 48000)
	f.Process(1)
	f.Reset()
	if got := f.Process(0); got != 0 {
		t.Fatalf("after Reset Process(0) = %v, want 0", got)
	}
}
