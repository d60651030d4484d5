package window

import (
	"math"
	"testing"
)

func TestGenerateLengths(t *testing.T) {
	if Generate(TypeHann, 0) != nil {
		t.Fatal("expected nil for zero length")
	}
	if w := Generate(TypeHann, 1); len(w) != 1 {
		t.Fatalf("len = %d, want 1", len(w))
	}
}

func TestHannSymmetricEndpoints(t *testing.T) {
	w := Generate(TypeHann, 9)
	if w[0] != 0 || math.Abs(w[8]) > 1e-15 {
		t.Fatalf("endpoints = %v, %v, want 0", w[0], w[8])
	}
	if math.Abs(w[4]-1) > 1e-15 {
		t.Fatalf("centre = %v, want 1", w[4])
	}
	for i := 0; i < 4; i++ {
		if math.Abs(w[i]-w[8-i]) > 1e-12 {
			t.Fatalf("asymmetric at %d: %v vs %v", i, w[i], w[8-i])
		}
	}
}

func TestPeriodicHannOverlapAddsToConstant(t *testing.T) {
	const n = 64
	w := Generate(TypeHann, n, WithPeriodic())

	for i := 0; i < n/2; i++ {
		if s := w[i] + w[i+n/2]; math.Abs(s-1) > 1e-12 {
			t.Fatalf("overlap sum at %d = %v, want 1", i, s)
		}
	}
	if got := Sum(w); math.Abs(got-n/2) > 1e-9 {
		t.Fatalf("Sum = %v, want %v", got, n/2)
	}
}

func TestAtOutsideRange(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman} {
		if At(typ, -0.1) != 0 || At(typ, 1.1) != 0 {
			t.Fatalf("%v: expected 0 outside [0,1]", typ)
		}
	}
}

func TestApplyMismatch(t *testing.T) {
	buf := []float64{1, 2, 3}
	if Apply(buf, []float64{1, 1}) {
		t.Fatal("expected mismatch to be rejected")
	}
	if buf[0] != 1 || buf[2] != 3 {
		t.Fatal("buffer modified on mismatch")
	}
}

func TestApplyTo(t *testing.T) {
	dst := make([]float64, 3)
	if !ApplyTo(dst, []float64{2, 2, 2}, []float64{0, 0.5, 1}) {
		t.Fatal("ApplyTo rejected equal lengths")
	}
	if dst[0] != 0 || dst[1] != 1 || dst[2] != 2 {
		t.Fatalf("dst = %v", dst)
	}
}

func TestTypeString(t *testing.T) {
	if TypeHann.String() != "Hann" || Type(99).String() != "Unknown" {
		t.Fatal("unexpected names")
	}
}
