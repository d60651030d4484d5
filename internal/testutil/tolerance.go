package testutil

import (
	"math"
	"testing"
)

// RequireNear fails t when any element of got is further than eps from want.
func RequireNear(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if d := math.Abs(got[i] - want[i]); d > eps {
			t.Fatalf("index %d: got %v, want %v (|diff| %v > %v)", i, got[i], want[i], d, eps)
		}
	}
}

// RequireFinite fails t on the first NaN or Inf.
func RequireFinite(t *testing.T, data []float64) {
	t.Helper()
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireFinite32 is RequireFinite for effect buffers.
func RequireFinite32(t *testing.T, data []float32) {
	t.Helper()
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireSilent fails t when any sample is non-zero.
func RequireSilent(t *testing.T, data []float32) {
	t.Helper()
	for i, v := range data {
		if v != 0 {
			t.Fatalf("index %d: got %v, want silence", i, v)
		}
	}
}

// Peak returns the largest absolute sample.
func Peak(data []float64) float64 {
	p := 0.0
	for _, v := range data {
		if a := math.Abs(v); a > p {
			p = a
		}
	}
	return p
}

// Energy returns the sum of squares.
func Energy(data []float64) float64 {
	e := 0.0
	for _, v := range data {
		e += v * v
	}
	return e
}
