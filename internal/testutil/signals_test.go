package testutil

import (
	"math"
	"testing"
)

func TestSine(t *testing.T) {
	t.Parallel()

	s := Sine(1000, 48000, 1, 48)
	if len(s) != 48 {
		t.Fatalf("len = %d, want 48", len(s))
	}
	if math.Abs(s[0]) > 1e-15 {
		t.Fatalf("s[0] = %v, want 0", s[0])
	}
	if math.Abs(s[12]-1) > 1e-12 {
		t.Fatalf("s[12] = %v, want 1", s[12])
	}
}

func TestNoiseSeeded(t *testing.T) {
	t.Parallel()

	a := Noise(42, 0.5, 64)
	b := Noise(42, 0.5, 64)
	c := Noise(43, 0.5, 64)
	same := true
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: same seed differs", i)
		}
		if math.Abs(a[i]) > 0.5 {
			t.Fatalf("index %d: %v exceeds amplitude", i, a[i])
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Fatal("different seeds produced identical noise")
	}
}

func TestImpulse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		pos  int
		want float64
	}{
		{name: "inside", pos: 3, want: 1},
		{name: "outside", pos: 10, want: 0},
		{name: "negative", pos: -1, want: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			imp := Impulse(8, tc.pos)
			if got := Energy(imp); got != tc.want {
				t.Fatalf("energy = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFloat32AndRun(t *testing.T) {
	t.Parallel()

	in := DC(0.25, 4)
	out := Run(func(x float64) float64 { return 2 * x }, in)
	RequireNear(t, out, DC(0.5, 4), 0)

	f := Float32(out)
	if len(f) != 4 || f[3] != 0.5 {
		t.Fatalf("Float32 = %v", f)
	}
}
