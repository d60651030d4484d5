package delay

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/interp"
)

func approxEqual(a, b, eps float64) bool {
	return math.Abs(a-b) < eps
}

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for capacity=0")
	}

	if _, err := New(-1); err == nil {
		t.Fatal("expected error for capacity=-1")
	}
}

func TestNewDefaults(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	if d.Capacity() != 16 || d.MaxDelay() != 15 {
		t.Fatalf("Capacity/MaxDelay: got %d/%d want 16/15", d.Capacity(), d.MaxDelay())
	}

	if d.Mode() != interp.Linear {
		t.Fatalf("default mode: got %v want Linear", d.Mode())
	}
}

func TestNewWithOptions(t *testing.T) {
	d, err := New(16, WithMode(interp.Hermite))
	if err != nil {
		t.Fatal(err)
	}

	if d.Mode() != interp.Hermite {
		t.Fatalf("mode: got %v want Hermite", d.Mode())
	}
}

func TestReadWrite(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i))
	}
	// delay=1 => most recently written (7)
	if got := d.Read(1); got != 7 {
		t.Fatalf("got %v want 7", got)
	}
	if got := d.Read(3); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}

func TestReadWraparound(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		d.Write(float64(i))
	}

	if got := d.Read(1); got != 9 {
		t.Fatalf("got %v want 9", got)
	}
	if got := d.Read(3); got != 7 {
		t.Fatalf("got %v want 7", got)
	}
}

func TestPositionsStayInRange(t *testing.T) {
	d, err := New(5)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 23; i++ {
		d.Write(1)
		if wp := d.WritePos(); wp < 0 || wp >= d.Capacity() {
			t.Fatalf("writePos %d out of range", wp)
		}
		for _, delay := range []int{-10, 0, 1, 4, 5, 100} {
			if rp := d.ReadPos(delay); rp < 0 || rp >= d.Capacity() {
				t.Fatalf("ReadPos(%d) = %d out of range", delay, rp)
			}
		}
	}
}

func TestImpulseDelayAccuracy(t *testing.T) {
	const delaySamples = 37

	d, err := New(64)
	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n < 100; n++ {
		in := 0.0
		if n == 0 {
			in = 1
		}
		out := d.ReadFractional(delaySamples)
		d.Write(in)

		want := 0.0
		if n == delaySamples {
			want = 1
		}
		if out != want {
			t.Fatalf("n=%d: got %v want %v", n, out, want)
		}
	}
}

func TestAddToNewest(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.AddToNewest(0.5)
	if got := d.Read(1); got != 1.5 {
		t.Fatalf("got %v want 1.5", got)
	}
}

func TestReset(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	d.Write(1)
	d.Write(2)
	d.Reset()

	if d.WritePos() != 0 {
		t.Fatalf("writePos = %d after reset", d.WritePos())
	}
	for i := 0; i < 4; i++ {
		if got := d.Read(i); got != 0 {
			t.Fatalf("Read(%d) = %v after reset", i, got)
		}
	}
}

func TestReadFractionalLinearRamp(t *testing.T) {
	d, err := New(16)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		d.Write(float64(i))
	}

	// Read(2)=14, Read(3)=13, halfway is 13.5.
	if got := d.ReadFractional(2.5); !approxEqual(got, 13.5, 1e-12) {
		t.Fatalf("got %v want 13.5", got)
	}
	if got := d.ReadFractional(2.25); !approxEqual(got, 13.75, 1e-12) {
		t.Fatalf("got %v want 13.75", got)
	}
}

func TestReadFractionalClamped(t *testing.T) {
	d, err := New(8)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 8; i++ {
		d.Write(float64(i + 1))
	}

	if got, want := d.ReadFractional(-3), d.Read(0); got != want {
		t.Fatalf("negative delay: got %v want %v", got, want)
	}
	if got, want := d.ReadFractional(1e9), d.Read(7); got != want {
		t.Fatalf("huge delay: got %v want %v", got, want)
	}
	if got, want := d.ReadFractional(math.NaN()), d.Read(0); got != want {
		t.Fatalf("NaN delay: got %v want %v", got, want)
	}
}

func TestReadFractionalHermiteOnRamp(t *testing.T) {
	d, err := New(16, WithMode(interp.Hermite))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 16; i++ {
		d.Write(float64(i))
	}

	if got := d.ReadFractional(4.5); !approxEqual(got, 10.5, 1e-9) {
		t.Fatalf("got %v want 10.5", got)
	}
}

func TestResizePreservesNewestHistory(t *testing.T) {
	d, err := New(4)
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 6; i++ {
		d.Write(float64(i))
	}

	if err := d.Resize(8); err != nil {
		t.Fatal(err)
	}
	if d.Capacity() != 8 {
		t.Fatalf("Capacity = %d, want 8", d.Capacity())
	}
	for delay, want := range map[int]float64{1: 6, 2: 5, 3: 4, 4: 3, 5: 0} {
		if got := d.Read(delay); got != want {
			t.Fatalf("Read(%d) = %v, want %v", delay, got, want)
		}
	}

	if err := d.Resize(2); err != nil {
		t.Fatal(err)
	}
	if got := d.Read(1); got != 6 {
		t.Fatalf("after shrink Read(1) = %v, want 6", got)
	}
	if err := d.Resize(0); err == nil {
		t.Fatal("expected error for capacity 0")
	}
}

func TestCapacityFor(t *testing.T) {
	if got := CapacityFor(0.5, 44100); got < 22051 {
		t.Fatalf("CapacityFor(0.5, 44100) = %d, too small for 22050 samples", got)
	}
	if got := CapacityFor(0, 44100); got != 4 {
		t.Fatalf("CapacityFor(0, 44100) = %d, want 4", got)
	}
}
