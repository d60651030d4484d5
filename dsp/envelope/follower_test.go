package envelope

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		sr, attack, relea float64
	}{
		{name: "zero rate", sr: 0, attack: 1, relea: 1},
		{name: "nan rate", sr: math.NaN(), attack: 1, relea: 1},
		{name: "zero attack", sr: 48000, attack: 0, relea: 1},
		{name: "negative release", sr: 48000, attack: 1, relea: -1},
		{name: "inf release", sr: 48000, attack: 1, relea: math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.sr, tt.attack, tt.relea); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestCoefficientsInOpenUnitInterval(t *testing.T) {
	for _, ms := range []float64{1e-9, 0.01, 1, 100, 5000, 1e9} {
		c := Coefficient(ms, 44100)
		if c <= 0 || c >= 1 {
			t.Fatalf("Coefficient(%v) = %v, want (0,1)", ms, c)
		}
	}

	want := math.Exp(-1 / (0.01 * 44100))
	if got := Coefficient(10, 44100); math.Abs(got-want) > 1e-15 {
		t.Fatalf("Coefficient(10ms) = %v, want %v", got, want)
	}
}

func TestAttackFasterThanRelease(t *testing.T) {
	f, err := New(48000, 1, 100)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 480; i++ {
		f.Process(1)
	}
	if f.Value() < 0.99 {
		t.Fatalf("after 10 ms attack envelope = %v, want ~1", f.Value())
	}

	for i := 0; i < 480; i++ {
		f.Process(0)
	}
	if f.Value() < 0.85 {
		t.Fatalf("after 10 ms release envelope = %v, want slow decay", f.Value())
	}
}

func TestProcessRectifies(t *testing.T) {
	a, _ := New(48000, 5, 50)
	b, _ := New(48000, 5, 50)

	for i := 0; i < 100; i++ {
		x := math.Sin(float64(i) * 0.1)
		if a.Process(x) != b.Process(-x) {
			t.Fatal("envelope must be sign independent")
		}
	}
}

func TestTrackDBFromFloor(t *testing.T) {
	f, err := New(48000, 0.1, 50)
	if err != nil {
		t.Fatal(err)
	}
	f.SetInitial(-120)

	for i := 0; i < 480; i++ {
		f.Track(-20)
	}
	if math.Abs(f.Value()+20) > 0.01 {
		t.Fatalf("envelope = %v dB, want ~-20", f.Value())
	}

	f.Reset()
	if f.Value() != -120 {
		t.Fatalf("Reset() envelope = %v, want -120", f.Value())
	}
}

func TestSetSampleRateRecomputes(t *testing.T) {
	f, _ := New(48000, 10, 10)
	before := f.AttackCoeff()

	if err := f.SetSampleRate(96000); err != nil {
		t.Fatal(err)
	}
	if f.AttackCoeff() <= before {
		t.Fatalf("attack coeff %v should grow with sample rate (was %v)", f.AttackCoeff(), before)
	}
	if err := f.SetSampleRate(-1); err == nil {
		t.Fatal("expected error for negative sample rate")
	}
}
