package lfo

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if _, err := New(48000, WithRate(0)); err == nil {
		t.Fatal("expected error for zero rate")
	}
	if _, err := New(48000, WithRate(1000)); err == nil {
		t.Fatal("expected error for audio-rate LFO")
	}
}

func TestSineCompletesOneCyclePerPeriod(t *testing.T) {
	const sr = 1000.0

	l, err := New(sr, WithRate(10))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		v := l.Next()
		want := math.Sin(2 * math.Pi * 10 * float64(i) / sr)
		if math.Abs(v-want) > 1e-9 {
			t.Fatalf("sample %d: got %v want %v", i, v, want)
		}
	}
	if p := l.Phase(); p > 1e-9 && p < 1-1e-9 {
		t.Fatalf("phase after one period = %v, want ~0", p)
	}
}

func TestWaveformsBounded(t *testing.T) {
	t.Parallel()

	for _, w := range []Waveform{Sine, Triangle, Square, SawUp, SawDown, SampleHold, Morph} {
		l, err := New(48000, WithRate(7), WithWaveform(w), WithSeed(42))
		if err != nil {
			t.Fatal(err)
		}
		l.SetShape(0.7)
		for i := 0; i < 48000; i++ {
			if v := l.Next(); v < -1 || v > 1 {
				t.Fatalf("waveform %d sample %d out of range: %v", w, i, v)
			}
		}
	}
}

func TestMorphEndpoints(t *testing.T) {
	l, err := New(48000, WithWaveform(Morph))
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []float64{0.1, 0.3, 0.6, 0.9} {
		l.SetPhase(p)

		l.SetShape(0)
		if got := l.Value(); math.Abs(got-sine(p)) > 1e-12 {
			t.Fatalf("shape 0 at %v: got %v want sine %v", p, got, sine(p))
		}
		l.SetShape(0.5)
		if got := l.Value(); math.Abs(got-triangle(p)) > 1e-12 {
			t.Fatalf("shape 0.5 at %v: got %v want triangle %v", p, got, triangle(p))
		}
		l.SetShape(1)
		if got := l.Value(); got != square(p) {
			t.Fatalf("shape 1 at %v: got %v want square %v", p, got, square(p))
		}
	}
}

func TestCloneOffsetsPhase(t *testing.T) {
	left, err := New(48000, WithRate(2))
	if err != nil {
		t.Fatal(err)
	}
	right := left.Clone(0.25)

	for i := 0; i < 1000; i++ {
		l := left.Next()
		r := right.Next()
		// sin(x + pi/2) = cos(x)
		want := math.Cos(math.Asin(l))
		if math.Abs(math.Abs(r)-math.Abs(want)) > 1e-6 {
			t.Fatalf("sample %d: right %v not quarter-cycle shifted from left %v", i, r, l)
		}
	}
}

func TestTempoSync(t *testing.T) {
	tr := NewTransport(0)
	if tr.BPM() != DefaultBPM {
		t.Fatalf("default BPM = %v, want %v", tr.BPM(), DefaultBPM)
	}

	l, err := New(48000, WithTempo(tr))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.SetSync(1); err != nil {
		t.Fatal(err)
	}
	// One beat at 120 BPM is 0.5 s.
	if got := l.Rate(); math.Abs(got-2) > 1e-12 {
		t.Fatalf("synced rate = %v Hz, want 2", got)
	}

	if err := tr.SetBPM(60); err != nil {
		t.Fatal(err)
	}
	l.Refresh()
	if got := l.Rate(); math.Abs(got-1) > 1e-12 {
		t.Fatalf("synced rate at 60 BPM = %v Hz, want 1", got)
	}

	if err := l.SetSync(0); err != nil {
		t.Fatal(err)
	}
	if got := l.Rate(); got != 1 {
		t.Fatalf("free rate = %v, want 1", got)
	}
}

func TestTransportValidation(t *testing.T) {
	tr := NewTransport(90)
	if err := tr.SetBPM(5); err == nil {
		t.Fatal("expected error for 5 BPM")
	}
	if tr.BPM() != 90 {
		t.Fatalf("BPM changed on invalid set: %v", tr.BPM())
	}
	if got := BeatsToSeconds(2, nil); got != 1 {
		t.Fatalf("BeatsToSeconds(2, nil) = %v, want 1", got)
	}
}

func TestSampleHoldDeterministic(t *testing.T) {
	a, _ := New(1000, WithRate(50), WithWaveform(SampleHold), WithSeed(7))
	b, _ := New(1000, WithRate(50), WithWaveform(SampleHold), WithSeed(7))

	for i := 0; i < 500; i++ {
		if a.Next() != b.Next() {
			t.Fatalf("sample %d differs for equal seeds", i)
		}
	}
}

func TestUnipolar(t *testing.T) {
	if Unipolar(-1) != 0 || Unipolar(1) != 1 || Unipolar(0) != 0.5 {
		t.Fatal("Unipolar mapping wrong")
	}
}
