package effects

import (
	"math"
	"testing"
)

func TestTapeDelayEchoNearNominalTime(t *testing.T) {
	t.Parallel()

	td, err := NewTapeDelay(48000, 1)
	if err != nil {
		t.Fatalf("NewTapeDelay() error = %v", err)
	}
	_ = td.SetTime(0.1)
	_ = td.SetFeedback(0)
	_ = td.SetTone(ToneOpen)

	buf := make([]float64, 9600)
	buf[0] = 1
	td.ProcessInPlace(buf)

	peakAt, peak := 0, 0.0
	for i, v := range buf {
		if math.Abs(v) > peak {
			peak, peakAt = math.Abs(v), i
		}
	}
	// Wow and flutter move the head by at most 2.3 ms.
	if math.Abs(float64(peakAt-4800)) > 0.0023*48000+2 {
		t.Fatalf("echo at %d, want near 4800", peakAt)
	}
}

func TestTapeDelaySaturatedFeedbackIsBounded(t *testing.T) {
	t.Parallel()

	td, err := NewTapeDelay(48000, 1)
	if err != nil {
		t.Fatal(err)
	}
	_ = td.SetTime(0.01)
	_ = td.SetFeedback(MaxDelayFeedback)
	_ = td.SetDrive(10)
	_ = td.SetWow(1)
	_ = td.SetFlutter(1)

	peak := 0.0
	for i := 0; i < 200000; i++ {
		peak = math.Max(peak, math.Abs(td.ProcessSample(1)))
	}
	if peak > 1/(1-MaxDelayFeedback) {
		t.Fatalf("peak = %v", peak)
	}
}

func TestTapeDelayValidationAndReset(t *testing.T) {
	t.Parallel()

	td, err := NewTapeDelay(48000, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if td.SetTime(1) == nil || td.SetWow(2) == nil || td.SetFlutter(-1) == nil || td.SetDrive(0.5) == nil {
		t.Fatal("expected validation errors")
	}

	run := func() []float64 {
		buf := make([]float64, 4096)
		buf[0] = 1
		td.ProcessInPlace(buf)
		return buf
	}
	a := run()
	td.Reset()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs after reset: %v vs %v", i, a[i], b[i])
		}
	}
}
