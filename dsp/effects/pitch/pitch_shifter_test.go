package pitch

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-fx/internal/testutil"
)

const testSampleRate = 48000.0

func zeroCrossings(data []float64) int {
	n := 0
	for i := 1; i < len(data); i++ {
		if (data[i-1] < 0) != (data[i] < 0) {
			n++
		}
	}
	return n
}

func TestPitchShifterUnityIsDelay(t *testing.T) {
	t.Parallel()

	p, err := NewPitchShifter(testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if p.Latency() != 1201 {
		t.Fatalf("Latency = %v, want 1201", p.Latency())
	}

	out := testutil.Run(p.ProcessSample, testutil.Impulse(2048, 0))
	testutil.RequireNear(t, out, testutil.Impulse(2048, 1201), 1e-12)
}

func TestPitchShifterShiftsFrequency(t *testing.T) {
	t.Parallel()

	tests := []struct {
		semitones float64
		wantHz    float64
	}{
		{semitones: 12, wantHz: 880},
		{semitones: -12, wantHz: 220},
		{semitones: 7, wantHz: 440 * math.Pow(2, 7.0/12)},
	}
	for _, tc := range tests {
		t.Run("", func(t *testing.T) {
			t.Parallel()

			p, _ := NewPitchShifter(testSampleRate)
			if err := p.SetSemitones(tc.semitones); err != nil {
				t.Fatal(err)
			}
			in := testutil.Sine(440, testSampleRate, 0.5, int(2*testSampleRate))
			out := testutil.Run(p.ProcessSample, in)

			steady := out[int(testSampleRate):]
			gotHz := float64(zeroCrossings(steady)) / 2
			if math.Abs(gotHz-tc.wantHz)/tc.wantHz > 0.05 {
				t.Fatalf("%v st: measured %v Hz, want %v Hz", tc.semitones, gotHz, tc.wantHz)
			}
			if p := testutil.Peak(steady); p > 0.55 {
				t.Fatalf("%v st: peak %v exceeds input level", tc.semitones, p)
			}
		})
	}
}

func TestPitchShifterValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewPitchShifter(-1); err == nil {
		t.Fatal("expected error for negative sample rate")
	}
	p, _ := NewPitchShifter(testSampleRate)
	if err := p.SetSemitones(25); err == nil {
		t.Fatal("expected error above +24 semitones")
	}
	if err := p.SetSemitones(math.NaN()); err == nil {
		t.Fatal("expected error for NaN interval")
	}
	if err := p.SetGrainMs(5); err == nil {
		t.Fatal("expected error for short grain")
	}
	if err := p.SetGrainMs(20); err != nil {
		t.Fatal(err)
	}
	if p.Latency() != 481 {
		t.Fatalf("Latency = %v, want 481 for a 20 ms grain", p.Latency())
	}
}

func TestPitchShifterSilenceAndReset(t *testing.T) {
	t.Parallel()

	p, _ := NewPitchShifter(testSampleRate)
	_ = p.SetSemitones(5)
	out := testutil.Run(p.ProcessSample, make([]float64, 4096))
	if peak := testutil.Peak(out); peak != 0 {
		t.Fatalf("silence peak = %v", peak)
	}

	testutil.Run(p.ProcessSample, testutil.Noise(1, 1, 4096))
	p.Reset()
	out = testutil.Run(p.ProcessSample, make([]float64, 4096))
	if peak := testutil.Peak(out); peak != 0 {
		t.Fatalf("peak after Reset = %v", peak)
	}
}

func TestRatio(t *testing.T) {
	t.Parallel()

	if got := Ratio(12); math.Abs(got-2) > 1e-12 {
		t.Fatalf("Ratio(12) = %v, want 2", got)
	}
	if got := Ratio(-24); math.Abs(got-0.25) > 1e-12 {
		t.Fatalf("Ratio(-24) = %v, want 0.25", got)
	}
}

func TestHarmonizerVoices(t *testing.T) {
	t.Parallel()

	h, err := NewHarmonizer(testSampleRate)
	if err != nil {
		t.Fatal(err)
	}
	if err := h.SetVoice(0, 0, 1); err != nil {
		t.Fatal(err)
	}
	if err := h.SetVoice(1, 0, 0); err != nil {
		t.Fatal(err)
	}

	out := testutil.Run(h.ProcessSample, testutil.Impulse(2048, 0))
	testutil.RequireNear(t, out, testutil.Impulse(2048, 1201), 1e-12)

	if err := h.SetVoice(2, 0, 1); err == nil {
		t.Fatal("expected error for voice index 2")
	}
	if err := h.SetVoice(0, 0, 1.5); err == nil {
		t.Fatal("expected error for level above 1")
	}
	if st, lvl := h.Voice(0); st != 0 || lvl != 1 {
		t.Fatalf("Voice(0) = %v, %v", st, lvl)
	}
}

func TestHarmonizerStaysBounded(t *testing.T) {
	t.Parallel()

	h, _ := NewHarmonizer(testSampleRate)
	out := testutil.Run(h.ProcessSample, testutil.Noise(2, 1, 48000))
	testutil.RequireFinite(t, out)
	if p := testutil.Peak(out); p > 1.5*(defaultVoice1Level+defaultVoice2Level) {
		t.Fatalf("peak %v exceeds summed voice levels", p)
	}
}
