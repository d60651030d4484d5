package effects

import (
	"math"
	"testing"
)

func TestNewGranularRejectsInvalidSampleRate(t *testing.T) {
	invalid := []float64{0, -1, math.NaN(), math.Inf(1)}
	for _, sampleRate := range invalid {
		_, err := NewGranular(sampleRate)
		if err == nil {
			t.Fatalf("NewGranular(%v) expected error", sampleRate)
		}
	}
}

func granularInput(n int) []float64 {
	input := make([]float64, n)
	for i := range input {
		input[i] = math.Sin(2 * math.Pi * 220 * float64(i) / 48000)
	}
	return input
}

func TestGranularProcessInPlaceMatchesSample(t *testing.T) {
	g1, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}
	g2, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}

	g1.SetRandomSeed(42)
	g2.SetRandomSeed(42)

	want := granularInput(9600)
	for i := range want {
		want[i] = g1.ProcessSample(want[i])
	}

	got := granularInput(9600)
	g2.ProcessInPlace(got)

	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > 1e-12 {
			t.Fatalf("sample %d mismatch: got=%g want=%g diff=%g", i, got[i], want[i], diff)
		}
	}
}

func TestGranularResetRestoresState(t *testing.T) {
	g, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}
	_ = g.SetPitchSpread(3)

	out1 := granularInput(9600)
	g.ProcessInPlace(out1)
	g.Reset()
	out2 := granularInput(9600)
	g.ProcessInPlace(out2)

	for i := range out1 {
		if out1[i] != out2[i] {
			t.Fatalf("sample %d mismatch after reset: got=%g want=%g", i, out2[i], out1[i])
		}
	}
}

func TestGranularSilenceInSilenceOut(t *testing.T) {
	g, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}
	_ = g.SetDensity(maxGranularDensity)

	buf := make([]float64, 48000)
	g.ProcessInPlace(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("out[%d] = %v", i, v)
		}
	}
	if g.ActiveGrains() == 0 {
		t.Fatal("expected grains to be scheduled")
	}
}

func TestGranularSustainsTailEnergy(t *testing.T) {
	g, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}

	_ = g.SetGrainSeconds(0.04)
	_ = g.SetDensity(maxGranularDensity)
	_ = g.SetSpray(0)
	_ = g.SetBaseDelay(0.05)
	g.SetRandomSeed(1)

	in := make([]float64, 24000)
	for i := range 4800 {
		in[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
	}
	g.ProcessInPlace(in)

	var tailEnergy float64
	for i := 4800; i < 6000; i++ {
		tailEnergy += in[i] * in[i]
	}
	if tailEnergy <= 1e-6 {
		t.Fatalf("expected non-zero granular tail energy, got %g", tailEnergy)
	}
}

func TestGranularOutputBounded(t *testing.T) {
	g, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}
	_ = g.SetDensity(maxGranularDensity)
	_ = g.SetGrainSeconds(maxGranularGrainSeconds)
	_ = g.SetPitchSpread(12)

	for i := 0; i < 96000; i++ {
		x := 1.0
		if i%2 == 1 {
			x = -1
		}
		if y := g.ProcessSample(x); math.Abs(y) > 1+1e-9 {
			t.Fatalf("sample %d = %v exceeds input peak", i, y)
		}
	}
	if n := g.ActiveGrains(); n > maxGranularVoices {
		t.Fatalf("ActiveGrains() = %d", n)
	}
}

func TestGranularSettersValidation(t *testing.T) {
	g, err := NewGranular(48000)
	if err != nil {
		t.Fatalf("NewGranular() error = %v", err)
	}

	checks := []struct {
		name string
		err  error
	}{
		{"grain", g.SetGrainSeconds(0)},
		{"density", g.SetDensity(-1)},
		{"pitch", g.SetPitch(25)},
		{"pitch spread", g.SetPitchSpread(13)},
		{"spray", g.SetSpray(2)},
		{"base delay", g.SetBaseDelay(3)},
	}
	for _, c := range checks {
		if c.err == nil {
			t.Fatalf("%s: expected error", c.name)
		}
	}
}
