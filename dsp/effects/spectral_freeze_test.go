package effects

import (
	"math"
	"testing"
)

func TestNewSpectralFreezeRejectsInvalidSampleRate(t *testing.T) {
	for _, sr := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := NewSpectralFreeze(sr); err == nil {
			t.Fatalf("NewSpectralFreeze(%v) expected error", sr)
		}
	}
}

func TestSpectralFreezeFrameSizeValidation(t *testing.T) {
	freeze, err := NewSpectralFreeze(48000)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{0, 32, 1000, 1 << 15} {
		if err := freeze.SetFrameSize(n); err == nil {
			t.Fatalf("SetFrameSize(%d) expected error", n)
		}
	}
	if err := freeze.SetFrameSize(256); err != nil {
		t.Fatalf("SetFrameSize(256) error = %v", err)
	}
	if freeze.HopSize() != 64 || freeze.Latency() != 256 {
		t.Fatalf("hop = %d latency = %d", freeze.HopSize(), freeze.Latency())
	}
	if err := freeze.SetPhaseMode(SpectralFreezePhaseMode(9)); err == nil {
		t.Fatal("expected error for invalid phase mode")
	}
}

func TestSpectralFreezeUnfrozenIsDelayedIdentity(t *testing.T) {
	freeze, err := NewSpectralFreeze(48000)
	if err != nil {
		t.Fatal(err)
	}
	if err := freeze.SetFrameSize(256); err != nil {
		t.Fatal(err)
	}

	in := make([]float64, 2048)
	for i := range in {
		in[i] = math.Sin(2*math.Pi*440*float64(i)/48000) + 0.3*math.Sin(2*math.Pi*3100*float64(i)/48000)
	}
	out := append([]float64(nil), in...)
	freeze.ProcessInPlace(out)

	lat := freeze.Latency()
	for i := range out {
		want := 0.0
		if i >= lat {
			want = in[i-lat]
		}
		if diff := math.Abs(out[i] - want); diff > 1e-9 {
			t.Fatalf("out[%d] = %g, want %g", i, out[i], want)
		}
	}
}

func TestSpectralFreezeResetDeterministic(t *testing.T) {
	freeze, err := NewSpectralFreeze(48000)
	if err != nil {
		t.Fatal(err)
	}

	run := func() []float64 {
		buf := make([]float64, 4096)
		for i := range 1024 {
			buf[i] = math.Sin(2 * math.Pi * 440 * float64(i) / 48000)
		}
		for i := range buf {
			if i == 1024 {
				freeze.SetFrozen(true)
			}
			buf[i] = freeze.ProcessSample(buf[i])
		}
		return buf
	}

	out1 := run()
	freeze.SetFrozen(false)
	freeze.Reset()
	out2 := run()

	for i := range out1 {
		if diff := math.Abs(out1[i] - out2[i]); diff > 1e-12 {
			t.Fatalf("sample %d mismatch after reset: got=%g want=%g", i, out2[i], out1[i])
		}
	}
}

func TestSpectralFreezeSustainsEnergyOnSilenceTail(t *testing.T) {
	freeze, err := NewSpectralFreeze(48000)
	if err != nil {
		t.Fatalf("NewSpectralFreeze() error = %v", err)
	}
	if err := freeze.SetFrameSize(256); err != nil {
		t.Fatalf("SetFrameSize() error = %v", err)
	}

	const onset = 1024
	out := make([]float64, 8192)
	for i := range out {
		x := 0.0
		if i < onset {
			x = math.Sin(2 * math.Pi * 1500 * float64(i) / 48000)
		}
		if i == onset {
			freeze.SetFrozen(true)
		}
		out[i] = freeze.ProcessSample(x)
	}

	var tailEnergy float64
	for i := 4096; i < len(out); i++ {
		tailEnergy += out[i] * out[i]
	}
	if tailEnergy <= 1 {
		t.Fatalf("expected sustained tail energy with freeze, got %g", tailEnergy)
	}

	freeze.SetFrozen(false)
	for i := 0; i < 2*freeze.Latency(); i++ {
		freeze.ProcessSample(0)
	}
	if y := freeze.ProcessSample(0); math.Abs(y) > 1e-9 {
		t.Fatalf("release did not decay to silence: %g", y)
	}
}

func TestSpectralFreezeSilenceInSilenceOut(t *testing.T) {
	freeze, err := NewSpectralFreeze(48000)
	if err != nil {
		t.Fatal(err)
	}
	freeze.SetFrozen(true)
	buf := make([]float64, 8192)
	freeze.ProcessInPlace(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("out[%d] = %v", i, v)
		}
	}
}

func TestSpectralFreezeDoesNotAllocate(t *testing.T) {
	freeze, err := NewSpectralFreeze(48000)
	if err != nil {
		t.Fatal(err)
	}
	freeze.SetFrozen(true)
	buf := make([]float64, 1024)
	buf[0] = 1

	allocs := testing.AllocsPerRun(20, func() { freeze.ProcessInPlace(buf) })
	if allocs != 0 {
		t.Fatalf("ProcessInPlace allocates %v", allocs)
	}
}
