package effects

import (
	"math"
	"testing"
)

func TestPingPongAlternates(t *testing.T) {
	t.Parallel()

	p, err := NewPingPong(1000, 1)
	if err != nil {
		t.Fatalf("NewPingPong() error = %v", err)
	}
	_ = p.SetTime(0.01)
	_ = p.SetFeedback(0.5)
	_ = p.SetCrossfeed(1)

	var left, right [40]float64
	for i := range left {
		in := 0.0
		if i == 0 {
			in = 1
		}
		left[i], right[i] = p.ProcessStereo(in, in)
	}

	if left[10] != 1 || right[10] != 0 {
		t.Fatalf("first echo L=%v R=%v, want 1/0", left[10], right[10])
	}
	if left[20] != 0 || right[20] != 0.5 {
		t.Fatalf("second echo L=%v R=%v, want 0/0.5", left[20], right[20])
	}
	if left[30] != 0.25 || right[30] != 0 {
		t.Fatalf("third echo L=%v R=%v, want 0.25/0", left[30], right[30])
	}
}

func TestPingPongNoCrossfeedIsDualMono(t *testing.T) {
	t.Parallel()

	p, err := NewPingPong(1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	_ = p.SetTime(0.005)
	_ = p.SetCrossfeed(0)
	_ = p.SetFeedback(0)

	var l, r float64
	for i := 0; i <= 5; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		l, r = p.ProcessStereo(in, -in)
	}
	if l != 1 || r != -1 {
		t.Fatalf("L=%v R=%v, want 1/-1", l, r)
	}
}

func TestPingPongFeedbackStability(t *testing.T) {
	t.Parallel()

	for _, c := range []float64{0, 0.5, 1} {
		p, err := NewPingPong(48000, 1)
		if err != nil {
			t.Fatal(err)
		}
		_ = p.SetTime(0.002)
		_ = p.SetFeedback(MaxDelayFeedback)
		_ = p.SetCrossfeed(c)

		peak := 0.0
		for i := 0; i < 200000; i++ {
			l, r := p.ProcessStereo(1, 1)
			peak = math.Max(peak, math.Max(math.Abs(l), math.Abs(r)))
		}
		if peak > 1/(1-MaxDelayFeedback)+1e-6 {
			t.Fatalf("crossfeed %v: peak = %v", c, peak)
		}
	}
}

func TestPingPongTempoSync(t *testing.T) {
	t.Parallel()

	p, err := NewPingPong(1000, 2)
	if err != nil {
		t.Fatal(err)
	}
	p.SetTempo(fixedTempo(120))
	_ = p.SetSync(0.5)
	_ = p.SetFeedback(0)
	_ = p.SetCrossfeed(0)

	var l float64
	for i := 0; i <= 250; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}
		l, _ = p.ProcessStereo(in, 0)
	}
	if l != 1 {
		t.Fatalf("half beat at 120 bpm did not land at 250 samples: %v", l)
	}
}
