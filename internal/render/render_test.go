package render

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effectchain"
	"github.com/cwbudde/algo-fx/internal/audioio"
	"github.com/cwbudde/algo-fx/internal/testutil"
)

func newChain(t *testing.T, rate float64, block, channels int) *effectchain.SignalChain {
	t.Helper()

	c := effectchain.New()
	if err := c.Initialize(rate, block, channels); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	return c
}

func addDelay(t *testing.T, c *effectchain.SignalChain, seconds float64) {
	t.Helper()

	fx, err := effectchain.DefaultRegistry().Create("delay", c.Context(), effect.WithID("delay"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fx.SetParameter("time", seconds)
	fx.SetParameter("feedback", 0)
	fx.SetParameter("mix", 1)

	if err := c.AddEffect(fx); err != nil {
		t.Fatalf("AddEffect: %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	sine := testutil.Float32(testutil.Sine(440, 22050, 0.8, 2205))
	in := &Audio{SampleRate: 22050, Data: [][]float32{sine, make([]float32, len(sine))}}
	in.Data[1][100] = 2 // clipped to full scale

	for _, bits := range []int{16, 24} {
		path := filepath.Join(t.TempDir(), "round.wav")

		if err := WriteFile(path, in, bits); err != nil {
			t.Fatalf("%d-bit WriteFile: %v", bits, err)
		}

		got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("%d-bit ReadFile: %v", bits, err)
		}

		if got.SampleRate != 22050 || got.Channels() != 2 || got.Frames() != len(sine) {
			t.Fatalf("%d-bit: rate=%d channels=%d frames=%d", bits, got.SampleRate, got.Channels(), got.Frames())
		}

		tol := 2 / math.Pow(2, float64(bits-1))
		for i, v := range sine {
			if d := math.Abs(float64(got.Data[0][i] - v)); d > tol {
				t.Fatalf("%d-bit sample %d: got %g, want %g", bits, i, got.Data[0][i], v)
			}
		}

		if v := got.Data[1][100]; v < 0.999 || v > 1 {
			t.Fatalf("%d-bit clipped sample = %g, want full scale", bits, v)
		}
	}
}

func TestEncodeRejects(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.wav")

	if err := WriteFile(path, &Audio{SampleRate: 48000, Data: [][]float32{{0}}}, 12); err == nil {
		t.Fatal("12-bit encode accepted")
	}

	if err := WriteFile(path, &Audio{SampleRate: 48000}, 16); err == nil {
		t.Fatal("encode without channels accepted")
	}

	if err := os.WriteFile(path, []byte("not a wav file at all"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadFile(path); err == nil {
		t.Fatal("decode of garbage accepted")
	}
}

func TestProcessPadsAndTails(t *testing.T) {
	t.Parallel()

	c := newChain(t, 48000, 256, 2)
	addDelay(t, c, 0.01)

	// 1000 frames is not a multiple of the block; the echo of the last
	// sample lands in the tail.
	in := &Audio{SampleRate: 8000, Data: [][]float32{make([]float32, 1000)}}
	in.Data[0][999] = 1

	out, err := Process(c, in, 0.05, nil)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if cfg := c.Config(); cfg.SampleRate != 8000 || cfg.Channels != 1 || cfg.BlockSize != 256 {
		t.Fatalf("chain not reshaped: %+v", cfg)
	}

	if out.Frames() != 1400 || out.Channels() != 1 {
		t.Fatalf("frames=%d channels=%d, want 1400 and 1", out.Frames(), out.Channels())
	}

	// 10 ms at 8 kHz is 80 samples.
	if v := out.Data[0][1079]; math.Abs(float64(v)-1) > 1e-4 {
		t.Fatalf("echo = %g at 1079, want 1", v)
	}

	if !c.Running() {
		t.Fatal("render left the chain stopped")
	}
}

func TestRunGenerator(t *testing.T) {
	t.Parallel()

	c := newChain(t, 48000, 128, 2)

	tone, err := audioio.NewTone(1000, 0.5, 48000)
	if err != nil {
		t.Fatalf("NewTone: %v", err)
	}

	out, err := Run(c, tone, 4800)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if out.Frames() != 4800 || out.Channels() != 2 {
		t.Fatalf("frames=%d channels=%d", out.Frames(), out.Channels())
	}

	for i := range out.Data[0] {
		if out.Data[0][i] != out.Data[1][i] {
			t.Fatalf("channels differ at %d", i)
		}
	}

	if _, err := Run(effectchain.New(), tone, 10); !errors.Is(err, effectchain.ErrNotInitialized) {
		t.Fatalf("uninitialized chain: err = %v", err)
	}
}

func TestFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.wav")
	outPath := filepath.Join(dir, "out.wav")

	clicks := make([]float32, 4410)
	clicks[0] = 0.5

	if err := WriteFile(inPath, &Audio{SampleRate: 44100, Data: [][]float32{clicks, clicks}}, 16); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	c := newChain(t, 44100, 512, 2)
	addDelay(t, c, 0.05)

	if err := File(inPath, outPath, c, 0.1); err != nil {
		t.Fatalf("File: %v", err)
	}

	out, err := ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if out.Frames() != 4410+4410 {
		t.Fatalf("frames = %d, want 8820", out.Frames())
	}

	// 50 ms at 44.1 kHz is 2205 samples.
	if v := out.Data[1][2205]; math.Abs(float64(v)-0.5) > 1e-3 {
		t.Fatalf("echo = %g, want 0.5", v)
	}
}
