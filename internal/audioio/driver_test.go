package audioio

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effectchain"
)

func newChain(t *testing.T, block, channels int, opts ...effectchain.Option) *effectchain.SignalChain {
	t.Helper()

	c := effectchain.New(opts...)
	if err := c.Initialize(48000, block, channels); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	c.Start()

	return c
}

func addEffect(t *testing.T, c *effectchain.SignalChain, typ string, params map[string]float64) {
	t.Helper()

	fx, err := effectchain.DefaultRegistry().Create(typ, c.Context(), effect.WithID(typ))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for name, v := range params {
		fx.SetParameter(name, v)
	}

	if err := c.AddEffect(fx); err != nil {
		t.Fatalf("AddEffect: %v", err)
	}
}

func TestPumpInterleavesPlanarChains(t *testing.T) {
	t.Parallel()

	c := newChain(t, 4, 2, effectchain.WithLayout(effectchain.Planar))
	loop, err := NewLoop([][]float32{{1, 2, 3, 4}, {-1, -2, -3, -4}})
	if err != nil {
		t.Fatalf("NewLoop: %v", err)
	}

	p := newPump(c, loop, nil)
	got := p.next()

	want := []float32{1, -1, 2, -2, 3, -3, 4, -4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("block = %v, want %v", got, want)
		}
	}
}

func TestPumpFollowsReshape(t *testing.T) {
	t.Parallel()

	c := newChain(t, 64, 2)
	p := newPump(c, NewNoise(3, 0.5), nil)

	if got := len(p.next()); got != 128 {
		t.Fatalf("block length %d, want 128", got)
	}

	if err := c.Initialize(48000, 32, 1); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if got := len(p.next()); got != 32 {
		t.Fatalf("block length after reshape %d, want 32", got)
	}

	if p.failures.Load() != 0 {
		t.Fatalf("%d failed blocks", p.failures.Load())
	}
}

func TestBlockReaderSplitsBlocks(t *testing.T) {
	t.Parallel()

	c := newChain(t, 4, 1)
	loop, _ := NewLoop([][]float32{{0.5, -0.5, 0.25, 1}})
	r := newBlockReader(newPump(c, loop, nil))

	// 6 samples across two reads that cut a block in half.
	buf := make([]byte, 24)
	if n, err := r.Read(buf[:10]); n != 10 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}

	if n, err := r.Read(buf[10:]); n != 14 || err != nil {
		t.Fatalf("Read = %d, %v", n, err)
	}

	want := []float32{0.5, -0.5, 0.25, 1, 0.5, -0.5}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
		if got != w {
			t.Fatalf("sample %d = %g, want %g", i, got, w)
		}
	}
}

func TestTickerDriver(t *testing.T) {
	t.Parallel()

	c := newChain(t, 48, 2)
	addEffect(t, c, "delay", map[string]float64{"time": 0.001, "feedback": 0, "mix": 1})

	clicks, err := NewClicks(1, 48000)
	if err != nil {
		t.Fatalf("NewClicks: %v", err)
	}

	var first []float32

	blocks := 0
	d := NewTickerDriver(c, clicks,
		WithInterval(time.Millisecond),
		WithBlockLimit(5),
		WithSink(func(block []float32) {
			if blocks == 0 {
				first = append(first, block...)
			}

			blocks++
		}))

	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if blocks != 5 || d.Blocks() != 5 || d.Failures() != 0 {
		t.Fatalf("blocks=%d Blocks()=%d failures=%d", blocks, d.Blocks(), d.Failures())
	}

	// 1 ms at 48 kHz: the click comes out at frame 48, the next block.
	for i, v := range first {
		if v != 0 {
			t.Fatalf("first block sample %d = %g, want silence", i, v)
		}
	}
}

func TestTickerDriverStopsOnCancel(t *testing.T) {
	t.Parallel()

	c := newChain(t, 64, 1)
	d := NewTickerDriver(c, nil, WithInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := d.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run = %v, want deadline exceeded", err)
	}

	if d.Blocks() == 0 {
		t.Fatal("no blocks processed")
	}
}

func TestPumpMutesFailedBlocks(t *testing.T) {
	t.Parallel()

	c := effectchain.New()
	p := newPump(c, NewNoise(1, 1), nil)

	for _, v := range p.next() {
		if v != 0 {
			t.Fatal("uninitialized chain produced sound")
		}
	}

	if p.failures.Load() != 1 {
		t.Fatalf("failures = %d, want 1", p.failures.Load())
	}
}
