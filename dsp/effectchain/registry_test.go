package effectchain

import (
	"errors"
	"slices"
	"testing"

	"github.com/cwbudde/algo-fx/dsp/effect"
)

func TestRegistryRegister(t *testing.T) {
	t.Parallel()

	t.Run("registers and looks up factory", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()

		err := r.Register("gain", gainFactory)
		if err != nil {
			t.Fatalf("Register returned unexpected error: %v", err)
		}

		f := r.Lookup("gain")
		if f == nil {
			t.Fatal("Lookup returned nil for registered type")
		}
	})

	t.Run("rejects empty effect type", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()

		err := r.Register("", gainFactory)
		if err == nil {
			t.Fatal("expected error for empty effect type")
		}
	})

	t.Run("rejects nil factory", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()

		err := r.Register("gain", nil)
		if err == nil {
			t.Fatal("expected error for nil factory")
		}
	})

	t.Run("rejects duplicate registration", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		_ = r.Register("gain", gainFactory)

		err := r.Register("gain", gainFactory)
		if err == nil {
			t.Fatal("expected error for duplicate registration")
		}

		if !errors.Is(err, errDuplicateEffect) {
			t.Errorf("expected errDuplicateEffect, got: %v", err)
		}
	})
}

func TestRegistryLookup(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	if f := r.Lookup("nonexistent"); f != nil {
		t.Fatal("expected nil for unknown type")
	}

	if f := r.Lookup(""); f != nil {
		t.Fatal("expected nil for empty string")
	}

	for _, alias := range []string{"RingMod", " autowah ", "ping-pong", "tape"} {
		if r.Lookup(alias) == nil {
			t.Errorf("Lookup(%q) = nil, want alias resolved", alias)
		}
	}
}

func TestRegistryMustRegister(t *testing.T) {
	t.Parallel()

	t.Run("succeeds for valid registration", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		r.MustRegister("gain", gainFactory)

		if r.Lookup("gain") == nil {
			t.Fatal("expected factory after MustRegister")
		}
	})

	t.Run("panics on duplicate", func(t *testing.T) {
		t.Parallel()

		r := NewRegistry()
		r.MustRegister("gain", gainFactory)

		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic on duplicate MustRegister")
			}
		}()

		r.MustRegister("gain", gainFactory)
	})
}

func TestRegistryCreate(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry()

	fx, err := r.Create("delay", Context{SampleRate: 44100, BlockSize: 128, Channels: 1}, effect.WithID("d1"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if fx.ID() != "d1" || fx.Type() != "delay" || fx.Family() != effect.FamilyDelay {
		t.Fatalf("got id=%q type=%q family=%v", fx.ID(), fx.Type(), fx.Family())
	}

	if cfg := fx.Config(); cfg.SampleRate != 44100 || cfg.BlockSize != 128 || cfg.Channels != 1 {
		t.Fatalf("config = %+v", cfg)
	}

	if _, err := r.Create("warp-drive", Context{}); !errors.Is(err, ErrUnknownEffect) {
		t.Fatalf("Create unknown: err = %v, want ErrUnknownEffect", err)
	}

	fx, err = r.Create("chorus", Context{})
	if err != nil {
		t.Fatalf("Create with empty context: %v", err)
	}

	if err := fx.Initialize(); err != nil {
		t.Fatalf("Initialize with defaulted context: %v", err)
	}
}

func TestDefaultRegistryTypes(t *testing.T) {
	t.Parallel()

	want := []string{
		"auto-wah", "chorus", "compressor", "delay", "ducking-delay", "filter",
		"flanger", "gate", "granular", "harmonizer", "limiter", "multitap",
		"phaser", "pingpong", "pitch-shift", "ring-mod", "slapback",
		"spectral-freeze", "tape-delay", "tremolo", "vibrato",
	}

	got := DefaultRegistry().Types()
	if !slices.Equal(got, want) {
		t.Fatalf("Types() = %v\nwant %v", got, want)
	}
}

func TestWithMaxDelayTime(t *testing.T) {
	t.Parallel()

	r := DefaultRegistry(WithMaxDelayTime(5))

	fx, err := r.Create("delay", Context{})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	fx.SetParameter("time", 10)

	if got := fx.Parameter("time"); got != 5 {
		t.Fatalf("time clamped to %g, want 5", got)
	}

	r = DefaultRegistry(WithMaxDelayTime(1000))

	fx, _ = r.Create("delay", Context{})
	fx.SetParameter("time", 10)

	if got := fx.Parameter("time"); got != defaultMaxDelaySeconds {
		t.Fatalf("out-of-range option: time clamped to %g, want %g", got, defaultMaxDelaySeconds)
	}
}
