package core

import (
	"errors"
	"fmt"
	"math"
)

const (
	// MaxBlockSize is the largest block size accepted by Validate.
	MaxBlockSize = 1 << 16
	// MaxChannels is the largest channel count accepted by Validate.
	MaxChannels = 64
)

// ErrInvalidConfig reports a processing configuration that violates the
// buffer-shape limits.
var ErrInvalidConfig = errors.New("invalid processor config")

// ProcessorConfig defines common DSP processing settings.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
	Channels   int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns sensible defaults for offline and streaming use.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  512,
		Channels:   2,
	}
}

// WithSampleRate sets the processing sample rate.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 && !math.IsInf(sampleRate, 0) {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the processing block size.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// WithChannels sets the processing channel count.
func WithChannels(channels int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if channels > 0 {
			cfg.Channels = channels
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Validate checks that the config describes a usable buffer shape.
func (c ProcessorConfig) Validate() error {
	if !IsFinite(c.SampleRate) || c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be > 0 and finite: %f", ErrInvalidConfig, c.SampleRate)
	}
	if c.BlockSize < 1 || c.BlockSize > MaxBlockSize {
		return fmt.Errorf("%w: block size must be in [1, %d]: %d", ErrInvalidConfig, MaxBlockSize, c.BlockSize)
	}
	if c.Channels < 1 || c.Channels > MaxChannels {
		return fmt.Errorf("%w: channels must be in [1, %d]: %d", ErrInvalidConfig, MaxChannels, c.Channels)
	}
	return nil
}

// Samples returns the number of samples in one block across all channels.
func (c ProcessorConfig) Samples() int {
	return c.BlockSize * c.Channels
}
