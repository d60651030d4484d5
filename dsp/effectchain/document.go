package effectchain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effect"
)

// DocumentVersion is the version Describe writes.
const DocumentVersion = "1.0.0"

// documentConstraint is the range of document versions the loader accepts.
const documentConstraint = "^1.0"

// ErrVersion is returned for a missing or unsupported document version.
var ErrVersion = errors.New("effectchain: unsupported chain document version")

// Document is the JSON form of a signal chain.
type Document struct {
	Version    string         `json:"version"`
	SampleRate float64        `json:"sampleRate,omitempty"`
	BlockSize  int            `json:"blockSize,omitempty"`
	Channels   int            `json:"channels,omitempty"`
	Layout     string         `json:"layout,omitempty"`
	Tempo      float64        `json:"tempo,omitempty"`
	Effects    []EffectConfig `json:"effects"`
}

// EffectConfig describes one effect in a Document.
type EffectConfig struct {
	ID        string             `json:"id,omitempty"`
	Type      string             `json:"type"`
	Enabled   *bool              `json:"enabled,omitempty"`
	Preset    string             `json:"preset,omitempty"`
	Params    map[string]float64 `json:"params,omitempty"`
	Automated []string           `json:"automated,omitempty"`
}

// ParseDocument decodes a chain document and checks its version.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document

	err := json.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("effectchain: invalid chain document json: %w", err)
	}

	if err := doc.checkVersion(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// ReadDocument decodes a chain document from r.
func ReadDocument(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("effectchain: read chain document: %w", err)
	}

	return ParseDocument(data)
}

func (d *Document) checkVersion() error {
	if d.Version == "" {
		return fmt.Errorf("%w: missing version", ErrVersion)
	}

	v, err := semver.NewVersion(d.Version)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrVersion, d.Version, err)
	}

	c, err := semver.NewConstraint(documentConstraint)
	if err != nil {
		return fmt.Errorf("effectchain: constraint %q: %w", documentConstraint, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("%w: %s does not satisfy %s", ErrVersion, v, documentConstraint)
	}

	return nil
}

// Config returns the processing configuration the document asks for, with
// unset fields taken from fallback.
func (d *Document) Config(fallback core.ProcessorConfig) core.ProcessorConfig {
	cfg := fallback
	if d.SampleRate > 0 {
		cfg.SampleRate = d.SampleRate
	}

	if d.BlockSize > 0 {
		cfg.BlockSize = d.BlockSize
	}

	if d.Channels > 0 {
		cfg.Channels = d.Channels
	}

	return cfg
}

// Build creates the document's effects for ctx. Each effect gets its preset,
// then its explicit params, then its enabled flag. Unknown parameter names
// are logged and skipped; unknown types and presets are errors.
func (d *Document) Build(reg *Registry, ctx Context, log logrus.FieldLogger) ([]*effect.Effect, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	ids := make(map[string]bool, len(d.Effects))
	counts := make(map[string]int)
	list := make([]*effect.Effect, 0, len(d.Effects))

	for i, ec := range d.Effects {
		typ := normalizeType(ec.Type)
		counts[typ]++

		id := ec.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", typ, counts[typ])
		}

		if ids[id] {
			return nil, fmt.Errorf("effectchain: effect %d: duplicate id %q", i, id)
		}

		ids[id] = true

		fx, err := reg.Create(typ, ctx, effect.WithID(id))
		if err != nil {
			return nil, fmt.Errorf("effectchain: effect %d: %w", i, err)
		}

		if ec.Preset != "" && !fx.LoadPreset(ec.Preset) {
			return nil, fmt.Errorf("%w: %s %q", ErrUnknownPreset, typ, ec.Preset)
		}

		for _, name := range sortedKeys(ec.Params) {
			if !fx.SetParameter(name, ec.Params[name]) {
				log.WithFields(logrus.Fields{
					"function":  "Build",
					"effect":    id,
					"type":      typ,
					"parameter": name,
				}).Warn("skipping unknown parameter")
			}
		}

		for _, name := range ec.Automated {
			if !fx.SetParameterAutomated(name, true) {
				log.WithFields(logrus.Fields{
					"function":  "Build",
					"effect":    id,
					"parameter": name,
				}).Warn("skipping unknown automated parameter")
			}
		}

		if ec.Enabled != nil {
			fx.SetEnabled(*ec.Enabled)
		}

		list = append(list, fx)
	}

	return list, nil
}

// Apply reshapes chain to the document's configuration when it differs,
// then builds the effects and swaps them in atomically.
func (d *Document) Apply(reg *Registry, chain *SignalChain) error {
	layout, err := ParseLayout(d.Layout)
	if err != nil {
		return err
	}

	if layout != chain.Layout() {
		chain.SetLayout(layout)
	}

	cur := chain.Config()
	cfg := d.Config(cur)

	if cfg != cur || !chain.Initialized() {
		err := chain.Initialize(cfg.SampleRate, cfg.BlockSize, cfg.Channels)
		if err != nil {
			return err
		}
	}

	if d.Tempo > 0 {
		if t, ok := chain.Tempo().(interface{ SetBPM(float64) error }); ok {
			if err := t.SetBPM(d.Tempo); err != nil {
				return fmt.Errorf("effectchain: %w", err)
			}
		}
	}

	list, err := d.Build(reg, chain.Context(), chain.Logger())
	if err != nil {
		return err
	}

	return chain.ReplaceEffects(list)
}

// Describe captures the chain's current state as a Document.
func Describe(chain *SignalChain) *Document {
	cfg := chain.Config()
	doc := &Document{
		Version:    DocumentVersion,
		SampleRate: cfg.SampleRate,
		BlockSize:  cfg.BlockSize,
		Channels:   cfg.Channels,
		Layout:     chain.Layout().String(),
		Tempo:      chain.Tempo().BPM(),
	}

	for _, e := range chain.Effects() {
		enabled := e.Enabled()
		ec := EffectConfig{
			ID:      e.ID(),
			Type:    e.Type(),
			Enabled: &enabled,
			Params:  make(map[string]float64),
		}

		for _, info := range e.Parameters() {
			ec.Params[info.Name] = info.Value
			if info.Automated {
				ec.Automated = append(ec.Automated, info.Name)
			}
		}

		doc.Effects = append(doc.Effects, ec)
	}

	return doc
}

// Marshal encodes the document as indented JSON.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
