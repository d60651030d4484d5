// Package chainfile loads chain documents from disk and keeps a running
// chain in sync with its file.
package chainfile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-fx/dsp/effectchain"
)

// DefaultDebounce is how long the watcher waits after the last write before
// reloading.
const DefaultDebounce = 100 * time.Millisecond

// Read decodes the chain document at path.
func Read(path string) (*effectchain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("chainfile: %w", err)
	}
	defer f.Close()

	doc, err := effectchain.ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("chainfile: %s: %w", path, err)
	}

	return doc, nil
}

// Load reads the document at path and applies it to chain, reshaping the
// chain when the document asks for a different configuration.
func Load(path string, reg *effectchain.Registry, chain *effectchain.SignalChain) error {
	doc, err := Read(path)
	if err != nil {
		return err
	}

	if err := doc.Apply(reg, chain); err != nil {
		return fmt.Errorf("chainfile: %s: %w", path, err)
	}

	return nil
}

// Save writes the chain's current state to path.
func Save(path string, chain *effectchain.SignalChain) error {
	data, err := effectchain.Describe(chain).Marshal()
	if err != nil {
		return fmt.Errorf("chainfile: %w", err)
	}

	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the watcher's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithReloadHook is called after every reload attempt with its result.
func WithReloadHook(fn func(error)) Option {
	return func(w *Watcher) { w.hook = fn }
}

// Watcher reloads a chain's effects when its document changes on disk.
// Reloads swap the effect list and tempo but keep the chain's sample rate,
// block size and channel count, so a live driver never sees a reshape.
// A document that fails to load leaves the running chain untouched.
type Watcher struct {
	path     string
	reg      *effectchain.Registry
	chain    *effectchain.SignalChain
	log      logrus.FieldLogger
	debounce time.Duration
	hook     func(error)

	reloads  atomic.Uint64
	failures atomic.Uint64
}

// NewWatcher returns a watcher for the document at path.
func NewWatcher(path string, reg *effectchain.Registry, chain *effectchain.SignalChain, opts ...Option) *Watcher {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	w := &Watcher{
		path:     filepath.Clean(path),
		reg:      reg,
		chain:    chain,
		log:      quiet,
		debounce: DefaultDebounce,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	return w
}

// Reload reads the document and swaps its effects into the chain.
func (w *Watcher) Reload() error {
	err := w.reload()
	if err != nil {
		w.failures.Add(1)
		w.log.WithFields(logrus.Fields{"function": "Reload", "path": w.path}).WithError(err).Warn("chain reload failed, keeping current effects")
	} else {
		w.reloads.Add(1)
		w.log.WithFields(logrus.Fields{"function": "Reload", "path": w.path, "effects": w.chain.Len()}).Info("chain reloaded")
	}

	if w.hook != nil {
		w.hook(err)
	}

	return err
}

func (w *Watcher) reload() error {
	doc, err := Read(w.path)
	if err != nil {
		return err
	}

	list, err := doc.Build(w.reg, w.chain.Context(), w.log)
	if err != nil {
		return err
	}

	if err := w.chain.ReplaceEffects(list); err != nil {
		return err
	}

	if doc.Tempo > 0 {
		if t, ok := w.chain.Tempo().(interface{ SetBPM(float64) error }); ok {
			if err := t.SetBPM(doc.Tempo); err != nil {
				w.log.WithFields(logrus.Fields{"function": "Reload", "tempo": doc.Tempo}).WithError(err).Warn("tempo ignored")
			}
		}
	}

	return nil
}

// Reloads returns the number of successful reloads.
func (w *Watcher) Reloads() uint64 { return w.reloads.Load() }

// Failures returns the number of failed reloads.
func (w *Watcher) Failures() uint64 { return w.failures.Load() }

// Run watches the document until ctx is done. The parent directory is
// watched rather than the file so editors that replace the file on save
// are followed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("chainfile: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("chainfile: watch %s: %w", w.path, err)
	}

	w.log.WithFields(logrus.Fields{"function": "Run", "path": w.path}).Info("watching chain document")

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return errors.New("chainfile: watcher closed")
			}

			if filepath.Clean(ev.Name) != w.path {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("chainfile: watcher closed")
			}

			w.log.WithFields(logrus.Fields{"function": "Run", "path": w.path}).WithError(err).Warn("watch error")
		case <-timer.C:
			_ = w.Reload()
		}
	}
}
