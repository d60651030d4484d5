// Command fxrack inspects the built-in effects, renders WAV files through
// a chain and plays a live chain on the system audio output.
//
// Usage:
//
//	fxrack list
//	fxrack params delay
//	fxrack render in.wav out.wav --chain chain.json --tail 2
//	fxrack play --chain chain.json --watch --listen :8080 --signal sequence
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-fx/dsp/core"
	"github.com/cwbudde/algo-fx/dsp/effect"
	"github.com/cwbudde/algo-fx/dsp/effectchain"
	"github.com/cwbudde/algo-fx/dsp/lfo"
	"github.com/cwbudde/algo-fx/internal/audioio"
	"github.com/cwbudde/algo-fx/internal/chainfile"
	"github.com/cwbudde/algo-fx/internal/control"
	"github.com/cwbudde/algo-fx/internal/render"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// flags shared by every subcommand.
type globalFlags struct {
	sampleRate float64
	blockSize  int
	channels   int
	layout     string
	bpm        float64
	chain      string
	maxDelay   float64
	logLevel   string
}

type app struct {
	out   io.Writer
	flags globalFlags
	log   *logrus.Logger
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	def := core.DefaultProcessorConfig()

	root := &cobra.Command{
		Use:   "fxrack",
		Short: "Real-time audio effect rack",
		Long: `fxrack runs chains of delay, modulation, dynamics and spectral effects.

A chain is described by a JSON document:

  {"version": "1.0.0", "tempo": 100,
   "effects": [{"type": "delay", "preset": "dub"}, {"type": "chorus"}]}`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.setupLogger()
		},
	}

	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.Float64Var(&a.flags.sampleRate, "sample-rate", def.SampleRate, "sample rate in Hz")
	pf.IntVar(&a.flags.blockSize, "block-size", def.BlockSize, "frames per processing block")
	pf.IntVar(&a.flags.channels, "channels", def.Channels, "channel count")
	pf.StringVar(&a.flags.layout, "layout", "interleaved", "buffer layout: interleaved or planar")
	pf.Float64Var(&a.flags.bpm, "bpm", lfo.DefaultBPM, "transport tempo")
	pf.StringVarP(&a.flags.chain, "chain", "c", "", "chain document (JSON)")
	pf.Float64Var(&a.flags.maxDelay, "max-delay", 0, "longest delay line in seconds (0 = default)")
	pf.StringVar(&a.flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		a.listCmd(),
		a.paramsCmd(),
		a.presetsCmd(),
		a.describeCmd(),
		a.renderCmd(),
		a.generateCmd(),
		a.playCmd(),
	)

	return root
}

func (a *app) setupLogger() error {
	level, err := logrus.ParseLevel(a.flags.logLevel)
	if err != nil {
		return err
	}

	a.log = logrus.New()
	a.log.SetOutput(os.Stderr)
	a.log.SetLevel(level)
	a.log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return nil
}

func (a *app) registry() *effectchain.Registry {
	var opts []effectchain.RegistryOption
	if a.flags.maxDelay > 0 {
		opts = append(opts, effectchain.WithMaxDelayTime(a.flags.maxDelay))
	}

	return effectchain.DefaultRegistry(opts...)
}

// buildChain creates the chain from the flags and loads --chain when set.
// The document's configuration wins over the flags.
func (a *app) buildChain(reg *effectchain.Registry) (*effectchain.SignalChain, error) {
	layout, err := effectchain.ParseLayout(a.flags.layout)
	if err != nil {
		return nil, err
	}

	chain := effectchain.New(
		effectchain.WithLayout(layout),
		effectchain.WithLogger(a.log),
		effectchain.WithTransport(lfo.NewTransport(a.flags.bpm)),
	)

	if err := chain.Initialize(a.flags.sampleRate, a.flags.blockSize, a.flags.channels); err != nil {
		return nil, err
	}

	if a.flags.chain != "" {
		if err := chainfile.Load(a.flags.chain, reg, chain); err != nil {
			return nil, err
		}
	}

	return chain, nil
}

// create builds one unattached effect for inspection.
func (a *app) create(reg *effectchain.Registry, typ string) (*effect.Effect, error) {
	return reg.Create(typ, effectchain.Context{
		SampleRate: a.flags.sampleRate,
		BlockSize:  a.flags.blockSize,
		Channels:   a.flags.channels,
	})
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in effect types",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			reg := a.registry()

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Type\tFamily\tParameters\tPresets\n")
			fmt.Fprintf(tw, "----\t------\t----------\t-------\n")

			for _, typ := range reg.Types() {
				fx, err := a.create(reg, typ)
				if err != nil {
					return err
				}

				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", typ, fx.Family(), len(fx.Parameters()), strings.Join(fx.Presets(), ", "))
			}

			return tw.Flush()
		},
	}
}

func (a *app) paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params <type>",
		Short: "Show the parameters of an effect type",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fx, err := a.create(a.registry(), args[0])
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "Name\tMin\tMax\tDefault\tUnit\n")
			fmt.Fprintf(tw, "----\t---\t---\t-------\t----\n")

			for _, info := range fx.Parameters() {
				fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%s\n", info.Name, info.Min, info.Max, info.Default, info.Unit)
			}

			return tw.Flush()
		},
	}
}

func (a *app) presetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets <type>",
		Short: "List the presets of an effect type",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			fx, err := a.create(a.registry(), args[0])
			if err != nil {
				return err
			}

			for _, name := range fx.Presets() {
				fmt.Fprintln(a.out, name)
			}

			return nil
		},
	}
}

func (a *app) describeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print the chain document with every parameter resolved",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			chain, err := a.buildChain(a.registry())
			if err != nil {
				return err
			}

			data, err := effectchain.Describe(chain).Marshal()
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(a.out, string(data))

			return err
		},
	}
}

func (a *app) renderCmd() *cobra.Command {
	var (
		tail float64
		bits int
	)

	cmd := &cobra.Command{
		Use:   "render <in.wav|-> <out.wav>",
		Short: "Render a WAV file through the chain",
		Long: `Render a WAV file, or standard input when the input is "-", through
the chain. The chain follows the file's sample rate and channel count;
--tail adds seconds of ring-out.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := a.buildChain(a.registry())
			if err != nil {
				return err
			}

			in, err := a.readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			start := time.Now()

			out, err := render.Process(chain, in, tail, a.log)
			if err != nil {
				return err
			}

			if err := render.WriteFile(args[1], out, bits); err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				"in":       args[0],
				"out":      args[1],
				"effects":  chain.Len(),
				"frames":   out.Frames(),
				"duration": time.Since(start),
			}).Info("rendered")

			return nil
		},
	}

	cmd.Flags().Float64Var(&tail, "tail", 1, "seconds of silence appended for effect tails")
	cmd.Flags().IntVar(&bits, "bits", render.DefaultBitDepth, "bit depth: 16 or 24")

	return cmd
}

// readInput decodes a WAV file, or stdin for "-". The decoder seeks, so
// stdin is buffered whole.
func (a *app) readInput(stdin io.Reader, path string) (*render.Audio, error) {
	if path != "-" {
		return render.ReadFile(path)
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}

	return render.Decode(bytes.NewReader(data))
}

func (a *app) generateCmd() *cobra.Command {
	var (
		sig     string
		seconds float64
		bits    int
	)

	cmd := &cobra.Command{
		Use:   "generate <out.wav>",
		Short: "Render a generated test signal through the chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			chain, err := a.buildChain(a.registry())
			if err != nil {
				return err
			}

			cfg := chain.Config()

			src, err := audioio.ParseSignal(sig, cfg.SampleRate, chain.Tempo())
			if err != nil {
				return err
			}

			out, err := render.Run(chain, src, int(seconds*cfg.SampleRate))
			if err != nil {
				return err
			}

			return render.WriteFile(args[0], out, bits)
		},
	}

	cmd.Flags().StringVar(&sig, "signal", "sequence", "source signal: "+strings.Join(audioio.Signals, ", "))
	cmd.Flags().Float64Var(&seconds, "seconds", 4, "length in seconds")
	cmd.Flags().IntVar(&bits, "bits", render.DefaultBitDepth, "bit depth: 16 or 24")

	return cmd
}

func (a *app) playCmd() *cobra.Command {
	var (
		sig      string
		seconds  float64
		listen   string
		watch    bool
		headless bool
	)

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Run the chain live on the audio output",
		Long: `Run the chain live. --listen serves the HTTP control API, --watch
reloads the chain document when it changes and --headless runs without
an audio device.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if watch && a.flags.chain == "" {
				return errors.New("--watch needs --chain")
			}

			reg := a.registry()

			chain, err := a.buildChain(reg)
			if err != nil {
				return err
			}

			src, err := audioio.ParseSignal(sig, chain.Config().SampleRate, chain.Tempo())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if seconds > 0 {
				var cancel context.CancelFunc

				ctx, cancel = context.WithTimeout(ctx, time.Duration(seconds*float64(time.Second)))
				defer cancel()
			}

			return a.play(ctx, chain, reg, src, listen, watch, headless)
		},
	}

	f := cmd.Flags()
	f.StringVar(&sig, "signal", "sequence", "source signal: "+strings.Join(audioio.Signals, ", "))
	f.Float64Var(&seconds, "seconds", 0, "stop after this many seconds (0 = until interrupted)")
	f.StringVar(&listen, "listen", "", "serve the control API on this address, e.g. :8080")
	f.BoolVar(&watch, "watch", false, "reload --chain when the file changes")
	f.BoolVar(&headless, "headless", false, "process on a timer without an audio device")

	return cmd
}

func (a *app) play(ctx context.Context, chain *effectchain.SignalChain, reg *effectchain.Registry,
	src audioio.Source, listen string, watch, headless bool,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, 2)
	background := 0

	if listen != "" {
		background++

		srv := control.New(chain, reg, control.WithLogger(a.log))

		go func() { errc <- srv.Run(ctx, listen) }()
	}

	if watch {
		background++

		w := chainfile.NewWatcher(a.flags.chain, reg, chain, chainfile.WithLogger(a.log))

		go func() { errc <- w.Run(ctx) }()
	}

	var driver audioio.Driver

	if headless {
		driver = audioio.NewTickerDriver(chain, src, audioio.WithLogger(a.log))
	} else {
		d, err := audioio.NewOtoDriver(chain, src, audioio.WithLogger(a.log))
		if err != nil {
			return err
		}

		driver = d
	}

	chain.Start()

	a.log.WithFields(logrus.Fields{
		"effects":    chain.Len(),
		"sampleRate": chain.Config().SampleRate,
		"bpm":        chain.Tempo().BPM(),
		"headless":   headless,
	}).Info("playing")

	done := make(chan error, 1)

	go func() { done <- driver.Run(ctx) }()

	var runErr error

	select {
	case runErr = <-done:
	case runErr = <-errc:
		background--
		cancel()
		<-done
	}

	cancel()

	for ; background > 0; background-- {
		if err := <-errc; err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
			runErr = err
		}
	}

	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return nil
	}

	return runErr
}
