// Command mergeviz-cli runs a k-way merge without a terminal UI and prints
// the step trace, or verifies a recorded journal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/kway-mergeviz/pkg/config"
	"github.com/dd0wney/kway-mergeviz/pkg/journal"
	"github.com/dd0wney/kway-mergeviz/pkg/logging"
	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
	"github.com/dd0wney/kway-mergeviz/pkg/pubsub"
)

// Result is the machine-readable outcome of a run.
type Result struct {
	Session     string             `json:"session" yaml:"session"`
	Config      merge.Config       `json:"config" yaml:"config"`
	Streams     [][]int            `json:"streams" yaml:"streams"`
	Trace       []merge.StepRecord `json:"trace" yaml:"trace"`
	Output      []int              `json:"output" yaml:"output"`
	Comparisons int                `json:"comparisons" yaml:"comparisons"`
	State       merge.State        `json:"state" yaml:"state"`
}

type options struct {
	configPath string
	format     string
	verify     string
	watch      bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "mergeviz-cli: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("mergeviz-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json or yaml")
	fs.StringVar(&opts.verify, "verify", "", "Replay the journal at this path and report divergence")
	fs.BoolVar(&opts.watch, "watch", false, "Play the merge in real time at -speed (progress goes to stderr unless -format is text)")
	flags := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch opts.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, closeLog, err := newLogger(cfg, stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	if opts.verify != "" {
		return verify(opts.verify, stdout, logger)
	}

	engineOpts := []merge.Option{merge.WithLogger(logger)}
	if cfg.JournalPath != "" {
		jw, err := journal.Create(cfg.JournalPath, journal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer jw.Close()
		engineOpts = append(engineOpts, merge.WithObserver(jw))
	}

	eng, err := merge.New(cfg.EngineConfig(), engineOpts...)
	if err != nil {
		return err
	}
	source := eng.Snapshot()

	if opts.watch {
		// Machine-readable output keeps stdout to the document alone.
		progress := stdout
		if opts.format != "text" {
			progress = stderr
		}
		if err := watch(eng, cfg, progress, logger); err != nil {
			return err
		}
	} else {
		eng.Run()
	}

	return write(stdout, opts.format, newResult(source, eng))
}

func newLogger(cfg *config.Config, stderr io.Writer) (logging.Logger, func(), error) {
	if cfg.LogFile != "" {
		l, closer, err := logging.NewFileLogger(cfg.LogFile, cfg.Level())
		if err != nil {
			return nil, nil, err
		}
		return l, func() { closer.Close() }, nil
	}
	return logging.NewJSONLogger(stderr, cfg.Level()), func() {}, nil
}

func newResult(source merge.Snapshot, eng *merge.Engine) Result {
	snap := eng.Snapshot()
	data := make([][]int, len(source.Streams))
	for i, s := range source.Streams {
		data[i] = s.Data
	}
	return Result{
		Session:     snap.Session,
		Config:      snap.Config,
		Streams:     data,
		Trace:       eng.Trace(),
		Output:      snap.Output,
		Comparisons: snap.Comparisons,
		State:       snap.State,
	}
}

// watch drives the engine through the playback controller with real timers
// and prints each step as its event arrives.
func watch(eng *merge.Engine, cfg *config.Config, progress io.Writer, logger logging.Logger) error {
	bus := pubsub.New[playback.Event](pubsub.DefaultBuffer)
	defer bus.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := bus.Subscribe(ctx, playback.Topic)
	if err != nil {
		return err
	}

	ctrl := playback.New(eng,
		playback.WithSpeed(cfg.Speed),
		playback.WithEventBus(bus),
		playback.WithLogger(logger),
	)
	defer ctrl.Close()

	if err := ctrl.Play(); err != nil {
		if errors.Is(err, playback.ErrFinished) {
			return nil
		}
		return err
	}

	for ev := range sub.Channel() {
		switch ev.Kind {
		case playback.Stepped:
			if last := ev.Snapshot.Last; last != nil {
				fmt.Fprintf(progress, "Popped %d from S%d (comparisons: %d)\n", last.Value, last.StreamID, last.Comparisons)
			}
		case playback.Finished:
			fmt.Fprintln(progress, "Merge complete")
			return nil
		}
	}
	return errors.New("event stream closed before the merge completed")
}

func verify(path string, stdout io.Writer, logger logging.Logger) error {
	timer := logging.StartTimer(logger, "verify journal", logging.Path(path))
	report, err := journal.Verify(path)
	if err != nil {
		timer.EndError(err)
		return err
	}
	timer.End(logging.Int("sessions", report.Sessions), logging.Int("steps", report.Steps))
	fmt.Fprintf(stdout, "journal ok: %d sessions, %d steps\n", report.Sessions, report.Steps)
	return nil
}

func write(w io.Writer, format string, res Result) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeText(w, res)
	}
}

func writeText(w io.Writer, res Result) error {
	var s strings.Builder
	fmt.Fprintf(&s, "Seed %d · K=%d · Length %d · Session %s\n\n",
		res.Config.Seed, len(res.Streams), res.Config.StreamLength, res.Session)

	for i, d := range res.Streams {
		fmt.Fprintf(&s, "S%-2d %s\n", i, joinInts(d))
	}
	s.WriteString("\n")

	for _, rec := range res.Trace {
		fmt.Fprintf(&s, "#%-3d S%-2d → %3d  live=%d  +%d  comparisons=%d\n",
			rec.Seq, rec.StreamID, rec.Value, rec.Live, rec.Delta, rec.Comparisons)
	}

	fmt.Fprintf(&s, "\nOutput: %s\n", joinInts(res.Output))
	fmt.Fprintf(&s, "Comparisons: %d\n", res.Comparisons)
	fmt.Fprintf(&s, "State: %s\n", res.State)

	_, err := io.WriteString(w, s.String())
	return err
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, " ")
}
