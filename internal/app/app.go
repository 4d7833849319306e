package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/five82/contrail/internal/config"
	"github.com/five82/contrail/internal/entry"
	"github.com/five82/contrail/internal/ingest"
	"github.com/five82/contrail/internal/interp"
	"github.com/five82/contrail/internal/logging"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/source"
	"github.com/five82/contrail/internal/ui"
	"github.com/five82/contrail/internal/viewer"
)

// ErrNoSources is returned when neither the config nor the command line
// names anything to read.
var ErrNoSources = errors.New("no log sources: pass a file, --dir, --exec, pipe into stdin, or configure sources")

// Options configure the contrail application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/contrail/prefs.toml

	// Flags holds the parsed command-line flags. Changed flags override the
	// config file and, for wrap and detail, saved preferences.
	Flags *pflag.FlagSet

	Files       []string
	Dir         string
	Pattern     string
	Exec        []string // command followed by its arguments
	RecordStart string
	FromStart   bool

	// Stdin is read as a source when non-nil. Keyboard input then comes
	// from the controlling terminal.
	Stdin io.Reader
}

// Run boots the contrail TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath, opts.Flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sink := logging.NewSink(cfg.DebugLines)
	logger, closeLog, err := logging.New(logging.Options{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	}, sink)
	if err != nil {
		return err
	}
	defer closeLog()
	defer func() { _ = logger.Sync() }()

	in, err := interp.ByName(cfg.Format)
	if err != nil {
		return err
	}

	specs, err := sourceSpecs(cfg, opts)
	if err != nil {
		return err
	}

	bridge := ingest.NewBridge(in, ingest.Options{
		PollEvery:     cfg.SourcePoll,
		CheckInterval: cfg.CheckInterval,
		ShutdownGrace: cfg.ShutdownGrace,
		Logger:        logger.Named("ingest"),
	})
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		src, err := source.New(spec, opts.Stdin, logger.Named("source"))
		if err != nil {
			return fmt.Errorf("source %s: %w", describe(spec), err)
		}
		if err := bridge.Add(src); err != nil {
			return err
		}
		names = append(names, src.Name())
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)
	applyPrefs(&cfg, userPrefs, opts.Flags)

	v, err := viewer.New(in, viewer.Options{
		Capacity: cfg.Capacity,
		Detail:   entry.DetailLevel(cfg.Detail),
		Filter:   cfg.Filter,
		Wrap:     cfg.Wrap,
		Logger:   logger.Named("viewer"),
	})
	if err != nil {
		return err
	}
	v.Track(names...)
	v.Attach(bridge.Messages(), bridge.Stopping)

	logger.Info("starting",
		zap.String("config", cfg.Path),
		zap.String("format", in.Name()),
		zap.Strings("sources", names),
		zap.Int("capacity", cfg.Capacity),
	)
	bridge.Start()

	var programOpts []tea.ProgramOption
	if opts.Stdin != nil {
		programOpts = append(programOpts, tea.WithInputTTY())
	}
	runErr := ui.Run(ui.Options{
		Context:       ctx,
		Viewer:        v,
		Sink:          sink,
		Logger:        logger.Named("ui"),
		DrainInterval: cfg.SourcePoll,
		InputTick:     cfg.InputTick,
		ShowDebug:     cfg.ShowDebug,
		Prefs:         userPrefs,
		PrefsPath:     opts.PrefsPath,
	}, programOpts...)

	shutdownErr := bridge.Shutdown()
	if shutdownErr != nil {
		logger.Warn("shutdown", zap.Error(shutdownErr))
	}
	if runErr != nil {
		return fmt.Errorf("run ui: %w", runErr)
	}
	return shutdownErr
}

// sourceSpecs merges configured sources with those named on the command
// line. Configured sources come first.
func sourceSpecs(cfg config.Config, opts Options) ([]source.Spec, error) {
	var specs []source.Spec
	haveStdin := false
	for i, sc := range cfg.Sources {
		if sc.Kind == source.KindStdin {
			if opts.Stdin == nil {
				return nil, fmt.Errorf("sources[%d]: stdin is not a pipe", i)
			}
			if haveStdin {
				return nil, fmt.Errorf("sources[%d]: stdin configured twice", i)
			}
			haveStdin = true
		}
		specs = append(specs, sc.Spec())
	}
	for _, path := range opts.Files {
		specs = append(specs, source.Spec{
			Kind:        source.KindFile,
			Path:        path,
			RecordStart: opts.RecordStart,
			FromStart:   opts.FromStart,
		})
	}
	if opts.Dir != "" {
		specs = append(specs, source.Spec{
			Kind:        source.KindDir,
			Path:        opts.Dir,
			Pattern:     opts.Pattern,
			RecordStart: opts.RecordStart,
			FromStart:   opts.FromStart,
		})
	}
	if len(opts.Exec) > 0 {
		specs = append(specs, source.Spec{
			Kind:        source.KindExec,
			Command:     opts.Exec[0],
			Args:        opts.Exec[1:],
			RecordStart: opts.RecordStart,
			Retry:       true,
		})
	}
	if opts.Stdin != nil && !haveStdin {
		specs = append(specs, source.Spec{
			Kind:        source.KindStdin,
			Name:        "stdin",
			RecordStart: opts.RecordStart,
		})
	}
	if len(specs) == 0 {
		return nil, ErrNoSources
	}

	// logcat -v long spreads one record over several lines.
	if cfg.Format == "logcat" {
		for i := range specs {
			if specs[i].RecordStart == "" {
				specs[i].RecordStart = interp.LogcatRecordStart
			}
		}
	}
	return specs, nil
}

// applyPrefs lets saved wrap and detail settings win over the config file,
// but not over flags given on this run.
func applyPrefs(cfg *config.Config, p prefs.Prefs, flags *pflag.FlagSet) {
	if p.Wrap != nil && !changed(flags, "wrap") {
		cfg.Wrap = *p.Wrap
	}
	if p.Detail != nil && !changed(flags, "detail") {
		cfg.Detail = *p.Detail
	}
}

func changed(flags *pflag.FlagSet, name string) bool {
	return flags != nil && flags.Changed(name)
}

func describe(spec source.Spec) string {
	switch {
	case spec.Name != "":
		return spec.Name
	case spec.Command != "":
		return spec.Command
	case spec.Path != "":
		return filepath.Base(spec.Path)
	default:
		return spec.Kind
	}
}
