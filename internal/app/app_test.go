package app

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/five82/contrail/internal/config"
	"github.com/five82/contrail/internal/interp"
	"github.com/five82/contrail/internal/prefs"
	"github.com/five82/contrail/internal/source"
)

func TestSourceSpecs_NoSources(t *testing.T) {
	_, err := sourceSpecs(config.Default(), Options{})
	if !errors.Is(err, ErrNoSources) {
		t.Fatalf("sourceSpecs() error = %v, want ErrNoSources", err)
	}
}

func TestSourceSpecs_ConfigThenCommandLine(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{{Kind: source.KindFile, Name: "cfg", Path: "/var/log/app.log"}}

	specs, err := sourceSpecs(cfg, Options{
		Files:       []string{"a.log", "b.log"},
		Dir:         "/tmp/logs",
		Pattern:     "**/*.log",
		Exec:        []string{"adb", "logcat", "-v", "long"},
		RecordStart: "^##",
		FromStart:   true,
		Stdin:       strings.NewReader(""),
	})
	if err != nil {
		t.Fatalf("sourceSpecs() error = %v", err)
	}

	wantKinds := []string{source.KindFile, source.KindFile, source.KindFile, source.KindDir, source.KindExec, source.KindStdin}
	if len(specs) != len(wantKinds) {
		t.Fatalf("got %d specs, want %d", len(specs), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if specs[i].Kind != kind {
			t.Fatalf("specs[%d].Kind = %q, want %q", i, specs[i].Kind, kind)
		}
	}
	if specs[0].Name != "cfg" || specs[0].RecordStart != "" {
		t.Fatalf("configured source changed: %+v", specs[0])
	}
	if !specs[1].FromStart || specs[1].RecordStart != "^##" {
		t.Fatalf("file spec = %+v, want from_start and record_start", specs[1])
	}
	if specs[3].Pattern != "**/*.log" {
		t.Fatalf("dir pattern = %q, want **/*.log", specs[3].Pattern)
	}
	exec := specs[4]
	if exec.Command != "adb" || strings.Join(exec.Args, " ") != "logcat -v long" || !exec.Retry {
		t.Fatalf("exec spec = %+v", exec)
	}
}

func TestSourceSpecs_LogcatDefaultsRecordStart(t *testing.T) {
	cfg := config.Default()
	cfg.Format = "logcat"
	cfg.Sources = []config.SourceConfig{{Kind: source.KindExec, Command: "adb", RecordStart: "^custom"}}

	specs, err := sourceSpecs(cfg, Options{Files: []string{"device.log"}})
	if err != nil {
		t.Fatalf("sourceSpecs() error = %v", err)
	}
	if specs[0].RecordStart != "^custom" {
		t.Fatalf("explicit record_start = %q, want ^custom", specs[0].RecordStart)
	}
	if specs[1].RecordStart != interp.LogcatRecordStart {
		t.Fatalf("default record_start = %q, want %q", specs[1].RecordStart, interp.LogcatRecordStart)
	}
}

func TestSourceSpecs_ConfiguredStdin(t *testing.T) {
	cfg := config.Default()
	cfg.Sources = []config.SourceConfig{{Kind: source.KindStdin, Name: "pipe"}}

	if _, err := sourceSpecs(cfg, Options{}); err == nil {
		t.Fatalf("sourceSpecs() accepted a stdin source without a pipe")
	}

	specs, err := sourceSpecs(cfg, Options{Stdin: strings.NewReader("")})
	if err != nil {
		t.Fatalf("sourceSpecs() error = %v", err)
	}
	if len(specs) != 1 || specs[0].Name != "pipe" {
		t.Fatalf("specs = %+v, want only the configured stdin source", specs)
	}
}

func TestApplyPrefs(t *testing.T) {
	wrap := true
	detail := 3
	saved := prefs.Prefs{Wrap: &wrap, Detail: &detail}

	cfg := config.Default()
	applyPrefs(&cfg, saved, nil)
	if !cfg.Wrap || cfg.Detail != 3 {
		t.Fatalf("prefs not applied: wrap=%v detail=%d", cfg.Wrap, cfg.Detail)
	}

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("wrap", false, "")
	flags.Int("detail", 1, "")
	if err := flags.Parse([]string{"--detail=0"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg = config.Default()
	cfg.Detail = 0
	applyPrefs(&cfg, saved, flags)
	if cfg.Detail != 0 {
		t.Fatalf("detail = %d, want flag value 0", cfg.Detail)
	}
	if !cfg.Wrap {
		t.Fatalf("wrap pref not applied when the flag is unchanged")
	}
}

func TestApplyPrefs_UnsetLeavesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Wrap = true
	cfg.Detail = 2
	applyPrefs(&cfg, prefs.Prefs{Theme: "Slate"}, nil)
	if !cfg.Wrap || cfg.Detail != 2 {
		t.Fatalf("config changed by empty prefs: wrap=%v detail=%d", cfg.Wrap, cfg.Detail)
	}
}

func TestDescribe(t *testing.T) {
	cases := []struct {
		spec source.Spec
		want string
	}{
		{source.Spec{Kind: "file", Name: "app", Path: "/x/y.log"}, "app"},
		{source.Spec{Kind: "exec", Command: "adb"}, "adb"},
		{source.Spec{Kind: "file", Path: "/x/y.log"}, "y.log"},
		{source.Spec{Kind: "stdin"}, "stdin"},
	}
	for _, tc := range cases {
		if got := describe(tc.spec); got != tc.want {
			t.Fatalf("describe(%+v) = %q, want %q", tc.spec, got, tc.want)
		}
	}
}
