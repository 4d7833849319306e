package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"), nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	want := Default()
	if cfg.Capacity != want.Capacity {
		t.Fatalf("Capacity = %d, want %d", cfg.Capacity, want.Capacity)
	}
	if cfg.SourcePoll != 100*time.Millisecond || cfg.CheckInterval != 25*time.Millisecond {
		t.Fatalf("SourcePoll = %v, CheckInterval = %v", cfg.SourcePoll, cfg.CheckInterval)
	}
	if cfg.Format != "auto" || cfg.Detail != 1 || cfg.DebugLines != 512 || cfg.LogFormat != "json" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Path != "" {
		t.Fatalf("Path = %q, want empty for a missing file", cfg.Path)
	}
}

func TestLoad_ParsesConfigAndSources(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
capacity = 500
format = " JSON "
source_poll = "250ms"
log_file = "~/contrail.log"

[[sources]]
kind = "dir"
path = "~/logs"
pattern = "**/*.log"

[[sources]]
kind = "exec"
command = "adb"
args = ["logcat", "-v", "long"]
record_start = '^\[ '
retry = true
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Capacity != 500 {
		t.Fatalf("Capacity = %d, want 500", cfg.Capacity)
	}
	if cfg.Format != "json" {
		t.Fatalf("Format = %q, want json", cfg.Format)
	}
	if cfg.SourcePoll != 250*time.Millisecond {
		t.Fatalf("SourcePoll = %v, want 250ms", cfg.SourcePoll)
	}
	if cfg.LogFile != filepath.Join(home, "contrail.log") {
		t.Fatalf("LogFile = %q", cfg.LogFile)
	}
	if cfg.Path != path {
		t.Fatalf("Path = %q, want %q", cfg.Path, path)
	}
	if len(cfg.Sources) != 2 {
		t.Fatalf("Sources = %+v, want 2 entries", cfg.Sources)
	}
	dir := cfg.Sources[0]
	if dir.Kind != "dir" || dir.Path != filepath.Join(home, "logs") || dir.Pattern != "**/*.log" {
		t.Fatalf("Sources[0] = %+v", dir)
	}
	exec := cfg.Sources[1].Spec()
	if exec.Command != "adb" || strings.Join(exec.Args, " ") != "logcat -v long" || !exec.Retry {
		t.Fatalf("Sources[1] = %+v", exec)
	}
	if exec.RecordStart != `^\[ ` {
		t.Fatalf("RecordStart = %q", exec.RecordStart)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONTRAIL_CAPACITY", "42")
	t.Setenv("CONTRAIL_FORMAT", "logcat")

	cfg, err := Load(writeConfig(t, "capacity = 500\n"), nil)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Capacity != 42 || cfg.Format != "logcat" {
		t.Fatalf("Capacity = %d, Format = %q; want 42, logcat", cfg.Capacity, cfg.Format)
	}
}

func TestLoad_ChangedFlagsWin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONTRAIL_CAPACITY", "42")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("capacity", 0, "")
	flags.String("format", "", "")
	flags.String("filter", "", "")
	if err := flags.Parse([]string{"--capacity", "7", "--filter", "timeout"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := Load(writeConfig(t, "format = \"text\"\n"), flags)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Capacity != 7 {
		t.Fatalf("Capacity = %d, want 7", cfg.Capacity)
	}
	if cfg.Filter != "timeout" {
		t.Fatalf("Filter = %q, want timeout", cfg.Filter)
	}
	// An unset flag does not mask the file.
	if cfg.Format != "text" {
		t.Fatalf("Format = %q, want text", cfg.Format)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(writeConfig(t, `capacity = [`), nil)
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }, "capacity"},
		{"unknown format", func(c *Config) { c.Format = "xml" }, "unknown format"},
		{"unknown kind", func(c *Config) { c.Sources = []SourceConfig{{Kind: "kafka"}} }, "unknown kind"},
		{"file without path", func(c *Config) { c.Sources = []SourceConfig{{Kind: "file"}} }, "needs a path"},
		{"exec without command", func(c *Config) { c.Sources = []SourceConfig{{Kind: "exec"}} }, "needs a command"},
		{"stdin", func(c *Config) { c.Sources = []SourceConfig{{Kind: "stdin"}} }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	if _, err := Load(writeConfig(t, "capacity = 0\n"), nil); err == nil {
		t.Fatal("Load(capacity = 0) returned nil error")
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestDefaultPath_UnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got := DefaultPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("DefaultPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/contrail/config.toml")) {
		t.Fatalf("DefaultPath = %q, want it to end with /contrail/config.toml", got)
	}
}
