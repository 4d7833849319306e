package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/contrail/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := newRootCmd()
	cmd.SetArgs(os.Args[1:])
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "contrail: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options
	var execLine string

	cmd := &cobra.Command{
		Use:   "contrail [file...]",
		Short: "Follow log files, directories, commands and pipes in the terminal",
		Long: `contrail tails one or more log sources into a live, filterable view.

Sources are positional files, --dir, --exec and stdin when it is a pipe,
plus any listed under [[sources]] in ~/.config/contrail/config.toml.`,
		Example: `  contrail /var/log/syslog
  contrail --dir ~/logs --pattern '**/*.log'
  contrail --format logcat --exec 'adb logcat -v long'
  journalctl -f | contrail --format text`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Flags = cmd.Flags()
			opts.Files = args
			if line := strings.TrimSpace(execLine); line != "" {
				opts.Exec = strings.Fields(line)
			}
			opts.Stdin = pipedStdin()
			return app.Run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default ~/.config/contrail/config.toml)")
	f.StringVar(&opts.PrefsPath, "prefs", "", "preferences file (default ~/.config/contrail/prefs.toml)")
	f.StringVarP(&opts.Dir, "dir", "d", "", "follow the newest matching file in a directory")
	f.StringVarP(&opts.Pattern, "pattern", "p", "", "glob for --dir, relative to the directory (default *.log)")
	f.StringVarP(&execLine, "exec", "e", "", "run a command and follow its output, restarting it when it exits")
	f.StringVar(&opts.RecordStart, "record-start", "", "regexp matching the first line of a multi-line record")
	f.BoolVar(&opts.FromStart, "from-start", false, "read files from the beginning instead of the end")

	// Bound to config keys.
	f.StringP("format", "f", "auto", "record format: auto, plain, text, json, logcat")
	f.String("filter", "", "initial filter pattern")
	f.Int("capacity", 0, "maximum entries kept in memory")
	f.Int("detail", 1, "initial detail level")
	f.BoolP("wrap", "w", false, "wrap long lines")
	f.Bool("debug", false, "show the debug panel")
	f.Duration("poll", 0, "source poll interval")
	f.Duration("check-interval", 0, "shutdown check interval (20ms to 50ms)")
	f.String("log-level", "info", "internal log level: debug, info, warn, error")
	f.String("log-file", "", "also write internal logs to this file")

	return cmd
}

// pipedStdin returns stdin when it is not a terminal.
func pipedStdin() io.Reader {
	fd := os.Stdin.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return os.Stdin
}
