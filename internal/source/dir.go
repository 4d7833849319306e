package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/five82/contrail/internal/ingest"
	"github.com/five82/contrail/internal/logtail"
)

const (
	// DefaultDirPattern selects the files a Dir source follows.
	DefaultDirPattern = "*.log"
	// dirBackfill is how many lines of the newest file are shown on attach.
	dirBackfill = 200
	// rescanEvery forces a rescan after this many polls without events, for
	// files in subdirectories the watcher does not cover.
	rescanEvery = 10
)

// DirOptions configures a Dir source.
type DirOptions struct {
	Name        string
	Dir         string
	Pattern     string
	RecordStart string
	// FromStart reads the newest file from its beginning instead of
	// backfilling its last lines.
	FromStart bool
	Logger    *zap.Logger
}

// Dir follows the most recently modified file in a directory whose relative
// path matches a doublestar pattern, switching when a newer file appears.
type Dir struct {
	opts    DirOptions
	group   *Grouper
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	current string
	offset  int64
	pending []string
	dirty   bool
	idle    int
}

// NewDir validates opts. The directory is checked by Start.
func NewDir(opts DirOptions) (*Dir, error) {
	if strings.TrimSpace(opts.Dir) == "" {
		return nil, errors.New("dir source: path is required")
	}
	if opts.Pattern == "" {
		opts.Pattern = DefaultDirPattern
	}
	if !doublestar.ValidatePattern(opts.Pattern) {
		return nil, fmt.Errorf("dir source: invalid pattern %q", opts.Pattern)
	}
	group, err := NewGrouper(opts.RecordStart)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = filepath.Join(filepath.Base(opts.Dir), opts.Pattern)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dir{opts: opts, group: group, logger: logger.With(zap.String("source", opts.Name))}, nil
}

func (s *Dir) Name() string { return s.opts.Name }

func (s *Dir) Start(*ingest.Stop) error {
	info, err := os.Stat(s.opts.Dir)
	if err != nil {
		return fmt.Errorf("stat dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("stat dir: %s is not a directory", s.opts.Dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(s.opts.Dir); err != nil {
		w.Close()
		return fmt.Errorf("watch dir: %w", err)
	}
	s.watcher = w

	newest, err := s.newest()
	if err != nil {
		return err
	}
	if newest == "" {
		s.logger.Debug("no matching file yet", zap.String("pattern", s.opts.Pattern))
		return nil
	}

	backfill := dirBackfill
	if s.opts.FromStart {
		backfill = 0
	}
	lines, offset, err := logtail.Tail(newest, backfill)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	s.current, s.offset, s.pending = newest, offset, lines
	s.logger.Debug("following file", zap.String("path", newest), zap.Int("backfill", len(lines)))
	return nil
}

func (s *Dir) Poll() ([]string, error) {
	var watchErr error
	if s.drainEvents(&watchErr) {
		s.dirty = true
	}
	s.idle++
	var rescanErr error
	if s.dirty || s.idle >= rescanEvery {
		s.idle = 0
		rescanErr = s.rescan()
	}

	lines := s.pending
	s.pending = nil
	if rescanErr != nil {
		return collect(s.group, lines), rescanErr
	}
	if s.current != "" {
		chunk, err := logtail.ReadFrom(s.current, s.offset)
		if err != nil {
			return collect(s.group, lines), err
		}
		if chunk.Truncated {
			s.logger.Info("file truncated; reading from start", zap.String("path", s.current))
		}
		s.offset = chunk.Offset
		lines = append(lines, chunk.Lines...)
	}
	s.dirty = false
	return collect(s.group, lines), watchErr
}

// drainEvents reports whether any relevant filesystem event arrived.
func (s *Dir) drainEvents(errOut *error) bool {
	changed := false
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return changed
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				changed = true
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return changed
			}
			*errOut = fmt.Errorf("watch dir: %w", err)
		default:
			return changed
		}
	}
}

// rescan switches to a newer matching file when one exists. A new file is
// read from its beginning.
func (s *Dir) rescan() error {
	newest, err := s.newest()
	if err != nil {
		return err
	}
	if newest == "" || newest == s.current {
		return nil
	}
	if s.current != "" {
		// Pick up whatever the old file received before the switch.
		if chunk, err := logtail.ReadFrom(s.current, s.offset); err == nil {
			s.pending = append(s.pending, chunk.Lines...)
		}
	}
	s.logger.Info("switching file", zap.String("from", s.current), zap.String("to", newest))
	s.current, s.offset = newest, 0
	return nil
}

// newest returns the most recently modified matching file, or "".
func (s *Dir) newest() (string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.opts.Dir), s.opts.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return "", fmt.Errorf("glob %q: %w", s.opts.Pattern, err)
	}
	var (
		best    string
		bestMod time.Time
	)
	for _, m := range matches {
		path := filepath.Join(s.opts.Dir, filepath.FromSlash(m))
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if best == "" || info.ModTime().After(bestMod) {
			best, bestMod = path, info.ModTime()
		}
	}
	return best, nil
}

// Stop closes the watcher.
func (s *Dir) Stop() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Close()
}
