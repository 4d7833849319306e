package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/nxadm/tail"
	"go.uber.org/zap"

	"github.com/five82/contrail/internal/ingest"
)

// FileOptions configures a File source.
type FileOptions struct {
	Name        string
	Path        string
	RecordStart string
	// FromStart reads the whole file first instead of starting at its end.
	FromStart bool
	// Poll stats the file instead of relying on inotify.
	Poll   bool
	Logger *zap.Logger
}

// File follows a single file through rotation and truncation.
type File struct {
	opts   FileOptions
	group  *Grouper
	logger *zap.Logger
	t      *tail.Tail
}

// NewFile validates opts. The file need not exist yet.
func NewFile(opts FileOptions) (*File, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("file source: path is required")
	}
	group, err := NewGrouper(opts.RecordStart)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = filepath.Base(opts.Path)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &File{opts: opts, group: group, logger: logger.With(zap.String("source", opts.Name))}, nil
}

func (s *File) Name() string { return s.opts.Name }

func (s *File) Start(*ingest.Stop) error {
	config := tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Poll:      s.opts.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if !s.opts.FromStart {
		config.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(s.opts.Path, config)
	if err != nil {
		return fmt.Errorf("tail %s: %w", s.opts.Path, err)
	}
	s.t = t
	s.logger.Debug("tailing file", zap.String("path", s.opts.Path), zap.Bool("from_start", s.opts.FromStart))
	return nil
}

// Poll drains the lines the tailer has read so far. A closed tailer ends the
// source.
func (s *File) Poll() ([]string, error) {
	var (
		lines   []string
		lineErr error
		closed  bool
	)
loop:
	for len(lines) < maxBatch {
		select {
		case line, ok := <-s.t.Lines:
			if !ok {
				closed = true
				break loop
			}
			if line.Err != nil {
				lineErr = line.Err
				continue
			}
			lines = append(lines, strings.TrimRight(line.Text, "\r"))
		default:
			break loop
		}
	}

	records := collect(s.group, lines)
	if closed {
		records = append(records, s.group.Flush()...)
		if err := s.t.Err(); err != nil {
			s.logger.Warn("tailer stopped", zap.Error(err))
		}
		return records, ingest.ErrSourceDone
	}
	return records, lineErr
}

// Stop stops the tailer and releases its inotify watches.
func (s *File) Stop() error {
	if s.t == nil {
		return nil
	}
	err := s.t.Stop()
	s.t.Cleanup()
	return err
}
