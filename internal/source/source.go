// Package source provides the log source adapters: File, Dir, Exec and
// Reader. Every adapter satisfies ingest.Source and never blocks in Poll;
// adapters that wait for output do so on their own goroutine and hand lines
// over through a buffered queue.
//
// Every adapter accepts a record_start pattern. When set, lines that
// do not match it are continuation lines and are folded into the preceding
// record, which is released once the next record starts or a poll comes up
// empty.
package source

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/five82/contrail/internal/ingest"
)

// Source kinds accepted by New.
const (
	KindFile  = "file"
	KindDir   = "dir"
	KindExec  = "exec"
	KindStdin = "stdin"
)

// Kinds lists the kinds New accepts.
var Kinds = []string{KindFile, KindDir, KindExec, KindStdin}

// Spec describes one configured source.
type Spec struct {
	Kind        string
	Name        string
	Path        string
	Pattern     string
	Command     string
	Args        []string
	RecordStart string
	FromStart   bool
	Retry       bool
	Poll        bool
}

// New builds the adapter for spec. stdin is used by the stdin kind.
func New(spec Spec, stdin io.Reader, logger *zap.Logger) (ingest.Source, error) {
	var (
		src ingest.Source
		err error
	)
	switch strings.ToLower(spec.Kind) {
	case KindFile:
		src, err = NewFile(FileOptions{
			Name:        spec.Name,
			Path:        spec.Path,
			RecordStart: spec.RecordStart,
			FromStart:   spec.FromStart,
			Poll:        spec.Poll,
			Logger:      logger,
		})
	case KindDir:
		src, err = NewDir(DirOptions{
			Name:        spec.Name,
			Dir:         spec.Path,
			Pattern:     spec.Pattern,
			RecordStart: spec.RecordStart,
			FromStart:   spec.FromStart,
			Logger:      logger,
		})
	case KindExec:
		src, err = NewExec(ExecOptions{
			Name:        spec.Name,
			Command:     spec.Command,
			Args:        spec.Args,
			RecordStart: spec.RecordStart,
			Retry:       spec.Retry,
			Logger:      logger,
		})
	case KindStdin:
		src, err = NewReader(spec.Name, stdin, spec.RecordStart)
	default:
		return nil, fmt.Errorf("unknown source kind %q (want one of %s)", spec.Kind, strings.Join(Kinds, ", "))
	}
	if err != nil {
		return nil, err
	}
	return src, nil
}
