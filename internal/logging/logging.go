// Package logging builds the zap logger used for internal diagnostics.
//
// The terminal belongs to the viewer, so nothing is written to stdout or
// stderr. Records go to an in-memory Sink that the Debug panel renders and,
// when configured, to a JSON log file.
package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures New.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // file output: json lines unless "console"
	File   string // optional log file path
}

// New builds a logger that tees into sink and, if opts.File is set, into
// that file. The returned cleanup closes the file.
func New(opts Options, sink *Sink) (*zap.Logger, func(), error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, fmt.Errorf("invalid log level: %w", err)
		}
	}

	sinkEnc := zap.NewDevelopmentEncoderConfig()
	sinkEnc.TimeKey = "T"
	sinkEnc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	sinkEnc.CallerKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(sinkEnc), zapcore.AddSync(sink), level),
	}

	cleanup := func() {}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		var enc zapcore.Encoder
		if opts.Format == "console" {
			enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		} else {
			enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(f), level))
		cleanup = func() { _ = f.Close() }
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() {
		_ = logger.Sync()
		cleanup()
	}, nil
}
