// Package logging builds the zap logger used by a run.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/acarl005/stripansi"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFile is the name of the per-run log inside the run directory
const LogFile = "pipeline.log"

// Options configures New
type Options struct {
	// Run directory; empty disables the file log
	RunDir string
	// Console receives warnings and above (info too when Verbose)
	Console io.Writer
	Verbose bool
}

// plainCore strips ANSI escapes from messages so colored renderer lines
// stay readable in the log file
type plainCore struct {
	zapcore.Core
}

func (c plainCore) With(fields []zapcore.Field) zapcore.Core {
	return plainCore{c.Core.With(fields)}
}

func (c plainCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c plainCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	ent.Message = stripansi.Strip(ent.Message)
	return c.Core.Write(ent, fields)
}

// New returns a logger that writes JSON lines to RunDir/pipeline.log and
// human-readable lines to the console. The returned close func flushes and
// closes the log file.
func New(opts Options) (*zap.Logger, func() error, error) {
	var cores []zapcore.Core
	closeFn := func() error { return nil }

	if opts.RunDir != "" {
		if err := os.MkdirAll(opts.RunDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create run directory: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(opts.RunDir, LogFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "ts"
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, plainCore{zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(f),
			zapcore.DebugLevel,
		)})
		closeFn = f.Close
	}

	if opts.Console != nil {
		level := zapcore.WarnLevel
		if opts.Verbose {
			level = zapcore.InfoLevel
		}
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.TimeKey = ""
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.AddSync(opts.Console),
			level,
		))
	}

	if len(cores) == 0 {
		return zap.NewNop(), closeFn, nil
	}

	logger := zap.New(zapcore.NewTee(cores...))
	return logger, func() error {
		_ = logger.Sync()
		return closeFn()
	}, nil
}
