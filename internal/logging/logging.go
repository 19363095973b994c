// Package logging builds the logr.Logger used throughout hafloat.
//
// The logger is backed by zap. Interactive terminals get a colored console
// encoder, everything else (cron, systemd, containers) gets JSON.
package logging

import (
	"io"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Format selects the encoder.
type Format string

// Supported formats.
const (
	FormatAuto    Format = "auto"
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// Options configures New.
type Options struct {
	// Debug enables V(1) messages.
	Debug  bool
	Format Format
	// Output defaults to stderr.
	Output io.Writer
}

// New returns a logger and a sync function to call before exit.
func New(opts Options) (logr.Logger, func()) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	format := opts.Format
	if format == "" || format == FormatAuto {
		format = FormatJSON
		if isTerminal(out) {
			format = FormatConsole
		}
	}

	var encoder zapcore.Encoder
	if format == FormatConsole {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		encoder = zapcore.NewConsoleEncoder(cfg)
	} else {
		cfg := zap.NewProductionEncoderConfig()
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(out)), level)
	zl := zap.New(core, zap.AddCaller())
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
