package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// logger carries all diagnostics. Primary output never goes through it.
// Tests leave it as a no-op logger.
var logger = zap.NewNop().Sugar()

// newLogger builds the console logger used by the CLI. Lines go to w, which
// is stderr in normal runs.
func newLogger(w io.Writer, verbose, quiet bool) *zap.SugaredLogger {
	level := zapcore.InfoLevel
	switch {
	case quiet:
		level = zapcore.ErrorLevel
	case verbose:
		level = zapcore.DebugLevel
	}

	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		ConsoleSeparator: " ",
	}
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core).Sugar()
}
