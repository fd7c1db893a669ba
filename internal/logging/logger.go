package logging

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the run logger.
type Options struct {
	Console io.Writer // nil = os.Stderr
	File    string    // optional rotated JSON log
	Verbose bool
	NoColor bool
	RunID   string // attached to every file log entry
}

// New builds a logger that writes human-readable lines to the console and,
// when File is set, JSON lines to a rotated log file.
func New(opts Options) (*zap.Logger, error) {
	level := zap.InfoLevel
	if opts.Verbose {
		level = zap.DebugLevel
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	ccfg := zap.NewDevelopmentEncoderConfig()
	ccfg.TimeKey = ""
	ccfg.CallerKey = ""
	ccfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if opts.NoColor {
		ccfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(ccfg), zapcore.AddSync(console), level),
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, err
		}
		w := zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		})
		fcfg := zap.NewProductionEncoderConfig()
		fcfg.TimeKey = "ts"
		file := zapcore.NewCore(zapcore.NewJSONEncoder(fcfg), w, level)
		if opts.RunID != "" {
			file = file.With([]zapcore.Field{zap.String("run", opts.RunID)})
		}
		cores = append(cores, file)
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
