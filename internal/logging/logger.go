package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const FileName = "sitewatch.log"

type Options struct {
	Dir     string
	Level   string // debug, info, warn, error; empty means warn
	Console bool   // tee to stderr in console format
}

// NewLogger writes JSON lines to a rotated file under opts.Dir.
// The returned closer flushes and closes the file.
func NewLogger(opts Options) (*zap.Logger, func() error, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(lj), level),
	}
	if opts.Console {
		ccfg := zap.NewDevelopmentEncoderConfig()
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ccfg), zapcore.Lock(os.Stderr), level))
	}
	log := zap.New(zapcore.NewTee(cores...))
	closer := func() error {
		_ = log.Sync()
		return lj.Close()
	}
	return log, closer, nil
}
