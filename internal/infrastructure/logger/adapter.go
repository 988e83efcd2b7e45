package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"e2e-harness/internal/application/port/output"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ output.LoggerPort = (*LoggerAdapter)(nil)

const logDir = "log"

type LoggerAdapter struct {
	sugar *zap.SugaredLogger
	file  *os.File
}

// NewLoggerAdapter writes JSON lines to log/<timestamp>_<name>.log and a
// console rendering to stderr, both filtered at level.
func NewLoggerAdapter(name, level string) (*LoggerAdapter, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	filename := fmt.Sprintf("%s_%s.log", time.Now().Format("2006-01-02_15-04-05"), sanitize(name))
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.Create(filepath.Join(logDir, filename))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	fileCfg := zap.NewProductionEncoderConfig()
	fileCfg.TimeKey = "timestamp"
	fileCfg.MessageKey = "message"
	fileCfg.EncodeTime = zapcore.RFC3339TimeEncoder

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(file), lvl),
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), lvl),
	)

	return &LoggerAdapter{
		sugar: zap.New(core).Sugar(),
		file:  file,
	}, nil
}

// FromZap adapts an existing zap logger, e.g. zaptest.NewLogger in tests.
func FromZap(l *zap.Logger) *LoggerAdapter {
	return &LoggerAdapter{sugar: l.Sugar()}
}

func NewNopLogger() *LoggerAdapter {
	return FromZap(zap.NewNop())
}

func (l *LoggerAdapter) Debug(msg string, args ...any) {
	l.sugar.Debugw(msg, args...)
}

func (l *LoggerAdapter) Info(msg string, args ...any) {
	l.sugar.Infow(msg, args...)
}

func (l *LoggerAdapter) Warn(msg string, args ...any) {
	l.sugar.Warnw(msg, args...)
}

func (l *LoggerAdapter) Error(msg string, args ...any) {
	l.sugar.Errorw(msg, args...)
}

func (l *LoggerAdapter) WithField(key string, value any) output.LoggerPort {
	return &LoggerAdapter{sugar: l.sugar.With(key, value)}
}

func (l *LoggerAdapter) WithFields(fields map[string]any) output.LoggerPort {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &LoggerAdapter{sugar: l.sugar.With(args...)}
}

// Close flushes buffered entries. Derived loggers share the root's file and
// never close it.
func (l *LoggerAdapter) Close() error {
	_ = l.sugar.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '_'
	}, s)
	s = strings.Trim(s, "_")
	if s == "" {
		return "run"
	}
	if len(s) > 60 {
		s = s[:60]
	}
	return s
}
