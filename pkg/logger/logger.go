package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger — минимальный интерфейс логирования, используемый во всех слоях приложения.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(err error, format string, args ...any)
}

type slogLogger struct {
	log *slog.Logger
}

type options struct {
	level slog.Level
	file  string
	out   io.Writer
}

// Option настраивает логгер.
type Option func(*options)

// WithLevel задаёт уровень логирования: debug, info, warn, error.
func WithLevel(level string) Option {
	return func(o *options) {
		switch strings.ToLower(level) {
		case "debug":
			o.level = slog.LevelDebug
		case "warn", "warning":
			o.level = slog.LevelWarn
		case "error":
			o.level = slog.LevelError
		default:
			o.level = slog.LevelInfo
		}
	}
}

// WithFile дублирует логи в файл с ротацией.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

// WithWriter подменяет stdout (используется в тестах).
func WithWriter(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// NewSlogLogger создаёт JSON-логгер поверх log/slog.
func NewSlogLogger(opts ...Option) Logger {
	o := &options{level: slog.LevelInfo, out: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}

	out := o.out
	if o.file != "" {
		out = io.MultiWriter(out, &lumberjack.Logger{
			Filename:   o.file,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		})
	}

	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: o.level})
	return &slogLogger{log: slog.New(handler)}
}

func (l *slogLogger) Debugf(format string, args ...any) {
	l.log.Debug(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Infof(format string, args ...any) {
	l.log.Info(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Warnf(format string, args ...any) {
	l.log.Warn(fmt.Sprintf(format, args...))
}

func (l *slogLogger) Errorf(err error, format string, args ...any) {
	if err == nil {
		l.log.Error(fmt.Sprintf(format, args...))
		return
	}
	l.log.Error(fmt.Sprintf(format, args...), slog.String("error", err.Error()))
}

// Nop возвращает логгер, который ничего не пишет.
func Nop() Logger {
	return &slogLogger{log: slog.New(slog.NewJSONHandler(io.Discard, nil))}
}
