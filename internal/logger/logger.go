package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/mutker/sysreport/internal/errors"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
	componentField  = "component"
)

type LogEvent struct {
	*zerolog.Event
}

func (e *LogEvent) Msg(msg string) {
	e.Event.Msg(msg)
}

func (e *LogEvent) Send() {
	e.Event.Send()
}

// Options controls where records go and which of them are kept.
type Options struct {
	// Level is one of debug, info, warning, error.
	Level string
	// File is the path of the log file. Empty disables the file sink.
	File string
	// Console receives human-readable records. Defaults to os.Stderr.
	Console io.Writer
	// ConsoleLevel is the minimum level echoed to Console. Defaults to warning.
	ConsoleLevel string
}

// Log is a zerolog-backed Logger that owns its file sink.
type Log struct {
	zl   zerolog.Logger
	file *os.File
}

// New builds a Log from opts. Close must be called to flush the file sink.
func New(opts Options) (*Log, error) {
	errFactory := errors.New()

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	consoleLevel := zerolog.WarnLevel
	if opts.ConsoleLevel != "" {
		if consoleLevel, err = ParseLevel(opts.ConsoleLevel); err != nil {
			return nil, err
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{
		levelFilter{
			w:   zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339, NoColor: !isTerminal(console)},
			min: consoleLevel,
		},
	}

	l := &Log{}
	if opts.File != "" {
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
				return nil, errFactory.Wrap(errors.ErrOpenLogFile, err)
			}
		}

		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, defaultFilePerm)
		if err != nil {
			return nil, errFactory.Wrap(errors.ErrOpenLogFile, err)
		}
		l.file = f
		writers = append(writers, f)
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().
		Timestamp().
		Logger()

	return l, nil
}

// Nop returns a Log that discards everything.
func Nop() *Log {
	return &Log{zl: zerolog.Nop()}
}

// Close flushes and closes the file sink, if any.
func (l *Log) Close() error {
	if l.file == nil {
		return nil
	}

	errFactory := errors.New()
	if err := l.file.Sync(); err != nil {
		l.file.Close()
		return errFactory.Wrap(errors.ErrShutdownFailed, err)
	}
	if err := l.file.Close(); err != nil {
		return errFactory.Wrap(errors.ErrShutdownFailed, err)
	}
	l.file = nil

	return nil
}

// ParseLevel maps a configured level name onto a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, errors.New().WithData(errors.ErrInvalidLogLevel, level)
	}
}

// Debug logs a debug message
func (l *Log) Debug() *LogEvent {
	return &LogEvent{l.zl.Debug()}
}

// Info logs an info message
func (l *Log) Info() *LogEvent {
	return &LogEvent{l.zl.Info()}
}

// Warn logs a warning message
func (l *Log) Warn() *LogEvent {
	return &LogEvent{l.zl.Warn()}
}

// Error logs an error message
func (l *Log) Error() *LogEvent {
	return &LogEvent{l.zl.Error()}
}

// ErrorWithCode logs an error message with a specific error code
func (l *Log) ErrorWithCode(err errors.Error) *LogEvent {
	ev := l.zl.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		AnErr("error", err.Unwrap())
	if data := err.Data(); data != nil {
		ev = ev.Interface("error_data", data)
	}
	return &LogEvent{ev}
}

// ErrorWithContext logs a coded error together with where it happened
func (l *Log) ErrorWithContext(err errors.Error, component, operation string) *LogEvent {
	return &LogEvent{l.zl.Error().
		Str("error_code", string(err.Code())).
		Str("error_message", err.Error()).
		Str(componentField, component).
		Str("operation", operation).
		AnErr("error", err.Unwrap())}
}

func (l *Log) With(component string) Logger {
	return &Log{zl: l.zl.With().Str(componentField, component).Logger()}
}

// levelFilter drops records below min before they reach w.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.min {
		return len(p), nil
	}

	return f.w.Write(p)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
