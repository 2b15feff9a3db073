// Package log provides structured logging for win32shim using zap.
package log

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with win32shim-specific helpers.
type Logger struct {
	*zap.Logger
	onTrace func(pc uint32, category, name, detail string) // trace callback for events
}

var (
	// L is the global logger instance.
	L    *Logger
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(debug bool) {
	once.Do(func() {
		L = New(debug)
	})
}

// New creates a new Logger instance.
func New(debug bool) *Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// SetOnTrace sets the trace callback invoked on every shim call, used by
// internal/trace to collect its list of Events.
func (l *Logger) SetOnTrace(fn func(pc uint32, category, name, detail string)) {
	l.onTrace = fn
}

// Trace logs a shim call and invokes the trace callback if set. This is
// the primary method winapi shims use to report their activity.
func (l *Logger) Trace(pc uint32, category, name, detail string) {
	if l.onTrace != nil {
		l.onTrace(pc, category, name, detail)
	}
	l.Debug("call",
		zap.String("dll", category),
		Fn(name),
		zap.String("detail", detail),
		Addr(pc),
	)
}

// StubInstall logs when a shim is installed at an import or vtable-slot
// address.
func (l *Logger) StubInstall(category, name string, addr uint32, source string) {
	l.Debug("installed",
		zap.String("dll", category),
		Fn(name),
		Ptr("addr", addr),
		zap.String("src", source),
	)
}

// Unsupported logs an unsupported-operation event (spec §7.2): the shim
// still returns a benign value, but the event is surfaced at warn level.
func (l *Logger) Unsupported(category, name, detail string) {
	l.Warn("unsupported",
		zap.String("dll", category),
		zap.String("fn", name),
		zap.String("detail", detail),
	)
}

// WithCategory returns a logger with the category (DLL name) field preset.
func (l *Logger) WithCategory(category string) *Logger {
	return &Logger{
		Logger:  l.Logger.With(zap.String("dll", category)),
		onTrace: l.onTrace,
	}
}

// Hex formats a uint64 as a hex string for logging.
func Hex(addr uint64) string {
	return "0x" + hexString(addr)
}

func hexString(v uint64) string {
	const digits = "0123456789abcdef"
	if v == 0 {
		return "0"
	}
	buf := make([]byte, 16)
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = digits[v&0xf]
		v >>= 4
	}
	return string(buf[i:])
}

// Addr creates an address field.
func Addr(addr uint32) zap.Field {
	return zap.String("addr", Hex(uint64(addr)))
}

// Size creates a size field.
func Size(size uint32) zap.Field {
	return zap.Uint32("size", size)
}

// Ptr creates a pointer field.
func Ptr(name string, ptr uint32) zap.Field {
	return zap.String(name, Hex(uint64(ptr)))
}

// Fn creates a function name field.
func Fn(name string) zap.Field {
	return zap.String("fn", name)
}
