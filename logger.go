package task

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/goliatone/go-errors"
)

// Logger defines the leveled logging contract used across go-task.
type Logger interface {
	Trace(msg string, args ...any)
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Fatal(msg string, args ...any)
	WithContext(ctx context.Context) Logger
}

// LoggerProvider produces named loggers. Implementations may scope logs by name.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// FieldsLogger allows attaching persistent structured key/value pairs to a logger.
type FieldsLogger interface {
	WithFields(fields map[string]any) Logger
}

// LoggerAware components can accept a logger instance.
type LoggerAware interface {
	SetLogger(logger Logger)
}

// LogLevel represents the minimum severity a logger should emit. Levels
// are ordered and compared numerically; LevelQuiet is above every level
// a message can have, so it silences output.
type LogLevel int

const (
	LevelTrace LogLevel = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
	LevelQuiet
)

func (l LogLevel) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	case LevelQuiet:
		return "QUIET"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// ParseLogLevel maps a level name, as used by LOG_LEVEL, to a LogLevel.
func ParseLogLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical", "fatal":
		return LevelFatal, nil
	case "quiet":
		return LevelQuiet, nil
	}
	return LevelInfo, errors.New(fmt.Sprintf("unknown log level %q", name), errors.CategoryBadInput).
		WithTextCode("LOG_LEVEL_INVALID")
}

var levelColors = map[LogLevel]*color.Color{
	LevelTrace: color.New(color.FgHiBlack),
	LevelDebug: color.New(color.FgCyan),
	LevelInfo:  color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow),
	LevelError: color.New(color.FgRed),
	LevelFatal: color.New(color.FgHiRed, color.Bold),
}

// StdLoggerOption customises the behaviour of the default logger.
type StdLoggerOption func(*stdLoggerProvider)

// WithStdLoggerWriter overrides the destination for log lines.
func WithStdLoggerWriter(w io.Writer) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		if w != nil {
			p.writer = w
		}
	}
}

// WithStdLoggerMinLevel changes the minimum level emitted by the logger.
func WithStdLoggerMinLevel(level LogLevel) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		p.minLevel = level
	}
}

// WithStdLoggerTimestampFunc overrides the time source used for log entries.
func WithStdLoggerTimestampFunc(fn func() time.Time) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		if fn != nil {
			p.now = fn
		}
	}
}

// WithStdLoggerColor enables coloured level tags.
func WithStdLoggerColor(enabled bool) StdLoggerOption {
	return func(p *stdLoggerProvider) {
		p.color = enabled
	}
}

// NewStdLoggerProvider returns a lightweight logger provider that writes
// log lines to the supplied writer. By default it discards output.
func NewStdLoggerProvider(opts ...StdLoggerOption) LoggerProvider {
	return newStdLoggerProvider(opts...)
}

type stdLoggerProvider struct {
	mu       sync.Mutex
	writer   io.Writer
	minLevel LogLevel
	now      func() time.Time
	color    bool
}

func newStdLoggerProvider(opts ...StdLoggerOption) *stdLoggerProvider {
	provider := &stdLoggerProvider{
		writer:   io.Discard,
		minLevel: LevelInfo,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}
	return provider
}

func (p *stdLoggerProvider) GetLogger(name string) Logger {
	return &stdLogger{
		provider: p,
		name:     name,
		ctx:      context.Background(),
		fields:   map[string]any{},
	}
}

type stdLogger struct {
	provider *stdLoggerProvider
	name     string
	fields   map[string]any
	ctx      context.Context
}

func (l *stdLogger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *stdLogger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *stdLogger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *stdLogger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *stdLogger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }
func (l *stdLogger) Fatal(msg string, args ...any) { l.log(LevelFatal, msg, args...) }

func (l *stdLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		ctx = context.Background()
	}
	return &stdLogger{
		provider: l.provider,
		name:     l.name,
		fields:   cloneFields(l.fields),
		ctx:      ctx,
	}
}

func (l *stdLogger) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return l
	}
	merged := cloneFields(l.fields)
	for k, v := range fields {
		merged[k] = v
	}
	return &stdLogger{
		provider: l.provider,
		name:     l.name,
		fields:   merged,
		ctx:      l.ctx,
	}
}

func (l *stdLogger) log(level LogLevel, msg string, args ...any) {
	if l == nil || l.provider == nil {
		return
	}

	fields := make([]string, 0, len(l.fields)+(len(args)+1)/2)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for key := range l.fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fields = append(fields, fmt.Sprintf("%s=%v", key, l.fields[key]))
		}
	}

	pairs := len(args) - len(args)%2
	for i := 0; i < pairs; i += 2 {
		fields = append(fields, fmt.Sprintf("%v=%v", args[i], args[i+1]))
	}

	if len(args)%2 == 1 {
		// Preserve the dangling value so tooling can surface the mismatch.
		last := args[len(args)-1]
		fields = append(fields, fmt.Sprintf("extra_arg=%v", last))
	}

	l.provider.write(level, l.name, msg, fields)
}

func (p *stdLoggerProvider) write(level LogLevel, name, msg string, fields []string) {
	if p == nil || p.writer == nil {
		return
	}

	if level < p.minLevel {
		return
	}

	timestamp := p.now().Format(time.RFC3339Nano)

	var sb strings.Builder
	sb.Grow(64 + len(msg) + len(fields)*12)

	sb.WriteString(timestamp)
	sb.WriteString(" - ")
	if name != "" {
		sb.WriteString(name)
		sb.WriteString(" - ")
	}
	if c, ok := levelColors[level]; ok && p.color {
		sb.WriteString(c.Sprint(level.String()))
	} else {
		sb.WriteString(level.String())
	}
	if msg != "" {
		sb.WriteString(" - ")
		sb.WriteString(msg)
	}
	if len(fields) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(fields, " "))
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintln(p.writer, sb.String())
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

// LevelFilterProvider drops messages below level before they reach the
// loggers produced by provider.
func LevelFilterProvider(provider LoggerProvider, level LogLevel) LoggerProvider {
	if provider == nil {
		return nil
	}
	return &levelFilterProvider{provider: provider, level: level}
}

type levelFilterProvider struct {
	provider LoggerProvider
	level    LogLevel
}

func (p *levelFilterProvider) GetLogger(name string) Logger {
	return &levelFilterLogger{logger: p.provider.GetLogger(name), level: p.level}
}

type levelFilterLogger struct {
	logger Logger
	level  LogLevel
}

func (l *levelFilterLogger) enabled(level LogLevel) bool { return level >= l.level }

func (l *levelFilterLogger) Trace(msg string, args ...any) {
	if l.enabled(LevelTrace) {
		l.logger.Trace(msg, args...)
	}
}

func (l *levelFilterLogger) Debug(msg string, args ...any) {
	if l.enabled(LevelDebug) {
		l.logger.Debug(msg, args...)
	}
}

func (l *levelFilterLogger) Info(msg string, args ...any) {
	if l.enabled(LevelInfo) {
		l.logger.Info(msg, args...)
	}
}

func (l *levelFilterLogger) Warn(msg string, args ...any) {
	if l.enabled(LevelWarn) {
		l.logger.Warn(msg, args...)
	}
}

func (l *levelFilterLogger) Error(msg string, args ...any) {
	if l.enabled(LevelError) {
		l.logger.Error(msg, args...)
	}
}

func (l *levelFilterLogger) Fatal(msg string, args ...any) {
	if l.enabled(LevelFatal) {
		l.logger.Fatal(msg, args...)
	}
}

func (l *levelFilterLogger) WithContext(ctx context.Context) Logger {
	return &levelFilterLogger{logger: l.logger.WithContext(ctx), level: l.level}
}

func (l *levelFilterLogger) WithFields(fields map[string]any) Logger {
	if fl, ok := l.logger.(FieldsLogger); ok {
		return &levelFilterLogger{logger: fl.WithFields(fields), level: l.level}
	}
	return l
}

// scopedLogger attaches fields when the logger supports them.
func scopedLogger(logger Logger, fields map[string]any) Logger {
	if fl, ok := logger.(FieldsLogger); ok {
		return fl.WithFields(fields)
	}
	return logger
}
