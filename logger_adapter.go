package task

import (
	"context"
	"sort"

	"github.com/goliatone/go-logger/glog"
)

// NewPrettyLoggerProvider builds a go-logger backed provider with
// human-friendly output. go-logger is configured at its most verbose
// level and the task level ordering is applied on top, so LevelQuiet and
// the trace level behave the same as with the std provider.
func NewPrettyLoggerProvider(name string, level LogLevel) LoggerProvider {
	root := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Trace),
		glog.WithName(name),
	)
	return LevelFilterProvider(GoLoggerProvider(baseLoggerProvider{root: root}), level)
}

type baseLoggerProvider struct {
	root *glog.BaseLogger
}

func (p baseLoggerProvider) GetLogger(name string) glog.Logger {
	return p.root.GetLogger(name)
}

// GoLoggerProvider converts a go-logger provider into the task LoggerProvider contract.
func GoLoggerProvider(provider glog.LoggerProvider) LoggerProvider {
	if provider == nil {
		return nil
	}
	return &goLoggerProviderAdapter{provider: provider}
}

// GoLogger wraps a go-logger Logger into the task Logger contract.
func GoLogger(logger glog.Logger) Logger {
	if logger == nil {
		return nil
	}
	return &goLoggerAdapter{logger: logger}
}

type goLoggerProviderAdapter struct {
	provider glog.LoggerProvider
}

func (g *goLoggerProviderAdapter) GetLogger(name string) Logger {
	return GoLogger(g.provider.GetLogger(name))
}

type goLoggerAdapter struct {
	logger glog.Logger
}

func (g *goLoggerAdapter) Trace(msg string, args ...any) { g.logger.Trace(msg, args...) }
func (g *goLoggerAdapter) Debug(msg string, args ...any) { g.logger.Debug(msg, args...) }
func (g *goLoggerAdapter) Info(msg string, args ...any)  { g.logger.Info(msg, args...) }
func (g *goLoggerAdapter) Warn(msg string, args ...any)  { g.logger.Warn(msg, args...) }
func (g *goLoggerAdapter) Error(msg string, args ...any) { g.logger.Error(msg, args...) }
func (g *goLoggerAdapter) Fatal(msg string, args ...any) { g.logger.Fatal(msg, args...) }

func (g *goLoggerAdapter) WithContext(ctx context.Context) Logger {
	return &goLoggerAdapter{logger: g.logger.WithContext(ctx)}
}

// WithFields forwards sorted key/value pairs to loggers exposing With.
func (g *goLoggerAdapter) WithFields(fields map[string]any) Logger {
	if len(fields) == 0 {
		return g
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]any, 0, len(fields)*2)
	for _, key := range keys {
		pairs = append(pairs, key, fields[key])
	}

	switch l := g.logger.(type) {
	case interface{ With(args ...any) glog.Logger }:
		return &goLoggerAdapter{logger: l.With(pairs...)}
	case interface{ With(args ...any) *glog.BaseLogger }:
		return &goLoggerAdapter{logger: l.With(pairs...)}
	}

	return g
}
