package task

import "github.com/dop251/goja_nodejs/require"

// JSOption configures a JSLoader.
type JSOption func(*JSLoader)

// WithJSModuleLoader sets how require() reads module sources.
func WithJSModuleLoader(loader require.SourceLoader) JSOption {
	return func(l *JSLoader) {
		if loader != nil {
			l.moduleLoader = loader
		}
	}
}

// WithJSGlobal defines a global value in every task file runtime.
func WithJSGlobal(name string, value any) JSOption {
	return func(l *JSLoader) {
		if name == "" {
			return
		}
		if l.globals == nil {
			l.globals = map[string]any{}
		}
		l.globals[name] = value
	}
}
