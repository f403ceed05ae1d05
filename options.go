package task

import "io"

// Option configures a Runner.
type Option func(*Runner)

// WithRootDir sets the directory tasks are discovered from and that
// contexts report as RootDir.
func WithRootDir(path string) Option {
	return func(r *Runner) {
		if path != "" {
			r.rootDir = path
		}
	}
}

// WithRegistry replaces the in-memory registry.
func WithRegistry(registry Registry) Option {
	return func(r *Runner) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// WithLoggerProvider sets the provider used for the runner, loaders and
// module loggers.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(r *Runner) {
		if provider != nil {
			r.loggerProvider = provider
		}
	}
}

// WithPlugin registers a Go plugin as if it were defined in file within dir.
func WithPlugin(dir, file string, plugin Plugin) Option {
	return func(r *Runner) {
		if plugin != nil {
			r.plugins = append(r.plugins, pluginSource{dir: dir, file: file, plugin: plugin})
		}
	}
}

// WithSourceProvider adds a provider of task definition files.
func WithSourceProvider(provider SourceProvider) Option {
	return func(r *Runner) {
		if provider != nil {
			r.sources = append(r.sources, provider)
		}
	}
}

// WithLoaders replaces the default loaders.
func WithLoaders(loaders ...Loader) Option {
	return func(r *Runner) {
		r.loaders = append([]Loader(nil), loaders...)
	}
}

// WithOutput sets where the usage listing is written.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.output = w
		}
	}
}

// WithSystemProbe replaces the host inspection used for contexts.
func WithSystemProbe(probe func() SystemContext) Option {
	return func(r *Runner) {
		if probe != nil {
			r.probe = probe
		}
	}
}

// WithRunID tags every task logger of the run.
func WithRunID(id string) Option {
	return func(r *Runner) {
		r.runID = id
	}
}

// WithExecutorOptions passes options to every executor bound to a context.
func WithExecutorOptions(opts ...ExecutorOption) Option {
	return func(r *Runner) {
		r.executorOptions = append(r.executorOptions, opts...)
	}
}

// WithTaskEventHandler registers a callback for task lifecycle events.
func WithTaskEventHandler(handler TaskEventHandler) Option {
	return func(r *Runner) {
		if handler != nil {
			r.taskEventHandlers = append(r.taskEventHandlers, handler)
		}
	}
}
