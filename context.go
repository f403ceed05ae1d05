package task

import (
	"context"
	"path/filepath"
)

// ExecutionContext is handed to a task body.
type ExecutionContext struct {
	RootDir    string
	ProjectDir string
	Log        Logger
	System     SystemContext
	Args       Args
	RunID      string

	executor Executor
}

var _ Executor = &ExecutionContext{}

// Exec runs command through the executor bound to this context's logger.
func (c *ExecutionContext) Exec(ctx context.Context, command string, opts ...ExecOption) ProcessResult {
	return c.executor.Exec(ctx, command, opts...)
}

// Path joins elem onto the project directory.
func (c *ExecutionContext) Path(elem ...string) string {
	return filepath.Join(append([]string{c.ProjectDir}, elem...)...)
}

// ContextBuilder assembles execution contexts for one run.
type ContextBuilder struct {
	rootDir         string
	runID           string
	loggerProvider  LoggerProvider
	probe           func() SystemContext
	executorOptions []ExecutorOption
}

// ContextBuilderOption configures a ContextBuilder.
type ContextBuilderOption func(*ContextBuilder)

// WithContextRunID tags task loggers with run_id.
func WithContextRunID(id string) ContextBuilderOption {
	return func(b *ContextBuilder) {
		b.runID = id
	}
}

// WithContextLoggerProvider sets the provider used for module loggers.
func WithContextLoggerProvider(provider LoggerProvider) ContextBuilderOption {
	return func(b *ContextBuilder) {
		if provider != nil {
			b.loggerProvider = provider
		}
	}
}

// WithContextSystemProbe replaces the host inspection.
func WithContextSystemProbe(probe func() SystemContext) ContextBuilderOption {
	return func(b *ContextBuilder) {
		if probe != nil {
			b.probe = probe
		}
	}
}

// WithContextExecutorOptions passes options to every bound executor.
func WithContextExecutorOptions(opts ...ExecutorOption) ContextBuilderOption {
	return func(b *ContextBuilder) {
		b.executorOptions = append(b.executorOptions, opts...)
	}
}

// NewContextBuilder returns a builder rooted at rootDir, the directory of
// the entry point.
func NewContextBuilder(rootDir string, opts ...ContextBuilderOption) *ContextBuilder {
	if abs, err := filepath.Abs(rootDir); err == nil {
		rootDir = abs
	}

	b := &ContextBuilder{
		rootDir:        rootDir,
		loggerProvider: NewStdLoggerProvider(),
		probe:          ProbeSystem,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Build creates the context for one invocation of desc. args are the
// arguments parsed for this invocation; when a task was requested more
// than once in a run, the caller passes the last parsed set.
func (b *ContextBuilder) Build(desc *Descriptor, args Args) *ExecutionContext {
	fields := map[string]any{"task": desc.Name}
	if b.runID != "" {
		fields["run_id"] = b.runID
	}
	logger := scopedLogger(b.loggerProvider.GetLogger(desc.Module), fields)

	if args == nil {
		args = Args{}
	}

	opts := append([]ExecutorOption{}, b.executorOptions...)
	opts = append(opts, WithExecutorLogger(logger))

	return &ExecutionContext{
		RootDir:    b.rootDir,
		ProjectDir: desc.Dir,
		Log:        logger,
		System:     b.probe(),
		Args:       args,
		RunID:      b.runID,
		executor:   NewProcessExecutor(opts...),
	}
}
