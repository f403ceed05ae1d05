package task

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goliatone/go-errors"
)

type pluginSource struct {
	dir    string
	file   string
	plugin Plugin
}

// Runner loads task definitions into a registry and runs invocations
// against it.
type Runner struct {
	rootDir  string
	registry Registry

	plugins []pluginSource
	sources []SourceProvider
	loaders []Loader

	logger            Logger
	loggerProvider    LoggerProvider
	probe             func() SystemContext
	executorOptions   []ExecutorOption
	output            io.Writer
	runID             string
	taskEventHandlers []TaskEventHandler
}

// NewRunner returns a runner rooted at the working directory unless
// WithRootDir says otherwise.
func NewRunner(opts ...Option) *Runner {
	rn := &Runner{
		registry:       NewMemoryRegistry(),
		loggerProvider: newStdLoggerProvider(),
		probe:          ProbeSystem,
		output:         os.Stdout,
		loaders:        DefaultLoaders(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(rn)
		}
	}

	if rn.rootDir == "" {
		if wd, err := os.Getwd(); err == nil {
			rn.rootDir = wd
		}
	}
	if abs, err := filepath.Abs(rn.rootDir); err == nil {
		rn.rootDir = abs
	}

	rn.logger = rn.loggerProvider.GetLogger("task:runner")
	for _, loader := range rn.loaders {
		if la, ok := loader.(LoggerAware); ok {
			la.SetLogger(rn.loggerProvider.GetLogger("task:loader:" + loader.Name()))
		}
	}

	return rn
}

// RootDir returns the absolute root directory of the run.
func (r *Runner) RootDir() string {
	return r.rootDir
}

// Registry exposes the registry populated by Load.
func (r *Runner) Registry() Registry {
	return r.registry
}

// Load configures every plugin and every discovered task file. A
// configuration error aborts loading; other per-file failures are reported
// and the file is skipped.
func (r *Runner) Load(ctx context.Context) error {
	for _, src := range r.plugins {
		b := NewBuilder(src.dir, src.file)
		if err := src.plugin.Configure(b); err != nil {
			return r.loadFailed(src.file, err)
		}
		r.register(b.Tasks())
	}

	for _, provider := range r.sources {
		if err := ctx.Err(); err != nil {
			return err
		}

		scripts, err := provider.ListScripts(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to list task files")
		}

		for _, script := range scripts {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.loadScript(ctx, script); err != nil {
				return err
			}
		}
	}

	return nil
}

func (r *Runner) loadScript(ctx context.Context, script ScriptInfo) error {
	loader := r.loaderFor(script.Path)
	if loader == nil {
		r.logger.Trace("no loader for file", "path", script.Path)
		return nil
	}

	file := script.Path
	if !filepath.IsAbs(file) {
		file = filepath.Join(r.rootDir, file)
	}
	b := NewBuilder(filepath.Dir(file), file)

	if err := loader.Load(ctx, script, b); err != nil {
		if IsConfigurationError(err) {
			return r.loadFailed(file, err)
		}
		r.logger.Warn("failed to load task file", "path", script.Path, "loader", loader.Name(), "error", err)
		r.emitTaskEvent(TaskEvent{Type: TaskEventRegistrationFailed, File: file, Err: err})
		return nil
	}

	r.register(b.Tasks())
	return nil
}

func (r *Runner) loaderFor(path string) Loader {
	for _, loader := range r.loaders {
		if loader.CanHandle(path) {
			return loader
		}
	}
	return nil
}

func (r *Runner) loadFailed(file string, err error) error {
	r.emitTaskEvent(TaskEvent{Type: TaskEventRegistrationFailed, File: file, Err: err})
	return err
}

func (r *Runner) register(tasks []*Descriptor) {
	for _, desc := range tasks {
		if r.registry.Add(desc) {
			r.logger.Debug("task replaced by later registration", "task", desc.Name, "file", desc.File)
		}
		r.emitTaskEvent(TaskEvent{Type: TaskEventRegistered, Task: desc.Name, File: desc.File})
	}
}

// Usage writes the task listing to the runner output.
func (r *Runner) Usage() error {
	return PrintUsage(r.output, r.registry.Names())
}

// Run executes invocations of the form name or name[args]. Repeated names
// collapse into one entry at the first position carrying the last args.
// The returned code is the exit status for the process.
func (r *Runner) Run(ctx context.Context, invocations []string) (int, error) {
	names, args := collapseInvocations(invocations)

	if len(names) == 0 {
		return 0, r.Usage()
	}

	var unknown []string
	for _, name := range names {
		if _, ok := r.registry.Get(name); !ok {
			r.logger.Error(fmt.Sprintf("Unknown task: %s", name))
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		if err := r.Usage(); err != nil {
			r.logger.Warn("failed to print usage", "error", err)
		}
		return 0, NewUnknownTaskError(unknown...)
	}

	order, err := Resolve(names, r.registry.Graph())
	if err != nil {
		r.logger.Error("failed to resolve tasks", "error", err)
		return 1, err
	}

	builder := NewContextBuilder(r.rootDir,
		WithContextRunID(r.runID),
		WithContextLoggerProvider(r.loggerProvider),
		WithContextSystemProbe(r.probe),
		WithContextExecutorOptions(r.executorOptions...),
	)

	code := 0
	for i, name := range order {
		desc, ok := r.registry.Get(name)
		if !ok {
			continue
		}

		if ctx.Err() != nil {
			r.skip(order[i:])
			break
		}

		r.emitTaskEvent(TaskEvent{Type: TaskEventStarted, Task: name, File: desc.File})
		ret := r.invoke(ctx, desc, builder.Build(desc, args[name]))

		if ctx.Err() != nil {
			r.logger.Warn("task interrupted", "task", name)
			r.emitTaskEvent(TaskEvent{Type: TaskEventInterrupted, Task: name, File: desc.File, Err: ctx.Err()})
			r.skip(order[i+1:])
			break
		}

		if taskErr, failed := ret.(error); failed && taskErr != nil {
			r.logger.Error("task failed", "task", name, "error", taskErr)
			r.emitTaskEvent(TaskEvent{Type: TaskEventCompleted, Task: name, File: desc.File, ExitCode: 1, Err: taskErr})
			r.skip(order[i+1:])
			return 1, taskErr
		}

		if c, ok := exitCodeFrom(ret); ok {
			code = c
		}
		r.emitTaskEvent(TaskEvent{Type: TaskEventCompleted, Task: name, File: desc.File, ExitCode: code})
	}

	return code, nil
}

func (r *Runner) invoke(ctx context.Context, desc *Descriptor, tc *ExecutionContext) (ret any) {
	defer func() {
		if rec := recover(); rec != nil {
			ret = errors.New(fmt.Sprintf("task %q panicked: %v", desc.Name, rec), errors.CategoryInternal).
				WithTextCode("TASK_PANIC").
				WithMetadata(map[string]any{"task": desc.Name})
		}
	}()
	return desc.Func(ctx, tc)
}

func (r *Runner) skip(names []string) {
	for _, name := range names {
		if _, ok := r.registry.Get(name); ok {
			r.emitTaskEvent(TaskEvent{Type: TaskEventSkipped, Task: name})
		}
	}
}

func (r *Runner) emitTaskEvent(event TaskEvent) {
	switch event.Type {
	case TaskEventRegistered:
		r.logger.Trace("task registered", "task", event.Task, "file", event.File)
	case TaskEventStarted:
		r.logger.Debug("running task", "task", event.Task)
	case TaskEventSkipped:
		r.logger.Debug("task skipped", "task", event.Task)
	}

	for _, handler := range r.taskEventHandlers {
		handler(event)
	}
}

func collapseInvocations(invocations []string) ([]string, map[string]Args) {
	names := make([]string, 0, len(invocations))
	args := make(map[string]Args, len(invocations))
	for _, invocation := range invocations {
		name, parsed := SplitInvocation(invocation)
		if name == "" {
			continue
		}
		if _, seen := args[name]; !seen {
			names = append(names, name)
		}
		args[name] = parsed
	}
	return names, args
}

// exitCodeFrom maps a task return value to an exit code. ok is false when
// the value carries no status and the current code should be kept.
func exitCodeFrom(ret any) (code int, ok bool) {
	switch v := ret.(type) {
	case ProcessResult:
		return v.ReturnCode, true
	case *ProcessResult:
		if v != nil {
			return v.ReturnCode, true
		}
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
