package task

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/process"
	"github.com/dop251/goja_nodejs/require"
	"github.com/go-viper/mapstructure/v2"
	"github.com/goliatone/go-errors"
)

// JSLoader registers tasks declared by __task__.js files. A file must
// define configure(builder); tasks are added with
//
//	builder.addTask(module, name, fn, deps)
//
// where deps is a list of names or an object {deps: [...]}. Task
// functions receive a context object and may return a number, the result
// of ctx.exec, or an object with a returnCode field.
//
// Each file gets its own runtime. Runtimes are not safe for concurrent
// use, so tasks from one file must not run in parallel.
type JSLoader struct {
	loaderBase
	moduleLoader require.SourceLoader
	globals      map[string]any
}

var _ Loader = &JSLoader{}

func NewJSLoader(opts ...JSOption) *JSLoader {
	l := &JSLoader{
		loaderBase:   newLoaderBase("javascript"),
		moduleLoader: require.DefaultSourceLoader,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

type jsTaskOptions struct {
	Deps []string `mapstructure:"deps"`
}

type jsExecOptions struct {
	Cwd       string            `mapstructure:"cwd"`
	Env       map[string]string `mapstructure:"env"`
	Toolchain string            `mapstructure:"toolchain"`
	Capture   bool              `mapstructure:"capture"`
	Input     *string           `mapstructure:"input"`
}

func (l *JSLoader) CanHandle(path string) bool {
	return filepath.Base(path) == JSTaskFile
}

func (l *JSLoader) Load(ctx context.Context, script ScriptInfo, b *Builder) error {
	content, err := contentOf(ctx, script, os.ReadFile)
	if err != nil {
		return err
	}

	vm, err := l.newRuntime(script.Path)
	if err != nil {
		return newLoadError(err, script.Path, "failed to configure the javascript runtime")
	}

	stop := interruptOnDone(ctx, vm)
	defer stop()

	if _, err := vm.RunScript(script.Path, string(content)); err != nil {
		return newLoadError(err, script.Path, "failed to evaluate task file")
	}

	configure, ok := goja.AssertFunction(vm.Get("configure"))
	if !ok {
		l.logger.Trace("task file defines no configure function", "path", script.Path)
		return nil
	}

	var configErr error
	builder := vm.NewObject()
	_ = builder.Set("dir", b.Dir())
	_ = builder.Set("addTask", func(call goja.FunctionCall) goja.Value {
		if err := l.addTask(vm, b, call); err != nil {
			if configErr == nil {
				configErr = err
			}
			panic(vm.NewGoError(err))
		}
		return goja.Undefined()
	})

	if _, err := configure(goja.Undefined(), builder); err != nil {
		if configErr != nil {
			return configErr
		}
		return newLoadError(err, script.Path, "configure failed")
	}
	return nil
}

func (l *JSLoader) newRuntime(path string) (*goja.Runtime, error) {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	registry := require.NewRegistry(require.WithLoader(l.moduleLoader))
	registry.Enable(vm)
	console.Enable(vm)
	process.Enable(vm)

	globals := map[string]any{
		"__filename": path,
		"__dirname":  filepath.Dir(path),
	}
	for k, v := range l.globals {
		globals[k] = v
	}
	for k, v := range globals {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}
	return vm, nil
}

func (l *JSLoader) addTask(vm *goja.Runtime, b *Builder, call goja.FunctionCall) error {
	module := stringArg(call.Argument(0))
	name := stringArg(call.Argument(1))

	fn, ok := goja.AssertFunction(call.Argument(2))
	if !ok {
		return NewConfigurationError(name, fmt.Sprintf("task %s: body must be a function", name)).
			WithMetadata(map[string]any{"file": b.File()})
	}

	deps, err := decodeDeps(call.Argument(3))
	if err != nil {
		return NewConfigurationError(name, fmt.Sprintf("task %s: invalid deps: %v", name, err)).
			WithMetadata(map[string]any{"file": b.File()})
	}

	body := func(ctx context.Context, tc *ExecutionContext) any {
		stop := interruptOnDone(ctx, vm)
		defer stop()

		ret, err := fn(goja.Undefined(), l.contextObject(ctx, vm, tc))
		if err != nil {
			var interrupted *goja.InterruptedError
			if errors.As(err, &interrupted) {
				return nil
			}
			return errors.Wrap(err, errors.CategoryExternal, "javascript task failed").
				WithTextCode("TASK_JS_ERROR").
				WithMetadata(map[string]any{"task": name, "file": b.File()})
		}
		return exportResult(ret)
	}

	l.logger.Trace("javascript task loaded", "task", name, "path", b.File())
	return b.AddTask(module, name, body, deps...)
}

func (l *JSLoader) contextObject(ctx context.Context, vm *goja.Runtime, tc *ExecutionContext) *goja.Object {
	obj := vm.NewObject()
	_ = obj.Set("rootDir", tc.RootDir)
	_ = obj.Set("projectDir", tc.ProjectDir)
	_ = obj.Set("runId", tc.RunID)
	_ = obj.Set("system", tc.System)
	_ = obj.Set("path", tc.Path)

	args := vm.NewObject()
	for key, value := range tc.Args {
		if value == nil {
			_ = args.Set(key, goja.Null())
			continue
		}
		_ = args.Set(key, *value)
	}
	_ = obj.Set("args", args)

	log := vm.NewObject()
	for level, emit := range map[string]func(string, ...any){
		"trace": tc.Log.Trace,
		"debug": tc.Log.Debug,
		"info":  tc.Log.Info,
		"warn":  tc.Log.Warn,
		"error": tc.Log.Error,
	} {
		emit := emit
		_ = log.Set(level, func(call goja.FunctionCall) goja.Value {
			emit(joinValues(call.Arguments))
			return goja.Undefined()
		})
	}
	_ = obj.Set("log", log)

	_ = obj.Set("exec", func(call goja.FunctionCall) goja.Value {
		var opts jsExecOptions
		if raw := call.Argument(1); !goja.IsUndefined(raw) && !goja.IsNull(raw) {
			if err := decodeStrict(raw.Export(), &opts); err != nil {
				panic(vm.NewTypeError("exec: invalid options: %v", err))
			}
		}

		execOpts := []ExecOption{
			WithDir(resolveDir(tc.ProjectDir, opts.Cwd)),
			WithEnv(opts.Env),
			WithCapture(opts.Capture),
		}
		if opts.Toolchain != "" {
			execOpts = append(execOpts, WithToolchain(resolveDir(tc.ProjectDir, opts.Toolchain)))
		}
		if opts.Input != nil {
			execOpts = append(execOpts, WithInput(*opts.Input))
		}
		return vm.ToValue(tc.Exec(ctx, stringArg(call.Argument(0)), execOpts...))
	})

	return obj
}

// interruptOnDone stops vm when ctx is cancelled. The returned func
// detaches the watcher and clears any pending interrupt.
func interruptOnDone(ctx context.Context, vm *goja.Runtime) func() {
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	return func() {
		stop()
		vm.ClearInterrupt()
	}
}

func decodeDeps(value goja.Value) ([]string, error) {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil, nil
	}

	switch raw := value.Export().(type) {
	case map[string]any:
		var opts jsTaskOptions
		if err := decodeStrict(raw, &opts); err != nil {
			return nil, err
		}
		return opts.Deps, nil
	default:
		var deps []string
		if err := decodeStrict(raw, &deps); err != nil {
			return nil, err
		}
		return deps, nil
	}
}

func decodeStrict(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      output,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

func exportResult(value goja.Value) any {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return nil
	}

	switch v := value.Export().(type) {
	case ProcessResult, *ProcessResult:
		return v
	case int64:
		return int(v)
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return int(v)
		}
	case map[string]any:
		if _, ok := v["returnCode"]; !ok {
			return nil
		}
		var result ProcessResult
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &result,
			TagName:          "json",
			WeaklyTypedInput: true,
		})
		if err == nil && decoder.Decode(v) == nil {
			return result
		}
	}
	return nil
}

func stringArg(value goja.Value) string {
	if value == nil || goja.IsUndefined(value) || goja.IsNull(value) {
		return ""
	}
	return value.String()
}

func joinValues(values []goja.Value) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, stringArg(v))
	}
	return strings.Join(parts, " ")
}
