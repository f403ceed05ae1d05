package task

import (
	"context"
	"path/filepath"
	"strings"
)

// Task definition file names recognised by the default loaders.
const (
	YAMLTaskFile      = "__task__.yml"
	YAMLAltTaskFile   = "__task__.yaml"
	JSTaskFile        = "__task__.js"
	ScriptTaskSuffix  = ".task.sh"
	DefaultTaskModule = "task"
)

// DefaultLoaders returns the YAML, JavaScript and shell script loaders.
func DefaultLoaders() []Loader {
	return []Loader{
		NewYAMLLoader(),
		NewJSLoader(),
		NewScriptLoader(),
	}
}

// IsTaskFile reports whether path follows one of the task file naming
// conventions.
func IsTaskFile(path string) bool {
	base := filepath.Base(path)
	switch base {
	case YAMLTaskFile, YAMLAltTaskFile, JSTaskFile:
		return true
	}
	return strings.HasSuffix(base, ScriptTaskSuffix) && base != ScriptTaskSuffix
}

// moduleFor derives a logger module name for file relative to its
// directory, e.g. "tools" for tools/__task__.yml.
func moduleFor(dir string) string {
	name := filepath.Base(dir)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return DefaultTaskModule
	}
	return name
}

type loaderBase struct {
	name   string
	logger Logger
}

func newLoaderBase(name string) loaderBase {
	return loaderBase{name: name, logger: NewStdLoggerProvider().GetLogger("task:loader:" + name)}
}

func (l *loaderBase) Name() string { return l.name }

func (l *loaderBase) SetLogger(logger Logger) {
	if logger != nil {
		l.logger = logger
	}
}

// contentOf returns the script content, reading it from disk when the
// provider did not include it.
func contentOf(ctx context.Context, script ScriptInfo, read func(string) ([]byte, error)) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if script.Content != nil {
		return script.Content, nil
	}
	content, err := read(script.Path)
	if err != nil {
		return nil, newLoadError(err, script.Path, "failed to read task file")
	}
	return content, nil
}
