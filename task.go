package task

import (
	"context"
)

// TaskFunc is the body of a task. The returned value is its status:
// nil, an int exit code, a ProcessResult (or pointer to one), or an error.
// Any other value leaves the run's exit code unchanged.
type TaskFunc func(ctx context.Context, tc *ExecutionContext) any

// Descriptor is a registered task.
type Descriptor struct {
	Name   string
	Module string
	Dir    string
	File   string
	Deps   []string
	Func   TaskFunc
}

// Plugin registers tasks through a Builder.
type Plugin interface {
	Configure(b *Builder) error
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(b *Builder) error

// Configure implements Plugin.
func (f PluginFunc) Configure(b *Builder) error {
	return f(b)
}

// SourceProvider lists task definition files.
type SourceProvider interface {
	GetScript(path string) (content []byte, err error)
	ListScripts(ctx context.Context) ([]ScriptInfo, error)
}

// ScriptInfo is a discovered task definition file.
type ScriptInfo struct {
	ID      string
	Path    string
	Content []byte
}

// Loader turns a task definition file into task registrations.
type Loader interface {
	Name() string
	CanHandle(path string) bool
	Load(ctx context.Context, script ScriptInfo, b *Builder) error
}
