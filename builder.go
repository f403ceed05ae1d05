package task

import (
	"fmt"
	"path/filepath"
)

// Builder collects the tasks declared by one task definition file.
type Builder struct {
	dir   string
	file  string
	tasks []*Descriptor
}

// NewBuilder returns a builder for tasks owned by file. dir is the
// project directory handed to those tasks.
func NewBuilder(dir, file string) *Builder {
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &Builder{dir: dir, file: file}
}

// Dir returns the project directory of the tasks being built.
func (b *Builder) Dir() string {
	return b.dir
}

// File returns the declaring file.
func (b *Builder) File() string {
	return b.file
}

// AddTask registers fn under name. module labels the task logger. deps
// is copied, so later changes by the caller do not leak into the
// registration.
func (b *Builder) AddTask(module, name string, fn TaskFunc, deps ...string) error {
	if name == "" {
		return NewConfigurationError(name, "task name is required").
			WithMetadata(map[string]any{"file": b.file})
	}
	if module == "" {
		return NewConfigurationError(name, "task module is required").
			WithMetadata(map[string]any{"file": b.file})
	}
	if fn == nil {
		return NewConfigurationError(name, fmt.Sprintf("task %s has no body", name)).
			WithMetadata(map[string]any{"file": b.file})
	}

	copied := make([]string, 0, len(deps))
	for i, dep := range deps {
		if dep == "" {
			return NewConfigurationError(name, fmt.Sprintf("task %s: dependency %d is empty", name, i)).
				WithMetadata(map[string]any{"file": b.file})
		}
		copied = append(copied, dep)
	}

	b.tasks = append(b.tasks, &Descriptor{
		Name:   name,
		Module: module,
		Dir:    b.dir,
		File:   b.file,
		Deps:   copied,
		Func:   fn,
	})
	return nil
}

// Tasks returns the registrations in declaration order.
func (b *Builder) Tasks() []*Descriptor {
	out := make([]*Descriptor, len(b.tasks))
	copy(out, b.tasks)
	return out
}
