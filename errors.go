package task

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

// Text codes attached to the errors produced by this package.
const (
	TextCodeCycle         = "TASK_CYCLE"
	TextCodeConfiguration = "TASK_CONFIGURATION"
	TextCodeUnknownTask   = "TASK_UNKNOWN"
	TextCodeLoad          = "TASK_LOAD"
)

// NewCycleError reports a circular dependency detected while expanding name.
func NewCycleError(name string) *errors.Error {
	return errors.New(fmt.Sprintf("circular dependency detected at task %q", name), errors.CategoryValidation).
		WithTextCode(TextCodeCycle).
		WithMetadata(map[string]any{
			"task": name,
		})
}

// NewConfigurationError reports a malformed task registration.
func NewConfigurationError(name, message string) *errors.Error {
	return errors.New(message, errors.CategoryBadInput).
		WithTextCode(TextCodeConfiguration).
		WithMetadata(map[string]any{
			"task": name,
		})
}

// NewUnknownTaskError reports requested task names missing from the registry.
func NewUnknownTaskError(names ...string) *errors.Error {
	return errors.New(fmt.Sprintf("unknown task: %v", names), errors.CategoryNotFound).
		WithTextCode(TextCodeUnknownTask).
		WithMetadata(map[string]any{
			"tasks": names,
		})
}

func newLoadError(err error, path, message string) *errors.Error {
	return errors.Wrap(err, errors.CategoryExternal, message).
		WithTextCode(TextCodeLoad).
		WithMetadata(map[string]any{
			"file": path,
		})
}

// IsCycleError reports whether err was produced by the dependency resolver.
func IsCycleError(err error) bool {
	return hasTextCode(err, TextCodeCycle)
}

// IsConfigurationError reports whether err is a registration failure.
func IsConfigurationError(err error) bool {
	return hasTextCode(err, TextCodeConfiguration)
}

// IsUnknownTaskError reports whether err names tasks absent from the registry.
func IsUnknownTaskError(err error) bool {
	return hasTextCode(err, TextCodeUnknownTask)
}

// IsLoadError reports whether err is a task file that could not be read or evaluated.
func IsLoadError(err error) bool {
	return hasTextCode(err, TextCodeLoad)
}

// CycleTask returns the task named by a cycle error.
func CycleTask(err error) (string, bool) {
	var e *errors.Error
	if !errors.As(err, &e) || e.TextCode != TextCodeCycle {
		return "", false
	}
	name, ok := e.Metadata["task"].(string)
	return name, ok
}

func hasTextCode(err error, code string) bool {
	var e *errors.Error
	if errors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
