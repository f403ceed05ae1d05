package task

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/kballard/go-shellquote"
)

// ScriptLoader registers one task per "*.task.sh" file. The task runs the
// file with the configured shell; metadata comes from its config header.
type ScriptLoader struct {
	loaderBase
	parser *HeaderParser
	shell  string
}

var _ Loader = &ScriptLoader{}

// NewScriptLoader returns a loader running scripts with "sh".
func NewScriptLoader() *ScriptLoader {
	return &ScriptLoader{
		loaderBase: newLoaderBase("script"),
		parser:     NewHeaderParser(),
		shell:      "sh",
	}
}

// WithShell overrides the interpreter used when a header names none. The
// value may carry flags, e.g. "bash -e".
func (l *ScriptLoader) WithShell(shell string) *ScriptLoader {
	if shell != "" {
		l.shell = shell
	}
	return l
}

func (l *ScriptLoader) CanHandle(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, ScriptTaskSuffix) && base != ScriptTaskSuffix
}

func (l *ScriptLoader) Load(ctx context.Context, script ScriptInfo, b *Builder) error {
	content, err := contentOf(ctx, script, os.ReadFile)
	if err != nil {
		return err
	}

	header, _, err := l.parser.Parse(content)
	if err != nil {
		return newLoadError(err, script.Path, "invalid script config header")
	}

	name := header.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(script.Path), ScriptTaskSuffix)
	}
	module := header.Module
	if module == "" {
		module = moduleFor(b.Dir())
	}
	shell := header.Shell
	if shell == "" {
		shell = l.shell
	}

	file := script.Path
	if abs, err := filepath.Abs(file); err == nil {
		file = abs
	}

	interpreter, err := shellquote.Split(shell)
	if err != nil || len(interpreter) == 0 {
		if err == nil {
			err = errors.New("empty shell", errors.CategoryBadInput)
		}
		return newLoadError(err, script.Path, "invalid script shell")
	}

	quoted := make([]string, 0, len(interpreter)+1)
	for _, word := range append(interpreter, file) {
		quoted = append(quoted, QuoteArg(word))
	}
	command := strings.Join(quoted, " ")
	fn := func(ctx context.Context, tc *ExecutionContext) any {
		opts := []ExecOption{
			WithDir(resolveDir(tc.ProjectDir, header.Dir)),
			WithEnv(header.Env),
		}
		if header.Toolchain != "" {
			opts = append(opts, WithToolchain(resolveDir(tc.ProjectDir, header.Toolchain)))
		}
		return tc.Exec(ctx, command, opts...)
	}

	l.logger.Trace("script task loaded", "task", name, "path", script.Path)
	return b.AddTask(module, name, fn, header.Deps...)
}

// resolveDir joins dir onto base unless dir is absolute.
func resolveDir(base, dir string) string {
	if dir == "" {
		return base
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(base, dir)
}
