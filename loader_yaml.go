package task

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v2"
)

// YAMLLoader registers the tasks listed in __task__.yml files. Each task
// runs its commands in order and stops at the first failure.
type YAMLLoader struct {
	loaderBase
}

var _ Loader = &YAMLLoader{}

func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{loaderBase: newLoaderBase("yaml")}
}

type yamlTaskFile struct {
	Module string     `yaml:"module"`
	Tasks  []yamlTask `yaml:"tasks"`
}

type yamlTask struct {
	Name      string            `yaml:"name"`
	Deps      []string          `yaml:"deps"`
	Dir       string            `yaml:"dir"`
	Env       map[string]string `yaml:"env"`
	Toolchain string            `yaml:"toolchain"`
	Capture   bool              `yaml:"capture"`
	Run       []string          `yaml:"run"`
}

// commandData is the template data available to run commands.
type commandData struct {
	Args       map[string]string
	System     SystemContext
	RootDir    string
	ProjectDir string
}

func (l *YAMLLoader) CanHandle(path string) bool {
	base := filepath.Base(path)
	return base == YAMLTaskFile || base == YAMLAltTaskFile
}

func (l *YAMLLoader) Load(ctx context.Context, script ScriptInfo, b *Builder) error {
	content, err := contentOf(ctx, script, os.ReadFile)
	if err != nil {
		return err
	}

	var file yamlTaskFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) {
			return NewConfigurationError("", strings.Join(typeErr.Errors, "; ")).
				WithMetadata(map[string]any{"file": script.Path})
		}
		return newLoadError(err, script.Path, "invalid task file")
	}

	module := file.Module
	if module == "" {
		module = moduleFor(b.Dir())
	}

	for _, def := range file.Tasks {
		fn, err := l.compile(script.Path, def)
		if err != nil {
			return err
		}
		if err := b.AddTask(module, def.Name, fn, def.Deps...); err != nil {
			return err
		}
		l.logger.Trace("yaml task loaded", "task", def.Name, "path", script.Path)
	}
	return nil
}

func (l *YAMLLoader) compile(path string, def yamlTask) (TaskFunc, error) {
	commands := make([]*template.Template, 0, len(def.Run))
	for i, line := range def.Run {
		tpl, err := template.New(fmt.Sprintf("%s[%d]", def.Name, i)).
			Option("missingkey=zero").
			Funcs(commandFuncs).
			Parse(line)
		if err != nil {
			return nil, newLoadError(err, path, fmt.Sprintf("invalid command template in task %s", def.Name))
		}
		commands = append(commands, tpl)
	}

	return func(ctx context.Context, tc *ExecutionContext) any {
		data := commandData{
			Args:       tc.Args.Strings(),
			System:     tc.System,
			RootDir:    tc.RootDir,
			ProjectDir: tc.ProjectDir,
		}

		opts := []ExecOption{
			WithDir(resolveDir(tc.ProjectDir, def.Dir)),
			WithEnv(def.Env),
			WithCapture(def.Capture),
		}
		if def.Toolchain != "" {
			opts = append(opts, WithToolchain(resolveDir(tc.ProjectDir, def.Toolchain)))
		}

		var last any
		for _, tpl := range commands {
			var sb strings.Builder
			if err := tpl.Execute(&sb, data); err != nil {
				return errors.Wrap(err, errors.CategoryBadInput, "failed to render command").
					WithTextCode("TASK_TEMPLATE").
					WithMetadata(map[string]any{"task": def.Name, "template": tpl.Name()})
			}

			command := strings.TrimSpace(sb.String())
			if command == "" {
				continue
			}

			result := tc.Exec(ctx, command, opts...)
			if def.Capture && result.Stdout != "" {
				tc.Log.Debug(strings.TrimRight(result.Stdout, "\n"))
			}
			last = result
			if !result.Success() {
				break
			}
		}
		return last
	}, nil
}

var commandFuncs = template.FuncMap{
	"quote": QuoteArg,
	"has": func(args map[string]string, key string) bool {
		_, ok := args[key]
		return ok
	},
	"default": func(fallback, value string) string {
		if value == "" {
			return fallback
		}
		return value
	},
}
