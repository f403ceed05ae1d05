package task

import "io"

// ExecutorOption configures a ProcessExecutor.
type ExecutorOption func(*ProcessExecutor)

// WithExecutorLogger binds the logger used for command and failure logs.
func WithExecutorLogger(logger Logger) ExecutorOption {
	return func(e *ProcessExecutor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithExecutorStreams replaces the streams inherited by non-capturing runs.
func WithExecutorStreams(stdin io.Reader, stdout, stderr io.Writer) ExecutorOption {
	return func(e *ProcessExecutor) {
		if stdin != nil {
			e.stdin = stdin
		}
		if stdout != nil {
			e.stdout = stdout
		}
		if stderr != nil {
			e.stderr = stderr
		}
	}
}

type execConfig struct {
	dir       string
	env       map[string]string
	toolchain string
	capture   bool
	input     *string
}

// ExecOption configures a single command invocation.
type ExecOption func(*execConfig)

// WithDir sets the working directory for the command
func WithDir(dir string) ExecOption {
	return func(c *execConfig) {
		c.dir = dir
	}
}

// WithEnv overlays variables on the ambient environment for this
// invocation only.
func WithEnv(env map[string]string) ExecOption {
	return func(c *execConfig) {
		if len(env) == 0 {
			return
		}
		if c.env == nil {
			c.env = make(map[string]string, len(env))
		}
		for k, v := range env {
			c.env[k] = v
		}
	}
}

// WithToolchain runs the command against the isolated toolchain in dir.
func WithToolchain(dir string) ExecOption {
	return func(c *execConfig) {
		c.toolchain = dir
	}
}

// WithCapture collects stdout and stderr into the result instead of
// streaming them.
func WithCapture(capture bool) ExecOption {
	return func(c *execConfig) {
		c.capture = capture
	}
}

// WithInput feeds data to the command's stdin.
func WithInput(data string) ExecOption {
	return func(c *execConfig) {
		c.input = &data
	}
}
