package task

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/kballard/go-shellquote"
)

// interruptedExitCode is reported when the child was killed by a signal.
const interruptedExitCode = 130

// ProcessResult is the outcome of a command run by the executor. It is
// always populated, including when the program could not be started.
type ProcessResult struct {
	Args       []string `json:"args"`
	ReturnCode int      `json:"returnCode"`
	Stdout     string   `json:"stdout"`
	Stderr     string   `json:"stderr"`
}

// Success reports a zero return code.
func (r ProcessResult) Success() bool {
	return r.ReturnCode == 0
}

// Executor runs external commands.
type Executor interface {
	Exec(ctx context.Context, command string, opts ...ExecOption) ProcessResult
}

// ProcessExecutor runs commands directly, without a shell.
type ProcessExecutor struct {
	logger Logger
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

var _ Executor = &ProcessExecutor{}

// NewProcessExecutor returns an executor wired to the standard streams.
func NewProcessExecutor(opts ...ExecutorOption) *ProcessExecutor {
	e := &ProcessExecutor{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}

	return e
}

// Exec implements Executor.
func (e *ProcessExecutor) Exec(ctx context.Context, command string, opts ...ExecOption) ProcessResult {
	return e.Run(ctx, command, opts...)
}

// Run tokenizes command with shell quoting rules and executes the
// resulting argument vector. It blocks until the program exits and never
// returns an error: launch failures come back as a result with return
// code 1 and the failure text in Stderr.
func (e *ProcessExecutor) Run(ctx context.Context, command string, opts ...ExecOption) ProcessResult {
	cfg := execConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	args, err := tokenize(command)
	if err != nil {
		return e.failure(args, cfg, err)
	}

	if !cfg.capture && e.logger != nil {
		if cfg.dir != "" {
			e.logger.Debug(fmt.Sprintf("Executing: [%s] Cwd: [%s]", strings.Join(args, " "), cfg.dir))
		} else {
			e.logger.Debug(fmt.Sprintf("Executing: [%s]", strings.Join(args, " ")))
		}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = cfg.dir
	cmd.Env = buildCommandEnv(cfg)

	if cfg.input != nil {
		cmd.Stdin = strings.NewReader(*cfg.input)
	} else {
		cmd.Stdin = e.stdin
	}

	var stdout, stderr bytes.Buffer
	if cfg.capture {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = e.stdout
		cmd.Stderr = e.stderr
	}

	runErr := cmd.Run()

	result := ProcessResult{
		Args:   args,
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if runErr == nil {
		return result
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return e.failure(args, cfg, runErr)
	}

	result.ReturnCode = exitErr.ExitCode()
	if result.ReturnCode < 0 {
		result.ReturnCode = interruptedExitCode
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.Stderr += fmt.Sprintf("interrupted: %v\n", ctxErr)
	}
	return result
}

func (e *ProcessExecutor) failure(args []string, cfg execConfig, err error) ProcessResult {
	if !cfg.capture && e.logger != nil {
		e.logger.Error(fmt.Sprintf("Error executing: [%s]", strings.Join(args, " ")), "error", err)
	}
	return ProcessResult{
		Args:       args,
		ReturnCode: 1,
		Stdout:     "",
		Stderr:     err.Error(),
	}
}

// tokenize splits command by shell word rules. Quotes and backslash
// escapes are honoured; operators such as ";" or "|" are ordinary
// characters because no shell is involved.
func tokenize(command string) ([]string, error) {
	args, err := shellquote.Split(command)
	if err != nil {
		return args, errors.Wrap(err, errors.CategoryBadInput, "failed to tokenize command").
			WithTextCode("EXEC_TOKENIZE_ERROR").
			WithMetadata(map[string]any{"command": command})
	}

	if len(args) == 0 {
		return args, errors.New("empty command", errors.CategoryBadInput).
			WithTextCode("EXEC_EMPTY_COMMAND")
	}

	return args, nil
}

// QuoteArg quotes s so it survives tokenization as a single argument.
func QuoteArg(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`|&;<>()*?[]#~{}") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func buildCommandEnv(cfg execConfig) []string {
	if cfg.env == nil && cfg.toolchain == "" {
		return nil
	}

	environ := os.Environ()
	if cfg.toolchain != "" {
		environ = ToolchainEnv(environ, cfg.toolchain)
	}
	if cfg.env != nil {
		environ = OverlayEnv(environ, cfg.env)
	}
	return environ
}
