package task_test

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestProcessExecutorUnlaunchableCommand(t *testing.T) {
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), "definitely-not-a-real-binary-4c1e --flag")

	assert.Equal(t, 1, result.ReturnCode)
	assert.NotEmpty(t, result.Stderr)
	assert.Empty(t, result.Stdout)
	assert.Equal(t, []string{"definitely-not-a-real-binary-4c1e", "--flag"}, result.Args)
}

func TestProcessExecutorRejectsEmptyCommand(t *testing.T) {
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), "   ")
	assert.Equal(t, 1, result.ReturnCode)
	assert.NotEmpty(t, result.Stderr)

	result = executor.Exec(context.Background(), `echo "unterminated`, task.WithCapture(true))
	assert.Equal(t, 1, result.ReturnCode)
	assert.NotEmpty(t, result.Stderr)
}

func TestProcessExecutorPassesOperatorsLiterally(t *testing.T) {
	requireBinary(t, "echo")
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), "echo a|b", task.WithCapture(true))
	require.True(t, result.Success(), result.Stderr)
	assert.Equal(t, []string{"echo", "a|b"}, result.Args)
	assert.Equal(t, "a|b\n", result.Stdout)

	result = executor.Exec(context.Background(), "echo one ; two > out", task.WithCapture(true))
	require.True(t, result.Success(), result.Stderr)
	assert.Equal(t, []string{"echo", "one", ";", "two", ">", "out"}, result.Args)
	assert.Equal(t, "one ; two > out\n", result.Stdout)
}

func TestProcessExecutorFindExecTerminator(t *testing.T) {
	requireBinary(t, "find")
	requireBinary(t, "echo")
	dir := t.TempDir()
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), "find . -maxdepth 0 -exec echo {} ;",
		task.WithCapture(true), task.WithDir(dir))
	require.True(t, result.Success(), result.Stderr)
	assert.Equal(t, []string{"find", ".", "-maxdepth", "0", "-exec", "echo", "{}", ";"}, result.Args)
	assert.Equal(t, ".\n", result.Stdout)
}

func TestProcessExecutorCapture(t *testing.T) {
	requireBinary(t, "echo")
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), `echo "hello world"`, task.WithCapture(true))

	require.True(t, result.Success())
	assert.Equal(t, "hello world\n", result.Stdout)
	assert.Equal(t, []string{"echo", "hello world"}, result.Args)
}

func TestProcessExecutorStreamsWhenNotCapturing(t *testing.T) {
	requireBinary(t, "echo")
	var stdout bytes.Buffer
	executor := task.NewProcessExecutor(task.WithExecutorStreams(nil, &stdout, nil))

	result := executor.Exec(context.Background(), "echo streamed")

	require.True(t, result.Success())
	assert.Empty(t, result.Stdout)
	assert.Equal(t, "streamed\n", stdout.String())
}

func TestProcessExecutorInputAndExitCode(t *testing.T) {
	requireBinary(t, "cat")
	requireBinary(t, "sh")
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), "cat", task.WithCapture(true), task.WithInput("piped"))
	require.True(t, result.Success())
	assert.Equal(t, "piped", result.Stdout)

	result = executor.Exec(context.Background(), `sh -c "exit 3"`, task.WithCapture(true))
	assert.Equal(t, 3, result.ReturnCode)
}

func TestProcessExecutorDirAndEnv(t *testing.T) {
	requireBinary(t, "sh")
	dir := t.TempDir()
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), `sh -c "pwd; echo $TASK_TEST_VALUE"`,
		task.WithCapture(true),
		task.WithDir(dir),
		task.WithEnv(map[string]string{"TASK_TEST_VALUE": "overlaid"}),
	)

	require.True(t, result.Success(), result.Stderr)
	lines := strings.Split(strings.TrimSpace(result.Stdout), "\n")
	require.Len(t, lines, 2)
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Contains(t, []string{dir, resolved}, lines[0])
	assert.Equal(t, "overlaid", lines[1])
}

func TestProcessExecutorToolchain(t *testing.T) {
	requireBinary(t, "sh")
	toolchain := t.TempDir()
	executor := task.NewProcessExecutor()

	result := executor.Exec(context.Background(), `sh -c "echo $VIRTUAL_ENV"`,
		task.WithCapture(true),
		task.WithToolchain(toolchain),
	)

	require.True(t, result.Success(), result.Stderr)
	assert.Equal(t, filepath.Join(toolchain, "bin"), strings.TrimSpace(result.Stdout))
}

func TestProcessExecutorInterrupted(t *testing.T) {
	requireBinary(t, "sleep")
	executor := task.NewProcessExecutor()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := executor.Exec(ctx, "sleep 5", task.WithCapture(true))
	assert.Equal(t, 130, result.ReturnCode)
	assert.Contains(t, result.Stderr, "interrupted")
}

func TestQuoteArg(t *testing.T) {
	assert.Equal(t, "plain", task.QuoteArg("plain"))
	assert.Equal(t, "'with space'", task.QuoteArg("with space"))
	assert.Equal(t, `'it'\''s'`, task.QuoteArg("it's"))
}
