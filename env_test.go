package task_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEnvParsesDotenv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", `
# comment
NAME=taylor       # include comment
 SPACED =  value with spaces
URL=postgres://u:p@host/db?sslmode=disable
NOEQUALS
`)

	env, err := task.LoadEnv(path, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"NAME":   "taylor       # include comment",
		"SPACED": "value with spaces",
		"URL":    "postgres://u:p@host/db?sslmode=disable",
	}, env)
}

func TestLoadEnvMissingFile(t *testing.T) {
	env, err := task.LoadEnv(filepath.Join(t.TempDir(), "absent"), true)
	require.NoError(t, err)
	assert.Empty(t, env)
}

func TestLoadEnvExpandsAgainstAmbientEnvironment(t *testing.T) {
	t.Setenv("TASK_TEST_HOME", "/home/tester")
	unsetEnv(t, "TASK_TEST_UNKNOWN")
	unsetEnv(t, "TASK_TEST_LOCAL")

	dir := t.TempDir()
	path := writeFile(t, dir, ".env", strings.Join([]string{
		"TASK_TEST_LOCAL=from-file",
		"CACHE=${TASK_TEST_HOME}/.cache",
		"BARE=$TASK_TEST_HOME",
		"SIBLING=$TASK_TEST_LOCAL/x",
		"MISSING=$TASK_TEST_UNKNOWN/y",
		"LITERAL=prefix-$TASK_TEST_HOME",
	}, "\n"))

	env, err := task.LoadEnv(path, true)
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.cache", env["CACHE"])
	assert.Equal(t, "/home/tester", env["BARE"])
	assert.Equal(t, "$TASK_TEST_LOCAL/x", env["SIBLING"])
	assert.Equal(t, "$TASK_TEST_UNKNOWN/y", env["MISSING"])
	assert.Equal(t, "prefix-$TASK_TEST_HOME", env["LITERAL"])
}

func TestLoadDotenvOverridePolicies(t *testing.T) {
	unsetEnv(t, "TASK_TEST_COLOR")
	dir := t.TempDir()
	green := writeFile(t, dir, "a.env", "TASK_TEST_COLOR=green\n")
	blue := writeFile(t, dir, "b.env", "TASK_TEST_COLOR=blue\n")

	require.NoError(t, task.LoadDotenv(green, task.KeepExisting, true))
	require.NoError(t, task.LoadDotenv(blue, task.KeepExisting, true))
	assert.Equal(t, "green", os.Getenv("TASK_TEST_COLOR"))

	require.NoError(t, task.LoadDotenv(blue, task.Overwrite, true))
	assert.Equal(t, "blue", os.Getenv("TASK_TEST_COLOR"))
}

func TestApplyEnvLayersPrecedence(t *testing.T) {
	for _, key := range []string{"TASK_TEST_A", "TASK_TEST_B", "TASK_TEST_C"} {
		unsetEnv(t, key)
	}
	t.Setenv("TASK_TEST_PRESET", "shell")

	dir := t.TempDir()
	writeFile(t, dir, ".env.defaults", "TASK_TEST_A=defaults\nTASK_TEST_B=defaults\nTASK_TEST_PRESET=defaults\n")
	writeFile(t, dir, ".env.secrets", "TASK_TEST_A=secrets\n")
	writeFile(t, dir, ".env.local", "TASK_TEST_B=local\nTASK_TEST_C=$TASK_TEST_A\n")
	writeFile(t, dir, ".env", "TASK_TEST_PRESET=dotenv\n")

	require.NoError(t, task.ApplyEnvLayers(dir, task.DefaultEnvLayers))

	assert.Equal(t, "defaults", os.Getenv("TASK_TEST_A"))
	assert.Equal(t, "local", os.Getenv("TASK_TEST_B"))
	assert.Equal(t, "defaults", os.Getenv("TASK_TEST_C"))
	assert.Equal(t, "dotenv", os.Getenv("TASK_TEST_PRESET"))
}

func TestOverlayEnv(t *testing.T) {
	environ := []string{"A=1", "B=2"}
	out := task.OverlayEnv(environ, map[string]string{"B": "3", "C": "4"})

	assert.Equal(t, []string{"A=1", "B=2"}, environ)
	assert.Equal(t, []string{"A=1", "B=3", "C=4"}, out)
}

func TestToolchainEnv(t *testing.T) {
	sep := string(os.PathListSeparator)
	environ := []string{
		"HOME=/home/tester",
		"PYTHONHOME=/usr/lib/python",
		"VIRTUAL_ENV=/old",
		"PATH=/old/bin" + sep + "/usr/bin",
	}

	out := task.ToolchainEnv(environ, "/project/.venv")
	env := map[string]string{}
	for _, kv := range out {
		k, v, _ := strings.Cut(kv, "=")
		env[k] = v
	}

	bin := filepath.Join("/project/.venv", "bin")
	assert.Equal(t, bin+sep+"/usr/bin", env["PATH"])
	assert.Equal(t, bin, env["VIRTUAL_ENV"])
	assert.Equal(t, "/home/tester", env["HOME"])
	assert.NotContains(t, env, "PYTHONHOME")
	assert.Len(t, environ, 4)
}

func TestToolchainEnvWithoutPreviousToolchain(t *testing.T) {
	out := task.ToolchainEnv([]string{"PATH=/usr/bin"}, "/tc")
	bin := filepath.Join("/tc", "bin")
	assert.Equal(t, []string{
		"PATH=" + bin + string(os.PathListSeparator) + "/usr/bin",
		"VIRTUAL_ENV=" + bin,
	}, out)
}
