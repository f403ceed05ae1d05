package task_test

import (
	"testing"

	"github.com/goliatone/go-task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithoutDependencies(t *testing.T) {
	order, err := task.Resolve([]string{"a", "b", "c"}, map[string][]string{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestResolveChain(t *testing.T) {
	graph := map[string][]string{
		"task1": {},
		"task2": {"task1"},
		"task3": {"task1", "task2", "task4"},
		"task4": {"task1"},
	}

	order, err := task.Resolve([]string{"task2", "task3"}, graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"task1", "task2", "task4", "task3"}, order)
}

func TestResolveCycle(t *testing.T) {
	graph := map[string][]string{
		"task1": {"task2"},
		"task2": {"task1"},
	}

	order, err := task.Resolve([]string{"task1", "task2"}, graph)
	require.Error(t, err)
	assert.Nil(t, order)
	assert.True(t, task.IsCycleError(err))

	name, ok := task.CycleTask(err)
	require.True(t, ok)
	assert.Equal(t, "task1", name)
}

func TestResolveSelfCycle(t *testing.T) {
	_, err := task.Resolve([]string{"loop"}, map[string][]string{"loop": {"loop"}})
	assert.True(t, task.IsCycleError(err))
}

func TestResolveRootAlsoDependency(t *testing.T) {
	graph := map[string][]string{
		"build": {"fmt"},
		"fmt":   {},
	}

	order, err := task.Resolve([]string{"build", "fmt"}, graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt", "build"}, order)

	order, err = task.Resolve([]string{"fmt", "build", "fmt"}, graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmt", "build"}, order)
}

func TestResolveSkipsUnknownDependency(t *testing.T) {
	graph := map[string][]string{
		"deploy": {"missing", "build"},
		"build":  {},
	}

	order, err := task.Resolve([]string{"deploy"}, graph)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "deploy"}, order)
}

func TestResolveDependencyPrecedesDependent(t *testing.T) {
	graph := map[string][]string{
		"a": {"b", "c"},
		"b": {"d"},
		"c": {"d", "e"},
		"d": {},
		"e": {"d"},
	}

	order, err := task.Resolve([]string{"a"}, graph)
	require.NoError(t, err)
	require.Len(t, order, 5)

	pos := map[string]int{}
	for i, name := range order {
		_, dup := pos[name]
		require.False(t, dup, "duplicate %s", name)
		pos[name] = i
	}
	for name, deps := range graph {
		for _, dep := range deps {
			assert.Less(t, pos[dep], pos[name], "%s must run before %s", dep, name)
		}
	}
}
