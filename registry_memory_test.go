package task_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goliatone/go-task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *task.ExecutionContext) any { return nil }

func TestMemoryRegistryAddAndGet(t *testing.T) {
	registry := task.NewMemoryRegistry()
	desc := &task.Descriptor{Name: "build", Module: "tools", Func: noop}

	replaced := registry.Add(desc)
	assert.False(t, replaced)

	retrieved, found := registry.Get("build")
	assert.True(t, found)
	assert.Same(t, desc, retrieved)

	_, found = registry.Get("missing")
	assert.False(t, found)
}

func TestMemoryRegistryLastRegistrationWins(t *testing.T) {
	registry := task.NewMemoryRegistry()
	first := &task.Descriptor{Name: "build", File: "a/__task__.yml", Func: noop}
	second := &task.Descriptor{Name: "build", File: "b/__task__.yml", Func: noop}

	registry.Add(first)
	assert.True(t, registry.Add(second))

	retrieved, _ := registry.Get("build")
	assert.Same(t, second, retrieved)
	assert.Len(t, registry.List(), 1)
}

func TestMemoryRegistryNamesAndGraph(t *testing.T) {
	registry := task.NewMemoryRegistry()
	registry.Add(&task.Descriptor{Name: "test", Deps: []string{"build"}, Func: noop})
	registry.Add(&task.Descriptor{Name: "build", Func: noop})

	assert.Equal(t, []string{"build", "test"}, registry.Names())

	graph := registry.Graph()
	assert.Equal(t, []string{"build"}, graph["test"])
	assert.Empty(t, graph["build"])

	graph["test"][0] = "mutated"
	desc, _ := registry.Get("test")
	assert.Equal(t, []string{"build"}, desc.Deps)
}

func TestMemoryRegistryConcurrency(t *testing.T) {
	registry := task.NewMemoryRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			registry.Add(&task.Descriptor{Name: fmt.Sprintf("task-%d", id), Func: noop})
			registry.Names()
		}(i)
	}
	wg.Wait()

	assert.Len(t, registry.List(), 100)
}

func TestBuilderAddTask(t *testing.T) {
	dir := t.TempDir()
	b := task.NewBuilder(dir, dir+"/__task__.js")

	deps := []string{"fmt", "vet"}
	require.NoError(t, b.AddTask("tools", "lint", noop, deps...))
	require.NoError(t, b.AddTask("tools", "fmt", noop))

	deps[0] = "changed"

	tasks := b.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, "lint", tasks[0].Name)
	assert.Equal(t, "tools", tasks[0].Module)
	assert.Equal(t, dir, tasks[0].Dir)
	assert.Equal(t, []string{"fmt", "vet"}, tasks[0].Deps)
	assert.Empty(t, tasks[1].Deps)
}

func TestBuilderDependencyListsAreIndependent(t *testing.T) {
	b := task.NewBuilder(".", "plugin.go")
	require.NoError(t, b.AddTask("m", "one", noop))
	require.NoError(t, b.AddTask("m", "two", noop, "one"))

	tasks := b.Tasks()
	tasks[1].Deps = append(tasks[1].Deps, "extra")
	assert.Empty(t, tasks[0].Deps)
}

func TestBuilderRejectsInvalidRegistrations(t *testing.T) {
	b := task.NewBuilder(".", "plugin.go")

	cases := map[string]error{
		"empty name":   b.AddTask("m", "", noop),
		"empty module": b.AddTask("", "x", noop),
		"nil body":     b.AddTask("m", "x", nil),
		"empty dep":    b.AddTask("m", "x", noop, "ok", ""),
	}

	for name, err := range cases {
		assert.True(t, task.IsConfigurationError(err), name)
	}
	assert.Empty(t, b.Tasks())
}
