package task_test

import (
	"testing"

	"github.com/goliatone/go-task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParseArgs(t *testing.T) {
	cases := []struct {
		name       string
		invocation string
		want       task.Args
	}{
		{"empty brackets", "task[]", task.Args{}},
		{"single pair", "task[arg1=value1]", task.Args{"arg1": strPtr("value1")}},
		{"whitespace trimmed", "task[ arg1 = value1 , arg2 = value2 ]", task.Args{
			"arg1": strPtr("value1"),
			"arg2": strPtr("value2"),
		}},
		{"key only", "task[big]", task.Args{"big": nil}},
		{"empty value", "task[arg1=]", task.Args{"arg1": strPtr("")}},
		{"no brackets", "task", task.Args{}},
		{"value keeps later equals", "task[url=a=b]", task.Args{"url": strPtr("a=b")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, task.ParseArgs(tc.invocation))
		})
	}
}

func TestArgsAbsentDistinctFromEmpty(t *testing.T) {
	args := task.ParseArgs("task[flag,name=]")

	assert.True(t, args.Has("flag"))
	_, ok := args.Get("flag")
	assert.False(t, ok)

	v, ok := args.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	assert.False(t, args.Has("other"))
	assert.Equal(t, "fallback", args.Value("flag", "fallback"))
	assert.Equal(t, []string{"flag", "name"}, args.Keys())
	assert.Equal(t, map[string]string{"flag": "", "name": ""}, args.Strings())
}

func TestSplitInvocation(t *testing.T) {
	name, args := task.SplitInvocation("build[target=linux,release]")
	assert.Equal(t, "build", name)
	require.Len(t, args, 2)
	assert.Equal(t, "linux", args.Value("target", ""))
	assert.True(t, args.Has("release"))

	name, args = task.SplitInvocation("lint")
	assert.Equal(t, "lint", name)
	assert.Empty(t, args)

	name, args = task.SplitInvocation("docs:serve[port=8080]")
	assert.Equal(t, "docs:serve", name)
	assert.Equal(t, "8080", args.Value("port", ""))
}
