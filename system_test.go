package task_test

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/goliatone/go-task"
	"github.com/stretchr/testify/assert"
)

func TestParseDistro(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{"manjaro", "NAME=\"Manjaro Linux\"\nID=manjaro\nID_LIKE=arch\n", "arch"},
		{"alpine", "NAME=\"Alpine Linux\"\nID=alpine\nVERSION_ID=3.19.1\n", "alpine"},
		{"ubuntu", "NAME=\"Ubuntu\"\nID=ubuntu\nID_LIKE=debian\n", "debian"},
		{"quoted multi family", "ID=\"rocky\"\nID_LIKE=\"rhel centos fedora\"\n", "rhel"},
		{"upper case", "ID=Fedora\n", "fedora"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, task.ParseDistro(tc.content))
		})
	}
}

func TestProbeSystem(t *testing.T) {
	previous := task.OSReleasePath
	t.Cleanup(func() { task.OSReleasePath = previous })

	dir := t.TempDir()
	task.OSReleasePath = writeFile(t, dir, "os-release", "ID=ubuntu\nID_LIKE=debian\n")

	sys := task.ProbeSystem()
	assert.Equal(t, strings.ToLower(runtime.GOOS), sys.Platform)
	assert.NotEmpty(t, sys.Arch)
	assert.Equal(t, strings.ToLower(sys.Arch), sys.Arch)

	if runtime.GOOS == "linux" {
		assert.Equal(t, "debian", sys.Distro)
	} else {
		assert.Empty(t, sys.Distro)
	}

	task.OSReleasePath = filepath.Join(dir, "missing")
	assert.Empty(t, task.ProbeSystem().Distro)
}
