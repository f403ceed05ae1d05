package task

import (
	"os"
	"runtime"
	"strings"
)

// SystemContext describes the host a task runs on.
type SystemContext struct {
	Platform string `json:"platform"` // linux, darwin, windows
	Arch     string `json:"arch"`     // x86_64, aarch64, arm64
	Distro   string `json:"distro"`   // debian, arch, alpine, rhel
}

// OSReleasePath is the file read for Linux distribution detection.
var OSReleasePath = "/etc/os-release"

// machineNames maps Go architecture names to the names reported by uname.
var machineNames = map[string]string{
	"amd64":    "x86_64",
	"386":      "i686",
	"arm":      "armv7l",
	"arm64":    "aarch64",
	"ppc64le":  "ppc64le",
	"s390x":    "s390x",
	"riscv64":  "riscv64",
	"loong64":  "loongarch64",
	"mips64le": "mips64",
}

// ProbeSystem inspects the running host.
func ProbeSystem() SystemContext {
	platform := strings.ToLower(runtime.GOOS)

	distro := ""
	if platform == "linux" {
		if content, err := os.ReadFile(OSReleasePath); err == nil {
			distro = ParseDistro(string(content))
		}
	}

	return SystemContext{
		Platform: platform,
		Arch:     machineArch(platform, runtime.GOARCH),
		Distro:   distro,
	}
}

func machineArch(platform, goarch string) string {
	// macOS and Windows report arm64 for Apple silicon and ARM builds.
	if goarch == "arm64" && platform != "linux" {
		return "arm64"
	}
	if name, ok := machineNames[goarch]; ok {
		return name
	}
	return strings.ToLower(goarch)
}

// ParseDistro extracts the distribution family from os-release content.
// ID_LIKE wins over ID, so Ubuntu reports "debian". When ID_LIKE lists
// several families only the first one is kept.
func ParseDistro(content string) string {
	var id, idLike string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "ID_LIKE="):
			idLike = osReleaseValue(strings.TrimPrefix(line, "ID_LIKE="))
		case strings.HasPrefix(line, "ID="):
			id = osReleaseValue(strings.TrimPrefix(line, "ID="))
		}
	}

	if fields := strings.Fields(idLike); len(fields) > 0 {
		return strings.ToLower(fields[0])
	}
	return strings.ToLower(id)
}

func osReleaseValue(raw string) string {
	return strings.Trim(strings.TrimSpace(raw), `"'`)
}
