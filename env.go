package task

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/goliatone/go-errors"
)

// OverridePolicy decides what happens when a layer sets a key that is
// already present in the process environment.
type OverridePolicy int

const (
	// KeepExisting only sets keys that are not already present.
	KeepExisting OverridePolicy = iota
	// Overwrite always sets the key.
	Overwrite
)

func (p OverridePolicy) String() string {
	switch p {
	case KeepExisting:
		return "keep-existing"
	case Overwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// EnvLayer is a dotenv file applied with a fixed override policy.
type EnvLayer struct {
	File   string
	Policy OverridePolicy
}

// DefaultEnvLayers lists the dotenv files read at startup, lowest
// precedence first.
var DefaultEnvLayers = []EnvLayer{
	{File: ".env.defaults", Policy: KeepExisting},
	{File: ".env.secrets", Policy: KeepExisting},
	{File: ".env.user", Policy: Overwrite},
	{File: ".env.local", Policy: Overwrite},
	{File: ".env", Policy: Overwrite},
}

const (
	// ToolchainMarkerVar records the active isolated toolchain.
	ToolchainMarkerVar = "VIRTUAL_ENV"
	// interpreterHomeVar is dropped from toolchain overlays.
	interpreterHomeVar = "PYTHONHOME"
)

var envRefPattern = regexp.MustCompile(`\$\{?(\w+)\}?`)

// LoadEnv reads a dotenv file into a map. A missing file is an empty map.
//
// Values that start with a variable reference have every $NAME or ${NAME}
// replaced with the value NAME holds in the process environment at call
// time. Unknown names are left untouched, and keys defined earlier in the
// same file are not visible to the expansion.
func LoadEnv(path string, expand bool) (map[string]string, error) {
	env := map[string]string{}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return env, nil
		}
		return nil, errors.Wrap(err, errors.CategoryExternal, "failed to open env file").
			WithTextCode("ENV_READ_ERROR").
			WithMetadata(map[string]any{"file": path})
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		env[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryExternal, "failed to read env file").
			WithTextCode("ENV_READ_ERROR").
			WithMetadata(map[string]any{"file": path})
	}

	if expand {
		for k, v := range env {
			if strings.HasPrefix(v, "$") {
				env[k] = expandEnvRefs(v)
			}
		}
	}

	return env, nil
}

func expandEnvRefs(value string) string {
	return envRefPattern.ReplaceAllStringFunc(value, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		if current, ok := os.LookupEnv(name); ok {
			return current
		}
		return ref
	})
}

// ApplyEnv writes env into the process environment honouring policy.
func ApplyEnv(env map[string]string, policy OverridePolicy) error {
	for k, v := range env {
		if policy == KeepExisting {
			if _, exists := os.LookupEnv(k); exists {
				continue
			}
		}
		if err := os.Setenv(k, v); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to set environment variable").
				WithTextCode("ENV_SET_ERROR").
				WithMetadata(map[string]any{"key": k})
		}
	}
	return nil
}

// LoadDotenv loads path and applies it to the process environment.
func LoadDotenv(path string, policy OverridePolicy, expand bool) error {
	env, err := LoadEnv(path, expand)
	if err != nil {
		return err
	}
	return ApplyEnv(env, policy)
}

// ApplyEnvLayers loads each layer relative to dir and applies it before
// the next one is read.
func ApplyEnvLayers(dir string, layers []EnvLayer) error {
	for _, layer := range layers {
		path := layer.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		if err := LoadDotenv(path, layer.Policy, true); err != nil {
			return err
		}
	}
	return nil
}

// OverlayEnv returns environ with the overlay keys replaced or appended.
// The input slice is not modified.
func OverlayEnv(environ []string, overlay map[string]string) []string {
	out := make([]string, 0, len(environ)+len(overlay))
	seen := make(map[string]bool, len(overlay))

	for _, kv := range environ {
		key, _, _ := strings.Cut(kv, "=")
		if v, ok := overlay[key]; ok {
			out = append(out, key+"="+v)
			seen[key] = true
			continue
		}
		out = append(out, kv)
	}

	for k, v := range overlay {
		if !seen[k] {
			out = append(out, k+"="+v)
		}
	}
	return out
}

// ToolchainEnv derives the environment for a single invocation that runs
// inside the isolated toolchain rooted at toolchainDir. A previously
// recorded toolchain bin prefix is removed from PATH, the new bin
// directory is prepended, and the marker variable is set to that bin
// directory.
func ToolchainEnv(environ []string, toolchainDir string) []string {
	vars := make(map[string]string, len(environ))
	order := make([]string, 0, len(environ))
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		if _, dup := vars[key]; !dup {
			order = append(order, key)
		}
		vars[key] = value
	}

	path := vars["PATH"]
	if previous, ok := vars[ToolchainMarkerVar]; ok && previous != "" {
		path = strings.TrimPrefix(path, previous+"/bin"+string(os.PathListSeparator))
	}

	bin := filepath.Join(toolchainDir, "bin")
	if path == "" {
		vars["PATH"] = bin
	} else {
		vars["PATH"] = bin + string(os.PathListSeparator) + path
	}
	vars[ToolchainMarkerVar] = bin

	out := make([]string, 0, len(order)+2)
	for _, key := range order {
		if key == interpreterHomeVar {
			continue
		}
		out = append(out, key+"="+vars[key])
		delete(vars, key)
	}
	for _, key := range []string{"PATH", ToolchainMarkerVar} {
		if v, ok := vars[key]; ok {
			out = append(out, key+"="+v)
		}
	}
	return out
}
