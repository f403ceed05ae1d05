package task

import (
	"sort"
	"strings"
)

// Args holds the bracketed arguments of one task invocation. A nil value
// means the key was given without "=".
type Args map[string]*string

// ParseArgs parses the argument list of an invocation such as
// "build[target=linux,verbose]". Only the text between the first "[" and
// the last "]" is considered. There is no escaping: commas, "=" and
// brackets cannot appear inside a value.
func ParseArgs(invocation string) Args {
	args := Args{}

	start := strings.Index(invocation, "[")
	end := strings.LastIndex(invocation, "]")
	if start < 0 || end <= start {
		return args
	}

	for _, token := range strings.Split(invocation[start+1:end], ",") {
		if strings.TrimSpace(token) == "" {
			continue
		}

		key, value, hasValue := strings.Cut(token, "=")
		key = strings.TrimSpace(key)
		if !hasValue {
			args[key] = nil
			continue
		}
		v := strings.TrimSpace(value)
		args[key] = &v
	}

	return args
}

// SplitInvocation separates the task name from its argument list.
func SplitInvocation(invocation string) (string, Args) {
	if strings.Contains(invocation, "[") && strings.Contains(invocation, "]") {
		name, _, _ := strings.Cut(invocation, "[")
		return name, ParseArgs(invocation)
	}
	return invocation, Args{}
}

// Has reports whether key was supplied, with or without a value.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Get returns the value for key and whether a value was supplied.
func (a Args) Get(key string) (string, bool) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", false
	}
	return *v, true
}

// Value returns the value for key or fallback when no value was supplied.
func (a Args) Value(key, fallback string) string {
	if v, ok := a.Get(key); ok {
		return v
	}
	return fallback
}

// Strings flattens the arguments, mapping key-only entries to "".
func (a Args) Strings() map[string]string {
	out := make(map[string]string, len(a))
	for k, v := range a {
		if v != nil {
			out[k] = *v
		} else {
			out[k] = ""
		}
	}
	return out
}

// Keys returns the argument names in sorted order.
func (a Args) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
