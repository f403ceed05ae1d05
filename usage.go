package task

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// SortTaskNames orders names without a ":" namespace first, each group
// alphabetically.
func SortTaskNames(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.Slice(sorted, func(i, j int) bool {
		ni, nj := strings.Contains(sorted[i], ":"), strings.Contains(sorted[j], ":")
		if ni != nj {
			return !ni
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// PrintUsage writes the help text listing the available tasks.
func PrintUsage(w io.Writer, names []string) error {
	var sb strings.Builder
	for _, name := range SortTaskNames(names) {
		sb.WriteString("  ")
		sb.WriteString(name)
		sb.WriteByte('\n')
	}

	_, err := fmt.Fprintf(w, `usage: task [-h] [-v] [-q] [task ...]

arguments:
%s
options:
  -h, --help     show this help message and exit
  -v, --verbose  enable trace logging
  -q, --quiet    disable logging
`, sb.String())
	return err
}
