package git

import (
	"strconv"
	"strings"
)

// StatusEntry is one line of "git status --porcelain".
type StatusEntry struct {
	// Code is the XY status code with padding removed,
	// e.g. "M", "??" or "R".
	Code string
	// Path is the current path of the entry. For renames
	// it is the destination.
	Path string
}

// ParseStatus parses porcelain v1 output. Leading
// whitespace may have been trimmed from the output, so
// the code is read up to the first space rather than by
// column.
func ParseStatus(out string) []StatusEntry {
	var entries []StatusEntry

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		code, path, found := strings.Cut(line, " ")
		if !found {
			continue
		}

		path = strings.TrimSpace(path)

		if _, to, renamed := strings.Cut(path, " -> "); renamed {
			path = to
		}

		if unquoted, err := strconv.Unquote(path); err == nil {
			path = unquoted
		}

		entries = append(entries, StatusEntry{
			Code: code,
			Path: path,
		})
	}

	return entries
}
