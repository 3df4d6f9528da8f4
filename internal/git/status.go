package git

import (
	"fmt"
	"strconv"
	"strings"
)

// StatusEntry is one line of `git status --porcelain` (v1).
type StatusEntry struct {
	// Index is the X column: the state of the path in the index.
	Index byte

	// Worktree is the Y column: the state of the path in the working tree.
	Worktree byte

	// Path is the path relative to the repository root.
	Path string

	// OrigPath is the source path of a rename or copy.
	OrigPath string
}

// Unmerged reports whether the entry is left over from a conflicting merge.
func (e StatusEntry) Unmerged() bool {
	switch string([]byte{e.Index, e.Worktree}) {
	case "DD", "AU", "UD", "UA", "DU", "AA", "UU":
		return true
	}
	return false
}

// Untracked reports whether the path is not known to git.
func (e StatusEntry) Untracked() bool {
	return e.Index == '?' && e.Worktree == '?'
}

func (e StatusEntry) String() string {
	if e.OrigPath != "" {
		return fmt.Sprintf("%c%c %s -> %s", e.Index, e.Worktree, e.OrigPath, e.Path)
	}
	return fmt.Sprintf("%c%c %s", e.Index, e.Worktree, e.Path)
}

// Status is the parsed working-tree status.
type Status struct {
	Entries []StatusEntry
}

// Dirty reports whether anything is staged, modified or untracked.
func (s Status) Dirty() bool {
	return len(s.Entries) > 0
}

// Conflicted returns the paths with unmerged entries.
func (s Status) Conflicted() []string {
	var paths []string
	for _, e := range s.Entries {
		if e.Unmerged() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// Untracked returns the untracked paths.
func (s Status) Untracked() []string {
	var paths []string
	for _, e := range s.Entries {
		if e.Untracked() {
			paths = append(paths, e.Path)
		}
	}
	return paths
}

// ParseStatus parses `git status --porcelain` output.
func ParseStatus(output string) (Status, error) {
	var status Status
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		if len(line) < 4 || line[2] != ' ' {
			return Status{}, fmt.Errorf("malformed porcelain status line %q", line)
		}

		entry := StatusEntry{Index: line[0], Worktree: line[1]}
		rest := line[3:]

		if entry.Index == 'R' || entry.Index == 'C' {
			if from, to, ok := splitRename(rest); ok {
				orig, err := unquotePath(from)
				if err != nil {
					return Status{}, err
				}
				entry.OrigPath = orig
				rest = to
			}
		}

		path, err := unquotePath(rest)
		if err != nil {
			return Status{}, err
		}
		entry.Path = path
		status.Entries = append(status.Entries, entry)
	}
	return status, nil
}

// splitRename splits `from -> to`, honoring quoted paths that contain the arrow.
func splitRename(s string) (string, string, bool) {
	if strings.HasPrefix(s, `"`) {
		end := closingQuote(s)
		if end < 0 || !strings.HasPrefix(s[end+1:], " -> ") {
			return "", "", false
		}
		return s[:end+1], s[end+1+len(" -> "):], true
	}
	from, to, ok := strings.Cut(s, " -> ")
	return from, to, ok
}

func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}

// unquotePath undoes git's C-style quoting of unusual paths.
func unquotePath(p string) (string, error) {
	if !strings.HasPrefix(p, `"`) {
		return p, nil
	}
	unquoted, err := strconv.Unquote(p)
	if err != nil {
		return "", fmt.Errorf("malformed quoted path %s: %w", p, err)
	}
	return unquoted, nil
}
