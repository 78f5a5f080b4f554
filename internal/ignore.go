package internal

import (
	"bufio"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const IgnoreFilename = ".pixignore"

// IgnoreMatcher applies gitignore-style patterns from a folder's .pixignore
// to paths relative to that folder.
type IgnoreMatcher struct {
	patterns []gitignore.Pattern
}

// NewIgnoreMatcher loads .pixignore from the root of fs. A missing file
// yields a matcher that matches nothing.
func NewIgnoreMatcher(fs billy.Filesystem) (*IgnoreMatcher, error) {
	patterns, err := parseIgnoreFile(fs, IgnoreFilename)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return &IgnoreMatcher{patterns: patterns}, nil
}

// Match reports whether rel (slash separated, relative to the folder) is excluded.
func (m *IgnoreMatcher) Match(rel string, isDir bool) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}

	parts := strings.Split(strings.Trim(rel, "/"), "/")
	return gitignore.NewMatcher(m.patterns).Match(parts, isDir)
}

func parseIgnoreFile(fs billy.Filesystem, name string) ([]gitignore.Pattern, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return patterns, nil
}
