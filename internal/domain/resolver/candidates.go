package resolver

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultArchDirs are searched, in order, under an install root.
// ${GOOS} and ${GOARCH} expand to the running platform.
var DefaultArchDirs = []string{
	"bin/${GOOS}_${GOARCH}",
	"bin/${GOOS}-${GOARCH}",
	"bin",
	".",
}

// Candidate is one place a binary may live: a literal root directory and
// a slash-separated pattern relative to it.
type Candidate struct {
	Root    string
	Pattern string
}

// IsGlob reports whether the pattern needs expansion.
func (c Candidate) IsGlob() bool {
	return strings.ContainsAny(c.Pattern, `*?[{\`)
}

// Path returns the literal path of a non-glob candidate.
func (c Candidate) Path() string {
	return filepath.Join(c.Root, filepath.FromSlash(c.Pattern))
}

// ExpandArchDir substitutes ${GOOS} and ${GOARCH} in a directory pattern.
func ExpandArchDir(pattern string) string {
	return os.Expand(pattern, func(name string) string {
		switch name {
		case "GOOS":
			return runtime.GOOS
		case "GOARCH":
			return runtime.GOARCH
		default:
			return "${" + name + "}"
		}
	})
}

// Candidates builds the ordered search list for binary: every root in order
// crossed with every arch dir in order, then each of pathDirs. Invalid glob
// patterns are skipped. It performs no I/O.
func Candidates(binary string, roots, archDirs, pathDirs []string) []Candidate {
	var out []Candidate
	for _, root := range roots {
		if root == "" {
			continue
		}
		for _, dir := range archDirs {
			pattern := path.Join(ExpandArchDir(dir), binary)
			if !doublestar.ValidatePattern(pattern) {
				continue
			}
			out = append(out, Candidate{Root: root, Pattern: pattern})
		}
	}
	for _, dir := range pathDirs {
		if dir == "" {
			dir = "."
		}
		out = append(out, Candidate{Root: dir, Pattern: binary})
	}
	return out
}

// SelectCandidate returns the first path for which exists is true.
func SelectCandidate(paths []string, exists func(string) bool) (string, bool) {
	for _, p := range paths {
		if exists(p) {
			return p, true
		}
	}
	return "", false
}

// Expand turns candidates into concrete paths, keeping their order.
// Glob matches within one candidate are sorted lexically.
func Expand(candidates []Candidate) []string {
	var out []string
	for _, c := range candidates {
		if !c.IsGlob() {
			out = append(out, c.Path())
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(c.Root), c.Pattern)
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			out = append(out, filepath.Join(c.Root, filepath.FromSlash(m)))
		}
	}
	return out
}

// IsExecutable reports whether p is a regular file with an exec bit set.
func IsExecutable(p string) bool {
	info, err := os.Stat(p)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
