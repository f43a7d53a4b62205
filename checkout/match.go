package checkout

import (
	"path"
	"regexp"
	"strings"
)

// matcher implements spec.md §4.1: a prefix gate built from filepaths[]
// plus an optional glob pattern rooted at its longest literal leading
// directory.
type matcher struct {
	bases      []string
	patternSet bool
	tailRegexp *regexp.Regexp
}

// newMatcher builds a matcher from the Options fields. filepaths
// defaults to ["."] per spec.md §6.
func newMatcher(filepaths []string, pattern string) (*matcher, error) {
	if len(filepaths) == 0 {
		filepaths = []string{"."}
	}

	root := patternRoot(pattern)

	m := &matcher{}
	for _, fp := range filepaths {
		m.bases = append(m.bases, joinClean(fp, root))
	}

	if pattern == "" {
		return m, nil
	}

	m.patternSet = true
	tail := strings.TrimPrefix(pattern, root)
	tail = strings.TrimPrefix(tail, "/")

	re, err := compileGlob(tail)
	if err != nil {
		return nil, err
	}
	m.tailRegexp = re

	return m, nil
}

// patternRoot returns the longest literal leading directory prefix of
// pattern, free of wildcard metacharacters; "" if pattern starts with a
// wildcard or is empty.
func patternRoot(pattern string) string {
	if pattern == "" {
		return ""
	}

	segments := strings.Split(pattern, "/")
	var root []string
	for _, s := range segments {
		if containsGlobMeta(s) {
			break
		}
		root = append(root, s)
	}

	return strings.Join(root, "/")
}

func containsGlobMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{")
}

func joinClean(a, b string) string {
	if b == "" {
		return path.Clean(a)
	}
	if a == "." || a == "" {
		return path.Clean(b)
	}
	return path.Clean(a + "/" + b)
}

// prefixMatches reports whether fullpath is, or is a descendant of, any
// base. Used by the Tri-Walker to prune whole subtrees cheaply.
func (m *matcher) prefixMatches(fullpath string) bool {
	if fullpath == "." {
		// the root is always a valid starting point for the walk; actual
		// restriction happens at the children it is allowed to descend into.
		return true
	}

	for _, b := range m.bases {
		if b == "." || fullpath == b || strings.HasPrefix(fullpath, b+"/") {
			return true
		}
		if strings.HasPrefix(b, fullpath+"/") || b == fullpath {
			// fullpath is an ancestor of a base: keep descending to
			// reach it.
			return true
		}
	}

	return false
}

// tailMatches reports whether, for some base, the compiled pattern tail
// matches fullpath with "<base>/" stripped. Vacuously true when no
// pattern was given.
func (m *matcher) tailMatches(fullpath string) bool {
	if !m.patternSet {
		return true
	}

	for _, b := range m.bases {
		rel := fullpath
		if b != "." {
			if fullpath == b {
				rel = ""
			} else if strings.HasPrefix(fullpath, b+"/") {
				rel = fullpath[len(b)+1:]
			} else {
				continue
			}
		}

		if m.tailRegexp.MatchString(rel) {
			return true
		}
	}

	return false
}

// compileGlob compiles a glob pattern tail to a regular expression with
// globstar ("**" crosses directory boundaries), "{a,b}" alternation and
// "?" single-character semantics, per spec.md §4.1.
func compileGlob(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				b.WriteString(".*")
				i++
				// consume an immediately following "/" so "**/x"
				// also matches "x" at the base.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '{':
			j := i + 1
			for j < len(runes) && runes[j] != '}' {
				j++
			}
			if j >= len(runes) {
				b.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			alts := strings.Split(string(runes[i+1:j]), ",")
			b.WriteString("(?:")
			for k, a := range alts {
				if k > 0 {
					b.WriteString("|")
				}
				b.WriteString(regexp.QuoteMeta(a))
			}
			b.WriteString(")")
			i = j
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}

	b.WriteString("$")
	return regexp.Compile(b.String())
}
