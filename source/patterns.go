package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/teranos/buildergen/errors"
)

// Scope is the expanded form of the user's path arguments.
type Scope struct {
	// Patterns are handed to packages.Load.
	Patterns []string
	// Files restricts root shapes to these files; empty means every file
	// of the matched packages.
	Files map[string]bool
}

// ExpandPatterns turns path arguments into package patterns. Directories
// are scanned recursively, files select their package and restrict roots
// to themselves, and doublestar globs ("models/**/*.go") expand to the
// files they match. Anything else is passed through as a package pattern.
func ExpandPatterns(base string, args []string) (Scope, error) {
	if len(args) == 0 {
		args = []string{"."}
	}

	scope := Scope{Files: map[string]bool{}}
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			scope.Patterns = append(scope.Patterns, p)
		}
	}

	for _, arg := range args {
		if strings.HasSuffix(arg, "/...") {
			add(arg)
			continue
		}

		path := arg
		if !filepath.IsAbs(path) {
			path = filepath.Join(base, path)
		}

		if strings.ContainsAny(arg, "*?[{") {
			matches, err := doublestar.FilepathGlob(path)
			if err != nil {
				return Scope{}, errors.Wrapf(err, "invalid glob %q", arg)
			}
			if len(matches) == 0 {
				return Scope{}, errors.WithHintf(
					errors.Newf("glob %q matched no files", arg),
					"globs are resolved relative to %s", base)
			}
			for _, m := range matches {
				if !isSourceFile(m) {
					continue
				}
				abs, _ := filepath.Abs(m)
				scope.Files[abs] = true
				add(filepath.Dir(abs))
			}
			continue
		}

		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir():
			add(filepath.Join(path, "..."))
		case err == nil:
			abs, _ := filepath.Abs(path)
			scope.Files[abs] = true
			add(filepath.Dir(abs))
		default:
			// import path or go list pattern
			add(arg)
		}
	}

	sort.Strings(scope.Patterns)
	return scope, nil
}

func isSourceFile(path string) bool {
	return strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go")
}
