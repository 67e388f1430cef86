package emit

import (
	"bytes"
	"fmt"
	"go/ast"
	"regexp"
	"strings"

	"github.com/teranos/buildergen/builder"
	"github.com/teranos/buildergen/version"
)

const headerPrefix = "// Code maintained by buildergen"

var headerFormat = regexp.MustCompile(`^// Code maintained by buildergen \(format v([^)]+)\)`)

// HeaderLine is the first line of every builder file.
func HeaderLine() string {
	return fmt.Sprintf("%s (format v%s). Edit freely; pin members or builders with //%s.",
		headerPrefix, version.FormatVersion, builder.FixedMarker)
}

// IsBuilderFile reports whether src starts with the builder header.
func IsBuilderFile(src []byte) bool {
	return bytes.HasPrefix(bytes.TrimLeft(src, " \t\r\n"), []byte(headerPrefix))
}

// HeaderFormat returns the format version stamped in src's header.
func HeaderFormat(src []byte) (string, bool) {
	line := bytes.TrimLeft(src, " \t\r\n")
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	m := headerFormat.FindSubmatch(line)
	if m == nil {
		return "", false
	}
	return string(m[1]), true
}

// IsBuilderSyntax reports whether a parsed file carries the builder header.
func IsBuilderSyntax(f *ast.File) bool {
	if len(f.Comments) == 0 || f.Comments[0].Pos() > f.Package {
		return false
	}
	return strings.HasPrefix(f.Comments[0].List[0].Text, headerPrefix)
}
