package shape

import (
	"go/types"
	"sort"
	"strconv"
)

// Qualifier renders package-qualified type text relative to one output
// package and records the imports that text needs.
type Qualifier struct {
	pkgPath string
	// path -> local name
	names map[string]string
	// path -> declared package name
	own map[string]string
	// local name -> path
	taken map[string]string
}

// NewQualifier returns a qualifier for code living in pkgPath.
func NewQualifier(pkgPath string) *Qualifier {
	return &Qualifier{
		pkgPath: pkgPath,
		names:   make(map[string]string),
		own:     make(map[string]string),
		taken:   make(map[string]string),
	}
}

// PkgPath is the package the rendered text lives in.
func (q *Qualifier) PkgPath() string { return q.pkgPath }

// Local reports whether a shape in pkgPath can be referenced unqualified.
func (q *Qualifier) Local(pkgPath string) bool { return pkgPath == q.pkgPath }

// Qualify implements types.Qualifier. Clashing package names get a numeric
// suffix so every path keeps a distinct local name.
func (q *Qualifier) Qualify(p *types.Package) string {
	if p == nil || p.Path() == q.pkgPath {
		return ""
	}
	if name, ok := q.names[p.Path()]; ok {
		return name
	}
	name := p.Name()
	for i := 2; ; i++ {
		if owner, ok := q.taken[name]; !ok || owner == p.Path() {
			break
		}
		name = p.Name() + strconv.Itoa(i)
	}
	q.names[p.Path()] = name
	q.own[p.Path()] = p.Name()
	q.taken[name] = p.Path()
	return name
}

// TypeString renders t relative to the qualifier's package.
func (q *Qualifier) TypeString(t types.Type) string {
	return types.TypeString(t, q.Qualify)
}

// Import is one import a rendered file needs.
type Import struct {
	// Name is empty when it matches the package's own name.
	Name string
	Path string
}

// Imports lists the recorded imports sorted by path.
func (q *Qualifier) Imports() []Import {
	out := make([]Import, 0, len(q.names))
	for path, name := range q.names {
		imp := Import{Path: path}
		if q.own[path] != name {
			imp.Name = name
		}
		out = append(out, imp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
