// Package source loads Go packages and exposes their struct types as
// shapes.
package source

import (
	"context"
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/teranos/buildergen/emit"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/logger"
	"github.com/teranos/buildergen/naming"
	"github.com/teranos/buildergen/shape"
)

const loadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedModule

// Options configures package loading.
type Options struct {
	// Dir is the working directory for the go command.
	Dir string
	// BuildFlags is a shell-quoted flag string, e.g. `-tags "integration e2e"`.
	BuildFlags string
}

// Index is the loaded view of the scanned packages. It implements shape.Port.
type Index struct {
	scope  Scope
	module *packages.Module
	log    *zap.SugaredLogger

	pkgs   map[string]*packages.Package
	order  []*shape.Shape
	byID   map[string]*shape.Shape
	byName map[string][]*shape.Shape
	// unsupported maps type names to why they are not shapes
	unsupported map[string]string
	fields      map[token.Pos]*ast.Field
}

var _ shape.Port = (*Index)(nil)

// Load type-checks the packages in scope. Type errors are logged and
// tolerated: builder files under reconciliation often fail to compile.
func Load(ctx context.Context, scope Scope, opts Options) (*Index, error) {
	flags, err := shellquote.Split(opts.BuildFlags)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "invalid build_flags %q", opts.BuildFlags),
			"quote flag values the way a shell would")
	}

	cfg := &packages.Config{
		Context:    ctx,
		Dir:        opts.Dir,
		Mode:       loadMode,
		BuildFlags: flags,
	}

	pkgs, err := packages.Load(cfg, scope.Patterns...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load packages for %v", scope.Patterns)
	}
	if len(pkgs) == 0 {
		return nil, errors.WithHint(
			errors.Newf("no packages found for %v", scope.Patterns),
			"pass a directory, a .go file or a glob inside a Go module")
	}

	ix := &Index{
		scope:       scope,
		log:         logger.ComponentLogger("source"),
		pkgs:        make(map[string]*packages.Package),
		byID:        make(map[string]*shape.Shape),
		byName:      make(map[string][]*shape.Shape),
		unsupported: make(map[string]string),
		fields:      make(map[token.Pos]*ast.Field),
	}

	for _, pkg := range pkgs {
		for _, perr := range pkg.Errors {
			ix.log.Warnw("package has errors; continuing with partial type information",
				logger.FieldPackage, pkg.PkgPath,
				logger.FieldError, perr.Msg)
		}
		if pkg.Types == nil || pkg.TypesInfo == nil {
			continue
		}
		if ix.module == nil && pkg.Module != nil && pkg.Module.Main {
			ix.module = pkg.Module
		}
		ix.pkgs[pkg.PkgPath] = pkg
		ix.scan(pkg)
	}

	ix.log.Debugw("packages loaded",
		logger.FieldPattern, strings.Join(scope.Patterns, " "),
		logger.FieldCount, len(ix.order))
	return ix, nil
}

func (ix *Index) scan(pkg *packages.Package) {
	for _, file := range pkg.Syntax {
		if emit.IsBuilderSyntax(file) {
			continue
		}
		path := pkg.Fset.Position(file.Package).Filename

		ast.Inspect(file, func(n ast.Node) bool {
			if st, ok := n.(*ast.StructType); ok {
				for _, f := range st.Fields.List {
					for _, name := range f.Names {
						ix.fields[name.Pos()] = f
					}
					if len(f.Names) == 0 {
						ix.fields[embeddedPos(f.Type)] = f
					}
				}
			}
			return true
		})

		for _, d := range file.Decls {
			gd, ok := d.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ix.declare(pkg, path, spec.(*ast.TypeSpec))
			}
		}
	}
}

// embeddedPos is the position go/types records for an embedded field.
func embeddedPos(expr ast.Expr) token.Pos {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedPos(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Pos()
	case *ast.IndexExpr:
		return embeddedPos(t.X)
	case *ast.IndexListExpr:
		return embeddedPos(t.X)
	default:
		return expr.Pos()
	}
}

func (ix *Index) declare(pkg *packages.Package, path string, ts *ast.TypeSpec) {
	name := ts.Name.Name
	obj, ok := pkg.TypesInfo.Defs[ts.Name].(*types.TypeName)
	if !ok || obj == nil {
		return
	}

	if ts.TypeParams != nil && len(ts.TypeParams.List) > 0 {
		ix.unsupported[name] = "generic types are treated as opaque"
		return
	}

	var src shape.Source
	underlying := types.Unalias(obj.Type()).Underlying()
	_, literal := ts.Type.(*ast.StructType)
	_, isStruct := underlying.(*types.Struct)

	switch {
	case !isStruct:
		ix.unsupported[name] = fmt.Sprintf("underlying type %s is not a struct", underlying)
		return
	case ts.Assign.IsValid() && literal:
		src = shape.LiteralAlias{Literal: underlying.(*types.Struct)}
	case literal:
		named, ok := obj.Type().(*types.Named)
		if !ok {
			ix.unsupported[name] = "declaration did not type-check"
			return
		}
		src = shape.StructDecl{Named: named}
	default:
		src = shape.OpaqueAlias{Target: types.Unalias(obj.Type())}
	}

	s := &shape.Shape{
		ID:       pkg.PkgPath + "." + name,
		Name:     name,
		Source:   src,
		PkgPath:  pkg.PkgPath,
		PkgName:  pkg.Name,
		Dir:      filepath.Dir(path),
		File:     path,
		Exported: ts.Name.IsExported(),
	}
	ix.add(s)
}

func (ix *Index) add(s *shape.Shape) {
	if _, ok := ix.byID[s.ID]; ok {
		return
	}
	ix.byID[s.ID] = s
	ix.byName[s.Name] = append(ix.byName[s.Name], s)
	if s.File != "" {
		ix.order = append(ix.order, s)
	}
}

// Shapes lists the shapes declared in scope, restricted to the files the
// user named when any were named.
func (ix *Index) Shapes() []*shape.Shape {
	if len(ix.scope.Files) == 0 {
		return append([]*shape.Shape(nil), ix.order...)
	}
	var out []*shape.Shape
	for _, s := range ix.order {
		abs, _ := filepath.Abs(s.File)
		if ix.scope.Files[abs] {
			out = append(out, s)
		}
	}
	return out
}

// Resolve finds a shape by ID ("example.com/app/models.User") or by name.
func (ix *Index) Resolve(name string) (*shape.Shape, error) {
	if s, ok := ix.byID[name]; ok {
		return s, nil
	}

	candidates := ix.byName[name]
	switch {
	case len(candidates) == 1:
		return candidates[0], nil
	case len(candidates) > 1:
		ids := make([]string, 0, len(candidates))
		for _, c := range candidates {
			ids = append(ids, c.ID)
		}
		return nil, errors.WithHintf(
			errors.Wrapf(errors.ErrAmbiguousNestedReference, "%s is declared in %d packages", name, len(candidates)),
			"use the qualified name, one of %v", ids)
	}

	if reason, ok := ix.unsupported[name]; ok {
		return nil, errors.UnsupportedShape(name, reason)
	}
	return nil, errors.ShapeNotFound(name, ix.scope.Patterns, ix.closest(name))
}

func (ix *Index) closest(name string) []string {
	lower := strings.ToLower(name)
	var out []string
	for n := range ix.byName {
		ln := strings.ToLower(n)
		if strings.Contains(ln, lower) || strings.Contains(lower, ln) {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// FieldsOf returns the shape's fields rendered for q's package. Unexported
// fields are only visible when q is the shape's own package.
func (ix *Index) FieldsOf(s *shape.Shape, q *shape.Qualifier) ([]shape.Field, error) {
	var st *types.Struct
	switch src := s.Source.(type) {
	case shape.StructDecl:
		st = src.Struct()
	case shape.LiteralAlias:
		st = src.Struct()
	case shape.OpaqueAlias:
		st = src.Struct()
	default:
		return nil, errors.UnsupportedShape(s.Name, "neither a struct declaration nor an alias of one")
	}
	if st == nil {
		return nil, errors.UnsupportedShape(s.Name, "no struct type behind the declaration")
	}

	samePkg := q.Local(s.PkgPath)
	var fields []shape.Field
	for i := 0; i < st.NumFields(); i++ {
		v := st.Field(i)
		if v.Name() == "_" || (!v.Exported() && !samePkg) {
			continue
		}

		tag := st.Tag(i)
		_, pointer := v.Type().(*types.Pointer)
		f := shape.Field{
			Name:     v.Name(),
			TypeText: q.TypeString(v.Type()),
			Class:    shape.Classify(v.Type(), ix.local),
			Optional: pointer || strings.Contains(tag, ",omitempty"),
			Owner:    s.Name,
			Decl:     ix.declText(v, tag),
		}
		if f.Class.Element().Kind == shape.KindObject {
			f.Nested = ix.nested(s, f, v.Type())
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// nested returns the shape behind an object-typed field, creating it for
// anonymous structs and for module types outside the scanned packages.
func (ix *Index) nested(owner *shape.Shape, f shape.Field, t types.Type) *shape.Shape {
	elem := elementType(t)

	switch et := elem.(type) {
	case *types.Struct:
		id := owner.ID + "." + f.Name
		if s, ok := ix.byID[id]; ok {
			return s
		}
		s := &shape.Shape{
			ID:       id,
			Name:     naming.NestedShapeName(owner.Name, f.Name, f.Decl, "struct{}"),
			Source:   shape.LiteralAlias{Literal: et},
			PkgPath:  owner.PkgPath,
			PkgName:  owner.PkgName,
			Dir:      owner.Dir,
			Exported: owner.Exported,
		}
		ix.add(s)
		return s

	case *types.Named:
		obj := et.Obj()
		if obj.Pkg() == nil {
			return nil
		}
		id := obj.Pkg().Path() + "." + obj.Name()
		if s, ok := ix.byID[id]; ok {
			return s
		}
		s := &shape.Shape{
			ID:       id,
			Name:     obj.Name(),
			Source:   shape.StructDecl{Named: et},
			PkgPath:  obj.Pkg().Path(),
			PkgName:  obj.Pkg().Name(),
			Dir:      ix.dirOf(obj.Pkg().Path()),
			Exported: obj.Exported(),
		}
		ix.add(s)
		return s
	}
	return nil
}

func elementType(t types.Type) types.Type {
	for {
		switch tt := types.Unalias(t).(type) {
		case *types.Pointer:
			t = tt.Elem()
		case *types.Slice:
			t = tt.Elem()
		case *types.Array:
			t = tt.Elem()
		default:
			return types.Unalias(t)
		}
	}
}

func (ix *Index) declText(v *types.Var, tag string) string {
	af, ok := ix.fields[v.Pos()]
	if !ok {
		return strings.TrimSpace(fmt.Sprintf("%s %s %s", v.Name(), v.Type(), tag))
	}
	parts := []string{v.Name(), types.ExprString(af.Type)}
	if af.Tag != nil {
		parts = append(parts, af.Tag.Value)
	}
	if af.Comment != nil {
		parts = append(parts, strings.TrimSpace(af.Comment.Text()))
	}
	return strings.Join(parts, " ")
}

// local reports whether struct types from p get builders of their own.
func (ix *Index) local(p *types.Package) bool {
	if p == nil {
		return false
	}
	if ix.module != nil {
		return p.Path() == ix.module.Path || strings.HasPrefix(p.Path(), ix.module.Path+"/")
	}
	_, ok := ix.pkgs[p.Path()]
	return ok
}

func (ix *Index) dirOf(pkgPath string) string {
	if pkg, ok := ix.pkgs[pkgPath]; ok && len(pkg.GoFiles) > 0 {
		return filepath.Dir(pkg.GoFiles[0])
	}
	if ix.module != nil {
		rel := strings.TrimPrefix(strings.TrimPrefix(pkgPath, ix.module.Path), "/")
		return filepath.Join(ix.module.Dir, filepath.FromSlash(rel))
	}
	return ""
}

// PackageFor returns the import path and package name code written to dir
// belongs to. The name falls back to the directory's base name for a
// package that does not exist yet.
func (ix *Index) PackageFor(dir string) (string, string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", "", errors.Wrapf(err, "failed to resolve %s", dir)
	}
	for path, pkg := range ix.pkgs {
		if len(pkg.GoFiles) > 0 && filepath.Dir(pkg.GoFiles[0]) == abs {
			return path, pkg.Name, nil
		}
	}
	if ix.module == nil {
		return "", "", errors.WithHint(
			errors.Newf("cannot derive an import path for %s", dir),
			"--out requires module mode (a go.mod above the sources)")
	}
	rel, err := filepath.Rel(ix.module.Dir, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", "", errors.WithHintf(
			errors.Newf("%s is outside module %s", dir, ix.module.Path),
			"choose an output directory under %s", ix.module.Dir)
	}
	path := ix.module.Path
	if rel != "." {
		path += "/" + filepath.ToSlash(rel)
	}
	return path, packageName(filepath.Base(abs)), nil
}

func packageName(base string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9' && b.Len() > 0) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "builders"
	}
	return b.String()
}
