// Package emit reads builder files into entities and writes them back.
//
// Parsing splits a file into the declarations that belong to one builder
// (its type, constructor and methods) and everything else. Rendering
// regenerates the builder from its entity and carries every other
// declaration over verbatim.
package emit

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"

	"github.com/teranos/buildergen/builder"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/naming"
	"github.com/teranos/buildergen/shape"
)

type declKind int

const (
	kindOther declKind = iota
	kindType
	kindConstructor
	kindMethod
)

type decl struct {
	// owner is the candidate builder type the declaration belongs to.
	owner string
	kind  declKind
	// lead holds free-floating comments that preceded the declaration.
	lead string
	text string
	// start is the offset of text within the file.
	start int
	node  ast.Decl
}

// full is the declaration with its leading comments.
func (dc decl) full() string {
	if dc.lead == "" {
		return dc.text
	}
	return dc.lead + "\n\n" + dc.text
}

// offset maps a file offset inside the declaration to an offset in full().
func (dc decl) offset(fileOffset int) int {
	n := fileOffset - dc.start
	if dc.lead != "" {
		n += len(dc.lead) + 2
	}
	return n
}

// Document is a parsed (or new) builder file.
type Document struct {
	Path    string
	Package string
	// Format is the header's format version, empty for new or foreign files.
	Format  string
	Imports []shape.Import

	src   []byte
	fset  *token.FileSet
	decls []decl
	// grouped names builder types declared inside a type ( ... ) block
	grouped map[string]bool
}

// NewDocument starts an empty builder file.
func NewDocument(path, pkg string) *Document {
	return &Document{Path: path, Package: pkg, fset: token.NewFileSet()}
}

// Parse reads an existing file. Doc comments travel with their
// declaration; free-floating comments travel with the declaration after
// them, or stay at the end of the file when nothing follows.
func Parse(path string, src []byte) (*Document, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to parse %s", path),
			"fix the syntax error or delete the file and run generate again")
	}

	d := &Document{
		Path:    path,
		Package: file.Name.Name,
		src:     src,
		fset:    fset,
		grouped: make(map[string]bool),
	}
	d.Format, _ = HeaderFormat(src)

	spans := make([][2]token.Pos, len(file.Decls))
	for i, node := range file.Decls {
		spans[i] = d.span(file, node)
	}
	floating := floatingComments(file, spans)

	var lead []*ast.CommentGroup
	for i, node := range file.Decls {
		for len(floating) > 0 && floating[0].End() <= spans[i][0] {
			lead = append(lead, floating[0])
			floating = floating[1:]
		}

		if gd, ok := node.(*ast.GenDecl); ok && gd.Tok == token.IMPORT {
			for _, spec := range gd.Specs {
				is := spec.(*ast.ImportSpec)
				path, _ := strconv.Unquote(is.Path.Value)
				imp := shape.Import{Path: path}
				if is.Name != nil {
					imp.Name = is.Name.Name
				}
				d.Imports = append(d.Imports, imp)
			}
			// comments above the imports move to the first declaration
			continue
		}

		dc := d.classify(node, spans[i])
		dc.lead = d.commentText(lead)
		lead = nil
		d.decls = append(d.decls, dc)
	}

	if rest := append(lead, floating...); len(rest) > 0 {
		d.decls = append(d.decls, decl{kind: kindOther, text: d.commentText(rest)})
	}
	return d, nil
}

// span covers a declaration, its doc comment and a comment trailing it on
// its last line.
func (d *Document) span(file *ast.File, node ast.Decl) [2]token.Pos {
	start, end := node.Pos(), node.End()
	switch n := node.(type) {
	case *ast.FuncDecl:
		if n.Doc != nil {
			start = n.Doc.Pos()
		}
	case *ast.GenDecl:
		if n.Doc != nil {
			start = n.Doc.Pos()
		}
	}

	line := d.fset.Position(end).Line
	for _, g := range file.Comments {
		if g.Pos() < end {
			continue
		}
		if d.fset.Position(g.Pos()).Line == line {
			end = g.End()
		}
		break
	}
	return [2]token.Pos{start, end}
}

// floatingComments returns the comment groups after the package clause
// that no declaration covers.
func floatingComments(file *ast.File, spans [][2]token.Pos) []*ast.CommentGroup {
	var out []*ast.CommentGroup
	i := 0
	for _, g := range file.Comments {
		if g.Pos() < file.Name.End() {
			continue
		}
		for i < len(spans) && spans[i][1] < g.Pos() {
			i++
		}
		if i < len(spans) && spans[i][0] <= g.Pos() {
			continue
		}
		out = append(out, g)
	}
	return out
}

func (d *Document) commentText(groups []*ast.CommentGroup) string {
	if len(groups) == 0 {
		return ""
	}
	return d.text(groups[0].Pos(), groups[len(groups)-1].End())
}

func (d *Document) classify(node ast.Decl, span [2]token.Pos) decl {
	dc := decl{
		node:  node,
		text:  d.text(span[0], span[1]),
		start: d.fset.Position(span[0]).Offset,
	}

	switch n := node.(type) {
	case *ast.GenDecl:
		if n.Tok != token.TYPE {
			return dc
		}
		if len(n.Specs) != 1 {
			for _, spec := range n.Specs {
				if name, ok := builderStruct(spec.(*ast.TypeSpec)); ok {
					d.grouped[name] = true
				}
			}
			return dc
		}
		if name, ok := builderStruct(n.Specs[0].(*ast.TypeSpec)); ok {
			dc.owner, dc.kind = name, kindType
		}

	case *ast.FuncDecl:
		if n.Recv != nil && len(n.Recv.List) == 1 {
			if name := receiverName(n.Recv.List[0].Type); strings.HasSuffix(name, "Builder") {
				dc.owner, dc.kind = name, kindMethod
			}
			return dc
		}
		name := n.Name.Name
		if strings.HasPrefix(name, "New") && strings.HasSuffix(name, "Builder") {
			dc.owner, dc.kind = strings.TrimPrefix(name, "New"), kindConstructor
		}
	}
	return dc
}

func builderStruct(ts *ast.TypeSpec) (string, bool) {
	_, ok := ts.Type.(*ast.StructType)
	return ts.Name.Name, ok && strings.HasSuffix(ts.Name.Name, "Builder")
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// Entity extracts the builder named name, or nil when the file has no
// struct type of that name. A builder declared inside a grouped type block
// cannot be regenerated in place and is refused.
func (d *Document) Entity(name string) (*builder.Entity, error) {
	if d.grouped[name] {
		return nil, errors.WithHintf(
			errors.Newf("%s: %s is declared inside a grouped type block", d.Path, name),
			"move %s into its own type declaration", name)
	}

	var e *builder.Entity
	for _, dc := range d.decls {
		if dc.owner == name && dc.kind == kindType {
			e = d.entityFromType(name, dc.node.(*ast.GenDecl))
			break
		}
	}
	if e == nil {
		return nil, nil
	}

	inits := map[string]string{}
	for _, dc := range d.decls {
		if dc.owner != name {
			continue
		}
		switch dc.kind {
		case kindConstructor:
			inits = d.compositeValues(dc.node.(*ast.FuncDecl))
		case kindMethod:
			fn := dc.node.(*ast.FuncDecl)
			switch method := fn.Name.Name; {
			case method == "Build":
				e.Build = d.buildMethod(fn)
				if e.Build != nil {
					e.ShapeType = e.Build.ReturnType
				}
			case naming.IsSetterName(method):
				e.Setters = append(e.Setters, d.setter(dc, fn))
			default:
				e.Methods = append(e.Methods, dc.full())
			}
		}
	}

	for _, m := range e.Members {
		m.Init = inits[m.Name]
	}
	return e, nil
}

func (d *Document) setter(dc decl, fn *ast.FuncDecl) *builder.Setter {
	st := &builder.Setter{
		Name:   fn.Name.Name,
		Field:  naming.FieldNameFromSetter(fn.Name.Name),
		Source: dc.full(),
	}
	if fn.Type.Params == nil || len(fn.Type.Params.List) == 0 {
		return st
	}
	t := fn.Type.Params.List[0].Type
	st.Param = d.text(t.Pos(), t.End())
	st.ParamStart = dc.offset(d.fset.Position(t.Pos()).Offset)
	st.ParamEnd = dc.offset(d.fset.Position(t.End()).Offset)
	return st
}

func (d *Document) entityFromType(name string, gd *ast.GenDecl) *builder.Entity {
	ts := gd.Specs[0].(*ast.TypeSpec)
	doc := commentLines(gd.Doc)
	if ts.Doc != nil {
		doc = append(doc, commentLines(ts.Doc)...)
	}

	e := &builder.Entity{
		Name:      name,
		Shape:     strings.TrimSuffix(name, "Builder"),
		ShapeType: strings.TrimSuffix(name, "Builder"),
		Doc:       doc,
		Fixed:     builder.HasFixedMarker(doc),
	}

	st := ts.Type.(*ast.StructType)
	for _, f := range st.Fields.List {
		typeText := d.text(f.Type.Pos(), f.Type.End())
		fieldDoc := commentLines(f.Doc)
		lineComment := strings.Join(commentLines(f.Comment), " ")
		fixed := builder.HasFixedMarker(fieldDoc) || builder.HasFixedMarker(commentLines(f.Comment))

		names := f.Names
		if len(names) == 0 {
			// embedded: the member is named after its type
			names = []*ast.Ident{ast.NewIdent(naming.SubTypeName(typeText))}
		}
		for _, n := range names {
			e.Members = append(e.Members, &builder.Member{
				Name:    n.Name,
				Type:    typeText,
				Fixed:   fixed,
				Doc:     fieldDoc,
				Comment: lineComment,
			})
		}
	}
	return e
}

// compositeValues maps the keys of the constructor's returned literal to
// their value text.
func (d *Document) compositeValues(fn *ast.FuncDecl) map[string]string {
	out := map[string]string{}
	lit := returnedLiteral(fn)
	if lit == nil {
		return out
	}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		if key, ok := kv.Key.(*ast.Ident); ok {
			out[key.Name] = d.text(kv.Value.Pos(), kv.Value.End())
		}
	}
	return out
}

func (d *Document) buildMethod(fn *ast.FuncDecl) *builder.BuildMethod {
	lit := returnedLiteral(fn)
	if lit == nil || lit.Type == nil {
		return nil
	}
	b := &builder.BuildMethod{ReturnType: d.text(lit.Type.Pos(), lit.Type.End())}
	for _, elt := range lit.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		key, ok := kv.Key.(*ast.Ident)
		if !ok {
			continue
		}
		member := d.text(kv.Value.Pos(), kv.Value.End())
		if sel, ok := kv.Value.(*ast.SelectorExpr); ok {
			member = sel.Sel.Name
		}
		b.Fields = append(b.Fields, builder.Assignment{Key: key.Name, Member: member})
	}
	return b
}

func returnedLiteral(fn *ast.FuncDecl) *ast.CompositeLit {
	if fn.Body == nil {
		return nil
	}
	for _, stmt := range fn.Body.List {
		ret, ok := stmt.(*ast.ReturnStmt)
		if !ok || len(ret.Results) != 1 {
			continue
		}
		expr := ret.Results[0]
		if u, ok := expr.(*ast.UnaryExpr); ok && u.Op == token.AND {
			expr = u.X
		}
		if lit, ok := expr.(*ast.CompositeLit); ok {
			return lit
		}
	}
	return nil
}

func (d *Document) text(start, end token.Pos) string {
	from := d.fset.Position(start).Offset
	to := d.fset.Position(end).Offset
	return string(d.src[from:to])
}

func commentLines(g *ast.CommentGroup) []string {
	if g == nil {
		return nil
	}
	out := make([]string, 0, len(g.List))
	for _, c := range g.List {
		out = append(out, c.Text)
	}
	return out
}
