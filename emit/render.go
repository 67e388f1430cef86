package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"go/parser"
	"go/token"
	"strings"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/go/ast/astutil"
	"golang.org/x/tools/imports"

	"github.com/teranos/buildergen/builder"
	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/shape"
)

const receiver = "b"

// placeholderImports may be referenced by initializers the faker writes.
var placeholderImports = []shape.Import{{Path: "time"}}

// Render writes the document with e as its builder. Any previous
// declarations of e's type, constructor and methods are replaced; every
// other declaration is carried over verbatim. needed lists the imports the
// entity's type text requires; unused imports are dropped.
func (d *Document) Render(e *builder.Entity, needed []shape.Import) ([]byte, error) {
	f := jen.NewFile(d.Package)
	f.HeaderComment(HeaderLine())

	renderEntity(f, e)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, errors.Wrapf(err, "failed to render %s", e.Name)
	}

	for _, dc := range d.decls {
		text := dc.full()
		if dc.owner == e.Name && dc.kind != kindOther {
			// the builder's own declarations are regenerated; leading
			// comments survive unless a verbatim method already carries them
			if dc.lead == "" || carried(e, dc.lead) {
				continue
			}
			text = dc.lead
		}
		buf.WriteString("\n")
		buf.WriteString(text)
		buf.WriteString("\n")
	}

	all := append(append(append([]shape.Import(nil), needed...), d.Imports...), placeholderImports...)
	return finish(d.Path, buf.Bytes(), all)
}

// carried reports whether a verbatim method or setter of e starts with lead.
func carried(e *builder.Entity, lead string) bool {
	for _, m := range e.Methods {
		if strings.HasPrefix(m, lead) {
			return true
		}
	}
	for _, s := range e.Setters {
		if s.Source != "" && strings.HasPrefix(s.Source, lead) {
			return true
		}
	}
	return false
}

func renderEntity(f *jen.File, e *builder.Entity) {
	for _, line := range e.Doc {
		f.Comment(line)
	}
	f.Type().Id(e.Name).Struct(memberFields(e)...)
	f.Line()

	f.Comment(fmt.Sprintf("// %s returns a %s seeded with placeholder values.", e.Constructor(), e.Name))
	f.Func().Id(e.Constructor()).Params().Op("*").Id(e.Name).Block(
		jen.Return(jen.Op("&").Id(e.Name).Values(initializers(e)...)),
	)

	for _, s := range e.Setters {
		f.Line()
		if s.Source != "" {
			f.Id(s.Source)
			continue
		}
		f.Func().Params(jen.Id(receiver).Op("*").Id(e.Name)).Id(s.Name).
			Params(jen.Id("value").Id(s.Param)).
			Op("*").Id(e.Name).
			Block(
				jen.Id(receiver).Dot(s.Field).Op("=").Id("value"),
				jen.Return(jen.Id(receiver)),
			)
	}

	if e.Build != nil {
		f.Line()
		f.Comment(fmt.Sprintf("// Build returns the assembled %s.", e.Shape))
		f.Func().Params(jen.Id(receiver).Op("*").Id(e.Name)).Id("Build").Params().Id(e.Build.ReturnType).Block(
			jen.Return(jen.Id(e.Build.ReturnType).Values(assignments(e.Build)...)),
		)
	}

	for _, m := range e.Methods {
		f.Line()
		f.Id(m)
	}
}

func memberFields(e *builder.Entity) []jen.Code {
	var out []jen.Code
	for _, m := range e.Members {
		for _, line := range m.Doc {
			out = append(out, jen.Comment(line))
		}
		field := jen.Id(m.Name).Id(m.Type)
		if m.Comment != "" {
			field.Comment(m.Comment)
		}
		out = append(out, field)
	}
	return out
}

// initializers renders one "member: value" line per member; members
// without an initializer start at their zero value.
func initializers(e *builder.Entity) []jen.Code {
	var out []jen.Code
	for _, m := range e.Members {
		if m.Init == "" {
			continue
		}
		out = append(out, jen.Line().Id(m.Name).Op(":").Id(m.Init))
	}
	if len(out) > 0 {
		out = append(out, jen.Line())
	}
	return out
}

func assignments(b *builder.BuildMethod) []jen.Code {
	var out []jen.Code
	for _, a := range b.Fields {
		out = append(out, jen.Line().Id(a.Key).Op(":").Id(receiver).Dot(a.Member))
	}
	if len(out) > 0 {
		out = append(out, jen.Line())
	}
	return out
}

// finish adds the imports, gofmt's the file and drops unused imports.
func finish(path string, src []byte, needed []shape.Import) ([]byte, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "rendered %s does not parse", path)
	}

	for _, imp := range needed {
		astutil.AddNamedImport(fset, file, imp.Name, imp.Path)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, file); err != nil {
		return nil, errors.Wrapf(err, "failed to format %s", path)
	}

	out, err := imports.Process(path, buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resolve imports for %s", path)
	}
	return out, nil
}
