// Package shape describes the structured types builders are generated for,
// and the port through which the engine reads them.
package shape

import (
	"go/types"
)

// Shape is a struct type the engine builds a companion builder for.
type Shape struct {
	// ID is the canonical identity: "pkgpath.Name" for declared types,
	// "<owner ID>.<Field>" for anonymous struct fields.
	ID      string
	Name    string
	Source  Source
	PkgPath string
	PkgName string
	// Dir is the package directory; File the declaring file when known.
	Dir      string
	File     string
	Exported bool
}

// Field is one field of a shape, rendered for a particular output package.
type Field struct {
	Name     string
	TypeText string
	Class    Class
	Optional bool
	Owner    string
	// Decl is the raw declaration including tag and trailing comment.
	Decl string
	// Nested is set for object references, including slices and pointers of them.
	Nested *Shape
}

// IsObjectReference reports whether the field needs a nested builder.
func (f Field) IsObjectReference() bool {
	return f.Nested != nil && f.Class.Element().Kind == KindObject
}

// Port is the type descriptor source the engine consumes.
type Port interface {
	// Shapes lists every shape in scope, in declaration order.
	Shapes() []*Shape
	// Resolve looks a shape up by name or by ID.
	Resolve(name string) (*Shape, error)
	// FieldsOf returns the shape's fields in declaration order, with type
	// text qualified for q's package.
	FieldsOf(s *Shape, q *Qualifier) ([]Field, error)
}

// Source is the tagged union of declaration forms a shape can take.
type Source interface {
	// Struct is the struct type whose fields the shape exposes.
	Struct() *types.Struct
	isSource()
}

// StructDecl is a defined struct type: type User struct{...}.
type StructDecl struct {
	Named *types.Named
}

// LiteralAlias is an alias of a struct literal, type User = struct{...},
// or an anonymous struct field promoted to a shape of its own.
type LiteralAlias struct {
	Literal *types.Struct
}

// OpaqueAlias is a type defined from, or aliased to, another struct type:
// type Admin User.
type OpaqueAlias struct {
	Target types.Type
}

func (s StructDecl) Struct() *types.Struct {
	st, _ := s.Named.Underlying().(*types.Struct)
	return st
}

func (s LiteralAlias) Struct() *types.Struct { return s.Literal }

func (s OpaqueAlias) Struct() *types.Struct {
	st, _ := s.Target.Underlying().(*types.Struct)
	return st
}

func (StructDecl) isSource()   {}
func (LiteralAlias) isSource() {}
func (OpaqueAlias) isSource()  {}

// Form names the declaration form for reports.
func Form(src Source) string {
	switch src.(type) {
	case StructDecl:
		return "struct"
	case LiteralAlias:
		return "literal-alias"
	case OpaqueAlias:
		return "opaque-alias"
	default:
		return "unsupported"
	}
}
