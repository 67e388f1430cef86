// Package naming derives every identifier buildergen emits: setter names and
// their inverse, builder member names, nested shape names and builder file
// names.
package naming

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	prefixWith = "With"
	prefixIs   = "Is"
)

var (
	setterPrefix = regexp.MustCompile(`^(With|Is)([A-Z0-9_].*)$`)

	// Generated OpenAPI clients name nested types after their schema path.
	schemaRef     = regexp.MustCompile(`\["schemas"\]\["([^"]+)"\]`)
	schemaRefPath = regexp.MustCompile(`#/components/schemas/([A-Za-z0-9_.\-]+)`)

	arrayLevel = regexp.MustCompile(`^\[[0-9A-Za-z_.]*\]`)
)

// SetterName returns Is+Pascal(field) for boolean fields, With+Pascal(field) otherwise.
func SetterName(field string, boolean bool) string {
	if boolean {
		return prefixIs + ToPascalCase(field)
	}
	return prefixWith + ToPascalCase(field)
}

// IsSetterName reports whether a method name carries a setter prefix.
func IsSetterName(method string) bool {
	return setterPrefix.MatchString(method)
}

// FieldNameFromSetter strips the With/Is prefix and returns the builder
// member the setter targets. The inverse is lossy: a non-bool field named
// IsActive and a bool field named Active both map to "active".
func FieldNameFromSetter(setter string) string {
	m := setterPrefix.FindStringSubmatch(setter)
	if m == nil {
		return ""
	}
	return BuilderFieldName(m[2])
}

// BuilderFieldName is the unexported member name holding a shape field.
func BuilderFieldName(field string) string {
	return escapeKeyword(ToCamelCase(field))
}

// BuilderName is the entity name paired with a shape.
func BuilderName(shape string) string {
	return shape + "Builder"
}

// ConstructorName is the function returning a fresh builder.
func ConstructorName(shape string) string {
	return "New" + BuilderName(shape)
}

// FileName is the builder file for a shape.
func FileName(shape string) string {
	return ToSnakeCase(shape) + "_builder.go"
}

// SubTypeName returns the last dot-delimited segment of a type reference,
// ignoring pointer, array and type-argument decoration: "[]*models.Item" -> "Item".
func SubTypeName(typeText string) string {
	t := ElementTypeText(typeText)
	if i := strings.IndexByte(t, '['); i > 0 {
		t = t[:i]
	}
	if i := strings.LastIndexByte(t, '.'); i >= 0 {
		t = t[i+1:]
	}
	return t
}

// NestedShapeName names the builder for an object-typed field. A schema
// reference in the declaration wins; a named element type gives its own
// name; an anonymous struct takes owner+field.
func NestedShapeName(owner, field, decl, typeText string) string {
	if m := schemaRef.FindStringSubmatch(decl); m != nil {
		return ToPascalCase(m[1])
	}
	if m := schemaRefPath.FindStringSubmatch(decl); m != nil {
		return ToPascalCase(m[1])
	}

	elem := strings.TrimSuffix(strings.TrimSpace(ElementTypeText(typeText)), ";")
	if IsAnonymousStruct(elem) || elem == "" {
		return owner + ToPascalCase(field)
	}
	return SubTypeName(elem)
}

// NestedTypeDeclarationText returns a field's type text without trailing
// terminators. With stripOneArrayLevel, exactly one leading slice or array
// level is removed ("[][]T" -> "[]T", "[4]T" -> "T").
func NestedTypeDeclarationText(typeText string, stripOneArrayLevel bool) string {
	t := strings.TrimSuffix(strings.TrimSpace(typeText), ";")
	if !stripOneArrayLevel {
		return t
	}
	if loc := arrayLevel.FindStringIndex(t); loc != nil {
		return t[loc[1]:]
	}
	return t
}

// IsArrayText reports whether typeText is slice- or array-shaped.
func IsArrayText(typeText string) bool {
	return arrayLevel.MatchString(strings.TrimSpace(typeText))
}

// ElementTypeText strips every array level and pointer: "[]*[2]T" -> "T".
func ElementTypeText(typeText string) string {
	t := strings.TrimSpace(typeText)
	for {
		switch {
		case strings.HasPrefix(t, "*"):
			t = t[1:]
		case IsArrayText(t):
			t = NestedTypeDeclarationText(t, true)
		default:
			return t
		}
	}
}

// IsAnonymousStruct reports whether typeText is a struct literal type.
func IsAnonymousStruct(typeText string) bool {
	t := strings.TrimLeftFunc(typeText, unicode.IsSpace)
	return strings.HasPrefix(t, "struct{") || strings.HasPrefix(t, "struct {")
}
