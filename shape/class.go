package shape

import (
	"go/types"
	"strings"

	"github.com/teranos/buildergen/naming"
)

// Kind is the coarse classification of a field type.
type Kind int

const (
	KindUnknown Kind = iota
	KindPrimitive
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Class is the resolved classification of a field type.
type Class struct {
	Kind Kind
	// Basic is the underlying basic kind for primitives (types.String, types.Int8...).
	Basic types.BasicKind
	// Builtin names an allow-listed named type ("time.Time") or the opaque
	// fallback "object".
	Builtin string
	// Elem is the element class of arrays.
	Elem *Class
	// Nullable marks pointer, map, chan, func and interface types.
	Nullable bool
	// Composite marks struct-valued and named slice types whose zero literal is T{}.
	Composite bool
}

// Opaque is the fallback for anything the engine does not build for.
var Opaque = Class{Kind: KindPrimitive, Builtin: "object", Nullable: true}

// IsArray reports whether the class is slice- or array-shaped.
func (c Class) IsArray() bool { return c.Kind == KindArray }

// IsBuiltin reports whether the class is a primitive or allow-listed type.
func (c Class) IsBuiltin() bool { return c.Kind == KindPrimitive }

// IsBool reports whether the underlying type is bool.
func (c Class) IsBool() bool { return c.Kind == KindPrimitive && c.Basic == types.Bool && !c.Nullable }

// Element resolves through array levels to the element class.
func (c Class) Element() Class {
	for c.Kind == KindArray && c.Elem != nil {
		c = *c.Elem
	}
	return c
}

func (c Class) String() string {
	switch {
	case c.Kind == KindArray && c.Elem != nil:
		return "array-of-" + c.Elem.String()
	case c.Builtin != "":
		return c.Builtin
	case c.Kind == KindPrimitive:
		return types.Typ[c.Basic].Name()
	default:
		return c.Kind.String()
	}
}

// builtins are named types treated as primitives regardless of module.
var builtins = map[string]types.BasicKind{
	"time.Time":       types.Invalid,
	"time.Duration":   types.Int64,
	"regexp.Regexp":   types.Invalid,
	"big.Int":         types.Invalid,
	"big.Float":       types.Invalid,
	"url.URL":         types.Invalid,
	"json.RawMessage": types.Invalid,
	"unsafe.Pointer":  types.UnsafePointer,
	"any":             types.Invalid,
	"interface{}":     types.Invalid,
	"error":           types.Invalid,
}

// ClassifyText classifies a type by its text alone. Array-shaped text is
// never an object reference; its element must be classified separately.
func ClassifyText(typeText string, isArray bool) Kind {
	t := strings.TrimSpace(typeText)
	if isArray || naming.IsArrayText(t) {
		return KindArray
	}
	t = strings.TrimLeft(t, "*")
	if _, ok := builtins[t]; ok {
		return KindPrimitive
	}
	if types.Universe.Lookup(t) != nil {
		return KindPrimitive
	}
	for _, prefix := range []string{"map[", "func(", "chan ", "<-chan ", "chan<- ", "interface{", "interface {"} {
		if strings.HasPrefix(t, prefix) {
			return KindPrimitive
		}
	}
	return KindObject
}

// Classify is the canonical classification of a resolved type. local
// reports whether a package's struct types get builders of their own.
func Classify(t types.Type, local func(*types.Package) bool) Class {
	switch tt := t.(type) {
	case *types.Pointer:
		c := Classify(tt.Elem(), local)
		c.Nullable = true
		return c

	case *types.Slice:
		elem := Classify(tt.Elem(), local)
		return Class{Kind: KindArray, Elem: &elem}

	case *types.Array:
		elem := Classify(tt.Elem(), local)
		return Class{Kind: KindArray, Elem: &elem}

	case *types.Basic:
		if tt.Kind() == types.UntypedNil || tt.Kind() == types.Invalid {
			return Opaque
		}
		return Class{Kind: KindPrimitive, Basic: tt.Kind(), Nullable: tt.Kind() == types.UnsafePointer}

	case *types.Alias:
		return Classify(types.Unalias(tt), local)

	case *types.Named:
		return classifyNamed(tt, local)

	case *types.Struct:
		return Class{Kind: KindObject, Composite: true}

	default:
		// map, chan, func, interface
		return Opaque
	}
}

func classifyNamed(n *types.Named, local func(*types.Package) bool) Class {
	text := n.Obj().Name()
	if pkg := n.Obj().Pkg(); pkg != nil {
		text = pkg.Name() + "." + text
	}

	if ClassifyText(text, false) == KindPrimitive {
		basic := builtins[text]
		c := Class{Kind: KindPrimitive, Basic: basic, Builtin: text}
		switch n.Underlying().(type) {
		case *types.Struct:
			c.Composite = true
		case *types.Slice:
			c.Kind, c.Composite = KindArray, true
			elem := Classify(n.Underlying().(*types.Slice).Elem(), local)
			c.Elem = &elem
		case *types.Interface:
			c.Nullable = true
		}
		return c
	}

	switch u := n.Underlying().(type) {
	case *types.Basic:
		return Class{Kind: KindPrimitive, Basic: u.Kind()}
	case *types.Slice:
		elem := Classify(u.Elem(), local)
		return Class{Kind: KindArray, Elem: &elem, Composite: true}
	case *types.Array:
		elem := Classify(u.Elem(), local)
		return Class{Kind: KindArray, Elem: &elem, Composite: true}
	case *types.Struct:
		if n.TypeArgs().Len() == 0 && n.TypeParams().Len() == 0 && local(n.Obj().Pkg()) {
			return Class{Kind: KindObject, Composite: true}
		}
		return Class{Kind: KindPrimitive, Builtin: "object", Composite: true}
	default:
		return Opaque
	}
}
