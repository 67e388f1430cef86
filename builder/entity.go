// Package builder synthesizes and reconciles builder entities.
//
// An Entity is the in-memory model of one generated builder:
//
//	type UserBuilder struct {
//		id     string
//		active bool
//	}
//
//	func NewUserBuilder() *UserBuilder { return &UserBuilder{id: "...", active: true} }
//	func (b *UserBuilder) WithID(value string) *UserBuilder { ... }
//	func (b *UserBuilder) IsActive(value bool) *UserBuilder { ... }
//	func (b *UserBuilder) Build() User { ... }
//
// The package is pure: parsing and rendering live in emit, file placement
// and recursion in driver.
package builder

import (
	"strings"

	"github.com/teranos/buildergen/naming"
)

// FixedMarker pins a member, or a whole builder when it appears in the
// builder type's doc comment.
const FixedMarker = "builder:fixed"

// HasFixedMarker reports whether any comment line carries the fixed marker.
func HasFixedMarker(lines []string) bool {
	for _, l := range lines {
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "//"))
		if text == FixedMarker || strings.HasPrefix(text, FixedMarker+" ") {
			return true
		}
	}
	return false
}

// Entity is one builder: members, setters, constructor and Build.
type Entity struct {
	Name string
	// Shape is the shape name the builder assembles.
	Shape string
	// ShapeType is the type text Build returns.
	ShapeType string
	Fixed     bool
	// Doc holds the builder type's doc comment lines verbatim.
	Doc     []string
	Members []*Member
	Setters []*Setter
	Build   *BuildMethod
	// Methods are manual methods on the builder, kept verbatim.
	Methods []string
}

// Member is one unexported builder field.
type Member struct {
	Name    string
	Type    string
	Init    string
	Fixed   bool
	Doc     []string
	Comment string
}

// Setter is one With/Is method.
type Setter struct {
	Name string
	// Field is the member the setter targets, recovered from Name.
	Field string
	Param string
	// Source is the method text as written, empty for setters the
	// synthesizer created. Non-empty sources are rendered verbatim.
	Source string
	// ParamStart and ParamEnd locate Param within Source.
	ParamStart, ParamEnd int
}

// Retype points the setter's parameter at typ, editing Source in place
// when the setter was parsed.
func (s *Setter) Retype(typ string) {
	if s.Param == typ {
		return
	}
	if s.Source != "" {
		if s.ParamEnd <= s.ParamStart || s.ParamEnd > len(s.Source) || s.Source[s.ParamStart:s.ParamEnd] != s.Param {
			// the parameter cannot be located; fall back to a fresh setter
			s.Source = ""
		} else {
			s.Source = s.Source[:s.ParamStart] + typ + s.Source[s.ParamEnd:]
			s.ParamEnd = s.ParamStart + len(typ)
		}
	}
	s.Param = typ
}

// Assignment is one key of the Build composite literal.
type Assignment struct {
	Key    string
	Member string
}

// BuildMethod returns the shape assembled from the members.
type BuildMethod struct {
	ReturnType string
	Fields     []Assignment
}

// Member looks a member up by name.
func (e *Entity) Member(name string) *Member {
	for _, m := range e.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// SettersFor returns every setter targeting member.
func (e *Entity) SettersFor(member string) []*Setter {
	var out []*Setter
	for _, s := range e.Setters {
		if s.Field == member {
			out = append(out, s)
		}
	}
	return out
}

// Constructor is the name of the function returning a fresh builder.
func (e *Entity) Constructor() string {
	return naming.ConstructorName(e.Shape)
}

// Clone deep-copies the entity so reconciliation never mutates its input.
func (e *Entity) Clone() *Entity {
	out := *e
	out.Doc = append([]string(nil), e.Doc...)
	out.Methods = append([]string(nil), e.Methods...)
	out.Members = make([]*Member, len(e.Members))
	for i, m := range e.Members {
		c := *m
		c.Doc = append([]string(nil), m.Doc...)
		out.Members[i] = &c
	}
	out.Setters = make([]*Setter, len(e.Setters))
	for i, s := range e.Setters {
		c := *s
		out.Setters[i] = &c
	}
	if e.Build != nil {
		b := *e.Build
		b.Fields = append([]Assignment(nil), e.Build.Fields...)
		out.Build = &b
	}
	return &out
}
