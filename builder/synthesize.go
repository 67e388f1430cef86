package builder

import (
	"fmt"

	"github.com/teranos/buildergen/naming"
	"github.com/teranos/buildergen/shape"
)

// Target is one shape resolved for a particular output package.
type Target struct {
	Shape *shape.Shape
	// Name is the shape name the builder is named after. It differs from
	// Shape.Name when discovery named the shape from a schema reference.
	Name string
	// Type is the type text Build returns.
	Type   string
	Fields []shape.Field
}

func (t Target) key(f shape.Field) string {
	return t.Shape.ID + "." + f.Name
}

// Synthesizer turns targets into builder entities.
type Synthesizer struct {
	faker *Faker
}

// NewSynthesizer returns a Synthesizer drawing placeholders from faker.
func NewSynthesizer(faker *Faker) *Synthesizer {
	return &Synthesizer{faker: faker}
}

// Synthesize builds a fresh entity for t: one member and one setter per
// field in declaration order, then Build. Every object-referenced field is
// reported for nested processing.
func (s *Synthesizer) Synthesize(t Target) (*Entity, []Registration) {
	e := &Entity{
		Name:      naming.BuilderName(t.Name),
		Shape:     t.Name,
		ShapeType: t.Type,
		Doc: []string{
			fmt.Sprintf("// %s assembles %s values with placeholder defaults.", naming.BuilderName(t.Name), t.Name),
		},
	}

	for _, f := range t.Fields {
		m := s.member(t, f)
		e.Members = append(e.Members, m)
		e.Setters = append(e.Setters, canonicalSetter(m, f))
	}
	e.Build = buildMethod(t)

	return e, Discover(t.Name, t.Fields)
}

// Reconcile updates existing to match t's current fields.
//
// Non-fixed members take the current type and placeholder; fixed members
// are left as written. Setters of surviving members are kept as written,
// with the parameter type following a non-fixed member's new type. New
// members get a canonical setter, as does any member left without one.
// Members and With/Is setters for fields the shape no longer has are
// dropped, fixed or not. Manual methods survive. Build is rewritten. Only
// fields new to the builder are reported for nested processing. An
// entity-level fixed builder comes back as is.
func (s *Synthesizer) Reconcile(existing *Entity, t Target) (*Entity, []Registration) {
	if existing == nil {
		return s.Synthesize(t)
	}
	if existing.Fixed {
		return existing, nil
	}

	e := existing.Clone()
	e.ShapeType = t.Type

	var (
		members []*Member
		setters []*Setter
		added   []shape.Field
	)
	for _, f := range t.Fields {
		m := e.Member(naming.BuilderFieldName(f.Name))
		switch {
		case m == nil:
			m = s.member(t, f)
			added = append(added, f)
		case !m.Fixed:
			m.Type = f.TypeText
			m.Init = s.faker.Value(t.key(f), f)
		}
		members = append(members, m)
		setters = append(setters, settersFor(e, m, f)...)
	}

	e.Members = members
	e.Setters = setters
	e.Build = buildMethod(t)

	return e, Discover(t.Name, added)
}

// settersFor returns the setters m keeps after reconciliation. The setter
// named for the other boolean form is the previous canonical setter of a
// field whose type changed to or from bool; it is replaced.
func settersFor(e *Entity, m *Member, f shape.Field) []*Setter {
	kept := e.SettersFor(m.Name)
	if m.Fixed && len(kept) > 0 {
		return kept
	}

	canonical := naming.SetterName(f.Name, f.Class.IsBool())
	stale := naming.SetterName(f.Name, !f.Class.IsBool())

	var (
		out  []*Setter
		have bool
	)
	for _, st := range kept {
		if st.Name == stale {
			continue
		}
		if !m.Fixed {
			st.Retype(m.Type)
		}
		have = have || st.Name == canonical
		out = append(out, st)
	}
	if !have {
		out = append([]*Setter{canonicalSetter(m, f)}, out...)
	}
	return out
}

func (s *Synthesizer) member(t Target, f shape.Field) *Member {
	return &Member{
		Name: naming.BuilderFieldName(f.Name),
		Type: f.TypeText,
		Init: s.faker.Value(t.key(f), f),
	}
}

func canonicalSetter(m *Member, f shape.Field) *Setter {
	return &Setter{
		Name:  naming.SetterName(f.Name, f.Class.IsBool()),
		Field: m.Name,
		Param: m.Type,
	}
}

func buildMethod(t Target) *BuildMethod {
	b := &BuildMethod{ReturnType: t.Type}
	for _, f := range t.Fields {
		b.Fields = append(b.Fields, Assignment{Key: f.Name, Member: naming.BuilderFieldName(f.Name)})
	}
	return b
}
