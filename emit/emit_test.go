package emit

import (
	"go/types"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildergen/builder"
	"github.com/teranos/buildergen/shape"
)

const handWritten = `// Code maintained by buildergen (format v1.0.0). Edit freely; pin members or builders with //builder:fixed.

package models

import (
	"strings"
	"time"
)

// UserBuilder is tuned by hand.
type UserBuilder struct {
	id string // builder:fixed
	//builder:fixed
	name  string
	tags  []string
	at    time.Time
}

// NewUserBuilder returns a UserBuilder seeded with placeholder values.
func NewUserBuilder() *UserBuilder {
	return &UserBuilder{
		id:   "fixed-id",
		name: "Ada",
		tags: []string{},
		at:   time.Now(),
	}
}

// WithID prefixes ids.
func (b *UserBuilder) WithID(value string) *UserBuilder {
	b.id = "u-" + value
	return b
}

func (b *UserBuilder) WithName(value string) *UserBuilder {
	b.name = value
	return b
}

func (b *UserBuilder) WithTags(value []string) *UserBuilder {
	b.tags = value
	return b
}

// Shout upper-cases the name.
func (b *UserBuilder) Shout() *UserBuilder {
	b.name = strings.ToUpper(b.name)
	return b
}

// Build returns the assembled User.
func (b *UserBuilder) Build() User {
	return User{
		ID:   b.id,
		Name: b.name,
		Tags: b.tags,
	}
}

// defaultUsers is kept as written.
func defaultUsers() []User {
	return []User{NewUserBuilder().Build()}
}
`

func TestParseEntity(t *testing.T) {
	doc, err := Parse("models/user_builder.go", []byte(handWritten))
	require.NoError(t, err)

	assert.Equal(t, "models", doc.Package)
	assert.Equal(t, "1.0.0", doc.Format)
	assert.ElementsMatch(t, []shape.Import{{Path: "strings"}, {Path: "time"}}, doc.Imports)

	e, err := doc.Entity("UserBuilder")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "User", e.Shape)
	assert.Equal(t, "User", e.ShapeType)
	assert.False(t, e.Fixed)

	require.Len(t, e.Members, 4)
	assert.True(t, e.Members[0].Fixed, "line comment marker")
	assert.True(t, e.Members[1].Fixed, "doc comment marker")
	assert.False(t, e.Members[2].Fixed)
	assert.Equal(t, `"fixed-id"`, e.Members[0].Init)
	assert.Equal(t, "[]string{}", e.Members[2].Init)
	assert.Equal(t, "time.Time", e.Members[3].Type)

	require.Len(t, e.Setters, 3)
	assert.Equal(t, "id", e.Setters[0].Field)
	assert.Contains(t, e.Setters[0].Source, "// WithID prefixes ids.")
	assert.Equal(t, "[]string", e.Setters[2].Param)

	require.Len(t, e.Methods, 1)
	assert.Contains(t, e.Methods[0], "func (b *UserBuilder) Shout()")

	require.NotNil(t, e.Build)
	assert.Len(t, e.Build.Fields, 3)

	missing, err := doc.Entity("OrderBuilder")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParseEntityFixed(t *testing.T) {
	src := `package models

// UserBuilder is frozen.
//
//builder:fixed
type UserBuilder struct {
	id string
}
`
	doc, err := Parse("user_builder.go", []byte(src))
	require.NoError(t, err)
	e, err := doc.Entity("UserBuilder")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.True(t, e.Fixed)
	assert.Empty(t, doc.Format)
}

func TestParseRejectsBrokenFile(t *testing.T) {
	_, err := Parse("user_builder.go", []byte("package models\n\nfunc broken( {"))
	require.Error(t, err)
}

func sampleEntity(t *testing.T) *builder.Entity {
	t.Helper()
	s := builder.NewSynthesizer(builder.NewFaker(3))
	e, _ := s.Synthesize(builder.Target{
		Shape: &shape.Shape{ID: "example.com/app/models.User", Name: "User"},
		Name:  "User",
		Type:  "User",
		Fields: []shape.Field{
			{Name: "ID", TypeText: "string", Class: shape.Class{Kind: shape.KindPrimitive, Basic: types.String}},
			{Name: "Active", TypeText: "bool", Class: shape.Class{Kind: shape.KindPrimitive, Basic: types.Bool}},
			{Name: "CreatedAt", TypeText: "time.Time", Class: shape.Class{Kind: shape.KindPrimitive, Builtin: "time.Time", Composite: true}},
			{Name: "Tags", TypeText: "[]string", Class: shape.Class{Kind: shape.KindArray}},
		},
	})
	return e
}

func TestRenderNewDocument(t *testing.T) {
	e := sampleEntity(t)
	out, err := NewDocument("models/user_builder.go", "models").Render(e, nil)
	require.NoError(t, err)

	src := string(out)
	assert.True(t, IsBuilderFile(out))
	assert.Contains(t, src, "package models")
	assert.Contains(t, src, `"time"`)
	assert.Contains(t, src, "type UserBuilder struct")
	assert.Contains(t, src, "func NewUserBuilder() *UserBuilder")
	assert.Contains(t, src, "func (b *UserBuilder) WithID(value string) *UserBuilder")
	assert.Contains(t, src, "func (b *UserBuilder) IsActive(value bool) *UserBuilder")
	assert.Contains(t, src, "func (b *UserBuilder) Build() User")
	assert.Contains(t, src, "createdAt: time.Now(),")
	assert.Contains(t, src, "CreatedAt: b.createdAt,")
}

func TestRenderDropsUnusedImports(t *testing.T) {
	s := builder.NewSynthesizer(builder.NewFaker(3))
	e, _ := s.Synthesize(builder.Target{
		Shape:  &shape.Shape{ID: "m.Tag", Name: "Tag"},
		Name:   "Tag",
		Type:   "Tag",
		Fields: []shape.Field{{Name: "Label", TypeText: "string", Class: shape.Class{Kind: shape.KindPrimitive, Basic: types.String}}},
	})

	out, err := NewDocument("tag_builder.go", "models").Render(e, nil)
	require.NoError(t, err)
	assert.NotContains(t, string(out), `"time"`)
}

func TestRenderRoundTripIsStable(t *testing.T) {
	e := sampleEntity(t)
	first, err := NewDocument("models/user_builder.go", "models").Render(e, nil)
	require.NoError(t, err)

	doc, err := Parse("models/user_builder.go", first)
	require.NoError(t, err)
	parsed, err := doc.Entity("UserBuilder")
	require.NoError(t, err)
	require.NotNil(t, parsed)

	for i, m := range e.Members {
		assert.Equal(t, m.Name, parsed.Members[i].Name)
		assert.Equal(t, m.Type, parsed.Members[i].Type)
		assert.Equal(t, m.Init, parsed.Members[i].Init)
	}

	second, err := doc.Render(e, nil)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestRenderPreservesForeignDeclarations(t *testing.T) {
	doc, err := Parse("models/user_builder.go", []byte(handWritten))
	require.NoError(t, err)
	e, err := doc.Entity("UserBuilder")
	require.NoError(t, err)
	require.NotNil(t, e)

	out, err := doc.Render(e, nil)
	require.NoError(t, err)

	src := string(out)
	assert.Contains(t, src, "// defaultUsers is kept as written.")
	assert.Contains(t, src, "func defaultUsers() []User")
	assert.Contains(t, src, "strings.ToUpper(b.name)")
	assert.Contains(t, src, `b.id = "u-" + value`)
	assert.Regexp(t, `id\s+string // builder:fixed`, src)
	assert.Equal(t, 1, strings.Count(src, "type UserBuilder struct"))
	assert.Equal(t, 1, strings.Count(src, "func NewUserBuilder()"))
}

func TestRenderReplacesOwnedDeclarations(t *testing.T) {
	doc, err := Parse("models/user_builder.go", []byte(handWritten))
	require.NoError(t, err)

	out, err := doc.Render(sampleEntity(t), nil)
	require.NoError(t, err)

	src := string(out)
	assert.NotContains(t, src, "Shout", "a fresh entity discards the old builder's methods")
	assert.Contains(t, src, "func defaultUsers() []User")
	assert.Contains(t, src, "IsActive(value bool)")
}

func TestRenderAddsQualifiedImports(t *testing.T) {
	s := builder.NewSynthesizer(builder.NewFaker(3))
	e, _ := s.Synthesize(builder.Target{
		Shape: &shape.Shape{ID: "example.com/app/models.User", Name: "User"},
		Name:  "User",
		Type:  "models.User",
		Fields: []shape.Field{
			{Name: "ID", TypeText: "string", Class: shape.Class{Kind: shape.KindPrimitive, Basic: types.String}},
		},
	})

	out, err := NewDocument("fixtures/user_builder.go", "fixtures").Render(e, []shape.Import{{Path: "example.com/app/models"}})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"example.com/app/models"`)
	assert.Contains(t, string(out), "func (b *UserBuilder) Build() models.User")
}

func TestParseSetterParamOffsets(t *testing.T) {
	doc, err := Parse("models/user_builder.go", []byte(handWritten))
	require.NoError(t, err)
	e, err := doc.Entity("UserBuilder")
	require.NoError(t, err)

	for _, s := range e.Setters {
		assert.Equal(t, s.Param, s.Source[s.ParamStart:s.ParamEnd], s.Name)
	}

	tags := e.Setters[2]
	tags.Retype("[]Tag")
	assert.Contains(t, tags.Source, "func (b *UserBuilder) WithTags(value []Tag) *UserBuilder")
	assert.Equal(t, "[]Tag", tags.Source[tags.ParamStart:tags.ParamEnd])
}

func TestRenderKeepsFloatingComments(t *testing.T) {
	src := handWritten + `
// TODO: add presets for admin users

func (b *UserBuilder) Admin() *UserBuilder {
	b.name = "admin"
	return b
}

// trailing note
`
	doc, err := Parse("models/user_builder.go", []byte(src))
	require.NoError(t, err)
	e, err := doc.Entity("UserBuilder")
	require.NoError(t, err)

	out, err := doc.Render(e, nil)
	require.NoError(t, err)

	first := string(out)
	assert.Equal(t, 1, strings.Count(first, "// TODO: add presets for admin users"))
	assert.Equal(t, 1, strings.Count(first, "// trailing note"))
	assert.Contains(t, first, "func (b *UserBuilder) Admin() *UserBuilder")

	again, err := Parse("models/user_builder.go", out)
	require.NoError(t, err)
	e, err = again.Entity("UserBuilder")
	require.NoError(t, err)
	second, err := again.Render(e, nil)
	require.NoError(t, err)
	assert.Equal(t, first, string(second))
}

func TestRenderKeepsCommentAboveRegeneratedDeclaration(t *testing.T) {
	src := strings.Replace(handWritten, "// NewUserBuilder returns",
		"// fixtures for the admin screens live below\n\n// NewUserBuilder returns", 1)
	doc, err := Parse("models/user_builder.go", []byte(src))
	require.NoError(t, err)
	e, err := doc.Entity("UserBuilder")
	require.NoError(t, err)

	out, err := doc.Render(e, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(out), "// fixtures for the admin screens live below"))
}

func TestEntityRefusesGroupedTypeBlock(t *testing.T) {
	src := `package models

type (
	UserBuilder struct {
		id string
	}
	userID string
)
`
	doc, err := Parse("models/user_builder.go", []byte(src))
	require.NoError(t, err)

	e, err := doc.Entity("UserBuilder")
	require.Error(t, err)
	assert.Nil(t, e)
	assert.Contains(t, err.Error(), "grouped type block")
}

func TestHeader(t *testing.T) {
	line := HeaderLine()
	assert.True(t, IsBuilderFile([]byte(line+"\n\npackage x\n")))
	v, ok := HeaderFormat([]byte(line))
	assert.True(t, ok)
	assert.NotEmpty(t, v)

	assert.False(t, IsBuilderFile([]byte("package x\n")))
	_, ok = HeaderFormat([]byte("package x\n"))
	assert.False(t, ok)
}
