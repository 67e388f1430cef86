package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/buildergen/errors"
	"github.com/teranos/buildergen/shape"
)

const modelsSrc = `package models

import "time"

type Status string

// User is a root shape.
type User struct {
	ID        string
	Active    bool
	Status    Status
	CreatedAt time.Time
	Home      *Address
	Items     []Item
	Meta      struct {
		Tags []string
	}
	Owner  Account ` + "`ref:\"#/components/schemas/Account\"`" + `
	Nick   *string ` + "`json:\"nick,omitempty\"`" + `
	secret string
}

type Address struct{ Street string }

type Item struct {
	SKU string
	Qty int
}

type Account struct{ Email string }

type Admin User

type Point = struct{ X, Y int }

type Pair[T any] struct{ A, B T }

type Names []string

type Node struct {
	Value int
	Next  *Node
}
`

const staleBuilder = `// Code maintained by buildergen (format v1.0.0). Edit freely; pin members or builders with //builder:fixed.

package models

type UserBuilder struct {
	id string
}
`

func writeModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"go.mod":                  "module example.com/app\n\ngo 1.22\n",
		"models/user.go":          modelsSrc,
		"models/user_builder.go":  staleBuilder,
		"models/extra/widget.go":  "package extra\n\ntype Widget struct{ Name string }\n",
		"models/extra/ignored.md": "not go",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func loadModels(t *testing.T) (*Index, string) {
	t.Helper()
	if testing.Short() {
		t.Skip("loads packages with the go command")
	}
	dir := writeModule(t)
	scope, err := ExpandPatterns(dir, []string{"models"})
	require.NoError(t, err)

	ix, err := Load(context.Background(), scope, Options{Dir: dir})
	require.NoError(t, err)
	return ix, dir
}

func names(shapes []*shape.Shape) []string {
	var out []string
	for _, s := range shapes {
		out = append(out, s.Name)
	}
	return out
}

func fieldByName(fields []shape.Field, name string) *shape.Field {
	for i := range fields {
		if fields[i].Name == name {
			return &fields[i]
		}
	}
	return nil
}

func TestLoadShapes(t *testing.T) {
	ix, _ := loadModels(t)

	got := names(ix.Shapes())
	assert.ElementsMatch(t, []string{"User", "Address", "Item", "Account", "Admin", "Point", "Node", "Widget"}, got)
	assert.NotContains(t, got, "UserBuilder", "builder files are never scanned")

	admin, err := ix.Resolve("Admin")
	require.NoError(t, err)
	assert.IsType(t, shape.OpaqueAlias{}, admin.Source)

	point, err := ix.Resolve("Point")
	require.NoError(t, err)
	assert.IsType(t, shape.LiteralAlias{}, point.Source)

	user, err := ix.Resolve("example.com/app/models.User")
	require.NoError(t, err)
	assert.IsType(t, shape.StructDecl{}, user.Source)
	assert.Equal(t, "models", user.PkgName)
}

func TestResolveErrors(t *testing.T) {
	ix, _ := loadModels(t)

	_, err := ix.Resolve("Pair")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedShapeForm))

	_, err = ix.Resolve("Names")
	assert.True(t, errors.Is(err, errors.ErrUnsupportedShapeForm))

	_, err = ix.Resolve("Use")
	require.True(t, errors.Is(err, errors.ErrShapeNotFound))
	assert.Contains(t, errors.FlattenDetails(err), "User")
}

func TestFieldsOf(t *testing.T) {
	ix, _ := loadModels(t)
	user, err := ix.Resolve("User")
	require.NoError(t, err)

	fields, err := ix.FieldsOf(user, shape.NewQualifier(user.PkgPath))
	require.NoError(t, err)

	var fieldNames []string
	for _, f := range fields {
		fieldNames = append(fieldNames, f.Name)
	}
	assert.Equal(t, []string{"ID", "Active", "Status", "CreatedAt", "Home", "Items", "Meta", "Owner", "Nick", "secret"}, fieldNames)

	assert.True(t, fieldByName(fields, "Active").Class.IsBool())
	assert.Equal(t, "time.Time", fieldByName(fields, "CreatedAt").Class.Builtin)

	home := fieldByName(fields, "Home")
	assert.Equal(t, "*Address", home.TypeText)
	assert.True(t, home.Optional)
	require.True(t, home.IsObjectReference())
	assert.Equal(t, "Address", home.Nested.Name)

	items := fieldByName(fields, "Items")
	assert.Equal(t, "[]Item", items.TypeText)
	assert.Equal(t, shape.KindArray, items.Class.Kind)
	require.NotNil(t, items.Nested)
	assert.Equal(t, "example.com/app/models.Item", items.Nested.ID)

	meta := fieldByName(fields, "Meta")
	require.NotNil(t, meta.Nested)
	assert.Equal(t, "UserMeta", meta.Nested.Name)
	assert.Equal(t, "example.com/app/models.User.Meta", meta.Nested.ID)

	owner := fieldByName(fields, "Owner")
	assert.Contains(t, owner.Decl, "#/components/schemas/Account")

	assert.True(t, fieldByName(fields, "Nick").Optional)
	assert.False(t, fieldByName(fields, "Status").IsObjectReference())
}

func TestFieldsOfForeignPackageSkipsUnexported(t *testing.T) {
	ix, _ := loadModels(t)
	user, err := ix.Resolve("User")
	require.NoError(t, err)

	q := shape.NewQualifier("example.com/app/fixtures")
	fields, err := ix.FieldsOf(user, q)
	require.NoError(t, err)

	assert.Nil(t, fieldByName(fields, "secret"))
	assert.Equal(t, "*models.Address", fieldByName(fields, "Home").TypeText)
	assert.Equal(t, []shape.Import{{Path: "example.com/app/models"}, {Path: "time"}}, q.Imports())
}

func TestFieldsOfSelfReference(t *testing.T) {
	ix, _ := loadModels(t)
	node, err := ix.Resolve("Node")
	require.NoError(t, err)

	fields, err := ix.FieldsOf(node, shape.NewQualifier(node.PkgPath))
	require.NoError(t, err)

	next := fieldByName(fields, "Next")
	require.NotNil(t, next)
	assert.Same(t, node, next.Nested)
}

func TestFieldsOfOpaqueAlias(t *testing.T) {
	ix, _ := loadModels(t)
	admin, err := ix.Resolve("Admin")
	require.NoError(t, err)

	fields, err := ix.FieldsOf(admin, shape.NewQualifier(admin.PkgPath))
	require.NoError(t, err)
	assert.Len(t, fields, 10)
}

func TestPackageFor(t *testing.T) {
	ix, dir := loadModels(t)

	path, name, err := ix.PackageFor(filepath.Join(dir, "models"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/models", path)
	assert.Equal(t, "models", name)

	path, name, err = ix.PackageFor(filepath.Join(dir, "internal", "test-fixtures"))
	require.NoError(t, err)
	assert.Equal(t, "example.com/app/internal/test-fixtures", path)
	assert.Equal(t, "testfixtures", name)

	_, _, err = ix.PackageFor(t.TempDir())
	assert.Error(t, err)
}

func TestExpandPatterns(t *testing.T) {
	dir := writeModule(t)

	t.Run("directory is recursive", func(t *testing.T) {
		scope, err := ExpandPatterns(dir, []string{"models"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "models", "...")}, scope.Patterns)
		assert.Empty(t, scope.Files)
	})

	t.Run("file restricts roots", func(t *testing.T) {
		scope, err := ExpandPatterns(dir, []string{"models/extra/widget.go"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "models", "extra")}, scope.Patterns)
		assert.True(t, scope.Files[filepath.Join(dir, "models", "extra", "widget.go")])
	})

	t.Run("doublestar glob", func(t *testing.T) {
		scope, err := ExpandPatterns(dir, []string{"models/**/*.go"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "models"), filepath.Join(dir, "models", "extra")}, scope.Patterns)
		assert.Len(t, scope.Files, 3)
	})

	t.Run("empty glob is an error", func(t *testing.T) {
		_, err := ExpandPatterns(dir, []string{"nothing/**/*.go"})
		assert.Error(t, err)
	})

	t.Run("package patterns pass through", func(t *testing.T) {
		scope, err := ExpandPatterns(dir, []string{"./models/...", "example.com/app/models"})
		require.NoError(t, err)
		assert.Equal(t, []string{"./models/...", "example.com/app/models"}, scope.Patterns)
	})

	t.Run("defaults to the base directory", func(t *testing.T) {
		scope, err := ExpandPatterns(dir, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "...")}, scope.Patterns)
	})
}
