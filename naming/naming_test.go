package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetterName(t *testing.T) {
	assert.Equal(t, "WithID", SetterName("ID", false))
	assert.Equal(t, "IsActive", SetterName("Active", true))
	assert.Equal(t, "WithID", SetterName("id", false))
	assert.Equal(t, "WithIdentity", SetterName("identity", false))
	assert.Equal(t, "WithCreatedAt", SetterName("CreatedAt", false))
}

func TestFieldNameFromSetter(t *testing.T) {
	tests := []struct {
		setter string
		want   string
	}{
		{"WithID", "id"},
		{"WithURLPath", "urlPath"},
		{"IsActive", "active"},
		{"WithType", "type_"},
		{"WithIDs", "ids"},
		{"Isolate", ""},
		{"Build", ""},
		{"Without", ""},
	}

	for _, tt := range tests {
		t.Run(tt.setter, func(t *testing.T) {
			assert.Equal(t, tt.want, FieldNameFromSetter(tt.setter))
		})
	}
}

func TestFieldNameFromSetterIsLossy(t *testing.T) {
	// A non-bool field named IsActive and a bool field named Active collide.
	nonBool := SetterName("IsActive", false)
	boolean := SetterName("Active", true)

	assert.Equal(t, "WithIsActive", nonBool)
	assert.Equal(t, "isActive", FieldNameFromSetter(nonBool))
	assert.Equal(t, "active", FieldNameFromSetter(boolean))
	assert.Equal(t, FieldNameFromSetter("IsActive"), BuilderFieldName("Active"))
}

func TestSetterRoundTrip(t *testing.T) {
	for _, field := range []string{"ID", "Name", "URLPath", "HTTPServer", "Type", "Items", "CreatedAt"} {
		t.Run(field, func(t *testing.T) {
			assert.Equal(t, BuilderFieldName(field), FieldNameFromSetter(SetterName(field, false)))
		})
	}
}

func TestBuilderFieldName(t *testing.T) {
	assert.Equal(t, "id", BuilderFieldName("ID"))
	assert.Equal(t, "urlPath", BuilderFieldName("URLPath"))
	assert.Equal(t, "httpServer", BuilderFieldName("HTTPServer"))
	assert.Equal(t, "name", BuilderFieldName("Name"))
	assert.Equal(t, "userID", BuilderFieldName("UserID"))
	assert.Equal(t, "func_", BuilderFieldName("Func"))
	assert.Equal(t, "already", BuilderFieldName("already"))
}

func TestEntityNames(t *testing.T) {
	assert.Equal(t, "UserBuilder", BuilderName("User"))
	assert.Equal(t, "NewUserBuilder", ConstructorName("User"))
	assert.Equal(t, "user_profile_builder.go", FileName("UserProfile"))
	assert.Equal(t, "http_server_builder.go", FileName("HTTPServer"))
}

func TestSubTypeName(t *testing.T) {
	assert.Equal(t, "Foo", SubTypeName("NS.Foo"))
	assert.Equal(t, "Item", SubTypeName("[]*models.Item"))
	assert.Equal(t, "Pair", SubTypeName("pkg.Pair[int, string]"))
	assert.Equal(t, "User", SubTypeName("User"))
}

func TestNestedShapeName(t *testing.T) {
	t.Run("schema reference", func(t *testing.T) {
		decl := `Owner components["schemas"]["user-profile"] // owner`
		assert.Equal(t, "UserProfile", NestedShapeName("Repo", "Owner", decl, "Owner"))
	})

	t.Run("schema path in tag", func(t *testing.T) {
		decl := "Owner *Owner `ref:\"#/components/schemas/Account\"`"
		assert.Equal(t, "Account", NestedShapeName("Repo", "Owner", decl, "*Owner"))
	})

	t.Run("named type", func(t *testing.T) {
		assert.Equal(t, "Address", NestedShapeName("User", "Home", "Home models.Address", "models.Address"))
		assert.Equal(t, "Item", NestedShapeName("Order", "Items", "Items []Item;", "[]Item;"))
	})

	t.Run("anonymous struct", func(t *testing.T) {
		assert.Equal(t, "UserMeta", NestedShapeName("User", "Meta", "Meta struct{ Tags []string }", "struct{Tags []string}"))
		assert.Equal(t, "UserHistory", NestedShapeName("User", "History", "", "[]struct{At int}"))
	})
}

func TestNestedTypeDeclarationText(t *testing.T) {
	assert.Equal(t, "string", NestedTypeDeclarationText("[]string;", true))
	assert.Equal(t, "[]string", NestedTypeDeclarationText("[]string;", false))
	assert.Equal(t, "[]T", NestedTypeDeclarationText("[][]T", true))
	assert.Equal(t, "[][]T", NestedTypeDeclarationText("[][]T", false))
	assert.Equal(t, "T", NestedTypeDeclarationText("[4]T", true))
	assert.Equal(t, "[]T", NestedTypeDeclarationText("[size][]T", true))
	assert.Equal(t, "map[string]T", NestedTypeDeclarationText("map[string]T", true))

	// Slice and fixed-size forms normalize to the same element text.
	assert.Equal(t,
		NestedTypeDeclarationText("[]models.Item", true),
		NestedTypeDeclarationText("[8]models.Item", true))
}

func TestElementTypeText(t *testing.T) {
	assert.Equal(t, "T", ElementTypeText("[]*[2]T"))
	assert.Equal(t, "map[string]int", ElementTypeText("*map[string]int"))
	assert.True(t, IsArrayText("[]int"))
	assert.False(t, IsArrayText("map[string]int"))
}

func TestCasing(t *testing.T) {
	assert.Equal(t, "https_connection", ToSnakeCase("HTTPSConnection"))
	assert.Equal(t, "user", ToSnakeCase("User"))
	assert.Equal(t, "UserProfile", ToPascalCase("user_profile"))
	assert.Equal(t, "URLPath", ToPascalCase("urlPath"))
	assert.Equal(t, "ids", ToCamelCase("IDs"))
	assert.Equal(t, "id2", ToCamelCase("ID2"))
}
