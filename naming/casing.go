package naming

import (
	"go/token"
	"strings"
	"unicode"
)

// ToSnakeCase converts PascalCase or camelCase to snake_case.
// Handles acronyms properly (e.g., "HTTPSConnection" -> "https_connection")
func ToSnakeCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if i > 0 && unicode.IsUpper(r) {
			// Acronym runs stay together unless the next rune starts a word
			prevUpper := unicode.IsUpper(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])

			if !prevUpper || nextLower {
				result.WriteRune('_')
			}
		}

		result.WriteRune(r)
	}

	return strings.ToLower(result.String())
}

// ToPascalCase converts snake_case, kebab-case or camelCase to PascalCase.
// A leading common initialism is upper-cased whole ("id" -> "ID", "urlPath" -> "URLPath").
func ToPascalCase(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})

	var result strings.Builder
	for i, part := range parts {
		if i == 0 {
			part = upperInitialism(part)
		}
		runes := []rune(part)
		result.WriteRune(unicode.ToUpper(runes[0]))
		result.WriteString(string(runes[1:]))
	}

	return result.String()
}

// ToCamelCase lowers the leading word of an identifier, keeping acronym
// runs together: "ID" -> "id", "URLPath" -> "urlPath", "IDs" -> "ids".
func ToCamelCase(s string) string {
	runes := []rune(s)
	upper := 0
	for upper < len(runes) && unicode.IsUpper(runes[upper]) {
		upper++
	}

	switch {
	case upper == 0:
		return s
	case upper == len(runes):
		return strings.ToLower(s)
	case upper > 1 && string(runes[upper:]) == "s":
		return strings.ToLower(s)
	case upper > 1 && unicode.IsLower(runes[upper]):
		// Last upper rune starts the next word: "HTTPServer" -> "http" + "Server"
		upper--
	}

	for i := 0; i < upper; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

var initialisms = map[string]bool{
	"api": true, "html": true, "http": true, "https": true, "id": true,
	"ip": true, "json": true, "sql": true, "uri": true, "url": true,
	"uuid": true, "xml": true, "yaml": true,
}

// upperInitialism upper-cases a leading lowercase initialism when it forms
// a whole word ("id", "urlPath") but not a prefix of one ("identity").
func upperInitialism(word string) string {
	end := 0
	for end < len(word) && word[end] >= 'a' && word[end] <= 'z' {
		end++
	}
	lead := word[:end]
	if !initialisms[lead] {
		return word
	}
	if end < len(word) && !unicode.IsUpper(rune(word[end])) && !unicode.IsDigit(rune(word[end])) {
		return word
	}
	return strings.ToUpper(lead) + word[end:]
}

// escapeKeyword appends an underscore to Go keywords so they can be used as
// identifiers ("type" -> "type_").
func escapeKeyword(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	return name
}
