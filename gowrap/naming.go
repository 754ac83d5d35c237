package gowrap

import (
	"strings"
	"unicode"
)

// CatalogName returns the name a type is registered under.
// e.g., ("", "json", "Decoder") → "json.Decoder",
// ("app", "json", "Decoder") → "app.Decoder"
func CatalogName(prefix, pkgName, typeName string) string {
	if prefix == "" {
		prefix = pkgName
	}
	return prefix + "." + typeName
}

// WrapperPackageName returns the package name of the registration code
// generated for importPath.
// e.g., "encoding/json" → "wrap_json", "github.com/a/go-yaml" → "wrap_go_yaml"
func WrapperPackageName(importPath string) string {
	parts := strings.Split(importPath, "/")
	return "wrap_" + toIdent(parts[len(parts)-1])
}

// toIdent maps every character that cannot appear in a Go identifier to '_'.
func toIdent(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return '_'
	}, s)
}
