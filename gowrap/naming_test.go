package gowrap

import "testing"

func TestCatalogName(t *testing.T) {
	tests := []struct {
		prefix   string
		pkgName  string
		typeName string
		expected string
	}{
		{"", "json", "Decoder", "json.Decoder"},
		{"", "http", "Server", "http.Server"},
		{"app", "json", "Decoder", "app.Decoder"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := CatalogName(tt.prefix, tt.pkgName, tt.typeName)
			if got != tt.expected {
				t.Errorf("CatalogName(%q, %q, %q) = %q, want %q", tt.prefix, tt.pkgName, tt.typeName, got, tt.expected)
			}
		})
	}
}

func TestWrapperPackageName(t *testing.T) {
	tests := []struct {
		importPath string
		expected   string
	}{
		{"strings", "wrap_strings"},
		{"encoding/json", "wrap_json"},
		{"net/http/httptest", "wrap_httptest"},
		{"github.com/a/go-yaml", "wrap_go_yaml"},
		{"gopkg.in/yaml.v3", "wrap_yaml_v3"},
	}
	for _, tt := range tests {
		t.Run(tt.importPath, func(t *testing.T) {
			got := WrapperPackageName(tt.importPath)
			if got != tt.expected {
				t.Errorf("WrapperPackageName(%q) = %q, want %q", tt.importPath, got, tt.expected)
			}
		})
	}
}

func TestToIdent(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"json", "json"},
		{"http-server", "http_server"},
		{"my_lib", "my_lib"},
		{"Yaml.v2", "yaml_v2"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := toIdent(tt.input)
			if got != tt.expected {
				t.Errorf("toIdent(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
