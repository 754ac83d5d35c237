// Package gowrap introspects Go packages and generates the catalog
// registrations that make their types reachable by name.
package gowrap

import "go/types"

// PackageModel is the in-memory representation of a Go package's exported
// types.
type PackageModel struct {
	ImportPath string
	Name       string // short package name (e.g., "json")
	Types      []TypeModel
}

// TypeKind classifies a TypeModel.
type TypeKind int

const (
	KindOther TypeKind = iota
	KindStruct
	KindInterface
)

func (k TypeKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindInterface:
		return "interface"
	}
	return "other"
}

// TypeModel represents an exported, non-generic named type.
type TypeModel struct {
	Name         string
	GoType       types.Type
	Kind         TypeKind
	Fields       []FieldModel
	Methods      []FunctionModel // pointer-receiver method set, own methods only
	Constructors []FunctionModel // package functions returning the type
}

// FunctionModel represents an exported function or method.
type FunctionModel struct {
	Name       string
	IsMethod   bool
	RecvType   string // non-empty for methods (e.g., "*Server")
	Params     []ParamModel
	Results    []ParamModel
	ReturnsErr bool // true if last result is error
}

// ParamModel represents a function parameter or result.
type ParamModel struct {
	Name    string
	GoType  types.Type
	TypeStr string // human-readable type string (e.g., "string", "*http.Server")
}

// FieldModel represents a struct field.
type FieldModel struct {
	Name     string
	GoType   types.Type
	TypeStr  string
	Embedded bool
}

// Type returns the model of the named type, or nil.
func (m *PackageModel) Type(name string) *TypeModel {
	for i := range m.Types {
		if m.Types[i].Name == name {
			return &m.Types[i]
		}
	}
	return nil
}
