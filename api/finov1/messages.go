// Package finov1 defines the wire surface of the inspection service: its
// procedure names, request and response messages, and codecs.
package finov1

// Ref addresses a value: a handle and a field path walked from it.
type Ref struct {
	Handle int   `cbor:"1,keyasint" json:"handle"`
	Path   []int `cbor:"2,keyasint,omitempty" json:"path,omitempty"`
}

// Empty is the request or response of operations without one.
type Empty struct{}

type TypeNameRequest struct {
	TypeName string `cbor:"1,keyasint" json:"typeName"`
}

type RefRequest struct {
	Target Ref `cbor:"1,keyasint" json:"target"`
}

// IndexRequest selects element Index of the value at Target: a method for
// MethodName and MethodParams, an item for ItemAt.
type IndexRequest struct {
	Target Ref `cbor:"1,keyasint" json:"target"`
	Index  int `cbor:"2,keyasint" json:"index"`
}

// WriteRequest stores handle Value (nil when negative) into the field named
// by the last selector of Target.Path.
type WriteRequest struct {
	Target Ref `cbor:"1,keyasint" json:"target"`
	Value  int `cbor:"2,keyasint" json:"value"`
}

type InvokeRequest struct {
	Target Ref   `cbor:"1,keyasint" json:"target"`
	Method int   `cbor:"2,keyasint" json:"method"`
	Args   []int `cbor:"3,keyasint,omitempty" json:"args,omitempty"`
}

type InvokeByNameRequest struct {
	Target Ref    `cbor:"1,keyasint" json:"target"`
	Name   string `cbor:"2,keyasint" json:"name"`
	Args   []int  `cbor:"3,keyasint,omitempty" json:"args,omitempty"`
}

type ConstructRequest struct {
	TypeName string `cbor:"1,keyasint" json:"typeName"`
	Args     []int  `cbor:"2,keyasint,omitempty" json:"args,omitempty"`
}

type ConstructAtRequest struct {
	Target Ref   `cbor:"1,keyasint" json:"target"`
	Args   []int `cbor:"2,keyasint,omitempty" json:"args,omitempty"`
}

// LiteralRequest pushes exactly one of String, Int or Bool.
type LiteralRequest struct {
	String *string `cbor:"1,keyasint,omitempty" json:"string,omitempty"`
	Int    *int64  `cbor:"2,keyasint,omitempty" json:"int,omitempty"`
	Bool   *bool   `cbor:"3,keyasint,omitempty" json:"bool,omitempty"`
}

type MacroRequest struct {
	Index int `cbor:"1,keyasint" json:"index"`
}

type RunMacroRequest struct {
	Index  int   `cbor:"1,keyasint" json:"index"`
	Target Ref   `cbor:"2,keyasint" json:"target"`
	Args   []int `cbor:"3,keyasint,omitempty" json:"args,omitempty"`
}

type LoadMacroRequest struct {
	Name string `cbor:"1,keyasint" json:"name"`
	Code []byte `cbor:"2,keyasint" json:"code"`
}

type StringsResponse struct {
	Values []string `cbor:"1,keyasint" json:"values"`
}

type HandlesResponse struct {
	Handles []int `cbor:"1,keyasint" json:"handles"`
}

// HandleResponse carries a handle or a negative sentinel.
type HandleResponse struct {
	Handle int `cbor:"1,keyasint" json:"handle"`
}

type StringResponse struct {
	Value string `cbor:"1,keyasint" json:"value"`
}

type BoolResponse struct {
	Value bool `cbor:"1,keyasint" json:"value"`
}
