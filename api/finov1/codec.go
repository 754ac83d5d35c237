package finov1

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-json"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("finov1: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// CBORCodec encodes messages as canonical CBOR. It serves both as a connect
// codec and as a grpc-go codec.
type CBORCodec struct{}

func (CBORCodec) Name() string { return "cbor" }

func (CBORCodec) Marshal(v any) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

func (CBORCodec) Unmarshal(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("finov1: unmarshal: %w", err)
	}
	return nil
}

// JSONCodec encodes messages as JSON, for curl and browser clients.
type JSONCodec struct{}

func (JSONCodec) Name() string { return "json" }

func (JSONCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONCodec) Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("finov1: unmarshal: %w", err)
	}
	return nil
}

// Codec is the method set shared by connect.Codec and grpc's
// encoding.Codec.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// CodecByName returns the codec called name. The empty name selects CBOR.
func CodecByName(name string) (Codec, error) {
	switch name {
	case "", "cbor":
		return CBORCodec{}, nil
	case "json":
		return JSONCodec{}, nil
	}
	return nil, fmt.Errorf("finov1: unknown codec %q", name)
}
