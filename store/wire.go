package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/incr/defs"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// MarshalClass serializes a class definition to canonical CBOR.
func MarshalClass(def *defs.ClassDef) ([]byte, error) {
	return cborEncMode.Marshal(def)
}

// UnmarshalClass deserializes a class definition.
func UnmarshalClass(data []byte) (*defs.ClassDef, error) {
	var def defs.ClassDef
	if err := cbor.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("store: unmarshal class: %w", err)
	}
	return &def, nil
}

// bodyRecord is a member implementation stored apart from its class.
type bodyRecord struct {
	Args *defs.ArgList `cbor:"args,omitempty"`
	Body string        `cbor:"body"`
}

func marshalBody(b *bodyRecord) ([]byte, error) {
	return cborEncMode.Marshal(b)
}

func unmarshalBody(data []byte) (*bodyRecord, error) {
	var b bodyRecord
	if err := cbor.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("store: unmarshal body: %w", err)
	}
	return &b, nil
}
