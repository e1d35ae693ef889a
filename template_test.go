package rawcore

import (
	"bytes"
	"errors"
	"testing"
)

func TestTemplatesForFallsBackToClosestLowerVersion(t *testing.T) {
	templates, err := templatesFor(kindRunHeader, 5)
	if err != nil {
		t.Fatalf("templatesFor: %v", err)
	}
	// version 5 has no exact entry; falls back to the highest registered
	// version at or below it, which is version 2 (adds digest_reserved).
	found := false
	for _, tmpl := range templates {
		if tmpl.Name == "digest_reserved" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected version-2 RunHeader template (with digest_reserved) as fallback")
	}
}

func TestTemplatesForUnknownKindReturnsError(t *testing.T) {
	_, err := templatesFor(recordKind(99), 1)
	if !errors.Is(err, ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestDecodeGenericDataHeaderRoundTrip(t *testing.T) {
	var b byteBuilder
	b.u32(2)
	b.ascii("charge_state")
	b.u16(uint16(TInt32))
	b.ascii("charge state of the precursor")
	b.ascii("intensity")
	b.u16(uint16(TFloat32))
	b.ascii("base peak intensity")

	header, err := DecodeGenericDataHeader(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("DecodeGenericDataHeader: %v", err)
	}
	if len(header.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(header.Fields))
	}
	if header.Fields[0].Name != "charge_state" || header.Fields[0].Type != TInt32 {
		t.Fatalf("unexpected field 0: %+v", header.Fields[0])
	}
}
