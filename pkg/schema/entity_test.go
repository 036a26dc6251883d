package schema

import (
	"testing"

	"github.com/blockql/blockql/pkg/dbtype"
)

func TestNewEntityStartsAutoIDAtOne(t *testing.T) {
	e := NewEntity("people", []Attribute{{Name: "id", Type: dbtype.KindInt, PrimaryKey: true, AutoIncrement: true}})
	if e.NextAutoID != 1 {
		t.Fatalf("NextAutoID = %d, want 1", e.NextAutoID)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	e := NewEntity("people", []Attribute{
		{Name: "id", Type: dbtype.KindInt, PrimaryKey: true, AutoIncrement: true},
		{Name: "name", Type: dbtype.KindText, Nullable: true},
	})
	e.NextAutoID = 5
	e.IndexBlock = 3

	fields := e.Encode()
	got, err := Decode(fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Name != "people" || got.NextAutoID != 5 || got.IndexBlock != 3 {
		t.Fatalf("unexpected decoded entity: %+v", got)
	}
	if len(got.Attributes) != 2 {
		t.Fatalf("got %d attributes, want 2", len(got.Attributes))
	}
	pk, ok := got.PrimaryKey()
	if !ok || pk.Name != "id" || !pk.AutoIncrement {
		t.Fatalf("unexpected primary key: %+v, ok=%v", pk, ok)
	}
	name, ok := got.Attribute("name")
	if !ok || !name.Nullable {
		t.Fatalf("unexpected name attribute: %+v, ok=%v", name, ok)
	}
}

func TestEncodeDecodeRoundTripSizeAndDefault(t *testing.T) {
	e := NewEntity("people", []Attribute{
		{Name: "id", Type: dbtype.KindInt, PrimaryKey: true},
		{Name: "status", Type: dbtype.KindText, Size: 10, Nullable: true, HasDefault: true, Default: dbtype.Text("active")},
	})

	fields := e.Encode()
	got, err := Decode(fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	status, ok := got.Attribute("status")
	if !ok {
		t.Fatalf("status attribute missing after round trip")
	}
	if status.Size != 10 {
		t.Fatalf("Size = %d, want 10", status.Size)
	}
	if !status.HasDefault || status.Default != dbtype.Text("active") {
		t.Fatalf("unexpected default: %+v", status)
	}
}

func TestEncodeDecodeWithoutDefaultStaysUnset(t *testing.T) {
	e := NewEntity("people", []Attribute{
		{Name: "id", Type: dbtype.KindInt, PrimaryKey: true},
	})
	got, err := Decode(e.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	id, ok := got.Attribute("id")
	if !ok || id.HasDefault {
		t.Fatalf("unexpected default on id: %+v", id)
	}
}

func TestAttributeNotFound(t *testing.T) {
	e := NewEntity("people", []Attribute{{Name: "id", Type: dbtype.KindInt, PrimaryKey: true}})
	if _, ok := e.Attribute("missing"); ok {
		t.Fatalf("expected missing attribute lookup to fail")
	}
}
