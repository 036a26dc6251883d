package row

import (
	"testing"

	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/schema"
)

func testAttrs() []schema.Attribute {
	return []schema.Attribute{
		{Name: "id", Type: dbtype.KindInt, PrimaryKey: true},
		{Name: "name", Type: dbtype.KindText, Nullable: true},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	attrs := testAttrs()
	r := New()
	r.Set("id", dbtype.Int(5))
	r.Set("name", dbtype.Text("alice"))

	fields := r.Encode(attrs)
	got, err := Decode(attrs, fields)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Get("id") != dbtype.Int(5) || got.Get("name") != dbtype.Text("alice") {
		t.Fatalf("round trip mismatch: %+v", got.Values)
	}
}

func TestGetMissingFieldIsNone(t *testing.T) {
	r := New()
	if !r.Get("missing").IsNone() {
		t.Fatalf("expected missing field to decode as None")
	}
}

func TestDecodeWrongFieldCount(t *testing.T) {
	attrs := testAttrs()
	if _, err := Decode(attrs, []string{"oneField"}); err == nil {
		t.Fatalf("expected error for mismatched field count")
	}
}
