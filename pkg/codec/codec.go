// Package codec implements the engine's on-disk field encoding: a
// whitespace-separated, NUL-terminated stream of tokens, with embedded
// spaces in text values substituted by a "#_#" sentinel and every value
// suffixed with a single-character type tag.
package codec

import (
	"strings"

	"github.com/blockql/blockql/pkg/dbtype"
)

// Sentinel replaces a literal space inside a text value, so the
// whitespace-delimited token stream never splits a text field in two.
const Sentinel = "#_#"

// Sentinelize substitutes spaces in s with Sentinel, for storing a text
// value as a single whitespace-delimited token.
func Sentinelize(s string) string {
	return strings.ReplaceAll(s, " ", Sentinel)
}

// Desentinelize reverses Sentinelize.
func Desentinelize(s string) string {
	return strings.ReplaceAll(s, Sentinel, " ")
}

// EncodeValue renders v as a single whitespace-safe token: its text form
// (sentinelized if it's a text value) followed directly by its one-byte
// type tag, e.g. "5I", "3.14F", "trueB", "hello#_#worldV", "N".
func EncodeValue(v dbtype.Value) string {
	var payload string
	if v.Kind == dbtype.KindText {
		payload = Sentinelize(v.S)
	} else {
		payload = v.String()
	}
	return payload + string(byte(v.Kind))
}

// DecodeValue parses a single token produced by EncodeValue back into a
// Value.
func DecodeValue(tok string) (dbtype.Value, error) {
	if tok == "" {
		return dbtype.None(), nil
	}
	tag := dbtype.Kind(tok[len(tok)-1])
	payload := tok[:len(tok)-1]
	if tag == dbtype.KindText {
		payload = Desentinelize(payload)
	}
	return dbtype.ParseValue(payload, tag)
}

// EncodeFields joins already-tokenized fields into one NUL-terminated
// record, the unit a Page Store block payload holds.
func EncodeFields(fields []string) []byte {
	b := []byte(strings.Join(fields, " "))
	return append(b, 0)
}

// DecodeFields splits a record back into its whitespace-delimited tokens,
// stopping at the first NUL byte or the end of data.
func DecodeFields(data []byte) []string {
	if i := indexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return strings.Fields(string(data))
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
