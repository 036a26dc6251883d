// Package dberr defines the engine's tagged status/error vocabulary,
// grounded on the original engine's StatusResult/Errors taxonomy.
package dberr

import "fmt"

// Kind groups the engine's error taxonomy the way the original Errors enum
// did: Parse, Catalog, Schema, I/O, Index and Control errors.
type Kind int

const (
	NoError Kind = iota

	// Parse errors.
	ParseSyntaxError
	ParseUnexpectedToken
	ParseUnknownKeyword

	// Control errors.
	NotImplemented
	InvalidArgument

	// Catalog/schema errors.
	DatabaseNotFound
	DatabaseAlreadyExists
	NoDatabaseSelected
	TableNotFound
	TableAlreadyExists
	AttributeNotFound
	AttributeAlreadyExists
	PrimaryKeyRequired
	TypeMismatch

	// I/O errors.
	IOError
	CorruptBlock
	OutOfSpace

	// Index errors.
	KeyNotFound
	DuplicateKey
)

var names = map[Kind]string{
	NoError:                "no_error",
	ParseSyntaxError:       "parse_syntax_error",
	ParseUnexpectedToken:   "parse_unexpected_token",
	ParseUnknownKeyword:    "parse_unknown_keyword",
	NotImplemented:         "not_implemented",
	InvalidArgument:        "invalid_argument",
	DatabaseNotFound:       "database_not_found",
	DatabaseAlreadyExists:  "database_already_exists",
	NoDatabaseSelected:     "no_database_selected",
	TableNotFound:          "table_not_found",
	TableAlreadyExists:     "table_already_exists",
	AttributeNotFound:      "attribute_not_found",
	AttributeAlreadyExists: "attribute_already_exists",
	PrimaryKeyRequired:     "primary_key_required",
	TypeMismatch:           "type_mismatch",
	IOError:                "io_error",
	CorruptBlock:           "corrupt_block",
	OutOfSpace:             "out_of_space",
	KeyNotFound:            "key_not_found",
	DuplicateKey:           "duplicate_key",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "unknown_error"
}

// Status is a tagged status result: a Kind plus an optional numeric payload
// (an affected/returned row count on success, or a wrapped cause on
// failure). It implements error so it can be returned and compared like any
// other Go error, but callers that want the row count should type-assert to
// *Status rather than parse Error().
type Status struct {
	Kind  Kind
	Value int64
	Cause error
}

func (s *Status) Error() string {
	if s.Cause != nil {
		return fmt.Sprintf("%s: %v", s.Kind, s.Cause)
	}
	return s.Kind.String()
}

func (s *Status) Unwrap() error { return s.Cause }

// Ok builds a successful status carrying an affected/returned row count.
func Ok(rows int64) *Status { return &Status{Kind: NoError, Value: rows} }

// New builds a failing status of the given kind with no wrapped cause.
func New(kind Kind) *Status { return &Status{Kind: kind} }

// Wrap builds a failing status of the given kind wrapping an underlying error.
func Wrap(kind Kind, cause error) *Status { return &Status{Kind: kind, Cause: cause} }

// IsOK reports whether s represents success. A nil Status is also success,
// mirroring the original StatusResult's bool-convertible "no error" state.
func IsOK(s *Status) bool { return s == nil || s.Kind == NoError }
