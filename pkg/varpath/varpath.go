// Package varpath checks dotted template variable paths against the schema
// catalog.
//
// A path is "<domain>.<field>[.<index>|.<field>]...". All-digit segments are
// array indices and are skipped. When a field has nested fields, the walk
// descends into them; segments that follow a leaf field are accepted as is.
package varpath

import (
	"fmt"
	"strings"

	"github.com/auditdoc/auditdoc/pkg/schema"
)

// Kind classifies a validation failure.
type Kind int

const (
	// OK means the path resolved.
	OK Kind = iota
	// SchemaNotFound means the first segment names no domain.
	SchemaNotFound
	// FieldNotFound means a named segment is not a field at its level.
	FieldNotFound
	// Malformed means the path is empty or has an empty segment.
	Malformed
)

func (k Kind) String() string {
	switch k {
	case OK:
		return "ok"
	case SchemaNotFound:
		return "schema_not_found"
	case FieldNotFound:
		return "field_not_found"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Catalog is the lookup surface the resolver needs. *schema.Registry
// satisfies it.
type Catalog interface {
	Lookup(key string) (*schema.Domain, bool)
}

// Result is the outcome of Validate. It serialises as {valid, error?}.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
	Kind  Kind   `json:"-"`
}

func valid() Result { return Result{Valid: true} }

func invalid(kind Kind, format string, args ...any) Result {
	return Result{Kind: kind, Error: fmt.Sprintf(format, args...)}
}

// Validate reports whether path addresses a field of catalog. It never
// panics and never returns an error value; failures are described by the
// Result.
func Validate(catalog Catalog, path string) Result {
	if path == "" {
		return invalid(Malformed, "Variable path is empty")
	}
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if seg == "" {
			return invalid(Malformed, "Empty segment at position %d in path", i)
		}
	}

	domain, ok := catalog.Lookup(segments[0])
	if !ok {
		return invalid(SchemaNotFound, "Schema '%s' not found", segments[0])
	}

	cursor := domain.Fields()
	for _, seg := range segments[1:] {
		if IsIndex(seg) {
			continue
		}
		field, ok := cursor.Get(seg)
		if !ok {
			return invalid(FieldNotFound, "Field '%s' not found in path", seg)
		}
		if nested, ok := field.Nested(); ok {
			cursor = nested
		}
	}
	return valid()
}

// IsIndex reports whether seg is an array index: one or more ASCII digits.
func IsIndex(seg string) bool {
	if seg == "" {
		return false
	}
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}
