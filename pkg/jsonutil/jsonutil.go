// Package jsonutil wraps github.com/go-json-experiment/json for the whole codebase.
//
// Every encode goes through Deterministic(true) so map keys are emitted in
// sorted order: the same value always produces byte-identical JSON, which the
// HTTP layer relies on for ETags and the tests rely on for idempotence checks.
//
// Usage:
//
//	data, err := jsonutil.Marshal(v)
//	err = jsonutil.Unmarshal(data, &v)
//	err = jsonutil.NewEncoder(os.Stdout, "  ").Encode(v)
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Marshal returns the deterministic JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true))
}

// MarshalIndent returns the indented, deterministic JSON encoding of v.
func MarshalIndent(v any, indent string) ([]byte, error) {
	return json.Marshal(v, json.Deterministic(true), jsontext.WithIndent(indent))
}

// Encoder writes one deterministic JSON document per Encode call, each
// followed by a newline.
type Encoder struct {
	w    io.Writer
	opts []json.Options
}

// NewEncoder returns an Encoder writing to w. A non-empty indent
// pretty-prints every document.
func NewEncoder(w io.Writer, indent string) *Encoder {
	opts := []json.Options{json.Deterministic(true)}
	if indent != "" {
		opts = append(opts, jsontext.WithIndent(indent))
	}
	return &Encoder{w: w, opts: opts}
}

// Encode writes v and a trailing newline.
func (e *Encoder) Encode(v any) error {
	if err := json.MarshalWrite(e.w, v, e.opts...); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, "\n")
	return err
}
