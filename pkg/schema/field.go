package schema

import (
	"fmt"
	"iter"

	"github.com/auditdoc/auditdoc/pkg/jsonutil"
)

// FieldType enumerates the value shapes a field can hold.
type FieldType string

const (
	TypeText      FieldType = "text"
	TypeNumber    FieldType = "number"
	TypeDate      FieldType = "date"
	TypeEmail     FieldType = "email"
	TypeEnum      FieldType = "enum"
	TypeRichText  FieldType = "rich-text"
	TypeArray     FieldType = "array"
	TypeArrayText FieldType = "array-text"
	TypeObject    FieldType = "object"
	TypeImage     FieldType = "image"
	TypeComputed  FieldType = "computed"
)

// IsValid reports whether t is one of the known field types.
func (t FieldType) IsValid() bool {
	switch t {
	case TypeText, TypeNumber, TypeDate, TypeEmail, TypeEnum, TypeRichText,
		TypeArray, TypeArrayText, TypeObject, TypeImage, TypeComputed:
		return true
	}
	return false
}

// Option is one allowed value of an enum field. Options come in two forms:
// a bare value (serialised as the value itself) or a value/label pair.
type Option struct {
	value any
	label string
	pair  bool
}

// Raw returns a bare enum option.
func Raw(value any) Option { return Option{value: value} }

// Pair returns an enum option with a display label.
func Pair(value any, label string) Option { return Option{value: value, label: label, pair: true} }

// Value returns the stored option value.
func (o Option) Value() any { return o.value }

// IsPair reports whether the option carries its own label.
func (o Option) IsPair() bool { return o.pair }

// Label returns the display label, falling back to the value's string form.
func (o Option) Label() string {
	if o.pair {
		return o.label
	}
	return fmt.Sprint(o.value)
}

// MarshalJSON keeps the form the option was declared in.
func (o Option) MarshalJSON() ([]byte, error) {
	if !o.pair {
		return jsonutil.Marshal(o.value)
	}
	return jsonutil.Marshal(struct {
		Value any    `json:"value"`
		Label string `json:"label"`
	}{o.value, o.label})
}

// Field describes one attribute of a domain or nested object.
//
// Fields are built with the typed constructors below (Text, Enum, Object,
// Array, ...). Only Object and Array fields can carry nested fields, so the
// resolver's descent check is Nested, never a probe on the type string.
// All state is unexported: a Field cannot be modified after construction.
type Field struct {
	kind     FieldType
	label    string
	example  any
	options  []Option
	computed *derivation
	nested   *Fields
}

// derivation marks a computed field; from names the source field, if any.
type derivation struct {
	from string
}

func scalar(kind FieldType, label string, example any) *Field {
	return &Field{kind: kind, label: label, example: example}
}

// Text returns a plain text field.
func Text(label string, example any) *Field { return scalar(TypeText, label, example) }

// Number returns a numeric field.
func Number(label string, example any) *Field { return scalar(TypeNumber, label, example) }

// Date returns a date field; examples are ISO 8601 strings.
func Date(label string, example any) *Field { return scalar(TypeDate, label, example) }

// Email returns an email address field.
func Email(label string, example any) *Field { return scalar(TypeEmail, label, example) }

// RichText returns an HTML rich-text field.
func RichText(label string, example any) *Field { return scalar(TypeRichText, label, example) }

// Image returns an image field (URL or data URI).
func Image(label string, example any) *Field { return scalar(TypeImage, label, example) }

// ArrayText returns a list-of-strings field.
func ArrayText(label string, example ...string) *Field {
	return scalar(TypeArrayText, label, example)
}

// Enum returns an enumerated field restricted to options.
func Enum(label string, example any, options ...Option) *Field {
	f := scalar(TypeEnum, label, example)
	f.options = options
	return f
}

// Computed returns a field whose value is derived at render time. from names
// the source field; an empty from means "computed" without a single source.
func Computed(label string, example any, from string) *Field {
	f := scalar(TypeComputed, label, example)
	f.computed = &derivation{from: from}
	return f
}

// Object returns a nested record field.
func Object(label string, fields *Fields) *Field {
	return &Field{kind: TypeObject, label: label, nested: fields}
}

// Array returns a list-of-records field. A nil fields describes a list of
// scalars with no addressable members.
func Array(label string, fields *Fields) *Field {
	return &Field{kind: TypeArray, label: label, nested: fields}
}

// Type returns the field's value shape.
func (f *Field) Type() FieldType { return f.kind }

// Label returns the display name.
func (f *Field) Label() string { return f.label }

// Example returns a copy of the sample value.
func (f *Field) Example() any { return cloneValue(f.example) }

// Options returns a copy of the enum options (nil for non-enum fields).
func (f *Field) Options() []Option {
	if len(f.options) == 0 {
		return nil
	}
	out := make([]Option, len(f.options))
	copy(out, f.options)
	return out
}

// Computed reports whether the field is derived at render time, and from
// which source field.
func (f *Field) Computed() (from string, ok bool) {
	if f.computed == nil {
		return "", false
	}
	return f.computed.from, true
}

// Nested returns the member fields of an object or array-of-records field.
func (f *Field) Nested() (*Fields, bool) {
	if f.nested == nil {
		return nil, false
	}
	return f.nested, true
}

// MarshalJSON renders {type,label,example?,options?,computed?,fields?}.
func (f *Field) MarshalJSON() ([]byte, error) {
	var computed any
	if f.computed != nil {
		if f.computed.from != "" {
			computed = f.computed.from
		} else {
			computed = true
		}
	}
	return jsonutil.Marshal(struct {
		Type     FieldType `json:"type"`
		Label    string    `json:"label"`
		Example  any       `json:"example,omitempty"`
		Options  []Option  `json:"options,omitempty"`
		Computed any       `json:"computed,omitempty"`
		Fields   *Fields   `json:"fields,omitempty"`
	}{f.kind, f.label, f.example, f.options, computed, f.nested})
}

// Entry pairs a field with its key, for building ordered field maps.
type Entry struct {
	Name  string
	Field *Field
}

// Def is shorthand for Entry{name, field}.
func Def(name string, field *Field) Entry { return Entry{Name: name, Field: field} }

// Fields is an ordered, read-only map of field name to Field. Resolution
// only uses the map; the order is kept for listings and JSON output.
type Fields struct {
	names  []string
	byName map[string]*Field
}

// NewFields builds an ordered field map. Duplicate or empty names are a
// programming error in static catalog data and panic.
func NewFields(entries ...Entry) *Fields {
	fs := &Fields{
		names:  make([]string, 0, len(entries)),
		byName: make(map[string]*Field, len(entries)),
	}
	for _, e := range entries {
		if e.Name == "" {
			panic("schema: empty field name")
		}
		if e.Field == nil {
			panic(fmt.Sprintf("schema: nil field %q", e.Name))
		}
		if _, dup := fs.byName[e.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate field %q", e.Name))
		}
		fs.names = append(fs.names, e.Name)
		fs.byName[e.Name] = e.Field
	}
	return fs
}

// Len returns the number of top-level fields.
func (fs *Fields) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.names)
}

// Get looks a field up by exact name.
func (fs *Fields) Get(name string) (*Field, bool) {
	if fs == nil {
		return nil, false
	}
	f, ok := fs.byName[name]
	return f, ok
}

// Names returns the field names in declaration order.
func (fs *Fields) Names() []string {
	if fs == nil {
		return nil
	}
	out := make([]string, len(fs.names))
	copy(out, fs.names)
	return out
}

// All iterates fields in declaration order.
func (fs *Fields) All() iter.Seq2[string, *Field] {
	return func(yield func(string, *Field) bool) {
		if fs == nil {
			return
		}
		for _, name := range fs.names {
			if !yield(name, fs.byName[name]) {
				return
			}
		}
	}
}

// MarshalJSON renders the fields as a JSON object in declaration order.
func (fs *Fields) MarshalJSON() ([]byte, error) {
	if fs == nil {
		return []byte("{}"), nil
	}
	pairs := make([]orderedPair, 0, len(fs.names))
	for _, name := range fs.names {
		pairs = append(pairs, orderedPair{key: name, value: fs.byName[name]})
	}
	return marshalOrdered(pairs)
}
