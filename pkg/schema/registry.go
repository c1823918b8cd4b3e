// Package schema is the catalog of data a report template can bind to.
//
// The catalog is a set of named domains (audit, findings, stats, ...), each
// with an ordered map of typed fields that may nest. It is built once at
// package initialisation and has no mutation API: every type exposes
// accessors only, and container values (examples, sample data) are handed
// out as copies. All functions are safe for concurrent use.
//
// Usage:
//
//	reg := schema.Default()
//	if d, ok := reg.Lookup("findings"); ok {
//		fmt.Println(d.Label(), d.Fields().Len())
//	}
package schema

import (
	"fmt"

	"github.com/auditdoc/auditdoc/pkg/jsonutil"
)

// Domain is one top-level named entry of the catalog.
type Domain struct {
	key         string
	label       string
	icon        string
	description string
	isArray     bool
	isComputed  bool
	fields      *Fields
}

// DomainOption tweaks a Domain at construction time.
type DomainOption func(*Domain)

// AsArray marks a domain as a list of records.
func AsArray() DomainOption { return func(d *Domain) { d.isArray = true } }

// AsComputed marks a domain whose values are derived at render time.
func AsComputed() DomainOption { return func(d *Domain) { d.isComputed = true } }

// NewDomain builds a domain. Catalog data is static; see Default.
func NewDomain(key, label, icon, description string, fields *Fields, opts ...DomainOption) *Domain {
	d := &Domain{
		key:         key,
		label:       label,
		icon:        icon,
		description: description,
		fields:      fields,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Domain) Key() string         { return d.key }
func (d *Domain) Label() string       { return d.label }
func (d *Domain) Icon() string        { return d.icon }
func (d *Domain) Description() string { return d.description }
func (d *Domain) IsArray() bool       { return d.isArray }
func (d *Domain) IsComputed() bool    { return d.isComputed }

// Fields returns the domain's top-level fields.
func (d *Domain) Fields() *Fields { return d.fields }

type domainJSON struct {
	Key         string  `json:"key,omitempty"`
	Label       string  `json:"label"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
	IsArray     bool    `json:"isArray"`
	IsComputed  bool    `json:"isComputed"`
	Fields      *Fields `json:"fields"`
}

func (d *Domain) view(withKey bool) domainJSON {
	v := domainJSON{
		Label:       d.label,
		Icon:        d.icon,
		Description: d.description,
		IsArray:     d.isArray,
		IsComputed:  d.isComputed,
		Fields:      d.fields,
	}
	if withKey {
		v.Key = d.key
	}
	return v
}

// MarshalJSON renders the domain without its key, as it appears inside
// the full catalog object.
func (d *Domain) MarshalJSON() ([]byte, error) {
	return jsonutil.Marshal(d.view(false))
}

// Keyed wraps a domain so it serialises with its key inlined.
type Keyed struct {
	Domain *Domain
}

// MarshalJSON renders {key, ...domain}.
func (k Keyed) MarshalJSON() ([]byte, error) {
	return jsonutil.Marshal(k.Domain.view(true))
}

// Summary is the flat projection of a domain used for listings.
type Summary struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	IsArray     bool   `json:"isArray"`
	IsComputed  bool   `json:"isComputed"`
	FieldCount  int    `json:"fieldCount"`
}

// Registry is an immutable, ordered set of domains.
type Registry struct {
	order   []string
	domains map[string]*Domain
}

// NewRegistry builds a registry. Duplicate keys panic.
func NewRegistry(domains ...*Domain) *Registry {
	r := &Registry{
		order:   make([]string, 0, len(domains)),
		domains: make(map[string]*Domain, len(domains)),
	}
	for _, d := range domains {
		if _, dup := r.domains[d.key]; dup {
			panic(fmt.Sprintf("schema: duplicate domain %q", d.key))
		}
		r.order = append(r.order, d.key)
		r.domains[d.key] = d
	}
	return r
}

var defaultRegistry = NewRegistry(catalog()...)

// Default returns the process-wide report data catalog.
func Default() *Registry { return defaultRegistry }

// Len returns the number of domains.
func (r *Registry) Len() int { return len(r.order) }

// Keys returns domain keys in catalog order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Lookup returns the domain registered under key. A missing key is not an
// error; callers treat !ok as "not found".
func (r *Registry) Lookup(key string) (*Domain, bool) {
	d, ok := r.domains[key]
	return d, ok
}

// All returns every domain by key. The map is a fresh copy; the *Domain
// values are the same ones Lookup returns.
func (r *Registry) All() map[string]*Domain {
	out := make(map[string]*Domain, len(r.domains))
	for k, d := range r.domains {
		out[k] = d
	}
	return out
}

// Domains returns every domain in catalog order.
func (r *Registry) Domains() []*Domain {
	out := make([]*Domain, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.domains[k])
	}
	return out
}

// List projects every domain to a Summary, in catalog order. FieldCount is
// the number of top-level fields only.
func (r *Registry) List() []Summary {
	out := make([]Summary, 0, len(r.order))
	for _, k := range r.order {
		d := r.domains[k]
		out = append(out, Summary{
			Key:         d.key,
			Label:       d.label,
			Icon:        d.icon,
			Description: d.description,
			IsArray:     d.isArray,
			IsComputed:  d.isComputed,
			FieldCount:  d.fields.Len(),
		})
	}
	return out
}

// MarshalJSON renders the catalog as {key: domain, ...} in catalog order.
func (r *Registry) MarshalJSON() ([]byte, error) {
	pairs := make([]orderedPair, 0, len(r.order))
	for _, k := range r.order {
		pairs = append(pairs, orderedPair{key: k, value: r.domains[k]})
	}
	return marshalOrdered(pairs)
}
