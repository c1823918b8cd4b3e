// Package preview renders report template markup against a dataset, by
// default the catalog's sample data, so authors can check a template while
// writing it.
//
// The dialect is the Handlebars subset the syntax generator emits: dotted
// paths with numeric indices, the formatDate, uppercase, lowercase and
// formatCurrency helpers, each/if/unless/with blocks with else branches,
// and (eq a "b") subexpressions. Rendering is forgiving: a missing value
// renders as an empty string and an unknown helper becomes a warning. Only
// structural problems (unbalanced blocks, unclosed tags) fail.
package preview

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/spaolacci/murmur3"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/schema"
)

// Options configures a Renderer. Zero values select defaults.
type Options struct {
	// Currency is the ISO 4217 code used by formatCurrency.
	Currency string
	// Locale selects number and symbol conventions, e.g. "fr-FR".
	Locale string
	// EscapeHTML escapes {{ }} output like Handlebars does; {{{ }}} is
	// always raw.
	EscapeHTML bool
	// CacheTTL bounds how long parsed templates and sample renders stay
	// cached.
	CacheTTL     time.Duration
	CacheCleanup time.Duration
	Logger       *slog.Logger
}

// Result is a finished render.
type Result struct {
	Output   string   `json:"output"`
	Warnings []string `json:"warnings,omitempty"`
	Cached   bool     `json:"cached"`
}

// Renderer renders templates. It is safe for concurrent use.
type Renderer struct {
	opts   Options
	money  money
	cache  *gocache.Cache
	logger *slog.Logger
	funcs  map[string]helper
}

// New returns a Renderer. It fails only on an unknown currency or locale.
func New(opts Options) (*Renderer, error) {
	if opts.Currency == "" && opts.Locale == "" {
		opts.Currency = defaults.CurrencyCode
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = defaults.PreviewCacheTTL
	}
	if opts.CacheCleanup <= 0 {
		opts.CacheCleanup = defaults.PreviewCacheCleanup
	}
	m, err := newMoney(opts.Currency, opts.Locale)
	if err != nil {
		return nil, err
	}
	r := &Renderer{
		opts:   opts,
		money:  m,
		cache:  gocache.New(opts.CacheTTL, opts.CacheCleanup),
		logger: orDefault(opts.Logger),
	}
	r.funcs = r.helpers()
	return r, nil
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.Default()
}

func cacheKey(kind, src string) string {
	return kind + ":" + strconv.FormatUint(murmur3.Sum64([]byte(src)), 16)
}

// cacheEntry keeps the source next to the cached value; keys are hashes
// and a hit only counts when the source matches.
type cacheEntry struct {
	src string
	val any
}

func (r *Renderer) cached(key, src string) (any, bool) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	e, ok := v.(cacheEntry)
	if !ok {
		r.logger.Warn("preview: unexpected cache entry", "key", key, "type", fmt.Sprintf("%T", v))
		return nil, false
	}
	if e.src != src {
		r.logger.Debug("preview: cache key collision", "key", key)
		return nil, false
	}
	return e.val, true
}

func (r *Renderer) store(key, src string, val any) {
	r.cache.SetDefault(key, cacheEntry{src: src, val: val})
}

// Parse parses src, reusing a cached parse of identical source.
func (r *Renderer) Parse(src string) (*Template, error) {
	key := cacheKey("tmpl", src)
	if v, ok := r.cached(key, src); ok {
		if t, ok := v.(*Template); ok {
			return t, nil
		}
	}
	t, err := Parse(src)
	if err != nil {
		return nil, err
	}
	r.store(key, src, t)
	return t, nil
}

// Render renders src against data.
func (r *Renderer) Render(src string, data map[string]any) (*Result, error) {
	t, err := r.Parse(src)
	if err != nil {
		return nil, err
	}
	return r.Execute(t, data), nil
}

// Execute renders an already parsed template.
func (r *Renderer) Execute(t *Template, data map[string]any) *Result {
	var root any = data
	if data == nil {
		root = map[string]any{}
	}
	ev := &evaluator{
		root:    root,
		frames:  []frame{{ctx: root}},
		helpers: r.funcs,
		escape:  r.opts.EscapeHTML,
	}
	ev.render(t.nodes)
	return &Result{Output: ev.out.String(), Warnings: ev.warnings}
}

// RenderSample renders src against schema.SampleData. Results are cached
// by source.
func (r *Renderer) RenderSample(src string) (*Result, error) {
	key := cacheKey("sample", src)
	if v, ok := r.cached(key, src); ok {
		if res, ok := v.(Result); ok {
			res.Cached = true
			res.Warnings = append([]string(nil), res.Warnings...)
			return &res, nil
		}
	}
	res, err := r.Render(src, schema.SampleData())
	if err != nil {
		return nil, err
	}
	cached := *res
	cached.Warnings = append([]string(nil), res.Warnings...)
	r.store(key, src, cached)
	r.logger.Debug("preview: rendered sample", "bytes", len(res.Output), "warnings", len(res.Warnings))
	return res, nil
}

// Flush drops every cached entry.
func (r *Renderer) Flush() { r.cache.Flush() }
