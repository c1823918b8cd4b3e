// Package templateresolver resolves report template references to file
// paths or embedded content.
//
// It implements a resolution chain: explicit path → configured templates
// directory → AUDITDOC_TEMPLATE_DIR env var → embedded FS fallback.
// This ensures templates are always available regardless of installation method.
//
// Usage:
//
//	r := templateresolver.New(cfg.Templates.Dir)
//	result, err := r.Resolve("executive-summary")
//	if err != nil { ... }
//	defer result.Content.Close()
//	data, _ := io.ReadAll(result.Content)
package templateresolver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/pkg/templatevalidator"
	"github.com/auditdoc/auditdoc/templates"
)

var (
	// ErrEmptyReference is returned for an empty template reference.
	ErrEmptyReference = errors.New("templateresolver: empty template reference")

	// ErrTraversal is returned when a reference contains a ".." segment.
	ErrTraversal = errors.New("templateresolver: path traversal not allowed")

	// ErrNotName is returned by ReadName for references that are paths.
	ErrNotName = errors.New("templateresolver: template reference must be a name, not a path")

	// ErrNotFound is returned when no step of the chain has the template.
	ErrNotFound = errors.New("templateresolver: template not found")
)

// Ext is the extension added to short template names.
const Ext = ".hbs"

// embeddedRoot is the directory of report templates inside the embedded FS.
const embeddedRoot = "report"

// containsTraversal reports whether a template reference attempts directory traversal.
func containsTraversal(value string) bool {
	for _, part := range strings.FieldsFunc(value, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

// Resolver looks report templates up along the resolution chain.
type Resolver struct {
	// Dir is the configured on-disk template directory.
	Dir string

	// Embedded is the fallback file system, rooted like templates.FS.
	Embedded fs.FS

	// Logger receives skipped-entry diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// New returns a resolver over dir and the bundled templates. An empty dir
// uses defaults.TemplateDir.
func New(dir string) *Resolver {
	if dir == "" {
		dir = defaults.TemplateDir
	}
	return &Resolver{Dir: dir, Embedded: templates.FS}
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Resolver) embedded() fs.FS {
	if r.Embedded != nil {
		return r.Embedded
	}
	return templates.FS
}

// Result holds a resolved template's content and metadata.
type Result struct {
	// Source describes where the template was found
	// (e.g. "embedded:report/findings.hbs", "disk:/path").
	Source string

	// Content is a ReadCloser for the template data. Caller must close it.
	Content io.ReadCloser
}

// locateResult describes where a template was found during resolution.
type locateResult struct {
	source   string // e.g. "disk:/path", "env:/path", "embedded:rel"
	diskPath string // non-empty for disk/env sources
	rel      string // relative path in embedded FS
}

// locate implements the shared resolution chain for Resolve and Read.
// For embedded templates, it briefly opens the file to verify existence, then closes it.
func (r *Resolver) locate(value string) (*locateResult, error) {
	if value == "" {
		return nil, ErrEmptyReference
	}
	if containsTraversal(value) {
		return nil, fmt.Errorf("%w: %q", ErrTraversal, value)
	}

	// If it looks like a file path (contains directory separators), use disk directly.
	if strings.ContainsAny(value, "/\\") {
		return &locateResult{source: "disk:" + value, diskPath: value}, nil
	}

	// Short name resolution: add extension if missing.
	name := value
	if path.Ext(name) == "" {
		name += Ext
	}
	rel := embeddedRoot + "/" + name

	// 1. Configured on-disk directory
	diskPath := filepath.Join(r.Dir, name)
	if _, err := os.Stat(diskPath); err == nil {
		return &locateResult{source: "disk:" + diskPath, diskPath: diskPath, rel: rel}, nil
	}

	// 2. AUDITDOC_TEMPLATE_DIR env var
	if envDir := os.Getenv(defaults.TemplateDirEnv); envDir != "" {
		envPath := filepath.Join(envDir, name)
		if _, err := os.Stat(envPath); err == nil {
			return &locateResult{source: "env:" + envPath, diskPath: envPath, rel: rel}, nil
		}
	}

	// 3. Embedded FS
	if f, err := r.embedded().Open(rel); err == nil {
		f.Close()
		return &locateResult{source: "embedded:" + rel, rel: rel}, nil
	}

	return nil, fmt.Errorf("%w: %q: tried disk, env, embedded", ErrNotFound, value)
}

// Resolve resolves a template reference to its content.
//
// The value parameter can be:
//   - A filesystem path (contains / or \) → read from disk
//   - A short name (e.g. "findings") → look up via resolution chain
//   - A filename with extension (e.g. "findings.hbs") → same resolution chain
//
// Resolution order for short names:
//  1. Configured directory <dir>/<name>.hbs
//  2. AUDITDOC_TEMPLATE_DIR env var: <env>/<name>.hbs
//  3. Embedded FS fallback (always available)
func (r *Resolver) Resolve(value string) (*Result, error) {
	loc, err := r.locate(value)
	if err != nil {
		return nil, err
	}

	if loc.diskPath != "" {
		f, openErr := os.Open(loc.diskPath)
		if openErr != nil {
			if errors.Is(openErr, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %q", ErrNotFound, loc.diskPath)
			}
			return nil, fmt.Errorf("templateresolver: opening %q: %w", loc.diskPath, openErr)
		}
		return &Result{Source: loc.source, Content: f}, nil
	}

	data, openErr := r.embedded().Open(loc.rel)
	if openErr != nil {
		return nil, fmt.Errorf("templateresolver: opening embedded %q: %w", loc.rel, openErr)
	}
	return &Result{Source: loc.source, Content: data}, nil
}

// Read resolves value and returns the whole template source with its source label.
func (r *Resolver) Read(value string) (src, source string, err error) {
	res, err := r.Resolve(value)
	if err != nil {
		return "", "", err
	}
	defer res.Content.Close()
	data, err := io.ReadAll(res.Content)
	if err != nil {
		return "", "", fmt.Errorf("templateresolver: reading %s: %w", res.Source, err)
	}
	return string(data), res.Source, nil
}

// ReadName is Read restricted to short names. References with a directory
// separator or a volume are rejected, so only the configured directory,
// AUDITDOC_TEMPLATE_DIR and the embedded templates are reachable.
func (r *Resolver) ReadName(name string) (src, source string, err error) {
	if name == "" {
		return "", "", ErrEmptyReference
	}
	if strings.ContainsAny(name, `/\`) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", "", fmt.Errorf("%w: %q", ErrNotName, name)
	}
	return r.Read(name)
}

// TemplateInfo holds metadata about a single template.
type TemplateInfo struct {
	// Name is the short name (e.g. "findings").
	Name string `json:"name"`

	// Title is the front matter name, if any.
	Title string `json:"title,omitempty"`

	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// Source is where Resolve would load the template from.
	Source string `json:"source"`
}

// List returns every template reachable by short name, sorted by name.
// A name present in several places is reported once, from the step of the
// chain that wins.
func (r *Resolver) List() ([]TemplateInfo, error) {
	byName := map[string]TemplateInfo{}

	err := fs.WalkDir(r.embedded(), embeddedRoot, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !templatevalidator.IsTemplateFile(p) {
			return nil
		}
		data, readErr := fs.ReadFile(r.embedded(), p)
		if readErr != nil {
			return readErr
		}
		info := parseTemplateInfo(path.Base(p), string(data))
		info.Source = "embedded:" + p
		byName[info.Name] = info
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("templateresolver: listing embedded templates: %w", err)
	}

	// Later steps override earlier ones: env, then the configured directory.
	if envDir := os.Getenv(defaults.TemplateDirEnv); envDir != "" {
		r.listDir(envDir, "env:", byName)
	}
	r.listDir(r.Dir, "disk:", byName)

	infos := make([]TemplateInfo, 0, len(byName))
	for _, info := range byName {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// listDir adds the templates directly inside dir. A missing directory is
// not an error; unreadable files are logged and skipped.
func (r *Resolver) listDir(dir, prefix string, byName map[string]TemplateInfo) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger().Warn("templateresolver: listing directory", "dir", dir, "error", err)
		}
		return
	}
	for _, e := range entries {
		if e.IsDir() || !templatevalidator.IsTemplateFile(e.Name()) {
			continue
		}
		p := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(p)
		if err != nil {
			r.logger().Warn("templateresolver: reading template", "path", p, "error", err)
			continue
		}
		info := parseTemplateInfo(e.Name(), string(data))
		info.Source = prefix + p
		byName[info.Name] = info
	}
}

// parseTemplateInfo extracts info from a template file name and source.
// Front matter errors leave the descriptive fields empty.
func parseTemplateInfo(base, src string) TemplateInfo {
	info := TemplateInfo{Name: strings.TrimSuffix(base, path.Ext(base))}
	if fm, _, _, err := templatevalidator.SplitFrontMatter(src); err == nil {
		info.Title = fm.Name
		info.Description = fm.Description
		info.Tags = fm.Tags
	}
	return info
}
