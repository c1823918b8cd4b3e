// Package templatevalidator checks report templates against the schema
// catalog before they are used to render a report.
//
// A template is Handlebars-style markup, optionally preceded by a YAML front
// matter block:
//
//	---
//	name: Executive summary
//	description: One page overview for management
//	language: en
//	domains: [audit, stats]
//	---
//	{{audit.name}} ...
//
// Structural problems (unbalanced blocks, bad front matter) are errors.
// Variable paths that do not resolve are warnings, since an unknown path only
// renders as empty text; StrictMode turns them into errors.
package templatevalidator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/auditdoc/auditdoc/pkg/preview"
	"github.com/auditdoc/auditdoc/pkg/schema"
	"github.com/auditdoc/auditdoc/pkg/varpath"
)

// ValidationResult holds the result of validating a template
type ValidationResult struct {
	File       string   `json:"file"`
	Name       string   `json:"name,omitempty"`
	Valid      bool     `json:"valid"`
	References int      `json:"references"`
	Errors     []string `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ValidationSummary holds the overall validation summary
type ValidationSummary struct {
	TotalFiles    int                 `json:"total_files"`
	ValidFiles    int                 `json:"valid_files"`
	InvalidFiles  int                 `json:"invalid_files"`
	TotalErrors   int                 `json:"total_errors"`
	TotalWarnings int                 `json:"total_warnings"`
	Results       []*ValidationResult `json:"results"`
}

// Add records one result.
func (s *ValidationSummary) Add(r *ValidationResult) {
	s.Results = append(s.Results, r)
	s.TotalFiles++
	if r.Valid {
		s.ValidFiles++
	} else {
		s.InvalidFiles++
	}
	s.TotalErrors += len(r.Errors)
	s.TotalWarnings += len(r.Warnings)
}

// FrontMatter is the optional YAML header of a template.
type FrontMatter struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Language    string   `yaml:"language"`
	Author      string   `yaml:"author"`
	Domains     []string `yaml:"domains"`
	Tags        []string `yaml:"tags"`
}

const fence = "---"

// SplitFrontMatter separates a leading front matter block from the
// template body. bodyLine is the 1-based line the body starts on. A source
// without front matter returns a zero FrontMatter and the source unchanged.
func SplitFrontMatter(src string) (fm FrontMatter, body string, bodyLine int, err error) {
	normalized := strings.ReplaceAll(src, "\r\n", "\n")
	if !strings.HasPrefix(normalized, fence+"\n") {
		return fm, src, 1, nil
	}
	rest := normalized[len(fence)+1:]
	end := strings.Index(rest, "\n"+fence)
	var header string
	switch {
	case strings.HasPrefix(rest, fence):
		header, rest = "", rest[len(fence):]
	case end >= 0:
		header, rest = rest[:end+1], rest[end+1+len(fence):]
	default:
		return fm, src, 1, fmt.Errorf("front matter: missing closing %s", fence)
	}
	// drop the rest of the closing fence line
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	} else {
		rest = ""
	}

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return FrontMatter{}, src, 1, fmt.Errorf("front matter: %w", err)
	}
	bodyLine = strings.Count(header, "\n") + 3
	return fm, rest, bodyLine, nil
}

// Validator validates report templates
type Validator struct {
	StrictMode bool
	Catalog    varpath.Catalog
}

// NewValidator creates a new template validator over the default catalog
func NewValidator(strict bool) *Validator {
	return &Validator{StrictMode: strict, Catalog: schema.Default()}
}

func (v *Validator) catalog() varpath.Catalog {
	if v.Catalog == nil {
		return schema.Default()
	}
	return v.Catalog
}

// ValidateSource validates template source. name labels the result.
func (v *Validator) ValidateSource(name, src string) *ValidationResult {
	result := &ValidationResult{
		File:  name,
		Valid: true,
	}
	fail := func(format string, args ...any) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}
	warn := func(format string, args ...any) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(format, args...))
	}

	fm, body, bodyLine, err := SplitFrontMatter(src)
	if err != nil {
		fail("%v", err)
		return result
	}
	result.Name = fm.Name

	cat := v.catalog()
	declared := map[string]bool{}
	for _, d := range fm.Domains {
		if _, ok := cat.Lookup(d); !ok {
			fail("front matter: unknown domain %q", d)
			continue
		}
		declared[d] = true
	}

	tmpl, err := preview.Parse(body)
	if err != nil {
		var pe *preview.ParseError
		if errors.As(err, &pe) {
			fail("line %d: %s", pe.Line+bodyLine-1, pe.Msg)
		} else {
			fail("%v", err)
		}
		return result
	}

	refs := tmpl.References()
	result.References = len(refs)
	for _, ref := range refs {
		line := ref.Line + bodyLine - 1
		res, resolved := resolve(cat, ref)
		if !res.Valid {
			if v.StrictMode {
				fail("line %d: {{%s}}: %s", line, ref.Raw, res.Error)
			} else {
				warn("line %d: {{%s}}: %s", line, ref.Raw, res.Error)
			}
			continue
		}
		if len(declared) > 0 {
			domain, _, _ := strings.Cut(resolved, ".")
			if _, ok := cat.Lookup(domain); ok && !declared[domain] {
				warn("line %d: {{%s}}: domain %q is not listed in front matter", line, ref.Raw, domain)
			}
		}
	}

	for _, h := range tmpl.Helpers() {
		if !preview.IsHelper(h.Name, h.Block) {
			kind := "helper"
			if h.Block {
				kind = "block helper"
			}
			warn("line %d: unknown %s %q", h.Line+bodyLine-1, kind, h.Name)
		}
	}

	if fm.Name == "" && strings.HasPrefix(src, fence) {
		warn("front matter: missing name")
	}
	if v.StrictMode && fm.Description == "" {
		warn("missing description")
	}
	return result
}

// resolve validates every candidate form of a reference and returns the
// first one that resolves. On failure it reports the error of the root form,
// unless that form names no domain and an item form exists.
func resolve(cat varpath.Catalog, ref preview.Reference) (varpath.Result, string) {
	var first, item varpath.Result
	for i, c := range ref.Candidates {
		res := varpath.Validate(cat, c)
		if res.Valid {
			return res, c
		}
		switch i {
		case 0:
			first = res
		case 1:
			item = res
		}
	}
	if first.Kind == varpath.SchemaNotFound && len(ref.Candidates) > 1 {
		return item, ""
	}
	return first, ""
}

// ValidateFile validates a single template file
func (v *Validator) ValidateFile(filePath string) *ValidationResult {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return &ValidationResult{
			File:   filePath,
			Errors: []string{fmt.Sprintf("cannot read file: %v", err)},
		}
	}
	return v.ValidateSource(filePath, string(data))
}

// IsTemplateFile reports whether name has a template extension.
func IsTemplateFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".hbs", ".handlebars", ".txt":
		return true
	}
	return false
}

// ValidateDirectory validates all templates in a directory
func (v *Validator) ValidateDirectory(dirPath string) (*ValidationSummary, error) {
	summary := &ValidationSummary{}

	err := filepath.WalkDir(dirPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsTemplateFile(p) {
			return nil
		}
		summary.Add(v.ValidateFile(p))
		return nil
	})

	return summary, err
}

// ValidateFS validates all templates under root in fsys, such as the
// embedded template set.
func (v *Validator) ValidateFS(fsys fs.FS, root string) (*ValidationSummary, error) {
	summary := &ValidationSummary{}

	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsTemplateFile(p) {
			return nil
		}
		data, readErr := fs.ReadFile(fsys, p)
		if readErr != nil {
			summary.Add(&ValidationResult{File: p, Errors: []string{fmt.Sprintf("cannot read file: %v", readErr)}})
			return nil
		}
		summary.Add(v.ValidateSource(p, string(data)))
		return nil
	})

	return summary, err
}
