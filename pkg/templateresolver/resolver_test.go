package templateresolver

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/auditdoc/auditdoc/pkg/defaults"
	"github.com/auditdoc/auditdoc/templates"
)

var bundled = []string{"executive-summary", "findings", "scope"}

// newTestResolver returns a resolver whose configured directory is empty.
func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	return New(t.TempDir())
}

func writeTemplate(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

// =============================================================================
// Resolve — short name → embedded FS
// =============================================================================

func TestResolve_ShortName_Embedded(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	for _, name := range bundled {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			result, err := r.Resolve(name)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", name, err)
			}
			defer result.Content.Close()

			if want := "embedded:report/" + name + ".hbs"; result.Source != want {
				t.Errorf("source = %q, want %q", result.Source, want)
			}

			data, err := io.ReadAll(result.Content)
			if err != nil {
				t.Fatalf("reading content: %v", err)
			}
			if !strings.HasPrefix(string(data), "---\n") {
				t.Error("bundled templates start with front matter")
			}
		})
	}
}

func TestResolve_WithExtension(t *testing.T) {
	t.Parallel()

	result, err := newTestResolver(t).Resolve("findings.hbs")
	if err != nil {
		t.Fatal(err)
	}
	defer result.Content.Close()
	if result.Source != "embedded:report/findings.hbs" {
		t.Errorf("unexpected source %q", result.Source)
	}
}

func TestRead(t *testing.T) {
	t.Parallel()

	src, source, err := newTestResolver(t).Read("findings")
	if err != nil {
		t.Fatal(err)
	}
	if source != "embedded:report/findings.hbs" {
		t.Errorf("unexpected source %q", source)
	}
	if !strings.Contains(src, "{{#each findings as |f|}}") {
		t.Error("findings template should loop over findings")
	}
}

// =============================================================================
// Resolve — explicit file paths
// =============================================================================

func TestResolve_FilePath(t *testing.T) {
	t.Parallel()
	p := writeTemplate(t, t.TempDir(), "custom.hbs", "{{audit.name}}")

	src, source, err := newTestResolver(t).Read(p)
	if err != nil {
		t.Fatal(err)
	}
	if source != "disk:"+p {
		t.Errorf("source = %q", source)
	}
	if src != "{{audit.name}}" {
		t.Errorf("content = %q", src)
	}
}

func TestReadName(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	secret := writeTemplate(t, dir, "secret.txt", "TOP-SECRET")
	r := newTestResolver(t)

	for _, ref := range []string{secret, "/etc/hostname", "report/findings", `..\secret`, "sub/custom.hbs"} {
		if _, _, err := r.ReadName(ref); !errors.Is(err, ErrNotName) && !errors.Is(err, ErrTraversal) {
			t.Errorf("ReadName(%q) = %v, want ErrNotName", ref, err)
		}
	}
	if _, _, err := r.ReadName(""); !errors.Is(err, ErrEmptyReference) {
		t.Errorf("ReadName(\"\") = %v, want ErrEmptyReference", err)
	}

	src, source, err := r.ReadName("findings")
	if err != nil {
		t.Fatal(err)
	}
	if source != "embedded:report/findings.hbs" || src == "" {
		t.Errorf("ReadName(findings) = %q from %q", src, source)
	}
}

func TestResolve_FilePathNotFound(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(t).Resolve(filepath.Join(t.TempDir(), "missing.hbs"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// =============================================================================
// Resolve — errors
// =============================================================================

func TestResolve_Empty(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(t).Resolve("")
	if !errors.Is(err, ErrEmptyReference) {
		t.Fatalf("expected ErrEmptyReference, got %v", err)
	}
}

func TestResolve_NotFound(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(t).Resolve("does-not-exist")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "tried disk, env, embedded") {
		t.Errorf("error should list the chain: %v", err)
	}
}

func TestResolve_PathTraversal(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	for _, value := range []string{"../secret", "..\\secret", "report/../../etc/passwd", ".."} {
		if _, err := r.Resolve(value); !errors.Is(err, ErrTraversal) {
			t.Errorf("Resolve(%q): expected ErrTraversal, got %v", value, err)
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{"findings", false},
		{"dir/findings.hbs", false},
		{"..hidden", false},
		{"a..b", false},
		{"..", true},
		{"../x", true},
		{"a/../b", true},
		{"a\\..\\b", true},
	}
	for _, tt := range tests {
		if got := containsTraversal(tt.value); got != tt.want {
			t.Errorf("containsTraversal(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

// =============================================================================
// Resolution chain priority
// =============================================================================

func TestResolve_ConfiguredDirPriority(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	p := writeTemplate(t, dir, "findings.hbs", "local override")

	src, source, err := New(dir).Read("findings")
	if err != nil {
		t.Fatal(err)
	}
	if source != "disk:"+p {
		t.Errorf("source = %q, want disk:%s", source, p)
	}
	if src != "local override" {
		t.Errorf("content = %q", src)
	}
}

func TestResolve_EnvVarOverride(t *testing.T) {
	// No t.Parallel — modifies env.
	tmp := t.TempDir()
	p := writeTemplate(t, tmp, "env-custom.hbs", "from env")
	t.Setenv(defaults.TemplateDirEnv, tmp)

	src, source, err := newTestResolver(t).Read("env-custom")
	if err != nil {
		t.Fatalf("Read with env var: %v", err)
	}
	if source != "env:"+p {
		t.Errorf("expected env: source, got %q", source)
	}
	if src != "from env" {
		t.Errorf("content = %q", src)
	}
}

func TestResolve_ConfiguredDirBeatsEnv(t *testing.T) {
	// No t.Parallel — modifies env.
	envDir := t.TempDir()
	writeTemplate(t, envDir, "scope.hbs", "env")
	t.Setenv(defaults.TemplateDirEnv, envDir)

	dir := t.TempDir()
	writeTemplate(t, dir, "scope.hbs", "configured")

	src, _, err := New(dir).Read("scope")
	if err != nil {
		t.Fatal(err)
	}
	if src != "configured" {
		t.Errorf("configured directory should win, got %q", src)
	}
}

func TestResolve_EnvVarFallsThrough(t *testing.T) {
	// No t.Parallel — modifies env.
	t.Setenv(defaults.TemplateDirEnv, t.TempDir())

	result, err := newTestResolver(t).Resolve("scope")
	if err != nil {
		t.Fatalf("expected embedded fallback, got error: %v", err)
	}
	defer result.Content.Close()

	if !strings.HasPrefix(result.Source, "embedded:") {
		t.Errorf("expected embedded source, got %q", result.Source)
	}
}

func TestNew_DefaultDir(t *testing.T) {
	t.Parallel()

	if got := New("").Dir; got != defaults.TemplateDir {
		t.Errorf("Dir = %q, want %q", got, defaults.TemplateDir)
	}
}

func TestResolve_CustomEmbeddedFS(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)
	r.Embedded = fstest.MapFS{
		"report/only.hbs": {Data: []byte("{{audit.name}}")},
	}

	if _, _, err := r.Read("only"); err != nil {
		t.Fatalf("custom FS template: %v", err)
	}
	if _, _, err := r.Read("findings"); !errors.Is(err, ErrNotFound) {
		t.Errorf("bundled templates should not leak into a custom FS: %v", err)
	}
}

// =============================================================================
// List
// =============================================================================

func TestList_Embedded(t *testing.T) {
	t.Parallel()

	infos, err := newTestResolver(t).List()
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != len(bundled) {
		t.Fatalf("got %d templates, want %d", len(infos), len(bundled))
	}
	for i, info := range infos {
		if info.Name != bundled[i] {
			t.Errorf("infos[%d].Name = %q, want %q", i, info.Name, bundled[i])
		}
		if info.Title == "" || info.Description == "" {
			t.Errorf("%s: front matter metadata missing: %+v", info.Name, info)
		}
		if !strings.HasPrefix(info.Source, "embedded:") {
			t.Errorf("%s: unexpected source %q", info.Name, info.Source)
		}
	}
}

func TestList_NamesMatchResolve(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	infos, err := r.List()
	if err != nil {
		t.Fatal(err)
	}
	for _, info := range infos {
		result, err := r.Resolve(info.Name)
		if err != nil {
			t.Errorf("listed template %q does not resolve: %v", info.Name, err)
			continue
		}
		if result.Source != info.Source {
			t.Errorf("%s: List source %q, Resolve source %q", info.Name, info.Source, result.Source)
		}
		result.Content.Close()
	}
}

func TestList_DiskOverridesAndAdds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTemplate(t, dir, "findings.hbs", "---\nname: Local findings\n---\n{{audit.name}}")
	writeTemplate(t, dir, "appendix.handlebars", "{{audit.name}}")
	writeTemplate(t, dir, "notes.md", "ignored")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}

	infos, err := New(dir).List()
	if err != nil {
		t.Fatal(err)
	}

	byName := map[string]TemplateInfo{}
	for _, info := range infos {
		byName[info.Name] = info
	}
	if len(byName) != len(bundled)+1 {
		t.Fatalf("got %v", infos)
	}
	if got := byName["findings"]; got.Title != "Local findings" || !strings.HasPrefix(got.Source, "disk:") {
		t.Errorf("disk template should override embedded one: %+v", got)
	}
	if _, ok := byName["appendix"]; !ok {
		t.Error("disk-only template missing from list")
	}
}

func TestParseTemplateInfo(t *testing.T) {
	t.Parallel()

	info := parseTemplateInfo("x.hbs", "---\nname: X\ndescription: D\ntags: [a]\n---\nbody")
	if info.Name != "x" || info.Title != "X" || info.Description != "D" || len(info.Tags) != 1 {
		t.Errorf("unexpected info %+v", info)
	}

	bad := parseTemplateInfo("y.handlebars", "---\nname: [\n---\n")
	if bad.Name != "y" || bad.Title != "" {
		t.Errorf("broken front matter should only keep the name: %+v", bad)
	}
}

// =============================================================================
// Embedded FS consistency
// =============================================================================

func TestEmbeddedFS_OnlyTemplates(t *testing.T) {
	t.Parallel()

	err := fs.WalkDir(templates.FS, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(p) != Ext {
			t.Errorf("unexpected embedded file %q", p)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestResolve_Concurrent(t *testing.T) {
	t.Parallel()
	r := newTestResolver(t)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			if _, _, err := r.Read(name); err != nil {
				errs <- err
			}
		}(bundled[i%len(bundled)])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
