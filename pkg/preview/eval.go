package preview

import (
	"fmt"
	"html"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/auditdoc/auditdoc/pkg/varpath"
)

// frame is one level of block context.
type frame struct {
	ctx   any
	alias string
	iter  bool
	index int
	key   string
	first bool
	last  bool
}

type evaluator struct {
	root     any
	frames   []frame
	helpers  map[string]helper
	escape   bool
	out      strings.Builder
	warnings []string
}

func (ev *evaluator) warnf(line int, format string, args ...any) {
	ev.warnings = append(ev.warnings, fmt.Sprintf("line %d: ", line)+fmt.Sprintf(format, args...))
}

func (ev *evaluator) top() *frame { return &ev.frames[len(ev.frames)-1] }

func (ev *evaluator) push(f frame) { ev.frames = append(ev.frames, f) }

func (ev *evaluator) pop() { ev.frames = ev.frames[:len(ev.frames)-1] }

func (ev *evaluator) render(nodes []node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case textNode:
			ev.out.WriteString(n.text)
		case mustacheNode:
			s := stringify(ev.eval(n.expr, n.line))
			if ev.escape && !n.raw {
				s = html.EscapeString(s)
			}
			ev.out.WriteString(s)
		case blockNode:
			ev.block(n)
		}
	}
}

func (ev *evaluator) block(b blockNode) {
	var subject any
	if len(b.params) > 0 {
		subject = ev.arg(b.params[0], b.line)
	}

	switch b.name {
	case "each":
		ev.each(b, subject)
	case "if":
		if truthy(subject) {
			ev.render(b.body)
		} else {
			ev.render(b.inverse)
		}
	case "unless":
		if truthy(subject) {
			ev.render(b.inverse)
		} else {
			ev.render(b.body)
		}
	case "with":
		if !truthy(subject) {
			ev.render(b.inverse)
			return
		}
		ev.push(frame{ctx: subject, alias: b.alias})
		ev.render(b.body)
		ev.pop()
	default:
		ev.warnf(b.line, "unknown block helper %q, block skipped", b.name)
	}
}

func (ev *evaluator) each(b blockNode, subject any) {
	rv := reflect.ValueOf(subject)
	switch {
	case subject == nil:
	case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
		n := rv.Len()
		for i := 0; i < n; i++ {
			ev.push(frame{ctx: rv.Index(i).Interface(), alias: b.alias, iter: true, index: i, first: i == 0, last: i == n-1})
			ev.render(b.body)
			ev.pop()
		}
		if n > 0 {
			return
		}
	case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		for i, k := range keys {
			v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface()
			ev.push(frame{ctx: v, alias: b.alias, iter: true, index: i, key: k, first: i == 0, last: i == len(keys)-1})
			ev.render(b.body)
			ev.pop()
		}
		if len(keys) > 0 {
			return
		}
	default:
		ev.warnf(b.line, "each over a %T", subject)
	}
	ev.render(b.inverse)
}

func (ev *evaluator) eval(e expr, line int) any {
	if e.helper == "" {
		return ev.arg(e.args[0], line)
	}
	h, ok := ev.helpers[e.helper]
	if !ok {
		ev.warnf(line, "unknown helper %q", e.helper)
		return nil
	}
	args := make([]any, len(e.args))
	for i, a := range e.args {
		args[i] = ev.arg(a, line)
	}
	v, err := h(args)
	if err != nil {
		ev.warnf(line, "%s: %v", e.helper, err)
		return nil
	}
	return v
}

func (ev *evaluator) arg(a arg, line int) any {
	switch a.kind {
	case argLiteral:
		return a.value
	case argSub:
		return ev.eval(*a.sub, line)
	default:
		return ev.lookup(a.path)
	}
}

// lookup resolves a path against the block context. Plain paths are tried
// against the current context first and then against the root, so domain
// paths keep working inside loops.
func (ev *evaluator) lookup(path string) any {
	switch path {
	case "this", ".":
		return ev.top().ctx
	case "@root":
		return ev.root
	case "@index", "@first", "@last", "@key":
		return ev.loopData(path)
	}

	depth := 0
	for strings.HasPrefix(path, "../") {
		depth++
		path = path[3:]
	}
	if depth > 0 {
		i := len(ev.frames) - 1 - depth
		if i < 0 {
			return nil
		}
		v, _ := walk(ev.frames[i].ctx, splitPath(path))
		return v
	}

	segs := splitPath(path)
	switch segs[0] {
	case "this":
		v, _ := walk(ev.top().ctx, segs[1:])
		return v
	case "@root":
		v, _ := walk(ev.root, segs[1:])
		return v
	}
	for i := len(ev.frames) - 1; i >= 0; i-- {
		if f := ev.frames[i]; f.alias != "" && f.alias == segs[0] {
			v, _ := walk(f.ctx, segs[1:])
			return v
		}
	}
	if v, ok := walk(ev.top().ctx, segs); ok {
		return v
	}
	v, _ := walk(ev.root, segs)
	return v
}

func (ev *evaluator) loopData(name string) any {
	for i := len(ev.frames) - 1; i >= 0; i-- {
		f := ev.frames[i]
		if !f.iter {
			continue
		}
		switch name {
		case "@index":
			return f.index
		case "@first":
			return f.first
		case "@last":
			return f.last
		case "@key":
			return f.key
		}
	}
	return nil
}

func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// walk follows segs through maps and slices.
func walk(v any, segs []string) (any, bool) {
	for _, seg := range segs {
		if v == nil {
			return nil, false
		}
		switch t := v.(type) {
		case map[string]any:
			next, ok := t[seg]
			if !ok {
				return nil, false
			}
			v = next
			continue
		case []any:
			if !varpath.IsIndex(seg) {
				return nil, false
			}
			i, err := strconv.Atoi(seg)
			if err != nil || i >= len(t) {
				return nil, false
			}
			v = t[i]
			continue
		}

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Map:
			if rv.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			e := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
			if !e.IsValid() {
				return nil, false
			}
			v = e.Interface()
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(seg)
			if err != nil || !varpath.IsIndex(seg) || i >= rv.Len() {
				return nil, false
			}
			v = rv.Index(i).Interface()
		default:
			return nil, false
		}
	}
	return v, true
}

// truthy follows Handlebars: false, nil, "", 0 and empty lists are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// stringify renders a value the way it appears in output.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(t, ",")
	case map[string]any:
		return "[object Object]"
	}
	return toString(v)
}
