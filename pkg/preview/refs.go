package preview

import "strings"

// Reference is one data path a template reads.
//
// Inside each and with blocks a path can mean several things: a plain
// path is looked up on the current item first and on the root data after
// that, and nested loops stack their items. Candidates lists every catalog
// form the path may take, with loop aliases and "this" replaced by the
// iterated path plus a ".0" index: f.title in an each over findings becomes
// findings.0.title.
type Reference struct {
	// Path is the first candidate: the path as written when it can be read
	// from the root, otherwise the innermost item form.
	Path       string   `json:"path"`
	Raw        string   `json:"raw"`
	Candidates []string `json:"candidates,omitempty"`
	Line       int      `json:"line"`
}

// Helper is one helper name a template calls.
type Helper struct {
	Name  string `json:"name"`
	Block bool   `json:"block"`
	Line  int    `json:"line"`
}

// scope is an each or with block; items are the candidate paths of its
// current item.
type scope struct {
	alias string
	items []string
}

type refWalker struct {
	scopes  []scope
	refs    []Reference
	helpers []Helper
}

// References lists the data paths t reads, in document order. Literals,
// helper names and @-variables are skipped.
func (t *Template) References() []Reference {
	w := &refWalker{}
	w.nodes(t.nodes)
	return w.refs
}

// Helpers lists the helpers t calls, in document order.
func (t *Template) Helpers() []Helper {
	w := &refWalker{}
	w.nodes(t.nodes)
	return w.helpers
}

func (w *refWalker) nodes(nodes []node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case mustacheNode:
			w.expr(n.expr, n.line)
		case blockNode:
			w.helpers = append(w.helpers, Helper{Name: n.name, Block: true, Line: n.line})
			var subject []string
			for i, a := range n.params {
				c := w.arg(a, n.line)
				if i == 0 {
					subject = c
				}
			}
			switch n.name {
			case "each":
				items := make([]string, len(subject))
				for i, s := range subject {
					items[i] = s + ".0"
				}
				w.within(scope{alias: n.alias, items: items}, n.body)
			case "with":
				w.within(scope{alias: n.alias, items: subject}, n.body)
			default:
				w.nodes(n.body)
			}
			w.nodes(n.inverse)
		}
	}
}

func (w *refWalker) within(s scope, body []node) {
	w.scopes = append(w.scopes, s)
	w.nodes(body)
	w.scopes = w.scopes[:len(w.scopes)-1]
}

func (w *refWalker) expr(e expr, line int) {
	if e.helper != "" {
		w.helpers = append(w.helpers, Helper{Name: e.helper, Line: line})
	}
	for _, a := range e.args {
		w.arg(a, line)
	}
}

// arg records a path operand and returns its candidates.
func (w *refWalker) arg(a arg, line int) []string {
	switch a.kind {
	case argSub:
		w.expr(*a.sub, line)
		return nil
	case argLiteral:
		return nil
	}
	cands := w.candidates(a.path)
	if len(cands) == 0 {
		return nil
	}
	w.refs = append(w.refs, Reference{Path: cands[0], Raw: a.path, Candidates: cands, Line: line})
	return cands
}

// candidates maps a path to its catalog forms. Paths with no catalog
// meaning (@index, a bare this, an alias of an unknown list) have none.
func (w *refWalker) candidates(path string) []string {
	if rest, ok := strings.CutPrefix(path, "@root."); ok {
		return []string{rest}
	}
	if strings.HasPrefix(path, "@") {
		return nil
	}

	level := len(w.scopes) - 1
	for strings.HasPrefix(path, "../") {
		path = path[3:]
		level--
	}
	if path == "" || path == "this" || path == "." {
		return nil
	}
	var items []string
	if level >= 0 {
		items = w.scopes[level].items
	}

	head, rest, _ := strings.Cut(path, ".")
	if head == "this" {
		if level < 0 {
			return []string{rest}
		}
		return joinAll(items, rest)
	}
	for i := level; i >= 0; i-- {
		if s := w.scopes[i]; s.alias != "" && s.alias == head {
			return joinAll(s.items, rest)
		}
	}
	return append([]string{path}, joinAll(items, path)...)
}

func joinAll(bases []string, rest string) []string {
	out := make([]string, 0, len(bases))
	for _, b := range bases {
		if rest == "" {
			out = append(out, b)
		} else {
			out = append(out, b+"."+rest)
		}
	}
	return out
}
