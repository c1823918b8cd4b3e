package preview

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every parse failure.
var ErrSyntax = errors.New("preview: template syntax error")

// ParseError locates a syntax problem in a template.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrSyntax }

func errorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}

type argKind int

const (
	argPath argKind = iota
	argLiteral
	argSub
)

// arg is one operand of an expression.
type arg struct {
	kind  argKind
	path  string
	value any
	sub   *expr
}

// expr is a helper call, or a single operand when helper is empty.
type expr struct {
	helper string
	args   []arg
}

type node interface{ isNode() }

type textNode struct{ text string }

type mustacheNode struct {
	expr expr
	raw  bool
	line int
}

type blockNode struct {
	name    string
	params  []arg
	alias   string
	body    []node
	inverse []node
	line    int
}

func (textNode) isNode()     {}
func (mustacheNode) isNode() {}
func (blockNode) isNode()    {}

// Template is a parsed template, safe for concurrent rendering.
type Template struct {
	nodes []node
}

// tag is one {{...}} occurrence.
type tag struct {
	body string
	raw  bool
	line int
}

type segment struct {
	text string
	tag  *tag
}

// Parse parses src. Only structural problems are errors: unclosed tags,
// unbalanced blocks and malformed expressions. Unknown paths and helpers
// are reported at render time as warnings.
func Parse(src string) (*Template, error) {
	segs, err := split(src)
	if err != nil {
		return nil, err
	}
	p := &parser{segs: segs}
	nodes, stop, err := p.parseUntil()
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, errorf(stop.line, "unexpected {{%s}}", stop.body)
	}
	return &Template{nodes: nodes}, nil
}

// split cuts src into text and tags, dropping comments.
func split(src string) ([]segment, error) {
	var segs []segment
	line := 1
	for len(src) > 0 {
		i := strings.Index(src, "{{")
		if i < 0 {
			segs = append(segs, segment{text: src})
			break
		}
		if i > 0 {
			segs = append(segs, segment{text: src[:i]})
			line += strings.Count(src[:i], "\n")
			src = src[i:]
		}

		open, closing, raw := "{{", "}}", false
		switch {
		case strings.HasPrefix(src, "{{!--"):
			open, closing = "{{!--", "--}}"
		case strings.HasPrefix(src, "{{{"):
			open, closing, raw = "{{{", "}}}", true
		}
		end := strings.Index(src[len(open):], closing)
		if end < 0 {
			return nil, errorf(line, "unclosed %s", open)
		}
		body := src[len(open) : len(open)+end]
		whole := src[:len(open)+end+len(closing)]
		tagLine := line
		line += strings.Count(whole, "\n")
		src = src[len(whole):]

		if open == "{{!--" || strings.HasPrefix(body, "!") {
			continue
		}
		body = strings.TrimSpace(body)
		if body == "" {
			return nil, errorf(tagLine, "empty tag")
		}
		segs = append(segs, segment{tag: &tag{body: body, raw: raw, line: tagLine}})
	}
	return segs, nil
}

type parser struct {
	segs []segment
	pos  int
}

// parseUntil consumes nodes until a closing or else tag and hands that tag
// back to the caller. At end of input stop is nil.
func (p *parser) parseUntil() ([]node, *tag, error) {
	var nodes []node
	for p.pos < len(p.segs) {
		seg := p.segs[p.pos]
		p.pos++
		if seg.tag == nil {
			nodes = append(nodes, textNode{text: seg.text})
			continue
		}
		t := seg.tag
		switch {
		case strings.HasPrefix(t.body, "/"), isElse(t.body):
			return nodes, t, nil
		case strings.HasPrefix(t.body, "#"):
			b, err := p.parseBlock(t)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, b)
		default:
			e, err := parseExpr(t.body, t.line)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, mustacheNode{expr: e, raw: t.raw, line: t.line})
		}
	}
	return nodes, nil, nil
}

func isElse(body string) bool {
	return body == "else" || body == "^"
}

func (p *parser) parseBlock(open *tag) (blockNode, error) {
	body := strings.TrimSpace(open.body[1:])
	toks, err := tokenize(body, open.line)
	if err != nil {
		return blockNode{}, err
	}
	if len(toks) == 0 || toks[0].kind != tokWord {
		return blockNode{}, errorf(open.line, "block without a helper name")
	}
	b := blockNode{name: toks[0].text, line: open.line}
	toks = toks[1:]

	if i := indexAs(toks); i >= 0 {
		alias, err := parseAlias(toks[i+1:], open.line)
		if err != nil {
			return blockNode{}, err
		}
		b.alias = alias
		toks = toks[:i]
	}
	b.params, err = parseArgs(toks, open.line)
	if err != nil {
		return blockNode{}, err
	}

	inBody := true
	for {
		nodes, stop, err := p.parseUntil()
		if err != nil {
			return blockNode{}, err
		}
		if stop == nil {
			return blockNode{}, errorf(open.line, "unclosed {{#%s}}", b.name)
		}
		if inBody {
			b.body = nodes
		} else {
			b.inverse = nodes
		}
		if isElse(stop.body) {
			if !inBody {
				return blockNode{}, errorf(stop.line, "second {{else}} in {{#%s}} opened at line %d", b.name, open.line)
			}
			inBody = false
			continue
		}
		name := strings.TrimSpace(stop.body[1:])
		if name != b.name {
			return blockNode{}, errorf(stop.line, "{{/%s}} closes {{#%s}} opened at line %d", name, b.name, open.line)
		}
		return b, nil
	}
}

func indexAs(toks []token) int {
	for i, t := range toks {
		if t.kind == tokWord && t.text == "as" {
			return i
		}
	}
	return -1
}

func parseAlias(toks []token, line int) (string, error) {
	if len(toks) != 3 || toks[0].kind != tokPipe || toks[1].kind != tokWord || toks[2].kind != tokPipe {
		return "", errorf(line, "malformed block parameter, want as |name|")
	}
	return toks[1].text, nil
}

// parseExpr parses the body of a plain mustache.
func parseExpr(body string, line int) (expr, error) {
	toks, err := tokenize(body, line)
	if err != nil {
		return expr{}, err
	}
	args, err := parseArgs(toks, line)
	if err != nil {
		return expr{}, err
	}
	if len(args) == 0 {
		return expr{}, errorf(line, "empty expression")
	}
	if len(args) == 1 {
		return expr{args: args}, nil
	}
	if args[0].kind != argPath {
		return expr{}, errorf(line, "helper name must be an identifier")
	}
	return expr{helper: args[0].path, args: args[1:]}, nil
}

func parseArgs(toks []token, line int) ([]arg, error) {
	var out []arg
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.kind {
		case tokWord:
			out = append(out, wordArg(t.text))
		case tokString:
			out = append(out, arg{kind: argLiteral, value: t.text})
		case tokOpen:
			depth, j := 1, i+1
			for ; j < len(toks) && depth > 0; j++ {
				switch toks[j].kind {
				case tokOpen:
					depth++
				case tokClose:
					depth--
				}
			}
			if depth != 0 {
				return nil, errorf(line, "unbalanced parentheses")
			}
			inner, err := parseArgs(toks[i+1:j-1], line)
			if err != nil {
				return nil, err
			}
			if len(inner) == 0 || inner[0].kind != argPath {
				return nil, errorf(line, "subexpression needs a helper name")
			}
			out = append(out, arg{kind: argSub, sub: &expr{helper: inner[0].path, args: inner[1:]}})
			i = j - 1
		case tokClose:
			return nil, errorf(line, "unbalanced parentheses")
		case tokPipe:
			return nil, errorf(line, "unexpected |")
		}
	}
	return out, nil
}

func wordArg(w string) arg {
	switch w {
	case "true":
		return arg{kind: argLiteral, value: true}
	case "false":
		return arg{kind: argLiteral, value: false}
	case "null", "undefined":
		return arg{kind: argLiteral, value: nil}
	}
	if f, err := strconv.ParseFloat(w, 64); err == nil && (w[0] == '-' || (w[0] >= '0' && w[0] <= '9')) {
		return arg{kind: argLiteral, value: f}
	}
	return arg{kind: argPath, path: w}
}

type tokKind int

const (
	tokWord tokKind = iota
	tokString
	tokOpen
	tokClose
	tokPipe
)

type token struct {
	kind tokKind
	text string
}

func tokenize(s string, line int) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			toks = append(toks, token{kind: tokOpen})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokClose})
			i++
		case c == '|':
			toks = append(toks, token{kind: tokPipe})
			i++
		case c == '"' || c == '\'':
			var sb strings.Builder
			j := i + 1
			for ; j < len(s) && s[j] != c; j++ {
				if s[j] == '\\' && j+1 < len(s) {
					j++
				}
				sb.WriteByte(s[j])
			}
			if j >= len(s) {
				return nil, errorf(line, "unterminated string")
			}
			toks = append(toks, token{kind: tokString, text: sb.String()})
			i = j + 1
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n\r()|\"'", rune(s[j])) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: s[i:j]})
			i = j
		}
	}
	return toks, nil
}
