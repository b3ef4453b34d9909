package events

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrBadCondition indicates a condition expression with invalid syntax.
var ErrBadCondition = errors.New("invalid condition expression")

// Condition is a parsed boolean expression over other events, e.g.
//
//	events['storm'].active && events['season'].state == 'winter'
//
// Supported: the .active and .state accessors, string comparison with == and
// !=, !, &&, ||, and parentheses. References to unknown event ids are not a
// parse concern; they evaluate to inactive at runtime.
type Condition struct {
	src  string
	root condNode
}

// ParseCondition parses src. Malformed syntax is a structural error carrying
// the offending substring.
func ParseCondition(src string) (*Condition, error) {
	p := &condParser{src: src}
	root, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.pos < len(p.src) {
		return nil, fmt.Errorf("%w: unexpected %q", ErrBadCondition, p.src[p.pos:])
	}
	return &Condition{src: src, root: root}, nil
}

// Source returns the original expression text.
func (c *Condition) Source() string { return c.src }

// Refs returns every event id the expression references, deduplicated and
// sorted. Used for dependency-existence warnings.
func (c *Condition) Refs() []string {
	set := make(map[string]bool)
	c.root.collectRefs(set)
	refs := make([]string, 0, len(set))
	for id := range set {
		refs = append(refs, id)
	}
	sort.Strings(refs)
	return refs
}

// Eval evaluates the expression against a resolved-event-state lookup.
// Lookups that report no such event make the reference false.
func (c *Condition) Eval(lookup func(id string) (State, bool)) bool {
	return c.root.eval(lookup)
}

type condNode interface {
	eval(lookup func(id string) (State, bool)) bool
	collectRefs(set map[string]bool)
}

type andNode struct{ left, right condNode }

func (n andNode) eval(l func(string) (State, bool)) bool { return n.left.eval(l) && n.right.eval(l) }
func (n andNode) collectRefs(set map[string]bool) {
	n.left.collectRefs(set)
	n.right.collectRefs(set)
}

type orNode struct{ left, right condNode }

func (n orNode) eval(l func(string) (State, bool)) bool { return n.left.eval(l) || n.right.eval(l) }
func (n orNode) collectRefs(set map[string]bool) {
	n.left.collectRefs(set)
	n.right.collectRefs(set)
}

type notNode struct{ inner condNode }

func (n notNode) eval(l func(string) (State, bool)) bool { return !n.inner.eval(l) }
func (n notNode) collectRefs(set map[string]bool)        { n.inner.collectRefs(set) }

// activeNode is events['id'].active.
type activeNode struct{ id string }

func (n activeNode) eval(l func(string) (State, bool)) bool {
	st, ok := l(n.id)
	return ok && st.Active
}
func (n activeNode) collectRefs(set map[string]bool) { set[n.id] = true }

// stateNode is events['id'].state == 'value' (or !=).
type stateNode struct {
	id     string
	value  string
	negate bool
}

func (n stateNode) eval(l func(string) (State, bool)) bool {
	st, ok := l(n.id)
	if !ok {
		return false
	}
	equal := st.Active && st.State == n.value
	if n.negate {
		return !equal
	}
	return equal
}
func (n stateNode) collectRefs(set map[string]bool) { set[n.id] = true }

type condParser struct {
	src string
	pos int
}

func (p *condParser) skipSpaces() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *condParser) errAt(format string, args ...any) error {
	rest := p.src[min(p.pos, len(p.src)):]
	if rest == "" {
		rest = "end of expression"
	} else {
		rest = fmt.Sprintf("%q", rest)
	}
	return fmt.Errorf("%w: %s at %s", ErrBadCondition, fmt.Sprintf(format, args...), rest)
}

func (p *condParser) parseOr() (condNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.consume("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = orNode{left: left, right: right}
	}
	return left, nil
}

func (p *condParser) parseAnd() (condNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.consume("&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = andNode{left: left, right: right}
	}
	return left, nil
}

func (p *condParser) parseUnary() (condNode, error) {
	p.skipSpaces()
	if p.consume("!") {
		inner, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return notNode{inner: inner}, nil
	}
	if p.consume("(") {
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if !p.consume(")") {
			return nil, p.errAt("missing closing parenthesis")
		}
		return inner, nil
	}
	return p.parseRef()
}

// parseRef parses events['id'].active or events['id'].state ==/!= 'value'.
func (p *condParser) parseRef() (condNode, error) {
	if !p.consume("events") {
		return nil, p.errAt("expected event reference")
	}
	if !p.consume("[") {
		return nil, p.errAt("expected '[' after events")
	}
	id, err := p.parseQuoted()
	if err != nil {
		return nil, err
	}
	if !p.consume("]") {
		return nil, p.errAt("expected ']' after event id")
	}
	if !p.consume(".") {
		return nil, p.errAt("expected '.' after event reference")
	}

	switch {
	case p.consume("active"):
		return activeNode{id: id}, nil
	case p.consume("state"):
		negate := false
		switch {
		case p.consume("=="):
		case p.consume("!="):
			negate = true
		default:
			return nil, p.errAt("expected == or != after .state")
		}
		value, err := p.parseQuoted()
		if err != nil {
			return nil, err
		}
		return stateNode{id: id, value: value, negate: negate}, nil
	default:
		return nil, p.errAt("expected .active or .state")
	}
}

// parseQuoted reads a single-quoted string literal.
func (p *condParser) parseQuoted() (string, error) {
	p.skipSpaces()
	if p.pos >= len(p.src) || p.src[p.pos] != '\'' {
		return "", p.errAt("expected quoted string")
	}
	end := strings.IndexByte(p.src[p.pos+1:], '\'')
	if end < 0 {
		return "", p.errAt("unterminated string")
	}
	value := p.src[p.pos+1 : p.pos+1+end]
	p.pos += end + 2
	return value, nil
}

// consume matches literal at the cursor after skipping spaces.
func (p *condParser) consume(literal string) bool {
	p.skipSpaces()
	if strings.HasPrefix(p.src[p.pos:], literal) {
		p.pos += len(literal)
		return true
	}
	return false
}
