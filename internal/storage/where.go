package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadWhere is returned for where clauses outside the supported grammar.
var ErrBadWhere = errors.New("invalid where clause")

// Eq builds a `field == "literal"` clause with the literal escaped.
func Eq(field, literal string) string {
	return field + ` == ` + Quote(literal)
}

// And joins clauses with "&&", skipping empty ones.
func And(clauses ...string) string {
	var parts []string
	for _, c := range clauses {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}

	return strings.Join(parts, " && ")
}

// Quote wraps s in double quotes, escaping backslashes and quotes.
func Quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)

	return `"` + s + `"`
}

// Where is a parsed conjunction of equality comparisons.
type Where struct {
	clauses []clause
}

type clause struct {
	field  string
	value  string
	negate bool
}

// Match reports whether every clause holds for the frontmatter. An empty
// Where matches everything. Non-string values compare by their fmt form.
func (w Where) Match(frontmatter map[string]any) bool {
	for _, c := range w.clauses {
		v, ok := frontmatter[c.field]
		got := ""
		if ok && v != nil {
			got = fmt.Sprint(v)
		}
		if (got == c.value) == c.negate {
			return false
		}
	}

	return true
}

// ParseWhere parses `field == "literal"` and `field != "literal"` clauses
// joined by "&&". Unquoted literals (numbers, booleans) are taken verbatim.
func ParseWhere(expr string) (Where, error) {
	var w Where
	if strings.TrimSpace(expr) == "" {
		return w, nil
	}

	p := &whereParser{src: expr}
	for {
		c, err := p.clause()
		if err != nil {
			return Where{}, err
		}
		w.clauses = append(w.clauses, c)

		p.skipSpace()
		if p.done() {
			return w, nil
		}
		if !p.consume("&&") {
			return Where{}, fmt.Errorf("%w: expected && at offset %d in %q", ErrBadWhere, p.pos, expr)
		}
	}
}

type whereParser struct {
	src string
	pos int
}

func (p *whereParser) done() bool { return p.pos >= len(p.src) }

func (p *whereParser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *whereParser) consume(tok string) bool {
	if strings.HasPrefix(p.src[p.pos:], tok) {
		p.pos += len(tok)

		return true
	}

	return false
}

func (p *whereParser) clause() (clause, error) {
	p.skipSpace()
	start := p.pos
	for !p.done() && isFieldChar(p.src[p.pos]) {
		p.pos++
	}
	field := p.src[start:p.pos]
	if field == "" {
		return clause{}, fmt.Errorf("%w: expected field name at offset %d", ErrBadWhere, start)
	}

	p.skipSpace()
	var negate bool
	switch {
	case p.consume("=="):
	case p.consume("!="):
		negate = true
	default:
		return clause{}, fmt.Errorf("%w: expected == or != after %q", ErrBadWhere, field)
	}

	p.skipSpace()
	value, err := p.literal()
	if err != nil {
		return clause{}, err
	}

	return clause{field: field, value: value, negate: negate}, nil
}

func (p *whereParser) literal() (string, error) {
	if p.done() {
		return "", fmt.Errorf("%w: missing literal", ErrBadWhere)
	}
	if p.src[p.pos] != '"' {
		start := p.pos
		for !p.done() && p.src[p.pos] != ' ' && p.src[p.pos] != '\t' && p.src[p.pos] != '&' {
			p.pos++
		}

		return p.src[start:p.pos], nil
	}

	p.pos++
	var sb strings.Builder
	for !p.done() {
		ch := p.src[p.pos]
		switch ch {
		case '\\':
			if p.pos+1 >= len(p.src) {
				return "", fmt.Errorf("%w: dangling escape", ErrBadWhere)
			}
			sb.WriteByte(p.src[p.pos+1])
			p.pos += 2
		case '"':
			p.pos++

			return sb.String(), nil
		default:
			sb.WriteByte(ch)
			p.pos++
		}
	}

	return "", fmt.Errorf("%w: unterminated string literal", ErrBadWhere)
}

func isFieldChar(c byte) bool {
	return c == '_' || c == '.' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
