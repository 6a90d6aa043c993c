package script

import (
	"errors"
	"fmt"
	"strings"
)

// node is a parsed literal: either a string or a list/tuple of nodes.
type node struct {
	isStr bool
	str   string
	items []node
}

func allStrings(items []node) bool {
	for _, n := range items {
		if !n.isStr {
			return false
		}
	}
	return len(items) > 0
}

// literalParser reads the subset of Python literal syntax that script
// rewrites produce: lists, tuples and string literals.
type literalParser struct {
	src string
	pos int
}

func parseLiteral(src string) (node, error) {
	p := &literalParser{src: src}
	first, err := p.value()
	if err != nil {
		return node{}, err
	}

	// A bare top-level "a, b, c" is a tuple.
	if p.peek() == ',' {
		root := node{items: []node{first}}
		for p.peek() == ',' {
			p.pos++
			if p.peek() == 0 {
				break
			}
			v, err := p.value()
			if err != nil {
				return node{}, err
			}
			root.items = append(root.items, v)
		}
		first = root
	}

	if c := p.peek(); c != 0 {
		return node{}, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
	return first, nil
}

// peek skips whitespace and returns the next byte, or 0 at end of input.
func (p *literalParser) peek() byte {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return p.src[p.pos]
		}
	}
	return 0
}

func (p *literalParser) value() (node, error) {
	switch c := p.peek(); c {
	case '[':
		p.pos++
		items, _, err := p.items(']')
		if err != nil {
			return node{}, err
		}
		return node{items: items}, nil
	case '(':
		p.pos++
		items, sawComma, err := p.items(')')
		if err != nil {
			return node{}, err
		}
		if len(items) == 1 && !sawComma {
			return items[0], nil
		}
		return node{items: items}, nil
	case '"', '\'':
		var b strings.Builder
		for p.peek() == '"' || p.peek() == '\'' {
			s, err := p.str()
			if err != nil {
				return node{}, err
			}
			b.WriteString(s)
		}
		return node{isStr: true, str: b.String()}, nil
	case 0:
		return node{}, errors.New("unexpected end of input")
	default:
		return node{}, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
	}
}

func (p *literalParser) items(closer byte) ([]node, bool, error) {
	var items []node
	sawComma := false
	for {
		if p.peek() == closer {
			p.pos++
			return items, sawComma, nil
		}
		v, err := p.value()
		if err != nil {
			return nil, false, err
		}
		items = append(items, v)

		switch c := p.peek(); c {
		case ',':
			p.pos++
			sawComma = true
		case closer:
		case 0:
			return nil, false, fmt.Errorf("missing %q", closer)
		default:
			return nil, false, fmt.Errorf("unexpected %q at offset %d", c, p.pos)
		}
	}
}

// str reads one quoted string literal, single, double or triple quoted.
func (p *literalParser) str() (string, error) {
	quote := p.src[p.pos]
	delim := string(quote)
	if strings.HasPrefix(p.src[p.pos:], strings.Repeat(delim, 3)) {
		delim = strings.Repeat(delim, 3)
	}
	start := p.pos
	p.pos += len(delim)

	var b strings.Builder
	for p.pos < len(p.src) {
		if strings.HasPrefix(p.src[p.pos:], delim) {
			p.pos += len(delim)
			return b.String(), nil
		}
		c := p.src[p.pos]
		if c == '\n' && len(delim) == 1 {
			return "", fmt.Errorf("newline in string starting at offset %d", start)
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			switch e := p.src[p.pos]; e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '\\', '\'', '"':
				b.WriteByte(e)
			case '\n':
				// line continuation
			default:
				b.WriteByte('\\')
				b.WriteByte(e)
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("unterminated string starting at offset %d", start)
}
