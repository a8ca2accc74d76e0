// Copyright 2025 Google LLC
// SPDX-License-Identifier: Apache-2.0

package xnat

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var operators = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true, "LIKE": true,
}

// ParseConstraints parses a constraint list literal such as
//
//	[('xnat:petSessionData/DATE', '<', '2018-01-01'), 'AND']
//
// Lists may nest. A trailing 'AND' or 'OR' names the combinator; AND is the default.
func ParseConstraints(s string) (Constraints, error) {
	toks, err := tokenize(s)
	if err != nil {
		return Constraints{}, err
	}
	p := &parser{toks: toks}
	c, err := p.list()
	if err != nil {
		return Constraints{}, err
	}
	if !p.done() {
		return Constraints{}, errors.Errorf("unexpected %q after constraints", p.peek().text)
	}
	return c, nil
}

type token struct {
	text   string
	quoted bool
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		r := rune(s[i])
		switch {
		case unicode.IsSpace(r):
			i++
		case strings.ContainsRune("[](),", r):
			toks = append(toks, token{text: string(r)})
			i++
		case r == '\'' || r == '"':
			end := strings.IndexByte(s[i+1:], s[i])
			if end < 0 {
				return nil, errors.Errorf("unterminated string at offset %d", i)
			}
			toks = append(toks, token{text: s[i+1 : i+1+end], quoted: true})
			i += end + 2
		default:
			return nil, errors.Errorf("unexpected %q at offset %d", r, i)
		}
	}
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) done() bool { return p.pos >= len(p.toks) }

func (p *parser) peek() token {
	if p.done() {
		return token{}
	}
	return p.toks[p.pos]
}

func (p *parser) expect(text string) error {
	if t := p.peek(); p.done() || t.quoted || t.text != text {
		return errors.Errorf("expected %q, found %q", text, t.text)
	}
	p.pos++
	return nil
}

func (p *parser) str() (string, error) {
	t := p.peek()
	if !t.quoted {
		return "", errors.Errorf("expected quoted string, found %q", t.text)
	}
	p.pos++
	return t.text, nil
}

// sep consumes an optional comma, reporting whether the closing delimiter follows.
func (p *parser) sep(closer string) (bool, error) {
	if t := p.peek(); !t.quoted && t.text == "," {
		p.pos++
	}
	if t := p.peek(); !t.quoted && t.text == closer {
		p.pos++
		return true, nil
	}
	if p.done() {
		return false, errors.Errorf("missing %q", closer)
	}
	return false, nil
}

func (p *parser) list() (Constraints, error) {
	var c Constraints
	if err := p.expect("["); err != nil {
		return c, err
	}
	if t := p.peek(); !t.quoted && t.text == "]" {
		p.pos++
		c.Method = "AND"
		return c, nil
	}
	for {
		t := p.peek()
		switch {
		case t.quoted:
			m := strings.ToUpper(t.text)
			if m != "AND" && m != "OR" {
				return c, errors.Errorf("combinator must be AND or OR, found %q", t.text)
			}
			if c.Method != "" {
				return c, errors.Errorf("duplicate combinator %q", t.text)
			}
			c.Method = m
			p.pos++
		case t.text == "(":
			cr, err := p.tuple()
			if err != nil {
				return c, err
			}
			c.Criteria = append(c.Criteria, cr)
		case t.text == "[":
			g, err := p.list()
			if err != nil {
				return c, err
			}
			c.Groups = append(c.Groups, g)
		default:
			return c, errors.Errorf("unexpected %q in constraint list", t.text)
		}
		closed, err := p.sep("]")
		if err != nil {
			return c, err
		}
		if closed {
			break
		}
	}
	if c.Method == "" {
		c.Method = "AND"
	}
	return c, nil
}

func (p *parser) tuple() (Constraint, error) {
	var c Constraint
	if err := p.expect("("); err != nil {
		return c, err
	}
	var parts [3]string
	for i := range parts {
		s, err := p.str()
		if err != nil {
			return c, err
		}
		parts[i] = s
		if i < 2 {
			if err := p.expect(","); err != nil {
				return c, err
			}
		}
	}
	if closed, err := p.sep(")"); err != nil {
		return c, err
	} else if !closed {
		return c, errors.Errorf("constraint has more than three elements")
	}
	op := strings.ToUpper(strings.TrimSpace(parts[1]))
	if !operators[op] {
		return c, errors.Errorf("unsupported operator %q", parts[1])
	}
	return Constraint{Field: parts[0], Op: op, Value: parts[2]}, nil
}
