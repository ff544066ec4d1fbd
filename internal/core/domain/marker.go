package domain

import (
	"strings"
	"unicode"

	"go.trai.ch/zerr"
)

// EvaluateMarker evaluates a platform marker expression against the given
// environment. The grammar covers what lock manifests actually emit:
// comparisons between marker variables and quoted strings combined with
// "and"/"or" and parentheses. The empty expression evaluates to true.
func EvaluateMarker(expr string, env Environment) (bool, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return true, nil
	}

	tokens, err := tokenizeMarker(expr)
	if err != nil {
		return false, err
	}

	p := &markerParser{tokens: tokens, env: env, expr: expr}
	result, err := p.parseOr()
	if err != nil {
		return false, err
	}
	if p.pos != len(p.tokens) {
		return false, zerr.With(ErrInvalidMarker, "marker", expr)
	}
	return result, nil
}

type markerToken struct {
	kind  string // "ident", "string", "op", "lparen", "rparen"
	value string
}

func tokenizeMarker(expr string) ([]markerToken, error) {
	var tokens []markerToken
	i := 0
	for i < len(expr) {
		c := expr[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			tokens = append(tokens, markerToken{kind: "lparen"})
			i++
		case c == ')':
			tokens = append(tokens, markerToken{kind: "rparen"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(expr[i+1:], c)
			if end < 0 {
				return nil, zerr.With(ErrInvalidMarker, "marker", expr)
			}
			tokens = append(tokens, markerToken{kind: "string", value: expr[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!", rune(c)):
			op := string(c)
			if i+1 < len(expr) && expr[i+1] == '=' {
				op += "="
				i++
			}
			if op == "!" || op == "=" {
				return nil, zerr.With(ErrInvalidMarker, "marker", expr)
			}
			tokens = append(tokens, markerToken{kind: "op", value: op})
			i++
		case unicode.IsLetter(rune(c)) || c == '_':
			j := i
			for j < len(expr) && (unicode.IsLetter(rune(expr[j])) || unicode.IsDigit(rune(expr[j])) || expr[j] == '_') {
				j++
			}
			tokens = append(tokens, markerToken{kind: "ident", value: expr[i:j]})
			i = j
		default:
			return nil, zerr.With(zerr.With(ErrInvalidMarker, "marker", expr), "offset", i)
		}
	}
	return tokens, nil
}

type markerParser struct {
	tokens []markerToken
	pos    int
	env    Environment
	expr   string
}

func (p *markerParser) parseOr() (bool, error) {
	result, err := p.parseAnd()
	if err != nil {
		return false, err
	}
	for p.peekIdent("or") {
		p.pos++
		rhs, err := p.parseAnd()
		if err != nil {
			return false, err
		}
		result = result || rhs
	}
	return result, nil
}

func (p *markerParser) parseAnd() (bool, error) {
	result, err := p.parseFactor()
	if err != nil {
		return false, err
	}
	for p.peekIdent("and") {
		p.pos++
		rhs, err := p.parseFactor()
		if err != nil {
			return false, err
		}
		result = result && rhs
	}
	return result, nil
}

func (p *markerParser) parseFactor() (bool, error) {
	if p.pos < len(p.tokens) && p.tokens[p.pos].kind == "lparen" {
		p.pos++
		result, err := p.parseOr()
		if err != nil {
			return false, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos].kind != "rparen" {
			return false, zerr.With(ErrInvalidMarker, "marker", p.expr)
		}
		p.pos++
		return result, nil
	}
	return p.parseComparison()
}

func (p *markerParser) parseComparison() (bool, error) {
	lhs, lhsVersionish, err := p.parseValue()
	if err != nil {
		return false, err
	}

	op, err := p.parseOperator()
	if err != nil {
		return false, err
	}

	rhs, rhsVersionish, err := p.parseValue()
	if err != nil {
		return false, err
	}

	switch op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	}

	// Version variables compare numerically so that "3.10" > "3.9" holds.
	if lhsVersionish || rhsVersionish {
		lv, lerr := ParseVersion(lhs)
		rv, rerr := ParseVersion(rhs)
		if lerr == nil && rerr == nil {
			return compareOrdered(lv.Compare(rv), op), nil
		}
	}
	return compareOrdered(strings.Compare(lhs, rhs), op), nil
}

func (p *markerParser) parseOperator() (string, error) {
	if p.pos >= len(p.tokens) {
		return "", zerr.With(ErrInvalidMarker, "marker", p.expr)
	}
	tok := p.tokens[p.pos]
	switch {
	case tok.kind == "op":
		p.pos++
		return tok.value, nil
	case tok.kind == "ident" && tok.value == "in":
		p.pos++
		return "in", nil
	case tok.kind == "ident" && tok.value == "not":
		if p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].kind == "ident" && p.tokens[p.pos+1].value == "in" {
			p.pos += 2
			return "not in", nil
		}
	}
	return "", zerr.With(ErrInvalidMarker, "marker", p.expr)
}

// parseValue resolves a marker variable or a string literal. The second
// return value reports whether the value came from a version-valued variable.
func (p *markerParser) parseValue() (string, bool, error) {
	if p.pos >= len(p.tokens) {
		return "", false, zerr.With(ErrInvalidMarker, "marker", p.expr)
	}
	tok := p.tokens[p.pos]
	switch tok.kind {
	case "string":
		p.pos++
		return tok.value, false, nil
	case "ident":
		value, ok := p.env.MarkerValue(tok.value)
		if !ok {
			return "", false, zerr.With(zerr.With(ErrInvalidMarker, "marker", p.expr), "variable", tok.value)
		}
		p.pos++
		versionish := tok.value == "python_version" || tok.value == "python_full_version"
		return value, versionish, nil
	default:
		return "", false, zerr.With(ErrInvalidMarker, "marker", p.expr)
	}
}

func (p *markerParser) peekIdent(name string) bool {
	return p.pos < len(p.tokens) &&
		p.tokens[p.pos].kind == "ident" &&
		p.tokens[p.pos].value == name
}

func compareOrdered(cmp int, op string) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	default:
		return false
	}
}
