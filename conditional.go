package pdpmake

import "strings"

// maxConditionalDepth bounds the ifdef/ifeq/else/endif stack (spec §4.3).
const maxConditionalDepth = 10

// condState is one level of the conditional stack, grounded on ast.go's
// IfStmt and eval.go's block-skip handling, generalized to the depth-10
// stack spec.md §4.3 specifies.
type condState struct {
	skip       bool
	expectElse bool
	gotMatch   bool
}

func (p *parser) skipping() bool {
	if len(p.conds) == 0 {
		return false
	}
	return p.conds[len(p.conds)-1].skip
}

// parentSkipping reports whether the level enclosing the one about to be
// pushed is already skipping; entering a block whose enclosing scope
// skips forces the new level to skip unconditionally (spec §4.3).
func (p *parser) parentSkipping() bool {
	if len(p.conds) == 0 {
		return false
	}
	return p.conds[len(p.conds)-1].skip
}

// handleConditional recognizes ifdef/ifndef/ifeq/ifneq/else/endif and
// updates the stack. It returns matched=true when the line was a
// conditional directive (consumed regardless of the current skip state,
// per spec §4.3: entering/leaving blocks must be tracked even while
// skipping).
func (p *parser) handleConditional(trimmed string) (bool, error) {
	word, rest := splitWord(trimmed)
	switch word {
	case "ifdef", "ifndef":
		return true, p.pushIf(p.evalIfdef(word, rest))
	case "ifeq", "ifneq":
		match, err := p.evalIfeq(rest)
		if err != nil {
			return true, err
		}
		if word == "ifneq" {
			match = !match
		}
		return true, p.pushIf(match, err)
	case "else":
		return true, p.handleElse(rest)
	case "endif":
		return true, p.handleEndif()
	}
	return false, nil
}

func splitWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && s[i] != ' ' && s[i] != '\t' {
		i++
	}
	return s[:i], strings.TrimSpace(s[i:])
}

func (p *parser) pushIf(match bool, err error) error {
	if err != nil {
		return err
	}
	if len(p.conds) >= maxConditionalDepth {
		return p.mk.fatalf("too many nested conditionals")
	}
	skip := p.parentSkipping() || !match
	p.conds = append(p.conds, condState{skip: skip, expectElse: true, gotMatch: match && !p.parentSkipping()})
	return nil
}

func (p *parser) evalIfdef(word, rest string) (bool, error) {
	name := strings.TrimSpace(rest)
	m := p.mk.Macros.Get(name)
	defined := m != nil && m.Value != ""
	if word == "ifndef" {
		return !defined, nil
	}
	return defined, nil
}

// evalIfeq parses "(a,b)" or "\"a\" \"b\"" forms and compares the two
// macro-expanded strings (spec §4.3).
func (p *parser) evalIfeq(rest string) (bool, error) {
	a, b, err := splitIfeqArgs(rest)
	if err != nil {
		return false, p.mk.fatalf("malformed conditional")
	}
	ea, err := p.mk.Expand(a, false)
	if err != nil {
		return false, err
	}
	eb, err := p.mk.Expand(b, false)
	if err != nil {
		return false, err
	}
	return ea == eb, nil
}

func splitIfeqArgs(rest string) (a, b string, err error) {
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", "", errEndOfInput
	}
	if rest[0] == '(' {
		if !strings.HasSuffix(rest, ")") {
			return "", "", errEndOfInput
		}
		inner := rest[1 : len(rest)-1]
		idx := findByteOutsideRefs(inner, ',')
		if idx < 0 {
			return "", "", errEndOfInput
		}
		return strings.TrimSpace(inner[:idx]), strings.TrimSpace(inner[idx+1:]), nil
	}
	// quoted form: "a" "b" or 'a' 'b'
	q1 := rest[0]
	if q1 != '"' && q1 != '\'' {
		return "", "", errEndOfInput
	}
	end1 := strings.IndexByte(rest[1:], q1)
	if end1 < 0 {
		return "", "", errEndOfInput
	}
	end1 += 1
	a = rest[1:end1]
	rest2 := strings.TrimSpace(rest[end1+1:])
	if rest2 == "" {
		return "", "", errEndOfInput
	}
	q2 := rest2[0]
	if q2 != '"' && q2 != '\'' {
		return "", "", errEndOfInput
	}
	end2 := strings.IndexByte(rest2[1:], q2)
	if end2 < 0 {
		return "", "", errEndOfInput
	}
	end2 += 1
	b = rest2[1:end2]
	return a, b, nil
}

func (p *parser) handleElse(rest string) error {
	if len(p.conds) == 0 {
		return p.mk.fatalf("unexpected else")
	}
	top := &p.conds[len(p.conds)-1]
	if !top.expectElse {
		return p.mk.fatalf("unexpected else")
	}
	// The current level is already on the stack, so the enclosing level's
	// skip state is the entry below it.
	enclosingSkip := len(p.conds) > 1 && p.conds[len(p.conds)-2].skip
	if rest == "" {
		// Plain else: active iff nothing matched yet at this level.
		top.skip = enclosingSkip || top.gotMatch
		top.expectElse = false
		return nil
	}
	// "else if..." form.
	word, cond := splitWord(rest)
	var match bool
	var err error
	switch word {
	case "ifdef", "ifndef":
		match, err = p.evalIfdef(word, cond)
	case "ifeq", "ifneq":
		match, err = p.evalIfeq(cond)
		if word == "ifneq" {
			match = !match
		}
	default:
		return p.mk.fatalf("malformed else")
	}
	if err != nil {
		return err
	}
	if top.gotMatch {
		top.skip = true
	} else {
		top.skip = enclosingSkip || !match
		if match {
			top.gotMatch = true
		}
	}
	return nil
}

func (p *parser) handleEndif() error {
	if len(p.conds) == 0 {
		return p.mk.fatalf("unexpected endif")
	}
	p.conds = p.conds[:len(p.conds)-1]
	return nil
}
