package pdpmake

import (
	"errors"
	"strings"
)

// errUnterminatedVariableReference is returned when a $( or ${ is never
// closed (spec §7, a Syntax error).
var errUnterminatedVariableReference = errors.New("unterminated variable reference")

// Expand performs the left-to-right macro scan described in spec §4.2.
// It never re-scans its own output for further '$' — substituted text is
// spliced into the result and scanning resumes past the reference, which
// is what makes expansion terminate even for a macro whose stored value
// happens to textually contain its own name (design note, §9).
func (mk *Maker) Expand(str string, exceptDollar bool) (string, error) {
	var out strings.Builder
	out.Grow(len(str))
	i := 0
	for i < len(str) {
		c := str[i]
		if c != '$' {
			out.WriteByte(c)
			i++
			continue
		}
		if i+1 >= len(str) {
			return "", errUnterminatedVariableReference
		}
		next := str[i+1]
		if next == '$' {
			if exceptDollar {
				out.WriteString("$$")
			} else {
				out.WriteByte('$')
			}
			i += 2
			continue
		}
		var body string
		var consumed int
		if next == '(' || next == '{' {
			end, err := findRefEnd(str, i+1)
			if err != nil {
				return "", err
			}
			body = str[i+2 : end]
			consumed = end - i + 1
		} else {
			body = string(next)
			consumed = 2
		}
		val, err := mk.expandRef(body, exceptDollar)
		if err != nil {
			return "", err
		}
		out.WriteString(val)
		i += consumed
	}
	return out.String(), nil
}

// findRefEnd returns the index of the delimiter matching str[openIdx]
// ('(' or '{'), skipping over any nested $(...) / ${...} reference in
// full rather than counting its delimiters individually.
func findRefEnd(str string, openIdx int) (int, error) {
	open := str[openIdx]
	var closeCh byte
	if open == '(' {
		closeCh = ')'
	} else {
		closeCh = '}'
	}
	depth := 1
	i := openIdx + 1
	for i < len(str) {
		if str[i] == '$' && i+1 < len(str) && (str[i+1] == '(' || str[i+1] == '{') {
			end, err := findRefEnd(str, i+1)
			if err != nil {
				return 0, err
			}
			i = end + 1
			continue
		}
		switch str[i] {
		case open:
			depth++
		case closeCh:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
		i++
	}
	return 0, errUnterminatedVariableReference
}

// expandRef resolves one reference body (the text between $( and ) or
// between ${ and }, or a single bare character for $c) to its final
// string, per spec §4.2's "NAME[:SUBST]" grammar.
func (mk *Maker) expandRef(body string, exceptDollar bool) (string, error) {
	colonIdx := findByteOutsideRefs(body, ':')
	nameRaw := body
	substRaw := ""
	hasSubst := false
	if colonIdx >= 0 {
		nameRaw = body[:colonIdx]
		substRaw = body[colonIdx+1:]
		hasSubst = true
	}

	name := nameRaw
	if mk.Pragma.Level != Posix2017 {
		expanded, err := mk.Expand(nameRaw, exceptDollar)
		if err != nil {
			return "", err
		}
		name = expanded
	}

	autoChar, modifier, plainName := classifyAutomatic(name)
	if autoChar != 0 && (autoChar == '^' || autoChar == '+') && mk.Pragma.Level == Posix2017 {
		return "", mk.fatalf("$%c requires non-POSIX-2017 mode", autoChar)
	}

	var value string
	if autoChar != 0 {
		value = mk.automaticMacro(autoChar)
	} else {
		v, err := mk.lookupMacro(plainName)
		if err != nil {
			return "", err
		}
		value = v
	}

	if modifier != 0 {
		value = applyWordModifier(value, modifier)
	}

	if hasSubst {
		sub, err := parseSubst(mk, substRaw)
		if err != nil {
			return "", err
		}
		value = applySubst(value, sub)
	}

	return value, nil
}

// lookupMacro returns a macro's fully-expanded value, guarding against
// self-recursion (spec §4.2: "A guard flag on each Macro detects
// self-recursion and aborts fatally").
func (mk *Maker) lookupMacro(name string) (string, error) {
	if name == "MAKE" {
		mk.SawMake = true
	}
	m := mk.Macros.Get(name)
	if m == nil {
		return "", nil
	}
	if m.Immediate {
		return m.Value, nil
	}
	if m.inExpansion {
		return "", mk.fatalf("recursive macro reference to '%s'", name)
	}
	m.inExpansion = true
	expanded, err := mk.Expand(m.Value, false)
	m.inExpansion = false
	if err != nil {
		return "", err
	}
	return expanded, nil
}

// classifyAutomatic recognizes a NAME of the shape "c" or "cM" where c is
// one of @ % ? < * ^ + and M is D or F (spec §4.2).
func classifyAutomatic(name string) (autoChar, modifier byte, plainName string) {
	if len(name) == 0 {
		return 0, 0, name
	}
	if strings.IndexByte("@%?<*^+", name[0]) < 0 {
		return 0, 0, name
	}
	if len(name) == 1 {
		return name[0], 0, name
	}
	if len(name) == 2 && (name[1] == 'D' || name[1] == 'F') {
		return name[0], name[1], name
	}
	return 0, 0, name
}

func (mk *Maker) automaticMacro(c byte) string {
	switch c {
	case '@':
		return mk.autoTarget
	case '%':
		return mk.autoMember
	case '?':
		return mk.autoOodate
	case '<':
		return mk.autoLessThan
	case '*':
		return mk.autoStem
	case '^':
		return mk.autoDedup
	case '+':
		return mk.autoAllsrc
	}
	return ""
}

// findByteOutsideRefs returns the index of the first occurrence of b in
// s that is not inside a nested $(...) / ${...} span, or -1.
func findByteOutsideRefs(s string, b byte) int {
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '{') {
			end, err := findRefEnd(s, i+1)
			if err != nil {
				return -1
			}
			i = end + 1
			continue
		}
		if s[i] == b {
			return i
		}
		i++
	}
	return -1
}

// subst is a parsed :SUBST reference suffix, either a simple suffix
// replacement (FIND=REPL) or a POSIX-2024/non-POSIX pattern substitution
// (FIND1%FIND2=REPL1%REPL2).
type subst struct {
	pattern      bool
	find1, find2 string
	repl1, repl2 string
	hasRepl2     bool
}

func parseSubst(mk *Maker, s string) (subst, error) {
	eq := findByteOutsideRefs(s, '=')
	if eq < 0 {
		return subst{}, mk.fatalf("invalid substitution reference '%s'", s)
	}
	left := s[:eq]
	right := s[eq+1:]
	if pct := strings.IndexByte(left, '%'); pct >= 0 {
		if mk.Pragma.Level == Posix2017 {
			return subst{}, mk.fatalf("pattern substitution '%s' requires POSIX 2024 or non-POSIX mode", s)
		}
		find1 := left[:pct]
		find2 := left[pct+1:]
		var repl1, repl2 string
		hasRepl2 := false
		if rpct := strings.IndexByte(right, '%'); rpct >= 0 {
			repl1 = right[:rpct]
			repl2 = right[rpct+1:]
			hasRepl2 = true
		} else {
			repl1 = right
		}
		return subst{pattern: true, find1: find1, find2: find2, repl1: repl1, repl2: repl2, hasRepl2: hasRepl2}, nil
	}
	if left == "" && !mk.Pragma.has(PragmaEmptySuffix) {
		return subst{}, mk.fatalf("empty FIND in substitution reference '%s'", s)
	}
	return subst{find1: left, repl1: right}, nil
}

func applySubst(value string, s subst) string {
	words := strings.Fields(value)
	for i, w := range words {
		if s.pattern {
			if len(w) >= len(s.find1)+len(s.find2) &&
				strings.HasPrefix(w, s.find1) && strings.HasSuffix(w, s.find2) {
				infix := w[len(s.find1) : len(w)-len(s.find2)]
				if s.hasRepl2 {
					words[i] = s.repl1 + infix + s.repl2
				} else {
					words[i] = s.repl1 + infix
				}
			}
			continue
		}
		if strings.HasSuffix(w, s.find1) {
			words[i] = w[:len(w)-len(s.find1)] + s.repl1
		}
	}
	return strings.Join(words, " ")
}

// applyWordModifier applies the D (dirname) or F (basename) modifier to
// every whitespace-separated word of value (spec §4.2).
func applyWordModifier(value string, modifier byte) string {
	words := strings.Fields(value)
	for i, w := range words {
		switch modifier {
		case 'D':
			switch idx := strings.LastIndexByte(w, '/'); {
			case idx < 0:
				words[i] = "."
			case idx == 0:
				words[i] = "/"
			default:
				words[i] = w[:idx]
			}
		case 'F':
			if idx := strings.LastIndexByte(w, '/'); idx >= 0 {
				words[i] = w[idx+1:]
			} else {
				words[i] = w
			}
		}
	}
	return strings.Join(words, " ")
}
