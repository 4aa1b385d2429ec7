package pdpmake

import "strings"

// specialTarget describes the constraints on one of the special
// meta-targets listed in spec §4.3.
type specialTarget struct {
	requiresCommands bool
	forbidsPrereqs   bool
}

var specialTargets = map[string]specialTarget{
	".DEFAULT":     {requiresCommands: true},
	".POSIX":       {forbidsPrereqs: true},
	".IGNORE":      {},
	".PRECIOUS":    {},
	".SILENT":      {},
	".SUFFIXES":    {},
	".PHONY":       {},
	".NOTPARALLEL": {forbidsPrereqs: true},
	".WAIT":        {forbidsPrereqs: true},
	".PRAGMA":      {},
}

// handleTargetRule implements spec §4.3's target-rule parsing: splits the
// line on the rule colon, tokenizes targets and prerequisites after macro
// expansion, classifies each target, attaches the Rule, and then consumes
// any subsequent tab-prefixed lines as commands.
func (p *parser) handleTargetRule(line string) error {
	colonIdx, double := findRuleColon(line)
	if colonIdx < 0 {
		return p.mk.fatalf("line does not define a target or macro: %q", line)
	}
	lhs := line[:colonIdx]
	rhsStart := colonIdx + 1
	if double {
		rhsStart++
	}
	rhs := line[rhsStart:]

	// A trailing "; cmd" becomes the first command.
	var inlineCmd string
	hasInlineCmd := false
	if semi := findByteOutsideRefs(rhs, ';'); semi >= 0 {
		inlineCmd = strings.TrimLeft(rhs[semi+1:], " \t")
		hasInlineCmd = true
		rhs = rhs[:semi]
	}

	expandedTargets, err := p.mk.Expand(strings.TrimSpace(lhs), false)
	if err != nil {
		return err
	}
	expandedPrereqs, err := p.mk.Expand(strings.TrimSpace(rhs), false)
	if err != nil {
		return err
	}

	targetTokens := tokenize(expandedTargets)
	if len(targetTokens) == 0 {
		return p.mk.fatalf("missing target name")
	}
	prereqTokens := p.expandPrereqTokens(tokenize(expandedPrereqs))

	cmds, err := p.readCommands(inlineCmd, hasInlineCmd)
	if err != nil {
		return err
	}

	return p.attachRule(targetTokens, prereqTokens, cmds, double)
}

// findRuleColon finds the first ':' outside any macro reference and
// reports whether a second ':' follows it. No check is made for a
// preceding assignment operator character: lines containing one are
// classified as macro assignments earlier and never reach here.
func findRuleColon(line string) (idx int, double bool) {
	idx = findByteOutsideRefs(line, ':')
	if idx < 0 {
		return -1, false
	}
	if idx+1 < len(line) && line[idx+1] == ':' {
		return idx, true
	}
	return idx, false
}

// tokenize splits on whitespace while keeping an archive expression
// "lib(member)" (or "lib(m1 m2 ...)") together as balanced-paren units.
func tokenize(s string) []string {
	var tokens []string
	i := 0
	for i < len(s) {
		for i < len(s) && isBlank(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		start := i
		depth := 0
		for i < len(s) && (depth > 0 || !isBlank(s[i])) {
			switch s[i] {
			case '(':
				depth++
			case ')':
				if depth > 0 {
					depth--
				}
			}
			i++
		}
		tokens = append(tokens, s[start:i])
	}
	return tokens
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

// expandPrereqTokens drops .WAIT (a no-op under serial execution),
// expands "lib(m1 m2)" into one token per member, and (non-POSIX)
// expands shell wildcards.
func (p *parser) expandPrereqTokens(tokens []string) []string {
	var out []string
	for _, t := range tokens {
		if t == ".WAIT" {
			continue
		}
		for _, g := range expandArchiveGroup(t) {
			if p.mk.Pragma.Level == NonPosix && containsWildcard(g) {
				out = append(out, globExpand(g)...)
				continue
			}
			out = append(out, g)
		}
	}
	return out
}

func expandArchiveGroup(tok string) []string {
	lib, inner, ok := splitArchiveGroupTok(tok)
	if !ok {
		return []string{tok}
	}
	members := strings.Fields(inner)
	if len(members) <= 1 {
		return []string{tok}
	}
	out := make([]string, len(members))
	for i, m := range members {
		out[i] = lib + "(" + m + ")"
	}
	return out
}

func splitArchiveGroupTok(tok string) (lib, inner string, ok bool) {
	if !strings.HasSuffix(tok, ")") {
		return "", "", false
	}
	i := strings.IndexByte(tok, '(')
	if i <= 0 {
		return "", "", false
	}
	return tok[:i], tok[i+1 : len(tok)-1], true
}

// readCommands consumes subsequent raw tab-prefixed physical lines as
// commands, stopping at the next non-tab line or EOF.
func (p *parser) readCommands(inlineCmd string, hasInline bool) ([]*Cmd, error) {
	var cmds []*Cmd
	if hasInline {
		cmds = append(cmds, &Cmd{Text: inlineCmd, Makefile: p.mk.Makefile, Lineno: p.mk.Lineno})
	}
	for p.idx < len(p.lines) {
		line := p.lines[p.idx]
		if line == "" || line[0] != '\t' {
			break
		}
		lineno := p.idx + 1
		joined, n := joinPhysical(p.lines, p.idx)
		p.idx += n
		body := joined[1:] // strip the leading hard tab
		if p.mk.Pragma.Level != NonPosix && !p.mk.Pragma.has(PragmaCommandComment) {
			if idx := strings.IndexByte(body, '#'); idx >= 0 {
				p.mk.warnf("comment in command removed: keep with pragma command_comment")
				body = body[:idx]
			}
		}
		text := processCommandText(p.mk, body)
		cmds = append(cmds, &Cmd{Text: text, Makefile: p.mk.Makefile, Lineno: lineno})
	}
	return cmds, nil
}

// attachRule classifies each target and attaches the parsed rule to it,
// per the special/inference/normal table in spec §4.3.
func (p *parser) attachRule(targets, prereqs []string, cmds []*Cmd, double bool) error {
	mk := p.mk

	if len(targets) == 1 {
		if st, ok := specialTargets[targets[0]]; ok {
			return p.attachSpecialRule(targets[0], st, prereqs, cmds)
		}
		if s1, s2, ok := mk.inferenceSuffixSplit(targets[0]); ok {
			return p.attachInferenceRule(targets[0], s1, s2, prereqs, cmds)
		}
	}
	for _, t := range targets {
		if _, ok := specialTargets[t]; ok {
			return mk.fatalf("special target '%s' may not share a rule line with other targets", t)
		}
	}

	rule := &Rule{Prereqs: toDepends(mk, prereqs), Cmds: cmds, Double: double,
		Makefile: mk.Makefile, Lineno: mk.Lineno}

	var names []*Name
	for _, t := range targets {
		if !isValidTargetName(mk.Pragma, t) {
			return mk.fatalf("invalid target name '%s'", t)
		}
		n := mk.internTarget(t)
		names = append(names, n)
	}
	rule.Targets = names

	for _, n := range names {
		if err := mk.addRule(n, rule, double); err != nil {
			return err
		}
	}
	if mk.FirstTarget == nil && mk.includeDepth <= 1 {
		for _, n := range names {
			if !n.hasFlag(FlagSpecial) {
				mk.FirstTarget = n
				break
			}
		}
	}
	return nil
}

func (p *parser) attachSpecialRule(name string, st specialTarget, prereqs []string, cmds []*Cmd) error {
	mk := p.mk
	if st.forbidsPrereqs && len(prereqs) > 0 {
		return mk.fatalf("%s may not have prerequisites", name)
	}
	if st.requiresCommands && len(cmds) == 0 {
		return mk.fatalf("%s requires commands", name)
	}
	n := mk.Names.intern(name)
	n.setFlag(FlagSpecial | FlagTarget)

	switch name {
	case ".SUFFIXES":
		if len(prereqs) == 0 {
			mk.suffixes = nil
		} else {
			mk.suffixes = append(mk.suffixes, prereqs...)
		}
	case ".PHONY", ".PRECIOUS", ".SILENT", ".IGNORE":
		flag := map[string]NameFlag{
			".PHONY":    FlagPhony,
			".PRECIOUS": FlagPrecious,
			".SILENT":   FlagSilent,
			".IGNORE":   FlagIgnore,
		}[name]
		if len(prereqs) == 0 {
			// Bare ".PHONY:" with no prerequisites applies to every
			// target declared so far is not POSIX; pdpmake treats it as
			// a global flag when it has no prerequisites.
			mk.globalFlags |= flag
		}
		for _, pname := range prereqs {
			mk.internTarget(pname).setFlag(flag)
		}
	case ".DEFAULT":
		rule := &Rule{Cmds: cmds, Makefile: mk.Makefile, Lineno: mk.Lineno, Targets: []*Name{n}}
		n.Rules = []*Rule{rule}
	case ".PRAGMA":
		for _, pname := range prereqs {
			mk.Pragma.Set(pname, func(msg string) { mk.warnf("%s", msg) })
		}
	case ".POSIX":
		if mk.Pragma.Level == NonPosix {
			mk.Pragma.Level = Posix2017
		}
	}
	if len(cmds) > 0 && name != ".DEFAULT" {
		rule := &Rule{Cmds: cmds, Prereqs: toDepends(mk, prereqs), Makefile: mk.Makefile, Lineno: mk.Lineno, Targets: []*Name{n}}
		n.Rules = append(n.Rules, rule)
	}
	return nil
}

func (p *parser) attachInferenceRule(name, s1, s2 string, prereqs []string, cmds []*Cmd) error {
	mk := p.mk
	if len(prereqs) > 0 {
		return mk.fatalf("inference rule '%s' may not have prerequisites", name)
	}
	if len(cmds) == 0 {
		return mk.fatalf("inference rule '%s' requires commands", name)
	}
	n := mk.Names.intern(name)
	n.setFlag(FlagInference | FlagTarget)
	rule := &Rule{Cmds: cmds, Makefile: mk.Makefile, Lineno: mk.Lineno, Targets: []*Name{n}}
	n.Rules = []*Rule{rule}
	_ = s2
	return nil
}

func toDepends(mk *Maker, names []string) []*Depend {
	if len(names) == 0 {
		return nil
	}
	out := make([]*Depend, len(names))
	for i, name := range names {
		out[i] = &Depend{Name: mk.internTarget(name)}
	}
	return out
}

// addRule appends rule to n, enforcing the single/double-colon
// consistency invariant from spec §3 ("A Name is DOUBLE xor not-DOUBLE
// consistently for its entire life; mixing is a fatal error at
// rule-insertion time") and the "at most one Rule with commands" rule for
// single-colon targets.
func (mk *Maker) addRule(n *Name, rule *Rule, double bool) error {
	if len(n.Rules) > 0 {
		alreadyDouble := n.hasFlag(FlagDouble)
		if alreadyDouble != double {
			return mk.fatalf("cannot mix single and double colon rules for target '%s'", n.Name)
		}
	}
	if double {
		n.setFlag(FlagDouble)
		n.Rules = append(n.Rules, rule)
		return nil
	}
	if rule.HasCommands() {
		for _, existing := range n.Rules {
			if existing.HasCommands() && !existing.FromInference {
				return mk.fatalf("commands for target '%s' defined more than once", n.Name)
			}
		}
	}
	n.Rules = append(n.Rules, rule)
	return nil
}

func (mk *Maker) isSuffix(s string) bool {
	for _, suf := range mk.suffixes {
		if suf == s {
			return true
		}
	}
	return false
}

// inferenceSuffixSplit recognizes an inference-rule target name: ".sfx"
// (single-suffix) or ".sfx1.sfx2" where both suffixes are currently
// listed in .SUFFIXES (spec §4.3/§4.5).
func (mk *Maker) inferenceSuffixSplit(name string) (s1, s2 string, ok bool) {
	if len(name) < 2 || name[0] != '.' {
		return "", "", false
	}
	if mk.isSuffix(name) {
		return name, "", true
	}
	for i := 1; i < len(name); i++ {
		if name[i] != '.' {
			continue
		}
		a, b := name[:i], name[i:]
		if mk.isSuffix(a) && mk.isSuffix(b) {
			return a, b, true
		}
	}
	return "", "", false
}
