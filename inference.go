package pdpmake

import (
	"strings"

	"github.com/fuhsnn/pdpmake/internal/diag"
)

// resolveInference invents a rule for a target with no explicit commands,
// by walking .SUFFIXES chains (spec §4.5), grounded on pdpmake.c's
// dyndep. It returns nil, nil if no inference rule applies, leaving the
// caller to fall back to .DEFAULT. src is the implicit source
// prerequisite the scheduler must build before firing rule.
func (mk *Maker) resolveInference(n *Name) (rule *Rule, src *Name, stem string) {
	// FlagMark guards against revisiting a node already being resolved
	// earlier in this call chain (spec §4.5): two suffix rules that chain
	// back into each other would otherwise recurse without bound.
	if n.hasFlag(FlagMark) {
		return nil, nil, ""
	}
	n.setFlag(FlagMark)
	defer n.clearFlag(FlagMark)

	idx := strings.LastIndexByte(n.Name, '.')
	if idx < 0 {
		return nil, nil, ""
	}
	s2 := n.Name[idx:]
	if !mk.isSuffix(s2) {
		return nil, nil, ""
	}
	base := n.Name[:idx]
	for _, s1 := range mk.suffixes {
		if s1 == s2 {
			continue
		}
		ruleTarget := mk.Names.find(s1 + s2)
		if ruleTarget == nil || len(ruleTarget.Rules) == 0 {
			continue
		}
		srcName := base + s1
		srcNode := mk.Names.intern(srcName)
		if mk.sourceAvailable(srcNode) {
			if diag.Enabled() {
				diag.Trace("inference: %s%s -> %s via %s", s1, s2, n.Name, srcName)
			}
			return ruleTarget.Rules[0], srcNode, base
		}
	}
	return nil, nil, ""
}

// sourceAvailable reports whether src either exists on disk, is itself
// the target of some rule (so it can be built first), or can itself be
// produced by one more level of inference. Chained inference is a
// non-POSIX extension (spec §4.5): under an active .POSIX pragma, the
// source must already exist or have an explicit rule.
func (mk *Maker) sourceAvailable(src *Name) bool {
	if len(src.Rules) > 0 {
		return true
	}
	if mtime, ok := statMtime(src.Name); ok {
		src.Mtime = mtime
		src.mtimeKnown = true
		return true
	}
	if mk.Pragma.Level != NonPosix {
		return false
	}
	if rule, _, _ := mk.resolveInference(src); rule != nil {
		return true
	}
	return false
}
