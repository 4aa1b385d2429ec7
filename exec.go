package pdpmake

import (
	"strings"

	"github.com/fuhsnn/pdpmake/internal/diag"
)

// Make brings name up to date, implementing the DOING/DONE recursive
// scheduler of spec §4.7: a single-threaded depth-first walk of the
// dependency graph, grounded on kati's exec.go walk-and-fire shape but
// rebuilt around serial execution (no worker pool) since parallel builds
// are out of scope here.
func (mk *Maker) Make(name string, level int) error {
	n := mk.Names.intern(name)
	before := mk.firedCount
	err := mk.makeName(n)
	if err == nil && level == 0 && mk.firedCount == before {
		mk.warnf("'%s' is up to date", n.Name)
	}
	return err
}

func (mk *Maker) makeName(n *Name) error {
	if n.hasFlag(FlagDone) {
		return nil
	}
	if n.hasFlag(FlagDoing) {
		return mk.fatalf("circular dependency involving '%s'", n.Name)
	}
	n.setFlag(FlagDoing)

	var err error
	if n.hasFlag(FlagDouble) {
		err = mk.makeDouble(n)
	} else {
		err = mk.makeSingle(n)
	}

	n.clearFlag(FlagDoing)
	n.setFlag(FlagDone)
	return err
}

// makeSingle resolves and fires the (at most one) rule governing a
// single-colon target, falling back to inference and then .DEFAULT
// (spec §4.5/§4.7).
func (mk *Maker) makeSingle(n *Name) error {
	rule, implicitSrc, stem := mk.ruleFor(n)

	prereqs := ruleDepends(rule)
	if implicitSrc != nil {
		// Scoped splice (Open Question #1, DESIGN.md): the implicit
		// source is prepended to a local copy only, never mutating the
		// stored Rule.Prereqs, since an inference rule is shared across
		// every target it might ever apply to.
		spliced := make([]*Depend, 0, len(prereqs)+1)
		spliced = append(spliced, &Depend{Name: implicitSrc})
		spliced = append(spliced, prereqs...)
		prereqs = spliced
	}

	if err := mk.buildPrereqs(prereqs); err != nil {
		return err
	}

	oodate, oodateList, allsrc, dedup := mk.compareTimes(n, prereqs)

	if rule == nil {
		if n.hasFlag(FlagTarget) && !n.hasFlag(FlagPhony) && mk.mtime(n).Zero() && len(prereqs) == 0 {
			return mk.fatalf("don't know how to make '%s'", n.Name)
		}
		return nil
	}
	if !oodate && !mk.Config.Question {
		return nil
	}
	if mk.Config.Question {
		if oodate {
			mk.needsRebuild = true
		}
		return nil
	}

	mk.bindAutomatics(n, implicitSrc, stem, oodateList, allsrc, dedup)
	return mk.fireCommands(n, rule)
}

// makeDouble fires every rule attached to a double-colon target
// independently; each Rule's own Prereqs/Cmds are evaluated as if it
// were a distinct single-colon target sharing n's name (spec §3/§4.7).
func (mk *Maker) makeDouble(n *Name) error {
	for _, rule := range n.Rules {
		prereqs := ruleDepends(rule)
		fire, implicitSrc, stem := rule, (*Name)(nil), ""
		if !rule.HasCommands() {
			// Scoped splice (Open Question #1, DESIGN.md): the implicit
			// source is prepended to a fresh slice for this rule only.
			if r, src, st := mk.resolveInference(n); r != nil {
				fire, implicitSrc, stem = r, src, st
				prereqs = append([]*Depend{{Name: src}}, prereqs...)
			}
		}
		if err := mk.buildPrereqs(prereqs); err != nil {
			return err
		}
		oodate, oodateList, allsrc, dedup := mk.compareTimes(n, prereqs)
		if !oodate {
			continue
		}
		mk.bindAutomatics(n, implicitSrc, stem, oodateList, allsrc, dedup)
		if err := mk.fireCommands(n, fire); err != nil {
			return err
		}
	}
	return nil
}

// ruleFor finds the rule governing n: an explicit rule if one carries
// commands or prerequisites, otherwise an inference-resolved rule,
// otherwise .DEFAULT.
func (mk *Maker) ruleFor(n *Name) (rule *Rule, implicitSrc *Name, stem string) {
	if len(n.Rules) > 0 {
		rule = n.Rules[0]
	}
	if rule == nil || (!rule.HasCommands() && len(rule.Prereqs) == 0) {
		if r, src, st := mk.resolveInference(n); r != nil {
			return r, src, st
		}
	}
	if rule == nil || !rule.HasCommands() {
		if def := mk.Names.find(".DEFAULT"); def != nil && len(def.Rules) > 0 && def.Rules[0].HasCommands() {
			if rule == nil {
				rule = def.Rules[0]
			} else if !rule.HasCommands() {
				rule = &Rule{Prereqs: rule.Prereqs, Cmds: def.Rules[0].Cmds, Targets: rule.Targets,
					Makefile: rule.Makefile, Lineno: rule.Lineno}
			}
		}
	}
	return rule, nil, ""
}

func ruleDepends(rule *Rule) []*Depend {
	if rule == nil {
		return nil
	}
	return rule.Prereqs
}

// buildPrereqs recursively brings every prerequisite up to date before
// the governing rule is allowed to fire (spec §4.7).
func (mk *Maker) buildPrereqs(prereqs []*Depend) error {
	for _, d := range prereqs {
		if err := mk.makeName(d.Name); err != nil {
			if mk.Config.KeepGoing {
				mk.warnf("%v", err)
				continue
			}
			return err
		}
	}
	return nil
}

// compareTimes determines whether n is out of date relative to its
// (already-built) prerequisites, and accumulates the $?, $+, and $^
// macro bindings (spec §4.2/§4.7).
func (mk *Maker) compareTimes(n *Name, prereqs []*Depend) (oodate bool, oodateNames, allsrc, dedup []string) {
	nmtime := mk.mtime(n)
	if n.hasFlag(FlagPhony) || nmtime.Zero() {
		oodate = true
	}
	seen := map[string]bool{}
	for _, d := range prereqs {
		dmtime := mk.mtime(d.Name)
		allsrc = append(allsrc, d.Name.Name)
		if !seen[d.Name.Name] {
			seen[d.Name.Name] = true
			dedup = append(dedup, d.Name.Name)
		}
		if nmtime.Zero() || nmtime.LE(dmtime) {
			oodate = true
			oodateNames = append(oodateNames, d.Name.Name)
		}
	}
	return oodate, oodateNames, allsrc, dedup
}

func (mk *Maker) bindAutomatics(n, implicitSrc *Name, stem string, oodate, allsrc, dedup []string) {
	mk.autoTarget = n.Name
	mk.autoOodate = strings.Join(oodate, " ")
	mk.autoAllsrc = strings.Join(allsrc, " ")
	mk.autoDedup = strings.Join(dedup, " ")
	mk.autoStem = stem
	if implicitSrc != nil {
		mk.autoLessThan = implicitSrc.Name
	} else if len(allsrc) > 0 {
		mk.autoLessThan = allsrc[0]
	} else {
		mk.autoLessThan = ""
	}
	if _, member, ok := splitArchive(n.Name); ok {
		mk.autoMember = member
	} else {
		mk.autoMember = ""
	}
}

// fireCommands runs every command of rule against n, refreshing n's
// modification time afterward (spec §4.7/§4.8).
func (mk *Maker) fireCommands(n *Name, rule *Rule) error {
	mk.firedCount++
	mk.target = n
	defer func() { mk.target = nil }()

	if diag.Enabled() {
		diag.Trace("firing rule for %q (%d commands)", n.Name, len(rule.Cmds))
	}
	for _, c := range rule.Cmds {
		if err := mk.runCmd(n, c); err != nil {
			return err
		}
	}
	if !mk.Config.DryRun && !n.hasFlag(FlagPhony) {
		mk.refreshMtime(n)
	}
	return nil
}
