package pdpmake

// NameFlag is a bitset of the per-Name attributes tracked during a build
// (spec §3: DOING, DONE, TARGET, PRECIOUS, DOUBLE, SILENT, IGNORE, SPECIAL,
// MARK, PHONY, INFERENCE).
type NameFlag uint32

const (
	FlagDoing NameFlag = 1 << iota
	FlagDone
	FlagTarget
	FlagPrecious
	FlagDouble
	FlagSilent
	FlagIgnore
	FlagSpecial
	FlagMark
	FlagPhony
	FlagInference
)

func (f NameFlag) has(b NameFlag) bool { return f&b != 0 }

// Mtime is a filesystem modification time with second and nanosecond
// components. A zero Nsec means "unknown sub-second resolution" (spec
// §4.6): comparisons then fall back to comparing only the seconds, which
// keeps cross-filesystem builds stable.
type Mtime struct {
	Sec  int64
	Nsec int64
}

// Zero reports whether this represents a nonexistent file (ENOENT).
func (m Mtime) Zero() bool { return m.Sec == 0 && m.Nsec == 0 }

// Before reports whether m is strictly older than o, honouring the
// unknown-sub-second rule: if either side has a zero Nsec, only Sec is
// compared.
func (m Mtime) Before(o Mtime) bool {
	if m.Nsec == 0 || o.Nsec == 0 {
		return m.Sec < o.Sec
	}
	if m.Sec != o.Sec {
		return m.Sec < o.Sec
	}
	return m.Nsec < o.Nsec
}

// LE reports m <= o under the same unknown-sub-second rule as Before.
func (m Mtime) LE(o Mtime) bool { return !o.Before(m) }

func maxMtime(a, b Mtime) Mtime {
	if a.Before(b) {
		return b
	}
	return a
}

// Name is an interned path-like string identifying a target, prerequisite,
// or special meta-target. Exactly one Name exists per distinct string for
// the lifetime of the process (spec §3).
type Name struct {
	Name  string
	Rules []*Rule
	Mtime Mtime
	Flags NameFlag

	// mtimeKnown is true once Mtime has been populated by the modtime
	// oracle (distinguishes "not yet stat'd" from "stat'd, ENOENT").
	mtimeKnown bool
}

func (n *Name) hasFlag(f NameFlag) bool { return n.Flags.has(f) }
func (n *Name) setFlag(f NameFlag)      { n.Flags |= f }
func (n *Name) clearFlag(f NameFlag)    { n.Flags &^= f }

// Rule is a (prerequisites, commands) pair attached to a Name. For
// single-colon semantics a Name has at most one Rule carrying commands;
// for double-colon semantics every Rule may carry its own commands and is
// evaluated independently (spec §3).
type Rule struct {
	// Targets lists every Name this rule line assigned commands/prereqs
	// to (a rule line may name several targets, sharing one Prereqs/Cmds
	// slice — see design note in DESIGN.md "Data model").
	Targets []*Name

	Prereqs []*Depend
	Cmds    []*Cmd

	Double bool

	// FromInference marks a synthetic rule built by the inference
	// resolver (spec §4.5), as opposed to one parsed from source text.
	FromInference bool

	// Makefile/Lineno locate the rule line for diagnostics.
	Makefile string
	Lineno   int
}

// HasCommands reports whether this rule carries any commands.
func (r *Rule) HasCommands() bool { return len(r.Cmds) > 0 }

// Depend is one element of a prerequisite list.
type Depend struct {
	Name *Name
}

// Cmd is one element of a command list. Origin fields drive error
// messages (spec §3).
type Cmd struct {
	Text     string
	Makefile string
	Lineno   int
}
