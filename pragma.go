package pdpmake

import (
	"os"
	"strings"
)

// PragmaFlag is a bitset of strictness relaxations (spec §3/§4.4). The
// five spec.md names it (macro_name, target_name, command_comment,
// empty_suffix, windows) plus the supplemented pdpmake.c set
// (silent, noignore, undef) — see SPEC_FULL.md "Supplemented features".
type PragmaFlag uint32

const (
	PragmaMacroName PragmaFlag = 1 << iota
	PragmaTargetName
	PragmaCommandComment
	PragmaEmptySuffix
	PragmaWindows
	PragmaSilent
	PragmaNoIgnore
	PragmaUndef
)

// PosixLevel selects the POSIX edition in force, or NonPosix to enable
// every non-POSIX extension (pattern macros, double-colon rules,
// conditionals, wildcard prerequisites, archive members).
type PosixLevel int

const (
	NonPosix PosixLevel = iota
	Posix2017
	Posix2024
)

// Pragma is process-wide strictness state (spec §3): set from the
// environment, the command line (-x), or the .PRAGMA special target.
type Pragma struct {
	Flags PragmaFlag
	Level PosixLevel
}

func (p *Pragma) has(f PragmaFlag) bool { return p.Flags.has(f) }

func (f PragmaFlag) has(b PragmaFlag) bool { return f&b != 0 }

var pragmaNames = map[string]PragmaFlag{
	"macro_name":      PragmaMacroName,
	"target_name":     PragmaTargetName,
	"command_comment": PragmaCommandComment,
	"empty_suffix":    PragmaEmptySuffix,
	"windows":         PragmaWindows,
	"silent":          PragmaSilent,
	"noignore":        PragmaNoIgnore,
	"undef":           PragmaUndef,
}

// Set applies a single pragma name, as used by -x, PDPMAKE_PRAGMAS, and
// each prerequisite of .PRAGMA. Unknown names are reported through warn
// (non-fatal, spec §7).
func (p *Pragma) Set(name string, warn func(string)) {
	switch name {
	case "posix", "posix_2017":
		p.Level = Posix2017
		return
	case "posix_202x", "posix_2024":
		p.Level = Posix2024
		return
	}
	if f, ok := pragmaNames[name]; ok {
		p.Flags |= f
		return
	}
	if warn != nil {
		warn("ignoring unknown pragma '" + name + "'")
	}
}

// FromEnv pre-applies PDPMAKE_PRAGMAS and boots POSIX mode from
// PDPMAKE_POSIXLY_CORRECT, mirroring pdpmake.c's pragmas_from_env.
func (p *Pragma) FromEnv() {
	if _, ok := os.LookupEnv("PDPMAKE_POSIXLY_CORRECT"); ok {
		p.Level = Posix2024
	}
	if v := os.Getenv("PDPMAKE_PRAGMAS"); v != "" {
		for _, name := range strings.Fields(v) {
			p.Set(name, nil)
		}
	}
}

// ToEnv exports the active pragma set back via PDPMAKE_PRAGMAS so
// recursive invocations inherit it, mirroring pdpmake.c's pragmas_to_env.
func (p *Pragma) ToEnv() {
	var names []string
	for name, f := range pragmaNames {
		if p.Flags.has(f) {
			names = append(names, name)
		}
	}
	switch p.Level {
	case Posix2017:
		names = append(names, "posix_2017")
	case Posix2024:
		names = append(names, "posix_202x")
	}
	if len(names) == 0 {
		os.Unsetenv("PDPMAKE_PRAGMAS")
		return
	}
	os.Setenv("PDPMAKE_PRAGMAS", strings.Join(names, " "))
}
