// Package pdpmake implements the evaluator at the heart of a
// POSIX-conformant make utility: the parser that turns makefile text into
// a target graph, the macro expansion engine, the dependency graph walker
// that decides what must be rebuilt, and the inference-rule resolver that
// invents rules for targets that have none.
//
// Argument parsing for a CLI driver, MAKEFLAGS round-tripping, and signal
// installation live in internal/cmdline and cmd/pdpmake; this package is
// the evaluator they drive.
package pdpmake

import (
	"fmt"
	"os"
)

// Config holds the strictness/behaviour knobs set from the command line
// (spec §6), grounded on kati's depgraph.go ExecutorOpt/LoadReq shape but
// generalized to the pdpmake option set.
type Config struct {
	Posix           bool
	KeepGoing       bool // -k
	IgnoreErrors    bool // -i
	Silent          bool // -s
	DryRun          bool // -n
	Touch           bool // -t
	Question        bool // -q
	NoBuiltinRules  bool // -r
	NoBuiltinMacros bool // non-standard: never set by pdpmake itself
	EnvOverride     bool // -e
	Jobs            int  // -j N, accepted but unused (serial execution)
	PrintDirectory  bool
}

// Maker is the single context value threaded through the parser and
// executor (spec §9 design note: "all module-level globals... should live
// in a single context value"). The only process-global left outside it is
// the signal-handler bridge (see cmd/pdpmake), which needs to reach
// the in-flight target to unlink it.
type Maker struct {
	Names  *nameTable
	Macros *MacroStore
	Pragma Pragma
	Config Config

	// Makefile/Lineno locate the line currently being parsed or
	// evaluated, for diagnostics.
	Makefile string
	Lineno   int

	// FirstTarget is the default goal: the first normal target seen in
	// the first makefile (spec §4.3).
	FirstTarget *Name

	// SawMake records whether $(MAKE) has been expanded. runCmd clears it
	// before expanding each command, and a command whose expansion set it
	// runs under -n/-t just like one with a '+' prefix (spec §4.2).
	SawMake bool

	includeDepth int

	// suffixes is the current .SUFFIXES list, in declaration order,
	// consulted by the inference-rule resolver (spec §4.5).
	suffixes []string

	// globalFlags holds flags set by a bare ".PHONY:"-style line with no
	// prerequisites; spec.md leaves this undefined for POSIX mode, so it
	// is a pdpmake-specific no-op placeholder kept for parity with the
	// per-prerequisite form.
	globalFlags NameFlag

	// exports tracks .EXPORT-style environment propagation decisions;
	// left minimal since spec.md's "export" directive is not part of
	// this subset (non-POSIX extensions list does not include it).
	exports map[string]bool

	// target is the currently-executing Name, readable by a signal
	// handler bridge so SIGHUP/SIGTERM can unlink its partial output
	// (spec §5). Guarded by no lock: execution is single-threaded.
	target *Name

	// firedCount counts rule firings across the whole run, used to
	// detect the "nothing to be done" case for the top-level message
	// (spec §4.7).
	firedCount int

	// needsRebuild is set by -q (question mode) when some target in the
	// walk turned out to be out of date, driving the exit-code contract
	// of spec §6 ("1 with -q when rebuild needed").
	needsRebuild bool

	out *os.File

	// Automatic macro bindings, set immediately before each rule's
	// commands fire (spec §4.8) and read back by the expander's $@ $%
	// $? $< $* $^ $+ handling.
	autoTarget   string
	autoMember   string
	autoOodate   string
	autoLessThan string
	autoStem     string
	autoDedup    string
	autoAllsrc   string
}

// NewMaker creates an evaluator context with the built-in macro set
// (SHELL, MAKE, CURDIR) installed at LevelDefault.
func NewMaker(cfg Config) *Maker {
	mk := &Maker{
		Names:  newNameTable(),
		Macros: newMacroStore(),
		Config: cfg,
		out:    os.Stdout,
	}
	mk.Pragma.FromEnv()
	if cfg.Posix {
		if mk.Pragma.Level == NonPosix {
			mk.Pragma.Level = Posix2024
		}
	}
	mk.installDefaultMacros()
	if !cfg.NoBuiltinMacros {
		if err := mk.installBuiltins(); err != nil {
			// Built-in rule text is fixed and known-good; a failure here
			// indicates a bug in builtins.go itself, not user input.
			panic(err)
		}
	}
	return mk
}

func (mk *Maker) installDefaultMacros() {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	mk.Macros.Set(mk, "SHELL", shell, LevelDefault, SetOpts{Valid: true})
	mk.Macros.Set(mk, "MAKE", "pdpmake", LevelDefault, SetOpts{Valid: true})
	if cwd, err := os.Getwd(); err == nil {
		mk.Macros.Set(mk, "CURDIR", cwd, LevelDefault, SetOpts{Valid: true})
	}
}

// internTarget interns name and marks it as a build target (TARGET flag).
func (mk *Maker) internTarget(name string) *Name {
	n := mk.Names.intern(name)
	n.setFlag(FlagTarget)
	return n
}

// fatalf formats a syntax/semantic error with makefile:line context and
// returns it as an error understood by the caller to be fatal (spec §7).
// It does not itself exit; cmd/pdpmake decides the process exit code so
// that library callers (tests) can observe the error value.
func (mk *Maker) fatalf(format string, a ...interface{}) error {
	msg := fmt.Sprintf(format, a...)
	if mk.Makefile != "" {
		return &fatalError{msg: fmt.Sprintf("%s:%d: %s", mk.Makefile, mk.Lineno, msg)}
	}
	return &fatalError{msg: msg}
}

// fatalError distinguishes a fatal diagnostic (exit 2) from an ordinary
// error a caller might want to recover from.
type fatalError struct{ msg string }

func (e *fatalError) Error() string { return e.msg }

// NeedsRebuild reports whether -q (Config.Question) found some target out
// of date during the walk, driving the "exit 1" branch of spec §6's exit
// code contract.
func (mk *Maker) NeedsRebuild() bool { return mk.needsRebuild }

// UnlinkInFlightTarget removes the currently-executing target's output
// file unless it is marked PRECIOUS, called from the signal handler
// bridge a CLI driver installs for SIGHUP/SIGTERM (spec §5).
func (mk *Maker) UnlinkInFlightTarget() {
	n := mk.target
	if n == nil || n.hasFlag(FlagPrecious) || n.hasFlag(FlagPhony) {
		return
	}
	os.Remove(n.Name)
}

// warnf prints a non-fatal diagnostic to stdout, interleaved with command
// echo as spec §7 requires.
func (mk *Maker) warnf(format string, a ...interface{}) {
	msg := fmt.Sprintf(format, a...)
	if mk.Makefile != "" {
		fmt.Fprintf(mk.out, "%s:%d: %s\n", mk.Makefile, mk.Lineno, msg)
	} else {
		fmt.Fprintf(mk.out, "%s\n", msg)
	}
}
