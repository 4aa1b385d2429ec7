// Command pdpmake is the CLI driver for the pdpmake evaluator: it parses
// arguments and MAKEFLAGS via internal/cmdline, builds a pdpmake.Maker,
// reads the chosen makefile(s), installs a signal handler to unlink an
// in-flight target (spec §5), and runs the named targets (or the default
// goal) to completion.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fuhsnn/pdpmake"
	"github.com/fuhsnn/pdpmake/internal/cmdline"
	"github.com/fuhsnn/pdpmake/internal/diag"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	opts, err := cmdline.Parse(argv, os.Getenv("MAKEFLAGS"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdpmake: %v\n", err)
		flag.Usage()
		return 2
	}

	for _, dir := range opts.Dirs {
		if err := os.Chdir(dir); err != nil {
			fmt.Fprintf(os.Stderr, "pdpmake: cannot chdir to '%s': %v\n", dir, err)
			return 2
		}
	}

	if opts.Debug || os.Getenv("PDPMAKE_DEBUG") != "" {
		// glog gates V(1) output behind its own -v/-logtostderr flags,
		// registered on flag.CommandLine by its init(); since pdpmake
		// parses argv itself rather than through the flag package, -d
		// flips those flags programmatically instead (mirrors kati's
		// cmd/kati, which gets the same effect for free via flag.Parse).
		flag.Set("v", "1")
		flag.Set("logtostderr", "true")
		defer diag.Flush()
	}

	cfg := pdpmake.Config{
		Posix:          opts.Posix,
		KeepGoing:      opts.KeepGoing,
		IgnoreErrors:   opts.IgnoreErrors,
		Silent:         opts.Silent,
		DryRun:         opts.DryRun,
		Touch:          opts.Touch,
		Question:       opts.Question,
		NoBuiltinRules: opts.NoBuiltinRules,
		EnvOverride:    opts.EnvOverride,
		Jobs:           opts.Jobs,
	}
	mk := pdpmake.NewMaker(cfg)

	for _, px := range opts.Pragmas {
		mk.Pragma.Set(px, func(msg string) { fmt.Fprintf(os.Stdout, "pdpmake: %s\n", msg) })
	}
	mk.Pragma.ToEnv()

	for _, m := range opts.Macros {
		setOpts := pdpmake.SetOpts{Immediate: m.Immediate}
		if err := mk.Macros.Set(mk, m.Name, m.Value, pdpmake.LevelCommandLine, setOpts); err != nil {
			fmt.Fprintf(os.Stderr, "pdpmake: %v\n", err)
			return 2
		}
		if opts.EnvOverride {
			os.Setenv(m.Name, m.Value)
		}
	}

	files := opts.Files
	if len(files) == 0 {
		for _, candidate := range cmdline.DefaultMakefiles(opts.Posix) {
			if _, err := os.Stat(candidate); err == nil {
				files = []string{candidate}
				break
			}
		}
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "pdpmake: no makefile found")
		return 2
	}

	installSignalHandler(mk)

	for _, f := range files {
		if err := mk.ParseFile(f); err != nil {
			fmt.Fprintf(os.Stderr, "pdpmake: %v\n", err)
			return 2
		}
	}

	if opts.PrintDatabase {
		mk.PrintDatabase(os.Stdout)
	}

	targets := opts.Targets
	if len(targets) == 0 {
		if mk.FirstTarget == nil {
			fmt.Fprintln(os.Stderr, "pdpmake: no targets")
			return 2
		}
		targets = []string{mk.FirstTarget.Name}
	}

	for _, t := range targets {
		if err := mk.Make(t, 0); err != nil {
			fmt.Fprintf(os.Stderr, "pdpmake: failed to build '%s': %v\n", t, err)
			if !cfg.KeepGoing {
				return 2
			}
		}
	}

	if opts.Question && mk.NeedsRebuild() {
		return 1
	}
	return 0
}

// installSignalHandler traps SIGHUP/SIGTERM/SIGINT so an interrupted
// build unlinks its in-flight, non-precious target rather than leaving a
// truncated or partial file behind (spec §5).
func installSignalHandler(mk *pdpmake.Maker) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-ch
		mk.UnlinkInFlightTarget()
		os.Exit(2)
	}()
}

func init() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(`
usage: pdpmake [--posix] [-C dir]... [-f file]... [-j N] [-x pragma]...
               [-dehiknpqrsSt] [macro[:[:[:]]]=value ...] [target ...]
`))
	}
}
