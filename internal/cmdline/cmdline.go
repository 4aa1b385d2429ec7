// Package cmdline parses pdpmake's command line and the MAKEFLAGS
// environment variable that round-trips a subset of it across recursive
// invocations. Grounded on kati's cmdline.go (ParseCommandLine's
// vars-vs-targets split) and pdpmake.c's process_options/
// expand_makeflags/update_makeflags.
package cmdline

import (
	"fmt"
	"strings"
)

// MacroArg is one NAME=VALUE (or NAME:=VALUE, etc.) argument given on the
// command line, which binds at pdpmake.LevelCommandLine (spec §3).
type MacroArg struct {
	Name      string
	Value     string
	Immediate bool
}

// Options is the fully parsed command line (spec §6's grammar).
type Options struct {
	Posix          bool
	Dirs           []string // -C dir, applied in order before anything else
	Files          []string // -f file
	Jobs           int      // -j N, accepted, unused (serial)
	Pragmas        []string // -x pragma
	EnvOverride    bool     // -e
	KeepGoing      bool     // -k
	IgnoreErrors   bool     // -i
	NoBuiltinRules bool     // -r
	Question       bool     // -q
	Silent         bool     // -s
	NoKeepGoing    bool     // -S: cancels a -k inherited via MAKEFLAGS
	Touch          bool     // -t
	PrintDatabase  bool     // -p
	DryRun         bool     // -n
	Debug          bool     // -d (also set by PDPMAKE_DEBUG in the environment)
	Macros         []MacroArg
	Targets        []string
}

// flagLetters lists every bare single-letter option (setFlag maps each to
// the Options field it sets), used for both "-ab" stacked short forms and bare-letter MAKEFLAGS
// tokens (spec §6: "bare option letters... tolerated on read").
var flagLetters = "dehiknpqrsSt"

// Parse parses argv (not including argv[0]) plus any options recovered
// from MAKEFLAGS, per spec §6. MAKEFLAGS-derived options are applied
// first so command-line arguments can override them.
func Parse(argv []string, makeflags string) (*Options, error) {
	opts := &Options{Jobs: 1}
	if err := applyMakeflags(opts, makeflags); err != nil {
		return nil, err
	}
	if err := parseArgs(opts, argv); err != nil {
		return nil, err
	}
	return opts, nil
}

func parseArgs(opts *Options, argv []string) error {
	i := 0
	for i < len(argv) {
		arg := argv[i]
		switch {
		case arg == "--posix":
			opts.Posix = true
			i++
		case arg == "-C":
			i++
			if i >= len(argv) {
				return fmt.Errorf("-C requires an argument")
			}
			opts.Dirs = append(opts.Dirs, argv[i])
			i++
		case strings.HasPrefix(arg, "-C") && len(arg) > 2:
			opts.Dirs = append(opts.Dirs, arg[2:])
			i++
		case arg == "-f":
			i++
			if i >= len(argv) {
				return fmt.Errorf("-f requires an argument")
			}
			opts.Files = append(opts.Files, argv[i])
			i++
		case strings.HasPrefix(arg, "-f") && len(arg) > 2:
			opts.Files = append(opts.Files, arg[2:])
			i++
		case arg == "-j":
			i++
			if i >= len(argv) {
				return fmt.Errorf("-j requires an argument")
			}
			fmt.Sscanf(argv[i], "%d", &opts.Jobs)
			i++
		case strings.HasPrefix(arg, "-j") && len(arg) > 2:
			fmt.Sscanf(arg[2:], "%d", &opts.Jobs)
			i++
		case arg == "-x":
			i++
			if i >= len(argv) {
				return fmt.Errorf("-x requires an argument")
			}
			opts.Pragmas = append(opts.Pragmas, argv[i])
			i++
		case strings.HasPrefix(arg, "-x") && len(arg) > 2:
			opts.Pragmas = append(opts.Pragmas, arg[2:])
			i++
		case len(arg) >= 2 && arg[0] == '-' && arg != "-":
			if err := applyShortFlags(opts, arg[1:]); err != nil {
				return err
			}
			i++
		default:
			if name, value, immediate, ok := splitMacroArg(arg); ok {
				opts.Macros = append(opts.Macros, MacroArg{Name: name, Value: value, Immediate: immediate})
			} else {
				opts.Targets = append(opts.Targets, arg)
			}
			i++
		}
	}
	return nil
}

func applyShortFlags(opts *Options, letters string) error {
	for i := 0; i < len(letters); i++ {
		if strings.IndexByte(flagLetters, letters[i]) < 0 {
			return fmt.Errorf("unknown option -%c", letters[i])
		}
		setFlag(opts, letters[i])
	}
	return nil
}

func setFlag(opts *Options, letter byte) {
	switch letter {
	case 'd':
		opts.Debug = true
	case 'e':
		opts.EnvOverride = true
	case 'h':
		// accepted and ignored: no Options field records it, and
		// cmd/pdpmake prints no usage text for it
	case 'i':
		opts.IgnoreErrors = true
	case 'k':
		opts.KeepGoing = true
	case 'n':
		opts.DryRun = true
	case 'p':
		opts.PrintDatabase = true
	case 'q':
		opts.Question = true
	case 'r':
		opts.NoBuiltinRules = true
	case 's':
		opts.Silent = true
	case 'S':
		opts.NoKeepGoing = true
		opts.KeepGoing = false
	case 't':
		opts.Touch = true
	}
}

// splitMacroArg recognizes "NAME=VALUE", "NAME:=VALUE", "NAME::=VALUE"
// and "NAME:::=VALUE" (spec §6: "macro[:[:[:]]]=value").
func splitMacroArg(arg string) (name, value string, immediate bool, ok bool) {
	eq := strings.IndexByte(arg, '=')
	if eq < 0 {
		return "", "", false, false
	}
	lhs := arg[:eq]
	value = arg[eq+1:]
	switch {
	case strings.HasSuffix(lhs, ":::"):
		return lhs[:len(lhs)-3], value, false, true
	case strings.HasSuffix(lhs, "::"):
		return lhs[:len(lhs)-2], value, true, true
	case strings.HasSuffix(lhs, ":"):
		return lhs[:len(lhs)-1], value, true, true
	default:
		if lhs == "" {
			return "", "", false, false
		}
		return lhs, value, false, true
	}
}

// applyMakeflags parses MAKEFLAGS content (blank-separated, each token
// either a bare option-letter run or a macro=value assignment).
func applyMakeflags(opts *Options, makeflags string) error {
	for _, tok := range strings.Fields(makeflags) {
		if name, value, immediate, ok := splitMacroArg(tok); ok && strings.Contains(tok, "=") {
			opts.Macros = append(opts.Macros, MacroArg{Name: name, Value: value, Immediate: immediate})
			continue
		}
		letters := strings.TrimPrefix(tok, "-")
		if err := applyShortFlags(opts, letters); err != nil {
			// Unknown bare letters in inherited MAKEFLAGS are ignored
			// rather than fatal, since a future pdpmake might add
			// letters an older one doesn't know.
			continue
		}
	}
	return nil
}

// Encode re-serializes the option bits and level-1/level-2 macros back
// into a MAKEFLAGS string, excluding -S, -f, -p, -C, -x per spec §6.
// -j N, -h and --posix are not encoded either.
func Encode(opts *Options) string {
	var letters strings.Builder
	if opts.Debug {
		letters.WriteByte('d')
	}
	if opts.EnvOverride {
		letters.WriteByte('e')
	}
	if opts.IgnoreErrors {
		letters.WriteByte('i')
	}
	if opts.KeepGoing {
		letters.WriteByte('k')
	}
	if opts.DryRun {
		letters.WriteByte('n')
	}
	if opts.Question {
		letters.WriteByte('q')
	}
	if opts.NoBuiltinRules {
		letters.WriteByte('r')
	}
	if opts.Silent {
		letters.WriteByte('s')
	}
	if opts.Touch {
		letters.WriteByte('t')
	}

	var parts []string
	if letters.Len() > 0 {
		parts = append(parts, letters.String())
	}
	for _, m := range opts.Macros {
		op := "="
		if m.Immediate {
			op = ":="
		}
		parts = append(parts, m.Name+op+escapeMakeflags(m.Value))
	}
	return strings.Join(parts, " ")
}

func escapeMakeflags(s string) string {
	return strings.ReplaceAll(s, " ", "\\ ")
}

// DefaultMakefiles is the search order used when no -f is given (spec
// §6): PDPmakefile (non-POSIX only), makefile, Makefile.
func DefaultMakefiles(posix bool) []string {
	if posix {
		return []string{"makefile", "Makefile"}
	}
	return []string{"PDPmakefile", "makefile", "Makefile"}
}
