package pdpmake

// MacroLevel encodes provenance precedence for a macro definition. Lower
// wins: a redefinition is discarded when its level exceeds the stored
// level (spec §3).
type MacroLevel int

const (
	LevelInternal    MacroLevel = 0 // built-in internal ($)
	LevelCommandLine MacroLevel = 1
	LevelMakeflags   MacroLevel = 2
	LevelMakefile    MacroLevel = 3
	LevelDefault     MacroLevel = 4 // SHELL, MAKE, CURDIR, environment-with--e
)

// Macro is a (name, value, level) triple with an immediate/delayed flag
// and a self-recursion guard (spec §3).
type Macro struct {
	Name      string
	Value     string
	Level     MacroLevel
	Immediate bool

	inExpansion bool
}

// MacroStore is a name -> *Macro map with level-gated overwrite semantics,
// grounded on var.go's Vars map but collapsed to one concrete type since
// spec.md's macro model has no function values or target-specific
// overrides (see DESIGN.md "Macro store").
type MacroStore struct {
	m map[string]*Macro
}

func newMacroStore() *MacroStore {
	return &MacroStore{m: make(map[string]*Macro)}
}

// Get returns the macro, or nil if undefined.
func (ms *MacroStore) Get(name string) *Macro {
	return ms.m[name]
}

// SetOpts controls setmacro's validation and origin behaviour (spec §4.2).
type SetOpts struct {
	Immediate bool
	// Valid suppresses name validation (used for internally synthesized
	// macros like automatic macros and MAKEFLAGS).
	Valid bool
	// FromEnv silently drops invalid names instead of raising a fatal
	// error (environment variables are not under the user's control).
	FromEnv bool
}

// Set implements setmacro(name, value, level, opts): the call is dropped
// if an entry with a lower level already exists; otherwise the value (and
// immediate flag) is replaced. An invalid name is fatal unless FromEnv.
func (ms *MacroStore) Set(mk *Maker, name, value string, level MacroLevel, opts SetOpts) error {
	if existing, ok := ms.m[name]; ok && existing.Level < level {
		return nil
	}
	if !opts.Valid && !isValidMacroName(mk.Pragma, name) {
		if opts.FromEnv {
			return nil
		}
		return mk.fatalf("invalid macro name '%s'", name)
	}
	ms.m[name] = &Macro{Name: name, Value: value, Level: level, Immediate: opts.Immediate}
	return nil
}

// Append implements += : if the existing macro is immediate, the RHS is
// expanded before appending; the level is only widened (never narrowed)
// to the max of the existing and new level's precedence, matching
// pdpmake.c's behaviour of leaving a command-line override alone when a
// makefile tries to += it.
func (ms *MacroStore) Append(mk *Maker, name, value string, level MacroLevel) error {
	existing, ok := ms.m[name]
	if !ok {
		return ms.Set(mk, name, value, level, SetOpts{})
	}
	if existing.Level < level {
		return nil
	}
	existing.Level = level
	add := value
	if existing.Immediate {
		expanded, err := mk.Expand(value, false)
		if err != nil {
			return err
		}
		add = expanded
	}
	if existing.Value != "" && add != "" {
		existing.Value += " " + add
	} else {
		existing.Value += add
	}
	return nil
}

// Delete removes a macro definition (used by undefine / the `undef`
// pragma's reset behaviour, and by tests).
func (ms *MacroStore) Delete(name string) {
	delete(ms.m, name)
}

func (ms *MacroStore) names() []string {
	out := make([]string, 0, len(ms.m))
	for name := range ms.m {
		out = append(out, name)
	}
	return out
}
