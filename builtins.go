package pdpmake

// builtinMacros are installed at LevelDefault before any makefile is
// read, matching pdpmake.c's setmacro calls for the traditional command
// macros (spec §4.9).
var builtinMacros = []struct{ name, value string }{
	{"AR", "ar"},
	{"ARFLAGS", "-rv"},
	{"AS", "as"},
	{"CC", "cc"},
	{"CFLAGS", ""},
	{"CPP", "$(CC) -E"},
	{"FC", "fort77"},
	{"FFLAGS", ""},
	{"LD", "ld"},
	{"LDFLAGS", ""},
	{"LEX", "lex"},
	{"LFLAGS", ""},
	{"LDLIBS", ""},
	{"YACC", "yacc"},
	{"YFLAGS", ""},
	{"GET", "get"},
	{"CO", "co"},
	{"MAKEFLAGS", ""},
}

// builtinRulesC is the POSIX-2024 built-in suffix rule set: the C, yacc,
// lex, assembler, shell-script and archive rules; the Fortran/Ratfor rules
// POSIX 2017 also specifies are kept separately in builtinRules2017Extra
// (spec §4.9 / SPEC_FULL.md "Supplemented features").
const builtinRulesC = `
.SUFFIXES: .o .c .y .l .s .sh .a

.c.o:
	$(CC) $(CFLAGS) -c $<

.y.o:
	$(YACC) $(YFLAGS) $<
	$(CC) $(CFLAGS) -c y.tab.c
	rm -f y.tab.c
	mv y.tab.o $@

.l.o:
	$(LEX) $(LFLAGS) $<
	$(CC) $(CFLAGS) -c lex.yy.c
	rm -f lex.yy.c
	mv lex.yy.o $@

.c:
	$(CC) $(CFLAGS) $(LDFLAGS) -o $@ $<

.c.a:
	$(CC) -c $(CFLAGS) $<
	$(AR) $(ARFLAGS) $@ $*.o
	rm -f $*.o

.s.o:
	$(AS) -o $@ $<

.sh:
	cp $< $@
	chmod a+x $@
`

// builtinRules2017Extra adds POSIX-2017's Fortran/Ratfor rules, absent
// from the 2024 revision (spec §4.9).
const builtinRules2017Extra = `
.SUFFIXES: .f .r

.f.o:
	$(FC) $(FFLAGS) -c $<

.r.o:
	$(FC) $(FFLAGS) -c $<

.f:
	$(FC) $(FFLAGS) $(LDFLAGS) -o $@ $<

.r:
	$(FC) $(FFLAGS) $(LDFLAGS) -o $@ $<
`

// installBuiltins streams the built-in macro set and suffix rule text
// through the ordinary parser, exactly as a user makefile would be read
// — grounded on bootstrap.go's "feed canned text through the same
// loader" structure. -r (NoBuiltinRules) suppresses the rule text but,
// per spec.md's "-r" semantics, never the macro set.
func (mk *Maker) installBuiltins() error {
	for _, m := range builtinMacros {
		if mk.Macros.Get(m.name) != nil {
			continue
		}
		if err := mk.Macros.Set(mk, m.name, m.value, LevelDefault, SetOpts{Valid: true}); err != nil {
			return err
		}
	}
	if mk.Config.NoBuiltinRules {
		return nil
	}
	text := builtinRulesC
	if mk.Pragma.Level == Posix2017 {
		text += builtinRules2017Extra
	}
	return mk.parseBytes("<builtin>", []byte(text))
}
