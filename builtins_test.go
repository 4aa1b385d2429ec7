package pdpmake

import "testing"

func TestBuiltinMacrosInstalled(t *testing.T) {
	mk := NewMaker(Config{})
	for _, name := range []string{"CC", "AR", "YACC", "LEX"} {
		if mk.Macros.Get(name) == nil {
			t.Errorf("expected built-in macro %s to be installed", name)
		}
	}
}

func TestBuiltinRulesInstallSuffixChain(t *testing.T) {
	mk := NewMaker(Config{})
	n := mk.Names.find(".c.o")
	if n == nil || len(n.Rules) == 0 {
		t.Fatal("expected built-in .c.o inference rule to be installed")
	}
	if len(mk.suffixes) == 0 {
		t.Error("expected built-in .SUFFIXES list to be populated")
	}
}

func TestNoBuiltinRulesSuppressesSuffixChain(t *testing.T) {
	mk := NewMaker(Config{NoBuiltinRules: true})
	if n := mk.Names.find(".c.o"); n != nil && len(n.Rules) > 0 {
		t.Error("expected -r to suppress built-in suffix rules")
	}
	if mk.Macros.Get("CC") == nil {
		t.Error("expected -r to still install built-in macros")
	}
}

func TestPosix2017AddsFortranRules(t *testing.T) {
	mk := NewMaker(Config{})
	mk.Pragma.Level = Posix2017
	if err := mk.installBuiltins(); err != nil {
		t.Fatalf("installBuiltins: %v", err)
	}
	if n := mk.Names.find(".f.o"); n == nil || len(n.Rules) == 0 {
		t.Error("expected POSIX-2017 mode to install the .f.o Fortran rule")
	}
}
