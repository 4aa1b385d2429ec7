package pdpmake

import "testing"

func TestTokenizeArchiveGroup(t *testing.T) {
	got := tokenize("a.out lib.a(one.o two.o) b.c")
	want := []string{"a.out", "lib.a(one.o two.o)", "b.c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExpandArchiveGroupSplitsMembers(t *testing.T) {
	got := expandArchiveGroup("lib.a(one.o two.o)")
	want := []string{"lib.a(one.o)", "lib.a(two.o)"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %q, want %q", got[i], want[i])
		}
	}
}

func TestFindRuleColonSingleVsDouble(t *testing.T) {
	if idx, double := findRuleColon("all: foo"); idx != 3 || double {
		t.Errorf("single colon: got idx=%d double=%v", idx, double)
	}
	if idx, double := findRuleColon("all:: foo"); idx != 3 || !double {
		t.Errorf("double colon: got idx=%d double=%v", idx, double)
	}
}

func TestAttachRuleNormalTarget(t *testing.T) {
	mk := newTestMaker()
	src := "prog: main.o util.o\n\tcc -o prog main.o util.o\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	n := mk.Names.find("prog")
	if n == nil {
		t.Fatal("expected target 'prog' to be interned")
	}
	if len(n.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(n.Rules))
	}
	if len(n.Rules[0].Prereqs) != 2 {
		t.Fatalf("expected 2 prerequisites, got %d", len(n.Rules[0].Prereqs))
	}
	if mk.FirstTarget != n {
		t.Errorf("expected FirstTarget to be 'prog'")
	}
}

func TestAttachRuleMixedColonIsFatal(t *testing.T) {
	mk := newTestMaker()
	src := "t: a\n\tcmd1\nt:: b\n\tcmd2\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err == nil {
		t.Error("expected fatal error mixing single and double colon rules for the same target")
	}
}

func TestPhonySpecialTarget(t *testing.T) {
	mk := newTestMaker()
	src := ".PHONY: clean\nclean:\n\trm -f *.o\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	n := mk.Names.find("clean")
	if n == nil || !n.hasFlag(FlagPhony) {
		t.Error("expected 'clean' to carry the PHONY flag")
	}
}

func TestSuffixesClearedByEmptyLine(t *testing.T) {
	mk := newTestMaker()
	src := ".SUFFIXES:\n.SUFFIXES: .x .y\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	if len(mk.suffixes) != 2 || mk.suffixes[0] != ".x" || mk.suffixes[1] != ".y" {
		t.Errorf("unexpected suffixes: %v", mk.suffixes)
	}
}

func TestInlineCommandAfterSemicolon(t *testing.T) {
	mk := newTestMaker()
	src := "a: b; echo hi\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	n := mk.Names.find("a")
	if n == nil || len(n.Rules) == 0 || len(n.Rules[0].Cmds) != 1 {
		t.Fatalf("expected one inline command")
	}
	if got := n.Rules[0].Cmds[0].Text; got != "echo hi" {
		t.Errorf("got %q", got)
	}
}
