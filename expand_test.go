package pdpmake

import "testing"

func newTestMaker() *Maker {
	return NewMaker(Config{NoBuiltinRules: true})
}

func TestExpandLiteral(t *testing.T) {
	mk := newTestMaker()
	for _, tc := range []struct{ in, want string }{
		{"foo", "foo"},
		{"$$", "$"},
		{"foo$$bar", "foo$bar"},
	} {
		got, err := mk.Expand(tc.in, false)
		if err != nil {
			t.Fatalf("Expand(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Expand(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExpandMacroReference(t *testing.T) {
	mk := newTestMaker()
	mk.Macros.Set(mk, "GREETING", "hello", LevelMakefile, SetOpts{})
	got, err := mk.Expand("$(GREETING) world", false)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if want := "hello world"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandIdempotentOnLiteral(t *testing.T) {
	mk := newTestMaker()
	s := "plain text with no dollar signs"
	once, err := mk.Expand(s, false)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := mk.Expand(once, false)
	if err != nil {
		t.Fatal(err)
	}
	if once != twice || once != s {
		t.Errorf("expand not idempotent: %q vs %q", once, twice)
	}
}

func TestExpandUnterminatedReference(t *testing.T) {
	mk := newTestMaker()
	if _, err := mk.Expand("$(FOO", false); err == nil {
		t.Error("expected error for unterminated reference")
	}
}

func TestExpandSelfRecursionGuard(t *testing.T) {
	mk := newTestMaker()
	mk.Macros.Set(mk, "LOOP", "$(LOOP)", LevelMakefile, SetOpts{})
	if _, err := mk.Expand("$(LOOP)", false); err == nil {
		t.Error("expected fatal error for self-recursive macro")
	}
}

func TestApplySubstSimple(t *testing.T) {
	mk := newTestMaker()
	mk.Macros.Set(mk, "SRCS", "a.c b.c c.c", LevelMakefile, SetOpts{})
	got, err := mk.Expand("$(SRCS:.c=.o)", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a.o b.o c.o"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestApplySubstPattern(t *testing.T) {
	mk := newTestMaker()
	mk.Pragma.Level = NonPosix
	mk.Macros.Set(mk, "SRCS", "a.c xb.c c.d", LevelMakefile, SetOpts{})
	got, err := mk.Expand("$(SRCS:%.c=pre-%.o)", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := "pre-a.o pre-xb.o c.d"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDirnameBasenameModifiers(t *testing.T) {
	mk := newTestMaker()
	mk.Pragma.Level = NonPosix
	mk.autoAllsrc = "a/b.c d.c"
	got, err := mk.Expand("$(+D)", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := "a ."; got != want {
		t.Errorf("dirname modifier: got %q, want %q", got, want)
	}
	got, err = mk.Expand("$(+F)", false)
	if err != nil {
		t.Fatal(err)
	}
	if want := "b.c d.c"; got != want {
		t.Errorf("basename modifier: got %q, want %q", got, want)
	}
}
