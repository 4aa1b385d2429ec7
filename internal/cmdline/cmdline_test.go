package cmdline

import "testing"

func TestParseShortFlags(t *testing.T) {
	opts, err := Parse([]string{"-k", "-s", "target"}, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !opts.KeepGoing || !opts.Silent {
		t.Errorf("expected -k -s set, got %+v", opts)
	}
	if len(opts.Targets) != 1 || opts.Targets[0] != "target" {
		t.Errorf("expected target captured, got %v", opts.Targets)
	}
}

func TestParseStackedFlags(t *testing.T) {
	opts, err := Parse([]string{"-ks"}, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !opts.KeepGoing || !opts.Silent {
		t.Errorf("expected stacked -ks to set both, got %+v", opts)
	}
}

func TestParseMacroArgs(t *testing.T) {
	opts, err := Parse([]string{"CC=clang", "CFLAGS:=-O2", "all"}, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(opts.Macros) != 2 {
		t.Fatalf("expected 2 macro args, got %d: %+v", len(opts.Macros), opts.Macros)
	}
	if opts.Macros[0].Name != "CC" || opts.Macros[0].Value != "clang" || opts.Macros[0].Immediate {
		t.Errorf("unexpected first macro arg: %+v", opts.Macros[0])
	}
	if opts.Macros[1].Name != "CFLAGS" || opts.Macros[1].Value != "-O2" || !opts.Macros[1].Immediate {
		t.Errorf("unexpected second macro arg: %+v", opts.Macros[1])
	}
	if len(opts.Targets) != 1 || opts.Targets[0] != "all" {
		t.Errorf("expected target 'all', got %v", opts.Targets)
	}
}

func TestParseDryRunAndDebugFlags(t *testing.T) {
	opts, err := Parse([]string{"-dn", "target"}, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !opts.Debug || !opts.DryRun {
		t.Errorf("expected stacked -dn to set both Debug and DryRun, got %+v", opts)
	}
}

func TestParseFileAndDir(t *testing.T) {
	opts, err := Parse([]string{"-f", "other.mk", "-Csub"}, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(opts.Files) != 1 || opts.Files[0] != "other.mk" {
		t.Errorf("expected -f other.mk, got %v", opts.Files)
	}
	if len(opts.Dirs) != 1 || opts.Dirs[0] != "sub" {
		t.Errorf("expected -C sub, got %v", opts.Dirs)
	}
}

func TestMakeflagsRoundTrip(t *testing.T) {
	opts, err := Parse([]string{"-k", "-i", "CC=clang"}, "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	encoded := Encode(opts)

	reparsed, err := Parse(nil, encoded)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if reparsed.KeepGoing != opts.KeepGoing || reparsed.IgnoreErrors != opts.IgnoreErrors {
		t.Errorf("option bits lost in round trip: got %+v want %+v", reparsed, opts)
	}
	if len(reparsed.Macros) != 1 || reparsed.Macros[0].Name != "CC" || reparsed.Macros[0].Value != "clang" {
		t.Errorf("macro lost in round trip: %+v", reparsed.Macros)
	}
}

func TestDefaultMakefiles(t *testing.T) {
	if got := DefaultMakefiles(true); len(got) != 2 {
		t.Errorf("posix mode should exclude PDPmakefile, got %v", got)
	}
	got := DefaultMakefiles(false)
	if len(got) != 3 || got[0] != "PDPmakefile" {
		t.Errorf("non-posix mode should try PDPmakefile first, got %v", got)
	}
}
