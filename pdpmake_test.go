package pdpmake

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// captureStdout runs fn with os.Stdout redirected to a pipe and returns
// everything written to it, grounded on run_test.go's approach of
// capturing a build's console output for golden comparison.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	saved := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = saved }()

	done := make(chan string)
	go func() {
		buf, _ := io.ReadAll(r)
		done <- string(buf)
	}()

	fn()

	w.Close()
	os.Stdout = saved
	return <-done
}

// assertGolden compares got against want, rendering a readable diff via
// diffmatchpatch on mismatch instead of a bare string inequality, the
// same role run_test.go's diffmatchpatch usage plays for Make-vs-Kati
// comparisons.
func assertGolden(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Errorf("output mismatch:\n%s", dmp.DiffPrettyText(diffs))
}

func TestScenarioSimpleBuild(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	if err := os.WriteFile("b", []byte("present\n"), 0644); err != nil {
		t.Fatal(err)
	}
	mkfile, err := os.ReadFile(filepath.Join(cwd, "testdata", "simple.mk"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("Makefile", mkfile, 0644); err != nil {
		t.Fatal(err)
	}

	mk := newTestMaker()
	if err := mk.ParseFile("Makefile"); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}

	out := captureStdout(t, func() {
		if err := mk.Make("a", 0); err != nil {
			t.Fatalf("Make: %v", err)
		}
	})
	assertGolden(t, out, "echo built\nbuilt\n")
}

func TestScenarioPatternMacroSubstitution(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	mkfile, err := os.ReadFile(filepath.Join(cwd, "testdata", "pattern_macro.mk"))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("Makefile", mkfile, 0644); err != nil {
		t.Fatal(err)
	}

	mk := newTestMaker()
	if err := mk.ParseFile("Makefile"); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	out := captureStdout(t, func() {
		if err := mk.Make("show", 0); err != nil {
			t.Fatalf("Make: %v", err)
		}
	})
	assertGolden(t, out, "echo foo.c bar.c baz.c\nfoo.c bar.c baz.c\n")
}

func TestScenarioUpToDateSecondRun(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	if err := os.WriteFile("b", []byte("present\n"), 0644); err != nil {
		t.Fatal(err)
	}
	src := "a: b\n\ttouch a\n"
	if err := os.WriteFile("Makefile", []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	mk := newTestMaker()
	if err := mk.ParseFile("Makefile"); err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if err := mk.Make("a", 0); err != nil {
		t.Fatalf("first Make: %v", err)
	}

	before := mk.firedCount
	if err := mk.Make("a", 0); err != nil {
		t.Fatalf("second Make: %v", err)
	}
	if mk.firedCount != before {
		t.Error("second run should not fire any commands when nothing changed")
	}
}
