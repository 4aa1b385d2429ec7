package pdpmake

import (
	"strings"
	"testing"
)

func TestPrintDatabaseListsMacrosAndRules(t *testing.T) {
	mk := newTestMaker()
	src := "CC = cc\na: b\n\techo hi\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}

	var buf strings.Builder
	mk.PrintDatabase(&buf)
	out := buf.String()

	if !strings.Contains(out, "CC = cc") {
		t.Errorf("expected macro line in output, got:\n%s", out)
	}
	if !strings.Contains(out, "a: b") {
		t.Errorf("expected rule line in output, got:\n%s", out)
	}
	if !strings.Contains(out, "\techo hi\n") {
		t.Errorf("expected command line in output, got:\n%s", out)
	}
	if !strings.Contains(out, "# default target") {
		t.Errorf("expected default-target marker in output, got:\n%s", out)
	}
}
