package pdpmake

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMakeSimpleBuild(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	if err := os.WriteFile("b", []byte("present\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mk := newTestMaker()
	src := "a: b\n\ttouch a\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	if err := mk.Make("a", 0); err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a")); err != nil {
		t.Errorf("expected 'a' to be created: %v", err)
	}
}

func TestMakeUpToDateSkipsCommands(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	if err := os.WriteFile("a", []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes("a", future, future); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("b", []byte("present\n"), 0644); err != nil {
		t.Fatal(err)
	}

	mk := newTestMaker()
	src := "a: b\n\ttouch marker\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	if err := mk.Make("a", 0); err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err == nil {
		t.Error("expected no commands to run when target is newer than prerequisite")
	}
}

func TestMakeRebuildsWhenMtimesAreEqual(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	same := time.Now().Truncate(time.Second)
	if err := os.WriteFile("b", []byte("present\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes("b", same, same); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile("a", []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes("a", same, same); err != nil {
		t.Fatal(err)
	}

	mk := newTestMaker()
	src := "a: b\n\ttouch marker\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	if err := mk.Make("a", 0); err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Error("expected target with mtime equal to its prerequisite's to be rebuilt")
	}
}

func TestMakeCircularDependencyIsFatal(t *testing.T) {
	mk := newTestMaker()
	src := "a: b\n\techo a\nb: a\n\techo b\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	if err := mk.Make("a", 0); err == nil {
		t.Error("expected circular dependency to be fatal")
	}
}

func TestMakePhonyAlwaysRuns(t *testing.T) {
	dir := t.TempDir()
	cwd, _ := os.Getwd()
	defer os.Chdir(cwd)
	os.Chdir(dir)

	mk := newTestMaker()
	src := ".PHONY: clean\nclean:\n\ttouch ran\n"
	if err := mk.parseBytes("test.mk", []byte(src)); err != nil {
		t.Fatalf("parseBytes: %v", err)
	}
	if err := mk.Make("clean", 0); err != nil {
		t.Fatalf("Make: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ran")); err != nil {
		t.Errorf("expected phony target's commands to run: %v", err)
	}
}
