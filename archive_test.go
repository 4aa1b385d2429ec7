package pdpmake

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// buildArchive constructs a minimal System V ar archive containing one
// member with the given name, mtime (seconds) and content, following the
// fixed 60-byte header layout documented in archive.go.
func buildArchive(name string, mtime int64, content []byte) []byte {
	var out []byte
	out = append(out, []byte(arMagic)...)

	header := make([]byte, arHeaderSize)
	copy(header[0:16], padField(name+"/", 16))
	copy(header[16:28], padField(fmt.Sprintf("%d", mtime), 12))
	copy(header[28:34], padField("0", 6))
	copy(header[34:40], padField("0", 6))
	copy(header[40:48], padField("100644", 8))
	copy(header[48:58], padField(fmt.Sprintf("%d", len(content)), 10))
	header[58] = '`'
	header[59] = '\n'

	out = append(out, header...)
	out = append(out, content...)
	if len(content)%2 != 0 {
		out = append(out, '\n')
	}
	return out
}

func padField(s string, width int) []byte {
	b := make([]byte, width)
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	return b
}

func TestArchiveMemberMtime(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "lib.a")
	data := buildArchive("one.o", 1700000000, []byte("object-bytes"))
	if err := os.WriteFile(archivePath, data, 0644); err != nil {
		t.Fatal(err)
	}

	mt, ok := archiveMemberMtime(archivePath, "one.o")
	if !ok {
		t.Fatal("expected to find member one.o")
	}
	if mt.Sec != 1700000000 {
		t.Errorf("got mtime %d, want 1700000000", mt.Sec)
	}

	if _, ok := archiveMemberMtime(archivePath, "missing.o"); ok {
		t.Error("expected missing member to report not found")
	}
}

func TestResolveArName(t *testing.T) {
	if got := resolveArName("foo.o/", ""); got != "foo.o" {
		t.Errorf("got %q, want foo.o", got)
	}
	longNames := "averylongname.o/\nanother.o/\n"
	if got := resolveArName("/0", longNames); got != "averylongname.o" {
		t.Errorf("got %q, want averylongname.o", got)
	}
}
