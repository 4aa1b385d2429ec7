package pdpmake

import (
	"os"
	"strconv"
	"strings"
)

// arMagic is the fixed 8-byte signature at the start of every System V /
// GNU ar archive (spec §6, "archive format").
const arMagic = "!<arch>\n"

const arHeaderSize = 60

// arHeader is the fixed-width 60-byte per-member header, field offsets
// and widths taken directly from pdpmake.c's arsearch/artime.
type arHeader struct {
	name  string // offset 0, 16 bytes
	mtime string // offset 16, 12 bytes
	size  string // offset 48, 10 bytes
}

func parseArHeader(b []byte) arHeader {
	return arHeader{
		name:  strings.TrimRight(string(b[0:16]), " "),
		mtime: strings.TrimRight(string(b[16:28]), " "),
		size:  strings.TrimRight(string(b[48:58]), " "),
	}
}

// archiveMemberMtime implements pdpmake.c's arsearch/artime: it scans the
// archive's member headers looking for member, resolving GNU's "//"
// extended-name table and "/nnn" indirection for names longer than 16
// bytes, and returns the member's stored modification time.
func archiveMemberMtime(archivePath, member string) (Mtime, bool) {
	data, err := os.ReadFile(archivePath)
	if err != nil {
		return Mtime{}, false
	}
	if len(data) < len(arMagic) || string(data[:len(arMagic)]) != arMagic {
		return Mtime{}, false
	}
	pos := len(arMagic)
	var longNames string

	for pos+arHeaderSize <= len(data) {
		hdr := parseArHeader(data[pos : pos+arHeaderSize])
		size, err := strconv.ParseInt(hdr.size, 10, 64)
		if err != nil {
			return Mtime{}, false
		}
		dataStart := pos + arHeaderSize
		dataEnd := dataStart + int(size)
		if dataEnd > len(data) {
			return Mtime{}, false
		}

		name := resolveArName(hdr.name, longNames)

		switch {
		case hdr.name == "//":
			longNames = string(data[dataStart:dataEnd])
		case hdr.name == "/" || name == "":
			// Symbol table or unnamed entry; skip.
		case name == member:
			sec, err := strconv.ParseInt(hdr.mtime, 10, 64)
			if err != nil {
				return Mtime{}, false
			}
			return Mtime{Sec: sec}, true
		}

		// Members are padded to an even byte boundary.
		next := dataEnd
		if size%2 != 0 {
			next++
		}
		pos = next
	}
	return Mtime{}, false
}

// resolveArName strips the GNU "name/" trailing slash form and resolves
// a "/nnn" indirect reference into the extended-name table.
func resolveArName(raw, longNames string) string {
	if strings.HasPrefix(raw, "/") && raw != "/" && raw != "//" {
		offStr := raw[1:]
		off, err := strconv.Atoi(offStr)
		if err != nil || off < 0 || off >= len(longNames) {
			return ""
		}
		rest := longNames[off:]
		if end := strings.IndexByte(rest, '/'); end >= 0 {
			rest = rest[:end]
		} else if end := strings.IndexByte(rest, '\n'); end >= 0 {
			rest = rest[:end]
		}
		return rest
	}
	return strings.TrimSuffix(raw, "/")
}
