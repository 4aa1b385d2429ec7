package pdpmake

import "os"

// statMtime is the modtime oracle for an ordinary file: stat it and
// convert to Mtime, reporting ok=false for ENOENT or any other stat
// error (spec §4.6).
func statMtime(path string) (Mtime, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return Mtime{}, false
	}
	t := info.ModTime()
	return Mtime{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}, true
}

// refreshMtime looks up n's current modification time, resolving
// "lib(member)" archive-member prerequisites through archive.go instead
// of stat'ing the expression literally (spec §4.6/§6). It updates n in
// place and also reports the fresh value.
func (mk *Maker) refreshMtime(n *Name) Mtime {
	if lib, member, ok := splitArchive(n.Name); ok {
		if mt, found := archiveMemberMtime(lib, member); found {
			n.Mtime = mt
			n.mtimeKnown = true
			return mt
		}
		n.Mtime = Mtime{}
		n.mtimeKnown = true
		return n.Mtime
	}
	if mt, ok := statMtime(n.Name); ok {
		n.Mtime = mt
		n.mtimeKnown = true
		return mt
	}
	n.Mtime = Mtime{}
	n.mtimeKnown = true
	return n.Mtime
}

// mtime returns n's modification time, stat'ing lazily the first time
// it's asked for a phony/non-existent target returns the zero Mtime
// (spec §4.6: "a PHONY target's nonexistence always counts as out of
// date").
func (mk *Maker) mtime(n *Name) Mtime {
	if n.hasFlag(FlagPhony) {
		return Mtime{}
	}
	if !n.mtimeKnown {
		return mk.refreshMtime(n)
	}
	return n.Mtime
}
