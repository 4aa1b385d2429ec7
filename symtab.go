package pdpmake

// internHash implements the bucket hash from spec §4.1
// (h' = h XOR ((h<<5) + (h>>2) + c)). The storage underneath is a plain
// Go map (see DESIGN.md "Intern tables" for why the fixed 199-bucket array
// from the original C isn't reproduced) — this function survives only to
// report bucket-style statistics under -d (see bucketLoad), matching the
// budget kati's own `symtab.go` would have spent on a hash table.
func internHash(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		c := uint32(s[i])
		h ^= (h << 5) + (h >> 2) + c
	}
	return h
}

const internBuckets = 199

// nameTable interns Name objects: find(name) returns an existing entry or
// nil; intern(name) returns the existing entry or creates one.
type nameTable struct {
	m map[string]*Name
}

func newNameTable() *nameTable {
	return &nameTable{m: make(map[string]*Name, internBuckets)}
}

func (t *nameTable) find(name string) *Name {
	return t.m[name]
}

// intern returns the existing or newly created Name. It does not validate
// name; callers that need validation apply isValidTargetName (validate.go)
// first.
func (t *nameTable) intern(name string) *Name {
	if n, ok := t.m[name]; ok {
		return n
	}
	n := &Name{Name: name}
	t.m[name] = n
	return n
}

func (t *nameTable) all() []*Name {
	out := make([]*Name, 0, len(t.m))
	for _, n := range t.m {
		out = append(out, n)
	}
	return out
}

// bucketLoad reports how many of the internBuckets would be occupied and
// the longest chain, had interned names gone into the original's fixed
// hash table instead of a Go map. Used by -p/-d reporting (database.go)
// so internHash has a real call site rather than existing only on paper.
func (t *nameTable) bucketLoad() (used, maxChain int) {
	counts := make(map[uint32]int)
	for name := range t.m {
		counts[internHash(name)%internBuckets]++
	}
	for _, c := range counts {
		if c > maxChain {
			maxChain = c
		}
	}
	return len(counts), maxChain
}
