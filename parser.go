package pdpmake

import (
	"os"
	"strings"
)

// maxIncludeDepth bounds nested include files (spec §4.3).
const maxIncludeDepth = 16

// parser drives the logical-line reader and line classifier described in
// spec §4.3, grounded on kati's parser.go reading loop but rebuilt around
// pdpmake.c's readline/process_line/process_command split (see
// DESIGN.md "Parser").
type parser struct {
	mk       *Maker
	filename string
	lines    []string
	idx      int
	conds    []condState
}

// splitPhysicalLines breaks data into physical lines with line terminators
// stripped, normalizing CRLF to bare content (spec §9: "strip CR before
// LF").
func splitPhysicalLines(data []byte) []string {
	s := string(data)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	if strings.HasSuffix(s, "\n") {
		s = s[:len(s)-1]
	}
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ParseFile reads filename and parses it as a makefile, recursing for any
// include directives it contains.
func (mk *Maker) ParseFile(filename string) error {
	var data []byte
	var err error
	if filename == "-" {
		data, err = readAllStdin()
	} else {
		data, err = os.ReadFile(filename)
	}
	if err != nil {
		return err
	}
	return mk.parseBytes(filename, data)
}

func readAllStdin() ([]byte, error) {
	buf := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	for {
		n, err := os.Stdin.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			if n == 0 {
				break
			}
			break
		}
	}
	return buf, nil
}

func (mk *Maker) parseBytes(filename string, data []byte) error {
	if mk.includeDepth >= maxIncludeDepth {
		return mk.fatalf("too many includes")
	}
	mk.includeDepth++
	defer func() { mk.includeDepth-- }()

	savedFile, savedLine := mk.Makefile, mk.Lineno
	mk.Makefile = filename
	defer func() { mk.Makefile, mk.Lineno = savedFile, savedLine }()

	p := &parser{mk: mk, filename: filename, lines: splitPhysicalLines(data)}
	return p.run()
}

func (p *parser) run() error {
	for p.idx < len(p.lines) {
		line := p.lines[p.idx]
		p.mk.Lineno = p.idx + 1
		if strings.TrimSpace(line) == "" {
			p.idx++
			continue
		}
		if line[0] == '\t' {
			// A command line reached without an owning rule.
			p.mk.warnf("commands ignored (no target)")
			p.idx++
			continue
		}

		joined, n := joinPhysical(p.lines, p.idx)
		startLine := p.idx + 1
		p.idx += n

		commentStripped := p.mk.stripComment(joined)
		collapsed := collapseOrdinaryContinuations(commentStripped)
		trimmed := strings.TrimSpace(collapsed)
		if trimmed == "" {
			continue
		}

		matched, err := p.handleConditional(trimmed)
		if err != nil {
			return err
		}
		if matched {
			continue
		}
		if p.skipping() {
			continue
		}

		p.mk.Lineno = startLine
		if err := p.classify(collapsed, trimmed); err != nil {
			return err
		}
	}
	if len(p.conds) > 0 {
		return p.mk.fatalf("missing endif")
	}
	return nil
}

// classify implements spec §4.3's line-classification order: include,
// macro assignment, target rule.
func (p *parser) classify(rawJoined, trimmed string) error {
	if isIncludeLine(trimmed) {
		return p.handleInclude(trimmed)
	}
	if eq, op := findAssignOp(trimmed); eq >= 0 {
		return p.handleAssignment(trimmed, eq, op)
	}
	return p.handleTargetRule(rawJoined)
}

func isIncludeLine(trimmed string) bool {
	rest := trimmed
	if strings.HasPrefix(rest, "-") {
		rest = rest[1:]
	}
	if !strings.HasPrefix(rest, "include") {
		return false
	}
	rest = rest[len("include"):]
	return rest == "" || rest[0] == ' ' || rest[0] == '\t'
}

func (p *parser) handleInclude(trimmed string) error {
	suppress := strings.HasPrefix(trimmed, "-")
	rest := trimmed
	if suppress {
		rest = rest[1:]
	}
	rest = strings.TrimSpace(rest[len("include"):])

	expanded, err := p.mk.Expand(rest, false)
	if err != nil {
		return err
	}
	files := strings.Fields(expanded)
	if len(files) == 0 {
		if p.mk.Pragma.Level == Posix2024 {
			return p.mk.fatalf("include requires at least one filename")
		}
		return nil
	}
	if p.mk.Pragma.Level == Posix2017 && len(files) != 1 {
		return p.mk.fatalf("include requires exactly one filename")
	}
	for _, f := range files {
		if p.mk.Pragma.Level == Posix2024 {
			// Build the include target before reading it, so generated
			// makefiles are brought up to date first (spec §4.3).
			if err := p.mk.Make(f, 0); err != nil {
				if !suppress {
					p.mk.warnf("failed to build include file '%s': %v", f, err)
				}
			}
		}
		data, rerr := os.ReadFile(f)
		if rerr != nil {
			if suppress {
				continue
			}
			return p.mk.fatalf("cannot open include file '%s'", f)
		}
		if err := p.mk.parseBytes(f, data); err != nil {
			return err
		}
	}
	return nil
}

// findAssignOp finds the first '=' outside any macro reference and
// reports which assignment operator precedes it, per spec §4.3.
func findAssignOp(line string) (int, string) {
	eq := findByteOutsideRefs(line, '=')
	if eq < 0 {
		return -1, ""
	}
	switch {
	case eq >= 3 && line[eq-3:eq] == ":::":
		return eq - 3, ":::="
	case eq >= 2 && line[eq-2:eq] == "::":
		return eq - 2, "::="
	case eq >= 1 && line[eq-1] == ':':
		return eq - 1, ":="
	case eq >= 1 && line[eq-1] == '+':
		return eq - 1, "+="
	case eq >= 1 && line[eq-1] == '?':
		return eq - 1, "?="
	case eq >= 1 && line[eq-1] == '!':
		return eq - 1, "!="
	default:
		return eq, "="
	}
}

func (p *parser) handleAssignment(line string, opStart int, op string) error {
	lhs := strings.TrimSpace(line[:opStart])
	rhs := strings.TrimLeft(line[opStart+len(op):], " \t")

	name, err := p.mk.Expand(lhs, false)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if fields := strings.Fields(name); len(fields) != 1 {
		return p.mk.fatalf("invalid macro name '%s'", name)
	}

	level := LevelMakefile
	mk := p.mk

	switch op {
	case "=":
		return mk.Macros.Set(mk, name, rhs, level, SetOpts{Immediate: false})
	case ":=", "::=":
		val, err := mk.Expand(rhs, false)
		if err != nil {
			return err
		}
		return mk.Macros.Set(mk, name, val, level, SetOpts{Immediate: true})
	case ":::=":
		val, err := mk.Expand(rhs, true)
		if err != nil {
			return err
		}
		return mk.Macros.Set(mk, name, val, level, SetOpts{Immediate: false})
	case "+=":
		return mk.Macros.Append(mk, name, rhs, level)
	case "?=":
		if mk.Macros.Get(name) != nil {
			return nil
		}
		return mk.Macros.Set(mk, name, rhs, level, SetOpts{})
	case "!=":
		out, err := runShellCapture(mk, rhs)
		if err != nil {
			return err
		}
		return mk.Macros.Set(mk, name, out, level, SetOpts{})
	}
	return mk.fatalf("unknown assignment operator %q", op)
}

// joinPhysical concatenates raw physical lines starting at idx following
// backslash-newline continuation, re-inserting the newline at each join
// point (spec §4.3/§9). Returns the joined text and the number of
// physical lines consumed.
func joinPhysical(lines []string, idx int) (string, int) {
	var sb strings.Builder
	n := 0
	for {
		line := lines[idx+n]
		sb.WriteString(line)
		n++
		if trailingBackslashCount(line)%2 == 1 && idx+n < len(lines) {
			sb.WriteByte('\n')
			continue
		}
		break
	}
	return sb.String(), n
}

func trailingBackslashCount(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// stripComment removes a trailing '#' comment, per spec §4.3: in POSIX
// mode '#' always starts a comment; in non-POSIX mode a '#' inside a
// macro reference is not a comment, and a backslash-escaped '#' is kept
// literally (the backslash consumed).
func (mk *Maker) stripComment(line string) string {
	if mk.Pragma.Level != NonPosix {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			return line[:idx]
		}
		return line
	}
	var out strings.Builder
	i := 0
	for i < len(line) {
		if line[i] == '$' && i+1 < len(line) && (line[i+1] == '(' || line[i+1] == '{') {
			end, err := findRefEnd(line, i+1)
			if err != nil {
				out.WriteString(line[i:])
				return out.String()
			}
			out.WriteString(line[i : end+1])
			i = end + 1
			continue
		}
		if line[i] == '\\' && i+1 < len(line) && line[i+1] == '#' {
			out.WriteByte('#')
			i += 2
			continue
		}
		if line[i] == '#' {
			break
		}
		out.WriteByte(line[i])
		i++
	}
	return out.String()
}

// collapseOrdinaryContinuations replaces each "\<newline>" and the
// following line's leading whitespace with a single space (spec §4.3,
// non-command lines collapse unconditionally).
func collapseOrdinaryContinuations(s string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n' {
			i += 2
			for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
			out.WriteByte(' ')
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// insideMacroRefAt reports whether position pos of s falls strictly
// inside an open $(...) / ${...} reference, used by command-line
// continuation handling (spec §4.3's "per-character map computed by the
// macro-skipper").
func insideMacroRefAt(s string, pos int) bool {
	depth := 0
	i := 0
	for i < len(s) && i <= pos {
		if s[i] == '$' && i+1 < len(s) && (s[i+1] == '(' || s[i+1] == '{') {
			depth++
			i += 2
			continue
		}
		if depth > 0 && (s[i] == ')' || s[i] == '}') {
			depth--
		}
		i++
	}
	return depth > 0
}

// processCommandText implements process_command's escaped-newline
// handling for a command whose leading tab has already been stripped:
// outside any macro reference the backslash-newline is kept literally
// (and the following line's single leading tab is swallowed); inside a
// macro reference it collapses to a single space like an ordinary line.
// Under POSIX 2017 every escaped newline is kept literally.
func processCommandText(mk *Maker, s string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) && s[i+1] == '\n' {
			if mk.Pragma.Level == Posix2017 || !insideMacroRefAt(s, i) {
				out.WriteByte('\\')
				out.WriteByte('\n')
				i += 2
				if i < len(s) && s[i] == '\t' {
					i++
				}
				continue
			}
			i += 2
			for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
				i++
			}
			out.WriteByte(' ')
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}
