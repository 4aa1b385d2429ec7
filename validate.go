package pdpmake

import "strings"

// isPname implements POSIX 2017's ispname: letters, digits, '.', '_'
// (spec §4.4).
func isPname(c byte) bool {
	return c == '.' || c == '_' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// isFname implements POSIX 2024's isfname: ispname plus '-', and (for
// targets only) '/'.
func isFname(c byte, allowSlash bool) bool {
	if isPname(c) || c == '-' {
		return true
	}
	return allowSlash && c == '/'
}

// isNonPosixChar accepts anything except '=', control bytes, and
// whitespace (spec §4.4, non-POSIX mode).
func isNonPosixChar(c byte) bool {
	if c == '=' || c <= ' ' || c == 0x7f {
		return false
	}
	return true
}

func validChars(pragma Pragma, s string, allowSlash bool) bool {
	if len(s) == 0 {
		return false
	}
	switch {
	case pragma.Level == NonPosix:
		for i := 0; i < len(s); i++ {
			if !isNonPosixChar(s[i]) {
				return false
			}
		}
		return true
	case pragma.Level == Posix2024 || pragma.has(PragmaMacroName) || pragma.has(PragmaTargetName):
		for i := 0; i < len(s); i++ {
			if !isFname(s[i], allowSlash) {
				return false
			}
		}
		return true
	default: // Posix2017
		for i := 0; i < len(s); i++ {
			if !isPname(s[i]) {
				return false
			}
		}
		return true
	}
}

// isValidMacroName validates a macro name per spec §4.4. Archive
// expressions never appear here (macros aren't archive members).
func isValidMacroName(pragma Pragma, name string) bool {
	if pragma.Level == NonPosix {
		return validChars(pragma, name, true)
	}
	relaxed := pragma.has(PragmaMacroName)
	p := pragma
	if relaxed {
		p.Level = Posix2024
	}
	return validChars(p, name, false)
}

// isValidTargetName validates a target/prerequisite name. Archive
// expressions lib(member) validate both parts independently.
func isValidTargetName(pragma Pragma, name string) bool {
	if lib, member, ok := splitArchive(name); ok {
		return isValidTargetName(pragma, lib) && isValidTargetName(pragma, member)
	}
	if pragma.Level == NonPosix {
		return validChars(pragma, name, true)
	}
	relaxed := pragma.has(PragmaTargetName)
	p := pragma
	if relaxed {
		p.Level = Posix2024
	}
	return validChars(p, name, true)
}

// splitArchive recognizes a prerequisite of the form "lib(member)".
func splitArchive(name string) (lib, member string, ok bool) {
	if !strings.HasSuffix(name, ")") {
		return "", "", false
	}
	i := strings.IndexByte(name, '(')
	if i < 0 || i == 0 {
		return "", "", false
	}
	return name[:i], name[i+1 : len(name)-1], true
}
