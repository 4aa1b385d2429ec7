package pdpmake

import "errors"

// Sentinel errors used across the parser and expander (spec §7).
var (
	errEndOfInput         = errors.New("unexpected end of input")
	errCircularDependency = errors.New("circular dependency")
)
