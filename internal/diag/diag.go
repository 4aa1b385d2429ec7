// Package diag provides the trace/statistics side of pdpmake's
// diagnostics: verbose logging gated behind -d/PDPMAKE_DEBUG, routed
// through glog the way kati's golang/kati subtree logs AST evaluation
// (ast.go's glog.Infof calls). User-facing warnings and fatal errors are
// NOT produced here — glog always writes to its own stderr-headered
// format — they are formatted by (*pdpmake.Maker).fatalf/warnf instead.
package diag

import "github.com/golang/glog"

// Enabled reports whether verbose tracing is active. glog's own -v flag
// (or stderrthreshold) gates actual output; this wraps V(1) to give
// pdpmake a single call site to flip, rather than scattering glog.V(1)
// checks across the evaluator.
func Enabled() bool {
	return bool(glog.V(1))
}

// Trace logs one verbose evaluation step (a rule firing, an inference
// match), mirroring ast.go's glog.Infof granularity.
func Trace(format string, args ...interface{}) {
	glog.V(1).Infof(format, args...)
}

// Stat logs a single named counter (the name, macro and bucket counts
// PrintDatabase reports under -p), the verbose-statistics role kati's stats.go
// played for its much larger function repertoire; pdpmake's surface is
// small enough that a handful of named counters cover it.
func Stat(name string, value int64) {
	glog.V(1).Infof("stat: %s=%d", name, value)
}

// Flush flushes any buffered glog output; call before process exit so
// -d output isn't lost on a fatal error path.
func Flush() {
	glog.Flush()
}
