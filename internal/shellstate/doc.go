// Package shellstate parses a dump of bash state into a Snapshot.
//
// The input is the concatenated output of
//
//	declare -p; declare -f; alias
//
// taken from a live shell. Every recognised variable, function and alias is
// stored as the exact statement that recreates it when sourced again from
// inside a function, which is why variable declarations are rewritten with
// an explicit -g flag.
//
// # Line classification
//
// The parser is a small state machine. In its default state each line is
// matched against full-line patterns: attribute-only declarations, scalar
// and array declarations, function headers, and alias definitions. Scalar
// and array values and function bodies may span several lines; the parser
// then buffers lines verbatim until the unescaped terminator (", ) or a
// lone }) is seen.
//
// Lines that match nothing are reported as Diagnostics and are otherwise
// ignored. A declaration that is still open at end of input is dropped.
//
// # Special names
//
// The volatile variables _ and OLDPWD are never recorded. SHELLOPTS and
// BASHOPTS are kept as raw colon-separated option lists in Snapshot.Options
// so that they can be compared option by option.
package shellstate
