// Package diag defines the diagnostics produced while expanding autoplugin
// directives.
//
// Three families of failure exist:
//
//   - UsageError: the user wrote something the generator cannot accept (wrong
//     item kind, generic arity mismatch, missing or ambiguous builder
//     parameter, duplicate plugin, malformed arguments). Always reported at
//     the most specific position available.
//   - EnvironmentError: the host could not resolve which file a directive
//     belongs to (virtual or //line-remapped positions). Lenient hosts turn
//     these into no-ops.
//   - Invariant violations: logic bugs in the generator itself. These panic.
//
// Errors are plain values that unwrap to package sentinels, so callers use
// errors.Is / errors.As. A Bag collects Diagnostics for reporting and a
// Printer renders them.
package diag
