// Package executor runs the work of a single phase.
//
// OperationExecutor runs one operation: dry-run interception, handler
// lookup, the skip_if check, then a retry loop in which every attempt is
// bounded by the operation timeout. GroupExecutor resolves a phase's groups
// against the selected version and runs them sequentially or concurrently,
// always running the operations of one group in order.
package executor
