// Package handlers implements the operation handlers phazr dispatches to and
// the registry that maps an operation type tag to its handler.
//
// A handler executes exactly one attempt of one operation. Retries, timeouts,
// skip conditions and dry-run interception belong to the executor; a handler
// only honours the context it is given.
package handlers
