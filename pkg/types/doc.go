// Package types defines the passive data model shared by every phazr
// component: phases, operations, versions and environments as produced by
// the configuration loader, and the results the engine hands back.
//
// Model values are read-only once a run starts. Result values are created
// once per run and never mutated after they are returned.
package types
