// Package orchestrator drives a run: it validates the plan, walks the
// dependency layers in order, runs the phases of each layer concurrently and
// decides which dependents may proceed.
//
// An Orchestrator is built per invocation. It remembers which phases it has
// completed so that single-phase runs can check their prerequisites.
package orchestrator
