// Package dag builds the phase dependency graph and computes its layering.
//
// Phases are stored in a flat slice in configuration order with a
// name-to-index lookup; edges are index sets. Layers are produced by Kahn's
// algorithm: every round removes all nodes whose dependencies have already
// been removed, and each round becomes one layer. Phases inside a layer keep
// their configuration order.
package dag
