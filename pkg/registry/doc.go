// Package registry provides a generic, type-safe, concurrency-safe registry
// keyed by name. Registries are explicit values owned by whoever builds a
// run; there is no package-level instance.
package registry
