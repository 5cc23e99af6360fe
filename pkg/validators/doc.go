// Package validators checks the prerequisites of a run before anything
// executes: required tools, cluster access, filesystem paths and network
// endpoints. Validators report; they never abort a run on their own.
package validators
