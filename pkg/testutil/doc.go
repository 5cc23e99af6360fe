// Package testutil holds filesystem and process helpers shared by tests:
// files written under t.TempDir, fake executables standing in for external
// tools, and an isolated XDG environment.
package testutil
