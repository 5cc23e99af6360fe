// Package shell is the process execution primitive shared by the script
// handler, the kubectl handlers and skip_if condition evaluation.
//
// Commands run under a context: cancelling it (run interrupt or per-attempt
// timeout) kills the whole process group, not only the shell.
package shell
