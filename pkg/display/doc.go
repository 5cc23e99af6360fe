// Package display renders phazr's terminal output: run and phase
// summaries, the phase table, the version list and prerequisite results.
//
// Rendering functions return strings so commands decide where output goes.
// Colour is enabled only when the writer is a terminal and NO_COLOR is unset;
// otherwise every style degrades to plain text.
package display
