// Package ui implements the interactive terminal browser using Bubbletea.
//
// The App owns no tree data of its own: every redraw asks the controller's
// cursor for a fresh listing, so totals keep growing on screen while the walk
// is still running.
package ui
