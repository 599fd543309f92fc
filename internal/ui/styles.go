// Package ui renders the pf CLI's terminal styling: an Ayu-ish ANSI256
// palette plus the environment and TTY checks that decide whether styling is
// active at all.
package ui

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/term"
)

// Palette. Statuses map onto the semantic colors below.
const (
	colorAccent  = 74  // blue, section headers
	colorCmd     = 250 // light gray, command names
	colorMuted   = 245 // medium gray, secondary text
	colorSuccess = 114 // green
	colorError   = 167 // red
	colorWarn    = 179 // amber, in-flight statuses
)

var (
	detectOnce sync.Once
	detected   bool
	disabled   bool
)

// Enabled reports whether styled output is active. The environment and TTY
// are inspected once per process; Disable overrides the result.
func Enabled() bool {
	detectOnce.Do(func() {
		detected = detectColor()
	})
	return detected && !disabled
}

// Disable turns styling off for the rest of the process, regardless of the
// environment. Used by the --no-color flag.
func Disable() {
	disabled = true
}

// detectColor applies the conventional environment knobs in precedence
// order, then falls back to TTY detection on stdout.
func detectColor() bool {
	switch {
	case os.Getenv("CLICOLOR_FORCE") == "1":
		return true
	case os.Getenv("NO_COLOR") != "": // https://no-color.org
		return false
	case os.Getenv("CLICOLOR") == "0":
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func paint(code int, s string) string {
	if !Enabled() {
		return s
	}
	return fmt.Sprintf("\x1b[38;5;%dm%s\x1b[0m", code, s)
}

// Accent styles s as a section header (blue).
func Accent(s string) string { return paint(colorAccent, s) }

// Muted styles s as secondary text (gray).
func Muted(s string) string { return paint(colorMuted, s) }

// Command styles s as a command name (light gray).
func Command(s string) string { return paint(colorCmd, s) }

// Status colors a node execution or run status string: in-flight states
// amber, terminal success green, terminal failure red, anything else muted.
func Status(status string) string {
	switch status {
	case "loading", "active":
		return paint(colorWarn, status)
	case "success", "succeeded":
		return paint(colorSuccess, status)
	case "error", "failed":
		return paint(colorError, status)
	}
	return Muted(status)
}
