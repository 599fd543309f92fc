package main

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/pulseflow/pulseflow/internal/ui"
	"github.com/spf13/cobra"
)

var (
	// Flag type annotations in usage lines, e.g. "--server string".
	reFlagType = regexp.MustCompile(`(--?[\w-]+\s+)(string|int|float64|duration|stringSlice)\b`)

	// Default annotations, e.g. (default "http://localhost:8080").
	reFlagDefault = regexp.MustCompile(`\(default [^)]*\)`)
)

// colorizedHelpFunc wraps Cobra's usage output with ANSI styling. When
// styling is off the default renderer is used untouched.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		if !ui.Enabled() {
			cmd.SetOut(out)
			_ = cmd.Usage()
			return
		}

		var buf bytes.Buffer
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(out)

		for _, line := range strings.SplitAfter(buf.String(), "\n") {
			fmt.Fprint(out, styleHelpLine(line))
		}
	}
}

// styleHelpLine styles a single line of Cobra usage text by what it looks
// like: a section header, a command listing, or a flag line. Anything else
// passes through unchanged.
func styleHelpLine(line string) string {
	text := strings.TrimRight(line, "\n")
	eol := line[len(text):]

	switch {
	case isHelpHeader(text):
		return ui.Accent(text) + eol

	case strings.HasPrefix(text, "  ") && !strings.Contains(text, "--"):
		// Command listing: "  create      Create an automation".
		name := text[2:]
		if cut := strings.Index(name, "  "); cut > 0 {
			return "  " + ui.Command(name[:cut]) + name[cut:] + eol
		}
		return line

	case strings.Contains(text, "--"):
		text = reFlagType.ReplaceAllString(text, "$1"+ui.Muted("$2"))
		text = reFlagDefault.ReplaceAllStringFunc(text, ui.Muted)
		return text + eol
	}
	return line
}

// isHelpHeader matches unindented section headers like "Runs:" or "Flags:",
// leaving "Usage:" unstyled.
func isHelpHeader(text string) bool {
	if text == "" || text == "Usage:" {
		return false
	}
	if text[0] < 'A' || text[0] > 'Z' {
		return false
	}
	return strings.HasSuffix(text, ":")
}
