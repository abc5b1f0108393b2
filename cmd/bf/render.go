package main

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/bfjit/compiler"
)

var (
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	locationStyle = lipgloss.NewStyle().
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	caretStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)
)

// renderError formats a fatal error.
func renderError(err error) string {
	return errorStyle.Render("error:") + " " + err.Error()
}

// renderParseError formats a parse error with the offending source line and
// a caret under the bracket.
func renderParseError(path string, source []byte, perr *compiler.ParseError) string {
	var b strings.Builder

	loc := fmt.Sprintf("%s:%d:%d:", path, perr.Pos.Line, perr.Pos.Column)
	b.WriteString(locationStyle.Render(loc) + " " + errorStyle.Render("error:") + " " + perr.Msg + "\n")

	line, caret := sourceLine(source, perr.Pos)
	gutter := fmt.Sprintf("%4d | ", perr.Pos.Line)
	b.WriteString(mutedStyle.Render(gutter) + line + "\n")
	b.WriteString(strings.Repeat(" ", len(gutter)+caret) + caretStyle.Render("^"))

	return b.String()
}

// sourceLine returns the line containing pos with tabs expanded, and the
// display column of pos within it.
func sourceLine(source []byte, pos compiler.Position) (string, int) {
	start := pos.Offset - (pos.Column - 1)
	end := bytes.IndexByte(source[start:], '\n')
	if end < 0 {
		end = len(source) - start
	}
	line := string(source[start : start+end])

	caret := 0
	for _, r := range string(source[start:pos.Offset]) {
		if r == '\t' {
			caret += tabWidth
		} else {
			caret++
		}
	}
	return strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth)), caret
}

const tabWidth = 4
