// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles renders human-facing stdout. When stdout is not a terminal
// every method returns its input unchanged, so piped output and
// scripts see plain text.
type Styles struct {
	enabled bool
	header  lipgloss.Style
	failure lipgloss.Style
	faint   lipgloss.Style
}

// NewStyles returns styles for os.Stdout.
func NewStyles() Styles {
	return newStyles(term.IsTerminal(int(os.Stdout.Fd())))
}

func newStyles(enabled bool) Styles {
	return Styles{
		enabled: enabled,
		header:  lipgloss.NewStyle().Bold(true),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		faint:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// Header renders a table header line.
func (s Styles) Header(text string) string { return s.render(s.header, text) }

// Failure renders a failure marker.
func (s Styles) Failure(text string) string { return s.render(s.failure, text) }

// Faint renders secondary information such as totals.
func (s Styles) Faint(text string) string { return s.render(s.faint, text) }

func (s Styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}
