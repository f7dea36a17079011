// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the HopRoute CLI.
//
// A Printer renders either rich (lipgloss-styled) or plain text. Plain
// output is stable and line-oriented so it can be piped and diffed.
package ux

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HopRoute color palette: teals for structure, amber and red for attention.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7")
	ColorTealPrimary = lipgloss.Color("#20B9B4")
	ColorTealDeep    = lipgloss.Color("#16858E")
	ColorSlate       = lipgloss.Color("#2C4A54")

	ColorSuccess = lipgloss.Color("#2CD7C7")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
	Box       lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorTealPrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorTealBright).Bold(true),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealDeep).
		Padding(0, 1),
}

// Icon is a status marker.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling.
func (i Icon) Render() string {
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	default:
		return Styles.Subtitle.Render(string(i))
	}
}

// plainPrefix is used in place of icons in plain mode.
var plainPrefix = map[Icon]string{
	IconSuccess: "OK:",
	IconWarning: "WARN:",
	IconError:   "ERROR:",
	IconArrow:   "->",
	IconBullet:  "-",
}

// Printer writes styled or plain output to a writer.
//
// Thread Safety: Not safe for concurrent use.
type Printer struct {
	w    io.Writer
	mode Mode
}

// NewPrinter creates a printer for w. ModeAuto is resolved against w.
func NewPrinter(w io.Writer, mode Mode) *Printer {
	return &Printer{w: w, mode: mode.Resolve(w)}
}

// Mode returns the resolved mode.
func (p *Printer) Mode() Mode {
	return p.mode
}

// Rich reports whether styling is enabled.
func (p *Printer) Rich() bool {
	return p.mode == ModeRich
}

// Style renders text with s in rich mode and returns it unchanged otherwise.
func (p *Printer) Style(s lipgloss.Style, text string) string {
	if !p.Rich() {
		return text
	}
	return s.Render(text)
}

// Title prints a heading. Plain mode prints "== text ==".
func (p *Printer) Title(text string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "== %s ==\n", text)
		return
	}
	fmt.Fprintln(p.w, Styles.Title.Render(text))
}

// Line prints text as is.
func (p *Printer) Line(text string) {
	fmt.Fprintln(p.w, text)
}

// Status prints text behind an icon.
func (p *Printer) Status(icon Icon, text string) {
	if !p.Rich() {
		fmt.Fprintf(p.w, "%s %s\n", plainPrefix[icon], text)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", icon.Render(), text)
}

// Success prints a success line.
func (p *Printer) Success(text string) { p.Status(IconSuccess, text) }

// Warning prints a warning line.
func (p *Printer) Warning(text string) { p.Status(IconWarning, text) }

// Error prints an error line.
func (p *Printer) Error(text string) { p.Status(IconError, text) }

// KeyValue prints "key: value" with the key muted.
func (p *Printer) KeyValue(key, value string) {
	fmt.Fprintf(p.w, "%s %s\n", p.Style(Styles.Muted, key+":"), value)
}

// Chain prints items joined by arrows, e.g. "A → B → C".
func (p *Printer) Chain(items []string) {
	if !p.Rich() {
		fmt.Fprintln(p.w, strings.Join(items, " -> "))
		return
	}
	styled := make([]string, len(items))
	for i, item := range items {
		styled[i] = Styles.Highlight.Render(item)
	}
	fmt.Fprintln(p.w, strings.Join(styled, " "+IconArrow.Render()+" "))
}

// Box prints a titled block. Plain mode prints the title and the body
// without a border.
func (p *Printer) Box(title string, lines []string) {
	body := strings.Join(lines, "\n")
	if !p.Rich() {
		fmt.Fprintf(p.w, "%s\n%s\n", title, body)
		return
	}
	fmt.Fprintln(p.w, Styles.Box.Render(Styles.Title.Render(title)+"\n"+body))
}
