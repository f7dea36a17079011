// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Mode controls how richly output is rendered.
type Mode string

const (
	// ModeAuto picks ModeRich for terminals and ModePlain otherwise.
	ModeAuto Mode = "auto"

	// ModeRich enables colors, icons, and boxes.
	ModeRich Mode = "rich"

	// ModePlain prints unstyled text suitable for scripting and diffs.
	ModePlain Mode = "plain"
)

// ParseMode converts a string to Mode. Unknown values mean ModeAuto.
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rich", "color", "colour":
		return ModeRich
	case "plain", "machine", "none":
		return ModePlain
	default:
		return ModeAuto
	}
}

// Resolve turns ModeAuto into a concrete mode for w.
//
// HOPROUTE_OUTPUT overrides auto-detection, and NO_COLOR forces plain
// output. Anything that is not an *os.File attached to a terminal is plain.
func (m Mode) Resolve(w io.Writer) Mode {
	if m == ModeRich || m == ModePlain {
		return m
	}
	if env := ParseMode(os.Getenv("HOPROUTE_OUTPUT")); env != ModeAuto {
		return env
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return ModePlain
	}
	if isTerminal(w) {
		return ModeRich
	}
	return ModePlain
}

// isTerminal checks whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
