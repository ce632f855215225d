// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/charmbracelet/lipgloss"

// Theme carries the color palette used by both the interactive
// browser and the markdown report renderer, so the two modes stay
// visually consistent.
type Theme struct {
	NormalText       lipgloss.Color
	FaintText        lipgloss.Color
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	DirColor         lipgloss.Color
	SymlinkColor     lipgloss.Color
	SelectedBg       lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal palette.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("250"),
	FaintText:        lipgloss.Color("244"),
	HeaderForeground: lipgloss.Color("39"),
	BorderColor:      lipgloss.Color("238"),
	DirColor:         lipgloss.Color("111"),
	SymlinkColor:     lipgloss.Color("180"),
	SelectedBg:       lipgloss.Color("236"),
}
