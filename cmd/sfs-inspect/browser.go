// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tappress/sabfs/sfs"
)

// browserKeyMap is the key binding set for the directory browser.
// Vim-style navigation alongside the arrow keys, matching the
// convention used throughout the wider TUI toolkit this borrows from.
type browserKeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Expand    key.Binding
	Collapse  key.Binding
	Filter    key.Binding
	ClearOrUp key.Binding
	Quit      key.Binding
}

var defaultBrowserKeys = browserKeyMap{
	Up:        key.NewBinding(key.WithKeys("k", "up")),
	Down:      key.NewBinding(key.WithKeys("j", "down")),
	Expand:    key.NewBinding(key.WithKeys("l", "right", "enter")),
	Collapse:  key.NewBinding(key.WithKeys("h", "left")),
	Filter:    key.NewBinding(key.WithKeys("/")),
	ClearOrUp: key.NewBinding(key.WithKeys("esc")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c")),
}

// browserModel is the bubbletea model for the interactive directory
// browser over a live *sfs.FS. The visible rows are recomputed from
// expanded and the filter whenever either changes and kept in rows;
// the tree itself is a point-in-time snapshot that never grows
// mid-session.
type browserModel struct {
	fs       *sfs.FS
	root     *treeEntry
	cfg      Config
	theme    Theme
	expanded map[string]bool
	cursor   int
	rows     []flatEntry

	filtering bool
	filter    textinput.Model
	matcher   *fuzzyFilter

	preview viewport.Model
	width   int
	height  int

	keys browserKeyMap
	err  error
}

func newBrowserModel(fs *sfs.FS, root *treeEntry, cfg Config) browserModel {
	expanded := map[string]bool{root.Path: true}

	filter := textinput.New()
	filter.Placeholder = "fuzzy filter paths..."
	filter.Prompt = "/ "

	m := browserModel{
		fs:       fs,
		root:     root,
		cfg:      cfg,
		theme:    DefaultTheme,
		expanded: expanded,
		filter:   filter,
		matcher:  newFuzzyFilter(),
		preview:  viewport.New(40, 10),
		keys:     defaultBrowserKeys,
	}
	m.rebuildRows()
	return m
}

func (m *browserModel) rebuildRows() {
	var rows []flatEntry
	var walk func(node *treeEntry, depth int)
	walk = func(node *treeEntry, depth int) {
		rows = append(rows, flatEntry{Node: node, Depth: depth})
		if !m.expanded[node.Path] {
			return
		}
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	walk(m.root, 0)

	if m.filter.Value() != "" {
		paths := make([]string, len(rows))
		byPath := make(map[string]flatEntry, len(rows))
		for i, r := range rows {
			paths[i] = r.Node.Path
			byPath[r.Node.Path] = r
		}
		matches := m.matcher.Filter(paths, m.filter.Value())
		filtered := make([]flatEntry, 0, len(matches))
		for _, match := range matches {
			filtered = append(filtered, byPath[match.Path])
		}
		rows = filtered
	}

	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
}

func (m browserModel) Init() tea.Cmd { return nil }

func (m browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.preview.Width = msg.Width / 2
		m.preview.Height = msg.Height - 2
		return m, nil

	case tea.KeyMsg:
		if m.filtering {
			switch {
			case key.Matches(msg, m.keys.ClearOrUp):
				m.filtering = false
				m.filter.Blur()
				m.filter.SetValue("")
				m.rebuildRows()
				return m, nil
			case msg.Type == tea.KeyEnter:
				m.filtering = false
				m.filter.Blur()
				return m, nil
			}
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.rebuildRows()
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			m.filter.Focus()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			m.syncPreview()
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
			m.syncPreview()
		case key.Matches(msg, m.keys.Expand):
			if node := m.currentNode(); node != nil && node.Info.IsDir() {
				m.expanded[node.Path] = true
				m.rebuildRows()
			}
		case key.Matches(msg, m.keys.Collapse):
			if node := m.currentNode(); node != nil {
				if node.Info.IsDir() && m.expanded[node.Path] {
					m.expanded[node.Path] = false
				} else {
					m.expanded[parentPath(node.Path)] = false
				}
				m.rebuildRows()
			}
		}
	}
	return m, nil
}

func (m *browserModel) currentNode() *treeEntry {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor].Node
}

func (m *browserModel) syncPreview() {
	node := m.currentNode()
	if node == nil || !node.Info.IsRegular() {
		m.preview.SetContent("")
		return
	}
	data, truncated, err := readPreview(m.fs, node.Path, m.cfg.MaxPreviewBytes)
	if err != nil {
		m.preview.SetContent(fmt.Sprintf("error: %v", err))
		return
	}
	var highlighted strings.Builder
	language := languageForName(node.Name)
	if quick.Highlight(&highlighted, string(data), language, "terminal256", m.cfg.SyntaxStyle) != nil {
		highlighted.Reset()
		highlighted.WriteString(string(data))
	}
	content := highlighted.String()
	if truncated {
		content += "\n… (truncated)"
	}
	m.preview.SetContent(content)
}

func (m browserModel) View() string {
	var b strings.Builder

	listStyle := lipgloss.NewStyle().Width(m.width/2 - 1)
	b.WriteString(listStyle.Render(m.renderList()))
	b.WriteString(" │ ")
	b.WriteString(m.preview.View())
	b.WriteString("\n")

	if m.filtering {
		b.WriteString(m.filter.View())
	} else {
		status := lipgloss.NewStyle().Foreground(m.theme.FaintText)
		info := m.fs.Statfs()
		b.WriteString(status.Render(fmt.Sprintf(
			"%d entries · %s free of %s blocks · / filter · q quit",
			len(m.rows),
			humanize.Comma(int64(info.FreeBlocks)),
			humanize.Comma(int64(info.TotalBlocks)),
		)))
	}
	return b.String()
}

func (m browserModel) renderList() string {
	var b strings.Builder
	dirStyle := lipgloss.NewStyle().Foreground(m.theme.DirColor).Bold(true)
	linkStyle := lipgloss.NewStyle().Foreground(m.theme.SymlinkColor)
	normalStyle := lipgloss.NewStyle().Foreground(m.theme.NormalText)
	selectedStyle := lipgloss.NewStyle().Background(m.theme.SelectedBg)

	for i, row := range m.rows {
		indent := strings.Repeat("  ", row.Depth)
		marker := "  "
		if row.Node.Info.IsDir() {
			if m.expanded[row.Node.Path] {
				marker = "▾ "
			} else {
				marker = "▸ "
			}
		}

		style := normalStyle
		switch {
		case row.Node.Info.IsDir():
			style = dirStyle
		case row.Node.Info.IsSymlink():
			style = linkStyle
		}

		line := indent + marker + row.Node.Name
		if i == m.cursor {
			line = selectedStyle.Render(line)
		} else {
			line = style.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func parentPath(p string) string {
	if idx := strings.LastIndex(strings.TrimSuffix(p, "/"), "/"); idx > 0 {
		return p[:idx]
	}
	return "/"
}

// languageForName guesses a Chroma lexer name from a file's
// extension, falling back to plain text highlighting for unknown
// extensions — chroma.Highlight(..., "") auto-detects, which is
// unreliable for the small previews this browser shows.
func languageForName(name string) string {
	switch {
	case strings.HasSuffix(name, ".go"):
		return "go"
	case strings.HasSuffix(name, ".json"):
		return "json"
	case strings.HasSuffix(name, ".yaml"), strings.HasSuffix(name, ".yml"):
		return "yaml"
	case strings.HasSuffix(name, ".md"):
		return "markdown"
	case strings.HasSuffix(name, ".sh"):
		return "bash"
	default:
		return "plaintext"
	}
}
