// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/tappress/sabfs/sfs"
)

var (
	reportParser     goldmark.Markdown
	reportParserOnce sync.Once
)

func getReportParser() goldmark.Markdown {
	reportParserOnce.Do(func() {
		reportParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return reportParser
}

// buildReportMarkdown renders a tree snapshot and a filesystem-wide
// usage summary as a markdown document: a heading, a usage line, and
// a nested bullet list with one entry per node, fenced code blocks
// for small regular files.
func buildReportMarkdown(fs *sfs.FS, tree *treeEntry, cfg Config) string {
	var b strings.Builder

	info := fs.Statfs()
	fmt.Fprintf(&b, "# sabfs snapshot: %s\n\n", tree.Path)
	fmt.Fprintf(&b, "%s blocks total, %s free, %s inodes free.\n\n",
		humanize.Comma(int64(info.TotalBlocks)),
		humanize.Comma(int64(info.FreeBlocks)),
		humanize.Comma(int64(info.FreeInodes)),
	)

	for _, entry := range flatten(tree) {
		if entry.Depth == 0 {
			continue
		}
		indent := strings.Repeat("  ", entry.Depth-1)
		kind := "file"
		switch {
		case entry.Node.Info.IsDir():
			kind = "dir"
		case entry.Node.Info.IsSymlink():
			kind = "symlink"
		}
		fmt.Fprintf(&b, "%s- **%s** (%s, %s)\n", indent, entry.Node.Name, kind, humanize.Bytes(entry.Node.Info.Size))

		if entry.Node.Info.IsRegular() && entry.Node.Info.Size > 0 && entry.Node.Info.Size <= uint64(cfg.MaxPreviewBytes) {
			data, _, err := readPreview(fs, entry.Node.Path, cfg.MaxPreviewBytes)
			if err == nil && isPrintable(data) {
				fmt.Fprintf(&b, "\n```%s\n%s\n```\n\n", languageForName(entry.Node.Name), string(data))
			}
		}
	}
	return b.String()
}

func isPrintable(data []byte) bool {
	for _, c := range data {
		if c == 0 {
			return false
		}
	}
	return true
}

// renderReportTerminal renders markdown source as styled terminal
// text: headings, lists, and fenced code blocks (syntax-highlighted
// via Chroma). It is a deliberately small subset of what a full
// markdown-to-terminal renderer would handle — enough for the report
// shape buildReportMarkdown produces, not a general-purpose renderer.
func renderReportTerminal(source string, theme Theme, width int) string {
	lipRenderer := lipgloss.NewRenderer(os.Stdout, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	reader := text.NewReader([]byte(source))
	doc := getReportParser().Parser().Parse(reader)

	r := &reportRenderer{source: []byte(source), theme: theme, width: width, lip: lipRenderer}
	ast.Walk(doc, r.walk)
	return strings.TrimRight(r.out.String(), "\n")
}

type reportRenderer struct {
	source []byte
	theme  Theme
	width  int
	lip    *lipgloss.Renderer

	out      strings.Builder
	inline   strings.Builder
	indent   int
	inBullet bool
}

func (r *reportRenderer) style() lipgloss.Style { return r.lip.NewStyle() }

func (r *reportRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindHeading:
		if entering {
			r.inline.Reset()
		} else {
			content := r.inline.String()
			r.inline.Reset()
			styled := r.style().Bold(true).Foreground(r.theme.HeaderForeground).Render(content)
			r.out.WriteString(ansi.Wrap(styled, r.width, " "))
			r.out.WriteString("\n\n")
		}
	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			r.inline.Reset()
		} else {
			content := r.inline.String()
			r.inline.Reset()
			if content != "" {
				prefix := strings.Repeat("  ", max(r.indent-1, 0))
				if r.inBullet {
					prefix += "- "
					r.inBullet = false
				}
				r.out.WriteString(prefix + ansi.Wrap(content, max(r.width-len(prefix), 10), " "))
				r.out.WriteString("\n")
			}
		}
	case ast.KindList:
		if !entering {
			r.out.WriteString("\n")
		}
	case ast.KindListItem:
		if entering {
			r.indent++
			r.inBullet = true
		} else {
			r.indent--
		}
	case ast.KindFencedCodeBlock:
		if entering {
			fenced := node.(*ast.FencedCodeBlock)
			language := string(fenced.Language(r.source))
			var code strings.Builder
			lines := fenced.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				code.Write(seg.Value(r.source))
			}
			r.writeCode(code.String(), language)
			return ast.WalkSkipChildren, nil
		}
	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			segment := textNode.Segment
			r.inline.WriteString(r.style().Foreground(r.theme.NormalText).Render(string(segment.Value(r.source))))
			if textNode.SoftLineBreak() {
				r.inline.WriteString(" ")
			}
		}
	}
	return ast.WalkContinue, nil
}

func (r *reportRenderer) writeCode(code, language string) {
	var highlighted strings.Builder
	if quick.Highlight(&highlighted, code, language, "terminal256", "monokai") != nil {
		highlighted.Reset()
		highlighted.WriteString(code)
	}
	prefix := strings.Repeat("  ", r.indent)
	for _, line := range strings.Split(strings.TrimRight(highlighted.String(), "\n"), "\n") {
		r.out.WriteString(prefix)
		r.out.WriteString(line)
		r.out.WriteString("\n")
	}
	r.out.WriteString("\n")
}
