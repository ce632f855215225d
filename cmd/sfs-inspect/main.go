// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sfs-inspect is an operator-facing tool for browsing a sabfs buffer:
// either a live in-memory image loaded from disk, or a diagnostic
// snapshot produced by sfssnapshot. It opens the buffer read-only
// (every sfs.FS method it calls is read-only by construction — there
// is no write path wired up here) and either drops into an
// interactive terminal browser or renders a one-shot markdown report.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/tappress/sabfs/lib/version"
	"github.com/tappress/sabfs/sfs"
	"github.com/tappress/sabfs/sfssnapshot"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sfs-inspect: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var imagePath string
	var snapshotPath string
	var configPath string
	var root string
	var report bool
	var outPath string
	var maxDepth int
	var showVersion bool

	flags := pflag.NewFlagSet("sfs-inspect", pflag.ContinueOnError)
	flags.StringVar(&imagePath, "image", "", "path to a raw sabfs buffer file")
	flags.StringVar(&snapshotPath, "snapshot", "", "path to an sfssnapshot-framed buffer file")
	flags.StringVar(&configPath, "config", "", "path to a YAML or JSONC config file")
	flags.StringVar(&root, "root", "/", "directory to start browsing or reporting from")
	flags.BoolVar(&report, "report", false, "render a markdown report instead of the interactive browser")
	flags.StringVar(&outPath, "out", "", "write the report here instead of stdout (only with --report)")
	flags.IntVar(&maxDepth, "max-depth", 0, "override the configured tree depth limit (0 = config default)")
	flags.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}
	if showVersion {
		fmt.Println(version.Info())
		return nil
	}

	if imagePath == "" && snapshotPath == "" {
		return fmt.Errorf("one of --image or --snapshot is required")
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if maxDepth != 0 {
		cfg.MaxTreeDepth = maxDepth
	}

	buf, err := loadBuffer(imagePath, snapshotPath)
	if err != nil {
		return err
	}

	fs, err := sfs.Attach(buf, sfs.AttachOptions{})
	if err != nil {
		return fmt.Errorf("attaching to buffer: %w", err)
	}

	tree, err := buildTree(fs, root, cfg.MaxTreeDepth)
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	if report {
		return runReport(fs, tree, cfg, outPath)
	}
	return runBrowser(fs, tree, cfg)
}

func loadBuffer(imagePath, snapshotPath string) ([]byte, error) {
	if snapshotPath != "" {
		f, err := os.Open(snapshotPath)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot %s: %w", snapshotPath, err)
		}
		defer f.Close()
		buf, err := sfssnapshot.Read(f, nil)
		if err != nil {
			return nil, fmt.Errorf("reading snapshot %s: %w", snapshotPath, err)
		}
		return buf, nil
	}

	buf, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", imagePath, err)
	}
	return buf, nil
}

func runReport(fs *sfs.FS, tree *treeEntry, cfg Config, outPath string) error {
	markdown := buildReportMarkdown(fs, tree, cfg)
	rendered := renderReportTerminal(markdown, DefaultTheme, reportWidth(outPath))

	if outPath != "" {
		return os.WriteFile(outPath, []byte(rendered+"\n"), 0o644)
	}
	fmt.Fprintln(os.Stdout, rendered)
	return nil
}

// reportWidth picks the wrap width for a rendered report: the
// terminal's current width when writing to stdout, or a fixed width
// when writing to a file (which has no terminal to query).
func reportWidth(outPath string) int {
	const fallback = 100
	if outPath != "" {
		return fallback
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

func runBrowser(fs *sfs.FS, tree *treeEntry, cfg Config) error {
	model := newBrowserModel(fs, tree, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
