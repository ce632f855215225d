// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config holds the on-disk settings for sfs-inspect, loadable from
// either a YAML file or a JSONC (JSON with comments) file — both
// formats are supported because bureau-style operator tooling accepts
// whichever its config directory already standardized on.
type Config struct {
	// SyntaxStyle is the Chroma style name used to highlight file
	// previews in the TUI. Rendered markdown reports always highlight
	// with monokai and do not read this setting.
	SyntaxStyle string `yaml:"syntax_style" json:"syntax_style"`

	// MaxPreviewBytes caps how much of a regular file's content is
	// read for a preview or report snippet.
	MaxPreviewBytes int `yaml:"max_preview_bytes" json:"max_preview_bytes"`

	// MaxTreeDepth caps how deep the directory tree is walked when
	// building the browser or a report. Zero means unlimited.
	MaxTreeDepth int `yaml:"max_tree_depth" json:"max_tree_depth"`
}

// defaultConfig returns the built-in settings used when no config
// file is given or found.
func defaultConfig() Config {
	return Config{
		SyntaxStyle:     "monokai",
		MaxPreviewBytes: 64 * 1024,
		MaxTreeDepth:    0,
	}
}

// loadConfig reads Config from path. An empty path returns the
// defaults unchanged. The format is chosen from the file extension:
// .yaml/.yml decode with yaml.v3, anything else is treated as JSONC
// and stripped of comments before encoding/json.Unmarshal.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing yaml config %s: %w", path, err)
		}
	default:
		clean := jsonc.ToJSON(raw)
		if err := json.Unmarshal(clean, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing json config %s: %w", path, err)
		}
	}
	return cfg, nil
}
