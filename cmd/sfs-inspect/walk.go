// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"path"
	"sort"

	"github.com/tappress/sabfs/sfs"
)

// treeEntry is one node of a directory tree snapshot taken from a
// live *sfs.FS. It is a point-in-time copy: nothing here observes
// later mutations made by another context attached to the same
// buffer.
type treeEntry struct {
	Name     string
	Path     string
	Info     sfs.FileInfo
	Children []*treeEntry
}

// buildTree walks root recursively, reading at most maxDepth levels
// (0 means unlimited), and returns the root node of the snapshot.
func buildTree(fs *sfs.FS, root string, maxDepth int) (*treeEntry, error) {
	info, err := fs.Lstat(root)
	if err != nil {
		return nil, err
	}
	node := &treeEntry{Name: path.Base(root), Path: root, Info: info}
	if root == "/" {
		node.Name = "/"
	}
	if !info.IsDir() {
		return node, nil
	}
	if err := fillChildren(fs, node, maxDepth, 1); err != nil {
		return nil, err
	}
	return node, nil
}

func fillChildren(fs *sfs.FS, node *treeEntry, maxDepth, depth int) error {
	entries, err := fs.Readdir(node.Path)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	for _, entry := range entries {
		childPath := path.Join(node.Path, entry.Name)
		info, err := fs.Lstat(childPath)
		if err != nil {
			continue
		}
		child := &treeEntry{Name: entry.Name, Path: childPath, Info: info}
		node.Children = append(node.Children, child)

		if info.IsDir() && (maxDepth == 0 || depth < maxDepth) {
			if err := fillChildren(fs, child, maxDepth, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

// flatten returns every node in the tree in depth-first, pre-order
// traversal, paired with its nesting depth. Used by the report
// renderer; the browser's fuzzy filter runs over its own walk of the
// currently expanded rows instead.
func flatten(root *treeEntry) []flatEntry {
	var out []flatEntry
	var walk func(node *treeEntry, depth int)
	walk = func(node *treeEntry, depth int) {
		out = append(out, flatEntry{Node: node, Depth: depth})
		for _, child := range node.Children {
			walk(child, depth+1)
		}
	}
	walk(root, 0)
	return out
}

type flatEntry struct {
	Node  *treeEntry
	Depth int
}

// readPreview reads up to maxBytes of a regular file's content for
// display, via a fresh open/close — sfs file descriptors are
// per-context and cheap enough that a short-lived one is simpler
// than threading a handle through the browser model.
func readPreview(fs *sfs.FS, filePath string, maxBytes int) ([]byte, bool, error) {
	fd, err := fs.Open(filePath, sfs.ORDONLY, 0)
	if err != nil {
		return nil, false, err
	}
	defer fs.Close(fd)

	buf := make([]byte, maxBytes)
	n, err := fs.Read(fd, buf)
	if err != nil {
		return nil, false, err
	}
	truncated := n == maxBytes
	return buf[:n], truncated, nil
}
