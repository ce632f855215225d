// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "strings"

// ImportBytes writes data to path, creating any missing parent
// directories and the leaf file itself. It is pure composition of the
// public operation surface (mkdir -p, then open/write/close) and adds
// no invariant of its own — a bulk image importer belongs outside the
// core, but this convenience does not reach into any internal.
func ImportBytes(fs *FS, path string, data []byte, mode uint32) error {
	if err := mkdirAll(fs, parentCachePath(path)); err != nil {
		return err
	}
	fd, err := fs.Open(path, OCREAT|OWRONLY|OTRUNC, mode)
	if err != nil {
		return err
	}
	_, werr := fs.Write(fd, data)
	cerr := fs.Close(fd)
	if werr != nil {
		return werr
	}
	return cerr
}

// mkdirAll creates every missing component of path, tolerating
// components that already exist as directories.
func mkdirAll(fs *FS, path string) error {
	normalized, err := normalizePath(path)
	if err != nil {
		return err
	}
	if normalized == "/" {
		return nil
	}
	var built strings.Builder
	for _, comp := range strings.Split(strings.TrimPrefix(normalized, "/"), "/") {
		built.WriteByte('/')
		built.WriteString(comp)
		if err := fs.Mkdir(built.String(), 0o755); err != nil && !IsExists(err) {
			return err
		}
	}
	return nil
}
