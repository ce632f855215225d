// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// Stat resolves path, following a trailing symlink, and returns the
// metadata of whatever it ultimately names (§6).
func (fs *FS) Stat(path string) (FileInfo, error) {
	ino, err := fs.resolve("stat", path, true)
	if err != nil {
		return FileInfo{}, err
	}
	return fileInfoFromInode(ino, fs.readInode(ino)), nil
}

// Lstat resolves path without following a trailing symlink, returning
// the symlink's own metadata rather than its target's (§6).
func (fs *FS) Lstat(path string) (FileInfo, error) {
	ino, err := fs.resolve("lstat", path, false)
	if err != nil {
		return FileInfo{}, err
	}
	return fileInfoFromInode(ino, fs.readInode(ino)), nil
}

// Statfs reports aggregate filesystem occupancy (§6). FreeBlocks walks
// the free list; this is O(free blocks), matching countFreeBlocks's
// own documented cost.
func (fs *FS) Statfs() StatFSInfo {
	return StatFSInfo{
		BlockSize:   BlockSize,
		TotalBlocks: fs.geo.totalBlocks,
		FreeBlocks:  fs.countFreeBlocks(),
		TotalInodes: fs.geo.inodeCount,
		FreeInodes:  fs.geo.inodeCount - fs.nextFreeInode(),
		NameLen:     MaxNameLen,
	}
}
