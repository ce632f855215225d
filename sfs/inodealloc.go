// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// allocInode bumps next_free_inode by one via CAS and zeroes the new
// slot's record (§4.3). Freed inodes are never returned to this
// counter — see DESIGN.md's Open Question decision on inode reuse.
func (fs *FS) allocInode() (uint32, error) {
	for {
		n := fs.nextFreeInode()
		if n >= fs.geo.inodeCount {
			return 0, newError("alloc_inode", "", KindNoSpace)
		}
		if fs.casU32(sbOffNextFreeInode, n, n+1) {
			fs.zeroInodeRecord(n)
			return n, nil
		}
	}
}

func (fs *FS) zeroInodeRecord(ino uint32) {
	off := fs.geo.inodeOffset(ino)
	clear(fs.buf[off : off+InodeSize])
}
