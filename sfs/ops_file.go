// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "io"

// Open resolves path and returns a descriptor for reading and/or
// writing it (§6). With OCREAT, a missing leaf is created as a
// regular file; with OCREAT|OEXCL, an existing leaf is an error.
// Without ONOFOLLOW, a symlink leaf is transparently followed to its
// target, same as a bare open(2). ONOFOLLOW makes a symlink leaf
// itself the target instead of following it, and opening a symlink
// directly is declared an error: KindInval.
func (fs *FS) Open(path string, flags OpenFlag, mode uint32) (int32, error) {
	followFinal := !flags.has(ONOFOLLOW)

	ino, err := fs.resolve("open", path, followFinal)
	if err != nil {
		if !IsNotFound(err) || !flags.has(OCREAT) {
			return -1, err
		}
		parentIno, name, perr := fs.resolveParent("open", path)
		if perr != nil {
			return -1, perr
		}
		parent := fs.readInode(parentIno)
		if !parent.isDir() {
			return -1, newError("open", path, KindNotDir)
		}
		if _, exists := fs.dirLookup(&parent, name); exists {
			return -1, newError("open", path, KindExists)
		}
		newIno, cerr := fs.createRegular(parentIno, &parent, name, mode)
		if cerr != nil {
			return -1, cerr
		}
		fs.cache.invalidatePrefix(parentCachePath(path))
		ino = newIno
	} else if flags.has(OCREAT) && flags.has(OEXCL) {
		return -1, newError("open", path, KindExists)
	}

	in := fs.readInode(ino)
	if in.isLnk() && !followFinal {
		return -1, newError("open", path, KindInval)
	}
	if in.isDir() && flags&accessModeMask != ORDONLY {
		return -1, newError("open", path, KindIsDir)
	}

	if flags.has(OTRUNC) && in.isReg() {
		fs.freeAllBlocks(&in)
		t := nowSeconds(fs)
		in.Mtime, in.Ctime = t, t
		fs.writeInode(ino, in)
	}

	pos := int64(0)
	if flags.has(OAPPEND) {
		pos = int64(in.Size)
	}
	fd := fs.descriptors.add(&descriptor{inode: ino, flags: flags, pos: pos, path: path})
	return fd, nil
}

func (fs *FS) createRegular(parentIno uint32, parent *inode, name string, mode uint32) (uint32, error) {
	ino, err := fs.allocInode()
	if err != nil {
		return 0, err
	}
	t := nowSeconds(fs)
	in := inode{Mode: TypeReg | (mode &^ TypeMask), Nlink: 1, Atime: t, Mtime: t, Ctime: t}
	fs.writeInode(ino, in)
	if err := fs.dirAddEntry(parentIno, parent, name, ino, DTReg); err != nil {
		return 0, err
	}
	return ino, nil
}

// Close releases fd. Closing an unknown descriptor is KindInval (§6).
func (fs *FS) Close(fd int32) error {
	if !fs.descriptors.remove(fd) {
		return newError("close", "", KindInval)
	}
	return nil
}

func (fs *FS) lookupDescriptor(op string, fd int32) (*descriptor, error) {
	d, ok := fs.descriptors.get(fd)
	if !ok {
		return nil, newError(op, "", KindInval)
	}
	return d, nil
}

// Read reads up to len(buf) bytes from fd's current position, advances
// it, and returns the byte count (§6). Reading an OWRONLY descriptor
// is KindInval.
func (fs *FS) Read(fd int32, buf []byte) (int, error) {
	d, err := fs.lookupDescriptor("read", fd)
	if err != nil {
		return 0, err
	}
	if d.flags&accessModeMask == OWRONLY {
		return 0, newError("read", d.path, KindInval)
	}
	in := fs.readInode(d.inode)
	n, rerr := fs.readFileData(&in, d.pos, buf)
	if rerr != nil {
		return 0, rerr
	}
	d.pos += int64(n)
	return n, nil
}

// Pread reads from an explicit offset without touching fd's position.
func (fs *FS) Pread(fd int32, buf []byte, offset int64) (int, error) {
	d, err := fs.lookupDescriptor("pread", fd)
	if err != nil {
		return 0, err
	}
	if d.flags&accessModeMask == OWRONLY {
		return 0, newError("pread", d.path, KindInval)
	}
	in := fs.readInode(d.inode)
	return fs.readFileData(&in, offset, buf)
}

// Write writes data at fd's current position, re-reading the inode's
// size first when OAPPEND is set so concurrent writers from other
// descriptors land after each other rather than overwriting (§6, P3).
func (fs *FS) Write(fd int32, data []byte) (int, error) {
	d, err := fs.lookupDescriptor("write", fd)
	if err != nil {
		return 0, err
	}
	if d.flags&accessModeMask == ORDONLY {
		return 0, newError("write", d.path, KindInval)
	}
	in := fs.readInode(d.inode)
	pos := d.pos
	if d.flags.has(OAPPEND) {
		pos = int64(in.Size)
	}
	if exceedsMaxFileSize(pos, len(data)) {
		return 0, newError("write", d.path, KindNoSpace)
	}
	n, werr := fs.writeFileData(d.inode, &in, pos, data)
	if n > 0 {
		if end := pos + int64(n); uint64(end) > in.Size {
			in.Size = uint64(end)
		}
		t := nowSeconds(fs)
		in.Mtime, in.Ctime = t, t
		fs.writeInode(d.inode, in)
	}
	d.pos = pos + int64(n)
	return n, werr
}

// Pwrite writes at an explicit offset without touching fd's position.
func (fs *FS) Pwrite(fd int32, data []byte, offset int64) (int, error) {
	d, err := fs.lookupDescriptor("pwrite", fd)
	if err != nil {
		return 0, err
	}
	if d.flags&accessModeMask == ORDONLY {
		return 0, newError("pwrite", d.path, KindInval)
	}
	if exceedsMaxFileSize(offset, len(data)) {
		return 0, newError("pwrite", d.path, KindNoSpace)
	}
	in := fs.readInode(d.inode)
	n, werr := fs.writeFileData(d.inode, &in, offset, data)
	if n > 0 {
		if end := offset + int64(n); uint64(end) > in.Size {
			in.Size = uint64(end)
		}
		t := nowSeconds(fs)
		in.Mtime, in.Ctime = t, t
		fs.writeInode(d.inode, in)
	}
	return n, werr
}

// exceedsMaxFileSize reports whether writing len bytes at offset would
// extend a file past MaxFileSize, the highest byte address its block
// map (direct + indirect + double-indirect) can reach (§4.4, I6).
// A descriptor's pos is never negative, since Lseek rejects a negative
// position; a negative offset passed to Pwrite converts to a huge
// unsigned value and is therefore reported as exceeding the limit.
func exceedsMaxFileSize(offset int64, length int) bool {
	if length == 0 {
		return false
	}
	return uint64(offset)+uint64(length) > MaxFileSize
}

// Lseek repositions fd per whence (io.SeekStart/Current/End), §6.
func (fs *FS) Lseek(fd int32, offset int64, whence int) (int64, error) {
	d, err := fs.lookupDescriptor("lseek", fd)
	if err != nil {
		return 0, err
	}
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = d.pos
	case io.SeekEnd:
		in := fs.readInode(d.inode)
		base = int64(in.Size)
	default:
		return 0, newError("lseek", d.path, KindInval)
	}
	newPos := base + offset
	if newPos < 0 {
		return 0, newError("lseek", d.path, KindInval)
	}
	d.pos = newPos
	return newPos, nil
}

// Truncate sets path's regular-file size to length, freeing every
// block beyond it and never leaking any (§4.4, §9's redesigned
// behavior — see DESIGN.md). Growing a file only extends Size; no
// block is allocated until a write touches the new range (reads of it
// return zeroes).
func (fs *FS) Truncate(path string, length uint64) error {
	ino, err := fs.resolve("truncate", path, true)
	if err != nil {
		return err
	}
	in := fs.readInode(ino)
	if in.isDir() {
		return newError("truncate", path, KindIsDir)
	}
	if !in.isReg() {
		return newError("truncate", path, KindInval)
	}
	if length == 0 {
		fs.freeAllBlocks(&in)
	} else if length < in.Size {
		fs.freeBlocksFrom(&in, length)
		in.Size = length
	} else {
		in.Size = length
	}
	t := nowSeconds(fs)
	in.Mtime, in.Ctime = t, t
	fs.writeInode(ino, in)
	return nil
}

// freeBlocksFrom frees every block that lies entirely at or beyond
// byte offset from. A block that contains from but also bytes before
// it is kept, as are all blocks before it. Used by Truncate for a shrink that still leaves
// part of a direct/indirect/double-indirect range intact.
func (fs *FS) freeBlocksFrom(in *inode, from uint64) {
	firstFreedFB := uint32(ceilDiv(from, BlockSize))
	blockCount := uint32(ceilDiv(in.Size, BlockSize))
	for fb := firstFreedFB; fb < blockCount; fb++ {
		if b, ok := fs.blockForFile(in, fb); ok {
			fs.freeBlock(b)
			fs.clearBlockPointer(in, fb)
			in.Blocks--
		}
	}
}

// clearBlockPointer zeroes the block-map slot for file-block index fb
// without freeing any now-empty intermediate pointer block — those
// stay allocated, matching freeAllBlocks's own "only free on a
// complete pass" discipline.
func (fs *FS) clearBlockPointer(in *inode, fb uint32) {
	if fb < DirectBlocks {
		in.Direct[fb] = 0
		return
	}
	fb -= DirectBlocks
	if fb < PointersPerBlock {
		if in.Indirect != 0 {
			fs.writePointer(in.Indirect, fb, 0)
		}
		return
	}
	fb -= PointersPerBlock
	l1 := fb / PointersPerBlock
	l2 := fb % PointersPerBlock
	if in.DoubleIndirect == 0 {
		return
	}
	l1Block := fs.readPointer(in.DoubleIndirect, l1)
	if l1Block != 0 {
		fs.writePointer(l1Block, l2, 0)
	}
}

func parentCachePath(path string) string {
	normalized, err := normalizePath(path)
	if err != nil {
		return "/"
	}
	idx := lastSlash(normalized)
	if idx <= 0 {
		return "/"
	}
	return normalized[:idx]
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
