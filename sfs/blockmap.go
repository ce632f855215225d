// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "encoding/binary"

// blockForFile resolves file-block index fb to a data-region block
// number via the inode's direct/indirect/double-indirect pointers
// (§4.4). Returns (0, false) for a hole — reading a hole yields
// zeroes, per spec.md's sparse-file support.
func (fs *FS) blockForFile(in *inode, fb uint32) (uint32, bool) {
	if fb < DirectBlocks {
		b := in.Direct[fb]
		return b, b != 0
	}
	fb -= DirectBlocks
	if fb < PointersPerBlock {
		if in.Indirect == 0 {
			return 0, false
		}
		b := fs.readPointer(in.Indirect, fb)
		return b, b != 0
	}
	fb -= PointersPerBlock
	l1 := fb / PointersPerBlock
	l2 := fb % PointersPerBlock
	if l1 >= PointersPerBlock {
		return 0, false
	}
	if in.DoubleIndirect == 0 {
		return 0, false
	}
	l1Block := fs.readPointer(in.DoubleIndirect, l1)
	if l1Block == 0 {
		return 0, false
	}
	b := fs.readPointer(l1Block, l2)
	return b, b != 0
}

// readPointer reads the 32-bit pointer at slot index within the
// pointer block at data-region block number blockNo.
func (fs *FS) readPointer(blockNo, index uint32) uint32 {
	off := fs.geo.blockOffset(blockNo) + int64(index)*4
	return binary.LittleEndian.Uint32(fs.buf[off : off+4])
}

func (fs *FS) writePointer(blockNo, index, value uint32) {
	off := fs.geo.blockOffset(blockNo) + int64(index)*4
	binary.LittleEndian.PutUint32(fs.buf[off:off+4], value)
}

// allocateBlockForFile installs a freshly allocated data block at
// file-block index fb within in's block map, lazily allocating any
// intermediate indirect/double-indirect pointer blocks needed to
// reach it. On any intermediate allocation failure, every block
// allocated during this call (including fb's own data block) is
// freed again before returning, so a failed write never leaves a
// dangling pointer block (§4.4).
func (fs *FS) allocateBlockForFile(ino uint32, in *inode, fb uint32) (uint32, error) {
	var allocated []uint32
	origIndirect, origDoubleIndirect := in.Indirect, in.DoubleIndirect
	rollback := func() {
		for _, b := range allocated {
			fs.freeBlock(b)
		}
		in.Indirect, in.DoubleIndirect = origIndirect, origDoubleIndirect
	}
	allocOne := func() (uint32, error) {
		b, err := fs.allocBlock()
		if err != nil {
			rollback()
			return 0, err
		}
		allocated = append(allocated, b)
		return b, nil
	}

	var dataBlock uint32

	switch {
	case fb < DirectBlocks:
		b, err := allocOne()
		if err != nil {
			return 0, err
		}
		in.Direct[fb] = b
		dataBlock = b

	case fb-DirectBlocks < PointersPerBlock:
		idx := fb - DirectBlocks
		if in.Indirect == 0 {
			b, err := allocOne()
			if err != nil {
				return 0, err
			}
			in.Indirect = b
		}
		b, err := allocOne()
		if err != nil {
			return 0, err
		}
		fs.writePointer(in.Indirect, idx, b)
		dataBlock = b

	default:
		i := fb - DirectBlocks - PointersPerBlock
		l1 := i / PointersPerBlock
		l2 := i % PointersPerBlock
		if l1 >= PointersPerBlock {
			return 0, newError("write", "", KindNoSpace)
		}
		if in.DoubleIndirect == 0 {
			b, err := allocOne()
			if err != nil {
				return 0, err
			}
			in.DoubleIndirect = b
		}
		l1Block := fs.readPointer(in.DoubleIndirect, l1)
		newL1 := l1Block == 0
		if newL1 {
			b, err := allocOne()
			if err != nil {
				return 0, err
			}
			l1Block = b
		}
		b, err := allocOne()
		if err != nil {
			return 0, err
		}
		if newL1 {
			fs.writePointer(in.DoubleIndirect, l1, l1Block)
		}
		fs.writePointer(l1Block, l2, b)
		dataBlock = b
	}

	in.Blocks++
	fs.writeInode(ino, *in)
	return dataBlock, nil
}

// freeAllBlocks walks every block reachable from in's block map
// (direct, indirect, double-indirect, and all pointer blocks) and
// frees each one, then zeroes the pointers in place. This is the
// redesigned TRUNC/unlink behavior DESIGN.md documents: unlike the
// source implementation, no block referenced by a removed or
// truncated file is ever leaked.
func (fs *FS) freeAllBlocks(in *inode) {
	for i := 0; i < DirectBlocks; i++ {
		if in.Direct[i] != 0 {
			fs.freeBlock(in.Direct[i])
			in.Direct[i] = 0
		}
	}
	if in.Indirect != 0 {
		fs.freePointerBlock(in.Indirect, 0)
		in.Indirect = 0
	}
	if in.DoubleIndirect != 0 {
		fs.freePointerBlock(in.DoubleIndirect, 1)
		in.DoubleIndirect = 0
	}
	in.Blocks = 0
	in.Size = 0
}

// freePointerBlock frees every data block a pointer block at depth
// (0 = leaf pointers, 1 = pointers-to-pointer-blocks) refers to, then
// frees the pointer block itself.
func (fs *FS) freePointerBlock(blockNo uint32, depth int) {
	for i := uint32(0); i < PointersPerBlock; i++ {
		target := fs.readPointer(blockNo, i)
		if target == 0 {
			continue
		}
		if depth == 0 {
			fs.freeBlock(target)
		} else {
			fs.freePointerBlock(target, depth-1)
		}
	}
	fs.freeBlock(blockNo)
}
