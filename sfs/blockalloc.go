// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// The free-block list is a singly-linked chain of data blocks anchored
// at the superblock's free_block_head word. Each free block's first
// four bytes hold the block number of the next free block, or
// freeListTerm. Both allocBlock and freeBlock touch only the list
// head and the one block being pushed or popped (§4.2).

// blockNextOffset returns the byte offset of data-region block b's
// "next" pointer slot (its own first four bytes).
func (fs *FS) blockNextOffset(b uint32) int {
	return int(fs.geo.blockOffset(b))
}

func (fs *FS) readBlockNext(b uint32) uint32 {
	return fs.loadU32(fs.blockNextOffset(b))
}

func (fs *FS) writeBlockNext(b, next uint32) {
	fs.storeU32(fs.blockNextOffset(b), next)
}

// zeroDataBlock clears an entire data block's content. Called after a
// successful pop so callers never observe stale bytes from the
// block's previous tenant.
func (fs *FS) zeroDataBlock(b uint32) {
	off := fs.geo.blockOffset(b)
	clear(fs.buf[off : off+BlockSize])
}

// allocBlock pops a block from the free list head. Returns
// KindNoSpace if the list is exhausted.
func (fs *FS) allocBlock() (uint32, error) {
	for {
		head := fs.freeBlockHead()
		if head == freeListTerm {
			return 0, newError("alloc_block", "", KindNoSpace)
		}
		next := fs.readBlockNext(head)
		if fs.casU32(sbOffFreeBlockHead, head, next) {
			fs.zeroDataBlock(head)
			return head, nil
		}
	}
}

// freeBlock pushes block b back onto the free list head.
func (fs *FS) freeBlock(b uint32) {
	for {
		head := fs.freeBlockHead()
		fs.writeBlockNext(b, head)
		if fs.casU32(sbOffFreeBlockHead, head, b) {
			return
		}
	}
}

// countFreeBlocks walks the free list to completion. Used by statfs
// and by tests asserting P1 (free-block conservation). O(free list
// length); callers that need this on a hot path should track a
// running counter instead, but statfs is not a hot path here.
func (fs *FS) countFreeBlocks() uint32 {
	var count uint32
	for b := fs.freeBlockHead(); b != freeListTerm; b = fs.readBlockNext(b) {
		count++
	}
	return count
}
