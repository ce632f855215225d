// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// Fixed on-buffer geometry constants. These are part of the wire
// format: changing any of them breaks interoperability with any other
// implementation of this layout.
const (
	// BlockSize is the size in bytes of every block: the superblock,
	// inode-table blocks, and data blocks alike.
	BlockSize = 4096

	// InodeSize is the size in bytes of one inode record.
	InodeSize = 128

	// DirentSize is the size in bytes of one directory entry.
	DirentSize = 32

	// DirectBlocks is the number of direct block pointers in an inode.
	DirectBlocks = 8

	// PointersPerBlock is the number of 32-bit block pointers that
	// fit in one block (BlockSize / 4).
	PointersPerBlock = BlockSize / 4

	// MaxNameLen is the maximum length, in bytes, of a directory
	// entry's name.
	MaxNameLen = 24

	// freeListTerm is the free-list and sentinel terminator value.
	freeListTerm uint32 = 0xFFFFFFFF

	// RootInode is the inode number of the filesystem root. It is
	// always a directory and can never be unlinked.
	RootInode uint32 = 0

	// maxSymlinkDepth bounds symlink-chain resolution (§4.6).
	maxSymlinkDepth = 40

	// maxInodeCount caps the default inode_count computed at
	// initialize time. An explicit Options.InodeCount is not capped.
	maxInodeCount = 65536
)

// Maximum file size addressable via the block map: 8 direct blocks
// plus 1024 indirect plus 1024*1024 double-indirect, each BlockSize
// bytes (invariant I6).
const MaxFileSize = uint64(DirectBlocks+PointersPerBlock+PointersPerBlock*PointersPerBlock) * BlockSize

// geometry holds the computed, buffer-size-derived layout of an
// initialized or attached filesystem. It never changes after
// Initialize/Attach — total_blocks and inode_count are fixed for the
// life of the buffer.
type geometry struct {
	totalBlocks      uint32
	inodeCount       uint32
	inodeTableBlocks uint32
	dataBlockCount   uint32

	// Byte offsets into the shared buffer.
	inodeTableOffset int64
	dataRegionOffset int64
}

// computeGeometry derives the full on-buffer layout from a buffer
// size and an inode-count override (0 means "compute the default").
func computeGeometry(bufferSize int, inodeCountOverride uint32) (geometry, error) {
	if bufferSize < BlockSize*2 {
		return geometry{}, newError("initialize", "", KindInval)
	}
	totalBlocks := uint32(bufferSize / BlockSize)

	inodeCount := inodeCountOverride
	if inodeCount == 0 {
		inodeCount = totalBlocks / 4
		if inodeCount > maxInodeCount {
			inodeCount = maxInodeCount
		}
		if inodeCount == 0 {
			inodeCount = 1
		}
	}

	inodeTableBlocks := ceilDiv(uint64(inodeCount)*InodeSize, BlockSize)
	if uint64(1+inodeTableBlocks) >= uint64(totalBlocks) {
		return geometry{}, newError("initialize", "", KindInval)
	}
	dataBlockCount := totalBlocks - 1 - uint32(inodeTableBlocks)

	return geometry{
		totalBlocks:      totalBlocks,
		inodeCount:       inodeCount,
		inodeTableBlocks: uint32(inodeTableBlocks),
		dataBlockCount:   dataBlockCount,
		inodeTableOffset: BlockSize,
		dataRegionOffset: BlockSize * int64(1+inodeTableBlocks),
	}, nil
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}

// inodeOffset returns the byte offset of inode ino's record.
func (g geometry) inodeOffset(ino uint32) int64 {
	return g.inodeTableOffset + int64(ino)*InodeSize
}

// blockOffset returns the byte offset of data-region block b.
func (g geometry) blockOffset(b uint32) int64 {
	return g.dataRegionOffset + int64(b)*BlockSize
}
