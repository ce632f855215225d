// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"
)

// Magic identifies a valid SFS superblock. Attaching to a buffer
// whose first four bytes don't match this value is fatal.
const Magic uint32 = 0x53414246 // "SABF" read as a big-endian u32; stored little-endian, the buffer's first four bytes are "FBAS".

// Version is the on-buffer format version written by Initialize.
const Version uint32 = 1

// Superblock field byte offsets within block 0, per spec.md §3.
const (
	sbOffMagic         = 0
	sbOffVersion       = 4
	sbOffBlockSize     = 8
	sbOffTotalBlocks   = 12
	sbOffInodeCount    = 16
	sbOffFreeBlockHead = 20
	sbOffNextFreeInode = 24
	sbOffRootInode     = 28
	sbOffDataBlockCnt  = 32
)

// writeSuperblock encodes the static (non-atomic) superblock fields.
// free_block_head and next_free_inode are written separately with
// atomic stores since they are mutated under CAS thereafter.
func writeSuperblock(buf []byte, g geometry) {
	block := buf[:BlockSize]
	binary.LittleEndian.PutUint32(block[sbOffMagic:], Magic)
	binary.LittleEndian.PutUint32(block[sbOffVersion:], Version)
	binary.LittleEndian.PutUint32(block[sbOffBlockSize:], BlockSize)
	binary.LittleEndian.PutUint32(block[sbOffTotalBlocks:], g.totalBlocks)
	binary.LittleEndian.PutUint32(block[sbOffInodeCount:], g.inodeCount)
	binary.LittleEndian.PutUint32(block[sbOffRootInode:], RootInode)
	binary.LittleEndian.PutUint32(block[sbOffDataBlockCnt:], g.dataBlockCount)
}

// readMagic reads the magic value without any atomics — it is
// written once at Initialize and never mutated again.
func readMagic(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[sbOffMagic:])
}

func readVersion(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf[sbOffVersion:])
}

func readStaticGeometry(buf []byte) geometry {
	blockSize := binary.LittleEndian.Uint32(buf[sbOffBlockSize:])
	_ = blockSize // fixed at BlockSize; stored for format introspection only.
	totalBlocks := binary.LittleEndian.Uint32(buf[sbOffTotalBlocks:])
	inodeCount := binary.LittleEndian.Uint32(buf[sbOffInodeCount:])
	dataBlockCount := binary.LittleEndian.Uint32(buf[sbOffDataBlockCnt:])
	inodeTableBlocks := uint32(ceilDiv(uint64(inodeCount)*InodeSize, BlockSize))
	return geometry{
		totalBlocks:      totalBlocks,
		inodeCount:       inodeCount,
		inodeTableBlocks: inodeTableBlocks,
		dataBlockCount:   dataBlockCount,
		inodeTableOffset: BlockSize,
		dataRegionOffset: BlockSize * int64(1+inodeTableBlocks),
	}
}

// --- Atomic access to the two superblock words mutated by CAS ---
//
// free_block_head and next_free_inode live inside the shared buffer,
// not in any per-context Go struct, because every attached context
// must observe the same value. atomic.*32 requires a typed pointer,
// so these helpers take the address of the backing byte array via
// unsafe.Pointer — the same trick any lock-free structure embedded in
// raw shared memory (mmap, SharedArrayBuffer) needs, since the
// standard library has no atomic view over []byte. Offsets are fixed
// compile-time constants at 4-byte boundaries, so alignment holds for
// any buffer returned by make([]byte, n) or a host-provided mapping
// aligned to at least 4 bytes.

func u32ptr(buf []byte, offset int) *uint32 {
	return (*uint32)(unsafe.Pointer(&buf[offset]))
}

func (fs *FS) loadU32(offset int) uint32 {
	return atomic.LoadUint32(u32ptr(fs.buf, offset))
}

func (fs *FS) storeU32(offset int, v uint32) {
	atomic.StoreUint32(u32ptr(fs.buf, offset), v)
}

func (fs *FS) casU32(offset int, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(u32ptr(fs.buf, offset), old, new)
}

func (fs *FS) freeBlockHead() uint32   { return fs.loadU32(sbOffFreeBlockHead) }
func (fs *FS) nextFreeInode() uint32   { return fs.loadU32(sbOffNextFreeInode) }
