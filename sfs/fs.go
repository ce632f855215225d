// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import (
	"time"

	"github.com/tappress/sabfs/internal/clock"
)

// FS is one execution context's handle onto a shared buffer. Multiple
// FS values created by Initialize/Attach over the same buffer may be
// used concurrently from different goroutines (standing in for
// spec.md's "main" and "worker" contexts, §5): the superblock's two
// atomically-mutated words and the free-list links are safe to share,
// everything else is the caller's discipline to serialize, same as
// the spec's contract.
//
// Each FS carries its own descriptor table and path cache — neither
// is shared across contexts (§4.7, §4.6).
type FS struct {
	buf         []byte
	geo         geometry
	descriptors *descriptorTable
	cache       *pathCache
	clock       clock.Clock
}

// Options configures Initialize.
type Options struct {
	// InodeCount overrides the default inode-count computation
	// (min(total_blocks/4, 65536)). Zero means "use the default".
	InodeCount uint32

	// Clock overrides the time source used for atime/mtime/ctime.
	// Nil means clock.Real().
	Clock clock.Clock
}

// AttachOptions configures Attach.
type AttachOptions struct {
	// Clock overrides the time source used for atime/mtime/ctime.
	// Nil means clock.Real().
	Clock clock.Clock
}

// Initialize formats buf as a fresh filesystem and returns the
// initializing context's handle onto it (§4.1). buf's length
// determines total_blocks; it is not retained beyond what FS needs to
// operate on it in place — callers own buf's storage.
func Initialize(buf []byte, opts Options) (*FS, error) {
	geo, err := computeGeometry(len(buf), opts.InodeCount)
	if err != nil {
		return nil, err
	}

	writeSuperblock(buf, geo)

	fs := &FS{buf: buf, geo: geo, descriptors: newDescriptorTable(), cache: newPathCache(), clock: opts.Clock}
	if fs.clock == nil {
		fs.clock = clock.Real()
	}

	// Thread the free list across the data region, leaving block 0
	// of the data region permanently reserved as a sentinel (§4.1).
	if geo.dataBlockCount > 1 {
		for b := uint32(1); b < geo.dataBlockCount-1; b++ {
			fs.writeBlockNext(b, b+1)
		}
		fs.writeBlockNext(geo.dataBlockCount-1, freeListTerm)
		fs.storeU32(sbOffFreeBlockHead, 1)
	} else {
		fs.storeU32(sbOffFreeBlockHead, freeListTerm)
	}
	fs.storeU32(sbOffNextFreeInode, 1)

	// Allocate and format the root directory at inode 0.
	fs.zeroInodeRecord(RootInode)
	now := nowSeconds(fs)
	root := inode{Mode: TypeDir | 0o755, Nlink: 2, Atime: now, Mtime: now, Ctime: now}
	fs.writeInode(RootInode, root)

	return fs, nil
}

// Attach connects a new execution context to an already-initialized
// buffer, validating the magic (§4.1). Returns the same Kind
// family as every other operation; a magic mismatch is reported as
// KindInval, since spec.md treats it as fatal caller misuse rather
// than a missing path.
func Attach(buf []byte, opts AttachOptions) (*FS, error) {
	if len(buf) < BlockSize {
		return nil, newError("attach", "", KindInval)
	}
	if readMagic(buf) != Magic {
		return nil, newError("attach", "", KindInval)
	}
	if readVersion(buf) != Version {
		return nil, newError("attach", "", KindInval)
	}

	fs := &FS{
		buf:         buf,
		geo:         readStaticGeometry(buf),
		descriptors: newDescriptorTable(),
		cache:       newPathCache(),
		clock:       opts.Clock,
	}
	if fs.clock == nil {
		fs.clock = clock.Real()
	}
	return fs, nil
}

// FileInfo is the result of Stat/Lstat.
type FileInfo struct {
	Ino    uint32
	Mode   uint32
	Nlink  uint32
	UID    uint32
	GID    uint32
	Size   uint64
	Blocks uint32
	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
}

// IsDir reports whether the entry is a directory.
func (fi FileInfo) IsDir() bool { return fi.Mode&TypeMask == TypeDir }

// IsRegular reports whether the entry is a regular file.
func (fi FileInfo) IsRegular() bool { return fi.Mode&TypeMask == TypeReg }

// IsSymlink reports whether the entry is a symlink.
func (fi FileInfo) IsSymlink() bool { return fi.Mode&TypeMask == TypeLnk }

func fileInfoFromInode(ino uint32, in inode) FileInfo {
	return FileInfo{
		Ino:    ino,
		Mode:   in.Mode,
		Nlink:  in.Nlink,
		UID:    in.UID,
		GID:    in.GID,
		Size:   in.Size,
		Blocks: in.Blocks,
		Atime:  time.Unix(int64(in.Atime), 0).UTC(),
		Mtime:  time.Unix(int64(in.Mtime), 0).UTC(),
		Ctime:  time.Unix(int64(in.Ctime), 0).UTC(),
	}
}

// StatFSInfo is the result of [FS.Statfs].
type StatFSInfo struct {
	BlockSize    uint32
	TotalBlocks  uint32
	FreeBlocks   uint32
	TotalInodes  uint32
	FreeInodes   uint32
	NameLen      uint32
}

// DirEntry is one entry returned by [FS.Readdir].
type DirEntry struct {
	Name string
	Ino  uint32
	Type uint16
}
