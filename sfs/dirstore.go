// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import (
	"encoding/binary"
	"errors"
)

// dirent is the decoded form of one 32-byte directory entry.
type dirent struct {
	Inode   uint32
	NameLen uint16
	Type    uint16
	Name    [MaxNameLen]byte
}

const (
	deOffInode   = 0
	deOffNameLen = 4
	deOffType    = 6
	deOffName    = 8
)

func decodeDirent(buf []byte) dirent {
	var d dirent
	d.Inode = binary.LittleEndian.Uint32(buf[deOffInode:])
	d.NameLen = binary.LittleEndian.Uint16(buf[deOffNameLen:])
	d.Type = binary.LittleEndian.Uint16(buf[deOffType:])
	copy(d.Name[:], buf[deOffName:deOffName+MaxNameLen])
	return d
}

func encodeDirent(buf []byte, d dirent) {
	binary.LittleEndian.PutUint32(buf[deOffInode:], d.Inode)
	binary.LittleEndian.PutUint16(buf[deOffNameLen:], d.NameLen)
	binary.LittleEndian.PutUint16(buf[deOffType:], d.Type)
	clear(buf[deOffName : deOffName+MaxNameLen])
	copy(buf[deOffName:], d.Name[:d.NameLen])
}

func (d dirent) name() string { return string(d.Name[:d.NameLen]) }

var errNameTooLong = errors.New("name too long")

func encodeName(name string) ([MaxNameLen]byte, uint16, error) {
	var out [MaxNameLen]byte
	if len(name) == 0 || len(name) > MaxNameLen {
		return out, 0, errNameTooLong
	}
	copy(out[:], name)
	return out, uint16(len(name)), nil
}

// direntsPerBlock is how many fixed-size slots fit in one data block.
const direntsPerBlock = BlockSize / DirentSize

// forEachDirentSlot calls fn for every slot (occupied or free) across
// every data block currently allocated to directory inode dirIno, in
// block then slot order. fn returning true stops the walk early.
func (fs *FS) forEachDirentSlot(in *inode, fn func(blockNo uint32, slotOff int64, d dirent) (stop bool)) {
	blockCount := (in.Size + BlockSize - 1) / BlockSize
	for fb := uint32(0); uint64(fb) < blockCount; fb++ {
		blockNo, ok := fs.blockForFile(in, fb)
		if !ok {
			continue
		}
		base := fs.geo.blockOffset(blockNo)
		for slot := 0; slot < direntsPerBlock; slot++ {
			off := base + int64(slot)*DirentSize
			d := decodeDirent(fs.buf[off : off+DirentSize])
			if fn(blockNo, off, d) {
				return
			}
		}
	}
}

// dirLookup scans dirIno's occupied slots for an exact, case-sensitive
// match on name (§4.5).
func (fs *FS) dirLookup(in *inode, name string) (uint32, bool) {
	var found uint32
	var ok bool
	fs.forEachDirentSlot(in, func(_ uint32, _ int64, d dirent) bool {
		if d.Inode != 0 && d.name() == name {
			found, ok = d.Inode, true
			return true
		}
		return false
	})
	return found, ok
}

// dirAddEntry places a new entry for name -> target in the first free
// slot of dirIno's data blocks, allocating a new block if none has
// room. Updates size/mtime/ctime on dirIno when the directory grows.
func (fs *FS) dirAddEntry(dirIno uint32, in *inode, name string, target uint32, dtype uint16) error {
	encoded, nameLen, err := encodeName(name)
	if err != nil {
		return newError("add_entry", name, KindInval)
	}
	entry := dirent{Inode: target, NameLen: nameLen, Type: dtype, Name: encoded}

	var placedAt int64 = -1
	fs.forEachDirentSlot(in, func(_ uint32, slotOff int64, d dirent) bool {
		if d.Inode == 0 {
			placedAt = slotOff
			return true
		}
		return false
	})

	if placedAt >= 0 {
		encodeDirent(fs.buf[placedAt:placedAt+DirentSize], entry)
		fs.touchDirMutation(dirIno, in)
		return nil
	}

	// No free slot in any existing block: grow the directory by one
	// block and place the entry at slot 0 of it. Directory size is
	// always an exact multiple of BlockSize, so the next block index
	// is simply size/BlockSize.
	fb := uint32(in.Size / BlockSize)
	if _, ok := fs.blockForFile(in, fb); !ok {
		if _, err := fs.allocateBlockForFile(dirIno, in, fb); err != nil {
			return err
		}
	}
	blockNo, _ := fs.blockForFile(in, fb)
	base := fs.geo.blockOffset(blockNo)
	encodeDirent(fs.buf[base:base+DirentSize], entry)

	newSize := uint64(fb+1) * BlockSize
	if newSize > in.Size {
		in.Size = newSize
	}
	fs.touchDirMutation(dirIno, in)
	return nil
}

func (fs *FS) touchDirMutation(dirIno uint32, in *inode) {
	t := nowSeconds(fs)
	in.Mtime, in.Ctime = t, t
	fs.writeInode(dirIno, *in)
}

// dirRemoveEntry zeroes the 32-byte slot holding name, marking it
// free, and returns the inode it referenced. No compaction is
// performed — empty trailing blocks remain allocated, per §4.5.
func (fs *FS) dirRemoveEntry(dirIno uint32, in *inode, name string) (uint32, bool) {
	var removed uint32
	var ok bool
	fs.forEachDirentSlot(in, func(_ uint32, slotOff int64, d dirent) bool {
		if d.Inode != 0 && d.name() == name {
			removed, ok = d.Inode, true
			clear(fs.buf[slotOff : slotOff+DirentSize])
			return true
		}
		return false
	})
	if ok {
		fs.touchDirMutation(dirIno, in)
	}
	return removed, ok
}

// dirIsEmpty reports whether dirIno has zero occupied slots. SFS does
// not materialize "." or ".." entries (path normalization handles ".."
// purely textually, per §4.6), so an empty directory has no entries
// at all.
func (fs *FS) dirIsEmpty(in *inode) bool {
	empty := true
	fs.forEachDirentSlot(in, func(_ uint32, _ int64, d dirent) bool {
		if d.Inode != 0 {
			empty = false
			return true
		}
		return false
	})
	return empty
}

// dirList returns every occupied entry of dirIno in on-disk order.
func (fs *FS) dirList(in *inode) []DirEntry {
	var out []DirEntry
	fs.forEachDirentSlot(in, func(_ uint32, _ int64, d dirent) bool {
		if d.Inode != 0 {
			out = append(out, DirEntry{Name: d.name(), Ino: d.Inode, Type: d.Type})
		}
		return false
	})
	return out
}
