// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "encoding/binary"

// POSIX type bits within Mode's high nibble, matching the d_type
// encoding original_source/sabfs exposes in sabfs_stat_t/sabfs_dirent_t
// and spec.md §9's requirement not to substitute a local enum.
const (
	TypeMask = 0xF000
	TypeFIFO = 0x1000
	TypeDir  = 0x4000
	TypeReg  = 0x8000
	TypeLnk  = 0xA000
)

// POSIX d_type values stored verbatim in directory entries (§4.5, §9).
const (
	DTUnknown = 0
	DTFIFO    = 1
	DTDir     = 4
	DTReg     = 8
	DTLnk     = 10
)

// dtypeForMode maps an inode's type bits to the d_type value its
// directory entry must carry.
func dtypeForMode(mode uint32) uint16 {
	switch mode & TypeMask {
	case TypeDir:
		return DTDir
	case TypeLnk:
		return DTLnk
	case TypeReg:
		return DTReg
	default:
		return DTUnknown
	}
}

// Inode record byte offsets within its 128-byte slot (§3).
const (
	inOffMode      = 0
	inOffNlink     = 4
	inOffUid       = 8
	inOffGid       = 12
	inOffSizeLo    = 16
	inOffSizeHi    = 20
	inOffAtime     = 24
	inOffMtime     = 28
	inOffCtime     = 32
	inOffBlocks    = 36
	inOffDirect    = 40 // DirectBlocks * 4 bytes
	inOffIndirect  = inOffDirect + DirectBlocks*4
	inOffDblIndir  = inOffIndirect + 4
	inOffFlags     = inOffDblIndir + 4
)

// inode is the decoded, in-memory form of one 128-byte inode record.
type inode struct {
	Mode           uint32
	Nlink          uint32
	UID            uint32
	GID            uint32
	Size           uint64
	Atime          uint32
	Mtime          uint32
	Ctime          uint32
	Blocks         uint32
	Direct         [DirectBlocks]uint32
	Indirect       uint32
	DoubleIndirect uint32
	Flags          uint32
}

func (in *inode) isLive() bool { return in.Mode != 0 }
func (in *inode) typ() uint32  { return in.Mode & TypeMask }
func (in *inode) isDir() bool  { return in.typ() == TypeDir }
func (in *inode) isReg() bool  { return in.typ() == TypeReg }
func (in *inode) isLnk() bool  { return in.typ() == TypeLnk }

// readInode decodes inode ino's record from the buffer. Callers hold
// no lock; the caller's operation-level discipline (§5) is what makes
// this safe against concurrent writers of the *same* inode — SFS
// does not serialize that for them.
func (fs *FS) readInode(ino uint32) inode {
	off := fs.geo.inodeOffset(ino)
	rec := fs.buf[off : off+InodeSize]

	var in inode
	in.Mode = binary.LittleEndian.Uint32(rec[inOffMode:])
	in.Nlink = binary.LittleEndian.Uint32(rec[inOffNlink:])
	in.UID = binary.LittleEndian.Uint32(rec[inOffUid:])
	in.GID = binary.LittleEndian.Uint32(rec[inOffGid:])
	lo := binary.LittleEndian.Uint32(rec[inOffSizeLo:])
	hi := binary.LittleEndian.Uint32(rec[inOffSizeHi:])
	in.Size = uint64(hi)<<32 | uint64(lo)
	in.Atime = binary.LittleEndian.Uint32(rec[inOffAtime:])
	in.Mtime = binary.LittleEndian.Uint32(rec[inOffMtime:])
	in.Ctime = binary.LittleEndian.Uint32(rec[inOffCtime:])
	in.Blocks = binary.LittleEndian.Uint32(rec[inOffBlocks:])
	for i := 0; i < DirectBlocks; i++ {
		in.Direct[i] = binary.LittleEndian.Uint32(rec[inOffDirect+i*4:])
	}
	in.Indirect = binary.LittleEndian.Uint32(rec[inOffIndirect:])
	in.DoubleIndirect = binary.LittleEndian.Uint32(rec[inOffDblIndir:])
	in.Flags = binary.LittleEndian.Uint32(rec[inOffFlags:])
	return in
}

// writeInode encodes in back into inode ino's record.
func (fs *FS) writeInode(ino uint32, in inode) {
	off := fs.geo.inodeOffset(ino)
	rec := fs.buf[off : off+InodeSize]

	binary.LittleEndian.PutUint32(rec[inOffMode:], in.Mode)
	binary.LittleEndian.PutUint32(rec[inOffNlink:], in.Nlink)
	binary.LittleEndian.PutUint32(rec[inOffUid:], in.UID)
	binary.LittleEndian.PutUint32(rec[inOffGid:], in.GID)
	binary.LittleEndian.PutUint32(rec[inOffSizeLo:], uint32(in.Size))
	binary.LittleEndian.PutUint32(rec[inOffSizeHi:], uint32(in.Size>>32))
	binary.LittleEndian.PutUint32(rec[inOffAtime:], in.Atime)
	binary.LittleEndian.PutUint32(rec[inOffMtime:], in.Mtime)
	binary.LittleEndian.PutUint32(rec[inOffCtime:], in.Ctime)
	binary.LittleEndian.PutUint32(rec[inOffBlocks:], in.Blocks)
	for i := 0; i < DirectBlocks; i++ {
		binary.LittleEndian.PutUint32(rec[inOffDirect+i*4:], in.Direct[i])
	}
	binary.LittleEndian.PutUint32(rec[inOffIndirect:], in.Indirect)
	binary.LittleEndian.PutUint32(rec[inOffDblIndir:], in.DoubleIndirect)
	binary.LittleEndian.PutUint32(rec[inOffFlags:], in.Flags)
}

func nowSeconds(fs *FS) uint32 {
	return uint32(fs.clock.Now().Unix())
}
