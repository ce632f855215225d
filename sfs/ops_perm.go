// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "time"

// Chmod sets path's permission bits, leaving its type bits untouched
// (§6). mode's own type nibble, if any, is ignored.
func (fs *FS) Chmod(path string, mode uint32) error {
	ino, err := fs.resolve("chmod", path, true)
	if err != nil {
		return err
	}
	in := fs.readInode(ino)
	in.Mode = in.typ() | (mode &^ TypeMask)
	in.Ctime = nowSeconds(fs)
	fs.writeInode(ino, in)
	return nil
}

// Chown sets path's owning uid/gid (§6). A -1 value (passed as the
// all-ones uint32, matching chown(2)'s convention for "leave
// unchanged") skips that field.
func (fs *FS) Chown(path string, uid, gid uint32) error {
	const unchanged = ^uint32(0)
	ino, err := fs.resolve("chown", path, true)
	if err != nil {
		return err
	}
	in := fs.readInode(ino)
	if uid != unchanged {
		in.UID = uid
	}
	if gid != unchanged {
		in.GID = gid
	}
	in.Ctime = nowSeconds(fs)
	fs.writeInode(ino, in)
	return nil
}

// Utimes sets path's access and modification times explicitly (§6).
// A zero time.Time for either argument leaves that field unchanged.
func (fs *FS) Utimes(path string, atime, mtime time.Time) error {
	ino, err := fs.resolve("utimes", path, true)
	if err != nil {
		return err
	}
	in := fs.readInode(ino)
	if !atime.IsZero() {
		in.Atime = uint32(atime.Unix())
	}
	if !mtime.IsZero() {
		in.Mtime = uint32(mtime.Unix())
	}
	in.Ctime = nowSeconds(fs)
	fs.writeInode(ino, in)
	return nil
}
