// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// Mkdir creates an empty directory at path. The parent must already
// exist and be a directory; the leaf must not (§6).
func (fs *FS) Mkdir(path string, mode uint32) error {
	parentIno, name, err := fs.resolveParent("mkdir", path)
	if err != nil {
		return err
	}
	parent := fs.readInode(parentIno)
	if !parent.isDir() {
		return newError("mkdir", path, KindNotDir)
	}
	if _, exists := fs.dirLookup(&parent, name); exists {
		return newError("mkdir", path, KindExists)
	}

	ino, err := fs.allocInode()
	if err != nil {
		return err
	}
	t := nowSeconds(fs)
	in := inode{Mode: TypeDir | (mode &^ TypeMask), Nlink: 2, Atime: t, Mtime: t, Ctime: t}
	fs.writeInode(ino, in)

	if err := fs.dirAddEntry(parentIno, &parent, name, ino, DTDir); err != nil {
		return err
	}
	parent.Nlink++
	fs.writeInode(parentIno, parent)
	fs.cache.invalidatePrefix(parentCachePath(path))
	return nil
}

// Rmdir removes an empty directory at path. The root is never
// removable (I5); a non-empty directory is KindNotEmpty (§6).
func (fs *FS) Rmdir(path string) error {
	parentIno, name, err := fs.resolveParent("rmdir", path)
	if err != nil {
		return err
	}
	parent := fs.readInode(parentIno)
	if !parent.isDir() {
		return newError("rmdir", path, KindNotDir)
	}
	childIno, exists := fs.dirLookup(&parent, name)
	if !exists {
		return newError("rmdir", path, KindNotFound)
	}
	if childIno == RootInode {
		return newError("rmdir", path, KindInval)
	}
	child := fs.readInode(childIno)
	if !child.isDir() {
		return newError("rmdir", path, KindNotDir)
	}
	if !fs.dirIsEmpty(&child) {
		return newError("rmdir", path, KindNotEmpty)
	}

	if _, ok := fs.dirRemoveEntry(parentIno, &parent, name); !ok {
		return newError("rmdir", path, KindNotFound)
	}
	parent.Nlink--
	fs.writeInode(parentIno, parent)

	fs.freeAllBlocks(&child)
	child.Nlink = 0
	child.Mode = 0
	fs.writeInode(childIno, child)

	fs.cache.invalidatePrefix(path)
	fs.cache.invalidatePrefix(parentCachePath(path))
	return nil
}

// Readdir lists the entries of the directory at path in on-disk order
// (§6). It does not follow a trailing symlink differently from Stat —
// path must resolve (following symlinks) to a directory.
func (fs *FS) Readdir(path string) ([]DirEntry, error) {
	ino, err := fs.resolve("readdir", path, true)
	if err != nil {
		return nil, err
	}
	in := fs.readInode(ino)
	if !in.isDir() {
		return nil, newError("readdir", path, KindNotDir)
	}
	return fs.dirList(&in), nil
}
