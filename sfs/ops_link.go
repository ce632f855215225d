// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// Unlink removes a directory entry for a non-directory target and, if
// that was its last link, frees the inode and its blocks (§6). Unlink
// never follows a trailing symlink — it always removes the entry
// itself, matching unlink(2).
func (fs *FS) Unlink(path string) error {
	parentIno, name, err := fs.resolveParent("unlink", path)
	if err != nil {
		return err
	}
	parent := fs.readInode(parentIno)
	if !parent.isDir() {
		return newError("unlink", path, KindNotDir)
	}
	childIno, exists := fs.dirLookup(&parent, name)
	if !exists {
		return newError("unlink", path, KindNotFound)
	}
	child := fs.readInode(childIno)
	if child.isDir() {
		return newError("unlink", path, KindIsDir)
	}

	if _, ok := fs.dirRemoveEntry(parentIno, &parent, name); !ok {
		return newError("unlink", path, KindNotFound)
	}
	fs.cache.invalidatePrefix(parentCachePath(path))

	child.Nlink--
	if child.Nlink == 0 {
		fs.freeAllBlocks(&child)
		child.Mode = 0
	}
	fs.writeInode(childIno, child)
	return nil
}

// Symlink creates a new symlink at linkPath whose target text is
// target, stored verbatim and uninterpreted until the symlink is
// traversed (§4.6, §6).
func (fs *FS) Symlink(target, linkPath string) error {
	parentIno, name, err := fs.resolveParent("symlink", linkPath)
	if err != nil {
		return err
	}
	parent := fs.readInode(parentIno)
	if !parent.isDir() {
		return newError("symlink", linkPath, KindNotDir)
	}
	if _, exists := fs.dirLookup(&parent, name); exists {
		return newError("symlink", linkPath, KindExists)
	}

	ino, err := fs.allocInode()
	if err != nil {
		return err
	}
	t := nowSeconds(fs)
	in := inode{Mode: TypeLnk | 0o777, Nlink: 1, Atime: t, Mtime: t, Ctime: t}
	fs.writeInode(ino, in)

	if _, werr := fs.writeFileData(ino, &in, 0, []byte(target)); werr != nil {
		fs.freeAllBlocks(&in)
		in.Nlink = 0
		in.Mode = 0
		fs.writeInode(ino, in)
		return werr
	}
	in.Size = uint64(len(target))
	fs.writeInode(ino, in)

	if err := fs.dirAddEntry(parentIno, &parent, name, ino, DTLnk); err != nil {
		return err
	}
	fs.cache.invalidatePrefix(parentCachePath(linkPath))
	return nil
}

// Readlink returns a symlink's stored target text without resolving
// it (§6). path must name a symlink directly — a non-symlink leaf is
// KindInval.
func (fs *FS) Readlink(path string) (string, error) {
	ino, err := fs.resolve("readlink", path, false)
	if err != nil {
		return "", err
	}
	in := fs.readInode(ino)
	if !in.isLnk() {
		return "", newError("readlink", path, KindInval)
	}
	return fs.readSymlinkTarget(&in)
}

// Link creates newPath as an additional hard link to the existing
// non-directory file at oldPath (§6). Hard links to directories are
// never permitted, matching link(2).
func (fs *FS) Link(oldPath, newPath string) error {
	ino, err := fs.resolve("link", oldPath, true)
	if err != nil {
		return err
	}
	in := fs.readInode(ino)
	if in.isDir() {
		return newError("link", oldPath, KindIsDir)
	}

	parentIno, name, err := fs.resolveParent("link", newPath)
	if err != nil {
		return err
	}
	parent := fs.readInode(parentIno)
	if !parent.isDir() {
		return newError("link", newPath, KindNotDir)
	}
	if _, exists := fs.dirLookup(&parent, name); exists {
		return newError("link", newPath, KindExists)
	}

	dtype := dtypeForMode(in.Mode)
	if err := fs.dirAddEntry(parentIno, &parent, name, ino, dtype); err != nil {
		return err
	}
	in.Nlink++
	t := nowSeconds(fs)
	in.Ctime = t
	fs.writeInode(ino, in)
	fs.cache.invalidatePrefix(parentCachePath(newPath))
	return nil
}

// Rename moves the entry at oldPath to newPath (§6). If newPath
// already exists it is replaced, subject to the same type-matching
// rules as a standalone Unlink/Rmdir of the destination would apply:
// a file cannot replace a directory or vice versa, and a destination
// directory must be empty. Both sides of the move are run against the
// same calling context with no interleaving from any other operation
// on this FS value, giving rename its atomicity within a context
// (P8) — SFS makes no cross-context atomicity promise beyond that.
func (fs *FS) Rename(oldPath, newPath string) error {
	oldParentIno, oldName, err := fs.resolveParent("rename", oldPath)
	if err != nil {
		return err
	}
	oldParent := fs.readInode(oldParentIno)
	if !oldParent.isDir() {
		return newError("rename", oldPath, KindNotDir)
	}
	srcIno, exists := fs.dirLookup(&oldParent, oldName)
	if !exists {
		return newError("rename", oldPath, KindNotFound)
	}
	src := fs.readInode(srcIno)

	newParentIno, newName, err := fs.resolveParent("rename", newPath)
	if err != nil {
		return err
	}
	newParent := fs.readInode(newParentIno)
	if !newParent.isDir() {
		return newError("rename", newPath, KindNotDir)
	}

	var dstWasDir bool
	if dstIno, exists := fs.dirLookup(&newParent, newName); exists {
		if dstIno == srcIno {
			return nil
		}
		dst := fs.readInode(dstIno)
		if dst.isDir() != src.isDir() {
			if dst.isDir() {
				return newError("rename", newPath, KindIsDir)
			}
			return newError("rename", newPath, KindNotDir)
		}
		if dst.isDir() && !fs.dirIsEmpty(&dst) {
			return newError("rename", newPath, KindNotEmpty)
		}
		dstWasDir = dst.isDir()
		fs.dirRemoveEntry(newParentIno, &newParent, newName)
		dst.Nlink--
		if dst.isDir() {
			dst.Nlink = 0
		}
		if dst.Nlink == 0 {
			fs.freeAllBlocks(&dst)
			dst.Mode = 0
		}
		fs.writeInode(dstIno, dst)
	}

	dtype := dtypeForMode(src.Mode)
	if err := fs.dirAddEntry(newParentIno, &newParent, newName, srcIno, dtype); err != nil {
		return err
	}
	fs.dirRemoveEntry(oldParentIno, &oldParent, oldName)

	// A moved directory credits the arriving parent's nlink and debits
	// the departing one, same as Rmdir/Mkdir would for a standalone
	// removal and creation; a directory replaced at the destination
	// debits newParent's nlink exactly as Rmdir would have. Both only
	// apply to newParent, so in the same-parent case they net against
	// each other rather than compounding.
	if src.isDir() {
		changed := dstWasDir
		if oldParentIno != newParentIno {
			oldParent.Nlink--
			newParent.Nlink++
			fs.writeInode(oldParentIno, oldParent)
			changed = true
		}
		if dstWasDir {
			newParent.Nlink--
		}
		if changed {
			fs.writeInode(newParentIno, newParent)
		}
	}

	fs.cache.invalidatePrefix(oldPath)
	fs.cache.invalidatePrefix(newPath)
	fs.cache.invalidatePrefix(parentCachePath(oldPath))
	fs.cache.invalidatePrefix(parentCachePath(newPath))
	return nil
}
