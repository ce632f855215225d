// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sfsfuse bridges a live *sfs.FS onto a host directory as a
// read-only FUSE mount, so tools built for a real filesystem (editors,
// `find`, a browser's file picker) can inspect an in-memory SFS image
// without a dedicated export step.
package sfsfuse

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/tappress/sabfs/sfs"
)

// Options configures the mount.
type Options struct {
	// Mountpoint is the host directory the filesystem appears
	// under. Created if missing.
	Mountpoint string

	// FS is the attached SFS handle to expose. Required.
	FS *sfs.FS

	// AllowOther permits other users to access the mount. Requires
	// user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Logger receives diagnostic messages. Defaults to an error-level
	// text logger on stderr, matching how a quiet CLI mount should
	// behave.
	Logger *slog.Logger
}

// Mount mounts fs read-only at options.Mountpoint. The caller must
// call Unmount on the returned Server when done.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, errors.New("sfsfuse: mountpoint is required")
	}
	if options.FS == nil {
		return nil, errors.New("sfsfuse: fs is required")
	}
	if options.Logger == nil {
		options.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, err
	}

	root := &node{fs: options.FS, path: "/"}

	entryTimeout := time.Second
	attrTimeout := time.Second
	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout: &entryTimeout,
		AttrTimeout:  &attrTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "sabfs",
			Name:       "sabfs",
			AllowOther: options.AllowOther,
			Options:    []string{"ro"},
		},
	})
	if err != nil {
		return nil, err
	}
	options.Logger.Info("sabfs FUSE mount ready", "mountpoint", options.Mountpoint)
	return server, nil
}

// node is a lazily-resolved view of one SFS path. FUSE asks for
// children by name via Lookup; each lookup creates a fresh node
// rather than caching a tree, since sfs.FS is the single source of
// truth and may be mutated by another context concurrently.
type node struct {
	gofuse.Inode
	fs   *sfs.FS
	path string
}

var (
	_ gofuse.InodeEmbedder  = (*node)(nil)
	_ gofuse.NodeLookuper   = (*node)(nil)
	_ gofuse.NodeReaddirer  = (*node)(nil)
	_ gofuse.NodeGetattrer  = (*node)(nil)
	_ gofuse.NodeOpener     = (*node)(nil)
	_ gofuse.NodeReadlinker = (*node)(nil)
)

func (n *node) Getattr(ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	info, err := n.fs.Lstat(n.path)
	if err != nil {
		return errnoFor(err)
	}
	fillAttr(&out.Attr, info)
	return 0
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	childPath := joinPath(n.path, name)
	info, err := n.fs.Lstat(childPath)
	if err != nil {
		return nil, errnoFor(err)
	}
	fillAttr(&out.Attr, info)

	mode := modeFor(info)
	child := &node{fs: n.fs, path: childPath}
	return n.NewPersistentInode(ctx, child, gofuse.StableAttr{Mode: mode, Ino: uint64(info.Ino)}), 0
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	entries, err := n.fs.Readdir(n.path)
	if err != nil {
		return nil, errnoFor(err)
	}
	out := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, fuse.DirEntry{Name: e.Name, Ino: uint64(e.Ino), Mode: dtypeToMode(e.Type)})
	}
	return &sliceDirStream{entries: out}, 0
}

// sliceDirStream implements gofuse.DirStream from a precomputed slice
// of entries.
type sliceDirStream struct {
	entries []fuse.DirEntry
	index   int
}

func (s *sliceDirStream) HasNext() bool { return s.index < len(s.entries) }

func (s *sliceDirStream) Next() (fuse.DirEntry, syscall.Errno) {
	if s.index >= len(s.entries) {
		return fuse.DirEntry{}, syscall.EINVAL
	}
	entry := s.entries[s.index]
	s.index++
	return entry, 0
}

func (s *sliceDirStream) Close() {}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	fd, err := n.fs.Open(n.path, sfs.ORDONLY, 0)
	if err != nil {
		return nil, 0, errnoFor(err)
	}
	return &fileHandle{fs: n.fs, fd: fd}, fuse.FOPEN_KEEP_CACHE, 0
}

func (n *node) Readlink(ctx context.Context) ([]byte, syscall.Errno) {
	target, err := n.fs.Readlink(n.path)
	if err != nil {
		return nil, errnoFor(err)
	}
	return []byte(target), 0
}

// fileHandle backs one open descriptor. Reads are stateless pread
// calls against the SFS descriptor's inode, so concurrent FUSE reads
// at different offsets never race on a shared position field.
type fileHandle struct {
	fs *sfs.FS
	fd int32
}

var (
	_ gofuse.FileReader  = (*fileHandle)(nil)
	_ gofuse.FileReleaser = (*fileHandle)(nil)
)

func (h *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := h.fs.Pread(h.fd, dest, off)
	if err != nil {
		return nil, errnoFor(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *fileHandle) Release(ctx context.Context) syscall.Errno {
	h.fs.Close(h.fd)
	return 0
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}

func modeFor(info sfs.FileInfo) uint32 {
	switch {
	case info.IsDir():
		return syscall.S_IFDIR | 0o555
	case info.IsSymlink():
		return syscall.S_IFLNK | 0o777
	default:
		return syscall.S_IFREG | 0o444
	}
}

func dtypeToMode(dtype uint16) uint32 {
	switch dtype {
	case sfs.DTDir:
		return syscall.S_IFDIR
	case sfs.DTLnk:
		return syscall.S_IFLNK
	default:
		return syscall.S_IFREG
	}
}

func fillAttr(attr *fuse.Attr, info sfs.FileInfo) {
	attr.Mode = modeFor(info)
	attr.Size = info.Size
	attr.Nlink = info.Nlink
	attr.Owner = fuse.Owner{Uid: info.UID, Gid: info.GID}
	attr.Atime = uint64(info.Atime.Unix())
	attr.Mtime = uint64(info.Mtime.Unix())
	attr.Ctime = uint64(info.Ctime.Unix())
}

func errnoFor(err error) syscall.Errno {
	switch {
	case sfs.IsNotFound(err):
		return syscall.ENOENT
	case sfs.IsExists(err):
		return syscall.EEXIST
	case sfs.IsDir(err):
		return syscall.EISDIR
	case sfs.IsNotDir(err):
		return syscall.ENOTDIR
	case sfs.IsNoSpace(err):
		return syscall.ENOSPC
	case sfs.IsLoop(err):
		return syscall.ELOOP
	case sfs.IsNotEmpty(err):
		return syscall.ENOTEMPTY
	case sfs.IsInval(err):
		return syscall.EINVAL
	default:
		return syscall.EIO
	}
}
