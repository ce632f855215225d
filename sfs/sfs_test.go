// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import (
	"io"
	"strconv"
	"testing"
)

func newTestFS(t *testing.T, blocks int) *FS {
	t.Helper()
	buf := make([]byte, BlockSize*blocks)
	fs, err := Initialize(buf, Options{})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return fs
}

func TestCreateWriteReadBack(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 64)

	if err := fs.Mkdir("/etc", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	fd, err := fs.Open("/etc/hostname", OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	n, err := fs.Write(fd, []byte("hello\n"))
	if err != nil || n != 6 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	if err := fs.Close(fd); err != nil {
		t.Fatalf("close: %v", err)
	}

	info, err := fs.Stat("/etc/hostname")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != 6 {
		t.Errorf("size = %d, want 6", info.Size)
	}
	if info.Mode&0o7777 != 0o644 {
		t.Errorf("mode = %o, want 0644", info.Mode&0o7777)
	}

	fd2, err := fs.Open("/etc/hostname", ORDONLY, 0)
	if err != nil {
		t.Fatalf("open rdonly: %v", err)
	}
	buf := make([]byte, 16)
	n, err = fs.Read(fd2, buf)
	if err != nil || n != 6 {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	if string(buf[:6]) != "hello\n" {
		t.Errorf("read content = %q", buf[:6])
	}
	fs.Close(fd2)
}

func TestSymlinkFollowAndLresolve(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 64)
	if err := fs.Mkdir("/etc", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, fs, "/etc/hostname", "hello\n")

	if err := fs.Symlink("/etc/hostname", "/hn"); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	info, err := fs.Stat("/hn")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != 6 {
		t.Errorf("stat(/hn).size = %d, want 6", info.Size)
	}

	lin, err := fs.Lstat("/hn")
	if err != nil {
		t.Fatalf("lstat: %v", err)
	}
	if !lin.IsSymlink() {
		t.Errorf("lstat(/hn).isSymlink = false, want true")
	}

	target, err := fs.Readlink("/hn")
	if err != nil {
		t.Fatalf("readlink: %v", err)
	}
	if target != "/etc/hostname" {
		t.Errorf("readlink = %q, want /etc/hostname", target)
	}

	if _, err := fs.Open("/hn", ONOFOLLOW|ORDONLY, 0); err == nil {
		t.Errorf("open(NOFOLLOW) on symlink succeeded, want error")
	} else if !IsInval(err) {
		t.Errorf("open(NOFOLLOW) error = %v, want KindInval", err)
	}
}

func TestSparseHole(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 64)

	fd, err := fs.Open("/sparse", OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	pos, err := fs.Lseek(fd, 10*BlockSize, io.SeekStart)
	if err != nil || pos != 10*BlockSize {
		t.Fatalf("lseek: pos=%d err=%v", pos, err)
	}
	n, err := fs.Write(fd, []byte("x"))
	if err != nil || n != 1 {
		t.Fatalf("write: n=%d err=%v", n, err)
	}
	fs.Close(fd)

	info, err := fs.Stat("/sparse")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != 10*BlockSize+1 {
		t.Errorf("size = %d, want %d", info.Size, 10*BlockSize+1)
	}
	if info.Blocks != 1 {
		t.Errorf("blocks = %d, want 1", info.Blocks)
	}

	fd2, err := fs.Open("/sparse", ORDONLY, 0)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	buf := make([]byte, BlockSize)
	n, err = fs.Pread(fd2, buf, 0)
	if err != nil || n != BlockSize {
		t.Fatalf("pread: n=%d err=%v", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %d, want 0", i, b)
		}
	}
	fs.Close(fd2)
}

func TestRenameShadowsAndUnlink(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 64)
	mustWriteFile(t, fs, "/a", "aaa")
	mustWriteFile(t, fs, "/b", "bbb")

	if err := fs.Rename("/a", "/b"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := fs.Stat("/a"); !IsNotFound(err) {
		t.Errorf("stat(/a) = %v, want NotFound", err)
	}
	info, err := fs.Stat("/b")
	if err != nil {
		t.Fatalf("stat(/b): %v", err)
	}
	if info.Size != 3 {
		t.Errorf("stat(/b).size = %d, want 3", info.Size)
	}
}

func TestRenameDirectoryOverEmptyDirectorySameParent(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 64)
	if err := fs.Mkdir("/a", 0o755); err != nil {
		t.Fatalf("mkdir /a: %v", err)
	}
	if err := fs.Mkdir("/b", 0o755); err != nil {
		t.Fatalf("mkdir /b: %v", err)
	}

	root, err := fs.Stat("/")
	if err != nil {
		t.Fatalf("stat /: %v", err)
	}
	before := root.Nlink

	if err := fs.Rename("/a", "/b"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	root, err = fs.Stat("/")
	if err != nil {
		t.Fatalf("stat / after rename: %v", err)
	}
	// /a never leaves root, so only /b's removal (a directory, from
	// root) moves root.Nlink — by -1, not the -1-then-+1 a cross-parent
	// move would see.
	if root.Nlink != before-1 {
		t.Errorf("root.Nlink after same-parent dir-over-dir rename = %d, want %d", root.Nlink, before-1)
	}
	if _, err := fs.Stat("/a"); !IsNotFound(err) {
		t.Errorf("stat(/a) = %v, want NotFound", err)
	}
	if _, err := fs.Stat("/b"); err != nil {
		t.Errorf("stat(/b): %v", err)
	}
}

func TestRenameDirectoryOverEmptyDirectoryCrossParent(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 64)
	if err := fs.Mkdir("/src", 0o755); err != nil {
		t.Fatalf("mkdir /src: %v", err)
	}
	if err := fs.Mkdir("/dst", 0o755); err != nil {
		t.Fatalf("mkdir /dst: %v", err)
	}
	if err := fs.Mkdir("/src/a", 0o755); err != nil {
		t.Fatalf("mkdir /src/a: %v", err)
	}
	if err := fs.Mkdir("/dst/b", 0o755); err != nil {
		t.Fatalf("mkdir /dst/b: %v", err)
	}

	dstBefore, err := fs.Stat("/dst")
	if err != nil {
		t.Fatalf("stat /dst: %v", err)
	}
	srcBefore, err := fs.Stat("/src")
	if err != nil {
		t.Fatalf("stat /src: %v", err)
	}

	if err := fs.Rename("/src/a", "/dst/b"); err != nil {
		t.Fatalf("rename: %v", err)
	}

	// /dst/b's removal and /src/a's arrival are both against /dst: a
	// directory left, a directory arrived, net change is zero. /src
	// only loses a: its nlink drops by exactly 1.
	dstAfter, err := fs.Stat("/dst")
	if err != nil {
		t.Fatalf("stat /dst after rename: %v", err)
	}
	if dstAfter.Nlink != dstBefore.Nlink {
		t.Errorf("dst.Nlink after cross-parent dir-over-dir rename = %d, want unchanged %d", dstAfter.Nlink, dstBefore.Nlink)
	}
	srcAfter, err := fs.Stat("/src")
	if err != nil {
		t.Fatalf("stat /src after rename: %v", err)
	}
	if srcAfter.Nlink != srcBefore.Nlink-1 {
		t.Errorf("src.Nlink after cross-parent dir-over-dir rename = %d, want %d", srcAfter.Nlink, srcBefore.Nlink-1)
	}

	if _, err := fs.Stat("/src/a"); !IsNotFound(err) {
		t.Errorf("stat(/src/a) = %v, want NotFound", err)
	}
	if _, err := fs.Stat("/dst/b"); err != nil {
		t.Errorf("stat(/dst/b): %v", err)
	}
}

func TestCapacityExhaustionAndReclaim(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)

	fd, err := fs.Open("/big", OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	chunk := make([]byte, BlockSize)
	wrote := 0
	for {
		n, werr := fs.Write(fd, chunk)
		wrote += n
		if werr != nil {
			if !IsNoSpace(werr) {
				t.Fatalf("write: %v", werr)
			}
			break
		}
		if n < len(chunk) {
			break
		}
	}
	fs.Close(fd)

	sfi := fs.Statfs()
	if sfi.FreeBlocks != 0 {
		t.Errorf("free_blocks = %d, want 0", sfi.FreeBlocks)
	}

	infoBefore, err := fs.Stat("/big")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if err := fs.Unlink("/big"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	// /big fills 11 data blocks, spilling past the 8 direct pointers, so
	// it also owns one indirect pointer block. Blocks counts only data
	// blocks; unlink frees the pointer block as well.
	after := fs.Statfs()
	if after.FreeBlocks != infoBefore.Blocks+1 {
		t.Errorf("free_blocks after unlink = %d, want %d", after.FreeBlocks, infoBefore.Blocks+1)
	}
}

func TestRmdirRoot(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)
	if err := fs.Rmdir("/"); err == nil {
		t.Errorf("rmdir(/) succeeded, want error")
	}
	root, err := fs.Stat("/")
	if err != nil {
		t.Fatalf("stat(/): %v", err)
	}
	if !root.IsDir() || root.Nlink < 2 {
		t.Errorf("root = %+v, want dir with nlink >= 2", root)
	}
}

func TestRmdirNotEmpty(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)
	if err := fs.Mkdir("/d", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, fs, "/d/f", "x")
	if err := fs.Rmdir("/d"); !IsNotEmpty(err) {
		t.Errorf("rmdir(/d) = %v, want NotEmpty", err)
	}
	if err := fs.Unlink("/d/f"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	if err := fs.Rmdir("/d"); err != nil {
		t.Errorf("rmdir(/d) after empty = %v", err)
	}
}

func TestOpenCreatExcl(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)
	mustWriteFile(t, fs, "/f", "x")
	if _, err := fs.Open("/f", OCREAT|OEXCL|OWRONLY, 0o644); !IsExists(err) {
		t.Errorf("open CREAT|EXCL on existing = %v, want Exists", err)
	}
}

func TestTruncateFreesBlocks(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 32)
	fd, err := fs.Open("/t", OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	data := make([]byte, BlockSize*4)
	if _, err := fs.Write(fd, data); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs.Close(fd)

	before := fs.Statfs().FreeBlocks
	if err := fs.Truncate("/t", 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	after := fs.Statfs().FreeBlocks
	if after <= before {
		t.Errorf("free_blocks after truncate = %d, want > %d", after, before)
	}
	info, err := fs.Stat("/t")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size != 0 || info.Blocks != 0 {
		t.Errorf("stat after truncate = %+v, want zeroed", info)
	}
}

func TestWriteBeyondMaxFileSizeRejected(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 32)
	fd, err := fs.Open("/big", OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer fs.Close(fd)

	// A Pwrite straddling MaxFileSize must fail without touching the
	// block map at all, not panic or corrupt a neighboring block.
	if _, err := fs.Pwrite(fd, []byte("12345"), int64(MaxFileSize)-2); !IsNoSpace(err) {
		t.Errorf("pwrite past MaxFileSize = %v, want KindNoSpace", err)
	}

	before := fs.Statfs().FreeBlocks
	if _, err := fs.Pwrite(fd, []byte("x"), int64(MaxFileSize)); !IsNoSpace(err) {
		t.Errorf("pwrite at MaxFileSize = %v, want KindNoSpace", err)
	}
	if after := fs.Statfs().FreeBlocks; after != before {
		t.Errorf("free_blocks changed on a rejected write: before=%d after=%d", before, after)
	}
}

func TestSymlinkDepthCap(t *testing.T) {
	t.Parallel()
	// 256 blocks give 64 inodes: enough for root, /target and the 41
	// symlinks below.
	fs := newTestFS(t, 256)
	mustWriteFile(t, fs, "/target", "x")

	// Build a chain /link0 -> /target, /link1 -> /link0, ..., and
	// resolve through the far end. Exactly maxSymlinkDepth follows
	// must succeed; one more must fail with LOOP (P5).
	prev := "/target"
	for i := 0; i < maxSymlinkDepth; i++ {
		name := "/link" + strconv.Itoa(i)
		if err := fs.Symlink(prev, name); err != nil {
			t.Fatalf("symlink %d: %v", i, err)
		}
		prev = name
	}
	if _, err := fs.Stat(prev); err != nil {
		t.Fatalf("stat through %d links: %v", maxSymlinkDepth, err)
	}

	overflow := "/linkover"
	if err := fs.Symlink(prev, overflow); err != nil {
		t.Fatalf("symlink: %v", err)
	}
	if _, err := fs.Stat(overflow); !IsLoop(err) {
		t.Errorf("stat through %d links = %v, want Loop", maxSymlinkDepth+1, err)
	}
}

func TestReaddirListsEntries(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)
	if err := fs.Mkdir("/d", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, fs, "/d/a", "a")
	mustWriteFile(t, fs, "/d/b", "b")

	entries, err := fs.Readdir("/d")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name] = true
		if e.Type != DTReg {
			t.Errorf("entry %q type = %d, want DTReg", e.Name, e.Type)
		}
	}
	if !names["a"] || !names["b"] {
		t.Errorf("entries = %+v, missing a or b", entries)
	}
}

func TestChmodChownIdempotent(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)
	mustWriteFile(t, fs, "/f", "x")

	if err := fs.Chmod("/f", 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	if err := fs.Chmod("/f", 0o600); err != nil {
		t.Fatalf("chmod again: %v", err)
	}
	info, err := fs.Stat("/f")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode&0o7777 != 0o600 {
		t.Errorf("mode = %o, want 0600", info.Mode&0o7777)
	}

	if err := fs.Chown("/f", 42, 42); err != nil {
		t.Fatalf("chown: %v", err)
	}
	if err := fs.Chown("/f", 42, 42); err != nil {
		t.Fatalf("chown again: %v", err)
	}
	info, _ = fs.Stat("/f")
	if info.UID != 42 || info.GID != 42 {
		t.Errorf("uid/gid = %d/%d, want 42/42", info.UID, info.GID)
	}
}

func mustWriteFile(t *testing.T, fs *FS, path, content string) {
	t.Helper()
	fd, err := fs.Open(path, OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	if _, err := fs.Write(fd, []byte(content)); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	if err := fs.Close(fd); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}
