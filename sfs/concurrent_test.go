// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import (
	"strconv"
	"sync"
	"testing"
)

// TestConcurrentAllocationDisjointInodes exercises Scenario E: two
// goroutines each open(CREAT) many disjoint paths against the same
// buffer concurrently. Every created path must resolve afterward to
// a distinct, freshly-zeroed inode, and the two goroutines' inode
// sets must never intersect.
func TestConcurrentAllocationDisjointInodes(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 4096)
	if err := fs.Mkdir("/x", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := fs.Mkdir("/y", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	const perGoroutine = 500
	var wg sync.WaitGroup
	inodes := make([][]uint32, 2)

	worker := func(idx int, dir string) {
		defer wg.Done()
		got := make([]uint32, 0, perGoroutine)
		for i := 0; i < perGoroutine; i++ {
			path := dir + "/f" + strconv.Itoa(i)
			fd, err := fs.Open(path, OCREAT|OWRONLY, 0o644)
			if err != nil {
				t.Errorf("open %s: %v", path, err)
				return
			}
			fs.Close(fd)
			info, err := fs.Stat(path)
			if err != nil {
				t.Errorf("stat %s: %v", path, err)
				return
			}
			if info.Size != 0 {
				t.Errorf("stat %s size = %d, want 0", path, info.Size)
			}
			got = append(got, info.Ino)
		}
		inodes[idx] = got
	}

	wg.Add(2)
	go worker(0, "/x")
	go worker(1, "/y")
	wg.Wait()

	seen := make(map[uint32]bool)
	for _, group := range inodes {
		for _, ino := range group {
			if seen[ino] {
				t.Fatalf("inode %d allocated more than once across goroutines", ino)
			}
			seen[ino] = true
		}
	}
}

// TestFreeBlockConservation checks P1: the sum of allocated and free
// data blocks always equals the data region's total, both before and
// after a sequence of allocations and frees.
func TestFreeBlockConservation(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 32)
	total := fs.geo.dataBlockCount

	// Block 0 of the data region is permanently reserved as a sentinel
	// (fs.go's Initialize) — it is never threaded onto the free list
	// and never pointed to by any inode, so it is neither "free" nor
	// "used" by the walks below and must be accounted for separately.
	const reservedBlocks = 1

	check := func(label string) {
		free := fs.countFreeBlocks()
		used := countUsedBlocks(fs)
		if free+used+reservedBlocks != total {
			t.Fatalf("%s: free(%d) + used(%d) + reserved(%d) != total(%d)", label, free, used, reservedBlocks, total)
		}
	}
	check("initial")

	fd, err := fs.Open("/f", OCREAT|OWRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	fs.Write(fd, make([]byte, BlockSize*5))
	fs.Close(fd)
	check("after write")

	if err := fs.Truncate("/f", 0); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	check("after truncate")

	if err := fs.Unlink("/f"); err != nil {
		t.Fatalf("unlink: %v", err)
	}
	check("after unlink")
}

// countUsedBlocks walks every live inode's block map — directories
// and symlinks included, since both own data blocks through the same
// direct/indirect/double-indirect pointers a regular file does — and
// counts distinct data and pointer blocks it owns. Used only by tests
// to cross-check the free list against ground truth.
func countUsedBlocks(fs *FS) uint32 {
	var used uint32
	lastIno := fs.nextFreeInode()
	for ino := uint32(0); ino < lastIno; ino++ {
		in := fs.readInode(ino)
		if !in.isLive() {
			continue
		}
		for _, b := range in.Direct {
			if b != 0 {
				used++
			}
		}
		if in.Indirect != 0 {
			used += 1 + countPointerBlockUsage(fs, in.Indirect, 0)
		}
		if in.DoubleIndirect != 0 {
			used += 1 + countPointerBlockUsage(fs, in.DoubleIndirect, 1)
		}
	}
	return used
}

func countPointerBlockUsage(fs *FS, blockNo uint32, depth int) uint32 {
	var used uint32
	for i := uint32(0); i < PointersPerBlock; i++ {
		target := fs.readPointer(blockNo, i)
		if target == 0 {
			continue
		}
		if depth == 0 {
			used++
		} else {
			used += 1 + countPointerBlockUsage(fs, target, depth-1)
		}
	}
	return used
}

// TestDirectoryReferentialIntegrity checks P2: every occupied
// directory entry names an inode whose mode is non-zero.
func TestDirectoryReferentialIntegrity(t *testing.T) {
	t.Parallel()
	fs := newTestFS(t, 16)
	if err := fs.Mkdir("/d", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mustWriteFile(t, fs, "/d/a", "a")
	mustWriteFile(t, fs, "/d/b", "b")
	if err := fs.Unlink("/d/a"); err != nil {
		t.Fatalf("unlink: %v", err)
	}

	din := fs.readInode(mustLookup(t, fs, RootInode, "d"))
	for _, e := range fs.dirList(&din) {
		target := fs.readInode(e.Ino)
		if target.Mode == 0 {
			t.Errorf("entry %q -> inode %d has mode 0", e.Name, e.Ino)
		}
	}
}

func mustLookup(t *testing.T, fs *FS, dirIno uint32, name string) uint32 {
	t.Helper()
	in := fs.readInode(dirIno)
	ino, ok := fs.dirLookup(&in, name)
	if !ok {
		t.Fatalf("lookup %q in inode %d failed", name, dirIno)
	}
	return ino
}
