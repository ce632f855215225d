// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import "sync"

// OpenFlag mirrors POSIX open(2) flag bits that affect SFS semantics
// (§6). Values match Linux's numeric assignment so a caller porting
// flags from a real syscall layer needs no translation table.
type OpenFlag int

const (
	ORDONLY OpenFlag = 0x0
	OWRONLY OpenFlag = 0x1
	ORDWR   OpenFlag = 0x2
	accessModeMask OpenFlag = 0x3

	OCREAT    OpenFlag = 0o100
	OEXCL     OpenFlag = 0o200
	OTRUNC    OpenFlag = 0o1000
	OAPPEND   OpenFlag = 0o2000
	ONOFOLLOW OpenFlag = 0o400000
)

func (f OpenFlag) has(bit OpenFlag) bool { return f&bit == bit }

// descriptor is one open-file-table entry: the resolved inode, the
// flags it was opened with, and its current byte position.
type descriptor struct {
	inode uint32
	flags OpenFlag
	pos   int64
	path  string // retained only for diagnostics
}

// descriptorTable is the per-context open-file registry (§4.7). It
// is never shared across contexts — each attached FS has its own, and
// each context assigns descriptor numbers independently, exactly as
// spec.md §5 requires.
type descriptorTable struct {
	mu      sync.Mutex
	next    int32
	entries map[int32]*descriptor
}

func newDescriptorTable() *descriptorTable {
	return &descriptorTable{
		next:    3, // fds 0-2 are conventionally reserved (stdio); SFS never assigns them.
		entries: make(map[int32]*descriptor),
	}
}

func (t *descriptorTable) add(d *descriptor) int32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	fd := t.next
	t.next++
	t.entries[fd] = d
	return fd
}

func (t *descriptorTable) get(fd int32) (*descriptor, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	d, ok := t.entries[fd]
	return d, ok
}

func (t *descriptorTable) remove(fd int32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[fd]; !ok {
		return false
	}
	delete(t.entries, fd)
	return true
}
