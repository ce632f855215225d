// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sharedbuf provides the shared, host-acquired memory region
// that stands in for the "single shared buffer" the rest of sabfs
// assumes: an anonymous mmap region, not garbage-collected or moved,
// that every attached *sfs.FS context can hold a []byte view of.
// Acquiring it is a one-time allocation concern, separate from what
// sfs itself does with the bytes once it has them.
package sharedbuf

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// Region is one anonymous mmap allocation shared across goroutines
// (mmap's MAP_SHARED|MAP_ANONYMOUS combination keeps a region resident
// and visible to every thread sharing the same address space, and to
// child processes created by fork). Unlike the Go heap, the memory is
// never relocated by the garbage collector, so raw pointers into it
// taken by sfs's atomic free-list CAS loops stay valid for the
// region's whole lifetime.
type Region struct {
	mu     sync.Mutex
	id     uuid.UUID
	data   []byte
	closed bool
}

// Acquire allocates a new anonymous shared region of size bytes. Each
// region gets a random id, useful for distinguishing regions in
// diagnostics (sfs-inspect, sfs-bench) when more than one is open in
// the same process.
func Acquire(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("sharedbuf: size must be positive, got %d", size)
	}

	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("sharedbuf: mmap failed: %w", err)
	}

	return &Region{id: uuid.New(), data: data}, nil
}

// ID returns the region's random identifier, assigned at Acquire.
func (r *Region) ID() uuid.UUID { return r.id }

// Bytes returns the region's backing slice. The slice is shared —
// every goroutine holding the *Region sees the same bytes, the same
// way every execution context attached to sabfs's shared buffer does.
// Panics if the region has been released.
func (r *Region) Bytes() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		panic("sharedbuf: access to released region")
	}
	return r.data
}

// Release unmaps the region. Idempotent.
func (r *Region) Release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	err := unix.Munmap(r.data)
	r.data = nil
	if err != nil {
		return fmt.Errorf("sharedbuf: munmap failed: %w", err)
	}
	return nil
}
