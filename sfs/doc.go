// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sfs implements an in-memory, thread-shared POSIX-style
// filesystem that lives entirely inside a single contiguous byte
// buffer. Multiple execution contexts attach to the same buffer with
// [Initialize] or [Attach] and operate on it directly through the
// methods on [FS] — there is no message passing or proxy layer
// between contexts.
//
// # Layout
//
// The buffer is divided, bottom to top, into a one-block superblock,
// a fixed-size inode table, and a data-block region. All integers are
// little-endian. See layout.go and superblock.go for the exact byte
// offsets; any implementation that reproduces those bytes is
// interoperable with this one.
//
// # Concurrency
//
// The free-block list and the next-free-inode counter are the only
// state mutated through atomic compare-and-swap; everything else —
// individual inode records, directory entries, file data — is left
// to the caller to serialize, the same contract POSIX gives
// concurrent writers of the same file descriptor. FS itself holds no
// lock over the buffer.
//
// # Errors
//
// Every exported operation returns either a value or exactly one
// *[Error] carrying a [Kind] from the taxonomy in errors.go. Callers
// branch on kind with the Is* helpers (IsNotFound, IsExists, ...)
// rather than comparing error strings.
package sfs
