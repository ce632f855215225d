// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

import (
	"testing"
	"time"

	"github.com/tappress/sabfs/internal/clock"
)

func TestCtimeAdvancesWithInjectedClock(t *testing.T) {
	t.Parallel()
	fake := clock.Fake(time.Unix(1_700_000_000, 0))
	buf := make([]byte, BlockSize*16)
	fs, err := Initialize(buf, Options{Clock: fake})
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	mustWriteFile(t, fs, "/f", "x")
	first, err := fs.Stat("/f")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	fake.Advance(5 * time.Second)
	if err := fs.Chmod("/f", 0o600); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	second, err := fs.Stat("/f")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}

	if !second.Ctime.After(first.Ctime) {
		t.Errorf("ctime did not advance: first=%v second=%v", first.Ctime, second.Ctime)
	}
	if second.Ctime.Sub(first.Ctime) != 5*time.Second {
		t.Errorf("ctime delta = %v, want 5s", second.Ctime.Sub(first.Ctime))
	}
}

func TestAttachRejectsBadMagic(t *testing.T) {
	t.Parallel()
	buf := make([]byte, BlockSize*4)
	if _, err := Attach(buf, AttachOptions{}); !IsInval(err) {
		t.Errorf("Attach(zeroed buffer) = %v, want Inval", err)
	}
}

func TestAttachSeesInitializedState(t *testing.T) {
	t.Parallel()
	buf := make([]byte, BlockSize*16)
	if _, err := Initialize(buf, Options{}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	attached, err := Attach(buf, AttachOptions{})
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if _, err := attached.Stat("/"); err != nil {
		t.Fatalf("stat(/) via attached context: %v", err)
	}
}
