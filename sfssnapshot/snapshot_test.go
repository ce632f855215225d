// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfssnapshot

import (
	"bytes"
	"testing"
)

func TestRoundTripUncompressed(t *testing.T) {
	t.Parallel()
	original := bytes.Repeat([]byte("sabfs"), 1000)

	var buf bytes.Buffer
	if err := Write(&buf, original, Options{Codec: CodecNone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(original))
	}
}

func TestRoundTripZstd(t *testing.T) {
	t.Parallel()
	original := bytes.Repeat([]byte{0}, 64*1024)

	var buf bytes.Buffer
	if err := Write(&buf, original, Options{Codec: CodecZstd}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.Len() >= len(original) {
		t.Errorf("compressed size %d not smaller than original %d", buf.Len(), len(original))
	}
	got, err := Read(&buf, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch after zstd")
	}
}

func TestRoundTripLZ4(t *testing.T) {
	t.Parallel()
	original := bytes.Repeat([]byte{0xAB}, 32*1024)

	var buf bytes.Buffer
	if err := Write(&buf, original, Options{Codec: CodecLZ4}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Read(&buf, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Errorf("round trip mismatch after lz4")
	}
}

func TestDigestMismatchRejected(t *testing.T) {
	t.Parallel()
	original := []byte("hello sabfs")

	var buf bytes.Buffer
	if err := Write(&buf, original, Options{Codec: CodecNone}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF

	if _, err := Read(bytes.NewReader(corrupted), nil); err == nil {
		t.Errorf("Read accepted corrupted snapshot, want digest mismatch error")
	}
}
