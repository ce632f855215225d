// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sfssnapshot captures a diagnostic point-in-time copy of an
// sabfs buffer: the raw bytes, deterministically CBOR-framed with a
// header, compressed with a selectable codec, integrity-checked with
// a keyed BLAKE3 digest, and optionally sealed to one or more age
// recipients. It exists for inspection and transport of a filesystem
// image (sfs-inspect, test fixtures, bug reports) — it is not part of
// the core operation surface and carries no invariant of its own.
package sfssnapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"filippo.io/age"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
)

// Codec selects the compression algorithm applied to the buffer
// bytes before framing. These values are persisted in the header, so
// changing their numeric assignment breaks snapshots taken by an
// older build.
type Codec uint8

const (
	// CodecNone stores the buffer uncompressed.
	CodecNone Codec = 0
	// CodecZstd compresses with zstd at the default speed level —
	// the better ratio choice for an inode table and directory
	// entries, which compress well (mostly zero bytes and small
	// integers).
	CodecZstd Codec = 1
	// CodecLZ4 compresses with block-mode LZ4 — the faster choice
	// for large, mostly-incompressible data regions.
	CodecLZ4 Codec = 2
)

// digestDomainKey gives the snapshot integrity digest its own BLAKE3
// keyed-hash domain, separate from any other use of BLAKE3 in a
// program that also links sfssnapshot for something else.
var digestDomainKey = [32]byte{
	's', 'a', 'b', 'f', 's', '.', 's', 'n', 'a', 'p', 's', 'h', 'o', 't', '.', 'v', '1',
}

// header is the deterministic CBOR-encoded envelope preceding the
// (possibly compressed, possibly encrypted) buffer payload.
type header struct {
	Codec            Codec
	UncompressedSize int
	Digest           [32]byte
}

var encMode cbor.EncMode
var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("sfssnapshot: cbor encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("sfssnapshot: cbor decoder initialization failed: " + err.Error())
	}
}

// Options configures Write.
type Options struct {
	// Codec selects the compression algorithm. Zero value is
	// CodecNone.
	Codec Codec

	// Recipients, if non-empty, causes the framed snapshot to be
	// sealed with age to every listed recipient. Readers need one
	// matching identity to Read it.
	Recipients []age.Recipient
}

// Write encodes buf as a snapshot and writes it to w.
func Write(w io.Writer, buf []byte, opts Options) error {
	compressed, err := compress(buf, opts.Codec)
	if err != nil {
		return fmt.Errorf("sfssnapshot: compress: %w", err)
	}

	h := header{
		Codec:            opts.Codec,
		UncompressedSize: len(buf),
		Digest:           digest(buf),
	}
	headerBytes, err := encMode.Marshal(h)
	if err != nil {
		return fmt.Errorf("sfssnapshot: encode header: %w", err)
	}

	var framed bytes.Buffer
	if err := writeFrame(&framed, headerBytes); err != nil {
		return err
	}
	if err := writeFrame(&framed, compressed); err != nil {
		return err
	}

	if len(opts.Recipients) == 0 {
		_, err = w.Write(framed.Bytes())
		return err
	}

	encryptor, err := age.Encrypt(w, opts.Recipients...)
	if err != nil {
		return fmt.Errorf("sfssnapshot: creating age encryptor: %w", err)
	}
	if _, err := encryptor.Write(framed.Bytes()); err != nil {
		return fmt.Errorf("sfssnapshot: writing sealed snapshot: %w", err)
	}
	return encryptor.Close()
}

// Read decodes a snapshot produced by Write, verifying its digest. If
// identity is non-nil, the input is first unsealed with it; pass nil
// for an unsealed snapshot.
func Read(r io.Reader, identity age.Identity) ([]byte, error) {
	if identity != nil {
		decrypted, err := age.Decrypt(r, identity)
		if err != nil {
			return nil, fmt.Errorf("sfssnapshot: unsealing: %w", err)
		}
		r = decrypted
	}

	headerBytes, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("sfssnapshot: reading header frame: %w", err)
	}
	var h header
	if err := decMode.Unmarshal(headerBytes, &h); err != nil {
		return nil, fmt.Errorf("sfssnapshot: decoding header: %w", err)
	}

	payload, err := readFrame(r)
	if err != nil {
		return nil, fmt.Errorf("sfssnapshot: reading payload frame: %w", err)
	}

	buf, err := decompress(payload, h.Codec, h.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("sfssnapshot: decompress: %w", err)
	}
	if digest(buf) != h.Digest {
		return nil, fmt.Errorf("sfssnapshot: digest mismatch, snapshot is corrupt")
	}
	return buf, nil
}

func digest(buf []byte) [32]byte {
	hasher, err := blake3.NewKeyed(digestDomainKey[:])
	if err != nil {
		panic("sfssnapshot: blake3.NewKeyed: " + err.Error())
	}
	hasher.Write(buf)
	var out [32]byte
	copy(out[:], hasher.Sum(nil))
	return out
}

func compress(data []byte, codec Codec) ([]byte, error) {
	switch codec {
	case CodecNone:
		return data, nil
	case CodecZstd:
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer encoder.Close()
		return encoder.EncodeAll(data, nil), nil
	case CodecLZ4:
		bound := lz4.CompressBlockBound(len(data))
		dst := make([]byte, bound)
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Incompressible: lz4.CompressBlock returns 0 when it
			// declines to compress. The input is stored verbatim
			// under CodecLZ4; decompress treats an LZ4 payload whose
			// length equals UncompressedSize as this verbatim copy.
			return data, nil
		}
		return dst[:n], nil
	default:
		return nil, fmt.Errorf("unknown codec %d", codec)
	}
}

func decompress(data []byte, codec Codec, uncompressedSize int) ([]byte, error) {
	switch codec {
	case CodecNone:
		if len(data) != uncompressedSize {
			return nil, fmt.Errorf("uncompressed payload size %d != expected %d", len(data), uncompressedSize)
		}
		return data, nil
	case CodecZstd:
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer decoder.Close()
		return decoder.DecodeAll(data, make([]byte, 0, uncompressedSize))
	case CodecLZ4:
		if len(data) == uncompressedSize {
			// compress's incompressible fallback stored the buffer
			// verbatim; nothing to decode.
			return data, nil
		}
		dst := make([]byte, uncompressedSize)
		n, err := lz4.UncompressBlock(data, dst)
		if err != nil {
			return nil, err
		}
		if n != uncompressedSize {
			return nil, fmt.Errorf("lz4 decompressed %d bytes, expected %d", n, uncompressedSize)
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("unknown codec %d", codec)
	}
}

func writeFrame(w io.Writer, data []byte) error {
	var lenBytes [8]byte
	binary.LittleEndian.PutUint64(lenBytes[:], uint64(len(data)))
	if _, err := w.Write(lenBytes[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var lenBytes [8]byte
	if _, err := io.ReadFull(r, lenBytes[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint64(lenBytes[:])
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
