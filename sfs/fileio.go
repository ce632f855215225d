// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sfs

// readFileData copies up to len(buf) bytes of in's content starting
// at offset into buf, returning the number of bytes actually copied.
// Bytes that fall within a hole (an unallocated block index) read as
// zero, matching spec.md's sparse-file support. Reading at or past
// in.Size returns (0, nil) — legitimate end-of-file, never an error.
func (fs *FS) readFileData(in *inode, offset int64, buf []byte) (int, error) {
	if offset < 0 || offset >= int64(in.Size) {
		return 0, nil
	}
	available := int64(in.Size) - offset
	toRead := len(buf)
	if int64(toRead) > available {
		toRead = int(available)
	}

	read := 0
	for read < toRead {
		pos := offset + int64(read)
		fb := uint32(pos / BlockSize)
		blockOff := pos % BlockSize
		chunk := BlockSize - int(blockOff)
		if remaining := toRead - read; chunk > remaining {
			chunk = remaining
		}

		blockNo, ok := fs.blockForFile(in, fb)
		if !ok {
			clear(buf[read : read+chunk])
		} else {
			base := fs.geo.blockOffset(blockNo)
			copy(buf[read:read+chunk], fs.buf[base+blockOff:base+blockOff+int64(chunk)])
		}
		read += chunk
	}
	return read, nil
}

// writeFileData copies data into in's content starting at offset,
// allocating blocks on demand for holes. If a block allocation fails
// partway through, the bytes already written are kept (a short
// write, not a masked error) — only a write that manages to write
// zero bytes before running out of space returns the NoSpace error
// itself, per §7's "never to mask an error" rule.
func (fs *FS) writeFileData(ino uint32, in *inode, offset int64, data []byte) (int, error) {
	written := 0
	for written < len(data) {
		pos := offset + int64(written)
		fb := uint32(pos / BlockSize)
		blockOff := pos % BlockSize
		chunk := BlockSize - int(blockOff)
		if remaining := len(data) - written; chunk > remaining {
			chunk = remaining
		}

		blockNo, ok := fs.blockForFile(in, fb)
		if !ok {
			var err error
			blockNo, err = fs.allocateBlockForFile(ino, in, fb)
			if err != nil {
				if written > 0 {
					return written, nil
				}
				return 0, err
			}
		}

		base := fs.geo.blockOffset(blockNo)
		copy(fs.buf[base+blockOff:base+blockOff+int64(chunk)], data[written:written+chunk])
		written += chunk
	}
	return written, nil
}
