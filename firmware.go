// go-amota
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-amota.
//
// go-amota is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-amota is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-amota; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package amota

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ZaparooProject/go-amota/internal/frame"
)

// Firmware is a sequential source of firmware image bytes.
type Firmware interface {
	io.ReadCloser

	// Skip advances the read position by n bytes.
	Skip(n int64) error

	// Size returns the number of bytes that were readable when the source
	// was opened.
	Size() int64
}

// FirmwareOpener opens the firmware image at path.
type FirmwareOpener func(path string) (Firmware, error)

type seekFirmware struct {
	rs     io.ReadSeeker
	closer io.Closer
	size   int64
	closed bool
}

// OpenFirmwareFile opens a firmware image from the file system.
func OpenFirmwareFile(path string) (Firmware, error) {
	f, err := os.Open(path) //nolint:gosec // path is supplied by the caller on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open firmware %s: %w", path, err)
	}

	fw, err := newSeekFirmware(f, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return fw, nil
}

// NewFirmwareReader wraps an in-memory or otherwise seekable image. Size is
// the number of bytes between the current position and the end.
func NewFirmwareReader(rs io.ReadSeeker) (Firmware, error) {
	return newSeekFirmware(rs, nil)
}

// NewFirmwareBytes wraps a byte slice as a Firmware.
func NewFirmwareBytes(data []byte) Firmware {
	return &seekFirmware{rs: bytes.NewReader(data), size: int64(len(data))}
}

func newSeekFirmware(rs io.ReadSeeker, closer io.Closer) (*seekFirmware, error) {
	cur, err := rs.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to query firmware position: %w", err)
	}
	end, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to query firmware size: %w", err)
	}
	if _, err := rs.Seek(cur, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind firmware: %w", err)
	}
	return &seekFirmware{rs: rs, closer: closer, size: end - cur}, nil
}

func (f *seekFirmware) Read(p []byte) (int, error) {
	if f.closed {
		return 0, ErrFirmwareClosed
	}
	n, err := f.rs.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("failed to read firmware: %w", err)
	}
	return n, err //nolint:wrapcheck // io.EOF must reach io.ReadFull unwrapped
}

func (f *seekFirmware) Skip(n int64) error {
	if f.closed {
		return ErrFirmwareClosed
	}
	if _, err := f.rs.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("failed to skip %d firmware bytes: %w", n, err)
	}
	return nil
}

func (f *seekFirmware) Size() int64 {
	return f.size
}

func (f *seekFirmware) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	if f.closer != nil {
		if err := f.closer.Close(); err != nil {
			return fmt.Errorf("failed to close firmware: %w", err)
		}
	}
	return nil
}

// ImageHeader is the fixed header at the start of a firmware image. Only
// the firmware size is interpreted; the rest is forwarded to the target
// untouched.
type ImageHeader struct {
	Raw          []byte
	FirmwareSize uint32
}

// imageSizeOffset is the position of the firmware size field in the header.
const imageSizeOffset = 8

// ParseImageHeader parses the first ImageHeaderSize bytes of b.
func ParseImageHeader(b []byte) (*ImageHeader, error) {
	if len(b) < frame.ImageHeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrInvalidHeader, len(b), frame.ImageHeaderSize)
	}
	raw := make([]byte, frame.ImageHeaderSize)
	copy(raw, b)
	return &ImageHeader{
		Raw:          raw,
		FirmwareSize: binary.LittleEndian.Uint32(raw[imageSizeOffset : imageSizeOffset+4]),
	}, nil
}

// ReadImageHeader reads and parses the image header from the start of fw.
func ReadImageHeader(fw io.Reader) (*ImageHeader, error) {
	buf := make([]byte, frame.ImageHeaderSize)
	n, err := io.ReadFull(fw, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read image header: %w", err)
	}
	return ParseImageHeader(buf[:n])
}
