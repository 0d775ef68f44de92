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

package testing

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-amota/internal/frame"
)

// AMOTA command codes as seen on the wire
const (
	CmdHeader byte = 0x01
	CmdData   byte = 0x02
	CmdVerify byte = 0x03
	CmdReset  byte = 0x04
)

// Device error codes
const (
	StatusOK       byte = 0x00
	StatusCRCError byte = 0x01
)

// BuildHeaderResponse creates a Header acknowledgment carrying a resume offset
func BuildHeaderResponse(status byte, resumeOffset uint32) []byte {
	extra := make([]byte, 4)
	binary.LittleEndian.PutUint32(extra, resumeOffset)
	return frame.BuildResponse(CmdHeader, status, extra)
}

// BuildAckResponse creates a plain acknowledgment for cmd
func BuildAckResponse(cmd, status byte) []byte {
	return frame.BuildResponse(cmd, status, nil)
}

// BuildFirmwareImage creates an image of an ImageHeaderSize header announcing
// dataSize bytes followed by dataSize bytes of deterministic data.
func BuildFirmwareImage(dataSize int) []byte {
	img := make([]byte, frame.ImageHeaderSize+dataSize)
	for i := 0; i < frame.ImageHeaderSize; i++ {
		img[i] = byte(0xA0 + i)
	}
	binary.LittleEndian.PutUint32(img[8:12], uint32(dataSize))
	for i := 0; i < dataSize; i++ {
		img[frame.ImageHeaderSize+i] = byte(i*31 + i/251)
	}
	return img
}
