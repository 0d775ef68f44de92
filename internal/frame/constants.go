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

// Package frame provides packet framing and protocol constants for AMOTA communication
package frame

// Packet layout sizes
const (
	LengthSize  = 2 // Little-endian length field
	CommandSize = 1 // Command byte
	HeaderSize  = LengthSize + CommandSize
	CRCSize     = 4 // Little-endian CRC-32 trailer
)

// Transfer limits
const (
	MaxAppPayload     = 240  // Maximum bytes per transport write (BLE)
	FirmwareBlockSize = 4096 // Firmware bytes carried by one Data packet
	ImageHeaderSize   = 48   // Fixed firmware image header sent with the Header command
	MaxPayloadLength  = 0xFFFF - CRCSize
	MaxResponseSize   = 64 // Largest response a target sends, length prefix included
)

// Response layout offsets
const (
	ResponseCommandIndex = 2
	ResponseStatusIndex  = 3
	ResponseExtraIndex   = 4
	ResumeOffsetSize     = 4
)
