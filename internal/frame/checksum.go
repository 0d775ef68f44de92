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

package frame

import "hash/crc32"

// crcTable is the 256-entry lookup table for the reflected zlib/Ethernet
// polynomial 0xEDB88320.
var crcTable = crc32.MakeTable(crc32.IEEE)

// CalculateCRC32 returns the CRC-32 of data as carried in a packet trailer.
// An empty payload has no checksum on the wire, so it yields 0 rather than
// the raw CRC-32 of empty input.
func CalculateCRC32(data []byte) uint32 {
	if len(data) == 0 {
		return 0
	}
	return crc32.Update(0, crcTable, data)
}

// ValidateCRC32 reports whether want matches the checksum of data.
func ValidateCRC32(data []byte, want uint32) bool {
	return CalculateCRC32(data) == want
}
