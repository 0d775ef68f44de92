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

import "fmt"

// Command identifies an AMOTA protocol command.
type Command int

// Protocol commands. CommandUnknown is only ever produced by decoding and
// has no valid wire encoding.
const (
	CommandUnknown Command = iota
	CommandHeader
	CommandData
	CommandVerify
	CommandReset
	CommandMaxBoundary
)

// Byte returns the wire code for the command, 0 for CommandUnknown.
func (c Command) Byte() byte {
	switch c {
	case CommandHeader:
		return 0x01
	case CommandData:
		return 0x02
	case CommandVerify:
		return 0x03
	case CommandReset:
		return 0x04
	case CommandMaxBoundary:
		return 0x05
	default:
		return 0x00
	}
}

// CommandFromByte maps a wire code to a Command. Zero and unmapped codes
// decode to CommandUnknown.
func CommandFromByte(b byte) Command {
	switch b {
	case 0x01:
		return CommandHeader
	case 0x02:
		return CommandData
	case 0x03:
		return CommandVerify
	case 0x04:
		return CommandReset
	case 0x05:
		return CommandMaxBoundary
	default:
		return CommandUnknown
	}
}

func (c Command) String() string {
	switch c {
	case CommandHeader:
		return "FW_HEADER"
	case CommandData:
		return "FW_DATA"
	case CommandVerify:
		return "FW_VERIFY"
	case CommandReset:
		return "FW_RESET"
	case CommandMaxBoundary:
		return "MAX"
	case CommandUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}
