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

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Packet errors
var (
	ErrPacketTooShort   = errors.New("packet too short")
	ErrLengthMismatch   = errors.New("packet length field does not match packet size")
	ErrChecksumMismatch = errors.New("packet checksum mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large for packet length field")
)

// Packet is a decoded protocol packet.
type Packet struct {
	Payload []byte
	CRC     uint32
	Command byte
}

// PacketSize returns the wire size of a packet carrying payloadLen bytes.
func PacketSize(payloadLen int) int {
	return HeaderSize + payloadLen + CRCSize
}

// BuildPacket serializes a packet:
//
//	[len lo][len hi][cmd][payload...][crc0][crc1][crc2][crc3]
//
// The length field counts the payload plus the CRC trailer.
func BuildPacket(cmd byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}

	pkt := make([]byte, PacketSize(len(payload)))
	binary.LittleEndian.PutUint16(pkt[0:LengthSize], uint16(len(payload)+CRCSize))
	pkt[LengthSize] = cmd
	copy(pkt[HeaderSize:], payload)
	binary.LittleEndian.PutUint32(pkt[HeaderSize+len(payload):], CalculateCRC32(payload))

	return pkt, nil
}

// ParsePacket decodes and validates a serialized packet.
func ParsePacket(data []byte) (*Packet, error) {
	if len(data) < HeaderSize+CRCSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooShort, len(data))
	}

	total, _ := PacketLength(data)
	if total != len(data) {
		return nil, fmt.Errorf("%w: field says %d, got %d", ErrLengthMismatch, total, len(data))
	}

	payloadEnd := len(data) - CRCSize
	payload := make([]byte, payloadEnd-HeaderSize)
	copy(payload, data[HeaderSize:payloadEnd])
	crc := binary.LittleEndian.Uint32(data[payloadEnd:])

	if !ValidateCRC32(payload, crc) {
		return nil, fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrChecksumMismatch, crc, CalculateCRC32(payload))
	}

	return &Packet{
		Command: data[LengthSize],
		Payload: payload,
		CRC:     crc,
	}, nil
}

// PacketLength returns the total wire size announced by the length field at
// the start of data. The second result is false when fewer than LengthSize
// bytes are available.
func PacketLength(data []byte) (int, bool) {
	if len(data) < LengthSize {
		return 0, false
	}
	return HeaderSize + int(binary.LittleEndian.Uint16(data[0:LengthSize])), true
}

// BuildResponse serializes a device response:
//
//	[len lo][len hi][cmd][status][extra...]
//
// The length field counts the status byte and extra bytes.
func BuildResponse(cmd, status byte, extra []byte) []byte {
	rsp := make([]byte, HeaderSize+1+len(extra))
	binary.LittleEndian.PutUint16(rsp[0:LengthSize], uint16(1+len(extra)))
	rsp[ResponseCommandIndex] = cmd
	rsp[ResponseStatusIndex] = status
	copy(rsp[ResponseExtraIndex:], extra)
	return rsp
}
