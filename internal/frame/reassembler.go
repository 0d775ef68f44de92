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

// Reassembler rebuilds length-prefixed packets from an arbitrarily chunked
// byte stream. Both host packets and device responses carry a 2-byte
// little-endian length after which HeaderSize-LengthSize+length bytes
// follow, so the same reassembler serves both directions.
//
// When MaxPacketSize is set, a length prefix announcing a larger packet is
// treated as line noise: its first byte is discarded and the stream is
// scanned again from the next byte.
//
// Reassembler is not safe for concurrent use.
type Reassembler struct {
	buf           []byte
	MaxPacketSize int
	dropped       int
}

// Write appends chunk to the stream and returns every packet completed by it,
// in order. Returned slices are owned by the caller.
func (r *Reassembler) Write(chunk []byte) [][]byte {
	r.buf = append(r.buf, chunk...)

	var packets [][]byte
	for {
		total, ok := PacketLength(r.buf)
		if !ok {
			break
		}
		if r.MaxPacketSize > 0 && total > r.MaxPacketSize {
			r.buf = r.buf[1:]
			r.dropped++
			continue
		}
		if len(r.buf) < total {
			break
		}
		pkt := make([]byte, total)
		copy(pkt, r.buf[:total])
		packets = append(packets, pkt)
		r.buf = r.buf[total:]
	}

	if len(r.buf) == 0 {
		r.buf = nil
	}
	return packets
}

// Buffered returns the number of bytes held for an incomplete packet.
func (r *Reassembler) Buffered() int {
	return len(r.buf)
}

// Dropped returns the number of bytes discarded while resynchronizing.
func (r *Reassembler) Dropped() int {
	return r.dropped
}

// Reset discards any partially received packet and returns the number of
// bytes thrown away.
func (r *Reassembler) Reset() int {
	n := len(r.buf)
	r.dropped += n
	r.buf = nil
	return n
}
