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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReassembler_SplitFrames(t *testing.T) {
	t.Parallel()

	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = byte(i * 3)
	}
	pkt, err := BuildPacket(0x02, payload)
	require.NoError(t, err)

	var r Reassembler
	var got [][]byte
	for _, f := range Split(pkt, 240) {
		got = append(got, r.Write(f)...)
	}

	require.Len(t, got, 1)
	assert.Equal(t, pkt, got[0])
	assert.Zero(t, r.Buffered())
}

func TestReassembler_MultiplePacketsInOneChunk(t *testing.T) {
	t.Parallel()

	first := BuildResponse(0x01, 0x00, []byte{0, 0, 0, 0})
	second := BuildResponse(0x02, 0x00, nil)
	third := BuildResponse(0x03, 0x00, nil)

	stream := append(append(append([]byte{}, first...), second...), third[:2]...)

	var r Reassembler
	got := r.Write(stream)
	require.Len(t, got, 2)
	assert.Equal(t, first, got[0])
	assert.Equal(t, second, got[1])
	assert.Equal(t, 2, r.Buffered())

	got = r.Write(third[2:])
	require.Len(t, got, 1)
	assert.Equal(t, third, got[0])
}

func TestReassembler_Reset(t *testing.T) {
	t.Parallel()

	var r Reassembler
	assert.Empty(t, r.Write([]byte{0x10}))
	assert.Equal(t, 1, r.Buffered())

	assert.Equal(t, 1, r.Reset())
	assert.Zero(t, r.Buffered())

	rsp := BuildResponse(0x02, 0x00, nil)
	got := r.Write(rsp)
	require.Len(t, got, 1)
	assert.Equal(t, rsp, got[0])
}

func TestReassembler_SkipsOversizedLength(t *testing.T) {
	t.Parallel()

	rsp := BuildResponse(0x01, 0x00, []byte{0, 0x10, 0, 0})

	tests := []struct {
		name    string
		noise   []byte
		dropped int
	}{
		{name: "single stray byte", noise: []byte{0xFF}, dropped: 1},
		{name: "corrupt length", noise: []byte{0x00, 0x7F, 0x55}, dropped: 3},
		{name: "no noise", noise: nil, dropped: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Reassembler{MaxPacketSize: MaxResponseSize}
			got := r.Write(append(append([]byte{}, tt.noise...), rsp...))

			require.Len(t, got, 1)
			assert.Equal(t, rsp, got[0])
			assert.Equal(t, tt.dropped, r.Dropped())
			assert.Zero(t, r.Buffered())
		})
	}
}
