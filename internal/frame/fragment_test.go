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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		length     int
		maxFrame   int
		wantFrames int
	}{
		{name: "empty", length: 0, maxFrame: 240, wantFrames: 0},
		{name: "single byte", length: 1, maxFrame: 240, wantFrames: 1},
		{name: "exact fit", length: 240, maxFrame: 240, wantFrames: 1},
		{name: "one over", length: 241, maxFrame: 240, wantFrames: 2},
		{name: "verify packet", length: 7, maxFrame: 240, wantFrames: 1},
		{name: "header packet", length: 55, maxFrame: 240, wantFrames: 1},
		{name: "full data packet", length: 4103, maxFrame: 240, wantFrames: 18},
		{name: "tiny frames", length: 10, maxFrame: 3, wantFrames: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := make([]byte, tt.length)
			for i := range data {
				data[i] = byte(i)
			}

			frames := Split(data, tt.maxFrame)
			require.Len(t, frames, tt.wantFrames)

			var joined []byte
			for _, f := range frames {
				assert.LessOrEqual(t, len(f), tt.maxFrame)
				assert.NotEmpty(t, f)
				joined = append(joined, f...)
			}
			if tt.length > 0 {
				assert.Equal(t, data, joined)
			}
		})
	}
}

func TestSplit_DefaultFrameSize(t *testing.T) {
	t.Parallel()

	frames := Split(bytes.Repeat([]byte{0x01}, 500), 0)
	require.Len(t, frames, 3)
	assert.Len(t, frames[0], MaxAppPayload)
	assert.Len(t, frames[2], 500-2*MaxAppPayload)
}

func TestSplit_FramesDoNotAlias(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3, 4, 5}
	frames := Split(data, 2)
	require.Len(t, frames, 3)

	// Capacity is clipped so appending to one frame cannot clobber the next.
	frames[0] = append(frames[0], 0xFF)
	assert.Equal(t, []byte{3, 4}, frames[1])
}
