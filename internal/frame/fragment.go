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

// Split cuts data into consecutive frames of at most maxFrameSize bytes.
// Frames share the backing array of data and must not be modified.
// A non-positive maxFrameSize falls back to MaxAppPayload.
func Split(data []byte, maxFrameSize int) [][]byte {
	if maxFrameSize <= 0 {
		maxFrameSize = MaxAppPayload
	}
	if len(data) == 0 {
		return nil
	}

	frames := make([][]byte, 0, (len(data)+maxFrameSize-1)/maxFrameSize)
	for idx := 0; idx < len(data); {
		end := idx + maxFrameSize
		if end > len(data) {
			end = len(data)
		}
		frames = append(frames, data[idx:end:end])
		idx = end
	}
	return frames
}
