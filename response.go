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
	"encoding/binary"
	"fmt"

	"github.com/ZaparooProject/go-amota/internal/frame"
)

// Response is a decoded device response.
type Response struct {
	// Raw holds the undecoded bytes as received.
	Raw []byte
	// Extra holds any bytes following the error code.
	Extra []byte
	// ResumeOffset is the device-reported resume offset. Only Header
	// responses carry one.
	ResumeOffset uint32
	Command      Command
	Code         byte
}

// OK reports whether the device accepted the command.
func (r Response) OK() bool {
	return r.Code == 0
}

// DecodeResponse decodes raw response bytes:
//
//	[len lo][len hi][cmd][error code][extra...]
//
// For Header responses the first four extra bytes are a little-endian
// resume offset; a Header response without them resumes from zero.
func DecodeResponse(raw []byte) (Response, error) {
	if len(raw) == 0 {
		return Response{}, ErrEmptyResponse
	}
	if len(raw) <= frame.ResponseStatusIndex {
		return Response{}, fmt.Errorf("%w: %d bytes", ErrResponseTooShort, len(raw))
	}

	rsp := Response{
		Raw:     append([]byte(nil), raw...),
		Command: CommandFromByte(raw[frame.ResponseCommandIndex]),
		Code:    raw[frame.ResponseStatusIndex],
	}
	if len(raw) > frame.ResponseExtraIndex {
		rsp.Extra = rsp.Raw[frame.ResponseExtraIndex:]
	}

	if rsp.Command == CommandHeader && len(rsp.Extra) >= frame.ResumeOffsetSize {
		rsp.ResumeOffset = binary.LittleEndian.Uint32(rsp.Extra[:frame.ResumeOffsetSize])
	}

	return rsp, nil
}
