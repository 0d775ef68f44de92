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

// ResponseHandler receives raw device responses from a transport.
type ResponseHandler func(response []byte)

// ResponseNotifier is implemented by transports that receive device
// responses themselves (serial bridges, polled co-processors). The engine
// registers its response path on construction.
type ResponseNotifier interface {
	SetResponseHandler(handler ResponseHandler)
}

// FrameSizer is implemented by transports whose link carries fewer bytes
// per write than the protocol default.
type FrameSizer interface {
	// MaxFrameSize returns the largest frame the link accepts, or 0 if
	// it has no limit of its own.
	MaxFrameSize() int
}

// effectiveFrameSize clamps the configured frame size to the transport's.
func effectiveFrameSize(t Transport, configured int) int {
	sizer, ok := t.(FrameSizer)
	if !ok {
		return configured
	}
	if limit := sizer.MaxFrameSize(); limit > 0 && limit < configured {
		return limit
	}
	return configured
}
