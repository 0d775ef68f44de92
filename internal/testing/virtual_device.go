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

package testing

import (
	"sync"

	"github.com/ZaparooProject/go-amota/internal/frame"
)

// VirtualDevice simulates an AMOTA target. It reassembles incoming frames
// into packets, validates their CRC and answers every complete packet the
// way a target would.
type VirtualDevice struct {
	errorCodes   map[byte]byte
	silent       map[byte]bool
	replyCommand map[byte]byte
	header       []byte
	data         []byte
	commands     []byte
	reasm        frame.Reassembler
	frames       int
	resumeOffset uint32
	mu           sync.Mutex
}

// NewVirtualDevice creates a target that acknowledges everything
func NewVirtualDevice() *VirtualDevice {
	return &VirtualDevice{
		errorCodes:   make(map[byte]byte),
		silent:       make(map[byte]bool),
		replyCommand: make(map[byte]byte),
	}
}

// SetResumeOffset sets the offset reported in the Header acknowledgment
func (d *VirtualDevice) SetResumeOffset(offset uint32) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resumeOffset = offset
}

// FailCommand makes the target answer cmd with a non-zero error code
func (d *VirtualDevice) FailCommand(cmd, code byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errorCodes[cmd] = code
}

// SilenceCommand makes the target never answer cmd
func (d *VirtualDevice) SilenceCommand(cmd byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent[cmd] = true
}

// ReplyWithCommand makes the target answer cmd with reply as command byte
func (d *VirtualDevice) ReplyWithCommand(cmd, reply byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.replyCommand[cmd] = reply
}

// Receive consumes one frame and returns the responses for every packet it
// completed.
func (d *VirtualDevice) Receive(chunk []byte) [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames++

	var responses [][]byte
	for _, raw := range d.reasm.Write(chunk) {
		if rsp := d.handlePacket(raw); rsp != nil {
			responses = append(responses, rsp)
		}
	}
	return responses
}

func (d *VirtualDevice) handlePacket(raw []byte) []byte {
	cmd := raw[frame.LengthSize]
	d.commands = append(d.commands, cmd)

	status := StatusOK
	pkt, err := frame.ParsePacket(raw)
	if err != nil {
		status = StatusCRCError
	} else {
		switch cmd {
		case CmdHeader:
			d.header = append([]byte(nil), pkt.Payload...)
		case CmdData:
			d.data = append(d.data, pkt.Payload...)
		}
	}

	if d.silent[cmd] {
		return nil
	}
	if code, ok := d.errorCodes[cmd]; ok {
		status = code
	}

	replyCmd := cmd
	if reply, ok := d.replyCommand[cmd]; ok {
		replyCmd = reply
	}

	if cmd == CmdHeader {
		rsp := BuildHeaderResponse(status, d.resumeOffset)
		rsp[frame.ResponseCommandIndex] = replyCmd
		return rsp
	}
	return BuildAckResponse(replyCmd, status)
}

// Commands returns the command byte of every packet received, in order
func (d *VirtualDevice) Commands() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.commands...)
}

// Header returns the payload of the last Header packet
func (d *VirtualDevice) Header() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.header...)
}

// Data returns the concatenated payloads of all Data packets
func (d *VirtualDevice) Data() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]byte(nil), d.data...)
}

// FrameCount returns the number of frames received
func (d *VirtualDevice) FrameCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.frames
}

// CountCommand returns how many packets carried cmd
func (d *VirtualDevice) CountCommand(cmd byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.commands {
		if c == cmd {
			n++
		}
	}
	return n
}
