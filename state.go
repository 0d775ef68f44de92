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
	"context"

	"github.com/looplab/fsm"
)

// Transfer states as reported by Engine.State.
const (
	StateIdle           = "idle"
	StateOpeningFile    = "opening_file"
	StateSendingHeader  = "sending_header"
	StateAwaitHeaderAck = "await_header_ack"
	StateSeekOffset     = "seek_offset"
	StateSendingData    = "sending_data"
	StateSendingVerify  = "sending_verify"
	StateAwaitVerifyAck = "await_verify_ack"
	StateSuccess        = "success"
	StateStopped        = "stopped"
	StateFailed         = "failed"
)

const (
	eventOpen        = "open"
	eventSendHeader  = "send_header"
	eventHeaderSent  = "header_sent"
	eventHeaderAcked = "header_acked"
	eventSendData    = "send_data"
	eventSendVerify  = "send_verify"
	eventVerifySent  = "verify_sent"
	eventSucceed     = "succeed"
	eventStop        = "stop"
	eventFail        = "fail"
)

var activeStates = []string{
	StateIdle,
	StateOpeningFile,
	StateSendingHeader,
	StateAwaitHeaderAck,
	StateSeekOffset,
	StateSendingData,
	StateSendingVerify,
	StateAwaitVerifyAck,
}

// newTransferFSM builds the state machine for one transfer. onEnter is
// called after every transition.
func newTransferFSM(onEnter func(from, to, event string)) *fsm.FSM {
	return fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventOpen, Src: []string{StateIdle}, Dst: StateOpeningFile},
			{Name: eventSendHeader, Src: []string{StateOpeningFile}, Dst: StateSendingHeader},
			{Name: eventHeaderSent, Src: []string{StateSendingHeader}, Dst: StateAwaitHeaderAck},
			{Name: eventHeaderAcked, Src: []string{StateAwaitHeaderAck}, Dst: StateSeekOffset},
			{Name: eventSendData, Src: []string{StateSeekOffset}, Dst: StateSendingData},
			{Name: eventSendVerify, Src: []string{StateSendingData}, Dst: StateSendingVerify},
			{Name: eventVerifySent, Src: []string{StateSendingVerify}, Dst: StateAwaitVerifyAck},
			{Name: eventSucceed, Src: []string{StateAwaitVerifyAck}, Dst: StateSuccess},
			{Name: eventStop, Src: activeStates, Dst: StateStopped},
			{Name: eventFail, Src: activeStates, Dst: StateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				if onEnter != nil {
					onEnter(e.Src, e.Dst, e.Event)
				}
			},
		},
	)
}

// terminalEvent returns the event that moves a transfer into the state
// matching its final status.
func terminalEvent(status Status) string {
	switch status {
	case StatusSuccess:
		return eventSucceed
	case StatusStopped:
		return eventStop
	default:
		return eventFail
	}
}
