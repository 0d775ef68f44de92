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

// Status is the upgrade status reported to observers. The numeric values
// are stable and shared with the mobile plugins that consume them.
type Status int

// Upgrade statuses. StatusUpgrading is the only non-terminal status.
const (
	StatusSuccess              Status = 0
	StatusCRCError             Status = 1
	StatusInvalidHeaderInfo    Status = 2
	StatusInvalidPackageLength Status = 3
	StatusInsufficientBuffer   Status = 4
	StatusInsufficientFlash    Status = 5
	StatusUnknownError         Status = 6
	StatusMaxBoundary          Status = 7
	StatusFileReadError        Status = 8
	StatusCmdSendError         Status = 9
	StatusUpgrading            Status = 10
	StatusStopped              Status = 11
	StatusNotInitialized       Status = 12
)

var statusNames = map[Status]string{
	StatusSuccess:              "success",
	StatusCRCError:             "crc error",
	StatusInvalidHeaderInfo:    "invalid header info",
	StatusInvalidPackageLength: "invalid package length",
	StatusInsufficientBuffer:   "insufficient buffer",
	StatusInsufficientFlash:    "insufficient flash",
	StatusUnknownError:         "unknown error",
	StatusMaxBoundary:          "boundary exceeded",
	StatusFileReadError:        "file read error",
	StatusCmdSendError:         "command send error",
	StatusUpgrading:            "upgrading",
	StatusStopped:              "stopped",
	StatusNotInitialized:       "not initialized",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Code returns the numeric status code.
func (s Status) Code() int {
	return int(s)
}

// IsTerminal reports whether the status ends a transfer.
func (s Status) IsTerminal() bool {
	return s != StatusUpgrading
}

// IsError reports whether the status describes a failure.
func (s Status) IsError() bool {
	switch s {
	case StatusSuccess, StatusUpgrading, StatusStopped:
		return false
	default:
		return true
	}
}

// StatusForCommand returns the failure status reported when sending cmd
// fails or its acknowledgment never arrives.
func StatusForCommand(cmd Command) Status {
	switch cmd {
	case CommandHeader:
		return StatusInvalidHeaderInfo
	case CommandData:
		return StatusInvalidPackageLength
	case CommandVerify:
		return StatusCmdSendError
	default:
		return StatusUnknownError
	}
}
