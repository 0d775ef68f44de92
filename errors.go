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
	"errors"
	"fmt"
)

// Transfer errors
var (
	ErrTransferInProgress = errors.New("firmware transfer already in progress")
	ErrTransferStopped    = errors.New("firmware transfer stopped")
	ErrResponseTimeout    = errors.New("timed out waiting for device response")
	ErrEngineClosed       = errors.New("engine closed")
	ErrInvalidParameter   = errors.New("invalid parameter")
)

// Response errors
var (
	ErrEmptyResponse    = errors.New("empty device response")
	ErrResponseTooShort = errors.New("device response too short")
	ErrUnknownCommand   = errors.New("unknown command in device response")
)

// Firmware errors
var (
	ErrInvalidHeader  = errors.New("invalid firmware image header")
	ErrEmptyFirmware  = errors.New("firmware file is empty")
	ErrShortRead      = errors.New("no firmware data read")
	ErrFirmwareClosed = errors.New("firmware source closed")
)

// Transport errors
var (
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportClosed  = errors.New("transport closed")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrNotConnected     = errors.New("transport not connected")
)

// TransferError describes a failed transfer step and the status it maps to.
type TransferError struct {
	Err     error
	Op      string
	Command Command
	Status  Status
}

func (e *TransferError) Error() string {
	if e.Command != CommandUnknown {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// DeviceError is a non-zero error code reported by the target.
type DeviceError struct {
	Command Command
	Code    byte
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device reported error 0x%02X for %s", e.Code, e.Command)
}

// TransportError wraps a failure of the underlying link.
type TransportError struct {
	Err  error
	Op   string
	Port string
}

// NewTransportError creates a TransportError.
func NewTransportError(op, port string, err error) *TransportError {
	return &TransportError{Op: op, Port: port, Err: err}
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusOf maps an error to the status vocabulary. A nil error is success.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}

	var te *TransferError
	if errors.As(err, &te) {
		return te.Status
	}

	var de *DeviceError
	switch {
	case errors.As(err, &de):
		// TODO: map distinct device error codes once targets document them.
		return StatusCRCError
	case errors.Is(err, ErrTransferStopped):
		return StatusStopped
	case errors.Is(err, ErrEngineClosed):
		return StatusNotInitialized
	case errors.Is(err, ErrEmptyFirmware):
		return StatusFileReadError
	case errors.Is(err, ErrInvalidHeader):
		return StatusInvalidHeaderInfo
	default:
		return StatusUnknownError
	}
}
