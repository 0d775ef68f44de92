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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want Status
	}{
		{name: "nil", err: nil, want: StatusSuccess},
		{
			name: "transfer error",
			err:  &TransferError{Op: "await ack", Command: CommandData, Status: StatusInvalidPackageLength, Err: ErrResponseTimeout},
			want: StatusInvalidPackageLength,
		},
		{
			name: "wrapped transfer error",
			err:  fmt.Errorf("outer: %w", &TransferError{Status: StatusCmdSendError, Err: ErrResponseTimeout}),
			want: StatusCmdSendError,
		},
		{name: "device error", err: &DeviceError{Command: CommandData, Code: 0x03}, want: StatusCRCError},
		{name: "stopped", err: fmt.Errorf("%w: cancelled", ErrTransferStopped), want: StatusStopped},
		{name: "closed", err: ErrEngineClosed, want: StatusNotInitialized},
		{name: "empty firmware", err: ErrEmptyFirmware, want: StatusFileReadError},
		{name: "invalid header", err: ErrInvalidHeader, want: StatusInvalidHeaderInfo},
		{name: "other", err: errors.New("boom"), want: StatusUnknownError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestTransferError(t *testing.T) {
	t.Parallel()

	err := &TransferError{Op: "await ack", Command: CommandVerify, Status: StatusCmdSendError, Err: ErrResponseTimeout}
	assert.Equal(t, "await ack FW_VERIFY: timed out waiting for device response", err.Error())
	assert.ErrorIs(t, err, ErrResponseTimeout)

	noCmd := &TransferError{Op: "open firmware", Err: ErrEmptyFirmware}
	assert.Equal(t, "open firmware: firmware file is empty", noCmd.Error())
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	err := NewTransportError("write", "/dev/ttyUSB0", ErrTransportTimeout)
	assert.Equal(t, "write on /dev/ttyUSB0: transport timeout", err.Error())
	assert.ErrorIs(t, err, ErrTransportTimeout)

	noPort := NewTransportError("open", "", ErrNotConnected)
	assert.Equal(t, "open: transport not connected", noPort.Error())
}

func TestDeviceError(t *testing.T) {
	t.Parallel()

	err := &DeviceError{Command: CommandHeader, Code: 0x02}
	assert.Equal(t, "device reported error 0x02 for FW_HEADER", err.Error())
}

func TestFormatHex(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatHex(nil))
	assert.Equal(t, "01 AB FF", FormatHex([]byte{0x01, 0xAB, 0xFF}))
}
