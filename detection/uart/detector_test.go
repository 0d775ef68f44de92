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

package uart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/ZaparooProject/go-amota/detection"
)

func TestClassifyPort(t *testing.T) {
	t.Parallel()

	opts := detection.DefaultOptions()
	opts.IgnorePaths = []string{"/dev/ttyACM9"}

	tests := []struct {
		port     *enumerator.PortDetails
		name     string
		wantName string
		want     detection.Confidence
		wantOK   bool
	}{
		{
			name:     "nordic dongle",
			port:     &enumerator.PortDetails{Name: "/dev/ttyACM0", IsUSB: true, VID: "1915", PID: "520f"},
			wantOK:   true,
			want:     detection.High,
			wantName: "Nordic nRF52840 dongle",
		},
		{
			name:     "generic converter keeps product name",
			port:     &enumerator.PortDetails{Name: "/dev/ttyUSB0", IsUSB: true, VID: "10C4", PID: "EA60", Product: "CP2102N"},
			wantOK:   true,
			want:     detection.Low,
			wantName: "CP2102N",
		},
		{
			name:     "unknown usb device",
			port:     &enumerator.PortDetails{Name: "/dev/ttyUSB1", IsUSB: true, VID: "DEAD", PID: "BEEF"},
			wantOK:   true,
			want:     detection.Low,
			wantName: "/dev/ttyUSB1",
		},
		{
			name:     "lowercase unpadded ids",
			port:     &enumerator.PortDetails{Name: "/dev/ttyUSB2", IsUSB: true, VID: "403", PID: "6001"},
			wantOK:   true,
			want:     detection.Low,
			wantName: "FTDI FT232R",
		},
		{
			name:     "hex prefixed ids",
			port:     &enumerator.PortDetails{Name: "/dev/ttyACM2", IsUSB: true, VID: "0x1915", PID: "0x521f"},
			wantOK:   true,
			want:     detection.High,
			wantName: "Nordic nRF52 BLE bridge",
		},
		{
			name: "blocked despite lowercase ids",
			port: &enumerator.PortDetails{Name: "/dev/ttyACM3", IsUSB: true, VID: "1a86", PID: "55d4"},
		},
		{
			name: "not usb",
			port: &enumerator.PortDetails{Name: "/dev/ttyS0"},
		},
		{
			name: "blocked",
			port: &enumerator.PortDetails{Name: "/dev/ttyACM1", IsUSB: true, VID: "2341", PID: "0043"},
		},
		{
			name: "ignored path",
			port: &enumerator.PortDetails{Name: "/dev/ttyACM9", IsUSB: true, VID: "1915", PID: "520F"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			device, ok := classifyPort(tt.port, &opts)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, "uart", device.Transport)
			assert.Equal(t, tt.port.Name, device.Path)
			assert.Equal(t, tt.want, device.Confidence)
			assert.Equal(t, tt.wantName, device.Name)
		})
	}
}

//nolint:paralleltest // replaces the package level port lister
func TestDetect(t *testing.T) {
	orig := listPorts
	t.Cleanup(func() { listPorts = orig })

	opts := detection.DefaultOptions()

	listPorts = func() ([]*enumerator.PortDetails, error) {
		return []*enumerator.PortDetails{
			{Name: "/dev/ttyS0"},
			{Name: "/dev/ttyACM0", IsUSB: true, VID: "1915", PID: "520F", SerialNumber: "C0FFEE"},
		}, nil
	}
	devices, err := New().Detect(context.Background(), &opts)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "C0FFEE", devices[0].Metadata["serial"])

	listPorts = func() ([]*enumerator.PortDetails, error) { return nil, nil }
	_, err = New().Detect(context.Background(), &opts)
	require.ErrorIs(t, err, detection.ErrNoDevicesFound)

	boom := errors.New("enumeration failed")
	listPorts = func() ([]*enumerator.PortDetails, error) { return nil, boom }
	_, err = New().Detect(context.Background(), &opts)
	require.ErrorIs(t, err, boom)
}
