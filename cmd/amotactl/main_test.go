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

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amota "github.com/ZaparooProject/go-amota"
	testutil "github.com/ZaparooProject/go-amota/internal/testing"
)

func testConfig() *config {
	var (
		device      = ""
		firmware    = ""
		baud        = 115200
		timeout     = time.Second
		frameSize   = 240
		frameDelay  = time.Duration(0)
		pacingDelay = time.Duration(0)
		reset       = false
		debug       = false
		list        = false
		probe       = false
	)
	return &config{
		devicePath:  &device,
		firmware:    &firmware,
		baudRate:    &baud,
		timeout:     &timeout,
		frameSize:   &frameSize,
		frameDelay:  &frameDelay,
		pacingDelay: &pacingDelay,
		reset:       &reset,
		debug:       &debug,
		list:        &list,
		probe:       &probe,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIsI2CPath(t *testing.T) {
	t.Parallel()

	assert.True(t, isI2CPath("/dev/i2c-1"))
	assert.True(t, isI2CPath("I2C1"))
	assert.False(t, isI2CPath("/dev/ttyACM0"))
	assert.False(t, isI2CPath("COM3"))
}

func TestNewTransport_PathSelection(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "absent")

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "empty path", path: "", wantErr: "empty device path"},
		{name: "i2c bus", path: missing + "-i2c-9", wantErr: "failed to create I2C transport"},
		{name: "serial port", path: missing + "-ttyACM9", wantErr: "failed to create UART transport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport, err := newTransport(tt.path, testConfig(), discardLogger())
			require.Error(t, err)
			assert.Nil(t, transport)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEngineOptions(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	*cfg.frameSize = 20
	*cfg.reset = true

	dev := testutil.NewVirtualDevice()
	mock := amota.NewMockTransportWithDevice(dev)
	t.Cleanup(func() { _ = mock.Close() })

	done := make(chan amota.Status, 1)
	engine, err := amota.New(mock, engineOptions(cfg, discardLogger(), done)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = engine.Close() })

	path := filepath.Join(t.TempDir(), "firmware.bin")
	require.NoError(t, os.WriteFile(path, testutil.BuildFirmwareImage(600), 0o600))
	require.NoError(t, engine.Start(path))

	select {
	case status := <-done:
		assert.Equal(t, amota.StatusSuccess, status)
	case <-time.After(5 * time.Second):
		t.Fatal("upgrade did not finish")
	}
	require.NoError(t, engine.Wait(context.Background()))

	for _, f := range mock.Frames() {
		assert.LessOrEqual(t, len(f), 20)
	}
	assert.Equal(t, []byte{
		testutil.CmdHeader, testutil.CmdData, testutil.CmdVerify, testutil.CmdReset,
	}, dev.Commands())
}

func TestEngineOptions_RejectsInvalidFrameSize(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	*cfg.frameSize = 0

	_, err := amota.New(amota.NewMockTransport(), engineOptions(cfg, discardLogger(), make(chan amota.Status, 1))...)
	require.ErrorIs(t, err, amota.ErrInvalidParameter)
}
