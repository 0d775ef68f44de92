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

/*
Package amota provides a pure Go host for Ambiq Micro over-the-air (AMOTA)
firmware upgrades.

An AMOTA target receives a firmware image as a sequence of commands: a
Header carrying the first 48 bytes of the image, Data commands carrying the
image body in 4096 byte blocks, and a final Verify. Every command is framed
as a little-endian length, a command byte, the payload and a CRC32 of the
payload, then split into frames small enough for the link (240 bytes for a
typical BLE characteristic). The target acknowledges each complete command
and may ask the host to resume from an offset it already holds.

Features:
  - Resumable transfers driven by the target's Header acknowledgment
  - Frame pacing tuned for BLE targets with small receive buffers
  - UART and I2C transports, with device auto-detection
  - Status and progress callbacks delivered in order off the transfer goroutine
  - Stop at any time, including while waiting for an acknowledgment

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-amota"
	    "github.com/ZaparooProject/go-amota/transport/uart"
	)

	transport, err := uart.New("/dev/ttyACM0")
	if err != nil {
	    log.Fatal(err)
	}
	defer transport.Close()

	engine, err := amota.New(transport,
	    amota.WithLogger(slog.Default()),
	    amota.WithProgressCallback(func(percent int) {
	        fmt.Printf("%d%%\n", percent)
	    }),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer engine.Close()

	if err := engine.Start("firmware.bin"); err != nil {
	    log.Fatal(err)
	}
	if err := engine.Wait(ctx); err != nil {
	    fmt.Printf("upgrade failed with %s: %v\n", engine.Status(), err)
	}

Responses:

Transports implementing ResponseNotifier deliver device responses to the
engine on their own. Integrations that receive responses elsewhere, such as
a BLE notification callback, pass them to Engine.OnDeviceResponse.

Error Handling:

Every transfer ends with exactly one terminal Status. The error returned by
Wait carries the cause and can be inspected:

	if errors.Is(err, amota.ErrResponseTimeout) {
	    // The target stopped answering
	}

	amota.StatusOf(err) // the Status matching err

Thread Safety:

Start, Stop, OnDeviceResponse and the accessors may be called from any
goroutine. Callbacks run on a dedicated goroutine and must not call Close.
*/
package amota
