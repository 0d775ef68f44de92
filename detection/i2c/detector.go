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

// Package i2c detects BLE co-processors on I2C buses.
package i2c

import (
	"context"
	"fmt"

	"github.com/ZaparooProject/go-amota/detection"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the co-processor address used by transport/i2c.
	DefaultAddress = 0x3C

	regStatus = 0x00
	// statusReserved are status bits a co-processor never sets.
	statusReserved = 0xFC
)

// busRef is an I2C bus that can be opened for probing.
type busRef struct {
	open func() (i2c.BusCloser, error)
	name string
}

// listBuses is replaceable in tests.
var listBuses = func() ([]busRef, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	refs := i2creg.All()
	buses := make([]busRef, 0, len(refs))
	for _, ref := range refs {
		buses = append(buses, busRef{name: ref.Name, open: ref.Open})
	}
	return buses, nil
}

type detector struct{}

// New creates a new I2C detector
func New() detection.Detector {
	return &detector{}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "i2c"
}

// Detect reports a co-processor candidate for every I2C bus. In Safe mode
// each bus is probed and only buses with a plausible status register at
// DefaultAddress are kept.
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	buses, err := listBuses()
	if err != nil {
		return nil, err
	}
	if len(buses) == 0 {
		return nil, detection.ErrNoDevicesFound
	}

	var devices []detection.DeviceInfo
	for _, bus := range buses {
		if ctx.Err() != nil {
			return devices, detection.ErrDetectionTimeout
		}
		if detection.IsPathIgnored(bus.name, opts.IgnorePaths) {
			continue
		}

		device := detection.DeviceInfo{
			Transport:  "i2c",
			Path:       bus.name,
			Name:       fmt.Sprintf("I2C device on %s address 0x%02X", bus.name, DefaultAddress),
			Confidence: detection.Low,
			Metadata: map[string]string{
				"bus":     bus.name,
				"address": fmt.Sprintf("0x%02X", DefaultAddress),
			},
		}

		if opts.Mode != detection.Passive {
			status, probeErr := probe(bus)
			if probeErr != nil {
				continue
			}
			device.Confidence = detection.High
			device.Metadata["status"] = fmt.Sprintf("0x%02X", status)
		}

		devices = append(devices, device)
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// probe reads the status register at DefaultAddress.
func probe(ref busRef) (byte, error) {
	bus, err := ref.open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", ref.name, err)
	}
	defer func() { _ = bus.Close() }()

	dev := &i2c.Dev{Addr: DefaultAddress, Bus: bus}
	status := make([]byte, 1)
	if err := dev.Tx([]byte{regStatus}, status); err != nil {
		return 0, fmt.Errorf("no response at 0x%02X on %s: %w", DefaultAddress, ref.name, err)
	}
	if status[0]&statusReserved != 0 {
		return 0, fmt.Errorf("unexpected status 0x%02X on %s", status[0], ref.name)
	}
	return status[0], nil
}
