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

// Package uart detects serial BLE bridges.
package uart

import (
	"context"
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-amota/detection"
	"go.bug.st/serial/enumerator"
)

// listPorts is replaceable in tests.
var listPorts = enumerator.GetDetailedPortsList

type detector struct{}

// New creates a new serial bridge detector
func New() detection.Detector {
	return &detector{}
}

func init() {
	detection.RegisterDetector(New())
}

// Transport returns the transport type
func (*detector) Transport() string {
	return "uart"
}

// Detect lists serial ports and rates them by their USB identity
func (*detector) Detect(ctx context.Context, opts *detection.Options) ([]detection.DeviceInfo, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	devices := make([]detection.DeviceInfo, 0, len(ports))
	for _, port := range ports {
		if ctx.Err() != nil {
			return devices, detection.ErrDetectionTimeout
		}
		if device, ok := classifyPort(port, opts); ok {
			devices = append(devices, device)
		}
	}

	if len(devices) == 0 {
		return nil, detection.ErrNoDevicesFound
	}
	return devices, nil
}

// classifyPort turns an enumerated port into a DeviceInfo. Ports that are
// ignored, blocked or not USB devices are skipped.
func classifyPort(port *enumerator.PortDetails, opts *detection.Options) (detection.DeviceInfo, bool) {
	if port == nil || detection.IsPathIgnored(port.Name, opts.IgnorePaths) {
		return detection.DeviceInfo{}, false
	}
	if !port.IsUSB {
		return detection.DeviceInfo{}, false
	}

	// Enumerators differ in case and padding; fall back to the raw pair
	// when it is not a valid ID.
	vidpid := detection.ParseVIDPID(port.VID + ":" + port.PID)
	if vidpid == "" {
		vidpid = strings.ToUpper(port.VID + ":" + port.PID)
	}
	if detection.IsBlocked(vidpid, opts.Blocklist) {
		return detection.DeviceInfo{}, false
	}

	device := detection.DeviceInfo{
		Transport:  "uart",
		Path:       port.Name,
		Name:       port.Product,
		Confidence: detection.Low,
		Metadata: map[string]string{
			"vidpid": vidpid,
		},
	}
	if port.SerialNumber != "" {
		device.Metadata["serial"] = port.SerialNumber
	}

	if name, confidence, ok := detection.LookupBridge(vidpid); ok {
		device.Confidence = confidence
		if device.Name == "" {
			device.Name = name
		}
		device.Metadata["bridge"] = name
	}
	if device.Name == "" {
		device.Name = port.Name
	}

	return device, true
}
