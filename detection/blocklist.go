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

package detection

import (
	"path/filepath"
	"strings"
)

// DefaultBlocklist returns a list of known problematic USB devices
// that should not be probed during detection.
// Format: VID:PID in hexadecimal (case-insensitive).
func DefaultBlocklist() []string {
	return []string{
		"2341:0043", // Arduino Uno, resets when the port is opened
		"1A86:55D4", // CH9102 modem bridges that answer with AT echo
	}
}

// knownBridges maps VID:PID of USB devices commonly carrying an AMOTA
// pass-through firmware to a description. Dedicated BLE dongles are rated
// higher than generic USB-UART converters.
var knownBridges = map[string]struct {
	name       string
	confidence Confidence
}{
	"1915:520F": {name: "Nordic nRF52840 dongle", confidence: High},
	"1915:521F": {name: "Nordic nRF52 BLE bridge", confidence: High},
	"1366:1015": {name: "SEGGER J-Link CDC (Apollo EVB)", confidence: Medium},
	"1366:0105": {name: "SEGGER J-Link CDC", confidence: Medium},
	"10C4:EA60": {name: "Silicon Labs CP210x", confidence: Low},
	"1A86:7523": {name: "WCH CH340", confidence: Low},
	"0403:6001": {name: "FTDI FT232R", confidence: Low},
	"0403:6015": {name: "FTDI FT231X", confidence: Low},
}

// LookupBridge returns the description and confidence for a known bridge.
func LookupBridge(vidpid string) (name string, confidence Confidence, ok bool) {
	b, ok := knownBridges[strings.ToUpper(strings.TrimSpace(vidpid))]
	if !ok {
		return "", Low, false
	}
	return b.name, b.confidence, true
}

// IsBlocked checks if a USB device is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	// Normalize to uppercase for comparison
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))

	for _, blocked := range blocklist {
		blocked = strings.ToUpper(strings.TrimSpace(blocked))
		if vidpid == blocked {
			return true
		}
	}
	return false
}

// ParseVIDPID extracts a USB identity from a descriptor and returns it in
// the canonical "VVVV:PPPP" form used by the blocklist and bridge table.
// Recognized formats:
//
//	"VID:1234 PID:5678"
//	"USB\\VID_1234&PID_5678" (Windows hardware IDs)
//	"vendor=1234 product=5678"
//	"1234:5678" and "0x1234:0x5678"
//
// IDs shorter than four digits are zero padded. An empty string is
// returned when no valid pair is found.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))

	vid := idAfter(descriptor, "VID:", "VID_", "VID=", "VENDOR=")
	pid := idAfter(descriptor, "PID:", "PID_", "PID=", "PRODUCT=")
	if vid == "" || pid == "" {
		parts := strings.Split(descriptor, ":")
		if len(parts) != 2 {
			return ""
		}
		vid, pid = parts[0], parts[1]
	}

	vid, ok := normalizeID(vid)
	if !ok {
		return ""
	}
	pid, ok = normalizeID(pid)
	if !ok {
		return ""
	}
	return vid + ":" + pid
}

// idAfter returns the hex digits following the first prefix found.
func idAfter(s string, prefixes ...string) string {
	for _, prefix := range prefixes {
		if idx := strings.Index(s, prefix); idx >= 0 {
			return extractHex(s[idx+len(prefix):])
		}
	}
	return ""
}

// extractHex returns the leading hex digits of s, skipping a 0x prefix.
func extractHex(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0X")
	end := 0
	for end < len(s) && isHexDigit(s[end]) {
		end++
	}
	return s[:end]
}

// normalizeID turns a 16-bit hex ID into four uppercase digits.
func normalizeID(id string) (string, bool) {
	id = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(id)), "0X")
	if id == "" || len(id) > 4 {
		return "", false
	}
	for i := 0; i < len(id); i++ {
		if !isHexDigit(id[i]) {
			return "", false
		}
	}
	return strings.Repeat("0", 4-len(id)) + id, true
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'A' && c <= 'F') || (c >= 'a' && c <= 'f')
}

// IsPathIgnored checks if a device path should be ignored.
// Supports exact path matching and normalized path comparison.
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" || len(ignorePaths) == 0 {
		return false
	}

	// Normalize the device path for comparison
	normalizedDevice := normalizedPath(devicePath)

	for _, ignorePath := range ignorePaths {
		if ignorePath == "" {
			continue
		}

		normalizedIgnore := normalizedPath(ignorePath)

		// Exact match
		if normalizedDevice == normalizedIgnore {
			return true
		}

		// Also check original paths for exact match
		if devicePath == ignorePath {
			return true
		}
	}
	return false
}

// normalizedPath normalizes a device path for comparison
func normalizedPath(path string) string {
	// Clean the path to resolve any relative components
	cleaned := filepath.Clean(path)

	// Convert to lowercase for case-insensitive comparison on Windows
	return strings.ToLower(cleaned)
}
