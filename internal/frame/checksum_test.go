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

package frame

import "testing"

func TestCalculateCRC32(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{
			name: "empty payload is zero by convention",
			data: []byte{},
			want: 0,
		},
		{
			name: "nil payload",
			data: nil,
			want: 0,
		},
		{
			name: "check value",
			data: []byte("123456789"),
			want: 0xCBF43926,
		},
		{
			name: "single byte A",
			data: []byte("A"),
			want: 0xD3D99E8B,
		},
		{
			name: "single byte B",
			data: []byte("B"),
			want: 0x4AD0CF31,
		},
		{
			name: "quick brown fox",
			data: []byte("The quick brown fox jumps over the lazy dog"),
			want: 0x414FA339,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CalculateCRC32(tt.data); got != tt.want {
				t.Errorf("CalculateCRC32() = 0x%08X, want 0x%08X", got, tt.want)
			}
		})
	}
}

func TestCalculateCRC32_OrderSensitive(t *testing.T) {
	t.Parallel()

	if CalculateCRC32([]byte{0x01, 0x02}) == CalculateCRC32([]byte{0x02, 0x01}) {
		t.Error("CRC should change when byte order changes")
	}
	if CalculateCRC32([]byte("A")) == CalculateCRC32([]byte("B")) {
		t.Error("CRC of A and B should differ")
	}
}

func TestCalculateCRC32_Deterministic(t *testing.T) {
	t.Parallel()

	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i * 7)
	}
	first := CalculateCRC32(data)
	for range 3 {
		if got := CalculateCRC32(data); got != first {
			t.Fatalf("CalculateCRC32() not deterministic: 0x%08X vs 0x%08X", got, first)
		}
	}
}

func TestValidateCRC32(t *testing.T) {
	t.Parallel()

	if !ValidateCRC32([]byte("123456789"), 0xCBF43926) {
		t.Error("expected valid checksum")
	}
	if ValidateCRC32([]byte("123456789"), 0xCBF43927) {
		t.Error("expected invalid checksum")
	}
	if !ValidateCRC32(nil, 0) {
		t.Error("empty payload should validate against zero")
	}
}
