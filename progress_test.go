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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		sent  uint32
		total uint32
		want  int
	}{
		{name: "nothing sent", sent: 0, total: 10000, want: 0},
		{name: "floor", sent: 4096, total: 10000, want: 40},
		{name: "almost done", sent: 9999, total: 10000, want: 99},
		{name: "done", sent: 10000, total: 10000, want: 100},
		{name: "overshoot", sent: 10001, total: 10000, want: 100},
		{name: "zero total", sent: 0, total: 0, want: 100},
		{name: "no overflow", sent: 0xFFFFFFF0, total: 0xFFFFFFFF, want: 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ProgressPercent(tt.sent, tt.total))
		})
	}
}
