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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DeliversInOrder(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		statuses []Status
		percents []int
	)
	d := newDispatcher(
		func(s Status) {
			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, s)
		},
		func(p int) {
			mu.Lock()
			defer mu.Unlock()
			percents = append(percents, p)
		},
	)

	require.True(t, d.post(event{kind: eventStatus, status: StatusUpgrading}))
	for p := 10; p <= 100; p += 10 {
		require.True(t, d.post(event{kind: eventProgress, progress: p}))
	}
	require.True(t, d.post(event{kind: eventStatus, status: StatusSuccess}))
	d.close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Status{StatusUpgrading, StatusSuccess}, statuses)
	assert.Equal(t, []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}, percents)
}

func TestDispatcher_PostDoesNotBlockOnSlowObserver(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	d := newDispatcher(func(Status) { <-release }, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			d.post(event{kind: eventStatus, status: StatusUpgrading})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("post blocked on a slow observer")
	}

	close(release)
	d.close()
}

func TestDispatcher_RejectsAfterClose(t *testing.T) {
	t.Parallel()

	d := newDispatcher(nil, nil)
	d.close()
	d.close()

	assert.False(t, d.post(event{kind: eventStatus, status: StatusStopped}))
}
