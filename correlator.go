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
	"context"
	"fmt"
	"sync"
	"time"
)

// Correlator pairs the single outstanding command with its acknowledgment.
// The protocol never has more than one command in flight, so a one-slot
// rendezvous is enough: the driver arms it with Expect, writes the packet and
// blocks in Wait, while the response path calls Signal from any goroutine.
type Correlator struct {
	slot    chan Response
	mu      sync.Mutex
	pending Command
	armed   bool
}

// NewCorrelator creates an unarmed correlator.
func NewCorrelator() *Correlator {
	return &Correlator{slot: make(chan Response, 1)}
}

// Expect arms the correlator for cmd and discards any stale response.
func (c *Correlator) Expect(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = cmd
	c.armed = true
	select {
	case <-c.slot:
	default:
	}
}

// Signal offers a response. It never blocks. It returns false when nothing
// is pending or the response belongs to a different command; a duplicate
// response for the pending command is absorbed.
func (c *Correlator) Signal(rsp Response) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed || rsp.Command != c.pending {
		return false
	}
	select {
	case c.slot <- rsp:
	default:
	}
	return true
}

// Pending returns the command being waited for, if any.
func (c *Correlator) Pending() (Command, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending, c.armed
}

// Wait blocks until a response is signalled, timeout elapses or ctx is done.
func (c *Correlator) Wait(ctx context.Context, timeout time.Duration) (Response, error) {
	defer c.disarm()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case rsp := <-c.slot:
		return rsp, nil
	case <-timer.C:
		return Response{}, fmt.Errorf("%w after %s", ErrResponseTimeout, timeout)
	case <-ctx.Done():
		return Response{}, fmt.Errorf("%w: %w", ErrTransferStopped, ctx.Err())
	}
}

func (c *Correlator) disarm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.armed = false
}
