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

import "sync"

type eventKind int

const (
	eventStatus eventKind = iota
	eventProgress
)

type event struct {
	kind     eventKind
	status   Status
	progress int
}

// dispatcher delivers status and progress events to the observer callbacks
// on its own goroutine, in the order they were posted. Posting never blocks
// the transfer.
type dispatcher struct {
	onStatus   func(Status)
	onProgress func(int)
	wake       chan struct{}
	done       chan struct{}
	queue      []event
	mu         sync.Mutex
	closed     bool
}

func newDispatcher(onStatus func(Status), onProgress func(int)) *dispatcher {
	d := &dispatcher{
		onStatus:   onStatus,
		onProgress: onProgress,
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go d.run()
	return d
}

// post queues ev and reports whether it was accepted. A closed dispatcher
// rejects events.
func (d *dispatcher) post(ev event) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	return true
}

func (d *dispatcher) run() {
	defer close(d.done)

	for {
		d.mu.Lock()
		for len(d.queue) == 0 {
			if d.closed {
				d.mu.Unlock()
				return
			}
			d.mu.Unlock()
			<-d.wake
			d.mu.Lock()
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, ev := range batch {
			d.deliver(ev)
		}
	}
}

func (d *dispatcher) deliver(ev event) {
	switch ev.kind {
	case eventStatus:
		if d.onStatus != nil {
			d.onStatus(ev.status)
		}
	case eventProgress:
		if d.onProgress != nil {
			d.onProgress(ev.progress)
		}
	}
}

// close delivers everything already posted and stops the goroutine.
// Callbacks must not call it.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}
