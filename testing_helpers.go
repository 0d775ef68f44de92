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
	"sync"

	testutil "github.com/ZaparooProject/go-amota/internal/testing"
)

// MockTransport records every frame written to it. With a VirtualDevice
// attached it behaves like a real target, delivering the device's responses
// asynchronously and in order to the registered response handler.
type MockTransport struct {
	writeErr     error
	handler      ResponseHandler
	device       *testutil.VirtualDevice
	blockChan    chan struct{}
	responses    chan []byte
	stopDelivery chan struct{}
	deliveryDone chan struct{}
	frames       [][]byte
	failAfter    int
	maxFrameSize int
	mu           sync.Mutex
	closed       bool
}

// NewMockTransport creates a mock transport with no device attached
func NewMockTransport() *MockTransport {
	return &MockTransport{failAfter: -1}
}

// NewMockTransportWithDevice creates a mock transport answering through dev
func NewMockTransportWithDevice(dev *testutil.VirtualDevice) *MockTransport {
	m := NewMockTransport()
	m.device = dev
	m.responses = make(chan []byte, 64)
	m.stopDelivery = make(chan struct{})
	m.deliveryDone = make(chan struct{})
	go m.deliver()
	return m
}

// WriteFrame records frame and forwards it to the attached device
func (m *MockTransport) WriteFrame(ctx context.Context, frame []byte) error {
	m.mu.Lock()
	blockChan := m.blockChan
	m.mu.Unlock()

	if blockChan != nil {
		select {
		case <-blockChan:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrTransportClosed
	}
	if m.failAfter == 0 {
		err := m.writeErr
		m.mu.Unlock()
		return err
	}
	if m.failAfter > 0 {
		m.failAfter--
	}
	m.frames = append(m.frames, append([]byte(nil), frame...))
	dev := m.device
	m.mu.Unlock()

	if dev == nil {
		return nil
	}
	for _, rsp := range dev.Receive(frame) {
		select {
		case m.responses <- rsp:
		case <-m.stopDelivery:
			return ErrTransportClosed
		}
	}
	return nil
}

func (m *MockTransport) deliver() {
	defer close(m.deliveryDone)
	for {
		select {
		case rsp := <-m.responses:
			m.mu.Lock()
			handler := m.handler
			m.mu.Unlock()
			if handler != nil {
				handler(rsp)
			}
		case <-m.stopDelivery:
			return
		}
	}
}

// SetResponseHandler registers the callback receiving device responses
func (m *MockTransport) SetResponseHandler(handler ResponseHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// FailWritesAfter makes every write after the first n fail with err
func (m *MockTransport) FailWritesAfter(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failAfter = n
	m.writeErr = err
}

// Block makes writes wait until Unblock is called or their context ends
func (m *MockTransport) Block() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blockChan == nil {
		m.blockChan = make(chan struct{})
	}
}

// Unblock releases blocked writes
func (m *MockTransport) Unblock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blockChan != nil {
		close(m.blockChan)
		m.blockChan = nil
	}
}

// SetMaxFrameSize sets the link limit reported through FrameSizer
func (m *MockTransport) SetMaxFrameSize(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxFrameSize = n
}

// MaxFrameSize implements FrameSizer
func (m *MockTransport) MaxFrameSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxFrameSize
}

// Frames returns copies of all frames written so far
func (m *MockTransport) Frames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.frames))
	copy(out, m.frames)
	return out
}

// FrameCount returns the number of frames written so far
func (m *MockTransport) FrameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

// Close stops response delivery
func (m *MockTransport) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	if m.stopDelivery != nil {
		close(m.stopDelivery)
		<-m.deliveryDone
	}
	return nil
}

// IsConnected reports whether Close has not been called
func (m *MockTransport) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.closed
}

// Type implements Transport
func (*MockTransport) Type() TransportType {
	return TransportMock
}
