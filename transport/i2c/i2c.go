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

// Package i2c provides an I2C transport for BLE co-processors exposing an
// AMOTA mailbox.
//
// The co-processor presents three registers: a status byte (bit 0 set when
// a response is waiting, bit 1 set when the write mailbox can take a
// frame), a two byte little-endian length of the waiting response and the
// response/frame mailbox itself.
package i2c

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	amota "github.com/ZaparooProject/go-amota"
	"github.com/ZaparooProject/go-amota/internal/frame"
	"github.com/ZaparooProject/go-amota/internal/transport"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

const (
	// DefaultAddress is the co-processor's 7-bit I2C address.
	DefaultAddress = 0x3C

	// Register map.
	regStatus   = 0x00
	regRxLength = 0x01
	regMailbox  = 0x02

	statusResponseReady = 0x01
	statusWritable      = 0x02

	// MailboxSize is the largest frame the co-processor accepts in one write.
	MailboxSize = 128

	// Max clock frequency (400 kHz).
	maxClockFreq = 400 * physic.KiloHertz

	defaultPollInterval = 5 * time.Millisecond
	defaultReadyTimeout = 500 * time.Millisecond
)

// conn is the bus access the transport needs; *i2c.Dev implements it.
type conn interface {
	Tx(w, r []byte) error
}

// Config holds the I2C settings.
type Config struct {
	Logger       amota.Logger
	Address      uint16
	PollInterval time.Duration
	ReadyTimeout time.Duration
}

// Option configures a Transport
type Option func(*Config)

// WithAddress sets the co-processor address
func WithAddress(addr uint16) Option {
	return func(c *Config) { c.Address = addr }
}

// WithPollInterval sets how often the status register is polled for responses
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PollInterval = d
		}
	}
}

// WithReadyTimeout bounds the wait for the mailbox to become writable
func WithReadyTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.ReadyTimeout = d
		}
	}
}

// WithLogger sets the transport logger
func WithLogger(logger amota.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func defaultConfig() Config {
	return Config{
		Logger:       amota.NopLogger(),
		Address:      DefaultAddress,
		PollInterval: defaultPollInterval,
		ReadyTimeout: defaultReadyTimeout,
	}
}

// Transport implements amota.Transport over I2C
type Transport struct {
	dev     conn
	bus     io.Closer
	handler amota.ResponseHandler
	cfg     Config
	stop    chan struct{}
	done    chan struct{}
	busName string
	mu      sync.Mutex
	busMu   sync.Mutex
	closed  bool
}

// New opens busName and starts polling the co-processor for responses.
func New(busName string, opts ...Option) (*Transport, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Initialize host
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, amota.NewTransportError("open", busName, err)
	}

	// Ignore error, continue with default speed
	_ = bus.SetSpeed(maxClockFreq)

	dev := &i2c.Dev{Addr: cfg.Address, Bus: bus}
	cfg.Logger.Info("i2c bus opened", "bus", busName, "addr", fmt.Sprintf("0x%02X", cfg.Address))
	return newTransport(dev, bus, busName, cfg), nil
}

func newTransport(dev conn, bus io.Closer, busName string, cfg Config) *Transport {
	t := &Transport{
		dev:     dev,
		bus:     bus,
		cfg:     cfg,
		busName: busName,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go t.pollLoop()
	return t
}

// WriteFrame waits for the mailbox to become writable and writes frame.
func (t *Transport) WriteFrame(ctx context.Context, data []byte) error {
	if len(data) > MailboxSize {
		return amota.NewTransportError("write", t.busName,
			fmt.Errorf("frame of %d bytes exceeds mailbox size %d", len(data), MailboxSize))
	}
	if !t.IsConnected() {
		return amota.NewTransportError("write", t.busName, amota.ErrNotConnected)
	}

	_, err := transport.TimeoutRetry(ctx, t.cfg.ReadyTimeout, func() (struct{}, bool, error) {
		status, readErr := t.readStatus()
		if readErr != nil {
			return struct{}{}, false, readErr
		}
		return struct{}{}, status&statusWritable == 0, nil
	})
	if err != nil {
		return fmt.Errorf("wait for mailbox: %w", err)
	}

	w := make([]byte, 1+len(data))
	w[0] = regMailbox
	copy(w[1:], data)

	t.busMu.Lock()
	defer t.busMu.Unlock()
	if err := t.dev.Tx(w, nil); err != nil {
		return amota.NewTransportError("write", t.busName, err)
	}
	return nil
}

// MaxFrameSize implements amota.FrameSizer
func (*Transport) MaxFrameSize() int {
	return MailboxSize
}

// SetResponseHandler registers the callback receiving device responses
func (t *Transport) SetResponseHandler(handler amota.ResponseHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *Transport) readStatus() (byte, error) {
	t.busMu.Lock()
	defer t.busMu.Unlock()

	status := make([]byte, 1)
	if err := t.dev.Tx([]byte{regStatus}, status); err != nil {
		return 0, amota.NewTransportError("read status", t.busName, err)
	}
	return status[0], nil
}

// readResponse fetches the waiting response. The length register counts
// the bytes of the whole response including its own length prefix.
func (t *Transport) readResponse() ([]byte, error) {
	t.busMu.Lock()
	defer t.busMu.Unlock()

	lenBuf := make([]byte, 2)
	if err := t.dev.Tx([]byte{regRxLength}, lenBuf); err != nil {
		return nil, amota.NewTransportError("read length", t.busName, err)
	}
	n, err := parseResponseLength(lenBuf)
	if err != nil {
		return nil, amota.NewTransportError("read length", t.busName, err)
	}

	rsp := make([]byte, n)
	if err := t.dev.Tx([]byte{regMailbox}, rsp); err != nil {
		return nil, amota.NewTransportError("read response", t.busName, err)
	}
	return rsp, nil
}

func parseResponseLength(b []byte) (int, error) {
	if len(b) < 2 {
		return 0, amota.ErrResponseTooShort
	}
	n := int(binary.LittleEndian.Uint16(b))
	if n == 0 {
		return 0, amota.ErrEmptyResponse
	}
	if n > frame.MaxResponseSize {
		return 0, fmt.Errorf("%w: response length %d exceeds %d", amota.ErrInvalidParameter, n, frame.MaxResponseSize)
	}
	return n, nil
}

func (t *Transport) pollLoop() {
	defer close(t.done)

	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}

		status, err := t.readStatus()
		if err != nil {
			t.cfg.Logger.Debug("i2c status poll failed", "bus", t.busName, "error", err)
			continue
		}
		if status&statusResponseReady == 0 {
			continue
		}

		rsp, err := t.readResponse()
		if err != nil {
			t.cfg.Logger.Warn("i2c response read failed", "bus", t.busName, "error", err)
			continue
		}

		t.cfg.Logger.Debug("device response", "bus", t.busName, "data", amota.FormatHex(rsp))
		t.mu.Lock()
		handler := t.handler
		t.mu.Unlock()
		if handler != nil {
			handler(rsp)
		}
	}
}

// Close stops polling and releases the bus
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	if t.stop != nil {
		close(t.stop)
		<-t.done
	}
	if t.bus != nil {
		if err := t.bus.Close(); err != nil {
			return amota.NewTransportError("close", t.busName, err)
		}
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil && !t.closed
}

// Type returns the transport type
func (*Transport) Type() amota.TransportType {
	return amota.TransportI2C
}

var (
	_ amota.Transport        = (*Transport)(nil)
	_ amota.ResponseNotifier = (*Transport)(nil)
	_ amota.FrameSizer       = (*Transport)(nil)
)
