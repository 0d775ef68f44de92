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

// Package uart provides a UART transport for BLE-UART bridges running an
// AMOTA pass-through firmware.
package uart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amota "github.com/ZaparooProject/go-amota"
	"github.com/ZaparooProject/go-amota/internal/frame"
	"github.com/ZaparooProject/go-amota/internal/transport"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the rate used by the common BLE-UART bridges.
	DefaultBaudRate = 115200

	readTimeout   = 100 * time.Millisecond
	readBufSize   = 256
	openRetries   = 3
	openRetryWait = 200 * time.Millisecond
)

// port is the subset of serial.Port the transport uses.
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// Config holds the UART settings.
type Config struct {
	Logger   amota.Logger
	BaudRate int
}

// Option configures a Transport
type Option func(*Config)

// WithBaudRate sets the serial baud rate
func WithBaudRate(baud int) Option {
	return func(c *Config) {
		if baud > 0 {
			c.BaudRate = baud
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

// Transport implements amota.Transport over a serial port. Incoming bytes
// are reassembled into device responses on a reader goroutine and handed to
// the registered response handler.
type Transport struct {
	port     port
	handler  amota.ResponseHandler
	logger   amota.Logger
	done     chan struct{}
	portName string
	mu       sync.Mutex
	writeMu  sync.Mutex
	closed   bool
	failed   bool
}

// New opens portName and starts reading device responses.
func New(portName string, opts ...Option) (*Transport, error) {
	cfg := Config{BaudRate: DefaultBaudRate, Logger: amota.NopLogger()}
	for _, opt := range opts {
		opt(&cfg)
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := transport.WithRetry(transport.RetryConfig{
		Description: "open serial port",
		Port:        portName,
		MaxRetries:  openRetries,
		RetryDelay:  openRetryWait,
		OnRetry: func() error {
			cfg.Logger.Debug("retrying serial open", "port", portName)
			return nil
		},
	}, func() (serial.Port, bool, error) {
		sp, openErr := serial.Open(portName, mode)
		if openErr == nil {
			return sp, false, nil
		}
		var portErr *serial.PortError
		if errors.As(openErr, &portErr) && portErr.Code() == serial.PortBusy {
			return nil, true, nil
		}
		return nil, false, amota.NewTransportError("open", portName, openErr)
	})
	if err != nil {
		return nil, err
	}

	t, err := newTransport(p, portName, cfg.Logger)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	cfg.Logger.Info("serial port opened", "port", portName, "baud", cfg.BaudRate)
	return t, nil
}

func newTransport(p port, portName string, logger amota.Logger) (*Transport, error) {
	if err := p.SetReadTimeout(readTimeout); err != nil {
		return nil, amota.NewTransportError("set read timeout", portName, err)
	}
	if err := p.ResetInputBuffer(); err != nil {
		return nil, amota.NewTransportError("reset input buffer", portName, err)
	}

	t := &Transport{
		port:     p,
		portName: portName,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// WriteFrame writes one frame to the bridge.
func (t *Transport) WriteFrame(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	if !t.IsConnected() {
		return amota.NewTransportError("write", t.portName, amota.ErrNotConnected)
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	for written := 0; written < len(data); {
		n, err := t.port.Write(data[written:])
		if err != nil {
			return amota.NewTransportError("write", t.portName, err)
		}
		if n == 0 {
			return amota.NewTransportError("write", t.portName, io.ErrShortWrite)
		}
		written += n
	}
	return nil
}

// SetResponseHandler registers the callback receiving device responses
func (t *Transport) SetResponseHandler(handler amota.ResponseHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

func (t *Transport) readLoop() {
	defer close(t.done)

	reasm := frame.Reassembler{MaxPacketSize: frame.MaxResponseSize}
	buf := make([]byte, readBufSize)

	for {
		n, err := t.port.Read(buf)
		if err != nil {
			t.mu.Lock()
			closed := t.closed
			t.failed = true
			t.mu.Unlock()
			if !closed {
				t.logger.Error("serial read failed", "port", t.portName, "error", err)
			}
			return
		}
		if n == 0 {
			// Read timeout; check for shutdown.
			t.mu.Lock()
			closed := t.closed
			t.mu.Unlock()
			if closed {
				return
			}
			// Responses arrive in one burst, so a partial packet left over
			// an idle period is noise.
			if dropped := reasm.Reset(); dropped > 0 {
				t.logger.Warn("discarding partial response", "port", t.portName, "bytes", dropped)
			}
			continue
		}

		for _, rsp := range reasm.Write(buf[:n]) {
			t.logger.Debug("device response", "port", t.portName, "data", amota.FormatHex(rsp))
			t.mu.Lock()
			handler := t.handler
			t.mu.Unlock()
			if handler != nil {
				handler(rsp)
			}
		}
	}
}

// Close stops the reader and closes the port
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()

	err := t.port.Close()
	<-t.done
	if err != nil {
		return amota.NewTransportError("close", t.portName, err)
	}
	return nil
}

// IsConnected returns true if the transport is connected
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil && !t.closed && !t.failed
}

// Type returns the transport type
func (*Transport) Type() amota.TransportType {
	return amota.TransportUART
}

// PortName returns the serial device path
func (t *Transport) PortName() string {
	return t.portName
}

var (
	_ amota.Transport        = (*Transport)(nil)
	_ amota.ResponseNotifier = (*Transport)(nil)
)
