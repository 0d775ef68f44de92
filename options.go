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
	"fmt"
	"time"

	"github.com/ZaparooProject/go-amota/internal/frame"
)

// Default protocol timings. The delays were tuned against BLE targets with
// small receive buffers; other links may want different values.
const (
	DefaultResponseTimeout = 3 * time.Second
	DefaultVerifyTimeout   = 3 * time.Second
	DefaultFrameDelay      = 35 * time.Millisecond
	DefaultPacingDelay     = 50 * time.Millisecond
	DefaultPacingInterval  = 1024
)

// Config holds the engine configuration.
type Config struct {
	// Logger receives structured log output (optional)
	Logger Logger

	// OnStatus is called with every status change (optional)
	OnStatus func(Status)

	// OnProgress is called with the percentage sent after every data block (optional)
	OnProgress func(percent int)

	// OpenFirmware opens the image passed to Start
	OpenFirmware FirmwareOpener

	// ResponseTimeout bounds the wait for Header, Data and Reset acknowledgments
	ResponseTimeout time.Duration

	// VerifyTimeout bounds the wait for the Verify acknowledgment
	VerifyTimeout time.Duration

	// FrameDelay is the pause after each frame that is not the last of its packet
	FrameDelay time.Duration

	// PacingDelay is the pause each time another PacingInterval bytes of data were sent
	PacingDelay time.Duration

	// MaxFrameSize is the largest transport write
	MaxFrameSize int

	// BlockSize is the number of firmware bytes per Data command
	BlockSize int

	// PacingInterval is the data byte interval that triggers PacingDelay (0 disables pacing)
	PacingInterval int

	// ResetAfterVerify sends a Reset command once verification succeeded
	ResetAfterVerify bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		Logger:          NopLogger(),
		OpenFirmware:    OpenFirmwareFile,
		ResponseTimeout: DefaultResponseTimeout,
		VerifyTimeout:   DefaultVerifyTimeout,
		FrameDelay:      DefaultFrameDelay,
		PacingDelay:     DefaultPacingDelay,
		MaxFrameSize:    frame.MaxAppPayload,
		BlockSize:       frame.FirmwareBlockSize,
		PacingInterval:  DefaultPacingInterval,
	}
}

// Option is a functional option for configuring an Engine
type Option func(*Engine) error

// WithLogger sets the logger used by the engine
func WithLogger(logger Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = NopLogger()
		}
		e.config.Logger = logger
		return nil
	}
}

// WithStatusCallback sets the status observer
func WithStatusCallback(callback func(Status)) Option {
	return func(e *Engine) error {
		e.config.OnStatus = callback
		return nil
	}
}

// WithProgressCallback sets the progress observer
func WithProgressCallback(callback func(percent int)) Option {
	return func(e *Engine) error {
		e.config.OnProgress = callback
		return nil
	}
}

// WithFirmwareOpener replaces the file system opener used by Start
func WithFirmwareOpener(opener FirmwareOpener) Option {
	return func(e *Engine) error {
		if opener == nil {
			return fmt.Errorf("%w: firmware opener cannot be nil", ErrInvalidParameter)
		}
		e.config.OpenFirmware = opener
		return nil
	}
}

// WithResponseTimeout sets the acknowledgment timeout for Header, Data and Reset
func WithResponseTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: response timeout must be positive, got %s", ErrInvalidParameter, timeout)
		}
		e.config.ResponseTimeout = timeout
		return nil
	}
}

// WithVerifyTimeout sets the acknowledgment timeout for Verify
func WithVerifyTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: verify timeout must be positive, got %s", ErrInvalidParameter, timeout)
		}
		e.config.VerifyTimeout = timeout
		return nil
	}
}

// WithTimeout sets both acknowledgment timeouts
func WithTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if err := WithResponseTimeout(timeout)(e); err != nil {
			return err
		}
		return WithVerifyTimeout(timeout)(e)
	}
}

// WithMaxFrameSize sets the largest transport write
func WithMaxFrameSize(size int) Option {
	return func(e *Engine) error {
		if size <= 0 {
			return fmt.Errorf("%w: frame size must be positive, got %d", ErrInvalidParameter, size)
		}
		e.config.MaxFrameSize = size
		return nil
	}
}

// WithBlockSize sets the number of firmware bytes per Data command
func WithBlockSize(size int) Option {
	return func(e *Engine) error {
		if size <= 0 || size > frame.MaxPayloadLength {
			return fmt.Errorf("%w: block size must be in 1..%d, got %d",
				ErrInvalidParameter, frame.MaxPayloadLength, size)
		}
		e.config.BlockSize = size
		return nil
	}
}

// WithFrameDelay sets the pause between frames of one packet
func WithFrameDelay(delay time.Duration) Option {
	return func(e *Engine) error {
		if delay < 0 {
			return fmt.Errorf("%w: frame delay cannot be negative", ErrInvalidParameter)
		}
		e.config.FrameDelay = delay
		return nil
	}
}

// WithPacing sets how often, in data bytes, the engine pauses and for how long.
// An interval of 0 disables pacing.
func WithPacing(interval int, delay time.Duration) Option {
	return func(e *Engine) error {
		if interval < 0 || delay < 0 {
			return fmt.Errorf("%w: pacing interval and delay cannot be negative", ErrInvalidParameter)
		}
		e.config.PacingInterval = interval
		e.config.PacingDelay = delay
		return nil
	}
}

// WithResetAfterVerify enables sending a Reset command after a successful verify
func WithResetAfterVerify(enabled bool) Option {
	return func(e *Engine) error {
		e.config.ResetAfterVerify = enabled
		return nil
	}
}
