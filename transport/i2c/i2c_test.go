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

package i2c

import (
	"context"
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amota "github.com/ZaparooProject/go-amota"
	"github.com/ZaparooProject/go-amota/internal/frame"
)

// fakeCoprocessor emulates the register interface of the co-processor.
type fakeCoprocessor struct {
	txErr    error
	pending  [][]byte
	frames   [][]byte
	busy     int
	mu       sync.Mutex
	readOnly bool
}

func (f *fakeCoprocessor) Tx(w, r []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.txErr != nil {
		return f.txErr
	}

	switch {
	case len(w) == 1 && w[0] == regStatus:
		var status byte
		if len(f.pending) > 0 {
			status |= statusResponseReady
		}
		if f.busy > 0 {
			f.busy--
		} else if !f.readOnly {
			status |= statusWritable
		}
		r[0] = status
	case len(w) == 1 && w[0] == regRxLength:
		binary.LittleEndian.PutUint16(r, uint16(len(f.pending[0])))
	case len(w) == 1 && w[0] == regMailbox:
		copy(r, f.pending[0])
		f.pending = f.pending[1:]
	case len(w) > 1 && w[0] == regMailbox:
		f.frames = append(f.frames, append([]byte(nil), w[1:]...))
	default:
		return errors.New("unexpected transaction")
	}
	return nil
}

func (f *fakeCoprocessor) queue(rsp []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, rsp)
}

func (f *fakeCoprocessor) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.frames...)
}

func newTestTransport(t *testing.T, dev *fakeCoprocessor, opts ...Option) *Transport {
	t.Helper()
	cfg := defaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.ReadyTimeout = 50 * time.Millisecond
	for _, opt := range opts {
		opt(&cfg)
	}
	tr := newTransport(dev, nil, "test-bus", cfg)
	t.Cleanup(func() { _ = tr.Close() })
	return tr
}

func TestTransport_ZeroValue(t *testing.T) {
	t.Parallel()

	tr := &Transport{}
	assert.False(t, tr.IsConnected())
	assert.Equal(t, amota.TransportI2C, tr.Type())
	assert.Equal(t, MailboxSize, tr.MaxFrameSize())
	require.NoError(t, tr.Close())
}

func TestWriteFrame_WaitsForMailbox(t *testing.T) {
	t.Parallel()

	dev := &fakeCoprocessor{busy: 3}
	tr := newTestTransport(t, dev)

	require.NoError(t, tr.WriteFrame(context.Background(), []byte{0x01, 0x02, 0x03}))
	assert.Equal(t, [][]byte{{0x01, 0x02, 0x03}}, dev.Frames())
}

func TestWriteFrame_MailboxNeverWritable(t *testing.T) {
	t.Parallel()

	dev := &fakeCoprocessor{readOnly: true}
	tr := newTestTransport(t, dev)

	err := tr.WriteFrame(context.Background(), []byte{0x01})
	require.ErrorIs(t, err, amota.ErrTransportTimeout)
	assert.Empty(t, dev.Frames())
}

func TestWriteFrame_TooLarge(t *testing.T) {
	t.Parallel()

	tr := newTestTransport(t, &fakeCoprocessor{})
	var te *amota.TransportError
	require.ErrorAs(t, tr.WriteFrame(context.Background(), make([]byte, MailboxSize+1)), &te)
	assert.Equal(t, "test-bus", te.Port)
}

func TestWriteFrame_BusError(t *testing.T) {
	t.Parallel()

	boom := errors.New("nack")
	tr := newTestTransport(t, &fakeCoprocessor{txErr: boom})
	require.ErrorIs(t, tr.WriteFrame(context.Background(), []byte{0x01}), boom)
}

func TestPollLoop_DeliversResponses(t *testing.T) {
	t.Parallel()

	dev := &fakeCoprocessor{}
	tr := newTestTransport(t, dev)

	var (
		mu  sync.Mutex
		got [][]byte
	)
	tr.SetResponseHandler(func(rsp []byte) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, rsp)
	})

	header := frame.BuildResponse(0x01, 0x00, []byte{0x00, 0x20, 0x00, 0x00})
	ack := frame.BuildResponse(0x03, 0x00, nil)
	dev.queue(header)
	dev.queue(ack)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]byte{header, ack}, got)
}

func TestParseResponseLength(t *testing.T) {
	t.Parallel()

	n, err := parseResponseLength([]byte{0x08, 0x00})
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	_, err = parseResponseLength([]byte{0x00, 0x00})
	require.ErrorIs(t, err, amota.ErrEmptyResponse)

	_, err = parseResponseLength([]byte{0x01})
	require.ErrorIs(t, err, amota.ErrResponseTooShort)

	_, err = parseResponseLength([]byte{0xFF, 0x00})
	require.ErrorIs(t, err, amota.ErrInvalidParameter)
}

func TestClose_StopsPolling(t *testing.T) {
	t.Parallel()

	tr := newTestTransport(t, &fakeCoprocessor{})
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())
	assert.False(t, tr.IsConnected())
	require.ErrorIs(t, tr.WriteFrame(context.Background(), []byte{1}), amota.ErrNotConnected)
}
