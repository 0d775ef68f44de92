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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// Engine drives AMOTA firmware upgrades over a Transport.
//
// One transfer runs at a time on a dedicated goroutine. Start, Stop and
// OnDeviceResponse may be called from any goroutine; the transfer itself
// owns the firmware source, the offsets and the state machine, and only the
// active flag and the response slot are shared with callers.
type Engine struct {
	transport Transport
	config    *Config
	events    *dispatcher
	current   *session
	status    atomic.Int32
	mu        sync.Mutex
	closed    bool
}

// session is the state of one transfer.
type session struct {
	ctx        context.Context
	firmware   Firmware
	err        error
	cancel     context.CancelFunc
	correlator *Correlator
	machine    *fsm.FSM
	done       chan struct{}
	id         string
	path       string
	mu         sync.Mutex
	outcome    Status
	totalSize  uint32
	offset     uint32
	active     atomic.Bool
}

// New creates an Engine for transport. If the transport delivers device
// responses itself (ResponseNotifier) they are routed to OnDeviceResponse.
func New(transport Transport, opts ...Option) (*Engine, error) {
	if transport == nil {
		return nil, fmt.Errorf("%w: transport cannot be nil", ErrInvalidParameter)
	}

	e := &Engine{
		transport: transport,
		config:    DefaultConfig(),
	}
	e.status.Store(int32(StatusStopped))

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	e.events = newDispatcher(e.config.OnStatus, e.config.OnProgress)

	if notifier, ok := transport.(ResponseNotifier); ok {
		notifier.SetResponseHandler(e.handleNotification)
	}

	return e, nil
}

// Start begins upgrading the target with the firmware image at path. It
// returns once the transfer goroutine is running; use Wait for the result.
func (e *Engine) Start(path string) error {
	e.mu.Lock()
	for {
		if e.closed {
			e.mu.Unlock()
			e.config.Logger.Error("start ota: engine closed")
			e.emitStatus(StatusNotInitialized)
			return ErrEngineClosed
		}

		prev := e.current
		if prev == nil {
			break
		}
		if prev.active.Load() {
			e.mu.Unlock()
			e.config.Logger.Info("start ota: already updating", "session", prev.id)
			return ErrTransferInProgress
		}

		select {
		case <-prev.done:
		default:
			// A stopped transfer may still be finishing a frame write.
			// Wait without the lock so Stop and the accessors stay usable,
			// then look again since Close or another Start may have won.
			e.mu.Unlock()
			<-prev.done
			e.mu.Lock()
			continue
		}
		break
	}
	defer e.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{
		id:         uuid.NewString(),
		path:       path,
		ctx:        ctx,
		cancel:     cancel,
		correlator: NewCorrelator(),
		done:       make(chan struct{}),
		outcome:    StatusUpgrading,
	}
	s.machine = newTransferFSM(func(from, to, event string) {
		e.config.Logger.Debug("transfer state", "session", s.id, "event", event, "from", from, "to", to)
	})
	s.active.Store(true)
	e.current = s

	e.config.Logger.Info("start ota", "session", s.id, "path", path)
	e.emitStatus(StatusUpgrading)

	go e.run(s)
	return nil
}

// Stop cancels the running transfer. A blocked acknowledgment wait returns
// immediately. Stopping when nothing is running does nothing.
func (e *Engine) Stop() {
	s := e.activeSession()
	if s == nil {
		e.config.Logger.Debug("stop ota: no transfer running")
		return
	}
	if e.terminate(s, StatusStopped, ErrTransferStopped) {
		e.config.Logger.Info("stop ota", "session", s.id)
	}
}

// OnDeviceResponse feeds a raw device response into the engine. It is safe
// to call at any time from any goroutine.
//
// A response carrying an unknown command aborts the running transfer with
// StatusUnknownError; a non-zero error code aborts it with StatusCRCError.
// Responses arriving while no transfer runs are logged and ignored.
func (e *Engine) OnDeviceResponse(raw []byte) error {
	rsp, err := DecodeResponse(raw)
	if err != nil {
		e.config.Logger.Error("ota response dropped", "error", err, "response", FormatHex(raw))
		return err
	}

	s := e.activeSession()

	if rsp.Command == CommandUnknown {
		e.config.Logger.Error("ota response: unknown command", "response", FormatHex(raw))
		unknownErr := fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, raw[2])
		if s != nil {
			e.terminate(s, StatusUnknownError, &TransferError{
				Op:     "decode response",
				Status: StatusUnknownError,
				Err:    unknownErr,
			})
		}
		return unknownErr
	}

	if s == nil {
		e.config.Logger.Warn("ota response: no transfer running, ignored",
			"command", rsp.Command.String(), "response", FormatHex(raw))
		return nil
	}

	if !rsp.OK() {
		devErr := &DeviceError{Command: rsp.Command, Code: rsp.Code}
		e.config.Logger.Error("ota response: device error", "session", s.id,
			"command", rsp.Command.String(), "code", rsp.Code, "response", FormatHex(raw))
		e.terminate(s, StatusCRCError, devErr)
		return devErr
	}

	if !s.correlator.Signal(rsp) {
		pending, armed := s.correlator.Pending()
		e.config.Logger.Warn("ota response: unsolicited, ignored", "session", s.id,
			"command", rsp.Command.String(), "pending", pending.String(), "armed", armed)
		return nil
	}

	e.config.Logger.Debug("ota response", "session", s.id,
		"command", rsp.Command.String(), "resume_offset", rsp.ResumeOffset)
	return nil
}

// Wait blocks until the current transfer reaches a terminal state and returns
// its error, nil on success. It returns nil immediately if no transfer was
// ever started.
func (e *Engine) Wait(ctx context.Context) error {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()

	if s == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait for transfer: %w", ctx.Err())
	case <-s.done:
		_, err := s.result()
		return err
	}
}

// Status returns the most recently emitted status.
func (e *Engine) Status() Status {
	return Status(e.status.Load())
}

// State returns the state of the current transfer's state machine.
func (e *Engine) State() string {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()

	if s == nil {
		return StateIdle
	}
	return s.machine.Current()
}

// SessionID returns the identifier of the current or last transfer.
func (e *Engine) SessionID() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return ""
	}
	return e.current.id
}

// IsActive reports whether a transfer is running.
func (e *Engine) IsActive() bool {
	return e.activeSession() != nil
}

// Close stops any running transfer, waits for it to finish and flushes
// pending notifications. The transport is left open. Close must not be
// called from a status or progress callback.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	s := e.current
	e.mu.Unlock()

	if s != nil {
		if e.terminate(s, StatusStopped, ErrTransferStopped) {
			e.config.Logger.Info("stop ota: engine closing", "session", s.id)
		}
		<-s.done
	}

	e.events.close()
	return nil
}

func (e *Engine) handleNotification(raw []byte) {
	// Errors are already logged by OnDeviceResponse.
	_ = e.OnDeviceResponse(raw)
}

func (e *Engine) activeSession() *session {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()

	if s == nil || !s.active.Load() {
		return nil
	}
	return s
}

// terminate ends s with status. Only the first caller wins, so a transfer
// emits exactly one terminal status no matter how stop, device errors and
// the transfer goroutine race.
func (e *Engine) terminate(s *session, status Status, cause error) bool {
	if !s.active.CompareAndSwap(true, false) {
		return false
	}

	s.mu.Lock()
	s.outcome = status
	s.err = cause
	s.mu.Unlock()

	s.cancel()
	e.emitStatus(status)
	return true
}

func (e *Engine) emitStatus(status Status) {
	e.status.Store(int32(status))
	ev := event{kind: eventStatus, status: status}
	if !e.events.post(ev) {
		// Closed engine: nothing else delivers events any more.
		e.events.deliver(ev)
	}
}

func (e *Engine) emitProgress(s *session, percent int) {
	if !s.active.Load() {
		return
	}
	_ = e.events.post(event{kind: eventProgress, progress: percent})
}

func (s *session) result() (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome, s.err
}

func (e *Engine) transition(s *session, name string) {
	err := s.machine.Event(context.Background(), name)
	var noTransition fsm.NoTransitionError
	if err != nil && !errors.As(err, &noTransition) {
		e.config.Logger.Warn("transfer state transition rejected", "session", s.id,
			"event", name, "state", s.machine.Current(), "error", err)
	}
}
