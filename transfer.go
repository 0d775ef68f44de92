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
	"io"
	"time"

	"github.com/ZaparooProject/go-amota/internal/frame"
)

// run executes one transfer from opening the file to a terminal state.
func (e *Engine) run(s *session) {
	defer close(s.done)

	err := e.transfer(s)
	if err == nil {
		e.terminate(s, StatusSuccess, nil)
	} else {
		e.terminate(s, StatusOf(err), err)
	}

	status, cause := s.result()
	e.transition(s, terminalEvent(status))

	if s.firmware != nil {
		if closeErr := s.firmware.Close(); closeErr != nil {
			e.config.Logger.Warn("close firmware", "session", s.id, "error", closeErr)
		}
		s.firmware = nil
	}

	switch {
	case status == StatusSuccess:
		e.config.Logger.Info("ota upgrading: complete", "session", s.id, "bytes", s.offset)
	case status == StatusStopped:
		e.config.Logger.Info("ota upgrading: stopped", "session", s.id, "offset", s.offset)
	default:
		e.config.Logger.Error("ota upgrading: failed", "session", s.id,
			"status", status.String(), "error", cause)
	}
}

// transfer runs the four protocol phases.
func (e *Engine) transfer(s *session) error {
	e.transition(s, eventOpen)

	fw, err := e.config.OpenFirmware(s.path)
	if err != nil {
		return &TransferError{Op: "open firmware", Status: StatusFileReadError, Err: err}
	}
	s.firmware = fw

	if fw.Size() == 0 {
		return &TransferError{Op: "open firmware", Status: StatusFileReadError, Err: ErrEmptyFirmware}
	}

	if err := e.sendHeader(s); err != nil {
		return err
	}
	if err := e.seekOffset(s); err != nil {
		return err
	}
	if err := e.sendData(s); err != nil {
		return err
	}
	if err := e.sendVerify(s); err != nil {
		return err
	}
	if e.config.ResetAfterVerify {
		return e.sendReset(s)
	}
	return nil
}

func (e *Engine) sendHeader(s *session) error {
	e.transition(s, eventSendHeader)

	hdr, err := ReadImageHeader(s.firmware)
	if err != nil {
		return &TransferError{
			Op:      "read image header",
			Command: CommandHeader,
			Status:  StatusInvalidHeaderInfo,
			Err:     err,
		}
	}
	s.totalSize = hdr.FirmwareSize

	e.config.Logger.Debug("send header", "session", s.id,
		"firmware_size", s.totalSize, "header", FormatHex(hdr.Raw))

	rsp, err := e.sendCommand(s, CommandHeader, hdr.Raw, eventHeaderSent, e.config.ResponseTimeout)
	if err != nil {
		return err
	}

	s.offset = rsp.ResumeOffset
	e.transition(s, eventHeaderAcked)
	return nil
}

// seekOffset skips data the target reported as already received. Offsets
// are relative to the first byte after the image header.
func (e *Engine) seekOffset(s *session) error {
	if s.offset == 0 {
		return nil
	}

	if err := s.firmware.Skip(int64(s.offset)); err != nil {
		return &TransferError{Op: "seek resume offset", Status: StatusFileReadError, Err: err}
	}
	e.config.Logger.Info("resume from device offset", "session", s.id, "offset", s.offset)
	return nil
}

func (e *Engine) sendData(s *session) error {
	e.transition(s, eventSendData)

	total := s.totalSize
	offset := s.offset
	blockSize := uint32(e.config.BlockSize)
	buf := make([]byte, blockSize)

	e.config.Logger.Info("send firmware data", "session", s.id,
		"firmware_size", total, "offset", offset,
		"blocks", (uint64(total)+uint64(blockSize)-1)/uint64(blockSize))

	for offset < total {
		if !s.active.Load() {
			return ErrTransferStopped
		}

		want := min(blockSize, total-offset)
		n, err := io.ReadFull(s.firmware, buf[:want])
		if n == 0 {
			if err == nil {
				err = io.ErrUnexpectedEOF
			}
			return &TransferError{
				Op:      "read firmware block",
				Command: CommandData,
				Status:  StatusInvalidPackageLength,
				Err:     fmt.Errorf("%w at offset %d: %w", ErrShortRead, offset, err),
			}
		}

		if _, err := e.sendCommand(s, CommandData, buf[:n], "", e.config.ResponseTimeout); err != nil {
			return err
		}

		prev := offset
		offset += uint32(n)
		s.offset = offset

		if interval := uint32(e.config.PacingInterval); interval > 0 && offset/interval != prev/interval {
			if err := sleepContext(s.ctx, e.config.PacingDelay); err != nil {
				return err
			}
		}

		e.emitProgress(s, ProgressPercent(offset, total))
		e.config.Logger.Debug("sent firmware block", "session", s.id,
			"offset", offset, "total", total, "len", n)
	}

	return nil
}

func (e *Engine) sendVerify(s *session) error {
	e.transition(s, eventSendVerify)
	e.config.Logger.Info("send verify", "session", s.id)

	_, err := e.sendCommand(s, CommandVerify, nil, eventVerifySent, e.config.VerifyTimeout)
	return err
}

// sendReset asks the target to reboot into the new image. The target may
// reset before acknowledging, so only a stop is treated as an error.
func (e *Engine) sendReset(s *session) error {
	e.config.Logger.Info("send reset", "session", s.id)

	_, err := e.sendCommand(s, CommandReset, nil, "", e.config.ResponseTimeout)
	if err != nil {
		if errors.Is(err, ErrTransferStopped) {
			return err
		}
		e.config.Logger.Warn("reset not acknowledged", "session", s.id, "error", err)
	}
	return nil
}

// sendCommand encodes cmd, writes it frame by frame and waits for the
// matching acknowledgment. awaitEvent, if set, is fired once the last frame
// was written.
func (e *Engine) sendCommand(
	s *session,
	cmd Command,
	payload []byte,
	awaitEvent string,
	timeout time.Duration,
) (Response, error) {
	pkt, err := frame.BuildPacket(cmd.Byte(), payload)
	if err != nil {
		return Response{}, e.commandError(s, cmd, "encode", err)
	}

	s.correlator.Expect(cmd)

	if err := e.sendPacket(s, pkt); err != nil {
		return Response{}, e.commandError(s, cmd, "send", err)
	}

	if awaitEvent != "" {
		e.transition(s, awaitEvent)
	}

	rsp, err := s.correlator.Wait(s.ctx, timeout)
	if err != nil {
		return Response{}, e.commandError(s, cmd, "await ack", err)
	}
	return rsp, nil
}

// sendPacket writes pkt as consecutive frames. Only the packet as a whole is
// acknowledged, so frames other than the last are followed by a fixed pause
// instead of a wait.
func (e *Engine) sendPacket(s *session, pkt []byte) error {
	frames := frame.Split(pkt, effectiveFrameSize(e.transport, e.config.MaxFrameSize))
	for i, f := range frames {
		if err := e.sendOneFrame(s, f); err != nil {
			return err
		}
		if i < len(frames)-1 {
			if err := sleepContext(s.ctx, e.config.FrameDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) sendOneFrame(s *session, f []byte) error {
	if !s.active.Load() {
		e.config.Logger.Debug("send frame: transfer stopped", "session", s.id)
		return ErrTransferStopped
	}
	if err := e.transport.WriteFrame(s.ctx, f); err != nil {
		if s.ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTransferStopped, err)
		}
		return fmt.Errorf("%w: %w", ErrTransportWrite, err)
	}
	return nil
}

func (e *Engine) commandError(s *session, cmd Command, op string, err error) error {
	if errors.Is(err, ErrTransferStopped) {
		return err
	}
	e.config.Logger.Error("send cmd failed", "session", s.id, "command", cmd.String(), "op", op, "error", err)
	return &TransferError{
		Op:      op,
		Command: cmd,
		Status:  StatusForCommand(cmd),
		Err:     err,
	}
}

// sleepContext pauses for d unless ctx is cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrTransferStopped, ctx.Err())
		}
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrTransferStopped, ctx.Err())
	case <-timer.C:
		return nil
	}
}
