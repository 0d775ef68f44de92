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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	amota "github.com/ZaparooProject/go-amota"
	"github.com/ZaparooProject/go-amota/detection"
	// Import all detectors to register them
	_ "github.com/ZaparooProject/go-amota/detection/i2c"
	_ "github.com/ZaparooProject/go-amota/detection/uart"
	"github.com/ZaparooProject/go-amota/transport/i2c"
	"github.com/ZaparooProject/go-amota/transport/uart"
)

type config struct {
	devicePath  *string
	firmware    *string
	baudRate    *int
	timeout     *time.Duration
	frameSize   *int
	frameDelay  *time.Duration
	pacingDelay *time.Duration
	reset       *bool
	debug       *bool
	list        *bool
	probe       *bool
}

func parseFlags() *config {
	cfg := &config{
		devicePath: flag.String("device", "",
			"Serial port or I2C bus (e.g., /dev/ttyACM0, COM3, /dev/i2c-1). Leave empty for auto-detection."),
		firmware:    flag.String("firmware", "", "Firmware image to upload"),
		baudRate:    flag.Int("baud", uart.DefaultBaudRate, "Serial baud rate"),
		timeout:     flag.Duration("timeout", amota.DefaultResponseTimeout, "Acknowledgment timeout per command"),
		frameSize:   flag.Int("frame-size", 240, "Largest frame written to the link"),
		frameDelay:  flag.Duration("frame-delay", amota.DefaultFrameDelay, "Pause between frames of one packet"),
		pacingDelay: flag.Duration("pacing-delay", amota.DefaultPacingDelay, "Pause after every 1024 data bytes"),
		reset:       flag.Bool("reset", false, "Send a reset command after successful verification"),
		debug:       flag.Bool("debug", false, "Enable debug output"),
		list:        flag.Bool("list", false, "List detected devices and exit"),
		probe:       flag.Bool("probe", false, "Probe devices during detection instead of inspecting metadata only"),
	}
	flag.Parse()
	return cfg
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func isI2CPath(path string) bool {
	return strings.Contains(strings.ToLower(path), "i2c")
}

// newTransport creates a new transport from a device path.
func newTransport(path string, cfg *config, logger *slog.Logger) (amota.Transport, error) {
	if path == "" {
		return nil, errors.New("empty device path")
	}

	if isI2CPath(path) {
		transport, err := i2c.New(path, i2c.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("failed to create I2C transport: %w", err)
		}
		return transport, nil
	}

	// Default to UART for serial ports
	transport, err := uart.New(path, uart.WithBaudRate(*cfg.baudRate), uart.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create UART transport: %w", err)
	}
	return transport, nil
}

func detectionOptions(cfg *config) *detection.Options {
	opts := detection.DefaultOptions()
	if *cfg.probe {
		opts.Mode = detection.Safe
	}
	return &opts
}

func listDevices(cfg *config) error {
	devices, err := detection.DetectAll(context.Background(), detectionOptions(cfg))
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}
	for _, d := range devices {
		_, _ = fmt.Printf("%-5s %-20s %-7s %s\n", d.Transport, d.Path, d.Confidence, d.Name)
	}
	return nil
}

func resolveDevice(cfg *config) (string, error) {
	if *cfg.devicePath != "" {
		_, _ = fmt.Printf("Opening device: %s\n", *cfg.devicePath)
		return *cfg.devicePath, nil
	}

	_, _ = fmt.Println("Auto-detecting AMOTA devices...")
	devices, err := detection.DetectAll(context.Background(), detectionOptions(cfg))
	if err != nil {
		return "", fmt.Errorf("no device given and detection failed: %w", err)
	}
	_, _ = fmt.Printf("Using %s (%s, %s confidence)\n", devices[0].Path, devices[0].Name, devices[0].Confidence)
	return devices[0].Path, nil
}

func engineOptions(cfg *config, logger *slog.Logger, done chan<- amota.Status) []amota.Option {
	return []amota.Option{
		amota.WithLogger(logger),
		amota.WithTimeout(*cfg.timeout),
		amota.WithMaxFrameSize(*cfg.frameSize),
		amota.WithFrameDelay(*cfg.frameDelay),
		amota.WithPacing(amota.DefaultPacingInterval, *cfg.pacingDelay),
		amota.WithResetAfterVerify(*cfg.reset),
		amota.WithProgressCallback(func(percent int) {
			_, _ = fmt.Printf("\rUploading: %3d%%", percent)
		}),
		amota.WithStatusCallback(func(status amota.Status) {
			if status.IsTerminal() {
				done <- status
			}
		}),
	}
}

func run(cfg *config, logger *slog.Logger) error {
	if *cfg.firmware == "" {
		return errors.New("-firmware is required")
	}

	path, err := resolveDevice(cfg)
	if err != nil {
		return err
	}

	transport, err := newTransport(path, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = transport.Close() }()

	done := make(chan amota.Status, 1)
	engine, err := amota.New(transport, engineOptions(cfg, logger, done)...)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() { _ = engine.Close() }()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	if err := engine.Start(*cfg.firmware); err != nil {
		return fmt.Errorf("failed to start upgrade: %w", err)
	}

	select {
	case <-sigs:
		_, _ = fmt.Println("\nStopping upgrade...")
		engine.Stop()
	case <-done:
	}

	err = engine.Wait(context.Background())
	// Terminate the progress line.
	_, _ = fmt.Println()
	if err != nil {
		return fmt.Errorf("upgrade ended with %s: %w", engine.Status(), err)
	}
	_, _ = fmt.Println("Upgrade completed successfully!")
	return nil
}

func main() {
	cfg := parseFlags()
	logger := newLogger(*cfg.debug)

	if *cfg.list {
		if err := listDevices(cfg); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, logger); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
