// go-st7540
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-st7540.
//
// go-st7540 is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-st7540 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-st7540; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package st7540

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// DeviceConfig contains configuration options for the Device
type DeviceConfig struct {
	// Reporter receives status codes. Defaults to discarding them.
	Reporter StatusReporter
	// TransferTimeout bounds a single bus transfer
	TransferTimeout time.Duration
	// ReadyTimeout bounds the wait for the modem to boot
	ReadyTimeout time.Duration
	// PollInterval is the granularity of line waits
	PollInterval time.Duration
	// MaxConvergeAttempts bounds the control register reads in Converge
	MaxConvergeAttempts int
	// Profile is the control register image to converge to
	Profile ControlRegister
}

// DefaultDeviceConfig returns default device configuration
func DefaultDeviceConfig() *DeviceConfig {
	return &DeviceConfig{
		Reporter:            StatusReporterFunc(func(StatusCode) error { return nil }),
		TransferTimeout:     defaultTransferTimeout,
		ReadyTimeout:        10 * time.Second,
		PollInterval:        defaultServiceInterval,
		MaxConvergeAttempts: 8,
		Profile:             DefaultProfile,
	}
}

// Device is an ST7540 power-line modem attached to the host.
//
// Thread Safety: register and mains operations are serialised; a call made
// while another one owns the mode lines fails with ErrTransferInProgress
// instead of blocking, and leaves the lines alone.
type Device struct {
	lines  Lines
	config *DeviceConfig
	modes  *ModeController
	engine *Engine
	state  atomic.Int32
	opMu   sync.Mutex
}

// New creates a device over the given lines and starts its transfer
// engine. Call Close to stop it.
func New(lines Lines, opts ...Option) (*Device, error) {
	if err := lines.validate(); err != nil {
		return nil, err
	}

	device := &Device{
		lines:  lines,
		config: DefaultDeviceConfig(),
	}
	for _, opt := range opts {
		if err := opt(device); err != nil {
			return nil, err
		}
	}

	engine, err := NewEngine(lines.Bus, lines.Select, lines.Engage)
	if err != nil {
		return nil, err
	}
	if err := engine.SetTimeout(device.config.TransferTimeout); err != nil {
		return nil, err
	}
	if err := engine.SetServiceInterval(device.config.PollInterval); err != nil {
		return nil, err
	}
	if err := engine.Start(context.Background()); err != nil {
		return nil, err
	}

	device.engine = engine
	device.modes = NewModeController(lines.DataSelect, lines.Direction)
	return device, nil
}

// Close stops the transfer engine
func (d *Device) Close() error {
	d.engine.Stop()
	return nil
}

// Engine returns the device's transfer engine
func (d *Device) Engine() *Engine {
	return d.engine
}

// Mode returns the currently selected transfer mode
func (d *Device) Mode() TransferMode {
	return d.modes.Mode()
}

// State returns the control register negotiation state
func (d *Device) State() ConvergeState {
	return ConvergeState(d.state.Load())
}

func (d *Device) setState(s ConvergeState) {
	if old := ConvergeState(d.state.Swap(int32(s))); old != s {
		debugf("state %v -> %v", old, s)
	}
}

func (d *Device) report(code StatusCode) error {
	debugf("status %s (%s)", code, code.Description())
	if err := d.config.Reporter.ReportStatus(code); err != nil {
		return fmt.Errorf("failed to report status %s: %w", code, err)
	}
	return nil
}

// Setup brings the modem up: it puts the lines in receive mode, waits for
// the modem to boot and converges the control register to the profile.
// Status codes are reported at each step.
func (d *Device) Setup(ctx context.Context) error {
	if err := d.modes.RestoreIdle(); err != nil {
		return err
	}

	d.setState(StateWaitingForReady)
	if err := d.report(StatusWaitingForModemBoot); err != nil {
		return err
	}
	if err := d.WaitReady(ctx); err != nil {
		return err
	}
	if err := d.report(StatusModemBooted); err != nil {
		return err
	}

	if _, err := d.Converge(ctx); err != nil {
		return err
	}
	return d.report(StatusSetupComplete)
}

// WaitReady blocks until the modem raises its ready line, the ready
// timeout elapses or ctx is done.
func (d *Device) WaitReady(ctx context.Context) error {
	deadline := time.Now().Add(d.config.ReadyTimeout)

	for d.lines.Ready.Read() != gpio.High {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for modem boot: %w", ctx.Err())
		default:
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return NewDeviceNotReadyError("waitReady", "ready")
		}
		d.lines.Ready.WaitForEdge(min(remaining, d.config.PollInterval))
	}
	debugln("modem ready")
	return nil
}

// IsReady samples the ready line
func (d *Device) IsReady() bool {
	return d.lines.Ready.Read() == gpio.High
}

// CarrierDetected reports whether the modem sees a carrier on the mains.
// It is always false when no carrier-detect line is wired.
func (d *Device) CarrierDetected() bool {
	if d.lines.CarrierDetect == nil {
		return false
	}
	return d.lines.CarrierDetect.Read() == gpio.Low
}

// Converge reads the control register and, while it differs from the
// profile, writes the profile and reads again. It performs at most
// MaxConvergeAttempts reads and returns the last image read.
func (d *Device) Converge(ctx context.Context) (ControlRegister, error) {
	target := d.config.Profile
	maxAttempts := d.config.MaxConvergeAttempts

	for attempt := 1; ; attempt++ {
		d.setState(StateComparing)
		observed, err := d.ReadControlRegister(ctx)
		if err != nil {
			return observed, err
		}

		if observed.Equal(target) {
			d.setState(StateConverged)
			debugf("control register converged after %d reads: %s", attempt, observed)
			return observed, d.report(StatusControlRegisterSet)
		}

		debugf("control register %s, want %s (read %d/%d)", observed, target, attempt, maxAttempts)
		if attempt >= maxAttempts {
			return observed, &RegisterMismatchError{
				Attempts: attempt,
				Observed: observed,
				Target:   target,
			}
		}

		d.setState(StateWriting)
		if err := d.WriteControlRegister(ctx, target); err != nil {
			return observed, err
		}
	}
}

// ReadControlRegister reads the 24-bit control register
func (d *Device) ReadControlRegister(ctx context.Context) (ControlRegister, error) {
	var reg ControlRegister
	err := d.transfer(ctx, reg[:], ModeReadControlRegister)
	return reg, err
}

// WriteControlRegister writes the 24-bit control register
func (d *Device) WriteControlRegister(ctx context.Context, reg ControlRegister) error {
	return d.transfer(ctx, reg[:], ModeWriteControlRegister)
}

// Transmit sends payload over the mains
func (d *Device) Transmit(ctx context.Context, payload []byte) error {
	if len(payload) == 0 || len(payload) > MainsBufferSize {
		return fmt.Errorf("%w: payload of %d bytes, capacity %d", ErrInvalidLength, len(payload), MainsBufferSize)
	}
	return d.transfer(ctx, payload, ModeTransmit)
}

// Receive reads n bytes from the mains into buf. A modem that has nothing
// to deliver never engages the bus, which surfaces as ErrNoMessage.
func (d *Device) Receive(ctx context.Context, buf *Buffer, n int) error {
	dst, err := buf.grow(n)
	if err != nil {
		return err
	}
	if err := d.transfer(ctx, dst, ModeReceive); err != nil {
		buf.Reset()
		if errors.Is(err, ErrTransferTimeout) {
			return fmt.Errorf("%w: %w", ErrNoMessage, err)
		}
		return err
	}
	return nil
}

// transfer selects mode, runs one engine transfer and always puts the
// lines back into receive mode.
func (d *Device) transfer(ctx context.Context, buf []byte, mode TransferMode) (err error) {
	if !d.opMu.TryLock() {
		return fmt.Errorf("%v transfer failed: %w", mode, ErrTransferInProgress)
	}
	defer d.opMu.Unlock()

	if err := d.modes.Select(mode); err != nil {
		return err
	}
	defer func() {
		if idleErr := d.modes.RestoreIdle(); idleErr != nil && err == nil {
			err = idleErr
		}
	}()

	if err := d.engine.Transfer(ctx, buf, mode); err != nil {
		return fmt.Errorf("%v transfer failed: %w", mode, err)
	}
	return nil
}
