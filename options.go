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
	"fmt"
	"time"
)

// Option is a functional option for configuring a Device
type Option func(*Device) error

// WithTransferTimeout bounds how long a single bus transfer may take
func WithTransferTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: transfer timeout must be positive", ErrInvalidParameter)
		}
		d.config.TransferTimeout = timeout
		return nil
	}
}

// WithReadyTimeout bounds how long Setup waits for the modem to boot
func WithReadyTimeout(timeout time.Duration) Option {
	return func(d *Device) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: ready timeout must be positive", ErrInvalidParameter)
		}
		d.config.ReadyTimeout = timeout
		return nil
	}
}

// WithMaxConvergeAttempts bounds the number of control register reads
// Converge performs before giving up.
func WithMaxConvergeAttempts(attempts int) Option {
	return func(d *Device) error {
		if attempts < 1 {
			return fmt.Errorf("%w: converge attempts must be at least 1, got %d", ErrInvalidParameter, attempts)
		}
		d.config.MaxConvergeAttempts = attempts
		return nil
	}
}

// WithProfile sets the control register image to converge to
func WithProfile(profile ControlRegister) Option {
	return func(d *Device) error {
		d.config.Profile = profile
		return nil
	}
}

// WithStatusReporter sets where status codes are sent
func WithStatusReporter(reporter StatusReporter) Option {
	return func(d *Device) error {
		if reporter == nil {
			return fmt.Errorf("%w: nil status reporter", ErrInvalidParameter)
		}
		d.config.Reporter = reporter
		return nil
	}
}

// WithPollInterval sets how often the driver rechecks for shutdown while
// waiting on a line edge.
func WithPollInterval(interval time.Duration) Option {
	return func(d *Device) error {
		if interval <= 0 {
			return fmt.Errorf("%w: poll interval must be positive", ErrInvalidParameter)
		}
		d.config.PollInterval = interval
		return nil
	}
}
