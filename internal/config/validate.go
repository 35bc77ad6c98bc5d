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

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Modem.SPIBus == "" {
		return fmt.Errorf("modem: spi_bus must be set")
	}
	if cfg.Modem.FrequencyHz <= 0 {
		return fmt.Errorf("modem: frequency_hz must be positive, got %d", cfg.Modem.FrequencyHz)
	}

	// every required line needs a distinct pin
	pins := []struct {
		role string
		name string
	}{
		{"select", cfg.Modem.Pins.Select},
		{"engage", cfg.Modem.Pins.Engage},
		{"data_select", cfg.Modem.Pins.DataSelect},
		{"direction", cfg.Modem.Pins.Direction},
		{"ready", cfg.Modem.Pins.Ready},
		{"watchdog", cfg.Modem.Pins.Watchdog},
		{"carrier_detect", cfg.Modem.Pins.CarrierDetect},
	}
	owner := make(map[string]string)
	for _, p := range pins {
		name := strings.ToUpper(strings.TrimSpace(p.name))
		if name == "" {
			if p.role == "carrier_detect" {
				continue
			}
			return fmt.Errorf("modem.pins: %s must be set", p.role)
		}
		if prev, exists := owner[name]; exists {
			return fmt.Errorf("modem.pins: %s and %s both use %s", prev, p.role, name)
		}
		owner[name] = p.role
	}

	if cfg.Host.Baud <= 0 {
		return fmt.Errorf("host: baud must be positive, got %d", cfg.Host.Baud)
	}

	if _, err := cfg.Profile(); err != nil {
		return fmt.Errorf("register: profile: %w", err)
	}
	if cfg.Register.MaxAttempts < 1 {
		return fmt.Errorf("register: max_attempts must be at least 1, got %d", cfg.Register.MaxAttempts)
	}

	durations := []struct {
		key string
		d   time.Duration
	}{
		{"timeouts.transfer", cfg.Timeouts.Transfer},
		{"timeouts.ready", cfg.Timeouts.Ready},
		{"timeouts.poll", cfg.Timeouts.Poll},
		{"watchdog.period", cfg.Watchdog.Period},
		{"bridge.poll_interval", cfg.Bridge.PollInterval},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", d.key, d.d)
		}
	}

	if cfg.Bridge.ReplyAttempts < 1 {
		return fmt.Errorf("bridge: reply_attempts must be at least 1, got %d", cfg.Bridge.ReplyAttempts)
	}

	return nil
}
