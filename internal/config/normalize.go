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

import "strings"

// Normalize applies post-validation normalization.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Host.Port = strings.TrimSpace(cfg.Host.Port)

	// gpioreg names are upper case
	p := &cfg.Modem.Pins
	for _, name := range []*string{
		&p.Select, &p.Engage, &p.DataSelect, &p.Direction,
		&p.Ready, &p.CarrierDetect, &p.Watchdog,
	} {
		*name = strings.ToUpper(strings.TrimSpace(*name))
	}

	// the watchdog must toggle at least once inside the ready timeout
	if cfg.Watchdog.Period > cfg.Timeouts.Ready {
		cfg.Watchdog.Period = cfg.Timeouts.Ready
	}
}
