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
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// OutputLine is a GPIO output driven by the host. Any periph.io gpio.PinIO
// satisfies it.
type OutputLine interface {
	Out(l gpio.Level) error
	Read() gpio.Level
}

// InputLine is a GPIO input sampled by the host. Any periph.io gpio.PinIO
// configured with an edge satisfies it.
type InputLine interface {
	Read() gpio.Level
	WaitForEdge(timeout time.Duration) bool
}

// Lines is the wiring between the host and the modem.
//
// The ST7540 has no chip-select input, so Select is a host-side line that
// gates whether the host takes part in bus exchanges. Engage raises an edge
// whenever the modem starts clocking the bus.
type Lines struct {
	// Bus exchanges bytes with the modem, usually a periph.io spi.Conn.
	Bus conn.Conn
	// Select gates the host's participation in bus exchanges (active low).
	Select OutputLine
	// Engage signals the start of a bus exchange.
	Engage InputLine
	// DataSelect is the REG/DATA line.
	DataSelect OutputLine
	// Direction is the RxTx line.
	Direction OutputLine
	// Ready is the RSTO line. It goes high once the modem has booted.
	Ready InputLine
	// CarrierDetect is the CD/PD line (active low). Optional.
	CarrierDetect InputLine
	// Watchdog is the WD line. The driver never touches it; hand it to the
	// watchdog package.
	Watchdog OutputLine
}

const (
	selectActive   = gpio.Low
	selectInactive = gpio.High
)

func (l Lines) validate() error {
	switch {
	case l.Bus == nil:
		return NewTransportError("validate", "bus", ErrInvalidParameter, ErrorTypePermanent)
	case l.Select == nil:
		return NewTransportError("validate", "select", ErrInvalidParameter, ErrorTypePermanent)
	case l.Engage == nil:
		return NewTransportError("validate", "engage", ErrInvalidParameter, ErrorTypePermanent)
	case l.DataSelect == nil:
		return NewTransportError("validate", "data-select", ErrInvalidParameter, ErrorTypePermanent)
	case l.Direction == nil:
		return NewTransportError("validate", "direction", ErrInvalidParameter, ErrorTypePermanent)
	case l.Ready == nil:
		return NewTransportError("validate", "ready", ErrInvalidParameter, ErrorTypePermanent)
	}
	return nil
}
