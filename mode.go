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
	"sync"

	"periph.io/x/conn/v3/gpio"
)

// TransferMode is one of the four ST7540 operating modes.
type TransferMode uint8

// Operating modes, in the order of the vendor's mode table.
const (
	ModeTransmit TransferMode = iota
	ModeReceive
	ModeReadControlRegister
	ModeWriteControlRegister
)

// modeLevels holds the (REG/DATA, RxTx) levels for each mode. The pairing
// comes from the ST7540 datasheet and is not derived from SPI conventions.
var modeLevels = [...]struct {
	dataSelect gpio.Level
	direction  gpio.Level
}{
	ModeTransmit:             {gpio.Low, gpio.Low},
	ModeReceive:              {gpio.Low, gpio.High},
	ModeReadControlRegister:  {gpio.High, gpio.High},
	ModeWriteControlRegister: {gpio.High, gpio.Low},
}

// Valid reports whether m is one of the four known modes
func (m TransferMode) Valid() bool {
	return int(m) < len(modeLevels)
}

// IsRead reports whether the host receives bytes in this mode
func (m TransferMode) IsRead() bool {
	return m == ModeReceive || m == ModeReadControlRegister
}

// Levels returns the REG/DATA and RxTx levels for the mode
func (m TransferMode) Levels() (dataSelect, direction gpio.Level) {
	l := modeLevels[m]
	return l.dataSelect, l.direction
}

func (m TransferMode) String() string {
	switch m {
	case ModeTransmit:
		return "transmit"
	case ModeReceive:
		return "receive"
	case ModeReadControlRegister:
		return "read-control-register"
	case ModeWriteControlRegister:
		return "write-control-register"
	default:
		return fmt.Sprintf("TransferMode(%d)", uint8(m))
	}
}

// ModeController drives the REG/DATA and RxTx lines. Receive is the idle
// mode: the modem listens to the mains whenever no operation is in flight.
type ModeController struct {
	dataSelect OutputLine
	direction  OutputLine
	mu         sync.Mutex
	mode       TransferMode
}

// NewModeController creates a controller. It does not touch the lines until
// Select or RestoreIdle is called.
func NewModeController(dataSelect, direction OutputLine) *ModeController {
	return &ModeController{
		dataSelect: dataSelect,
		direction:  direction,
		mode:       ModeReceive,
	}
}

// Select applies the line levels for mode
func (c *ModeController) Select(mode TransferMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dataSelect, direction := mode.Levels()
	if err := c.dataSelect.Out(dataSelect); err != nil {
		return NewTransportError("select mode", "data-select", err, ErrorTypeTransient)
	}
	if err := c.direction.Out(direction); err != nil {
		return NewTransportError("select mode", "direction", err, ErrorTypeTransient)
	}
	c.mode = mode
	debugf("mode %v (REG/DATA=%v RxTx=%v)", mode, dataSelect, direction)
	return nil
}

// RestoreIdle puts the modem back into receive mode
func (c *ModeController) RestoreIdle() error {
	return c.Select(ModeReceive)
}

// Mode returns the last selected mode
func (c *ModeController) Mode() TransferMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}
