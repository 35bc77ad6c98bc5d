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
	"strings"

	"github.com/ZaparooProject/go-st7540/bitstream"
)

// ControlRegisterSize is the size of the ST7540 control register in bytes
const ControlRegisterSize = 3

// ControlRegister is an image of the 24-bit control register as it sits in
// the host's transfer buffer.
type ControlRegister [ControlRegisterSize]byte

// DefaultProfile is the register image the driver converges the modem to
// at startup.
var DefaultProfile = ControlRegister{0xD2, 0x22, 0x13}

// Equal compares two register images byte by byte
func (r ControlRegister) Equal(other ControlRegister) bool {
	return r == other
}

func (r ControlRegister) String() string {
	return fmt.Sprintf("%02X %02X %02X", r[0], r[1], r[2])
}

// BitString renders the register as 24 bits, most significant bit of each
// byte first, one group per byte.
func (r ControlRegister) BitString() string {
	var sb strings.Builder
	for i := 0; i < ControlRegisterSize*8; i++ {
		if i > 0 && i%8 == 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('0' + bitstream.GetBit(r[:], i))
	}
	return sb.String()
}

// ParseControlRegister builds a register image from exactly three byte values
func ParseControlRegister(values []int) (ControlRegister, error) {
	var reg ControlRegister
	if len(values) != ControlRegisterSize {
		return reg, fmt.Errorf("%w: control register needs %d bytes, got %d",
			ErrInvalidParameter, ControlRegisterSize, len(values))
	}
	for i, v := range values {
		if v < 0 || v > 0xFF {
			return reg, fmt.Errorf("%w: control register byte %d out of range: %d", ErrInvalidParameter, i, v)
		}
		reg[i] = byte(v)
	}
	return reg, nil
}

// ConvergeState is the state of the control register negotiation
type ConvergeState int32

const (
	StateIdle ConvergeState = iota
	StateWaitingForReady
	StateComparing
	StateWriting
	StateConverged
)

func (s ConvergeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForReady:
		return "waiting-for-ready"
	case StateComparing:
		return "comparing"
	case StateWriting:
		return "writing"
	case StateConverged:
		return "converged"
	default:
		return fmt.Sprintf("ConvergeState(%d)", int32(s))
	}
}
