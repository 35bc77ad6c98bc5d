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

// Package testing provides a simulated ST7540 for driver tests.
package testing

import (
	"errors"
	"sync"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// ErrBusFault is a canned bus error for fault injection
var ErrBusFault = errors.New("virtual bus fault")

type modemMode int

const (
	modeTransmit modemMode = iota
	modeReceive
	modeReadRegister
	modeWriteRegister
)

func decodeMode(regData, rxTx gpio.Level) modemMode {
	switch {
	case regData == gpio.Low && rxTx == gpio.Low:
		return modeTransmit
	case regData == gpio.Low && rxTx == gpio.High:
		return modeReceive
	case regData == gpio.High && rxTx == gpio.High:
		return modeReadRegister
	default:
		return modeWriteRegister
	}
}

type session struct {
	out  []byte
	in   []byte
	mode modemMode
	pos  int
}

// VirtualModem simulates an ST7540 wired to the host. It acts as the bus
// (conn.Conn) and drives the engage and ready lines; the host drives the
// select and mode lines.
//
// When the host asserts the select line the modem latches the mode from
// REG/DATA and RxTx and engages the bus. Register writes take effect and
// transmitted frames are captured when the host deasserts select.
type VirtualModem struct {
	Select        *Line
	Engage        *Line
	DataSelect    *Line
	Direction     *Line
	Ready         *Line
	CarrierDetect *Line
	Watchdog      *Line

	txErr    error
	session  *session
	inbox    [][]byte
	outbox   [][]byte
	writeLog []byte
	mu       sync.Mutex

	register            [3]byte
	staleReads          int
	reads               int
	writes              int
	exchanges           int
	deselectedExchanges int
	silent              bool
}

// NewVirtualModem creates a modem that has not booted yet, with an all
// zero control register.
func NewVirtualModem() *VirtualModem {
	m := &VirtualModem{
		Select:        NewLine("select", gpio.High),
		Engage:        NewLine("engage", gpio.Low),
		DataSelect:    NewLine("data-select", gpio.Low),
		Direction:     NewLine("direction", gpio.High),
		Ready:         NewLine("ready", gpio.Low),
		CarrierDetect: NewLine("carrier-detect", gpio.High),
		Watchdog:      NewLine("watchdog", gpio.Low),
	}
	m.Select.OnChange(m.onSelect)
	return m
}

// String implements conn.Conn
func (*VirtualModem) String() string {
	return "virtual-st7540"
}

// Duplex implements conn.Conn
func (*VirtualModem) Duplex() conn.Duplex {
	return conn.Full
}

// Boot raises the ready line
func (m *VirtualModem) Boot() {
	m.Ready.Set(gpio.High)
}

func (m *VirtualModem) onSelect(level gpio.Level) {
	if level == gpio.High {
		m.endSession()
		return
	}
	if m.beginSession() {
		m.Engage.Pulse()
	}
}

func (m *VirtualModem) beginSession() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &session{mode: decodeMode(m.DataSelect.Read(), m.Direction.Read())}
	m.session = s

	switch s.mode {
	case modeReadRegister:
		m.reads++
		image := m.register
		if m.reads <= m.staleReads {
			image = [3]byte{}
		}
		s.out = reversed(image[:])
	case modeReceive:
		if len(m.inbox) == 0 {
			return false
		}
		s.out = reversed(m.inbox[0])
		m.inbox = m.inbox[1:]
	}
	return !m.silent
}

func (m *VirtualModem) endSession() {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	m.session = nil
	if s == nil {
		return
	}

	switch s.mode {
	case modeWriteRegister:
		m.writes++
		if len(s.in) == len(m.register) {
			copy(m.register[:], reversed(s.in))
		}
	case modeTransmit:
		if len(s.in) > 0 {
			m.outbox = append(m.outbox, reversed(s.in))
		}
	}
}

// Tx implements conn.Conn. Each call is one byte exchange.
func (m *VirtualModem) Tx(w, r []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.txErr != nil {
		return m.txErr
	}

	m.exchanges++
	s := m.session
	if s == nil || m.Select.Read() != gpio.Low {
		m.deselectedExchanges++
		return nil
	}

	for i := range w {
		switch s.mode {
		case modeReadRegister, modeReceive:
			var b byte
			if s.pos < len(s.out) {
				b = s.out[s.pos]
			}
			s.pos++
			if i < len(r) {
				r[i] = b
			}
		default:
			s.in = append(s.in, w[i])
			m.writeLog = append(m.writeLog, w[i])
		}
	}
	return nil
}

// Register returns the modem's control register image
func (m *VirtualModem) Register() [3]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.register
}

// SetRegister overwrites the modem's control register image
func (m *VirtualModem) SetRegister(reg [3]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.register = reg
}

// SetStaleReads makes the first n register reads return zeros regardless
// of the register contents.
func (m *VirtualModem) SetStaleReads(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.staleReads = n
}

// SetSilent stops the modem from engaging the bus
func (m *VirtualModem) SetSilent(silent bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.silent = silent
}

// SetTxError makes every exchange fail with err
func (m *VirtualModem) SetTxError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txErr = err
}

// Queue adds a frame the host will receive on its next receive transfer
func (m *VirtualModem) Queue(frame []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox = append(m.inbox, append([]byte(nil), frame...))
}

// Outbox returns the frames the host transmitted, in buffer order
func (m *VirtualModem) Outbox() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.outbox))
	for i, f := range m.outbox {
		out[i] = append([]byte(nil), f...)
	}
	return out
}

// WriteLog returns every byte the host sent, in bus order
func (m *VirtualModem) WriteLog() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.writeLog...)
}

// Reads returns the number of control register read sessions
func (m *VirtualModem) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns the number of control register write sessions
func (m *VirtualModem) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Exchanges returns the number of byte exchanges on the bus
func (m *VirtualModem) Exchanges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exchanges
}

// DeselectedExchanges returns exchanges that happened with select deasserted
func (m *VirtualModem) DeselectedExchanges() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deselectedExchanges
}

func reversed(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
