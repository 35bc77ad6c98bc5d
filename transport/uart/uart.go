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

// Package uart provides the host link: the serial connection between the
// modem controller and the PC. Status codes and mains payloads travel over
// it as CRLF terminated ASCII lines.
package uart

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	st7540 "github.com/ZaparooProject/go-st7540"
	"go.bug.st/serial"
)

// DefaultBaudRate matches the controller firmware's serial speed
const DefaultBaudRate = 57600

// ErrLinkClosed is returned by operations on a closed link
var ErrLinkClosed = errors.New("host link closed")

// HostLink is a line oriented serial connection to the PC
type HostLink struct {
	port     io.ReadWriteCloser
	reader   *bufio.Reader
	portName string
	mu       sync.Mutex
	closed   bool
}

// New opens portName at baud, 8N1
func New(portName string, baud int) (*HostLink, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return NewWithPort(port, portName), nil
}

// NewWithPort wraps an already open port
func NewWithPort(port io.ReadWriteCloser, name string) *HostLink {
	return &HostLink{
		port:     port,
		reader:   bufio.NewReader(port),
		portName: name,
	}
}

// String returns the port name
func (h *HostLink) String() string {
	return h.portName
}

// ReportStatus writes a framed status code. HostLink is a st7540.StatusReporter.
func (h *HostLink) ReportStatus(code st7540.StatusCode) error {
	return h.write("status", code.Frame())
}

// WriteLine writes line followed by CRLF
func (h *HostLink) WriteLine(line []byte) error {
	framed := make([]byte, 0, len(line)+2)
	framed = append(framed, line...)
	framed = append(framed, '\r', '\n')
	return h.write("writeLine", framed)
}

func (h *HostLink) write(op string, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return st7540.NewTransportError(op, h.portName, ErrLinkClosed, st7540.ErrorTypePermanent)
	}
	if _, err := h.port.Write(data); err != nil {
		return st7540.NewTransportError(op, h.portName,
			fmt.Errorf("%w: %w", st7540.ErrTransportWrite, err), st7540.ErrorTypeTransient)
	}
	return nil
}

// ReadLine blocks until the PC sends a line and returns it without its
// terminator. Only one goroutine may read at a time.
func (h *HostLink) ReadLine() ([]byte, error) {
	line, err := h.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) || h.isClosed() {
			return nil, st7540.NewTransportError("readLine", h.portName, ErrLinkClosed, st7540.ErrorTypePermanent)
		}
		return nil, st7540.NewTransportError("readLine", h.portName,
			fmt.Errorf("%w: %w", st7540.ErrTransportRead, err), st7540.ErrorTypeTransient)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func (h *HostLink) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// Close closes the port and unblocks a pending ReadLine
func (h *HostLink) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	if err := h.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port %s: %w", h.portName, err)
	}
	return nil
}

// ListPorts returns the serial ports present on the host
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return ports, nil
}
