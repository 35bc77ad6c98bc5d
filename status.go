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

import "strings"

// StatusCode is a fixed status message sent to the host PC
type StatusCode string

// Status codes understood by the desktop application
const (
	StatusSetupComplete       StatusCode = "#101"
	StatusModemBooted         StatusCode = "#102"
	StatusWaitingForModemBoot StatusCode = "#103"
	StatusControlRegisterSet  StatusCode = "#104"
	StatusNoResponse          StatusCode = "#105"
	StatusNoMessage           StatusCode = "#106"
	StatusAck                 StatusCode = "#107"
)

var statusCodes = []StatusCode{
	StatusSetupComplete,
	StatusModemBooted,
	StatusWaitingForModemBoot,
	StatusControlRegisterSet,
	StatusNoResponse,
	StatusNoMessage,
	StatusAck,
}

// Frame returns the code as sent on the wire, terminated by CR LF
func (c StatusCode) Frame() []byte {
	return []byte(string(c) + "\r\n")
}

// Description returns a human readable meaning of the code
func (c StatusCode) Description() string {
	switch c {
	case StatusSetupComplete:
		return "setup complete"
	case StatusModemBooted:
		return "modem booted"
	case StatusWaitingForModemBoot:
		return "waiting for modem boot"
	case StatusControlRegisterSet:
		return "control register set"
	case StatusNoResponse:
		return "no response"
	case StatusNoMessage:
		return "no message"
	case StatusAck:
		return "acknowledged"
	default:
		return "unknown status"
	}
}

// ParseStatus finds a status code in a received line
func ParseStatus(line string) (StatusCode, bool) {
	for _, code := range statusCodes {
		if strings.Contains(line, string(code)) {
			return code, true
		}
	}
	return "", false
}

// StatusReporter receives the status codes emitted during setup and
// bridging.
type StatusReporter interface {
	ReportStatus(code StatusCode) error
}

// StatusReporterFunc adapts a function to StatusReporter
type StatusReporterFunc func(code StatusCode) error

// ReportStatus calls f(code)
func (f StatusReporterFunc) ReportStatus(code StatusCode) error {
	return f(code)
}
