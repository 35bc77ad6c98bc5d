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
	"errors"
	"fmt"
)

// Sentinel errors returned by the driver. Use errors.Is to test for them.
var (
	// ErrDeviceNotReady is returned when the modem's ready line never rises.
	ErrDeviceNotReady = errors.New("device not ready")
	// ErrTransferTimeout is returned when the modem never completes a bus exchange.
	ErrTransferTimeout = errors.New("transfer timeout")
	// ErrRegisterMismatch is returned when the control register does not converge.
	ErrRegisterMismatch = errors.New("control register mismatch")

	ErrTransferInProgress = errors.New("transfer already in progress")
	ErrInvalidLength      = errors.New("invalid transfer length")
	ErrInvalidMode        = errors.New("invalid transfer mode")
	ErrInvalidParameter   = errors.New("invalid parameter")
	ErrEngineStopped      = errors.New("transfer engine not running")

	ErrNoResponse = errors.New("no response from peer")
	ErrNoMessage  = errors.New("no message available")

	ErrTransportRead  = errors.New("transport read failed")
	ErrTransportWrite = errors.New("transport write failed")
)

// ErrorType classifies errors for retry decisions
type ErrorType int

const (
	// ErrorTypePermanent errors will not go away by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors may succeed on a later attempt
	ErrorTypeTransient
	// ErrorTypeTimeout errors are transient errors caused by an unresponsive peer
	ErrorTypeTimeout
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// TransportError describes a failure on the bus or one of the control lines
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a transport error. Everything but permanent
// errors is marked retryable.
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Err:       err,
		Op:        op,
		Port:      port,
		Type:      errType,
		Retryable: errType != ErrorTypePermanent,
	}
}

// NewTimeoutError creates a retryable transfer timeout error
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransferTimeout, ErrorTypeTimeout)
}

// NewDeviceNotReadyError creates the error returned when the ready line stays low
func NewDeviceNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDeviceNotReady, ErrorTypeTimeout)
}

// RegisterMismatchError reports the last register image read when
// convergence gave up.
type RegisterMismatchError struct {
	Attempts int
	Observed ControlRegister
	Target   ControlRegister
}

func (e *RegisterMismatchError) Error() string {
	return fmt.Sprintf("%v after %d reads: observed %s, target %s",
		ErrRegisterMismatch, e.Attempts, e.Observed, e.Target)
}

func (*RegisterMismatchError) Unwrap() error {
	return ErrRegisterMismatch
}

// IsRetryable reports whether an operation that failed with err may succeed
// if attempted again.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch err {
	case ErrTransferTimeout, ErrTransportRead, ErrTransportWrite, ErrNoResponse, ErrNoMessage, ErrTransferInProgress:
		return true
	default:
		return false
	}
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch err {
	case ErrTransferTimeout, ErrDeviceNotReady:
		return ErrorTypeTimeout
	case ErrTransportRead, ErrTransportWrite, ErrNoResponse, ErrNoMessage, ErrTransferInProgress:
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
