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
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"periph.io/x/conn/v3"
)

const (
	defaultTransferTimeout = 1 * time.Second
	defaultServiceInterval = 10 * time.Millisecond
)

// EngineMetrics tracks operational counters for an Engine
type EngineMetrics struct {
	Transfers   int64 // Transfers started
	Completions int64 // Transfers whose exchange finished
	Timeouts    int64 // Transfers abandoned on timeout or cancellation
	Exchanges   int64 // Single byte exchanges on the bus
}

// Engine performs byte exchanges with the modem.
//
// The modem drives the bus clock, so the host cannot start an exchange on
// its own. Transfer publishes the buffer and asserts the select line; the
// service goroutine started by Start waits for the modem to engage the bus
// and then moves every byte of the buffer in one pass, the same job an SPI
// interrupt handler does on a microcontroller.
//
// Only one transfer may be outstanding. The buffer passed to Transfer is
// borrowed: the engine stops referencing it before Transfer returns.
type Engine struct {
	bus    conn.Conn
	sel    OutputLine
	engage InputLine

	// mu guards the transfer state below. The service goroutine holds it
	// for the whole exchange.
	mu   sync.Mutex
	buf  []byte
	mode TransferMode
	done chan struct{}
	err  error

	// completed is false while a transfer is outstanding
	completed atomic.Bool
	busy      atomic.Bool
	running   atomic.Bool

	stopChan chan struct{}
	wg       sync.WaitGroup

	timeout         atomic.Int64
	serviceInterval atomic.Int64

	transfers   atomic.Int64
	completions atomic.Int64
	timeouts    atomic.Int64
	exchanges   atomic.Int64
}

// NewEngine creates an engine over the given bus and lines and deasserts
// the select line.
func NewEngine(bus conn.Conn, sel OutputLine, engage InputLine) (*Engine, error) {
	e := &Engine{
		bus:    bus,
		sel:    sel,
		engage: engage,
	}
	e.completed.Store(true)
	e.timeout.Store(int64(defaultTransferTimeout))
	e.serviceInterval.Store(int64(defaultServiceInterval))

	if err := sel.Out(selectInactive); err != nil {
		return nil, NewTransportError("deselect", e.port(), err, ErrorTypePermanent)
	}
	return e, nil
}

// SetTimeout sets how long Transfer waits for the modem to finish an exchange
func (e *Engine) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidParameter, timeout)
	}
	e.timeout.Store(int64(timeout))
	return nil
}

// SetServiceInterval sets how long the service goroutine waits for an edge
// before checking whether it should stop.
func (e *Engine) SetServiceInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: service interval must be positive, got %v", ErrInvalidParameter, interval)
	}
	e.serviceInterval.Store(int64(interval))
	return nil
}

// Start launches the service goroutine. It runs until ctx is done or Stop
// is called.
func (e *Engine) Start(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: engine already started", ErrInvalidParameter)
	}
	// a goroutine that left on its own context may still be unwinding
	e.wg.Wait()
	e.stopChan = make(chan struct{})

	e.wg.Add(1)
	go e.serviceLoop(ctx, e.stopChan)
	return nil
}

// Stop stops the service goroutine and waits for it to exit. The wait also
// covers a goroutine that is already leaving because its context ended.
func (e *Engine) Stop() {
	if e.running.CompareAndSwap(true, false) {
		close(e.stopChan)
	}
	e.wg.Wait()
}

// Running reports whether the service goroutine is active
func (e *Engine) Running() bool {
	return e.running.Load()
}

func (e *Engine) serviceLoop(ctx context.Context, stop <-chan struct{}) {
	defer e.wg.Done()
	defer e.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		default:
		}

		if e.engage.WaitForEdge(time.Duration(e.serviceInterval.Load())) {
			e.service()
		}
	}
}

// service runs once per engage edge. It is a no-op unless a transfer is
// outstanding and the select line is asserted.
func (e *Engine) service() {
	if e.completed.Load() || e.sel.Read() != selectActive {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.completed.Load() || e.done == nil {
		return
	}

	e.err = e.exchange(e.buf, e.mode)
	e.completed.Store(true)
	e.completions.Add(1)
	close(e.done)
}

// exchange moves len(buf) bytes, last index first.
func (e *Engine) exchange(buf []byte, mode TransferMode) error {
	w := []byte{0}
	r := []byte{0}

	for i := len(buf) - 1; i >= 0; i-- {
		if mode.IsRead() {
			w[0] = 0
			if err := e.bus.Tx(w, r); err != nil {
				return fmt.Errorf("%w: byte %d: %w", ErrTransportRead, i, err)
			}
			buf[i] = r[0]
		} else {
			w[0] = buf[i]
			if err := e.bus.Tx(w, nil); err != nil {
				return fmt.Errorf("%w: byte %d: %w", ErrTransportWrite, i, err)
			}
		}
		e.exchanges.Add(1)
	}
	return nil
}

// Transfer exchanges len(buf) bytes with the modem in the given mode and
// blocks until the exchange completes, the timeout elapses or ctx is done.
//
// The caller must already have put the modem into mode through a
// ModeController. In read modes the first byte received lands in
// buf[len(buf)-1]; in write modes buf[len(buf)-1] is sent first.
func (e *Engine) Transfer(ctx context.Context, buf []byte, mode TransferMode) error {
	if len(buf) == 0 {
		return fmt.Errorf("%w: empty buffer", ErrInvalidLength)
	}
	if !mode.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidMode, mode)
	}
	if !e.running.Load() {
		return ErrEngineStopped
	}
	if !e.busy.CompareAndSwap(false, true) {
		return ErrTransferInProgress
	}
	defer e.busy.Store(false)

	select {
	case <-ctx.Done():
		return fmt.Errorf("transfer cancelled before start: %w", ctx.Err())
	default:
	}

	done := make(chan struct{})
	e.mu.Lock()
	e.buf = buf
	e.mode = mode
	e.done = done
	e.err = nil
	e.mu.Unlock()

	e.transfers.Add(1)
	debugf("transfer %d bytes, mode %v", len(buf), mode)

	// The flag drops before select is asserted: an engage edge that races
	// the select line must find the transfer already armed.
	e.completed.Store(false)
	if err := e.sel.Out(selectActive); err != nil {
		e.completed.Store(true)
		_ = e.release()
		return NewTransportError("select", e.port(), err, ErrorTypeTransient)
	}

	waitErr := e.wait(ctx, done)

	// Block out the service goroutine, then wait for an exchange that is
	// already running to let go of the buffer.
	e.completed.Store(true)
	exchangeErr := e.release()

	if waitErr != nil {
		select {
		case <-done:
			// finished while we were giving up
			waitErr = nil
		default:
			e.timeouts.Add(1)
		}
	}

	deselectErr := e.sel.Out(selectInactive)

	switch {
	case waitErr != nil:
		return waitErr
	case exchangeErr != nil:
		return NewTransportError("transfer", e.port(), exchangeErr, ErrorTypeTransient)
	case deselectErr != nil:
		return NewTransportError("deselect", e.port(), deselectErr, ErrorTypeTransient)
	}
	return nil
}

func (e *Engine) wait(ctx context.Context, done <-chan struct{}) error {
	timer := time.NewTimer(time.Duration(e.timeout.Load()))
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		return NewTimeoutError("transfer", e.port())
	case <-ctx.Done():
		return fmt.Errorf("transfer cancelled: %w", ctx.Err())
	}
}

// release drops the borrowed buffer and returns the exchange error, if any
func (e *Engine) release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.err
	e.buf = nil
	e.done = nil
	e.err = nil
	return err
}

// Completed reports the completion flag: false only while a transfer is
// outstanding.
func (e *Engine) Completed() bool {
	return e.completed.Load()
}

// GetMetrics returns a snapshot of the engine counters
func (e *Engine) GetMetrics() EngineMetrics {
	return EngineMetrics{
		Transfers:   e.transfers.Load(),
		Completions: e.completions.Load(),
		Timeouts:    e.timeouts.Load(),
		Exchanges:   e.exchanges.Load(),
	}
}

func (e *Engine) port() string {
	if e.bus == nil {
		return ""
	}
	return e.bus.String()
}
