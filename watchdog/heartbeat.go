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

// Package watchdog keeps the ST7540's watchdog satisfied by toggling its
// WD line on a fixed period.
//
// The heartbeat runs on its own goroutine locked to an OS thread and owns
// its line. It shares nothing with the transfer engine, so a stalled
// transfer or a long register negotiation cannot starve it.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
)

// ErrAlreadyStarted is returned by Start on a running heartbeat
var ErrAlreadyStarted = errors.New("heartbeat already started")

// Line is the watchdog output. Any periph.io gpio.PinIO satisfies it.
type Line interface {
	Out(l gpio.Level) error
	Read() gpio.Level
}

// Config configures a Heartbeat
type Config struct {
	// Period between toggles
	Period time.Duration
	// RaisePriority asks the OS to schedule the heartbeat thread ahead of
	// normal threads. Failure to do so is logged and ignored.
	RaisePriority bool
}

// DefaultConfig returns a 500ms heartbeat
func DefaultConfig() *Config {
	return &Config{
		Period:        500 * time.Millisecond,
		RaisePriority: true,
	}
}

// Metrics tracks heartbeat activity
type Metrics struct {
	LastToggle time.Time
	Toggles    int64
	Errors     int64
}

// Heartbeat toggles a line periodically
type Heartbeat struct {
	line       Line
	config     *Config
	stopChan   chan struct{}
	wg         sync.WaitGroup
	started    atomic.Bool
	toggles    atomic.Int64
	errors     atomic.Int64
	lastToggle atomic.Int64
}

// New creates a heartbeat on line. A nil config uses DefaultConfig.
func New(line Line, config *Config) (*Heartbeat, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if line == nil {
		return nil, errors.New("watchdog line is nil")
	}
	if config.Period <= 0 {
		return nil, fmt.Errorf("watchdog period must be positive, got %v", config.Period)
	}
	return &Heartbeat{
		line:   line,
		config: config,
	}, nil
}

// Start begins toggling. The heartbeat stops when ctx is done or Stop is
// called.
func (h *Heartbeat) Start(ctx context.Context) error {
	if !h.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	h.stopChan = make(chan struct{})

	h.wg.Add(1)
	go h.run(ctx, h.stopChan)
	return nil
}

// Stop stops the heartbeat and waits for its goroutine to exit
func (h *Heartbeat) Stop() {
	if !h.started.CompareAndSwap(true, false) {
		return
	}
	close(h.stopChan)
	h.wg.Wait()
}

func (h *Heartbeat) run(ctx context.Context, stop <-chan struct{}) {
	defer h.wg.Done()

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if h.config.RaisePriority {
		if err := raisePriority(); err != nil {
			glog.Warningf("watchdog: could not raise heartbeat priority: %v", err)
		}
	}

	ticker := time.NewTicker(h.config.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := h.Toggle(); err != nil {
				glog.Errorf("watchdog: %v", err)
			}
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}

// Toggle inverts the line once
func (h *Heartbeat) Toggle() error {
	if err := h.line.Out(!h.line.Read()); err != nil {
		h.errors.Add(1)
		return fmt.Errorf("toggle watchdog line: %w", err)
	}
	h.toggles.Add(1)
	h.lastToggle.Store(time.Now().UnixNano())
	return nil
}

// GetMetrics returns current heartbeat metrics
func (h *Heartbeat) GetMetrics() Metrics {
	m := Metrics{
		Toggles: h.toggles.Load(),
		Errors:  h.errors.Load(),
	}
	if ns := h.lastToggle.Load(); ns != 0 {
		m.LastToggle = time.Unix(0, ns)
	}
	return m
}
