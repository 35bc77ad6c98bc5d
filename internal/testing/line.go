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

package testing

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Line is an in-memory GPIO line usable both as a host output and as an
// input driven by a simulated peer.
type Line struct {
	onChange func(gpio.Level)
	// OutErr, when set, is returned by Out without changing the level
	OutErr  error
	edges   chan struct{}
	name    string
	history []gpio.Level
	mu      sync.Mutex
	level   gpio.Level
}

// NewLine creates a line at the given level
func NewLine(name string, initial gpio.Level) *Line {
	return &Line{
		name:  name,
		level: initial,
		edges: make(chan struct{}, 1),
	}
}

// String returns the line name
func (l *Line) String() string {
	return l.name
}

// Out drives the line from the host side
func (l *Line) Out(level gpio.Level) error {
	l.mu.Lock()
	if l.OutErr != nil {
		err := l.OutErr
		l.mu.Unlock()
		return err
	}
	changed := l.level != level
	l.level = level
	l.history = append(l.history, level)
	hook := l.onChange
	l.mu.Unlock()

	if changed && hook != nil {
		hook(level)
	}
	return nil
}

// Read returns the current level
func (l *Line) Read() gpio.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// WaitForEdge blocks until an edge is signalled or timeout elapses
func (l *Line) WaitForEdge(timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-l.edges:
		return true
	case <-timer.C:
		return false
	}
}

// Set drives the line from the peer side and signals an edge if the level
// changed.
func (l *Line) Set(level gpio.Level) {
	l.mu.Lock()
	changed := l.level != level
	l.level = level
	l.mu.Unlock()

	if changed {
		l.Pulse()
	}
}

// Pulse signals an edge without changing the level. Edges that nobody has
// consumed yet are coalesced.
func (l *Line) Pulse() {
	select {
	case l.edges <- struct{}{}:
	default:
	}
}

// History returns every level written through Out
func (l *Line) History() []gpio.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]gpio.Level(nil), l.history...)
}

// OnChange registers a hook called after Out changes the level
func (l *Line) OnChange(hook func(gpio.Level)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = hook
}
