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

import "sync"

// RecordingReporter is a StatusReporter that keeps every reported code in
// order. It is meant for tests and is safe for concurrent use.
type RecordingReporter struct {
	Err   error
	codes []StatusCode
	mu    sync.Mutex
}

// ReportStatus records code and returns r.Err
func (r *RecordingReporter) ReportStatus(code StatusCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = append(r.codes, code)
	return r.Err
}

// Codes returns a copy of the recorded codes
func (r *RecordingReporter) Codes() []StatusCode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusCode(nil), r.codes...)
}

// Reset forgets the recorded codes
func (r *RecordingReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes = nil
}
