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
	"sync/atomic"

	"github.com/golang/glog"
)

var debugEnabled atomic.Bool

// SetDebugEnabled turns driver debug logging on or off. Output goes
// through glog, so the usual glog flags decide where it ends up.
func SetDebugEnabled(enabled bool) {
	debugEnabled.Store(enabled)
}

func debugf(format string, args ...any) {
	if debugEnabled.Load() {
		glog.InfoDepth(1, fmt.Sprintf(format, args...))
	}
}

func debugln(args ...any) {
	if debugEnabled.Load() {
		glog.InfoDepth(1, fmt.Sprint(args...))
	}
}
