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
	"testing"
	"time"

	virt "github.com/ZaparooProject/go-st7540/internal/testing"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// glog flushes its file sink from a goroutine started in init
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"))
}

func modemLines(modem *virt.VirtualModem) Lines {
	return Lines{
		Bus:           modem,
		Select:        modem.Select,
		Engage:        modem.Engage,
		DataSelect:    modem.DataSelect,
		Direction:     modem.Direction,
		Ready:         modem.Ready,
		CarrierDetect: modem.CarrierDetect,
		Watchdog:      modem.Watchdog,
	}
}

// newTestDevice creates a device wired to modem with short timeouts
func newTestDevice(t *testing.T, modem *virt.VirtualModem, opts ...Option) *Device {
	t.Helper()

	defaults := []Option{
		WithPollInterval(time.Millisecond),
		WithTransferTimeout(200 * time.Millisecond),
		WithReadyTimeout(200 * time.Millisecond),
	}
	device, err := New(modemLines(modem), append(defaults, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = device.Close() })
	return device
}

// newTestEngine creates a started engine wired to modem
func newTestEngine(t *testing.T, modem *virt.VirtualModem) *Engine {
	t.Helper()

	engine, err := NewEngine(modem, modem.Select, modem.Engage)
	require.NoError(t, err)
	require.NoError(t, engine.SetServiceInterval(time.Millisecond))
	require.NoError(t, engine.SetTimeout(200*time.Millisecond))
	require.NoError(t, engine.Start(context.Background()))
	t.Cleanup(engine.Stop)
	return engine
}
