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

package watchdog

import (
	"context"
	"errors"
	"testing"
	"time"

	st7540 "github.com/ZaparooProject/go-st7540"
	virt "github.com/ZaparooProject/go-st7540/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"periph.io/x/conn/v3/gpio"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// glog flushes its file sink from a goroutine started in init
		goleak.IgnoreTopFunction("github.com/golang/glog.(*fileSink).flushDaemon"))
}

func testConfig(period time.Duration) *Config {
	return &Config{Period: period, RaisePriority: false}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New(virt.NewLine("wd", gpio.Low), testConfig(0))
	assert.Error(t, err)

	hb, err := New(virt.NewLine("wd", gpio.Low), nil)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, hb.config.Period)
}

func TestHeartbeat_Toggle(t *testing.T) {
	t.Parallel()

	line := virt.NewLine("wd", gpio.Low)
	hb, err := New(line, testConfig(time.Hour))
	require.NoError(t, err)

	require.NoError(t, hb.Toggle())
	assert.Equal(t, gpio.High, line.Read())
	require.NoError(t, hb.Toggle())
	assert.Equal(t, gpio.Low, line.Read())

	m := hb.GetMetrics()
	assert.Equal(t, int64(2), m.Toggles)
	assert.False(t, m.LastToggle.IsZero())
}

func TestHeartbeat_TogglesPeriodically(t *testing.T) {
	t.Parallel()

	line := virt.NewLine("wd", gpio.Low)
	hb, err := New(line, testConfig(5*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, hb.Start(context.Background()))
	assert.ErrorIs(t, hb.Start(context.Background()), ErrAlreadyStarted)

	require.Eventually(t, func() bool {
		return hb.GetMetrics().Toggles >= 4
	}, time.Second, time.Millisecond)
	hb.Stop()

	history := line.History()
	require.GreaterOrEqual(t, len(history), 4)
	for i := 1; i < len(history); i++ {
		assert.NotEqual(t, history[i-1], history[i], "toggle %d must invert the line", i)
	}

	stopped := hb.GetMetrics().Toggles
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, hb.GetMetrics().Toggles)
	hb.Stop()
}

func TestHeartbeat_StopsWithContext(t *testing.T) {
	t.Parallel()

	hb, err := New(virt.NewLine("wd", gpio.Low), testConfig(time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, hb.Start(ctx))
	cancel()
	hb.Stop()
}

func TestHeartbeat_LineFault(t *testing.T) {
	t.Parallel()

	line := virt.NewLine("wd", gpio.Low)
	line.OutErr = errors.New("line stuck")
	hb, err := New(line, testConfig(time.Hour))
	require.NoError(t, err)

	assert.Error(t, hb.Toggle())
	m := hb.GetMetrics()
	assert.Equal(t, int64(1), m.Errors)
	assert.Zero(t, m.Toggles)
}

// A transfer blocked on a silent modem must not hold up the heartbeat.
func TestHeartbeat_NotStarvedByBlockedTransfer(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	modem.SetSilent(true)

	engine, err := st7540.NewEngine(modem, modem.Select, modem.Engage)
	require.NoError(t, err)
	require.NoError(t, engine.SetServiceInterval(time.Millisecond))
	require.NoError(t, engine.SetTimeout(80*time.Millisecond))
	require.NoError(t, engine.Start(context.Background()))
	defer engine.Stop()

	hb, err := New(modem.Watchdog, testConfig(2*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, hb.Start(context.Background()))
	defer hb.Stop()

	err = engine.Transfer(context.Background(), make([]byte, 3), st7540.ModeReadControlRegister)
	require.ErrorIs(t, err, st7540.ErrTransferTimeout)

	assert.GreaterOrEqual(t, hb.GetMetrics().Toggles, int64(3))
	assert.GreaterOrEqual(t, len(modem.Watchdog.History()), 3)
}
