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
	"errors"
	"sync"
	"testing"
	"time"

	virt "github.com/ZaparooProject/go-st7540/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
)

func selectMode(t *testing.T, modem *virt.VirtualModem, mode TransferMode) {
	t.Helper()
	require.NoError(t, NewModeController(modem.DataSelect, modem.Direction).Select(mode))
}

func TestEngine_WriteDescendingOrder(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine := newTestEngine(t, modem)
	selectMode(t, modem, ModeTransmit)

	buf := []byte{0x10, 0x11, 0x12, 0x13, 0x14}
	require.NoError(t, engine.Transfer(context.Background(), buf, ModeTransmit))

	assert.Equal(t, []byte{0x14, 0x13, 0x12, 0x11, 0x10}, modem.WriteLog())
	assert.Equal(t, len(buf), modem.Exchanges())
	assert.Zero(t, modem.DeselectedExchanges())
	assert.Equal(t, gpio.High, modem.Select.Read(), "select must be released")

	outbox := modem.Outbox()
	require.Len(t, outbox, 1)
	assert.Equal(t, buf, outbox[0])
}

func TestEngine_ReadFillsFromLastIndex(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	modem.SetRegister([3]byte{0xD2, 0x22, 0x13})
	engine := newTestEngine(t, modem)
	selectMode(t, modem, ModeReadControlRegister)

	buf := make([]byte, ControlRegisterSize)
	require.NoError(t, engine.Transfer(context.Background(), buf, ModeReadControlRegister))

	assert.Equal(t, []byte{0xD2, 0x22, 0x13}, buf)
	assert.Equal(t, 1, modem.Reads())
}

func TestEngine_CompletesExactlyOnce(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine := newTestEngine(t, modem)
	selectMode(t, modem, ModeTransmit)

	assert.True(t, engine.Completed())
	require.NoError(t, engine.Transfer(context.Background(), []byte{0x01, 0x02}, ModeTransmit))
	assert.True(t, engine.Completed())

	// Late edges after completion must be ignored
	modem.Engage.Pulse()
	time.Sleep(20 * time.Millisecond)

	metrics := engine.GetMetrics()
	assert.Equal(t, int64(1), metrics.Transfers)
	assert.Equal(t, int64(1), metrics.Completions)
	assert.Equal(t, int64(2), metrics.Exchanges)
	assert.Equal(t, 2, modem.Exchanges())
}

func TestEngine_IgnoresEdgesWithoutTransfer(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine := newTestEngine(t, modem)

	for i := 0; i < 5; i++ {
		modem.Engage.Pulse()
		time.Sleep(2 * time.Millisecond)
	}

	assert.Zero(t, modem.Exchanges())
	assert.Zero(t, engine.GetMetrics().Completions)
}

func TestEngine_Timeout(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	modem.SetSilent(true)
	engine := newTestEngine(t, modem)
	require.NoError(t, engine.SetTimeout(30*time.Millisecond))
	selectMode(t, modem, ModeTransmit)

	err := engine.Transfer(context.Background(), []byte{0xAA}, ModeTransmit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransferTimeout)
	assert.Equal(t, ErrorTypeTimeout, GetErrorType(err))
	assert.True(t, IsRetryable(err))

	assert.True(t, engine.Completed())
	assert.Equal(t, gpio.High, modem.Select.Read())
	assert.Equal(t, int64(1), engine.GetMetrics().Timeouts)
	assert.Zero(t, modem.Exchanges())

	// The engine is usable again once the peer answers
	modem.SetSilent(false)
	require.NoError(t, engine.Transfer(context.Background(), []byte{0xBB}, ModeTransmit))
	assert.Equal(t, []byte{0xBB}, modem.WriteLog())
}

func TestEngine_ContextCancellation(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	modem.SetSilent(true)
	engine := newTestEngine(t, modem)
	selectMode(t, modem, ModeTransmit)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := engine.Transfer(ctx, []byte{0x01}, ModeTransmit)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
	assert.Equal(t, gpio.High, modem.Select.Read())
}

func TestEngine_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine := newTestEngine(t, modem)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := engine.Transfer(ctx, []byte{0x01}, ModeTransmit)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, engine.GetMetrics().Transfers)
	assert.NotContains(t, modem.Select.History(), gpio.Low)
}

func TestEngine_NotReentrant(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	modem.SetSilent(true)
	engine := newTestEngine(t, modem)
	selectMode(t, modem, ModeTransmit)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = engine.Transfer(context.Background(), []byte{0x01}, ModeTransmit)
	}()

	require.Eventually(t, func() bool { return !engine.Completed() }, time.Second, time.Millisecond)

	err := engine.Transfer(context.Background(), []byte{0x02}, ModeTransmit)
	assert.ErrorIs(t, err, ErrTransferInProgress)

	wg.Wait()
	assert.ErrorIs(t, firstErr, ErrTransferTimeout)
}

func TestEngine_BusFault(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	modem.SetTxError(virt.ErrBusFault)
	engine := newTestEngine(t, modem)
	selectMode(t, modem, ModeTransmit)

	err := engine.Transfer(context.Background(), []byte{0x01, 0x02}, ModeTransmit)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportWrite)
	assert.ErrorIs(t, err, virt.ErrBusFault)

	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "transfer", te.Op)
	assert.Equal(t, gpio.High, modem.Select.Read())
}

func TestEngine_SelectLineFault(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine := newTestEngine(t, modem)
	modem.Select.OutErr = errors.New("line stuck")

	err := engine.Transfer(context.Background(), []byte{0x01}, ModeTransmit)
	require.Error(t, err)
	assert.Equal(t, ErrorTypeTransient, GetErrorType(err))
	assert.True(t, engine.Completed())

	// A failed select leaves the engine free for the next transfer
	modem.Select.OutErr = nil
	selectMode(t, modem, ModeTransmit)
	require.NoError(t, engine.Transfer(context.Background(), []byte{0x02}, ModeTransmit))
}

func TestEngine_InvalidArguments(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine := newTestEngine(t, modem)

	tests := []struct {
		want error
		name string
		buf  []byte
		mode TransferMode
	}{
		{name: "empty buffer", buf: nil, mode: ModeTransmit, want: ErrInvalidLength},
		{name: "unknown mode", buf: []byte{0x00}, mode: TransferMode(9), want: ErrInvalidMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := engine.Transfer(context.Background(), tt.buf, tt.mode)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, modem.Exchanges())
}

func TestEngine_Stopped(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine, err := NewEngine(modem, modem.Select, modem.Engage)
	require.NoError(t, err)

	err = engine.Transfer(context.Background(), []byte{0x01}, ModeTransmit)
	assert.ErrorIs(t, err, ErrEngineStopped)

	require.NoError(t, engine.Start(context.Background()))
	assert.True(t, engine.Running())
	assert.Error(t, engine.Start(context.Background()))
	engine.Stop()
	assert.False(t, engine.Running())
	engine.Stop()
}

func TestEngine_SetTimeoutValidation(t *testing.T) {
	t.Parallel()

	modem := virt.NewVirtualModem()
	engine, err := NewEngine(modem, modem.Select, modem.Engage)
	require.NoError(t, err)

	assert.ErrorIs(t, engine.SetTimeout(0), ErrInvalidParameter)
	assert.ErrorIs(t, engine.SetServiceInterval(-time.Second), ErrInvalidParameter)
}
