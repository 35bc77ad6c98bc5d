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

package spi

import (
	"testing"

	st7540 "github.com/ZaparooProject/go-st7540"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type nopBus struct{}

func (nopBus) String() string { return "nop" }
func (nopBus) Duplex() conn.Duplex { return conn.Full }
func (nopBus) Tx(_, _ []byte) error { return nil }

func testPins() map[string]*gpiotest.Pin {
	pins := map[string]*gpiotest.Pin{}
	for _, name := range []string{"GPIO25", "GPIO24", "GPIO22", "GPIO27", "GPIO17", "GPIO23", "GPIO5"} {
		pins[name] = &gpiotest.Pin{N: name, EdgesChan: make(chan gpio.Level, 1)}
	}
	return pins
}

func lookupIn(pins map[string]*gpiotest.Pin) func(string) gpio.PinIO {
	return func(name string) gpio.PinIO {
		if p, ok := pins[name]; ok {
			return p
		}
		return nil
	}
}

func TestNewTransport_ConfiguresIdleLines(t *testing.T) {
	t.Parallel()

	pins := testPins()
	pins["GPIO25"].L = gpio.Low

	tr, err := newTransport(DefaultConfig(), nopBus{}, lookupIn(pins))
	require.NoError(t, err)

	assert.Equal(t, gpio.High, pins["GPIO25"].L, "select deasserted")
	assert.Equal(t, gpio.Low, pins["GPIO22"].L, "data-select low for receive")
	assert.Equal(t, gpio.High, pins["GPIO27"].L, "direction high for receive")
	assert.Equal(t, gpio.Low, pins["GPIO5"].L, "watchdog low")
	assert.Equal(t, gpio.PullUp, pins["GPIO24"].P)
	assert.Equal(t, gpio.PullDown, pins["GPIO17"].P)

	lines := tr.Lines()
	assert.Equal(t, nopBus{}, lines.Bus)
	assert.NotNil(t, lines.CarrierDetect)
	assert.Equal(t, DefaultBusPath, tr.String())

	require.NoError(t, tr.Close())
}

func TestNewTransport_OptionalCarrierDetect(t *testing.T) {
	t.Parallel()

	config := DefaultConfig()
	config.Pins.CarrierDetect = ""

	tr, err := newTransport(config, nopBus{}, lookupIn(testPins()))
	require.NoError(t, err)
	assert.Nil(t, tr.Lines().CarrierDetect)
}

func TestNewTransport_PinErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Pins)
		wantErr error
	}{
		{name: "missing select name", mutate: func(p *Pins) { p.Select = "" }, wantErr: st7540.ErrInvalidParameter},
		{name: "missing watchdog name", mutate: func(p *Pins) { p.Watchdog = "" }, wantErr: st7540.ErrInvalidParameter},
		{name: "unknown ready pin", mutate: func(p *Pins) { p.Ready = "GPIO99" }},
		{name: "unknown carrier detect pin", mutate: func(p *Pins) { p.CarrierDetect = "GPIO98" }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			config := DefaultConfig()
			tt.mutate(&config.Pins)

			_, err := newTransport(config, nopBus{}, lookupIn(testPins()))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestNewTransport_LinesDriveDevice(t *testing.T) {
	t.Parallel()

	tr, err := newTransport(DefaultConfig(), nopBus{}, lookupIn(testPins()))
	require.NoError(t, err)

	device, err := st7540.New(tr.Lines())
	require.NoError(t, err)
	assert.Equal(t, st7540.ModeReceive, device.Mode())
	require.NoError(t, device.Close())
}
