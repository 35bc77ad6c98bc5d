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

// Package spi binds the ST7540 to a Linux host through periph.io: one SPI
// port for the data and control register exchanges plus the GPIO lines the
// driver drives and watches.
package spi

import (
	"fmt"

	st7540 "github.com/ZaparooProject/go-st7540"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const (
	// DefaultBusPath is the first spidev node on a Raspberry Pi
	DefaultBusPath = "/dev/spidev0.0"
	// DefaultFrequency is the SPI clock
	DefaultFrequency = physic.MegaHertz
)

// Pins names the GPIO lines, as known to gpioreg
type Pins struct {
	Select        string `yaml:"select"`
	Engage        string `yaml:"engage"`
	DataSelect    string `yaml:"data_select"`
	Direction     string `yaml:"direction"`
	Ready         string `yaml:"ready"`
	CarrierDetect string `yaml:"carrier_detect"`
	Watchdog      string `yaml:"watchdog"`
}

// DefaultPins returns the wiring used by the reference board
func DefaultPins() Pins {
	return Pins{
		Select:        "GPIO25",
		Engage:        "GPIO24",
		DataSelect:    "GPIO22",
		Direction:     "GPIO27",
		Ready:         "GPIO17",
		CarrierDetect: "GPIO23",
		Watchdog:      "GPIO5",
	}
}

// Config configures the hardware binding
type Config struct {
	BusPath   string
	Pins      Pins
	Frequency physic.Frequency
}

// DefaultConfig returns the reference board configuration
func DefaultConfig() *Config {
	return &Config{
		BusPath:   DefaultBusPath,
		Frequency: DefaultFrequency,
		Pins:      DefaultPins(),
	}
}

// Transport owns the SPI port and GPIO lines of one modem
type Transport struct {
	port   spi.PortCloser
	lines  st7540.Lines
	config *Config
}

// New initializes the periph host, opens the SPI port in mode 0 with 8 bit
// words and resolves the pins
func New(config *Config) (*Transport, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BusPath == "" {
		config.BusPath = DefaultBusPath
	}
	if config.Frequency == 0 {
		config.Frequency = DefaultFrequency
	}

	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	port, err := spireg.Open(config.BusPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", config.BusPath, err)
	}

	c, err := port.Connect(config.Frequency, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("failed to connect to SPI port %s: %w", config.BusPath, err)
	}

	t, err := newTransport(config, c, gpioreg.ByName)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	t.port = port
	return t, nil
}

// newTransport resolves and configures the pins through lookup
func newTransport(config *Config, bus conn.Conn, lookup func(string) gpio.PinIO) (*Transport, error) {
	pin := func(role, name string) (gpio.PinIO, error) {
		if name == "" {
			return nil, fmt.Errorf("%w: no pin configured for %s", st7540.ErrInvalidParameter, role)
		}
		p := lookup(name)
		if p == nil {
			return nil, fmt.Errorf("failed to open %s pin %s", role, name)
		}
		return p, nil
	}

	sel, err := pin("select", config.Pins.Select)
	if err != nil {
		return nil, err
	}
	engage, err := pin("engage", config.Pins.Engage)
	if err != nil {
		return nil, err
	}
	dataSelect, err := pin("data-select", config.Pins.DataSelect)
	if err != nil {
		return nil, err
	}
	direction, err := pin("direction", config.Pins.Direction)
	if err != nil {
		return nil, err
	}
	ready, err := pin("ready", config.Pins.Ready)
	if err != nil {
		return nil, err
	}
	watchdog, err := pin("watchdog", config.Pins.Watchdog)
	if err != nil {
		return nil, err
	}

	// Idle: deselected, receive mode, watchdog low.
	dataLevel, dirLevel := st7540.ModeReceive.Levels()
	outputs := []struct {
		pin   gpio.PinIO
		level gpio.Level
	}{
		{sel, gpio.High},
		{dataSelect, dataLevel},
		{direction, dirLevel},
		{watchdog, gpio.Low},
	}
	for _, o := range outputs {
		if err := o.pin.Out(o.level); err != nil {
			return nil, fmt.Errorf("failed to drive %s: %w", o.pin, err)
		}
	}

	// The modem pulls engage low when it takes the bus.
	if err := engage.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("failed to configure engage pin %s: %w", engage, err)
	}
	if err := ready.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("failed to configure ready pin %s: %w", ready, err)
	}

	lines := st7540.Lines{
		Bus:        bus,
		Select:     sel,
		Engage:     engage,
		DataSelect: dataSelect,
		Direction:  direction,
		Ready:      ready,
		Watchdog:   watchdog,
	}

	if config.Pins.CarrierDetect != "" {
		cd, err := pin("carrier-detect", config.Pins.CarrierDetect)
		if err != nil {
			return nil, err
		}
		if err := cd.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("failed to configure carrier detect pin %s: %w", cd, err)
		}
		lines.CarrierDetect = cd
	}

	return &Transport{lines: lines, config: config}, nil
}

// Lines returns the line set for st7540.New
func (t *Transport) Lines() st7540.Lines {
	return t.lines
}

// String returns the SPI bus path
func (t *Transport) String() string {
	return t.config.BusPath
}

// Close deselects the modem and releases the SPI port
func (t *Transport) Close() error {
	if t.lines.Select != nil {
		_ = t.lines.Select.Out(gpio.High)
	}
	if t.port == nil {
		return nil
	}
	if err := t.port.Close(); err != nil {
		return fmt.Errorf("failed to close SPI port %s: %w", t.config.BusPath, err)
	}
	return nil
}
