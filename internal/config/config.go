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

// Package config loads the plcmodem YAML configuration file
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	st7540 "github.com/ZaparooProject/go-st7540"
	"github.com/ZaparooProject/go-st7540/transport/spi"
	"github.com/ZaparooProject/go-st7540/transport/uart"
	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"
)

type Config struct {
	Modem    ModemConfig    `yaml:"modem"`
	Host     HostConfig     `yaml:"host"`
	Register RegisterConfig `yaml:"register"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Watchdog WatchdogConfig `yaml:"watchdog"`
	Bridge   BridgeConfig   `yaml:"bridge"`
}

// ---- MODEM ----

type ModemConfig struct {
	SPIBus      string   `yaml:"spi_bus"`
	FrequencyHz int64    `yaml:"frequency_hz"`
	Pins        spi.Pins `yaml:"pins"`
}

// ---- HOST ----

type HostConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// ---- REGISTER ----

type RegisterConfig struct {
	Profile     []int `yaml:"profile"`
	MaxAttempts int   `yaml:"max_attempts"`
}

// ---- TIMEOUTS ----

type TimeoutConfig struct {
	Transfer time.Duration `yaml:"transfer"`
	Ready    time.Duration `yaml:"ready"`
	Poll     time.Duration `yaml:"poll"`
}

// ---- WATCHDOG ----

type WatchdogConfig struct {
	Period        time.Duration `yaml:"period"`
	RaisePriority bool          `yaml:"raise_priority"`
}

// ---- BRIDGE ----

type BridgeConfig struct {
	ReplyAttempts int           `yaml:"reply_attempts"`
	PollInterval  time.Duration `yaml:"poll_interval"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	device := st7540.DefaultDeviceConfig()
	profile := make([]int, 0, st7540.ControlRegisterSize)
	for _, b := range device.Profile {
		profile = append(profile, int(b))
	}

	return &Config{
		Modem: ModemConfig{
			SPIBus:      spi.DefaultBusPath,
			FrequencyHz: int64(spi.DefaultFrequency / physic.Hertz),
			Pins:        spi.DefaultPins(),
		},
		Host: HostConfig{
			Baud: uart.DefaultBaudRate,
		},
		Register: RegisterConfig{
			Profile:     profile,
			MaxAttempts: device.MaxConvergeAttempts,
		},
		Timeouts: TimeoutConfig{
			Transfer: device.TransferTimeout,
			Ready:    device.ReadyTimeout,
			Poll:     device.PollInterval,
		},
		Watchdog: WatchdogConfig{
			Period:        500 * time.Millisecond,
			RaisePriority: true,
		},
		Bridge: BridgeConfig{
			ReplyAttempts: uart.DefaultReplyAttempts,
			PollInterval:  uart.DefaultPollInterval,
		},
	}
}

// Load reads path over the defaults, then validates and normalizes it.
// Unknown keys are rejected.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode is Load for an already open reader
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	Normalize(cfg)
	return cfg, nil
}

// Profile returns the configured control register image
func (c *Config) Profile() (st7540.ControlRegister, error) {
	return st7540.ParseControlRegister(c.Register.Profile)
}

// SPI returns the hardware binding configuration
func (c *Config) SPI() *spi.Config {
	return &spi.Config{
		BusPath:   c.Modem.SPIBus,
		Frequency: physic.Frequency(c.Modem.FrequencyHz) * physic.Hertz,
		Pins:      c.Modem.Pins,
	}
}

// DeviceOptions returns the driver options the file describes
func (c *Config) DeviceOptions() ([]st7540.Option, error) {
	profile, err := c.Profile()
	if err != nil {
		return nil, err
	}
	return []st7540.Option{
		st7540.WithTransferTimeout(c.Timeouts.Transfer),
		st7540.WithReadyTimeout(c.Timeouts.Ready),
		st7540.WithPollInterval(c.Timeouts.Poll),
		st7540.WithMaxConvergeAttempts(c.Register.MaxAttempts),
		st7540.WithProfile(profile),
	}, nil
}
