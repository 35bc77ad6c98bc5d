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

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	st7540 "github.com/ZaparooProject/go-st7540"
	"github.com/ZaparooProject/go-st7540/internal/config"
	"github.com/ZaparooProject/go-st7540/transport/spi"
	"github.com/ZaparooProject/go-st7540/watchdog"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool

	// Host link flags
	portName string
	baudRate int
)

var rootCmd = &cobra.Command{
	Use:   "plcmodem",
	Short: "ST7540 power-line modem controller",
	Long: `plcmodem - drives an ST7540 power-line modem over SPI.

On start the modem's control register is negotiated to the configured
profile. The run command then bridges the modem to a PC on a serial port,
reporting progress with #1xx status codes.

Hardware wiring, timeouts and the register profile are read from a YAML
file given with --config; without one the reference board layout is used.`,
	SilenceUsage: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		// glog registers its flags on the standard flag set
		if err := flag.CommandLine.Parse(nil); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		if debug {
			_ = flag.Set("logtostderr", "true")
			_ = flag.Set("v", "1")
			st7540.SetDebugEnabled(true)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Host serial port (overrides host.port)")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 0, "Host baud rate (overrides host.baud)")

	rootCmd.AddCommand(runCmd, registerCmd, portsCmd)
}

// loadConfig reads --config and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if portName != "" {
		cfg.Host.Port = portName
	}
	if baudRate > 0 {
		cfg.Host.Baud = baudRate
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// modem is an opened device with its heartbeat running
type modem struct {
	hw        *spi.Transport
	device    *st7540.Device
	heartbeat *watchdog.Heartbeat
}

// openModem opens the hardware, starts the watchdog heartbeat and creates
// the driver. The heartbeat starts first so the modem is never left
// without it while the driver initializes.
func openModem(ctx context.Context, cfg *config.Config, extra ...st7540.Option) (*modem, error) {
	hw, err := spi.New(cfg.SPI())
	if err != nil {
		return nil, err
	}

	heartbeat, err := watchdog.New(hw.Lines().Watchdog, &watchdog.Config{
		Period:        cfg.Watchdog.Period,
		RaisePriority: cfg.Watchdog.RaisePriority,
	})
	if err != nil {
		_ = hw.Close()
		return nil, err
	}
	if err := heartbeat.Start(ctx); err != nil {
		_ = hw.Close()
		return nil, err
	}

	opts, err := cfg.DeviceOptions()
	if err != nil {
		heartbeat.Stop()
		_ = hw.Close()
		return nil, err
	}

	device, err := st7540.New(hw.Lines(), append(opts, extra...)...)
	if err != nil {
		heartbeat.Stop()
		_ = hw.Close()
		return nil, fmt.Errorf("failed to create modem driver: %w", err)
	}

	glog.Infof("modem on %s, profile %v", hw, cfg.Register.Profile)
	return &modem{hw: hw, device: device, heartbeat: heartbeat}, nil
}

func (m *modem) Close() {
	if err := m.device.Close(); err != nil {
		glog.Warningf("closing driver: %v", err)
	}
	m.heartbeat.Stop()
	if err := m.hw.Close(); err != nil {
		glog.Warningf("closing hardware: %v", err)
	}
}
