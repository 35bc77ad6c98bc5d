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
	"errors"
	"fmt"

	st7540 "github.com/ZaparooProject/go-st7540"
	"github.com/ZaparooProject/go-st7540/transport/uart"
	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Set up the modem and bridge it to the host serial port",
	RunE: func(*cobra.Command, []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Host.Port == "" {
			return errors.New("no host serial port: set host.port or --port")
		}

		ctx, cancel := signalContext()
		defer cancel()

		link, err := uart.New(cfg.Host.Port, cfg.Host.Baud)
		if err != nil {
			return err
		}
		defer func() { _ = link.Close() }()

		m, err := openModem(ctx, cfg, st7540.WithStatusReporter(link))
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.device.Setup(ctx); err != nil {
			return fmt.Errorf("modem setup failed: %w", err)
		}

		bridge, err := uart.NewBridge(m.device, link, &uart.BridgeConfig{
			ReplyAttempts: cfg.Bridge.ReplyAttempts,
			PollInterval:  cfg.Bridge.PollInterval,
		})
		if err != nil {
			return err
		}

		glog.Infof("bridging %s to the mains", link)
		err = bridge.Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
