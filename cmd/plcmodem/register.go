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
	"fmt"

	st7540 "github.com/ZaparooProject/go-st7540"
	"github.com/spf13/cobra"
)

var converge bool

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Read the modem control register",
	Long: `Read the ST7540 control register and print it in hex and binary.

With --converge the configured profile is written first and the register
is read back until it matches.`,
	RunE: func(*cobra.Command, []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		reporter := st7540.StatusReporterFunc(func(code st7540.StatusCode) error {
			_, _ = fmt.Printf("%s %s\n", code, code.Description())
			return nil
		})

		m, err := openModem(ctx, cfg, st7540.WithStatusReporter(reporter))
		if err != nil {
			return err
		}
		defer m.Close()

		if err := m.device.WaitReady(ctx); err != nil {
			return err
		}

		var reg st7540.ControlRegister
		if converge {
			reg, err = m.device.Converge(ctx)
		} else {
			reg, err = m.device.ReadControlRegister(ctx)
		}
		if err != nil {
			return err
		}

		_, _ = fmt.Printf("Control register: %s\n", reg)
		_, _ = fmt.Printf("Bits:             %s\n", reg.BitString())
		if profile, perr := cfg.Profile(); perr == nil && !reg.Equal(profile) {
			_, _ = fmt.Printf("Profile:          %s (differs)\n", profile)
		}
		return nil
	},
}

func init() {
	registerCmd.Flags().BoolVar(&converge, "converge", false, "Write the configured profile until the modem reports it")
}
