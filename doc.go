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

/*
Package st7540 provides a pure Go host-side driver for the ST7540 FSK
power-line transceiver.

The ST7540 talks to its host over a synchronous serial port plus a handful
of control lines: a select input, the REG/DATA and RxTx mode inputs, a
ready output and a watchdog input. This library drives that link from a
Linux board through periph.io with the host as SPI master: the modem
signals on an engagement line when it is ready to exchange, and a service
goroutine then clocks every byte of the transfer itself, one Tx per byte.

Features:
  - Interrupt style SPI transfer engine with bounded, cancellable waits
  - Control register negotiation with a bounded read/compare/write loop
  - Mains data transmit and receive through 120 byte buffers
  - Independent watchdog heartbeat (package watchdog)
  - Bit level helpers for framing received streams (package bitstream)
  - Host serial bridge with #1xx status codes (package transport/uart)

Basic Usage:

	import (
	    "github.com/ZaparooProject/go-st7540"
	    "github.com/ZaparooProject/go-st7540/transport/spi"
	    "github.com/ZaparooProject/go-st7540/watchdog"
	)

	// Open the SPI port and GPIO lines
	hw, err := spi.New(spi.DefaultConfig())
	if err != nil {
	    log.Fatal(err)
	}
	defer hw.Close()

	// Keep the modem's watchdog fed
	hb, err := watchdog.New(hw.Lines().Watchdog, nil)
	if err != nil {
	    log.Fatal(err)
	}
	_ = hb.Start(ctx)
	defer hb.Stop()

	// Create the driver and bring the modem up
	device, err := st7540.New(hw.Lines(),
	    st7540.WithTransferTimeout(time.Second),
	    st7540.WithProfile(st7540.DefaultProfile),
	)
	if err != nil {
	    log.Fatal(err)
	}
	defer device.Close()

	if err := device.Setup(ctx); err != nil {
	    log.Fatal(err)
	}

	// Send a frame over the mains
	if err := device.Transmit(ctx, []byte("hello")); err != nil {
	    log.Fatal(err)
	}

Transfer Modes:

The REG/DATA and RxTx lines select one of four modes:

  - Transmit: data from host to mains
  - Receive: data from mains to host (the idle mode)
  - ReadControlRegister: the 24 bit control register to host
  - WriteControlRegister: host to control register

Error Handling:

All operations return errors that can be inspected:

	if errors.Is(err, st7540.ErrTransferTimeout) {
	    // the modem never engaged the bus
	}

	var mismatch *st7540.RegisterMismatchError
	if errors.As(err, &mismatch) {
	    fmt.Println("modem reports", mismatch.Observed)
	}

Thread Safety:

One transfer runs at a time; a second concurrent call fails with
ErrTransferInProgress instead of queueing, both on the Engine and on the
Device. A rejected Device call never touches the mode lines.
*/
package st7540
