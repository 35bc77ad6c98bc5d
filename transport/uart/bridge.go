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

package uart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	st7540 "github.com/ZaparooProject/go-st7540"
	"github.com/ZaparooProject/go-st7540/internal/transport"
	"github.com/golang/glog"
)

const (
	// DefaultReplyAttempts is how many receives Forward makes for a reply
	DefaultReplyAttempts = 5
	// DefaultPollInterval is the idle receive period of Run
	DefaultPollInterval = 50 * time.Millisecond
)

// Modem is the mains side of the bridge. *st7540.Device satisfies it.
type Modem interface {
	Transmit(ctx context.Context, payload []byte) error
	Receive(ctx context.Context, buf *st7540.Buffer, n int) error
}

// BridgeConfig configures a Bridge
type BridgeConfig struct {
	ReplyAttempts int
	PollInterval  time.Duration
}

// DefaultBridgeConfig returns the desktop application's retry behaviour
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		ReplyAttempts: DefaultReplyAttempts,
		PollInterval:  DefaultPollInterval,
	}
}

// Bridge passes payloads between the PC and the mains
type Bridge struct {
	modem  Modem
	link   *HostLink
	config *BridgeConfig
	buf    st7540.Buffer
}

// NewBridge creates a bridge. A nil config uses DefaultBridgeConfig.
func NewBridge(modem Modem, link *HostLink, config *BridgeConfig) (*Bridge, error) {
	if modem == nil || link == nil {
		return nil, fmt.Errorf("%w: bridge needs a modem and a host link", st7540.ErrInvalidParameter)
	}
	if config == nil {
		config = DefaultBridgeConfig()
	}
	if config.ReplyAttempts < 1 {
		return nil, fmt.Errorf("%w: reply attempts must be at least 1, got %d",
			st7540.ErrInvalidParameter, config.ReplyAttempts)
	}
	if config.PollInterval <= 0 {
		return nil, fmt.Errorf("%w: poll interval must be positive, got %v",
			st7540.ErrInvalidParameter, config.PollInterval)
	}
	return &Bridge{modem: modem, link: link, config: config}, nil
}

// Forward transmits payload over the mains and waits for a reply. A reply is
// passed to the PC and acknowledged over the mains with #107. When no reply
// arrives within ReplyAttempts receives the PC gets #105 and the returned
// error wraps st7540.ErrNoResponse.
func (b *Bridge) Forward(ctx context.Context, payload []byte) ([]byte, error) {
	if err := b.modem.Transmit(ctx, payload); err != nil {
		return nil, fmt.Errorf("failed to transmit payload: %w", err)
	}

	reply, err := transport.WithRetry(ctx, transport.RetryConfig{
		Description: "reply",
		MaxAttempts: b.config.ReplyAttempts,
		OnRetryFailed: func() error {
			return b.link.ReportStatus(st7540.StatusNoResponse)
		},
	}, func(attempt int) ([]byte, bool, error) {
		msg, err := b.receive(ctx)
		if errors.Is(err, st7540.ErrNoMessage) {
			glog.V(1).Infof("bridge: no reply on attempt %d", attempt)
			return nil, true, nil
		}
		if err != nil {
			return nil, false, err
		}
		return msg, false, nil
	})
	if err != nil {
		return nil, err
	}

	if err := b.deliver(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

// Poll performs one idle receive. A message is passed to the PC and
// acknowledged; an empty line gets #106.
func (b *Bridge) Poll(ctx context.Context) (bool, error) {
	msg, err := b.receive(ctx)
	if errors.Is(err, st7540.ErrNoMessage) {
		return false, b.link.ReportStatus(st7540.StatusNoMessage)
	}
	if err != nil {
		return false, err
	}
	return true, b.deliver(ctx, msg)
}

func (b *Bridge) receive(ctx context.Context) ([]byte, error) {
	if err := b.modem.Receive(ctx, &b.buf, st7540.MainsBufferSize); err != nil {
		return nil, err
	}
	msg := bytes.Trim(b.buf.Bytes(), "\x00")
	if len(msg) == 0 {
		return nil, st7540.ErrNoMessage
	}
	return append([]byte(nil), msg...), nil
}

func (b *Bridge) deliver(ctx context.Context, msg []byte) error {
	if err := b.link.WriteLine(msg); err != nil {
		return fmt.Errorf("failed to forward message to host: %w", err)
	}
	if err := b.modem.Transmit(ctx, st7540.StatusAck.Frame()); err != nil {
		return fmt.Errorf("failed to acknowledge message: %w", err)
	}
	return nil
}

// Run serves the link until ctx is done or the link fails. Lines from the
// PC are forwarded; between them the mains is polled every PollInterval.
// Run closes the link before returning.
func (b *Bridge) Run(ctx context.Context) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			line, err := b.link.ReadLine()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case lines <- line:
			case <-done:
				return
			}
		}
	}()
	defer func() {
		close(done)
		_ = b.link.Close()
		wg.Wait()
	}()

	ticker := time.NewTicker(b.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			if len(line) == 0 {
				continue
			}
			if _, err := b.Forward(ctx, line); err != nil {
				glog.Warningf("bridge: forward failed: %v", err)
			}
		case <-ticker.C:
			if _, err := b.Poll(ctx); err != nil {
				glog.Warningf("bridge: poll failed: %v", err)
			}
		}
	}
}
