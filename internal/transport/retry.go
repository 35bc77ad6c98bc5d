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

// Package transport provides internal transport utilities
package transport

import (
	"context"
	"time"

	st7540 "github.com/ZaparooProject/go-st7540"
)

// RetryOperation represents a function that can be retried
// Returns: data, shouldRetry, error
// - data: the result if successful
// - shouldRetry: true if the operation should be retried
// - error: any permanent error that should stop retries
type RetryOperation[T any] func(attempt int) (T, bool, error)

// RetryConfig configures retry behavior
type RetryConfig struct {
	OnRetry       func(attempt int) error
	OnRetryFailed func() error
	Description   string
	// MaxAttempts is the total number of calls to the operation, at least one
	MaxAttempts int
	RetryDelay  time.Duration
}

// WithRetry executes an operation until it succeeds, fails permanently or
// runs out of attempts. Exhaustion returns ErrNoResponse unless
// OnRetryFailed supplies an error of its own.
func WithRetry[T any](ctx context.Context, config RetryConfig, operation RetryOperation[T]) (T, error) {
	var zero T

	attempts := max(config.MaxAttempts, 1)
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		result, shouldRetry, err := operation(attempt)
		if err != nil {
			return zero, err
		}

		if !shouldRetry {
			return result, nil
		}

		if attempt >= attempts {
			break
		}

		if err := executeRetryCallback(config, attempt); err != nil {
			return zero, err
		}

		if err := sleep(ctx, config.RetryDelay); err != nil {
			return zero, err
		}
	}

	return handleRetriesExhausted[T](config)
}

func executeRetryCallback(config RetryConfig, attempt int) error {
	if config.OnRetry != nil {
		return config.OnRetry(attempt)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func handleRetriesExhausted[T any](config RetryConfig) (T, error) {
	var zero T

	if config.OnRetryFailed != nil {
		if failErr := config.OnRetryFailed(); failErr != nil {
			return zero, failErr
		}
	}

	op := config.Description
	if op == "" {
		op = "retry"
	}
	return zero, st7540.NewTransportError(op, "mains", st7540.ErrNoResponse, st7540.ErrorTypeTransient)
}
