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

import "fmt"

// MainsBufferSize is the largest payload moved over the mains in one transfer
const MainsBufferSize = 120

// Buffer is an owned, fixed capacity mains buffer. The zero value is empty
// and ready to use.
type Buffer struct {
	data [MainsBufferSize]byte
	n    int
}

// Bytes returns the filled part of the buffer. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Len returns the number of filled bytes
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity
func (*Buffer) Cap() int {
	return MainsBufferSize
}

// Reset empties the buffer and clears its contents
func (b *Buffer) Reset() {
	b.data = [MainsBufferSize]byte{}
	b.n = 0
}

// Write appends p to the buffer. It fails without writing anything if p
// does not fit.
func (b *Buffer) Write(p []byte) (int, error) {
	if len(p) > MainsBufferSize-b.n {
		return 0, fmt.Errorf("%w: %d bytes do not fit, %d free", ErrInvalidLength, len(p), MainsBufferSize-b.n)
	}
	copy(b.data[b.n:], p)
	b.n += len(p)
	return len(p), nil
}

// grow resets the buffer and exposes its first n bytes for a transfer
func (b *Buffer) grow(n int) ([]byte, error) {
	if n <= 0 || n > MainsBufferSize {
		return nil, fmt.Errorf("%w: %d bytes, capacity %d", ErrInvalidLength, n, MainsBufferSize)
	}
	b.Reset()
	b.n = n
	return b.data[:n], nil
}
