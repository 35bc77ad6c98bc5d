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

// Package bitstream addresses byte buffers as most-significant-bit-first
// bit strings. It provides the search and realignment primitives a mains
// link layer uses to locate frames in a raw receive buffer.
//
// Bit index 0 is the most significant bit of byte 0, bit 7 is the least
// significant bit of byte 0, bit 8 is the most significant bit of byte 1,
// and so on. None of the functions in this package return errors: a failed
// search is reported as NotFound.
package bitstream

// NotFound is returned by FindSubsequence when the needle does not occur.
const NotFound = -1

// GetBit returns the bit (0 or 1) at bitIndex.
//
// bitIndex must satisfy 0 <= bitIndex < len(buf)*8; out of range indices
// panic like any other slice access.
func GetBit(buf []byte, bitIndex int) byte {
	return (buf[bitIndex/8] >> (7 - uint(bitIndex%8))) & 1
}

// FindSubsequence returns the smallest bit offset in haystack at which the
// first needleBits bits of needle occur, or NotFound.
//
// Only the first haystackBits bits of haystack are searched. Lengths larger
// than the backing slices are clamped to them. An empty needle matches at
// offset 0.
func FindSubsequence(haystack []byte, haystackBits int, needle []byte, needleBits int) int {
	haystackBits = clampBits(haystack, haystackBits)
	needleBits = clampBits(needle, needleBits)

	if needleBits > haystackBits {
		return NotFound
	}

	for start := 0; start <= haystackBits-needleBits; start++ {
		if matchesAt(haystack, start, needle, needleBits) {
			return start
		}
	}
	return NotFound
}

func matchesAt(haystack []byte, start int, needle []byte, needleBits int) bool {
	for i := 0; i < needleBits; i++ {
		if GetBit(needle, i) != GetBit(haystack, start+i) {
			return false
		}
	}
	return true
}

// ShiftLeft shifts the first byteLength bytes of buf, taken as one bit
// string, left by bitCount bits. Vacated bits at the tail are zero.
//
// The shift is applied one bit at a time: the top bit of byte 0 is dropped,
// each following byte hands its top bit down to the bottom of the byte
// before it, and the last byte is filled with a zero. Shifting by
// byteLength*8 or more clears the buffer.
func ShiftLeft(buf []byte, byteLength, bitCount int) {
	if byteLength > len(buf) {
		byteLength = len(buf)
	}
	if byteLength <= 0 || bitCount <= 0 {
		return
	}
	if limit := byteLength * 8; bitCount > limit {
		bitCount = limit
	}

	for n := 0; n < bitCount; n++ {
		shiftLeftOnce(buf[:byteLength])
	}
}

func shiftLeftOnce(buf []byte) {
	last := len(buf) - 1
	for i := 0; i < last; i++ {
		buf[i] = buf[i]<<1 | buf[i+1]>>7
	}
	buf[last] <<= 1
}

// Align searches the first byteLength bytes of buf for pattern and, when it
// is found, shifts buf left so the pattern starts at bit 0. It returns the
// offset the pattern was found at.
func Align(buf []byte, byteLength int, pattern []byte, patternBits int) (int, bool) {
	if byteLength > len(buf) {
		byteLength = len(buf)
	}
	offset := FindSubsequence(buf, byteLength*8, pattern, patternBits)
	if offset == NotFound {
		return NotFound, false
	}
	ShiftLeft(buf, byteLength, offset)
	return offset, true
}

func clampBits(buf []byte, bits int) int {
	if bits < 0 {
		return 0
	}
	if limit := len(buf) * 8; bits > limit {
		return limit
	}
	return bits
}
