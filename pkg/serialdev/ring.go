// go-picaso
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of go-picaso.
//
// go-picaso is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-picaso is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-picaso.  If not, see <http://www.gnu.org/licenses/>.

package serialdev

// ringSize must be a power of two so head and tail can be masked instead of
// taken modulo.
const ringSize = 4096

// ring is a fixed-size FIFO byte buffer. It holds bytes read from the port
// that the caller has not consumed yet. One slot is always left empty so a
// full buffer can be told apart from an empty one.
type ring struct {
	buf  [ringSize]byte
	head uint32 // next write position
	tail uint32 // next read position
}

func (r *ring) len() int {
	return int((r.head - r.tail) & (ringSize - 1))
}

func (r *ring) free() int {
	return ringSize - 1 - r.len()
}

// push stores as many bytes of p as fit and returns how many were stored.
func (r *ring) push(p []byte) int {
	n := len(p)
	if free := r.free(); n > free {
		n = free
	}
	for _, b := range p[:n] {
		r.buf[r.head&(ringSize-1)] = b
		r.head++
	}
	return n
}

// pop removes and returns the oldest byte. ok is false when the ring is
// empty.
func (r *ring) pop() (b byte, ok bool) {
	if r.head == r.tail {
		return 0, false
	}
	b = r.buf[r.tail&(ringSize-1)]
	r.tail++
	return b, true
}

func (r *ring) reset() {
	r.head = 0
	r.tail = 0
}
