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

// Package protocol encodes PICASO serial commands into their exact wire
// byte layouts and decodes the fixed-width reply packets. It is a pure
// codec: no I/O, no state. Argument validation happens here at encode
// time so that out-of-range input never reaches the device.
package protocol

import "errors"

const (
	// ACK is the device's positive acknowledgement byte.
	ACK = 0x06
	// NACK is the device's negative acknowledgement byte.
	NACK = 0x15
)

// ErrInvalidArgument wraps every encode-time validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func appendU24(b []byte, v uint32) []byte {
	return append(b, byte(v>>16), byte(v>>8), byte(v))
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}
