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

package protocol

import (
	"fmt"
	"runtime"
)

// DefaultBaudRate is the rate the device powers up at.
const DefaultBaudRate = 9600

// BaudCode returns the 'Q' command argument byte for a supported line
// rate.
func BaudCode(rate int) (byte, error) {
	switch rate {
	case 9600:
		return 0x06, nil
	case 57600:
		return 0x0C, nil
	case 115200:
		return 0x0D, nil
	case 128000:
		return 0x0E, nil
	case 256000:
		return 0x0F, nil
	}
	return 0, fmt.Errorf("%w: unsupported bit rate %d", ErrInvalidArgument, rate)
}

// HostSupportsBaud reports whether the host platform can drive the given
// device rate. 128000 and 256000 are Windows-only line speeds.
func HostSupportsBaud(rate int) bool {
	switch rate {
	case 9600, 57600, 115200:
		return true
	case 128000, 256000:
		return runtime.GOOS == "windows"
	}
	return false
}

// MaxHostBaudRate returns the fastest device rate the host platform
// supports.
func MaxHostBaudRate() int {
	if runtime.GOOS == "windows" {
		return 256000
	}
	return 115200
}
