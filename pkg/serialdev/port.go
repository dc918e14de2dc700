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

// Package serialdev provides a byte-oriented serial channel with buffered,
// deadline-bounded reads on top of go.bug.st/serial. It is the transport
// layer used by the display driver but has no knowledge of any device
// protocol.
package serialdev

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// Port defines the subset of serial port operations the channel needs.
// This interface is used for dependency injection and testing.
type Port interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetMode(mode *serial.Mode) error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	ResetOutputBuffer() error
	Drain() error
}

// PortFactory creates a serial port connection.
// This factory pattern allows the channel to be testable by injecting mock
// implementations.
type PortFactory func(path string, mode *serial.Mode) (Port, error)

// DefaultPortFactory is the default factory that opens real serial ports.
// It wraps the go.bug.st/serial library for production use.
func DefaultPortFactory(path string, mode *serial.Mode) (Port, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}
	return port, nil
}

// Parity selects the parity bit configuration of a serial line.
type Parity int

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// Params describes the line settings for a serial channel.
type Params struct {
	BaudRate int
	DataBits int // 7 or 8
	StopBits int // 1 or 2
	Parity   Parity
}

// Mode converts the channel params to a go.bug.st/serial mode.
func (p Params) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{BaudRate: p.BaudRate}

	switch p.DataBits {
	case 7, 8:
		mode.DataBits = p.DataBits
	default:
		return nil, fmt.Errorf("unsupported data bits: %d", p.DataBits)
	}

	switch p.StopBits {
	case 1:
		mode.StopBits = serial.OneStopBit
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("unsupported stop bits: %d", p.StopBits)
	}

	switch p.Parity {
	case ParityNone:
		mode.Parity = serial.NoParity
	case ParityOdd:
		mode.Parity = serial.OddParity
	case ParityEven:
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("unsupported parity: %d", p.Parity)
	}

	return mode, nil
}
