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

// Package picaso drives 4DSystems uOLED/uLCD/uVGA display modules built
// on the PICASO graphics processor over a serial link. A Controller owns
// the serial channel, runs the auto-baud handshake, dispatches commands
// and collects the device's acknowledgements. Commands whose response the
// device withholds until an external event (sleep wake-up, touch) are
// completed by a background worker through a CompletionHandler.
package picaso

import "errors"

// State is the controller readiness state. Commands are only accepted
// while Idle.
type State int32

const (
	// StateInactive means no port is open.
	StateInactive State = iota
	// StateIdle means the port is open and no command is in flight.
	StateIdle
	// StateBusy means a deferred-response command is awaiting its event.
	StateBusy
)

func (s State) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateIdle:
		return "idle"
	case StateBusy:
		return "busy"
	default:
		return "invalid"
	}
}

// Command tags the deferred command a completion event belongs to.
type Command int

const (
	CommandNone Command = iota
	CommandSleep
	CommandTouchWait
	CommandTouchData
)

func (c Command) String() string {
	switch c {
	case CommandNone:
		return "none"
	case CommandSleep:
		return "sleep"
	case CommandTouchWait:
		return "touch wait"
	case CommandTouchData:
		return "touch data"
	default:
		return "invalid"
	}
}

var (
	// ErrInactive is returned when a command is issued with no port open.
	ErrInactive = errors.New("display inactive")
	// ErrBusy is returned when a command is issued while a deferred
	// command is outstanding.
	ErrBusy = errors.New("display busy")
	// ErrNack means the device rejected the command with 0x15.
	ErrNack = errors.New("device replied NACK")
	// ErrTimeout means the device sent no response within the command's
	// budget.
	ErrTimeout = errors.New("timeout waiting for device response")
	// ErrPending is returned by deferred-response commands. It is not a
	// failure: the outcome arrives later through the CompletionHandler.
	ErrPending = errors.New("response pending, completion will be delivered")
	// ErrShortResponse means the device sent fewer bytes than the
	// response packet requires.
	ErrShortResponse = errors.New("incomplete response packet")
	// ErrDesync means the device switched to a new bit rate but the host
	// could not follow. The display requires a manual reset.
	ErrDesync = errors.New("host and display bit rates out of sync, display requires manual reset")
	// ErrNoSuchFile means the device reported the named FAT file does
	// not exist.
	ErrNoSuchFile = errors.New("no such file on card")
	// ErrCannotOpenFile means the device refused to open a FAT file for
	// writing.
	ErrCannotOpenFile = errors.New("cannot open file on card")
)
