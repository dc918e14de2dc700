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

package picaso

import (
	"errors"
	"time"

	"github.com/ZaparooProject/go-picaso/pkg/picaso/protocol"
	"github.com/rs/zerolog/log"
)

const (
	// workerIdlePoll is how long the worker sleeps between checks while
	// no deferred command is outstanding.
	workerIdlePoll = 100 * time.Millisecond
	// workerAckBudget is one wait slice for a deferred ACK/NACK. A
	// timeout only means "not yet": the worker loops until the event
	// arrives or the controller shuts down.
	workerAckBudget = 200 * time.Millisecond
	// workerDataBudget is one wait slice while collecting a deferred
	// coordinate packet.
	workerDataBudget = 100 * time.Millisecond
)

// worker is the controller's background goroutine. It idles while the
// controller is not Busy and otherwise watches the serial channel for the
// response the device withheld. Exactly one completion is delivered per
// deferred command, unless Close cancels it first.
func (c *Controller) worker() {
	defer close(c.workerDone)

	for !c.halt.Load() {
		if c.State() != StateBusy {
			c.clock.Sleep(workerIdlePoll)
			continue
		}

		switch c.deferred.cmd {
		case CommandSleep, CommandTouchWait:
			c.awaitDeferredAck()
		case CommandTouchData:
			c.awaitTouchData()
		default:
			log.Error().Stringer("command", c.deferred.cmd).
				Msg("unknown deferred command, dropping")
			c.complete(Completion{Command: c.deferred.cmd, OK: false, Err: ErrTimeout})
		}
	}
}

// complete publishes Idle and then delivers the completion event. The
// order matters: the handler runs with the controller already accepting
// new commands.
func (c *Controller) complete(ev Completion) {
	c.deferred = pending{}
	c.state.Store(int32(StateIdle))
	c.invokeHandler(ev)
}

// awaitDeferredAck waits out a sleep or touch-wait command, whose whole
// response is a single ACK or NACK at some arbitrary future time.
func (c *Controller) awaitDeferredAck() {
	cmd := c.deferred.cmd
	for !c.halt.Load() {
		err := c.waitAckNack(workerAckBudget)
		switch {
		case err == nil:
			c.complete(Completion{Command: cmd, OK: true})
			return
		case errors.Is(err, ErrNack):
			c.setErrString(cmd.String(), "device replied NACK")
			c.complete(Completion{Command: cmd, OK: false, Err: ErrNack})
			return
		case errors.Is(err, ErrTimeout):
			// not yet, keep listening
		default:
			c.setErrString(cmd.String(), err.Error())
			c.complete(Completion{Command: cmd, OK: false, Err: err})
			return
		}
	}
}

// awaitTouchData collects the 4-byte coordinate packet a deferred touch
// query produces. The bytes may dribble in across wait slices, so
// progress is kept in the pending record.
func (c *Controller) awaitTouchData() {
	for !c.halt.Load() {
		n, err := c.ch.Read(c.deferred.data[c.deferred.received:], workerDataBudget)
		if err != nil {
			c.setErrString("touch data", err.Error())
			c.complete(Completion{Command: CommandTouchData, OK: false, Err: err})
			return
		}
		c.deferred.received += n
		if c.deferred.received < protocol.TouchPacketLen {
			continue
		}

		point, err := protocol.DecodeTouch(c.deferred.data[:])
		if err != nil {
			c.setErrString("touch data", err.Error())
			c.complete(Completion{Command: CommandTouchData, OK: false, Err: err})
			return
		}
		c.complete(Completion{Command: CommandTouchData, OK: true, Point: point})
		return
	}
}
