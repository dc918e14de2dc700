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

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

var (
	// ErrNotOpen is returned when an operation needs an open channel.
	ErrNotOpen = errors.New("serial channel is not open")
	// ErrAlreadyOpen is returned by Open on a channel that already has a port.
	ErrAlreadyOpen = errors.New("serial channel is already open")
)

// Channel is a half-duplex byte channel over a serial port. Reads are
// bounded by a deadline and go through an internal ring buffer so that
// bytes arriving ahead of a read are not lost. A Channel is not safe for
// concurrent use; callers must serialize access.
type Channel struct {
	factory PortFactory
	clock   clockwork.Clock
	port    Port
	path    string
	params  Params
	rx      ring
	scratch [256]byte
}

// NewChannel returns a channel that opens real serial ports.
func NewChannel() *Channel {
	return NewChannelWith(DefaultPortFactory, clockwork.NewRealClock())
}

// NewChannelWith returns a channel using the given port factory and clock.
// Tests inject a mock factory and a fake clock here.
func NewChannelWith(factory PortFactory, clock clockwork.Clock) *Channel {
	return &Channel{factory: factory, clock: clock}
}

// Open opens the serial device at path with the given line settings.
func (c *Channel) Open(path string, params Params) error {
	if c.port != nil {
		return ErrAlreadyOpen
	}

	mode, err := params.Mode()
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	port, err := c.factory(path, mode)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	c.port = port
	c.path = path
	c.params = params
	c.rx.reset()

	log.Debug().Str("path", path).Int("baud", params.BaudRate).
		Msg("serial channel opened")

	return nil
}

// IsOpen reports whether the channel currently holds a port.
func (c *Channel) IsOpen() bool {
	return c.port != nil
}

// Path returns the device path of the last successful Open.
func (c *Channel) Path() string {
	return c.path
}

// Params returns the current line settings.
func (c *Channel) Params() Params {
	return c.params
}

// Close closes the underlying port. The channel can be opened again
// afterwards.
func (c *Channel) Close() error {
	if c.port == nil {
		return ErrNotOpen
	}

	err := c.port.Close()
	c.port = nil
	c.rx.reset()
	if err != nil {
		return fmt.Errorf("close %s: %w", c.path, err)
	}

	log.Debug().Str("path", c.path).Msg("serial channel closed")

	return nil
}

// Reopen closes and reopens the port with the last path and settings. It is
// a recovery path for ports left in a bad state by a device reset.
func (c *Channel) Reopen() error {
	if c.port != nil {
		if err := c.port.Close(); err != nil {
			log.Warn().Err(err).Str("path", c.path).
				Msg("close before reopen failed")
		}
		c.port = nil
	}
	return c.Open(c.path, c.params)
}

// Write sends all of p, waiting for the port to accept every byte and for
// the hardware to finish transmitting it.
func (c *Channel) Write(p []byte) error {
	if c.port == nil {
		return ErrNotOpen
	}

	for len(p) > 0 {
		n, err := c.port.Write(p)
		if err != nil {
			return fmt.Errorf("serial write: %w", err)
		}
		if err := c.port.Drain(); err != nil {
			return fmt.Errorf("serial drain: %w", err)
		}
		p = p[n:]
	}

	return nil
}

// Read fills p with received bytes, waiting up to timeout for the first and
// subsequent bytes. Bytes already buffered from earlier reads are consumed
// first. It returns the number of bytes placed in p; n < len(p) with a nil
// error means the deadline expired.
func (c *Channel) Read(p []byte, timeout time.Duration) (int, error) {
	return c.read(p, timeout, 0, false)
}

// ReadDelim reads like Read but stops early once the delimiter byte has
// been received. The delimiter is included in p and in the returned count.
func (c *Channel) ReadDelim(p []byte, delim byte, timeout time.Duration) (int, error) {
	return c.read(p, timeout, delim, true)
}

// WriteRead sends out and then reads a reply into in with the given
// timeout.
func (c *Channel) WriteRead(out, in []byte, timeout time.Duration) (int, error) {
	if err := c.Write(out); err != nil {
		return 0, err
	}
	return c.Read(in, timeout)
}

func (c *Channel) read(p []byte, timeout time.Duration, delim byte, delimited bool) (int, error) {
	if c.port == nil {
		return 0, ErrNotOpen
	}

	n, done := c.drainRing(p, 0, delim, delimited)
	if done || n == len(p) {
		return n, nil
	}

	deadline := c.clock.Now().Add(timeout)
	for n < len(p) {
		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			break
		}
		if err := c.port.SetReadTimeout(remaining); err != nil {
			return n, fmt.Errorf("set read timeout: %w", err)
		}

		rn, err := c.port.Read(c.scratch[:])
		if err != nil {
			return n, fmt.Errorf("serial read: %w", err)
		}
		if rn == 0 {
			// port-level timeout
			break
		}
		c.rx.push(c.scratch[:rn])

		n, done = c.drainRing(p, n, delim, delimited)
		if done {
			break
		}
	}

	return n, nil
}

// drainRing pops buffered bytes into p starting at offset n. done is true
// when the delimiter was consumed.
func (c *Channel) drainRing(p []byte, n int, delim byte, delimited bool) (int, bool) {
	for n < len(p) {
		b, ok := c.rx.pop()
		if !ok {
			return n, false
		}
		p[n] = b
		n++
		if delimited && b == delim {
			return n, true
		}
	}
	return n, false
}

// Buffered returns how many received bytes are waiting in the ring buffer.
func (c *Channel) Buffered() int {
	return c.rx.len()
}

// Flush waits for pending output to transmit, then discards everything on
// the receive side, both in the OS and in the ring buffer.
func (c *Channel) Flush() error {
	if c.port == nil {
		return ErrNotOpen
	}

	if err := c.port.Drain(); err != nil {
		return fmt.Errorf("serial drain: %w", err)
	}
	if err := c.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("reset input buffer: %w", err)
	}
	c.rx.reset()

	return nil
}

// Drain blocks until the OS has transmitted all queued output bytes.
func (c *Channel) Drain() error {
	if c.port == nil {
		return ErrNotOpen
	}
	if err := c.port.Drain(); err != nil {
		return fmt.Errorf("serial drain: %w", err)
	}
	return nil
}

// SetBaud changes the line rate in place and discards anything queued in
// either direction, since bytes straddling a rate change are garbage.
func (c *Channel) SetBaud(rate int) error {
	if c.port == nil {
		return ErrNotOpen
	}

	params := c.params
	params.BaudRate = rate
	mode, err := params.Mode()
	if err != nil {
		return fmt.Errorf("set baud %d: %w", rate, err)
	}

	if err := c.port.SetMode(mode); err != nil {
		return fmt.Errorf("set baud %d: %w", rate, err)
	}
	c.params = params

	if err := c.port.ResetOutputBuffer(); err != nil {
		return fmt.Errorf("set baud %d: %w", rate, err)
	}
	if err := c.port.ResetInputBuffer(); err != nil {
		return fmt.Errorf("set baud %d: %w", rate, err)
	}
	c.rx.reset()

	log.Debug().Str("path", c.path).Int("baud", rate).Msg("serial baud changed")

	return nil
}
