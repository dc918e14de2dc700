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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZaparooProject/go-picaso/pkg/picaso/protocol"
	"github.com/ZaparooProject/go-picaso/pkg/serialdev"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	// powerUpDelay is the settling time the manual requires after the
	// device powers up, before any byte may be sent.
	powerUpDelay = 500 * time.Millisecond
	// autoBaudAttempts is the only retried exchange in the protocol; it
	// runs before the link is known to be good.
	autoBaudAttempts = 4
	autoBaudTimeout  = 20 * time.Millisecond
	// ackPollBudget bounds each read inside an ACK scan so the scan can
	// recheck its deadline.
	ackPollBudget = 10 * time.Millisecond
)

// Completion is delivered to the CompletionHandler when a deferred
// command finishes. Point is only meaningful for CommandTouchData with
// OK set.
type Completion struct {
	Err     error
	Command Command
	Point   protocol.TouchPoint
	OK      bool
}

// CompletionHandler receives the outcome of deferred commands. It is
// invoked from the controller's worker goroutine, after the controller
// has returned to Idle, so the handler may immediately issue the next
// command.
type CompletionHandler interface {
	HandleCompletion(c *Controller, ev Completion)
}

// CompletionHandlerFunc adapts a plain function to a CompletionHandler.
type CompletionHandlerFunc func(c *Controller, ev Completion)

// HandleCompletion calls f.
func (f CompletionHandlerFunc) HandleCompletion(c *Controller, ev Completion) {
	f(c, ev)
}

// pending describes the single outstanding deferred command. The caller
// writes it before publishing StateBusy; afterwards the worker is its
// sole owner until it publishes StateIdle again.
type pending struct {
	cmd      Command
	received int
	data     [protocol.TouchPacketLen]byte
}

// Controller drives one PICASO display over a serial channel.
//
// A Controller serializes all device traffic: the caller reads and
// writes the channel while Idle, the worker goroutine is the only reader
// while Busy. Methods are not safe for concurrent callers.
type Controller struct {
	ch         *serialdev.Channel
	clock      clockwork.Clock
	handler    CompletionHandler
	workerDone chan struct{}
	lastErr    string
	deferred   pending
	baudRate   int
	mu         sync.Mutex
	state      atomic.Int32
	halt       atomic.Bool
}

// New returns a controller on a real serial channel.
func New() *Controller {
	return NewWith(serialdev.NewChannel(), clockwork.NewRealClock())
}

// NewWith returns a controller using the given channel and clock. Tests
// inject a channel with a mock port here.
func NewWith(ch *serialdev.Channel, clock clockwork.Clock) *Controller {
	c := &Controller{ch: ch, clock: clock, baudRate: protocol.DefaultBaudRate}
	c.state.Store(int32(StateInactive))
	return c
}

// State returns the current readiness state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// LastError returns the stored error message. Successful operations do
// not overwrite it; it persists until ClearError.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError discards the stored error message.
func (c *Controller) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	c.mu.Unlock()
}

func (c *Controller) setErr(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	c.mu.Lock()
	c.lastErr = wrapped.Error()
	c.mu.Unlock()
	return wrapped
}

// SetHandler registers the completion handler for deferred commands.
// It is rejected while a deferred command is outstanding.
func (c *Controller) SetHandler(h CompletionHandler) error {
	if c.State() == StateBusy {
		return c.setErr("set handler", ErrBusy)
	}
	c.mu.Lock()
	c.handler = h
	c.mu.Unlock()
	return nil
}

// checkReady rejects commands unless the controller is Idle.
func (c *Controller) checkReady(op string) error {
	switch c.State() {
	case StateInactive:
		return c.setErr(op, ErrInactive)
	case StateBusy:
		return c.setErr(op, ErrBusy)
	default:
		return nil
	}
}

// Connect opens the serial device, synchronizes bit rates with the
// display and starts the completion worker. On success the controller is
// Idle. It then tries to raise the link to the fastest rate the host
// supports; if that fails, the failure is only logged and Connect still
// succeeds.
func (c *Controller) Connect(path string) error {
	if c.State() == StateBusy {
		return c.setErr("connect", ErrBusy)
	}
	c.deferred = pending{}

	if c.ch.IsOpen() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Msg("close before reconnect failed")
		}
	}

	params := serialdev.Params{
		BaudRate: protocol.DefaultBaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   serialdev.ParityNone,
	}
	if err := c.ch.Open(path, params); err != nil {
		return c.setErr("connect", err)
	}

	// per the manual, waste 500 ms before communicating
	c.clock.Sleep(powerUpDelay)

	if err := c.autoBaud(); err != nil {
		_ = c.ch.Close()
		c.state.Store(int32(StateInactive))
		return c.setErr("connect", err)
	}

	if err := c.SetBaud(protocol.MaxHostBaudRate()); err != nil {
		log.Warn().Err(err).Msg("could not raise bit rate, staying at 9600")
	}

	c.halt.Store(false)
	c.workerDone = make(chan struct{})
	go c.worker()

	log.Info().Str("path", path).Int("baud", c.baudRate).
		Msg("display connected")

	return nil
}

// autoBaud sends 'U' until the device locks onto the host rate and
// ACKs. This is the only command that is ever retried.
func (c *Controller) autoBaud() error {
	for i := 0; i < autoBaudAttempts; i++ {
		if err := c.ch.Flush(); err != nil {
			return fmt.Errorf("auto-baud: %w", err)
		}
		if err := c.ch.Write(protocol.AutoBaud()); err != nil {
			return fmt.Errorf("auto-baud: %w", err)
		}
		err := c.waitAck(autoBaudTimeout)
		if err == nil {
			c.baudRate = protocol.DefaultBaudRate
			c.state.Store(int32(StateIdle))
			return nil
		}
		log.Debug().Err(err).Int("attempt", i+1).Msg("auto-baud attempt failed")
	}
	return fmt.Errorf("auto-baud: no ACK after %d attempts: %w",
		autoBaudAttempts, ErrTimeout)
}

// Close cancels any outstanding deferred command, restores the device
// to its 9600 default rate and closes the port. It is safe to call in
// any state.
func (c *Controller) Close() error {
	if !c.ch.IsOpen() {
		return nil
	}

	c.halt.Store(true)
	if c.workerDone != nil {
		<-c.workerDone
		c.workerDone = nil
	}

	// the worker is gone, so the cancellation below cannot race a
	// normal completion
	if c.State() == StateBusy {
		cmd := c.deferred.cmd
		c.deferred = pending{}
		c.state.Store(int32(StateIdle))
		c.setErrString("close", "port is closing")
		c.invokeHandler(Completion{Command: cmd, OK: false, Err: ErrBusy})
	}

	if c.State() != StateInactive && c.baudRate != protocol.DefaultBaudRate {
		if err := c.SetBaud(protocol.DefaultBaudRate); err != nil {
			log.Warn().Err(err).
				Msg("cannot restore default bit rate, display will require manual reset")
		}
	}

	err := c.ch.Close()
	c.state.Store(int32(StateInactive))
	if err != nil {
		return c.setErr("close", err)
	}

	log.Info().Msg("display disconnected")

	return nil
}

func (c *Controller) setErrString(op, msg string) {
	c.mu.Lock()
	c.lastErr = op + ": " + msg
	c.mu.Unlock()
}

func (c *Controller) invokeHandler(ev Completion) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h.HandleCompletion(c, ev)
	}
}

// SetBaud negotiates a new bit rate with the display. The device
// acknowledges at the old rate and then both sides switch. If the host
// cannot follow after the device has switched, ErrDesync is returned and
// the display requires a manual reset.
func (c *Controller) SetBaud(rate int) error {
	if err := c.checkReady("set baud"); err != nil {
		return err
	}
	if rate == c.baudRate {
		return nil
	}

	code, err := protocol.BaudCode(rate)
	if err != nil {
		return c.setErr("set baud", err)
	}
	if !protocol.HostSupportsBaud(rate) {
		return c.setErr("set baud",
			fmt.Errorf("%w: bit rate %d not supported on this platform",
				protocol.ErrInvalidArgument, rate))
	}

	// probe the host before committing: switch to the target rate and
	// back, so a platform refusal cannot strand the device
	oldRate := c.baudRate
	if err = c.ch.SetBaud(rate); err != nil {
		return c.setErr("set baud", err)
	}
	if err = c.ch.SetBaud(oldRate); err != nil {
		return c.setErr("set baud", err)
	}

	if err = c.ch.Flush(); err != nil {
		return c.setErr("set baud", err)
	}
	if err = c.ch.Write(protocol.SetBaud(code)); err != nil {
		return c.setErr("set baud", err)
	}

	// the PICASO chip seems to always reply 0xFF, so anything that is
	// not a NACK counts as acceptance
	if waitErr := c.waitAckNack(100 * time.Millisecond); errors.Is(waitErr, ErrNack) {
		return c.setErr("set baud", ErrNack)
	}

	if err = c.ch.SetBaud(rate); err != nil {
		return c.setErr("set baud", fmt.Errorf("%w: %w", ErrDesync, err))
	}
	c.baudRate = rate

	log.Debug().Int("baud", rate).Msg("display bit rate changed")

	return nil
}

// BaudRate returns the negotiated line rate.
func (c *Controller) BaudRate() int {
	return c.baudRate
}

// waitAck scans inbound bytes for an ACK until the deadline. All other
// bytes are discarded.
func (c *Controller) waitAck(timeout time.Duration) error {
	return c.scanAck(timeout, true, false)
}

// waitNack scans inbound bytes for a NACK until the deadline. It is used
// by the raw script-run command, whose only reply is a failure report:
// ErrTimeout here means the script started.
func (c *Controller) waitNack(timeout time.Duration) error {
	return c.scanAck(timeout, false, true)
}

// waitAckNack scans inbound bytes for an ACK or NACK until the deadline,
// discarding everything else. It returns nil on ACK, ErrNack on NACK and
// ErrTimeout when the deadline passes.
func (c *Controller) waitAckNack(timeout time.Duration) error {
	return c.scanAck(timeout, true, true)
}

func (c *Controller) scanAck(timeout time.Duration, wantAck, wantNack bool) error {
	deadline := c.clock.Now().Add(timeout)
	var buf [4]byte
	for {
		remaining := deadline.Sub(c.clock.Now())
		if remaining <= 0 {
			return ErrTimeout
		}
		budget := ackPollBudget
		if remaining < budget {
			budget = remaining
		}
		n, err := c.ch.Read(buf[:], budget)
		if err != nil {
			return fmt.Errorf("ack scan: %w", err)
		}
		for _, b := range buf[:n] {
			if wantAck && b == protocol.ACK {
				return nil
			}
			if wantNack && b == protocol.NACK {
				return ErrNack
			}
		}
	}
}

// sendAck frames the common synchronous exchange: flush, write the
// command bytes, await ACK or NACK within the command's budget.
func (c *Controller) sendAck(op string, frame []byte, timeout time.Duration) error {
	if err := c.checkReady(op); err != nil {
		return err
	}
	if err := c.ch.Flush(); err != nil {
		return c.setErr(op, err)
	}
	return c.writeAwaitAck(op, frame, timeout)
}

// writeAwaitAck is sendAck without the flush, for the one command that
// historically skips it.
func (c *Controller) writeAwaitAck(op string, frame []byte, timeout time.Duration) error {
	if err := c.ch.Write(frame); err != nil {
		return c.setErr(op, err)
	}
	if err := c.waitAckNack(timeout); err != nil {
		return c.setErr(op, err)
	}
	return nil
}

// sendPayload frames the fixed-payload exchange: flush, write the
// command bytes, read exactly want reply bytes within the budget. A
// short read is a hard error.
func (c *Controller) sendPayload(op string, frame []byte, want int,
	timeout time.Duration,
) ([]byte, error) {
	if err := c.checkReady(op); err != nil {
		return nil, err
	}
	if err := c.ch.Flush(); err != nil {
		return nil, c.setErr(op, err)
	}
	if err := c.ch.Write(frame); err != nil {
		return nil, c.setErr(op, err)
	}
	buf := make([]byte, want)
	n, err := c.ch.Read(buf, timeout)
	if err != nil {
		return nil, c.setErr(op, err)
	}
	if n == 0 {
		return nil, c.setErr(op, ErrTimeout)
	}
	if n != want {
		return nil, c.setErr(op,
			fmt.Errorf("%w: %d bytes, %d expected", ErrShortResponse, n, want))
	}
	return buf, nil
}

// beginDeferred records the outstanding command and publishes Busy. The
// store on the atomic state is the happens-before edge that hands the
// record to the worker.
func (c *Controller) beginDeferred(cmd Command) {
	c.deferred = pending{cmd: cmd}
	c.state.Store(int32(StateBusy))
}
