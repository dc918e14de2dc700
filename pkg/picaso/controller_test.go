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

package picaso_test

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-picaso/pkg/picaso"
	"github.com/ZaparooProject/go-picaso/pkg/picaso/protocol"
	"github.com/ZaparooProject/go-picaso/pkg/serialdev"
	"github.com/ZaparooProject/go-picaso/pkg/testutils"
)

const completionWait = 2 * time.Second

// handshake returns the scripted exchanges every successful Connect
// performs: auto-baud sync plus the switch to the fastest host rate.
func handshake(t *testing.T) []testutils.Exchange {
	t.Helper()
	code, err := protocol.BaudCode(protocol.MaxHostBaudRate())
	require.NoError(t, err)
	return []testutils.Exchange{
		{Expect: []byte{'U'}, Respond: []byte{protocol.ACK}},
		// the chip answers a rate change with a junk byte, not an ACK
		{Expect: []byte{'Q', code}, Respond: []byte{0xFF}},
	}
}

func connect(t *testing.T, script ...testutils.Exchange) (*picaso.Controller, *testutils.MockPort) {
	t.Helper()
	port := testutils.NewMockPort(append(handshake(t), script...)...)
	ch := serialdev.NewChannelWith(port.Factory(), clockwork.NewRealClock())
	c := picaso.NewWith(ch, clockwork.NewRealClock())
	require.NoError(t, c.Connect("/dev/ttyUSB0"))
	t.Cleanup(func() { _ = c.Close() })
	return c, port
}

// recorder funnels completion events into a channel the test can wait on.
type recorder struct {
	events chan picaso.Completion
}

func newRecorder(t *testing.T, c *picaso.Controller) *recorder {
	t.Helper()
	r := &recorder{events: make(chan picaso.Completion, 4)}
	require.NoError(t, c.SetHandler(picaso.CompletionHandlerFunc(
		func(_ *picaso.Controller, ev picaso.Completion) {
			r.events <- ev
		})))
	return r
}

func (r *recorder) wait(t *testing.T) picaso.Completion {
	t.Helper()
	select {
	case ev := <-r.events:
		return ev
	case <-time.After(completionWait):
		t.Fatal("no completion delivered")
		return picaso.Completion{}
	}
}

func TestConnect(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	assert.Equal(t, picaso.StateIdle, c.State())
	assert.Equal(t, protocol.MaxHostBaudRate(), c.BaudRate())
	assert.True(t, port.ScriptDone())
}

func TestConnectNoDevice(t *testing.T) {
	t.Parallel()

	port := testutils.NewMockPort()
	ch := serialdev.NewChannelWith(port.Factory(), clockwork.NewRealClock())
	c := picaso.NewWith(ch, clockwork.NewRealClock())

	err := c.Connect("/dev/ttyUSB0")
	require.ErrorIs(t, err, picaso.ErrTimeout)
	assert.Equal(t, picaso.StateInactive, c.State())
	assert.True(t, port.Closed())
	assert.Contains(t, c.LastError(), "auto-baud")
}

func TestCommandsRejectedWhileInactive(t *testing.T) {
	t.Parallel()

	c := picaso.NewWith(
		serialdev.NewChannelWith(testutils.NewMockPort().Factory(), clockwork.NewRealClock()),
		clockwork.NewRealClock())

	require.ErrorIs(t, c.Clear(), picaso.ErrInactive)
	_, err := c.Version(false)
	require.ErrorIs(t, err, picaso.ErrInactive)
	require.ErrorIs(t, c.SDInit(), picaso.ErrInactive)
}

func TestSyncCommandAck(t *testing.T) {
	t.Parallel()

	c, port := connect(t,
		testutils.Exchange{Expect: protocol.Clear(), Respond: []byte{protocol.ACK}},
		testutils.Exchange{
			Expect:  protocol.Rectangle(10, 20, 100, 200, 0xF800),
			Respond: []byte{protocol.ACK},
		},
	)
	require.NoError(t, c.Clear())
	require.NoError(t, c.Rectangle(10, 20, 100, 200, 0xF800))
	assert.True(t, port.ScriptDone())
}

func TestSyncCommandNack(t *testing.T) {
	t.Parallel()

	c, _ := connect(t,
		testutils.Exchange{Expect: protocol.Clear(), Respond: []byte{protocol.NACK}},
	)
	err := c.Clear()
	require.ErrorIs(t, err, picaso.ErrNack)
	assert.Contains(t, c.LastError(), "clear")

	c.ClearError()
	assert.Empty(t, c.LastError())
}

func TestSyncCommandTimeout(t *testing.T) {
	t.Parallel()

	c, _ := connect(t)
	require.ErrorIs(t, c.Clear(), picaso.ErrTimeout)
}

func TestVersion(t *testing.T) {
	t.Parallel()

	c, _ := connect(t,
		testutils.Exchange{
			Expect:  protocol.Version(false),
			Respond: []byte{0x00, 0x05, 0x03, 0x32, 0x24},
		},
	)
	info, err := c.Version(false)
	require.NoError(t, err)
	assert.Equal(t, protocol.DisplayOLED, info.Kind)
	assert.Equal(t, byte(5), info.HardwareRev)
	assert.Equal(t, byte(3), info.FirmwareRev)
	assert.Equal(t, 320, info.HRes)
	assert.Equal(t, 240, info.VRes)
}

func TestReadPixel(t *testing.T) {
	t.Parallel()

	c, _ := connect(t,
		testutils.Exchange{
			Expect:  protocol.ReadPixel(5, 6),
			Respond: []byte{0xF8, 0x00},
		},
	)
	color, err := c.ReadPixel(5, 6)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xF800), color)
}

func TestShortResponse(t *testing.T) {
	t.Parallel()

	c, _ := connect(t,
		testutils.Exchange{
			Expect:  protocol.ReadPixel(5, 6),
			Respond: []byte{0xF8},
		},
	)
	_, err := c.ReadPixel(5, 6)
	require.ErrorIs(t, err, picaso.ErrShortResponse)
}

func TestWaitTouchDeferred(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	r := newRecorder(t, c)

	err := c.WaitTouch(1000)
	require.ErrorIs(t, err, picaso.ErrPending)
	assert.Equal(t, picaso.StateBusy, c.State())

	// everything is rejected until the event lands
	require.ErrorIs(t, c.Clear(), picaso.ErrBusy)
	require.ErrorIs(t, c.SetHandler(nil), picaso.ErrBusy)

	port.QueueRead([]byte{protocol.ACK})
	ev := r.wait(t)
	assert.True(t, ev.OK)
	assert.Equal(t, picaso.CommandTouchWait, ev.Command)
	assert.NoError(t, ev.Err)
	assert.Equal(t, picaso.StateIdle, c.State())
}

func TestWaitTouchNack(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	r := newRecorder(t, c)

	require.ErrorIs(t, c.WaitTouch(100), picaso.ErrPending)
	port.QueueRead([]byte{protocol.NACK})

	ev := r.wait(t)
	assert.False(t, ev.OK)
	require.ErrorIs(t, ev.Err, picaso.ErrNack)
	assert.Equal(t, picaso.StateIdle, c.State())
}

func TestGetTouchDeferredCoordinates(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	r := newRecorder(t, c)

	_, err := c.GetTouch(0)
	require.ErrorIs(t, err, picaso.ErrPending)
	assert.Equal(t, picaso.StateBusy, c.State())

	// coordinates may dribble in across reads
	port.QueueRead([]byte{0x01, 0x02})
	port.QueueRead([]byte{0x03, 0x04})

	ev := r.wait(t)
	assert.True(t, ev.OK)
	assert.Equal(t, picaso.CommandTouchData, ev.Command)
	assert.Equal(t, protocol.TouchPoint{X: 0x0102, Y: 0x0304}, ev.Point)
	assert.Equal(t, picaso.StateIdle, c.State())
}

func TestGetTouchImmediate(t *testing.T) {
	t.Parallel()

	c, _ := connect(t,
		testutils.Exchange{
			Expect:  protocol.GetTouch(4),
			Respond: []byte{0x00, 0x10, 0x00, 0x20},
		},
	)
	point, err := c.GetTouch(4)
	require.NoError(t, err)
	assert.Equal(t, protocol.TouchPoint{X: 0x10, Y: 0x20}, point)
	assert.Equal(t, picaso.StateIdle, c.State())
}

func TestSuspendImmediateAck(t *testing.T) {
	t.Parallel()

	frame, err := protocol.Suspend(0, 0)
	require.NoError(t, err)

	c, _ := connect(t,
		testutils.Exchange{Expect: frame, Respond: []byte{protocol.ACK}},
	)
	require.NoError(t, c.Suspend(0, 0))
	assert.Equal(t, picaso.StateIdle, c.State())
}

func TestSuspendDeferredWake(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	r := newRecorder(t, c)

	err := c.Suspend(protocol.SuspendWakeOnTouch, 0)
	require.ErrorIs(t, err, picaso.ErrPending)
	assert.Equal(t, picaso.StateBusy, c.State())

	port.QueueRead([]byte{protocol.ACK})
	ev := r.wait(t)
	assert.True(t, ev.OK)
	assert.Equal(t, picaso.CommandSleep, ev.Command)
	assert.Equal(t, picaso.StateIdle, c.State())
}

func TestCloseCancelsDeferred(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	r := newRecorder(t, c)

	require.ErrorIs(t, c.WaitTouch(0), picaso.ErrPending)
	require.NoError(t, c.Close())

	ev := r.wait(t)
	assert.False(t, ev.OK)
	require.ErrorIs(t, ev.Err, picaso.ErrBusy)
	assert.Equal(t, picaso.CommandTouchWait, ev.Command)
	assert.Equal(t, picaso.StateInactive, c.State())
	assert.True(t, port.Closed())
}

func TestCloseWhileIdle(t *testing.T) {
	t.Parallel()

	c, port := connect(t)
	require.NoError(t, c.Close())
	assert.Equal(t, picaso.StateInactive, c.State())
	assert.True(t, port.Closed())

	// closing again is a no-op
	require.NoError(t, c.Close())
}

func TestSetBaudRejectsUnsupportedRate(t *testing.T) {
	t.Parallel()

	c, _ := connect(t)
	require.ErrorIs(t, c.SetBaud(19200), protocol.ErrInvalidArgument)

	// already at this rate: nothing to do
	require.NoError(t, c.SetBaud(c.BaudRate()))
}

func TestLastErrorPersists(t *testing.T) {
	t.Parallel()

	c, _ := connect(t,
		testutils.Exchange{Expect: protocol.Clear(), Respond: []byte{protocol.NACK}},
		testutils.Exchange{
			Expect:  protocol.WritePixel(1, 1, 0),
			Respond: []byte{protocol.ACK},
		},
	)
	require.Error(t, c.Clear())
	before := c.LastError()
	require.NotEmpty(t, before)

	// success does not clear the stored message
	require.NoError(t, c.WritePixel(1, 1, 0))
	assert.Equal(t, before, c.LastError())
}
