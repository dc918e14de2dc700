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
)

// Response budgets per command, measured against real hardware. Drawing
// commands that touch many pixels get proportionally longer budgets.
const (
	ackShort   = 100 * time.Millisecond
	ackMedium  = 200 * time.Millisecond
	ackDraw    = 400 * time.Millisecond
	ackPaint   = 2 * time.Second
	ackRepaint = 2500 * time.Millisecond
	ackScale   = 5 * time.Second
)

// Version queries the device type, revision and panel resolution. With
// display set the device also renders the version on screen, which takes
// it considerably longer to answer.
func (c *Controller) Version(display bool) (protocol.VersionInfo, error) {
	timeout := 50 * time.Millisecond
	if display {
		timeout = 500 * time.Millisecond
	}
	buf, err := c.sendPayload("version", protocol.Version(display),
		protocol.VersionPacketLen, timeout)
	if err != nil {
		return protocol.VersionInfo{}, err
	}
	info, err := protocol.DecodeVersion(buf)
	if err != nil {
		return protocol.VersionInfo{}, c.setErr("version", err)
	}
	return info, nil
}

// Clear erases the screen to the background color.
func (c *Controller) Clear() error {
	return c.sendAck("clear", protocol.Clear(), ackShort)
}

// ReplaceBackground sets the background color and repaints the whole
// screen with it.
func (c *Controller) ReplaceBackground(color uint16) error {
	return c.sendAck("replace background", protocol.ReplaceBackground(color), ackRepaint)
}

// Ctl issues a display control command (backlight, contrast, orientation
// and friends, see the protocol package mode constants).
func (c *Controller) Ctl(mode, value byte) error {
	frame, err := protocol.Ctl(mode, value)
	if err != nil {
		return c.setErr("display control", err)
	}
	return c.sendAck("display control", frame, ackShort)
}

// SetVolume sets the audio output level.
func (c *Controller) SetVolume(value byte) error {
	frame, err := protocol.SetVolume(value)
	if err != nil {
		return c.setErr("set volume", err)
	}
	return c.sendAck("set volume", frame, ackShort)
}

// Suspend puts the display to sleep. If any wake-up condition is armed
// the device holds its response until it wakes: the call then returns
// ErrPending and the outcome arrives through the CompletionHandler. With
// no wake-up condition the device acknowledges immediately.
func (c *Controller) Suspend(options, duration byte) error {
	frame, err := protocol.Suspend(options, duration)
	if err != nil {
		return c.setErr("suspend", err)
	}
	if err := c.checkReady("suspend"); err != nil {
		return err
	}
	if err := c.ch.Flush(); err != nil {
		return c.setErr("suspend", err)
	}
	if err := c.ch.Write(frame); err != nil {
		return c.setErr("suspend", err)
	}

	err = c.waitAckNack(ackShort)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNack):
		return c.setErr("suspend", ErrNack)
	case errors.Is(err, ErrTimeout) && options&0x0F != 0:
		// armed wake-up: the reply arrives when the device wakes
		c.beginDeferred(CommandSleep)
		return ErrPending
	default:
		return c.setErr("suspend", err)
	}
}

// ReadPin queries one GPIO pin and returns its level.
func (c *Controller) ReadPin(pin byte) (byte, error) {
	frame, err := protocol.ReadPin(pin)
	if err != nil {
		return 0, c.setErr("read pin", err)
	}
	buf, err := c.sendPayload("read pin", frame, 1, ackShort)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WritePin drives one GPIO pin.
func (c *Controller) WritePin(pin, value byte) error {
	frame, err := protocol.WritePin(pin, value)
	if err != nil {
		return c.setErr("write pin", err)
	}
	return c.sendAck("write pin", frame, ackShort)
}

// ReadBus queries the 8-bit GPIO bus.
func (c *Controller) ReadBus() (byte, error) {
	buf, err := c.sendPayload("read bus", protocol.ReadBus(), 1, ackShort)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteBus drives the 8-bit GPIO bus.
func (c *Controller) WriteBus(value byte) error {
	return c.sendAck("write bus", protocol.WriteBus(value), ackShort)
}

// AddBitmap uploads a user bitmap into one of the three bitmap groups.
func (c *Controller) AddBitmap(group, index byte, data []byte) error {
	frame, err := protocol.AddBitmap(group, index, data)
	if err != nil {
		return c.setErr("add bitmap", err)
	}
	return c.sendAck("add bitmap", frame, ackMedium)
}

// DrawBitmap draws a previously uploaded bitmap.
func (c *Controller) DrawBitmap(group, index byte, x, y, color uint16) error {
	frame, err := protocol.DrawBitmap(group, index, x, y, color)
	if err != nil {
		return c.setErr("draw bitmap", err)
	}
	return c.sendAck("draw bitmap", frame, ackShort)
}

// Circle draws a circle.
func (c *Controller) Circle(x, y, radius, color uint16) error {
	return c.sendAck("draw circle", protocol.Circle(x, y, radius, color), ackShort)
}

// Triangle draws a triangle.
func (c *Controller) Triangle(x1, y1, x2, y2, x3, y3, color uint16) error {
	return c.sendAck("draw triangle",
		protocol.Triangle(x1, y1, x2, y2, x3, y3, color), ackMedium)
}

// DrawIcon sends raw pixel data to a screen region. The inbound buffer is
// deliberately not flushed first: icon streaming is timing sensitive and
// the flush delay can starve the device.
func (c *Controller) DrawIcon(x, y, width, height uint16, colorMode byte,
	pixels []byte,
) error {
	frame, err := protocol.DrawIcon(x, y, width, height, colorMode, pixels)
	if err != nil {
		return c.setErr("draw icon", err)
	}
	if err := c.checkReady("draw icon"); err != nil {
		return err
	}
	return c.writeAwaitAck("draw icon", frame, ackDraw)
}

// SetBackground changes the background color without repainting. Only
// subsequently cleared areas pick up the new color.
func (c *Controller) SetBackground(color uint16) error {
	return c.sendAck("set background", protocol.SetBackground(color), ackShort)
}

// Line draws a line.
func (c *Controller) Line(x1, y1, x2, y2, color uint16) error {
	return c.sendAck("draw line", protocol.Line(x1, y1, x2, y2, color), ackShort)
}

// Polygon draws a polygon with 3 to 7 vertices.
func (c *Controller) Polygon(xs, ys []uint16, color uint16) error {
	frame, err := protocol.Polygon(xs, ys, color)
	if err != nil {
		return c.setErr("draw polygon", err)
	}
	return c.sendAck("draw polygon", frame, ackShort)
}

// Rectangle draws a rectangle.
func (c *Controller) Rectangle(x1, y1, x2, y2, color uint16) error {
	return c.sendAck("draw rectangle",
		protocol.Rectangle(x1, y1, x2, y2, color), ackShort)
}

// Ellipse draws an ellipse.
func (c *Controller) Ellipse(x, y, rx, ry, color uint16) error {
	return c.sendAck("draw ellipse", protocol.Ellipse(x, y, rx, ry, color), ackMedium)
}

// WritePixel sets a single pixel.
func (c *Controller) WritePixel(x, y, color uint16) error {
	return c.sendAck("write pixel", protocol.WritePixel(x, y, color), ackMedium)
}

// ReadPixel queries a single pixel's color.
func (c *Controller) ReadPixel(x, y uint16) (uint16, error) {
	buf, err := c.sendPayload("read pixel", protocol.ReadPixel(x, y), 2, ackMedium)
	if err != nil {
		return 0, err
	}
	color, err := protocol.DecodePixel(buf)
	if err != nil {
		return 0, c.setErr("read pixel", err)
	}
	return color, nil
}

// CopyPaste copies a screen region to another position.
func (c *Controller) CopyPaste(xsrc, ysrc, xdst, ydst, width, height uint16) error {
	return c.sendAck("copy paste",
		protocol.CopyPaste(xsrc, ysrc, xdst, ydst, width, height), ackPaint)
}

// ReplaceColor replaces one color with another inside a region.
func (c *Controller) ReplaceColor(x1, y1, x2, y2, oldColor, newColor uint16) error {
	return c.sendAck("replace color",
		protocol.ReplaceColor(x1, y1, x2, y2, oldColor, newColor), ackScale)
}

// PenSize selects solid or wireframe drawing.
func (c *Controller) PenSize(size byte) error {
	frame, err := protocol.PenSize(size)
	if err != nil {
		return c.setErr("pen size", err)
	}
	return c.sendAck("pen size", frame, ackShort)
}

// SetFont selects one of the built-in fonts.
func (c *Controller) SetFont(size byte) error {
	frame, err := protocol.SetFont(size)
	if err != nil {
		return c.setErr("set font", err)
	}
	return c.sendAck("set font", frame, ackShort)
}

// SetOpacity selects transparent or opaque text.
func (c *Controller) SetOpacity(mode byte) error {
	frame, err := protocol.SetOpacity(mode)
	if err != nil {
		return c.setErr("set opacity", err)
	}
	return c.sendAck("set opacity", frame, ackShort)
}

// ShowChar draws one character at a text grid position.
func (c *Controller) ShowChar(glyph, col, row byte, color uint16) error {
	return c.sendAck("show char", protocol.ShowChar(glyph, col, row, color), ackShort)
}

// ScaleChar draws one magnified character at a pixel position.
func (c *Controller) ScaleChar(glyph byte, x, y, color uint16, xmul, ymul byte) error {
	return c.sendAck("scale char",
		protocol.ScaleChar(glyph, x, y, color, xmul, ymul), ackScale)
}

// ShowString draws text at a text grid position. An empty string is a
// no-op.
func (c *Controller) ShowString(col, row, font byte, color uint16, text string) error {
	frame := protocol.ShowString(col, row, font, color, text)
	if frame == nil {
		return nil
	}
	return c.sendAck("show string", frame, ackDraw)
}

// ScaleString draws magnified text at a pixel position. An empty string
// is a no-op.
func (c *Controller) ScaleString(x, y uint16, font byte, color uint16,
	width, height byte, text string,
) error {
	frame := protocol.ScaleString(x, y, font, color, width, height, text)
	if frame == nil {
		return nil
	}
	return c.sendAck("scale string", frame, ackScale)
}

// Button draws a button in the pressed or released state. An empty label
// is a no-op.
func (c *Controller) Button(pressed bool, x, y, bcolor uint16, font byte,
	tcolor uint16, xmul, ymul byte, text string,
) error {
	frame := protocol.Button(pressed, x, y, bcolor, font, tcolor, xmul, ymul, text)
	if frame == nil {
		return nil
	}
	return c.sendAck("draw button", frame, ackPaint)
}

// GetTouch requests touch status or coordinates. Modes 4 and up answer
// immediately with a coordinate packet. Modes 0..3 hold their response
// until the matching touch event occurs: the call returns ErrPending and
// the coordinates arrive through the CompletionHandler.
func (c *Controller) GetTouch(mode byte) (protocol.TouchPoint, error) {
	if !protocol.GetTouchDeferred(mode) {
		buf, err := c.sendPayload("get touch", protocol.GetTouch(mode),
			protocol.TouchPacketLen, ackShort)
		if err != nil {
			return protocol.TouchPoint{}, err
		}
		point, err := protocol.DecodeTouch(buf)
		if err != nil {
			return protocol.TouchPoint{}, c.setErr("get touch", err)
		}
		return point, nil
	}

	if err := c.checkReady("get touch"); err != nil {
		return protocol.TouchPoint{}, err
	}
	if err := c.ch.Flush(); err != nil {
		return protocol.TouchPoint{}, c.setErr("get touch", err)
	}
	if err := c.ch.Write(protocol.GetTouch(mode)); err != nil {
		return protocol.TouchPoint{}, c.setErr("get touch", err)
	}
	c.beginDeferred(CommandTouchData)
	return protocol.TouchPoint{}, ErrPending
}

// WaitTouch asks the device to acknowledge once the screen is touched, or
// NACK after timeout milliseconds. The response always arrives through
// the CompletionHandler; the call returns ErrPending.
func (c *Controller) WaitTouch(timeout uint16) error {
	if err := c.checkReady("wait touch"); err != nil {
		return err
	}
	if err := c.ch.Flush(); err != nil {
		return c.setErr("wait touch", err)
	}
	if err := c.ch.Write(protocol.WaitTouch(timeout)); err != nil {
		return c.setErr("wait touch", err)
	}
	c.beginDeferred(CommandTouchWait)
	return ErrPending
}

// SetRegion restricts drawing to a rectangular region.
func (c *Controller) SetRegion(x1, y1, x2, y2 uint16) error {
	return c.sendAck("set region", protocol.SetRegion(x1, y1, x2, y2), ackMedium)
}
