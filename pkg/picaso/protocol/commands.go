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

import "fmt"

// AutoBaud is the synchronization command the device uses to lock onto the
// host bit rate.
func AutoBaud() []byte {
	return []byte{'U'}
}

// SetBaud requests a device bit rate change. The device acknowledges at the
// old rate before switching.
func SetBaud(code byte) []byte {
	return []byte{'Q', code}
}

// Version queries the device type and revision. With display set the
// version is also rendered on the panel, which takes the device much
// longer.
func Version(display bool) []byte {
	if display {
		return []byte{'V', 0x01}
	}
	return []byte{'V', 0x00}
}

// Clear erases the screen.
func Clear() []byte {
	return []byte{'E'}
}

// ReplaceBackground changes the background color and repaints it.
func ReplaceBackground(color uint16) []byte {
	return appendU16([]byte{'B'}, color)
}

// Ctl mode selectors for the 'Y' display control command.
const (
	CtlBacklight   = 0
	CtlDisplayOn   = 1
	CtlContrast    = 2
	CtlPower       = 3
	CtlOrientation = 4
	CtlTouch       = 5
	CtlImageFormat = 6
	CtlProtectFAT  = 8
)

// Ctl issues a display control command. Each mode accepts its own value
// range; mode 7 does not exist on this chip.
func Ctl(mode, value byte) ([]byte, error) {
	switch mode {
	case CtlBacklight:
		if value > 1 {
			return nil, fmt.Errorf("%w: backlight control value %d, valid values are 0,1",
				ErrInvalidArgument, value)
		}
	case CtlDisplayOn:
		if value > 1 {
			return nil, fmt.Errorf("%w: display on/off value %d, valid values are 0,1",
				ErrInvalidArgument, value)
		}
	case CtlContrast:
		// any value
	case CtlPower:
		if value > 1 {
			return nil, fmt.Errorf("%w: display powerup/shutdown value %d, valid values are 0,1",
				ErrInvalidArgument, value)
		}
	case CtlOrientation:
		if value < 1 || value > 4 {
			return nil, fmt.Errorf("%w: display orientation value %d, valid values are 1..4",
				ErrInvalidArgument, value)
		}
	case CtlTouch:
		if value > 2 {
			return nil, fmt.Errorf("%w: touch control value %d, valid values are 0..2",
				ErrInvalidArgument, value)
		}
	case CtlImageFormat:
		if value > 1 {
			return nil, fmt.Errorf("%w: image format value %d, valid values are 0,1",
				ErrInvalidArgument, value)
		}
	case CtlProtectFAT:
		if value != 0 && value != 2 {
			return nil, fmt.Errorf("%w: protect FAT value %d, valid values are 0,2",
				ErrInvalidArgument, value)
		}
	default:
		return nil, fmt.Errorf("%w: control mode %d, valid values are 0..6,8",
			ErrInvalidArgument, mode)
	}
	return []byte{'Y', mode, value}, nil
}

// SetVolume sets the audio output level. The firmware only accepts a
// sparse value set: 0..3 are named levels, 8..127 the linear range, and
// 253..255 stepped adjustments.
func SetVolume(value byte) ([]byte, error) {
	if (value > 3 && value < 8) || (value > 127 && value < 253) {
		return nil, fmt.Errorf("%w: volume value %d, valid values are 0..3, 8..127, 253..255",
			ErrInvalidArgument, value)
	}
	return []byte{'v', value}, nil
}

// Suspend option bits for the 'Z' sleep command.
const (
	SuspendWakeOnJoystick = 0x01
	SuspendWakeOnTouch    = 0x02
	SuspendWakeOnSerial   = 0x04
	SuspendWakeOnTimer    = 0x08
	SuspendTouchOff       = 0x20
	SuspendShutdown       = 0x80
)

// Suspend puts the display to sleep. Bit 4 (0x10) is reserved and must not
// be set, and touch cannot be the only wake-up source while touch is
// switched off.
func Suspend(options, duration byte) ([]byte, error) {
	if options&0x10 != 0 {
		return nil, fmt.Errorf("%w: suspend option bit 4 (0x10) must not be set",
			ErrInvalidArgument)
	}
	if options&0x2f == 0x22 {
		return nil, fmt.Errorf("%w: wake on touch specified with touch off",
			ErrInvalidArgument)
	}
	return []byte{'Z', options, duration}, nil
}

// ReadPin queries one GPIO pin.
func ReadPin(pin byte) ([]byte, error) {
	if pin > 15 {
		return nil, fmt.Errorf("%w: pin %d, valid values are 0..15",
			ErrInvalidArgument, pin)
	}
	return []byte{'i', pin}, nil
}

// WritePin drives one GPIO pin.
func WritePin(pin, value byte) ([]byte, error) {
	if pin > 15 {
		return nil, fmt.Errorf("%w: pin %d, valid values are 0..15",
			ErrInvalidArgument, pin)
	}
	if value > 1 {
		return nil, fmt.Errorf("%w: pin value %d, valid values are 0,1",
			ErrInvalidArgument, value)
	}
	return []byte{'y', pin, value}, nil
}

// ReadBus queries the 8-bit GPIO bus.
func ReadBus() []byte {
	return []byte{'a'}
}

// WriteBus drives the 8-bit GPIO bus.
func WriteBus(value byte) []byte {
	return []byte{'W', value}
}

// bitmapGroupSpec gives the data length and maximum index for each bitmap
// group: 8x8 (group 0), 16x16 (group 1), 32x32 (group 2).
var bitmapGroupSpec = [3]struct {
	dataLen  int
	maxIndex byte
}{
	{8, 63},
	{32, 15},
	{128, 7},
}

// AddBitmap uploads a user bitmap into one of the three bitmap groups.
func AddBitmap(group, index byte, data []byte) ([]byte, error) {
	if int(group) >= len(bitmapGroupSpec) {
		return nil, fmt.Errorf("%w: bitmap group %d, valid values are 0..2",
			ErrInvalidArgument, group)
	}
	spec := bitmapGroupSpec[group]
	if len(data) != spec.dataLen {
		return nil, fmt.Errorf("%w: bitmap data length %d for group %d, must be %d",
			ErrInvalidArgument, len(data), group, spec.dataLen)
	}
	if index > spec.maxIndex {
		return nil, fmt.Errorf("%w: bitmap index %d for group %d, must be 0..%d",
			ErrInvalidArgument, index, group, spec.maxIndex)
	}
	cmd := []byte{'A', group, index}
	return append(cmd, data...), nil
}

// DrawBitmap draws a previously uploaded bitmap.
func DrawBitmap(group, index byte, x, y, color uint16) ([]byte, error) {
	if int(group) >= len(bitmapGroupSpec) {
		return nil, fmt.Errorf("%w: bitmap group %d, valid values are 0..2",
			ErrInvalidArgument, group)
	}
	if index > bitmapGroupSpec[group].maxIndex {
		return nil, fmt.Errorf("%w: bitmap index %d for group %d, must be 0..%d",
			ErrInvalidArgument, index, group, bitmapGroupSpec[group].maxIndex)
	}
	cmd := []byte{'D', group, index}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	return appendU16(cmd, color), nil
}

// Circle draws a circle.
func Circle(x, y, radius, color uint16) []byte {
	cmd := []byte{'C'}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	cmd = appendU16(cmd, radius)
	return appendU16(cmd, color)
}

// Triangle draws a triangle.
func Triangle(x1, y1, x2, y2, x3, y3, color uint16) []byte {
	cmd := []byte{'G'}
	for _, v := range [...]uint16{x1, y1, x2, y2, x3, y3, color} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}

// Color modes for icon and image data.
const (
	ColorMode8  = 0x08
	ColorMode16 = 0x10
)

// DrawIcon sends raw pixel data to a screen region. pixels must hold
// width*height bytes in 8-bit mode and twice that in 16-bit mode.
func DrawIcon(x, y, width, height uint16, colorMode byte, pixels []byte) ([]byte, error) {
	if colorMode != ColorMode8 && colorMode != ColorMode16 {
		return nil, fmt.Errorf("%w: color mode 0x%02X, valid values are 0x08 and 0x10",
			ErrInvalidArgument, colorMode)
	}
	want := int(width) * int(height)
	if colorMode == ColorMode16 {
		want *= 2
	}
	if len(pixels) != want {
		return nil, fmt.Errorf("%w: icon data length %d for color mode 0x%02X, expected %d",
			ErrInvalidArgument, len(pixels), colorMode, want)
	}
	cmd := []byte{'I'}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	cmd = appendU16(cmd, width)
	cmd = appendU16(cmd, height)
	cmd = append(cmd, colorMode)
	return append(cmd, pixels...), nil
}

// SetBackground changes the background color without repainting.
func SetBackground(color uint16) []byte {
	return appendU16([]byte{'K'}, color)
}

// Line draws a line.
func Line(x1, y1, x2, y2, color uint16) []byte {
	cmd := []byte{'L'}
	for _, v := range [...]uint16{x1, y1, x2, y2, color} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}

// Polygon draws a polygon with 3 to 7 vertices.
func Polygon(xs, ys []uint16, color uint16) ([]byte, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%w: vertex list lengths differ (%d x, %d y)",
			ErrInvalidArgument, len(xs), len(ys))
	}
	if len(xs) < 3 || len(xs) > 7 {
		return nil, fmt.Errorf("%w: %d vertices, valid range is 3..7",
			ErrInvalidArgument, len(xs))
	}
	cmd := []byte{'g', byte(len(xs))}
	for i := range xs {
		cmd = appendU16(cmd, xs[i])
		cmd = appendU16(cmd, ys[i])
	}
	return appendU16(cmd, color), nil
}

// Rectangle draws a rectangle.
func Rectangle(x1, y1, x2, y2, color uint16) []byte {
	cmd := []byte{'r'}
	for _, v := range [...]uint16{x1, y1, x2, y2, color} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}

// Ellipse draws an ellipse.
func Ellipse(x, y, rx, ry, color uint16) []byte {
	cmd := []byte{'e'}
	for _, v := range [...]uint16{x, y, rx, ry, color} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}

// WritePixel sets a single pixel.
func WritePixel(x, y, color uint16) []byte {
	cmd := []byte{'P'}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	return appendU16(cmd, color)
}

// ReadPixel queries a single pixel's color.
func ReadPixel(x, y uint16) []byte {
	cmd := []byte{'R'}
	cmd = appendU16(cmd, x)
	return appendU16(cmd, y)
}

// CopyPaste copies a screen region to another position.
func CopyPaste(xsrc, ysrc, xdst, ydst, width, height uint16) []byte {
	cmd := []byte{'c'}
	for _, v := range [...]uint16{xsrc, ysrc, xdst, ydst, width, height} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}

// ReplaceColor replaces one color with another inside a region.
func ReplaceColor(x1, y1, x2, y2, oldColor, newColor uint16) []byte {
	cmd := []byte{'k'}
	for _, v := range [...]uint16{x1, y1, x2, y2, oldColor, newColor} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}

// PenSize selects solid (0) or wireframe (1) drawing.
func PenSize(size byte) ([]byte, error) {
	if size > 1 {
		return nil, fmt.Errorf("%w: pen size %d, valid values are 0,1",
			ErrInvalidArgument, size)
	}
	return []byte{'p', size}, nil
}

// SetFont selects the built-in font 0..3.
func SetFont(size byte) ([]byte, error) {
	if size > 3 {
		return nil, fmt.Errorf("%w: font size %d, valid values are 0..3",
			ErrInvalidArgument, size)
	}
	return []byte{'F', size}, nil
}

// SetOpacity selects transparent (0) or opaque (1) text.
func SetOpacity(mode byte) ([]byte, error) {
	if mode > 1 {
		return nil, fmt.Errorf("%w: text opacity mode %d, valid values are 0,1",
			ErrInvalidArgument, mode)
	}
	return []byte{'O', mode}, nil
}

// ShowChar draws one character at a text grid position.
func ShowChar(glyph, col, row byte, color uint16) []byte {
	cmd := []byte{'T', glyph, col, row}
	return appendU16(cmd, color)
}

// ScaleChar draws one magnified character at a pixel position.
func ScaleChar(glyph byte, x, y, color uint16, xmul, ymul byte) []byte {
	cmd := []byte{'t', glyph}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	cmd = appendU16(cmd, color)
	return append(cmd, xmul, ymul)
}

// maxTextLen is the longest string the string commands transmit; longer
// input is truncated like the firmware expects.
const maxTextLen = 256

func clipText(text string) string {
	if len(text) > maxTextLen {
		return text[:maxTextLen]
	}
	return text
}

// ShowString draws text at a text grid position. An empty string encodes to
// nil so callers can skip the write entirely.
func ShowString(col, row, font byte, color uint16, text string) []byte {
	text = clipText(text)
	if text == "" {
		return nil
	}
	cmd := []byte{'s', col, row, font}
	cmd = appendU16(cmd, color)
	cmd = append(cmd, text...)
	return append(cmd, 0x00)
}

// ScaleString draws magnified text at a pixel position.
func ScaleString(x, y uint16, font byte, color uint16, width, height byte, text string) []byte {
	text = clipText(text)
	if text == "" {
		return nil
	}
	cmd := []byte{'S'}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	cmd = append(cmd, font)
	cmd = appendU16(cmd, color)
	cmd = append(cmd, width, height)
	cmd = append(cmd, text...)
	return append(cmd, 0x00)
}

// Button draws a button in the pressed or released state.
func Button(pressed bool, x, y, bcolor uint16, font byte, tcolor uint16,
	xmul, ymul byte, text string,
) []byte {
	text = clipText(text)
	if text == "" {
		return nil
	}
	state := byte(0)
	if pressed {
		state = 1
	}
	cmd := []byte{'b', state}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	cmd = appendU16(cmd, bcolor)
	cmd = append(cmd, font)
	cmd = appendU16(cmd, tcolor)
	cmd = append(cmd, xmul, ymul)
	cmd = append(cmd, text...)
	return append(cmd, 0x00)
}

// GetTouch requests touch status or coordinates. Modes 0..3 respond only
// once the event occurs; modes 4 and up respond immediately.
func GetTouch(mode byte) []byte {
	return []byte{'o', mode}
}

// GetTouchDeferred reports whether a GetTouch mode holds its response until
// a touch event occurs.
func GetTouchDeferred(mode byte) bool {
	return mode <= 3
}

// WaitTouch asks the device to acknowledge once the screen is touched,
// or NACK after timeout milliseconds.
func WaitTouch(timeout uint16) []byte {
	return appendU16([]byte{'w'}, timeout)
}

// SetRegion restricts drawing to a rectangular region.
func SetRegion(x1, y1, x2, y2 uint16) []byte {
	cmd := []byte{'u'}
	for _, v := range [...]uint16{x1, y1, x2, y2} {
		cmd = appendU16(cmd, v)
	}
	return cmd
}
