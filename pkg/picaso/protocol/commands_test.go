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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimpleFrames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{'U'}, AutoBaud())
	assert.Equal(t, []byte{'Q', 0x0D}, SetBaud(0x0D))
	assert.Equal(t, []byte{'V', 0x00}, Version(false))
	assert.Equal(t, []byte{'V', 0x01}, Version(true))
	assert.Equal(t, []byte{'E'}, Clear())
	assert.Equal(t, []byte{'B', 0xF8, 0x00}, ReplaceBackground(0xF800))
	assert.Equal(t, []byte{'K', 0x07, 0xE0}, SetBackground(0x07E0))
	assert.Equal(t, []byte{'a'}, ReadBus())
	assert.Equal(t, []byte{'W', 0x5A}, WriteBus(0x5A))
}

func TestRectangleFrame(t *testing.T) {
	t.Parallel()

	frame := Rectangle(10, 20, 100, 200, 0xF800)
	assert.Equal(t,
		[]byte{'r', 0x00, 0x0A, 0x00, 0x14, 0x00, 0x64, 0x00, 0xC8, 0xF8, 0x00},
		frame)
}

func TestDrawingFrames(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]byte{'C', 0x00, 0x40, 0x00, 0x30, 0x00, 0x10, 0xFF, 0xFF},
		Circle(64, 48, 16, 0xFFFF))

	assert.Equal(t,
		[]byte{'L', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04, 0x12, 0x34},
		Line(1, 2, 3, 4, 0x1234))

	assert.Equal(t,
		[]byte{'G', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03,
			0x00, 0x04, 0x00, 0x05, 0x00, 0x06, 0xAB, 0xCD},
		Triangle(1, 2, 3, 4, 5, 6, 0xABCD))

	assert.Equal(t,
		[]byte{'e', 0x00, 0x50, 0x00, 0x60, 0x00, 0x20, 0x00, 0x10, 0x00, 0x1F},
		Ellipse(80, 96, 32, 16, 0x001F))

	assert.Equal(t,
		[]byte{'P', 0x00, 0x05, 0x00, 0x06, 0xFF, 0xFF},
		WritePixel(5, 6, 0xFFFF))

	assert.Equal(t, []byte{'R', 0x00, 0x05, 0x00, 0x06}, ReadPixel(5, 6))

	assert.Equal(t,
		[]byte{'c', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04,
			0x00, 0x05, 0x00, 0x06},
		CopyPaste(1, 2, 3, 4, 5, 6))

	assert.Equal(t,
		[]byte{'k', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04,
			0xF8, 0x00, 0x07, 0xE0},
		ReplaceColor(1, 2, 3, 4, 0xF800, 0x07E0))

	assert.Equal(t,
		[]byte{'u', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04},
		SetRegion(1, 2, 3, 4))
}

func TestPolygon(t *testing.T) {
	t.Parallel()

	frame, err := Polygon(
		[]uint16{1, 2, 3},
		[]uint16{4, 5, 6},
		0xFFFF,
	)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{'g', 3, 0x00, 0x01, 0x00, 0x04, 0x00, 0x02, 0x00, 0x05,
			0x00, 0x03, 0x00, 0x06, 0xFF, 0xFF},
		frame)

	_, err = Polygon([]uint16{1, 2}, []uint16{3, 4}, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Polygon(make([]uint16, 8), make([]uint16, 8), 0)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = Polygon([]uint16{1, 2, 3}, []uint16{4, 5}, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCtlValidation(t *testing.T) {
	t.Parallel()

	frame, err := Ctl(CtlOrientation, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{'Y', 4, 3}, frame)

	// contrast takes the full byte range
	_, err = Ctl(CtlContrast, 0xFF)
	require.NoError(t, err)

	cases := []struct {
		name  string
		mode  byte
		value byte
	}{
		{"backlight out of range", CtlBacklight, 2},
		{"orientation zero", CtlOrientation, 0},
		{"orientation out of range", CtlOrientation, 5},
		{"touch out of range", CtlTouch, 3},
		{"protect FAT odd value", CtlProtectFAT, 1},
		{"mode 7 does not exist", 7, 0},
		{"mode out of range", 9, 0},
	}
	for _, tt := range cases {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Ctl(tt.mode, tt.value)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestSetVolumeSparseRange(t *testing.T) {
	t.Parallel()

	for _, v := range []byte{0, 3, 8, 127, 253, 255} {
		frame, err := SetVolume(v)
		require.NoError(t, err)
		assert.Equal(t, []byte{'v', v}, frame)
	}
	for _, v := range []byte{4, 7, 128, 252} {
		_, err := SetVolume(v)
		require.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestSuspendValidation(t *testing.T) {
	t.Parallel()

	frame, err := Suspend(SuspendWakeOnTouch|SuspendWakeOnSerial, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{'Z', 0x06, 0x00}, frame)

	_, err = Suspend(0x10, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// wake on touch combined with touch off
	_, err = Suspend(SuspendWakeOnTouch|SuspendTouchOff, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestGPIOValidation(t *testing.T) {
	t.Parallel()

	frame, err := ReadPin(15)
	require.NoError(t, err)
	assert.Equal(t, []byte{'i', 15}, frame)

	_, err = ReadPin(16)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = WritePin(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{'y', 0, 1}, frame)

	_, err = WritePin(0, 2)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestBitmapGroups(t *testing.T) {
	t.Parallel()

	data := make([]byte, 8)
	frame, err := AddBitmap(0, 63, data)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{'A', 0, 63}, data...), frame)

	_, err = AddBitmap(0, 64, data)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = AddBitmap(3, 0, data)
	require.ErrorIs(t, err, ErrInvalidArgument)

	// wrong data length for the group
	_, err = AddBitmap(1, 0, data)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = DrawBitmap(2, 7, 10, 20, 0xFFFF)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{'D', 2, 7, 0x00, 0x0A, 0x00, 0x14, 0xFF, 0xFF}, frame)

	_, err = DrawBitmap(2, 8, 0, 0, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDrawIconLengthCheck(t *testing.T) {
	t.Parallel()

	pixels := make([]byte, 4)
	frame, err := DrawIcon(0, 0, 2, 2, ColorMode8, pixels)
	require.NoError(t, err)
	assert.Equal(t,
		append([]byte{'I', 0, 0, 0, 0, 0x00, 0x02, 0x00, 0x02, 0x08}, pixels...),
		frame)

	// 16-bit mode needs twice the bytes
	_, err = DrawIcon(0, 0, 2, 2, ColorMode16, pixels)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = DrawIcon(0, 0, 2, 2, ColorMode16, make([]byte, 8))
	require.NoError(t, err)
	assert.Len(t, frame, 10+8)

	_, err = DrawIcon(0, 0, 2, 2, 0x20, pixels)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestTextFrames(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		[]byte{'T', 'A', 2, 3, 0xFF, 0xFF},
		ShowChar('A', 2, 3, 0xFFFF))

	assert.Equal(t,
		[]byte{'t', 'B', 0x00, 0x0A, 0x00, 0x14, 0x12, 0x34, 2, 3},
		ScaleChar('B', 10, 20, 0x1234, 2, 3))

	assert.Equal(t,
		[]byte{'s', 0, 1, 2, 0xFF, 0xFF, 'h', 'i', 0x00},
		ShowString(0, 1, 2, 0xFFFF, "hi"))

	assert.Equal(t,
		[]byte{'S', 0x00, 0x05, 0x00, 0x06, 1, 0xF8, 0x00, 2, 2, 'o', 'k', 0x00},
		ScaleString(5, 6, 1, 0xF800, 2, 2, "ok"))

	frame := Button(true, 1, 2, 0xF800, 0, 0xFFFF, 1, 1, "go")
	assert.Equal(t,
		[]byte{'b', 1, 0x00, 0x01, 0x00, 0x02, 0xF8, 0x00, 0,
			0xFF, 0xFF, 1, 1, 'g', 'o', 0x00},
		frame)
}

func TestTextEmptyAndClipped(t *testing.T) {
	t.Parallel()

	assert.Nil(t, ShowString(0, 0, 0, 0, ""))
	assert.Nil(t, ScaleString(0, 0, 0, 0, 1, 1, ""))
	assert.Nil(t, Button(false, 0, 0, 0, 0, 0, 1, 1, ""))

	long := strings.Repeat("x", 300)
	frame := ShowString(0, 0, 0, 0, long)
	// header + 256 text bytes + terminator
	assert.Len(t, frame, 6+256+1)
	assert.Equal(t, byte(0x00), frame[len(frame)-1])
}

func TestTouchFrames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{'o', 0}, GetTouch(0))
	assert.Equal(t, []byte{'o', 5}, GetTouch(5))
	assert.True(t, GetTouchDeferred(0))
	assert.True(t, GetTouchDeferred(3))
	assert.False(t, GetTouchDeferred(4))

	assert.Equal(t, []byte{'w', 0x03, 0xE8}, WaitTouch(1000))
}

func TestPenFontOpacityValidation(t *testing.T) {
	t.Parallel()

	frame, err := PenSize(1)
	require.NoError(t, err)
	assert.Equal(t, []byte{'p', 1}, frame)
	_, err = PenSize(2)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = SetFont(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{'F', 3}, frame)
	_, err = SetFont(4)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = SetOpacity(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{'O', 0}, frame)
	_, err = SetOpacity(2)
	require.ErrorIs(t, err, ErrInvalidArgument)
}
