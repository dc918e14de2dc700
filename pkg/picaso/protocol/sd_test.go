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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSDRawFrames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []byte{'@', 'i'}, SDInit())
	assert.Equal(t,
		[]byte{'@', 'A', 0x01, 0x02, 0x03, 0x04},
		SDSetAddress(0x01020304))
	assert.Equal(t, []byte{'@', 'r'}, SDReadByte())
	assert.Equal(t, []byte{'@', 'w', 0x7F}, SDWriteByte(0x7F))
	assert.Equal(t,
		[]byte{'@', 'O', 0x00, 0x01, 0x02, 0x03},
		SDShowObject(0x00010203))
	assert.Equal(t,
		[]byte{'@', 'P', 0x00, 0x00, 0x10, 0x00},
		SDRunScript(0x1000))
}

func TestSDSectorAddressing(t *testing.T) {
	t.Parallel()

	frame, err := SDReadSector(0x00ABCDEF)
	require.NoError(t, err)
	assert.Equal(t, []byte{'@', 'R', 0xAB, 0xCD, 0xEF}, frame)

	_, err = SDReadSector(0x01000000)
	require.ErrorIs(t, err, ErrInvalidArgument)

	data := make([]byte, SectorSize)
	frame, err = SDWriteSector(0x000102, data)
	require.NoError(t, err)
	assert.Equal(t, []byte{'@', 'W', 0x00, 0x01, 0x02}, frame[:5])
	assert.Len(t, frame, 5+SectorSize)

	_, err = SDWriteSector(0, make([]byte, 100))
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SDWriteSector(0x01000000, data)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSDScreenCopy(t *testing.T) {
	t.Parallel()

	frame, err := SDScreenCopy(1, 2, 3, 4, 0x050607)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{'@', 'C', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04,
			0x05, 0x06, 0x07},
		frame)
}

func TestSDShowImage(t *testing.T) {
	t.Parallel()

	frame, err := SDShowImage(1, 2, 3, 4, ColorMode16, 0x050607)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{'@', 'I', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04,
			0x10, 0x05, 0x06, 0x07},
		frame)

	_, err = SDShowImage(0, 0, 1, 1, 0x09, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSDShowVideo(t *testing.T) {
	t.Parallel()

	frame, err := SDShowVideo(1, 2, 5, 0x030405)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{'@', 'V', 0x00, 0x01, 0x00, 0x02, 5, 0x03, 0x04, 0x05},
		frame)

	frame, err = SDShowVideoOld(1, 2, 3, 4, ColorMode8, 5, 6, 0x070809)
	require.NoError(t, err)
	assert.Equal(t,
		[]byte{'@', 'V', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04,
			0x08, 5, 0x00, 0x06, 0x07, 0x08, 0x09},
		frame)

	_, err = SDShowVideoOld(0, 0, 1, 1, 0x09, 0, 1, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFilenameValidation(t *testing.T) {
	t.Parallel()

	frame, err := SDEraseFile("DATA.LOG")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{'@', 'e'}, "DATA.LOG\x00"...), frame)

	_, err = SDEraseFile("")
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = SDEraseFile("TOOLONGNAME.BIN")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSDReadFileFrame(t *testing.T) {
	t.Parallel()

	frame, err := SDReadFile("IMG.GCI")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{'@', 'a', 50}, "IMG.GCI\x00"...), frame)
}

func TestSDWriteFileHandshake(t *testing.T) {
	t.Parallel()

	// small payloads skip handshaking
	frame, blockSize, err := SDWriteFile("A.TXT", 100, false)
	require.NoError(t, err)
	assert.Equal(t, 0, blockSize)
	assert.Equal(t, byte(0), frame[2])
	assert.Equal(t,
		[]byte{0x00, 0x00, 0x00, 0x64},
		frame[len(frame)-4:])

	frame, blockSize, err = SDWriteFile("A.TXT", 101, false)
	require.NoError(t, err)
	assert.Equal(t, TransferBlockSize, blockSize)
	assert.Equal(t, byte(50), frame[2])

	frame, _, err = SDWriteFile("A.TXT", 200, true)
	require.NoError(t, err)
	assert.Equal(t, byte(50|0x80), frame[2])
}

func TestSDFATFrames(t *testing.T) {
	t.Parallel()

	frame, err := SDListDir("*.*")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{'@', 'd'}, "*.*\x00"...), frame)

	frame, err = SDScreenCopyFAT(1, 2, 3, 4, "SHOT.IMG")
	require.NoError(t, err)
	assert.Equal(t,
		append([]byte{'@', 'c', 0x00, 0x01, 0x00, 0x02, 0x00, 0x03, 0x00, 0x04},
			"SHOT.IMG\x00"...),
		frame)

	frame, err = SDShowImageFAT("IMG.GCI", 10, 20, 0x1234)
	require.NoError(t, err)
	assert.Equal(t,
		append(append([]byte{'@', 'm'}, "IMG.GCI\x00"...),
			0x00, 0x0A, 0x00, 0x14, 0x00, 0x12, 0x34),
		frame)

	_, err = SDShowImageFAT("IMG.GCI", 0, 0, 0x01000000)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = SDPlayAudio("TUNE.WAV", 2)
	require.NoError(t, err)
	assert.Equal(t, append([]byte{'@', 'l', 2}, "TUNE.WAV\x00"...), frame)

	_, err = SDPlayAudio("TUNE.WAV", 6)
	require.ErrorIs(t, err, ErrInvalidArgument)

	frame, err = SDRunScriptFAT("RUN.4DS")
	require.NoError(t, err)
	assert.Equal(t, append([]byte{'@', 'p'}, "RUN.4DS\x00"...), frame)
}
