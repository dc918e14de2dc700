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

// SectorSize is the fixed block size of raw card sector access.
const SectorSize = 512

// TransferBlockSize is the handshake block granularity for FAT file
// transfers.
const TransferBlockSize = 50

// maxSectorAddr is the highest addressable card sector in the u24 address
// commands.
const maxSectorAddr = 0x00FFFFFF

func checkSectorAddr(addr uint32) error {
	if addr > maxSectorAddr {
		return fmt.Errorf("%w: sector address 0x%08X, must be <= 0x00FFFFFF",
			ErrInvalidArgument, addr)
	}
	return nil
}

// appendFilename validates a FAT filename and appends it to the frame with
// its single null terminator. The device imposes 8.3 naming; the host only
// checks length.
func appendFilename(cmd []byte, name string) ([]byte, error) {
	if len(name) < 1 || len(name) > 12 {
		return nil, fmt.Errorf("%w: filename length %d, must be 1..12 characters",
			ErrInvalidArgument, len(name))
	}
	cmd = append(cmd, name...)
	return append(cmd, 0x00), nil
}

// SDInit initializes the memory card.
func SDInit() []byte {
	return []byte{'@', 'i'}
}

// SDSetAddress sets the card's byte address pointer.
func SDSetAddress(addr uint32) []byte {
	return appendU32([]byte{'@', 'A'}, addr)
}

// SDReadByte reads one byte at the card's address pointer.
func SDReadByte() []byte {
	return []byte{'@', 'r'}
}

// SDWriteByte writes one byte at the card's address pointer.
func SDWriteByte(b byte) []byte {
	return []byte{'@', 'w', b}
}

// SDReadSector requests one 512-byte sector.
func SDReadSector(sector uint32) ([]byte, error) {
	if err := checkSectorAddr(sector); err != nil {
		return nil, err
	}
	return appendU24([]byte{'@', 'R'}, sector), nil
}

// SDWriteSector writes one 512-byte sector.
func SDWriteSector(sector uint32, data []byte) ([]byte, error) {
	if err := checkSectorAddr(sector); err != nil {
		return nil, err
	}
	if len(data) != SectorSize {
		return nil, fmt.Errorf("%w: sector data length %d, must be %d",
			ErrInvalidArgument, len(data), SectorSize)
	}
	cmd := appendU24([]byte{'@', 'W'}, sector)
	return append(cmd, data...), nil
}

// SDScreenCopy saves a screen region to raw card sectors.
func SDScreenCopy(x, y, width, height uint16, sector uint32) ([]byte, error) {
	if err := checkSectorAddr(sector); err != nil {
		return nil, err
	}
	cmd := []byte{'@', 'C'}
	for _, v := range [...]uint16{x, y, width, height} {
		cmd = appendU16(cmd, v)
	}
	return appendU24(cmd, sector), nil
}

// SDShowImage displays an image stored in raw card sectors.
func SDShowImage(x, y, width, height uint16, colorMode byte, sector uint32) ([]byte, error) {
	if err := checkSectorAddr(sector); err != nil {
		return nil, err
	}
	if colorMode != ColorMode8 && colorMode != ColorMode16 {
		return nil, fmt.Errorf("%w: color mode 0x%02X, valid values are 0x08 and 0x10",
			ErrInvalidArgument, colorMode)
	}
	cmd := []byte{'@', 'I'}
	for _, v := range [...]uint16{x, y, width, height} {
		cmd = appendU16(cmd, v)
	}
	cmd = append(cmd, colorMode)
	return appendU24(cmd, sector), nil
}

// SDShowObject displays an object at a raw card byte address.
func SDShowObject(addr uint32) []byte {
	return appendU32([]byte{'@', 'O'}, addr)
}

// SDShowVideo plays a video stored in new-format image data.
func SDShowVideo(x, y uint16, delay byte, sector uint32) ([]byte, error) {
	if err := checkSectorAddr(sector); err != nil {
		return nil, err
	}
	cmd := []byte{'@', 'V'}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	cmd = append(cmd, delay)
	return appendU24(cmd, sector), nil
}

// SDShowVideoOld plays a video stored in old-format image data, which
// carries its geometry in the command.
func SDShowVideoOld(x, y, width, height uint16, colorMode, delay byte,
	frames uint16, sector uint32,
) ([]byte, error) {
	if err := checkSectorAddr(sector); err != nil {
		return nil, err
	}
	if colorMode != ColorMode8 && colorMode != ColorMode16 {
		return nil, fmt.Errorf("%w: color mode 0x%02X, valid values are 0x08 and 0x10",
			ErrInvalidArgument, colorMode)
	}
	cmd := []byte{'@', 'V'}
	for _, v := range [...]uint16{x, y, width, height} {
		cmd = appendU16(cmd, v)
	}
	cmd = append(cmd, colorMode, delay)
	cmd = appendU16(cmd, frames)
	return appendU24(cmd, sector), nil
}

// SDRunScript runs a 4DSL script at a raw card byte address. The device
// sends nothing on success; only a NACK is ever reported.
func SDRunScript(addr uint32) []byte {
	return appendU32([]byte{'@', 'P'}, addr)
}

// SDReadFile opens a FAT file for streaming to the host with the fixed
// 50-byte handshake block size.
func SDReadFile(name string) ([]byte, error) {
	return appendFilename([]byte{'@', 'a', TransferBlockSize}, name)
}

// SDWriteFile opens a FAT file for streaming from the host. It returns the
// command frame and the handshake block size the device expects: 0 means
// the whole payload follows in one block. Small payloads skip per-block
// handshaking entirely.
func SDWriteFile(name string, size uint32, appendMode bool) (cmd []byte, blockSize int, err error) {
	handshake := byte(TransferBlockSize)
	blockSize = TransferBlockSize
	if size <= 100 {
		handshake = 0
		blockSize = 0
	}
	if appendMode {
		handshake |= 0x80
	}

	cmd, err = appendFilename([]byte{'@', 't', handshake}, name)
	if err != nil {
		return nil, 0, err
	}
	return appendU32(cmd, size), blockSize, nil
}

// SDEraseFile deletes a FAT file.
func SDEraseFile(name string) ([]byte, error) {
	return appendFilename([]byte{'@', 'e'}, name)
}

// SDListDir lists FAT directory entries matching a pattern.
func SDListDir(pattern string) ([]byte, error) {
	return appendFilename([]byte{'@', 'd'}, pattern)
}

// SDScreenCopyFAT saves a screen region to a FAT file.
func SDScreenCopyFAT(x, y, width, height uint16, name string) ([]byte, error) {
	cmd := []byte{'@', 'c'}
	for _, v := range [...]uint16{x, y, width, height} {
		cmd = appendU16(cmd, v)
	}
	return appendFilename(cmd, name)
}

// SDShowImageFAT displays an image from a FAT file at the given position
// and image address within the file.
func SDShowImageFAT(name string, x, y uint16, imageAddr uint32) ([]byte, error) {
	if imageAddr > maxSectorAddr {
		return nil, fmt.Errorf("%w: image address 0x%08X, must be <= 0x00FFFFFF",
			ErrInvalidArgument, imageAddr)
	}
	cmd, err := appendFilename([]byte{'@', 'm'}, name)
	if err != nil {
		return nil, err
	}
	cmd = appendU16(cmd, x)
	cmd = appendU16(cmd, y)
	return appendU24(cmd, imageAddr), nil
}

// SDPlayAudio plays a WAV file from the FAT card. Options 0..5 select the
// play/continue/loop behavior.
func SDPlayAudio(name string, option byte) ([]byte, error) {
	if option > 5 {
		return nil, fmt.Errorf("%w: audio option %d, valid range is 0..5",
			ErrInvalidArgument, option)
	}
	return appendFilename([]byte{'@', 'l', option}, name)
}

// SDRunScriptFAT runs a 4DSL script from a FAT file.
func SDRunScriptFAT(name string) ([]byte, error) {
	return appendFilename([]byte{'@', 'p'}, name)
}
