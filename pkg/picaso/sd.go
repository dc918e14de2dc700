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
	"time"

	"github.com/ZaparooProject/go-picaso/pkg/picaso/protocol"
)

const (
	// sdAckBudget is the response budget for card housekeeping commands.
	sdAckBudget = 200 * time.Millisecond
	// sdDataBudget is the response budget for bulk card data.
	sdDataBudget = 500 * time.Millisecond
	// sdBlockBudget is the per-block handshake budget for FAT file
	// writes. Card wear leveling can stall a block for a long time.
	sdBlockBudget = time.Second
)

// SDInit initializes the memory card. It must succeed before any other
// card command; a NACK usually means no card is inserted.
func (c *Controller) SDInit() error {
	return c.sendAck("sd init", protocol.SDInit(), sdAckBudget)
}

// SDSetAddress sets the card's byte address pointer for SDReadByte and
// SDWriteByte.
func (c *Controller) SDSetAddress(addr uint32) error {
	return c.sendAck("sd set address", protocol.SDSetAddress(addr), sdAckBudget)
}

// SDReadByte reads one byte at the card's address pointer, which then
// advances.
func (c *Controller) SDReadByte() (byte, error) {
	buf, err := c.sendPayload("sd read byte", protocol.SDReadByte(), 1, sdAckBudget)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// SDWriteByte writes one byte at the card's address pointer, which then
// advances.
func (c *Controller) SDWriteByte(b byte) error {
	return c.sendAck("sd write byte", protocol.SDWriteByte(b), sdAckBudget)
}

// SDReadSector reads one 512-byte sector from the card.
func (c *Controller) SDReadSector(sector uint32) ([]byte, error) {
	frame, err := protocol.SDReadSector(sector)
	if err != nil {
		return nil, c.setErr("sd read sector", err)
	}
	return c.sendPayload("sd read sector", frame, protocol.SectorSize, sdDataBudget)
}

// SDWriteSector writes one 512-byte sector to the card.
func (c *Controller) SDWriteSector(sector uint32, data []byte) error {
	frame, err := protocol.SDWriteSector(sector, data)
	if err != nil {
		return c.setErr("sd write sector", err)
	}
	return c.sendAck("sd write sector", frame, sdAckBudget)
}

// SDScreenCopy saves a screen region to raw card sectors.
func (c *Controller) SDScreenCopy(x, y, width, height uint16, sector uint32) error {
	frame, err := protocol.SDScreenCopy(x, y, width, height, sector)
	if err != nil {
		return c.setErr("sd screen copy", err)
	}
	return c.sendAck("sd screen copy", frame, sdAckBudget)
}

// SDShowImage displays an image stored in raw card sectors.
func (c *Controller) SDShowImage(x, y, width, height uint16, colorMode byte,
	sector uint32,
) error {
	frame, err := protocol.SDShowImage(x, y, width, height, colorMode, sector)
	if err != nil {
		return c.setErr("sd show image", err)
	}
	return c.sendAck("sd show image", frame, sdAckBudget)
}

// SDShowObject displays an object at a raw card byte address.
func (c *Controller) SDShowObject(addr uint32) error {
	return c.sendAck("sd show object", protocol.SDShowObject(addr), sdAckBudget)
}

// SDShowVideo plays a video stored in new-format image data. The device
// acknowledges when playback starts.
func (c *Controller) SDShowVideo(x, y uint16, delay byte, sector uint32) error {
	frame, err := protocol.SDShowVideo(x, y, delay, sector)
	if err != nil {
		return c.setErr("sd show video", err)
	}
	return c.sendAck("sd show video", frame, sdAckBudget)
}

// SDShowVideoOld plays a video stored in old-format image data, which
// carries its geometry in the command.
func (c *Controller) SDShowVideoOld(x, y, width, height uint16,
	colorMode, delay byte, frames uint16, sector uint32,
) error {
	frame, err := protocol.SDShowVideoOld(x, y, width, height, colorMode,
		delay, frames, sector)
	if err != nil {
		return c.setErr("sd show video", err)
	}
	return c.sendAck("sd show video", frame, sdAckBudget)
}

// SDRunScript runs a 4DSL script at a raw card byte address. The device
// stays silent on success, so a timeout here means the script started.
func (c *Controller) SDRunScript(addr uint32) error {
	if err := c.checkReady("sd run script"); err != nil {
		return err
	}
	if err := c.ch.Flush(); err != nil {
		return c.setErr("sd run script", err)
	}
	if err := c.ch.Write(protocol.SDRunScript(addr)); err != nil {
		return c.setErr("sd run script", err)
	}
	switch err := c.waitNack(sdAckBudget); {
	case errors.Is(err, ErrNack):
		return c.setErr("sd run script", ErrNack)
	case errors.Is(err, ErrTimeout):
		// silence means the script is running
		return nil
	default:
		return c.setErr("sd run script", err)
	}
}

// SDReadFile reads a whole FAT file from the card. The transfer runs in
// 50-byte blocks, each released by a host ACK. A missing file is reported
// as ErrNoSuchFile; an empty file returns an empty slice.
func (c *Controller) SDReadFile(name string) ([]byte, error) {
	frame, err := protocol.SDReadFile(name)
	if err != nil {
		return nil, c.setErr("sd read file", err)
	}
	if err := c.checkReady("sd read file"); err != nil {
		return nil, err
	}
	if err := c.ch.Flush(); err != nil {
		return nil, c.setErr("sd read file", err)
	}
	if err := c.ch.Write(frame); err != nil {
		return nil, c.setErr("sd read file", err)
	}

	var head [4]byte
	n, err := c.ch.Read(head[:], sdDataBudget)
	if err != nil {
		return nil, c.setErr("sd read file", err)
	}
	switch {
	case n == 0:
		c.cancelTransfer()
		return nil, c.setErr("sd read file", ErrTimeout)
	case n == 1 && head[0] == protocol.NACK:
		return nil, c.setErr("sd read file",
			fmt.Errorf("%w: %q", ErrNoSuchFile, name))
	case n != len(head):
		c.cancelTransfer()
		return nil, c.setErr("sd read file",
			fmt.Errorf("%w: %d size bytes, %d expected", ErrShortResponse, n, len(head)))
	}

	size := uint32(head[0])<<24 | uint32(head[1])<<16 |
		uint32(head[2])<<8 | uint32(head[3])
	if size == 0 {
		c.cancelTransfer()
		return []byte{}, nil
	}

	data := make([]byte, size)
	for idx := 0; idx < len(data); idx += protocol.TransferBlockSize {
		if err := c.ch.Write([]byte{protocol.ACK}); err != nil {
			return nil, c.setErr("sd read file", err)
		}
		end := idx + protocol.TransferBlockSize
		if end > len(data) {
			end = len(data)
		}
		block := data[idx:end]
		n, err := c.ch.Read(block, sdDataBudget)
		if err != nil {
			return nil, c.setErr("sd read file", err)
		}
		if n != len(block) {
			return nil, c.setErr("sd read file",
				fmt.Errorf("%w: %d of %d bytes at offset %d",
					ErrShortResponse, idx+n, size, idx))
		}
	}

	if err := c.waitAck(ackShort); err != nil {
		return nil, c.setErr("sd read file", err)
	}
	return data, nil
}

// cancelTransfer tells the device to abandon an in-progress FAT transfer.
func (c *Controller) cancelTransfer() {
	_ = c.ch.Write([]byte{protocol.NACK})
}

// SDWriteFile writes data to a FAT file on the card, creating or
// truncating it, or appending with appendMode. Payloads over 100 bytes
// stream in 50-byte blocks, each released by a device ACK. A device that
// refuses to open the file is reported as ErrCannotOpenFile.
func (c *Controller) SDWriteFile(name string, data []byte, appendMode bool) error {
	frame, blockSize, err := protocol.SDWriteFile(name, uint32(len(data)), appendMode)
	if err != nil {
		return c.setErr("sd write file", err)
	}
	if err := c.checkReady("sd write file"); err != nil {
		return err
	}
	if err := c.ch.Flush(); err != nil {
		return c.setErr("sd write file", err)
	}
	if err := c.ch.Write(frame); err != nil {
		return c.setErr("sd write file", err)
	}

	if blockSize == 0 {
		// unhandshaked single block
		if err := c.ch.Write(data); err != nil {
			return c.setErr("sd write file", err)
		}
		if err := c.waitAckNack(sdBlockBudget); err != nil {
			return c.setErr("sd write file", err)
		}
		return nil
	}

	for idx := 0; idx < len(data); idx += blockSize {
		switch err := c.waitAckNack(sdBlockBudget); {
		case err == nil:
		case errors.Is(err, ErrNack) && idx == 0:
			return c.setErr("sd write file",
				fmt.Errorf("%w: %q", ErrCannotOpenFile, name))
		case errors.Is(err, ErrNack):
			return c.setErr("sd write file",
				fmt.Errorf("device rejected block at offset %d: %w", idx, ErrNack))
		default:
			return c.setErr("sd write file",
				fmt.Errorf("no handshake for block at offset %d: %w", idx, err))
		}

		end := idx + blockSize
		if end > len(data) {
			end = len(data)
		}
		if err := c.ch.Write(data[idx:end]); err != nil {
			return c.setErr("sd write file", err)
		}
	}

	if err := c.waitAckNack(sdBlockBudget); err != nil {
		return c.setErr("sd write file", err)
	}
	return nil
}

// SDEraseFile deletes a FAT file from the card.
func (c *Controller) SDEraseFile(name string) error {
	frame, err := protocol.SDEraseFile(name)
	if err != nil {
		return c.setErr("sd erase file", err)
	}
	return c.sendAck("sd erase file", frame, sdAckBudget)
}

// SDListDir lists FAT directory entries matching a pattern. Entries
// arrive newline terminated, an ACK ends the listing and a NACK aborts
// it. On abort the entries received so far are returned with the error.
func (c *Controller) SDListDir(pattern string) ([]string, error) {
	frame, err := protocol.SDListDir(pattern)
	if err != nil {
		return nil, c.setErr("sd list dir", err)
	}
	if err := c.checkReady("sd list dir"); err != nil {
		return nil, err
	}
	if err := c.ch.Flush(); err != nil {
		return nil, c.setErr("sd list dir", err)
	}
	if err := c.ch.Write(frame); err != nil {
		return nil, c.setErr("sd list dir", err)
	}

	var entries []string
	var entry []byte
	buf := make([]byte, 512)
	for {
		n, err := c.ch.Read(buf, sdDataBudget)
		if err != nil {
			return entries, c.setErr("sd list dir", err)
		}
		if n == 0 {
			return entries, c.setErr("sd list dir",
				fmt.Errorf("listing never terminated: %w", ErrTimeout))
		}
		for _, b := range buf[:n] {
			switch b {
			case '\n':
				if len(entry) > 0 {
					entries = append(entries, string(entry))
					entry = entry[:0]
				}
			case protocol.ACK:
				return entries, nil
			case protocol.NACK:
				return entries, c.setErr("sd list dir",
					fmt.Errorf("aborted after %d entries: %w", len(entries), ErrNack))
			default:
				entry = append(entry, b)
			}
		}
	}
}

// SDScreenCopyFAT saves a screen region to a FAT file.
func (c *Controller) SDScreenCopyFAT(x, y, width, height uint16, name string) error {
	frame, err := protocol.SDScreenCopyFAT(x, y, width, height, name)
	if err != nil {
		return c.setErr("sd screen copy", err)
	}
	return c.sendAck("sd screen copy", frame, sdAckBudget)
}

// SDShowImageFAT displays an image from a FAT file at the given position
// and image address within the file.
func (c *Controller) SDShowImageFAT(name string, x, y uint16, imageAddr uint32) error {
	frame, err := protocol.SDShowImageFAT(name, x, y, imageAddr)
	if err != nil {
		return c.setErr("sd show image", err)
	}
	return c.sendAck("sd show image", frame, sdAckBudget)
}

// SDPlayAudio plays a WAV file from the card. Options 0..5 select the
// play/continue/loop behavior.
func (c *Controller) SDPlayAudio(name string, option byte) error {
	frame, err := protocol.SDPlayAudio(name, option)
	if err != nil {
		return c.setErr("sd play audio", err)
	}
	return c.sendAck("sd play audio", frame, sdAckBudget)
}

// SDRunScriptFAT runs a 4DSL script from a FAT file.
func (c *Controller) SDRunScriptFAT(name string) error {
	frame, err := protocol.SDRunScriptFAT(name)
	if err != nil {
		return c.setErr("sd run script", err)
	}
	return c.sendAck("sd run script", frame, sdAckBudget)
}
