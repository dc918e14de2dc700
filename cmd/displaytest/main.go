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

// displaytest runs a sequence of drawing commands against a connected
// display so the whole graphics vocabulary can be checked by eye.
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZaparooProject/go-picaso/pkg/config"
	"github.com/ZaparooProject/go-picaso/pkg/helpers"
	"github.com/ZaparooProject/go-picaso/pkg/picaso"
	"github.com/ZaparooProject/go-picaso/pkg/picaso/protocol"
)

const (
	colorBlack  = 0x0000
	colorWhite  = 0xFFFF
	colorRed    = 0xF800
	colorGreen  = 0x07E0
	colorBlue   = 0x001F
	colorYellow = 0xFFE0
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	device := flag.String("device", "", "serial device path, overrides config")
	baud := flag.Int("baud", 0, "line rate, overrides config")
	debug := flag.Bool("debug", false, "enable debug logging")
	logDir := flag.String("log-dir", os.TempDir(), "directory for the log file")
	background := flag.Bool("background", false,
		"include the slow replace-background test")
	gpio := flag.Bool("gpio", false,
		"include the GPIO pin and bus tests (needs wired pins)")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *device != "" {
		cfg.SetDevice(*device)
	}
	if *baud != 0 {
		cfg.SetBaud(*baud)
	}
	if *debug {
		cfg.SetDebugLogging(true)
	}

	err = helpers.InitLogging(*logDir, cfg.DebugLogging(),
		zerolog.ConsoleWriter{Out: os.Stderr})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	path := cfg.Device()
	if path == "auto" {
		devices, listErr := helpers.GetSerialDeviceList()
		if listErr != nil {
			return fmt.Errorf("list serial devices: %w", listErr)
		}
		if len(devices) == 0 {
			return errors.New("no serial devices found")
		}
		path = devices[0]
		log.Info().Str("device", path).Msg("auto-selected serial device")
	}

	c := picaso.New()
	if err := c.Connect(path); err != nil {
		return fmt.Errorf("connect to %s: %w", path, err)
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("close display")
		}
	}()

	if cfg.Baud() != c.BaudRate() {
		if err := c.SetBaud(cfg.Baud()); err != nil {
			return fmt.Errorf("set baud %d: %w", cfg.Baud(), err)
		}
	}

	info, err := c.Version(true)
	if err != nil {
		return fmt.Errorf("query version: %w", err)
	}
	log.Info().
		Stringer("kind", info.Kind).
		Uint8("hardware", info.HardwareRev).
		Uint8("firmware", info.FirmwareRev).
		Int("hres", info.HRes).
		Int("vres", info.VRes).
		Msg("display detected")

	if err := exercise(c, info, *background); err != nil {
		return err
	}
	if *gpio {
		if err := exerciseGPIO(c); err != nil {
			return err
		}
	}

	log.Info().Msg("display test finished")
	return nil
}

type step struct {
	run  func() error
	name string
}

// exercise walks through the drawing commands one by one, stopping at
// the first failure so the broken command is easy to spot.
func exercise(c *picaso.Controller, info protocol.VersionInfo, background bool) error {
	maxX := uint16(info.HRes - 1) //nolint:gosec // panel size fits in uint16
	maxY := uint16(info.VRes - 1) //nolint:gosec // panel size fits in uint16
	midX := maxX / 2
	midY := maxY / 2

	steps := []step{
		{name: "clear", run: c.Clear},
		{name: "backlight", run: func() error {
			if err := c.Ctl(protocol.CtlBacklight, 0); err != nil {
				return err
			}
			return c.Ctl(protocol.CtlBacklight, 1)
		}},
		{name: "contrast", run: func() error {
			for _, v := range []byte{0x00, 0x7F, 0xFF} {
				if err := c.Ctl(protocol.CtlContrast, v); err != nil {
					return err
				}
			}
			return nil
		}},
		{name: "volume", run: func() error {
			for _, v := range []byte{0xFF, 0x3F, 0x03, 0x7F, 0x08, 0x00} {
				if err := c.SetVolume(v); err != nil {
					return err
				}
			}
			return nil
		}},
		{name: "background", run: func() error {
			if err := c.SetBackground(colorBlack); err != nil {
				return err
			}
			if !background {
				return nil
			}
			for _, color := range []uint16{0x7BEF, colorRed, colorGreen,
				colorBlue, colorBlack} {
				if err := c.ReplaceBackground(color); err != nil {
					return err
				}
			}
			return nil
		}},
		{name: "title", run: func() error {
			if err := c.SetFont(2); err != nil {
				return err
			}
			return c.ShowString(0, 0, 2, colorWhite, "go-picaso test")
		}},
		{name: "lines", run: func() error {
			if err := c.Line(0, 0, maxX, maxY, colorRed); err != nil {
				return err
			}
			return c.Line(maxX, 0, 0, maxY, colorRed)
		}},
		{name: "star", run: func() error {
			return drawStar(c, midX, midY, midY/3, colorWhite)
		}},
		{name: "rectangle", run: func() error {
			return c.Rectangle(10, 10, maxX-10, maxY-10, colorGreen)
		}},
		{name: "circle", run: func() error {
			return c.Circle(midX, midY, midY/2, colorBlue)
		}},
		{name: "ellipse", run: func() error {
			return c.Ellipse(midX, midY, midX/2, midY/4, colorYellow)
		}},
		{name: "triangle", run: func() error {
			return c.Triangle(midX, 20, 20, maxY-20, maxX-20, maxY-20, colorWhite)
		}},
		{name: "polygon", run: func() error {
			xs := []uint16{midX, midX + 30, midX + 15, midX - 15, midX - 30}
			ys := []uint16{midY - 30, midY - 10, midY + 20, midY + 20, midY - 10}
			return c.Polygon(xs, ys, colorRed)
		}},
		{name: "pen outline", run: func() error {
			if err := c.PenSize(1); err != nil {
				return err
			}
			if err := c.Rectangle(5, 5, maxX-5, maxY-5, colorWhite); err != nil {
				return err
			}
			return c.PenSize(0)
		}},
		{name: "pixel", run: func() error {
			if err := c.WritePixel(midX, midY, colorWhite); err != nil {
				return err
			}
			color, err := c.ReadPixel(midX, midY)
			if err != nil {
				return err
			}
			log.Info().Uint16("color", color).Msg("pixel read back")
			return nil
		}},
		{name: "copy paste", run: func() error {
			return c.CopyPaste(0, 0, midX, midY, 40, 40)
		}},
		{name: "bitmaps", run: func() error {
			// checkerboards in all three groups: 8x8, 16x16, 32x32
			sizes := []int{8, 32, 128}
			for group := byte(0); group < 3; group++ {
				pattern := make([]byte, sizes[group])
				rowBytes := 1 << group // 1, 2 and 4 bytes per row
				for i := range pattern {
					if (i/rowBytes)%2 == 0 {
						pattern[i] = 0xAA
					} else {
						pattern[i] = 0x55
					}
				}
				if err := c.AddBitmap(group, 0, pattern); err != nil {
					return err
				}
				err := c.DrawBitmap(group, 0, 20+uint16(group)*40, maxY-60,
					colorGreen)
				if err != nil {
					return err
				}
			}
			return nil
		}},
		{name: "scaled text", run: func() error {
			return c.ScaleString(10, midY, 1, colorGreen, 2, 2, "BIG")
		}},
		{name: "scaled glyph", run: func() error {
			return c.ScaleChar('G', 10, 30, colorYellow, 3, 3)
		}},
		{name: "button", run: func() error {
			return c.Button(false, 20, maxY-40, colorBlue, 2, colorWhite, 1, 1, "OK")
		}},
		{name: "replace color", run: func() error {
			return c.ReplaceColor(0, 0, maxX, maxY, colorRed, colorYellow)
		}},
		{name: "region clear", run: func() error {
			if err := c.SetRegion(midX-20, midY-20, midX+20, midY+20); err != nil {
				return err
			}
			if err := c.Clear(); err != nil {
				return err
			}
			return c.SetRegion(0, 0, maxX, maxY)
		}},
		{name: "opacity", run: func() error {
			if err := c.SetOpacity(1); err != nil {
				return err
			}
			if err := c.ShowString(0, 2, 2, colorWhite, "opaque"); err != nil {
				return err
			}
			return c.SetOpacity(0)
		}},
	}

	for _, s := range steps {
		log.Debug().Str("step", s.name).Msg("running")
		if err := s.run(); err != nil {
			return fmt.Errorf("step %q: %w", s.name, err)
		}
	}
	return nil
}

// drawStar draws a star of radial lines around a center point.
func drawStar(c *picaso.Controller, midx, midy, rad uint16, color uint16) error {
	const points = 12
	for i := 0; i < points; i++ {
		angle := 2 * math.Pi * float64(i) / points
		x := float64(midx) + float64(rad)*math.Cos(angle)
		y := float64(midy) + float64(rad)*math.Sin(angle)
		if err := c.Line(midx, midy, uint16(x), uint16(y), color); err != nil {
			return fmt.Errorf("ray %d: %w", i, err)
		}
	}
	return nil
}

// exerciseGPIO toggles each pin and walks a pattern over the parallel
// bus, reading values back where the hardware allows.
func exerciseGPIO(c *picaso.Controller) error {
	for pin := byte(0); pin < 16; pin++ {
		for _, v := range []byte{1, 0} {
			if err := c.WritePin(pin, v); err != nil {
				return fmt.Errorf("write pin %d: %w", pin, err)
			}
		}
		value, err := c.ReadPin(pin)
		if err != nil {
			return fmt.Errorf("read pin %d: %w", pin, err)
		}
		log.Info().Uint8("pin", pin).Uint8("value", value).Msg("pin read")
	}

	for _, pattern := range []byte{0xAA, 0x55, 0x00} {
		if err := c.WriteBus(pattern); err != nil {
			return fmt.Errorf("write bus 0x%02X: %w", pattern, err)
		}
	}
	value, err := c.ReadBus()
	if err != nil {
		return fmt.Errorf("read bus: %w", err)
	}
	log.Info().Uint8("value", value).Msg("bus read")
	return nil
}
