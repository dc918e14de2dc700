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

// touchtest exercises the touch panel and the deferred completion path:
// it asks for a press in each screen orientation and reports the
// coordinates the panel saw.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ZaparooProject/go-picaso/pkg/config"
	"github.com/ZaparooProject/go-picaso/pkg/helpers"
	"github.com/ZaparooProject/go-picaso/pkg/picaso"
	"github.com/ZaparooProject/go-picaso/pkg/picaso/protocol"
)

const colorYellow = 0xFFE0

// touchModePress holds the GetTouch response until the screen is pressed.
const touchModePress = 1

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	device := flag.String("device", "", "serial device path, overrides config")
	debug := flag.Bool("debug", false, "enable debug logging")
	logDir := flag.String("log-dir", os.TempDir(), "directory for the log file")
	flag.Parse()

	cfg, err := config.Load(config.Path())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *device != "" {
		cfg.SetDevice(*device)
	}
	if *debug {
		cfg.SetDebugLogging(true)
	}

	err = helpers.InitLogging(*logDir, cfg.DebugLogging(),
		zerolog.ConsoleWriter{Out: os.Stderr})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}

	c := picaso.New()
	if err := c.Connect(cfg.Device()); err != nil {
		return fmt.Errorf("connect to %s: %w", cfg.Device(), err)
	}
	defer func() {
		if closeErr := c.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("close display")
		}
	}()

	info, err := c.Version(false)
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

	if err := c.Ctl(protocol.CtlTouch, 0); err != nil {
		return fmt.Errorf("enable touch: %w", err)
	}

	events := make(chan picaso.Completion, 1)
	err = c.SetHandler(picaso.CompletionHandlerFunc(
		func(_ *picaso.Controller, ev picaso.Completion) {
			events <- ev
		}))
	if err != nil {
		return fmt.Errorf("set handler: %w", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	orientations := []struct {
		name  string
		value byte
	}{
		{name: "portrait", value: 3},
		{name: "portrait reversed", value: 4},
		{name: "landscape", value: 1},
		{name: "landscape reversed", value: 2},
	}

	for _, o := range orientations {
		if err := c.Clear(); err != nil {
			return fmt.Errorf("clear screen: %w", err)
		}
		if err := c.Ctl(protocol.CtlOrientation, o.value); err != nil {
			return fmt.Errorf("set orientation %s: %w", o.name, err)
		}
		if err := c.ShowString(0, 1, 2, colorYellow, o.name); err != nil {
			return fmt.Errorf("show label: %w", err)
		}
		err := c.ShowString(0, 3, 2, colorYellow, "touch screen to continue")
		if err != nil {
			return fmt.Errorf("show prompt: %w", err)
		}

		point, quit, err := awaitPress(c, events, sigs)
		if err != nil {
			log.Error().Err(err).Str("orientation", o.name).Msg("touch failed")
			continue
		}
		if quit {
			break
		}
		log.Info().
			Str("orientation", o.name).
			Uint16("x", point.X).
			Uint16("y", point.Y).
			Msg("touch")
	}

	if err := c.Ctl(protocol.CtlOrientation, 3); err != nil {
		return fmt.Errorf("restore orientation: %w", err)
	}
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clear screen: %w", err)
	}
	return nil
}

// awaitPress arms a press-mode touch request and blocks until the
// coordinates arrive. quit reports that the user asked to stop.
func awaitPress(c *picaso.Controller, events <-chan picaso.Completion,
	sigs <-chan os.Signal,
) (protocol.TouchPoint, bool, error) {
	_, err := c.GetTouch(touchModePress)
	if !errors.Is(err, picaso.ErrPending) {
		return protocol.TouchPoint{}, false, fmt.Errorf("get touch: %w", err)
	}

	select {
	case <-sigs:
		return protocol.TouchPoint{}, true, nil
	case ev := <-events:
		if !ev.OK {
			return protocol.TouchPoint{}, false,
				fmt.Errorf("touch request failed: %w", ev.Err)
		}
		return ev.Point, false, nil
	}
}
