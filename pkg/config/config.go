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

// Package config loads the TOML configuration used by the demo programs.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

// CfgEnv overrides the config file location when set.
const CfgEnv = "PICASO_CFG"

// CfgFile is the default config file name, looked up next to the binary.
const CfgFile = "picaso.toml"

// Display selects the serial device and line rate for the display.
type Display struct {
	Device string `toml:"device"         validate:"required"`
	Baud   int    `toml:"baud,omitempty" validate:"omitempty,oneof=9600 57600 115200 128000 256000"`
}

// Values is the root of the config file.
type Values struct {
	Display      Display `toml:"display"`
	DebugLogging bool    `toml:"debug_logging"`
}

// BaseDefaults are the values used when no config file exists.
var BaseDefaults = Values{
	Display: Display{
		Device: "/dev/ttyUSB0",
		Baud:   9600,
	},
}

// Instance is a loaded configuration. Safe for concurrent readers.
type Instance struct {
	path string
	vals Values
	mu   sync.RWMutex
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Path returns the effective config file path: the CfgEnv override if
// set, otherwise CfgFile in the executable's directory.
func Path() string {
	if env := os.Getenv(CfgEnv); env != "" {
		return env
	}
	exe, err := os.Executable()
	if err != nil {
		return CfgFile
	}
	return filepath.Join(filepath.Dir(exe), CfgFile)
}

// Load reads and validates the config file at path. A missing file is not
// an error; the defaults are used.
func Load(path string) (*Instance, error) {
	cfg := &Instance{path: path, vals: BaseDefaults}

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no config file, using defaults")
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg.vals); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validate.Struct(&cfg.vals); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log.Debug().Str("path", path).Msg("config loaded")

	return cfg, nil
}

// Save writes the current values back to the config file.
func (c *Instance) Save() error {
	c.mu.RLock()
	data, err := toml.Marshal(&c.vals)
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Device returns the configured serial device path.
func (c *Instance) Device() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Display.Device
}

// SetDevice overrides the serial device path.
func (c *Instance) SetDevice(device string) {
	c.mu.Lock()
	c.vals.Display.Device = device
	c.mu.Unlock()
}

// Baud returns the configured line rate, or the power-up default when the
// config does not name one.
func (c *Instance) Baud() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Display.Baud == 0 {
		return BaseDefaults.Display.Baud
	}
	return c.vals.Display.Baud
}

// SetBaud overrides the configured line rate.
func (c *Instance) SetBaud(rate int) {
	c.mu.Lock()
	c.vals.Display.Baud = rate
	c.mu.Unlock()
}

// DebugLogging reports whether debug level logging is enabled.
func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

// SetDebugLogging toggles debug level logging.
func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	c.vals.DebugLogging = enabled
	c.mu.Unlock()
}
