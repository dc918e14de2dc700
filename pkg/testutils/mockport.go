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

// Package testutils provides mock serial ports for driver tests.
package testutils

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/ZaparooProject/go-picaso/pkg/serialdev"
)

// ErrPortClosed is returned by mock port operations after Close.
var ErrPortClosed = errors.New("mock port is closed")

// Exchange is one scripted request/response pair. Once the device has seen
// the Expect bytes on the wire it queues Respond for reading.
type Exchange struct {
	Expect  []byte
	Respond []byte
}

// MockPort is an in-memory serialdev.Port that replays scripted byte
// exchanges. Writes are recorded and matched against the script in order;
// unmatched writes produce no response, which reads back as a device
// timeout. Safe for concurrent use.
type MockPort struct {
	mu       sync.Mutex
	script   []Exchange
	step     int
	pending  []byte // written bytes not yet matched to a script step
	rx       []byte // bytes available for Read
	writes   [][]byte
	modes    []*serial.Mode
	closed   bool
	ReadErr  error // returned by Read when set
	WriteErr error // returned by Write when set
}

// NewMockPort returns a mock port that replays the given exchanges.
func NewMockPort(script ...Exchange) *MockPort {
	return &MockPort{script: script}
}

// Factory returns a serialdev.PortFactory that always hands out this port.
func (m *MockPort) Factory() serialdev.PortFactory {
	return func(_ string, mode *serial.Mode) (serialdev.Port, error) {
		m.mu.Lock()
		m.closed = false
		m.modes = append(m.modes, mode)
		m.mu.Unlock()
		return m, nil
	}
}

// QueueRead makes data available to Read without a matching write. Used for
// deferred device responses like touch events.
func (m *MockPort) QueueRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = append(m.rx, data...)
}

// Writes returns a copy of every buffer passed to Write.
func (m *MockPort) Writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(m.writes))
	copy(out, m.writes)
	return out
}

// WrittenBytes returns everything written so far as one flat slice.
func (m *MockPort) WrittenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []byte
	for _, w := range m.writes {
		out = append(out, w...)
	}
	return out
}

// Modes returns every serial mode the port was opened or reconfigured with.
func (m *MockPort) Modes() []*serial.Mode {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*serial.Mode, len(m.modes))
	copy(out, m.modes)
	return out
}

// ScriptDone reports whether every scripted exchange has been matched.
func (m *MockPort) ScriptDone() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step == len(m.script)
}

// Closed reports whether Close has been called.
func (m *MockPort) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if len(m.rx) == 0 {
		// nothing queued: behaves like a read timeout
		return 0, nil
	}
	n := copy(p, m.rx)
	m.rx = m.rx[n:]
	return n, nil
}

func (m *MockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrPortClosed
	}
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}

	buf := make([]byte, len(p))
	copy(buf, p)
	m.writes = append(m.writes, buf)
	m.pending = append(m.pending, buf...)

	for m.step < len(m.script) {
		want := m.script[m.step].Expect
		if len(m.pending) < len(want) {
			break
		}
		if !bytes.Equal(m.pending[:len(want)], want) {
			break
		}
		m.pending = m.pending[len(want):]
		m.rx = append(m.rx, m.script[m.step].Respond...)
		m.step++
	}

	return len(p), nil
}

func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockPort) SetMode(mode *serial.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrPortClosed
	}
	m.modes = append(m.modes, mode)
	return nil
}

func (m *MockPort) SetReadTimeout(_ time.Duration) error { return nil }

func (m *MockPort) ResetInputBuffer() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rx = nil
	return nil
}

func (m *MockPort) ResetOutputBuffer() error { return nil }

func (m *MockPort) Drain() error { return nil }
