//go:build !rp2350

//----------------------------------------------------------------------
// This file is part of twtsh.
// Copyright (C) 2024-present Bernd Fix   >Y<
//
// twtsh is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License,
// or (at your option) any later version.
//
// twtsh is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.
//
// SPDX-License-Identifier: AGPL3.0-or-later
//----------------------------------------------------------------------

package twtsh

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"os"
	"sync"
	"time"

	"github.com/chzyer/readline"
)

// HostDevice (for development and testing): the radio is simulated and
// the watchdog only logs its deadline extensions.
type HostDevice struct {
	radio *SimRadio
	wd    *logWatchdog
}

// LED on or off (not applicable)
func (dev *HostDevice) LED(on bool) {}

// Radio of the device
func (dev *HostDevice) Radio() Radio { return dev.radio }

// Watchdog of the device
func (dev *HostDevice) Watchdog() Watchdog { return dev.wd }

// Initialize device
func InitDevice(cfg Config, log *slog.Logger) Device {
	return &HostDevice{
		radio: NewSimRadio(log),
		wd:    &logWatchdog{log: log},
	}
}

// SetupConsole returns the operator line source and output for the
// host: a readline instance with history and stdout.
func SetupConsole(dev Device) (LineReader, io.Writer, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "twtsh> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return readlineLines{rl}, os.Stdout, nil
}

// readlineLines adapts readline to the LineReader interface.
type readlineLines struct {
	rl *readline.Instance
}

// ReadLine returns the next edited input line.
func (r readlineLines) ReadLine() (string, error) {
	for {
		line, err := r.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return "", io.EOF
		}
		return line, nil
	}
}

// SetupListener returns a TCP listener on the given port.
func SetupListener(dev Device, port uint16) (net.Listener, error) {
	ctx := context.Background()
	cfg := new(net.ListenConfig)
	return cfg.Listen(ctx, "tcp", fmt.Sprintf(":%d", port))
}

//----------------------------------------------------------------------

// SimRadio emulates the station radio for host builds. Association
// succeeds after FailFirst scripted failures and hands out a fixed
// documentation address; TWT requests are accepted unconditionally,
// like a driver that treats a redundant teardown as a no-op.
type SimRadio struct {
	// FailFirst makes the next connect calls fail (settable before use).
	FailFirst int

	mu        sync.Mutex
	log       *slog.Logger
	attempts  int
	connected bool
	profile   TwtProfile
}

// NewSimRadio creates a disconnected simulated radio.
func NewSimRadio(log *slog.Logger) *SimRadio {
	return &SimRadio{log: log}
}

// Init brings the simulated radio up.
func (r *SimRadio) Init() error {
	return nil
}

// Connect associates after the scripted number of failures.
func (r *SimRadio) Connect(params ConnParams) (netip.Addr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if params.SSID == "" {
		return netip.Addr{}, errors.New("join: no SSID configured")
	}
	r.attempts++
	if r.attempts <= r.FailFirst {
		return netip.Addr{}, errors.New("join: no response from AP")
	}
	r.connected = true
	r.profile = params.Profile
	r.log.Debug("sim: associated",
		slog.String("ssid", params.SSID),
		slog.String("profile", params.Profile.String()))
	return netip.AddrFrom4([4]byte{192, 0, 2, 1}), nil
}

// Disconnect drops the simulated association.
func (r *SimRadio) Disconnect() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	r.profile = ProfileNone
	return nil
}

// IsConnected reports the simulated association state.
func (r *SimRadio) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

// TwtTeardown accepts any teardown request.
func (r *SimRadio) TwtTeardown(params TwtTeardownParams) error {
	r.log.Debug("sim: twt teardown",
		slog.Int("flow", int(params.FlowID)),
		slog.Int("negotiation", int(params.NegotiationType)))
	return nil
}

// Profile returns the profile of the current association.
func (r *SimRadio) Profile() TwtProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}

//----------------------------------------------------------------------

// logWatchdog records deadline extensions in the log; there is no
// system watchdog to arm on the host.
type logWatchdog struct {
	log *slog.Logger
}

// Extend the (virtual) watchdog deadline.
func (w *logWatchdog) Extend(d time.Duration) error {
	w.log.Debug("watchdog extended", slog.Duration("deadline", d))
	return nil
}
