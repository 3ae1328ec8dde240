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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/bfix/twtsh"
)

// Station settings, injected at link time:
//
//	go build -ldflags "-X main.SSID=... -X main.Passwd=..." ./example
var (
	SSID    string // access point name
	Passwd  string // WPA2 passphrase (empty for open network)
	Host    string // DHCP hostname
	IP      string // static fallback address
	Port    string // 9p status namespace port (empty to disable)
	CfgFile string // optional YAML config file (host builds)
)

// run the iTWT control shell
func main() {
	// \x1b[2J\x1b[;H - ANSI ESC sequence for clear screen.
	fmt.Print("\x1b[2J\x1b[;H")
	fmt.Println("************************************************************")
	fmt.Println("                    iTWT control shell                      ")
	fmt.Println("************************************************************")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// assemble configuration: defaults, optional file, link-time vars
	cfg := twtsh.DefaultConfig()
	if CfgFile != "" {
		data, err := os.ReadFile(CfgFile)
		if err != nil {
			logger.Error("can't read config file", slog.String("err", err.Error()))
			return
		}
		if cfg, err = twtsh.LoadConfig(data); err != nil {
			logger.Error("invalid config file", slog.String("err", err.Error()))
			return
		}
	}
	if SSID != "" {
		cfg.SSID = SSID
	}
	if Passwd != "" {
		cfg.Passphrase = Passwd
	}
	if Host != "" {
		cfg.Hostname = Host
	}
	if IP != "" {
		cfg.RequestedIP = IP
	}
	if Port != "" {
		port, err := strconv.ParseUint(Port, 10, 16)
		if err != nil {
			logger.Error("invalid status port", slog.String("port", Port))
			return
		}
		cfg.StatusPort = uint16(port)
	}

	// access device
	dev := twtsh.InitDevice(cfg, logger)
	state := twtsh.NewStatus(dev)
	defer state.Trap(30 * time.Second)
	state.Set(twtsh.StatOK, 0)

	// operator console I/O
	lines, out, err := twtsh.SetupConsole(dev)
	if err != nil {
		state.Set(twtsh.StatCONS, 0)
		logger.Error("console setup failed", slog.String("err", err.Error()))
		return
	}

	// run the control task until input is exhausted
	ctrl, err := twtsh.NewControl(cfg, dev, state, out, logger)
	if err != nil {
		state.Set(twtsh.StatCFG, 0)
		logger.Error("control setup failed", slog.String("err", err.Error()))
		return
	}
	if err = ctrl.Run(context.Background(), lines); err != nil {
		logger.Error("control task failed", slog.String("err", err.Error()))
	}
}
