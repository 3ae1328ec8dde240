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
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"
)

// ErrRetriesExhausted is returned when no association attempt succeeded
// within the retry ceiling.
var ErrRetriesExhausted = errors.New("exceeded max Wi-Fi connection attempts")

// Supervisor owns the association retry loop. It associates the station
// with the configured access point, optionally requesting an iTWT
// profile, and hands the assigned address to the caller.
type Supervisor struct {
	cfg   Config
	mgr   ConnManager
	facts *Facts
	log   *slog.Logger
	sleep func(time.Duration)
}

// NewSupervisor creates a supervisor for the given connection manager.
// facts may be nil.
func NewSupervisor(cfg Config, mgr ConnManager, facts *Facts, log *slog.Logger) *Supervisor {
	return &Supervisor{
		cfg:   cfg,
		mgr:   mgr,
		facts: facts,
		log:   log,
		sleep: time.Sleep,
	}
}

// Connect associates with the configured access point, requesting the
// given iTWT profile. If the station is still associated it is cleanly
// disconnected first; a failed disconnect aborts the call.
//
// Up to MaxConnRetries attempts are made, with a fixed settling delay
// after every attempt (success included). On success the assigned
// address is returned and the link facts are updated.
func (s *Supervisor) Connect(profile TwtProfile) (netip.Addr, error) {
	if s.mgr.IsConnected() {
		if err := s.mgr.Disconnect(); err != nil {
			return netip.Addr{}, fmt.Errorf("disconnect before association: %w", err)
		}
		s.facts.Clear()
	}
	s.log.Info("connecting to Wi-Fi network",
		slog.String("ssid", s.cfg.SSID),
		slog.String("profile", profile.String()))

	retries := 0
	for {
		// association parameters are rebuilt fresh on every attempt
		params := ConnParams{
			SSID:       s.cfg.SSID,
			Passphrase: s.cfg.Passphrase,
			Security:   s.cfg.Security,
			Band:       s.cfg.Band,
			Profile:    profile,
		}
		addr, err := s.mgr.Connect(params)
		s.sleep(connSettleDelay)
		if err == nil {
			s.log.Info("successfully connected to Wi-Fi network",
				slog.String("ssid", s.cfg.SSID),
				slog.String("addr", addr.String()))
			s.facts.Set(LinkFacts{
				SSID:     s.cfg.SSID,
				Security: s.cfg.Security,
				Profile:  profile,
				Addr:     addr,
				Since:    time.Now(),
			})
			return addr, nil
		}
		retries++
		if retries >= MaxConnRetries {
			s.log.Error("exceeded max Wi-Fi connection attempts")
			return netip.Addr{}, ErrRetriesExhausted
		}
		s.log.Warn("connection to Wi-Fi network failed, retrying",
			slog.Int("attempt", retries),
			slog.String("err", err.Error()))
	}
}
