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
)

// Error messages
var (
	ErrMissingArgument = errors.New("insufficient number of arguments")
	ErrInvalidProfile  = errors.New("invalid profile")
)

//----------------------------------------------------------------------

// TwtProfile is the iTWT negotiation preset requested at association
// time. Profiles are named presets; the numeric negotiation parameters
// live in the driver.
type TwtProfile uint8

// available profiles
const (
	ProfileNone TwtProfile = iota // no TWT session requested
	ProfileActive
	ProfileIdle
)

// String returns the operator token for a profile.
func (p TwtProfile) String() string {
	switch p {
	case ProfileActive:
		return "active"
	case ProfileIdle:
		return "idle"
	}
	return "none"
}

// ParseTwtProfile maps an operator token to a profile. Matching is
// case-sensitive; only "active" and "idle" are selectable.
func ParseTwtProfile(tok string) (TwtProfile, error) {
	switch tok {
	case "active":
		return ProfileActive, nil
	case "idle":
		return ProfileIdle, nil
	}
	return ProfileNone, fmt.Errorf("%w: %q", ErrInvalidProfile, tok)
}

//----------------------------------------------------------------------

// connector is the slice of the Supervisor the session controller
// depends on.
type connector interface {
	Connect(profile TwtProfile) (netip.Addr, error)
}

// SessionController negotiates iTWT sessions. Setup re-associates with
// the requested profile (TWT parameters are only negotiable at
// association time); Teardown releases the individual flow.
//
// No local "session active" flag is kept: the driver is the authority
// on whether a session exists, and a cached flag could diverge from the
// negotiated state.
type SessionController struct {
	sup connector
	mgr ConnManager
	drv TwtDriver
	log *slog.Logger
}

// NewSessionController wires the controller to the supervisor and the
// radio driver.
func NewSessionController(sup connector, mgr ConnManager, drv TwtDriver, log *slog.Logger) *SessionController {
	return &SessionController{
		sup: sup,
		mgr: mgr,
		drv: drv,
		log: log,
	}
}

// Setup establishes an iTWT session as per the selected profile.
// The profile token is validated before any network action. If the
// station is associated it is disconnected first; a failed disconnect
// aborts the setup without reconnection.
func (c *SessionController) Setup(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: itwt_setup <active|idle>", ErrMissingArgument)
	}
	profile, err := ParseTwtProfile(args[0])
	if err != nil {
		return err
	}
	if c.mgr.IsConnected() {
		c.log.Info("already connected, disconnecting from AP")
		if err := c.mgr.Disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect from AP: %w", err)
		}
	}
	if _, err := c.sup.Connect(profile); err != nil {
		return err
	}
	return nil
}

// Teardown unconditionally tears down the individual TWT flow 0 with
// negotiation type 0. The driver handles a teardown with no session in
// place; no precondition is checked here and a driver failure leaves
// no local state to roll back.
func (c *SessionController) Teardown() error {
	params := TwtTeardownParams{
		NegotiationType: 0,
		FlowID:          0,
		BroadcastID:     0,
		TeardownAll:     false,
	}
	if err := c.drv.TwtTeardown(params); err != nil {
		return fmt.Errorf("TWT session teardown failed: %w", err)
	}
	c.log.Info("TWT session teardown requested", slog.Int("flow", int(params.FlowID)))
	return nil
}

// Commands returns the iTWT command table for console registration.
func (c *SessionController) Commands() []Command {
	return []Command{
		{
			Name:    "itwt_setup",
			Handler: c.Setup,
			MinArgs: 1,
			Usage:   "<active|idle>",
			Help:    "Setup an iTWT session with parameters as per selected iTWT profile",
		},
		{
			Name:    "itwt_teardown",
			Handler: func([]string) error { return c.Teardown() },
			MinArgs: 0,
			Usage:   "",
			Help:    "Teardown ongoing iTWT session",
		},
	}
}
