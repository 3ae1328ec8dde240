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
	"net/netip"
	"time"
)

// ConnParams are the association parameters for a single connect
// attempt. They are rebuilt fresh on every retry so no state from a
// failed attempt carries over.
type ConnParams struct {
	SSID       string
	Passphrase string
	Security   Security
	Band       Band
	Profile    TwtProfile
}

// TwtTeardownParams select the TWT flow to tear down on the station
// interface.
type TwtTeardownParams struct {
	NegotiationType uint8
	FlowID          uint8
	BroadcastID     uint8
	TeardownAll     bool
}

// ConnManager is the Wi-Fi connection-manager service of the radio.
type ConnManager interface {
	// Connect associates with the access point described by params and
	// returns the assigned address. Blocks for the duration of the
	// radio exchange.
	Connect(params ConnParams) (netip.Addr, error)

	// Disconnect tears the current association down.
	Disconnect() error

	// IsConnected reports whether the station is associated.
	IsConnected() bool
}

// TwtDriver issues raw TWT negotiation requests against the station
// interface.
type TwtDriver interface {
	TwtTeardown(params TwtTeardownParams) error
}

// Radio is the full driver contract consumed by this package.
type Radio interface {
	// Init brings the radio up. Must be called before any other
	// operation.
	Init() error

	ConnManager
	TwtDriver
}

// Watchdog re-arms a hardware/software watchdog deadline. A watchdog
// that is not extended in time resets the system.
type Watchdog interface {
	Extend(d time.Duration) error
}

// Device is a hardware abstraction
type Device interface {
	// LED on or off (if applicable)
	LED(on bool)

	// Radio of the device
	Radio() Radio

	// Watchdog of the device
	Watchdog() Watchdog
}
