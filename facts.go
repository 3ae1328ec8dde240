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
	"sync"
	"time"
)

// LinkFacts describe the current association.
type LinkFacts struct {
	SSID     string
	Security Security
	Profile  TwtProfile
	Addr     netip.Addr
	Since    time.Time
}

// Facts is the shared holder for link facts. Only the control task's
// call stack writes it; the status namespace reads it from the server
// goroutine, hence the lock.
type Facts struct {
	mu   sync.RWMutex
	link LinkFacts
	up   bool
}

// NewFacts creates an empty holder (link down).
func NewFacts() *Facts {
	return new(Facts)
}

// Set records a fresh association.
func (f *Facts) Set(link LinkFacts) {
	if f != nil {
		f.mu.Lock()
		f.link = link
		f.up = true
		f.mu.Unlock()
	}
}

// Clear marks the link down.
func (f *Facts) Clear() {
	if f != nil {
		f.mu.Lock()
		f.link = LinkFacts{}
		f.up = false
		f.mu.Unlock()
	}
}

// Link returns the current facts and whether the link is up.
func (f *Facts) Link() (LinkFacts, bool) {
	if f == nil {
		return LinkFacts{}, false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.link, f.up
}
