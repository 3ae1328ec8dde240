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
	"io"
	"log/slog"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger discards all output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeRadio scripts the radio behavior and records the call sequence.
type fakeRadio struct {
	failFirst int  // number of leading connect failures
	failDisc  bool // make Disconnect fail
	connected bool

	attempts  int
	calls     []string
	params    []ConnParams
	teardowns []TwtTeardownParams
}

func (r *fakeRadio) Init() error { return nil }

func (r *fakeRadio) Connect(params ConnParams) (netip.Addr, error) {
	r.calls = append(r.calls, "connect")
	r.params = append(r.params, params)
	r.attempts++
	if r.attempts <= r.failFirst {
		return netip.Addr{}, errors.New("join: no response from AP")
	}
	r.connected = true
	return netip.AddrFrom4([4]byte{192, 0, 2, 7}), nil
}

func (r *fakeRadio) Disconnect() error {
	r.calls = append(r.calls, "disconnect")
	if r.failDisc {
		return errors.New("deauth timed out")
	}
	r.connected = false
	return nil
}

func (r *fakeRadio) IsConnected() bool {
	return r.connected
}

func (r *fakeRadio) TwtTeardown(params TwtTeardownParams) error {
	r.calls = append(r.calls, "teardown")
	r.teardowns = append(r.teardowns, params)
	return nil
}

// newTestSupervisor wires a supervisor with a recorded sleep function.
func newTestSupervisor(radio *fakeRadio, facts *Facts) (*Supervisor, *[]time.Duration) {
	cfg := DefaultConfig()
	cfg.SSID = "testnet"
	cfg.Passphrase = "hunter22"
	sup := NewSupervisor(cfg, radio, facts, testLogger())
	sleeps := new([]time.Duration)
	sup.sleep = func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return sup, sleeps
}

func TestConnectFirstAttempt(t *testing.T) {
	radio := new(fakeRadio)
	facts := NewFacts()
	sup, sleeps := newTestSupervisor(radio, facts)

	addr, err := sup.Connect(ProfileNone)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.7", addr.String())
	assert.Equal(t, 1, radio.attempts)
	// the settling delay applies on success too
	require.Len(t, *sleeps, 1)
	assert.Equal(t, connSettleDelay, (*sleeps)[0])

	link, up := facts.Link()
	require.True(t, up)
	assert.Equal(t, "testnet", link.SSID)
	assert.Equal(t, addr, link.Addr)
}

func TestConnectRetriesThenSucceeds(t *testing.T) {
	radio := &fakeRadio{failFirst: 3}
	sup, sleeps := newTestSupervisor(radio, nil)

	_, err := sup.Connect(ProfileActive)
	require.NoError(t, err)
	// three failures plus the successful attempt, one delay each
	assert.Equal(t, 4, radio.attempts)
	assert.Len(t, *sleeps, 4)

	// every attempt carries the full parameter set
	for _, p := range radio.params {
		assert.Equal(t, "testnet", p.SSID)
		assert.Equal(t, ProfileActive, p.Profile)
	}
}

func TestConnectRetryCeiling(t *testing.T) {
	radio := &fakeRadio{failFirst: 1000}
	sup, sleeps := newTestSupervisor(radio, nil)

	_, err := sup.Connect(ProfileIdle)
	require.ErrorIs(t, err, ErrRetriesExhausted)
	assert.Equal(t, MaxConnRetries, radio.attempts)
	assert.Len(t, *sleeps, MaxConnRetries)
}

func TestConnectDisconnectsStaleLink(t *testing.T) {
	radio := &fakeRadio{connected: true}
	facts := NewFacts()
	facts.Set(LinkFacts{SSID: "stale"})
	sup, _ := newTestSupervisor(radio, facts)

	_, err := sup.Connect(ProfileNone)
	require.NoError(t, err)
	assert.Equal(t, []string{"disconnect", "connect"}, radio.calls)

	link, up := facts.Link()
	require.True(t, up)
	assert.Equal(t, "testnet", link.SSID)
}

func TestConnectDisconnectFailureAborts(t *testing.T) {
	radio := &fakeRadio{connected: true, failDisc: true}
	sup, sleeps := newTestSupervisor(radio, nil)

	_, err := sup.Connect(ProfileNone)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disconnect before association")
	// no association attempt is made after a failed disconnect
	assert.Zero(t, radio.attempts)
	assert.Empty(t, *sleeps)
}
