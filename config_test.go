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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, SecurityWPA2AES, cfg.Security)
	assert.Equal(t, BandAny, cfg.Band)
	assert.Equal(t, "twtsh", cfg.Hostname)
	assert.Zero(t, cfg.StatusPort)
}

func TestLoadConfig(t *testing.T) {
	data := []byte(`
ssid: lab-ap
passphrase: hunter22
security: wpa3
band: 5g
requested_ip: 192.168.4.20
status_port: 5640
`)
	cfg, err := LoadConfig(data)
	require.NoError(t, err)
	assert.Equal(t, "lab-ap", cfg.SSID)
	assert.Equal(t, "hunter22", cfg.Passphrase)
	assert.Equal(t, SecurityWPA3, cfg.Security)
	assert.Equal(t, Band5G, cfg.Band)
	assert.Equal(t, "192.168.4.20", cfg.RequestedIP)
	assert.Equal(t, uint16(5640), cfg.StatusPort)
	// unset fields keep their defaults
	assert.Equal(t, "twtsh", cfg.Hostname)
}

func TestLoadConfigBadTokens(t *testing.T) {
	_, err := LoadConfig([]byte("security: wep"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown security kind")

	_, err = LoadConfig([]byte("band: 6g"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown band preference")
}

func TestSecurityTokens(t *testing.T) {
	for _, s := range []Security{SecurityWPA2AES, SecurityOpen, SecurityWPA3} {
		data, err := yaml.Marshal(s)
		require.NoError(t, err)
		var back Security
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}
	assert.Equal(t, "wpa2-aes-psk", SecurityWPA2AES.String())
}

func TestBandTokens(t *testing.T) {
	for _, b := range []Band{BandAny, Band2G, Band5G} {
		data, err := yaml.Marshal(b)
		require.NoError(t, err)
		var back Band
		require.NoError(t, yaml.Unmarshal(data, &back))
		assert.Equal(t, b, back)
	}
	assert.Equal(t, "any", BandAny.String())
}
