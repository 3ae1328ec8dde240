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
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Fixed parameters of the reference configuration.
const (
	// MaxConnRetries is the association attempt ceiling per connect call.
	MaxConnRetries = 15

	// connSettleDelay is applied after every association attempt to give
	// the radio settling time. Fixed backoff, not exponential.
	connSettleDelay = 500 * time.Millisecond

	// wdtPetPeriod is the re-arm cadence of the watchdog keeper.
	wdtPetPeriod = 4000 * time.Millisecond

	// wdtExtension is the deadline granted on each re-arm.
	wdtExtension = 5 * time.Second
)

//----------------------------------------------------------------------

// Security selects the association security kind.
type Security uint8

// supported security kinds
const (
	SecurityWPA2AES Security = iota // WPA2 with AES/PSK (default)
	SecurityOpen
	SecurityWPA3
)

// String returns the config token for a security kind.
func (s Security) String() string {
	switch s {
	case SecurityOpen:
		return "open"
	case SecurityWPA3:
		return "wpa3"
	}
	return "wpa2-aes-psk"
}

// UnmarshalYAML parses a security kind from its config token.
func (s *Security) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "", "wpa2-aes-psk":
		*s = SecurityWPA2AES
	case "open":
		*s = SecurityOpen
	case "wpa3":
		*s = SecurityWPA3
	default:
		return fmt.Errorf("unknown security kind %q", node.Value)
	}
	return nil
}

// MarshalYAML emits the config token.
func (s Security) MarshalYAML() (any, error) {
	return s.String(), nil
}

//----------------------------------------------------------------------

// Band is the radio band preference for association.
type Band uint8

// supported band preferences
const (
	BandAny Band = iota // no preference (default)
	Band2G
	Band5G
)

// String returns the config token for a band preference.
func (b Band) String() string {
	switch b {
	case Band2G:
		return "2g"
	case Band5G:
		return "5g"
	}
	return "any"
}

// UnmarshalYAML parses a band preference from its config token.
func (b *Band) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "", "any":
		*b = BandAny
	case "2g":
		*b = Band2G
	case "5g":
		*b = Band5G
	default:
		return fmt.Errorf("unknown band preference %q", node.Value)
	}
	return nil
}

// MarshalYAML emits the config token.
func (b Band) MarshalYAML() (any, error) {
	return b.String(), nil
}

//----------------------------------------------------------------------

// Config holds the station settings. It replaces the process-scoped
// constants of older demo builds: the control task owns one instance
// and hands it to the supervisor and console at construction.
type Config struct {
	// access point credentials
	SSID       string   `yaml:"ssid"`
	Passphrase string   `yaml:"passphrase"`
	Security   Security `yaml:"security"`
	Band       Band     `yaml:"band"`

	// DHCP settings: requested hostname and the static fallback
	// address used when no lease is obtained.
	Hostname    string `yaml:"hostname"`
	RequestedIP string `yaml:"requested_ip"`

	// StatusPort is the TCP port of the 9P status namespace.
	// A zero port disables the service.
	StatusPort uint16 `yaml:"status_port"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{
		Security: SecurityWPA2AES,
		Band:     BandAny,
		Hostname: "twtsh",
	}
}

// LoadConfig overlays YAML data on the default configuration.
func LoadConfig(data []byte) (cfg Config, err error) {
	cfg = DefaultConfig()
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		err = fmt.Errorf("load config: %w", err)
	}
	return
}
