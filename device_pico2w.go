//go:build rp2350

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
	"io"
	"log/slog"
	"machine"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/soypat/cyw43439"
	"github.com/soypat/seqs/eth/dhcp"
	"github.com/soypat/seqs/stacks"
)

// Raspberry Pico2 W  [RP2350]
type Pico2WDevice struct {
	ref    *cyw43439.Device // reference to device
	cfg    Config
	log    *slog.Logger
	wd     picoWatchdog
	inited bool
	stack  *stacks.PortStack
	stop   chan struct{} // ends the packet pump of the current link
}

// Initialize device
func InitDevice(cfg Config, log *slog.Logger) Device {
	dev := new(Pico2WDevice)
	dev.ref = cyw43439.NewPicoWDevice()
	dev.cfg = cfg
	dev.log = log
	return dev
}

// LED on or off (if applicable)
func (dev *Pico2WDevice) LED(on bool) {
	dev.ref.GPIOSet(0, on)
}

// Radio of the device
func (dev *Pico2WDevice) Radio() Radio { return dev }

// Watchdog of the device
func (dev *Pico2WDevice) Watchdog() Watchdog { return &dev.wd }

// SetupConsole returns the operator line source and output: the USB
// serial console with byte-wise echo.
func SetupConsole(dev Device) (LineReader, io.Writer, error) {
	time.Sleep(2 * time.Second) // wait a bit for serial
	return new(serialLines), machine.Serial, nil
}

// SetupListener returns a TCP listener on the given port. The station
// must be associated (the port stack comes up with the DHCP lease).
func SetupListener(dev Device, port uint16) (net.Listener, error) {
	d, ok := dev.(*Pico2WDevice)
	if !ok || d.stack == nil {
		return nil, errors.New("no network stack, connect first")
	}
	listener, err := stacks.NewTCPListener(d.stack, stacks.TCPListenerConfig{
		MaxConnections: 3,
		ConnTxBufSize:  512,
		ConnRxBufSize:  512,
	})
	if err != nil {
		return nil, err
	}
	if err = listener.StartListening(port); err != nil {
		return nil, err
	}
	return listener, nil
}

//----------------------------------------------------------------------
// Radio implementation
//----------------------------------------------------------------------

// Init flashes firmware and brings the radio up.
func (dev *Pico2WDevice) Init() error {
	wificfg := cyw43439.DefaultWifiConfig()
	wificfg.Logger = dev.log
	if err := dev.ref.Init(wificfg); err != nil {
		return err
	}
	dev.inited = true
	return nil
}

// Connect joins the access point and acquires an address via DHCP.
// The CYW43439 is a single-band radio, so the band preference is not
// consulted. The requested iTWT profile is logged only:
// TODO(bfix): drive the "twt" iovars once cyw43439 exposes them on its
// public API.
func (dev *Pico2WDevice) Connect(params ConnParams) (netip.Addr, error) {
	if !dev.inited {
		if err := dev.Init(); err != nil {
			return netip.Addr{}, err
		}
	}
	opts := cyw43439.JoinOptions{Passphrase: params.Passphrase}
	switch params.Security {
	case SecurityOpen:
		opts.Auth = cyw43439.JoinAuthOpen
	case SecurityWPA3:
		opts.Auth = cyw43439.JoinAuthWPA3
	default:
		opts.Auth = cyw43439.JoinAuthWPA2
	}
	if params.Profile != ProfileNone {
		dev.log.Info("iTWT profile requested at association",
			slog.String("profile", params.Profile.String()))
	}
	if err := dev.ref.Join(params.SSID, opts); err != nil {
		return netip.Addr{}, err
	}
	return dev.lease()
}

// Disconnect power-cycles the radio; the next connect re-initializes.
func (dev *Pico2WDevice) Disconnect() error {
	if dev.stop != nil {
		close(dev.stop)
		dev.stop = nil
	}
	dev.stack = nil
	dev.ref.Reset()
	dev.inited = false
	return nil
}

// IsConnected reports whether the link is up.
func (dev *Pico2WDevice) IsConnected() bool {
	return dev.inited && dev.ref.IsLinkUp()
}

// TwtTeardown releases an individual TWT flow.
func (dev *Pico2WDevice) TwtTeardown(params TwtTeardownParams) error {
	// see Connect: the driver has no public TWT surface yet
	return errors.New("twt teardown not supported by this firmware build")
}

// lease starts the port stack and requests a DHCP lease, falling back
// to the configured static address when no reply arrives.
func (dev *Pico2WDevice) lease() (netip.Addr, error) {
	mac, err := dev.ref.HardwareAddr6()
	if err != nil {
		return netip.Addr{}, err
	}
	stack := stacks.NewPortStack(stacks.PortStackConfig{
		MAC:             mac,
		MaxOpenPortsUDP: 1, // DHCP client
		MaxOpenPortsTCP: 1, // status namespace
		MTU:             cyw43439.MTU,
		Logger:          dev.log,
	})
	dev.stack = stack
	dev.ref.RecvEthHandle(stack.RecvEth)
	dev.stop = make(chan struct{})
	go dev.pump(dev.stop)

	var reqAddr netip.Addr
	if dev.cfg.RequestedIP != "" {
		if reqAddr, err = netip.ParseAddr(dev.cfg.RequestedIP); err != nil {
			return netip.Addr{}, fmt.Errorf("invalid requested ip: %w", err)
		}
	}
	dhcpc := stacks.NewDHCPClient(stack, dhcp.DefaultClientPort)
	err = dhcpc.BeginRequest(stacks.DHCPRequestConfig{
		RequestedAddr: reqAddr,
		Xid:           uint32(time.Now().Nanosecond()),
		Hostname:      dev.cfg.Hostname,
	})
	if err != nil {
		return netip.Addr{}, fmt.Errorf("dhcp request: %w", err)
	}
	for i := 0; dhcpc.State() != dhcp.StateBound; i++ {
		dev.log.Info("DHCP ongoing...")
		time.Sleep(time.Second / 2)
		if i > 15 {
			if !reqAddr.IsValid() {
				return netip.Addr{}, errors.New("no dhcp reply")
			}
			dev.log.Info("DHCP did not complete, assigning static IP",
				slog.String("ip", dev.cfg.RequestedIP))
			stack.SetAddr(reqAddr)
			return reqAddr, nil
		}
	}
	ip := dhcpc.Offer()
	stack.SetAddr(ip) // set address only after DHCP completes
	return ip, nil
}

// pump moves packets between radio and port stack until stopped.
func (dev *Pico2WDevice) pump(stop chan struct{}) {
	var buf [cyw43439.MTU]byte
	for {
		select {
		case <-stop:
			return
		default:
		}
		gotRx, err := dev.ref.PollOne()
		if err != nil {
			dev.log.Warn("poll error", slog.String("err", err.Error()))
		}
		n, err := dev.stack.HandleEth(buf[:])
		if err != nil {
			dev.log.Warn("stack error", slog.String("err", err.Error()))
			continue
		}
		if n > 0 {
			if err = dev.ref.SendEth(buf[:n]); err != nil {
				dev.log.Warn("send error", slog.String("err", err.Error()))
			}
			continue
		}
		if !gotRx {
			// avoid busy waiting when both Rx and Tx stall
			time.Sleep(50 * time.Millisecond)
		}
	}
}

//----------------------------------------------------------------------

// picoWatchdog drives the RP2350 hardware watchdog. The first Extend
// configures and starts it with the requested deadline; later calls
// only re-arm.
type picoWatchdog struct {
	mu       sync.Mutex
	deadline time.Duration
	running  bool
}

// Extend the watchdog deadline.
func (w *picoWatchdog) Extend(d time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running || d != w.deadline {
		err := machine.Watchdog.Configure(machine.WatchdogConfig{
			TimeoutMillis: uint32(d.Milliseconds()),
		})
		if err != nil {
			return err
		}
		if !w.running {
			if err = machine.Watchdog.Start(); err != nil {
				return err
			}
			w.running = true
		}
		w.deadline = d
	}
	machine.Watchdog.Update()
	return nil
}

//----------------------------------------------------------------------

// serialLines reads operator input byte-wise from the serial console
// with echo and backspace handling.
type serialLines struct {
	buf []byte
}

// ReadLine returns the next input line.
func (s *serialLines) ReadLine() (string, error) {
	s.buf = s.buf[:0]
	for {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		switch b {
		case '\r', '\n':
			machine.Serial.Write([]byte("\r\n"))
			return string(s.buf), nil
		case 0x08, 0x7f: // backspace / delete
			if n := len(s.buf); n > 0 {
				s.buf = s.buf[:n-1]
				machine.Serial.Write([]byte("\b \b"))
			}
		default:
			s.buf = append(s.buf, b)
			machine.Serial.WriteByte(b)
		}
	}
}
