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
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"
)

// Control is the single long-lived task of the station: it sequences
// radio bring-up, initial association, command registration and the
// watchdog keeper, then services operator commands until shutdown.
// All command handlers execute on the console goroutine, so connection
// and TWT operations are serialized with respect to each other and no
// locking is needed around them.
type Control struct {
	cfg   Config
	dev   Device
	state *Status
	log   *slog.Logger

	facts *Facts
	sup   *Supervisor
	twt   *SessionController
	cons  *Console
}

// NewControl wires supervisor, session controller and console for the
// given device. state may be nil (no LED feedback).
func NewControl(cfg Config, dev Device, state *Status, out io.Writer, log *slog.Logger) (*Control, error) {
	radio := dev.Radio()
	facts := NewFacts()
	sup := NewSupervisor(cfg, radio, facts, log)
	twt := NewSessionController(sup, radio, radio, log)

	cons := NewConsole(out, log)
	if err := cons.AddTable(linkCommands(facts, out)); err != nil {
		return nil, err
	}
	if err := cons.AddTable(twt.Commands()); err != nil {
		return nil, err
	}
	return &Control{
		cfg:   cfg,
		dev:   dev,
		state: state,
		log:   log,
		facts: facts,
		sup:   sup,
		twt:   twt,
		cons:  cons,
	}, nil
}

// Console returns the command console (for direct dispatch in tests
// and tooling).
func (c *Control) Console() *Console {
	return c.cons
}

// Facts returns the link facts holder.
func (c *Control) Facts() *Facts {
	return c.facts
}

// Run executes the control sequence. Fatal initialization errors are
// returned and flagged on the status LED; a failed initial association
// leaves the link down but the console still comes up. Run returns
// when the context ends or the operator input is exhausted.
func (c *Control) Run(ctx context.Context, lines LineReader) error {
	radio := c.dev.Radio()
	if err := radio.Init(); err != nil {
		c.state.Set(StatDEV, 0)
		return fmt.Errorf("Wi-Fi connection manager initialization failed: %w", err)
	}
	c.log.Info("Wi-Fi connection manager initialized")

	// initial association without a TWT profile
	if _, err := c.sup.Connect(ProfileNone); err != nil {
		c.state.Set(StatWIFI, 3)
		c.log.Error("initial association failed", slog.String("err", err.Error()))
	}

	keeper, err := StartKeeper(c.dev.Watchdog(), wdtPetPeriod, wdtExtension, c.log)
	if err != nil {
		c.state.Set(StatWDT, 0)
		return err
	}
	defer keeper.Stop()

	if c.cfg.StatusPort != 0 {
		go c.serveStatus(ctx)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.cons.Run(lines)
	}()
	select {
	case <-ctx.Done():
	case <-done:
	}
	return nil
}

// serveStatus publishes the status namespace over 9p on the configured
// port. Failures are flagged on the status LED but never abort the
// control task.
func (c *Control) serveStatus(ctx context.Context) {
	ns, err := StatusNamespace(c.facts)
	if err != nil {
		c.state.Set(StatNS, 0)
		c.log.Error("status namespace construction failed", slog.String("err", err.Error()))
		return
	}
	lst, err := SetupListener(c.dev, c.cfg.StatusPort)
	if err != nil {
		c.state.Set(StatLISTEN, 0)
		c.log.Error("status listener failed", slog.String("err", err.Error()))
		return
	}
	go func() {
		<-ctx.Done()
		lst.Close()
	}()
	c.log.Info("status namespace served", slog.Int("port", int(c.cfg.StatusPort)))
	for {
		conn, err := lst.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.state.Set(StatSRV, 3)
			continue
		}
		go func(conn net.Conn) {
			defer conn.Close()
			ns.Serve(conn)
		}(conn)
	}
}

// linkCommands is the generic link utility table (registered through
// the same mechanism as the iTWT table).
func linkCommands(facts *Facts, out io.Writer) []Command {
	return []Command{
		{
			Name: "wifi_info",
			Help: "Show current association facts",
			Handler: func([]string) error {
				link, up := facts.Link()
				if !up {
					fmt.Fprintln(out, "not associated")
					return nil
				}
				fmt.Fprintf(out, "ssid:     %s\n", link.SSID)
				fmt.Fprintf(out, "addr:     %s\n", link.Addr)
				fmt.Fprintf(out, "security: %s\n", link.Security)
				fmt.Fprintf(out, "profile:  %s\n", link.Profile)
				fmt.Fprintf(out, "since:    %s\n", link.Since.Format(time.RFC3339))
				return nil
			},
		},
	}
}
