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
	"time"
)

// Keeper re-arms the system watchdog on a fixed cadence from its own
// goroutine. It proves liveness of the control task while long-running
// network operations (association, throughput tests) block it, and is
// deliberately decoupled from every other component. It is safe for
// the re-arm to fire during an in-flight association or negotiation.
type Keeper struct {
	wd     Watchdog
	period time.Duration
	extend time.Duration
	log    *slog.Logger
	stop   chan struct{}
	done   chan struct{}
}

// StartKeeper arms the watchdog once and then re-arms it every period.
// An initial arm failure is returned to the caller and is fatal to the
// startup sequence: a control task that cannot pet the watchdog must
// not come up at all.
func StartKeeper(wd Watchdog, period, extend time.Duration, log *slog.Logger) (*Keeper, error) {
	if wd == nil {
		return nil, errors.New("no watchdog")
	}
	if period <= 0 || extend <= 0 {
		return nil, errors.New("invalid watchdog keeper timing")
	}
	if err := wd.Extend(extend); err != nil {
		return nil, fmt.Errorf("failed to arm watchdog: %w", err)
	}
	k := &Keeper{
		wd:     wd,
		period: period,
		extend: extend,
		log:    log,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go k.run()
	return k, nil
}

func (k *Keeper) run() {
	defer close(k.done)
	tick := time.NewTicker(k.period)
	defer tick.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-tick.C:
			if err := k.wd.Extend(k.extend); err != nil {
				k.log.Warn("watchdog re-arm failed", slog.String("err", err.Error()))
			}
		}
	}
}

// Stop ends the keeper; the watchdog is no longer re-armed afterwards.
func (k *Keeper) Stop() {
	close(k.stop)
	<-k.done
}
