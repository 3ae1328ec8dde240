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
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnknownCommand(t *testing.T) {
	cons := NewConsole(new(bytes.Buffer), testLogger())

	err := cons.Dispatch("frobnicate now")
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDispatchEmptyLine(t *testing.T) {
	cons := NewConsole(new(bytes.Buffer), testLogger())

	assert.NoError(t, cons.Dispatch(""))
	assert.NoError(t, cons.Dispatch("   "))
}

func TestDispatchArgumentGate(t *testing.T) {
	cons := NewConsole(new(bytes.Buffer), testLogger())
	invoked := false
	require.NoError(t, cons.AddTable([]Command{{
		Name:    "send",
		MinArgs: 2,
		Usage:   "<host> <count>",
		Handler: func([]string) error {
			invoked = true
			return nil
		},
	}}))

	err := cons.Dispatch("send peer")
	require.ErrorIs(t, err, ErrMissingArgument)
	assert.Contains(t, err.Error(), "send <host> <count>")
	// the handler never ran
	assert.False(t, invoked)

	require.NoError(t, cons.Dispatch("send peer 3"))
	assert.True(t, invoked)
}

func TestDispatchPassesArguments(t *testing.T) {
	cons := NewConsole(new(bytes.Buffer), testLogger())
	var got []string
	require.NoError(t, cons.AddTable([]Command{{
		Name: "echo",
		Handler: func(args []string) error {
			got = args
			return nil
		},
	}}))

	require.NoError(t, cons.Dispatch("  echo   one  two "))
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestAddTableDuplicate(t *testing.T) {
	cons := NewConsole(new(bytes.Buffer), testLogger())
	table := []Command{{Name: "x", Handler: func([]string) error { return nil }}}

	require.NoError(t, cons.AddTable(table))
	assert.ErrorIs(t, cons.AddTable(table), ErrDuplicateCommand)
}

func TestHelpListsCommands(t *testing.T) {
	out := new(bytes.Buffer)
	cons := NewConsole(out, testLogger())
	radio := new(fakeRadio)
	ctrl, _ := newTestController(radio)
	require.NoError(t, cons.AddTable(ctrl.Commands()))

	require.NoError(t, cons.Dispatch("help"))
	text := out.String()
	assert.Contains(t, text, "help")
	assert.Contains(t, text, "itwt_setup")
	assert.Contains(t, text, "itwt_teardown")
	assert.Contains(t, text, "<active|idle>")
}

func TestRunReportsErrorsAndContinues(t *testing.T) {
	out := new(bytes.Buffer)
	cons := NewConsole(out, testLogger())
	radio := new(fakeRadio)
	ctrl, sup := newTestController(radio)
	require.NoError(t, cons.AddTable(ctrl.Commands()))

	script := strings.Join([]string{
		"bogus",
		"itwt_setup",
		"itwt_setup banana",
		"itwt_setup idle",
		"itwt_teardown",
	}, "\n")
	cons.Run(NewScannerLines(strings.NewReader(script)))

	text := out.String()
	assert.Contains(t, text, "unknown command")
	assert.Contains(t, text, "itwt_setup <active|idle>")
	assert.Contains(t, text, "invalid profile")
	// the failures did not stop the loop: setup and teardown still ran
	assert.Equal(t, []TwtProfile{ProfileIdle}, sup.profiles)
	assert.Len(t, radio.teardowns, 1)
}
