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
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Error messages
var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("duplicate command name")
)

//----------------------------------------------------------------------

// Handler processes the arguments of a parsed command line (everything
// after the verb). A non-nil error is the command's failure result and
// is reported to the operator.
type Handler func(args []string) error

// Command is one entry in a registered command table.
type Command struct {
	Name    string
	Handler Handler
	MinArgs int // minimum argument count beyond the verb
	Usage   string
	Help    string
}

// LineReader yields operator input one line at a time.
type LineReader interface {
	ReadLine() (string, error)
}

//----------------------------------------------------------------------

// Console maps operator commands to handlers. Tables are registered
// once at startup and never mutated at runtime; command names must be
// unique across all registered tables.
type Console struct {
	cmds  map[string]Command
	order []string // registration order (for help output)
	out   io.Writer
	log   *slog.Logger
}

// NewConsole creates a console writing operator output to out. A "help"
// command is pre-registered.
func NewConsole(out io.Writer, log *slog.Logger) *Console {
	c := &Console{
		cmds: make(map[string]Command),
		out:  out,
		log:  log,
	}
	_ = c.AddTable([]Command{{
		Name:    "help",
		Handler: c.help,
		Usage:   "",
		Help:    "List available commands",
	}})
	return c
}

// AddTable registers a command table.
func (c *Console) AddTable(table []Command) error {
	for _, cmd := range table {
		if _, ok := c.cmds[cmd.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateCommand, cmd.Name)
		}
		c.cmds[cmd.Name] = cmd
		c.order = append(c.order, cmd.Name)
	}
	return nil
}

// Dispatch parses and executes a single command line. The verb and its
// arguments are separated by spaces. An unknown verb or an argument
// shortfall is reported as an error without invoking any handler; a
// handler's error becomes the dispatch result.
func (c *Console) Dispatch(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]
	cmd, ok := c.cmds[verb]
	if !ok {
		return fmt.Errorf("%w: %q (try 'help')", ErrUnknownCommand, verb)
	}
	if len(args) < cmd.MinArgs {
		return fmt.Errorf("%w: usage: %s %s", ErrMissingArgument, cmd.Name, cmd.Usage)
	}
	return cmd.Handler(args)
}

// Run services operator input until the reader is exhausted. Dispatch
// failures are reported to the operator and never end the loop.
func (c *Console) Run(lines LineReader) {
	for {
		line, err := lines.ReadLine()
		if err != nil {
			c.log.Info("console input closed", slog.String("reason", err.Error()))
			return
		}
		if err := c.Dispatch(line); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
	}
}

// help lists the registered commands with usage and help strings.
func (c *Console) help([]string) error {
	for _, name := range c.order {
		cmd := c.cmds[name]
		fmt.Fprintf(c.out, "  %-15s %-15s %s\n", cmd.Name, cmd.Usage, cmd.Help)
	}
	return nil
}

//----------------------------------------------------------------------

// ScannerLines adapts a byte stream to the LineReader interface.
type ScannerLines struct {
	sc *bufio.Scanner
}

// NewScannerLines wraps a reader for line-oriented input.
func NewScannerLines(r io.Reader) *ScannerLines {
	return &ScannerLines{sc: bufio.NewScanner(r)}
}

// ReadLine returns the next input line; io.EOF ends the stream.
func (s *ScannerLines) ReadLine() (string, error) {
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}
