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
	"strings"

	"git.sr.ht/~moody/ninep"
)

// Error messages
var (
	errNoRoot = errors.New("no root directory")
	errNoFile = errors.New("no such file or directory")
	errNoDir  = errors.New("not a directory")
	errNoAbs  = errors.New("no absolute path")
)

//----------------------------------------------------------------------

// Entry in the filesystem
type Entry struct {
	ref      *ninep.Dir        // 9p reference
	children map[string]*Entry // list of children (for folders) or nil
	file     File              // file implementation or nil (for folders)
}

// IsDir returns true if entry is a directory
func (e *Entry) IsDir() bool {
	return e.children != nil
}

// Create a new entry in the filesystem.
// If impl is nil, the entry represents a directory; otherwise a file.
func newEntry(id uint64, name, user, group string, perm uint32, impl File) *Entry {
	e := new(Entry)
	kind := ninep.QTFile
	if impl == nil {
		kind = ninep.QTDir
		e.children = make(map[string]*Entry)
		perm |= ninep.DMDir
	} else {
		e.file = impl
	}
	e.ref = &ninep.Dir{
		Qid: ninep.Qid{
			Path: id,
			Vers: 0,
			Type: byte(kind),
		},
		Name: name,
		Mode: perm,
		Uid:  user,
		Gid:  group,
		Muid: user,
	}
	return e
}

//----------------------------------------------------------------------

// Namespace is a synthetic filesystem exposing link and session facts.
// All entries belong to one user/group; the tree is built once at
// startup and only read afterwards.
type Namespace struct {
	ninep.NopFS                   // use default handlers where needed
	user, group string            // owner of all entries
	dict        map[uint64]*Entry // map Qid.Path to filesystem entry
	nextId      uint64            // next Qid.Path to assign
}

// NewNamespace creates a new filesystem (with root directory) for the
// given user/group.
func NewNamespace(user, group string) *Namespace {
	ns := new(Namespace)
	ns.user = user
	ns.group = group
	ns.dict = make(map[uint64]*Entry)
	e := newEntry(ns.newId(), "/", user, group, 0555, nil)
	ns.dict[e.ref.Qid.Path] = e
	return ns
}

// get next identifier (Qid.Path) for an entry.
func (ns *Namespace) newId() uint64 {
	id := ns.nextId
	ns.nextId++
	return id
}

// Root returns the entry of the root directory
func (ns *Namespace) Root() *Entry {
	return ns.dict[0]
}

// Get entry with given absolute path
func (ns *Namespace) Get(path string) (*Entry, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, errNoAbs
	}
	curr := ns.Root()
	for _, label := range strings.Split(path[1:], "/") {
		if len(label) == 0 {
			continue
		}
		if !curr.IsDir() {
			return nil, errNoDir
		}
		e, ok := curr.children[label]
		if !ok {
			return nil, errNoFile
		}
		curr = e
	}
	return curr, nil
}

// NewDir creates a directory at the given absolute path. The parent
// directory must exist.
func (ns *Namespace) NewDir(path string, perm uint32) error {
	return ns.add(path, perm, nil)
}

// NewFile creates a file at the given absolute path with the specified
// handler implementation. The parent directory must exist.
func (ns *Namespace) NewFile(path string, perm uint32, impl File) error {
	return ns.add(path, perm, impl)
}

// add an entry below its parent directory.
func (ns *Namespace) add(path string, perm uint32, impl File) error {
	if len(path) < 2 || path[0] != '/' {
		return errNoAbs
	}
	dir, name := "/", path[1:]
	if idx := strings.LastIndexByte(path, '/'); idx > 0 {
		dir, name = path[:idx], path[idx+1:]
	}
	parent, err := ns.Get(dir)
	if err != nil {
		return err
	}
	if !parent.IsDir() {
		return errNoDir
	}
	e := newEntry(ns.newId(), name, ns.user, ns.group, perm, impl)
	parent.children[name] = e
	ns.dict[e.ref.Qid.Path] = e
	return nil
}

// Serve handles one 9p session on the given transport.
func (ns *Namespace) Serve(rw io.ReadWriter) {
	srv := ninep.NewSrv(func() ninep.FS { return ns })
	srv.ServeIO(rw, rw)
}

// ninep FS implementation

// Attach to 9p session
func (ns *Namespace) Attach(t *ninep.Tattach) {
	if e, ok := ns.dict[0]; ok {
		t.Respond(&e.ref.Qid)
	} else {
		t.Err(errNoRoot)
	}
}

// Walk to child entry with name "next".
func (ns *Namespace) Walk(cur *ninep.Qid, next string) *ninep.Qid {
	e := ns.dict[cur.Path]
	for _, c := range e.children {
		if c.ref.Name == next {
			return &c.ref.Qid
		}
	}
	return nil
}

// Open entry for file operation
func (ns *Namespace) Open(t *ninep.Topen, q *ninep.Qid) {
	t.Respond(q, 8192)
}

// Read from entry. Either return the content of a file
// or the listing from a directory.
func (ns *Namespace) Read(t *ninep.Tread, q *ninep.Qid) {
	e, ok := ns.dict[q.Path]
	if !ok {
		t.Err(errNoFile)
		return
	}
	if e.IsDir() {
		var kids []ninep.Dir
		for _, c := range e.children {
			kids = append(kids, *c.ref)
		}
		ninep.ReadDir(t, kids)
		return
	}
	data, err := e.file.Read()
	if err != nil {
		t.Err(err)
	} else {
		ninep.ReadBuf(t, data)
	}
}

// Stat returns information for a filesytem entry.
func (ns *Namespace) Stat(t *ninep.Tstat, q *ninep.Qid) {
	e, ok := ns.dict[q.Path]
	if !ok {
		t.Err(errNoFile)
	} else {
		t.Respond(e.ref)
	}
}

//----------------------------------------------------------------------

// StatusNamespace builds the read-only status tree served to 9p
// clients:
//
//	/readme        short description
//	/status        link up/down
//	/link/ssid     associated network
//	/link/addr     assigned address
//	/link/security security kind
//	/link/profile  requested iTWT profile
func StatusNamespace(facts *Facts) (*Namespace, error) {
	ns := NewNamespace("sys", "sys")
	linkStr := func(pick func(LinkFacts) string) File {
		return NewFuncFile(func() ([]byte, error) {
			link, up := facts.Link()
			if !up {
				return []byte("-\n"), nil
			}
			return []byte(pick(link) + "\n"), nil
		})
	}
	if err := ns.NewFile("/readme", 0444, NewTextFile("twtsh station status\n")); err != nil {
		return nil, err
	}
	if err := ns.NewFile("/status", 0444, NewFuncFile(func() ([]byte, error) {
		if _, up := facts.Link(); up {
			return []byte("up\n"), nil
		}
		return []byte("down\n"), nil
	})); err != nil {
		return nil, err
	}
	if err := ns.NewDir("/link", 0555); err != nil {
		return nil, err
	}
	files := map[string]File{
		"/link/ssid":     linkStr(func(l LinkFacts) string { return l.SSID }),
		"/link/addr":     linkStr(func(l LinkFacts) string { return l.Addr.String() }),
		"/link/security": linkStr(func(l LinkFacts) string { return l.Security.String() }),
		"/link/profile":  linkStr(func(l LinkFacts) string { return l.Profile.String() }),
	}
	for path, impl := range files {
		if err := ns.NewFile(path, 0444, impl); err != nil {
			return nil, fmt.Errorf("status namespace: %w", err)
		}
	}
	return ns, nil
}
