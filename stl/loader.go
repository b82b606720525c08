// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package stl implements the secondary STL surface: ASCII and binary
// variants of the stereolithography triangle-mesh format, sharing the
// same meshio.Iterator/meshio.Options contract as the ply package.
//
// Grounded on the retrieval pack's STL reader (see DESIGN.md): the
// same sniff-then-dispatch shape and ASCII token grammar, reworked
// into the lazy, chunked Iterator this module's core defines instead
// of building an in-memory mesh.
package stl

import (
	"errors"
	"io"
	"sync"

	"github.com/gviegas/meshload/meshio"
	"github.com/gviegas/meshload/stream"
)

func corrupt(reason string) error {
	return meshio.NewError(meshio.CorruptData, reason)
}

func corruptWrap(reason string, cause error) error {
	return meshio.WrapError(meshio.CorruptData, reason, cause)
}

// ioErr wraps a read or seek failure as Io, except that the stream
// ending before the declared data is CorruptData.
func ioErr(reason string, cause error) error {
	if errors.Is(cause, io.EOF) || errors.Is(cause, io.ErrUnexpectedEOF) {
		return meshio.WrapError(meshio.CorruptData, reason, cause)
	}
	return meshio.WrapError(meshio.Io, reason, cause)
}

// Loader is a reusable STL loader bound to a single byte reader. Like
// ply.Loader, it accepts at most one active session at a time.
type Loader struct {
	r    stream.Reader
	opts meshio.Options

	mu     sync.Mutex
	locked bool
}

// NewLoader creates a Loader with no reader attached.
func NewLoader(opts meshio.Options) *Loader {
	return &Loader{opts: meshio.Normalize(opts)}
}

// Attach binds r as the byte source for subsequent Load calls.
func (l *Loader) Attach(r stream.Reader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = r
}

// Open creates a Loader already attached to the named file.
func Open(path string, opts meshio.Options) (*Loader, error) {
	r, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	l := NewLoader(opts)
	l.Attach(r)
	return l, nil
}

// Load sniffs the format (ASCII vs. binary, by the first 5 bytes,
// case-insensitive "solid" vs. anything else — §6) and begins a
// session.
func (l *Loader) Load(listener meshio.Listener) (meshio.Iterator, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.r == nil {
		return nil, meshio.NewError(meshio.NotReady, "no file attached")
	}
	if l.locked {
		return nil, meshio.NewError(meshio.Locked, "a loading session is already active")
	}
	if listener == nil {
		listener = meshio.NopListener{}
	}

	if _, err := l.r.Seek(0, io.SeekStart); err != nil {
		return nil, ioErr("rewind before load", err)
	}

	isASCII, err := sniff(l.r)
	if err != nil {
		return nil, err
	}

	b := base{loader: l, r: l.r, opts: l.opts, listener: listener}
	var it meshio.Iterator
	if isASCII {
		it, err = newASCIISession(b)
	} else {
		it, err = newBinarySession(b)
	}
	if err != nil {
		return nil, err
	}
	l.locked = true
	return it, nil
}

func (l *Loader) unlock() {
	l.mu.Lock()
	l.locked = false
	l.mu.Unlock()
}

// sniff reports whether the stream (left positioned at offset 0)
// holds ASCII STL: the first 5 bytes case-insensitively equal
// "solid". Anything else, including a short read, is binary.
func sniff(r stream.Reader) (ascii bool, err error) {
	var buf [5]byte
	if err := r.ReadFull(buf[:]); err != nil {
		if _, seekErr := r.Seek(0, io.SeekStart); seekErr != nil {
			return false, ioErr("rewind after sniff", seekErr)
		}
		return false, nil
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false, ioErr("rewind after sniff", err)
	}
	return isSolidPrefix(buf), nil
}

func isSolidPrefix(buf [5]byte) bool {
	want := [5]byte{'s', 'o', 'l', 'i', 'd'}
	for i, b := range buf {
		if lower(b) != want[i] {
			return false
		}
	}
	return true
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// base holds the state shared by the ASCII and binary sessions: the
// owning Loader (for unlock), the byte reader, options, listener, and
// the one-shot start/end notification bookkeeping.
type base struct {
	loader   *Loader
	r        stream.Reader
	opts     meshio.Options
	listener meshio.Listener

	startNotified bool
	closed        bool
	vertCounter   int64
}

func (b *base) notifyStart(it meshio.Iterator) {
	if !b.startNotified {
		b.listener.OnLoadStart(it)
		b.startNotified = true
	}
}

// finish is called when the final chunk has been produced.
func (b *base) finish(it meshio.Iterator) error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.listener.OnLoadEnd(it)
	err := b.r.Close()
	b.loader.unlock()
	return err
}

// fail terminates the session on an Io or CorruptData error.
func (b *base) fail(err error) error {
	if !b.closed {
		b.closed = true
		b.r.Close()
		b.loader.unlock()
	}
	return err
}

// Close implements meshio.Iterator.
func (b *base) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.loader.unlock()
	return b.r.Close()
}

// progressStep returns the face/triangle step at which progress
// notifications fire, at least 1 (§4.5).
func progressStep(delta float64, total int64) int64 {
	step := int64(delta * float64(total))
	if step < 1 {
		step = 1
	}
	return step
}
