// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package obj implements the secondary OBJ surface: Wavefront OBJ
// text geometry, plus best-effort parsing of a sibling .mtl material
// library referenced by a mtllib directive.
//
// Like stl, it shares meshio's Iterator/Options/Error contract with
// the ply core. Unlike ply, it has no binary encoding, no property
// dispatch table and no random-access vertex fetcher to speak of: the
// whole geometry stream is parsed once, eagerly, into an in-memory
// doc, and the Iterator then walks that doc's faces lazily, chunk by
// chunk, reusing chunk.Packer exactly as the ply and stl sessions do.
package obj

import (
	"io"
	"path/filepath"
	"sync"

	"github.com/go-kit/log/level"

	"github.com/gviegas/meshload/meshio"
	"github.com/gviegas/meshload/stream"
)

func corrupt(reason string) error {
	return meshio.NewError(meshio.CorruptData, reason)
}

func corruptWrap(reason string, cause error) error {
	return meshio.WrapError(meshio.CorruptData, reason, cause)
}

func ioErr(reason string, cause error) error {
	return meshio.WrapError(meshio.Io, reason, cause)
}

// Loader is a reusable OBJ loader bound to a single byte reader.
type Loader struct {
	r       stream.Reader
	baseDir string // "" unless Open was used; enables mtllib resolution
	opts    meshio.Options

	mu     sync.Mutex
	locked bool

	materials []Material
}

// NewLoader creates a Loader with no reader attached.
func NewLoader(opts meshio.Options) *Loader {
	return &Loader{opts: meshio.Normalize(opts)}
}

// Attach binds r as the byte source for subsequent Load calls. A
// Loader attached this way (rather than via Open) cannot resolve a
// mtllib directive to a sibling file, since it has no path to resolve
// relative to; Materials will be empty after Load.
func (l *Loader) Attach(r stream.Reader) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = r
	l.baseDir = ""
}

// Open creates a Loader already attached to the named file. Its
// directory is used to resolve any mtllib reference in the file.
func Open(path string, opts meshio.Options) (*Loader, error) {
	r, err := stream.Open(path)
	if err != nil {
		return nil, err
	}
	l := NewLoader(opts)
	l.mu.Lock()
	l.r = r
	l.baseDir = filepath.Dir(path)
	l.mu.Unlock()
	return l, nil
}

// Materials returns the material definitions parsed from the most
// recent Load's mtllib file, in file order, or nil if no session has
// completed a load, no mtllib directive was present, no baseDir was
// available to resolve it, or the referenced file did not parse.
// Texture fields are unresolved paths — see Material.
func (l *Loader) Materials() []Material {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.materials
}

// Load parses the whole geometry stream up front, resolves any
// mtllib reference against baseDir when available, and returns an
// Iterator that lazily packs the parsed faces into chunks.
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

	d, err := parseDoc(l.r)
	if err != nil {
		return nil, err
	}

	l.materials = l.resolveMaterials(d)

	s := newSession(l, l.opts, listener, d)
	l.locked = true
	return s, nil
}

// resolveMaterials attempts to open and parse the first mtllib
// reference found in d against baseDir. A missing baseDir, a missing
// file, or a parse failure is logged at Info level and otherwise
// ignored: the referenced material library is an out-of-scope
// collaborator's concern, not a reason to fail the geometry load.
func (l *Loader) resolveMaterials(d *doc) []Material {
	if len(d.mtlLibs) == 0 {
		return nil
	}
	if l.baseDir == "" {
		level.Info(l.opts.Logger).Log("msg", "mtllib not resolved: no base directory", "mtllib", d.mtlLibs[0])
		return nil
	}
	path := filepath.Join(l.baseDir, d.mtlLibs[0])
	mr, err := stream.Open(path)
	if err != nil {
		level.Info(l.opts.Logger).Log("msg", "mtllib not opened", "path", path, "err", err)
		return nil
	}
	defer mr.Close()
	mats, err := parseMTL(mr)
	if err != nil {
		level.Info(l.opts.Logger).Log("msg", "mtllib not parsed", "path", path, "err", err)
		return nil
	}
	return mats
}

func (l *Loader) unlock() {
	l.mu.Lock()
	l.locked = false
	l.mu.Unlock()
}
