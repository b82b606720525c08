// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package ply implements the core loader of this module: a streaming
// reader for the PLY polygon file format (ASCII, binary little-endian
// and binary big-endian), producing a lazy sequence of chunk.Data
// suitable for upload to a graphics pipeline.
//
// Load begins a session (parsing the header and locating the
// vertex/face data once), returning a meshio.Iterator that drives the
// rest of the work lazily, one Next call at a time. A Loader accepts a
// new Load once its session has ended, but the session closes the
// attached reader when it ends, so a file-backed reader has to be
// replaced through Attach before the next Load.
package ply

import (
	"io"
	"sync"

	"github.com/go-kit/log/level"

	"github.com/gviegas/meshload/chunk"
	"github.com/gviegas/meshload/meshio"
	"github.com/gviegas/meshload/stream"
)

// Loader is a reusable PLY loader bound to a single byte reader. It
// accepts at most one active session at a time (meshio.Locked).
type Loader struct {
	r    stream.Reader
	opts meshio.Options

	mu     sync.Mutex
	locked bool
}

// NewLoader creates a Loader with no reader attached; call Attach
// before Load, or use Open for the common file-path case.
func NewLoader(opts meshio.Options) *Loader {
	return &Loader{opts: meshio.Normalize(opts)}
}

// Attach binds r as the byte source for subsequent Load calls.
// Attaching a new reader while a session is active has no effect on
// that session; it only affects the next Load.
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

// Load begins a new loading session: Opened -> HeaderParsed ->
// StreamInitialized (§4.5). It fails with meshio.NotReady if no
// reader has been attached, or meshio.Locked if a previous session on
// this Loader is still active (not yet drained or closed).
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

	s, err := newSession(l, l.r, l.opts, listener)
	if err != nil {
		return nil, err
	}
	l.locked = true
	return s, nil
}

func (l *Loader) unlock() {
	l.mu.Lock()
	l.locked = false
	l.mu.Unlock()
}

// state is the Iterator Driver's session state machine (§4.5).
type state uint8

const (
	stOpened state = iota
	stHeaderParsed
	stStreamInitialized
	stEmitting
	stDrained
	stClosed
)

// session implements meshio.Iterator for one PLY loading session.
type session struct {
	loader   *Loader
	r        stream.Reader
	opts     meshio.Options
	listener meshio.Listener

	header     *Header
	vertexElem *Element
	faceElem   *Element

	vertexProps []installedProperty
	faceProps   []installedProperty

	firstVertexPos int64
	vertexDataSize int64 // binary only

	fetcher Fetcher

	colorComponents int
	hasNormals      bool

	currentFace int64
	faceCount   int64

	state state

	buf   scratch
	slots vertexSlots

	faceIndexBuf []int64
	prevListLen  int32

	startNotified bool
}

func newSession(loader *Loader, r stream.Reader, opts meshio.Options, listener meshio.Listener) (*session, error) {
	header, err := parseHeader(r)
	if err != nil {
		return nil, err
	}
	s := &session{
		loader:   loader,
		r:        r,
		opts:     opts,
		listener: listener,
		header:   header,
		state:    stHeaderParsed,
	}

	vertexElem, ok := header.VertexElement()
	if !ok {
		return nil, corrupt("missing vertex element")
	}
	faceElem, ok := header.FaceElement()
	if !ok {
		return nil, corrupt("missing face element")
	}
	s.vertexElem, s.faceElem = vertexElem, faceElem
	s.vertexProps = installProperties(header.Mode, vertexElem.Properties)
	s.faceProps = installProperties(header.Mode, faceElem.Properties)
	s.colorComponents = countColorComponents(s.vertexProps)
	s.hasNormals = hasNormalProperties(s.vertexProps)
	s.faceCount = faceElem.Count

	var firstFacePos int64
	if header.Mode == ASCII {
		fvp, ffp, err := locateASCII(r, header)
		if err != nil {
			return nil, err
		}
		s.firstVertexPos, firstFacePos = fvp, ffp
		s.fetcher = newASCIIFetcher(r, s.firstVertexPos, vertexElem.Count, opts.MaxStreamPositions, s.vertexProps)
	} else {
		s.firstVertexPos = r.Pos()
		vds, err := vertexDataSize(vertexElem.Properties)
		if err != nil {
			return nil, err
		}
		s.vertexDataSize = vds
		firstFacePos = s.firstVertexPos + vertexElem.Count*vds
		s.fetcher = newBinaryFetcher(r, s.firstVertexPos, vds, vertexElem.Count)
	}

	if _, err := r.Seek(firstFacePos, io.SeekStart); err != nil {
		return nil, ioErr("seek to first face", err)
	}
	s.state = stStreamInitialized
	return s, nil
}

// countColorComponents reports how many of red, green, blue, alpha are
// declared on the vertex element, in that order.
func countColorComponents(props []installedProperty) int {
	var red, green, blue, alpha bool
	for _, p := range props {
		if p.IsList {
			continue
		}
		switch roleFor(p.Name) {
		case roleRed:
			red = true
		case roleGreen:
			green = true
		case roleBlue:
			blue = true
		case roleAlpha:
			alpha = true
		}
	}
	n := 0
	for _, present := range [4]bool{red, green, blue, alpha} {
		if present {
			n++
		}
	}
	return n
}

// hasNormalProperties reports whether the vertex element declares any
// of nx, ny, nz.
func hasNormalProperties(props []installedProperty) bool {
	for _, p := range props {
		if p.IsList {
			continue
		}
		switch roleFor(p.Name) {
		case roleNX, roleNY, roleNZ:
			return true
		}
	}
	return false
}

// locateASCII scans the header-declared elements in on-disk order,
// skipping over each element's instances, until both the vertex and
// face elements have been passed (§4.5). Scanning stops as soon as the
// face element's start position is recorded: nothing past that point
// is needed by this core.
func locateASCII(r stream.Reader, header *Header) (firstVertexPos, firstFacePos int64, err error) {
	firstVertexPos, firstFacePos = -1, -1
	for i := range header.Elements {
		e := &header.Elements[i]
		pos := r.Pos()
		switch e.Name {
		case "vertex":
			firstVertexPos = pos
		case "face":
			firstFacePos = pos
			return firstVertexPos, firstFacePos, nil
		}
		installed := installProperties(header.Mode, e.Properties)
		var buf scratch
		for n := int64(0); n < e.Count; n++ {
			if err := skipInstance(r, &buf, installed); err != nil {
				return 0, 0, err
			}
		}
	}
	return 0, 0, corrupt("missing face element")
}

// skipInstance decodes and discards one instance of props, advancing
// r past it without extracting any value.
func skipInstance(r stream.Reader, buf *scratch, props []installedProperty) error {
	for _, p := range props {
		if !p.IsList {
			if err := p.decode(r, buf); err != nil {
				return err
			}
			continue
		}
		if err := p.lengthDecode(r, buf); err != nil {
			return err
		}
		var ls vertexSlots
		p.lengthExtract(buf, &ls)
		for k := int32(0); k < ls.listLen; k++ {
			if err := p.decode(r, buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// HasNext implements meshio.Iterator.
func (s *session) HasNext() bool {
	if s.state == stClosed || s.state == stDrained {
		return false
	}
	return s.currentFace < s.faceCount
}

// Next implements meshio.Iterator, driving the face-reading loop of
// §4.5 until the current chunk is full or the file is exhausted.
func (s *session) Next() (*chunk.Data, error) {
	if s.state == stClosed || s.state == stDrained {
		return nil, meshio.NewError(meshio.NotAvailable, "iterator drained")
	}
	if s.currentFace >= s.faceCount {
		return nil, meshio.NewError(meshio.NotAvailable, "iterator drained")
	}
	if !s.startNotified {
		s.listener.OnLoadStart(s)
		s.startNotified = true
	}
	s.state = stEmitting

	packer := chunk.NewPacker(s.opts.MaxVerticesInChunk, s.colorComponents, s.hasNormals, s.opts.AllowDuplicateVertices)

	progressStep := int64(s.opts.ProgressDelta * float64(s.faceCount))
	if progressStep < 1 {
		progressStep = 1
	}

	for s.currentFace < s.faceCount {
		faceStartPos := s.r.Pos()
		listIndices, savedPos, overflowed, err := s.readFaceIndices(packer, faceStartPos)
		if err != nil {
			return nil, s.fail(err)
		}
		if overflowed {
			break
		}
		if err := s.packFace(packer, listIndices, savedPos); err != nil {
			return nil, s.fail(err)
		}
		s.currentFace++
		if s.currentFace%progressStep == 0 {
			s.listener.OnLoadProgress(s, float64(s.currentFace)/float64(s.faceCount))
		}
	}

	d := packer.Finish()
	if s.currentFace >= s.faceCount {
		s.listener.OnLoadEnd(s)
		s.r.Close()
		s.state = stClosed
		s.loader.unlock()
	}
	return d, nil
}

// readFaceIndices reads one face instance's properties, returning the
// decoded index list (the single list property on the face element;
// §6), the stream position immediately after it, and whether the
// chunk-fullness test requires deferring this face to the next chunk.
func (s *session) readFaceIndices(packer *chunk.Packer, faceStartPos int64) (listIndices []int64, savedPos int64, overflowed bool, err error) {
	for _, p := range s.faceProps {
		if !p.IsList {
			if err := p.decode(s.r, &s.buf); err != nil {
				return nil, 0, false, err
			}
			continue
		}

		if err := p.lengthDecode(s.r, &s.buf); err != nil {
			return nil, 0, false, err
		}
		p.lengthExtract(&s.buf, &s.slots)
		listLen := s.slots.listLen

		if int(listLen) > s.opts.MaxVerticesInChunk {
			return nil, 0, false, corrupt("face list length exceeds chunk capacity")
		}
		if listLen < 3 {
			return nil, 0, false, corrupt("face list length below 3")
		}
		if packer.WouldOverflow(int(listLen)) {
			if _, err := s.r.Seek(faceStartPos, io.SeekStart); err != nil {
				return nil, 0, false, ioErr("seek to face start", err)
			}
			return nil, 0, true, nil
		}

		if listLen == s.prevListLen && cap(s.faceIndexBuf) >= int(listLen) {
			listIndices = s.faceIndexBuf[:listLen]
		} else {
			listIndices = make([]int64, listLen)
			s.faceIndexBuf = listIndices
		}
		s.prevListLen = listLen

		for u := int32(0); u < listLen; u++ {
			if err := p.decode(s.r, &s.buf); err != nil {
				return nil, 0, false, err
			}
			p.extract(&s.buf, &s.slots)
			listIndices[u] = s.slots.faceIndex
		}
	}
	if listIndices == nil {
		return nil, 0, false, corrupt("face element declares no list property")
	}
	return listIndices, s.r.Pos(), false, nil
}

// packFace triangulates listIndices when it names more than a
// triangle, then packs the resulting triangles' vertices into
// packer, deduplicating within the chunk unless disabled. The reader
// is always left at savedPos on return, regardless of whether
// triangulation succeeded (§4.5).
func (s *session) packFace(packer *chunk.Packer, listIndices []int64, savedPos int64) error {
	if len(listIndices) > 3 {
		points := make([][3]float32, len(listIndices))
		for u, orig := range listIndices {
			if err := s.fetchAndDecodeVertex(orig); err != nil {
				return err
			}
			points[u] = [3]float32{s.slots.x, s.slots.y, s.slots.z}
		}
		tris, terr := s.opts.Triangulator.Triangulate(points)
		if terr != nil {
			if _, err := s.r.Seek(savedPos, io.SeekStart); err != nil {
				return ioErr("seek after failed triangulation", err)
			}
			level.Info(s.opts.Logger).Log(
				"msg", "skipping polygon: triangulation failed",
				"face", s.currentFace, "vertices", len(listIndices), "err", terr)
			return nil
		}
		flat := make([]int64, 0, len(tris)*3)
		for _, tri := range tris {
			for _, idx := range tri {
				flat = append(flat, listIndices[idx])
			}
		}
		listIndices = flat
	}

	for _, orig := range listIndices {
		if !s.opts.AllowDuplicateVertices {
			if slot, ok := packer.TryDedup(orig); ok {
				packer.AddExistingVertex(orig, slot)
				continue
			}
		}
		if err := s.fetchAndDecodeVertex(orig); err != nil {
			return err
		}
		packer.AddNewVertex(chunk.Vertex{
			X: s.slots.x, Y: s.slots.y, Z: s.slots.z,
			NX: s.slots.nx, NY: s.slots.ny, NZ: s.slots.nz,
			R: s.slots.red, G: s.slots.green, B: s.slots.blue, A: s.slots.alpha,
			OrigIndex: orig,
		})
	}

	if _, err := s.r.Seek(savedPos, io.SeekStart); err != nil {
		return ioErr("seek after face", err)
	}
	return nil
}

// fetchAndDecodeVertex positions the reader at orig via s.fetcher,
// resets s.slots to the per-vertex defaults (§3), then decodes every
// vertex property into s.slots.
func (s *session) fetchAndDecodeVertex(orig int64) error {
	if err := s.fetcher.Fetch(orig); err != nil {
		return err
	}
	s.slots.resetVertex()
	for _, p := range s.vertexProps {
		if !p.IsList {
			if err := p.decode(s.r, &s.buf); err != nil {
				return err
			}
			p.extract(&s.buf, &s.slots)
			continue
		}
		// Defensive: binary mode already rejected list properties on
		// the vertex element when computing vertexDataSize; this path
		// only runs for an ASCII file that declares one anyway.
		if err := p.lengthDecode(s.r, &s.buf); err != nil {
			return err
		}
		p.lengthExtract(&s.buf, &s.slots)
		for k := int32(0); k < s.slots.listLen; k++ {
			if err := p.decode(s.r, &s.buf); err != nil {
				return err
			}
		}
	}
	return nil
}

// fail terminates the session on an Io or CorruptData error: the
// reader is closed and the loader unlocked so a fresh Load can begin
// (§7).
func (s *session) fail(err error) error {
	s.state = stClosed
	s.r.Close()
	s.loader.unlock()
	return err
}

// Close implements meshio.Iterator.
func (s *session) Close() error {
	if s.state == stClosed {
		return nil
	}
	s.state = stClosed
	s.loader.unlock()
	return s.r.Close()
}
