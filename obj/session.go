// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package obj

import (
	"math"

	"github.com/go-kit/log/level"

	"github.com/gviegas/meshload/chunk"
	"github.com/gviegas/meshload/meshio"
)

// resolvedVertex is one entry of a session's deduplicated vertex
// table, built once in newSession from the parsed doc.
type resolvedVertex struct {
	x, y, z    float32
	nx, ny, nz float32
}

// vertKey identifies a unique (position, normal) combination. normKey
// is the real vn index when the face statement declared one; for a
// corner with no explicit vn, it is encoded as -1-faceIndex so that
// the face-flat normal computed for that face (which generally
// differs between faces sharing a position) never collides with
// another face's flat-normal vertices, while corners within the same
// face that reuse a position still collapse to one entry.
type vertKey struct {
	pos     int32
	normKey int32
}

// session implements meshio.Iterator over a fully-parsed OBJ doc.
type session struct {
	loader   *Loader
	opts     meshio.Options
	listener meshio.Listener

	resolved []resolvedVertex
	faceOrig [][]int64

	currentFace int
	faceCount   int

	closed        bool
	startNotified bool
}

func newSession(loader *Loader, opts meshio.Options, listener meshio.Listener, d *doc) *session {
	resolved, faceOrig := buildVertices(d)
	return &session{
		loader:    loader,
		opts:      opts,
		listener:  listener,
		resolved:  resolved,
		faceOrig:  faceOrig,
		faceCount: len(d.faces),
	}
}

// buildVertices assigns a synthetic, deduplicated OrigIndex to every
// distinct (position, normal) combination referenced across all
// faces, resolving each into the (x,y,z,nx,ny,nz) tuple chunk.Vertex
// needs. A corner with no explicit vn gets the flat normal of its
// face (Newell's method over that face's positions), computed once
// per face.
func buildVertices(d *doc) ([]resolvedVertex, [][]int64) {
	resolved := make([]resolvedVertex, 0, len(d.positions))
	keyToIdx := make(map[vertKey]int64, len(d.positions))
	faceOrig := make([][]int64, len(d.faces))

	for fi := range d.faces {
		f := &d.faces[fi]
		var flat [3]float32
		needFlat := false
		for _, vr := range f.verts {
			if vr.normIdx < 0 {
				needFlat = true
				break
			}
		}
		if needFlat {
			flat = faceFlatNormal(d.positions, f.verts)
		}

		orig := make([]int64, len(f.verts))
		for i, vr := range f.verts {
			normKey := vr.normIdx
			var nx, ny, nz float32
			if vr.normIdx >= 0 {
				n := d.normals[vr.normIdx]
				nx, ny, nz = n[0], n[1], n[2]
			} else {
				normKey = int32(-1 - fi)
				nx, ny, nz = flat[0], flat[1], flat[2]
			}
			key := vertKey{pos: vr.posIdx, normKey: normKey}
			idx, ok := keyToIdx[key]
			if !ok {
				p := d.positions[vr.posIdx]
				idx = int64(len(resolved))
				resolved = append(resolved, resolvedVertex{x: p[0], y: p[1], z: p[2], nx: nx, ny: ny, nz: nz})
				keyToIdx[key] = idx
			}
			orig[i] = idx
		}
		faceOrig[fi] = orig
	}
	return resolved, faceOrig
}

// faceFlatNormal computes the unit normal of a (possibly non-planar)
// polygon via Newell's method, the same approach the core's
// triangulate package uses to orient n-gons before clipping.
func faceFlatNormal(positions [][3]float32, verts []vertRef) [3]float32 {
	var nx, ny, nz float32
	n := len(verts)
	for i := 0; i < n; i++ {
		a := positions[verts[i].posIdx]
		b := positions[verts[(i+1)%n].posIdx]
		nx += (a[1] - b[1]) * (a[2] + b[2])
		ny += (a[2] - b[2]) * (a[0] + b[0])
		nz += (a[0] - b[0]) * (a[1] + b[1])
	}
	length := float32(math.Sqrt(float64(nx*nx + ny*ny + nz*nz)))
	if length == 0 {
		return [3]float32{0, 0, 1}
	}
	return [3]float32{nx / length, ny / length, nz / length}
}

// HasNext implements meshio.Iterator.
func (s *session) HasNext() bool {
	if s.closed {
		return false
	}
	return s.currentFace < s.faceCount
}

// Next implements meshio.Iterator, packing whole faces (triangulating
// any with more than 3 corners) until the chunk is full or the doc is
// exhausted.
func (s *session) Next() (*chunk.Data, error) {
	if s.closed || s.currentFace >= s.faceCount {
		return nil, meshio.NewError(meshio.NotAvailable, "iterator drained")
	}
	if !s.startNotified {
		s.listener.OnLoadStart(s)
		s.startNotified = true
	}

	packer := chunk.NewPacker(s.opts.MaxVerticesInChunk, 0, true, s.opts.AllowDuplicateVertices)
	step := progressStep(s.opts.ProgressDelta, int64(s.faceCount))

	for s.currentFace < s.faceCount {
		orig := s.faceOrig[s.currentFace]
		if len(orig) > s.opts.MaxVerticesInChunk {
			return nil, s.fail(corrupt("face corner count exceeds chunk capacity"))
		}
		if packer.WouldOverflow(len(orig)) {
			break
		}
		if err := s.packFace(packer, s.currentFace, orig); err != nil {
			return nil, s.fail(err)
		}
		s.currentFace++
		if int64(s.currentFace)%step == 0 {
			s.listener.OnLoadProgress(s, float64(s.currentFace)/float64(s.faceCount))
		}
	}

	d := packer.Finish()
	if s.currentFace >= s.faceCount {
		s.listener.OnLoadEnd(s)
		s.closed = true
		s.loader.unlock()
	}
	return d, nil
}

// packFace triangulates orig's corners when the face is an n-gon, then
// packs each resulting triangle's vertices into packer, deduplicating
// within the chunk unless disabled.
func (s *session) packFace(packer *chunk.Packer, faceIdx int, orig []int64) error {
	indices := orig
	if len(orig) > 3 {
		points := make([][3]float32, len(orig))
		for i, idx := range orig {
			rv := s.resolved[idx]
			points[i] = [3]float32{rv.x, rv.y, rv.z}
		}
		tris, err := s.opts.Triangulator.Triangulate(points)
		if err != nil {
			level.Info(s.opts.Logger).Log(
				"msg", "skipping polygon: triangulation failed",
				"face", faceIdx, "corners", len(orig), "err", err)
			return nil
		}
		flat := make([]int64, 0, len(tris)*3)
		for _, tri := range tris {
			for _, idx := range tri {
				flat = append(flat, orig[idx])
			}
		}
		indices = flat
	}

	for _, idx := range indices {
		if !s.opts.AllowDuplicateVertices {
			if slot, ok := packer.TryDedup(idx); ok {
				packer.AddExistingVertex(idx, slot)
				continue
			}
		}
		rv := s.resolved[idx]
		packer.AddNewVertex(chunk.Vertex{
			X: rv.x, Y: rv.y, Z: rv.z,
			NX: rv.nx, NY: rv.ny, NZ: rv.nz,
			OrigIndex: idx,
		})
	}
	return nil
}

func (s *session) fail(err error) error {
	s.closed = true
	s.loader.unlock()
	return err
}

// Close implements meshio.Iterator.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.loader.unlock()
	return nil
}

func progressStep(delta float64, total int64) int64 {
	step := int64(delta * float64(total))
	if step < 1 {
		step = 1
	}
	return step
}
