// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package stl

import (
	"io"

	"github.com/gviegas/meshload/chunk"
	"github.com/gviegas/meshload/meshio"
	"github.com/gviegas/meshload/stream"
)

// binaryHeaderSize is the length of the STL binary header comment
// block, skipped unread.
const binaryHeaderSize = 80

// binarySession drives a binary STL file: an 80-byte header, a
// little-endian uint32 triangle count, then that many 50-byte records
// of (3×f32 normal, 3×3×f32 vertex, uint16 attribute) — §6.
type binarySession struct {
	base

	triCount int64
	curTri   int64
}

func newBinarySession(b base) (*binarySession, error) {
	if _, err := b.r.Seek(binaryHeaderSize, io.SeekStart); err != nil {
		return nil, ioErr("skip binary header", err)
	}
	n, err := b.r.ReadUint32(stream.LittleEndian)
	if err != nil {
		return nil, ioErr("read triangle count", err)
	}
	return &binarySession{base: b, triCount: int64(n)}, nil
}

// HasNext implements meshio.Iterator.
func (s *binarySession) HasNext() bool {
	if s.closed {
		return false
	}
	return s.curTri < s.triCount
}

// Next implements meshio.Iterator.
func (s *binarySession) Next() (*chunk.Data, error) {
	if s.closed || s.curTri >= s.triCount {
		return nil, meshio.NewError(meshio.NotAvailable, "iterator drained")
	}
	s.notifyStart(s)

	packer := chunk.NewPacker(s.opts.MaxVerticesInChunk, 0, true, s.opts.AllowDuplicateVertices)
	step := progressStep(s.opts.ProgressDelta, s.triCount)

	for s.curTri < s.triCount {
		if packer.WouldOverflow(3) {
			break
		}
		nx, ny, nz, err := s.readVec3()
		if err != nil {
			return nil, s.fail(ioErr("read facet normal", err))
		}
		var pts [3][3]float32
		for v := 0; v < 3; v++ {
			x, y, z, err := s.readVec3()
			if err != nil {
				return nil, s.fail(ioErr("read facet vertex", err))
			}
			pts[v] = [3]float32{x, y, z}
		}
		if _, err := s.r.ReadUint16(stream.LittleEndian); err != nil {
			return nil, s.fail(ioErr("read attribute byte count", err))
		}
		for _, p := range pts {
			s.vertCounter++
			packer.AddNewVertex(chunk.Vertex{
				X: p[0], Y: p[1], Z: p[2],
				NX: nx, NY: ny, NZ: nz,
				OrigIndex: s.vertCounter,
			})
		}
		s.curTri++
		if s.curTri%step == 0 {
			s.listener.OnLoadProgress(s, float64(s.curTri)/float64(s.triCount))
		}
	}

	d := packer.Finish()
	if s.curTri >= s.triCount {
		if err := s.finish(s); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (s *binarySession) readVec3() (x, y, z float32, err error) {
	if x, err = s.r.ReadFloat32(stream.LittleEndian); err != nil {
		return
	}
	if y, err = s.r.ReadFloat32(stream.LittleEndian); err != nil {
		return
	}
	z, err = s.r.ReadFloat32(stream.LittleEndian)
	return
}
