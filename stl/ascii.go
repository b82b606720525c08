// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package stl

import (
	"io"
	"strconv"
	"strings"

	"github.com/gviegas/meshload/chunk"
	"github.com/gviegas/meshload/meshio"
)

// asciiSession drives an ASCII STL file: the token grammar solid,
// endsolid, facet, normal, outer, loop, vertex, endloop, endfacet,
// case-insensitive (§6). Unlike the binary variant, the triangle count
// is not known up front; HasNext reports true until endsolid or EOF is
// reached.
type asciiSession struct {
	base

	done bool
}

func newASCIISession(b base) (*asciiSession, error) {
	return &asciiSession{base: b}, nil
}

// HasNext implements meshio.Iterator.
func (s *asciiSession) HasNext() bool {
	return !s.closed && !s.done
}

// Next implements meshio.Iterator.
func (s *asciiSession) Next() (*chunk.Data, error) {
	if s.closed || s.done {
		return nil, meshio.NewError(meshio.NotAvailable, "iterator drained")
	}
	s.notifyStart(s)

	packer := chunk.NewPacker(s.opts.MaxVerticesInChunk, 0, true, s.opts.AllowDuplicateVertices)

loop:
	for {
		facetStart := s.r.Pos()
		word, err := s.r.ReadWord()
		if err != nil {
			if err == io.EOF {
				s.done = true
				break
			}
			return nil, s.fail(ioErr("read stl token", err))
		}

		switch strings.ToLower(word) {
		case "solid":
			// Consume the optional name to end of line; harmless if
			// absent (ReadLine just returns an empty remainder).
			s.r.ReadLine()

		case "endsolid":
			s.r.ReadLine()
			s.done = true
			break loop

		case "facet":
			// §9: the chunk-fullness test runs before any vertex of the
			// current facet is read, uniformly for ASCII and binary.
			if packer.WouldOverflow(3) {
				if _, serr := s.r.Seek(facetStart, io.SeekStart); serr != nil {
					return nil, s.fail(ioErr("seek to facet start", serr))
				}
				break loop
			}
			nx, ny, nz, err := s.readFacetNormal()
			if err != nil {
				return nil, s.fail(err)
			}
			if err := s.expectWord("outer"); err != nil {
				return nil, s.fail(err)
			}
			if err := s.expectWord("loop"); err != nil {
				return nil, s.fail(err)
			}
			for v := 0; v < 3; v++ {
				if err := s.expectWord("vertex"); err != nil {
					return nil, s.fail(err)
				}
				x, y, z, err := s.readXYZ()
				if err != nil {
					return nil, s.fail(err)
				}
				s.vertCounter++
				packer.AddNewVertex(chunk.Vertex{
					X: x, Y: y, Z: z,
					NX: nx, NY: ny, NZ: nz,
					OrigIndex: s.vertCounter,
				})
			}
			if err := s.expectWord("endloop"); err != nil {
				return nil, s.fail(err)
			}
			if err := s.expectWord("endfacet"); err != nil {
				return nil, s.fail(err)
			}

		default:
			return nil, s.fail(corrupt("unrecognized stl token: " + word))
		}
	}

	d := packer.Finish()
	if s.done {
		if err := s.finish(s); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (s *asciiSession) expectWord(want string) error {
	word, err := s.r.ReadWord()
	if err != nil {
		return ioErr("read stl token", err)
	}
	if !strings.EqualFold(word, want) {
		return corrupt("expected '" + want + "', got '" + word + "'")
	}
	return nil
}

func (s *asciiSession) readFacetNormal() (x, y, z float32, err error) {
	if err = s.expectWord("normal"); err != nil {
		return
	}
	return s.readXYZ()
}

func (s *asciiSession) readXYZ() (x, y, z float32, err error) {
	if x, err = s.readFloatWord(); err != nil {
		return
	}
	if y, err = s.readFloatWord(); err != nil {
		return
	}
	z, err = s.readFloatWord()
	return
}

func (s *asciiSession) readFloatWord() (float32, error) {
	word, err := s.r.ReadWord()
	if err != nil {
		return 0, ioErr("read stl number", err)
	}
	v, err := strconv.ParseFloat(word, 32)
	if err != nil {
		return 0, corruptWrap("parse stl number '"+word+"'", err)
	}
	return float32(v), nil
}
