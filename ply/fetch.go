// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ply

import (
	"io"

	"github.com/google/btree"

	"github.com/gviegas/meshload/stream"
)

// Fetcher positions the reader so that a subsequent sequence of
// per-vertex property reads yields the vertex at origIdx (§4.4).
type Fetcher interface {
	Fetch(origIdx int64) error
}

// binaryFetcher implements Fetcher with constant-stride arithmetic:
// every vertex record has the same on-disk size, so no state beyond
// that size is needed.
type binaryFetcher struct {
	r              stream.Reader
	firstVertexPos int64
	vertexDataSize int64
	vertexCount    int64
}

func newBinaryFetcher(r stream.Reader, firstVertexPos, vertexDataSize, vertexCount int64) *binaryFetcher {
	return &binaryFetcher{r, firstVertexPos, vertexDataSize, vertexCount}
}

func (f *binaryFetcher) Fetch(i int64) error {
	if i < 0 || i >= f.vertexCount {
		return corrupt("vertex index out of range")
	}
	target := f.firstVertexPos + i*f.vertexDataSize
	if f.r.Pos() == target {
		return nil
	}
	if _, err := f.r.Seek(target, io.SeekStart); err != nil {
		return ioErr("seek to vertex", err)
	}
	return nil
}

// vertexDataSize sums size_of(value_type) across a binary vertex
// element's properties, rejecting list properties: this core does not
// support random-access indexing into variable-length vertex records
// (§4.4).
func vertexDataSize(props []Property) (int64, error) {
	var n int64
	for _, p := range props {
		if p.IsList {
			return 0, corrupt("list property on vertex element in binary mode")
		}
		n += int64(p.ValueType.size())
	}
	return n, nil
}

// posEntry is one (original vertex index -> stream position) cache
// entry, ordered by idx.
type posEntry struct {
	idx int64
	pos int64
}

func lessPosEntry(a, b posEntry) bool { return a.idx < b.idx }

// asciiFetcher implements Fetcher with a linear scan from the nearest
// known checkpoint, backed by a persistent orig_idx -> stream_pos
// cache. The cache supports floor lookups ("greatest key <= i") via
// github.com/google/btree's ordered-map API, which a flat bitmap
// cannot answer (see DESIGN.md). On overflow the smallest key is
// dropped, trading worst-case floor-scan
// distance for cheap, order-independent inserts (§9).
type asciiFetcher struct {
	r              stream.Reader
	firstVertexPos int64
	vertexCount    int64
	maxPositions   int
	vertexProps    []installedProperty
	buf            scratch
	tree           *btree.BTreeG[posEntry]
}

func newASCIIFetcher(r stream.Reader, firstVertexPos, vertexCount int64, maxPositions int, vertexProps []installedProperty) *asciiFetcher {
	return &asciiFetcher{
		r:              r,
		firstVertexPos: firstVertexPos,
		vertexCount:    vertexCount,
		maxPositions:   maxPositions,
		vertexProps:    vertexProps,
		tree:           btree.NewG(32, lessPosEntry),
	}
}

func (f *asciiFetcher) record(idx, pos int64) {
	if _, existed := f.tree.ReplaceOrInsert(posEntry{idx: idx, pos: pos}); !existed {
		if f.tree.Len() > f.maxPositions {
			f.tree.DeleteMin()
		}
	}
}

func (f *asciiFetcher) skipVertex() error {
	for _, p := range f.vertexProps {
		if p.IsList {
			if err := p.lengthDecode(f.r, &f.buf); err != nil {
				return err
			}
			var ls vertexSlots
			p.lengthExtract(&f.buf, &ls)
			for k := int32(0); k < ls.listLen; k++ {
				if err := p.decode(f.r, &f.buf); err != nil {
					return err
				}
			}
			continue
		}
		if err := p.decode(f.r, &f.buf); err != nil {
			return err
		}
	}
	return nil
}

func (f *asciiFetcher) Fetch(i int64) error {
	if i < 0 || i >= f.vertexCount {
		return corrupt("vertex index out of range")
	}

	startIdx, startPos := int64(0), f.firstVertexPos
	f.tree.DescendLessOrEqual(posEntry{idx: i}, func(e posEntry) bool {
		startIdx, startPos = e.idx, e.pos
		return false
	})

	if f.r.Pos() != startPos {
		if _, err := f.r.Seek(startPos, io.SeekStart); err != nil {
			return ioErr("seek to vertex checkpoint", err)
		}
	}

	for j := startIdx; j < i; j++ {
		f.record(j, f.r.Pos())
		if err := f.skipVertex(); err != nil {
			return err
		}
	}
	f.record(i, f.r.Pos())
	return nil
}
