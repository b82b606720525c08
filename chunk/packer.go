// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package chunk

import (
	"math"

	"github.com/gviegas/meshload/linear"
)

// Vertex is the set of per-vertex values a loader has decoded and
// wants appended to the chunk currently being packed.
type Vertex struct {
	X, Y, Z    float32
	NX, NY, NZ float32
	R, G, B, A int16

	// OrigIndex is the vertex's index as declared by the source file
	// (e.g. the PLY face element's vertex_indices entry, prior to any
	// triangulation remapping).
	OrigIndex int64
}

// Packer accumulates vertices and indices into fixed-capacity arrays,
// deduplicating within a chunk, tracking the running AABB, and
// emitting a Data once full or once the caller is done for this
// session.
//
// A Packer can be reused across chunks: Init resets it for the next
// chunk without reallocating the backing
// arrays when possible.
type Packer struct {
	capacity        int
	colorComponents int
	hasNormals      bool
	allowDuplicates bool

	coords  []float32
	normals []float32
	colors  []int16

	chunkIndices    []int32
	originalIndices []int64

	vertsInChunk   int
	indicesInChunk int

	origToChunkIndex map[int64]int32

	min, max linear.V3
}

// NewPacker creates a Packer with the given per-chunk vertex capacity,
// number of color components (0 if the source has no vertex colors,
// otherwise 1-4), and whether the source declares vertex normals.
func NewPacker(capacity, colorComponents int, hasNormals, allowDuplicates bool) *Packer {
	p := &Packer{
		capacity:        capacity,
		colorComponents: colorComponents,
		hasNormals:      hasNormals,
		allowDuplicates: allowDuplicates,
	}
	p.Init()
	return p
}

// Init resets the packer for a new chunk. It corresponds to the
// Iterator Driver's init_chunk_arrays, called at the start of every
// Next call.
func (p *Packer) Init() {
	if cap(p.coords) < 3*p.capacity {
		p.coords = make([]float32, 0, 3*p.capacity)
		if p.hasNormals {
			p.normals = make([]float32, 0, 3*p.capacity)
		}
		p.colors = make([]int16, 0, p.colorComponents*p.capacity)
	} else {
		p.coords = p.coords[:0]
		p.normals = p.normals[:0]
		p.colors = p.colors[:0]
	}
	if cap(p.chunkIndices) < p.capacity {
		p.chunkIndices = make([]int32, 0, p.capacity)
		p.originalIndices = make([]int64, 0, p.capacity)
	} else {
		p.chunkIndices = p.chunkIndices[:0]
		p.originalIndices = p.originalIndices[:0]
	}
	p.vertsInChunk = 0
	p.indicesInChunk = 0
	p.origToChunkIndex = make(map[int64]int32, p.capacity)
	posInf := float32(math.Inf(1))
	negInf := float32(math.Inf(-1))
	p.min = linear.V3{posInf, posInf, posInf}
	p.max = linear.V3{negInf, negInf, negInf}
}

// WouldOverflow reports whether appending listLen more vertices would
// exceed the chunk's capacity. The Iterator Driver must check this
// before reading any property of the current face, so that a face is
// never split across two chunks.
func (p *Packer) WouldOverflow(listLen int) bool {
	return p.vertsInChunk+listLen > p.capacity
}

// TryDedup returns the chunk-local slot previously recorded for
// origIdx, if deduplication is enabled and origIdx was already added
// to the current chunk.
func (p *Packer) TryDedup(origIdx int64) (slot int32, ok bool) {
	if p.allowDuplicates {
		return 0, false
	}
	slot, ok = p.origToChunkIndex[origIdx]
	return
}

// AddNewVertex appends v's position, normal and (up to
// colorComponents) color channels to the chunk, updates the running
// AABB, and records an index entry pointing at the new vertex slot.
func (p *Packer) AddNewVertex(v Vertex) {
	slot := int32(p.vertsInChunk)
	p.coords = append(p.coords, v.X, v.Y, v.Z)
	if p.hasNormals {
		p.normals = append(p.normals, v.NX, v.NY, v.NZ)
	}

	comps := [4]int16{v.R, v.G, v.B, v.A}
	p.colors = append(p.colors, comps[:p.colorComponents]...)

	pos := linear.V3{v.X, v.Y, v.Z}
	p.min.Min(&p.min, &pos)
	p.max.Max(&p.max, &pos)

	p.origToChunkIndex[v.OrigIndex] = slot
	p.appendIndex(slot, v.OrigIndex)
	p.vertsInChunk++
}

// AddExistingVertex records an index entry reusing a previously packed
// slot, without appending new vertex data. slot must have come from
// TryDedup for the same original index.
func (p *Packer) AddExistingVertex(origIndex int64, slot int32) {
	p.appendIndex(slot, origIndex)
}

func (p *Packer) appendIndex(slot int32, origIndex int64) {
	if p.indicesInChunk >= cap(p.chunkIndices) {
		grown := make([]int32, len(p.chunkIndices), cap(p.chunkIndices)+p.capacity)
		copy(grown, p.chunkIndices)
		p.chunkIndices = grown
		grownOrig := make([]int64, len(p.originalIndices), cap(p.originalIndices)+p.capacity)
		copy(grownOrig, p.originalIndices)
		p.originalIndices = grownOrig
	}
	p.chunkIndices = p.chunkIndices[:p.indicesInChunk+1]
	p.originalIndices = p.originalIndices[:p.indicesInChunk+1]
	p.chunkIndices[p.indicesInChunk] = slot
	p.originalIndices[p.indicesInChunk] = origIndex
	p.indicesInChunk++
}

// VertsInChunk returns the number of vertex rows packed so far into
// the current chunk.
func (p *Packer) VertsInChunk() int { return p.vertsInChunk }

// Finish trims each array to its exact size, drops categories that
// never received data, and returns the packaged Data. The packer
// remains usable; call Init before packing the next chunk.
func (p *Packer) Finish() *Data {
	d := &Data{}
	if p.vertsInChunk > 0 {
		d.Coords = append([]float32(nil), p.coords...)
		if p.hasNormals {
			d.Normals = append([]float32(nil), p.normals...)
		}
		if p.colorComponents > 0 {
			d.Colors = append([]int16(nil), p.colors...)
			d.ColorComponents = p.colorComponents
		}
		d.Box = AABB{Min: p.min, Max: p.max}
	}
	if p.indicesInChunk > 0 {
		d.Indices = make([]int32, p.indicesInChunk)
		copy(d.Indices, p.chunkIndices[:p.indicesInChunk])
	}
	return d
}
