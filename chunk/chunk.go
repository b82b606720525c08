// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package chunk implements the fixed-capacity vertex/index batches that
// every mesh loader in this module emits, and the Packer that fills
// them.
//
// The growth strategy for the index arrays mirrors the teacher
// engine's engine/mesh/storage.go meshBuffer.store: rather than
// reallocate on every vertex, the backing slices grow in whole
// capacity-sized steps, trading a little slack memory for amortized
// O(1) appends on the hot path.
package chunk

import "github.com/gviegas/meshload/linear"

// AABB is an axis-aligned bounding box over a chunk's vertex positions.
type AABB struct {
	Min linear.V3
	Max linear.V3
}

// Data is one fixed-capacity batch of mesh data, ready for upload to a
// graphics pipeline. Any category absent from the source file (or from
// a given chunk) is nil: absence is the signal, not a zero-length
// non-nil slice.
type Data struct {
	// Coords holds 3 floats per vertex (x, y, z).
	Coords []float32

	// Normals holds 3 floats per vertex (nx, ny, nz).
	Normals []float32

	// Colors holds ColorComponents int16s per vertex, in the order
	// red, green, blue[, alpha].
	Colors []int16

	// ColorComponents is the number of int16 values per vertex in
	// Colors: one of 0 (Colors absent), 1, 2, 3 or 4.
	ColorComponents int

	// Indices holds one int32 per referenced vertex; its length is
	// always a multiple of 3 (triangles only).
	Indices []int32

	// Box is the AABB over Coords, valid only when Coords is
	// non-empty.
	Box AABB
}

// NumVerts returns the number of vertex rows in the chunk.
func (d *Data) NumVerts() int {
	if len(d.Coords) == 0 {
		return 0
	}
	return len(d.Coords) / 3
}
