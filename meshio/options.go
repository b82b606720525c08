// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package meshio

import (
	"github.com/go-kit/log"
	"github.com/xyproto/env/v2"

	"github.com/gviegas/meshload/triangulate"
)

// Default option values.
const (
	// DefaultMaxVerticesInChunk is the OpenGL short-index ceiling.
	DefaultMaxVerticesInChunk = 65535

	DefaultMaxStreamPositions = 1000000

	DefaultProgressDelta = 0.01
)

// Triangulator turns an n-gon, given as an ordered list of 3D points,
// into a set of triangles, each expressed as three indices back into
// the input slice. It may fail on degenerate or colinear input; a
// failing call causes the calling loader to skip the polygon rather
// than abort the file (see the Iterator Driver's face loop).
type Triangulator interface {
	Triangulate(points [][3]float32) (triangles [][3]int, err error)
}

// Options configures a loader. The zero value is not valid; use
// DefaultOptions or OptionsFromEnv to obtain one with defaults filled
// in.
type Options struct {
	// MaxVerticesInChunk bounds how many vertex rows a single
	// DataChunk may contain. Must be >= 1.
	MaxVerticesInChunk int

	// AllowDuplicateVertices disables within-chunk deduplication,
	// trading memory for a simpler, allocation-free hot path.
	AllowDuplicateVertices bool

	// MaxStreamPositions bounds the ASCII vertex fetcher's
	// orig_idx -> stream_pos cache. Must be >= 1.
	MaxStreamPositions int

	// ProgressDelta is the minimum fraction of the file's elements
	// that must be processed before another progress notification is
	// emitted. Must be in (0, 1].
	ProgressDelta float64

	// Logger receives structured diagnostics (skipped polygons, OBJ
	// material libraries that could not be loaded). Defaults to a
	// no-op logger.
	Logger log.Logger

	// Triangulator overrides the default ear-clipping triangulator.
	Triangulator Triangulator
}

// DefaultOptions returns an Options with every field set to its
// documented default.
func DefaultOptions() Options {
	return Options{
		MaxVerticesInChunk:     DefaultMaxVerticesInChunk,
		AllowDuplicateVertices: false,
		MaxStreamPositions:     DefaultMaxStreamPositions,
		ProgressDelta:          DefaultProgressDelta,
		Logger:                 log.NewNopLogger(),
		Triangulator:           triangulate.EarClip{},
	}
}

// Environment variables recognized by OptionsFromEnv.
const (
	EnvMaxVerticesInChunk     = "MESHIO_MAX_VERTICES_IN_CHUNK"
	EnvAllowDuplicateVertices = "MESHIO_ALLOW_DUPLICATE_VERTICES"
	EnvMaxStreamPositions     = "MESHIO_MAX_STREAM_POSITIONS"
	EnvProgressDelta          = "MESHIO_PROGRESS_DELTA"
)

// OptionsFromEnv returns DefaultOptions with any of the MESHIO_* env
// vars overlaid on top, in the same spirit as the retrieval pack's
// flapc driver program resolving tunables through xyproto/env before
// falling back to its compiled-in defaults.
func OptionsFromEnv() Options {
	o := DefaultOptions()
	o.MaxVerticesInChunk = env.Int(EnvMaxVerticesInChunk, o.MaxVerticesInChunk)
	o.AllowDuplicateVertices = env.Bool(EnvAllowDuplicateVertices)
	o.MaxStreamPositions = env.Int(EnvMaxStreamPositions, o.MaxStreamPositions)
	o.ProgressDelta = env.Float64(EnvProgressDelta, o.ProgressDelta)
	return o
}

// normalize fills in zero-valued fields with their defaults, so a
// caller-constructed Options{MaxVerticesInChunk: 4096} still works.
func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.MaxVerticesInChunk <= 0 {
		o.MaxVerticesInChunk = d.MaxVerticesInChunk
	}
	if o.MaxStreamPositions <= 0 {
		o.MaxStreamPositions = d.MaxStreamPositions
	}
	if o.ProgressDelta <= 0 || o.ProgressDelta > 1 {
		o.ProgressDelta = d.ProgressDelta
	}
	if o.Logger == nil {
		o.Logger = d.Logger
	}
	if o.Triangulator == nil {
		o.Triangulator = d.Triangulator
	}
	return o
}

// Normalize is the exported form of normalize, for format packages
// (ply, stl, obj) that accept an Options value from a caller and must
// fill in defaults before use.
func Normalize(o Options) Options { return o.normalize() }
