// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package meshio defines the contract shared by every mesh format
// loader in this module (ply, stl, obj): the lazy chunk Iterator, the
// advisory Listener callbacks, loader configuration (Options), and the
// Error/Kind taxonomy.
//
// The package intentionally knows nothing about any specific file
// format; it is the seam a caller-supplied file-type dispatcher (out
// of scope for this module) would switch on to pick which concrete
// loader to construct.
package meshio

import "github.com/gviegas/meshload/chunk"

// Iterator is the contract every format loader implements: a lazy,
// single-threaded-cooperative sequence of fixed-capacity DataChunks.
//
// A loader instance is never safe for concurrent access. Next only
// suspends at reader I/O; there is no internal asynchrony. Dropping an
// Iterator before it is drained closes nothing: the byte reader stays
// open and the loader stays locked until Close is called.
type Iterator interface {
	// HasNext reports whether another chunk remains to be produced.
	HasNext() bool

	// Next produces the next chunk. It returns NotAvailable if called
	// after HasNext has returned false. An Io or CorruptData error
	// terminates the session: the loader unlocks, and subsequent Next
	// calls return NotAvailable.
	Next() (*chunk.Data, error)

	// Close ends the session and releases the loader's session lock.
	// The ply and stl iterators also close the underlying byte reader;
	// the obj iterator leaves it open. Closing an already-closed or
	// already drained iterator has no effect.
	Close() error
}

// Listener receives advisory notifications about a loading session.
// All methods are optional; a nil Listener is valid everywhere an
// Iterator accepts one, and is treated as all of its methods being
// no-ops.
type Listener interface {
	// OnLoadStart fires once, when a session transitions out of
	// StreamInitialized into its first Next call.
	OnLoadStart(it Iterator)

	// OnLoadProgress fires at most once per ProgressDelta fraction of
	// the file's elements processed. Implementations may coalesce
	// bursts of progress into a single notification.
	OnLoadProgress(it Iterator, fraction float64)

	// OnLoadEnd fires exactly once, after the final chunk has been
	// produced and before the loader releases its session.
	OnLoadEnd(it Iterator)
}

// NopListener is a Listener whose methods do nothing. It is the
// default used when a loader is constructed without one.
type NopListener struct{}

func (NopListener) OnLoadStart(Iterator)             {}
func (NopListener) OnLoadProgress(Iterator, float64) {}
func (NopListener) OnLoadEnd(Iterator)                {}
