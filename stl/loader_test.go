// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package stl

import (
	"bytes"
	"testing"

	"github.com/gviegas/meshload/meshio"
	"github.com/gviegas/meshload/stream"
)

func newAttachedLoader(t *testing.T, body []byte, opts meshio.Options) *Loader {
	t.Helper()
	r, err := stream.NewReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	l := NewLoader(opts)
	l.Attach(r)
	return l
}

func TestSniffASCII(t *testing.T) {
	r, err := stream.NewReader(bytes.NewReader([]byte("solid foo\nfacet")))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	ascii, err := sniff(r)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if !ascii {
		t.Fatal("sniff: have binary, want ascii")
	}
	if r.Pos() != 0 {
		t.Fatalf("Pos after sniff:\nhave %d\nwant 0", r.Pos())
	}
}

func TestSniffASCIICaseInsensitive(t *testing.T) {
	r, err := stream.NewReader(bytes.NewReader([]byte("SOLID widget\n")))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	ascii, err := sniff(r)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if !ascii {
		t.Fatal("sniff: have binary, want ascii")
	}
}

func TestSniffBinary(t *testing.T) {
	body := make([]byte, binaryHeaderSize+4)
	r, err := stream.NewReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	ascii, err := sniff(r)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if ascii {
		t.Fatal("sniff: have ascii, want binary")
	}
}

func TestSniffShortFileIsBinary(t *testing.T) {
	r, err := stream.NewReader(bytes.NewReader([]byte("ab")))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	ascii, err := sniff(r)
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if ascii {
		t.Fatal("sniff: have ascii, want binary")
	}
}

func TestLoaderNotReadyWithoutAttach(t *testing.T) {
	l := NewLoader(meshio.Options{})
	if _, err := l.Load(nil); !meshio.IsKind(err, meshio.NotReady) {
		t.Fatalf("Load:\nhave %v\nwant NotReady", err)
	}
}

func TestLoaderLockedWhileSessionActive(t *testing.T) {
	body := []byte("solid t\nfacet normal 0 0 1 outer loop vertex 0 0 0 vertex 1 0 0 vertex 0 1 0 endloop endfacet endsolid\n")
	l := newAttachedLoader(t, body, meshio.Options{})
	if _, err := l.Load(nil); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := l.Load(nil); !meshio.IsKind(err, meshio.Locked) {
		t.Fatalf("second Load:\nhave %v\nwant Locked", err)
	}
}

func TestLoaderUnlocksAfterDrain(t *testing.T) {
	body := []byte("solid t\nfacet normal 0 0 1 outer loop vertex 0 0 0 vertex 1 0 0 vertex 0 1 0 endloop endfacet endsolid\n")
	l := newAttachedLoader(t, body, meshio.Options{})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	r2, err := stream.NewReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	l.Attach(r2)
	if _, err := l.Load(nil); err != nil {
		t.Fatalf("second Load after drain: %v", err)
	}
}
