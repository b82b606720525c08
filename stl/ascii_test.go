// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package stl

import (
	"bytes"
	"testing"

	"github.com/gviegas/meshload/meshio"
)

const singleTriangleASCII = "solid foo\n" +
	"facet normal 0 0 1\n" +
	"outer loop\n" +
	"vertex 0 0 0\n" +
	"vertex 1 0 0\n" +
	"vertex 0 1 0\n" +
	"endloop\n" +
	"endfacet\n" +
	"endsolid foo\n"

func TestASCIISingleTriangle(t *testing.T) {
	l := newAttachedLoader(t, []byte(singleTriangleASCII), meshio.Options{})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !it.HasNext() {
		t.Fatal("HasNext: have false, want true")
	}
	d, err := it.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(d.Coords) != 9 {
		t.Fatalf("Coords len:\nhave %d\nwant 9", len(d.Coords))
	}
	for i := 0; i < 3; i++ {
		nx, ny, nz := d.Normals[i*3], d.Normals[i*3+1], d.Normals[i*3+2]
		if nx != 0 || ny != 0 || nz != 1 {
			t.Fatalf("vertex %d normal:\nhave (%v %v %v)\nwant (0 0 1)", i, nx, ny, nz)
		}
	}
	if len(d.Indices) != 3 || d.Indices[0] != 0 || d.Indices[1] != 1 || d.Indices[2] != 2 {
		t.Fatalf("Indices:\nhave %v\nwant [0 1 2]", d.Indices)
	}
	if d.Box.Min != [3]float32{0, 0, 0} || d.Box.Max != [3]float32{1, 1, 0} {
		t.Fatalf("Box:\nhave min=%v max=%v\nwant min=[0 0 0] max=[1 1 0]", d.Box.Min, d.Box.Max)
	}
	if it.HasNext() {
		t.Fatal("HasNext after endsolid: have true, want false")
	}
}

func TestASCIIUnrecognizedTokenIsCorrupt(t *testing.T) {
	body := "solid foo\nbogus token here\n"
	l := newAttachedLoader(t, []byte(body), meshio.Options{})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := it.Next(); !meshio.IsKind(err, meshio.CorruptData) {
		t.Fatalf("Next:\nhave %v\nwant CorruptData", err)
	}
}

func TestASCIIMismatchedKeywordIsCorrupt(t *testing.T) {
	body := "solid foo\nfacet normal 0 0 1\nouter ring\n"
	l := newAttachedLoader(t, []byte(body), meshio.Options{})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := it.Next(); !meshio.IsKind(err, meshio.CorruptData) {
		t.Fatalf("Next:\nhave %v\nwant CorruptData", err)
	}
}

func TestASCIIBadNumberIsCorrupt(t *testing.T) {
	body := "solid foo\nfacet normal 0 0 x\n"
	l := newAttachedLoader(t, []byte(body), meshio.Options{})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := it.Next(); !meshio.IsKind(err, meshio.CorruptData) {
		t.Fatalf("Next:\nhave %v\nwant CorruptData", err)
	}
}

func TestASCIIChunkBoundaryNeverSplitsAFacet(t *testing.T) {
	var b bytes.Buffer
	b.WriteString("solid two\n")
	facet := "facet normal 0 0 1\nouter loop\n" +
		"vertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\n" +
		"endloop\nendfacet\n"
	b.WriteString(facet)
	b.WriteString(facet)
	b.WriteString("endsolid two\n")

	l := newAttachedLoader(t, b.Bytes(), meshio.Options{MaxVerticesInChunk: 3})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d1, err := it.Next()
	if err != nil {
		t.Fatalf("Next 1: %v", err)
	}
	if d1.NumVerts() != 3 {
		t.Fatalf("chunk 1 NumVerts:\nhave %d\nwant 3", d1.NumVerts())
	}
	if !it.HasNext() {
		t.Fatal("HasNext after chunk 1: have false, want true")
	}
	d2, err := it.Next()
	if err != nil {
		t.Fatalf("Next 2: %v", err)
	}
	if d2.NumVerts() != 3 {
		t.Fatalf("chunk 2 NumVerts:\nhave %d\nwant 3", d2.NumVerts())
	}
	if it.HasNext() {
		t.Fatal("HasNext after final chunk: have true, want false")
	}
}

func TestASCIISolidNameIsOptional(t *testing.T) {
	body := "solid\nfacet normal 0 0 1\nouter loop\n" +
		"vertex 0 0 0\nvertex 1 0 0\nvertex 0 1 0\n" +
		"endloop\nendfacet\nendsolid\n"
	l := newAttachedLoader(t, []byte(body), meshio.Options{})
	it, err := l.Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := it.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
}
