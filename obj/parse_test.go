// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package obj

import (
	"bytes"
	"testing"

	"github.com/gviegas/meshload/stream"
)

func newTestReader(t *testing.T, body string) stream.Reader {
	t.Helper()
	r, err := stream.NewReader(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	return r
}

const triangleOBJ = `# a triangle
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`

func TestParseDocTriangle(t *testing.T) {
	d, err := parseDoc(newTestReader(t, triangleOBJ))
	if err != nil {
		t.Fatalf("parseDoc: %v", err)
	}
	if len(d.positions) != 3 {
		t.Fatalf("positions:\nhave %d\nwant 3", len(d.positions))
	}
	if len(d.faces) != 1 || len(d.faces[0].verts) != 3 {
		t.Fatalf("faces:\nhave %v\nwant 1 face of 3 corners", d.faces)
	}
	if d.faces[0].verts[0].posIdx != 0 || d.faces[0].verts[2].posIdx != 2 {
		t.Fatalf("face corner indices:\nhave %v\nwant [0 1 2]", d.faces[0].verts)
	}
}

const quadWithNormalsOBJ = `v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1 4//1
`

func TestParseDocQuadWithNormals(t *testing.T) {
	d, err := parseDoc(newTestReader(t, quadWithNormalsOBJ))
	if err != nil {
		t.Fatalf("parseDoc: %v", err)
	}
	if len(d.normals) != 1 {
		t.Fatalf("normals:\nhave %d\nwant 1", len(d.normals))
	}
	for _, vr := range d.faces[0].verts {
		if vr.normIdx != 0 {
			t.Fatalf("normIdx:\nhave %d\nwant 0", vr.normIdx)
		}
	}
}

func TestParseDocNegativeIndices(t *testing.T) {
	body := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"
	d, err := parseDoc(newTestReader(t, body))
	if err != nil {
		t.Fatalf("parseDoc: %v", err)
	}
	want := [3]int32{0, 1, 2}
	for i, vr := range d.faces[0].verts {
		if vr.posIdx != want[i] {
			t.Fatalf("corner %d posIdx:\nhave %d\nwant %d", i, vr.posIdx, want[i])
		}
	}
}

func TestParseDocMtllibAndUsemtl(t *testing.T) {
	body := "mtllib scene.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl red\nf 1 2 3\n"
	d, err := parseDoc(newTestReader(t, body))
	if err != nil {
		t.Fatalf("parseDoc: %v", err)
	}
	if len(d.mtlLibs) != 1 || d.mtlLibs[0] != "scene.mtl" {
		t.Fatalf("mtlLibs:\nhave %v\nwant [scene.mtl]", d.mtlLibs)
	}
	if d.faces[0].material != "red" {
		t.Fatalf("face material:\nhave %q\nwant %q", d.faces[0].material, "red")
	}
}

func TestParseDocOutOfRangeIndexIsCorrupt(t *testing.T) {
	body := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 9\n"
	if _, err := parseDoc(newTestReader(t, body)); err == nil {
		t.Fatal("parseDoc: have nil error, want CorruptData")
	}
}

func TestParseDocFaceTooFewCornersIsCorrupt(t *testing.T) {
	body := "v 0 0 0\nv 1 0 0\nf 1 2\n"
	if _, err := parseDoc(newTestReader(t, body)); err == nil {
		t.Fatal("parseDoc: have nil error, want CorruptData")
	}
}

func TestParseDocZeroIndexIsCorrupt(t *testing.T) {
	body := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"
	if _, err := parseDoc(newTestReader(t, body)); err == nil {
		t.Fatal("parseDoc: have nil error, want CorruptData")
	}
}
