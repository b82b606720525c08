// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package chunk

import "testing"

func TestAddNewVertexAndFinish(t *testing.T) {
	p := NewPacker(4, 3, true, false)
	p.AddNewVertex(Vertex{X: 0, Y: 0, Z: 0, NX: 1, NY: 0, NZ: 0, R: 1, G: 2, B: 3, OrigIndex: 0})
	p.AddNewVertex(Vertex{X: 1, Y: 1, Z: 1, NX: 0, NY: 1, NZ: 0, R: 4, G: 5, B: 6, OrigIndex: 1})

	if n := p.VertsInChunk(); n != 2 {
		t.Fatalf("VertsInChunk:\nhave %d\nwant 2", n)
	}

	d := p.Finish()
	if len(d.Coords) != 6 {
		t.Fatalf("Coords len:\nhave %d\nwant 6", len(d.Coords))
	}
	if len(d.Normals) != 6 {
		t.Fatalf("Normals len:\nhave %d\nwant 6", len(d.Normals))
	}
	if len(d.Colors) != 6 || d.ColorComponents != 3 {
		t.Fatalf("Colors:\nhave len=%d comps=%d\nwant len=6 comps=3", len(d.Colors), d.ColorComponents)
	}
	if d.Box.Min != ([3]float32{0, 0, 0}) || d.Box.Max != ([3]float32{1, 1, 1}) {
		t.Fatalf("Box:\nhave min=%v max=%v\nwant min=[0 0 0] max=[1 1 1]", d.Box.Min, d.Box.Max)
	}
	if len(d.Indices) != 2 || d.Indices[0] != 0 || d.Indices[1] != 1 {
		t.Fatalf("Indices:\nhave %v\nwant [0 1] (one entry per AddNewVertex)", d.Indices)
	}
}

func TestDedup(t *testing.T) {
	p := NewPacker(8, 0, false, false)
	p.AddNewVertex(Vertex{X: 0, OrigIndex: 10})
	if slot, ok := p.TryDedup(10); !ok || slot != 0 {
		t.Fatalf("TryDedup:\nhave %d, %v\nwant 0, true", slot, ok)
	}
	p.AddExistingVertex(10, 0)

	if n := p.VertsInChunk(); n != 1 {
		t.Fatalf("VertsInChunk after dedup reuse:\nhave %d\nwant 1", n)
	}
	d := p.Finish()
	if len(d.Indices) != 2 || d.Indices[0] != 0 || d.Indices[1] != 0 {
		t.Fatalf("Indices:\nhave %v\nwant [0 0]", d.Indices)
	}
}

func TestDedupDisabled(t *testing.T) {
	p := NewPacker(8, 0, false, true)
	if _, ok := p.TryDedup(10); ok {
		t.Fatal("TryDedup: have ok=true with AllowDuplicateVertices, want false")
	}
}

func TestWouldOverflow(t *testing.T) {
	p := NewPacker(4, 0, false, false)
	for i := 0; i < 3; i++ {
		p.AddNewVertex(Vertex{OrigIndex: int64(i)})
	}
	if p.WouldOverflow(1) {
		t.Fatal("WouldOverflow(1): have true, want false (3+1 == capacity)")
	}
	if !p.WouldOverflow(2) {
		t.Fatal("WouldOverflow(2): have false, want true (3+2 > capacity)")
	}
}

func TestIndexGrowthBeyondCapacity(t *testing.T) {
	p := NewPacker(2, 0, false, true)
	p.AddNewVertex(Vertex{OrigIndex: 0})
	p.AddNewVertex(Vertex{OrigIndex: 0})
	p.AddExistingVertex(0, 0)
	p.AddExistingVertex(0, 0)
	p.AddExistingVertex(0, 0)
	d := p.Finish()
	if len(d.Indices) != 5 {
		t.Fatalf("Indices len after growth:\nhave %d\nwant 5", len(d.Indices))
	}
}

func TestFinishDropsEmptyCategories(t *testing.T) {
	p := NewPacker(4, 0, false, false)
	d := p.Finish()
	if d.Coords != nil || d.Normals != nil || d.Colors != nil || d.Indices != nil {
		t.Fatalf("Finish with nothing packed should drop all categories, got %+v", d)
	}
}

func TestInitReusesBackingArrays(t *testing.T) {
	p := NewPacker(4, 2, true, false)
	p.AddNewVertex(Vertex{X: 1, OrigIndex: 0})
	c1 := cap(p.coords)
	p.Init()
	if cap(p.coords) != c1 {
		t.Fatalf("Init should reuse backing array capacity:\nhave %d\nwant %d", cap(p.coords), c1)
	}
	if p.VertsInChunk() != 0 {
		t.Fatalf("VertsInChunk after Init:\nhave %d\nwant 0", p.VertsInChunk())
	}
}
