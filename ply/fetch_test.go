// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ply

import (
	"bytes"
	"testing"

	"github.com/gviegas/meshload/stream"
)

func TestBinaryFetcherStride(t *testing.T) {
	// 3 vertices of 3 float32 each, 12 bytes/vertex.
	data := make([]byte, 3*12)
	r, err := stream.NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	f := newBinaryFetcher(r, 0, 12, 3)

	if err := f.Fetch(2); err != nil {
		t.Fatalf("Fetch(2): %v", err)
	}
	if r.Pos() != 24 {
		t.Fatalf("Pos after Fetch(2):\nhave %d\nwant 24", r.Pos())
	}
	if err := f.Fetch(0); err != nil {
		t.Fatalf("Fetch(0): %v", err)
	}
	if r.Pos() != 0 {
		t.Fatalf("Pos after Fetch(0):\nhave %d\nwant 0", r.Pos())
	}
}

func TestBinaryFetcherOutOfRange(t *testing.T) {
	r, err := stream.NewReader(bytes.NewReader(make([]byte, 12)))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	f := newBinaryFetcher(r, 0, 12, 1)
	if err := f.Fetch(5); err == nil {
		t.Fatal("Fetch(5): have nil error, want CorruptData")
	}
}

func TestVertexDataSizeRejectsListOnVertex(t *testing.T) {
	props := []Property{
		{Name: "x", ValueType: Float32},
		{Name: "bad", IsList: true, LengthType: Uint8, ValueType: Int32},
	}
	if _, err := vertexDataSize(props); err == nil {
		t.Fatal("vertexDataSize: have nil error, want CorruptData")
	}
}

func TestVertexDataSizeSum(t *testing.T) {
	props := []Property{
		{Name: "x", ValueType: Float32},
		{Name: "y", ValueType: Float32},
		{Name: "z", ValueType: Float32},
		{Name: "red", ValueType: Uint8},
		{Name: "green", ValueType: Uint8},
		{Name: "blue", ValueType: Uint8},
	}
	n, err := vertexDataSize(props)
	if err != nil {
		t.Fatalf("vertexDataSize: %v", err)
	}
	if n != 15 {
		t.Fatalf("size:\nhave %d\nwant 15", n)
	}
}

// asciiVertexData builds an ASCII body of n "x y z" rows, one per
// line, returning the body and the stream position each row starts
// at.
func asciiVertexData(n int) (string, []int64) {
	var b bytes.Buffer
	offsets := make([]int64, n)
	for i := 0; i < n; i++ {
		offsets[i] = int64(b.Len())
		b.WriteString("1 2 3\n")
	}
	return b.String(), offsets
}

func TestASCIIFetcherSequential(t *testing.T) {
	body, offsets := asciiVertexData(5)
	r, err := stream.NewReader(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	props := installProperties(ASCII, []Property{
		{Name: "x", ValueType: Float32},
		{Name: "y", ValueType: Float32},
		{Name: "z", ValueType: Float32},
	})
	f := newASCIIFetcher(r, 0, 5, 1000, props)

	for i, off := range offsets {
		if err := f.Fetch(int64(i)); err != nil {
			t.Fatalf("Fetch(%d): %v", i, err)
		}
		if r.Pos() != off {
			t.Fatalf("Fetch(%d) pos:\nhave %d\nwant %d", i, r.Pos(), off)
		}
	}
}

func TestASCIIFetcherOutOfOrder(t *testing.T) {
	body, offsets := asciiVertexData(10)
	r, err := stream.NewReader(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	props := installProperties(ASCII, []Property{
		{Name: "x", ValueType: Float32},
		{Name: "y", ValueType: Float32},
		{Name: "z", ValueType: Float32},
	})
	f := newASCIIFetcher(r, 0, 10, 1000, props)

	order := []int{7, 2, 9, 0, 5}
	for _, i := range order {
		if err := f.Fetch(int64(i)); err != nil {
			t.Fatalf("Fetch(%d): %v", i, err)
		}
		if r.Pos() != offsets[i] {
			t.Fatalf("Fetch(%d) pos:\nhave %d\nwant %d", i, r.Pos(), offsets[i])
		}
	}
}

func TestASCIIFetcherEvictsSmallestOnOverflow(t *testing.T) {
	body, _ := asciiVertexData(10)
	r, err := stream.NewReader(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	props := installProperties(ASCII, []Property{
		{Name: "x", ValueType: Float32},
		{Name: "y", ValueType: Float32},
		{Name: "z", ValueType: Float32},
	})
	f := newASCIIFetcher(r, 0, 10, 2, props)

	for i := 0; i < 5; i++ {
		if err := f.Fetch(int64(i)); err != nil {
			t.Fatalf("Fetch(%d): %v", i, err)
		}
	}
	if f.tree.Len() > 2 {
		t.Fatalf("cache size:\nhave %d\nwant <= 2", f.tree.Len())
	}
	if _, ok := f.tree.Get(posEntry{idx: 0}); ok {
		t.Fatal("cache still holds the smallest (earliest-evicted) key")
	}
}

func TestASCIIFetcherOutOfRange(t *testing.T) {
	body, _ := asciiVertexData(2)
	r, err := stream.NewReader(bytes.NewReader([]byte(body)))
	if err != nil {
		t.Fatalf("stream.NewReader: %v", err)
	}
	f := newASCIIFetcher(r, 0, 2, 10, nil)
	if err := f.Fetch(5); err == nil {
		t.Fatal("Fetch(5): have nil error, want CorruptData")
	}
}
