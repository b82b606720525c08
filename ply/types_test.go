// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ply

import "testing"

func TestParseDataTypeAliases(t *testing.T) {
	cases := []struct {
		word string
		want DataType
	}{
		{"int8", Int8}, {"char", Int8},
		{"uint8", Uint8}, {"uchar", Uint8},
		{"int16", Int16}, {"short", Int16},
		{"uint16", Uint16}, {"ushort", Uint16},
		{"int32", Int32}, {"int", Int32},
		{"uint32", Uint32}, {"uint", Uint32},
		{"float32", Float32}, {"float", Float32},
		{"float64", Float64}, {"double", Float64},
	}
	for _, c := range cases {
		got, ok := parseDataType(c.word)
		if !ok || got != c.want {
			t.Errorf("parseDataType(%q):\nhave %v, %v\nwant %v, true", c.word, got, ok, c.want)
		}
	}
	if _, ok := parseDataType("string"); ok {
		t.Error(`parseDataType("string"): have ok=true, want false`)
	}
}

func TestWidening(t *testing.T) {
	cases := []struct {
		t    DataType
		want widenedType
	}{
		{Int8, wInt8},
		{Uint8, wInt16},
		{Int16, wInt16},
		{Uint16, wInt32},
		{Int32, wInt32},
		{Uint32, wInt64},
		{Float32, wFloat32},
		{Float64, wFloat64},
	}
	for _, c := range cases {
		if got := c.t.widened(); got != c.want {
			t.Errorf("%v.widened():\nhave %v\nwant %v", c.t, got, c.want)
		}
	}
}

func TestDataTypeSize(t *testing.T) {
	cases := []struct {
		t    DataType
		want int
	}{
		{Int8, 1}, {Uint8, 1},
		{Int16, 2}, {Uint16, 2},
		{Int32, 4}, {Uint32, 4}, {Float32, 4},
		{Float64, 8},
	}
	for _, c := range cases {
		if got := c.t.size(); got != c.want {
			t.Errorf("%v.size():\nhave %d\nwant %d", c.t, got, c.want)
		}
	}
}
