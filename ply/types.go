// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ply

import "strings"

// DataType is one of the eight canonical PLY numeric encodings. The
// header parser folds the eight language-style aliases (char, uchar,
// short, ushort, int, uint, float, double) onto these before the
// schema is finalized, so every later stage switches on exactly eight
// values.
type DataType uint8

// Canonical data types.
const (
	Int8 DataType = iota
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

func (t DataType) String() string {
	switch t {
	case Int8:
		return "int8"
	case Uint8:
		return "uint8"
	case Int16:
		return "int16"
	case Uint16:
		return "uint16"
	case Int32:
		return "int32"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "invalid"
	}
}

// parseDataType resolves a header token (canonical name or alias) to
// its DataType, reporting ok=false for anything outside the closed
// set of sixteen recognized words.
func parseDataType(word string) (DataType, bool) {
	switch strings.ToLower(word) {
	case "int8", "char":
		return Int8, true
	case "uint8", "uchar":
		return Uint8, true
	case "int16", "short":
		return Int16, true
	case "uint16", "ushort":
		return Uint16, true
	case "int32", "int":
		return Int32, true
	case "uint32", "uint":
		return Uint32, true
	case "float32", "float":
		return Float32, true
	case "float64", "double":
		return Float64, true
	default:
		return 0, false
	}
}

// size returns the on-disk width, in bytes, of t.
func (t DataType) size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// widenedType is the buffer type t is stored as after the widening
// rules of §4.2: uint8->int16, uint16->int32, uint32->int64; every
// other type is unchanged. uint64 is not a member of DataType, so it
// never needs rejecting here — the header parser already turned any
// such token into a parse error.
type widenedType uint8

const (
	wInt8 widenedType = iota
	wInt16
	wInt32
	wInt64
	wFloat32
	wFloat64
)

func (t DataType) widened() widenedType {
	switch t {
	case Int8:
		return wInt8
	case Uint8:
		return wInt16
	case Int16:
		return wInt16
	case Uint16:
		return wInt32
	case Int32:
		return wInt32
	case Uint32:
		return wInt64
	case Float32:
		return wFloat32
	case Float64:
		return wFloat64
	default:
		return wInt8
	}
}

func (t widenedType) size() int {
	switch t {
	case wInt8:
		return 1
	case wInt16:
		return 2
	case wInt32:
		return 4
	case wInt64:
		return 8
	case wFloat32:
		return 4
	case wFloat64:
		return 8
	default:
		return 0
	}
}
