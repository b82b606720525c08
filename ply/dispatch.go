// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ply

import (
	"strconv"

	"github.com/gviegas/meshload/stream"
)

// scratch is the reusable, non-allocating buffer a stream-decoder
// writes into and a slot-extractor reads from. It is sized to hold any
// primitive after the widening rules of §4.2 are applied: the active
// representation (int or float) is tagged by wt.
type scratch struct {
	wt widenedType
	i  int64
	f  float64
}

func (s *scratch) setInt(wt widenedType, v int64) {
	s.wt, s.i = wt, v
}

func (s *scratch) setFloat(wt widenedType, v float64) {
	s.wt, s.f = wt, v
}

func (s *scratch) isFloat() bool { return s.wt == wFloat32 || s.wt == wFloat64 }

func (s *scratch) asInt64() int64 {
	if s.isFloat() {
		return int64(s.f)
	}
	return s.i
}

func (s *scratch) asFloat32() float32 {
	if s.isFloat() {
		return float32(s.f)
	}
	return float32(s.i)
}

// decodeFunc reads one value of a fixed DataType from r, at a storage
// mode and endianness fixed when the decoder was installed, and
// records it (widened) into buf.
type decodeFunc func(r stream.Reader, buf *scratch) error

// streamDecoderFor returns the decoder for t under mode, installed
// once per property at schema-finalization time (§4.2).
func streamDecoderFor(mode Mode, t DataType) decodeFunc {
	if mode == ASCII {
		return asciiDecoderFor(t)
	}
	return binaryDecoderFor(t, mode.byteOrder())
}

func asciiReadErr(err error) error {
	return ioErr("read ascii token", err)
}

func asciiDecoderFor(t DataType) decodeFunc {
	switch t {
	case Int8:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseInt(w, 10, 8)
			if err != nil {
				return corruptWrap("parse int8 '"+w+"'", err)
			}
			buf.setInt(wInt8, v)
			return nil
		}
	case Uint8:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseUint(w, 10, 8)
			if err != nil {
				return corruptWrap("parse uint8 '"+w+"'", err)
			}
			buf.setInt(wInt16, int64(v))
			return nil
		}
	case Int16:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseInt(w, 10, 16)
			if err != nil {
				return corruptWrap("parse int16 '"+w+"'", err)
			}
			buf.setInt(wInt16, v)
			return nil
		}
	case Uint16:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseUint(w, 10, 16)
			if err != nil {
				return corruptWrap("parse uint16 '"+w+"'", err)
			}
			buf.setInt(wInt32, int64(v))
			return nil
		}
	case Int32:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseInt(w, 10, 32)
			if err != nil {
				return corruptWrap("parse int32 '"+w+"'", err)
			}
			buf.setInt(wInt32, v)
			return nil
		}
	case Uint32:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseUint(w, 10, 32)
			if err != nil {
				return corruptWrap("parse uint32 '"+w+"'", err)
			}
			buf.setInt(wInt64, int64(v))
			return nil
		}
	case Float32:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseFloat(w, 32)
			if err != nil {
				return corruptWrap("parse float32 '"+w+"'", err)
			}
			buf.setFloat(wFloat32, v)
			return nil
		}
	case Float64:
		return func(r stream.Reader, buf *scratch) error {
			w, err := r.ReadWord()
			if err != nil {
				return asciiReadErr(err)
			}
			v, err := strconv.ParseFloat(w, 64)
			if err != nil {
				return corruptWrap("parse float64 '"+w+"'", err)
			}
			buf.setFloat(wFloat64, v)
			return nil
		}
	default:
		return func(r stream.Reader, buf *scratch) error {
			return corrupt("unreachable data type in ascii decoder")
		}
	}
}

func binaryDecoderFor(t DataType, order stream.ByteOrder) decodeFunc {
	switch t {
	case Int8:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadInt8()
			if err != nil {
				return ioErr("read int8", err)
			}
			buf.setInt(wInt8, int64(v))
			return nil
		}
	case Uint8:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadUint8()
			if err != nil {
				return ioErr("read uint8", err)
			}
			buf.setInt(wInt16, int64(v))
			return nil
		}
	case Int16:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadInt16(order)
			if err != nil {
				return ioErr("read int16", err)
			}
			buf.setInt(wInt16, int64(v))
			return nil
		}
	case Uint16:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadUint16(order)
			if err != nil {
				return ioErr("read uint16", err)
			}
			buf.setInt(wInt32, int64(v))
			return nil
		}
	case Int32:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadInt32(order)
			if err != nil {
				return ioErr("read int32", err)
			}
			buf.setInt(wInt32, int64(v))
			return nil
		}
	case Uint32:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadUint32(order)
			if err != nil {
				return ioErr("read uint32", err)
			}
			buf.setInt(wInt64, int64(v))
			return nil
		}
	case Float32:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadFloat32(order)
			if err != nil {
				return ioErr("read float32", err)
			}
			buf.setFloat(wFloat32, float64(v))
			return nil
		}
	case Float64:
		return func(r stream.Reader, buf *scratch) error {
			v, err := r.ReadFloat64(order)
			if err != nil {
				return ioErr("read float64", err)
			}
			buf.setFloat(wFloat64, v)
			return nil
		}
	default:
		return func(r stream.Reader, buf *scratch) error {
			return corrupt("unreachable data type in binary decoder")
		}
	}
}

// role is the semantic meaning a property's value feeds into on the
// Loader's per-vertex/per-face slots.
type role uint8

// Recognized roles.
const (
	roleX role = iota
	roleY
	roleZ
	roleNX
	roleNY
	roleNZ
	roleRed
	roleGreen
	roleBlue
	roleAlpha
	roleFaceIndex
	roleListLength
	roleIgnored
)

// roleFor maps a property name to its semantic role. Names outside the
// recognized vertex-attribute set receive roleIgnored; their
// stream-decoder still runs so the stream position advances correctly
// (§4.2).
func roleFor(name string) role {
	switch name {
	case "x":
		return roleX
	case "y":
		return roleY
	case "z":
		return roleZ
	case "nx":
		return roleNX
	case "ny":
		return roleNY
	case "nz":
		return roleNZ
	case "red":
		return roleRed
	case "green":
		return roleGreen
	case "blue":
		return roleBlue
	case "alpha":
		return roleAlpha
	default:
		return roleIgnored
	}
}

// vertexSlots holds the scalar fields a slot-extractor writes into,
// one set per vertex (or list-length bookkeeping per face) currently
// being decoded.
type vertexSlots struct {
	x, y, z    float32
	nx, ny, nz float32
	red        int16
	green      int16
	blue       int16
	alpha      int16
	faceIndex  int64
	listLen    int32
}

// resetVertex restores the defaults §3 assigns to a vertex's optional
// attributes before any property is read: nx, ny, nz default to 1.0
// each, and alpha defaults to 255.
func (s *vertexSlots) resetVertex() {
	s.nx, s.ny, s.nz = 1, 1, 1
	s.red, s.green, s.blue = 0, 0, 0
	s.alpha = 255
}

// extractFunc pulls buf's value into the correct field of slots,
// applying the role's numeric conversion (§4.2): coordinate/normal
// roles convert to f32 (float64 narrows with standard rounding);
// color roles convert to i16 by truncation, never clamped; face_index
// converts to i64; list_length converts to i32; roleIgnored is a
// no-op.
type extractFunc func(buf *scratch, slots *vertexSlots)

func extractorFor(r role) extractFunc {
	switch r {
	case roleX:
		return func(buf *scratch, slots *vertexSlots) { slots.x = buf.asFloat32() }
	case roleY:
		return func(buf *scratch, slots *vertexSlots) { slots.y = buf.asFloat32() }
	case roleZ:
		return func(buf *scratch, slots *vertexSlots) { slots.z = buf.asFloat32() }
	case roleNX:
		return func(buf *scratch, slots *vertexSlots) { slots.nx = buf.asFloat32() }
	case roleNY:
		return func(buf *scratch, slots *vertexSlots) { slots.ny = buf.asFloat32() }
	case roleNZ:
		return func(buf *scratch, slots *vertexSlots) { slots.nz = buf.asFloat32() }
	case roleRed:
		return func(buf *scratch, slots *vertexSlots) { slots.red = int16(buf.asInt64()) }
	case roleGreen:
		return func(buf *scratch, slots *vertexSlots) { slots.green = int16(buf.asInt64()) }
	case roleBlue:
		return func(buf *scratch, slots *vertexSlots) { slots.blue = int16(buf.asInt64()) }
	case roleAlpha:
		return func(buf *scratch, slots *vertexSlots) { slots.alpha = int16(buf.asInt64()) }
	case roleFaceIndex:
		return func(buf *scratch, slots *vertexSlots) { slots.faceIndex = buf.asInt64() }
	case roleListLength:
		return func(buf *scratch, slots *vertexSlots) { slots.listLen = int32(buf.asInt64()) }
	default:
		return func(buf *scratch, slots *vertexSlots) {}
	}
}

// installedProperty pairs a parsed Property with the decode/extract
// functions selected for it once, at schema-finalization time.
//
// For a list property, decode/extract apply to each value in the
// list — installed as roleFaceIndex, since the only list property
// this core recognizes is the face element's index list (any single
// list property on the face element is treated as the index list,
// §6) — while lengthDecode/lengthExtract apply to the length prefix.
type installedProperty struct {
	Property
	decode        decodeFunc
	extract       extractFunc
	lengthDecode  decodeFunc  // valid only when IsList
	lengthExtract extractFunc // valid only when IsList
}

// installProperties resolves decode/extract functions for every
// property of element, under the given storage mode.
func installProperties(mode Mode, props []Property) []installedProperty {
	out := make([]installedProperty, len(props))
	for i, p := range props {
		ip := installedProperty{Property: p}
		ip.decode = streamDecoderFor(mode, p.ValueType)
		if p.IsList {
			ip.lengthDecode = streamDecoderFor(mode, p.LengthType)
			ip.lengthExtract = extractorFor(roleListLength)
			ip.extract = extractorFor(roleFaceIndex)
		} else {
			ip.extract = extractorFor(roleFor(p.Name))
		}
		out[i] = ip
	}
	return out
}
