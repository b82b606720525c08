// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package ply

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gviegas/meshload/meshio"
	"github.com/gviegas/meshload/stream"
)

// Mode is the PLY storage mode declared on the format line.
type Mode uint8

// Storage modes.
const (
	ASCII Mode = iota
	BinaryLittleEndian
	BinaryBigEndian
)

func (m Mode) String() string {
	switch m {
	case ASCII:
		return "ascii"
	case BinaryLittleEndian:
		return "binary_little_endian"
	case BinaryBigEndian:
		return "binary_big_endian"
	default:
		return "invalid"
	}
}

func (m Mode) byteOrder() stream.ByteOrder {
	if m == BinaryBigEndian {
		return stream.BigEndian
	}
	return stream.LittleEndian
}

// Property is one field of an Element: either scalar (one ValueType)
// or list-valued (one LengthType preceding a sequence of ValueType).
type Property struct {
	Name       string
	IsList     bool
	LengthType DataType // valid only when IsList
	ValueType  DataType
}

// Element is a named, counted, typed record schema: vertex, face, or
// any other element a producer chose to declare.
type Element struct {
	Name       string
	Count      int64
	Properties []Property
}

// Header is the immutable schema built once by parseHeader. Element
// order equals on-disk order; this is required by the binary vertex
// fetcher's constant-stride arithmetic (§4.4).
type Header struct {
	Mode     Mode
	Elements []Element
	Comments []string
	ObjInfos []string
}

// element returns the element named name and its index, if present.
func (h *Header) element(name string) (*Element, int, bool) {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i], i, true
		}
	}
	return nil, 0, false
}

// VertexElement returns the header's "vertex" element.
func (h *Header) VertexElement() (*Element, bool) {
	e, _, ok := h.element("vertex")
	return e, ok
}

// FaceElement returns the header's "face" element.
func (h *Header) FaceElement() (*Element, bool) {
	e, _, ok := h.element("face")
	return e, ok
}

func corrupt(reason string) error {
	return meshio.NewError(meshio.CorruptData, reason)
}

func corruptWrap(reason string, cause error) error {
	return meshio.WrapError(meshio.CorruptData, reason, cause)
}

// ioErr wraps a read or seek failure as Io, except that the stream
// ending before the data the header declared is CorruptData.
func ioErr(reason string, cause error) error {
	if errors.Is(cause, io.EOF) || errors.Is(cause, io.ErrUnexpectedEOF) {
		return meshio.WrapError(meshio.CorruptData, reason, cause)
	}
	return meshio.WrapError(meshio.Io, reason, cause)
}

// readHeaderWord reads the next word, translating io.EOF into a
// CorruptData error: the header grammar never expects the stream to
// end before end_header.
func readHeaderWord(r stream.Reader) (string, error) {
	w, err := r.ReadWord()
	if err != nil {
		if err == io.EOF {
			return "", corrupt("unexpected end of file in header")
		}
		return "", ioErr("header read", err)
	}
	return w, nil
}

// parseHeader parses the PLY textual header per §4.1. r must be
// positioned at offset 0.
func parseHeader(r stream.Reader) (*Header, error) {
	magic, err := readHeaderWord(r)
	if err != nil {
		return nil, err
	}
	if magic != "ply" {
		return nil, corrupt("missing 'ply' magic")
	}

	formatWord, err := readHeaderWord(r)
	if err != nil {
		return nil, err
	}
	if formatWord != "format" {
		return nil, corrupt("expected 'format'")
	}
	modeWord, err := readHeaderWord(r)
	if err != nil {
		return nil, err
	}
	var mode Mode
	switch modeWord {
	case "ascii":
		mode = ASCII
	case "binary_little_endian":
		mode = BinaryLittleEndian
	case "binary_big_endian":
		mode = BinaryBigEndian
	default:
		return nil, corrupt("unrecognized storage mode: " + modeWord)
	}
	versionWord, err := readHeaderWord(r)
	if err != nil {
		return nil, err
	}
	if versionWord != "1.0" {
		return nil, corrupt("unsupported version: " + versionWord)
	}

	h := &Header{Mode: mode}
	var cur *Element

	for {
		word, err := readHeaderWord(r)
		if err != nil {
			return nil, err
		}
		switch {
		case word == "comment":
			line, err := r.ReadLine()
			if err != nil && err != io.EOF {
				return nil, ioErr("read comment", err)
			}
			h.Comments = append(h.Comments, strings.TrimSpace(line))

		case word == "obj_info":
			line, err := r.ReadLine()
			if err != nil && err != io.EOF {
				return nil, ioErr("read obj_info", err)
			}
			h.ObjInfos = append(h.ObjInfos, strings.TrimSpace(line))

		case strings.HasSuffix(word, "element"):
			name, err := readHeaderWord(r)
			if err != nil {
				return nil, err
			}
			countWord, err := readHeaderWord(r)
			if err != nil {
				return nil, err
			}
			count, perr := strconv.ParseInt(countWord, 10, 64)
			if perr != nil {
				return nil, corruptWrap("element count", perr)
			}
			h.Elements = append(h.Elements, Element{Name: name, Count: count})
			cur = &h.Elements[len(h.Elements)-1]

		case word == "property":
			if cur == nil {
				return nil, corrupt("property declared before any element")
			}
			kind, err := readHeaderWord(r)
			if err != nil {
				return nil, err
			}
			if kind == "list" {
				lenWord, err := readHeaderWord(r)
				if err != nil {
					return nil, err
				}
				lenType, ok := parseDataType(lenWord)
				if !ok {
					return nil, corrupt("unrecognized list length type: " + lenWord)
				}
				valWord, err := readHeaderWord(r)
				if err != nil {
					return nil, err
				}
				valType, ok := parseDataType(valWord)
				if !ok {
					return nil, corrupt("unrecognized list value type: " + valWord)
				}
				propName, err := readHeaderWord(r)
				if err != nil {
					return nil, err
				}
				cur.Properties = append(cur.Properties, Property{
					Name: propName, IsList: true, LengthType: lenType, ValueType: valType,
				})
			} else {
				valType, ok := parseDataType(kind)
				if !ok {
					return nil, corrupt("unrecognized property type: " + kind)
				}
				propName, err := readHeaderWord(r)
				if err != nil {
					return nil, err
				}
				cur.Properties = append(cur.Properties, Property{Name: propName, ValueType: valType})
			}

		case word == "end_header":
			// ReadWord already consumed the newline terminator; the
			// reader is at the first data byte.
			return h, nil

		default:
			return nil, corrupt("unrecognized header token: " + word)
		}
	}
}
