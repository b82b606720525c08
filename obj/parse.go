// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package obj

import (
	"io"
	"strconv"
	"strings"

	"github.com/gviegas/meshload/stream"
)

// vertRef is one corner of a face statement: indices into doc's
// positions and (optionally) normals slices. The texture-coordinate
// part of a corner token is ignored, neither parsed nor range-checked:
// the chunk schema this module emits (chunk.Data) has no
// texture-coordinate channel.
type vertRef struct {
	posIdx  int32
	normIdx int32 // -1 if the face statement omitted it
}

type face struct {
	verts    []vertRef
	material string // active usemtl name, "" if none set yet
}

// doc is the in-memory result of an eager parse of the OBJ geometry
// stream. Unlike the PLY core, OBJ files are small enough in practice,
// and their v/vn/vt declarations precede the faces that reference
// them closely enough, that this package parses the whole stream up
// front rather than building a random-access fetcher (§6: "straight-
// forward by comparison").
type doc struct {
	positions []([3]float32)
	normals   []([3]float32)

	faces []face

	mtlLibs []string
}

// parseDoc reads every line of r, classifying by the leading OBJ
// keyword. Unrecognized statements (g, o, s, l, ...) are skipped.
func parseDoc(r stream.Reader) (*doc, error) {
	d := &doc{}
	curMaterial := ""
	for {
		line, err := r.ReadLine()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, ioErr("read obj line", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "v":
			p, err := parseFloat3(fields[1:])
			if err != nil {
				return nil, err
			}
			d.positions = append(d.positions, p)
		case "vn":
			n, err := parseFloat3(fields[1:])
			if err != nil {
				return nil, err
			}
			d.normals = append(d.normals, n)
		case "vt":
			// Parsed only to validate the line is well-formed; texture
			// coordinates have no home in chunk.Data (see doc comment).
			if _, err := parseFloat2(fields[1:]); err != nil {
				return nil, err
			}
		case "mtllib":
			d.mtlLibs = append(d.mtlLibs, fields[1:]...)
		case "usemtl":
			if len(fields) > 1 {
				curMaterial = fields[1]
			}
		case "f":
			f, err := parseFace(fields[1:], len(d.positions), len(d.normals))
			if err != nil {
				return nil, err
			}
			f.material = curMaterial
			d.faces = append(d.faces, f)
		}
	}
	return d, nil
}

func parseFloat3(fields []string) ([3]float32, error) {
	var v [3]float32
	if len(fields) < 3 {
		return v, corrupt("expected 3 components, got " + strconv.Itoa(len(fields)))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, corruptWrap("parse obj number '"+fields[i]+"'", err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

func parseFloat2(fields []string) ([2]float32, error) {
	var v [2]float32
	if len(fields) < 2 {
		return v, corrupt("expected 2 components, got " + strconv.Itoa(len(fields)))
	}
	for i := 0; i < 2; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, corruptWrap("parse obj number '"+fields[i]+"'", err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// parseFace parses the corner tokens of an "f" statement: each is
// "v", "v/vt" or "v/vt/vn"; v and vn may be negative (relative to the
// count of positions/normals declared so far).
func parseFace(tokens []string, posCount, normCount int) (face, error) {
	if len(tokens) < 3 {
		return face{}, corrupt("face statement has fewer than 3 corners")
	}
	f := face{verts: make([]vertRef, len(tokens))}
	for i, tok := range tokens {
		parts := strings.Split(tok, "/")
		posIdx, err := resolveIndex(parts[0], posCount)
		if err != nil {
			return face{}, err
		}
		normIdx := int32(-1)
		if len(parts) == 3 && parts[2] != "" {
			normIdx, err = resolveIndex(parts[2], normCount)
			if err != nil {
				return face{}, err
			}
		}
		f.verts[i] = vertRef{posIdx: posIdx, normIdx: normIdx}
	}
	return f, nil
}

// resolveIndex converts a 1-based (or negative, relative) OBJ index
// token into a 0-based slice index, bounds-checked against count (the
// number of entries declared so far).
func resolveIndex(tok string, count int) (int32, error) {
	v, err := strconv.Atoi(tok)
	if err != nil {
		return 0, corruptWrap("parse obj index '"+tok+"'", err)
	}
	switch {
	case v > 0:
		v--
	case v < 0:
		v = count + v
	default:
		return 0, corrupt("obj index is zero")
	}
	if v < 0 || v >= count {
		return 0, corrupt("obj index out of range: " + tok)
	}
	return int32(v), nil
}
