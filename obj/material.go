// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package obj

import (
	"strconv"
	"strings"

	"github.com/gviegas/meshload/stream"
)

// Material is one material definition parsed out of a sibling .mtl
// file referenced by a mtllib directive. Texture fields hold the
// path exactly as it appears in the file: resolving that path to
// decoded pixels is the out-of-scope material/texture loader's job,
// not this package's.
type Material struct {
	Name string

	Ambient   [3]float32 // Ka
	Diffuse   [3]float32 // Kd
	Specular  [3]float32 // Ks
	Shininess float32    // Ns
	Opacity   float32    // d (1 - Tr)

	// DiffuseTexture, NormalTexture and OpacityTexture hold the
	// unresolved path argument of map_Kd, map_Bump/bump and map_d,
	// respectively. Empty when the material declares none.
	DiffuseTexture string
	NormalTexture  string
	OpacityTexture string
}

// parseMTL reads a .mtl file from r, returning one Material per
// newmtl block encountered, in file order. Unrecognized statements
// are ignored, matching the tolerant, line-oriented style of the OBJ
// geometry grammar itself (§6).
func parseMTL(r stream.Reader) ([]Material, error) {
	var mats []Material
	cur := -1
	for {
		line, err := r.ReadLine()
		if err != nil {
			break
		}
		fields := strings.Fields(line)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		switch fields[0] {
		case "newmtl":
			mats = append(mats, Material{Name: strings.Join(fields[1:], " ")})
			cur = len(mats) - 1
		case "Ka":
			if cur >= 0 {
				mats[cur].Ambient = parseRGB(fields[1:])
			}
		case "Kd":
			if cur >= 0 {
				mats[cur].Diffuse = parseRGB(fields[1:])
			}
		case "Ks":
			if cur >= 0 {
				mats[cur].Specular = parseRGB(fields[1:])
			}
		case "Ns":
			if cur >= 0 && len(fields) > 1 {
				mats[cur].Shininess = parseFloatOr(fields[1], 0)
			}
		case "d":
			if cur >= 0 && len(fields) > 1 {
				mats[cur].Opacity = parseFloatOr(fields[1], 1)
			}
		case "Tr":
			if cur >= 0 && len(fields) > 1 {
				mats[cur].Opacity = 1 - parseFloatOr(fields[1], 0)
			}
		case "map_Kd":
			if cur >= 0 && len(fields) > 1 {
				mats[cur].DiffuseTexture = fields[len(fields)-1]
			}
		case "map_Bump", "bump":
			if cur >= 0 && len(fields) > 1 {
				mats[cur].NormalTexture = fields[len(fields)-1]
			}
		case "map_d":
			if cur >= 0 && len(fields) > 1 {
				mats[cur].OpacityTexture = fields[len(fields)-1]
			}
		}
	}
	return mats, nil
}

func parseRGB(fields []string) [3]float32 {
	var v [3]float32
	for i := 0; i < 3 && i < len(fields); i++ {
		v[i] = parseFloatOr(fields[i], 0)
	}
	return v
}

func parseFloatOr(s string, fallback float32) float32 {
	f, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return fallback
	}
	return float32(f)
}
