// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package triangulate provides the default implementation of the
// polygon triangulator the PLY and OBJ loaders depend on to turn an
// n-gon into a set of triangles: given an ordered list of coplanar-ish
// 3D points, EarClip returns a set of triangle index triples back into
// the input slice.
//
// This is the concrete default for the "external dependency" the
// specification describes: loaders depend only on
// meshio.Triangulator, and a caller is free to substitute a different
// implementation via Options.Triangulator.
package triangulate

import (
	"errors"
	"math"
)

// ErrDegenerate is returned when the input polygon has no usable
// normal (all points colinear or coincident) or when ear-clipping
// cannot make progress, which happens for self-intersecting input.
var ErrDegenerate = errors.New("triangulate: degenerate polygon")

// EarClip implements meshio.Triangulator using the classic ear-
// clipping algorithm: it estimates the polygon's normal with Newell's
// method, projects the points onto the plane perpendicular to that
// normal, then repeatedly clips a convex vertex ("ear") whose triangle
// contains no other remaining vertex.
//
// Failure (colinear points, zero-area polygon, or an ear-clipping
// stall) is reported as an error; callers in this module treat that as
// "skip this one face", not a fatal condition.
type EarClip struct{}

// Triangulate implements meshio.Triangulator.
func (EarClip) Triangulate(points [][3]float32) ([][3]int, error) {
	return Triangulate(points)
}

// Triangulate is the free function form of EarClip.Triangulate.
func Triangulate(points [][3]float32) ([][3]int, error) {
	n := len(points)
	if n < 3 {
		return nil, ErrDegenerate
	}
	if n == 3 {
		return [][3]int{{0, 1, 2}}, nil
	}

	normal := newellNormal(points)
	if normal == ([3]float64{}) {
		return nil, ErrDegenerate
	}
	u, v := basis(normal)

	proj := make([][2]float64, n)
	for i, p := range points {
		x, y, z := float64(p[0]), float64(p[1]), float64(p[2])
		proj[i] = [2]float64{x*u[0] + y*u[1] + z*u[2], x*v[0] + y*v[1] + z*v[2]}
	}

	// remaining holds the original indices of vertices not yet
	// consumed, in polygon order.
	remaining := make([]int, n)
	for i := range remaining {
		remaining[i] = i
	}

	var tris [][3]int
	guard := 0
	for len(remaining) > 3 {
		guard++
		if guard > n*n {
			return nil, ErrDegenerate
		}
		clipped := false
		for i := 0; i < len(remaining); i++ {
			a := remaining[(i+len(remaining)-1)%len(remaining)]
			b := remaining[i]
			c := remaining[(i+1)%len(remaining)]
			if !isConvex(proj[a], proj[b], proj[c]) {
				continue
			}
			if anyInside(proj, remaining, a, b, c) {
				continue
			}
			tris = append(tris, [3]int{a, b, c})
			remaining = append(remaining[:i], remaining[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, ErrDegenerate
		}
	}
	tris = append(tris, [3]int{remaining[0], remaining[1], remaining[2]})
	return tris, nil
}

func newellNormal(points [][3]float32) [3]float64 {
	var nx, ny, nz float64
	n := len(points)
	for i := 0; i < n; i++ {
		cur := points[i]
		nxt := points[(i+1)%n]
		nx += float64(cur[1]-nxt[1]) * float64(cur[2]+nxt[2])
		ny += float64(cur[2]-nxt[2]) * float64(cur[0]+nxt[0])
		nz += float64(cur[0]-nxt[0]) * float64(cur[1]+nxt[1])
	}
	return normalize3(nx, ny, nz)
}

func normalize3(x, y, z float64) [3]float64 {
	l := math.Sqrt(x*x + y*y + z*z)
	if l == 0 {
		return [3]float64{}
	}
	return [3]float64{x / l, y / l, z / l}
}

// basis returns two vectors orthogonal to normal and to each other, to
// use as a 2D projection plane.
func basis(normal [3]float64) (u, v [3]float64) {
	ref := [3]float64{1, 0, 0}
	if abs(normal[0]) > 0.9 {
		ref = [3]float64{0, 1, 0}
	}
	u = cross(ref, normal)
	u = normalize3(u[0], u[1], u[2])
	v = cross(normal, u)
	return
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func isConvex(a, b, c [2]float64) bool {
	return cross2(sub2(b, a), sub2(c, b)) > 0
}

func anyInside(proj [][2]float64, remaining []int, a, b, c int) bool {
	for _, idx := range remaining {
		if idx == a || idx == b || idx == c {
			continue
		}
		if pointInTriangle(proj[idx], proj[a], proj[b], proj[c]) {
			return true
		}
	}
	return false
}

func sub2(a, b [2]float64) [2]float64 { return [2]float64{a[0] - b[0], a[1] - b[1]} }
func cross2(a, b [2]float64) float64  { return a[0]*b[1] - a[1]*b[0] }

func pointInTriangle(p, a, b, c [2]float64) bool {
	d1 := cross2(sub2(p, a), sub2(b, a))
	d2 := cross2(sub2(p, b), sub2(c, b))
	d3 := cross2(sub2(p, c), sub2(a, c))
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

