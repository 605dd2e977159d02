// Package paths provides boundary curves for the toolpath generators:
// polylines of 3d points, along with the planar curve geometry the
// generators need (offsets, areas, centroids, resampling) and SVG
// import and export.
package paths

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// A Path is a contiguous series of line segments, from the
// first point in the V slice to the last. A closed path may or may
// not repeat its first point at the end; the geometry functions
// accept either.
type Path struct {
	V []mgl64.Vec3
}

// Bounds describes an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl64.Vec3
}

// Paths is a set of paths, along with a view bounds.
type Paths struct {
	Bounds Bounds
	P      []Path
}

// Size returns the extent of the bounds along each axis.
func (b Bounds) Size() mgl64.Vec3 {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// BoundsOf returns the tight bounds of the given points.
// If there are no points, the bounds are zero.
func BoundsOf(ps ...Path) Bounds {
	inf := math.Inf(1)
	min := mgl64.Vec3{inf, inf, inf}
	max := mgl64.Vec3{-inf, -inf, -inf}
	n := 0
	for _, p := range ps {
		for _, v := range p.V {
			n++
			for i := range v {
				min[i] = math.Min(min[i], v[i])
				max[i] = math.Max(max[i], v[i])
			}
		}
	}
	if n == 0 {
		return Bounds{}
	}
	return Bounds{Min: min, Max: max}
}

// TightenBounds adjusts the bounds to exactly contain the paths.
// If there are no paths, the bounds are set to zero.
func (ps *Paths) TightenBounds() {
	ps.Bounds = BoundsOf(ps.P...)
}

// Translate moves all the paths by the given amount.
func (ps *Paths) Translate(dx mgl64.Vec3) {
	for _, p := range ps.P {
		for i := range p.V {
			p.V[i] = p.V[i].Add(dx)
		}
	}
	ps.Bounds.Min = ps.Bounds.Min.Add(dx)
	ps.Bounds.Max = ps.Bounds.Max.Add(dx)
}

// Transform resizes all paths in the XY plane so that the rectangle
// forming the current bounds is the size of the new bounds. Z
// coordinates are left alone. The bounds are also updated to the new
// bounds.
func (ps *Paths) Transform(nb Bounds) {
	ob := ps.Bounds
	for _, p := range ps.P {
		for i, v := range p.V {
			for ax := 0; ax < 2; ax++ {
				x := v[ax]
				x -= ob.Min[ax]
				x /= ob.Max[ax] - ob.Min[ax]
				x *= nb.Max[ax] - nb.Min[ax]
				x += nb.Min[ax]
				v[ax] = x
			}
			p.V[i] = v
		}
	}
	nb.Min[2], nb.Max[2] = ob.Min[2], ob.Max[2]
	ps.Bounds = nb
}

// move adds a new (initially empty) path starting at x,
// unless the last path already ends at x.
func (ps *Paths) move(x mgl64.Vec3) {
	if len(ps.P) == 0 {
		ps.P = append(ps.P, Path{V: []mgl64.Vec3{x}})
		return
	}
	p := &ps.P[len(ps.P)-1]
	if len(p.V) > 0 && p.V[len(p.V)-1] == x {
		return
	}
	ps.P = append(ps.P, Path{V: []mgl64.Vec3{x}})
}

// line extends the last path with an edge that goes to x.
func (ps *Paths) line(x mgl64.Vec3) {
	p := &ps.P[len(ps.P)-1]
	p.V = append(p.V, x)
}

// Closed reports whether the path ends where it starts.
func (p Path) Closed() bool {
	return len(p.V) > 2 && p.V[0] == p.V[len(p.V)-1]
}

// Ring returns the points of a closed path without the repeated
// final point.
func (p Path) Ring() []mgl64.Vec3 {
	if p.Closed() {
		return p.V[:len(p.V)-1]
	}
	return p.V
}

// Close returns a copy of the path that ends at its first point.
func (p Path) Close() Path {
	v := append([]mgl64.Vec3{}, p.V...)
	if len(v) > 0 && !p.Closed() {
		v = append(v, v[0])
	}
	return Path{V: v}
}

// Reversed returns a copy of the path running the other way.
func (p Path) Reversed() Path {
	v := make([]mgl64.Vec3, len(p.V))
	for i, x := range p.V {
		v[len(v)-1-i] = x
	}
	return Path{V: v}
}

// AtZ returns a copy of the path with every point moved to height z.
func (p Path) AtZ(z float64) Path {
	v := make([]mgl64.Vec3, len(p.V))
	for i, x := range p.V {
		v[i] = mgl64.Vec3{x[0], x[1], z}
	}
	return Path{V: v}
}

// Scaled returns a copy of the path scaled in XY by s about c.
func (p Path) Scaled(c mgl64.Vec3, s float64) Path {
	v := make([]mgl64.Vec3, len(p.V))
	for i, x := range p.V {
		v[i] = mgl64.Vec3{c[0] + (x[0]-c[0])*s, c[1] + (x[1]-c[1])*s, x[2]}
	}
	return Path{V: v}
}
