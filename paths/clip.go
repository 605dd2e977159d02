package paths

import "github.com/go-gl/mathgl/mgl64"

type outcode uint

const (
	inside outcode = 0
	left   outcode = 1
	right  outcode = 2
	bottom outcode = 4
	top    outcode = 8
)

func computeOutcode(v mgl64.Vec3, b Bounds) outcode {
	var c outcode
	if v[0] < b.Min[0] {
		c |= left
	} else if v[0] > b.Max[0] {
		c |= right
	}
	if v[1] < b.Min[1] {
		c |= bottom
	} else if v[1] > b.Max[1] {
		c |= top
	}
	return c
}

// lerpAt returns the point on v0-v1 whose coordinate on axis ax is t.
func lerpAt(v0, v1 mgl64.Vec3, ax int, t float64) mgl64.Vec3 {
	var v mgl64.Vec3
	for i := range v {
		v[i] = v0[i] + (v1[i]-v0[i])*(t-v0[ax])/(v1[ax]-v0[ax])
	}
	v[ax] = t
	return v
}

// Cohen-Sutherland clipping in the XY plane, from
// https://en.wikipedia.org/wiki/Cohen%E2%80%93Sutherland_algorithm
// Z is interpolated along the clipped segment.
func clipLine(v0, v1 mgl64.Vec3, b Bounds) (mgl64.Vec3, mgl64.Vec3, bool) {
	outcode0 := computeOutcode(v0, b)
	outcode1 := computeOutcode(v1, b)
	for {
		if outcode0 == 0 && outcode1 == 0 {
			return v0, v1, true
		} else if (outcode0 & outcode1) != 0 {
			return v0, v1, false
		}
		outcodeOut := outcode0
		if outcode1 > outcode0 {
			outcodeOut = outcode1
		}

		var v mgl64.Vec3
		switch {
		case outcodeOut&top != 0:
			v = lerpAt(v0, v1, 1, b.Max[1])
		case outcodeOut&bottom != 0:
			v = lerpAt(v0, v1, 1, b.Min[1])
		case outcodeOut&right != 0:
			v = lerpAt(v0, v1, 0, b.Max[0])
		case outcodeOut&left != 0:
			v = lerpAt(v0, v1, 0, b.Min[0])
		}
		if outcodeOut == outcode0 {
			v0 = v
			outcode0 = computeOutcode(v0, b)
		} else {
			v1 = v
			outcode1 = computeOutcode(v1, b)
		}
	}
}

func clipPath(p Path, b Bounds) []Path {
	var parts []Path
	var curPath *Path
	var cont bool
	for i := 1; i < len(p.V); i++ {
		v0, v1, ok := clipLine(p.V[i-1], p.V[i], b)
		if !ok {
			cont = false
			continue
		}
		if v0 != p.V[i-1] || !cont {
			parts = append(parts, Path{})
			curPath = &parts[len(parts)-1]
			curPath.V = append(curPath.V, v0)
		}
		curPath.V = append(curPath.V, v1)
		cont = (v1 == p.V[i])
	}
	// remove parts with 0 or 1 vertices if any.
	j := 0
	for i := 0; i < len(parts); i++ {
		if len(parts[i].V) < 2 {
			continue
		}
		parts[j] = parts[i]
		j++
	}
	return parts[:j]
}

// Clip removes all line segments outside the given bounds in the XY
// plane. If a path crosses the bounds, it's broken into multiple
// paths.
func (ps *Paths) Clip(b Bounds) {
	var result []Path
	for _, p := range ps.P {
		result = append(result, clipPath(p, b)...)
	}
	ps.P = result
}

// Inside reports whether every point of every path lies within b in
// the XY plane.
func (ps *Paths) Inside(b Bounds) bool {
	for _, p := range ps.P {
		for _, v := range p.V {
			if computeOutcode(v, b) != inside {
				return false
			}
		}
	}
	return true
}
