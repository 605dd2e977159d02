package paths

import "github.com/go-gl/mathgl/mgl64"

// segmentDist returns the distance from v to the segment s-e.
func segmentDist(v, s, e mgl64.Vec3) float64 {
	d := e.Sub(s)
	l2 := d.Dot(d)
	if l2 == 0 {
		return v.Sub(s).Len()
	}
	t := v.Sub(s).Dot(d) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return v.Sub(s.Add(d.Mul(t))).Len()
}

// simplifyPath is Ramer-Douglas-Peucker.
func simplifyPath(v []mgl64.Vec3, tol float64) []mgl64.Vec3 {
	if len(v) < 3 {
		return append([]mgl64.Vec3{}, v...)
	}
	worst := 0
	worstD := 0.0
	for i := 1; i < len(v)-1; i++ {
		d := segmentDist(v[i], v[0], v[len(v)-1])
		if d > worstD {
			worst = i
			worstD = d
		}
	}
	if worstD <= tol {
		return []mgl64.Vec3{v[0], v[len(v)-1]}
	}
	if worst <= 0 || worst >= len(v)-1 {
		panic("simply the worst")
	}
	lefts := simplifyPath(v[:worst+1], tol)
	rights := simplifyPath(v[worst:], tol)
	return append(lefts, rights[1:]...)
}

// Simplify removes points from paths, with the guarantee that
// all removed points are within the given tolerance (distance)
// from the new path.
func (ps *Paths) Simplify(tol float64) {
	for i, p := range ps.P {
		ps.P[i].V = simplifyPath(p.V, tol)
	}
}

// Simplify returns a copy of p with points removed, as Paths.Simplify.
func (p Path) Simplify(tol float64) Path {
	return Path{V: simplifyPath(append([]mgl64.Vec3{}, p.V...), tol)}
}
