package paths

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// The curve geometry here treats a path as a closed ring in the XY
// plane. Results that are points carry the height of the path's
// first point.

func cross2(a, b mgl64.Vec3) float64 {
	return a[0]*b[1] - a[1]*b[0]
}

// dedupe drops consecutive points that coincide in XY.
func dedupe(v []mgl64.Vec3) []mgl64.Vec3 {
	var r []mgl64.Vec3
	for _, x := range v {
		if len(r) > 0 && xyDist(r[len(r)-1], x) < 1e-9 {
			continue
		}
		r = append(r, x)
	}
	for len(r) > 1 && xyDist(r[0], r[len(r)-1]) < 1e-9 {
		r = r[:len(r)-1]
	}
	return r
}

// Length returns the length of the polyline through V.
func (p Path) Length() float64 {
	d := 0.0
	for i := 1; i < len(p.V); i++ {
		d += p.V[i].Sub(p.V[i-1]).Len()
	}
	return d
}

// Perimeter returns the length of the path once closed.
func (p Path) Perimeter() float64 {
	return p.Close().Length()
}

// SignedArea returns the area enclosed by the ring in the XY plane,
// positive when the points run anticlockwise.
func (p Path) SignedArea() float64 {
	r := p.Ring()
	a := 0.0
	for i := range r {
		a += cross2(r[i], r[(i+1)%len(r)])
	}
	return a / 2
}

// Area returns the unsigned enclosed area. ok is false for
// degenerate rings.
func (p Path) Area() (float64, bool) {
	if len(p.Ring()) < 3 {
		return 0, false
	}
	a := math.Abs(p.SignedArea())
	if a == 0 || math.IsNaN(a) {
		return 0, false
	}
	return a, true
}

// Centroid returns the area centroid of the ring.
func (p Path) Centroid() (mgl64.Vec3, bool) {
	r := p.Ring()
	if len(r) < 3 {
		return mgl64.Vec3{}, false
	}
	a := p.SignedArea()
	if a == 0 || math.IsNaN(a) {
		return mgl64.Vec3{}, false
	}
	var cx, cy float64
	for i := range r {
		j := (i + 1) % len(r)
		c := cross2(r[i], r[j])
		cx += (r[i][0] + r[j][0]) * c
		cy += (r[i][1] + r[j][1]) * c
	}
	return mgl64.Vec3{cx / (6 * a), cy / (6 * a), r[0][2]}, true
}

// Contains reports whether pt lies inside the ring in the XY plane.
func (p Path) Contains(pt mgl64.Vec3) bool {
	r := p.Ring()
	in := false
	for i, j := 0, len(r)-1; i < len(r); j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a[1] > pt[1]) != (b[1] > pt[1]) {
			x := a[0] + (pt[1]-a[1])*(b[0]-a[0])/(b[1]-a[1])
			if pt[0] < x {
				in = !in
			}
		}
	}
	return in
}

type offsetLine struct {
	p, d mgl64.Vec3
}

func (l offsetLine) meet(m offsetLine) mgl64.Vec3 {
	c := cross2(l.d, m.d)
	if math.Abs(c) < 1e-12*l.d.Len()*m.d.Len() {
		return m.p
	}
	t := cross2(m.p.Sub(l.p), m.d) / c
	return l.p.Add(l.d.Mul(t))
}

// Offset returns the ring moved a distance d towards the side of it
// that ref lies on: inwards when ref is inside the ring, outwards
// otherwise. Corners are mitred. Edges that collapse under an inward
// offset are removed; ok is false when too little of the ring
// survives.
func (p Path) Offset(ref mgl64.Vec3, d float64) (Path, bool) {
	r := dedupe(p.Ring())
	if len(r) < 3 || math.IsNaN(d) {
		return Path{}, false
	}
	a0 := p.SignedArea()
	if a0 == 0 {
		return Path{}, false
	}
	side := 1.0 // anticlockwise ring, inwards is to the left
	if a0 < 0 {
		side = -1
	}
	inward := p.Contains(ref)
	if !inward {
		side = -side
	}
	z := r[0][2]
	lines := make([]offsetLine, len(r))
	for i := range r {
		e := r[(i+1)%len(r)].Sub(r[i])
		e[2] = 0
		n := mgl64.Vec3{-e[1], e[0], 0}.Normalize().Mul(side * d)
		lines[i] = offsetLine{p: mgl64.Vec3{r[i][0], r[i][1], z}.Add(n), d: e}
	}
	var v []mgl64.Vec3
	for pass := 0; pass < len(r); pass++ {
		if len(lines) < 3 {
			return Path{}, false
		}
		v = make([]mgl64.Vec3, len(lines))
		for j := range lines {
			v[j] = lines[(j+len(lines)-1)%len(lines)].meet(lines[j])
		}
		keep := lines[:0:0]
		for j := range lines {
			e := v[(j+1)%len(v)].Sub(v[j])
			if e.Dot(lines[j].d) > 0 {
				keep = append(keep, lines[j])
			}
		}
		if len(keep) == len(lines) {
			break
		}
		lines = keep
	}
	if len(v) < 3 {
		return Path{}, false
	}
	out := Path{V: append(v, v[0])}
	a1 := out.SignedArea()
	if a1*a0 <= 0 || math.IsNaN(a1) {
		return Path{}, false
	}
	if inward && d > 0 && math.Abs(a1) >= math.Abs(a0) {
		return Path{}, false
	}
	return out, true
}

// Divide returns n points spaced evenly by arc length around the
// closed ring, starting at its first point.
func (p Path) Divide(n int) []mgl64.Vec3 {
	r := p.Ring()
	if n <= 0 || len(r) == 0 {
		return nil
	}
	ring := Path{V: r}.Close().V
	cum := make([]float64, len(ring))
	for i := 1; i < len(ring); i++ {
		cum[i] = cum[i-1] + ring[i].Sub(ring[i-1]).Len()
	}
	total := cum[len(cum)-1]
	pts := make([]mgl64.Vec3, 0, n)
	seg := 1
	for k := 0; k < n; k++ {
		t := total * float64(k) / float64(n)
		for seg < len(ring)-1 && cum[seg] < t {
			seg++
		}
		l := cum[seg] - cum[seg-1]
		if l == 0 {
			pts = append(pts, ring[seg-1])
			continue
		}
		s := (t - cum[seg-1]) / l
		pts = append(pts, ring[seg-1].Add(ring[seg].Sub(ring[seg-1]).Mul(s)))
	}
	return pts
}

// ClosestPoint returns the point of the closed ring nearest to pt.
func (p Path) ClosestPoint(pt mgl64.Vec3) mgl64.Vec3 {
	ring := p.Close().V
	if len(ring) == 1 {
		return ring[0]
	}
	best, bestD := mgl64.Vec3{}, math.Inf(1)
	for i := 1; i < len(ring); i++ {
		a, ab := ring[i-1], ring[i].Sub(ring[i-1])
		s := 0.0
		if l2 := ab.Dot(ab); l2 > 0 {
			s = math.Max(0, math.Min(1, pt.Sub(a).Dot(ab)/l2))
		}
		q := a.Add(ab.Mul(s))
		if d := q.Sub(pt).Len(); d < bestD {
			best, bestD = q, d
		}
	}
	return best
}

// Intersections returns the points where the segments of a cross the
// segments of b in the XY plane. Heights are taken from a.
func Intersections(a, b Path) []mgl64.Vec3 {
	var r []mgl64.Vec3
	for i := 1; i < len(a.V); i++ {
		p, pd := a.V[i-1], a.V[i].Sub(a.V[i-1])
		for j := 1; j < len(b.V); j++ {
			q, qd := b.V[j-1], b.V[j].Sub(b.V[j-1])
			c := cross2(pd, qd)
			if c == 0 {
				continue
			}
			qp := q.Sub(p)
			t := cross2(qp, qd) / c
			u := cross2(qp, pd) / c
			if t < 0 || t > 1 || u < 0 || u > 1 {
				continue
			}
			r = append(r, p.Add(pd.Mul(t)))
		}
	}
	return r
}

// Circle returns a closed n-gon of the given radius around c, in the
// plane z = c.Z, starting on the +X side of c.
func Circle(c mgl64.Vec3, radius float64, n int) Path {
	v := make([]mgl64.Vec3, 0, n+1)
	start := mgl64.Vec3{radius, 0, 0}
	for i := 0; i < n; i++ {
		rot := mgl64.Rotate3DZ(2 * math.Pi * float64(i) / float64(n))
		v = append(v, c.Add(rot.Mul3x1(start)))
	}
	return Path{V: append(v, v[0])}
}

// Planar is the curve geometry for flat closed rings, as used by
// the pattern generators and layer slicer.
type Planar struct{}

// Offset is Path.Offset.
func (Planar) Offset(c Path, ref mgl64.Vec3, d float64) (Path, bool) { return c.Offset(ref, d) }

// Area is Path.Area.
func (Planar) Area(c Path) (float64, bool) { return c.Area() }

// Centroid is Path.Centroid.
func (Planar) Centroid(c Path) (mgl64.Vec3, bool) { return c.Centroid() }

// Length is Path.Perimeter.
func (Planar) Length(c Path) float64 { return c.Perimeter() }

// Divide is Path.Divide.
func (Planar) Divide(c Path, n int) []mgl64.Vec3 { return c.Divide(n) }

// ClosestPoint is Path.ClosestPoint.
func (Planar) ClosestPoint(c Path, pt mgl64.Vec3) mgl64.Vec3 { return c.ClosestPoint(pt) }

// Intersect is Intersections.
func (Planar) Intersect(a, b Path) []mgl64.Vec3 { return Intersections(a, b) }
