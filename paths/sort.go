package paths

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// SortConfig controls path ordering.
type SortConfig struct {
	Split   bool       // ok to split continuous paths
	Reverse bool       // ok to print paths in the reverse direction
	Start   mgl64.Vec3 // where the nozzle starts
}

// A verticle is a vertex (the "start" vertex of the path),
// with a link to the other "end" of the path.
// This might be an adjacent vertex on the path, or it might
// summarize the whole path from start to end.
type verticle struct {
	path       int // which path it's from
	start, end int // start and end index of segment
}

func (v verticle) reversed() verticle {
	v.start, v.end = v.end, v.start
	return v
}

// The index is a 2d kd-tree over the XY coordinates of verticle
// start points.
type vindexNode struct {
	x           mgl64.Vec3
	v           verticle
	yaxis       bool
	left, right interface{}
}

type vindexLeaf struct {
	x []mgl64.Vec3
	v []verticle
}

type vindex struct {
	minR float64
	m    map[verticle]struct{}
	node interface{}
}

const leafThreshold = 20

func buildIndex(ps *Paths, vs []verticle, yaxis bool) interface{} {
	if len(vs) == 0 {
		return nil
	}
	if len(vs) < leafThreshold {
		leaf := &vindexLeaf{}
		for _, v := range vs {
			leaf.x = append(leaf.x, ps.P[v.path].V[v.start])
			leaf.v = append(leaf.v, v)
		}
		return leaf
	}
	axis := 0
	if yaxis {
		axis = 1
	}
	sort.Slice(vs, func(i, j int) bool {
		vi := ps.P[vs[i].path].V[vs[i].start]
		vj := ps.P[vs[j].path].V[vs[j].start]
		return vi[axis] < vj[axis]
	})

	k := len(vs) / 2
	return &vindexNode{
		x:     ps.P[vs[k].path].V[vs[k].start],
		v:     vs[k],
		yaxis: yaxis,
		left:  buildIndex(ps, vs[:k], !yaxis),
		right: buildIndex(ps, vs[k+1:], !yaxis),
	}
}

func indexVerticles(ps *Paths, vs []verticle, minR float64) *vindex {
	m := map[verticle]struct{}{}
	for _, v := range vs {
		m[v] = struct{}{}
	}
	return &vindex{
		minR: minR,
		m:    m,
		node: buildIndex(ps, vs, false),
	}
}

type vcand struct {
	dist float64
	v    verticle
}

// xyDist is the distance between v0 and v1 ignoring height.
func xyDist(v0, v1 mgl64.Vec3) float64 {
	return math.Hypot(v0[0]-v1[0], v0[1]-v1[1])
}

func xyDistBounds(v0 mgl64.Vec3, b Bounds) float64 {
	v := mgl64.Vec3{
		math.Min(math.Max(v0[0], b.Min[0]), b.Max[0]),
		math.Min(math.Max(v0[1], b.Min[1]), b.Max[1]),
	}
	return xyDist(v0, v)
}

func (vi *vindex) findLeafRadius(vl *vindexLeaf, pos mgl64.Vec3, r float64) []vcand {
	var cand []vcand
	for i := range vl.x {
		d := xyDist(vl.x[i], pos)
		if d <= r {
			if _, ok := vi.m[vl.v[i]]; ok {
				cand = append(cand, vcand{dist: d, v: vl.v[i]})
			}
		}
	}
	return cand
}

func (vi *vindex) findRadius(vni interface{}, pos mgl64.Vec3, r float64, bounds Bounds) []vcand {
	if vleaf, ok := vni.(*vindexLeaf); ok {
		return vi.findLeafRadius(vleaf, pos, r)
	}
	vn, ok := vni.(*vindexNode)
	if !ok || vn == nil {
		return nil
	}
	var cand []vcand
	d := xyDist(vn.x, pos)
	if d <= r {
		if _, ok := vi.m[vn.v]; ok {
			cand = append(cand, vcand{dist: d, v: vn.v})
		}
	}

	axis := 0
	if vn.yaxis {
		axis = 1
	}
	// whether pos is on the low side of the split
	low := pos[axis] <= vn.x[axis]
	axdist := math.Abs(pos[axis] - vn.x[axis])

	near, far := vn.left, vn.right
	nearB, farB := bounds, bounds
	nearB.Max[axis] = vn.x[axis]
	farB.Min[axis] = vn.x[axis]
	if !low {
		near, far = far, near
		nearB, farB = farB, nearB
	}
	cand = append(cand, vi.findRadius(near, pos, r, nearB)...)
	if axdist <= r && xyDistBounds(pos, farB) <= r {
		cand = append(cand, vi.findRadius(far, pos, r, farB)...)
	}
	return cand
}

func (vi *vindex) popNearest(pos mgl64.Vec3) verticle {
	r := vi.minR
	const inf = 1e19
	for {
		bs := Bounds{
			Min: mgl64.Vec3{-inf, -inf, -inf},
			Max: mgl64.Vec3{inf, inf, inf},
		}
		cands := vi.findRadius(vi.node, pos, r, bs)
		if len(cands) > 0 {
			best := 0
			for i := 1; i < len(cands); i++ {
				if cands[i].dist < cands[best].dist {
					best = i
				}
			}
			v := cands[best].v
			delete(vi.m, v)
			delete(vi.m, v.reversed())
			return v
		}
		r *= 2
	}
}

func sortVerticles(ps *Paths, vs []verticle, want int, start mgl64.Vec3) []verticle {
	minR := (ps.Bounds.Max[0] - ps.Bounds.Min[0]) / 100
	if minR <= 0 {
		minR = 1
	}
	idx := indexVerticles(ps, vs, minR)
	res := make([]verticle, 0, want)
	pos := start
	for len(res) < want {
		v := idx.popNearest(pos)
		res = append(res, v)
		pos = ps.P[v.path].V[v.end]
	}
	return res
}

// Sort reorders the paths to reduce the travel between the end of
// one path and the start of the next, greedily choosing the nearest
// unvisited path each time.
func (ps *Paths) Sort(cfg *SortConfig) {
	var vs []verticle
	for i, p := range ps.P {
		if len(p.V) == 0 {
			continue
		}
		if cfg.Split {
			for j := 0; j < len(p.V)-1; j++ {
				vs = append(vs, verticle{i, j, j + 1})
				if cfg.Reverse {
					vs = append(vs, verticle{i, j + 1, j})
				}
			}
		} else {
			vs = append(vs, verticle{i, 0, len(p.V) - 1})
			if cfg.Reverse {
				vs = append(vs, verticle{i, len(p.V) - 1, 0})
			}
		}
	}
	n := len(vs)
	if cfg.Reverse {
		n /= 2
	}
	svs := sortVerticles(ps, vs, n, cfg.Start)

	np := &Paths{Bounds: ps.Bounds}
	for _, v := range svs {
		p := ps.P[v.path]
		if v.start == v.end {
			np.P = append(np.P, Path{V: []mgl64.Vec3{p.V[v.start]}})
			continue
		}
		d := 1
		if v.end < v.start {
			d = -1
		}
		for i := v.start; i != v.end; i += d {
			np.move(p.V[i])
			np.line(p.V[i+d])
		}
	}
	*ps = *np
}
