package slicer

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/pattern"
	"github.com/paulhankin/clayturtle/turtle"
)

// WallMode places a woven wall relative to its layer curve.
type WallMode int

const (
	// OnCurve weaves either side of the curve.
	OnCurve WallMode = iota + 1
	// Outside weaves between the curve and twice the amplitude
	// outside it.
	Outside
	// Inside weaves between the curve and twice the amplitude inside
	// it.
	Inside
)

// WeaveConfig controls WeaveWall.
type WeaveConfig struct {
	// WallWidth is the width of the woven wall on a vertical wall.
	WallWidth float64
	// Period is the length of one weave along the curve.
	Period float64
	Mode   WallMode
	// BottomLayers are filled solid inside the wall.
	BottomLayers int
	// SwapOnShrink measures wall angles downwards from the layer above
	// when it is shorter than the layer below by more than
	// ShrinkThreshold, as happens where the wall closes in.
	SwapOnShrink    bool
	ShrinkThreshold float64
}

// DefaultWeaveConfig returns the usual woven wall.
func DefaultWeaveConfig() WeaveConfig {
	return WeaveConfig{WallWidth: 3, Period: 3, Mode: OnCurve, SwapOnShrink: true, ShrinkThreshold: 0.1}
}

const (
	// minWallPoints is the fewest points a woven layer is made from.
	minWallPoints = 7
	// maxWallAngle bounds the lean used to widen the weave.
	maxWallAngle = 80.0
)

var (
	up   = mgl64.Vec3{0, 0, 1}
	down = mgl64.Vec3{0, 0, -1}
)

// vectorAngle returns the angle between a and b in degrees, or 0 if
// either is zero.
func vectorAngle(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la == 0 || lb == 0 {
		return 0
	}
	c := a.Dot(b) / (la * lb)
	return frame.Degrees(math.Acos(math.Max(-1, math.Min(1, c))))
}

// wallAngles divides c0 into an even number of points about half a
// period apart, and returns them with the lean of the wall at each:
// the angle from vertical of the vector to the closest point of c1.
// If the wall is closing in, the angles are measured from c1 down to
// c0 instead and swapped is true. Layers of fewer than minWallPoints
// points return ErrTooFewPoints.
func wallAngles(g Geometry, c0, c1 paths.Path, cfg *WeaveConfig) (pts []mgl64.Vec3, angles []float64, swapped bool, err error) {
	n := 0
	if cfg.Period > 0 {
		n = int(g.Length(c0)/(cfg.Period/2)) + 1
	}
	if n < minWallPoints {
		return nil, nil, false, fmt.Errorf("woven layer of %d points: %w", n, pattern.ErrTooFewPoints)
	}
	if n%2 != 0 {
		n++
	}
	pts = g.Divide(c0, n)
	from, to, dir := pts, c1, up
	if cfg.SwapOnShrink && g.Length(c1)-g.Length(c0) < -cfg.ShrinkThreshold {
		from, to, dir, swapped = g.Divide(c1, n), c0, down, true
	}
	angles = make([]float64, len(from))
	for j, p := range from {
		angles[j] = vectorAngle(dir, g.ClosestPoint(to, p).Sub(p))
	}
	return pts, angles, swapped, nil
}

// smallCurveAmplitude limits amp so the weave stays inside small
// curves.
func smallCurveAmplitude(g Geometry, c paths.Path, amp float64, mode WallMode) float64 {
	area, ok := g.Area(c)
	if !ok {
		return amp
	}
	k := 0.9
	if mode == Inside {
		k = 0.5
	}
	return math.Min(amp, math.Sqrt(area/math.Pi)*k)
}

// weaveLayer prints one woven layer around the curve c through pts
// and returns the path of the weave. Alternate points are displaced
// from the curve; offset shifts which ones, so stacked layers cross.
func weaveLayer(t *turtle.Turtle, g Geometry, c paths.Path, pts []mgl64.Vec3, angles []float64, cfg *WeaveConfig, offset bool) paths.Path {
	mode := cfg.Mode
	// outside and inside are relative to the left of the direction of
	// travel, which is outside for clockwise curves.
	if len(pts) > 1 && mode != OnCurve && !c.Contains(pattern.Probe(pts, 1, 90, 1)) {
		if mode == Inside {
			mode = Outside
		} else {
			mode = Inside
		}
	}

	var out paths.Path
	visit := func(p mgl64.Vec3) {
		t.SetPosition(p)
		out.V = append(out.V, p)
	}
	t.PenUp()
	t.SetPosition(pts[0])
	t.PenDown()
	angle := 0.0
	for j := range pts {
		if j < len(angles) {
			angle = math.Min(angles[j], maxWallAngle)
		}
		amp := (cfg.WallWidth / 2) / math.Cos(frame.Radians(angle))
		amp = smallCurveAmplitude(g, c, amp, mode)
		o := j
		if offset {
			o++
		}
		switch {
		case o%2 != 0 && mode == OnCurve:
			visit(pattern.Probe(pts, j, -90, amp))
		case o%2 != 0:
			visit(pts[j])
		case mode == OnCurve:
			visit(pattern.Probe(pts, j, 90, amp))
		case mode == Outside:
			visit(pattern.Probe(pts, j, -90, 2*amp))
		default:
			visit(pattern.Probe(pts, j, 90, 2*amp))
		}
	}
	visit(pts[0])
	return out
}

// WeaveWall prints a woven wall through the stack of layers and
// returns the woven path of each printed layer. The sideways
// displacement of each point is widened by the lean of the wall there,
// so that the wall keeps its width where it slopes, and consecutive
// layers alternate which points are displaced. The top layer reuses
// the angles of the layer below it.
func WeaveWall(t *turtle.Turtle, g Geometry, layers []paths.Path, cfg WeaveConfig) ([]paths.Path, error) {
	if len(layers) < 2 {
		return nil, fmt.Errorf("woven wall of %d layers: %w", len(layers), pattern.ErrTooFewPoints)
	}
	t.Comment("woven wall")
	var (
		out    []paths.Path
		pts    []mgl64.Vec3
		angles []float64
	)
	offset := true
	for i := 0; i < len(layers)-1; i++ {
		c0, c1 := layers[i], layers[i+1]
		if i < cfg.BottomLayers {
			weaveBottom(t, g, c0, &cfg)
		}
		p, a, swapped, err := wallAngles(g, c0, c1, &cfg)
		if err != nil {
			log.Warningf("skipping layer %d: %s", i, err)
			continue
		}
		if swapped {
			log.Infof("layer %d closes in, measuring from above", i)
		}
		pts, angles = p, a
		out = append(out, weaveLayer(t, g, c0, pts, angles, &cfg, offset))
		offset = !offset
	}
	if angles == nil {
		return out, nil
	}
	top := layers[len(layers)-1]
	topPts := g.Divide(top, len(pts))
	out = append(out, weaveLayer(t, g, top, topPts, angles, &cfg, offset))
	return out, nil
}

// weaveBottom fills the inside of a woven wall's layer c.
func weaveBottom(t *turtle.Turtle, g Geometry, c paths.Path, cfg *WeaveConfig) {
	ref, ok := g.Centroid(c)
	if !ok {
		log.Warningf("no centroid for woven bottom, skipping")
		return
	}
	inner := c
	switch cfg.Mode {
	case OnCurve:
		inner, ok = g.Offset(c, ref, cfg.WallWidth)
	case Inside:
		inner, ok = g.Offset(c, ref, cfg.WallWidth*1.5)
	}
	if !ok {
		log.Warningf("no inner curve for woven bottom, skipping")
		return
	}
	pattern.FollowCurve(t, g, inner)
	if _, _, err := pattern.SpiralBottom(t, g, inner); err != nil {
		log.Warningf("woven bottom: %s", err)
	}
	t.PenUp()
}
