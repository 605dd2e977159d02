// Package pattern generates textured toolpaths around closed
// boundary curves: woven walls, chase zigzags, spiral infill, bumps
// and bitmap patterned cylinders.
//
// Boundaries arrive as ordered points, as produced by a slicer. Curve
// operations (offsetting, areas, resampling) are delegated to a
// Geometry, and any of them may fail; each generator has a fallback
// for every failure.
package pattern

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/turtle"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.pattern")

// ErrIterationCap is returned by generators that stop because they
// reached their iteration limit rather than converging.
var ErrIterationCap = errors.New("iteration cap reached")

// ErrTooFewPoints is returned for boundaries with too few points to
// form the requested pattern. Callers skip the layer.
var ErrTooFewPoints = errors.New("too few points")

// Geometry is the curve geometry the generators need. Operations
// report failure with ok=false or an empty result.
type Geometry interface {
	Offset(c paths.Path, ref mgl64.Vec3, d float64) (paths.Path, bool)
	Area(c paths.Path) (float64, bool)
	Centroid(c paths.Path) (mgl64.Vec3, bool)
	Length(c paths.Path) float64
	Divide(c paths.Path, n int) []mgl64.Vec3
	Intersect(a, b paths.Path) []mgl64.Vec3
}

var _ Geometry = paths.Planar{}

// Resample divides the closed curve c into points about spacing
// apart.
func Resample(g Geometry, c paths.Path, spacing float64) []mgl64.Vec3 {
	n := 1
	if spacing > 0 {
		n = int(g.Length(c)/spacing) + 1
	}
	return g.Divide(c, n)
}

// headingAt returns the frame a turtle would have after moving from
// the point before pts[i] to pts[i]. The point before the first is
// the last, as the points form a closed loop.
func headingAt(pts []mgl64.Vec3, i int) frame.Frame {
	prev := pts[(i+len(pts)-1)%len(pts)]
	d := pts[i].Sub(prev)
	return frame.FromYaw(math.Atan2(d[1], d[0]))
}

// Probe returns the point distance from pts[i], turned by turn
// degrees from the path's heading there. Positive turns are to the
// left.
func Probe(pts []mgl64.Vec3, i int, turn, distance float64) mgl64.Vec3 {
	return frame.Probe(pts[i], headingAt(pts, i), frame.Radians(turn), distance)
}

// moveXY moves the turtle to p at its current height, or to p itself
// when keepZ is false.
func moveXY(t *turtle.Turtle, p mgl64.Vec3, keepZ bool) {
	if keepZ {
		t.SetXY(p[0], p[1])
		return
	}
	t.SetPosition(p)
}

// FollowConfig controls FollowClosedLine.
type FollowConfig struct {
	// ZInc, if non-zero, is climbed at each point for a continuous
	// spiral. Point heights are then ignored.
	ZInc float64
	// Walls is the number of walls, each one further inside.
	Walls int
	// Gaps marks points where the pen is lifted, or nil.
	Gaps []bool
}

// wallSpacing is the distance between walls, in extrude widths.
const wallSpacing = 0.75

// FollowClosedLine travels to the first of pts and traces the closed
// loop through them. Extra walls are traced
// to the left of the loop's direction of travel, which is inside for
// anticlockwise loops, each wallSpacing extrude widths further in.
func FollowClosedLine(t *turtle.Turtle, pts []mgl64.Vec3, cfg FollowConfig) {
	if len(pts) == 0 {
		return
	}
	spiral := cfg.ZInc != 0 && cfg.Walls <= 1
	pen := func(i int) {
		if i < len(cfg.Gaps) && cfg.Gaps[i] {
			t.PenUp()
		} else {
			t.PenDown()
		}
	}
	t.PenUp()
	for i, p := range pts {
		if i > 0 {
			pen(i)
		}
		moveXY(t, p, spiral)
		if spiral {
			t.Lift(cfg.ZInc)
		}
	}
	pen(0)
	moveXY(t, pts[0], spiral)

	for k := 1; k < cfg.Walls && len(pts) > 1; k++ {
		d := float64(k) * t.ExtrudeWidth() * wallSpacing
		t.PenUp()
		for i := range pts {
			if i > 0 {
				pen(i)
			}
			q := Probe(pts, i, 90, d)
			q[2] = pts[i][2]
			t.SetPosition(q)
		}
		pen(0)
		q := Probe(pts, 0, 90, d)
		q[2] = pts[0][2]
		t.SetPosition(q)
	}
	t.PenDown()
}

// FollowCurve traces the closed curve c, resampled to the turtle's
// resolution.
func FollowCurve(t *turtle.Turtle, g Geometry, c paths.Path) {
	FollowClosedLine(t, Resample(g, c, t.Resolution()), FollowConfig{})
}
