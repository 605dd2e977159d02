package pattern

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/paths"
	"github.com/paulhankin/clayturtle/turtle"
)

// BumpSquare prints a square bump to the turtle's left: out by
// length, width steps of size step around the curve turning right by
// dtheta, and back in.
func BumpSquare(t *turtle.Turtle, length, step, dtheta, zInc float64, width int) {
	defer t.InDegrees()()
	t.Left(90)
	t.Forward(length)
	t.Right(90)
	for j := 0; j < width; j++ {
		t.ForwardLift(step, zInc)
		t.Right(dtheta)
	}
	t.Right(90)
	t.Forward(length)
	t.Left(90)
}

// BumpTriangle prints a pointed bump to the turtle's left, width steps
// wide, and leaves the turtle where width steps along the curve would.
func BumpTriangle(t *turtle.Turtle, length float64, width int, step, dtheta, zInc float64) {
	if width == 0 {
		BumpSquare(t, length, step, dtheta, zInc, 0)
		return
	}
	// walk the curve on a copy of the turtle's frame
	pos, f := t.Position(), t.Frame()
	walk := func(n int) {
		for i := 0; i < n; i++ {
			pos = pos.Add(f.Forward.Mul(step)).Add(f.Up.Mul(zInc))
			f.Yaw(-frame.Radians(dtheta))
		}
	}
	walk(width / 2)
	tip := frame.Probe(pos, f, frame.Radians(90), length)
	walk(width / 2)

	yaw := frame.Degrees(f.YawAngle())
	t.SetPosition(tip)
	t.SetPosition(pos)
	defer t.InDegrees()()
	t.SetHeading(yaw, 0, 0)
}

// Bumps places spikes along a boundary for FollowClosedLineSimpleBumps.
type Bumps struct {
	// Count bumps are spread evenly around the loop.
	Count  int
	Length float64
	// Start shifts the bumps along the loop, in points.
	Start int
	ZInc  float64
}

// FollowClosedLineSimpleBumps traces the loop pts, printing a spike
// out and back to the right at each bump position.
func FollowClosedLineSimpleBumps(t *turtle.Turtle, pts []mgl64.Vec3, b Bumps) {
	if len(pts) == 0 {
		return
	}
	defer t.InDegrees()()
	every := 0
	if b.Count > 0 {
		every = len(pts) / b.Count
	}
	for i, p := range pts {
		t.SetXY(p[0], p[1])
		t.Lift(b.ZInc)
		if every > 0 && i > 0 && (i+b.Start)%every == 0 {
			t.Right(90)
			t.Forward(b.Length)
			t.Backward(b.Length)
			t.Left(90)
		}
	}
	t.SetXY(pts[0][0], pts[0][1])
	t.Lift(b.ZInc)
}

// AlongCurve describes a two-material pattern printed along a curve.
type AlongCurve struct {
	// Bits marks the patterned points; the curve is divided into
	// len(Bits) points.
	Bits      []bool
	Amplitude float64
	// PatternLayer prints the pattern; otherwise only the walls are
	// printed.
	PatternLayer bool
	// Windows leaves gaps in the walls at patterned points.
	Windows bool
	// Support fills the window gaps in.
	Support bool
	// StructureRate and PatternRate are the extrude rates for the
	// walls and the pattern.
	StructureRate, PatternRate float64
}

// DefaultAlongCurve returns the usual pattern settings for bits.
func DefaultAlongCurve(bits []bool) AlongCurve {
	return AlongCurve{Bits: bits, Amplitude: 6, PatternLayer: true, StructureRate: 2.5, PatternRate: 1.5}
}

const (
	structureExtruder = 0
	patternExtruder   = 1
	// primeAlongCurve is the extrusion that primes the pattern
	// extruder before its first bump.
	primeAlongCurve = 15
)

// PatternAlongCurve prints a double wall along c with the structure
// extruder, then bumps out from the inner wall at the patterned
// points with the pattern extruder.
func PatternAlongCurve(t *turtle.Turtle, g Geometry, c paths.Path, a AlongCurve) error {
	n := len(a.Bits)
	if n == 0 {
		return ErrTooFewPoints
	}
	defer t.InDegrees()()
	t.SetExtrudeRate(a.StructureRate)
	bit := func(i int) bool { return i >= 0 && i < n && a.Bits[i] }
	gap := func(i int) bool { return bit(i) && a.Windows && !a.Support }

	pts := g.Divide(c, n)
	if len(pts) == 0 {
		return ErrTooFewPoints
	}
	t.PenUp()
	t.SetPosition(pts[0])
	for i, p := range pts {
		if gap(i) {
			t.PenUp()
		} else {
			t.PenDown()
		}
		t.SetPosition(p)
	}
	t.SetPosition(pts[0])

	ref, ok := g.Centroid(c)
	if !ok {
		log.Warningf("no centroid for curve, printing a single wall")
		return nil
	}
	inner, ok := g.Offset(c, ref, t.ExtrudeWidth())
	if !ok {
		log.Warningf("no inner wall for curve, printing a single wall")
		return nil
	}
	innerPts := g.Divide(inner, n)
	for i, p := range innerPts {
		if gap(i) {
			t.PenUp()
		} else {
			t.PenDown()
		}
		t.SetPosition(p)
	}
	if len(innerPts) > 0 {
		t.SetPosition(innerPts[0])
	}

	t.Lift(t.LayerHeight() / 2)
	t.PenUp()
	if a.PatternLayer {
		t.SetExtruder(patternExtruder)
		t.SetExtrudeRate(a.PatternRate)
		primed := false
		for i, p := range innerPts {
			if !(bit(i) || bit(i+1) || bit(i-1)) {
				t.PenUp()
				continue
			}
			t.SetXY(p[0], p[1])
			t.PenDown()
			if !primed {
				t.Extrude(primeAlongCurve)
				primed = true
			}
			t.Left(90)
			t.Forward(a.Amplitude)
			t.Backward(a.Amplitude)
			t.Right(90)
		}
	}
	t.PenUp()
	t.Lift(t.LayerHeight() / 2)
	t.SetExtruder(structureExtruder)
	t.SetExtrudeRate(a.StructureRate)
	return nil
}
