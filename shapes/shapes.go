// Package shapes draws simple closed forms with a turtle: regular
// polygons, circles, filled discs and their oscillating variants.
//
// Relative shapes (the polygons) start from the turtle's current
// position and heading. Absolute shapes (circles) are centred on the
// Z axis at the turtle's current height.
package shapes

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/turtle"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clayturtle.shapes")

// minSteps is the fewest sides a shape is drawn with.
const minSteps = 3

// AdjustSteps reduces steps so that each side of a polygon with the
// given circumscribing diameter is at least resolution long. Small
// shapes would otherwise produce many more instructions than the
// printer can resolve.
func AdjustSteps(diameter float64, steps int, resolution float64) int {
	circ := math.Pi * diameter
	if steps < 1 {
		steps = 1
	}
	if resolution > 0 && circ/float64(steps) < resolution {
		n := int(math.Floor(circ / resolution))
		if n < minSteps {
			n = minSteps
		}
		log.Warningf("changed number of steps from %d to %d", steps, n)
		steps = n
	}
	return steps
}

// NonCenteredPolygon traces a regular polygon approximating a circle
// of the given diameter, starting at the turtle's position and turning
// right. It returns the number of sides drawn.
func NonCenteredPolygon(t *turtle.Turtle, diameter float64, steps int) int {
	defer t.InDegrees()()
	steps = AdjustSteps(diameter, steps, t.Resolution())
	t.Comment("starting polygon")
	side := math.Pi * diameter / float64(steps)
	turn := 360.0 / float64(steps)
	for i := 0; i < steps; i++ {
		t.Forward(side)
		t.Right(turn)
	}
	return steps
}

// hopLayers is how many layer heights the turtle rises when hopping
// between a shape's centre and its boundary.
const hopLayers = 5

// CenteredPolygon traces a regular polygon of the given diameter
// around the turtle's position. The turtle hops to the boundary and
// back with its pen up, lifted clear of the print.
func CenteredPolygon(t *turtle.Turtle, diameter float64, steps int) int {
	defer t.InDegrees()()
	steps = AdjustSteps(diameter, steps, t.Resolution())
	r := diameter / 2
	side := math.Pi * diameter / float64(steps)
	outer := 360.0 / float64(steps)
	inner := 180 - outer
	hop := t.LayerHeight() * hopLayers

	t.Lift(hop)
	t.PenUp()
	t.Forward(r)
	t.Left(outer + inner/2)
	t.Lift(-hop)
	t.PenDown()
	for i := 0; i < steps; i++ {
		t.Forward(side)
		t.Left(outer)
	}
	t.PenUp()
	t.Lift(hop)
	t.Right(outer + inner/2)
	t.Backward(r)
	t.Lift(-hop)
	t.PenDown()
	return steps
}

// Polygon traces a regular polygon with sides of length side around
// the turtle's position.
func Polygon(t *turtle.Turtle, side float64, steps int) {
	defer t.InDegrees()()
	r := side / (2 * math.Sin(math.Pi/float64(steps)))
	outer := 360.0 / float64(steps)
	inner := 180 - outer
	t.PenUp()
	t.Forward(r)
	t.Left(outer + inner/2)
	t.PenDown()
	for i := 0; i < steps; i++ {
		t.Forward(side)
		t.Left(outer)
	}
	t.PenUp()
	t.Right(outer + inner/2)
	t.Backward(r)
	t.PenDown()
}

// stepOut moves the turtle one distance to its left without changing
// its heading.
func stepOut(t *turtle.Turtle, distance float64) {
	t.Left(90)
	t.Forward(distance)
	t.Right(90)
}

// PolygonLayer fills a disc of the given diameter with concentric
// polygons, spiralling out from the turtle's position.
func PolygonLayer(t *turtle.Turtle, diameter float64, steps int, returnToCenter bool) {
	defer t.InDegrees()()
	t.Comment("starting solid layer")
	w := t.ExtrudeWidth()
	d := w * 2
	stepOut(t, w)
	t.Extrude(10)
	NonCenteredPolygon(t, d, steps)
	for d < diameter-w*2 {
		stepOut(t, w)
		d += w * 2
		NonCenteredPolygon(t, d, steps)
	}
	stepOut(t, (diameter-d)/2)
	NonCenteredPolygon(t, diameter, steps)

	if returnToCenter {
		t.PenUp()
		t.Left(90)
		t.Lift(1)
		t.Backward(diameter / 2)
		t.Right(90)
		t.Lift(-1)
		t.PenDown()
	}
}

// minCircleStep is the shortest step Circle takes, in mm.
const minCircleStep = 1.0

// Circle draws a circle of the given diameter around the Z axis. The
// circle starts at angle start (in steps) and runs overlap steps past
// its start so the seam is covered. The turtle travels to the start
// with its pen up.
func Circle(t *turtle.Turtle, diameter float64, steps, start, overlap int) {
	r := diameter / 2
	circ := math.Pi * diameter
	if circ/float64(steps) < minCircleStep {
		steps = int(circ / minCircleStep)
		if steps < minSteps {
			steps = minSteps
		}
	}
	dtheta := 2 * math.Pi / float64(steps)
	z := t.Z()
	for i := start; i < steps+start+2+overlap; i++ {
		a := float64(i) * dtheta
		p := mgl64.Vec3{r * math.Cos(a), r * math.Sin(a), z}
		if i == start {
			t.PenUp()
			t.SetPosition(p)
			t.PenDown()
		}
		t.SetPosition(p)
	}
}

// defaultCircleSteps is the step count for circles in filled surfaces.
const defaultCircleSteps = 100

// CircularSurfaceInOut fills a disc with concentric circles, working
// outwards.
func CircularSurfaceInOut(t *turtle.Turtle, diameter float64) {
	w := t.ExtrudeWidth()
	n := int(diameter / (w * 2))
	if n < 1 {
		n = 1
	}
	dd := diameter / float64(n)
	d := w * 2
	for d < diameter {
		Circle(t, d, defaultCircleSteps, 0, 1)
		d += dd
	}
	if d <= diameter {
		Circle(t, diameter, defaultCircleSteps, 0, 1)
	}
}

// CircularSurfaceOutIn fills a disc with concentric circles, working
// inwards.
func CircularSurfaceOutIn(t *turtle.Turtle, diameter float64) {
	w := t.ExtrudeWidth()
	for d := diameter; d >= w; d -= w * 2 {
		Circle(t, d, defaultCircleSteps, 0, 1)
	}
}

// ZigZagCircle draws a circle whose radius alternates between r+a and
// r-a every period degrees. inverted swaps the two, so that stacked
// layers interlock.
func ZigZagCircle(t *turtle.Turtle, diameter, amplitude, period float64, inverted bool) {
	r := diameter / 2
	steps := int(360 / (2 * period))
	if steps < minSteps {
		steps = minSteps
	}
	dtheta := 2 * math.Pi / float64(steps)
	if inverted {
		amplitude = -amplitude
	}
	z := t.Z()
	for i := 0; i <= steps; i++ {
		rr := r + amplitude
		if i%2 == 1 {
			rr = r - amplitude
		}
		a := float64(i) * dtheta
		p := mgl64.Vec3{rr * math.Cos(a), rr * math.Sin(a), z}
		if i == 0 {
			t.PenUp()
			t.SetPosition(p)
			t.PenDown()
		}
		t.SetPosition(p)
	}
}
