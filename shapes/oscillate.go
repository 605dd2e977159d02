package shapes

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/paulhankin/clayturtle/frame"
	"github.com/paulhankin/clayturtle/turtle"
)

// polarAngle returns the angle of the turtle's position around the Z
// axis, in degrees.
func polarAngle(t *turtle.Turtle) float64 {
	return frame.Degrees(math.Atan2(t.Y(), t.X()))
}

// OscillatingCircleXY draws a circle around the Z axis whose radius
// varies as diameter/2 + a·cos(n·θ). It starts from the turtle's
// angular position. With spiralUp the turtle climbs one layer height
// over the circle.
func OscillatingCircleXY(t *turtle.Turtle, diameter, a, n float64, steps int, spiralUp bool) {
	steps = AdjustSteps(diameter, steps, t.Resolution())
	dtheta := 360.0 / float64(steps)
	b := diameter / 2
	z := t.Z()
	zInc := t.LayerHeight() / float64(steps)
	theta0 := polarAngle(t)
	for s := 1; s <= steps; s++ {
		theta := frame.Radians(theta0 + dtheta*float64(s))
		r := b + a*math.Cos(n*theta)
		if spiralUp {
			z += zInc
		}
		t.SetPosition(mgl64.Vec3{r * math.Cos(theta), r * math.Sin(theta), z})
	}
}

// FilledOscillatingCircleXY fills a disc with concentric oscillating
// circles whose amplitude grows from the centre out to a.
func FilledOscillatingCircleXY(t *turtle.Turtle, diameter, a, n float64, steps int) {
	defer t.InDegrees()()
	steps = AdjustSteps(diameter, steps, t.Resolution())
	w := t.ExtrudeWidth()
	d := w * 2
	da := a / (diameter / (w * 2))
	a2 := da
	for d < diameter {
		OscillatingCircleXY(t, d, a2, n, steps, false)
		stepOut(t, w)
		d += w * 2
		a2 += da
	}
	OscillatingCircleXY(t, diameter, a2, n, steps, false)
}

// OscillatingCircleZ traces a polygon like NonCenteredPolygon whose
// height rises and falls n times around the circle.
func OscillatingCircleZ(t *turtle.Turtle, diameter, amplitude, n float64, steps int, spiralUp bool) {
	defer t.InDegrees()()
	steps = AdjustSteps(diameter, steps, t.Resolution())
	dc := math.Pi * diameter / float64(steps)
	dtheta := 360.0 / float64(steps)
	zInc := t.LayerHeight() / float64(steps)
	for s := 1; s <= steps; s++ {
		theta := float64(s) * dtheta
		t.ForwardLift(dc, amplitude*math.Sin(frame.Radians(n*theta)))
		t.Right(dtheta)
		if spiralUp {
			t.Lift(zInc)
		}
	}
}

// Oscillation describes a circle that oscillates both in radius and
// in height.
type Oscillation struct {
	Diameter float64
	// AmplitudeXY and OscillationsXY perturb the radius.
	AmplitudeXY, OscillationsXY float64
	// AmplitudeZ and OscillationsZ perturb the height.
	AmplitudeZ, OscillationsZ float64
	Steps                     int
	// ZInc is added to the height at every step.
	ZInc float64
	// PhaseOffset, in degrees, shifts the radial oscillation.
	PhaseOffset float64
}

// OscillatingCircleXYZ draws o around the Z axis, starting from the
// turtle's angular position.
func OscillatingCircleXYZ(t *turtle.Turtle, o Oscillation) {
	steps := AdjustSteps(o.Diameter, o.Steps, t.Resolution())
	dtheta := 360.0 / float64(steps)
	b := o.Diameter / 2
	z := t.Z()
	theta0 := polarAngle(t)
	for s := 1; s <= steps; s++ {
		theta := theta0 + dtheta*float64(s)
		r := b + o.AmplitudeXY*math.Cos(o.OscillationsXY*frame.Radians(theta+o.PhaseOffset))
		z += o.AmplitudeZ*math.Sin(frame.Radians(o.OscillationsZ*theta)) + o.ZInc
		rad := frame.Radians(theta)
		t.SetPosition(mgl64.Vec3{r * math.Cos(rad), r * math.Sin(rad), z})
	}
}

// SquareOscillatingCircle draws a castellated ring: n times around,
// an arc at the inner diameter, a radial step out, an arc at the outer
// diameter and a radial step back in.
func SquareOscillatingCircle(t *turtle.Turtle, inner, outer float64, n, steps int) {
	defer t.InDegrees()()
	steps = AdjustSteps(inner, steps, t.Resolution())
	rdiff := (outer - inner) / 2
	innerStep := math.Pi * inner / float64(steps)
	outerStep := math.Pi * outer / float64(steps)
	dtheta := 360.0 / float64(steps)
	arc := steps / (n * 2)
	for i := 0; i < n; i++ {
		for j := 0; j < arc; j++ {
			t.Forward(innerStep)
			t.Left(dtheta)
		}
		t.Right(90)
		t.Forward(rdiff)
		t.Left(90)
		for j := 0; j < arc; j++ {
			t.Forward(outerStep)
			t.Left(dtheta)
		}
		t.Left(90)
		t.Forward(rdiff)
		t.Right(90)
	}
}
